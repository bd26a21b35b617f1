// Package agents implements the specialist agents the orchestrator
// dispatches to. The support and HR agents answer from the knowledge
// base and fall back to grounded web search when it comes up empty; the
// marketing, admin, and general agents are direct model calls with
// role-specific instructions.
package agents

import "context"

// noKnowledgeReply is the exact refusal the knowledge-base agents are
// instructed to produce when the retrieved context cannot answer the
// question. The fallback check below matches on its apology prefix.
const noKnowledgeReply = "I'm sorry, I could not find that information in our knowledge base."

// apologyMarker triggers the web-search fallback. Matched lowercase so
// any apology-shaped refusal from the model counts, not just the exact
// canned phrase.
const apologyMarker = "i'm sorry"

// Agent answers a user query, already prefixed with any identity
// context the orchestrator injects.
type Agent interface {
	Respond(ctx context.Context, query string) (string, error)
}

const supportInstruction = "You are a helpful customer support assistant. Your job is to answer the user's question " +
	"using *only* the context provided. Do not use your own knowledge. " +
	"If the context provided does not contain the answer to the question, " +
	"you MUST respond with the exact phrase: " +
	"I'm sorry, I could not find that information in our knowledge base."

const hrInstruction = "You are a helpful HR assistant. " +
	"First, try to answer using the provided context. " +
	"If the context is missing, you MUST respond with 'I'm sorry, I could not find that information in our knowledge base.' " +
	"If you are asked to generate a general answer, be helpful, professional, and concise."

const marketingInstruction = "You are a creative marketing assistant. Generate compelling, engaging, and professional content as requested."

const adminInstruction = "You are an admin assistant. Follow the instructions precisely. Respond with only 'Task completed' or 'Error: [reason]'."
