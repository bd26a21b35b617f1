package agents

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"agenthub/internal/llm"
	"agenthub/internal/rag"
	"agenthub/internal/tools"
	"agenthub/internal/vectorindex"
)

// PassageRetriever fetches knowledge-base passages for a query.
type PassageRetriever interface {
	Retrieve(ctx context.Context, query string, k int) []vectorindex.Passage
}

// RAGAgent grounds its answers in retrieved passages. When retrieval
// comes up empty, or the model apologizes that the context cannot
// answer, it escalates to web search instead of leaving the user with
// a refusal.
type RAGAgent struct {
	name        string
	instruction string
	retriever   PassageRetriever
	gen         llm.Generator
	searcher    tools.WebSearcher
	log         *zap.Logger
}

// NewSupportAgent answers customer questions strictly from the
// knowledge base.
func NewSupportAgent(retriever PassageRetriever, gen llm.Generator, searcher tools.WebSearcher, log *zap.Logger) *RAGAgent {
	return newRAGAgent("customer_support", supportInstruction, retriever, gen, searcher, log)
}

// NewHRAgent answers employee policy questions, preferring the
// knowledge base but allowed to answer generally.
func NewHRAgent(retriever PassageRetriever, gen llm.Generator, searcher tools.WebSearcher, log *zap.Logger) *RAGAgent {
	return newRAGAgent("hr_assistant", hrInstruction, retriever, gen, searcher, log)
}

func newRAGAgent(name, instruction string, retriever PassageRetriever, gen llm.Generator, searcher tools.WebSearcher, log *zap.Logger) *RAGAgent {
	if log == nil {
		log = zap.NewNop()
	}
	return &RAGAgent{
		name:        name,
		instruction: instruction,
		retriever:   retriever,
		gen:         gen,
		searcher:    searcher,
		log:         log.With(zap.String("agent", name)),
	}
}

func (a *RAGAgent) Respond(ctx context.Context, query string) (string, error) {
	passages := a.retriever.Retrieve(ctx, query, rag.DefaultTopK)

	reply := noKnowledgeReply
	if len(passages) > 0 {
		prompt := fmt.Sprintf("Context:\n%s\n\nQuestion:\n%s", rag.CleanContext(passages), query)
		out, err := a.gen.CompleteWithSystem(ctx, a.instruction, prompt)
		if err != nil {
			return "", fmt.Errorf("%s agent: %w", a.name, err)
		}
		reply = out
	}

	if strings.Contains(strings.ToLower(reply), apologyMarker) {
		a.log.Info("knowledge base miss, falling back to web search")
		out, err := a.searcher.Search(ctx, query)
		if err != nil {
			return "", fmt.Errorf("%s agent: search fallback: %w", a.name, err)
		}
		return out, nil
	}
	return reply, nil
}
