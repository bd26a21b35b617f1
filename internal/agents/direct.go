package agents

import (
	"context"
	"fmt"

	"agenthub/internal/llm"
)

// MarketingAgent generates campaign copy and creative content.
type MarketingAgent struct {
	gen llm.Generator
}

func NewMarketingAgent(gen llm.Generator) *MarketingAgent {
	return &MarketingAgent{gen: gen}
}

func (a *MarketingAgent) Respond(ctx context.Context, query string) (string, error) {
	out, err := a.gen.CompleteWithSystem(ctx, marketingInstruction, query)
	if err != nil {
		return "", fmt.Errorf("marketing agent: %w", err)
	}
	return out, nil
}

// AdminAgent executes administrative instructions and acknowledges
// tersely. It never receives identity context.
type AdminAgent struct {
	gen llm.Generator
}

func NewAdminAgent(gen llm.Generator) *AdminAgent {
	return &AdminAgent{gen: gen}
}

func (a *AdminAgent) Respond(ctx context.Context, query string) (string, error) {
	out, err := a.gen.CompleteWithSystem(ctx, adminInstruction, query)
	if err != nil {
		return "", fmt.Errorf("admin agent: %w", err)
	}
	return out, nil
}

// GeneralAgent handles chit-chat and anything no specialist owns.
type GeneralAgent struct {
	gen llm.Generator
}

func NewGeneralAgent(gen llm.Generator) *GeneralAgent {
	return &GeneralAgent{gen: gen}
}

// RespondWithContext embeds the caller's identity header in the prompt
// so the model can personalize its answer.
func (a *GeneralAgent) RespondWithContext(ctx context.Context, contextHeader, query string) (string, error) {
	prompt := fmt.Sprintf("You are a helpful enterprise assistant. %s Query: %s", contextHeader, query)
	out, err := a.gen.Complete(ctx, prompt)
	if err != nil {
		return "", fmt.Errorf("general agent: %w", err)
	}
	return out, nil
}
