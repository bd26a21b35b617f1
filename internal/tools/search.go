package tools

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"agenthub/internal/llm"
)

const searchInstruction = "You are an Expert Market Intelligence Analyst. Your job is to perform deep, strategic research. " +
	"Search for financial data, product strategies, competitor news, market gaps, and launch plans as requested. " +
	"Synthesize the search results into a detailed, comprehensive research summary."

// GeminiSearcher answers research instructions with a search-grounded
// model. The generator it wraps must have the Google Search tool enabled,
// otherwise answers come from model memory alone.
type GeminiSearcher struct {
	gen llm.Generator
	log *zap.Logger
}

func NewGeminiSearcher(gen llm.Generator, log *zap.Logger) *GeminiSearcher {
	if log == nil {
		log = zap.NewNop()
	}
	return &GeminiSearcher{gen: gen, log: log}
}

// Search runs the instruction through the grounded model and returns the
// synthesized summary.
func (s *GeminiSearcher) Search(ctx context.Context, instruction string) (string, error) {
	s.log.Info("running web search", zap.String("instruction", instruction))

	out, err := s.gen.CompleteWithSystem(ctx, searchInstruction, instruction)
	if err != nil {
		return "", fmt.Errorf("web search: %w", err)
	}
	return out, nil
}
