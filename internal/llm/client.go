// Package llm provides text generation clients for the agent hub.
// Every capability takes a context and returns an explicit error; callers
// never receive error strings disguised as content.
package llm

import (
	"context"
	"errors"
)

// Generator is the text generation capability. Implementations must be
// safe for concurrent use: specialist agents share clients across
// overlapping requests.
type Generator interface {
	Complete(ctx context.Context, prompt string) (string, error)
	CompleteWithSystem(ctx context.Context, systemPrompt, userPrompt string) (string, error)
}

// ErrSafetyBlocked reports that the model refused to produce content
// (no content parts returned). Callers surface a rephrase hint instead
// of retrying.
var ErrSafetyBlocked = errors.New("llm: response blocked by safety filter")
