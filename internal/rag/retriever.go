// Package rag wraps the embedding engine and vector index into
// retrieval-augmented generation lookups.
package rag

import (
	"context"
	"regexp"
	"strings"

	"go.uber.org/zap"

	"agenthub/internal/embedding"
	"agenthub/internal/vectorindex"
)

// DefaultTopK is the number of passages retrieved per query.
const DefaultTopK = 3

// Searcher is the slice of the vector index the retriever needs.
type Searcher interface {
	Query(ctx context.Context, vector []float32, k int) ([]vectorindex.Passage, error)
}

// Retriever retrieves the top-k most relevant passages for a query.
type Retriever struct {
	embedder embedding.Engine
	index    Searcher
	log      *zap.Logger
}

// NewRetriever creates a retriever. The embedder should use the
// RETRIEVAL_QUERY task type.
func NewRetriever(embedder embedding.Engine, index Searcher, log *zap.Logger) *Retriever {
	if log == nil {
		log = zap.NewNop()
	}
	return &Retriever{embedder: embedder, index: index, log: log}
}

// Retrieve returns up to k passages ordered by decreasing relevance.
// An unavailable index or a failed call yields an empty slice, never an
// error: retrieval gaps degrade the answer, they must not fail the
// request.
func (r *Retriever) Retrieve(ctx context.Context, query string, k int) []vectorindex.Passage {
	if k <= 0 {
		k = DefaultTopK
	}
	if r.embedder == nil || r.index == nil {
		return nil
	}

	vector, err := r.embedder.Embed(ctx, query)
	if err != nil {
		r.log.Warn("query embedding failed", zap.Error(err))
		return nil
	}

	passages, err := r.index.Query(ctx, vector, k)
	if err != nil {
		r.log.Warn("index query failed", zap.Error(err))
		return nil
	}
	return passages
}

var whitespaceRun = regexp.MustCompile(`\s+`)

// CleanContext joins passage texts and collapses all whitespace runs to
// single spaces, producing a compact "Context" block for the prompt.
func CleanContext(passages []vectorindex.Passage) string {
	texts := make([]string, len(passages))
	for i, p := range passages {
		texts[i] = p.Text
	}
	joined := strings.Join(texts, " ")
	return strings.TrimSpace(whitespaceRun.ReplaceAllString(joined, " "))
}
