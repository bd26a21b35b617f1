package rag

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"agenthub/internal/embedding"
)

// Adder is the slice of the vector index the ingestor needs.
type Adder interface {
	Add(ctx context.Context, ids []string, vectors [][]float32, texts []string, metadatas []map[string]string) error
}

// Ingestor embeds pre-chunked document text and stores it in the index.
// Chunking itself is the caller's concern.
type Ingestor struct {
	embedder embedding.Engine
	index    Adder
	log      *zap.Logger
}

// NewIngestor creates an ingestor. The embedder should use the
// RETRIEVAL_DOCUMENT task type.
func NewIngestor(embedder embedding.Engine, index Adder, log *zap.Logger) *Ingestor {
	if log == nil {
		log = zap.NewNop()
	}
	return &Ingestor{embedder: embedder, index: index, log: log}
}

// Ingest embeds chunks and adds them to the index under ids derived
// from the source name ("<source>_<i>"). Returns the number of chunks
// stored.
func (g *Ingestor) Ingest(ctx context.Context, chunks []string, source string) (int, error) {
	if len(chunks) == 0 {
		return 0, fmt.Errorf("no chunks to ingest")
	}

	vectors, err := g.embedder.EmbedBatch(ctx, chunks)
	if err != nil {
		return 0, fmt.Errorf("failed to embed chunks: %w", err)
	}
	if len(vectors) != len(chunks) {
		return 0, fmt.Errorf("embedding count mismatch: got %d for %d chunks", len(vectors), len(chunks))
	}

	ids := make([]string, len(chunks))
	metadatas := make([]map[string]string, len(chunks))
	for i := range chunks {
		ids[i] = fmt.Sprintf("%s_%d", source, i)
		metadatas[i] = map[string]string{"source": source}
	}

	if err := g.index.Add(ctx, ids, vectors, chunks, metadatas); err != nil {
		return 0, fmt.Errorf("failed to index chunks: %w", err)
	}

	g.log.Info("ingested document", zap.String("source", source), zap.Int("chunks", len(chunks)))
	return len(chunks), nil
}
