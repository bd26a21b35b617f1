// Package vectorindex stores (id, vector, text, metadata) tuples in
// SQLite and answers nearest-neighbor queries. When the sqlite-vec
// extension is available the distance runs in SQL; otherwise the index
// falls back to a brute-force cosine scan in Go.
package vectorindex

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"

	_ "github.com/mattn/go-sqlite3"
	"go.uber.org/zap"

	"agenthub/internal/embedding"
)

// Passage is one retrieval result, ordered by decreasing relevance.
type Passage struct {
	ID       string
	Text     string
	Metadata map[string]string
}

// Index is a SQLite-backed vector index. Safe for concurrent use.
type Index struct {
	db      *sql.DB
	mu      sync.RWMutex
	dbPath  string
	vecExt  bool
	log     *zap.Logger
}

// Open initializes the index database at the given path.
func Open(path string, log *zap.Logger) (*Index, error) {
	if log == nil {
		log = zap.NewNop()
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create directory: %w", err)
	}

	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	if _, err := db.Exec("PRAGMA busy_timeout = 5000"); err != nil {
		log.Debug("failed to set sqlite busy_timeout", zap.Error(err))
	}
	if _, err := db.Exec("PRAGMA journal_mode = WAL"); err != nil {
		log.Debug("failed to set sqlite journal_mode=WAL", zap.Error(err))
	}

	idx := &Index{db: db, dbPath: path, log: log}
	if err := idx.initialize(); err != nil {
		db.Close()
		return nil, err
	}

	idx.detectVecExtension()
	if !idx.vecExt {
		log.Warn("sqlite-vec extension not available, using brute-force cosine scan")
	}
	idx.log.Info("vector index opened", zap.String("path", idx.dbPath), zap.Bool("sqlite_vec", idx.vecExt))
	return idx, nil
}

func (x *Index) initialize() error {
	_, err := x.db.Exec(`
		CREATE TABLE IF NOT EXISTS passages (
			id        TEXT PRIMARY KEY,
			content   TEXT NOT NULL,
			embedding BLOB,
			metadata  TEXT,
			created_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)
	`)
	if err != nil {
		return fmt.Errorf("failed to initialize schema: %w", err)
	}
	return nil
}

// detectVecExtension probes for sqlite-vec.
func (x *Index) detectVecExtension() {
	var version string
	if err := x.db.QueryRow("SELECT vec_version()").Scan(&version); err == nil {
		x.vecExt = true
		x.log.Debug("sqlite-vec available", zap.String("version", version))
	}
}

// Add stores a batch of (id, vector, text, metadata) tuples. Existing
// ids are replaced. The four slices must have equal length.
func (x *Index) Add(ctx context.Context, ids []string, vectors [][]float32, texts []string, metadatas []map[string]string) error {
	if len(ids) != len(vectors) || len(ids) != len(texts) || len(ids) != len(metadatas) {
		return fmt.Errorf("batch length mismatch: ids=%d vectors=%d texts=%d metadatas=%d",
			len(ids), len(vectors), len(texts), len(metadatas))
	}

	x.mu.Lock()
	defer x.mu.Unlock()

	tx, err := x.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx,
		"INSERT OR REPLACE INTO passages (id, content, embedding, metadata) VALUES (?, ?, ?, ?)")
	if err != nil {
		return fmt.Errorf("failed to prepare insert: %w", err)
	}
	defer stmt.Close()

	for i := range ids {
		metaJSON, err := json.Marshal(metadatas[i])
		if err != nil {
			return fmt.Errorf("failed to serialize metadata for %s: %w", ids[i], err)
		}
		if _, err := stmt.ExecContext(ctx, ids[i], texts[i], encodeVectorBlob(vectors[i]), string(metaJSON)); err != nil {
			return fmt.Errorf("failed to insert %s: %w", ids[i], err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit batch: %w", err)
	}
	x.log.Debug("indexed passages", zap.Int("count", len(ids)))
	return nil
}

// Query returns the k nearest passages to the given vector, ordered by
// decreasing similarity.
func (x *Index) Query(ctx context.Context, vector []float32, k int) ([]Passage, error) {
	if k <= 0 {
		k = 3
	}

	x.mu.RLock()
	defer x.mu.RUnlock()

	if x.vecExt {
		return x.queryVec(ctx, vector, k)
	}
	return x.queryScan(ctx, vector, k)
}

// queryVec ranks in SQL using sqlite-vec's cosine distance.
func (x *Index) queryVec(ctx context.Context, vector []float32, k int) ([]Passage, error) {
	rows, err := x.db.QueryContext(ctx, `
		SELECT id, content, metadata,
		       vec_distance_cosine(embedding, ?) AS distance
		FROM passages
		WHERE embedding IS NOT NULL
		ORDER BY distance ASC
		LIMIT ?
	`, encodeVectorBlob(vector), k)
	if err != nil {
		return nil, fmt.Errorf("vector query failed: %w", err)
	}
	defer rows.Close()

	var results []Passage
	for rows.Next() {
		var p Passage
		var metaJSON string
		var distance float64
		if err := rows.Scan(&p.ID, &p.Text, &metaJSON, &distance); err != nil {
			x.log.Warn("failed to scan passage row", zap.Error(err))
			continue
		}
		if metaJSON != "" {
			json.Unmarshal([]byte(metaJSON), &p.Metadata)
		}
		results = append(results, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating results: %w", err)
	}
	return results, nil
}

// queryScan ranks in Go over all stored vectors.
func (x *Index) queryScan(ctx context.Context, vector []float32, k int) ([]Passage, error) {
	rows, err := x.db.QueryContext(ctx,
		"SELECT id, content, embedding, metadata FROM passages WHERE embedding IS NOT NULL")
	if err != nil {
		return nil, fmt.Errorf("scan query failed: %w", err)
	}
	defer rows.Close()

	type candidate struct {
		passage    Passage
		similarity float64
	}
	var candidates []candidate

	for rows.Next() {
		var p Passage
		var blob []byte
		var metaJSON string
		if err := rows.Scan(&p.ID, &p.Text, &blob, &metaJSON); err != nil {
			continue
		}
		stored := decodeVectorBlob(blob)
		sim, err := embedding.CosineSimilarity(vector, stored)
		if err != nil {
			continue
		}
		if metaJSON != "" {
			json.Unmarshal([]byte(metaJSON), &p.Metadata)
		}
		candidates = append(candidates, candidate{passage: p, similarity: sim})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating results: %w", err)
	}

	sort.Slice(candidates, func(i, j int) bool {
		return candidates[i].similarity > candidates[j].similarity
	})
	if len(candidates) > k {
		candidates = candidates[:k]
	}

	results := make([]Passage, len(candidates))
	for i, c := range candidates {
		results[i] = c.passage
	}
	return results, nil
}

// Count returns the number of stored passages.
func (x *Index) Count(ctx context.Context) (int64, error) {
	x.mu.RLock()
	defer x.mu.RUnlock()

	var n int64
	if err := x.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM passages").Scan(&n); err != nil {
		return 0, fmt.Errorf("count failed: %w", err)
	}
	return n, nil
}

// Close closes the underlying database.
func (x *Index) Close() error {
	x.mu.Lock()
	defer x.mu.Unlock()
	if x.db == nil {
		return nil
	}
	err := x.db.Close()
	x.db = nil
	return err
}

// encodeVectorBlob encodes a float32 slice as a little-endian binary
// blob, the layout sqlite-vec expects.
func encodeVectorBlob(vec []float32) []byte {
	buf := &bytes.Buffer{}
	if err := binary.Write(buf, binary.LittleEndian, vec); err != nil {
		return nil
	}
	return buf.Bytes()
}

func decodeVectorBlob(blob []byte) []float32 {
	if len(blob) == 0 || len(blob)%4 != 0 {
		return nil
	}
	vec := make([]float32, len(blob)/4)
	if err := binary.Read(bytes.NewReader(blob), binary.LittleEndian, &vec); err != nil {
		return nil
	}
	return vec
}
