// Package keyword provides exact-term (BM25) search over ingested chunks.
// It backs the search command and serves as the retrieval fallback when
// vector similarity finds nothing usable.
package keyword

import (
	"context"

	"github.com/raghul-ravi/rag-it/internal/models"
)

// Hit is a single keyword search result with enough stored fields to display
// or to build an answer prompt without another store lookup.
type Hit struct {
	ID         string
	Score      float64
	Source     string
	Filename   string
	ChunkIndex int
	Text       string
}

// Index defines keyword search over chunks. Chunk IDs are deterministic, so
// re-indexing a chunk replaces it.
type Index interface {
	IndexBatch(ctx context.Context, records []models.Record) error
	Search(ctx context.Context, query string, limit int) ([]Hit, error)
	DeleteByID(ctx context.Context, ids ...string) error
	// DeleteBySource removes all chunks of the given source path and
	// returns how many were removed.
	DeleteBySource(ctx context.Context, sourcePath string) (int, error)
	Count() (uint64, error)
	Close() error
}
