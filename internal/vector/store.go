// Package vector persists chunk embeddings and serves cosine top-K queries.
package vector

import (
	"context"
	"errors"

	"github.com/raghul-ravi/rag-it/internal/models"
)

// ErrDimensionMismatch is returned when a vector's length does not match the
// dimensionality the store was created with.
var ErrDimensionMismatch = errors.New("embedding dimension mismatch")

// ErrModelChanged is returned when the configured embedder differs from the
// one recorded at first ingest while the store still holds vectors.
var ErrModelChanged = errors.New("embedding model changed")

// Store persists embedded chunks. Upserting an existing ID replaces the
// record; chunk IDs are deterministic, so re-ingesting a file updates it
// in place.
type Store interface {
	Upsert(ctx context.Context, records []models.Record) error
	// Query returns up to topK records ranked by descending cosine
	// similarity. filter restricts results to records whose metadata
	// matches every given key exactly. An empty store returns no results
	// and no error.
	Query(ctx context.Context, embedding []float32, topK int, filter map[string]string) ([]models.Retrieved, error)
	GetByID(ctx context.Context, id string) (*models.Record, error)
	DeleteByID(ctx context.Context, ids ...string) error
	// DeleteBySource removes every chunk whose source metadata equals
	// sourcePath and returns how many were removed.
	DeleteBySource(ctx context.Context, sourcePath string) (int, error)
	Count() int
	Dimensions() int
	Close() error
}
