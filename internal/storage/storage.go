// Package storage keeps the catalog of ingested source files.
package storage

import (
	"context"

	"github.com/raghul-ravi/rag-it/internal/models"
)

// Catalog tracks every file the pipeline has seen, with size and mtime for
// change detection and the last ingest outcome for reporting.
type Catalog interface {
	// UpsertSource inserts the source or replaces the row with the same ID.
	UpsertSource(ctx context.Context, src *models.Source) error
	// GetSource returns the source with the given ID, or nil when absent.
	GetSource(ctx context.Context, id string) (*models.Source, error)
	// GetSourceByPath returns the source with the given path, or nil when
	// absent.
	GetSourceByPath(ctx context.Context, path string) (*models.Source, error)
	// ListSources returns all sources ordered by path.
	ListSources(ctx context.Context) ([]*models.Source, error)
	DeleteSource(ctx context.Context, id string) error

	CountSources(ctx context.Context) (int64, error)
	CountByStatus(ctx context.Context, status string) (int64, error)
	// TotalChunks sums the chunk counts of successfully ingested sources.
	TotalChunks(ctx context.Context) (int64, error)

	Close() error
}
