package storage

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/raghul-ravi/rag-it/internal/models"
)

// SQLiteCatalog implements Catalog using SQLite.
type SQLiteCatalog struct {
	db *sql.DB
}

// NewSQLiteCatalog opens or creates a SQLite database at dbPath and
// initializes the schema. Parent directories are created if needed.
func NewSQLiteCatalog(dbPath string) (*SQLiteCatalog, error) {
	if dir := filepath.Dir(dbPath); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("failed to create catalog directory: %w", err)
		}
	}
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open catalog: %w", err)
	}

	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to enable WAL: %w", err)
	}

	if err := initSchema(db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	return &SQLiteCatalog{db: db}, nil
}

func initSchema(db *sql.DB) error {
	schema := `
	CREATE TABLE IF NOT EXISTS sources (
		id TEXT PRIMARY KEY,
		path TEXT NOT NULL UNIQUE,
		filename TEXT NOT NULL,
		size INTEGER NOT NULL,
		mtime INTEGER NOT NULL,
		chunks INTEGER NOT NULL DEFAULT 0,
		status TEXT NOT NULL,
		error TEXT NOT NULL DEFAULT '',
		ingested_at TIMESTAMP,
		updated_at TIMESTAMP
	);

	CREATE INDEX IF NOT EXISTS idx_sources_status ON sources(status);
	`
	_, err := db.Exec(schema)
	return err
}

// UpsertSource inserts or replaces the catalog row for src. UpdatedAt is set
// here; IngestedAt is the caller's to manage.
func (c *SQLiteCatalog) UpsertSource(ctx context.Context, src *models.Source) error {
	src.UpdatedAt = time.Now()
	_, err := c.db.ExecContext(ctx,
		`INSERT INTO sources (id, path, filename, size, mtime, chunks, status, error, ingested_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT(id) DO UPDATE SET
			path = excluded.path,
			filename = excluded.filename,
			size = excluded.size,
			mtime = excluded.mtime,
			chunks = excluded.chunks,
			status = excluded.status,
			error = excluded.error,
			ingested_at = excluded.ingested_at,
			updated_at = excluded.updated_at`,
		src.ID, src.Path, src.Filename, src.Size, src.MtimeNs, src.Chunks,
		src.Status, src.Error, src.IngestedAt, src.UpdatedAt,
	)
	return err
}

// GetSource returns the source with the given ID, or nil when absent.
func (c *SQLiteCatalog) GetSource(ctx context.Context, id string) (*models.Source, error) {
	return c.getWhere(ctx, "id = ?", id)
}

// GetSourceByPath returns the source with the given path, or nil when absent.
func (c *SQLiteCatalog) GetSourceByPath(ctx context.Context, path string) (*models.Source, error) {
	return c.getWhere(ctx, "path = ?", path)
}

func (c *SQLiteCatalog) getWhere(ctx context.Context, where string, arg any) (*models.Source, error) {
	var src models.Source
	err := c.db.QueryRowContext(ctx,
		`SELECT id, path, filename, size, mtime, chunks, status, error, ingested_at, updated_at
		 FROM sources WHERE `+where, arg,
	).Scan(&src.ID, &src.Path, &src.Filename, &src.Size, &src.MtimeNs, &src.Chunks,
		&src.Status, &src.Error, &src.IngestedAt, &src.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &src, nil
}

// ListSources returns all sources ordered by path.
func (c *SQLiteCatalog) ListSources(ctx context.Context) ([]*models.Source, error) {
	rows, err := c.db.QueryContext(ctx,
		`SELECT id, path, filename, size, mtime, chunks, status, error, ingested_at, updated_at
		 FROM sources ORDER BY path`,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var sources []*models.Source
	for rows.Next() {
		var src models.Source
		if err := rows.Scan(&src.ID, &src.Path, &src.Filename, &src.Size, &src.MtimeNs,
			&src.Chunks, &src.Status, &src.Error, &src.IngestedAt, &src.UpdatedAt); err != nil {
			return nil, err
		}
		sources = append(sources, &src)
	}
	return sources, rows.Err()
}

// DeleteSource removes the catalog row. Deleting an unknown ID is not an
// error.
func (c *SQLiteCatalog) DeleteSource(ctx context.Context, id string) error {
	_, err := c.db.ExecContext(ctx, `DELETE FROM sources WHERE id = ?`, id)
	return err
}

// CountSources returns the total number of cataloged sources.
func (c *SQLiteCatalog) CountSources(ctx context.Context) (int64, error) {
	var count int64
	err := c.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM sources`).Scan(&count)
	return count, err
}

// CountByStatus returns the number of sources with the given status.
func (c *SQLiteCatalog) CountByStatus(ctx context.Context, status string) (int64, error) {
	var count int64
	err := c.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM sources WHERE status = ?`, status).Scan(&count)
	return count, err
}

// TotalChunks sums chunk counts across successfully ingested sources.
func (c *SQLiteCatalog) TotalChunks(ctx context.Context) (int64, error) {
	var total int64
	err := c.db.QueryRowContext(ctx,
		`SELECT COALESCE(SUM(chunks), 0) FROM sources WHERE status = ?`,
		models.SourceStatusOK,
	).Scan(&total)
	return total, err
}

// Close closes the database connection.
func (c *SQLiteCatalog) Close() error {
	return c.db.Close()
}
