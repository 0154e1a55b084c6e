package storage

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/raghul-ravi/rag-it/internal/models"
)

func newTestCatalog(t *testing.T) *SQLiteCatalog {
	t.Helper()
	c, err := NewSQLiteCatalog(filepath.Join(t.TempDir(), "catalog.db"))
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { c.Close() })
	return c
}

func okSource(id, path string, size, mtime int64, chunks int) *models.Source {
	return &models.Source{
		ID:         id,
		Path:       path,
		Filename:   filepath.Base(path),
		Size:       size,
		MtimeNs:    mtime,
		Chunks:     chunks,
		Status:     models.SourceStatusOK,
		IngestedAt: time.Now(),
	}
}

func TestSQLiteCatalog_upsertAndGet(t *testing.T) {
	c := newTestCatalog(t)
	ctx := context.Background()

	src := okSource("s1", "/docs/a.txt", 100, 12345, 3)
	if err := c.UpsertSource(ctx, src); err != nil {
		t.Fatal(err)
	}
	if src.UpdatedAt.IsZero() {
		t.Error("UpdatedAt should be set")
	}

	got, err := c.GetSource(ctx, "s1")
	if err != nil {
		t.Fatal(err)
	}
	if got == nil || got.Path != "/docs/a.txt" || got.Chunks != 3 {
		t.Errorf("got %+v", got)
	}

	byPath, err := c.GetSourceByPath(ctx, "/docs/a.txt")
	if err != nil {
		t.Fatal(err)
	}
	if byPath == nil || byPath.ID != "s1" {
		t.Errorf("got %+v", byPath)
	}
}

func TestSQLiteCatalog_missingReturnsNil(t *testing.T) {
	c := newTestCatalog(t)
	ctx := context.Background()

	got, err := c.GetSource(ctx, "nope")
	if err != nil {
		t.Fatal(err)
	}
	if got != nil {
		t.Errorf("expected nil, got %+v", got)
	}
	got, err = c.GetSourceByPath(ctx, "/nope")
	if err != nil {
		t.Fatal(err)
	}
	if got != nil {
		t.Errorf("expected nil, got %+v", got)
	}
}

func TestSQLiteCatalog_upsertReplaces(t *testing.T) {
	c := newTestCatalog(t)
	ctx := context.Background()

	if err := c.UpsertSource(ctx, okSource("s1", "/docs/a.txt", 100, 1, 3)); err != nil {
		t.Fatal(err)
	}
	if err := c.UpsertSource(ctx, okSource("s1", "/docs/a.txt", 200, 2, 5)); err != nil {
		t.Fatal(err)
	}

	got, _ := c.GetSource(ctx, "s1")
	if got.Size != 200 || got.MtimeNs != 2 || got.Chunks != 5 {
		t.Errorf("got %+v", got)
	}
	n, _ := c.CountSources(ctx)
	if n != 1 {
		t.Errorf("expected 1 source, got %d", n)
	}
}

func TestSQLiteCatalog_failedStatus(t *testing.T) {
	c := newTestCatalog(t)
	ctx := context.Background()

	src := &models.Source{
		ID:       "s2",
		Path:     "/docs/broken.pdf",
		Filename: "broken.pdf",
		Size:     50,
		MtimeNs:  9,
		Status:   models.SourceStatusFailed,
		Error:    "open PDF: malformed header",
	}
	if err := c.UpsertSource(ctx, src); err != nil {
		t.Fatal(err)
	}

	got, _ := c.GetSource(ctx, "s2")
	if got.Status != models.SourceStatusFailed || got.Error == "" {
		t.Errorf("got %+v", got)
	}

	failed, err := c.CountByStatus(ctx, models.SourceStatusFailed)
	if err != nil || failed != 1 {
		t.Errorf("CountByStatus: %v, %d", err, failed)
	}
}

func TestSQLiteCatalog_listOrderedByPath(t *testing.T) {
	c := newTestCatalog(t)
	ctx := context.Background()

	_ = c.UpsertSource(ctx, okSource("s2", "/docs/b.txt", 1, 1, 1))
	_ = c.UpsertSource(ctx, okSource("s1", "/docs/a.txt", 1, 1, 1))
	_ = c.UpsertSource(ctx, okSource("s3", "/docs/c.txt", 1, 1, 1))

	list, err := c.ListSources(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(list) != 3 {
		t.Fatalf("expected 3 sources, got %d", len(list))
	}
	if list[0].Path != "/docs/a.txt" || list[2].Path != "/docs/c.txt" {
		t.Errorf("order: %s, %s, %s", list[0].Path, list[1].Path, list[2].Path)
	}
}

func TestSQLiteCatalog_delete(t *testing.T) {
	c := newTestCatalog(t)
	ctx := context.Background()

	_ = c.UpsertSource(ctx, okSource("s1", "/docs/a.txt", 1, 1, 1))
	if err := c.DeleteSource(ctx, "s1"); err != nil {
		t.Fatal(err)
	}
	got, _ := c.GetSource(ctx, "s1")
	if got != nil {
		t.Errorf("expected nil after delete, got %+v", got)
	}
	// Unknown ID is fine
	if err := c.DeleteSource(ctx, "unknown"); err != nil {
		t.Errorf("delete unknown: %v", err)
	}
}

func TestSQLiteCatalog_totalChunks(t *testing.T) {
	c := newTestCatalog(t)
	ctx := context.Background()

	_ = c.UpsertSource(ctx, okSource("s1", "/docs/a.txt", 1, 1, 3))
	_ = c.UpsertSource(ctx, okSource("s2", "/docs/b.txt", 1, 1, 4))
	_ = c.UpsertSource(ctx, &models.Source{
		ID: "s3", Path: "/docs/c.pdf", Filename: "c.pdf",
		Status: models.SourceStatusFailed, Error: "bad pdf",
	})

	total, err := c.TotalChunks(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if total != 7 {
		t.Errorf("expected 7 chunks, got %d", total)
	}
}

func TestSQLiteCatalog_persistsAcrossReopen(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "catalog.db")
	ctx := context.Background()

	c1, err := NewSQLiteCatalog(path)
	if err != nil {
		t.Fatal(err)
	}
	_ = c1.UpsertSource(ctx, okSource("s1", "/docs/a.txt", 10, 20, 2))
	c1.Close()

	c2, err := NewSQLiteCatalog(path)
	if err != nil {
		t.Fatal(err)
	}
	defer c2.Close()
	got, err := c2.GetSource(ctx, "s1")
	if err != nil {
		t.Fatal(err)
	}
	if got == nil || got.Size != 10 || got.MtimeNs != 20 {
		t.Errorf("got %+v", got)
	}
}

func TestSource_unchangedDetection(t *testing.T) {
	src := okSource("s1", "/docs/a.txt", 100, 555, 2)
	if !src.Unchanged(100, 555) {
		t.Error("same size and mtime should be unchanged")
	}
	if src.Unchanged(101, 555) {
		t.Error("size change should be detected")
	}
	if src.Unchanged(100, 556) {
		t.Error("mtime change should be detected")
	}

	failed := &models.Source{Status: models.SourceStatusFailed, Size: 100, MtimeNs: 555}
	if failed.Unchanged(100, 555) {
		t.Error("failed sources must always be retried")
	}
}
