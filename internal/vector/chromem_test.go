package vector

import (
	"context"
	"errors"
	"testing"

	"github.com/raghul-ravi/rag-it/internal/models"
)

func newTestStore(t *testing.T) *ChromemStore {
	t.Helper()
	s, err := NewChromemStore(t.TempDir(), "chunks", 3)
	if err != nil {
		t.Fatalf("NewChromemStore: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func rec(id string, vec []float32, source, text string) models.Record {
	return models.Record{
		ID:        id,
		Embedding: vec,
		Text:      text,
		Metadata:  map[string]string{models.MetaSource: source},
	}
}

func TestChromemStore_upsertAndQuery(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	err := s.Upsert(ctx, []models.Record{
		rec("a", []float32{1, 0, 0}, "/docs/a.txt", "alpha"),
		rec("b", []float32{0, 1, 0}, "/docs/b.txt", "beta"),
		rec("c", []float32{0.7071, 0.7071, 0}, "/docs/c.txt", "gamma"),
	})
	if err != nil {
		t.Fatalf("Upsert: %v", err)
	}
	if s.Count() != 3 {
		t.Fatalf("Count = %d", s.Count())
	}

	got, err := s.Query(ctx, []float32{1, 0, 0}, 2, nil)
	if err != nil {
		t.Fatalf("Query: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("expected 2 results, got %d", len(got))
	}
	if got[0].ID != "a" || got[1].ID != "c" {
		t.Errorf("ranking: got %s, %s", got[0].ID, got[1].ID)
	}
	if got[0].Similarity < got[1].Similarity {
		t.Error("results not in descending similarity order")
	}
	if got[0].Text != "alpha" {
		t.Errorf("text: got %q", got[0].Text)
	}
}

func TestChromemStore_upsertReplaces(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	if err := s.Upsert(ctx, []models.Record{rec("a", []float32{1, 0, 0}, "/d/a", "old")}); err != nil {
		t.Fatal(err)
	}
	if err := s.Upsert(ctx, []models.Record{rec("a", []float32{0, 1, 0}, "/d/a", "new")}); err != nil {
		t.Fatal(err)
	}
	if s.Count() != 1 {
		t.Fatalf("expected 1 record after replace, got %d", s.Count())
	}
	r, err := s.GetByID(ctx, "a")
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if r.Text != "new" {
		t.Errorf("got %q", r.Text)
	}
}

func TestChromemStore_queryMoreThanStored(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	if err := s.Upsert(ctx, []models.Record{
		rec("a", []float32{1, 0, 0}, "/d/a", "a"),
		rec("b", []float32{0, 1, 0}, "/d/b", "b"),
	}); err != nil {
		t.Fatal(err)
	}

	got, err := s.Query(ctx, []float32{1, 0, 0}, 50, nil)
	if err != nil {
		t.Fatalf("Query: %v", err)
	}
	if len(got) != 2 {
		t.Errorf("expected all 2 records, got %d", len(got))
	}
}

func TestChromemStore_emptyStore(t *testing.T) {
	s := newTestStore(t)
	got, err := s.Query(context.Background(), []float32{1, 0, 0}, 5, nil)
	if err != nil {
		t.Fatalf("Query on empty store: %v", err)
	}
	if len(got) != 0 {
		t.Errorf("expected no results, got %d", len(got))
	}
}

func TestChromemStore_dimensionMismatch(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	err := s.Upsert(ctx, []models.Record{rec("a", []float32{1, 0}, "/d/a", "a")})
	if !errors.Is(err, ErrDimensionMismatch) {
		t.Errorf("Upsert: expected ErrDimensionMismatch, got %v", err)
	}

	_, err = s.Query(ctx, []float32{1, 0, 0, 0}, 5, nil)
	if !errors.Is(err, ErrDimensionMismatch) {
		t.Errorf("Query: expected ErrDimensionMismatch, got %v", err)
	}
}

func TestChromemStore_filter(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	if err := s.Upsert(ctx, []models.Record{
		rec("a1", []float32{1, 0, 0}, "/d/a.txt", "a one"),
		rec("a2", []float32{0.9, 0.1, 0}, "/d/a.txt", "a two"),
		rec("b1", []float32{0.99, 0.01, 0}, "/d/b.txt", "b one"),
	}); err != nil {
		t.Fatal(err)
	}

	got, err := s.Query(ctx, []float32{1, 0, 0}, 5, map[string]string{models.MetaSource: "/d/a.txt"})
	if err != nil {
		t.Fatalf("Query: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("expected 2 filtered results, got %d", len(got))
	}
	for _, r := range got {
		if r.Metadata[models.MetaSource] != "/d/a.txt" {
			t.Errorf("filter leaked record %s from %s", r.ID, r.Metadata[models.MetaSource])
		}
	}
}

func TestChromemStore_deleteByID(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	if err := s.Upsert(ctx, []models.Record{
		rec("a", []float32{1, 0, 0}, "/d/a", "a"),
		rec("b", []float32{0, 1, 0}, "/d/b", "b"),
	}); err != nil {
		t.Fatal(err)
	}
	if err := s.DeleteByID(ctx, "a"); err != nil {
		t.Fatalf("DeleteByID: %v", err)
	}
	if s.Count() != 1 {
		t.Errorf("Count = %d", s.Count())
	}
	if _, err := s.GetByID(ctx, "a"); err == nil {
		t.Error("expected error for deleted record")
	}
}

func TestChromemStore_deleteBySource(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	if err := s.Upsert(ctx, []models.Record{
		rec("a1", []float32{1, 0, 0}, "/d/a.txt", "a one"),
		rec("a2", []float32{0, 1, 0}, "/d/a.txt", "a two"),
		rec("b1", []float32{0, 0, 1}, "/d/b.txt", "b one"),
	}); err != nil {
		t.Fatal(err)
	}

	n, err := s.DeleteBySource(ctx, "/d/a.txt")
	if err != nil {
		t.Fatalf("DeleteBySource: %v", err)
	}
	if n != 2 {
		t.Errorf("expected 2 deleted, got %d", n)
	}
	if s.Count() != 1 {
		t.Errorf("Count = %d", s.Count())
	}

	// Unknown source deletes nothing
	n, err = s.DeleteBySource(ctx, "/d/missing.txt")
	if err != nil {
		t.Fatalf("DeleteBySource: %v", err)
	}
	if n != 0 {
		t.Errorf("expected 0 deleted, got %d", n)
	}
}

func TestChromemStore_persistsAcrossReopen(t *testing.T) {
	dir := t.TempDir()
	ctx := context.Background()

	s1, err := NewChromemStore(dir, "chunks", 3)
	if err != nil {
		t.Fatal(err)
	}
	if err := s1.Upsert(ctx, []models.Record{rec("a", []float32{1, 0, 0}, "/d/a", "persisted")}); err != nil {
		t.Fatal(err)
	}
	s1.Close()

	s2, err := NewChromemStore(dir, "chunks", 3)
	if err != nil {
		t.Fatal(err)
	}
	defer s2.Close()
	if s2.Count() != 1 {
		t.Fatalf("Count after reopen = %d", s2.Count())
	}
	got, err := s2.Query(ctx, []float32{1, 0, 0}, 1, nil)
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 1 || got[0].Text != "persisted" {
		t.Errorf("got %+v", got)
	}
}

func TestNewChromemStore_invalidDims(t *testing.T) {
	if _, err := NewChromemStore(t.TempDir(), "chunks", 0); err == nil {
		t.Error("expected error for zero dimensions")
	}
}
