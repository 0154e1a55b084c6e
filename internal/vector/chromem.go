package vector

import (
	"context"
	"fmt"

	"github.com/philippgille/chromem-go"

	"github.com/raghul-ravi/rag-it/internal/models"
)

// upsertConcurrency bounds chromem's per-document persistence workers.
const upsertConcurrency = 4

// Compile-time interface check.
var _ Store = (*ChromemStore)(nil)

// ChromemStore is a Store backed by a persistent chromem-go collection.
// Every record carries its own embedding, so the collection never calls an
// embedding function.
type ChromemStore struct {
	db         *chromem.DB
	collection *chromem.Collection
	dims       int
}

// NewChromemStore opens or creates the named collection under dir. dims pins
// the expected dimensionality; vectors of any other length are rejected.
func NewChromemStore(dir, collection string, dims int) (*ChromemStore, error) {
	if dims <= 0 {
		return nil, fmt.Errorf("dimensions must be positive, got %d", dims)
	}
	db, err := chromem.NewPersistentDB(dir, false)
	if err != nil {
		return nil, fmt.Errorf("open vector db: %w", err)
	}
	col, err := db.GetOrCreateCollection(collection, map[string]string{"hnsw:space": "cosine"}, nil)
	if err != nil {
		return nil, fmt.Errorf("open collection %q: %w", collection, err)
	}
	return &ChromemStore{db: db, collection: col, dims: dims}, nil
}

// Upsert stores records, replacing any with the same ID.
func (s *ChromemStore) Upsert(ctx context.Context, records []models.Record) error {
	if len(records) == 0 {
		return nil
	}
	docs := make([]chromem.Document, 0, len(records))
	for _, r := range records {
		if len(r.Embedding) != s.dims {
			return fmt.Errorf("%w: record %s has %d dimensions, store expects %d; reset the data directory and re-ingest",
				ErrDimensionMismatch, r.ID, len(r.Embedding), s.dims)
		}
		docs = append(docs, chromem.Document{
			ID:        r.ID,
			Metadata:  r.Metadata,
			Embedding: r.Embedding,
			Content:   r.Text,
		})
	}
	if err := s.collection.AddDocuments(ctx, docs, upsertConcurrency); err != nil {
		return fmt.Errorf("upsert %d records: %w", len(docs), err)
	}
	return nil
}

// Query returns up to topK records ranked by descending cosine similarity.
func (s *ChromemStore) Query(ctx context.Context, embedding []float32, topK int, filter map[string]string) ([]models.Retrieved, error) {
	if len(embedding) != s.dims {
		return nil, fmt.Errorf("%w: query has %d dimensions, store expects %d; reset the data directory and re-ingest",
			ErrDimensionMismatch, len(embedding), s.dims)
	}
	if topK <= 0 {
		return nil, nil
	}
	count := s.collection.Count()
	if count == 0 {
		return nil, nil
	}

	// chromem rejects nResults above the stored count, and its where filter
	// shrinks the candidate set before ranking. Clamp, and when filtering
	// rank everything so topK survivors can be collected afterwards.
	n := topK
	if len(filter) > 0 || n > count {
		n = count
	}
	results, err := s.collection.QueryEmbedding(ctx, embedding, n, nil, nil)
	if err != nil {
		return nil, fmt.Errorf("query: %w", err)
	}

	retrieved := make([]models.Retrieved, 0, min(topK, len(results)))
	for _, res := range results {
		if !matchesFilter(res.Metadata, filter) {
			continue
		}
		retrieved = append(retrieved, models.Retrieved{
			Record: models.Record{
				ID:        res.ID,
				Embedding: res.Embedding,
				Text:      res.Content,
				Metadata:  res.Metadata,
			},
			Similarity: res.Similarity,
		})
		if len(retrieved) == topK {
			break
		}
	}
	return retrieved, nil
}

// GetByID returns the record with the given ID, or an error when absent.
func (s *ChromemStore) GetByID(ctx context.Context, id string) (*models.Record, error) {
	doc, err := s.collection.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get %s: %w", id, err)
	}
	return &models.Record{
		ID:        doc.ID,
		Embedding: doc.Embedding,
		Text:      doc.Content,
		Metadata:  doc.Metadata,
	}, nil
}

// DeleteByID removes the given records. Unknown IDs are ignored.
func (s *ChromemStore) DeleteByID(ctx context.Context, ids ...string) error {
	if len(ids) == 0 {
		return nil
	}
	if err := s.collection.Delete(ctx, nil, nil, ids...); err != nil {
		return fmt.Errorf("delete %d records: %w", len(ids), err)
	}
	return nil
}

// DeleteBySource removes every chunk whose source metadata equals sourcePath
// and returns how many were removed.
func (s *ChromemStore) DeleteBySource(ctx context.Context, sourcePath string) (int, error) {
	before := s.collection.Count()
	if before == 0 {
		return 0, nil
	}
	where := map[string]string{models.MetaSource: sourcePath}
	if err := s.collection.Delete(ctx, where, nil); err != nil {
		return 0, fmt.Errorf("delete source %s: %w", sourcePath, err)
	}
	return before - s.collection.Count(), nil
}

// Count returns the number of stored records.
func (s *ChromemStore) Count() int {
	return s.collection.Count()
}

// Dimensions returns the pinned dimensionality.
func (s *ChromemStore) Dimensions() int {
	return s.dims
}

// Close is a no-op; chromem persists each mutation as it happens.
func (s *ChromemStore) Close() error {
	return nil
}

func matchesFilter(metadata, filter map[string]string) bool {
	for k, v := range filter {
		if metadata[k] != v {
			return false
		}
	}
	return true
}
