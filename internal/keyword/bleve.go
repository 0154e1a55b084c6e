package keyword

import (
	"context"
	"fmt"
	"os"
	"strconv"

	"github.com/blevesearch/bleve/v2"
	exactanalyzer "github.com/blevesearch/bleve/v2/analysis/analyzer/keyword"
	"github.com/blevesearch/bleve/v2/analysis/analyzer/standard"

	"github.com/raghul-ravi/rag-it/internal/models"
)

// deleteBatchSize caps how many chunk IDs one delete query collects per pass.
const deleteBatchSize = 10000

// Compile-time interface check.
var _ Index = (*BleveIndex)(nil)

// chunkDoc is the shape bleve indexes per chunk.
type chunkDoc struct {
	Content    string `json:"content"`
	Source     string `json:"source"`
	Filename   string `json:"filename"`
	ChunkIndex int    `json:"chunk_index"`
}

// BleveIndex implements Index using Bleve.
type BleveIndex struct {
	index bleve.Index
}

// NewBleveIndex creates or opens a Bleve index at path. An existing index is
// reused so unchanged files keep their entries across runs. If the mapping
// changes in code, remove the index directory to force a rebuild.
func NewBleveIndex(path string) (*BleveIndex, error) {
	if _, err := os.Stat(path); err == nil {
		index, openErr := bleve.Open(path)
		if openErr != nil {
			return nil, fmt.Errorf("failed to open keyword index: %w", openErr)
		}
		return &BleveIndex{index: index}, nil
	}

	im := bleve.NewIndexMapping()
	docMapping := bleve.NewDocumentMapping()

	// Standard analyzer (lowercase + tokenize, no stemming) so queries like
	// "bayes" match the exact word; the English analyzer stems "Bayesian" to
	// "bayesi" and "bayes" to "bay", which never match each other.
	textMapping := bleve.NewTextFieldMapping()
	textMapping.Analyzer = standard.Name
	docMapping.AddFieldMappingsAt("content", textMapping)
	docMapping.AddFieldMappingsAt("filename", textMapping)

	// Source paths are matched exactly for per-file deletes, never tokenized.
	sourceMapping := bleve.NewTextFieldMapping()
	sourceMapping.Analyzer = exactanalyzer.Name
	docMapping.AddFieldMappingsAt("source", sourceMapping)

	docMapping.AddFieldMappingsAt("chunk_index", bleve.NewNumericFieldMapping())

	im.AddDocumentMapping("chunk", docMapping)
	im.DefaultType = "chunk"
	im.DefaultMapping = docMapping

	index, err := bleve.New(path, im)
	if err != nil {
		return nil, fmt.Errorf("failed to create keyword index: %w", err)
	}
	return &BleveIndex{index: index}, nil
}

// IndexBatch indexes the records in one batch, replacing entries with the
// same ID.
func (b *BleveIndex) IndexBatch(_ context.Context, records []models.Record) error {
	if len(records) == 0 {
		return nil
	}
	batch := b.index.NewBatch()
	for _, rec := range records {
		if err := batch.Index(rec.ID, toChunkDoc(rec)); err != nil {
			return fmt.Errorf("index chunk %s: %w", rec.ID, err)
		}
	}
	if err := b.index.Batch(batch); err != nil {
		return fmt.Errorf("index batch of %d chunks: %w", len(records), err)
	}
	return nil
}

func toChunkDoc(rec models.Record) chunkDoc {
	idx, _ := strconv.Atoi(rec.Metadata[models.MetaChunkIndex])
	return chunkDoc{
		Content:    rec.Text,
		Source:     rec.Metadata[models.MetaSource],
		Filename:   rec.Metadata[models.MetaFilename],
		ChunkIndex: idx,
	}
}

// Search runs a match query over content and filename and returns up to
// limit hits with their stored fields.
func (b *BleveIndex) Search(_ context.Context, query string, limit int) ([]Hit, error) {
	if limit <= 0 {
		return nil, nil
	}
	contentQuery := bleve.NewMatchQuery(query)
	contentQuery.SetField("content")
	filenameQuery := bleve.NewMatchQuery(query)
	filenameQuery.SetField("filename")

	req := bleve.NewSearchRequest(bleve.NewDisjunctionQuery(contentQuery, filenameQuery))
	req.Size = limit
	req.Fields = []string{"content", "source", "filename", "chunk_index"}

	results, err := b.index.Search(req)
	if err != nil {
		return nil, fmt.Errorf("keyword search failed: %w", err)
	}

	hits := make([]Hit, 0, len(results.Hits))
	for _, h := range results.Hits {
		hit := Hit{ID: h.ID, Score: h.Score}
		if v, ok := h.Fields["content"].(string); ok {
			hit.Text = v
		}
		if v, ok := h.Fields["source"].(string); ok {
			hit.Source = v
		}
		if v, ok := h.Fields["filename"].(string); ok {
			hit.Filename = v
		}
		if v, ok := h.Fields["chunk_index"].(float64); ok {
			hit.ChunkIndex = int(v)
		}
		hits = append(hits, hit)
	}
	return hits, nil
}

// DeleteByID removes the given chunks from the index.
func (b *BleveIndex) DeleteByID(_ context.Context, ids ...string) error {
	if len(ids) == 0 {
		return nil
	}
	batch := b.index.NewBatch()
	for _, id := range ids {
		batch.Delete(id)
	}
	if err := b.index.Batch(batch); err != nil {
		return fmt.Errorf("delete %d chunks: %w", len(ids), err)
	}
	return nil
}

// DeleteBySource removes every chunk whose source equals sourcePath.
func (b *BleveIndex) DeleteBySource(_ context.Context, sourcePath string) (int, error) {
	deleted := 0
	for {
		q := bleve.NewTermQuery(sourcePath)
		q.SetField("source")
		req := bleve.NewSearchRequest(q)
		req.Size = deleteBatchSize

		results, err := b.index.Search(req)
		if err != nil {
			return deleted, fmt.Errorf("find chunks of %s: %w", sourcePath, err)
		}
		if len(results.Hits) == 0 {
			return deleted, nil
		}

		batch := b.index.NewBatch()
		for _, h := range results.Hits {
			batch.Delete(h.ID)
		}
		if err := b.index.Batch(batch); err != nil {
			return deleted, fmt.Errorf("delete chunks of %s: %w", sourcePath, err)
		}
		deleted += len(results.Hits)
	}
}

// Count returns the number of indexed chunks.
func (b *BleveIndex) Count() (uint64, error) {
	return b.index.DocCount()
}

// Close closes the index.
func (b *BleveIndex) Close() error {
	return b.index.Close()
}
