// Package models defines core data structures for stored records, sources,
// ingestion reports, and query requests/responses.
package models

// Metadata keys attached to every stored chunk record.
const (
	MetaSource      = "source"       // absolute path of the source file
	MetaFilename    = "filename"     // base name of the source file
	MetaChunkIndex  = "chunk_index"  // position of the chunk within the source
	MetaTotalChunks = "total_chunks" // chunk count of the source at ingest time
)

// Record is a single chunk stored in the vector store: deterministic ID,
// embedding, original text, and source metadata.
type Record struct {
	ID        string            `json:"id"`
	Embedding []float32         `json:"-"`
	Text      string            `json:"text"`
	Metadata  map[string]string `json:"metadata,omitempty"`
}

// Retrieved is a record returned from a similarity query with its score.
type Retrieved struct {
	Record
	Similarity float32 `json:"similarity"`
}
