package models

import "fmt"

// Retrieval modes reported in a QueryResponse.
const (
	RetrievalVector  = "vector"  // answer grounded on similarity search results
	RetrievalKeyword = "keyword" // lexical fallback when vector search was empty
	RetrievalNone    = "none"    // nothing retrieved; canned no-information answer
)

// maxTopK caps how many chunks a single query may request.
const maxTopK = 100

// QueryRequest is a question against the ingested documents with optional
// retrieval overrides.
type QueryRequest struct {
	Question string `json:"question"`
	// TopK is how many chunks to retrieve; 0 means use the configured default.
	TopK int `json:"top_k,omitempty"`
	// Filter restricts retrieval to records whose metadata matches every
	// key exactly (e.g. {"filename": "notes.txt"}).
	Filter map[string]string `json:"filter,omitempty"`
}

// Validate checks the request and fills defaults. defaultTopK is used when
// TopK is unset; the result is clamped to a sane maximum.
func (q *QueryRequest) Validate(defaultTopK int) error {
	if q.Question == "" {
		return fmt.Errorf("question cannot be empty")
	}
	if q.TopK <= 0 {
		q.TopK = defaultTopK
	}
	if q.TopK <= 0 {
		q.TopK = 5
	}
	if q.TopK > maxTopK {
		q.TopK = maxTopK
	}
	return nil
}

// SourceRef points at one chunk that grounded an answer.
type SourceRef struct {
	Path       string  `json:"path"`
	Filename   string  `json:"filename"`
	ChunkIndex int     `json:"chunk_index"`
	Similarity float32 `json:"similarity"`
	Snippet    string  `json:"snippet,omitempty"`
}

// QueryResponse is the generated answer with its grounding sources.
type QueryResponse struct {
	Question  string      `json:"question"`
	Answer    string      `json:"answer"`
	Sources   []SourceRef `json:"sources,omitempty"`
	Retrieval string      `json:"retrieval"`
	QueryTime int64       `json:"query_time_ms"`
}
