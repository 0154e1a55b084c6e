package models

import (
	"time"

	"github.com/google/uuid"
)

// FileFailure records one document that could not be ingested.
type FileFailure struct {
	Path  string `json:"path"`
	Error string `json:"error"`
}

// IngestReport summarizes one ingestion run. Per-document failures are
// collected here; they do not abort the run.
type IngestReport struct {
	RunID       string        `json:"run_id"`
	Root        string        `json:"root"`
	Found       int           `json:"found"`
	Ingested    int           `json:"ingested"`
	Skipped     int           `json:"skipped"`
	Unsupported int           `json:"unsupported"`
	Chunks      int           `json:"chunks"`
	Failures    []FileFailure `json:"failures,omitempty"`
	StartedAt   time.Time     `json:"started_at"`
	Elapsed     int64         `json:"elapsed_ms"`
}

// NewIngestReport returns a report for an ingestion run over root with a
// fresh run ID.
func NewIngestReport(root string) *IngestReport {
	return &IngestReport{
		RunID:     uuid.New().String(),
		Root:      root,
		StartedAt: time.Now(),
	}
}

// Failed returns the number of documents that failed during the run.
func (r *IngestReport) Failed() int {
	return len(r.Failures)
}

// Finish records the elapsed time since the run started, in milliseconds.
func (r *IngestReport) Finish() {
	r.Elapsed = time.Since(r.StartedAt).Milliseconds()
}
