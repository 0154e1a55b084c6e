package models

import "time"

// Source ingestion status values.
const (
	SourceStatusOK     = "ok"
	SourceStatusFailed = "failed"
)

// Source is a catalog row describing one ingested (or failed) source file.
type Source struct {
	ID         string    `json:"id"`
	Path       string    `json:"path"`
	Filename   string    `json:"filename"`
	Size       int64     `json:"size"`
	MtimeNs    int64     `json:"mtime_ns"`
	Chunks     int       `json:"chunks"`
	Status     string    `json:"status"`
	Error      string    `json:"error,omitempty"`
	IngestedAt time.Time `json:"ingested_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// Unchanged reports whether the file at the recorded path still has the same
// size and modification time as when it was last ingested successfully.
func (s *Source) Unchanged(size, mtimeNs int64) bool {
	return s.Status == SourceStatusOK && s.Size == size && s.MtimeNs == mtimeNs
}
