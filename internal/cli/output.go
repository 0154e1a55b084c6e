// Package cli formats command output for humans and for machine consumption.
package cli

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/raghul-ravi/rag-it/internal/keyword"
	"github.com/raghul-ravi/rag-it/internal/models"
	"github.com/raghul-ravi/rag-it/pkg/utils"
)

// OutputFormat selects how command results are written.
type OutputFormat string

const (
	// OutputText is human-readable text (default).
	OutputText OutputFormat = "text"
	// OutputJSON is structured JSON for machine consumption.
	OutputJSON OutputFormat = "json"
)

// ParseFormat converts a --output flag value. Unknown values are an error so
// typos fail loudly instead of silently printing text.
func ParseFormat(s string) (OutputFormat, error) {
	switch s {
	case "", "text":
		return OutputText, nil
	case "json":
		return OutputJSON, nil
	default:
		return "", fmt.Errorf("unknown output format %q; use text or json", s)
	}
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// WriteJSON writes any value as indented JSON. Used for ad hoc structures
// such as the status report.
func WriteJSON(w io.Writer, v any) error {
	return writeJSON(w, v)
}

// WriteAnswer writes a query response. showSources controls whether the cited
// chunks are listed under the answer in text mode.
func WriteAnswer(w io.Writer, resp *models.QueryResponse, format OutputFormat, showSources bool) error {
	if format == OutputJSON {
		return writeJSON(w, resp)
	}
	fmt.Fprintf(w, "\n%s\n", resp.Answer)
	if showSources && len(resp.Sources) > 0 {
		fmt.Fprintf(w, "\nSources:\n")
		for i, src := range resp.Sources {
			fmt.Fprintf(w, "  [%d] %s (chunk %d, similarity %.3f)\n",
				i+1, src.Filename, src.ChunkIndex, src.Similarity)
		}
	}
	fmt.Fprintln(w)
	return nil
}

// WriteReport writes an ingestion summary. Failures are always listed; a run
// with failures is still a successful run.
func WriteReport(w io.Writer, report *models.IngestReport, format OutputFormat) error {
	if format == OutputJSON {
		return writeJSON(w, report)
	}
	fmt.Fprintf(w, "Ingested %d of %d document(s) (%d skipped, %d unsupported, %d failed): %d chunks in %dms\n",
		report.Ingested, report.Found, report.Skipped, report.Unsupported,
		report.Failed(), report.Chunks, report.Elapsed)
	for _, f := range report.Failures {
		fmt.Fprintf(w, "  failed: %s: %s\n", f.Path, f.Error)
	}
	return nil
}

// WriteSources writes the catalog listing.
func WriteSources(w io.Writer, sources []*models.Source, format OutputFormat) error {
	if format == OutputJSON {
		return writeJSON(w, sources)
	}
	if len(sources) == 0 {
		fmt.Fprintln(w, "No documents ingested yet.")
		return nil
	}
	for _, src := range sources {
		switch src.Status {
		case models.SourceStatusOK:
			fmt.Fprintf(w, "ok      %4d chunks  %s\n", src.Chunks, src.Path)
		default:
			fmt.Fprintf(w, "failed  %s: %s\n", src.Path, src.Error)
		}
	}
	return nil
}

// WriteHits writes keyword search results with snippets.
func WriteHits(w io.Writer, hits []keyword.Hit, format OutputFormat) error {
	if format == OutputJSON {
		return writeJSON(w, hits)
	}
	if len(hits) == 0 {
		fmt.Fprintln(w, "No matches.")
		return nil
	}
	for i, h := range hits {
		fmt.Fprintf(w, "[%d] %s (chunk %d, score %.3f)\n    %s\n",
			i+1, h.Filename, h.ChunkIndex, h.Score, utils.Truncate(h.Text, 200))
	}
	return nil
}
