// Package extract provides text extraction from the document formats the
// ingestion pipeline accepts.
package extract

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// ErrUnsupportedFormat is returned when no parser is registered for a file
// extension. Callers count these separately from parse failures.
var ErrUnsupportedFormat = errors.New("unsupported file format")

// ParseFunc extracts plain text from raw file content.
type ParseFunc func(content []byte) (string, error)

// Extractor routes file content to a parser selected by extension.
type Extractor struct {
	parsers map[string]ParseFunc
}

// NewExtractor returns an Extractor with all built-in parsers registered:
// plain text (.txt, .md, .rst), PDF, Word (.docx, .doc), Excel (.xlsx),
// PowerPoint (.pptx), OpenDocument (.odt, .odp, .ods), and images
// (.png, .jpg, .jpeg, .tiff, .bmp) via OCR.
func NewExtractor() *Extractor {
	e := &Extractor{parsers: make(map[string]ParseFunc)}
	e.Register(".txt", extractPlain)
	e.Register(".md", extractPlain)
	e.Register(".rst", extractPlain)
	e.Register(".pdf", extractPDF)
	e.Register(".docx", extractDOCX)
	e.Register(".doc", extractDOC)
	e.Register(".xlsx", extractExcel)
	e.Register(".pptx", extractPPTX)
	e.Register(".odt", extractODF)
	e.Register(".odp", extractODF)
	e.Register(".ods", extractODF)
	e.Register(".png", extractImage)
	e.Register(".jpg", extractImage)
	e.Register(".jpeg", extractImage)
	e.Register(".tiff", extractImage)
	e.Register(".bmp", extractImage)
	return e
}

// Register adds or replaces the parser for ext. The extension must include
// the leading dot and is matched case-insensitively.
func (e *Extractor) Register(ext string, fn ParseFunc) {
	e.parsers[strings.ToLower(ext)] = fn
}

// Supported reports whether a parser is registered for ext.
func (e *Extractor) Supported(ext string) bool {
	_, ok := e.parsers[strings.ToLower(ext)]
	return ok
}

// Extensions returns all registered extensions in sorted order.
func (e *Extractor) Extensions() []string {
	exts := make([]string, 0, len(e.parsers))
	for ext := range e.parsers {
		exts = append(exts, ext)
	}
	sort.Strings(exts)
	return exts
}

// Extract reads the file at path and returns its text content.
func (e *Extractor) Extract(path string) (string, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("read file: %w", err)
	}
	return e.ExtractBytes(content, filepath.Ext(path))
}

// ExtractBytes extracts text from content based on ext (with leading dot).
// Returns ErrUnsupportedFormat when no parser is registered for ext; any
// other error means the file matched a known format but could not be parsed.
func (e *Extractor) ExtractBytes(content []byte, ext string) (string, error) {
	fn, ok := e.parsers[strings.ToLower(ext)]
	if !ok {
		return "", fmt.Errorf("%w: %q", ErrUnsupportedFormat, ext)
	}
	return fn(content)
}
