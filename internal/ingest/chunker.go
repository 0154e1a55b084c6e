// Package ingest turns source documents into stored, searchable chunks.
package ingest

import "fmt"

// Chunk is one window of a document's preprocessed text.
type Chunk struct {
	Index int    // position within the document
	Start int    // rune offset of the window
	Text  string
}

// Chunker splits text into overlapping rune windows. Windows never split a
// UTF-8 code point and the output is deterministic for a given input.
type Chunker struct {
	size    int
	overlap int
}

// NewChunker creates a chunker with the given window size and overlap, both
// in runes. overlap must be smaller than size or the window would never
// advance.
func NewChunker(size, overlap int) (*Chunker, error) {
	if size <= 0 {
		return nil, fmt.Errorf("chunk size must be positive, got %d", size)
	}
	if overlap < 0 {
		return nil, fmt.Errorf("chunk overlap cannot be negative, got %d", overlap)
	}
	if overlap >= size {
		return nil, fmt.Errorf("chunk overlap (%d) must be smaller than chunk size (%d)", overlap, size)
	}
	return &Chunker{size: size, overlap: overlap}, nil
}

// Chunk splits text into windows of at most size runes, each sharing overlap
// runes with its predecessor. Text shorter than one window yields a single
// chunk; empty text yields none. The final chunk may be shorter than size.
func (c *Chunker) Chunk(text string) []Chunk {
	runes := []rune(text)
	if len(runes) == 0 {
		return nil
	}
	step := c.size - c.overlap
	chunks := make([]Chunk, 0, (len(runes)+step-1)/step)
	for start := 0; ; start += step {
		end := start + c.size
		if end > len(runes) {
			end = len(runes)
		}
		chunks = append(chunks, Chunk{
			Index: len(chunks),
			Start: start,
			Text:  string(runes[start:end]),
		})
		if end == len(runes) {
			break
		}
	}
	return chunks
}
