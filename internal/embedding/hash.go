package embedding

import (
	"context"
	"fmt"
	"strings"
	"unicode"

	"github.com/raghul-ravi/rag-it/pkg/utils"
)

// HashEmbedder is a deterministic embedder that hashes lowercased words into
// a fixed number of buckets. Texts sharing words get genuinely similar
// vectors, so retrieval behaves sensibly without any model. Used in tests
// and as the fallback when the ONNX runtime is unavailable.
type HashEmbedder struct {
	dimensions int
}

// NewHashEmbedder returns a hashed bag-of-words embedder with the given
// dimensions.
func NewHashEmbedder(dimensions int) *HashEmbedder {
	if dimensions <= 0 {
		dimensions = 384
	}
	return &HashEmbedder{dimensions: dimensions}
}

// Embed returns the normalized word-bucket histogram of text.
func (e *HashEmbedder) Embed(_ context.Context, text string) ([]float32, error) {
	emb := make([]float32, e.dimensions)
	for _, word := range splitLetters(text) {
		emb[HashString(word)%e.dimensions]++
	}
	utils.NormalizeL2(emb)
	return emb, nil
}

// EmbedBatch calls Embed for each text.
func (e *HashEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	embeddings := make([][]float32, len(texts))
	for i, text := range texts {
		emb, err := e.Embed(ctx, text)
		if err != nil {
			return nil, err
		}
		embeddings[i] = emb
	}
	return embeddings, nil
}

// Dimensions returns the embedding dimension.
func (e *HashEmbedder) Dimensions() int {
	return e.dimensions
}

// Model returns the embedder identity.
func (e *HashEmbedder) Model() string {
	return fmt.Sprintf("hash:%d", e.dimensions)
}

// Close is a no-op.
func (e *HashEmbedder) Close() error {
	return nil
}

// splitLetters lowercases text and splits it on anything that is not a
// letter or digit.
func splitLetters(text string) []string {
	return strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
}
