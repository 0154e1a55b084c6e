// Package embedding turns text into vectors. Three providers share one
// interface: a local ONNX model, the OpenAI embeddings API, and a
// deterministic hashed bag-of-words used for tests and as a fallback.
package embedding

import "context"

// Embedder produces vector embeddings for text. All implementations return
// unit-L2-normalized vectors of Dimensions() length.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)
	Dimensions() int
	// Model identifies the embedder (provider plus model) so stored vectors
	// can be rejected when the configured embedder no longer matches.
	Model() string
	Close() error
}
