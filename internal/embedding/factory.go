package embedding

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/raghul-ravi/rag-it/internal/config"
)

// New constructs the embedder selected by cfg.Provider. When the ONNX
// runtime or model is unavailable the hash embedder is used instead, with a
// warning, so the pipeline stays usable on machines without a model file.
func New(cfg config.EmbeddingConfig, logger *zap.Logger) (Embedder, error) {
	switch cfg.Provider {
	case config.EmbeddingHash:
		return NewHashEmbedder(cfg.Dimensions), nil

	case config.EmbeddingOpenAI:
		return NewOpenAIEmbedder(cfg.Model, cfg.APIKeyEnv, cfg.Dimensions)

	case config.EmbeddingONNX:
		onnx, err := NewONNXEmbedder(cfg.ModelPath, cfg.Dimensions, cfg.MaxTokens, cfg.CacheSize)
		if err != nil {
			logger.Warn("ONNX embedder unavailable, falling back to hash embedder",
				zap.String("model_path", cfg.ModelPath),
				zap.Error(err))
			return NewHashEmbedder(cfg.Dimensions), nil
		}
		return onnx, nil

	default:
		return nil, fmt.Errorf("unknown embedding provider %q", cfg.Provider)
	}
}
