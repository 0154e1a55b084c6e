package config

// Default values for every configurable field. Relative paths are expanded
// against the user's home directory (see expandPath).
const (
	DefaultDocumentsDir = "ragit/documents"

	DefaultVectorDir        = "ragit/data/vectors"
	DefaultManifestPath     = "ragit/data/manifest.json"
	DefaultCatalogPath      = "ragit/data/catalog.db"
	DefaultKeywordIndexPath = "ragit/data/keyword.bleve"

	DefaultChunkSize    = 500
	DefaultChunkOverlap = 50

	DefaultEmbeddingProvider  = EmbeddingONNX
	DefaultEmbeddingModelPath = "ragit/models/all-MiniLM-L6-v2.onnx"
	DefaultEmbeddingModel     = "text-embedding-3-small"
	DefaultEmbeddingKeyEnv    = "OPENAI_API_KEY"
	DefaultDimensions         = 384
	DefaultMaxTokens          = 256
	DefaultCacheSize          = 10000

	DefaultTopK          = 5
	DefaultMinSimilarity = 0.0

	DefaultLLMProvider    = LLMLocal
	DefaultOllamaBaseURL  = "http://localhost:11434"
	DefaultOllamaModel    = "llama3.2"
	DefaultRemoteModel    = "gpt-4o-mini"
	DefaultRemoteKeyEnv   = "OPENAI_API_KEY"
	DefaultIngestWorkers  = 1
	DefaultServerHost     = "localhost"
	DefaultServerPort     = 8080
)

// DefaultExtensions lists the file extensions ingested when the config does
// not name its own set.
var DefaultExtensions = []string{
	".txt", ".md", ".rst", ".pdf", ".docx", ".doc",
	".xlsx", ".pptx", ".odt", ".odp", ".ods",
	".png", ".jpg", ".jpeg", ".tiff", ".bmp",
}

// ApplyDefaults fills in zero-valued fields with defaults. Explicit values
// from the config file are left untouched.
func ApplyDefaults(cfg *Config) {
	if cfg.Documents.Dir == "" {
		cfg.Documents.Dir = DefaultDocumentsDir
	}
	if len(cfg.Documents.Extensions) == 0 {
		cfg.Documents.Extensions = append([]string(nil), DefaultExtensions...)
	}
	if cfg.Storage.VectorDir == "" {
		cfg.Storage.VectorDir = DefaultVectorDir
	}
	if cfg.Storage.ManifestPath == "" {
		cfg.Storage.ManifestPath = DefaultManifestPath
	}
	if cfg.Storage.CatalogPath == "" {
		cfg.Storage.CatalogPath = DefaultCatalogPath
	}
	if cfg.Storage.KeywordIndexPath == "" {
		cfg.Storage.KeywordIndexPath = DefaultKeywordIndexPath
	}
	if cfg.Chunking.Size == 0 {
		cfg.Chunking.Size = DefaultChunkSize
	}
	if cfg.Chunking.Overlap == 0 && !cfg.Chunking.overlapSet {
		cfg.Chunking.Overlap = DefaultChunkOverlap
	}
	if cfg.Embedding.Provider == "" {
		cfg.Embedding.Provider = DefaultEmbeddingProvider
	}
	if cfg.Embedding.ModelPath == "" {
		cfg.Embedding.ModelPath = DefaultEmbeddingModelPath
	}
	if cfg.Embedding.Model == "" {
		cfg.Embedding.Model = DefaultEmbeddingModel
	}
	if cfg.Embedding.APIKeyEnv == "" {
		cfg.Embedding.APIKeyEnv = DefaultEmbeddingKeyEnv
	}
	if cfg.Embedding.Dimensions == 0 {
		cfg.Embedding.Dimensions = DefaultDimensions
	}
	if cfg.Embedding.MaxTokens == 0 {
		cfg.Embedding.MaxTokens = DefaultMaxTokens
	}
	if cfg.Embedding.CacheSize == 0 {
		cfg.Embedding.CacheSize = DefaultCacheSize
	}
	if cfg.Retrieval.TopK == 0 {
		cfg.Retrieval.TopK = DefaultTopK
	}
	if cfg.Retrieval.MinSimilarity == 0 {
		cfg.Retrieval.MinSimilarity = DefaultMinSimilarity
	}
	if cfg.LLM.Provider == "" {
		cfg.LLM.Provider = DefaultLLMProvider
	}
	if cfg.LLM.Local.BaseURL == "" {
		cfg.LLM.Local.BaseURL = DefaultOllamaBaseURL
	}
	if cfg.LLM.Local.Model == "" {
		cfg.LLM.Local.Model = DefaultOllamaModel
	}
	if cfg.LLM.Remote.Model == "" {
		cfg.LLM.Remote.Model = DefaultRemoteModel
	}
	if cfg.LLM.Remote.APIKeyEnv == "" {
		cfg.LLM.Remote.APIKeyEnv = DefaultRemoteKeyEnv
	}
	if cfg.Ingest.Workers == 0 {
		cfg.Ingest.Workers = DefaultIngestWorkers
	}
	if cfg.Server.Host == "" {
		cfg.Server.Host = DefaultServerHost
	}
	if cfg.Server.Port == 0 {
		cfg.Server.Port = DefaultServerPort
	}
}
