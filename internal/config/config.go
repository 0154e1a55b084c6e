// Package config provides configuration loading, defaults, and validation.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// Embedding provider names.
const (
	EmbeddingONNX   = "onnx"
	EmbeddingOpenAI = "openai"
	EmbeddingHash   = "hash"
)

// LLM provider names.
const (
	LLMLocal  = "local"
	LLMRemote = "remote"
)

// Config holds all configuration for the application.
type Config struct {
	Debug     bool            `yaml:"debug"`
	Documents DocumentsConfig `yaml:"documents"`
	Storage   StorageConfig   `yaml:"storage"`
	Chunking  ChunkingConfig  `yaml:"chunking"`
	Embedding EmbeddingConfig `yaml:"embedding"`
	Retrieval RetrievalConfig `yaml:"retrieval"`
	LLM       LLMConfig       `yaml:"llm"`
	Ingest    IngestConfig    `yaml:"ingest"`
	Server    ServerConfig    `yaml:"server"`
}

// DocumentsConfig describes the document collection to ingest.
type DocumentsConfig struct {
	Dir        string   `yaml:"dir"`
	Extensions []string `yaml:"extensions"`
}

// StorageConfig holds paths for the vector store, catalog, and keyword index.
// Deleting these paths fully resets the system.
type StorageConfig struct {
	VectorDir        string `yaml:"vector_dir"`
	ManifestPath     string `yaml:"manifest_path"`
	CatalogPath      string `yaml:"catalog_path"`
	KeywordIndexPath string `yaml:"keyword_index_path"`
}

// ChunkingConfig holds text splitting settings (in characters).
type ChunkingConfig struct {
	Size    int `yaml:"size"`
	Overlap int `yaml:"overlap"`

	// overlapSet records whether the file named overlap explicitly, so an
	// explicit 0 is not raised to the default by ApplyDefaults.
	overlapSet bool
}

// UnmarshalYAML distinguishes an explicit overlap of zero from an absent key;
// zero-overlap chunking is a valid configuration.
func (c *ChunkingConfig) UnmarshalYAML(value *yaml.Node) error {
	raw := struct {
		Size    int  `yaml:"size"`
		Overlap *int `yaml:"overlap"`
	}{}
	if err := value.Decode(&raw); err != nil {
		return err
	}
	c.Size = raw.Size
	if raw.Overlap != nil {
		c.Overlap = *raw.Overlap
		c.overlapSet = true
	}
	return nil
}

// EmbeddingConfig holds embedder settings. Provider selects onnx (local
// model), openai (remote API), or hash (deterministic, for tests/fallback).
type EmbeddingConfig struct {
	Provider   string `yaml:"provider"`
	ModelPath  string `yaml:"model_path"` // onnx model file
	Model      string `yaml:"model"`      // remote model name
	APIKeyEnv  string `yaml:"api_key_env"`
	Dimensions int    `yaml:"dimensions"`
	MaxTokens  int    `yaml:"max_tokens"`
	CacheSize  int    `yaml:"cache_size"`
}

// RetrievalConfig holds query-time retrieval settings.
type RetrievalConfig struct {
	TopK          int     `yaml:"top_k"`
	MinSimilarity float32 `yaml:"min_similarity"`
}

// LLMConfig selects and configures the answer-generating model.
type LLMConfig struct {
	Provider string          `yaml:"provider"` // local | remote
	Local    LLMLocalConfig  `yaml:"local"`
	Remote   LLMRemoteConfig `yaml:"remote"`
}

// LLMLocalConfig configures the local Ollama server.
type LLMLocalConfig struct {
	BaseURL string `yaml:"base_url"`
	Model   string `yaml:"model"`
}

// LLMRemoteConfig configures the remote OpenAI-compatible API.
type LLMRemoteConfig struct {
	Model     string `yaml:"model"`
	APIKeyEnv string `yaml:"api_key_env"`
}

// IngestConfig holds ingestion pipeline settings.
type IngestConfig struct {
	Workers int `yaml:"workers"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Host string `yaml:"host"`
	Port int    `yaml:"port"`
}

// Load reads and parses the config file at path, applies defaults, expands
// paths, and validates. Returns an error if the file cannot be read or parsed
// or the resulting configuration is invalid.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	ApplyDefaults(&cfg)

	configDir := filepath.Dir(path)
	cfg.Documents.Dir = expandPath(cfg.Documents.Dir, configDir)
	cfg.Storage.VectorDir = expandPath(cfg.Storage.VectorDir, configDir)
	cfg.Storage.ManifestPath = expandPath(cfg.Storage.ManifestPath, configDir)
	cfg.Storage.CatalogPath = expandPath(cfg.Storage.CatalogPath, configDir)
	cfg.Storage.KeywordIndexPath = expandPath(cfg.Storage.KeywordIndexPath, configDir)
	cfg.Embedding.ModelPath = expandPath(cfg.Embedding.ModelPath, configDir)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Default returns the configuration used when no config file exists.
// Relative default paths are expanded against the home directory.
func Default() (*Config, error) {
	var cfg Config
	ApplyDefaults(&cfg)
	cfg.Documents.Dir = expandPath(cfg.Documents.Dir, "")
	cfg.Storage.VectorDir = expandPath(cfg.Storage.VectorDir, "")
	cfg.Storage.ManifestPath = expandPath(cfg.Storage.ManifestPath, "")
	cfg.Storage.CatalogPath = expandPath(cfg.Storage.CatalogPath, "")
	cfg.Storage.KeywordIndexPath = expandPath(cfg.Storage.KeywordIndexPath, "")
	cfg.Embedding.ModelPath = expandPath(cfg.Embedding.ModelPath, "")
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks configuration invariants. It is called by Load and Default
// so an invalid configuration fails before any pipeline work starts.
func (c *Config) Validate() error {
	if c.Chunking.Size <= 0 {
		return fmt.Errorf("chunking.size must be positive, got %d", c.Chunking.Size)
	}
	if c.Chunking.Overlap < 0 {
		return fmt.Errorf("chunking.overlap cannot be negative, got %d", c.Chunking.Overlap)
	}
	if c.Chunking.Overlap >= c.Chunking.Size {
		return fmt.Errorf("chunking.overlap (%d) must be smaller than chunking.size (%d)",
			c.Chunking.Overlap, c.Chunking.Size)
	}
	switch c.Embedding.Provider {
	case EmbeddingONNX, EmbeddingOpenAI, EmbeddingHash:
	default:
		return fmt.Errorf("embedding.provider %q is not recognized (use %q, %q, or %q)",
			c.Embedding.Provider, EmbeddingONNX, EmbeddingOpenAI, EmbeddingHash)
	}
	if c.Embedding.Dimensions <= 0 {
		return fmt.Errorf("embedding.dimensions must be positive, got %d", c.Embedding.Dimensions)
	}
	switch c.LLM.Provider {
	case LLMLocal, LLMRemote:
	default:
		return fmt.Errorf("llm.provider %q is not recognized (use %q or %q)",
			c.LLM.Provider, LLMLocal, LLMRemote)
	}
	if c.Retrieval.TopK <= 0 {
		return fmt.Errorf("retrieval.top_k must be positive, got %d", c.Retrieval.TopK)
	}
	if c.Ingest.Workers < 1 {
		return fmt.Errorf("ingest.workers must be at least 1, got %d", c.Ingest.Workers)
	}
	return nil
}

// expandPath converts a path to absolute. Paths starting with "./" are
// relative to configDir; other relative paths are relative to the home
// directory.
func expandPath(path string, configDir string) string {
	if path == "" || filepath.IsAbs(path) {
		return path
	}
	if strings.HasPrefix(path, "./") || path == "." {
		return filepath.Join(configDir, path)
	}
	if home, err := os.UserHomeDir(); err == nil {
		return filepath.Join(home, path)
	}
	return path
}
