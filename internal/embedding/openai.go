package embedding

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	"github.com/raghul-ravi/rag-it/pkg/utils"
)

const (
	openAIEmbedURL  = "https://api.openai.com/v1/embeddings"
	embedMaxRetries = 3
)

// OpenAIEmbedder produces embeddings through the OpenAI embeddings API.
type OpenAIEmbedder struct {
	apiKey  string
	model   string
	dims    int
	client  *http.Client
	baseURL string // overridable in tests
}

// NewOpenAIEmbedder reads the API key from the apiKeyEnv environment
// variable and fails immediately when it is missing, before any documents
// are processed.
func NewOpenAIEmbedder(model, apiKeyEnv string, dimensions int) (*OpenAIEmbedder, error) {
	apiKey := os.Getenv(apiKeyEnv)
	if apiKey == "" {
		return nil, fmt.Errorf("environment variable %s is not set (required for embedding.provider: openai)", apiKeyEnv)
	}
	return &OpenAIEmbedder{
		apiKey:  apiKey,
		model:   model,
		dims:    dimensions,
		client:  &http.Client{Timeout: 60 * time.Second},
		baseURL: openAIEmbedURL,
	}, nil
}

type openAIEmbedRequest struct {
	Model      string   `json:"model"`
	Input      []string `json:"input"`
	Dimensions int      `json:"dimensions,omitempty"`
}

type openAIEmbedResponse struct {
	Data []struct {
		Embedding []float32 `json:"embedding"`
		Index     int       `json:"index"`
	} `json:"data"`
}

// Embed returns the embedding for a single text.
func (e *OpenAIEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	vecs, err := e.EmbedBatch(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	return vecs[0], nil
}

// EmbedBatch sends all texts in one API request and returns vectors in input
// order. Rate limits (429) and server errors are retried with exponential
// backoff (1s, 2s, 4s); other 4xx responses fail immediately.
func (e *OpenAIEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}

	body, err := json.Marshal(openAIEmbedRequest{
		Model:      e.model,
		Input:      texts,
		Dimensions: e.dims,
	})
	if err != nil {
		return nil, fmt.Errorf("openai embed: marshal request: %w", err)
	}

	var parsed openAIEmbedResponse
	var lastErr error
	for attempt := 0; attempt <= embedMaxRetries; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(time.Second << (attempt - 1)):
			}
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodPost, e.baseURL, bytes.NewReader(body))
		if err != nil {
			return nil, fmt.Errorf("openai embed: create request: %w", err)
		}
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("Authorization", "Bearer "+e.apiKey)

		resp, err := e.client.Do(req)
		if err != nil {
			lastErr = fmt.Errorf("openai embed: request failed: %w", err)
			continue
		}
		respBody, err := io.ReadAll(resp.Body)
		resp.Body.Close()
		if err != nil {
			lastErr = fmt.Errorf("openai embed: read response: %w", err)
			continue
		}

		if resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500 {
			lastErr = fmt.Errorf("openai embed: API error %d: %s", resp.StatusCode, utils.Truncate(string(respBody), 200))
			continue
		}
		if resp.StatusCode != http.StatusOK {
			return nil, fmt.Errorf("openai embed: API error %d: %s", resp.StatusCode, utils.Truncate(string(respBody), 200))
		}
		if err := json.Unmarshal(respBody, &parsed); err != nil {
			return nil, fmt.Errorf("openai embed: unmarshal response: %w", err)
		}
		lastErr = nil
		break
	}
	if lastErr != nil {
		return nil, lastErr
	}

	if len(parsed.Data) != len(texts) {
		return nil, fmt.Errorf("openai embed: got %d embeddings for %d inputs", len(parsed.Data), len(texts))
	}

	// Place by response index; the API does not promise input order.
	vectors := make([][]float32, len(texts))
	for _, d := range parsed.Data {
		if d.Index < 0 || d.Index >= len(vectors) {
			return nil, fmt.Errorf("openai embed: embedding index %d out of range", d.Index)
		}
		vec := d.Embedding
		utils.NormalizeL2(vec)
		vectors[d.Index] = vec
	}
	return vectors, nil
}

// Dimensions returns the embedding dimension requested from the API.
func (e *OpenAIEmbedder) Dimensions() int {
	return e.dims
}

// Model returns the embedder identity.
func (e *OpenAIEmbedder) Model() string {
	return "openai:" + e.model
}

// Close is a no-op.
func (e *OpenAIEmbedder) Close() error {
	return nil
}
