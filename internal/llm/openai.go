package llm

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
	openAIChatURL  = "https://api.openai.com/v1/chat/completions"
	chatMaxRetries = 3
)

// Compile-time interface check.
var _ Provider = (*OpenAIProvider)(nil)

// OpenAIProvider generates answers through the OpenAI chat completions API.
type OpenAIProvider struct {
	apiKey  string
	model   string
	client  *http.Client
	baseURL string // overridable in tests
}

// NewOpenAIProvider reads the API key from the apiKeyEnv environment variable
// and fails immediately when it is missing, before any network request.
func NewOpenAIProvider(model, apiKeyEnv string) (*OpenAIProvider, error) {
	apiKey := os.Getenv(apiKeyEnv)
	if apiKey == "" {
		return nil, fmt.Errorf("environment variable %s is not set (required for llm.provider: remote)", apiKeyEnv)
	}
	return &OpenAIProvider{
		apiKey:  apiKey,
		model:   model,
		client:  &http.Client{Timeout: 120 * time.Second},
		baseURL: openAIChatURL,
	}, nil
}

// Name identifies the provider and model.
func (p *OpenAIProvider) Name() string {
	return "openai/" + p.model
}

type openAIChatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	Temperature float64       `json:"temperature"`
}

type openAIChatResponse struct {
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
}

// Generate sends one chat completion request. Rate limits (429) and server
// errors are retried with exponential backoff (1s, 2s, 4s); other 4xx
// responses fail immediately.
func (p *OpenAIProvider) Generate(ctx context.Context, system, user string) (string, error) {
	body, err := json.Marshal(openAIChatRequest{
		Model: p.model,
		Messages: []chatMessage{
			{Role: "system", Content: system},
			{Role: "user", Content: user},
		},
		Temperature: temperature,
	})
	if err != nil {
		return "", fmt.Errorf("openai chat: marshal request: %w", err)
	}

	var parsed openAIChatResponse
	var lastErr error
	for attempt := 0; attempt <= chatMaxRetries; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return "", ctx.Err()
			case <-time.After(time.Second << (attempt - 1)):
			}
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.baseURL, bytes.NewReader(body))
		if err != nil {
			return "", fmt.Errorf("openai chat: create request: %w", err)
		}
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("Authorization", "Bearer "+p.apiKey)

		resp, err := p.client.Do(req)
		if err != nil {
			lastErr = fmt.Errorf("openai chat: request failed: %w", err)
			continue
		}
		respBody, err := io.ReadAll(resp.Body)
		resp.Body.Close()
		if err != nil {
			lastErr = fmt.Errorf("openai chat: read response: %w", err)
			continue
		}

		if resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500 {
			lastErr = fmt.Errorf("openai chat: API error %d: %s", resp.StatusCode, utils.Truncate(string(respBody), 200))
			continue
		}
		if resp.StatusCode != http.StatusOK {
			return "", fmt.Errorf("openai chat: API error %d: %s", resp.StatusCode, utils.Truncate(string(respBody), 200))
		}
		if err := json.Unmarshal(respBody, &parsed); err != nil {
			return "", fmt.Errorf("openai chat: unmarshal response: %w", err)
		}
		lastErr = nil
		break
	}
	if lastErr != nil {
		return "", lastErr
	}
	if len(parsed.Choices) == 0 {
		return "", fmt.Errorf("openai chat: response contained no choices")
	}
	return parsed.Choices[0].Message.Content, nil
}
