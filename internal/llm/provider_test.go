package llm

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/raghul-ravi/rag-it/internal/config"
)

func TestNew_unknownProvider(t *testing.T) {
	_, err := New(config.LLMConfig{Provider: "cloud"})
	if err == nil || !strings.Contains(err.Error(), "cloud") {
		t.Errorf("err = %v", err)
	}
}

func TestNew_local(t *testing.T) {
	p, err := New(config.LLMConfig{
		Provider: config.LLMLocal,
		Local:    config.LLMLocalConfig{BaseURL: "http://localhost:11434", Model: "llama3.2"},
	})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if p.Name() != "ollama/llama3.2" {
		t.Errorf("Name = %q", p.Name())
	}
}

func TestNew_remoteMissingKeyFailsBeforeNetwork(t *testing.T) {
	t.Setenv("RAGIT_TEST_MISSING_KEY", "")
	_, err := New(config.LLMConfig{
		Provider: config.LLMRemote,
		Remote:   config.LLMRemoteConfig{Model: "gpt-4o-mini", APIKeyEnv: "RAGIT_TEST_MISSING_KEY"},
	})
	if err == nil || !strings.Contains(err.Error(), "RAGIT_TEST_MISSING_KEY") {
		t.Errorf("err = %v", err)
	}
}

func TestOllamaGenerate(t *testing.T) {
	var gotReq ollamaChatRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/chat" {
			t.Errorf("path = %s", r.URL.Path)
		}
		if err := json.NewDecoder(r.Body).Decode(&gotReq); err != nil {
			t.Errorf("decode request: %v", err)
		}
		json.NewEncoder(w).Encode(ollamaChatResponse{
			Message: chatMessage{Role: "assistant", Content: "Paris is the capital."},
		})
	}))
	defer srv.Close()

	p := NewOllamaProvider(srv.URL, "llama3.2")
	answer, err := p.Generate(context.Background(), "system rules", "the question")
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if answer != "Paris is the capital." {
		t.Errorf("answer = %q", answer)
	}
	if gotReq.Stream {
		t.Error("request asked for streaming")
	}
	if len(gotReq.Messages) != 2 || gotReq.Messages[0].Role != "system" || gotReq.Messages[1].Role != "user" {
		t.Errorf("messages = %+v", gotReq.Messages)
	}
}

func TestOllamaGenerate_serverError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error":"model not found"}`, http.StatusNotFound)
	}))
	defer srv.Close()

	p := NewOllamaProvider(srv.URL, "nope")
	_, err := p.Generate(context.Background(), "s", "u")
	if err == nil || !strings.Contains(err.Error(), "404") {
		t.Errorf("err = %v", err)
	}
}

func TestOllamaGenerate_unreachableMentionsServer(t *testing.T) {
	p := NewOllamaProvider("http://127.0.0.1:1", "llama3.2")
	_, err := p.Generate(context.Background(), "s", "u")
	if err == nil || !strings.Contains(err.Error(), "Ollama server running") {
		t.Errorf("err = %v", err)
	}
}

func TestOpenAIGenerate(t *testing.T) {
	t.Setenv("RAGIT_TEST_KEY", "sk-test")
	var auth string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		auth = r.Header.Get("Authorization")
		json.NewEncoder(w).Encode(map[string]any{
			"choices": []map[string]any{
				{"message": map[string]string{"role": "assistant", "content": "The answer is Paris."}},
			},
		})
	}))
	defer srv.Close()

	p, err := NewOpenAIProvider("gpt-4o-mini", "RAGIT_TEST_KEY")
	if err != nil {
		t.Fatal(err)
	}
	p.baseURL = srv.URL
	answer, err := p.Generate(context.Background(), "s", "u")
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if answer != "The answer is Paris." {
		t.Errorf("answer = %q", answer)
	}
	if auth != "Bearer sk-test" {
		t.Errorf("auth header = %q", auth)
	}
}

func TestOpenAIGenerate_retriesRateLimit(t *testing.T) {
	t.Setenv("RAGIT_TEST_KEY", "sk-test")
	calls := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		if calls == 1 {
			http.Error(w, "rate limited", http.StatusTooManyRequests)
			return
		}
		json.NewEncoder(w).Encode(map[string]any{
			"choices": []map[string]any{
				{"message": map[string]string{"role": "assistant", "content": "ok"}},
			},
		})
	}))
	defer srv.Close()

	p, err := NewOpenAIProvider("gpt-4o-mini", "RAGIT_TEST_KEY")
	if err != nil {
		t.Fatal(err)
	}
	p.baseURL = srv.URL
	answer, err := p.Generate(context.Background(), "s", "u")
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if answer != "ok" || calls != 2 {
		t.Errorf("answer = %q, calls = %d", answer, calls)
	}
}

func TestOpenAIGenerate_badRequestNotRetried(t *testing.T) {
	t.Setenv("RAGIT_TEST_KEY", "sk-test")
	calls := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		http.Error(w, "bad model", http.StatusBadRequest)
	}))
	defer srv.Close()

	p, err := NewOpenAIProvider("bad", "RAGIT_TEST_KEY")
	if err != nil {
		t.Fatal(err)
	}
	p.baseURL = srv.URL
	_, err = p.Generate(context.Background(), "s", "u")
	if err == nil || !strings.Contains(err.Error(), "400") {
		t.Errorf("err = %v", err)
	}
	if calls != 1 {
		t.Errorf("calls = %d, want 1", calls)
	}
}
