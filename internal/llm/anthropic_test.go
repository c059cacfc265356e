package llm

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func newTestAnthropicClient(t *testing.T, cfg Config, handler http.HandlerFunc) *AnthropicClient {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	cfg.Provider = ProviderAnthropic
	cfg.APIKey = "test-key"
	cfg.BaseURL = srv.URL + "/"
	c, err := NewAnthropicClient(cfg)
	if err != nil {
		t.Fatalf("NewAnthropicClient: %v", err)
	}
	return c
}

func writeAnthropicError(w http.ResponseWriter, status int, typ, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]interface{}{
		"type":  "error",
		"error": map[string]string{"type": typ, "message": msg},
	})
}

func TestAnthropicClient_Complete(t *testing.T) {
	var body map[string]interface{}
	c := newTestAnthropicClient(t, Config{Temperature: 0}, func(w http.ResponseWriter, r *http.Request) {
		if !strings.HasSuffix(r.URL.Path, "/v1/messages") {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			t.Errorf("decode request: %v", err)
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{
			"id": "msg_01",
			"type": "message",
			"role": "assistant",
			"model": "claude-3-5-haiku-latest",
			"content": [{"type": "text", "text": "A contract is ..."}],
			"stop_reason": "end_turn",
			"stop_sequence": null,
			"usage": {"input_tokens": 20, "output_tokens": 5}
		}`))
	})

	resp, err := c.Complete(context.Background(), &CompletionRequest{
		System: LegalSystemPrompt("What is a contract?"),
		Prompt: "What is a contract?",
	})
	if err != nil {
		t.Fatalf("Complete: %v", err)
	}
	if resp.Content != "A contract is ..." {
		t.Errorf("content = %q", resp.Content)
	}
	if resp.TokensIn != 20 || resp.TokensOut != 5 {
		t.Errorf("usage = %d/%d", resp.TokensIn, resp.TokensOut)
	}

	if body["model"] != defaultAnthropicModel {
		t.Errorf("model = %v", body["model"])
	}
	if body["max_tokens"] != float64(defaultMaxTokens) {
		t.Errorf("max_tokens = %v, want %d", body["max_tokens"], defaultMaxTokens)
	}
	if temp, ok := body["temperature"]; !ok || temp != float64(0) {
		t.Errorf("temperature = %v (present %v), want explicit 0", temp, ok)
	}
}

func TestAnthropicClient_RateLimited(t *testing.T) {
	calls := 0
	c := newTestAnthropicClient(t, Config{}, func(w http.ResponseWriter, r *http.Request) {
		calls++
		writeAnthropicError(w, http.StatusTooManyRequests, "rate_limit_error", "Number of requests has exceeded your rate limit")
	})

	_, err := c.Complete(context.Background(), &CompletionRequest{Prompt: "hi"})
	if !errors.Is(err, ErrRateLimited) {
		t.Fatalf("expected ErrRateLimited, got %v", err)
	}
	if calls != 1 {
		t.Errorf("provider called %d times, retries must be disabled", calls)
	}
}

func TestAnthropicClient_ServerErrorIsNotRateLimit(t *testing.T) {
	c := newTestAnthropicClient(t, Config{}, func(w http.ResponseWriter, r *http.Request) {
		writeAnthropicError(w, http.StatusInternalServerError, "api_error", "boom")
	})

	_, err := c.Complete(context.Background(), &CompletionRequest{Prompt: "hi"})
	if err == nil {
		t.Fatal("expected an error")
	}
	if errors.Is(err, ErrRateLimited) {
		t.Fatalf("500 must not be classified as rate limiting: %v", err)
	}
}

func TestNewAnthropicClientRequiresKey(t *testing.T) {
	if _, err := NewAnthropicClient(Config{}); err == nil {
		t.Fatal("expected an error without API key")
	}
}
