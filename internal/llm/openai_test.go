package llm

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/sashabaranov/go-openai"
)

func newTestOpenAIClient(t *testing.T, handler http.HandlerFunc) *OpenAIClient {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	c, err := NewOpenAIClient(Config{
		Provider:    ProviderOpenAI,
		APIKey:      "test-key",
		BaseURL:     srv.URL + "/v1",
		MaxTokens:   500,
		Temperature: 0.7,
	})
	if err != nil {
		t.Fatalf("NewOpenAIClient: %v", err)
	}
	return c
}

func TestOpenAIClient_Complete(t *testing.T) {
	var got openai.ChatCompletionRequest
	c := newTestOpenAIClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/chat/completions" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
			t.Errorf("decode request: %v", err)
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(openai.ChatCompletionResponse{
			Model: "gpt-3.5-turbo",
			Choices: []openai.ChatCompletionChoice{{
				Message:      openai.ChatCompletionMessage{Role: "assistant", Content: "A tort is ..."},
				FinishReason: openai.FinishReasonStop,
			}},
			Usage: openai.Usage{PromptTokens: 12, CompletionTokens: 4},
		})
	})

	resp, err := c.Complete(context.Background(), &CompletionRequest{
		System: LegalSystemPrompt("What is a tort?"),
		Prompt: "What is a tort?",
	})
	if err != nil {
		t.Fatalf("Complete: %v", err)
	}
	if resp.Content != "A tort is ..." {
		t.Errorf("content = %q", resp.Content)
	}
	if resp.TokensIn != 12 || resp.TokensOut != 4 {
		t.Errorf("usage = %d/%d", resp.TokensIn, resp.TokensOut)
	}

	if got.Model != defaultOpenAIModel {
		t.Errorf("model = %q, want %q", got.Model, defaultOpenAIModel)
	}
	if got.MaxTokens != 500 {
		t.Errorf("max_tokens = %d", got.MaxTokens)
	}
	if len(got.Messages) != 2 || got.Messages[0].Role != "system" || got.Messages[1].Role != "user" {
		t.Fatalf("unexpected messages: %+v", got.Messages)
	}
	if got.Messages[1].Content != "What is a tort?" {
		t.Errorf("user turn = %q", got.Messages[1].Content)
	}
}

func TestOpenAIClient_RateLimited(t *testing.T) {
	c := newTestOpenAIClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusTooManyRequests)
		w.Write([]byte(`{"error":{"message":"Rate limit reached","type":"requests","code":"rate_limit_exceeded"}}`))
	})

	_, err := c.Complete(context.Background(), &CompletionRequest{Prompt: "hi"})
	if !errors.Is(err, ErrRateLimited) {
		t.Fatalf("expected ErrRateLimited, got %v", err)
	}
}

func TestOpenAIClient_ServerErrorIsNotRateLimit(t *testing.T) {
	c := newTestOpenAIClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusInternalServerError)
		w.Write([]byte(`{"error":{"message":"boom","type":"server_error"}}`))
	})

	_, err := c.Complete(context.Background(), &CompletionRequest{Prompt: "hi"})
	if err == nil {
		t.Fatal("expected an error")
	}
	if errors.Is(err, ErrRateLimited) {
		t.Fatalf("500 must not be classified as rate limiting: %v", err)
	}
}

func TestNewOpenAIClientRequiresKey(t *testing.T) {
	if _, err := NewOpenAIClient(Config{}); err == nil {
		t.Fatal("expected an error without API key")
	}
}

func TestOpenAIClient_SendsZeroTemperature(t *testing.T) {
	var body map[string]interface{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			t.Errorf("decode request: %v", err)
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(openai.ChatCompletionResponse{
			Choices: []openai.ChatCompletionChoice{{
				Message: openai.ChatCompletionMessage{Role: "assistant", Content: "ok"},
			}},
		})
	}))
	t.Cleanup(srv.Close)

	c, err := NewOpenAIClient(Config{APIKey: "test-key", BaseURL: srv.URL + "/v1", Temperature: 0})
	if err != nil {
		t.Fatalf("NewOpenAIClient: %v", err)
	}
	if _, err := c.Complete(context.Background(), &CompletionRequest{Prompt: "hi"}); err != nil {
		t.Fatalf("Complete: %v", err)
	}

	temp, ok := body["temperature"].(float64)
	if !ok {
		t.Fatalf("temperature missing from request body: %v", body)
	}
	if temp > 1e-6 {
		t.Errorf("temperature = %v, want ~0", temp)
	}
}
