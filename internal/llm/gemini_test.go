package llm

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"testing"

	"google.golang.org/api/googleapi"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

func TestClassifyGeminiError(t *testing.T) {
	tests := []struct {
		name        string
		err         error
		rateLimited bool
	}{
		{"http 429", &googleapi.Error{Code: http.StatusTooManyRequests, Message: "quota"}, true},
		{"wrapped http 429", fmt.Errorf("generate: %w", &googleapi.Error{Code: http.StatusTooManyRequests}), true},
		{"grpc resource exhausted", status.Error(codes.ResourceExhausted, "quota exceeded"), true},
		{"http 500", &googleapi.Error{Code: http.StatusInternalServerError}, false},
		{"grpc internal", status.Error(codes.Internal, "boom"), false},
		{"plain error", errors.New("boom"), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := classifyGeminiError(tt.err)
			if got := errors.Is(err, ErrRateLimited); got != tt.rateLimited {
				t.Errorf("rate limited = %v, want %v (err %v)", got, tt.rateLimited, err)
			}
			if !errors.Is(err, tt.err) && !tt.rateLimited {
				t.Errorf("cause lost: %v", err)
			}
		})
	}
}

func TestNewGeminiClientRequiresKey(t *testing.T) {
	if _, err := NewGeminiClient(context.Background(), Config{}); err == nil {
		t.Fatal("expected an error without API key")
	}
}
