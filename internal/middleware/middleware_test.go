package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/manyidi1774/LegalBuddy/internal/model"
	"github.com/manyidi1774/LegalBuddy/internal/session"
	"github.com/manyidi1774/LegalBuddy/pkg/logger"
)

func TestOwnerIDFallback(t *testing.T) {
	if got := OwnerID(context.Background()); got != model.AnonymousOwner {
		t.Errorf("OwnerID without session = %q, want %q", got, model.AnonymousOwner)
	}
	if got := OwnerID(WithOwnerID(context.Background(), "")); got != model.AnonymousOwner {
		t.Errorf("OwnerID with empty owner = %q, want %q", got, model.AnonymousOwner)
	}
	if got := OwnerID(WithOwnerID(context.Background(), "abc")); got != "abc" {
		t.Errorf("OwnerID = %q, want abc", got)
	}
}

func ownerEcho(w http.ResponseWriter, r *http.Request) {
	w.Write([]byte(OwnerID(r.Context())))
}

func newSessionHandler(t *testing.T, store session.Store) http.Handler {
	t.Helper()
	manager, err := session.NewManager(store, session.ManagerConfig{Secret: "secret", TTL: time.Hour})
	if err != nil {
		t.Fatalf("NewManager: %v", err)
	}
	return Session(manager, logger.NewNop())(http.HandlerFunc(ownerEcho))
}

func TestSession_IssuesAndReusesCookie(t *testing.T) {
	h := newSessionHandler(t, session.NewMemoryStore())

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/chats", nil))

	cookies := rec.Result().Cookies()
	if len(cookies) != 1 || cookies[0].Name != session.CookieName {
		t.Fatalf("expected session cookie, got %v", cookies)
	}
	firstOwner := rec.Body.String()
	if firstOwner == "" || firstOwner == model.AnonymousOwner {
		t.Fatalf("owner = %q", firstOwner)
	}

	req := httptest.NewRequest(http.MethodGet, "/api/chats", nil)
	req.AddCookie(cookies[0])
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	if rec.Body.String() != firstOwner {
		t.Errorf("owner changed across requests: %q != %q", rec.Body.String(), firstOwner)
	}
	if len(rec.Result().Cookies()) != 0 {
		t.Error("existing session should not be re-issued")
	}
}

type brokenStore struct{}

func (brokenStore) Save(ctx context.Context, s *session.Session, ttl time.Duration) error {
	return errors.New("redis down")
}
func (brokenStore) Load(ctx context.Context, id string) (*session.Session, error) {
	return nil, errors.New("redis down")
}

func TestSession_StoreFailureFallsBackToAnonymous(t *testing.T) {
	h := newSessionHandler(t, brokenStore{})

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if rec.Body.String() != model.AnonymousOwner {
		t.Errorf("owner = %q, want anonymous", rec.Body.String())
	}
}

func TestCorrelationID(t *testing.T) {
	var seen string
	h := CorrelationID(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = GetCorrelationID(r.Context())
	}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("X-Correlation-ID", "abc-123")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if seen != "abc-123" || rec.Header().Get("X-Correlation-ID") != "abc-123" {
		t.Errorf("propagated id = %q, header = %q", seen, rec.Header().Get("X-Correlation-ID"))
	}

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	if seen == "" || rec.Header().Get("X-Correlation-ID") != seen {
		t.Errorf("generated id = %q, header = %q", seen, rec.Header().Get("X-Correlation-ID"))
	}
}

func TestLoggingPassesThroughStatus(t *testing.T) {
	r := chi.NewRouter()
	r.Use(CorrelationID, Logging(logger.NewNop()))
	r.Get("/api/chats/{chatId}", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		w.Write([]byte(`{"error":"Chat not found"}`))
	})

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/chats/123", nil))

	if rec.Code != http.StatusNotFound {
		t.Errorf("status = %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "Chat not found") {
		t.Errorf("body = %q", rec.Body.String())
	}
}

func TestValidation(t *testing.T) {
	invalidUTF8 := string([]byte{0xff, 0xfe})

	tests := []struct {
		name    string
		err     error
		wantErr bool
	}{
		{"message ok", ValidateMessageContent("What is a tort?"), false},
		{"message too long", ValidateMessageContent(strings.Repeat("a", maxMessageBytes+1)), true},
		{"message bad utf8", ValidateMessageContent(invalidUTF8), true},
		{"chat id ok", ValidateChatID("65a1f0c2e4b0a1b2c3d4e5f6"), false},
		{"chat id empty", ValidateChatID(""), true},
		{"chat id too long", ValidateChatID(strings.Repeat("a", maxChatIDLength+1)), true},
		{"title ok", ValidateTitle("Lease"), false},
		{"title bad utf8", ValidateTitle(invalidUTF8), true},
		{"language ok", ValidateLanguage("en"), false},
		{"language too long", ValidateLanguage(strings.Repeat("l", maxLanguageBytes+1)), true},
	}
	for _, tt := range tests {
		if (tt.err != nil) != tt.wantErr {
			t.Errorf("%s: err = %v, wantErr %v", tt.name, tt.err, tt.wantErr)
		}
	}
}
