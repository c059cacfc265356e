package session

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func newTestManager(t *testing.T, store Store) *Manager {
	t.Helper()
	m, err := NewManager(store, ManagerConfig{Secret: "test-secret", TTL: time.Hour})
	if err != nil {
		t.Fatalf("NewManager: %v", err)
	}
	return m
}

func requestWithCookie(c *http.Cookie) *http.Request {
	r := httptest.NewRequest(http.MethodGet, "/", nil)
	if c != nil {
		r.AddCookie(c)
	}
	return r
}

func TestNewManagerRequiresSecret(t *testing.T) {
	if _, err := NewManager(NewMemoryStore(), ManagerConfig{}); err == nil {
		t.Fatal("expected error without secret")
	}
}

func TestManager_ResolveCreatesAndReuses(t *testing.T) {
	ctx := context.Background()
	m := newTestManager(t, NewMemoryStore())

	first, created, err := m.Resolve(ctx, requestWithCookie(nil))
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if !created {
		t.Fatal("expected a new session without cookie")
	}

	cookie, err := m.Cookie(first)
	if err != nil {
		t.Fatalf("Cookie: %v", err)
	}
	if cookie.Name != CookieName || !cookie.HttpOnly {
		t.Errorf("unexpected cookie: %+v", cookie)
	}

	second, created, err := m.Resolve(ctx, requestWithCookie(cookie))
	if err != nil {
		t.Fatalf("Resolve with cookie: %v", err)
	}
	if created {
		t.Fatal("valid cookie should reuse the session")
	}
	if second.OwnerID != first.OwnerID {
		t.Errorf("owner = %q, want %q", second.OwnerID, first.OwnerID)
	}
}

func TestManager_RejectsForeignSignature(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	m := newTestManager(t, store)
	other, _ := NewManager(store, ManagerConfig{Secret: "another-secret", TTL: time.Hour})

	s, _, _ := other.Resolve(ctx, requestWithCookie(nil))
	forged, _ := other.Cookie(s)

	got, created, err := m.Resolve(ctx, requestWithCookie(forged))
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if !created || got.ID == s.ID {
		t.Fatal("token signed with a different secret must not be accepted")
	}
}

func TestManager_GarbageCookieStartsNewSession(t *testing.T) {
	m := newTestManager(t, NewMemoryStore())
	_, created, err := m.Resolve(context.Background(),
		requestWithCookie(&http.Cookie{Name: CookieName, Value: "not-a-token"}))
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if !created {
		t.Fatal("expected new session for garbage cookie")
	}
}

func TestManager_ExpiredToken(t *testing.T) {
	ctx := context.Background()
	m := newTestManager(t, NewMemoryStore())
	now := time.Now()
	m.now = func() time.Time { return now }

	s, _, _ := m.Resolve(ctx, requestWithCookie(nil))
	cookie, _ := m.Cookie(s)

	m.now = func() time.Time { return now.Add(2 * time.Hour) }
	got, created, err := m.Resolve(ctx, requestWithCookie(cookie))
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if !created || got.ID == s.ID {
		t.Fatal("expired token must start a new session")
	}
}

type failingStore struct{ err error }

func (f failingStore) Save(ctx context.Context, s *Session, ttl time.Duration) error { return f.err }
func (f failingStore) Load(ctx context.Context, id string) (*Session, error)         { return nil, f.err }

func TestManager_StoreFailure(t *testing.T) {
	boom := errors.New("redis down")
	m := newTestManager(t, failingStore{err: boom})

	if _, _, err := m.Resolve(context.Background(), requestWithCookie(nil)); !errors.Is(err, boom) {
		t.Fatalf("expected store error, got %v", err)
	}
}
