// Package session keeps server-side browser sessions. The browser only holds
// a signed token naming the session; the record itself lives in a Store.
package session

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
)

// ErrNotFound is returned when a session does not exist or has expired.
var ErrNotFound = errors.New("session not found")

// Store backends accepted by configuration.
const (
	StoreMemory = "memory"
	StoreRedis  = "redis"
)

// Session is the server-side record behind a session cookie.
type Session struct {
	ID        string    `json:"id"`
	OwnerID   string    `json:"ownerId"`
	CreatedAt time.Time `json:"createdAt"`
}

// New creates a session owned by a fresh identity.
func New() *Session {
	id := uuid.New().String()
	return &Session{
		ID:        id,
		OwnerID:   id,
		CreatedAt: time.Now().UTC(),
	}
}

// Store persists session records.
type Store interface {
	Save(ctx context.Context, s *Session, ttl time.Duration) error
	Load(ctx context.Context, id string) (*Session, error)
}

type memoryEntry struct {
	session   Session
	expiresAt time.Time
}

// sweepInterval bounds how often Save scans for expired entries.
const sweepInterval = time.Minute

// MemoryStore keeps sessions in process memory. Expired entries are dropped
// on read and by a periodic sweep on write.
type MemoryStore struct {
	mu        sync.Mutex
	entries   map[string]memoryEntry
	now       func() time.Time
	lastSweep time.Time
}

// NewMemoryStore creates an empty in-memory session store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		entries: make(map[string]memoryEntry),
		now:     time.Now,
	}
}

func (m *MemoryStore) Save(ctx context.Context, s *Session, ttl time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.now()
	if now.Sub(m.lastSweep) >= sweepInterval {
		m.sweepLocked(now)
	}
	m.entries[s.ID] = memoryEntry{session: *s, expiresAt: now.Add(ttl)}
	return nil
}

func (m *MemoryStore) sweepLocked(now time.Time) {
	for id, e := range m.entries {
		if !now.Before(e.expiresAt) {
			delete(m.entries, id)
		}
	}
	m.lastSweep = now
}

func (m *MemoryStore) Load(ctx context.Context, id string) (*Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	e, ok := m.entries[id]
	if !ok {
		return nil, ErrNotFound
	}
	if !m.now().Before(e.expiresAt) {
		delete(m.entries, id)
		return nil, ErrNotFound
	}
	s := e.session
	return &s, nil
}

var _ Store = (*MemoryStore)(nil)
