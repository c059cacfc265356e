package store

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/manyidi1774/LegalBuddy/internal/model"
)

// MemoryStore keeps everything in process memory. It is used by tests and
// local development; data does not survive a restart.
type MemoryStore struct {
	mu    sync.RWMutex
	docs  []*model.ChatDocument
	prefs map[string]model.Preferences
	now   func() time.Time
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		prefs: make(map[string]model.Preferences),
		now:   time.Now,
	}
}

func (s *MemoryStore) FindOrCreate(ctx context.Context, ownerID string) (*model.ChatDocument, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return copyDocument(s.findOrCreateLocked(ownerID)), nil
}

func (s *MemoryStore) CreateDocument(ctx context.Context, ownerID, title string) (*model.ChatDocument, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return copyDocument(s.createLocked(ownerID, title)), nil
}

func (s *MemoryStore) AppendMessage(ctx context.Context, ownerID string, msg model.Message) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	doc := s.findOrCreateLocked(ownerID)
	msg.Timestamp = nextTimestamp(doc.LastTimestamp(), msg.Timestamp)
	doc.Messages = append(doc.Messages, msg)
	doc.UpdatedAt = s.now()
	return nil
}

func (s *MemoryStore) GetHistory(ctx context.Context, ownerID string) ([]model.Message, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if doc := s.primaryLocked(ownerID); doc != nil {
		return copyMessages(doc.Messages), nil
	}
	return []model.Message{}, nil
}

func (s *MemoryStore) ListDocuments(ctx context.Context, ownerID string) ([]model.ChatDocument, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	docs := []model.ChatDocument{}
	for _, doc := range s.docs {
		if doc.OwnerID == ownerID {
			docs = append(docs, *copyDocument(doc))
		}
	}
	return docs, nil
}

func (s *MemoryStore) RenameDocument(ctx context.Context, ownerID, docID, title string) (*model.ChatDocument, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.indexLocked(ownerID, docID)
	if i < 0 {
		return nil, ErrNotFound
	}
	s.docs[i].Title = title
	return copyDocument(s.docs[i]), nil
}

func (s *MemoryStore) DeleteDocument(ctx context.Context, ownerID, docID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.indexLocked(ownerID, docID)
	if i < 0 {
		return ErrNotFound
	}
	s.docs = append(s.docs[:i], s.docs[i+1:]...)
	return nil
}

func (s *MemoryStore) ClearAll(ctx context.Context) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	n := int64(len(s.docs))
	s.docs = nil
	return n, nil
}

func (s *MemoryStore) UpsertPreferences(ctx context.Context, prefs model.Preferences) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.prefs[prefs.OwnerID] = prefs
	return nil
}

func (s *MemoryStore) GetPreferences(ctx context.Context, ownerID string) (*model.Preferences, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	prefs, ok := s.prefs[ownerID]
	if !ok {
		return nil, ErrNotFound
	}
	return &prefs, nil
}

func (s *MemoryStore) Ping(ctx context.Context) error { return nil }

func (s *MemoryStore) Close(ctx context.Context) error { return nil }

func (s *MemoryStore) primaryLocked(ownerID string) *model.ChatDocument {
	for _, doc := range s.docs {
		if doc.OwnerID == ownerID {
			return doc
		}
	}
	return nil
}

func (s *MemoryStore) findOrCreateLocked(ownerID string) *model.ChatDocument {
	if doc := s.primaryLocked(ownerID); doc != nil {
		return doc
	}
	return s.createLocked(ownerID, "")
}

func (s *MemoryStore) createLocked(ownerID, title string) *model.ChatDocument {
	now := s.now()
	doc := &model.ChatDocument{
		ID:        uuid.NewString(),
		OwnerID:   ownerID,
		Title:     title,
		Messages:  []model.Message{},
		CreatedAt: now,
		UpdatedAt: now,
	}
	s.docs = append(s.docs, doc)
	return doc
}

func (s *MemoryStore) indexLocked(ownerID, docID string) int {
	for i, doc := range s.docs {
		if doc.ID == docID && doc.OwnerID == ownerID {
			return i
		}
	}
	return -1
}

func copyDocument(doc *model.ChatDocument) *model.ChatDocument {
	c := *doc
	c.Messages = copyMessages(doc.Messages)
	return &c
}

func copyMessages(msgs []model.Message) []model.Message {
	out := make([]model.Message, len(msgs))
	copy(out, msgs)
	return out
}
var _ Store = (*MemoryStore)(nil)
