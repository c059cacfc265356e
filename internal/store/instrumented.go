package store

import (
	"context"
	"errors"
	"time"

	"github.com/manyidi1774/LegalBuddy/internal/model"
	"github.com/manyidi1774/LegalBuddy/pkg/metrics"
)

// instrumented records a latency histogram for every call on the wrapped
// store.
type instrumented struct {
	next    Store
	backend string
}

// Instrument wraps s so each operation is recorded under backend.
func Instrument(s Store, backend string) Store {
	return &instrumented{next: s, backend: backend}
}

func (s *instrumented) track(op string) func(error) {
	start := time.Now()
	return func(err error) {
		// A not-found answer is still a successful round trip.
		if errors.Is(err, ErrNotFound) {
			err = nil
		}
		metrics.RecordStoreOperation(s.backend, op, err, time.Since(start))
	}
}

func (s *instrumented) FindOrCreate(ctx context.Context, ownerID string) (*model.ChatDocument, error) {
	done := s.track("find_or_create")
	doc, err := s.next.FindOrCreate(ctx, ownerID)
	done(err)
	return doc, err
}

func (s *instrumented) CreateDocument(ctx context.Context, ownerID, title string) (*model.ChatDocument, error) {
	done := s.track("create_document")
	doc, err := s.next.CreateDocument(ctx, ownerID, title)
	done(err)
	return doc, err
}

func (s *instrumented) AppendMessage(ctx context.Context, ownerID string, msg model.Message) error {
	done := s.track("append_message")
	err := s.next.AppendMessage(ctx, ownerID, msg)
	done(err)
	return err
}

func (s *instrumented) GetHistory(ctx context.Context, ownerID string) ([]model.Message, error) {
	done := s.track("get_history")
	msgs, err := s.next.GetHistory(ctx, ownerID)
	done(err)
	return msgs, err
}

func (s *instrumented) ListDocuments(ctx context.Context, ownerID string) ([]model.ChatDocument, error) {
	done := s.track("list_documents")
	docs, err := s.next.ListDocuments(ctx, ownerID)
	done(err)
	return docs, err
}

func (s *instrumented) RenameDocument(ctx context.Context, ownerID, docID, title string) (*model.ChatDocument, error) {
	done := s.track("rename_document")
	doc, err := s.next.RenameDocument(ctx, ownerID, docID, title)
	done(err)
	return doc, err
}

func (s *instrumented) DeleteDocument(ctx context.Context, ownerID, docID string) error {
	done := s.track("delete_document")
	err := s.next.DeleteDocument(ctx, ownerID, docID)
	done(err)
	return err
}

func (s *instrumented) ClearAll(ctx context.Context) (int64, error) {
	done := s.track("clear_all")
	n, err := s.next.ClearAll(ctx)
	done(err)
	return n, err
}

func (s *instrumented) UpsertPreferences(ctx context.Context, prefs model.Preferences) error {
	done := s.track("upsert_preferences")
	err := s.next.UpsertPreferences(ctx, prefs)
	done(err)
	return err
}

func (s *instrumented) GetPreferences(ctx context.Context, ownerID string) (*model.Preferences, error) {
	done := s.track("get_preferences")
	prefs, err := s.next.GetPreferences(ctx, ownerID)
	done(err)
	return prefs, err
}

func (s *instrumented) Ping(ctx context.Context) error {
	return s.next.Ping(ctx)
}

func (s *instrumented) Close(ctx context.Context) error {
	return s.next.Close(ctx)
}
