// Package store persists chat documents and preferences.
//
// Every backend honours the same contract: messages are only ever appended,
// history of an unknown owner is empty rather than missing, and document
// lookups by id are scoped to the owner so that "not yours" and "does not
// exist" are indistinguishable to callers.
package store

import (
	"context"
	"errors"
	"time"

	"github.com/manyidi1774/LegalBuddy/internal/model"
)

// ErrNotFound is returned when a document or preferences record does not
// exist for the given owner.
var ErrNotFound = errors.New("chat not found")

// Backend names accepted by configuration.
const (
	BackendMongo    = "mongo"
	BackendPostgres = "postgres"
	BackendMemory   = "memory"
)

// Store is the persistence contract used by the chat service.
type Store interface {
	// FindOrCreate returns the owner's primary document (the oldest one),
	// creating an empty document when the owner has none.
	FindOrCreate(ctx context.Context, ownerID string) (*model.ChatDocument, error)

	// CreateDocument always creates a new, empty document for the owner.
	CreateDocument(ctx context.Context, ownerID, title string) (*model.ChatDocument, error)

	// AppendMessage appends msg to the owner's primary document, creating it
	// first when needed. The stored timestamp is never earlier than the
	// previous message's.
	AppendMessage(ctx context.Context, ownerID string, msg model.Message) error

	// GetHistory returns the primary document's messages in order, or an
	// empty slice.
	GetHistory(ctx context.Context, ownerID string) ([]model.Message, error)

	// ListDocuments returns every document of the owner, oldest first.
	ListDocuments(ctx context.Context, ownerID string) ([]model.ChatDocument, error)

	// RenameDocument sets the title of an owned document.
	RenameDocument(ctx context.Context, ownerID, docID, title string) (*model.ChatDocument, error)

	// DeleteDocument permanently removes an owned document.
	DeleteDocument(ctx context.Context, ownerID, docID string) error

	// ClearAll removes every document of every owner and reports how many
	// were deleted. There is no ownership check.
	ClearAll(ctx context.Context) (int64, error)

	// UpsertPreferences replaces the owner's preferences.
	UpsertPreferences(ctx context.Context, prefs model.Preferences) error

	// GetPreferences returns the owner's preferences or ErrNotFound.
	GetPreferences(ctx context.Context, ownerID string) (*model.Preferences, error)

	// Ping checks that the backing storage is reachable.
	Ping(ctx context.Context) error

	// Close releases the underlying connections.
	Close(ctx context.Context) error
}

// nextTimestamp keeps timestamps within a document non-decreasing.
func nextTimestamp(last, at time.Time) time.Time {
	if at.Before(last) {
		return last
	}
	return at
}
