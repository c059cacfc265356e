package store

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/manyidi1774/LegalBuddy/internal/model"
)

// Real servers are opt-in:
//
//	LEGALBUDDY_TEST_MONGO_URI=mongodb://localhost:27017
//	LEGALBUDDY_TEST_POSTGRES_DSN="host=localhost user=postgres dbname=legalbuddy_test sslmode=disable"
//
// The Postgres database is wiped by ClearAll; point it at a scratch database.
const (
	envTestMongoURI    = "LEGALBUDDY_TEST_MONGO_URI"
	envTestPostgresDSN = "LEGALBUDDY_TEST_POSTGRES_DSN"
)

func TestBackends(t *testing.T) {
	backends := []struct {
		name string
		open func(t *testing.T) Store
	}{
		{BackendMemory, func(t *testing.T) Store { return NewMemoryStore() }},
		{BackendMongo, openTestMongo},
		{BackendPostgres, openTestPostgres},
	}

	for _, b := range backends {
		t.Run(b.name, func(t *testing.T) {
			s := b.open(t)
			t.Run("AppendAndHistory", func(t *testing.T) { checkAppendAndHistory(t, s) })
			t.Run("ConcurrentFirstMessages", func(t *testing.T) { checkConcurrentFindOrCreate(t, s) })
			t.Run("DocumentScoping", func(t *testing.T) { checkDocumentScoping(t, s) })
			t.Run("Preferences", func(t *testing.T) { checkPreferences(t, s) })
			t.Run("ClearAll", func(t *testing.T) { checkClearAll(t, s) })
		})
	}
}

func openTestMongo(t *testing.T) Store {
	uri := os.Getenv(envTestMongoURI)
	if uri == "" {
		t.Skipf("%s not set", envTestMongoURI)
	}
	ctx := context.Background()
	dbName := "legalbuddy_test_" + uuid.NewString()[:8]

	s, err := NewMongoStore(ctx, MongoConfig{URI: uri, Database: dbName})
	if err != nil {
		t.Fatalf("NewMongoStore: %v", err)
	}
	t.Cleanup(func() {
		_ = s.client.Database(dbName).Drop(ctx)
		_ = s.Close(ctx)
	})
	return s
}

func openTestPostgres(t *testing.T) Store {
	dsn := os.Getenv(envTestPostgresDSN)
	if dsn == "" {
		t.Skipf("%s not set", envTestPostgresDSN)
	}
	ctx := context.Background()

	s, err := NewPostgresStore(ctx, dsn)
	if err != nil {
		t.Fatalf("NewPostgresStore: %v", err)
	}
	t.Cleanup(func() {
		_, _ = s.ClearAll(ctx)
		_ = s.Close(ctx)
	})
	return s
}

func testOwner(prefix string) string {
	return fmt.Sprintf("%s-%s", prefix, uuid.NewString())
}

func checkAppendAndHistory(t *testing.T, s Store) {
	ctx := context.Background()
	owner := testOwner("history")
	now := time.Now().UTC().Truncate(time.Millisecond)

	msgs, err := s.GetHistory(ctx, owner)
	if err != nil {
		t.Fatalf("GetHistory: %v", err)
	}
	if msgs == nil || len(msgs) != 0 {
		t.Fatalf("history of unknown owner = %#v", msgs)
	}

	if err := s.AppendMessage(ctx, owner, model.NewUserMessage("first $messages", now)); err != nil {
		t.Fatalf("AppendMessage: %v", err)
	}
	if err := s.AppendMessage(ctx, owner, model.NewBotMessage("second", now.Add(-time.Minute))); err != nil {
		t.Fatalf("AppendMessage: %v", err)
	}
	if err := s.AppendMessage(ctx, owner, model.NewUserMessage("third", now.Add(time.Second))); err != nil {
		t.Fatalf("AppendMessage: %v", err)
	}

	msgs, err = s.GetHistory(ctx, owner)
	if err != nil {
		t.Fatalf("GetHistory: %v", err)
	}
	want := []string{"first $messages", "second", "third"}
	if len(msgs) != len(want) {
		t.Fatalf("got %d messages, want %d", len(msgs), len(want))
	}
	for i, content := range want {
		if msgs[i].Content != content {
			t.Errorf("message %d = %q, want %q", i, msgs[i].Content, content)
		}
		if i > 0 && msgs[i].Timestamp.Before(msgs[i-1].Timestamp) {
			t.Errorf("timestamp %d went backwards: %v < %v", i, msgs[i].Timestamp, msgs[i-1].Timestamp)
		}
	}
	if !msgs[0].IsUser || msgs[1].IsUser {
		t.Errorf("isUser flags = %v, %v", msgs[0].IsUser, msgs[1].IsUser)
	}

	docs, err := s.ListDocuments(ctx, owner)
	if err != nil {
		t.Fatalf("ListDocuments: %v", err)
	}
	if len(docs) != 1 {
		t.Fatalf("expected a single primary document, got %d", len(docs))
	}
}

func checkConcurrentFindOrCreate(t *testing.T, s Store) {
	ctx := context.Background()
	owner := testOwner("race")

	const workers = 8
	ids := make([]string, workers)
	errs := make([]error, workers)

	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			doc, err := s.FindOrCreate(ctx, owner)
			if err != nil {
				errs[i] = err
				return
			}
			ids[i] = doc.ID
		}(i)
	}
	wg.Wait()

	for i, err := range errs {
		if err != nil {
			t.Fatalf("FindOrCreate %d: %v", i, err)
		}
		if ids[i] != ids[0] {
			t.Errorf("FindOrCreate %d returned %s, want %s", i, ids[i], ids[0])
		}
	}

	docs, err := s.ListDocuments(ctx, owner)
	if err != nil {
		t.Fatalf("ListDocuments: %v", err)
	}
	if len(docs) != 1 {
		t.Fatalf("concurrent first lookups created %d documents", len(docs))
	}
}

func checkDocumentScoping(t *testing.T, s Store) {
	ctx := context.Background()
	alice, bob := testOwner("alice"), testOwner("bob")

	doc, err := s.CreateDocument(ctx, alice, "Lease")
	if err != nil {
		t.Fatalf("CreateDocument: %v", err)
	}

	if _, err := s.RenameDocument(ctx, bob, doc.ID, "Stolen"); !errors.Is(err, ErrNotFound) {
		t.Errorf("rename by other owner: err = %v, want ErrNotFound", err)
	}
	if err := s.DeleteDocument(ctx, bob, doc.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("delete by other owner: err = %v, want ErrNotFound", err)
	}

	renamed, err := s.RenameDocument(ctx, alice, doc.ID, "Tenancy")
	if err != nil {
		t.Fatalf("RenameDocument: %v", err)
	}
	if renamed.Title != "Tenancy" || renamed.ID != doc.ID {
		t.Errorf("renamed = %+v", renamed)
	}

	if err := s.DeleteDocument(ctx, alice, doc.ID); err != nil {
		t.Fatalf("DeleteDocument: %v", err)
	}
	if err := s.DeleteDocument(ctx, alice, doc.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("second delete: err = %v, want ErrNotFound", err)
	}
}

func checkPreferences(t *testing.T, s Store) {
	ctx := context.Background()
	owner := testOwner("prefs")

	if _, err := s.GetPreferences(ctx, owner); !errors.Is(err, ErrNotFound) {
		t.Fatalf("GetPreferences before save: err = %v, want ErrNotFound", err)
	}

	for _, p := range []model.Preferences{
		{OwnerID: owner, Theme: model.ThemeLight, Language: "en"},
		{OwnerID: owner, Theme: model.ThemeDark},
	} {
		if err := s.UpsertPreferences(ctx, p); err != nil {
			t.Fatalf("UpsertPreferences: %v", err)
		}
	}

	got, err := s.GetPreferences(ctx, owner)
	if err != nil {
		t.Fatalf("GetPreferences: %v", err)
	}
	if got.Theme != model.ThemeDark || got.Language != "" {
		t.Errorf("preferences = %+v, want replaced record", got)
	}
}

func checkClearAll(t *testing.T, s Store) {
	ctx := context.Background()
	owner := testOwner("clear")

	if err := s.AppendMessage(ctx, owner, model.NewUserMessage("hi", time.Now())); err != nil {
		t.Fatalf("AppendMessage: %v", err)
	}
	n, err := s.ClearAll(ctx)
	if err != nil {
		t.Fatalf("ClearAll: %v", err)
	}
	if n < 1 {
		t.Errorf("ClearAll deleted %d documents", n)
	}
	docs, _ := s.ListDocuments(ctx, owner)
	if len(docs) != 0 {
		t.Errorf("documents survived ClearAll: %d", len(docs))
	}
}
