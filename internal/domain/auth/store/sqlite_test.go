package store

import (
	"context"
	"errors"
	"testing"
	"time"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"soxmonitor/internal/platform/storage"
)

func newSQLiteTestStore(t *testing.T) Store {
	t.Helper()
	db, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	if err := db.AutoMigrate(&storage.SessionRecord{}); err != nil {
		t.Fatalf("auto migrate: %v", err)
	}

	store, err := NewSQLite(db)
	if err != nil {
		t.Fatalf("NewSQLite error: %v", err)
	}
	t.Cleanup(func() {
		_ = store.Close(context.Background())
	})
	return store
}

func TestSQLiteStoreLifecycle(t *testing.T) {
	ctx := context.Background()
	store := newSQLiteTestStore(t)

	sess := testSession("sqlite-token", time.Now(), time.Hour)
	sess.Metadata = map[string]any{"ip": "127.0.0.1"}
	if err := store.Save(ctx, sess); err != nil {
		t.Fatalf("Save error: %v", err)
	}

	got, err := store.Lookup(ctx, sess.Token)
	if err != nil {
		t.Fatalf("Lookup error: %v", err)
	}
	if got.Username != sess.Username || got.Role != sess.Role || got.ID != sess.ID {
		t.Fatalf("unexpected session: %+v", got)
	}
	if got.Metadata["ip"] != "127.0.0.1" {
		t.Fatalf("metadata lost in round trip: %+v", got.Metadata)
	}

	tokens, err := store.List(ctx)
	if err != nil {
		t.Fatalf("List error: %v", err)
	}
	if len(tokens) != 1 || tokens[0] != sess.Token {
		t.Fatalf("expected token in list, got %v", tokens)
	}

	if err := store.Delete(ctx, sess.Token); err != nil {
		t.Fatalf("Delete error: %v", err)
	}
	if _, err := store.Lookup(ctx, sess.Token); !errors.Is(err, ErrSessionNotFound) {
		t.Fatalf("expected ErrSessionNotFound, got %v", err)
	}
}

func TestSQLiteStoreLazyEviction(t *testing.T) {
	ctx := context.Background()
	store := newSQLiteTestStore(t)

	sess := testSession("expired-token", time.Now().Add(-2*time.Hour), time.Hour)
	if err := store.Save(ctx, sess); err != nil {
		t.Fatalf("Save error: %v", err)
	}

	if _, err := store.Lookup(ctx, sess.Token); !errors.Is(err, ErrSessionExpired) {
		t.Fatalf("expected ErrSessionExpired, got %v", err)
	}
	if _, err := store.Lookup(ctx, sess.Token); !errors.Is(err, ErrSessionNotFound) {
		t.Fatalf("expected ErrSessionNotFound after eviction, got %v", err)
	}
}

func TestSQLiteStoreCleanupExpired(t *testing.T) {
	ctx := context.Background()
	store := newSQLiteTestStore(t)

	if err := store.Save(ctx, testSession("old", time.Now().Add(-2*time.Hour), time.Hour)); err != nil {
		t.Fatalf("Save error: %v", err)
	}
	if err := store.Save(ctx, testSession("fresh", time.Now(), time.Hour)); err != nil {
		t.Fatalf("Save error: %v", err)
	}

	if err := store.CleanupExpired(ctx); err != nil {
		t.Fatalf("CleanupExpired error: %v", err)
	}

	stats, err := store.Stats(ctx)
	if err != nil {
		t.Fatalf("Stats error: %v", err)
	}
	if stats["total"].(int64) != 1 {
		t.Fatalf("expected one surviving session, got %v", stats["total"])
	}
}

func TestSQLiteStoreRequiresHandle(t *testing.T) {
	if _, err := NewSQLite(nil); err == nil {
		t.Fatal("expected error for nil database handle")
	}
}
