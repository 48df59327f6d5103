package store

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"soxmonitor/internal/domain/auth/model"
)

func testSession(token string, issued time.Time, ttl time.Duration) model.Session {
	return model.Session{
		ID:        "sess-" + token,
		Token:     token,
		Username:  "admin",
		Role:      "admin",
		IssuedAt:  issued,
		ExpiresAt: issued.Add(ttl),
	}
}

func TestMemoryStoreBasicLifecycle(t *testing.T) {
	ctx := context.Background()
	store := NewMemory(Config{
		Memory: &MemoryConfig{GCInterval: 10 * time.Millisecond},
	})
	t.Cleanup(func() {
		_ = store.Close(ctx)
	})

	sess := testSession("token-basic", time.Now(), time.Hour)
	if err := store.Save(ctx, sess); err != nil {
		t.Fatalf("Save returned error: %v", err)
	}

	stored, err := store.Lookup(ctx, sess.Token)
	if err != nil {
		t.Fatalf("Lookup returned error: %v", err)
	}
	if stored.Token != sess.Token || stored.Username != sess.Username || stored.Role != sess.Role {
		t.Fatalf("unexpected session: %+v", stored)
	}

	tokens, err := store.List(ctx)
	if err != nil {
		t.Fatalf("List returned error: %v", err)
	}
	if len(tokens) != 1 || tokens[0] != sess.Token {
		t.Fatalf("expected list to include token: %v", tokens)
	}

	if err := store.Delete(ctx, sess.Token); err != nil {
		t.Fatalf("Delete returned error: %v", err)
	}
	if _, err := store.Lookup(ctx, sess.Token); !errors.Is(err, ErrSessionNotFound) {
		t.Fatalf("expected ErrSessionNotFound after delete, got %v", err)
	}
}

func TestMemoryStoreRejectsEmptyToken(t *testing.T) {
	ctx := context.Background()
	store := NewMemory(Config{})
	t.Cleanup(func() {
		_ = store.Close(ctx)
	})

	if err := store.Save(ctx, model.Session{}); err == nil {
		t.Fatal("expected error for empty token")
	}
}

func TestMemoryStoreLazyEviction(t *testing.T) {
	ctx := context.Background()
	base := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	now := base
	var mu sync.Mutex
	clock := func() time.Time {
		mu.Lock()
		defer mu.Unlock()
		return now
	}
	store := NewMemoryWithClock(Config{}, clock)
	t.Cleanup(func() {
		_ = store.Close(ctx)
	})

	sess := testSession("token-expire", base, time.Hour)
	if err := store.Save(ctx, sess); err != nil {
		t.Fatalf("Save returned error: %v", err)
	}

	mu.Lock()
	now = base.Add(time.Hour + time.Second)
	mu.Unlock()

	if _, err := store.Lookup(ctx, sess.Token); !errors.Is(err, ErrSessionExpired) {
		t.Fatalf("expected ErrSessionExpired, got %v", err)
	}
	// The expired entry was evicted inside the first lookup.
	if _, err := store.Lookup(ctx, sess.Token); !errors.Is(err, ErrSessionNotFound) {
		t.Fatalf("expected ErrSessionNotFound after eviction, got %v", err)
	}

	stats, err := store.Stats(ctx)
	if err != nil {
		t.Fatalf("Stats returned error: %v", err)
	}
	if stats["total"].(int) != 0 {
		t.Fatalf("expected empty store, got %v", stats["total"])
	}
}

func TestMemoryStoreCleanupExpired(t *testing.T) {
	ctx := context.Background()
	base := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	now := base
	var mu sync.Mutex
	clock := func() time.Time {
		mu.Lock()
		defer mu.Unlock()
		return now
	}
	store := NewMemoryWithClock(Config{}, clock)
	t.Cleanup(func() {
		_ = store.Close(ctx)
	})

	if err := store.Save(ctx, testSession("short", base, time.Minute)); err != nil {
		t.Fatalf("Save returned error: %v", err)
	}
	if err := store.Save(ctx, testSession("long", base, time.Hour)); err != nil {
		t.Fatalf("Save returned error: %v", err)
	}

	mu.Lock()
	now = base.Add(10 * time.Minute)
	mu.Unlock()

	if err := store.CleanupExpired(ctx); err != nil {
		t.Fatalf("CleanupExpired returned error: %v", err)
	}

	if _, err := store.Lookup(ctx, "short"); !errors.Is(err, ErrSessionNotFound) {
		t.Fatalf("expected short session swept, got %v", err)
	}
	if _, err := store.Lookup(ctx, "long"); err != nil {
		t.Fatalf("expected long session to survive, got %v", err)
	}
}

func TestMemoryStoreConcurrentAccess(t *testing.T) {
	ctx := context.Background()
	store := NewMemory(Config{})
	t.Cleanup(func() {
		_ = store.Close(ctx)
	})

	var wg sync.WaitGroup
	for i := 0; i < 32; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			token := string(rune('a'+i%26)) + "-token"
			if err := store.Save(ctx, testSession(token, time.Now(), time.Hour)); err != nil {
				t.Errorf("Save returned error: %v", err)
				return
			}
			if _, err := store.Lookup(ctx, token); err != nil {
				t.Errorf("Lookup returned error: %v", err)
			}
		}(i)
	}
	wg.Wait()
}
