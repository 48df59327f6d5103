package store

import (
	"context"
	"fmt"
	"sync"
	"time"

	"soxmonitor/internal/domain/auth/model"
)

type memoryStore struct {
	sessions    map[string]model.Session
	mutex       sync.RWMutex
	now         func() time.Time
	cleanupFreq time.Duration
	stop        chan struct{}
	stopOnce    sync.Once
}

// NewMemory builds an in-memory session store.
func NewMemory(cfg Config) Store {
	return NewMemoryWithClock(cfg, time.Now)
}

// NewMemoryWithClock builds an in-memory session store with an injectable
// clock, used by tests to simulate expiry without sleeping.
func NewMemoryWithClock(cfg Config, now func() time.Time) Store {
	cleanup := 5 * time.Minute
	if cfg.Memory != nil && cfg.Memory.GCInterval > 0 {
		cleanup = cfg.Memory.GCInterval
	}
	if now == nil {
		now = time.Now
	}
	s := &memoryStore{
		sessions:    make(map[string]model.Session),
		now:         now,
		cleanupFreq: cleanup,
		stop:        make(chan struct{}),
	}
	go s.gcLoop()
	return s
}

func (s *memoryStore) gcLoop() {
	ticker := time.NewTicker(s.cleanupFreq)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			_ = s.CleanupExpired(context.Background())
		case <-s.stop:
			return
		}
	}
}

func (s *memoryStore) Save(_ context.Context, sess model.Session) error {
	if sess.Token == "" {
		return fmt.Errorf("session token required")
	}

	s.mutex.Lock()
	s.sessions[sess.Token] = sess
	s.mutex.Unlock()
	return nil
}

// Lookup takes the write lock so the expiry check and the eviction happen as
// one step; two racing lookups of a just-expired token both observe expiry at
// most once each and never resurrect the entry.
func (s *memoryStore) Lookup(_ context.Context, token string) (model.Session, error) {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	sess, ok := s.sessions[token]
	if !ok {
		return model.Session{}, ErrSessionNotFound
	}
	if sess.Expired(s.now()) {
		delete(s.sessions, token)
		return model.Session{}, ErrSessionExpired
	}
	return sess, nil
}

func (s *memoryStore) Delete(_ context.Context, token string) error {
	s.mutex.Lock()
	delete(s.sessions, token)
	s.mutex.Unlock()
	return nil
}

func (s *memoryStore) List(_ context.Context) ([]string, error) {
	now := s.now()
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	tokens := make([]string, 0, len(s.sessions))
	for token, sess := range s.sessions {
		if !sess.Expired(now) {
			tokens = append(tokens, token)
		}
	}
	return tokens, nil
}

func (s *memoryStore) CleanupExpired(_ context.Context) error {
	now := s.now()
	s.mutex.Lock()
	for token, sess := range s.sessions {
		if sess.Expired(now) {
			delete(s.sessions, token)
		}
	}
	s.mutex.Unlock()
	return nil
}

func (s *memoryStore) Stats(_ context.Context) (map[string]any, error) {
	now := s.now()
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	total := len(s.sessions)
	active := 0
	for _, sess := range s.sessions {
		if !sess.Expired(now) {
			active++
		}
	}
	return map[string]any{
		"type":   "memory",
		"total":  total,
		"active": active,
	}, nil
}

func (s *memoryStore) Close(_ context.Context) error {
	s.stopOnce.Do(func() {
		close(s.stop)
	})
	return nil
}
