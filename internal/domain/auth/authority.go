package auth

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"soxmonitor/internal/domain/auth/model"
	"soxmonitor/internal/domain/auth/store"
)

type (
	// Credential re-exports the shared auth entity for callers.
	Credential = model.Credential
	// Session re-exports the shared auth entity for callers.
	Session = model.Session
	// Logger re-exports the logging interface used across the domain.
	Logger = model.Logger
)

// Authentication failures reported by the authority. The HTTP boundary
// collapses all three to a 401; the distinct kinds exist for callers and tests.
var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrInvalidToken       = errors.New("invalid token")
	ErrTokenExpired       = errors.New("token expired")
)

const (
	defaultSessionTTL      = time.Hour
	defaultCleanupInterval = 10 * time.Minute
	minCleanupInterval     = 30 * time.Second

	tokenBytes = 32
)

// Options encapsulates the dependencies required to construct a Manager.
type Options struct {
	Credentials     *CredentialStore
	Store           store.Store
	Logger          Logger
	SessionTTL      time.Duration
	CleanupInterval time.Duration
	// Now overrides the clock, for tests. Defaults to time.Now.
	Now func() time.Time
}

// Manager issues, resolves and expires bearer sessions. It is the only owner
// of the session store; handlers never touch credentials or sessions directly.
type Manager struct {
	credentials *CredentialStore
	store       store.Store
	logger      Logger
	sessionTTL  time.Duration
	now         func() time.Time

	cleanupInterval time.Duration
	cleanupStop     chan struct{}
	cleanupOnce     sync.Once
}

// NewManager wires a Manager using the supplied options.
func NewManager(opts Options) (*Manager, error) {
	if opts.Credentials == nil {
		return nil, errors.New("session authority requires a credential store")
	}
	if opts.Store == nil {
		return nil, errors.New("session authority requires a session store")
	}
	if opts.Logger == nil {
		return nil, errors.New("session authority requires a logger")
	}
	sessionTTL := opts.SessionTTL
	if sessionTTL <= 0 {
		sessionTTL = defaultSessionTTL
	}
	cleanupInterval := opts.CleanupInterval
	if cleanupInterval <= 0 {
		cleanupInterval = defaultCleanupInterval
	} else if cleanupInterval < minCleanupInterval {
		opts.Logger.Warn(
			"cleanup interval too small, adjusting to minimum %s",
			minCleanupInterval,
		)
		cleanupInterval = minCleanupInterval
	}
	now := opts.Now
	if now == nil {
		now = time.Now
	}

	mgr := &Manager{
		credentials:     opts.Credentials,
		store:           opts.Store,
		logger:          opts.Logger,
		sessionTTL:      sessionTTL,
		now:             now,
		cleanupInterval: cleanupInterval,
		cleanupStop:     make(chan struct{}),
	}

	go mgr.runCleanup()
	return mgr, nil
}

func (m *Manager) runCleanup() {
	ticker := time.NewTicker(m.cleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			if err := m.store.CleanupExpired(context.Background()); err != nil {
				m.logger.Warn("session store cleanup failed: %v", err)
			}
		case <-m.cleanupStop:
			return
		}
	}
}

// Authenticate verifies a username/password pair against the credential table
// and returns the matching credential for issuance. Failure leaves no trace in
// the session store.
func (m *Manager) Authenticate(ctx context.Context, username, password string) (Credential, error) {
	if err := ctx.Err(); err != nil {
		return Credential{}, err
	}

	if !m.credentials.Verify(username, password) {
		m.logger.Debug("login rejected for %q", username)
		return Credential{}, ErrInvalidCredentials
	}
	cred, ok := m.credentials.Lookup(username)
	if !ok {
		return Credential{}, ErrInvalidCredentials
	}
	return cred, nil
}

// IssueToken creates a session for an authenticated credential. The token is
// 32 bytes from crypto/rand, hex encoded; the space is large enough that
// collisions are treated as negligible. Issuing never displaces other
// sessions of the same user.
func (m *Manager) IssueToken(ctx context.Context, cred Credential, meta map[string]any) (Session, error) {
	token, err := generateToken()
	if err != nil {
		return Session{}, fmt.Errorf("failed to generate token: %w", err)
	}

	now := m.now()
	sess := Session{
		ID:        uuid.NewString(),
		Token:     token,
		Username:  cred.Username,
		Role:      cred.Role,
		IssuedAt:  now,
		ExpiresAt: now.Add(m.sessionTTL),
		Metadata:  meta,
	}
	if err := m.store.Save(ctx, sess); err != nil {
		m.logger.Error("failed to store session for %q: %v", cred.Username, err)
		return Session{}, err
	}
	m.logger.Debug("issued session %s for %q", sess.ID, cred.Username)
	return sess, nil
}

// Resolve returns the live session for a bearer token. This is the sole
// authorization gate: protected handlers call it before doing anything else.
func (m *Manager) Resolve(ctx context.Context, token string) (Session, error) {
	sess, err := m.store.Lookup(ctx, token)
	if err != nil {
		switch {
		case errors.Is(err, store.ErrSessionNotFound):
			return Session{}, ErrInvalidToken
		case errors.Is(err, store.ErrSessionExpired):
			m.logger.Debug("session expired and purged")
			return Session{}, ErrTokenExpired
		default:
			m.logger.Error("session lookup failed: %v", err)
			return Session{}, err
		}
	}
	return sess, nil
}

// Logout removes the session for a token. Unknown tokens are not an error.
func (m *Manager) Logout(ctx context.Context, token string) error {
	if err := m.store.Delete(ctx, token); err != nil {
		return err
	}
	m.logger.Debug("session logged out")
	return nil
}

// Stats returns debug information from the store backend.
func (m *Manager) Stats(ctx context.Context) (map[string]any, error) {
	return m.store.Stats(ctx)
}

// SessionTTL reports the configured session lifetime.
func (m *Manager) SessionTTL() time.Duration {
	return m.sessionTTL
}

// Close stops the cleanup loop and releases the store.
func (m *Manager) Close() error {
	m.cleanupOnce.Do(func() {
		close(m.cleanupStop)
	})
	return m.store.Close(context.Background())
}

func generateToken() (string, error) {
	buf := make([]byte, tokenBytes)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return hex.EncodeToString(buf), nil
}
