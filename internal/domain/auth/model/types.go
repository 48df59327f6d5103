package model

import "time"

// Credential is one entry of the fixed login table. The plaintext password is
// never stored; PasswordDigest holds its hex-encoded sha256.
type Credential struct {
	Username       string
	PasswordDigest string
	Role           string
}

// Session binds a bearer token to the identity it was issued for. Sessions are
// immutable after creation; expiry is decided at lookup time.
type Session struct {
	ID        string         `json:"id"`
	Token     string         `json:"token"`
	Username  string         `json:"username"`
	Role      string         `json:"role"`
	IssuedAt  time.Time      `json:"issued_at"`
	ExpiresAt time.Time      `json:"expires_at"`
	Metadata  map[string]any `json:"metadata,omitempty"`
}

// Expired reports whether the session is past its lifetime at the given instant.
func (s Session) Expired(now time.Time) bool {
	return now.After(s.ExpiresAt)
}

// Logger provides the minimal logging contract required by the auth domain.
type Logger interface {
	Debug(format string, args ...any)
	Info(format string, args ...any)
	Warn(format string, args ...any)
	Error(format string, args ...any)
}
