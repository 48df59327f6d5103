package auth

import (
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"

	"soxmonitor/internal/domain/auth/model"
)

// DigestPassword returns the hex-encoded sha256 of a plaintext password.
func DigestPassword(password string) string {
	sum := sha256.Sum256([]byte(password))
	return hex.EncodeToString(sum[:])
}

// Account declares one login entry for CredentialStore construction.
type Account struct {
	Username string
	Password string
	Role     string
}

// CredentialStore is the fixed login table. It is built once at startup and
// never mutated afterwards, so concurrent reads need no synchronisation.
type CredentialStore struct {
	credentials map[string]model.Credential
	// dummyDigest keeps the comparison shape identical for unknown usernames.
	dummyDigest string
}

// NewCredentialStore digests the supplied accounts into an immutable table.
func NewCredentialStore(accounts []Account) *CredentialStore {
	credentials := make(map[string]model.Credential, len(accounts))
	for _, account := range accounts {
		credentials[account.Username] = model.Credential{
			Username:       account.Username,
			PasswordDigest: DigestPassword(account.Password),
			Role:           account.Role,
		}
	}
	return &CredentialStore{
		credentials: credentials,
		dummyDigest: DigestPassword(""),
	}
}

// Verify reports whether the username/password pair matches a stored account.
// Absence and mismatch are both simply false.
func (cs *CredentialStore) Verify(username, password string) bool {
	digest := DigestPassword(password)
	cred, ok := cs.credentials[username]
	expected := cs.dummyDigest
	if ok {
		expected = cred.PasswordDigest
	}
	match := subtle.ConstantTimeCompare([]byte(digest), []byte(expected)) == 1
	return ok && match
}

// Lookup returns the credential metadata for a username.
func (cs *CredentialStore) Lookup(username string) (model.Credential, bool) {
	cred, ok := cs.credentials[username]
	return cred, ok
}

// Len returns the number of registered accounts.
func (cs *CredentialStore) Len() int {
	return len(cs.credentials)
}
