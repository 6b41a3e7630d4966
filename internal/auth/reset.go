package auth

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"time"
)

// ResetTokenTTL is how long a password-reset token stays usable.
const ResetTokenTTL = 10 * time.Minute

// ResetToken pairs the plaintext token sent to the user with the hash and
// expiry persisted server-side. Only the hash ever touches storage, so a
// leaked database snapshot cannot be replayed as a reset link.
type ResetToken struct {
	Plain     string
	Hash      string
	ExpiresAt time.Time
}

// NewResetToken generates a random password-reset token.
func NewResetToken() (*ResetToken, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return nil, fmt.Errorf("generate reset token: %w", err)
	}
	plain := hex.EncodeToString(buf)
	return &ResetToken{
		Plain:     plain,
		Hash:      HashResetToken(plain),
		ExpiresAt: time.Now().UTC().Add(ResetTokenTTL),
	}, nil
}

// HashResetToken maps a plaintext reset token to its stored form. The hash
// is deterministic so an incoming token can be looked up directly.
func HashResetToken(plain string) string {
	sum := sha256.Sum256([]byte(plain))
	return hex.EncodeToString(sum[:])
}
