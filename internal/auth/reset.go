package auth

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/Faith-tech-code/safemove/internal/users"
)

// resetTokenTTL bounds how long a password-reset token stays usable.
const resetTokenTTL = 10 * time.Minute

// ResetTokens manages single-use password-reset tokens. Only a sha256
// of the token is persisted, never the plaintext.
type ResetTokens struct {
	store users.Store
	now   func() time.Time
}

// NewResetTokens returns a manager over the given store.
func NewResetTokens(store users.Store) *ResetTokens {
	return &ResetTokens{store: store, now: time.Now}
}

// Generate mints a fresh token for the user, persists its hash and
// expiry, and returns the plaintext. The plaintext surfaces exactly
// once; it cannot be recovered later.
func (m *ResetTokens) Generate(ctx context.Context, user *users.User) (string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("generate reset token: %w", err)
	}
	token := hex.EncodeToString(buf)

	expires := m.now().Add(resetTokenTTL)
	if err := m.store.SetResetToken(ctx, user.ID, hashToken(token), expires); err != nil {
		return "", fmt.Errorf("store reset token: %w", err)
	}
	return token, nil
}

// Consume exchanges a valid, unexpired token for a password change.
// The stored hash and expiry are cleared in the same update that writes
// the new password hash, so a second call with the same token fails.
// Wrong and expired tokens are deliberately indistinguishable.
func (m *ResetTokens) Consume(ctx context.Context, token, newPassword string) (*users.User, error) {
	if len(newPassword) < 6 {
		return nil, validationErr("Password must be at least 6 characters long")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(newPassword), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	user, err := m.store.ConsumeResetToken(ctx, hashToken(token), m.now(), string(hash))
	if errors.Is(err, users.ErrNotFound) {
		return nil, ErrInvalidOrExpiredToken
	}
	if err != nil {
		return nil, err
	}
	return user, nil
}

func hashToken(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}
