package local

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"time"
)

// tokenType distinguishes the one-time tokens the provider hands out
type tokenType string

const (
	tokenTypeConfirmation tokenType = "email_confirmation"
	tokenTypeRecovery     tokenType = "password_recovery"
)

// Default token lifetimes
const (
	tokenExpiryConfirmation = 24 * time.Hour
	tokenExpiryRecovery     = 1 * time.Hour
)

// authToken is a single-use confirmation or recovery token
type authToken struct {
	Token     string
	Type      tokenType
	AccountID string
	Email     string
	CreatedAt time.Time
	ExpiresAt time.Time
}

func (t *authToken) expired() bool {
	return time.Now().After(t.ExpiresAt)
}

// generateSecureToken generates a cryptographically secure random token
func generateSecureToken() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("failed to generate token: %w", err)
	}
	return hex.EncodeToString(b), nil
}
