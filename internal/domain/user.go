package domain

import (
	"strings"
	"time"
)

// User represents a registered account of the sandbox gateway
type User struct {
	ID           string
	Email        string
	PasswordHash string
	CreatedAt    time.Time
}

// EmailKey is the case-insensitive lookup key of the user's email.
func (u User) EmailKey() string {
	return NormalizeEmail(u.Email)
}

func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// RefreshToken represents an issued refresh token. Only its hash is kept.
type RefreshToken struct {
	ID        string
	UserID    string
	TokenHash string
	ExpiresAt time.Time
	CreatedAt time.Time
}

func (t RefreshToken) IsExpired(now time.Time) bool {
	return now.After(t.ExpiresAt)
}
