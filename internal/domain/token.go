package domain

import "time"

// TokenClaims are the verified claims of an access token.
type TokenClaims struct {
	UserID    string
	Email     string
	ExpiresAt time.Time
	IssuedAt  time.Time
}

func (tc TokenClaims) IsExpired(now time.Time) bool {
	return !now.Before(tc.ExpiresAt)
}
