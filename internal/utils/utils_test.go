package utils

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func TestValidatePassword(t *testing.T) {
	tests := []struct {
		password string
		want     bool
	}{
		{"Passw0rd1", true},
		{"abcdefg1", true},
		{"short1", false},
		{"aaaaaaaa", false},
		{"12345678", false},
	}

	for _, tt := range tests {
		t.Run(tt.password, func(t *testing.T) {
			assert.Equal(t, tt.want, ValidatePassword(tt.password))
		})
	}
}

func TestValidateEmail(t *testing.T) {
	assert.True(t, ValidateEmail("user_1a2b@example.com"))
	assert.True(t, ValidateEmail("USER@EXAMPLE.COM"))
	assert.False(t, ValidateEmail("not-an-email"))
	assert.False(t, ValidateEmail(""))
}

func TestParseDate(t *testing.T) {
	got, ok := ParseDate("2030-01-01T12:00:00.000Z")
	require.True(t, ok)
	assert.True(t, got.Equal(time.Date(2030, 1, 1, 12, 0, 0, 0, time.UTC)))

	_, ok = ParseDate("2030-01-01")
	assert.True(t, ok)

	_, ok = ParseDate("not-a-real-date")
	assert.False(t, ok)
}

func TestValidRequestID(t *testing.T) {
	assert.True(t, ValidRequestID("probe-0b7c2f3e-1d2a-4c7e-9a51-6f9d1c3e2b10"))
	assert.False(t, ValidRequestID(""))
	assert.False(t, ValidRequestID("bad id\r\n"))
}

func TestJWTManager_AccessToken(t *testing.T) {
	m := NewJWTManager("test-secret-key-that-is-at-least-32-characters-long", time.Minute, time.Hour)

	token, err := m.GenerateAccessToken("user-1", "user@example.com")
	require.NoError(t, err)

	claims, err := m.ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, "user-1", claims.UserID)
	assert.Equal(t, "user@example.com", claims.Email)
	assert.False(t, claims.IsExpired(time.Now()))
	assert.True(t, claims.IsExpired(claims.ExpiresAt))

	other := NewJWTManager("another-secret-key-that-is-at-least-32-chars", time.Minute, time.Hour)
	_, err = other.ValidateToken(token)
	assert.Error(t, err)

	_, err = m.ValidateRefreshToken(token)
	assert.Error(t, err, "access token must not be accepted as refresh token")
}

func TestJWTManager_RefreshToken(t *testing.T) {
	m := NewJWTManager("test-secret-key-that-is-at-least-32-characters-long", time.Minute, time.Hour)

	first, err := m.GenerateRefreshToken("user-1")
	require.NoError(t, err)
	second, err := m.GenerateRefreshToken("user-1")
	require.NoError(t, err)
	assert.NotEqual(t, first, second)

	userID, err := m.ValidateRefreshToken(first)
	require.NoError(t, err)
	assert.Equal(t, "user-1", userID)

	_, err = m.ValidateToken(first)
	assert.Error(t, err, "refresh token must not be accepted as access token")

	_, err = m.ValidateRefreshToken("this-is-not-a-real-token")
	assert.Error(t, err)
}

func TestJWTManager_ExpiredToken(t *testing.T) {
	m := NewJWTManager("test-secret-key-that-is-at-least-32-characters-long", -time.Minute, time.Hour)

	token, err := m.GenerateAccessToken("user-1", "user@example.com")
	require.NoError(t, err)

	_, err = m.ValidateToken(token)
	assert.Error(t, err)
}

func TestPasswordHasher(t *testing.T) {
	h := NewPasswordHasher(bcrypt.MinCost)

	hash, err := h.Hash("Password123")
	require.NoError(t, err)
	assert.NotEqual(t, "Password123", hash)

	assert.True(t, h.Matches(hash, "Password123"))
	assert.False(t, h.Matches(hash, "Password124"))
	assert.False(t, h.Matches("not-a-bcrypt-hash", "Password123"))
}

func TestNewPasswordHasher_OutOfRangeCostFallsBack(t *testing.T) {
	assert.Equal(t, bcrypt.DefaultCost, NewPasswordHasher(0).cost)
	assert.Equal(t, bcrypt.DefaultCost, NewPasswordHasher(bcrypt.MaxCost+1).cost)
}

func TestHashToken(t *testing.T) {
	a := HashToken("token-a")
	assert.Len(t, a, 64)
	assert.Equal(t, a, HashToken("token-a"))
	assert.NotEqual(t, a, HashToken("token-b"))
}
