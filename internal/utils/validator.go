package utils

import (
	"regexp"
	"strings"
	"time"
	"unicode"
)

const MinPasswordLength = 8

var (
	emailRegex     = regexp.MustCompile(`^[a-zA-Z0-9._%+\-]+@[a-zA-Z0-9.\-]+\.[a-zA-Z]{2,}$`)
	requestIDRegex = regexp.MustCompile(`^[A-Za-z0-9._\-]{1,128}$`)
)

// ValidateEmail validates an email address
func ValidateEmail(email string) bool {
	return emailRegex.MatchString(email)
}

// ValidatePassword validates a password
// Minimum 8 characters with at least one letter and one number
func ValidatePassword(password string) bool {
	if len(password) < MinPasswordLength {
		return false
	}

	hasLetter := false
	hasNumber := false

	for _, char := range password {
		switch {
		case unicode.IsLetter(char):
			hasLetter = true
		case unicode.IsDigit(char):
			hasNumber = true
		}
	}

	return hasLetter && hasNumber
}

// SanitizeEmail sanitizes an email address
func SanitizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// ValidRequestID reports whether a client supplied request id is safe to echo
func ValidRequestID(id string) bool {
	return requestIDRegex.MatchString(id)
}

var dateLayouts = []string{time.RFC3339Nano, "2006-01-02T15:04:05", "2006-01-02"}

// ParseDate accepts ISO 8601 timestamps with or without zone, and plain dates
func ParseDate(value string) (time.Time, bool) {
	value = strings.TrimSpace(value)
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, value); err == nil {
			return t.UTC(), true
		}
	}
	return time.Time{}, false
}
