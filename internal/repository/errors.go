package repository

import "errors"

var (
	// ErrNotFound means no user, token or task matched the lookup.
	ErrNotFound = errors.New("record not found")

	ErrDuplicateEmail = errors.New("email already registered")

	// ErrDuplicateToken guards the token hash index, which must stay unique.
	ErrDuplicateToken = errors.New("refresh token already stored")
)
