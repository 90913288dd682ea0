package repository

import (
	"context"

	"github.com/artasyaskar/puzzleverse-mern/internal/domain"
)

// UserRepository defines methods for user operations
type UserRepository interface {
	Create(ctx context.Context, user *domain.User) error
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
	GetByID(ctx context.Context, id string) (*domain.User, error)
}

// TokenRepository defines methods for refresh token operations
type TokenRepository interface {
	Create(ctx context.Context, token *domain.RefreshToken) error
	GetByTokenHash(ctx context.Context, tokenHash string) (*domain.RefreshToken, error)
	GetByUserID(ctx context.Context, userID string) ([]*domain.RefreshToken, error)
	DeleteByTokenHash(ctx context.Context, tokenHash string) error
	// TrimUser keeps only the newest keep tokens of a user.
	TrimUser(ctx context.Context, userID string, keep int) error
}

// TaskFilter selects tasks for List. Zero values match everything
// except archived tasks.
type TaskFilter struct {
	Status          string
	Label           string
	Query           string
	IncludeArchived bool
}

// TaskRepository defines methods for task operations. Returned tasks are
// copies; use Update to change stored state.
type TaskRepository interface {
	Create(ctx context.Context, tasks ...*domain.Task) error
	GetByID(ctx context.Context, id string) (*domain.Task, error)
	// List returns matching tasks, newest first.
	List(ctx context.Context, filter TaskFilter) ([]*domain.Task, error)
	// Update applies fn to the stored task atomically. If fn returns an
	// error nothing is changed.
	Update(ctx context.Context, id string, fn func(*domain.Task) error) (*domain.Task, error)
	Delete(ctx context.Context, id string) error
	Count(ctx context.Context) (int, error)
}
