package service

import (
	"context"
	"time"

	"github.com/artasyaskar/puzzleverse-mern/internal/domain"
	"github.com/artasyaskar/puzzleverse-mern/internal/dto"
	"github.com/artasyaskar/puzzleverse-mern/internal/repository"
)

// AuthService defines methods for authentication operations
type AuthService interface {
	Register(ctx context.Context, req *dto.RegisterRequest) (*dto.UserInfo, error)
	Login(ctx context.Context, req *dto.LoginRequest) (*dto.AuthResponse, error)
	RefreshToken(ctx context.Context, refreshToken string) (*dto.RefreshResponse, error)
	Logout(ctx context.Context, refreshToken string) error
	GetUser(ctx context.Context, userID string) (*dto.UserInfo, error)
	ValidateToken(ctx context.Context, token string) (*domain.TokenClaims, error)
}

// LoginAttempts counts failed logins per key within a fixed window. Only
// failures count; a successful login resets the key.
type LoginAttempts interface {
	Max() int
	// Blocked reports whether key is locked out and for how long.
	Blocked(ctx context.Context, key string) (bool, time.Duration, error)
	// RecordFailure counts one failure and reports whether key is now locked out.
	RecordFailure(ctx context.Context, key string) (bool, time.Duration, error)
	Reset(ctx context.Context, key string) error
}

// CreateTaskInput is a decoded create request.
type CreateTaskInput struct {
	Title       string
	Description string
	Status      string
	Labels      []string
	DueDate     *time.Time
}

// UpdateTaskInput is a decoded update request; nil fields are left alone.
type UpdateTaskInput struct {
	Title       *string
	Description *string
	Status      *string
	Labels      *[]string
}

// TaskService defines methods for task operations
type TaskService interface {
	Create(ctx context.Context, in CreateTaskInput) (*domain.Task, error)
	BulkCreate(ctx context.Context, in []CreateTaskInput) ([]*domain.Task, error)
	Get(ctx context.Context, id string) (*domain.Task, error)
	List(ctx context.Context, filter repository.TaskFilter) ([]*domain.Task, error)
	Search(ctx context.Context, q, status string) ([]*domain.Task, error)
	Update(ctx context.Context, id string, in UpdateTaskInput) (*domain.Task, error)
	Delete(ctx context.Context, id string) error

	SetStatus(ctx context.Context, id, status string) (*domain.Task, error)
	SetArchived(ctx context.Context, id string, archived bool) (*domain.Task, error)
	SetDueDate(ctx context.Context, id string, due *time.Time) (*domain.Task, error)
	SetLabels(ctx context.Context, id string, labels []string) (*domain.Task, error)

	AddComment(ctx context.Context, id, message string) (*domain.Comment, error)
	Comments(ctx context.Context, id string) ([]domain.Comment, error)

	Overdue(ctx context.Context) ([]*domain.Task, error)
	Stats(ctx context.Context) (*dto.TaskStats, error)
}
