package repository

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/artasyaskar/puzzleverse-mern/internal/domain"
)

// tokenRepository implements TokenRepository in memory. Per-user slices
// keep issue order so the oldest tokens can be evicted first.
type tokenRepository struct {
	mu     sync.Mutex
	byHash map[string]*domain.RefreshToken
	byUser map[string][]string
}

// NewTokenRepository creates a new token repository
func NewTokenRepository() TokenRepository {
	return &tokenRepository{
		byHash: make(map[string]*domain.RefreshToken),
		byUser: make(map[string][]string),
	}
}

// Create stores a new refresh token
func (r *tokenRepository) Create(ctx context.Context, token *domain.RefreshToken) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.byHash[token.TokenHash]; exists {
		return ErrDuplicateToken
	}

	if token.ID == "" {
		token.ID = uuid.New().String()
	}
	if token.CreatedAt.IsZero() {
		token.CreatedAt = time.Now()
	}

	stored := *token
	r.byHash[token.TokenHash] = &stored
	r.byUser[token.UserID] = append(r.byUser[token.UserID], token.TokenHash)
	return nil
}

// GetByTokenHash retrieves a refresh token by its hash
func (r *tokenRepository) GetByTokenHash(ctx context.Context, tokenHash string) (*domain.RefreshToken, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	stored, ok := r.byHash[tokenHash]
	if !ok {
		return nil, ErrNotFound
	}
	token := *stored
	return &token, nil
}

// GetByUserID returns a user's tokens, oldest first
func (r *tokenRepository) GetByUserID(ctx context.Context, userID string) ([]*domain.RefreshToken, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	hashes := r.byUser[userID]
	tokens := make([]*domain.RefreshToken, 0, len(hashes))
	for _, h := range hashes {
		token := *r.byHash[h]
		tokens = append(tokens, &token)
	}
	return tokens, nil
}

// DeleteByTokenHash removes a token. Unknown hashes yield ErrNotFound.
func (r *tokenRepository) DeleteByTokenHash(ctx context.Context, tokenHash string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	stored, ok := r.byHash[tokenHash]
	if !ok {
		return ErrNotFound
	}
	delete(r.byHash, tokenHash)
	r.byUser[stored.UserID] = removeHash(r.byUser[stored.UserID], tokenHash)
	return nil
}

func (r *tokenRepository) TrimUser(ctx context.Context, userID string, keep int) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	hashes := r.byUser[userID]
	for len(hashes) > keep {
		delete(r.byHash, hashes[0])
		hashes = hashes[1:]
	}
	r.byUser[userID] = hashes
	return nil
}

func removeHash(hashes []string, target string) []string {
	out := hashes[:0]
	for _, h := range hashes {
		if h != target {
			out = append(out, h)
		}
	}
	return out
}
