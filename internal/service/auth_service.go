package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/artasyaskar/puzzleverse-mern/internal/domain"
	"github.com/artasyaskar/puzzleverse-mern/internal/dto"
	"github.com/artasyaskar/puzzleverse-mern/internal/repository"
	"github.com/artasyaskar/puzzleverse-mern/internal/utils"
)

// MaxRefreshTokens caps the live refresh tokens per user; the oldest are evicted.
const MaxRefreshTokens = 5

// authService implements AuthService interface
type authService struct {
	userRepo   repository.UserRepository
	tokenRepo  repository.TokenRepository
	jwtManager *utils.JWTManager
	passwords  utils.PasswordHasher
	logger     *zap.Logger
}

// NewAuthService creates a new auth service
func NewAuthService(
	userRepo repository.UserRepository,
	tokenRepo repository.TokenRepository,
	jwtManager *utils.JWTManager,
	bcryptCost int,
	logger *zap.Logger,
) AuthService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &authService{
		userRepo:   userRepo,
		tokenRepo:  tokenRepo,
		jwtManager: jwtManager,
		passwords:  utils.NewPasswordHasher(bcryptCost),
		logger:     logger,
	}
}

// Register registers a new user
func (s *authService) Register(ctx context.Context, req *dto.RegisterRequest) (*dto.UserInfo, error) {
	// Stored as given; uniqueness and lookups go through domain.User.EmailKey.
	email := strings.TrimSpace(req.Email)
	if email == "" {
		return nil, Invalid("email", "email is required")
	}
	if !utils.ValidateEmail(email) {
		return nil, Invalid("email", "invalid email format")
	}
	if req.Password == "" {
		return nil, Invalid("password", "password is required")
	}
	if !utils.ValidatePassword(req.Password) {
		return nil, Invalid("password", "password must be at least %d characters and include letters and numbers", utils.MinPasswordLength)
	}

	passwordHash, err := s.passwords.Hash(req.Password)
	if err != nil {
		return nil, err
	}

	user := &domain.User{
		Email:        email,
		PasswordHash: passwordHash,
	}
	if err := s.userRepo.Create(ctx, user); err != nil {
		if errors.Is(err, repository.ErrDuplicateEmail) {
			return nil, ErrEmailTaken
		}
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	s.logger.Info("User registered", zap.String("user_id", user.ID))

	return &dto.UserInfo{ID: user.ID, Email: user.Email}, nil
}

// Login authenticates a user
func (s *authService) Login(ctx context.Context, req *dto.LoginRequest) (*dto.AuthResponse, error) {
	if strings.TrimSpace(req.Email) == "" {
		return nil, Invalid("email", "email is required")
	}
	if req.Password == "" {
		return nil, Invalid("password", "password is required")
	}

	user, err := s.userRepo.GetByEmail(ctx, utils.SanitizeEmail(req.Email))
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}

	if !s.passwords.Matches(user.PasswordHash, req.Password) {
		return nil, ErrInvalidCredentials
	}

	accessToken, refreshToken, err := s.issueTokens(ctx, user)
	if err != nil {
		return nil, err
	}

	return &dto.AuthResponse{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		User:         dto.UserInfo{ID: user.ID, Email: user.Email},
	}, nil
}

// RefreshToken rotates a refresh token: the old one is revoked and a new
// pair is issued.
func (s *authService) RefreshToken(ctx context.Context, refreshToken string) (*dto.RefreshResponse, error) {
	userID, err := s.jwtManager.ValidateRefreshToken(refreshToken)
	if err != nil {
		return nil, ErrInvalidRefreshToken
	}

	tokenHash := utils.HashToken(refreshToken)

	dbToken, err := s.tokenRepo.GetByTokenHash(ctx, tokenHash)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrInvalidRefreshToken
		}
		return nil, fmt.Errorf("failed to get token: %w", err)
	}

	if dbToken.UserID != userID || dbToken.IsExpired(time.Now()) {
		return nil, ErrInvalidRefreshToken
	}

	if err := s.tokenRepo.DeleteByTokenHash(ctx, tokenHash); err != nil {
		// Lost a race with a concurrent refresh or logout of the same token.
		return nil, ErrInvalidRefreshToken
	}

	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return nil, ErrInvalidRefreshToken
	}

	accessToken, newRefreshToken, err := s.issueTokens(ctx, user)
	if err != nil {
		return nil, err
	}

	return &dto.RefreshResponse{
		AccessToken:  accessToken,
		RefreshToken: newRefreshToken,
		UserID:       user.ID,
	}, nil
}

// Logout revokes a refresh token. Unknown or malformed tokens are ignored.
func (s *authService) Logout(ctx context.Context, refreshToken string) error {
	if refreshToken == "" {
		return nil
	}

	err := s.tokenRepo.DeleteByTokenHash(ctx, utils.HashToken(refreshToken))
	if err != nil && !errors.Is(err, repository.ErrNotFound) {
		return fmt.Errorf("failed to revoke token: %w", err)
	}

	return nil
}

// GetUser gets user information
func (s *authService) GetUser(ctx context.Context, userID string) (*dto.UserInfo, error) {
	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}

	return &dto.UserInfo{ID: user.ID, Email: user.Email}, nil
}

// ValidateToken validates an access token. Access tokens stay valid until
// they expire, even after the session's refresh token is revoked.
func (s *authService) ValidateToken(ctx context.Context, token string) (*domain.TokenClaims, error) {
	claims, err := s.jwtManager.ValidateToken(token)
	if err != nil {
		return nil, ErrInvalidToken
	}
	if claims.IsExpired(time.Now()) {
		return nil, ErrInvalidToken
	}

	return claims, nil
}

func (s *authService) issueTokens(ctx context.Context, user *domain.User) (string, string, error) {
	accessToken, err := s.jwtManager.GenerateAccessToken(user.ID, user.Email)
	if err != nil {
		return "", "", fmt.Errorf("failed to generate access token: %w", err)
	}

	refreshToken, err := s.jwtManager.GenerateRefreshToken(user.ID)
	if err != nil {
		return "", "", fmt.Errorf("failed to generate refresh token: %w", err)
	}

	err = s.tokenRepo.Create(ctx, &domain.RefreshToken{
		UserID:    user.ID,
		TokenHash: utils.HashToken(refreshToken),
		ExpiresAt: time.Now().Add(s.jwtManager.RefreshTokenExpiry()),
	})
	if err != nil {
		return "", "", fmt.Errorf("failed to save refresh token: %w", err)
	}

	if err := s.tokenRepo.TrimUser(ctx, user.ID, MaxRefreshTokens); err != nil {
		return "", "", fmt.Errorf("failed to trim refresh tokens: %w", err)
	}

	return accessToken, refreshToken, nil
}
