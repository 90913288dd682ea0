package apiclient

import (
	"context"
	"fmt"
	"net/http"

	"github.com/golang-jwt/jwt/v5"

	"github.com/artasyaskar/puzzleverse-mern/internal/dto"
)

func (c *Client) Register(ctx context.Context, body any) (*Response, error) {
	return c.send(ctx, http.MethodPost, "/api/auth/register", body)
}

func (c *Client) Login(ctx context.Context, body any) (*Response, error) {
	return c.send(ctx, http.MethodPost, "/api/auth/login", body)
}

func (c *Client) Refresh(ctx context.Context, refreshToken string) (*Response, error) {
	return c.send(ctx, http.MethodPost, "/api/auth/refresh", dto.RefreshRequest{RefreshToken: refreshToken})
}

func (c *Client) Logout(ctx context.Context, refreshToken string) (*Response, error) {
	return c.send(ctx, http.MethodPost, "/api/auth/logout", dto.LogoutRequest{RefreshToken: refreshToken})
}

// Me calls GET /api/me; an empty token sends no Authorization header.
func (c *Client) Me(ctx context.Context, accessToken string) (*Response, error) {
	header := http.Header{}
	if accessToken != "" {
		header.Set("Authorization", "Bearer "+accessToken)
	}
	return c.Do(ctx, Request{Method: http.MethodGet, Path: "/api/me", Header: header})
}

// AccessClaims are the claims the gateway puts in access tokens.
type AccessClaims struct {
	Email string `json:"email"`
	jwt.RegisteredClaims
}

// DecodeAccessToken parses a JWT without verifying its signature. Probes
// do not know the signing key; they only inspect the claims.
func DecodeAccessToken(token string) (*AccessClaims, error) {
	claims := &AccessClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return nil, fmt.Errorf("failed to parse access token: %w", err)
	}
	return claims, nil
}
