package acceptance

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/artasyaskar/puzzleverse-mern/internal/dto"
)

func (s *Suite) uniqueEmail() string {
	return fmt.Sprintf("acceptance-%d@example.com", time.Now().UnixNano())
}

func (s *Suite) TestRegisterLoginAndMe() {
	ctx := context.Background()
	email := s.uniqueEmail()

	resp, err := s.Gateway.Register(ctx, dto.RegisterRequest{Email: email, Password: "Password123"})
	s.Require().NoError(err)
	s.Require().Equal(http.StatusCreated, resp.StatusCode, resp.String())

	resp, err = s.Gateway.Login(ctx, dto.LoginRequest{Email: email, Password: "Password123"})
	s.Require().NoError(err)
	s.Require().Equal(http.StatusOK, resp.StatusCode, resp.String())

	var auth dto.AuthResponse
	s.Require().NoError(resp.JSON(&auth))
	s.NotEmpty(auth.AccessToken)
	s.NotEmpty(auth.RefreshToken)
	s.Equal(email, auth.User.Email)

	resp, err = s.Gateway.Me(ctx, auth.AccessToken)
	s.Require().NoError(err)
	s.Require().Equal(http.StatusOK, resp.StatusCode, resp.String())

	var me dto.UserInfo
	s.Require().NoError(resp.JSON(&me))
	s.Equal(auth.User.ID, me.ID)
}

func (s *Suite) TestRefreshTokenIsSingleUse() {
	ctx := context.Background()
	email := s.uniqueEmail()

	_, err := s.Gateway.Register(ctx, dto.RegisterRequest{Email: email, Password: "Password123"})
	s.Require().NoError(err)

	resp, err := s.Gateway.Login(ctx, dto.LoginRequest{Email: email, Password: "Password123"})
	s.Require().NoError(err)
	var auth dto.AuthResponse
	s.Require().NoError(resp.JSON(&auth))

	resp, err = s.Gateway.Refresh(ctx, auth.RefreshToken)
	s.Require().NoError(err)
	s.Equal(http.StatusOK, resp.StatusCode, resp.String())

	resp, err = s.Gateway.Refresh(ctx, auth.RefreshToken)
	s.Require().NoError(err)
	s.Equal(http.StatusUnauthorized, resp.StatusCode, resp.String())
}

func (s *Suite) TestMeWithoutToken() {
	resp, err := s.Gateway.Me(context.Background(), "")
	s.Require().NoError(err)
	s.Equal(http.StatusUnauthorized, resp.StatusCode)
}
