package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"go.uber.org/zap"

	"github.com/artasyaskar/puzzleverse-mern/internal/dto"
	"github.com/artasyaskar/puzzleverse-mern/internal/service"
)

// AuthHandler handles authentication requests
type AuthHandler struct {
	authService service.AuthService
	limiter     service.LoginAttempts
	logger      *zap.Logger
}

// NewAuthHandler creates a new auth handler
func NewAuthHandler(authService service.AuthService, limiter service.LoginAttempts, logger *zap.Logger) *AuthHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AuthHandler{
		authService: authService,
		limiter:     limiter,
		logger:      logger,
	}
}

// Register handles user registration
// @Summary Register a new user
// @Tags auth
// @Accept json
// @Produce json
// @Param request body dto.RegisterRequest true "Registration request"
// @Success 201 {object} dto.UserInfo
// @Failure 400 {object} dto.ErrorResponse
// @Router /auth/register [post]
func (h *AuthHandler) Register(c *gin.Context) {
	var req dto.RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		authError(c, http.StatusBadRequest, "Invalid request body")
		return
	}

	user, err := h.authService.Register(c.Request.Context(), &req)
	if err != nil {
		var verr *service.ValidationError
		switch {
		case errors.As(err, &verr):
			authError(c, http.StatusBadRequest, verr.Message)
		case errors.Is(err, service.ErrEmailTaken):
			authError(c, http.StatusBadRequest, "Email already registered")
		default:
			h.internalError(c, "Registration failed", err)
		}
		return
	}

	c.JSON(http.StatusCreated, user)
}

// Login handles user login. Failed attempts are counted by the login
// limiter; the attempt that exhausts the budget is answered with 429.
// @Summary Login user
// @Tags auth
// @Accept json
// @Produce json
// @Param request body dto.LoginRequest true "Login request"
// @Success 200 {object} dto.AuthResponse
// @Failure 400 {object} dto.ErrorResponse
// @Failure 401 {object} dto.ErrorResponse
// @Failure 429 {object} dto.ErrorResponse
// @Router /auth/login [post]
func (h *AuthHandler) Login(c *gin.Context) {
	var req dto.LoginRequest
	if err := c.ShouldBindBodyWith(&req, binding.JSON); err != nil {
		authError(c, http.StatusBadRequest, "Invalid request body")
		return
	}

	key := c.GetString(loginKeyContext)
	if key == "" {
		key = LoginKey(c, req.Email)
	}

	response, err := h.authService.Login(c.Request.Context(), &req)
	if err != nil {
		var verr *service.ValidationError
		switch {
		case errors.As(err, &verr):
			authError(c, http.StatusBadRequest, verr.Message)
		case errors.Is(err, service.ErrInvalidCredentials):
			blocked, retryAfter, lerr := h.limiter.RecordFailure(c.Request.Context(), key)
			if lerr != nil {
				h.logger.Warn("Failed to record login failure", zap.Error(lerr))
			}
			if blocked {
				h.logger.Warn("Login locked out", zap.String("ip", c.ClientIP()))
				tooManyAttempts(c, retryAfter)
				return
			}
			authError(c, http.StatusUnauthorized, "Invalid credentials")
		default:
			h.internalError(c, "Login failed", err)
		}
		return
	}

	if err := h.limiter.Reset(c.Request.Context(), key); err != nil {
		h.logger.Warn("Failed to reset login failures", zap.Error(err))
	}
	c.JSON(http.StatusOK, response)
}

// Refresh handles token refresh
// @Summary Rotate refresh token
// @Tags auth
// @Accept json
// @Produce json
// @Param request body dto.RefreshRequest true "Refresh request"
// @Success 200 {object} dto.RefreshResponse
// @Failure 400 {object} dto.ErrorResponse
// @Failure 401 {object} dto.ErrorResponse
// @Router /auth/refresh [post]
func (h *AuthHandler) Refresh(c *gin.Context) {
	var req dto.RefreshRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.RefreshToken == "" {
		authError(c, http.StatusBadRequest, "refreshToken is required")
		return
	}

	response, err := h.authService.RefreshToken(c.Request.Context(), req.RefreshToken)
	if err != nil {
		if errors.Is(err, service.ErrInvalidRefreshToken) {
			authError(c, http.StatusUnauthorized, "Invalid refresh token")
			return
		}
		h.internalError(c, "Token refresh failed", err)
		return
	}

	c.JSON(http.StatusOK, response)
}

// Logout revokes the given refresh token. It always answers 204.
// @Summary Logout user
// @Tags auth
// @Accept json
// @Param request body dto.LogoutRequest false "Logout request"
// @Success 204
// @Router /auth/logout [post]
func (h *AuthHandler) Logout(c *gin.Context) {
	var req dto.LogoutRequest
	_ = c.ShouldBindJSON(&req)

	if err := h.authService.Logout(c.Request.Context(), req.RefreshToken); err != nil {
		h.logger.Error("Logout failed", zap.Error(err))
	}

	c.Status(http.StatusNoContent)
}

// GetMe handles getting current user profile
// @Summary Get current user profile
// @Tags auth
// @Security BearerAuth
// @Produce json
// @Success 200 {object} dto.UserInfo
// @Failure 401 {object} dto.ErrorResponse
// @Router /me [get]
func (h *AuthHandler) GetMe(c *gin.Context) {
	userID := c.GetString(userIDContext)
	if userID == "" {
		authError(c, http.StatusUnauthorized, "Authorization header is required")
		return
	}

	user, err := h.authService.GetUser(c.Request.Context(), userID)
	if err != nil {
		authError(c, http.StatusUnauthorized, "Invalid or expired token")
		return
	}

	c.JSON(http.StatusOK, user)
}

func (h *AuthHandler) internalError(c *gin.Context, msg string, err error) {
	h.logger.Error(msg, zap.Error(err), zap.String("request_id", c.GetString(requestIDContext)))
	authError(c, http.StatusInternalServerError, "Internal server error")
}
