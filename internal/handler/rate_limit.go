package handler

import (
	"math"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"go.uber.org/zap"

	"github.com/artasyaskar/puzzleverse-mern/internal/dto"
	"github.com/artasyaskar/puzzleverse-mern/internal/service"
)

const (
	loginKeyContext = "login_key"

	tooManyAttemptsMessage = "Too many login attempts. Please try again later."
)

// LoginRateLimitMiddleware rejects logins for a key that is already locked
// out. Counting failures is left to the login handler, which knows whether
// the credentials were wrong. A limiter error lets the request through.
func LoginRateLimitMiddleware(limiter service.LoginAttempts, logger *zap.Logger) gin.HandlerFunc {
	if logger == nil {
		logger = zap.NewNop()
	}
	return func(c *gin.Context) {
		var req dto.LoginRequest
		// The body is cached on the context so the handler can bind it again.
		_ = c.ShouldBindBodyWith(&req, binding.JSON)

		key := LoginKey(c, req.Email)
		blocked, retryAfter, err := limiter.Blocked(c.Request.Context(), key)
		if err != nil {
			logger.Warn("Login limiter unavailable", zap.Error(err))
		}
		if blocked {
			tooManyAttempts(c, retryAfter)
			c.Abort()
			return
		}

		c.Header("X-RateLimit-Limit", strconv.Itoa(limiter.Max()))
		c.Set(loginKeyContext, key)
		c.Next()
	}
}

// LoginKey combines client IP and lower-cased email, so one address being
// hammered does not lock out other accounts behind the same IP.
func LoginKey(c *gin.Context, email string) string {
	return c.ClientIP() + "|" + strings.ToLower(strings.TrimSpace(email))
}

func tooManyAttempts(c *gin.Context, retryAfter time.Duration) {
	c.Header("Retry-After", strconv.Itoa(retryAfterSeconds(retryAfter)))
	authError(c, http.StatusTooManyRequests, tooManyAttemptsMessage)
}

// retryAfterSeconds rounds up to whole seconds, never below one.
func retryAfterSeconds(d time.Duration) int {
	return max(1, int(math.Ceil(d.Seconds())))
}
