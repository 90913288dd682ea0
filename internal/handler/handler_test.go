package handler

import (
	"bytes"
	"context"
	"encoding/csv"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/artasyaskar/puzzleverse-mern/internal/dto"
	"github.com/artasyaskar/puzzleverse-mern/internal/repository"
	"github.com/artasyaskar/puzzleverse-mern/internal/service"
	"github.com/artasyaskar/puzzleverse-mern/internal/utils"
)

const testSecret = "test-secret-key-that-is-at-least-32-characters"

func newTestRouter(t *testing.T) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	repos := repository.NewRepositories()
	jwtManager := utils.NewJWTManager(testSecret, 5*time.Minute, time.Hour)
	authService := service.NewAuthService(repos.User, repos.Token, jwtManager, bcrypt.MinCost, nil)
	limiter := service.NewLoginLimiter(5, time.Minute)

	authHandler := NewAuthHandler(authService, limiter, nil)
	taskHandler := NewTaskHandler(service.NewTaskService(repos.Task, nil), nil)

	r := gin.New()
	r.Use(RequestIDMiddleware(), SecurityHeadersMiddleware(), CORSMiddleware(DefaultAllowedMethods, DefaultAllowedHeaders))
	r.NoRoute(NotFound)

	r.GET("/api/me", AuthMiddleware(authService), authHandler.GetMe)
	r.POST("/api/auth/register", authHandler.Register)
	r.POST("/api/auth/login", LoginRateLimitMiddleware(limiter, nil), authHandler.Login)
	r.POST("/api/auth/refresh", authHandler.Refresh)
	r.POST("/api/auth/logout", authHandler.Logout)

	r.GET("/api/tasks", taskHandler.List)
	r.POST("/api/tasks", taskHandler.Create)
	r.GET("/api/tasks/export", taskHandler.Export)
	r.POST("/api/tasks/bulk", taskHandler.BulkCreate)
	r.GET("/api/tasks/:id", taskHandler.Get)
	r.PUT("/api/tasks/:id", taskHandler.Update)
	r.PATCH("/api/tasks/:id/status", taskHandler.SetStatus)
	r.PATCH("/api/tasks/:id/archive", taskHandler.SetArchived)
	r.PATCH("/api/tasks/:id/due-date", taskHandler.SetDueDate)
	r.PATCH("/api/tasks/:id/labels", taskHandler.SetLabels)
	r.POST("/api/tasks/:id/comments", taskHandler.AddComment)
	r.GET("/api/tasks/:id/comments", taskHandler.Comments)
	return r
}

func do(r http.Handler, method, path string, body any, header ...string) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		if s, ok := body.(string); ok {
			buf.WriteString(s)
		} else {
			_ = json.NewEncoder(&buf).Encode(body)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	for i := 0; i+1 < len(header); i += 2 {
		req.Header.Set(header[i], header[i+1])
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &v), w.Body.String())
	return v
}

func createTask(t *testing.T, r http.Handler, body map[string]any) dto.Task {
	t.Helper()
	w := do(r, http.MethodPost, "/api/tasks", body)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	return decode[dto.Task](t, w)
}

func TestCORS(t *testing.T) {
	r := newTestRouter(t)

	w := do(r, http.MethodGet, "/api/tasks", nil, "Origin", "http://localhost:3000")
	assert.Equal(t, "http://localhost:3000", w.Header().Get("Access-Control-Allow-Origin"))
	assert.Contains(t, w.Header().Values("Vary"), "Origin")

	w = do(r, http.MethodGet, "/api/tasks", nil)
	assert.Equal(t, "*", w.Header().Get("Access-Control-Allow-Origin"))

	// No OPTIONS route is registered; the preflight is answered by the middleware.
	w = do(r, http.MethodOptions, "/api/auth/login", nil, "Origin", "http://example.com", "Access-Control-Request-Method", "POST")
	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Contains(t, w.Header().Get("Access-Control-Allow-Methods"), "POST")
	assert.Contains(t, w.Header().Get("Access-Control-Allow-Headers"), "Authorization")
}

func TestSecurityHeadersAndNotFound(t *testing.T) {
	r := newTestRouter(t)

	w := do(r, http.MethodGet, "/api/nope", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "Not found", decode[dto.ErrorResponse](t, w).Message)
	assert.Equal(t, "nosniff", w.Header().Get("X-Content-Type-Options"))
	assert.Equal(t, "SAMEORIGIN", w.Header().Get("X-Frame-Options"))
	assert.Equal(t, "0", w.Header().Get("X-XSS-Protection"))
}

func TestRequestID(t *testing.T) {
	r := newTestRouter(t)

	w := do(r, http.MethodGet, "/api/tasks/bad-id", nil, RequestIDHeader, "client-id.1")
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "client-id.1", w.Header().Get(RequestIDHeader))

	w = do(r, http.MethodGet, "/api/tasks", nil, RequestIDHeader, "bad id with spaces")
	generated := w.Header().Get(RequestIDHeader)
	assert.NotEmpty(t, generated)
	assert.NotEqual(t, "bad id with spaces", generated)
}

func TestAuthFlow(t *testing.T) {
	r := newTestRouter(t)
	creds := dto.RegisterRequest{Email: "flow@example.com", Password: "Passw0rd1"}

	w := do(r, http.MethodPost, "/api/auth/register", creds)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	user := decode[dto.UserInfo](t, w)
	assert.Equal(t, "flow@example.com", user.Email)
	assert.NotContains(t, strings.ToLower(w.Body.String()), "password")

	w = do(r, http.MethodPost, "/api/auth/register", creds)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "Email already registered", decode[dto.ErrorResponse](t, w).Error)

	w = do(r, http.MethodPost, "/api/auth/login", creds)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	auth := decode[dto.AuthResponse](t, w)

	w = do(r, http.MethodGet, "/api/me", nil, "Authorization", "Bearer "+auth.AccessToken)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, user.ID, decode[dto.UserInfo](t, w).ID)

	for _, header := range []string{"", "Bearer", "Bearer not.a.jwt", "Basic abc"} {
		w = do(r, http.MethodGet, "/api/me", nil, "Authorization", header)
		assert.Equal(t, http.StatusUnauthorized, w.Code, header)
		assert.NotEmpty(t, decode[dto.ErrorResponse](t, w).Error)
	}

	w = do(r, http.MethodPost, "/api/auth/refresh", dto.RefreshRequest{RefreshToken: auth.RefreshToken})
	require.Equal(t, http.StatusOK, w.Code)
	rotated := decode[dto.RefreshResponse](t, w)
	assert.Equal(t, user.ID, rotated.UserID)

	w = do(r, http.MethodPost, "/api/auth/refresh", dto.RefreshRequest{RefreshToken: auth.RefreshToken})
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = do(r, http.MethodPost, "/api/auth/refresh", map[string]any{})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	for range 2 {
		w = do(r, http.MethodPost, "/api/auth/logout", dto.LogoutRequest{RefreshToken: rotated.RefreshToken})
		assert.Equal(t, http.StatusNoContent, w.Code)
		assert.Empty(t, w.Body.String())
	}

	w = do(r, http.MethodPost, "/api/auth/logout", "not json")
	assert.Equal(t, http.StatusNoContent, w.Code)
}

func TestLoginValidation(t *testing.T) {
	r := newTestRouter(t)

	w := do(r, http.MethodPost, "/api/auth/login", map[string]any{"password": "Passw0rd1"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, decode[dto.ErrorResponse](t, w).Error, "email")

	w = do(r, http.MethodPost, "/api/auth/login", map[string]any{"email": "a@example.com"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, decode[dto.ErrorResponse](t, w).Error, "password")
	assert.NotContains(t, w.Body.String(), `password"`)

	w = do(r, http.MethodPost, "/api/auth/register", dto.RegisterRequest{Email: "a@example.com", Password: "12345678"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	msg := decode[dto.ErrorResponse](t, w).Error
	assert.Contains(t, msg, "8")
	assert.Contains(t, msg, "letters")
}

func TestLoginRateLimit(t *testing.T) {
	r := newTestRouter(t)
	creds := dto.RegisterRequest{Email: "locked@example.com", Password: "Passw0rd1"}
	require.Equal(t, http.StatusCreated, do(r, http.MethodPost, "/api/auth/register", creds).Code)

	bad := dto.LoginRequest{Email: creds.Email, Password: "wrongpass1"}
	for i := 1; i < 5; i++ {
		w := do(r, http.MethodPost, "/api/auth/login", bad)
		require.Equal(t, http.StatusUnauthorized, w.Code, "attempt %d", i)
		assert.Equal(t, "Invalid credentials", decode[dto.ErrorResponse](t, w).Error)
	}

	w := do(r, http.MethodPost, "/api/auth/login", bad)
	require.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.Equal(t, tooManyAttemptsMessage, decode[dto.ErrorResponse](t, w).Error)
	seconds, err := strconv.Atoi(w.Header().Get("Retry-After"))
	require.NoError(t, err)
	assert.GreaterOrEqual(t, seconds, 1)
	assert.LessOrEqual(t, seconds, 60)

	// Locked out even with the right password.
	w = do(r, http.MethodPost, "/api/auth/login", dto.LoginRequest{Email: "LOCKED@example.com", Password: creds.Password})
	assert.Equal(t, http.StatusTooManyRequests, w.Code)

	// Another account from the same client is unaffected.
	other := dto.RegisterRequest{Email: "free@example.com", Password: "Passw0rd1"}
	require.Equal(t, http.StatusCreated, do(r, http.MethodPost, "/api/auth/register", other).Code)
	assert.Equal(t, http.StatusOK, do(r, http.MethodPost, "/api/auth/login", other).Code)
}

type brokenLimiter struct{}

func (brokenLimiter) Max() int { return 5 }

func (brokenLimiter) Blocked(context.Context, string) (bool, time.Duration, error) {
	return false, 0, errors.New("connection refused")
}

func (brokenLimiter) RecordFailure(context.Context, string) (bool, time.Duration, error) {
	return false, 0, errors.New("connection refused")
}

func (brokenLimiter) Reset(context.Context, string) error {
	return errors.New("connection refused")
}

func TestLogin_LimiterErrorsFailOpen(t *testing.T) {
	gin.SetMode(gin.TestMode)
	repos := repository.NewRepositories()
	authService := service.NewAuthService(repos.User, repos.Token, utils.NewJWTManager(testSecret, time.Minute, time.Hour), bcrypt.MinCost, nil)
	authHandler := NewAuthHandler(authService, brokenLimiter{}, nil)

	r := gin.New()
	r.POST("/api/auth/register", authHandler.Register)
	r.POST("/api/auth/login", LoginRateLimitMiddleware(brokenLimiter{}, nil), authHandler.Login)

	creds := dto.RegisterRequest{Email: "open@example.com", Password: "Passw0rd1"}
	require.Equal(t, http.StatusCreated, do(r, http.MethodPost, "/api/auth/register", creds).Code)

	w := do(r, http.MethodPost, "/api/auth/login", dto.LoginRequest{Email: creds.Email, Password: "wrongpass1"})
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = do(r, http.MethodPost, "/api/auth/login", dto.LoginRequest{Email: creds.Email, Password: creds.Password})
	assert.Equal(t, http.StatusOK, w.Code, w.Body.String())
}

func TestRetryAfterSeconds(t *testing.T) {
	assert.Equal(t, 1, retryAfterSeconds(0))
	assert.Equal(t, 1, retryAfterSeconds(200*time.Millisecond))
	assert.Equal(t, 2, retryAfterSeconds(1100*time.Millisecond))
	assert.Equal(t, 60, retryAfterSeconds(time.Minute))
}

func TestTaskHandler_CreateAndTypeChecks(t *testing.T) {
	r := newTestRouter(t)

	task := createTask(t, r, map[string]any{"title": "Handler task", "labels": []string{" A ", "a"}})
	assert.Len(t, task.ID, 24)
	assert.Equal(t, dto.StatusPending, task.Status)
	assert.Equal(t, []string{"a"}, task.Labels)
	assert.NotNil(t, task.Comments)

	for _, body := range []any{
		map[string]any{"title": 42},
		map[string]any{"title": "x", "labels": "a"},
		map[string]any{"title": "x", "dueDate": "someday"},
		"[1,2]",
		"{broken",
	} {
		w := do(r, http.MethodPost, "/api/tasks", body)
		assert.Equal(t, http.StatusBadRequest, w.Code, "%v", body)
		assert.NotEmpty(t, decode[dto.ErrorResponse](t, w).Message)
	}

	w := do(r, http.MethodPatch, "/api/tasks/"+task.ID+"/archive", map[string]any{"archived": "yes"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	w = do(r, http.MethodPatch, "/api/tasks/"+task.ID+"/labels", map[string]any{"labels": nil})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	w = do(r, http.MethodPatch, "/api/tasks/"+task.ID+"/status", map[string]any{})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestTaskHandler_DueDateAndTransitions(t *testing.T) {
	r := newTestRouter(t)
	task := createTask(t, r, map[string]any{"title": "Due", "status": dto.StatusCompleted})

	w := do(r, http.MethodPatch, "/api/tasks/"+task.ID+"/due-date", map[string]any{"dueDate": "2030-01-01T12:00:00.000Z"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	due := decode[dto.Task](t, w).DueDate
	require.NotNil(t, due)
	assert.True(t, due.Equal(time.Date(2030, 1, 1, 12, 0, 0, 0, time.UTC)))

	w = do(r, http.MethodPatch, "/api/tasks/"+task.ID+"/due-date", map[string]any{"dueDate": nil})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Nil(t, decode[dto.Task](t, w).DueDate)

	w = do(r, http.MethodPatch, "/api/tasks/"+task.ID+"/status", map[string]any{"status": dto.StatusPending})
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.NotEmpty(t, decode[dto.ErrorResponse](t, w).Message)

	w = do(r, http.MethodPut, "/api/tasks/"+task.ID, map[string]any{"status": dto.StatusInProgress})
	assert.Equal(t, http.StatusConflict, w.Code)

	w = do(r, http.MethodPatch, "/api/tasks/64b7c1f5e13f5f2a9f0c1234/status", map[string]any{"status": dto.StatusPending})
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "Task not found", decode[dto.ErrorResponse](t, w).Message)
}

func TestTaskHandler_BulkCreate(t *testing.T) {
	r := newTestRouter(t)

	w := do(r, http.MethodPost, "/api/tasks/bulk", map[string]any{"tasks": []any{
		map[string]any{"title": "ok"},
		"not an object",
		map[string]any{"title": ""},
	}})
	require.Equal(t, http.StatusBadRequest, w.Code)
	resp := decode[dto.ErrorResponse](t, w)
	require.Len(t, resp.Errors, 2)
	assert.Equal(t, 1, resp.Errors[0].Index)
	assert.Equal(t, 2, resp.Errors[1].Index)
	assert.Equal(t, "title is required", resp.Errors[1].Message)

	w = do(r, http.MethodGet, "/api/tasks", nil)
	assert.JSONEq(t, `[]`, w.Body.String())

	w = do(r, http.MethodPost, "/api/tasks/bulk", map[string]any{"tasks": []any{
		map[string]any{"title": "one"},
		map[string]any{"title": "two", "status": dto.StatusInProgress},
	}})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	out := decode[dto.BulkCreateResponse](t, w)
	assert.Equal(t, 2, out.Created)
	assert.Equal(t, "one", out.Tasks[0].Title)
}

func TestTaskHandler_ExportCSV(t *testing.T) {
	r := newTestRouter(t)
	createTask(t, r, map[string]any{"title": "Plain", "status": dto.StatusPending})
	createTask(t, r, map[string]any{"title": `Quote "me", please`, "status": dto.StatusCompleted, "description": "a,b"})

	w := do(r, http.MethodGet, "/api/tasks/export", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "text/csv; charset=utf-8", w.Header().Get("Content-Type"))
	assert.Equal(t, `attachment; filename="tasks.csv"`, w.Header().Get("Content-Disposition"))

	rows, err := csv.NewReader(strings.NewReader(w.Body.String())).ReadAll()
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, dto.CSVHeader, rows[0])
	assert.Equal(t, `Quote "me", please`, rows[1][1])
	assert.Equal(t, "a,b", rows[1][2])
	_, err = time.Parse(csvTimeLayout, rows[1][4])
	assert.NoError(t, err)

	w = do(r, http.MethodGet, "/api/tasks/export?status=completed", nil)
	rows, err = csv.NewReader(strings.NewReader(w.Body.String())).ReadAll()
	require.NoError(t, err)
	assert.Len(t, rows, 2)

	w = do(r, http.MethodGet, "/api/tasks/export?status=nope", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.NotEmpty(t, decode[dto.ErrorResponse](t, w).Message)
}

func TestTaskHandler_Comments(t *testing.T) {
	r := newTestRouter(t)
	task := createTask(t, r, map[string]any{"title": "Chatty"})

	w := do(r, http.MethodGet, "/api/tasks/"+task.ID+"/comments", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `[]`, w.Body.String())

	w = do(r, http.MethodPost, "/api/tasks/"+task.ID+"/comments", map[string]any{"message": "  hi  "})
	require.Equal(t, http.StatusCreated, w.Code)
	assert.Equal(t, "hi", decode[dto.Comment](t, w).Message)

	for _, body := range []any{map[string]any{}, map[string]any{"message": 1}, map[string]any{"message": " "}} {
		w = do(r, http.MethodPost, "/api/tasks/"+task.ID+"/comments", body)
		assert.Equal(t, http.StatusBadRequest, w.Code)
	}

	w = do(r, http.MethodGet, "/api/tasks/not-a-valid-objectid/comments", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "Invalid task id", decode[dto.ErrorResponse](t, w).Message)
}
