// Package app wires the sandbox API: an in-memory implementation of the task
// API and the auth gateway behind one gin router. The probe suites run
// against it in tests and through "puzzlectl sandbox".
package app

import (
	"context"
	"errors"
	"net"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"go.uber.org/zap"

	"github.com/artasyaskar/puzzleverse-mern/internal/config"
	"github.com/artasyaskar/puzzleverse-mern/internal/handler"
	"github.com/artasyaskar/puzzleverse-mern/internal/repository"
	"github.com/artasyaskar/puzzleverse-mern/internal/service"
	"github.com/artasyaskar/puzzleverse-mern/internal/utils"
	"github.com/artasyaskar/puzzleverse-mern/pkg/observability"
)

const (
	shutdownTimeout = 5 * time.Second
	serviceName     = "puzzleverse-sandbox"
)

type App struct {
	infra  Infrastructure
	config *config.Config
	router *gin.Engine
	server *http.Server
}

func NewApp(infra Infrastructure, cfg *config.Config) *App {
	repos := repository.NewRepositories()

	jwtManager := utils.NewJWTManager(
		cfg.Sandbox.JWTSecret,
		cfg.Sandbox.AccessTokenTTL.Duration,
		cfg.Sandbox.RefreshTokenTTL.Duration,
	)

	var loginLimiter service.LoginAttempts = service.NewLoginLimiter(cfg.Sandbox.LoginMaxFails, cfg.Sandbox.LoginWindow.Duration)
	if redis := infra.Redis(); redis != nil {
		loginLimiter = service.NewRedisLoginLimiter(redis, cfg.Sandbox.LoginMaxFails, cfg.Sandbox.LoginWindow.Duration)
	}
	healthChecker := NewHealthChecker(repos.Task, infra.Redis())

	authService := service.NewAuthService(
		repos.User,
		repos.Token,
		jwtManager,
		cfg.Sandbox.BCryptCost,
		infra.Logger(),
	)
	taskService := service.NewTaskService(repos.Task, infra.Logger())

	authHandler := handler.NewAuthHandler(authService, loginLimiter, infra.Logger())
	taskHandler := handler.NewTaskHandler(taskService, infra.Logger())

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(otelgin.Middleware(serviceName))
	router.Use(handler.RequestIDMiddleware())
	router.Use(handler.LoggerMiddleware(infra.Logger()))
	router.Use(handler.SecurityHeadersMiddleware())
	router.Use(handler.CORSMiddleware(handler.DefaultAllowedMethods, handler.DefaultAllowedHeaders))

	loginGuard := handler.LoginRateLimitMiddleware(loginLimiter, infra.Logger())
	setupRoutes(router, authHandler, taskHandler, authService, loginGuard, healthChecker, infra.MetricsHandler())

	srv := &http.Server{
		Addr:              cfg.Sandbox.Addr,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
	}

	return &App{
		infra:  infra,
		config: cfg,
		router: router,
		server: srv,
	}
}

func (a *App) Router() *gin.Engine {
	return a.router
}

func setupRoutes(
	router *gin.Engine,
	authHandler *handler.AuthHandler,
	taskHandler *handler.TaskHandler,
	authService service.AuthService,
	loginGuard gin.HandlerFunc,
	healthChecker *HealthChecker,
	metricsHandler http.Handler,
) {
	router.GET("/metrics", observability.MetricsRoute(metricsHandler))
	router.NoRoute(handler.NotFound)

	api := router.Group("/api")
	{
		api.GET("/health", healthChecker.Handler)
		api.GET("/me", handler.AuthMiddleware(authService), authHandler.GetMe)

		auth := api.Group("/auth")
		{
			auth.POST("/register", authHandler.Register)
			auth.POST("/login", loginGuard, authHandler.Login)
			auth.POST("/refresh", authHandler.Refresh)
			auth.POST("/logout", authHandler.Logout)
		}

		tasks := api.Group("/tasks")
		{
			tasks.GET("", taskHandler.List)
			tasks.POST("", taskHandler.Create)
			tasks.GET("/stats", taskHandler.Stats)
			tasks.GET("/search", taskHandler.Search)
			tasks.GET("/overdue", taskHandler.Overdue)
			tasks.GET("/export", taskHandler.Export)
			tasks.POST("/bulk", taskHandler.BulkCreate)

			tasks.GET("/:id", taskHandler.Get)
			tasks.PUT("/:id", taskHandler.Update)
			tasks.DELETE("/:id", taskHandler.Delete)
			tasks.PATCH("/:id/status", taskHandler.SetStatus)
			tasks.PATCH("/:id/archive", taskHandler.SetArchived)
			tasks.PATCH("/:id/due-date", taskHandler.SetDueDate)
			tasks.PATCH("/:id/labels", taskHandler.SetLabels)
			tasks.POST("/:id/comments", taskHandler.AddComment)
			tasks.GET("/:id/comments", taskHandler.Comments)
		}
	}
}

// Run serves until ctx is cancelled. ready, if not nil, receives the bound
// address once the listener is open.
func (a *App) Run(ctx context.Context, ready func(addr string)) error {
	ln, err := net.Listen("tcp", a.server.Addr)
	if err != nil {
		return err
	}

	errChan := make(chan error, 1)

	go func() {
		a.infra.Logger().Info("Sandbox starting", zap.String("addr", ln.Addr().String()))

		if err := a.server.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			a.infra.Logger().Error("Server error", zap.Error(err))
			errChan <- err
		}
	}()

	if ready != nil {
		ready(ln.Addr().String())
	}

	var serverErr error
	select {
	case err := <-errChan:
		a.infra.Logger().Error("Sandbox failed", zap.Error(err))
		serverErr = err
	case <-ctx.Done():
		a.infra.Logger().Info("Sandbox stopped by context")
	}

	if err := a.Shutdown(); err != nil {
		if serverErr != nil {
			return errors.Join(serverErr, err)
		}
		return err
	}

	return serverErr
}

// Shutdown stops the HTTP server. Infrastructure is owned by the caller.
func (a *App) Shutdown() error {
	a.infra.Logger().Info("Sandbox shutting down...")

	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := a.server.Shutdown(ctx); err != nil {
		a.infra.Logger().Error("Shutdown failed", zap.Error(err))
		return err
	}

	a.infra.Logger().Info("Sandbox exited successfully")
	return nil
}
