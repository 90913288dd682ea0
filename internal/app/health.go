package app

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/artasyaskar/puzzleverse-mern/internal/dto"
	"github.com/artasyaskar/puzzleverse-mern/internal/repository"
	"github.com/artasyaskar/puzzleverse-mern/pkg/database"
)

const healthCheckTimeout = 2 * time.Second

// HealthChecker backs GET /api/health. The task store must answer and,
// when configured, so must Redis.
type HealthChecker struct {
	tasks repository.TaskRepository
	redis *database.Redis
}

func NewHealthChecker(tasks repository.TaskRepository, redis *database.Redis) *HealthChecker {
	return &HealthChecker{
		tasks: tasks,
		redis: redis,
	}
}

func (h *HealthChecker) check(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, healthCheckTimeout)
	defer cancel()

	_, err := h.tasks.Count(ctx)
	if h.redis == nil {
		return err
	}
	return errors.Join(err, h.redis.Ping(ctx))
}

func (h *HealthChecker) Handler(c *gin.Context) {
	if err := h.check(c.Request.Context()); err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"status": "fail",
			"error":  err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, dto.HealthResponse{Status: "ok"})
}
