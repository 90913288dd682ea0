package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/artasyaskar/puzzleverse-mern/internal/dto"
	"github.com/artasyaskar/puzzleverse-mern/internal/service"
)

// authError writes the {"error": ...} body used by the auth routes.
func authError(c *gin.Context, status int, msg string) {
	c.JSON(status, dto.ErrorResponse{Error: msg})
}

// taskError writes the {"message": ...} body used by the task routes.
func taskError(c *gin.Context, status int, msg string) {
	c.JSON(status, dto.ErrorResponse{Message: msg})
}

// respondTaskError maps service errors onto task route responses.
func respondTaskError(c *gin.Context, logger *zap.Logger, err error) {
	var (
		verr *service.ValidationError
		terr *service.TransitionError
		berr *service.BulkValidationError
	)

	switch {
	case errors.As(err, &verr):
		taskError(c, http.StatusBadRequest, verr.Message)
	case errors.As(err, &berr):
		c.JSON(http.StatusBadRequest, dto.ErrorResponse{
			Message: "Bulk import rejected",
			Errors:  berr.Errors,
		})
	case errors.Is(err, service.ErrInvalidTaskID):
		taskError(c, http.StatusBadRequest, "Invalid task id")
	case errors.Is(err, service.ErrTaskNotFound):
		taskError(c, http.StatusNotFound, "Task not found")
	case errors.As(err, &terr):
		taskError(c, http.StatusConflict, terr.Error())
	default:
		logger.Error("Task request failed",
			zap.Error(err),
			zap.String("request_id", c.GetString(requestIDContext)),
		)
		_ = c.Error(err)
		taskError(c, http.StatusInternalServerError, "Internal server error")
	}
}

// NotFound answers unknown routes.
func NotFound(c *gin.Context) {
	taskError(c, http.StatusNotFound, "Not found")
}
