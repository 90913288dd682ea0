package handler

import (
	"encoding/csv"
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/artasyaskar/puzzleverse-mern/internal/domain"
	"github.com/artasyaskar/puzzleverse-mern/internal/dto"
	"github.com/artasyaskar/puzzleverse-mern/internal/repository"
	"github.com/artasyaskar/puzzleverse-mern/internal/service"
)

const csvTimeLayout = "2006-01-02T15:04:05.000Z"

// TaskHandler handles task requests
type TaskHandler struct {
	taskService service.TaskService
	logger      *zap.Logger
}

// NewTaskHandler creates a new task handler
func NewTaskHandler(taskService service.TaskService, logger *zap.Logger) *TaskHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &TaskHandler{
		taskService: taskService,
		logger:      logger,
	}
}

// List handles GET /api/tasks?status=&label=&includeArchived=
func (h *TaskHandler) List(c *gin.Context) {
	tasks, err := h.taskService.List(c.Request.Context(), repository.TaskFilter{
		Status:          c.Query("status"),
		Label:           c.Query("label"),
		IncludeArchived: queryBool(c, "includeArchived"),
	})
	if err != nil {
		h.fail(c, err)
		return
	}

	c.JSON(http.StatusOK, toTaskList(tasks))
}

func (h *TaskHandler) Create(c *gin.Context) {
	p, err := bindPayload(c)
	if err != nil {
		h.fail(c, err)
		return
	}
	in, err := p.createInput()
	if err != nil {
		h.fail(c, err)
		return
	}

	task, err := h.taskService.Create(c.Request.Context(), in)
	if err != nil {
		h.fail(c, err)
		return
	}

	c.JSON(http.StatusCreated, toTask(task))
}

// BulkCreate handles POST /api/tasks/bulk. Either every item is created or
// none is, and every rejected item is reported by index.
func (h *TaskHandler) BulkCreate(c *gin.Context) {
	p, err := bindPayload(c)
	if err != nil {
		h.fail(c, err)
		return
	}

	var items []json.RawMessage
	if raw, ok := p["tasks"]; !ok || json.Unmarshal(raw, &items) != nil || len(items) == 0 {
		h.fail(c, service.Invalid("tasks", "tasks must be a non-empty array"))
		return
	}

	inputs := make([]service.CreateTaskInput, 0, len(items))
	var bulkErr service.BulkValidationError
	for i, raw := range items {
		item, err := parsePayload(raw)
		if err != nil {
			bulkErr.Errors = append(bulkErr.Errors, dto.BulkError{Index: i, Message: "task must be a JSON object"})
			continue
		}
		in, err := item.createInput()
		if err == nil {
			err = service.ValidateCreateInput(in)
		}
		if err != nil {
			bulkErr.Errors = append(bulkErr.Errors, dto.BulkError{Index: i, Message: err.Error()})
			continue
		}
		inputs = append(inputs, in)
	}
	if len(bulkErr.Errors) > 0 {
		h.fail(c, &bulkErr)
		return
	}

	tasks, err := h.taskService.BulkCreate(c.Request.Context(), inputs)
	if err != nil {
		h.fail(c, err)
		return
	}

	c.JSON(http.StatusCreated, dto.BulkCreateResponse{
		Created: len(tasks),
		Tasks:   toTaskList(tasks),
	})
}

func (h *TaskHandler) Get(c *gin.Context) {
	task, err := h.taskService.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.fail(c, err)
		return
	}

	c.JSON(http.StatusOK, toTask(task))
}

func (h *TaskHandler) Update(c *gin.Context) {
	p, err := bindPayload(c)
	if err != nil {
		h.fail(c, err)
		return
	}
	in, err := p.updateInput()
	if err != nil {
		h.fail(c, err)
		return
	}

	task, err := h.taskService.Update(c.Request.Context(), c.Param("id"), in)
	if err != nil {
		h.fail(c, err)
		return
	}

	c.JSON(http.StatusOK, toTask(task))
}

func (h *TaskHandler) Delete(c *gin.Context) {
	if err := h.taskService.Delete(c.Request.Context(), c.Param("id")); err != nil {
		h.fail(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.MessageResponse{Message: "Task deleted"})
}

// Search handles GET /api/tasks/search?q=&status=
func (h *TaskHandler) Search(c *gin.Context) {
	tasks, err := h.taskService.Search(c.Request.Context(), c.Query("q"), c.Query("status"))
	if err != nil {
		h.fail(c, err)
		return
	}

	c.JSON(http.StatusOK, toTaskList(tasks))
}

func (h *TaskHandler) Stats(c *gin.Context) {
	stats, err := h.taskService.Stats(c.Request.Context())
	if err != nil {
		h.fail(c, err)
		return
	}

	c.JSON(http.StatusOK, stats)
}

func (h *TaskHandler) Overdue(c *gin.Context) {
	tasks, err := h.taskService.Overdue(c.Request.Context())
	if err != nil {
		h.fail(c, err)
		return
	}

	c.JSON(http.StatusOK, toTaskList(tasks))
}

// Export streams non-archived tasks as CSV, optionally filtered by status.
func (h *TaskHandler) Export(c *gin.Context) {
	tasks, err := h.taskService.List(c.Request.Context(), repository.TaskFilter{Status: c.Query("status")})
	if err != nil {
		h.fail(c, err)
		return
	}

	c.Header("Content-Type", "text/csv; charset=utf-8")
	c.Header("Content-Disposition", `attachment; filename="tasks.csv"`)
	c.Status(http.StatusOK)

	w := csv.NewWriter(c.Writer)
	_ = w.Write(dto.CSVHeader)
	for _, task := range tasks {
		_ = w.Write([]string{
			task.ID,
			task.Title,
			task.Description,
			task.Status,
			task.CreatedAt.UTC().Format(csvTimeLayout),
			task.UpdatedAt.UTC().Format(csvTimeLayout),
		})
	}
	w.Flush()
	if err := w.Error(); err != nil {
		h.logger.Warn("CSV export interrupted", zap.Error(err))
	}
}

func (h *TaskHandler) SetStatus(c *gin.Context) {
	p, err := bindPayload(c)
	if err != nil {
		h.fail(c, err)
		return
	}
	status, err := p.string("status")
	if err != nil {
		h.fail(c, err)
		return
	}
	if status == nil {
		h.fail(c, service.Invalid("status", "status is required"))
		return
	}

	task, err := h.taskService.SetStatus(c.Request.Context(), c.Param("id"), *status)
	if err != nil {
		h.fail(c, err)
		return
	}

	c.JSON(http.StatusOK, toTask(task))
}

func (h *TaskHandler) SetArchived(c *gin.Context) {
	p, err := bindPayload(c)
	if err != nil {
		h.fail(c, err)
		return
	}
	archived, err := p.bool("archived")
	if err != nil {
		h.fail(c, err)
		return
	}

	task, err := h.taskService.SetArchived(c.Request.Context(), c.Param("id"), archived)
	if err != nil {
		h.fail(c, err)
		return
	}

	c.JSON(http.StatusOK, toTask(task))
}

// SetDueDate handles PATCH /api/tasks/:id/due-date; "dueDate": null clears it.
func (h *TaskHandler) SetDueDate(c *gin.Context) {
	p, err := bindPayload(c)
	if err != nil {
		h.fail(c, err)
		return
	}
	if !p.has("dueDate") {
		h.fail(c, service.Invalid("dueDate", "dueDate is required"))
		return
	}
	due, err := p.date("dueDate")
	if err != nil {
		h.fail(c, err)
		return
	}

	task, err := h.taskService.SetDueDate(c.Request.Context(), c.Param("id"), due)
	if err != nil {
		h.fail(c, err)
		return
	}

	c.JSON(http.StatusOK, toTask(task))
}

func (h *TaskHandler) SetLabels(c *gin.Context) {
	p, err := bindPayload(c)
	if err != nil {
		h.fail(c, err)
		return
	}
	labels, err := p.stringSlice("labels")
	if err != nil {
		h.fail(c, err)
		return
	}
	if labels == nil {
		h.fail(c, service.Invalid("labels", "labels is required"))
		return
	}

	task, err := h.taskService.SetLabels(c.Request.Context(), c.Param("id"), *labels)
	if err != nil {
		h.fail(c, err)
		return
	}

	c.JSON(http.StatusOK, toTask(task))
}

func (h *TaskHandler) AddComment(c *gin.Context) {
	p, err := bindPayload(c)
	if err != nil {
		h.fail(c, err)
		return
	}
	message, err := p.string("message")
	if err != nil {
		h.fail(c, err)
		return
	}
	if message == nil {
		h.fail(c, service.Invalid("message", "message is required"))
		return
	}

	comment, err := h.taskService.AddComment(c.Request.Context(), c.Param("id"), *message)
	if err != nil {
		h.fail(c, err)
		return
	}

	c.JSON(http.StatusCreated, toComment(*comment))
}

func (h *TaskHandler) Comments(c *gin.Context) {
	comments, err := h.taskService.Comments(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.fail(c, err)
		return
	}

	out := make([]dto.Comment, 0, len(comments))
	for _, comment := range comments {
		out = append(out, toComment(comment))
	}
	c.JSON(http.StatusOK, out)
}

func (h *TaskHandler) fail(c *gin.Context, err error) {
	respondTaskError(c, h.logger, err)
}

func queryBool(c *gin.Context, key string) bool {
	b, _ := strconv.ParseBool(c.Query(key))
	return b
}

func toTask(t *domain.Task) dto.Task {
	out := dto.Task{
		ID:          t.ID,
		Title:       t.Title,
		Description: t.Description,
		Status:      t.Status,
		Labels:      t.Labels,
		Archived:    t.Archived,
		ArchivedAt:  t.ArchivedAt,
		DueDate:     t.DueDate,
		Comments:    make([]dto.Comment, 0, len(t.Comments)),
		CreatedAt:   t.CreatedAt.UTC(),
		UpdatedAt:   t.UpdatedAt.UTC(),
	}
	if out.Labels == nil {
		out.Labels = []string{}
	}
	for _, comment := range t.Comments {
		out.Comments = append(out.Comments, toComment(comment))
	}
	return out
}

func toTaskList(tasks []*domain.Task) []dto.Task {
	out := make([]dto.Task, 0, len(tasks))
	for _, t := range tasks {
		out = append(out, toTask(t))
	}
	return out
}

func toComment(c domain.Comment) dto.Comment {
	return dto.Comment{
		ID:        c.ID,
		Message:   c.Message,
		CreatedAt: c.CreatedAt.UTC(),
	}
}
