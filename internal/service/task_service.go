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
)

// MaxBulkTasks bounds a single bulk import.
const MaxBulkTasks = 100

var statusList = strings.Join(dto.Statuses, ", ")

// taskService implements TaskService interface
type taskService struct {
	taskRepo repository.TaskRepository
	logger   *zap.Logger
	now      func() time.Time
}

// NewTaskService creates a new task service
func NewTaskService(taskRepo repository.TaskRepository, logger *zap.Logger) TaskService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &taskService{
		taskRepo: taskRepo,
		logger:   logger,
		now:      time.Now,
	}
}

func (s *taskService) Create(ctx context.Context, in CreateTaskInput) (*domain.Task, error) {
	task, err := newTask(in)
	if err != nil {
		return nil, err
	}

	if err := s.taskRepo.Create(ctx, task); err != nil {
		return nil, fmt.Errorf("failed to create task: %w", err)
	}

	s.logger.Debug("Task created", zap.String("task_id", task.ID))
	return task, nil
}

// BulkCreate validates every item first and stores either all of them or none.
func (s *taskService) BulkCreate(ctx context.Context, in []CreateTaskInput) ([]*domain.Task, error) {
	if len(in) == 0 {
		return nil, Invalid("tasks", "tasks must be a non-empty array")
	}
	if len(in) > MaxBulkTasks {
		return nil, Invalid("tasks", "at most %d tasks can be imported at once", MaxBulkTasks)
	}

	tasks := make([]*domain.Task, 0, len(in))
	var bulkErr BulkValidationError
	for i, item := range in {
		task, err := newTask(item)
		if err != nil {
			bulkErr.Errors = append(bulkErr.Errors, dto.BulkError{Index: i, Message: err.Error()})
			continue
		}
		tasks = append(tasks, task)
	}
	if len(bulkErr.Errors) > 0 {
		return nil, &bulkErr
	}

	if err := s.taskRepo.Create(ctx, tasks...); err != nil {
		return nil, fmt.Errorf("failed to import tasks: %w", err)
	}

	s.logger.Info("Tasks imported", zap.Int("count", len(tasks)))
	return tasks, nil
}

func (s *taskService) Get(ctx context.Context, id string) (*domain.Task, error) {
	if !repository.IsObjectID(id) {
		return nil, ErrInvalidTaskID
	}

	task, err := s.taskRepo.GetByID(ctx, id)
	if err != nil {
		return nil, mapRepoError(err)
	}
	return task, nil
}

func (s *taskService) List(ctx context.Context, filter repository.TaskFilter) ([]*domain.Task, error) {
	if filter.Status != "" && !domain.ValidStatus(filter.Status) {
		return nil, Invalid("status", "status must be one of %s", statusList)
	}
	filter.Label = strings.ToLower(strings.TrimSpace(filter.Label))

	return s.taskRepo.List(ctx, filter)
}

func (s *taskService) Search(ctx context.Context, q, status string) ([]*domain.Task, error) {
	q = strings.TrimSpace(q)
	if q == "" {
		return nil, Invalid("q", "query parameter q is required")
	}
	return s.List(ctx, repository.TaskFilter{Query: q, Status: status})
}

// Update replaces the given fields. A status change follows the same
// transition rules as SetStatus.
func (s *taskService) Update(ctx context.Context, id string, in UpdateTaskInput) (*domain.Task, error) {
	if !repository.IsObjectID(id) {
		return nil, ErrInvalidTaskID
	}

	var title string
	if in.Title != nil {
		var err error
		if title, err = validateTitle(*in.Title); err != nil {
			return nil, err
		}
	}
	if in.Status != nil && !domain.ValidStatus(*in.Status) {
		return nil, Invalid("status", "status must be one of %s", statusList)
	}
	var labels []string
	if in.Labels != nil {
		var err error
		if labels, err = validateLabels(*in.Labels); err != nil {
			return nil, err
		}
	}

	return s.update(ctx, id, func(task *domain.Task) error {
		if in.Status != nil {
			if !domain.CanTransition(task.Status, *in.Status) {
				return &TransitionError{From: task.Status, To: *in.Status}
			}
			task.Status = *in.Status
		}
		if in.Title != nil {
			task.Title = title
		}
		if in.Description != nil {
			task.Description = *in.Description
		}
		if in.Labels != nil {
			task.Labels = labels
		}
		return nil
	})
}

func (s *taskService) Delete(ctx context.Context, id string) error {
	if !repository.IsObjectID(id) {
		return ErrInvalidTaskID
	}

	if err := s.taskRepo.Delete(ctx, id); err != nil {
		return mapRepoError(err)
	}

	s.logger.Debug("Task deleted", zap.String("task_id", id))
	return nil
}

func (s *taskService) SetStatus(ctx context.Context, id, status string) (*domain.Task, error) {
	if !repository.IsObjectID(id) {
		return nil, ErrInvalidTaskID
	}
	if !domain.ValidStatus(status) {
		return nil, Invalid("status", "status must be one of %s", statusList)
	}

	return s.update(ctx, id, func(task *domain.Task) error {
		if !domain.CanTransition(task.Status, status) {
			return &TransitionError{From: task.Status, To: status}
		}
		task.Status = status
		return nil
	})
}

// SetArchived toggles the archived flag; ArchivedAt tracks when it was set.
func (s *taskService) SetArchived(ctx context.Context, id string, archived bool) (*domain.Task, error) {
	if !repository.IsObjectID(id) {
		return nil, ErrInvalidTaskID
	}

	return s.update(ctx, id, func(task *domain.Task) error {
		if task.Archived == archived {
			return nil
		}
		task.Archived = archived
		if archived {
			at := s.now().UTC()
			task.ArchivedAt = &at
		} else {
			task.ArchivedAt = nil
		}
		return nil
	})
}

// SetDueDate stores due, or clears the date when due is nil.
func (s *taskService) SetDueDate(ctx context.Context, id string, due *time.Time) (*domain.Task, error) {
	if !repository.IsObjectID(id) {
		return nil, ErrInvalidTaskID
	}

	return s.update(ctx, id, func(task *domain.Task) error {
		if due == nil {
			task.DueDate = nil
			return nil
		}
		d := due.UTC()
		task.DueDate = &d
		return nil
	})
}

func (s *taskService) SetLabels(ctx context.Context, id string, labels []string) (*domain.Task, error) {
	if !repository.IsObjectID(id) {
		return nil, ErrInvalidTaskID
	}
	normalized, err := validateLabels(labels)
	if err != nil {
		return nil, err
	}

	return s.update(ctx, id, func(task *domain.Task) error {
		task.Labels = normalized
		return nil
	})
}

func (s *taskService) AddComment(ctx context.Context, id, message string) (*domain.Comment, error) {
	if !repository.IsObjectID(id) {
		return nil, ErrInvalidTaskID
	}
	message = strings.TrimSpace(message)
	if message == "" {
		return nil, Invalid("message", "message is required")
	}
	if len([]rune(message)) > domain.MaxCommentSize {
		return nil, Invalid("message", "message must be at most %d characters", domain.MaxCommentSize)
	}

	comment := domain.Comment{
		ID:        repository.NewObjectID(),
		Message:   message,
		CreatedAt: s.now().UTC(),
	}
	if _, err := s.update(ctx, id, func(task *domain.Task) error {
		task.Comments = append(task.Comments, comment)
		return nil
	}); err != nil {
		return nil, err
	}

	return &comment, nil
}

// Comments returns the comments of a task, oldest first.
func (s *taskService) Comments(ctx context.Context, id string) ([]domain.Comment, error) {
	task, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if task.Comments == nil {
		return []domain.Comment{}, nil
	}
	return task.Comments, nil
}

func (s *taskService) Overdue(ctx context.Context) ([]*domain.Task, error) {
	tasks, err := s.taskRepo.List(ctx, repository.TaskFilter{})
	if err != nil {
		return nil, err
	}

	now := s.now()
	overdue := make([]*domain.Task, 0)
	for _, task := range tasks {
		if task.IsOverdue(now) {
			overdue = append(overdue, task)
		}
	}
	return overdue, nil
}

// Stats counts non-archived tasks per status. Archived tasks are only
// reported in the Archived total.
func (s *taskService) Stats(ctx context.Context) (*dto.TaskStats, error) {
	tasks, err := s.taskRepo.List(ctx, repository.TaskFilter{IncludeArchived: true})
	if err != nil {
		return nil, err
	}

	stats := &dto.TaskStats{ByStatus: make(map[string]int, len(dto.Statuses))}
	for _, status := range dto.Statuses {
		stats.ByStatus[status] = 0
	}

	now := s.now()
	for _, task := range tasks {
		if task.Archived {
			stats.Archived++
			continue
		}
		stats.Total++
		stats.ByStatus[task.Status]++
		if task.IsOverdue(now) {
			stats.Overdue++
		}
	}
	return stats, nil
}

func (s *taskService) update(ctx context.Context, id string, fn func(*domain.Task) error) (*domain.Task, error) {
	task, err := s.taskRepo.Update(ctx, id, fn)
	if err != nil {
		return nil, mapRepoError(err)
	}
	return task, nil
}

// ValidateCreateInput reports the first problem with in, if any.
func ValidateCreateInput(in CreateTaskInput) error {
	_, err := newTask(in)
	return err
}

func newTask(in CreateTaskInput) (*domain.Task, error) {
	title, err := validateTitle(in.Title)
	if err != nil {
		return nil, err
	}

	status := in.Status
	if status == "" {
		status = domain.StatusPending
	}
	if !domain.ValidStatus(status) {
		return nil, Invalid("status", "status must be one of %s", statusList)
	}

	labels, err := validateLabels(in.Labels)
	if err != nil {
		return nil, err
	}

	task := &domain.Task{
		Title:       title,
		Description: in.Description,
		Status:      status,
		Labels:      labels,
	}
	if in.DueDate != nil {
		due := in.DueDate.UTC()
		task.DueDate = &due
	}
	return task, nil
}

func validateTitle(title string) (string, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		return "", Invalid("title", "title is required")
	}
	if len([]rune(title)) > domain.MaxTitleLength {
		return "", Invalid("title", "title must be at most %d characters", domain.MaxTitleLength)
	}
	return title, nil
}

func validateLabels(labels []string) ([]string, error) {
	normalized := domain.NormalizeLabels(labels)
	if len(normalized) > domain.MaxLabels {
		return nil, Invalid("labels", "at most %d labels are allowed", domain.MaxLabels)
	}
	return normalized, nil
}

// mapRepoError passes through errors the service raised inside an update
// callback and translates storage errors.
func mapRepoError(err error) error {
	switch {
	case errors.Is(err, repository.ErrNotFound):
		return ErrTaskNotFound
	default:
		return err
	}
}
