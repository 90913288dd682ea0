package repository

import (
	"context"
	"sync"
	"time"

	"github.com/artasyaskar/puzzleverse-mern/internal/domain"
)

// taskRepository implements TaskRepository in memory. Tasks are kept in
// insertion order; List walks the slice backwards for newest-first output.
type taskRepository struct {
	mu    sync.RWMutex
	order []string
	byID  map[string]*domain.Task
}

// NewTaskRepository creates a new task repository
func NewTaskRepository() TaskRepository {
	return &taskRepository{byID: make(map[string]*domain.Task)}
}

// Create stores all tasks or none of them
func (r *taskRepository) Create(ctx context.Context, tasks ...*domain.Task) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	now := time.Now()
	for _, task := range tasks {
		if task.ID == "" {
			task.ID = NewObjectID()
		}
		if task.CreatedAt.IsZero() {
			task.CreatedAt = now
		}
		task.UpdatedAt = task.CreatedAt
		if task.Labels == nil {
			task.Labels = []string{}
		}
		if task.Comments == nil {
			task.Comments = []domain.Comment{}
		}
	}
	for _, task := range tasks {
		r.byID[task.ID] = task.Clone()
		r.order = append(r.order, task.ID)
	}
	return nil
}

func (r *taskRepository) GetByID(ctx context.Context, id string) (*domain.Task, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	task, ok := r.byID[id]
	if !ok {
		return nil, ErrNotFound
	}
	return task.Clone(), nil
}

func (r *taskRepository) List(ctx context.Context, filter TaskFilter) ([]*domain.Task, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	tasks := make([]*domain.Task, 0, len(r.order))
	for i := len(r.order) - 1; i >= 0; i-- {
		task := r.byID[r.order[i]]
		if task.Archived && !filter.IncludeArchived {
			continue
		}
		if filter.Status != "" && task.Status != filter.Status {
			continue
		}
		if filter.Label != "" && !task.HasLabel(filter.Label) {
			continue
		}
		if filter.Query != "" && !task.Matches(filter.Query) {
			continue
		}
		tasks = append(tasks, task.Clone())
	}
	return tasks, nil
}

func (r *taskRepository) Update(ctx context.Context, id string, fn func(*domain.Task) error) (*domain.Task, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	stored, ok := r.byID[id]
	if !ok {
		return nil, ErrNotFound
	}

	draft := stored.Clone()
	if err := fn(draft); err != nil {
		return nil, err
	}
	draft.ID = stored.ID
	draft.CreatedAt = stored.CreatedAt
	draft.UpdatedAt = time.Now()

	r.byID[id] = draft
	return draft.Clone(), nil
}

func (r *taskRepository) Delete(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.byID[id]; !ok {
		return ErrNotFound
	}
	delete(r.byID, id)
	for i, existing := range r.order {
		if existing == id {
			r.order = append(r.order[:i], r.order[i+1:]...)
			break
		}
	}
	return nil
}

func (r *taskRepository) Count(ctx context.Context) (int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.byID), nil
}
