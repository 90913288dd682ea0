package dto

import "time"

// Task statuses accepted by the task API.
const (
	StatusPending    = "pending"
	StatusInProgress = "in-progress"
	StatusCompleted  = "completed"
)

// Statuses lists every valid status in workflow order.
var Statuses = []string{StatusPending, StatusInProgress, StatusCompleted}

// ValidStatus reports whether s is one of Statuses.
func ValidStatus(s string) bool {
	for _, status := range Statuses {
		if s == status {
			return true
		}
	}
	return false
}

// Task is the wire representation of a task.
type Task struct {
	ID          string     `json:"_id"`
	Title       string     `json:"title"`
	Description string     `json:"description"`
	Status      string     `json:"status"`
	Labels      []string   `json:"labels"`
	Archived    bool       `json:"archived"`
	ArchivedAt  *time.Time `json:"archivedAt"`
	DueDate     *time.Time `json:"dueDate"`
	Comments    []Comment  `json:"comments"`
	CreatedAt   time.Time  `json:"createdAt"`
	UpdatedAt   time.Time  `json:"updatedAt"`
}

// TaskInput is the body of create and update requests. Pointer fields
// distinguish "absent" from "empty" on updates.
type TaskInput struct {
	Title       *string  `json:"title,omitempty"`
	Description *string  `json:"description,omitempty"`
	Status      *string  `json:"status,omitempty"`
	Labels      []string `json:"labels,omitempty"`
	DueDate     *string  `json:"dueDate,omitempty"`
}

type Comment struct {
	ID        string    `json:"_id"`
	Message   string    `json:"message"`
	CreatedAt time.Time `json:"createdAt"`
}

// TaskStats aggregates non-archived tasks by status.
type TaskStats struct {
	Total    int            `json:"total"`
	ByStatus map[string]int `json:"byStatus"`
	Archived int            `json:"archived"`
	Overdue  int            `json:"overdue"`
}

type BulkCreateRequest struct {
	Tasks []TaskInput `json:"tasks"`
}

type BulkCreateResponse struct {
	Created int    `json:"created"`
	Tasks   []Task `json:"tasks"`
}

// BulkError points at the offending item of a rejected bulk import.
type BulkError struct {
	Index   int    `json:"index"`
	Message string `json:"message"`
}

// CSVHeader is the exact header row of GET /api/tasks/export.
var CSVHeader = []string{"id", "title", "description", "status", "createdAt", "updatedAt"}

// MessageResponse is the body of successful deletes.
type MessageResponse struct {
	Message string `json:"message"`
}
