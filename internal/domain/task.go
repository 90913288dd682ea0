package domain

import (
	"slices"
	"strings"
	"time"
)

// Task statuses
const (
	StatusPending    = "pending"
	StatusInProgress = "in-progress"
	StatusCompleted  = "completed"
)

const (
	MaxLabels      = 20
	MaxTitleLength = 200
	MaxCommentSize = 1000
)

// Task is a task as held by the sandbox store.
type Task struct {
	ID          string
	Title       string
	Description string
	Status      string
	Labels      []string
	Archived    bool
	ArchivedAt  *time.Time
	DueDate     *time.Time
	Comments    []Comment
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

type Comment struct {
	ID        string
	Message   string
	CreatedAt time.Time
}

func ValidStatus(status string) bool {
	switch status {
	case StatusPending, StatusInProgress, StatusCompleted:
		return true
	}
	return false
}

// CanTransition reports whether a task may move from one status to another.
// Completed is terminal; staying in the same status is always allowed.
func CanTransition(from, to string) bool {
	if from == to {
		return true
	}
	return from != StatusCompleted
}

// IsOverdue reports whether an open, unarchived task is past its due date.
func (t *Task) IsOverdue(now time.Time) bool {
	return t.DueDate != nil && t.DueDate.Before(now) && !t.Archived && t.Status != StatusCompleted
}

// Matches reports whether q occurs in the title or description, ignoring case.
func (t *Task) Matches(q string) bool {
	q = strings.ToLower(q)
	return strings.Contains(strings.ToLower(t.Title), q) ||
		strings.Contains(strings.ToLower(t.Description), q)
}

func (t *Task) HasLabel(label string) bool {
	return slices.Contains(t.Labels, label)
}

// Clone returns a deep copy so callers never share slices with the store.
func (t *Task) Clone() *Task {
	c := *t
	c.Labels = slices.Clone(t.Labels)
	c.Comments = slices.Clone(t.Comments)
	if t.ArchivedAt != nil {
		at := *t.ArchivedAt
		c.ArchivedAt = &at
	}
	if t.DueDate != nil {
		due := *t.DueDate
		c.DueDate = &due
	}
	return &c
}

// NormalizeLabels trims, lower-cases and deduplicates labels, dropping
// empty entries and keeping first-seen order.
func NormalizeLabels(labels []string) []string {
	out := make([]string, 0, len(labels))
	for _, l := range labels {
		l = strings.ToLower(strings.TrimSpace(l))
		if l == "" || slices.Contains(out, l) {
			continue
		}
		out = append(out, l)
	}
	return out
}
