package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestCanTransition(t *testing.T) {
	tests := []struct {
		from, to string
		want     bool
	}{
		{StatusPending, StatusInProgress, true},
		{StatusPending, StatusCompleted, true},
		{StatusInProgress, StatusCompleted, true},
		{StatusInProgress, StatusPending, true},
		{StatusCompleted, StatusCompleted, true},
		{StatusCompleted, StatusPending, false},
		{StatusCompleted, StatusInProgress, false},
	}

	for _, tt := range tests {
		t.Run(tt.from+"->"+tt.to, func(t *testing.T) {
			assert.Equal(t, tt.want, CanTransition(tt.from, tt.to))
		})
	}
}

func TestNormalizeLabels(t *testing.T) {
	assert.Equal(t, []string{"qa", "backend"}, NormalizeLabels([]string{"  QA ", "qa", "Backend", ""}))
	assert.Equal(t, []string{}, NormalizeLabels(nil))
}

func TestIsOverdue(t *testing.T) {
	now := time.Now()
	past := now.Add(-time.Hour)
	future := now.Add(time.Hour)

	assert.True(t, (&Task{Status: StatusPending, DueDate: &past}).IsOverdue(now))
	assert.False(t, (&Task{Status: StatusPending, DueDate: &future}).IsOverdue(now))
	assert.False(t, (&Task{Status: StatusPending}).IsOverdue(now))
	assert.False(t, (&Task{Status: StatusCompleted, DueDate: &past}).IsOverdue(now))
	assert.False(t, (&Task{Status: StatusPending, DueDate: &past, Archived: true}).IsOverdue(now))
}

func TestTaskMatchesIgnoresCase(t *testing.T) {
	task := &Task{Title: "Fix the Login page", Description: "Reported by QA"}

	assert.True(t, task.Matches("login"))
	assert.True(t, task.Matches("qa"))
	assert.False(t, task.Matches("signup"))
}

func TestCloneDoesNotShareState(t *testing.T) {
	due := time.Now()
	task := &Task{Labels: []string{"a"}, DueDate: &due}

	c := task.Clone()
	c.Labels[0] = "b"
	*c.DueDate = due.Add(time.Hour)

	assert.Equal(t, "a", task.Labels[0])
	assert.True(t, task.DueDate.Equal(due))
}
