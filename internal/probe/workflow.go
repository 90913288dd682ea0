package probe

import (
	"context"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/artasyaskar/puzzleverse-mern/internal/apiclient"
	"github.com/artasyaskar/puzzleverse-mern/internal/dto"
)

func statusTransitionsSuite() Suite {
	transition := func(from, to string, want int) func(ctx context.Context, t *T, env *Env) {
		return func(ctx context.Context, t *T, env *Env) {
			task := mustCreateTask(ctx, t, env, uniqueTitle(env, "Transition "+from), from)

			resp, err := env.Client.PatchStatus(ctx, task.ID, strPtr(to))
			require.NoError(t, err)
			requireStatus(t, resp, want)
			if want == http.StatusOK {
				assert.Equal(t, to, decodeTask(t, resp).Status)
			} else {
				requireMessage(t, resp)
			}
		}
	}

	return Suite{
		ID:     "status-transitions",
		Title:  "Status transitions",
		Target: TargetBackend,
		Checks: []Check{
			{
				Name:        "pending-to-in-progress",
				Description: "pending tasks can start",
				Run:         transition(dto.StatusPending, dto.StatusInProgress, http.StatusOK),
			},
			{
				Name:        "in-progress-to-completed",
				Description: "in-progress tasks can complete",
				Run:         transition(dto.StatusInProgress, dto.StatusCompleted, http.StatusOK),
			},
			{
				Name:        "completed-is-final",
				Description: "completed tasks cannot move back to pending (409)",
				Run:         transition(dto.StatusCompleted, dto.StatusPending, http.StatusConflict),
			},
			{
				Name:        "invalid-status-value",
				Description: "an unknown status is rejected with 400",
				Run:         transition(dto.StatusPending, "not-a-real-status", http.StatusBadRequest),
			},
			{
				Name:        "invalid-object-id",
				Description: "a malformed id is rejected with 400",
				Run: func(ctx context.Context, t *T, env *Env) {
					resp, err := env.Client.PatchStatus(ctx, invalidObjectID, strPtr(dto.StatusInProgress))
					require.NoError(t, err)
					requireStatus(t, resp, http.StatusBadRequest)
					requireMessage(t, resp)
				},
			},
			{
				Name:        "missing-status-field",
				Description: "a body without status is rejected with 400",
				Run: func(ctx context.Context, t *T, env *Env) {
					task := mustCreateTask(ctx, t, env, uniqueTitle(env, "Missing status field"), "")

					resp, err := env.Client.PatchStatus(ctx, task.ID, nil)
					require.NoError(t, err)
					requireStatus(t, resp, http.StatusBadRequest)
					requireMessage(t, resp)
				},
			},
		},
	}
}

func archiveSuite() Suite {
	archive := func(ctx context.Context, t *T, env *Env, id string, archived any) dto.Task {
		resp, err := env.Client.PatchArchive(ctx, id, archived)
		require.NoError(t, err)
		requireStatus(t, resp, http.StatusOK)
		return decodeTask(t, resp)
	}

	return Suite{
		ID:     "archive",
		Title:  "Archiving",
		Target: TargetBackend,
		Checks: []Check{
			{
				Name:        "archive-hides-task",
				Description: "archiving sets the flags and hides the task from the default list",
				Run: func(ctx context.Context, t *T, env *Env) {
					task := mustCreateTask(ctx, t, env, uniqueTitle(env, "Archive me"), "")

					updated := archive(ctx, t, env, task.ID, true)
					assert.True(t, updated.Archived)
					assert.NotNil(t, updated.ArchivedAt)

					ids := taskIDs(listTasks(ctx, t, env, apiclient.ListOptions{}))
					assert.False(t, ids[task.ID], "archived task is still listed")
				},
			},
			{
				Name:        "include-archived",
				Description: "includeArchived=true lists archived tasks",
				Run: func(ctx context.Context, t *T, env *Env) {
					task := mustCreateTask(ctx, t, env, uniqueTitle(env, "Show in includeArchived"), "")
					archive(ctx, t, env, task.ID, true)

					ids := taskIDs(listTasks(ctx, t, env, apiclient.ListOptions{IncludeArchived: true}))
					assert.True(t, ids[task.ID])
				},
			},
			{
				Name:        "unarchive",
				Description: "archived=false clears the flags and brings the task back",
				Run: func(ctx context.Context, t *T, env *Env) {
					task := mustCreateTask(ctx, t, env, uniqueTitle(env, "Unarchive flow"), "")
					archive(ctx, t, env, task.ID, true)

					updated := archive(ctx, t, env, task.ID, false)
					assert.False(t, updated.Archived)
					assert.Nil(t, updated.ArchivedAt)

					ids := taskIDs(listTasks(ctx, t, env, apiclient.ListOptions{}))
					assert.True(t, ids[task.ID])
				},
			},
			{
				Name:        "archived-must-be-boolean",
				Description: "non-boolean archived values are rejected with 400",
				Run: func(ctx context.Context, t *T, env *Env) {
					task := mustCreateTask(ctx, t, env, uniqueTitle(env, "Invalid archived value"), "")

					for _, value := range []any{"not-a-boolean", 1, nil} {
						resp, err := env.Client.PatchArchive(ctx, task.ID, value)
						require.NoError(t, err)
						requireStatus(t, resp, http.StatusBadRequest)
						requireMessage(t, resp)
					}
				},
			},
			{
				Name:        "invalid-object-id",
				Description: "a malformed id is rejected with 400",
				Run: func(ctx context.Context, t *T, env *Env) {
					resp, err := env.Client.PatchArchive(ctx, invalidObjectID, true)
					require.NoError(t, err)
					requireStatus(t, resp, http.StatusBadRequest)
					requireMessage(t, resp)
				},
			},
			{
				Name:        "nonexistent-task",
				Description: "a well-formed unknown id answers 404",
				Run: func(ctx context.Context, t *T, env *Env) {
					resp, err := env.Client.PatchArchive(ctx, missingTaskID, true)
					require.NoError(t, err)
					requireStatus(t, resp, http.StatusNotFound)
					requireMessage(t, resp)
				},
			},
		},
	}
}

func dueDatesSuite() Suite {
	setDue := func(ctx context.Context, t *T, env *Env, id string, due any) dto.Task {
		resp, err := env.Client.PatchDueDate(ctx, id, due)
		require.NoError(t, err)
		requireStatus(t, resp, http.StatusOK)
		return decodeTask(t, resp)
	}
	overdueIDs := func(ctx context.Context, t *T, env *Env) map[string]bool {
		resp, err := env.Client.Overdue(ctx)
		require.NoError(t, err)
		requireStatus(t, resp, http.StatusOK)
		return taskIDs(decodeTasks(t, resp))
	}
	isoFromNow := func(d time.Duration) string {
		return time.Now().UTC().Add(d).Truncate(time.Second).Format(time.RFC3339)
	}

	return Suite{
		ID:     "due-dates",
		Title:  "Due dates and overdue tasks",
		Target: TargetBackend,
		Checks: []Check{
			{
				Name:        "set-due-date",
				Description: "a valid ISO date is stored",
				Run: func(ctx context.Context, t *T, env *Env) {
					task := mustCreateTask(ctx, t, env, uniqueTitle(env, "Due date"), "")

					updated := setDue(ctx, t, env, task.ID, "2030-01-01T12:00:00.000Z")
					require.NotNil(t, updated.DueDate)
					assert.True(t, updated.DueDate.Equal(time.Date(2030, 1, 1, 12, 0, 0, 0, time.UTC)))
				},
			},
			{
				Name:        "clear-due-date",
				Description: "dueDate=null clears the stored date",
				Run: func(ctx context.Context, t *T, env *Env) {
					task := mustCreateTask(ctx, t, env, uniqueTitle(env, "Clear due date"), "")
					setDue(ctx, t, env, task.ID, "2030-01-01T12:00:00.000Z")

					assert.Nil(t, setDue(ctx, t, env, task.ID, nil).DueDate)
				},
			},
			{
				Name:        "invalid-due-date",
				Description: "an unparseable date is rejected with 400",
				Run: func(ctx context.Context, t *T, env *Env) {
					task := mustCreateTask(ctx, t, env, uniqueTitle(env, "Invalid due date"), "")

					for _, value := range []any{"not-a-real-date", 12345} {
						resp, err := env.Client.PatchDueDate(ctx, task.ID, value)
						require.NoError(t, err)
						requireStatus(t, resp, http.StatusBadRequest)
						requireMessage(t, resp)
					}
				},
			},
			{
				Name:        "invalid-object-id",
				Description: "a malformed id is rejected with 400",
				Run: func(ctx context.Context, t *T, env *Env) {
					resp, err := env.Client.PatchDueDate(ctx, invalidObjectID, "2030-01-01T12:00:00.000Z")
					require.NoError(t, err)
					requireStatus(t, resp, http.StatusBadRequest)
					requireMessage(t, resp)
				},
			},
			{
				Name:        "past-due-is-overdue",
				Description: "a task due yesterday is listed as overdue",
				Run: func(ctx context.Context, t *T, env *Env) {
					task := mustCreateTask(ctx, t, env, uniqueTitle(env, "Overdue"), "")
					setDue(ctx, t, env, task.ID, isoFromNow(-24*time.Hour))

					assert.True(t, overdueIDs(ctx, t, env)[task.ID])
				},
			},
			{
				Name:        "future-due-not-overdue",
				Description: "a task due in two days is not overdue",
				Run: func(ctx context.Context, t *T, env *Env) {
					task := mustCreateTask(ctx, t, env, uniqueTitle(env, "Future"), "")
					setDue(ctx, t, env, task.ID, isoFromNow(48*time.Hour))

					assert.False(t, overdueIDs(ctx, t, env)[task.ID])
				},
			},
			{
				Name:        "archived-not-overdue",
				Description: "archived tasks never appear in the overdue list",
				Run: func(ctx context.Context, t *T, env *Env) {
					task := mustCreateTask(ctx, t, env, uniqueTitle(env, "Archived overdue"), "")
					setDue(ctx, t, env, task.ID, isoFromNow(-24*time.Hour))

					resp, err := env.Client.PatchArchive(ctx, task.ID, true)
					require.NoError(t, err)
					requireStatus(t, resp, http.StatusOK)

					assert.False(t, overdueIDs(ctx, t, env)[task.ID])
				},
			},
			{
				Name:        "overdue-list-shape",
				Description: "the overdue list is an array whose items all carry a due date",
				Run: func(ctx context.Context, t *T, env *Env) {
					resp, err := env.Client.Overdue(ctx)
					require.NoError(t, err)
					requireStatus(t, resp, http.StatusOK)

					now := time.Now()
					for _, task := range decodeTasks(t, resp) {
						if assert.NotNil(t, task.DueDate, "overdue task %s has no dueDate", task.ID) {
							assert.True(t, task.DueDate.Before(now))
						}
						assert.False(t, task.Archived)
					}
				},
			},
		},
	}
}

func labelsSuite() Suite {
	return Suite{
		ID:     "labels",
		Title:  "Labels",
		Target: TargetBackend,
		Checks: []Check{
			{
				Name:        "labels-normalised",
				Description: "labels are trimmed, lower-cased and deduplicated",
				Run: func(ctx context.Context, t *T, env *Env) {
					task := mustCreateTask(ctx, t, env, uniqueTitle(env, "Labelled"), "")

					resp, err := env.Client.PatchLabels(ctx, task.ID, []string{"  QA ", "qa", "Backend", ""})
					require.NoError(t, err)
					requireStatus(t, resp, http.StatusOK)
					assert.Equal(t, []string{"qa", "backend"}, decodeTask(t, resp).Labels)
				},
			},
			{
				Name:        "labels-on-create",
				Description: "labels sent on create are normalised the same way",
				Run: func(ctx context.Context, t *T, env *Env) {
					resp, err := env.Client.CreateTask(ctx, map[string]any{
						"title":  uniqueTitle(env, "Labelled on create"),
						"labels": []string{" X-Ray ", "x-ray"},
					})
					require.NoError(t, err)
					requireStatus(t, resp, http.StatusCreated)
					assert.Equal(t, []string{"x-ray"}, decodeTask(t, resp).Labels)
				},
			},
			{
				Name:        "labels-must-be-string-array",
				Description: "non-array or non-string labels are rejected with 400",
				Run: func(ctx context.Context, t *T, env *Env) {
					task := mustCreateTask(ctx, t, env, uniqueTitle(env, "Invalid labels"), "")

					for _, value := range []any{"qa", []any{"qa", 1}, nil} {
						resp, err := env.Client.PatchLabels(ctx, task.ID, value)
						require.NoError(t, err)
						requireStatus(t, resp, http.StatusBadRequest)
						requireMessage(t, resp)
					}

					resp, err := env.Client.PatchLabels(ctx, invalidObjectID, []string{"qa"})
					require.NoError(t, err)
					requireStatus(t, resp, http.StatusBadRequest)
				},
			},
			{
				Name:        "filter-by-label",
				Description: "?label= returns only tasks carrying the label",
				Run: func(ctx context.Context, t *T, env *Env) {
					label := "probe-" + shortID()
					tagged := mustCreateTask(ctx, t, env, uniqueTitle(env, "Tagged"), "")
					untagged := mustCreateTask(ctx, t, env, uniqueTitle(env, "Untagged"), "")

					resp, err := env.Client.PatchLabels(ctx, tagged.ID, []string{label})
					require.NoError(t, err)
					requireStatus(t, resp, http.StatusOK)

					tasks := listTasks(ctx, t, env, apiclient.ListOptions{Label: label})
					ids := taskIDs(tasks)
					assert.True(t, ids[tagged.ID])
					assert.False(t, ids[untagged.ID])
					for _, task := range tasks {
						assert.Contains(t, task.Labels, label)
					}
				},
			},
		},
	}
}

func commentsSuite() Suite {
	post := func(ctx context.Context, t *T, env *Env, id string, message any) *apiclient.Response {
		resp, err := env.Client.PostComment(ctx, id, map[string]any{"message": message})
		require.NoError(t, err)
		return resp
	}
	list := func(ctx context.Context, t *T, env *Env, id string) []dto.Comment {
		resp, err := env.Client.ListComments(ctx, id)
		require.NoError(t, err)
		requireStatus(t, resp, http.StatusOK)
		var comments []dto.Comment
		require.NoError(t, resp.JSON(&comments))
		return comments
	}

	return Suite{
		ID:     "comments",
		Title:  "Comments",
		Target: TargetBackend,
		Checks: []Check{
			{
				Name:        "post-trims-message",
				Description: "a valid comment is stored trimmed and listed",
				Run: func(ctx context.Context, t *T, env *Env) {
					task := mustCreateTask(ctx, t, env, uniqueTitle(env, "Comments basic"), "")

					resp := post(ctx, t, env, task.ID, "  First update from QA  ")
					requireStatus(t, resp, http.StatusCreated)
					var created dto.Comment
					require.NoError(t, resp.JSON(&created))
					assert.Equal(t, "First update from QA", created.Message)

					var messages []string
					for _, c := range list(ctx, t, env, task.ID) {
						messages = append(messages, c.Message)
					}
					assert.Contains(t, messages, "First update from QA")
				},
			},
			{
				Name:        "chronological-order",
				Description: "comments are listed oldest first",
				Run: func(ctx context.Context, t *T, env *Env) {
					task := mustCreateTask(ctx, t, env, uniqueTitle(env, "Comment ordering"), "")
					want := []string{"First", "Second", "Third"}
					for _, msg := range want {
						requireStatus(t, post(ctx, t, env, task.ID, msg), http.StatusCreated)
					}

					comments := list(ctx, t, env, task.ID)
					require.GreaterOrEqual(t, len(comments), len(want))
					got := make([]string, 0, len(want))
					for _, c := range comments[:len(want)] {
						got = append(got, c.Message)
					}
					assert.Equal(t, want, got)
				},
			},
			{
				Name:        "invalid-payloads",
				Description: "missing, non-string and blank messages are rejected with 400",
				Run: func(ctx context.Context, t *T, env *Env) {
					task := mustCreateTask(ctx, t, env, uniqueTitle(env, "Invalid comment payload"), "")

					resp, err := env.Client.PostComment(ctx, task.ID, map[string]any{})
					require.NoError(t, err)
					requireStatus(t, resp, http.StatusBadRequest)

					requireStatus(t, post(ctx, t, env, task.ID, 12345), http.StatusBadRequest)
					requireStatus(t, post(ctx, t, env, task.ID, "   "), http.StatusBadRequest)
				},
			},
			{
				Name:        "invalid-object-id",
				Description: "malformed ids are rejected with 400 on both endpoints",
				Run: func(ctx context.Context, t *T, env *Env) {
					requireStatus(t, post(ctx, t, env, invalidObjectID, "Hello"), http.StatusBadRequest)

					resp, err := env.Client.ListComments(ctx, invalidObjectID)
					require.NoError(t, err)
					requireStatus(t, resp, http.StatusBadRequest)
				},
			},
			{
				Name:        "nonexistent-task",
				Description: "listing comments of an unknown task answers 404",
				Run: func(ctx context.Context, t *T, env *Env) {
					resp, err := env.Client.ListComments(ctx, missingCommentTaskID)
					require.NoError(t, err)
					requireStatus(t, resp, http.StatusNotFound)
					requireMessage(t, resp)
				},
			},
			{
				Name:        "new-task-has-no-comments",
				Description: "a fresh task lists an empty array",
				Run: func(ctx context.Context, t *T, env *Env) {
					task := mustCreateTask(ctx, t, env, uniqueTitle(env, "Empty comments"), "")

					resp, err := env.Client.ListComments(ctx, task.ID)
					require.NoError(t, err)
					requireStatus(t, resp, http.StatusOK)
					assert.JSONEq(t, `[]`, resp.Text())
				},
			},
		},
	}
}

func requestIDSuite() Suite {
	return Suite{
		ID:     "request-id",
		Title:  "Request id propagation",
		Target: TargetBackend,
		Checks: []Check{
			{
				Name:        "generated-ids",
				Description: "responses carry a distinct X-Request-Id when the client sends none",
				Run: func(ctx context.Context, t *T, env *Env) {
					seen := map[string]bool{}
					for range 3 {
						resp, err := env.Client.Do(ctx, apiclient.Request{
							Method:      http.MethodGet,
							Path:        "/api/health",
							NoRequestID: true,
						})
						require.NoError(t, err)
						requireStatus(t, resp, http.StatusOK)

						id := resp.Header.Get(apiclient.RequestIDHeader)
						require.NotEmpty(t, id, "missing %s header", apiclient.RequestIDHeader)
						assert.False(t, seen[id], "request id %q was reused", id)
						seen[id] = true
					}
				},
			},
			{
				Name:        "supplied-id-echoed",
				Description: "a client-supplied X-Request-Id is echoed back",
				Run: func(ctx context.Context, t *T, env *Env) {
					id := "probe-" + uuid.NewString()
					resp, err := env.Client.Do(ctx, apiclient.Request{
						Method: http.MethodGet,
						Path:   "/api/tasks",
						Header: http.Header{apiclient.RequestIDHeader: []string{id}},
					})
					require.NoError(t, err)
					requireStatus(t, resp, http.StatusOK)
					assert.Equal(t, id, resp.Header.Get(apiclient.RequestIDHeader))
				},
			},
			{
				Name:        "id-on-errors",
				Description: "error responses carry the request id too",
				Run: func(ctx context.Context, t *T, env *Env) {
					resp, err := env.Client.GetTask(ctx, invalidObjectID)
					require.NoError(t, err)
					requireStatus(t, resp, http.StatusBadRequest)
					assert.Equal(t, resp.RequestID, resp.Header.Get(apiclient.RequestIDHeader))

					resp, err = env.Client.GetTask(ctx, missingTaskID)
					require.NoError(t, err)
					requireStatus(t, resp, http.StatusNotFound)
					assert.NotEmpty(t, resp.Header.Get(apiclient.RequestIDHeader))
				},
			},
		},
	}
}
