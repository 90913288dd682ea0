package probe

import (
	"context"
	"encoding/csv"
	"net/http"
	"strings"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/artasyaskar/puzzleverse-mern/internal/apiclient"
	"github.com/artasyaskar/puzzleverse-mern/internal/dto"
)

func healthSuite() Suite {
	return Suite{
		ID:     "health",
		Title:  "Health check",
		Target: TargetBackend,
		Checks: []Check{
			{
				Name:        "health-ok",
				Description: "GET /api/health answers 200 with status ok",
				Run: func(ctx context.Context, t *T, env *Env) {
					resp, err := env.Client.Health(ctx)
					require.NoError(t, err)
					requireStatus(t, resp, http.StatusOK)

					var health dto.HealthResponse
					require.NoError(t, resp.JSON(&health))
					assert.Equal(t, "ok", health.Status)
				},
			},
		},
	}
}

func tasksCRUDSuite() Suite {
	return Suite{
		ID:     "tasks-crud",
		Title:  "Task CRUD",
		Target: TargetBackend,
		Checks: []Check{
			{
				Name:        "create-task",
				Description: "POST /api/tasks returns 201 with an id and the submitted fields",
				Run: func(ctx context.Context, t *T, env *Env) {
					title := uniqueTitle(env, "New Task")
					resp, err := env.Client.CreateTask(ctx, map[string]any{
						"title":       title,
						"description": "Task description",
						"status":      dto.StatusInProgress,
					})
					require.NoError(t, err)
					requireStatus(t, resp, http.StatusCreated)

					task := decodeTask(t, resp)
					assert.Len(t, task.ID, 24)
					assert.Equal(t, title, task.Title)
					assert.Equal(t, "Task description", task.Description)
					assert.Equal(t, dto.StatusInProgress, task.Status)
					assert.False(t, task.CreatedAt.IsZero())
				},
			},
			{
				Name:        "create-defaults-to-pending",
				Description: "a task created without status starts pending",
				Run: func(ctx context.Context, t *T, env *Env) {
					resp, err := env.Client.CreateTask(ctx, map[string]any{"title": uniqueTitle(env, "Default status")})
					require.NoError(t, err)
					requireStatus(t, resp, http.StatusCreated)
					assert.Equal(t, dto.StatusPending, decodeTask(t, resp).Status)
				},
			},
			{
				Name:        "create-missing-title",
				Description: "missing or blank title is rejected with 400",
				Run: func(ctx context.Context, t *T, env *Env) {
					for _, body := range []map[string]any{
						{"description": "Task without title"},
						{"title": "   "},
					} {
						resp, err := env.Client.CreateTask(ctx, body)
						require.NoError(t, err)
						requireStatus(t, resp, http.StatusBadRequest)
						requireMessage(t, resp)
					}
				},
			},
			{
				Name:        "get-by-id",
				Description: "GET /api/tasks/:id returns the created task",
				Run: func(ctx context.Context, t *T, env *Env) {
					created := mustCreateTask(ctx, t, env, uniqueTitle(env, "Fetch me"), dto.StatusPending)

					resp, err := env.Client.GetTask(ctx, created.ID)
					require.NoError(t, err)
					requireStatus(t, resp, http.StatusOK)

					got := decodeTask(t, resp)
					assert.Equal(t, created.ID, got.ID)
					assert.Equal(t, created.Title, got.Title)
				},
			},
			{
				Name:        "list-newest-first",
				Description: "GET /api/tasks returns a plain array, newest first",
				Run: func(ctx context.Context, t *T, env *Env) {
					older := mustCreateTask(ctx, t, env, uniqueTitle(env, "Older"), "")
					newer := mustCreateTask(ctx, t, env, uniqueTitle(env, "Newer"), "")

					tasks := listTasks(ctx, t, env, apiclient.ListOptions{})
					olderAt, newerAt := indexOf(tasks, older.ID), indexOf(tasks, newer.ID)
					require.NotEqual(t, -1, olderAt, "older task missing from list")
					require.NotEqual(t, -1, newerAt, "newer task missing from list")
					assert.Less(t, newerAt, olderAt)
				},
			},
			{
				Name:        "update-task",
				Description: "PUT /api/tasks/:id updates fields and rejects unknown statuses",
				Run: func(ctx context.Context, t *T, env *Env) {
					created := mustCreateTask(ctx, t, env, uniqueTitle(env, "Before update"), dto.StatusPending)
					title := uniqueTitle(env, "After update")

					resp, err := env.Client.UpdateTask(ctx, created.ID, dto.TaskInput{
						Title:  strPtr(title),
						Status: strPtr(dto.StatusInProgress),
					})
					require.NoError(t, err)
					requireStatus(t, resp, http.StatusOK)

					updated := decodeTask(t, resp)
					assert.Equal(t, title, updated.Title)
					assert.Equal(t, dto.StatusInProgress, updated.Status)

					resp, err = env.Client.UpdateTask(ctx, created.ID, map[string]any{"status": "archived"})
					require.NoError(t, err)
					requireStatus(t, resp, http.StatusBadRequest)
					requireMessage(t, resp)
				},
			},
			{
				Name:        "delete-task",
				Description: "DELETE removes the task; later lookups answer 404",
				Run: func(ctx context.Context, t *T, env *Env) {
					created := mustCreateTask(ctx, t, env, uniqueTitle(env, "Delete me"), "")

					resp, err := env.Client.DeleteTask(ctx, created.ID)
					require.NoError(t, err)
					requireStatus(t, resp, http.StatusOK, http.StatusNoContent)

					resp, err = env.Client.GetTask(ctx, created.ID)
					require.NoError(t, err)
					requireStatus(t, resp, http.StatusNotFound)
					requireMessage(t, resp)

					resp, err = env.Client.DeleteTask(ctx, created.ID)
					require.NoError(t, err)
					requireStatus(t, resp, http.StatusNotFound)
				},
			},
			{
				Name:        "invalid-object-id",
				Description: "malformed ids are rejected with 400 on read, update and delete",
				Run: func(ctx context.Context, t *T, env *Env) {
					calls := []func() (*apiclient.Response, error){
						func() (*apiclient.Response, error) { return env.Client.GetTask(ctx, invalidObjectID) },
						func() (*apiclient.Response, error) {
							return env.Client.UpdateTask(ctx, invalidObjectID, map[string]any{"title": "x"})
						},
						func() (*apiclient.Response, error) { return env.Client.DeleteTask(ctx, invalidObjectID) },
					}
					for _, call := range calls {
						resp, err := call()
						require.NoError(t, err)
						requireStatus(t, resp, http.StatusBadRequest)
						requireMessage(t, resp)
					}
				},
			},
		},
	}
}

func filteringSuite() Suite {
	return Suite{
		ID:     "filtering",
		Title:  "Status filtering",
		Target: TargetBackend,
		Checks: []Check{
			{
				Name:        "filter-by-status",
				Description: "?status= returns only tasks in that status",
				Run: func(ctx context.Context, t *T, env *Env) {
					done := mustCreateTask(ctx, t, env, uniqueTitle(env, "Filter completed"), dto.StatusCompleted)
					open := mustCreateTask(ctx, t, env, uniqueTitle(env, "Filter pending"), dto.StatusPending)

					tasks := listTasks(ctx, t, env, apiclient.ListOptions{Status: dto.StatusCompleted})
					ids := taskIDs(tasks)
					assert.True(t, ids[done.ID], "completed task missing from filtered list")
					assert.False(t, ids[open.ID], "pending task leaked into completed filter")
					for _, task := range tasks {
						assert.Equal(t, dto.StatusCompleted, task.Status)
					}
				},
			},
			{
				Name:        "filter-invalid-status",
				Description: "an unknown status filter is rejected with 400",
				Run: func(ctx context.Context, t *T, env *Env) {
					resp, err := env.Client.ListTasks(ctx, apiclient.ListOptions{Status: "not-a-real-status"})
					require.NoError(t, err)
					requireStatus(t, resp, http.StatusBadRequest)
					requireMessage(t, resp)
				},
			},
		},
	}
}

func searchSuite() Suite {
	return Suite{
		ID:     "search",
		Title:  "Task search",
		Target: TargetBackend,
		Checks: []Check{
			{
				Name:        "search-title-and-description",
				Description: "q matches title and description case-insensitively",
				Run: func(ctx context.Context, t *T, env *Env) {
					needle := "needle" + shortID()
					byTitle := mustCreateTask(ctx, t, env, uniqueTitle(env, "Find "+strings.ToUpper(needle)), "")
					byDesc, _, err := env.Client.CreateTaskFor(ctx, uniqueTitle(env, "Described"), "", "mentions "+needle+" inline")
					require.NoError(t, err)
					require.NotNil(t, byDesc)
					unrelated := mustCreateTask(ctx, t, env, uniqueTitle(env, "Unrelated"), "")

					resp, err := env.Client.SearchTasks(ctx, strings.ToUpper(needle[:1])+needle[1:], "")
					require.NoError(t, err)
					requireStatus(t, resp, http.StatusOK)

					tasks := decodeTasks(t, resp)
					ids := taskIDs(tasks)
					assert.True(t, ids[byTitle.ID], "title match missing")
					assert.True(t, ids[byDesc.ID], "description match missing")
					assert.False(t, ids[unrelated.ID], "unrelated task returned")
					for _, task := range tasks {
						hay := strings.ToLower(task.Title + " " + task.Description)
						assert.Contains(t, hay, needle)
					}
				},
			},
			{
				Name:        "search-with-status",
				Description: "status narrows search results",
				Run: func(ctx context.Context, t *T, env *Env) {
					needle := "needle" + shortID()
					done := mustCreateTask(ctx, t, env, uniqueTitle(env, needle+" done"), dto.StatusCompleted)
					open := mustCreateTask(ctx, t, env, uniqueTitle(env, needle+" open"), dto.StatusPending)

					resp, err := env.Client.SearchTasks(ctx, needle, dto.StatusCompleted)
					require.NoError(t, err)
					requireStatus(t, resp, http.StatusOK)

					ids := taskIDs(decodeTasks(t, resp))
					assert.True(t, ids[done.ID])
					assert.False(t, ids[open.ID])
				},
			},
			{
				Name:        "search-blank-query",
				Description: "a blank q is rejected with 400",
				Run: func(ctx context.Context, t *T, env *Env) {
					resp, err := env.Client.SearchTasks(ctx, "   ", "")
					require.NoError(t, err)
					requireStatus(t, resp, http.StatusBadRequest)
					requireMessage(t, resp)
				},
			},
		},
	}
}

func statsSuite() Suite {
	fetch := func(ctx context.Context, t *T, env *Env) dto.TaskStats {
		resp, err := env.Client.TaskStats(ctx)
		require.NoError(t, err)
		requireStatus(t, resp, http.StatusOK)
		var stats dto.TaskStats
		require.NoError(t, resp.JSON(&stats))
		return stats
	}

	return Suite{
		ID:     "stats",
		Title:  "Task statistics",
		Target: TargetBackend,
		Checks: []Check{
			{
				Name:        "stats-shape",
				Description: "every status is counted and total equals their sum",
				Run: func(ctx context.Context, t *T, env *Env) {
					stats := fetch(ctx, t, env)
					sum := 0
					for _, status := range dto.Statuses {
						count, ok := stats.ByStatus[status]
						assert.True(t, ok, "byStatus is missing %q", status)
						sum += count
					}
					assert.Equal(t, stats.Total, sum)
					assert.GreaterOrEqual(t, stats.Archived, 0)
					assert.GreaterOrEqual(t, stats.Overdue, 0)
				},
			},
			{
				Name:        "stats-grow",
				Description: "creating a task increases total and its status bucket",
				Run: func(ctx context.Context, t *T, env *Env) {
					before := fetch(ctx, t, env)
					mustCreateTask(ctx, t, env, uniqueTitle(env, "Counted"), dto.StatusInProgress)
					after := fetch(ctx, t, env)

					assert.Greater(t, after.Total, before.Total)
					assert.Greater(t, after.ByStatus[dto.StatusInProgress], before.ByStatus[dto.StatusInProgress])
				},
			},
		},
	}
}

func bulkImportSuite() Suite {
	return Suite{
		ID:     "bulk-import",
		Title:  "Bulk import",
		Target: TargetBackend,
		Checks: []Check{
			{
				Name:        "bulk-create",
				Description: "POST /api/tasks/bulk creates every item and reports the count",
				Run: func(ctx context.Context, t *T, env *Env) {
					first, second := uniqueTitle(env, "Bulk one"), uniqueTitle(env, "Bulk two")
					resp, err := env.Client.BulkCreate(ctx, dto.BulkCreateRequest{Tasks: []dto.TaskInput{
						{Title: strPtr(first)},
						{Title: strPtr(second), Status: strPtr(dto.StatusCompleted)},
					}})
					require.NoError(t, err)
					requireStatus(t, resp, http.StatusCreated)

					var out dto.BulkCreateResponse
					require.NoError(t, resp.JSON(&out))
					assert.Equal(t, 2, out.Created)
					require.Len(t, out.Tasks, 2)
					assert.Equal(t, first, out.Tasks[0].Title)
					assert.Equal(t, dto.StatusCompleted, out.Tasks[1].Status)
				},
			},
			{
				Name:        "bulk-empty",
				Description: "an empty or missing tasks array is rejected with 400",
				Run: func(ctx context.Context, t *T, env *Env) {
					for _, body := range []any{
						map[string]any{"tasks": []any{}},
						map[string]any{},
						map[string]any{"tasks": "nope"},
					} {
						resp, err := env.Client.BulkCreate(ctx, body)
						require.NoError(t, err)
						requireStatus(t, resp, http.StatusBadRequest)
						requireMessage(t, resp)
					}
				},
			},
			{
				Name:        "bulk-all-or-nothing",
				Description: "one invalid item rejects the batch and nothing is created",
				Run: func(ctx context.Context, t *T, env *Env) {
					valid := uniqueTitle(env, "Bulk rejected")
					resp, err := env.Client.BulkCreate(ctx, map[string]any{"tasks": []any{
						map[string]any{"title": valid},
						map[string]any{"title": "", "status": "bogus"},
					}})
					require.NoError(t, err)
					requireStatus(t, resp, http.StatusBadRequest)

					var errResp dto.ErrorResponse
					require.NoError(t, resp.JSON(&errResp))
					assert.NotEmpty(t, errResp.Message)
					if assert.NotEmpty(t, errResp.Errors) {
						assert.Equal(t, 1, errResp.Errors[0].Index)
					}

					for _, task := range listTasks(ctx, t, env, apiclient.ListOptions{IncludeArchived: true}) {
						assert.NotEqual(t, valid, task.Title, "task from a rejected batch was created")
					}
				},
			},
		},
	}
}

func exportSuite() Suite {
	export := func(ctx context.Context, t *T, env *Env, status string) [][]string {
		resp, err := env.Client.ExportCSV(ctx, status, env.ExportTimeout)
		require.NoError(t, err)
		requireStatus(t, resp, http.StatusOK)
		rows, err := csv.NewReader(strings.NewReader(resp.Text())).ReadAll()
		require.NoError(t, err, "export is not valid CSV")
		require.NotEmpty(t, rows, "expected at least the header row")
		return rows
	}

	return Suite{
		ID:     "export",
		Title:  "CSV export",
		Target: TargetBackend,
		Checks: []Check{
			{
				Name:        "export-header",
				Description: "GET /api/tasks/export is a CSV attachment with the expected header",
				Run: func(ctx context.Context, t *T, env *Env) {
					resp, err := env.Client.ExportCSV(ctx, "", env.ExportTimeout)
					require.NoError(t, err)
					requireStatus(t, resp, http.StatusOK)

					assert.True(t, strings.HasPrefix(resp.Header.Get("Content-Type"), "text/csv"), resp.Header.Get("Content-Type"))
					disposition := resp.Header.Get("Content-Disposition")
					assert.Contains(t, disposition, "attachment")
					assert.Contains(t, disposition, "tasks")

					rows, err := csv.NewReader(strings.NewReader(resp.Text())).ReadAll()
					require.NoError(t, err)
					require.NotEmpty(t, rows)
					assert.Equal(t, dto.CSVHeader, rows[0])
				},
			},
			{
				Name:        "export-contents-and-filter",
				Description: "created tasks are exported and ?status= filters rows",
				Run: func(ctx context.Context, t *T, env *Env) {
					pending, _, err := env.Client.CreateTaskFor(ctx, uniqueTitle(env, "CSV Pending"), dto.StatusPending, "Will be exported")
					require.NoError(t, err)
					require.NotNil(t, pending)
					completed, _, err := env.Client.CreateTaskFor(ctx, uniqueTitle(env, "CSV Completed"), dto.StatusCompleted, "Also, \"quoted\"")
					require.NoError(t, err)
					require.NotNil(t, completed)
					mustCreateTask(ctx, t, env, uniqueTitle(env, "CSV In-progress"), dto.StatusInProgress)

					titles := map[string]bool{}
					for _, row := range export(ctx, t, env, "")[1:] {
						require.Len(t, row, len(dto.CSVHeader))
						titles[row[1]] = true
					}
					assert.True(t, titles[pending.Title])
					assert.True(t, titles[completed.Title])

					filtered := export(ctx, t, env, dto.StatusCompleted)[1:]
					require.NotEmpty(t, filtered)
					for _, row := range filtered {
						assert.Equal(t, dto.StatusCompleted, row[3])
					}
				},
			},
			{
				Name:        "export-invalid-status",
				Description: "an unknown status answers 400 with a JSON message",
				Run: func(ctx context.Context, t *T, env *Env) {
					resp, err := env.Client.ExportCSV(ctx, "not-a-real-status", env.ExportTimeout)
					require.NoError(t, err)
					requireStatus(t, resp, http.StatusBadRequest)
					requireMessage(t, resp)
				},
			},
		},
	}
}
