package probe

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/artasyaskar/puzzleverse-mern/internal/apiclient"
	"github.com/artasyaskar/puzzleverse-mern/internal/dto"
)

const (
	// invalidObjectID is rejected by the id validator before any lookup.
	invalidObjectID = "not-a-valid-objectid"
	// missingTaskID and missingCommentTaskID are well-formed but unlikely to exist.
	missingTaskID        = "64b7c1f5e13f5f2a9f0c1234"
	missingCommentTaskID = "64b7f1f1f1f1f1f1f1f1f1f1"

	validPassword = "Passw0rd1"
)

func shortID() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")[:8]
}

// uniqueTitle tags label with the run id so reruns against a shared
// backend never match stale rows.
func uniqueTitle(env *Env, label string) string {
	return fmt.Sprintf("%s [%s-%s]", label, env.RunID, shortID())
}

func uniqueEmail() string {
	return fmt.Sprintf("user_%s@example.com", shortID())
}

func strPtr(s string) *string {
	return &s
}

func requireStatus(t *T, resp *apiclient.Response, want ...int) {
	t.Helper()
	require.NotNil(t, resp)
	require.Contains(t, want, resp.StatusCode, "unexpected status: %s", resp)
}

// requireErrorKey asserts the body is a JSON object carrying key.
func requireErrorKey(t *T, resp *apiclient.Response, key string) {
	t.Helper()
	var body map[string]any
	require.NoError(t, resp.JSON(&body))
	require.Contains(t, body, key, "error body: %s", resp.Text())
}

func requireMessage(t *T, resp *apiclient.Response) {
	t.Helper()
	requireErrorKey(t, resp, "message")
}

func mustCreateTask(ctx context.Context, t *T, env *Env, title, status string) *dto.Task {
	t.Helper()
	task, resp, err := env.Client.CreateTaskFor(ctx, title, status, "")
	require.NoError(t, err)
	require.NotNil(t, task, "create task %q: %s", title, resp)
	require.NotEmpty(t, task.ID)
	return task
}

func decodeTask(t *T, resp *apiclient.Response) dto.Task {
	t.Helper()
	var task dto.Task
	require.NoError(t, resp.JSON(&task))
	return task
}

func decodeTasks(t *T, resp *apiclient.Response) []dto.Task {
	t.Helper()
	var tasks []dto.Task
	require.NoError(t, resp.JSON(&tasks), "expected a JSON array of tasks")
	return tasks
}

func listTasks(ctx context.Context, t *T, env *Env, opts apiclient.ListOptions) []dto.Task {
	t.Helper()
	resp, err := env.Client.ListTasks(ctx, opts)
	require.NoError(t, err)
	requireStatus(t, resp, 200)
	return decodeTasks(t, resp)
}

func taskIDs(tasks []dto.Task) map[string]bool {
	ids := make(map[string]bool, len(tasks))
	for _, task := range tasks {
		ids[task.ID] = true
	}
	return ids
}

func indexOf(tasks []dto.Task, id string) int {
	for i, task := range tasks {
		if task.ID == id {
			return i
		}
	}
	return -1
}

// registerUser registers a fresh account and returns its email.
func registerUser(ctx context.Context, t *T, env *Env) string {
	t.Helper()
	email := uniqueEmail()
	resp, err := env.Client.Register(ctx, dto.RegisterRequest{Email: email, Password: validPassword})
	require.NoError(t, err)
	requireStatus(t, resp, 201)
	return email
}

func login(ctx context.Context, t *T, env *Env, email, password string) *apiclient.Response {
	t.Helper()
	resp, err := env.Client.Login(ctx, dto.LoginRequest{Email: email, Password: password})
	require.NoError(t, err)
	return resp
}

func mustLogin(ctx context.Context, t *T, env *Env, email string) dto.AuthResponse {
	t.Helper()
	resp := login(ctx, t, env, email, validPassword)
	requireStatus(t, resp, 200)
	var auth dto.AuthResponse
	require.NoError(t, resp.JSON(&auth))
	require.NotEmpty(t, auth.AccessToken)
	require.NotEmpty(t, auth.RefreshToken)
	return auth
}
