package apiclient

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recorded struct {
	method string
	path   string
	query  string
	header http.Header
	body   map[string]any
}

func newRecordingServer(t *testing.T, status int, reply string) (*httptest.Server, *recorded) {
	t.Helper()
	rec := &recorded{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		rec.method = r.Method
		rec.path = r.URL.EscapedPath()
		rec.query = r.URL.RawQuery
		rec.header = r.Header.Clone()
		rec.body = nil
		data, _ := io.ReadAll(r.Body)
		if len(data) > 0 {
			require.NoError(t, json.Unmarshal(data, &rec.body))
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = w.Write([]byte(reply))
	}))
	t.Cleanup(srv.Close)
	return srv, rec
}

func TestDo_SetsRequestIDAndJSONHeaders(t *testing.T) {
	srv, rec := newRecordingServer(t, http.StatusCreated, `{"_id":"abc","title":"x"}`)
	c := New(srv.URL+"/", time.Second)

	resp, err := c.CreateTask(context.Background(), map[string]any{"title": "x"})
	require.NoError(t, err)

	assert.Equal(t, http.MethodPost, rec.method)
	assert.Equal(t, "/api/tasks", rec.path)
	assert.Equal(t, "application/json", rec.header.Get("Content-Type"))
	assert.Equal(t, "x", rec.body["title"])

	_, err = uuid.Parse(rec.header.Get(RequestIDHeader))
	assert.NoError(t, err)
	assert.Equal(t, rec.header.Get(RequestIDHeader), resp.RequestID)

	assert.Equal(t, http.StatusCreated, resp.StatusCode)
	var task struct {
		ID string `json:"_id"`
	}
	require.NoError(t, resp.JSON(&task))
	assert.Equal(t, "abc", task.ID)
}

func TestDo_KeepsCallerRequestID(t *testing.T) {
	srv, rec := newRecordingServer(t, http.StatusOK, `{"status":"ok"}`)
	c := New(srv.URL, time.Second)

	resp, err := c.Do(context.Background(), Request{
		Method: http.MethodGet,
		Path:   "/api/health",
		Header: http.Header{RequestIDHeader: []string{"probe-123"}},
	})
	require.NoError(t, err)

	assert.Equal(t, "probe-123", rec.header.Get(RequestIDHeader))
	assert.Equal(t, "probe-123", resp.RequestID)
	assert.Empty(t, rec.header.Get("Content-Type"))
}

func TestListTasks_EncodesFilters(t *testing.T) {
	srv, rec := newRecordingServer(t, http.StatusOK, `[]`)
	c := New(srv.URL, time.Second)

	_, err := c.ListTasks(context.Background(), ListOptions{Status: "completed", Label: "qa", IncludeArchived: true})
	require.NoError(t, err)

	assert.Equal(t, "includeArchived=true&label=qa&status=completed", rec.query)
}

func TestPatchHelpers_SendExpectedBodies(t *testing.T) {
	srv, rec := newRecordingServer(t, http.StatusOK, `{}`)
	c := New(srv.URL, time.Second)
	ctx := context.Background()

	_, err := c.PatchStatus(ctx, "64b7c1f5e13f5f2a9f0c1234", nil)
	require.NoError(t, err)
	assert.Equal(t, http.MethodPatch, rec.method)
	assert.Equal(t, "/api/tasks/64b7c1f5e13f5f2a9f0c1234/status", rec.path)
	assert.Empty(t, rec.body)

	_, err = c.PatchArchive(ctx, "id", "not-a-boolean")
	require.NoError(t, err)
	assert.Equal(t, "not-a-boolean", rec.body["archived"])

	_, err = c.PatchDueDate(ctx, "id", nil)
	require.NoError(t, err)
	assert.Contains(t, rec.body, "dueDate")
	assert.Nil(t, rec.body["dueDate"])

	_, err = c.PatchLabels(ctx, "a b", []string{"x"})
	require.NoError(t, err)
	assert.Equal(t, "/api/tasks/a%20b/labels", rec.path)
}

func TestMe_SendsBearerToken(t *testing.T) {
	srv, rec := newRecordingServer(t, http.StatusOK, `{"id":"1","email":"a@b.co"}`)
	c := New(srv.URL, time.Second)

	_, err := c.Me(context.Background(), "tok")
	require.NoError(t, err)
	assert.Equal(t, "/api/me", rec.path)
	assert.Equal(t, "Bearer tok", rec.header.Get("Authorization"))

	_, err = c.Me(context.Background(), "")
	require.NoError(t, err)
	assert.Empty(t, rec.header.Get("Authorization"))
}

func TestDo_TransportError(t *testing.T) {
	c := New("http://127.0.0.1:1", 200*time.Millisecond)

	_, err := c.Health(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "GET /api/health")
}

func TestResponse_JSONErrorIncludesBody(t *testing.T) {
	resp := &Response{Body: []byte("<html>oops</html>")}

	var v map[string]any
	err := resp.JSON(&v)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "<html>oops</html>")
}

func TestDecodeAccessToken(t *testing.T) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub":   "user-1",
		"email": "user@example.com",
		"exp":   time.Now().Add(time.Minute).Unix(),
	})
	signed, err := token.SignedString([]byte("some-key-the-client-never-sees"))
	require.NoError(t, err)

	claims, err := DecodeAccessToken(signed)
	require.NoError(t, err)
	assert.Equal(t, "user-1", claims.Subject)
	assert.Equal(t, "user@example.com", claims.Email)
	assert.NotNil(t, claims.ExpiresAt)

	_, err = DecodeAccessToken("not-a-jwt")
	assert.Error(t, err)
}
