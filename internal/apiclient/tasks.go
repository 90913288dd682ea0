package apiclient

import (
	"context"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/artasyaskar/puzzleverse-mern/internal/dto"
)

const tasksPath = "/api/tasks"

// ListOptions are the query filters of GET /api/tasks.
type ListOptions struct {
	Status          string
	Label           string
	IncludeArchived bool
}

func (o ListOptions) values() url.Values {
	q := url.Values{}
	if o.Status != "" {
		q.Set("status", o.Status)
	}
	if o.Label != "" {
		q.Set("label", o.Label)
	}
	if o.IncludeArchived {
		q.Set("includeArchived", strconv.FormatBool(true))
	}
	return q
}

func taskPath(id string, sub ...string) string {
	p := tasksPath + "/" + url.PathEscape(id)
	for _, s := range sub {
		p += "/" + s
	}
	return p
}

func (c *Client) ListTasks(ctx context.Context, opts ListOptions) (*Response, error) {
	return c.get(ctx, tasksPath, opts.values())
}

// CreateTask posts body as-is; pass a map to send fields TaskInput cannot express.
func (c *Client) CreateTask(ctx context.Context, body any) (*Response, error) {
	return c.send(ctx, http.MethodPost, tasksPath, body)
}

func (c *Client) GetTask(ctx context.Context, id string) (*Response, error) {
	return c.get(ctx, taskPath(id), nil)
}

func (c *Client) UpdateTask(ctx context.Context, id string, body any) (*Response, error) {
	return c.send(ctx, http.MethodPut, taskPath(id), body)
}

func (c *Client) DeleteTask(ctx context.Context, id string) (*Response, error) {
	return c.send(ctx, http.MethodDelete, taskPath(id), nil)
}

func (c *Client) TaskStats(ctx context.Context) (*Response, error) {
	return c.get(ctx, tasksPath+"/stats", nil)
}

func (c *Client) SearchTasks(ctx context.Context, q, status string) (*Response, error) {
	query := url.Values{}
	query.Set("q", q)
	if status != "" {
		query.Set("status", status)
	}
	return c.get(ctx, tasksPath+"/search", query)
}

func (c *Client) BulkCreate(ctx context.Context, body any) (*Response, error) {
	return c.send(ctx, http.MethodPost, tasksPath+"/bulk", body)
}

// ExportCSV downloads the CSV export, optionally filtered by status.
func (c *Client) ExportCSV(ctx context.Context, status string, timeout time.Duration) (*Response, error) {
	query := url.Values{}
	if status != "" {
		query.Set("status", status)
	}
	return c.Do(ctx, Request{
		Method:  http.MethodGet,
		Path:    tasksPath + "/export",
		Query:   query,
		Header:  http.Header{"Accept": []string{"text/csv, application/json"}},
		Timeout: timeout,
	})
}

func (c *Client) Overdue(ctx context.Context) (*Response, error) {
	return c.get(ctx, tasksPath+"/overdue", nil)
}

// PatchStatus sends {"status": status}; a nil status omits the field.
func (c *Client) PatchStatus(ctx context.Context, id string, status *string) (*Response, error) {
	body := map[string]any{}
	if status != nil {
		body["status"] = *status
	}
	return c.send(ctx, http.MethodPatch, taskPath(id, "status"), body)
}

func (c *Client) PatchArchive(ctx context.Context, id string, archived any) (*Response, error) {
	return c.send(ctx, http.MethodPatch, taskPath(id, "archive"), map[string]any{"archived": archived})
}

// PatchDueDate sends {"dueDate": dueDate}; nil clears the due date.
func (c *Client) PatchDueDate(ctx context.Context, id string, dueDate any) (*Response, error) {
	return c.send(ctx, http.MethodPatch, taskPath(id, "due-date"), map[string]any{"dueDate": dueDate})
}

func (c *Client) PatchLabels(ctx context.Context, id string, labels any) (*Response, error) {
	return c.send(ctx, http.MethodPatch, taskPath(id, "labels"), map[string]any{"labels": labels})
}

func (c *Client) PostComment(ctx context.Context, id string, body any) (*Response, error) {
	return c.send(ctx, http.MethodPost, taskPath(id, "comments"), body)
}

func (c *Client) ListComments(ctx context.Context, id string) (*Response, error) {
	return c.get(ctx, taskPath(id, "comments"), nil)
}

// CreateTaskFor is a fixture helper: it creates a task and decodes it.
func (c *Client) CreateTaskFor(ctx context.Context, title, status, description string) (*dto.Task, *Response, error) {
	body := map[string]any{"title": title, "description": description}
	if status != "" {
		body["status"] = status
	}
	resp, err := c.CreateTask(ctx, body)
	if err != nil {
		return nil, nil, err
	}
	if resp.StatusCode != http.StatusCreated {
		return nil, resp, nil
	}
	var task dto.Task
	if err := resp.JSON(&task); err != nil {
		return nil, resp, err
	}
	return &task, resp, nil
}
