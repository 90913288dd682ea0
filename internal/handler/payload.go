package handler

import (
	"encoding/json"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/artasyaskar/puzzleverse-mern/internal/service"
	"github.com/artasyaskar/puzzleverse-mern/internal/utils"
)

// payload is a JSON object decoded one field at a time, so wrong types can
// be reported per field instead of as a generic binding failure.
type payload map[string]json.RawMessage

func bindPayload(c *gin.Context) (payload, error) {
	data, err := c.GetRawData()
	if err != nil {
		return nil, service.Invalid("body", "could not read request body")
	}
	return parsePayload(data)
}

func parsePayload(data []byte) (payload, error) {
	p := payload{}
	if len(data) == 0 {
		return p, nil
	}
	if err := json.Unmarshal(data, &p); err != nil || p == nil {
		return nil, service.Invalid("body", "request body must be a JSON object")
	}
	return p, nil
}

func (p payload) has(key string) bool {
	_, ok := p[key]
	return ok
}

func (p payload) isNull(key string) bool {
	raw, ok := p[key]
	return ok && string(raw) == "null"
}

// string returns nil when key is absent.
func (p payload) string(key string) (*string, error) {
	raw, ok := p[key]
	if !ok {
		return nil, nil
	}
	var s string
	if string(raw) == "null" || json.Unmarshal(raw, &s) != nil {
		return nil, service.Invalid(key, "%s must be a string", key)
	}
	return &s, nil
}

func (p payload) stringSlice(key string) (*[]string, error) {
	raw, ok := p[key]
	if !ok {
		return nil, nil
	}
	var values []string
	if string(raw) == "null" || json.Unmarshal(raw, &values) != nil {
		return nil, service.Invalid(key, "%s must be an array of strings", key)
	}
	if values == nil {
		values = []string{}
	}
	return &values, nil
}

func (p payload) bool(key string) (bool, error) {
	raw, ok := p[key]
	if !ok {
		return false, service.Invalid(key, "%s is required", key)
	}
	var b bool
	if string(raw) == "null" || json.Unmarshal(raw, &b) != nil {
		return false, service.Invalid(key, "%s must be a boolean", key)
	}
	return b, nil
}

// date parses an ISO date string. A JSON null yields a nil time.
func (p payload) date(key string) (*time.Time, error) {
	if !p.has(key) || p.isNull(key) {
		return nil, nil
	}
	s, err := p.string(key)
	if err != nil {
		return nil, service.Invalid(key, "%s must be a valid date", key)
	}
	t, ok := utils.ParseDate(*s)
	if !ok {
		return nil, service.Invalid(key, "%s must be a valid date", key)
	}
	return &t, nil
}

// createInput decodes the fields of a create request.
func (p payload) createInput() (service.CreateTaskInput, error) {
	var in service.CreateTaskInput

	title, err := p.string("title")
	if err != nil {
		return in, err
	}
	if title != nil {
		in.Title = *title
	}

	if !p.isNull("description") {
		description, err := p.string("description")
		if err != nil {
			return in, err
		}
		if description != nil {
			in.Description = *description
		}
	}

	status, err := p.string("status")
	if err != nil {
		return in, err
	}
	if status != nil {
		in.Status = *status
	}

	labels, err := p.stringSlice("labels")
	if err != nil {
		return in, err
	}
	if labels != nil {
		in.Labels = *labels
	}

	if in.DueDate, err = p.date("dueDate"); err != nil {
		return in, err
	}

	return in, nil
}

func (p payload) updateInput() (service.UpdateTaskInput, error) {
	var (
		in  service.UpdateTaskInput
		err error
	)

	if in.Title, err = p.string("title"); err != nil {
		return in, err
	}
	if in.Description, err = p.string("description"); err != nil {
		return in, err
	}
	if in.Status, err = p.string("status"); err != nil {
		return in, err
	}
	if in.Labels, err = p.stringSlice("labels"); err != nil {
		return in, err
	}

	return in, nil
}
