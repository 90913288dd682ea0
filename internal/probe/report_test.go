package probe

import (
	"bytes"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleReport() *Report {
	return &Report{
		RunID:    "abc123def456",
		Duration: 1500 * time.Millisecond,
		Suites: []SuiteResult{
			{
				ID:      "health",
				BaseURL: "http://backend:5000",
				Checks:  []CheckResult{{Name: "health-ok", Passed: true}},
			},
			{
				ID:      "archive",
				BaseURL: "http://backend:5000",
				Checks: []CheckResult{
					{Name: "archive-hides-task", Passed: true},
					{Name: "unarchive", Failures: []string{"expected 200, got 500"}},
				},
			},
		},
	}
}

func TestReport_Totals(t *testing.T) {
	r := sampleReport()

	passed, failed := r.Totals()
	assert.Equal(t, 2, passed)
	assert.Equal(t, 1, failed)
	assert.False(t, r.Passed())

	s, ok := r.Suite("health")
	require.True(t, ok)
	assert.True(t, s.Passed())

	s, ok = r.Suite("archive")
	require.True(t, ok)
	assert.False(t, s.Passed())

	_, ok = r.Suite("nope")
	assert.False(t, ok)
}

func TestReport_WriteText(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, sampleReport().WriteText(&buf, false))

	out := buf.String()
	assert.Contains(t, out, "PASS health (http://backend:5000)")
	assert.Contains(t, out, "FAIL archive")
	assert.Contains(t, out, "  FAIL unarchive")
	assert.Contains(t, out, "expected 200, got 500")
	assert.Contains(t, out, "2 passed, 1 failed in 1.5s (run abc123def456)")
	assert.NotContains(t, out, "\x1b[", "colour codes with colouring disabled")
}

func TestReport_WriteJSON(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, sampleReport().WriteJSON(&buf))

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &decoded))
	assert.Equal(t, "abc123def456", decoded["runId"])
	assert.Len(t, decoded["suites"], 2)
}
