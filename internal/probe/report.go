package probe

import (
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/fatih/color"
)

type CheckResult struct {
	Name        string        `json:"name"`
	Description string        `json:"description,omitempty"`
	Passed      bool          `json:"passed"`
	Failures    []string      `json:"failures,omitempty"`
	Logs        []string      `json:"logs,omitempty"`
	Duration    time.Duration `json:"durationNs"`
}

type SuiteResult struct {
	ID       string        `json:"id"`
	Title    string        `json:"title"`
	Target   Target        `json:"target"`
	BaseURL  string        `json:"baseUrl"`
	Checks   []CheckResult `json:"checks"`
	Duration time.Duration `json:"durationNs"`
}

func (s SuiteResult) Passed() bool {
	for _, c := range s.Checks {
		if !c.Passed {
			return false
		}
	}
	return true
}

// Report is the outcome of one Runner.Run.
type Report struct {
	RunID     string        `json:"runId"`
	StartedAt time.Time     `json:"startedAt"`
	Duration  time.Duration `json:"durationNs"`
	Suites    []SuiteResult `json:"suites"`
}

// Totals counts passed and failed checks.
func (r *Report) Totals() (passed, failed int) {
	for _, s := range r.Suites {
		for _, c := range s.Checks {
			if c.Passed {
				passed++
			} else {
				failed++
			}
		}
	}
	return passed, failed
}

func (r *Report) Passed() bool {
	_, failed := r.Totals()
	return failed == 0
}

// Suite returns the result for id, if it was part of the run.
func (r *Report) Suite(id string) (SuiteResult, bool) {
	for _, s := range r.Suites {
		if s.ID == id {
			return s, true
		}
	}
	return SuiteResult{}, false
}

// WriteText prints a human-readable report. colored toggles ANSI colours.
func (r *Report) WriteText(w io.Writer, colored bool) error {
	pass := color.New(color.FgGreen, color.Bold)
	fail := color.New(color.FgRed, color.Bold)
	dim := color.New(color.Faint)
	for _, c := range []*color.Color{pass, fail, dim} {
		if colored {
			c.EnableColor()
		} else {
			c.DisableColor()
		}
	}

	for _, s := range r.Suites {
		status := pass.Sprint("PASS")
		if !s.Passed() {
			status = fail.Sprint("FAIL")
		}
		if _, err := fmt.Fprintf(w, "%s %s (%s) %s\n", status, s.ID, s.BaseURL, dim.Sprint(s.Duration.Round(time.Millisecond))); err != nil {
			return err
		}

		for _, c := range s.Checks {
			mark := pass.Sprint("  ok  ")
			if !c.Passed {
				mark = fail.Sprint("  FAIL")
			}
			if _, err := fmt.Fprintf(w, "%s %s\n", mark, c.Name); err != nil {
				return err
			}
			for _, f := range c.Failures {
				if _, err := fmt.Fprintf(w, "         %s\n", f); err != nil {
					return err
				}
			}
		}
	}

	passed, failed := r.Totals()
	summary := pass.Sprintf("%d passed", passed)
	if failed > 0 {
		summary += ", " + fail.Sprintf("%d failed", failed)
	}
	_, err := fmt.Fprintf(w, "\n%s in %s (run %s)\n", summary, r.Duration.Round(time.Millisecond), r.RunID)
	return err
}

func (r *Report) WriteJSON(w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(r)
}
