package probe

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/artasyaskar/puzzleverse-mern/internal/apiclient"
)

// ErrUnknownSuite is returned when a requested suite id is not registered.
var ErrUnknownSuite = errors.New("unknown suite")

// Target names which configured base URL a suite talks to.
type Target string

const (
	// TargetBackend is the task API (BACKEND_BASE_URL).
	TargetBackend Target = "backend"
	// TargetGateway is the auth and CORS front (BASE_URL).
	TargetGateway Target = "gateway"
)

// Env is what a check gets to work with.
type Env struct {
	Client        *apiclient.Client
	Logger        *zap.Logger
	ExportTimeout time.Duration
	// RunID is unique per run and is mixed into titles and emails so
	// repeated runs against a shared backend do not collide.
	RunID string
}

type Check struct {
	Name        string
	Description string
	Run         func(ctx context.Context, t *T, env *Env)
}

type Suite struct {
	ID     string
	Title  string
	Target Target
	Checks []Check
}

// Registry is an ordered set of suites.
type Registry struct {
	suites []Suite
	index  map[string]int
}

func NewRegistry(suites ...Suite) (*Registry, error) {
	r := &Registry{index: make(map[string]int, len(suites))}
	for _, s := range suites {
		if _, dup := r.index[s.ID]; dup {
			return nil, fmt.Errorf("duplicate suite id %q", s.ID)
		}
		r.index[s.ID] = len(r.suites)
		r.suites = append(r.suites, s)
	}
	return r, nil
}

func (r *Registry) Suites() []Suite {
	return append([]Suite(nil), r.suites...)
}

func (r *Registry) Lookup(id string) (Suite, bool) {
	i, ok := r.index[id]
	if !ok {
		return Suite{}, false
	}
	return r.suites[i], true
}

// Select returns the suites named by ids in registry order, or all of
// them when ids is empty.
func (r *Registry) Select(ids ...string) ([]Suite, error) {
	if len(ids) == 0 {
		return r.Suites(), nil
	}

	want := make(map[string]bool, len(ids))
	for _, id := range ids {
		if _, ok := r.index[id]; !ok {
			return nil, fmt.Errorf("%w: %s", ErrUnknownSuite, id)
		}
		want[id] = true
	}

	selected := make([]Suite, 0, len(want))
	for _, s := range r.suites {
		if want[s.ID] {
			selected = append(selected, s)
		}
	}
	return selected, nil
}
