package probe

import (
	"fmt"
	"runtime"
	"sync"
)

// T records the outcome of a single check. It satisfies the TestingT
// interfaces of testify's assert and require packages, so checks are
// written exactly like ordinary Go tests.
type T struct {
	name string

	mu       sync.Mutex
	failures []string
	logs     []string
	failed   bool
}

func newT(name string) *T {
	return &T{name: name}
}

func (t *T) Name() string {
	return t.name
}

// Errorf marks the check failed and keeps going.
func (t *T) Errorf(format string, args ...any) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.failed = true
	t.failures = append(t.failures, fmt.Sprintf(format, args...))
}

// FailNow marks the check failed and stops it. Like testing.T it must be
// called from the goroutine running the check.
func (t *T) FailNow() {
	t.mu.Lock()
	t.failed = true
	t.mu.Unlock()
	runtime.Goexit()
}

func (t *T) Fatalf(format string, args ...any) {
	t.Errorf(format, args...)
	t.FailNow()
}

func (t *T) Logf(format string, args ...any) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.logs = append(t.logs, fmt.Sprintf(format, args...))
}

func (t *T) Helper() {}

func (t *T) Failed() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.failed
}

func (t *T) snapshot() (failures, logs []string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	return append([]string(nil), t.failures...), append([]string(nil), t.logs...)
}
