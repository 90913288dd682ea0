package service

import (
	"context"
	"sync"
	"time"
)

// LoginLimiter is the in-process LoginAttempts. Keys are usually client IP
// plus lower-cased email.
type LoginLimiter struct {
	mu      sync.Mutex
	max     int
	window  time.Duration
	entries map[string]*attemptWindow
	now     func() time.Time
}

var _ LoginAttempts = (*LoginLimiter)(nil)

type attemptWindow struct {
	failures int
	resetAt  time.Time
}

// sweepThreshold bounds how many keys accumulate before expired windows
// are dropped.
const sweepThreshold = 1024

// NewLoginLimiter creates a limiter that blocks after max failures per window
func NewLoginLimiter(max int, window time.Duration) *LoginLimiter {
	return &LoginLimiter{
		max:     max,
		window:  window,
		entries: make(map[string]*attemptWindow),
		now:     time.Now,
	}
}

func (l *LoginLimiter) Max() int {
	return l.max
}

func (l *LoginLimiter) Blocked(_ context.Context, key string) (bool, time.Duration, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	entry := l.current(key, false)
	if entry == nil || entry.failures < l.max {
		return false, 0, nil
	}
	return true, entry.resetAt.Sub(l.now()), nil
}

func (l *LoginLimiter) RecordFailure(_ context.Context, key string) (bool, time.Duration, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	entry := l.current(key, true)
	entry.failures++
	if entry.failures < l.max {
		return false, 0, nil
	}
	return true, entry.resetAt.Sub(l.now()), nil
}

func (l *LoginLimiter) Reset(_ context.Context, key string) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	delete(l.entries, key)
	return nil
}

// current returns the live window for key, starting one when create is set.
func (l *LoginLimiter) current(key string, create bool) *attemptWindow {
	now := l.now()

	entry, ok := l.entries[key]
	if ok && !now.Before(entry.resetAt) {
		delete(l.entries, key)
		entry, ok = nil, false
	}
	if ok || !create {
		return entry
	}

	if len(l.entries) >= sweepThreshold {
		for k, e := range l.entries {
			if !now.Before(e.resetAt) {
				delete(l.entries, k)
			}
		}
	}

	entry = &attemptWindow{resetAt: now.Add(l.window)}
	l.entries[key] = entry
	return entry
}
