// Package readiness blocks until a dependent HTTP service answers its
// health check, or a deadline passes.
package readiness

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/siderolabs/go-retry/retry"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.uber.org/zap"
)

const (
	DefaultTimeout        = 30 * time.Second
	DefaultInterval       = time.Second
	DefaultRequestTimeout = 2 * time.Second
	DefaultHealthPath     = "/api/health"
)

// ErrNotReady is wrapped by every error returned when the deadline passes
// without a successful health check.
var ErrNotReady = errors.New("backend did not become healthy in time")

type Options struct {
	Timeout        time.Duration
	Interval       time.Duration
	RequestTimeout time.Duration
	HealthPath     string
}

// Poller issues GET <base>/<health path> at a fixed interval until it
// sees HTTP 200.
type Poller struct {
	opts     Options
	client   *http.Client
	logger   *zap.Logger
	attempts metric.Int64Counter
}

func NewPoller(opts Options, logger *zap.Logger) *Poller {
	if opts.Timeout <= 0 {
		opts.Timeout = DefaultTimeout
	}
	if opts.Interval <= 0 {
		opts.Interval = DefaultInterval
	}
	if opts.RequestTimeout <= 0 {
		opts.RequestTimeout = DefaultRequestTimeout
	}
	if opts.HealthPath == "" {
		opts.HealthPath = DefaultHealthPath
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	attempts, err := otel.Meter("github.com/artasyaskar/puzzleverse-mern/internal/readiness").Int64Counter(
		"readiness_attempts_total",
		metric.WithDescription("Health check attempts made while waiting for a target"),
	)
	if err != nil {
		logger.Warn("failed to create readiness counter", zap.Error(err))
	}

	return &Poller{
		opts:     opts,
		client:   &http.Client{Timeout: opts.RequestTimeout},
		logger:   logger,
		attempts: attempts,
	}
}

// Wait blocks until baseURL reports healthy. On timeout the returned error
// wraps ErrNotReady and carries the last failure observed.
func (p *Poller) Wait(ctx context.Context, baseURL string) error {
	url := strings.TrimRight(baseURL, "/") + p.opts.HealthPath
	start := time.Now()
	attempt := 0

	var lastErr error

	err := retry.Constant(p.opts.Timeout, retry.WithUnits(p.opts.Interval)).
		RetryWithContext(ctx, func(ctx context.Context) error {
			attempt++
			if err := p.check(ctx, url); err != nil {
				// An attempt cut off by the overall deadline says nothing new
				// about the target, so the previous failure is kept.
				if lastErr == nil || ctx.Err() == nil {
					lastErr = err
				}
				p.record(ctx, baseURL, "fail")
				p.logger.Debug("backend not ready yet",
					zap.String("url", url),
					zap.Int("attempt", attempt),
					zap.Error(err),
				)
				return retry.ExpectedError(err)
			}
			p.record(ctx, baseURL, "ready")
			return nil
		})
	if err == nil {
		p.logger.Info("backend is ready",
			zap.String("url", url),
			zap.Int("attempts", attempt),
			zap.Duration("waited", time.Since(start)),
		)
		return nil
	}

	if lastErr == nil {
		lastErr = err
	}
	if ctxErr := ctx.Err(); ctxErr != nil {
		return fmt.Errorf("waiting for %s: %w", url, errors.Join(ctxErr, lastErr))
	}

	p.logger.Warn("backend did not become healthy",
		zap.String("url", url),
		zap.Int("attempts", attempt),
		zap.Duration("timeout", p.opts.Timeout),
		zap.Error(lastErr),
	)
	return fmt.Errorf("%w: %s: %w", ErrNotReady, url, lastErr)
}

func (p *Poller) check(ctx context.Context, url string) error {
	ctx, cancel := context.WithTimeout(ctx, p.opts.RequestTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}

	resp, err := p.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("unexpected status %d", resp.StatusCode)
	}
	return nil
}

func (p *Poller) record(ctx context.Context, target, outcome string) {
	if p.attempts == nil {
		return
	}
	p.attempts.Add(ctx, 1, metric.WithAttributes(
		attribute.String("target", target),
		attribute.String("outcome", outcome),
	))
}
