package probe

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/artasyaskar/puzzleverse-mern/internal/apiclient"
)

// Waiter blocks until a base URL is ready. *readiness.Poller implements it.
type Waiter interface {
	Wait(ctx context.Context, baseURL string) error
}

type Options struct {
	Targets       map[Target]string
	HTTPTimeout   time.Duration
	ExportTimeout time.Duration
	Parallelism   int
	// SkipReadiness runs checks without waiting for the targets first.
	SkipReadiness bool
}

// Runner executes suites against live targets. It is the orchestration
// entry point used by the CLI and the acceptance tests.
type Runner struct {
	registry *Registry
	opts     Options
	waiter   Waiter
	logger   *zap.Logger

	checksTotal   metric.Int64Counter
	checkDuration metric.Float64Histogram
}

func NewRunner(registry *Registry, opts Options, waiter Waiter, logger *zap.Logger) *Runner {
	if logger == nil {
		logger = zap.NewNop()
	}
	if opts.Parallelism < 1 {
		opts.Parallelism = 1
	}
	if opts.HTTPTimeout <= 0 {
		opts.HTTPTimeout = 5 * time.Second
	}
	if opts.ExportTimeout <= 0 {
		opts.ExportTimeout = 10 * time.Second
	}

	meter := otel.Meter("github.com/artasyaskar/puzzleverse-mern/internal/probe")
	checksTotal, err := meter.Int64Counter("probe_checks_total",
		metric.WithDescription("Probe checks executed, by suite and outcome"),
	)
	if err != nil {
		logger.Warn("failed to create checks counter", zap.Error(err))
	}
	checkDuration, err := meter.Float64Histogram("probe_check_duration_seconds",
		metric.WithDescription("Duration of a single probe check"),
		metric.WithUnit("s"),
	)
	if err != nil {
		logger.Warn("failed to create check duration histogram", zap.Error(err))
	}

	return &Runner{
		registry:      registry,
		opts:          opts,
		waiter:        waiter,
		logger:        logger,
		checksTotal:   checksTotal,
		checkDuration: checkDuration,
	}
}

// Run executes the named suites (all when ids is empty). Check failures
// are reported in the Report; the error is non-nil only for unknown
// suites, missing targets or a cancelled context.
func (r *Runner) Run(ctx context.Context, ids ...string) (*Report, error) {
	suites, err := r.registry.Select(ids...)
	if err != nil {
		return nil, err
	}
	for _, s := range suites {
		if r.opts.Targets[s.Target] == "" {
			return nil, fmt.Errorf("suite %s: no base URL configured for target %q", s.ID, s.Target)
		}
	}

	report := &Report{
		RunID:     strings.ReplaceAll(uuid.NewString(), "-", "")[:12],
		StartedAt: time.Now(),
		Suites:    make([]SuiteResult, len(suites)),
	}

	r.logger.Info("probe run starting",
		zap.String("run_id", report.RunID),
		zap.Int("suites", len(suites)),
		zap.Int("parallelism", r.opts.Parallelism),
	)

	notReady := r.waitForTargets(ctx, suites)

	var g errgroup.Group
	g.SetLimit(r.opts.Parallelism)
	for i, s := range suites {
		g.Go(func() error {
			report.Suites[i] = r.runSuite(ctx, s, report.RunID, notReady[s.Target])
			return nil
		})
	}
	_ = g.Wait()

	report.Duration = time.Since(report.StartedAt)
	passed, failed := report.Totals()
	r.logger.Info("probe run finished",
		zap.String("run_id", report.RunID),
		zap.Int("passed", passed),
		zap.Int("failed", failed),
		zap.Duration("duration", report.Duration),
	)

	return report, ctx.Err()
}

// waitForTargets polls each distinct base URL once and returns the
// readiness error per target.
func (r *Runner) waitForTargets(ctx context.Context, suites []Suite) map[Target]error {
	errs := make(map[Target]error)
	if r.opts.SkipReadiness || r.waiter == nil {
		return errs
	}

	byURL := make(map[string]error)
	for _, s := range suites {
		url := r.opts.Targets[s.Target]
		err, seen := byURL[url]
		if !seen {
			err = r.waiter.Wait(ctx, url)
			byURL[url] = err
		}
		if err != nil {
			errs[s.Target] = err
		}
	}
	return errs
}

func (r *Runner) runSuite(ctx context.Context, s Suite, runID string, notReady error) SuiteResult {
	baseURL := r.opts.Targets[s.Target]
	logger := r.logger.With(zap.String("suite", s.ID), zap.String("target", baseURL))

	result := SuiteResult{
		ID:      s.ID,
		Title:   s.Title,
		Target:  s.Target,
		BaseURL: baseURL,
		Checks:  make([]CheckResult, 0, len(s.Checks)),
	}
	start := time.Now()

	env := &Env{
		Client:        apiclient.New(baseURL, r.opts.HTTPTimeout, apiclient.WithLogger(logger)),
		Logger:        logger,
		ExportTimeout: r.opts.ExportTimeout,
		RunID:         runID,
	}

	for _, check := range s.Checks {
		var cr CheckResult
		if notReady != nil {
			cr = CheckResult{
				Name:        check.Name,
				Description: check.Description,
				Failures:    []string{fmt.Sprintf("target not ready: %v", notReady)},
			}
		} else {
			cr = runCheck(ctx, check, env)
		}
		r.record(ctx, s.ID, cr)

		if cr.Passed {
			logger.Debug("check passed", zap.String("check", cr.Name), zap.Duration("duration", cr.Duration))
		} else {
			logger.Warn("check failed",
				zap.String("check", cr.Name),
				zap.Strings("failures", cr.Failures),
			)
		}
		result.Checks = append(result.Checks, cr)
	}

	result.Duration = time.Since(start)
	return result
}

func (r *Runner) record(ctx context.Context, suite string, cr CheckResult) {
	outcome := "pass"
	if !cr.Passed {
		outcome = "fail"
	}
	if r.checksTotal != nil {
		r.checksTotal.Add(ctx, 1, metric.WithAttributes(
			attribute.String("suite", suite),
			attribute.String("outcome", outcome),
		))
	}
	if r.checkDuration != nil {
		r.checkDuration.Record(ctx, cr.Duration.Seconds(), metric.WithAttributes(
			attribute.String("suite", suite),
		))
	}
}

// runCheck executes one check on its own goroutine so FailNow can stop it
// with runtime.Goexit, as testing.T does.
func runCheck(ctx context.Context, check Check, env *Env) CheckResult {
	t := newT(check.Name)
	start := time.Now()

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		defer func() {
			if rec := recover(); rec != nil {
				t.Errorf("panic: %v", rec)
			}
		}()
		check.Run(ctx, t, env)
	}()
	wg.Wait()

	failures, logs := t.snapshot()
	return CheckResult{
		Name:        check.Name,
		Description: check.Description,
		Passed:      !t.Failed(),
		Failures:    failures,
		Logs:        logs,
		Duration:    time.Since(start),
	}
}
