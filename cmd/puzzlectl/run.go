package main

import (
	"context"
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/artasyaskar/puzzleverse-mern/internal/probe"
	"github.com/artasyaskar/puzzleverse-mern/internal/readiness"
	"github.com/artasyaskar/puzzleverse-mern/pkg/observability"
)

var runCmd = &cobra.Command{
	Use:   "run [suite...]",
	Short: "Run probe suites and print a report",
	Long: `Run the named suites, or every suite when none are given and
RUNNER_SUITES is empty. The exit status is 1 when any check fails.`,
	RunE: runRun,
}

func init() {
	runCmd.Flags().Bool("json", false, "print the report as JSON")
	runCmd.Flags().Bool("no-wait", false, "skip the readiness wait")
	runCmd.Flags().Int("parallel", 0, "suites to run at once (default RUNNER_PARALLELISM)")
	runCmd.Flags().Bool("no-color", false, "disable coloured output")
}

func runRun(cmd *cobra.Command, args []string) error {
	ctx, stop := signalContext(cmd)
	defer stop()

	cfg, infra, cleanup, err := setup(ctx)
	if err != nil {
		return err
	}
	defer cleanup()
	logger := infra.Logger()

	noWait, _ := cmd.Flags().GetBool("no-wait")
	opts := probe.Options{
		Targets: map[probe.Target]string{
			probe.TargetBackend: cfg.Backend.BaseURL,
			probe.TargetGateway: cfg.Gateway.BaseURL,
		},
		HTTPTimeout:   cfg.HTTP.Timeout.Duration,
		ExportTimeout: cfg.HTTP.ExportTimeout.Duration,
		Parallelism:   cfg.Runner.Parallelism,
		SkipReadiness: noWait,
	}
	if parallel, _ := cmd.Flags().GetInt("parallel"); parallel > 0 {
		opts.Parallelism = parallel
	}

	suites := args
	if len(suites) == 0 {
		suites = cfg.Runner.Suites
	}

	poller := readiness.NewPoller(readinessOptions(cfg.Readiness.Timeout.Duration, cfg.Readiness.Interval.Duration,
		cfg.Readiness.RequestTimeout.Duration, cfg.Readiness.HealthPath), logger)

	report, err := probe.NewRunner(probe.DefaultRegistry(), opts, poller, logger).Run(ctx, suites...)
	if report == nil {
		return err
	}

	asJSON, _ := cmd.Flags().GetBool("json")
	if asJSON {
		if werr := report.WriteJSON(cmd.OutOrStdout()); werr != nil {
			return werr
		}
	} else {
		noColor, _ := cmd.Flags().GetBool("no-color")
		if werr := report.WriteText(cmd.OutOrStdout(), !noColor && !color.NoColor); werr != nil {
			return werr
		}
	}

	if cfg.Metrics.PushgatewayURL != "" {
		pushCtx, cancel := context.WithTimeout(context.Background(), cfg.HTTP.Timeout.Duration)
		defer cancel()
		if perr := observability.Push(pushCtx, cfg.Metrics.PushgatewayURL, cfg.Metrics.Job, infra.Registry()); perr != nil {
			logger.Warn("Failed to push metrics", zap.Error(perr))
		}
	}

	if err != nil {
		return fmt.Errorf("probe run interrupted: %w", err)
	}
	if !report.Passed() {
		return errChecksFailed
	}
	return nil
}
