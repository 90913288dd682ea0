package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/artasyaskar/puzzleverse-mern/internal/probe"
	"github.com/artasyaskar/puzzleverse-mern/internal/readiness"
)

var waitCmd = &cobra.Command{
	Use:   "wait",
	Short: "Block until a target answers its health check",
	Args:  cobra.NoArgs,
	RunE:  runWait,
}

func init() {
	waitCmd.Flags().String("target", string(probe.TargetBackend), "target to wait for (backend or gateway)")
	waitCmd.Flags().Duration("timeout", 0, "overall deadline (default READINESS_TIMEOUT)")
	waitCmd.Flags().Duration("interval", 0, "delay between attempts (default READINESS_INTERVAL)")
}

func runWait(cmd *cobra.Command, args []string) error {
	ctx, stop := signalContext(cmd)
	defer stop()

	cfg, infra, cleanup, err := setup(ctx)
	if err != nil {
		return err
	}
	defer cleanup()

	target, _ := cmd.Flags().GetString("target")
	baseURL, err := targetURL(cfg.Backend.BaseURL, cfg.Gateway.BaseURL, probe.Target(target))
	if err != nil {
		return err
	}

	opts := readinessOptions(cfg.Readiness.Timeout.Duration, cfg.Readiness.Interval.Duration,
		cfg.Readiness.RequestTimeout.Duration, cfg.Readiness.HealthPath)
	if timeout, _ := cmd.Flags().GetDuration("timeout"); timeout > 0 {
		opts.Timeout = timeout
	}
	if interval, _ := cmd.Flags().GetDuration("interval"); interval > 0 {
		opts.Interval = interval
	}

	start := time.Now()
	if err := readiness.NewPoller(opts, infra.Logger()).Wait(ctx, baseURL); err != nil {
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "%s is ready (%s)\n", baseURL, time.Since(start).Round(time.Millisecond))
	return nil
}

func targetURL(backend, gateway string, target probe.Target) (string, error) {
	switch target {
	case probe.TargetBackend:
		return backend, nil
	case probe.TargetGateway:
		return gateway, nil
	default:
		return "", fmt.Errorf("unknown target %q: must be %s or %s", target, probe.TargetBackend, probe.TargetGateway)
	}
}

func readinessOptions(timeout, interval, requestTimeout time.Duration, healthPath string) readiness.Options {
	return readiness.Options{
		Timeout:        timeout,
		Interval:       interval,
		RequestTimeout: requestTimeout,
		HealthPath:     healthPath,
	}
}
