package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/artasyaskar/puzzleverse-mern/internal/app"
	"github.com/artasyaskar/puzzleverse-mern/internal/config"
)

// errChecksFailed makes the process exit non-zero without printing anything
// beyond the report.
var errChecksFailed = errors.New("one or more checks failed")

var rootCmd = &cobra.Command{
	Use:           "puzzlectl",
	Short:         "Black-box checks for the task API and its auth gateway",
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.AddCommand(waitCmd, runCmd, listCmd, sandboxCmd)
}

func main() {
	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		if !errors.Is(err, errChecksFailed) {
			fmt.Fprintln(os.Stderr, "Error:", err)
		}
		os.Exit(1)
	}
}

// signalContext derives the command context and cancels it on SIGINT or
// SIGTERM.
func signalContext(cmd *cobra.Command) (context.Context, context.CancelFunc) {
	return signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
}

// setup loads configuration and builds the process-wide logger and metrics
// pipeline. The returned cleanup flushes both.
func setup(ctx context.Context) (*config.Config, app.Infrastructure, func(), error) {
	cfg, err := config.Load(ctx)
	if err != nil {
		return nil, nil, nil, err
	}

	infra, err := app.NewInfrastructure(ctx, *cfg)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("failed to initialize infrastructure: %w", err)
	}

	cleanup := func() {
		if err := infra.Shutdown(context.Background()); err != nil {
			infra.Logger().Debug("infrastructure shutdown", zap.Error(err))
		}
	}
	return cfg, infra, cleanup, nil
}
