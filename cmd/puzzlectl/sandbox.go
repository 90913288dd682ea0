package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/artasyaskar/puzzleverse-mern/internal/app"
)

var sandboxCmd = &cobra.Command{
	Use:   "sandbox",
	Short: "Serve the in-memory task API and auth gateway",
	Args:  cobra.NoArgs,
	RunE:  runSandbox,
}

func init() {
	sandboxCmd.Flags().String("addr", "", "listen address (default SANDBOX_ADDR)")
}

func runSandbox(cmd *cobra.Command, args []string) error {
	ctx, stop := signalContext(cmd)
	defer stop()

	cfg, infra, cleanup, err := setup(ctx)
	if err != nil {
		return err
	}
	defer cleanup()

	if addr, _ := cmd.Flags().GetString("addr"); addr != "" {
		cfg.Sandbox.Addr = addr
	}

	application := app.NewApp(infra, cfg)
	return application.Run(ctx, func(addr string) {
		fmt.Fprintf(cmd.OutOrStdout(), "sandbox listening on http://%s\n", addr)
	})
}
