package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/artasyaskar/puzzleverse-mern/internal/probe"
)

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List the available suites",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
		for _, s := range probe.DefaultRegistry().Suites() {
			fmt.Fprintf(w, "%s\t%s\t%d checks\t%s\n", s.ID, s.Target, len(s.Checks), s.Title)
		}
		return w.Flush()
	},
}
