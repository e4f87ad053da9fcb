package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"reelprep/internal/deps"
)

func newDepsCommand(ctx *commandContext) *cobra.Command {
	var jsonOut bool

	cmd := &cobra.Command{
		Use:   "deps",
		Short: "Check that required external tools are installed",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}

			results := deps.CheckBinaries(deps.Requirements(cfg))
			if jsonOut {
				if err := writeJSON(cmd, results); err != nil {
					return err
				}
			} else {
				rows := make([][]string, 0, len(results))
				for _, status := range results {
					rows = append(rows, []string{
						status.Name,
						status.Command,
						yesNo(status.Available),
						status.Detail,
					})
				}
				out := cmd.OutOrStdout()
				fmt.Fprintln(out, renderTable(out,
					[]string{"Tool", "Command", "Available", "Detail"}, rows,
					[]columnAlignment{alignLeft, alignLeft, alignLeft, alignLeft}))
			}

			var missing []string
			for _, status := range results {
				if !status.Available && !status.Optional {
					missing = append(missing, status.Name)
				}
			}
			if len(missing) > 0 {
				return fmt.Errorf("missing required tools: %s", strings.Join(missing, ", "))
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&jsonOut, "json", false, "Emit JSON instead of a table")
	return cmd
}
