package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

// NewDedupeCommand creates the dedupe command.
func NewDedupeCommand(a App) *cobra.Command {
	return &cobra.Command{
		Use:   "dedupe",
		Short: "Collapse duplicate entities across the whole store",
		Long: `Dedupe pages the whole store and re-runs each entity's identifying
fields through the matcher. Entities sharing a corporate number, or
agreeing strongly on name, prefecture, representative and address,
collapse into one survivor; the survivor keeps any values only the
losers had.

Run with --dry-run first to see what would collapse.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			client, err := a.Client()
			if err != nil {
				return err
			}
			stats, err := client.Dedupe(cmd.Context(), a.BatchConfig())
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), renderStats(stats))
			return nil
		},
	}
}
