package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

// NewImportCommand creates the import command.
func NewImportCommand(a App) *cobra.Command {
	return &cobra.Command{
		Use:   "import <file.csv>",
		Short: "Reconcile a company CSV export into the store",
		Long: `Import reads one CSV file, detects which of the known column layouts
it uses, and runs every row through the reconciliation pipeline.

Rows carrying a valid corporate number match on it directly; rows
without one match by normalized name plus supporting signals. Unknown
column layouts are an error, never a guess.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := a.Client()
			if err != nil {
				return err
			}
			stats, err := client.ImportFile(cmd.Context(), args[0], a.BatchConfig())
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), renderStats(stats))
			return nil
		},
	}
}
