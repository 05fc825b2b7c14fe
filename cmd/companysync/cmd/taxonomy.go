package cmd

import (
	"fmt"
	"strconv"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"github.com/harukiyade/road-companiesInfo-sub000/pkg/taxonomy"
)

// NewTaxonomyCommand creates the taxonomy command group.
func NewTaxonomyCommand(_ App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "taxonomy",
		Short: "Inspect the industry taxonomy master",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return cmd.Help()
		},
	}
	cmd.AddCommand(newTaxonomyVerifyCommand())
	return cmd
}

func newTaxonomyVerifyCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "verify <master.csv>",
		Short: "Load a taxonomy master and report what it contains",
		Long: `Verify loads a taxonomy master CSV the same way the pipelines do,
so header problems, empty rows, and duplicate triples surface before a
backfill run depends on the file.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			idx, err := taxonomy.LoadFile(args[0])
			if err != nil {
				return err
			}

			large := map[string]bool{}
			middle := map[string]bool{}
			small := map[string]bool{}
			for _, n := range idx.Nodes() {
				large[n.Large] = true
				middle[n.Middle] = true
				small[n.Small] = true
			}

			tw := table.NewWriter()
			tw.SetStyle(table.StyleRounded)
			tw.AppendHeader(table.Row{"level", "distinct values"})
			tw.AppendRow(table.Row{"large", strconv.Itoa(len(large))})
			tw.AppendRow(table.Row{"middle", strconv.Itoa(len(middle))})
			tw.AppendRow(table.Row{"small", strconv.Itoa(len(small))})
			tw.AppendRow(table.Row{"triples", strconv.Itoa(idx.Len())})

			fmt.Fprintln(cmd.OutOrStdout(), tw.Render())
			return nil
		},
	}
}
