package cmd

import (
	"strconv"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"

	"github.com/harukiyade/road-companiesInfo-sub000/pkg/batch"
)

// renderStats renders a run summary table for terminal output.
func renderStats(stats *batch.Stats) string {
	tw := table.NewWriter()
	tw.SetStyle(table.StyleRounded)
	tw.AppendHeader(table.Row{"metric", "count"})

	rows := []struct {
		name  string
		value int
	}{
		{"processed", stats.Processed},
		{"merged", stats.Merged},
		{"created", stats.Created},
		{"ambiguous", stats.Ambiguous},
		{"collapsed", stats.Collapsed},
		{"skipped", stats.Skipped},
		{"write errors", stats.WriteErrors},
		{"pages", stats.Pages},
	}
	for _, r := range rows {
		tw.AppendRow(table.Row{r.name, strconv.Itoa(r.value)})
	}

	tw.SetColumnConfigs([]table.ColumnConfig{
		{Number: 1, Align: text.AlignLeft, AlignHeader: text.AlignLeft},
		{Number: 2, Align: text.AlignRight, AlignHeader: text.AlignLeft},
	})

	return tw.Render()
}
