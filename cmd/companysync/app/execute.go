package app

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/harukiyade/road-companiesInfo-sub000/cmd/companysync/cmd"
)

// Execute runs the companysync CLI with the given arguments. This is the
// main entry point called from main.go.
func (a *App) Execute(ctx context.Context, args []string) error {
	rootCmd := a.createRootCommand()
	rootCmd.SetArgs(args)
	return rootCmd.ExecuteContext(ctx)
}

// createRootCommand creates the root cobra command with all subcommands.
func (a *App) createRootCommand() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:     "companysync",
		Short:   "Company record reconciliation pipelines",
		Version: a.version,
		Long: `Companysync reconciles incoming company records against a canonical
company store: CSV imports, scraped homepage data, industry taxonomy
backfills, and duplicate collapsing.

Records are matched by corporate number when one is present and by
normalized name plus supporting signals otherwise. Every processed
record can be written to an append-only audit report.`,
		PersistentPreRunE: a.setupCommand,
		SilenceUsage:      true,
		SilenceErrors:     true,
	}

	pf := rootCmd.PersistentFlags()
	pf.StringVar(&a.config.ConfigFile, "config", "", "config file (default is $HOME/.companysync.yaml)")
	pf.BoolVarP(&a.config.Verbose, "verbose", "v", a.config.Verbose, "verbose output (shortcut for --log-level=debug)")
	pf.BoolVarP(&a.config.Quiet, "quiet", "q", a.config.Quiet, "minimal output (shortcut for --log-level=warn)")
	pf.BoolVar(&a.config.NoColor, "no-color", a.config.NoColor, "disable colored output")
	pf.StringVar(&a.config.LogLevel, "log-level", a.config.LogLevel, "log level: trace, debug, info, warn, error (overrides -v/-q)")

	pf.StringVar(&a.config.StorePath, "store", a.config.StorePath, "SQLite store path (default is an in-memory store)")
	pf.StringVar(&a.config.TaxonomyPath, "taxonomy", a.config.TaxonomyPath, "industry taxonomy master CSV")
	pf.StringVar(&a.config.PolicyPath, "policies", a.config.PolicyPath, "merge policy YAML overlay")

	pf.StringVar(&a.config.AuditPath, "audit-report", a.config.AuditPath, "append-only audit report CSV path")
	pf.StringVar(&a.config.NoMatchPath, "no-match-report", a.config.NoMatchPath, "unresolved record report CSV path")
	pf.StringVar(&a.config.ResumePath, "resume-file", a.config.ResumePath, "cursor file for resuming interrupted runs")

	pf.BoolVar(&a.config.DryRun, "dry-run", a.config.DryRun, "compute and report everything, write nothing")
	pf.IntVar(&a.config.Workers, "workers", a.config.Workers, "concurrent matching workers")
	pf.IntVar(&a.config.PageSize, "page-size", a.config.PageSize, "records per source page")
	pf.IntVar(&a.config.RecordLimit, "limit", a.config.RecordLimit, "stop after this many records (0 is unlimited)")
	pf.IntVar(&a.config.StopAfterMerges, "stop-after-merges", a.config.StopAfterMerges, "stop after this many merges (0 is unlimited)")
	pf.DurationVar(&a.config.Sleep, "sleep", a.config.Sleep, "pause between pages")

	rootCmd.SetVersionTemplate("companysync {{.Version}}\n")

	rootCmd.AddCommand(
		cmd.NewImportCommand(a),
		cmd.NewBackfillCommand(a),
		cmd.NewDedupeCommand(a),
		cmd.NewTaxonomyCommand(a),
		cmd.NewVersionCommand(a.version, a.commit, a.date),
	)

	return rootCmd
}

// setupCommand runs before any command: flags have been parsed, so the
// logger is rebuilt to honor them.
func (a *App) setupCommand(_ *cobra.Command, _ []string) error {
	logger := NewLogger(a.config)
	a.logger = &logger
	return nil
}
