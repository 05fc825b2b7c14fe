// Package app provides the application context and dependency management
// for the companysync CLI: configuration, logging, and the lazily built
// reconciliation client.
package app

import (
	"context"
	"sync"

	"github.com/rs/zerolog"

	companies "github.com/harukiyade/road-companiesInfo-sub000"
	"github.com/harukiyade/road-companiesInfo-sub000/pkg/batch"
)

// App represents the companysync application with all its dependencies.
type App struct {
	version string
	commit  string
	date    string

	config *Config
	logger *zerolog.Logger

	// client is lazy-initialized, one per process
	mu     sync.Mutex
	client companies.Client
}

// New creates a new App instance with the given version information.
func New(version, commit, date string) (*App, error) {
	a := &App{
		version: version,
		commit:  commit,
		date:    date,
	}

	config, err := LoadConfig()
	if err != nil {
		return nil, err
	}
	a.config = config

	logger := NewLogger(config)
	a.logger = &logger

	return a, nil
}

// Version returns the version string.
func (a *App) Version() string { return a.version }

// Commit returns the git commit hash.
func (a *App) Commit() string { return a.commit }

// Date returns the build date.
func (a *App) Date() string { return a.date }

// Config returns the application configuration.
func (a *App) Config() *Config { return a.config }

// Logger returns the application logger.
func (a *App) Logger() *zerolog.Logger { return a.logger }

// Client returns the reconciliation client, creating it on first use.
func (a *App) Client() (companies.Client, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.client != nil {
		return a.client, nil
	}

	client, err := companies.New(a.buildClientOptions()...)
	if err != nil {
		return nil, err
	}
	a.client = client
	return client, nil
}

// buildClientOptions translates the loaded configuration into client
// options. Unset paths simply leave the corresponding option off, which
// for the store means an in-memory one.
func (a *App) buildClientOptions() []companies.Option {
	var opts []companies.Option
	if a.config.StorePath != "" {
		opts = append(opts, companies.WithSQLiteStore(a.config.StorePath))
	}
	if a.config.TaxonomyPath != "" {
		opts = append(opts, companies.WithTaxonomyFile(a.config.TaxonomyPath))
	}
	if a.config.PolicyPath != "" {
		opts = append(opts, companies.WithPolicyFile(a.config.PolicyPath))
	}
	if a.config.AuditPath != "" {
		opts = append(opts, companies.WithAuditReport(a.config.AuditPath))
	}
	if a.config.NoMatchPath != "" {
		opts = append(opts, companies.WithNoMatchReport(a.config.NoMatchPath))
	}
	if a.config.ResumePath != "" {
		opts = append(opts, companies.WithResumeFile(a.config.ResumePath))
	}
	return opts
}

// BatchConfig assembles the batch run configuration from flags and
// environment.
func (a *App) BatchConfig() batch.Config {
	return batch.Config{
		Workers:         a.config.Workers,
		PageSize:        a.config.PageSize,
		DryRun:          a.config.DryRun,
		RecordLimit:     a.config.RecordLimit,
		StopAfterMerges: a.config.StopAfterMerges,
		Sleep:           a.config.Sleep,
	}
}

// Shutdown releases everything the app opened.
func (a *App) Shutdown(_ context.Context) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.client == nil {
		return nil
	}
	err := a.client.Close()
	a.client = nil
	return err
}
