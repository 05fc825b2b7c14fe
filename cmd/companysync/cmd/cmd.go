// Package cmd holds the companysync subcommands. Each command pulls its
// dependencies from the App interface so the app package can wire them
// without a package cycle.
package cmd

import (
	companies "github.com/harukiyade/road-companiesInfo-sub000"
	"github.com/harukiyade/road-companiesInfo-sub000/pkg/batch"
)

// App is the slice of the application the commands need: a configured
// client and the run configuration assembled from flags.
type App interface {
	Client() (companies.Client, error)
	BatchConfig() batch.Config
}
