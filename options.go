package companies

import (
	"github.com/harukiyade/road-companiesInfo-sub000/pkg/merge"
	"github.com/harukiyade/road-companiesInfo-sub000/pkg/store"
	"github.com/harukiyade/road-companiesInfo-sub000/pkg/taxonomy"
)

// Option is a function that configures a Client instance.
type Option func(*config) error

type config struct {
	store     store.Store
	storePath string

	taxonomy     *taxonomy.Index
	taxonomyPath string

	policies   merge.Policies
	policyPath string

	auditPath   string
	noMatchPath string
	resumePath  string
}

// WithStore configures an already-open canonical store. The client does
// not close it.
func WithStore(s store.Store) Option {
	return func(c *config) error {
		c.store = s
		return nil
	}
}

// WithSQLiteStore configures a SQLite document store at the given path,
// opened by the client and closed with it.
func WithSQLiteStore(path string) Option {
	return func(c *config) error {
		c.storePath = path
		return nil
	}
}

// WithTaxonomy configures an already-loaded industry taxonomy index.
func WithTaxonomy(idx *taxonomy.Index) Option {
	return func(c *config) error {
		c.taxonomy = idx
		return nil
	}
}

// WithTaxonomyFile configures the industry master CSV to load the
// taxonomy index from.
func WithTaxonomyFile(path string) Option {
	return func(c *config) error {
		c.taxonomyPath = path
		return nil
	}
}

// WithPolicies configures the merge policy set directly.
func WithPolicies(p merge.Policies) Option {
	return func(c *config) error {
		c.policies = p
		return nil
	}
}

// WithPolicyFile configures a YAML policy document overlaid on the
// compiled-in merge policies.
func WithPolicyFile(path string) Option {
	return func(c *config) error {
		c.policyPath = path
		return nil
	}
}

// WithAuditReport configures the append-only audit CSV every processed
// record is written to.
func WithAuditReport(path string) Option {
	return func(c *config) error {
		c.auditPath = path
		return nil
	}
}

// WithNoMatchReport configures the CSV unresolved records are written
// to.
func WithNoMatchReport(path string) Option {
	return func(c *config) error {
		c.noMatchPath = path
		return nil
	}
}

// WithResumeFile configures the cursor file that lets an interrupted run
// pick up where it stopped.
func WithResumeFile(path string) Option {
	return func(c *config) error {
		c.resumePath = path
		return nil
	}
}
