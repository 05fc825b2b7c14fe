// Package companies reconciles incoming company records against a
// canonical company store. It wires the normalizer, taxonomy index,
// candidate matcher, merge engine, and batch orchestrator behind a
// single client so callers configure one thing and run pipelines.
package companies

import (
	"context"
	"fmt"

	"github.com/harukiyade/road-companiesInfo-sub000/internal/layout"
	"github.com/harukiyade/road-companiesInfo-sub000/pkg/batch"
	"github.com/harukiyade/road-companiesInfo-sub000/pkg/entity"
	"github.com/harukiyade/road-companiesInfo-sub000/pkg/errors"
	"github.com/harukiyade/road-companiesInfo-sub000/pkg/logging"
	"github.com/harukiyade/road-companiesInfo-sub000/pkg/merge"
	"github.com/harukiyade/road-companiesInfo-sub000/pkg/report"
	"github.com/harukiyade/road-companiesInfo-sub000/pkg/store"
	"github.com/harukiyade/road-companiesInfo-sub000/pkg/store/memory"
	"github.com/harukiyade/road-companiesInfo-sub000/pkg/store/sqlite"
	"github.com/harukiyade/road-companiesInfo-sub000/pkg/taxonomy"
)

// Client runs reconciliation pipelines against one canonical store.
type Client interface {
	// Store returns the canonical store the client writes to.
	Store() store.Store

	// Taxonomy returns the loaded industry taxonomy index, nil when the
	// client was built without one.
	Taxonomy() *taxonomy.Index

	// ImportFile reads one CSV file, detects its column layout, and runs
	// every row through the reconciliation pipeline.
	ImportFile(ctx context.Context, path string, cfg batch.Config) (*batch.Stats, error)

	// ImportScraped runs scraped homepage field maps through the
	// pipeline. Maps without a usable name or registration number are
	// skipped.
	ImportScraped(ctx context.Context, scrapes []map[string]string, cfg batch.Config) (*batch.Stats, error)

	// BackfillIndustries re-classifies every stored entity's industry
	// fields against the taxonomy master and writes back resolved
	// canonical triples. Requires a taxonomy index.
	BackfillIndustries(ctx context.Context, cfg batch.Config) (*batch.Stats, error)

	// Dedupe re-runs every stored entity through the matcher so entities
	// sharing a registration number or strong field agreement collapse
	// into one survivor.
	Dedupe(ctx context.Context, cfg batch.Config) (*batch.Stats, error)

	// Run feeds an arbitrary record source through the pipeline.
	Run(ctx context.Context, src batch.Source, cfg batch.Config) (*batch.Stats, error)

	// Close releases the store and report files the client opened.
	Close() error
}

type client struct {
	store    store.Store
	taxonomy *taxonomy.Index
	engine   *merge.Engine

	audit      *report.Writer
	noMatch    *report.NoMatchWriter
	resumePath string

	closers []func() error
}

// New builds a client from the given options. Without options it runs
// against an in-memory store with the compiled-in merge policies, which
// is what tests and dry runs want.
func New(opts ...Option) (Client, error) {
	cfg := &config{}
	for _, opt := range opts {
		if err := opt(cfg); err != nil {
			return nil, fmt.Errorf("applying options: %w", err)
		}
	}

	c := &client{resumePath: cfg.resumePath}

	switch {
	case cfg.store != nil:
		c.store = cfg.store
	case cfg.storePath != "":
		s, err := sqlite.Open(cfg.storePath)
		if err != nil {
			return nil, fmt.Errorf("opening store: %w", err)
		}
		c.store = s
		c.closers = append(c.closers, s.Close)
	default:
		c.store = memory.New()
	}

	switch {
	case cfg.taxonomy != nil:
		c.taxonomy = cfg.taxonomy
	case cfg.taxonomyPath != "":
		idx, err := taxonomy.LoadFile(cfg.taxonomyPath)
		if err != nil {
			return nil, fmt.Errorf("loading taxonomy: %w", err)
		}
		c.taxonomy = idx
	}

	policies := cfg.policies
	if policies == nil && cfg.policyPath != "" {
		loaded, err := merge.LoadPoliciesFile(cfg.policyPath)
		if err != nil {
			return nil, fmt.Errorf("loading merge policies: %w", err)
		}
		policies = loaded
	}
	if policies == nil {
		policies = merge.DefaultPolicies()
	}
	c.engine = merge.NewEngine(policies)

	if cfg.auditPath != "" {
		w, err := report.NewWriter(cfg.auditPath)
		if err != nil {
			c.Close()
			return nil, fmt.Errorf("opening audit report: %w", err)
		}
		c.audit = w
		c.closers = append(c.closers, w.Close)
	}
	if cfg.noMatchPath != "" {
		w, err := report.NewNoMatchWriter(cfg.noMatchPath)
		if err != nil {
			c.Close()
			return nil, fmt.Errorf("opening no-match report: %w", err)
		}
		c.noMatch = w
		c.closers = append(c.closers, w.Close)
	}

	return c, nil
}

func (c *client) Store() store.Store { return c.store }

func (c *client) Taxonomy() *taxonomy.Index { return c.taxonomy }

func (c *client) batchOptions() []batch.Option {
	var opts []batch.Option
	if c.audit != nil {
		opts = append(opts, batch.WithAudit(c.audit))
	}
	if c.noMatch != nil {
		opts = append(opts, batch.WithNoMatchReport(c.noMatch))
	}
	if c.resumePath != "" {
		opts = append(opts, batch.WithResumeFile(c.resumePath))
	}
	return opts
}

// Run feeds an arbitrary record source through the pipeline.
func (c *client) Run(ctx context.Context, src batch.Source, cfg batch.Config) (*batch.Stats, error) {
	o := batch.New(c.store, c.engine, cfg, c.batchOptions()...)
	return o.Run(ctx, src)
}

// ImportFile reads one CSV file and runs its rows through the pipeline.
func (c *client) ImportFile(ctx context.Context, path string, cfg batch.Config) (*batch.Stats, error) {
	records, mapper, err := layout.ReadFile(path)
	if err != nil {
		return nil, err
	}
	logging.Ctx(ctx).Info().
		Str("file", path).
		Str("layout", string(mapper.Variant)).
		Int("records", len(records)).
		Msg("csv layout detected")
	return c.Run(ctx, &batch.SliceSource{Records: records}, cfg)
}

// ImportScraped maps scraped homepage fields into records and runs them
// through the pipeline.
func (c *client) ImportScraped(ctx context.Context, scrapes []map[string]string, cfg batch.Config) (*batch.Stats, error) {
	records := make([]*entity.IncomingRecord, 0, len(scrapes))
	for _, fields := range scrapes {
		rec := layout.MapScraped(fields)
		// without a name or registration number the record can never
		// locate anything and would only create a junk entity
		if rec.NameKey() == "" && rec.Registration() == "" {
			continue
		}
		records = append(records, rec)
	}
	return c.Run(ctx, &batch.SliceSource{Records: records}, cfg)
}

// BackfillIndustries pages the store and writes back canonical industry
// triples for entities whose fields resolve against the master.
func (c *client) BackfillIndustries(ctx context.Context, cfg batch.Config) (*batch.Stats, error) {
	if c.taxonomy == nil {
		return nil, errors.NewValidationError("taxonomy", "", "industry backfill requires a taxonomy index")
	}
	src := &batch.StoreSource{Store: c.store, Transform: c.industryRecord}
	return c.Run(ctx, src, cfg)
}

// industryRecord derives the taxonomy-backfill record for one entity,
// nil when its industry fields are already canonical or nothing
// resolves. Records from ambiguous classifications carry the candidate
// triples so the audit report surfaces them for review.
func (c *client) industryRecord(e *entity.CanonicalEntity) *entity.IncomingRecord {
	cl := c.taxonomy.Classify(taxonomy.Fields{
		Large:    e.IndustryLarge,
		Middle:   e.IndustryMiddle,
		Small:    e.IndustrySmall,
		Detail:   e.IndustryDetail,
		FreeText: append([]string{e.CompanyDescription}, e.BusinessDescriptions...),
	})
	if cl.Method == taxonomy.MethodExact {
		return nil
	}
	// low confidence means an ambiguous substring match; writing its
	// first hit would overwrite the triple with a guess. Those fall back
	// to standalone spelling fixes and keep their candidates for review.
	if !cl.Resolved() || cl.Confidence == taxonomy.ConfidenceLow {
		return c.standaloneIndustryRecord(e, cl)
	}
	rec := backfillRecord(e)
	rec.Method = string(cl.Method)
	rec.Set(entity.FieldIndustryLarge, cl.Node.Large)
	rec.Set(entity.FieldIndustryMiddle, cl.Node.Middle)
	rec.Set(entity.FieldIndustrySmall, cl.Node.Small)
	if cl.ManualReview {
		rec.Candidates = candidateTriples(cl)
	}
	return rec
}

func candidateTriples(cl taxonomy.Classification) []string {
	out := make([]string, len(cl.Candidates))
	for i, n := range cl.Candidates {
		out[i] = n.Large + "/" + n.Middle + "/" + n.Small
	}
	return out
}

// standaloneIndustryRecord is the last-resort fallback when no
// classification can be trusted with the whole triple: each level value
// that matches the master on its own is rewritten in the master's
// spelling, everything else keeps the stored value. Ambiguous
// classification candidates ride along for review. Nil when there is
// neither a spelling change nor anything to review.
func (c *client) standaloneIndustryRecord(e *entity.CanonicalEntity, cl taxonomy.Classification) *entity.IncomingRecord {
	levels := []struct {
		field, value string
		level        taxonomy.Level
	}{
		{entity.FieldIndustryLarge, e.IndustryLarge, taxonomy.LevelLarge},
		{entity.FieldIndustryMiddle, e.IndustryMiddle, taxonomy.LevelMiddle},
		{entity.FieldIndustrySmall, e.IndustrySmall, taxonomy.LevelSmall},
	}
	rec := backfillRecord(e)
	changed := false
	for _, l := range levels {
		canon, ok := c.taxonomy.CanonicalValue(l.value, l.level)
		if !ok || canon == l.value {
			continue
		}
		rec.Set(l.field, canon)
		changed = true
	}
	if !changed && !cl.ManualReview {
		return nil
	}
	if changed {
		rec.Method = string(taxonomy.MethodStandalone)
	} else {
		rec.Method = string(cl.Method)
	}
	if cl.ManualReview {
		rec.Candidates = candidateTriples(cl)
	}
	return rec
}

// backfillRecord restates an entity's identifying fields so the locator
// lands back on it.
func backfillRecord(e *entity.CanonicalEntity) *entity.IncomingRecord {
	rec := entity.NewRecord(entity.SourceTaxonomy)
	rec.Set(entity.FieldCorporateNumber, e.Registration())
	rec.Set(entity.FieldName, e.Name)
	rec.Set(entity.FieldPrefecture, e.EffectivePrefecture())
	rec.Set(entity.FieldAddress, e.Address)
	rec.Set(entity.FieldRepresentativeName, e.RepresentativeName)
	return rec
}

// Dedupe pages the store and re-runs each entity's own identifying
// fields through the matcher, collapsing duplicate entities.
func (c *client) Dedupe(ctx context.Context, cfg batch.Config) (*batch.Stats, error) {
	src := &batch.StoreSource{Store: c.store, Transform: dedupeRecord}
	return c.Run(ctx, src, cfg)
}

// dedupeRecord restates an entity's identifying fields as a record. The
// record changes nothing on the winner; it exists so the locator and
// scorer find the entity's duplicates.
func dedupeRecord(e *entity.CanonicalEntity) *entity.IncomingRecord {
	rec := entity.NewRecord(entity.SourceDedupe)
	rec.Set(entity.FieldCorporateNumber, e.Registration())
	rec.Set(entity.FieldName, e.Name)
	rec.Set(entity.FieldPrefecture, e.EffectivePrefecture())
	rec.Set(entity.FieldAddress, e.Address)
	rec.Set(entity.FieldRepresentativeName, e.RepresentativeName)
	if rec.NameKey() == "" && rec.Registration() == "" {
		return nil
	}
	return rec
}

// Close releases everything the client opened, last first.
func (c *client) Close() error {
	var first error
	for i := len(c.closers) - 1; i >= 0; i-- {
		if err := c.closers[i](); err != nil && first == nil {
			first = err
		}
	}
	c.closers = nil
	return first
}
