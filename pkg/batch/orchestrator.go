package batch

import (
	"context"
	"sync"
	"time"

	"github.com/harukiyade/road-companiesInfo-sub000/pkg/entity"
	"github.com/harukiyade/road-companiesInfo-sub000/pkg/errors"
	"github.com/harukiyade/road-companiesInfo-sub000/pkg/logging"
	"github.com/harukiyade/road-companiesInfo-sub000/pkg/match"
	"github.com/harukiyade/road-companiesInfo-sub000/pkg/merge"
	"github.com/harukiyade/road-companiesInfo-sub000/pkg/report"
	"github.com/harukiyade/road-companiesInfo-sub000/pkg/store"
)

// WriteBatchCap is the write accumulation limit. It sits below the
// store's hard per-batch limit so merge-induced deletes have headroom.
const WriteBatchCap = 450

// Config tunes one run.
type Config struct {
	// Workers bounds the concurrent locate-and-score phase.
	Workers int
	// PageSize is how many records each source page carries.
	PageSize int
	// ChunkSize partitions a page between stop-condition checks.
	ChunkSize int
	// DryRun computes everything and issues zero writes.
	DryRun bool
	// RecordLimit stops the run after this many records. Zero is
	// unlimited.
	RecordLimit int
	// StopAfterMerges stops the run after this many successful merges.
	// Zero is unlimited.
	StopAfterMerges int
	// Sleep is the rate-limiting pause between pages.
	Sleep time.Duration
	// ResumeCursor starts the run after this cursor. The resume file,
	// when present, takes precedence.
	ResumeCursor string
}

func (c Config) withDefaults() Config {
	if c.Workers <= 0 {
		c.Workers = 4
	}
	if c.PageSize <= 0 {
		c.PageSize = 200
	}
	if c.ChunkSize <= 0 {
		c.ChunkSize = 50
	}
	return c
}

// Stats summarizes one run.
type Stats struct {
	Processed   int
	Merged      int
	Created     int
	Ambiguous   int
	Collapsed   int
	Skipped     int
	WriteErrors int
	Pages       int
	LastCursor  string
}

// Orchestrator wires the locator, merge engine, store, and report
// writers into a resumable batch run.
type Orchestrator struct {
	store   store.Store
	locator *match.Locator
	engine  *merge.Engine
	audit   *report.Writer
	noMatch *report.NoMatchWriter
	resume  *ResumeFile
	cfg     Config
}

// Option configures an Orchestrator.
type Option func(*Orchestrator)

// WithAudit attaches the audit report writer.
func WithAudit(w *report.Writer) Option {
	return func(o *Orchestrator) { o.audit = w }
}

// WithNoMatchReport attaches the no-match report writer.
func WithNoMatchReport(w *report.NoMatchWriter) Option {
	return func(o *Orchestrator) { o.noMatch = w }
}

// WithResumeFile persists the committed cursor to path between pages.
func WithResumeFile(path string) Option {
	return func(o *Orchestrator) { o.resume = &ResumeFile{Path: path} }
}

// New returns an orchestrator over the given collaborators.
func New(s store.Store, engine *merge.Engine, cfg Config, opts ...Option) *Orchestrator {
	o := &Orchestrator{
		store:   s,
		locator: match.NewLocator(s),
		engine:  engine,
		cfg:     cfg.withDefaults(),
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// recordResult is one worker's output, handed back to the coordinator.
type recordResult struct {
	rec     *entity.IncomingRecord
	res     *match.Result
	outcome *merge.Outcome
	err     error
}

// Run drives the pipeline over the source until it is exhausted, a stop
// condition triggers, or a page fails fatally. A fatal page persists the
// last committed cursor and returns a resumable error; no retry loop
// spans more than one page. An early stop likewise leaves the cursor and
// the resume file at the last fully-processed page boundary, so the
// remainder is reachable by a later run.
func (o *Orchestrator) Run(ctx context.Context, src Source) (*Stats, error) {
	cursor := o.cfg.ResumeCursor
	if saved, err := o.resume.Load(); err != nil {
		return nil, err
	} else if saved != "" {
		cursor = saved
	}

	log := logging.Ctx(ctx)
	stats := &Stats{LastCursor: cursor}
	pending := newBatchQueue(o.store, o.cfg.DryRun)
	stopped := false

	for pageNum := 1; ; pageNum++ {
		if err := ctx.Err(); err != nil {
			return stats, errors.NewBatchError(pageNum, stats.LastCursor, err)
		}

		var (
			records []*entity.IncomingRecord
			next    string
		)
		err := withRetry(ctx, "paginate", func() error {
			var err error
			records, next, err = src.NextPage(ctx, cursor, o.cfg.PageSize)
			return err
		})
		if err != nil {
			return stats, errors.NewBatchError(pageNum, stats.LastCursor, err)
		}
		if len(records) == 0 && next == "" {
			break
		}

		rows := &pageAudit{}
		stop, err := o.processPage(ctx, pageNum, records, pending, rows, stats)
		if err != nil {
			return stats, errors.NewBatchError(pageNum, stats.LastCursor, err)
		}

		// the cursor only advances after the page's writes committed
		if err := pending.flush(ctx); err != nil {
			o.drainWriteFailures(pending, rows, stats)
			return stats, errors.NewBatchError(pageNum, stats.LastCursor, err)
		}
		o.drainWriteFailures(pending, rows, stats)
		if o.audit != nil {
			for _, row := range rows.rows {
				if err := o.audit.Append(row); err != nil {
					return stats, errors.NewBatchError(pageNum, stats.LastCursor, err)
				}
			}
			if err := o.audit.Flush(); err != nil {
				return stats, errors.NewBatchError(pageNum, stats.LastCursor, err)
			}
		}

		if stop {
			// a stop condition can fire mid-page. The cursor stays at the
			// last fully-processed page boundary and the resume file keeps
			// it, so a resumed run picks the remainder back up.
			stopped = true
			break
		}

		cursor = next
		stats.LastCursor = cursor
		stats.Pages = pageNum
		if err := o.resume.Save(cursor); err != nil {
			return stats, err
		}

		log.Debug().
			Int("page", pageNum).
			Int("records", len(records)).
			Str("cursor", cursor).
			Msg("page committed")

		if next == "" {
			break
		}
		if o.cfg.Sleep > 0 {
			select {
			case <-time.After(o.cfg.Sleep):
			case <-ctx.Done():
			}
		}
	}

	if o.noMatch != nil {
		if err := o.noMatch.Flush(); err != nil {
			return stats, err
		}
	}
	// an early-stopped run keeps its resume file; only source exhaustion
	// means the run is done
	if !stopped {
		if err := o.resume.Clear(); err != nil {
			return stats, err
		}
	}
	log.Info().
		Int("processed", stats.Processed).
		Int("merged", stats.Merged).
		Int("created", stats.Created).
		Int("collapsed", stats.Collapsed).
		Msg("run complete")
	return stats, nil
}

// processPage matches a page chunk by chunk and queues the resulting
// writes. Returns true when a stop condition triggered.
func (o *Orchestrator) processPage(ctx context.Context, pageNum int, records []*entity.IncomingRecord, pending *batchQueue, rows *pageAudit, stats *Stats) (bool, error) {
	for start := 0; start < len(records); start += o.cfg.ChunkSize {
		if o.stopConditionMet(stats) {
			return true, nil
		}
		end := start + o.cfg.ChunkSize
		if end > len(records) {
			end = len(records)
		}
		results := o.processChunk(ctx, records[start:end])
		for _, r := range results {
			if r.err != nil {
				return false, r.err
			}
			if err := o.commitResult(ctx, r, pending, rows, stats); err != nil {
				return false, err
			}
		}
	}
	return false, nil
}

// processChunk runs the read-only locate-score-decide phase for each
// record concurrently. Results come back in record order; queuing writes
// stays with the coordinator.
func (o *Orchestrator) processChunk(ctx context.Context, records []*entity.IncomingRecord) []recordResult {
	results := make([]recordResult, len(records))
	sem := make(chan struct{}, o.cfg.Workers)
	var wg sync.WaitGroup
	for i, rec := range records {
		wg.Add(1)
		sem <- struct{}{}
		go func(i int, rec *entity.IncomingRecord) {
			defer wg.Done()
			defer func() { <-sem }()
			results[i] = o.processRecord(ctx, rec)
		}(i, rec)
	}
	wg.Wait()
	return results
}

func (o *Orchestrator) processRecord(ctx context.Context, rec *entity.IncomingRecord) recordResult {
	out := recordResult{rec: rec}
	var cands []*entity.CanonicalEntity
	out.err = withRetry(ctx, "locate", func() error {
		var err error
		cands, err = o.locator.Locate(ctx, rec)
		return err
	})
	if out.err != nil {
		return out
	}
	out.res = match.Classify(rec, cands)
	out.outcome = o.engine.Decide(out.res, rec)
	return out
}

// commitResult queues one record's writes and audit rows.
func (o *Orchestrator) commitResult(ctx context.Context, r recordResult, pending *batchQueue, rows *pageAudit, stats *Stats) error {
	stats.Processed++

	switch r.outcome.Kind {
	case merge.Merged:
		stats.Merged++
	case merge.Created:
		stats.Created++
	}
	if r.res.Kind == match.Ambiguous {
		stats.Ambiguous++
	}
	stats.Collapsed += len(r.outcome.CollapsedIDs)
	if !r.outcome.Changed {
		stats.Skipped++
	}

	if r.outcome.Changed {
		if err := pending.add(ctx, r.outcome.Ops); err != nil {
			return err
		}
	}

	if o.audit != nil {
		ids := make([]string, len(r.outcome.Ops))
		for i, op := range r.outcome.Ops {
			ids[i] = op.ID
		}
		rows.add(o.auditRow(r), ids)
	}
	if o.noMatch != nil && r.res.Kind == match.Unmatched {
		if err := o.noMatch.Append(report.NoMatchRow{
			RecordID:        r.outcome.Entity.ID,
			Name:            r.rec.Get(entity.FieldName),
			CorporateNumber: r.rec.Get(entity.FieldCorporateNumber),
			Prefecture:      r.rec.EffectivePrefecture(),
			Reason:          "below minimum score",
		}); err != nil {
			return err
		}
	}
	return nil
}

func (o *Orchestrator) auditRow(r recordResult) report.Row {
	method := topSignal(r.res)
	if r.rec.Method != "" {
		// derived records name their own derivation; it says more than
		// the match signal against the record's own entity
		method = r.rec.Method
	}
	row := report.Row{
		RecordID:   r.rec.Get(entity.FieldCorporateNumber),
		EntityID:   r.outcome.Entity.ID,
		Outcome:    string(r.outcome.Kind),
		Method:     method,
		Confidence: string(r.res.Confidence),
		After:      r.outcome.Entity,
		Collapsed:  r.outcome.CollapsedIDs,
	}
	if row.RecordID == "" {
		row.RecordID = r.rec.Get(entity.FieldName)
	}
	if r.res.Best != nil {
		row.Before = r.res.Best.Entity
	}
	switch r.res.Kind {
	case match.Unmatched:
		row.Unresolved = "no candidate above minimum score"
	case match.Ambiguous:
		row.Unresolved = "ambiguous match, manual review"
		for _, c := range r.res.Candidates {
			row.Ambiguous = append(row.Ambiguous, c.Entity.ID)
		}
	}
	if len(r.rec.Candidates) > 0 {
		row.Ambiguous = append(row.Ambiguous, r.rec.Candidates...)
		if row.Unresolved == "" {
			row.Unresolved = "derived record needs manual review"
		}
	}
	return row
}

// pageAudit buffers one page's audit rows until the page's writes have
// flushed, so a row can name the write failure that hit its ops.
type pageAudit struct {
	rows  []report.Row
	opIDs [][]string
}

func (p *pageAudit) add(row report.Row, ids []string) {
	p.rows = append(p.rows, row)
	p.opIDs = append(p.opIDs, ids)
}

func (p *pageAudit) markFailed(failed map[string]error) {
	if len(failed) == 0 {
		return
	}
	for i, ids := range p.opIDs {
		for _, id := range ids {
			if err, ok := failed[id]; ok {
				p.rows[i].WriteError = err.Error()
				break
			}
		}
	}
}

// topSignal names the strongest contributing signal on the best
// candidate, the audit report's "method" column.
func topSignal(res *match.Result) string {
	if res == nil || res.Best == nil {
		return "none"
	}
	best, bestW := "none", 0
	for sig, w := range res.Best.Signals {
		if w > bestW || (w == bestW && sig < best) {
			best, bestW = sig, w
		}
	}
	return best
}

func (o *Orchestrator) stopConditionMet(stats *Stats) bool {
	if o.cfg.RecordLimit > 0 && stats.Processed >= o.cfg.RecordLimit {
		return true
	}
	if o.cfg.StopAfterMerges > 0 && stats.Merged >= o.cfg.StopAfterMerges {
		return true
	}
	return false
}

// drainWriteFailures moves per-op write failures from the queue into the
// stats and stamps the audit rows whose ops they hit.
func (o *Orchestrator) drainWriteFailures(pending *batchQueue, rows *pageAudit, stats *Stats) {
	failed := pending.takeFailures()
	stats.WriteErrors += len(failed)
	rows.markFailed(failed)
}

// batchQueue accumulates write ops and flushes them in store-sized
// batches. Owned by the coordinator only.
type batchQueue struct {
	store  store.Store
	dryRun bool
	ops    []store.Op
	failed map[string]error
}

func newBatchQueue(s store.Store, dryRun bool) *batchQueue {
	return &batchQueue{store: s, dryRun: dryRun}
}

// add queues ops, flushing first when the cap would be crossed. One
// record's ops never split across batches, so collapse deletes commit
// with or before their winner update.
func (q *batchQueue) add(ctx context.Context, ops []store.Op) error {
	if len(q.ops)+len(ops) > WriteBatchCap {
		if err := q.flush(ctx); err != nil {
			return err
		}
	}
	q.ops = append(q.ops, ops...)
	return nil
}

func (q *batchQueue) flush(ctx context.Context) error {
	if len(q.ops) == 0 {
		return nil
	}
	if q.dryRun {
		q.ops = q.ops[:0]
		return nil
	}
	var res *store.BatchResult
	err := withRetry(ctx, "batch-write", func() error {
		var err error
		res, err = q.store.BatchWrite(ctx, q.ops)
		return err
	})
	if err != nil {
		return err
	}
	// per-op failures stay per-record: they are kept by op ID so the
	// audit rows can carry them, not fatal to the batch
	for _, opRes := range res.Results {
		if opRes.Err == nil {
			continue
		}
		logging.Err(opRes.Err).Str("id", opRes.ID).Msg("write op failed")
		if q.failed == nil {
			q.failed = make(map[string]error)
		}
		q.failed[opRes.ID] = opRes.Err
	}
	q.ops = q.ops[:0]
	return nil
}

// takeFailures returns and resets the per-op failures, keyed by op ID.
func (q *batchQueue) takeFailures() map[string]error {
	f := q.failed
	q.failed = nil
	return f
}
