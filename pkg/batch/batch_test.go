package batch

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/harukiyade/road-companiesInfo-sub000/pkg/entity"
	"github.com/harukiyade/road-companiesInfo-sub000/pkg/errors"
	"github.com/harukiyade/road-companiesInfo-sub000/pkg/merge"
	"github.com/harukiyade/road-companiesInfo-sub000/pkg/report"
	"github.com/harukiyade/road-companiesInfo-sub000/pkg/store"
	"github.com/harukiyade/road-companiesInfo-sub000/pkg/store/memory"
)

func record(fields map[string]string) *entity.IncomingRecord {
	r := entity.NewRecord(entity.SourceCSVCompany)
	for k, v := range fields {
		r.Set(k, v)
	}
	return r
}

func newOrchestrator(s *memory.Store, cfg Config, opts ...Option) *Orchestrator {
	return New(s, merge.NewEngine(merge.DefaultPolicies()), cfg, opts...)
}

func TestRunCreatesAndMerges(t *testing.T) {
	s := memory.New()
	s.Seed(&entity.CanonicalEntity{
		ID:              "1234567890123",
		CorporateNumber: "1234567890123",
		Name:            "株式会社既存",
	})

	src := &SliceSource{Records: []*entity.IncomingRecord{
		record(map[string]string{
			entity.FieldCorporateNumber: "1234567890123",
			entity.FieldAddress:         "東京都港区1-2-3",
		}),
		record(map[string]string{
			entity.FieldName:            "株式会社新規",
			entity.FieldCorporateNumber: "9876543210987",
		}),
	}}

	stats, err := newOrchestrator(s, Config{Workers: 2}).Run(context.Background(), src)
	require.NoError(t, err)
	assert.Equal(t, 2, stats.Processed)
	assert.Equal(t, 1, stats.Merged)
	assert.Equal(t, 1, stats.Created)

	got, err := s.GetByID(context.Background(), "1234567890123")
	require.NoError(t, err)
	assert.Equal(t, "東京都港区1-2-3", got.Address, "merge filled the empty address")

	created, err := s.GetByID(context.Background(), "9876543210987")
	require.NoError(t, err)
	assert.Equal(t, "株式会社新規", created.Name)
}

func TestRunDryRunWritesNothing(t *testing.T) {
	s := memory.New()
	src := &SliceSource{Records: []*entity.IncomingRecord{
		record(map[string]string{entity.FieldName: "株式会社新規"}),
	}}

	stats, err := newOrchestrator(s, Config{DryRun: true}).Run(context.Background(), src)
	require.NoError(t, err)
	assert.Equal(t, 1, stats.Created)
	assert.Zero(t, s.Len(), "dry run issues zero writes")
}

func TestRunRecordLimit(t *testing.T) {
	s := memory.New()
	var records []*entity.IncomingRecord
	for i := 0; i < 10; i++ {
		records = append(records, record(map[string]string{
			entity.FieldName: "会社" + string(rune('A'+i)),
		}))
	}

	stats, err := newOrchestrator(s, Config{RecordLimit: 3, ChunkSize: 1}).
		Run(context.Background(), &SliceSource{Records: records})
	require.NoError(t, err)
	assert.Equal(t, 3, stats.Processed)
}

func TestRunRecoversFromTransientError(t *testing.T) {
	s := memory.New()
	s.Seed(&entity.CanonicalEntity{
		ID:              "1234567890123",
		CorporateNumber: "1234567890123",
	})
	s.FailNext(1, errors.NewStoreError("get", "", true, errors.ErrStoreUnavailable))

	src := &SliceSource{Records: []*entity.IncomingRecord{
		record(map[string]string{entity.FieldCorporateNumber: "1234567890123", entity.FieldPrefecture: "東京都"}),
	}}

	stats, err := newOrchestrator(s, Config{}).Run(context.Background(), src)
	require.NoError(t, err)
	assert.Equal(t, 1, stats.Merged)
}

// failingSource fails every fetch of the given page number.
type failingSource struct {
	inner  Source
	page   int
	calls  int
	failAt int
}

func (f *failingSource) NextPage(ctx context.Context, cursor string, size int) ([]*entity.IncomingRecord, string, error) {
	f.calls++
	if f.calls == f.failAt {
		return nil, "", errors.New("store exploded")
	}
	return f.inner.NextPage(ctx, cursor, size)
}

func TestRunFatalPagePersistsCursor(t *testing.T) {
	s := memory.New()
	resumePath := filepath.Join(t.TempDir(), "resume")

	var records []*entity.IncomingRecord
	for i := 0; i < 4; i++ {
		records = append(records, record(map[string]string{
			entity.FieldName: "会社" + string(rune('A'+i)),
		}))
	}
	src := &failingSource{
		inner:  &SliceSource{Records: records},
		failAt: 2, // second page
	}

	o := newOrchestrator(s, Config{PageSize: 2}, WithResumeFile(resumePath))
	stats, err := o.Run(context.Background(), src)
	require.Error(t, err)

	var be *errors.BatchError
	require.ErrorAs(t, err, &be)
	assert.Equal(t, "2", be.Cursor, "cursor of the last committed page")
	assert.Equal(t, 2, stats.Processed)

	saved, readErr := os.ReadFile(resumePath)
	require.NoError(t, readErr)
	assert.Equal(t, "2", strings.TrimSpace(string(saved)))

	// a fresh run picks up from the resume file and finishes the rest
	stats, err = newOrchestrator(s, Config{PageSize: 2}, WithResumeFile(resumePath)).
		Run(context.Background(), &SliceSource{Records: records})
	require.NoError(t, err)
	assert.Equal(t, 2, stats.Processed, "committed records are not reprocessed")
	assert.Equal(t, 4, s.Len())

	_, statErr := os.Stat(resumePath)
	assert.True(t, os.IsNotExist(statErr), "resume file cleared after a complete run")
}

func TestRunStopKeepsCursorAtPageBoundary(t *testing.T) {
	s := memory.New()
	resumePath := filepath.Join(t.TempDir(), "resume")

	var records []*entity.IncomingRecord
	for i := 0; i < 6; i++ {
		records = append(records, record(map[string]string{
			entity.FieldName: "会社" + string(rune('A'+i)),
		}))
	}

	o := newOrchestrator(s, Config{PageSize: 2, RecordLimit: 2}, WithResumeFile(resumePath))
	stats, err := o.Run(context.Background(), &SliceSource{Records: records})
	require.NoError(t, err)
	assert.Equal(t, 2, stats.Processed)
	assert.Equal(t, "2", stats.LastCursor, "cursor stays at the last fully-processed boundary")

	saved, readErr := os.ReadFile(resumePath)
	require.NoError(t, readErr)
	assert.Equal(t, "2", strings.TrimSpace(string(saved)), "an early stop keeps the resume file")

	// a later unlimited run picks up the remainder and finishes
	stats, err = newOrchestrator(s, Config{PageSize: 2}, WithResumeFile(resumePath)).
		Run(context.Background(), &SliceSource{Records: records})
	require.NoError(t, err)
	assert.Equal(t, 4, stats.Processed)
	assert.Equal(t, 6, s.Len())

	_, statErr := os.Stat(resumePath)
	assert.True(t, os.IsNotExist(statErr), "resume file cleared after a complete run")
}

// opFailStore rejects every batch op without failing the batch itself.
type opFailStore struct {
	*memory.Store
}

func (s *opFailStore) BatchWrite(ctx context.Context, ops []store.Op) (*store.BatchResult, error) {
	res := &store.BatchResult{Results: make([]store.OpResult, len(ops))}
	for i, op := range ops {
		res.Results[i] = store.OpResult{ID: op.ID, Err: errors.New("op rejected")}
	}
	return res, nil
}

func TestRunPerOpWriteFailureReachesAuditRow(t *testing.T) {
	auditPath := filepath.Join(t.TempDir(), "audit.csv")
	audit, err := report.NewWriter(auditPath)
	require.NoError(t, err)

	s := &opFailStore{Store: memory.New()}
	src := &SliceSource{Records: []*entity.IncomingRecord{
		record(map[string]string{entity.FieldName: "株式会社新規"}),
	}}

	o := New(s, merge.NewEngine(merge.DefaultPolicies()), Config{}, WithAudit(audit))
	stats, err := o.Run(context.Background(), src)
	require.NoError(t, err)
	assert.Equal(t, 1, stats.WriteErrors)

	require.NoError(t, audit.Close())
	data, err := os.ReadFile(auditPath)
	require.NoError(t, err)
	assert.Contains(t, string(data), "op rejected", "the failed record's row names the write error")
}

func TestRunDuplicateCollapse(t *testing.T) {
	s := memory.New()
	s.Seed(
		&entity.CanonicalEntity{ID: "a", Name: "株式会社テスト", Prefecture: "東京都", RepresentativeName: "山田太郎"},
		&entity.CanonicalEntity{ID: "b", Name: "株式会社テスト", Prefecture: "東京都", RepresentativeName: "山田太郎", Banks: []string{"A銀行"}},
	)

	src := &SliceSource{Records: []*entity.IncomingRecord{
		record(map[string]string{
			entity.FieldName:               "株式会社テスト",
			entity.FieldPrefecture:         "東京都",
			entity.FieldRepresentativeName: "山田太郎",
		}),
	}}

	stats, err := newOrchestrator(s, Config{}).Run(context.Background(), src)
	require.NoError(t, err)
	assert.Equal(t, 1, stats.Merged)
	assert.Equal(t, 1, stats.Collapsed)

	assert.Equal(t, 1, s.Len(), "loser deleted")
	winner, err := s.GetByID(context.Background(), "a")
	require.NoError(t, err)
	assert.Equal(t, []string{"A銀行"}, winner.Banks, "loser values folded into winner")
}

func TestRunWritesAuditReport(t *testing.T) {
	dir := t.TempDir()
	auditPath := filepath.Join(dir, "audit.csv")
	noMatchPath := filepath.Join(dir, "nomatch.csv")

	audit, err := report.NewWriter(auditPath)
	require.NoError(t, err)
	noMatch, err := report.NewNoMatchWriter(noMatchPath)
	require.NoError(t, err)

	s := memory.New()
	src := &SliceSource{Records: []*entity.IncomingRecord{
		record(map[string]string{entity.FieldName: "株式会社新規"}),
	}}

	o := newOrchestrator(s, Config{}, WithAudit(audit), WithNoMatchReport(noMatch))
	_, err = o.Run(context.Background(), src)
	require.NoError(t, err)
	require.NoError(t, audit.Close())
	require.NoError(t, noMatch.Close())

	auditData, err := os.ReadFile(auditPath)
	require.NoError(t, err)
	assert.Contains(t, string(auditData), "created")

	noMatchData, err := os.ReadFile(noMatchPath)
	require.NoError(t, err)
	assert.Contains(t, string(noMatchData), "株式会社新規")
}

func TestStoreSourceTransform(t *testing.T) {
	s := memory.New()
	s.Seed(
		&entity.CanonicalEntity{ID: "a", Name: "対象", IndustrySmall: "ソフトウェア業"},
		&entity.CanonicalEntity{ID: "b", Name: "対象外"},
	)

	src := &StoreSource{
		Store: s,
		Transform: func(e *entity.CanonicalEntity) *entity.IncomingRecord {
			if e.IndustrySmall == "" {
				return nil
			}
			r := entity.NewRecord(entity.SourceTaxonomy)
			r.Set(entity.FieldName, e.Name)
			return r
		},
	}

	records, next, err := src.NextPage(context.Background(), "", 10)
	require.NoError(t, err)
	assert.Empty(t, next)
	require.Len(t, records, 1)
	assert.Equal(t, "対象", records[0].Get(entity.FieldName))
}
