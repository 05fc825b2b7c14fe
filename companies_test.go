package companies

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/harukiyade/road-companiesInfo-sub000/pkg/batch"
	"github.com/harukiyade/road-companiesInfo-sub000/pkg/entity"
	"github.com/harukiyade/road-companiesInfo-sub000/pkg/errors"
	"github.com/harukiyade/road-companiesInfo-sub000/pkg/store/memory"
	"github.com/harukiyade/road-companiesInfo-sub000/pkg/taxonomy"
)

func TestNewDefaults(t *testing.T) {
	c, err := New()
	require.NoError(t, err)
	defer c.Close()

	assert.NotNil(t, c.Store())
	assert.Nil(t, c.Taxonomy())
}

func TestImportFileCreatesEntities(t *testing.T) {
	path := filepath.Join(t.TempDir(), "companies.csv")
	csv := "会社名,法人番号,都道府県\n" +
		"株式会社テスト,1234567890123,東京都\n" +
		"合同会社サンプル,,大阪府\n"
	require.NoError(t, os.WriteFile(path, []byte(csv), 0o644))

	s := memory.New()
	c, err := New(WithStore(s))
	require.NoError(t, err)
	defer c.Close()

	stats, err := c.ImportFile(context.Background(), path, batch.Config{})
	require.NoError(t, err)
	assert.Equal(t, 2, stats.Processed)
	assert.Equal(t, 2, stats.Created)

	e, err := s.GetByID(context.Background(), "1234567890123")
	require.NoError(t, err)
	assert.Equal(t, "株式会社テスト", e.Name)
	assert.Equal(t, "東京都", e.Prefecture)
}

func TestImportFileUnknownLayout(t *testing.T) {
	path := filepath.Join(t.TempDir(), "odd.csv")
	require.NoError(t, os.WriteFile(path, []byte("x,y\n1,2\n"), 0o644))

	c, err := New()
	require.NoError(t, err)
	defer c.Close()

	_, err = c.ImportFile(context.Background(), path, batch.Config{})
	assert.Error(t, err)
}

func TestImportScraped(t *testing.T) {
	s := memory.New()
	s.Seed(&entity.CanonicalEntity{
		ID:              "1234567890123",
		CorporateNumber: "1234567890123",
		Name:            "株式会社テスト",
	})

	c, err := New(WithStore(s))
	require.NoError(t, err)
	defer c.Close()

	stats, err := c.ImportScraped(context.Background(), []map[string]string{
		{
			"company_name":     "株式会社テスト",
			"corporate_number": "1234567890123",
			"address":          "東京都港区芝公園4-2-8 /地図",
		},
		{}, // cleans down to nothing, skipped
	}, batch.Config{})
	require.NoError(t, err)
	assert.Equal(t, 1, stats.Processed)
	assert.Equal(t, 1, stats.Merged)

	e, err := s.GetByID(context.Background(), "1234567890123")
	require.NoError(t, err)
	assert.Equal(t, "東京都港区芝公園4-2-8", e.Address)
}

func TestDedupeCollapsesRegistrationSiblings(t *testing.T) {
	s := memory.New()
	s.Seed(
		&entity.CanonicalEntity{
			ID:              "1234567890123",
			CorporateNumber: "1234567890123",
			Name:            "株式会社テスト",
		},
		&entity.CanonicalEntity{
			ID:              "surrogate-1",
			CorporateNumber: "1234567890123",
			Name:            "株式会社テスト",
			Phone:           "0312345678",
		},
		&entity.CanonicalEntity{
			ID:              "unrelated",
			CorporateNumber: "9876543210987",
			Name:            "株式会社ほか",
		},
	)

	c, err := New(WithStore(s))
	require.NoError(t, err)
	defer c.Close()

	stats, err := c.Dedupe(context.Background(), batch.Config{})
	require.NoError(t, err)
	assert.Positive(t, stats.Collapsed)

	_, err = s.GetByID(context.Background(), "surrogate-1")
	assert.True(t, errors.IsNotFound(err), "loser folded into the surviving entity")

	winner, err := s.GetByID(context.Background(), "1234567890123")
	require.NoError(t, err)
	assert.Equal(t, "0312345678", winner.Phone, "loser's phone filled onto the winner")

	_, err = s.GetByID(context.Background(), "unrelated")
	assert.NoError(t, err)
}

const taxonomyCSV = `industryLarge,industryMiddle,industrySmall
製造業,食料品製造業,パン製造業
情報通信業,情報サービス業,ソフトウェア業
`

func TestBackfillIndustries(t *testing.T) {
	idx, err := taxonomy.Load(strings.NewReader(taxonomyCSV))
	require.NoError(t, err)

	s := memory.New()
	s.Seed(&entity.CanonicalEntity{
		ID:              "1234567890123",
		CorporateNumber: "1234567890123",
		Name:            "株式会社テスト",
		IndustrySmall:   "ソフトウェア業",
	})

	c, err := New(WithStore(s), WithTaxonomy(idx))
	require.NoError(t, err)
	defer c.Close()

	stats, err := c.BackfillIndustries(context.Background(), batch.Config{})
	require.NoError(t, err)
	assert.Equal(t, 1, stats.Processed)
	assert.Equal(t, 1, stats.Merged)

	e, err := s.GetByID(context.Background(), "1234567890123")
	require.NoError(t, err)
	assert.Equal(t, "情報通信業", e.IndustryLarge)
	assert.Equal(t, "情報サービス業", e.IndustryMiddle)
	assert.Equal(t, "ソフトウェア業", e.IndustrySmall)
}

func TestBackfillIndustriesSkipsCanonical(t *testing.T) {
	idx, err := taxonomy.Load(strings.NewReader(taxonomyCSV))
	require.NoError(t, err)

	s := memory.New()
	s.Seed(&entity.CanonicalEntity{
		ID:              "1234567890123",
		CorporateNumber: "1234567890123",
		Name:            "株式会社テスト",
		IndustryLarge:   "情報通信業",
		IndustryMiddle:  "情報サービス業",
		IndustrySmall:   "ソフトウェア業",
	})

	c, err := New(WithStore(s), WithTaxonomy(idx))
	require.NoError(t, err)
	defer c.Close()

	stats, err := c.BackfillIndustries(context.Background(), batch.Config{})
	require.NoError(t, err)
	assert.Zero(t, stats.Processed, "already-canonical entities never re-enter the pipeline")
}

func TestBackfillIndustriesStandaloneSpelling(t *testing.T) {
	// two rows under the same large make the substring search ambiguous,
	// so nothing resolves a full triple for a large-only entity
	const csv = `industryLarge,industryMiddle,industrySmall
情報通信業,情報サービス業,ソフトウェア業
情報通信業,情報サービス業,情報処理サービス業
`
	idx, err := taxonomy.Load(strings.NewReader(csv))
	require.NoError(t, err)

	s := memory.New()
	s.Seed(&entity.CanonicalEntity{
		ID:              "1234567890123",
		CorporateNumber: "1234567890123",
		Name:            "株式会社テスト",
		IndustryLarge:   "情報 通信業",
	})

	c, err := New(WithStore(s), WithTaxonomy(idx))
	require.NoError(t, err)
	defer c.Close()

	stats, err := c.BackfillIndustries(context.Background(), batch.Config{})
	require.NoError(t, err)
	assert.Equal(t, 1, stats.Merged)

	e, err := s.GetByID(context.Background(), "1234567890123")
	require.NoError(t, err)
	assert.Equal(t, "情報通信業", e.IndustryLarge, "master spelling replaces the variant")
	assert.Empty(t, e.IndustryMiddle, "an ambiguous match never writes a guessed triple")
	assert.Empty(t, e.IndustrySmall)
}

func TestBackfillIndustriesAuditCarriesCandidates(t *testing.T) {
	// the same small category lives under two larges, so the small-index
	// resolution needs review
	const csv = `industryLarge,industryMiddle,industrySmall
製造業,食料品製造業,パン製造業
卸売業,食料品卸売業,パン製造業
`
	idx, err := taxonomy.Load(strings.NewReader(csv))
	require.NoError(t, err)

	auditPath := filepath.Join(t.TempDir(), "audit.csv")
	s := memory.New()
	s.Seed(&entity.CanonicalEntity{
		ID:              "1234567890123",
		CorporateNumber: "1234567890123",
		Name:            "株式会社テスト",
		IndustrySmall:   "パン製造業",
	})

	c, err := New(WithStore(s), WithTaxonomy(idx), WithAuditReport(auditPath))
	require.NoError(t, err)

	_, err = c.BackfillIndustries(context.Background(), batch.Config{})
	require.NoError(t, err)
	require.NoError(t, c.Close())

	data, err := os.ReadFile(auditPath)
	require.NoError(t, err)
	assert.Contains(t, string(data), "small_index")
	assert.Contains(t, string(data), "製造業/食料品製造業/パン製造業")
	assert.Contains(t, string(data), "卸売業/食料品卸売業/パン製造業")
}

func TestBackfillIndustriesRequiresTaxonomy(t *testing.T) {
	c, err := New()
	require.NoError(t, err)
	defer c.Close()

	_, err = c.BackfillIndustries(context.Background(), batch.Config{})
	assert.True(t, errors.IsValidationError(err))
}

func TestNewWithReports(t *testing.T) {
	dir := t.TempDir()
	auditPath := filepath.Join(dir, "audit.csv")
	noMatchPath := filepath.Join(dir, "no_match.csv")

	csvPath := filepath.Join(dir, "in.csv")
	require.NoError(t, os.WriteFile(csvPath, []byte("会社名\n株式会社テスト\n"), 0o644))

	c, err := New(WithAuditReport(auditPath), WithNoMatchReport(noMatchPath))
	require.NoError(t, err)

	_, err = c.ImportFile(context.Background(), csvPath, batch.Config{})
	require.NoError(t, err)
	require.NoError(t, c.Close())

	audit, err := os.ReadFile(auditPath)
	require.NoError(t, err)
	assert.Contains(t, string(audit), "record_id")
	assert.Contains(t, string(audit), "created")
}
