package sqlite

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/harukiyade/road-companiesInfo-sub000/pkg/entity"
	"github.com/harukiyade/road-companiesInfo-sub000/pkg/errors"
	"github.com/harukiyade/road-companiesInfo-sub000/pkg/store"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "companies.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func seed(t *testing.T, s *Store, entities ...*entity.CanonicalEntity) {
	t.Helper()
	ops := make([]store.Op, len(entities))
	for i, e := range entities {
		ops[i] = store.Set(e)
	}
	res, err := s.BatchWrite(context.Background(), ops)
	require.NoError(t, err)
	require.Zero(t, res.Failed())
}

func TestRoundTrip(t *testing.T) {
	s := openTestStore(t)
	seed(t, s, &entity.CanonicalEntity{
		ID:              "1234567890123",
		Name:            "株式会社テスト",
		CorporateNumber: "1234567890123",
		Prefecture:      "東京都",
		Banks:           []string{"A銀行", "B銀行"},
		CapitalStock:    10000000,
	})

	got, err := s.GetByID(context.Background(), "1234567890123")
	require.NoError(t, err)
	assert.Equal(t, "株式会社テスト", got.Name)
	assert.Equal(t, []string{"A銀行", "B銀行"}, got.Banks)
	assert.Equal(t, int64(10000000), got.CapitalStock)

	_, err = s.GetByID(context.Background(), "missing")
	assert.True(t, errors.IsNotFound(err))
}

func TestUpsertReplaces(t *testing.T) {
	s := openTestStore(t)
	seed(t, s, &entity.CanonicalEntity{ID: "a", Name: "旧名"})
	seed(t, s, &entity.CanonicalEntity{ID: "a", Name: "新名"})

	got, err := s.GetByID(context.Background(), "a")
	require.NoError(t, err)
	assert.Equal(t, "新名", got.Name)
}

func TestQueryEquals(t *testing.T) {
	s := openTestStore(t)
	seed(t, s,
		&entity.CanonicalEntity{ID: "a", Name: "株式会社テスト", Prefecture: "東京都"},
		&entity.CanonicalEntity{ID: "b", Name: "テスト株式会社", Prefecture: "大阪府"},
		&entity.CanonicalEntity{ID: "c", Name: "別会社", Prefecture: "東京都"},
	)

	hits, err := s.QueryEquals(context.Background(), store.IndexNameKey,
		store.QueryValue(store.IndexNameKey, "テスト"), 0)
	require.NoError(t, err)
	assert.Len(t, hits, 2)

	hits, err = s.QueryEquals(context.Background(), store.IndexPrefecture, "東京都", 1)
	require.NoError(t, err)
	assert.Len(t, hits, 1)

	_, err = s.QueryEquals(context.Background(), "doc", "x", 0)
	assert.True(t, errors.IsValidationError(err), "raw columns are not queryable")
}

func TestQueryRangePrefix(t *testing.T) {
	s := openTestStore(t)
	seed(t, s,
		&entity.CanonicalEntity{ID: "a", Name: "アルファ工業"},
		&entity.CanonicalEntity{ID: "b", Name: "アルファ産業"},
		&entity.CanonicalEntity{ID: "c", Name: "ベータ商事"},
	)

	prefix := "アルファ"
	hits, err := s.QueryRange(context.Background(), store.IndexNameKey, prefix, prefix+"￿", 10)
	require.NoError(t, err)
	assert.Len(t, hits, 2)
}

func TestDeleteIdempotent(t *testing.T) {
	s := openTestStore(t)
	seed(t, s, &entity.CanonicalEntity{ID: "a"})

	res, err := s.BatchWrite(context.Background(), []store.Op{
		store.Delete("a"),
		store.Delete("a"),
		store.Delete("never existed"),
	})
	require.NoError(t, err)
	assert.Zero(t, res.Failed())
}

func TestBatchTooLarge(t *testing.T) {
	s := openTestStore(t)
	ops := make([]store.Op, store.MaxBatchOps+1)
	for i := range ops {
		ops[i] = store.Delete("x")
	}
	_, err := s.BatchWrite(context.Background(), ops)
	assert.ErrorIs(t, err, errors.ErrBatchTooLarge)
}

func TestPaginate(t *testing.T) {
	s := openTestStore(t)
	seed(t, s,
		&entity.CanonicalEntity{ID: "a"},
		&entity.CanonicalEntity{ID: "b"},
		&entity.CanonicalEntity{ID: "c"},
	)

	var ids []string
	cursor := ""
	for {
		page, err := s.Paginate(context.Background(), cursor, 2)
		require.NoError(t, err)
		for _, e := range page.Entities {
			ids = append(ids, e.ID)
		}
		if page.NextCursor == "" {
			break
		}
		cursor = page.NextCursor
	}
	assert.Equal(t, []string{"a", "b", "c"}, ids)
}

func TestDummyRegistrationNotIndexed(t *testing.T) {
	s := openTestStore(t)
	seed(t, s, &entity.CanonicalEntity{ID: "dummy", CorporateNumber: "9180000000000"})

	hits, err := s.QueryEquals(context.Background(), store.IndexCorporateNumber, "9180000000000", 0)
	require.NoError(t, err)
	assert.Empty(t, hits)
}
