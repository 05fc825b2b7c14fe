package report

import (
	"encoding/csv"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/harukiyade/road-companiesInfo-sub000/pkg/entity"
)

func readCSV(t *testing.T, path string) [][]string {
	t.Helper()
	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()
	rows, err := csv.NewReader(f).ReadAll()
	require.NoError(t, err)
	return rows
}

func TestWriterAppendsRows(t *testing.T) {
	path := filepath.Join(t.TempDir(), "audit.csv")
	w, err := NewWriter(path)
	require.NoError(t, err)

	err = w.Append(Row{
		RecordID:   "r1",
		EntityID:   "1234567890123",
		Outcome:    "merged",
		Method:     "registration",
		Confidence: "high",
		Before:     &entity.CanonicalEntity{ID: "1234567890123", Name: "旧"},
		After:      &entity.CanonicalEntity{ID: "1234567890123", Name: "旧", Address: "東京都"},
		Collapsed:  []string{"dup-1", "dup-2"},
	})
	require.NoError(t, err)
	require.NoError(t, w.Close())

	rows := readCSV(t, path)
	require.Len(t, rows, 2)
	assert.Equal(t, auditHeader, rows[0])
	assert.Equal(t, "r1", rows[1][0])
	assert.Equal(t, "merged", rows[1][2])
	assert.Contains(t, rows[1][6], "東京都")
	assert.Equal(t, "dup-1|dup-2", rows[1][9])
}

func TestWriterAppendsAcrossRuns(t *testing.T) {
	path := filepath.Join(t.TempDir(), "audit.csv")

	for run := 0; run < 2; run++ {
		w, err := NewWriter(path)
		require.NoError(t, err)
		require.NoError(t, w.Append(Row{RecordID: "r", Outcome: "created"}))
		require.NoError(t, w.Close())
	}

	rows := readCSV(t, path)
	assert.Len(t, rows, 3, "one header plus one row per run")
}

func TestNoMatchWriter(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nomatch.csv")
	w, err := NewNoMatchWriter(path)
	require.NoError(t, err)

	require.NoError(t, w.Append(NoMatchRow{
		RecordID: "r9",
		Name:     "株式会社不明",
		Reason:   "below minimum score",
	}))
	require.NoError(t, w.Close())

	rows := readCSV(t, path)
	require.Len(t, rows, 2)
	assert.Equal(t, "株式会社不明", rows[1][1])
}
