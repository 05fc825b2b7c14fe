package cmd

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	companies "github.com/harukiyade/road-companiesInfo-sub000"
	"github.com/harukiyade/road-companiesInfo-sub000/pkg/batch"
)

// testApp serves commands an in-memory client.
type testApp struct {
	client companies.Client
}

func newTestApp(t *testing.T) *testApp {
	t.Helper()
	client, err := companies.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = client.Close() })
	return &testApp{client: client}
}

func (a *testApp) Client() (companies.Client, error) { return a.client, nil }
func (a *testApp) BatchConfig() batch.Config         { return batch.Config{} }

func TestImportCommand(t *testing.T) {
	path := filepath.Join(t.TempDir(), "in.csv")
	csv := "会社名,法人番号\n株式会社テスト,1234567890123\n"
	require.NoError(t, os.WriteFile(path, []byte(csv), 0o644))

	a := newTestApp(t)
	cmd := NewImportCommand(a)
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetArgs([]string{path})

	require.NoError(t, cmd.Execute())
	assert.Contains(t, out.String(), "processed")
	assert.Contains(t, out.String(), "created")
}

func TestImportCommandMissingFile(t *testing.T) {
	cmd := NewImportCommand(newTestApp(t))
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs([]string{"/nonexistent/file.csv"})
	assert.Error(t, cmd.Execute())
}

func TestReadScrapesArray(t *testing.T) {
	path := filepath.Join(t.TempDir(), "scrapes.json")
	data := `[{"company_name":"株式会社テスト","address":"東京都港区1-2-3"},{"company_name":"合同会社サンプル"}]`
	require.NoError(t, os.WriteFile(path, []byte(data), 0o644))

	scrapes, err := readScrapes(path)
	require.NoError(t, err)
	require.Len(t, scrapes, 2)
	assert.Equal(t, "株式会社テスト", scrapes[0]["company_name"])
}

func TestReadScrapesStream(t *testing.T) {
	path := filepath.Join(t.TempDir(), "scrapes.jsonl")
	data := "{\"company_name\":\"株式会社テスト\"}\n{\"company_name\":\"合同会社サンプル\"}\n"
	require.NoError(t, os.WriteFile(path, []byte(data), 0o644))

	scrapes, err := readScrapes(path)
	require.NoError(t, err)
	require.Len(t, scrapes, 2)
	assert.Equal(t, "合同会社サンプル", scrapes[1]["company_name"])
}

func TestReadScrapesBadJSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.json")
	require.NoError(t, os.WriteFile(path, []byte("not json"), 0o644))

	_, err := readScrapes(path)
	assert.Error(t, err)
}

func TestTaxonomyVerifyCommand(t *testing.T) {
	path := filepath.Join(t.TempDir(), "master.csv")
	csv := "industryLarge,industryMiddle,industrySmall\n製造業,食料品製造業,パン製造業\n"
	require.NoError(t, os.WriteFile(path, []byte(csv), 0o644))

	cmd := NewTaxonomyCommand(newTestApp(t))
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetArgs([]string{"verify", path})

	require.NoError(t, cmd.Execute())
	assert.Contains(t, out.String(), "triples")
}

func TestRenderStats(t *testing.T) {
	out := renderStats(&batch.Stats{Processed: 3, Merged: 2, Created: 1})
	assert.Contains(t, out, "processed")
	assert.Contains(t, out, "3")
	assert.Contains(t, out, "merged")
}
