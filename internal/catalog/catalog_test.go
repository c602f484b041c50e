package catalog

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefault(t *testing.T) {
	cat := Default()

	require.NotZero(t, cat.Len())

	rev := cat.ByName("revenue")
	require.NotNil(t, rev)
	assert.Equal(t, "Revenues", rev.Standardized[0], "first standardized concept is the top-priority match")
	assert.NotEmpty(t, rev.Variations)
	assert.NotEmpty(t, rev.FuzzyKeywords)

	assert.Equal(t, KindFlow, cat.ByName("operating_cash_flow").Kind)
	assert.Equal(t, KindInstant, cat.ByName("total_assets").Kind)
	assert.Equal(t, KindInstant, cat.ByName("total_liabilities").Kind)
	assert.Equal(t, KindInstant, cat.ByName("stockholders_equity").Kind)

	assert.Nil(t, cat.ByName("no_such_metric"))
}

func TestDefault_EntryOrderStable(t *testing.T) {
	a := Default().Entries()
	b := Default().Entries()
	require.Equal(t, len(a), len(b))
	for i := range a {
		assert.Equal(t, a[i].Name, b[i].Name)
	}
}

func TestLoadFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "catalog.yaml")
	doc := `metrics:
  - name: revenue
    kind: other
    standardized: [Revenues]
    variations: [Revenues, TotalRevenues]
    fuzzy_keywords: [income, sales]
  - name: total_assets
    kind: instant
    standardized: [Assets]
    variations: [TotalAssets]
    fuzzy_keywords: [assets, total]
`
	require.NoError(t, os.WriteFile(path, []byte(doc), 0o644))

	cat, err := LoadFile(path)
	require.NoError(t, err)

	assert.Equal(t, 2, cat.Len())
	assert.Equal(t, "revenue", cat.Entries()[0].Name)
	assert.Equal(t, KindInstant, cat.ByName("total_assets").Kind)
}

func TestLoadFile_KindDefaultsToOther(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "catalog.yaml")
	doc := `metrics:
  - name: revenue
    standardized: [Revenues]
`
	require.NoError(t, os.WriteFile(path, []byte(doc), 0o644))

	cat, err := LoadFile(path)
	require.NoError(t, err)
	assert.Equal(t, KindOther, cat.ByName("revenue").Kind)
}

func TestLoadFile_Errors(t *testing.T) {
	_, err := LoadFile(filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)

	path := filepath.Join(t.TempDir(), "empty.yaml")
	require.NoError(t, os.WriteFile(path, []byte("metrics: []"), 0o644))
	_, err = LoadFile(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no metrics")
}
