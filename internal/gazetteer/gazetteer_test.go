package gazetteer

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeTestFile(t *testing.T, contents string) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "gazetteer.yaml")
	require.NoError(t, os.WriteFile(path, []byte(contents), 0o644))
	return path
}

const sampleYAML = `
attractions:
  - name: Sigiriya Rock Fortress
    lat: 7.9570
    lng: 80.7603
    category: historical
  - name: Temple of the Sacred Tooth Relic
    lat: 7.2955
    lng: 80.6415
    category: cultural
  - name: Galle Fort
    lat: 6.0267
    lng: 80.2170
    category: historical
`

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load("/nonexistent/path/gazetteer.yaml")
	assert.Error(t, err)
}

func TestLoad_EmptyFile(t *testing.T) {
	path := writeTestFile(t, "attractions: []\n")
	_, err := Load(path)
	assert.Error(t, err)
}

func TestResolve_Exact(t *testing.T) {
	g, err := Load(writeTestFile(t, sampleYAML))
	require.NoError(t, err)

	res, ok := g.Resolve("sigiriya rock fortress")
	require.True(t, ok)
	assert.Equal(t, SourceExact, res.Source)
	assert.Equal(t, 100, res.Score)
	assert.InDelta(t, 7.9570, res.Entry.Lat, 1e-9)
	assert.InDelta(t, 80.7603, res.Entry.Lng, 1e-9)
	assert.InDelta(t, 80.7603, res.Point[0], 1e-9)
	assert.InDelta(t, 7.9570, res.Point[1], 1e-9)
}

func TestResolve_ExactCaseAndWhitespaceInsensitive(t *testing.T) {
	g, err := Load(writeTestFile(t, sampleYAML))
	require.NoError(t, err)

	res, ok := g.Resolve("  GALLE FORT  ")
	require.True(t, ok)
	assert.Equal(t, SourceExact, res.Source)
}

func TestResolve_Fuzzy(t *testing.T) {
	g, err := Load(writeTestFile(t, sampleYAML))
	require.NoError(t, err)

	res, ok := g.Resolve("Sigirya Rock Fortress")
	require.True(t, ok)
	assert.Equal(t, SourceFuzzy, res.Source)
	assert.GreaterOrEqual(t, res.Score, FuzzyThreshold)
	assert.Equal(t, "Sigiriya Rock Fortress", res.Entry.Name)
}

func TestResolve_NoMatch(t *testing.T) {
	g, err := Load(writeTestFile(t, sampleYAML))
	require.NoError(t, err)

	_, ok := g.Resolve("Completely Unrelated Place Name Zzz")
	assert.False(t, ok)
}

func TestResolve_Idempotent(t *testing.T) {
	g, err := Load(writeTestFile(t, sampleYAML))
	require.NoError(t, err)

	first, ok1 := g.Resolve("Galle Fort")
	second, ok2 := g.Resolve("Galle Fort")
	require.True(t, ok1)
	require.True(t, ok2)
	assert.Equal(t, first, second)
}

func TestResolve_EmptyQuery(t *testing.T) {
	g, err := Load(writeTestFile(t, sampleYAML))
	require.NoError(t, err)

	_, ok := g.Resolve("   ")
	assert.False(t, ok)
}

func TestLen(t *testing.T) {
	g, err := Load(writeTestFile(t, sampleYAML))
	require.NoError(t, err)
	assert.Equal(t, 3, g.Len())
}

func TestPartialRatio_IdenticalStrings(t *testing.T) {
	assert.Equal(t, 100, partialRatio("galle fort", "galle fort"))
}

func TestPartialRatio_Substring(t *testing.T) {
	score := partialRatio("ella rock", "ella rock hiking trail")
	assert.Equal(t, 100, score)
}
