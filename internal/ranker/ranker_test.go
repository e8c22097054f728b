package ranker

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewUntrained_DeterministicAcrossInstances(t *testing.T) {
	n1 := NewUntrained(8, 16, nil)
	n2 := NewUntrained(8, 16, nil)

	query := make([]float64, 8)
	context := make([]float64, 8)
	candidate := make([]float64, 8)
	for i := range query {
		query[i] = float64(i) * 0.1
		context[i] = float64(i) * 0.05
		candidate[i] = float64(i) * 0.02
	}

	s1, err := n1.Score(query, context, candidate)
	require.NoError(t, err)
	s2, err := n2.Score(query, context, candidate)
	require.NoError(t, err)
	assert.Equal(t, s1, s2)
}

func TestScore_BoundedZeroOne(t *testing.T) {
	n := NewUntrained(4, 8, nil)
	query := []float64{1, 2, 3, 4}
	context := []float64{-1, -2, -3, -4}
	candidate := []float64{0.5, 0.5, 0.5, 0.5}

	score, err := n.Score(query, context, candidate)
	require.NoError(t, err)
	assert.GreaterOrEqual(t, score, 0.0)
	assert.LessOrEqual(t, score, 1.0)
}

func TestScore_WrongDimension(t *testing.T) {
	n := NewUntrained(4, 8, nil)
	_, err := n.Score([]float64{1, 2}, []float64{1, 2, 3, 4}, []float64{1, 2, 3, 4})
	assert.Error(t, err)
}

func TestLoadWeights_RoundTrip(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "weights.json")

	wf := weightFile{
		InputDim:  6,
		HiddenDim: 4,
		W1:        [][]float64{{0.1, 0.1, 0.1, 0.1, 0.1, 0.1}, {0.2, 0.2, 0.2, 0.2, 0.2, 0.2}, {0.1, 0, 0, 0, 0, 0}, {0, 0.1, 0, 0, 0, 0}},
		B1:        []float64{0, 0, 0, 0},
		W2:        [][]float64{{0.3, 0.3, 0.3, 0.3}, {0.1, 0.1, 0.1, 0.1}},
		B2:        []float64{0, 0},
		W3:        []float64{0.5, 0.5},
		B3:        0,
	}
	raw, err := json.Marshal(wf)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(path, raw, 0o644))

	n, err := LoadWeights(path)
	require.NoError(t, err)

	score, err := n.Score([]float64{1, 1}, []float64{1, 1}, []float64{1, 1})
	require.NoError(t, err)
	assert.GreaterOrEqual(t, score, 0.0)
	assert.LessOrEqual(t, score, 1.0)
}

func TestLoadWeights_MissingFile(t *testing.T) {
	_, err := LoadWeights("/nonexistent/weights.json")
	assert.Error(t, err)
}

func TestPearScore_Weighting(t *testing.T) {
	assert.InDelta(t, 0.7, PearScore(1.0, 0.0, DefaultNeuralWeight, DefaultSimilarityWeight), 1e-9)
	assert.InDelta(t, 0.3, PearScore(0.0, 1.0, DefaultNeuralWeight, DefaultSimilarityWeight), 1e-9)
	assert.InDelta(t, 1.0, PearScore(1.0, 1.0, DefaultNeuralWeight, DefaultSimilarityWeight), 1e-9)
}

func TestPearScore_ClippedToUnitRange(t *testing.T) {
	assert.Equal(t, 1.0, PearScore(2.0, 2.0, DefaultNeuralWeight, DefaultSimilarityWeight))
	assert.Equal(t, 0.0, PearScore(-2.0, -2.0, DefaultNeuralWeight, DefaultSimilarityWeight))
}
