// Package ranker implements the neural re-ranker (C4): a small
// feed-forward network over the concatenation of a query, user-context
// and candidate embedding, producing a scalar relevance score in
// [0,1]. It runs in inference mode only; there is no training path
// here, matching the contract in spec.md §4.4.
package ranker

import (
	"encoding/json"
	"fmt"
	"math"
	"math/rand"
	"os"
)

// Network is a 3-layer MLP: 3D -> H -> H/2 -> 1, ReLU hidden
// activations, sigmoid output. Weights are immutable after
// construction and safe for concurrent Score calls (no shared mutable
// state is touched during a forward pass).
type Network struct {
	inputDim  int // 3*D
	hiddenDim int // H
	w1        [][]float64 // hiddenDim x inputDim
	b1        []float64
	w2        [][]float64 // (hiddenDim/2) x hiddenDim
	b2        []float64
	w3        []float64   // 1 x (hiddenDim/2)
	b3        float64
}

// weightFile is the on-disk shape accepted by LoadWeights.
type weightFile struct {
	InputDim  int         `json:"input_dim"`
	HiddenDim int         `json:"hidden_dim"`
	W1        [][]float64 `json:"w1"`
	B1        []float64   `json:"b1"`
	W2        [][]float64 `json:"w2"`
	B2        []float64   `json:"b2"`
	W3        []float64   `json:"w3"`
	B3        float64     `json:"b3"`
}

// Logger is the minimal surface ranker needs from internal/obs; kept
// as a tiny local interface so this package doesn't import obs types
// it has no other use for.
type Logger interface {
	Error(msg string, fields map[string]any)
	Info(msg string, fields map[string]any)
}

// seedForDeterministicInit makes NewUntrained reproducible across
// process restarts, per spec.md §4.4 ("initialize deterministically,
// e.g. fixed seed").
const seedForDeterministicInit = 1337

// NewUntrained builds a Network with deterministic, fixed-seed weights
// when no pretrained weight file is available. Per spec.md §4.4 this
// makes the planner's behavior well-defined even without training:
// the scores are a plausible but untrained prior, not garbage.
func NewUntrained(embeddingDim, hiddenDim int, log Logger) *Network {
	if log != nil {
		log.Info("ranker: no pretrained weights supplied, using deterministic untrained init", map[string]any{
			"embedding_dim": embeddingDim,
			"hidden_dim":    hiddenDim,
			"seed":          seedForDeterministicInit,
		})
	}
	rng := rand.New(rand.NewSource(seedForDeterministicInit))
	inputDim := embeddingDim * 3
	half := hiddenDim / 2
	if half < 1 {
		half = 1
	}
	return &Network{
		inputDim:  inputDim,
		hiddenDim: hiddenDim,
		w1:        xavier(rng, hiddenDim, inputDim),
		b1:        make([]float64, hiddenDim),
		w2:        xavier(rng, half, hiddenDim),
		b2:        make([]float64, half),
		w3:        xavierVec(rng, half),
		b3:        0,
	}
}

// LoadWeights reads a pretrained network from a JSON weight file. A
// missing file is not itself fatal to the planner (spec.md §4.4 only
// requires a well-defined fallback); callers typically log the error
// and fall back to NewUntrained, which logs an info-level notice.
func LoadWeights(path string) (*Network, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("ranker: read weights %s: %w", path, err)
	}
	var wf weightFile
	if err := json.Unmarshal(raw, &wf); err != nil {
		return nil, fmt.Errorf("ranker: parse weights %s: %w", path, err)
	}
	if wf.InputDim == 0 || wf.HiddenDim == 0 {
		return nil, fmt.Errorf("ranker: weights %s missing dimensions", path)
	}
	return &Network{
		inputDim:  wf.InputDim,
		hiddenDim: wf.HiddenDim,
		w1:        wf.W1,
		b1:        wf.B1,
		w2:        wf.W2,
		b2:        wf.B2,
		w3:        wf.W3,
		b3:        wf.B3,
	}, nil
}

// Score runs a single forward pass over the concatenation of
// query, userContext and candidate embeddings (each length D, so the
// input is 3D), returning a scalar in [0,1]. It is deterministic: the
// same weights and inputs always produce the same output, and nothing
// here depends on training-time randomness (no dropout at inference).
func (n *Network) Score(query, userContext, candidate []float64) (float64, error) {
	combined := make([]float64, 0, n.inputDim)
	combined = append(combined, query...)
	combined = append(combined, userContext...)
	combined = append(combined, candidate...)
	if len(combined) != n.inputDim {
		return 0, fmt.Errorf("ranker: expected concatenated input of length %d, got %d", n.inputDim, len(combined))
	}

	h1 := relu(matVec(n.w1, combined, n.b1))
	h2 := relu(matVec(n.w2, h1, n.b2))

	var z float64
	for i, w := range n.w3 {
		z += w * h2[i]
	}
	z += n.b3
	return sigmoid(z), nil
}

func matVec(w [][]float64, x, bias []float64) []float64 {
	out := make([]float64, len(w))
	for i, row := range w {
		var sum float64
		for j, v := range row {
			if j >= len(x) {
				break
			}
			sum += v * x[j]
		}
		if i < len(bias) {
			sum += bias[i]
		}
		out[i] = sum
	}
	return out
}

func relu(v []float64) []float64 {
	out := make([]float64, len(v))
	for i, x := range v {
		if x > 0 {
			out[i] = x
		}
	}
	return out
}

func sigmoid(x float64) float64 {
	return 1.0 / (1.0 + math.Exp(-x))
}

// xavier draws a rows x cols matrix from a uniform Xavier-style range,
// using the supplied deterministic source.
func xavier(rng *rand.Rand, rows, cols int) [][]float64 {
	limit := math.Sqrt(6.0 / float64(rows+cols))
	m := make([][]float64, rows)
	for i := range m {
		m[i] = make([]float64, cols)
		for j := range m[i] {
			m[i][j] = (rng.Float64()*2 - 1) * limit
		}
	}
	return m
}

func xavierVec(rng *rand.Rand, n int) []float64 {
	limit := math.Sqrt(6.0 / float64(n+1))
	v := make([]float64, n)
	for i := range v {
		v[i] = (rng.Float64()*2 - 1) * limit
	}
	return v
}

// PearScore fuses the neural and similarity scores per spec.md §4.4:
// pear_score = 0.7*neural + 0.3*similarity, clipped to [0,1].
func PearScore(neuralScore, similarityScore, neuralWeight, similarityWeight float64) float64 {
	score := neuralWeight*neuralScore + similarityWeight*similarityScore
	if score < 0 {
		return 0
	}
	if score > 1 {
		return 1
	}
	return score
}

// DefaultNeuralWeight and DefaultSimilarityWeight are the hardcoded
// fusion coefficients from spec.md §4.4, promoted to named constants
// so callers can override them (see internal/planner.Config) without
// touching the combination formula itself.
const (
	DefaultNeuralWeight     = 0.7
	DefaultSimilarityWeight = 0.3
)
