package vectorindex

import (
	"context"
	"fmt"
	"math"
	"sort"
	"sync"
)

// Memory is a brute-force, in-process Index: every Search scores the
// query against every stored vector by cosine similarity. Intended for
// tests and small fixture datasets, not production scale — it has no
// approximate-search structure at all.
type Memory struct {
	mu     sync.RWMutex
	points map[string]Point
}

func NewMemory() *Memory {
	return &Memory{points: make(map[string]Point)}
}

func (m *Memory) Upsert(_ context.Context, points []Point) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, p := range points {
		if len(p.Vector) == 0 {
			return fmt.Errorf("vectorindex: point %q has empty vector", p.ID)
		}
		m.points[p.ID] = p
	}
	return nil
}

func (m *Memory) Search(_ context.Context, query []float32, k int, filter map[string]string) ([]Hit, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	hits := make([]Hit, 0, len(m.points))
	for _, p := range m.points {
		if !matchesFilter(p.Payload, filter) {
			continue
		}
		score := cosineSimilarity(query, p.Vector)
		hits = append(hits, Hit{
			ID:              p.ID,
			Payload:         p.Payload,
			Vector:          p.Vector,
			SimilarityScore: score,
		})
	}
	sort.Slice(hits, func(i, j int) bool { return hits[i].SimilarityScore > hits[j].SimilarityScore })
	if k < len(hits) {
		hits = hits[:k]
	}
	return hits, nil
}

func cosineSimilarity(a, b []float32) float64 {
	if len(a) == 0 || len(b) == 0 || len(a) != len(b) {
		return 0
	}
	var dot, normA, normB float64
	for i := range a {
		av, bv := float64(a[i]), float64(b[i])
		dot += av * bv
		normA += av * av
		normB += bv * bv
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	cos := dot / (math.Sqrt(normA) * math.Sqrt(normB))
	// Clip to [-1,1] before remapping, guards against float drift.
	if cos > 1 {
		cos = 1
	} else if cos < -1 {
		cos = -1
	}
	// Remap [-1,1] -> [0,1] so similarity_score stays in the contract's
	// range regardless of backend, matching HNSW's cosineDistanceToScore.
	return (cos + 1) / 2
}
