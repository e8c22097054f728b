package vectorindex

import (
	"context"
	"fmt"
	"math"
	"sync"

	"github.com/coder/hnsw"
)

// HNSW is a pure-Go approximate nearest-neighbor Index backed by
// github.com/coder/hnsw, for deployments that want sub-linear search
// without standing up an external vector database. Payloads and the
// raw vector (needed by the ranker, spec.md §6) live in a side map
// keyed by the graph's internal uint64 key, since the graph itself
// only stores vectors.
type HNSW struct {
	mu     sync.RWMutex
	graph  *hnsw.Graph[uint64]
	dim    int
	idMap  map[string]uint64
	keyMap map[uint64]string
	side   map[uint64]Point
	next   uint64
}

// NewHNSW builds an HNSW index for vectors of the given dimension
// using cosine distance, matching the store's "cos" default.
func NewHNSW(dim int) *HNSW {
	g := hnsw.NewGraph[uint64]()
	g.Distance = hnsw.CosineDistance
	g.M = 16
	g.EfSearch = 20
	g.Ml = 0.25
	return &HNSW{
		graph:  g,
		dim:    dim,
		idMap:  make(map[string]uint64),
		keyMap: make(map[uint64]string),
		side:   make(map[uint64]Point),
	}
}

func (h *HNSW) Upsert(_ context.Context, points []Point) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	for _, p := range points {
		if len(p.Vector) != h.dim {
			return fmt.Errorf("vectorindex: point %q has dimension %d, want %d", p.ID, len(p.Vector), h.dim)
		}
		if existing, ok := h.idMap[p.ID]; ok {
			// lazy delete: coder/hnsw's Delete can break the graph when
			// removing its last node, so orphan the old mapping instead
			// of calling graph.Delete.
			delete(h.keyMap, existing)
			delete(h.side, existing)
		}
		key := h.next
		h.next++

		vec := make([]float32, len(p.Vector))
		copy(vec, p.Vector)
		normalize(vec)

		h.graph.Add(hnsw.MakeNode(key, vec))
		h.idMap[p.ID] = key
		h.keyMap[key] = p.ID
		h.side[key] = p
	}
	return nil
}

func (h *HNSW) Search(_ context.Context, query []float32, k int, filter map[string]string) ([]Hit, error) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	if h.graph.Len() == 0 {
		return nil, nil
	}
	q := make([]float32, len(query))
	copy(q, query)
	normalize(q)

	// over-fetch to compensate for post-hoc filtering, since the graph
	// has no payload-aware search of its own.
	fetch := k
	if len(filter) > 0 {
		fetch = k * 4
		if fetch < 50 {
			fetch = 50
		}
	}
	nodes := h.graph.Search(q, fetch)

	hits := make([]Hit, 0, len(nodes))
	for _, node := range nodes {
		p, ok := h.side[node.Key]
		if !ok {
			continue
		}
		if !matchesFilter(p.Payload, filter) {
			continue
		}
		dist := h.graph.Distance(q, node.Value)
		hits = append(hits, Hit{
			ID:              p.ID,
			Payload:         p.Payload,
			Vector:          p.Vector,
			SimilarityScore: cosineDistanceToScore(dist),
		})
		if len(hits) == k {
			break
		}
	}
	return hits, nil
}

func normalize(v []float32) {
	var sumSquares float64
	for _, x := range v {
		sumSquares += float64(x) * float64(x)
	}
	if sumSquares == 0 {
		return
	}
	inv := float32(1.0 / math.Sqrt(sumSquares))
	for i := range v {
		v[i] *= inv
	}
}

// cosineDistanceToScore maps coder/hnsw's cosine distance (0..2) onto
// the [0,1] similarity_score contract every Index backend shares.
func cosineDistanceToScore(dist float32) float64 {
	score := 1.0 - float64(dist)/2.0
	if score < 0 {
		return 0
	}
	if score > 1 {
		return 1
	}
	return score
}
