// Package vectorindex implements the vector index client (C3): nearest-
// neighbor search over candidate embeddings with an optional payload
// equality filter. Three backends share the Index interface: Memory
// (brute-force cosine, no external dependency), HNSW (pure-Go
// approximate index), and Qdrant (production vector database).
package vectorindex

import "context"

// Hit is one result of a Search call, matching spec.md §4.3's
// VectorHit shape.
type Hit struct {
	ID              string
	Payload         map[string]any
	Vector          []float32
	SimilarityScore float64 // cosine similarity in [0,1] (a Qdrant collection with a non-cosine metric returns its raw score)
}

// Point is what callers Upsert: an id, its embedding and payload.
type Point struct {
	ID      string
	Vector  []float32
	Payload map[string]any
}

// Index is the contract every backend implements. Search never returns
// more than k hits but may return fewer. filter is an optional payload
// equality match (e.g. {"region": "Central Province"}); a nil or empty
// filter matches everything.
type Index interface {
	Upsert(ctx context.Context, points []Point) error
	Search(ctx context.Context, query []float32, k int, filter map[string]string) ([]Hit, error)
}

// matchesFilter reports whether a payload satisfies an equality filter,
// shared by the in-process backends (Memory and HNSW keep payload in a
// Go map and can apply the filter directly; Qdrant instead pushes the
// filter down to the server).
func matchesFilter(payload map[string]any, filter map[string]string) bool {
	for key, want := range filter {
		got, ok := payload[key]
		if !ok {
			return false
		}
		gotStr, ok := got.(string)
		if !ok || gotStr != want {
			return false
		}
	}
	return true
}
