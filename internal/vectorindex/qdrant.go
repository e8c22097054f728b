package vectorindex

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"github.com/qdrant/go-client/qdrant"
)

// payloadIDField stores the caller's original string ID, since Qdrant
// point IDs must be a UUID or a positive integer.
const payloadIDField = "_original_id"

// Qdrant is the production Index backend, backed by a real Qdrant
// collection over gRPC. Unlike Memory and HNSW, Search round-trips to
// an external service and pushes the payload filter down to the
// server instead of applying it locally.
type Qdrant struct {
	client     *qdrant.Client
	collection string
	dimension  int
	metric     string
}

// NewQdrant connects to Qdrant at endpoint (host:port or a URL), using
// token as the API key when non-empty, and ensures collection exists with
// the given dimensions/metric, creating it if absent.
func NewQdrant(endpoint, token, collection string, dimensions int, metric string) (*Qdrant, error) {
	if collection == "" {
		return nil, fmt.Errorf("vectorindex: qdrant collection name is required")
	}
	host, port, err := parseEndpoint(endpoint)
	if err != nil {
		return nil, err
	}
	cfg := &qdrant.Config{Host: host, Port: port}
	if strings.HasPrefix(endpoint, "https://") {
		cfg.UseTLS = true
	}
	if token != "" {
		cfg.APIKey = token
	}
	client, err := qdrant.NewClient(cfg)
	if err != nil {
		return nil, fmt.Errorf("vectorindex: create qdrant client: %w", err)
	}
	q := &Qdrant{client: client, collection: collection, dimension: dimensions, metric: strings.ToLower(strings.TrimSpace(metric))}
	if err := q.ensureCollection(context.Background()); err != nil {
		client.Close()
		return nil, fmt.Errorf("vectorindex: ensure collection: %w", err)
	}
	return q, nil
}

func parseEndpoint(endpoint string) (string, int, error) {
	u, err := url.Parse(endpoint)
	if err != nil || u.Hostname() == "" {
		// bare host:port, not a URL
		host, portStr, splitErr := splitHostPort(endpoint)
		if splitErr != nil {
			return "", 0, fmt.Errorf("vectorindex: parse qdrant endpoint %q: %w", endpoint, splitErr)
		}
		port, convErr := strconv.Atoi(portStr)
		if convErr != nil {
			return "", 0, fmt.Errorf("vectorindex: invalid qdrant port %q: %w", portStr, convErr)
		}
		return host, port, nil
	}
	port := 6334
	if u.Port() != "" {
		port, err = strconv.Atoi(u.Port())
		if err != nil {
			return "", 0, fmt.Errorf("vectorindex: invalid qdrant port in %q: %w", endpoint, err)
		}
	}
	return u.Hostname(), port, nil
}

func splitHostPort(s string) (string, string, error) {
	idx := strings.LastIndex(s, ":")
	if idx < 0 {
		return s, "6334", nil
	}
	return s[:idx], s[idx+1:], nil
}

func (q *Qdrant) ensureCollection(ctx context.Context) error {
	exists, err := q.client.CollectionExists(ctx, q.collection)
	if err != nil {
		return fmt.Errorf("check collection exists: %w", err)
	}
	if exists {
		return nil
	}
	var distance qdrant.Distance
	switch q.metric {
	case "l2", "euclidean":
		distance = qdrant.Distance_Euclid
	case "ip", "dot":
		distance = qdrant.Distance_Dot
	case "manhattan":
		distance = qdrant.Distance_Manhattan
	default:
		distance = qdrant.Distance_Cosine
	}
	if q.dimension <= 0 {
		return fmt.Errorf("qdrant requires dimensions > 0")
	}
	return q.client.CreateCollection(ctx, &qdrant.CreateCollection{
		CollectionName: q.collection,
		VectorsConfig: qdrant.NewVectorsConfig(&qdrant.VectorParams{
			Size:     uint64(q.dimension),
			Distance: distance,
		}),
	})
}

// pointUUID derives a deterministic UUID for an arbitrary caller ID,
// since Qdrant only accepts UUIDs or positive integers as point IDs.
func pointUUID(id string) string {
	if _, err := uuid.Parse(id); err == nil {
		return id
	}
	return uuid.NewSHA1(uuid.NameSpaceOID, []byte(id)).String()
}

func (q *Qdrant) Upsert(ctx context.Context, points []Point) error {
	if len(points) == 0 {
		return nil
	}
	out := make([]*qdrant.PointStruct, 0, len(points))
	for _, p := range points {
		uuidStr := pointUUID(p.ID)
		payloadMap := make(map[string]any, len(p.Payload)+1)
		for k, v := range p.Payload {
			payloadMap[k] = v
		}
		if uuidStr != p.ID {
			payloadMap[payloadIDField] = p.ID
		}
		vec := make([]float32, len(p.Vector))
		copy(vec, p.Vector)
		out = append(out, &qdrant.PointStruct{
			Id:      qdrant.NewIDUUID(uuidStr),
			Vectors: qdrant.NewVectorsDense(vec),
			Payload: qdrant.NewValueMap(payloadMap),
		})
	}
	_, err := q.client.Upsert(ctx, &qdrant.UpsertPoints{CollectionName: q.collection, Points: out})
	if err != nil {
		return fmt.Errorf("vectorindex: qdrant upsert: %w", err)
	}
	return nil
}

func (q *Qdrant) Search(ctx context.Context, query []float32, k int, filter map[string]string) ([]Hit, error) {
	if k <= 0 {
		k = 10
	}
	vec := make([]float32, len(query))
	copy(vec, query)

	var queryFilter *qdrant.Filter
	if len(filter) > 0 {
		must := make([]*qdrant.Condition, 0, len(filter))
		for key, val := range filter {
			must = append(must, qdrant.NewMatch(key, val))
		}
		queryFilter = &qdrant.Filter{Must: must}
	}

	limit := uint64(k)
	// WithVectors(true): the ranker needs the raw stored vector per
	// spec.md §6 ("search RPC returning hits with payload AND raw
	// vector"), not just the score.
	result, err := q.client.Query(ctx, &qdrant.QueryPoints{
		CollectionName: q.collection,
		Query:          qdrant.NewQueryDense(vec),
		Limit:          &limit,
		Filter:         queryFilter,
		WithPayload:    qdrant.NewWithPayload(true),
		WithVectors:    qdrant.NewWithVectors(true),
	})
	if err != nil {
		return nil, fmt.Errorf("vectorindex: qdrant query: %w", err)
	}

	hits := make([]Hit, 0, len(result))
	for _, hit := range result {
		payload := make(map[string]any, len(hit.Payload))
		var originalID string
		for key, v := range hit.Payload {
			if key == payloadIDField {
				originalID = v.GetStringValue()
				continue
			}
			payload[key] = payloadValue(v)
		}
		id := originalID
		if id == "" {
			id = hit.Id.GetUuid()
		}
		if id == "" {
			id = hit.Id.String()
		}
		score := float64(hit.Score)
		switch q.metric {
		case "l2", "euclidean", "ip", "dot", "manhattan":
			// non-cosine metrics: the raw score is passed through unchanged
		default:
			// cosine in [-1,1] remapped to [0,1], as Memory and HNSW do
			score = (score + 1) / 2
		}
		hits = append(hits, Hit{
			ID:              id,
			Payload:         payload,
			Vector:          extractVector(hit.Vectors),
			SimilarityScore: score,
		})
	}
	return hits, nil
}

func payloadValue(v *qdrant.Value) any {
	switch {
	case v.GetStringValue() != "":
		return v.GetStringValue()
	case v.GetIntegerValue() != 0:
		return v.GetIntegerValue()
	case v.GetDoubleValue() != 0:
		return v.GetDoubleValue()
	case v.GetBoolValue():
		return true
	default:
		return v.GetStringValue()
	}
}

func extractVector(vecs *qdrant.VectorsOutput) []float32 {
	if vecs == nil {
		return nil
	}
	dense := vecs.GetVector()
	if dense == nil {
		return nil
	}
	return dense.GetData()
}

func (q *Qdrant) Close() error { return q.client.Close() }
