// Package retriever implements the top-level retrieval operation (C5):
// orchestrating the embedder (C2), vector index (C3) and neural ranker
// (C4) into a single `recommend(query, userContext, topK) -> []Attraction`
// call, per spec.md §4.5.
package retriever

import (
	"context"
	"strconv"
	"strings"

	"wayfarer/internal/model"
	"wayfarer/internal/planerr"
	"wayfarer/internal/ranker"
	"wayfarer/internal/vectorindex"
)

// Logger matches internal/obs.Logger's surface so callers can pass an
// obs.Logger directly without an adapter.
type Logger interface {
	Info(msg string, fields map[string]any)
	Error(msg string, fields map[string]any)
	Debug(msg string, fields map[string]any)
}

// Embedder is the C2 contract: turn text into a dense vector.
type Embedder func(ctx context.Context, text string) ([]float64, error)

// Config carries the tunable knobs spec.md §9 says should not be
// hardcoded: the PEAR fusion weights and the candidate budget.
type Config struct {
	VectorSearchLimit int // k passed to index.Search, recommended 100 for top_k=30
	NeuralWeight      float64
	SimilarityWeight  float64
}

// Retriever ties the embedder, vector index and ranker together.
type Retriever struct {
	Embed   Embedder
	Index   vectorindex.Index
	Ranker  *ranker.Network
	Config  Config
	Log     Logger
}

// New constructs a Retriever, defaulting the PEAR weights when left
// unset so callers only need to set what they're overriding.
func New(embed Embedder, index vectorindex.Index, net *ranker.Network, cfg Config, log Logger) *Retriever {
	if cfg.NeuralWeight == 0 && cfg.SimilarityWeight == 0 {
		cfg.NeuralWeight = ranker.DefaultNeuralWeight
		cfg.SimilarityWeight = ranker.DefaultSimilarityWeight
	}
	if cfg.VectorSearchLimit <= 0 {
		cfg.VectorSearchLimit = 100
	}
	return &Retriever{Embed: embed, Index: index, Ranker: net, Config: cfg, Log: log}
}

// BuildContextText assembles the user-context string per the table in
// spec.md §4.5. Missing fields are omitted; an empty result becomes
// "General travel preferences".
func BuildContextText(uc model.UserContext) string {
	var parts []string
	if len(uc.Interests) > 0 {
		parts = append(parts, strings.Join(uc.Interests, ", "))
	}
	if uc.TripType != "" {
		parts = append(parts, "Trip type: "+uc.TripType)
	}
	if uc.BudgetLevel != "" {
		parts = append(parts, "Budget: "+uc.BudgetLevel)
	}
	if uc.DurationDays > 0 {
		parts = append(parts, "Duration: "+strconv.Itoa(uc.DurationDays)+" days")
	}
	if uc.GroupSize > 0 {
		parts = append(parts, "Group size: "+strconv.Itoa(uc.GroupSize))
	}
	if phrase := qualitativePhrase("cultural interest", uc.CulturalInterest); phrase != "" {
		parts = append(parts, phrase)
	}
	if phrase := qualitativePhrase("adventure", uc.AdventureLevel); phrase != "" {
		parts = append(parts, phrase)
	}
	if phrase := qualitativePhrase("nature appreciation", uc.NatureAppreciation); phrase != "" {
		parts = append(parts, phrase)
	}
	if len(parts) == 0 {
		return "General travel preferences"
	}
	return strings.Join(parts, ". ")
}

// qualitativePhrase maps a 1-10 rating to the level-based phrasing
// spec.md §4.5 asks for ("each -> qualitative phrase when > 7 or > 4").
func qualitativePhrase(label string, level int) string {
	switch {
	case level > 7:
		return "Strong " + label
	case level > 4:
		return "Moderate " + label
	default:
		return ""
	}
}

// Recommend is the C5 top-level operation: embed query/context, search
// the vector index, rank and fuse scores, return the top_k Attractions
// sorted by descending pear_score. Filter is an optional payload
// equality match for filtered retrieval variants (spec.md §4.5).
func (r *Retriever) Recommend(ctx context.Context, queryText string, uc model.UserContext, topK int, filter map[string]string) ([]model.Attraction, error) {
	if queryText == "" {
		return nil, planerr.New(planerr.InvalidRequest, "query text must not be empty")
	}
	contextText := BuildContextText(uc)

	qVec, err := r.Embed(ctx, queryText)
	if err != nil {
		return nil, planerr.Wrap(planerr.EmbedderFailure, "embed query text", err)
	}
	cVec, err := r.Embed(ctx, contextText)
	if err != nil {
		return nil, planerr.Wrap(planerr.EmbedderFailure, "embed context text", err)
	}

	hits, err := r.Index.Search(ctx, toFloat32(qVec), r.Config.VectorSearchLimit, filter)
	if err != nil {
		return nil, planerr.Wrap(planerr.IndexUnavailable, "vector index search", err)
	}
	if len(hits) == 0 {
		return nil, nil
	}

	attrs := make([]model.Attraction, 0, len(hits))
	for _, hit := range hits {
		neuralScore, similarityScore, ok := r.scoreHit(qVec, cVec, hit)
		a := attractionFromHit(hit, neuralScore, similarityScore, r.Config.NeuralWeight, r.Config.SimilarityWeight)
		if !ok {
			a.PearScore = 0.5
		}
		attrs = append(attrs, a)
	}

	sortByPearScoreDesc(attrs)
	if topK > 0 && topK < len(attrs) {
		attrs = attrs[:topK]
	}
	return attrs, nil
}

// scoreHit runs the ranker for one candidate, falling back to
// pear_score = 0.5 on a per-item scoring failure per spec.md §7
// (RankerItemFailure is local, not fatal to the request).
func (r *Retriever) scoreHit(qVec, cVec []float64, hit vectorindex.Hit) (neuralScore, similarityScore float64, ok bool) {
	similarityScore = hit.SimilarityScore
	candidateVec := toFloat64(hit.Vector)
	score, err := r.Ranker.Score(qVec, cVec, candidateVec)
	if err != nil {
		if r.Log != nil {
			r.Log.Error("retriever: ranker failed for candidate, using neutral score", map[string]any{
				"candidate_id": hit.ID,
				"error":        err.Error(),
			})
		}
		return 0.5, similarityScore, false
	}
	return score, similarityScore, true
}

func attractionFromHit(hit vectorindex.Hit, neuralScore, similarityScore, neuralWeight, similarityWeight float64) model.Attraction {
	a := model.Attraction{
		ID:                   hit.ID,
		NeuralScore:          neuralScore,
		SimilarityScore:      similarityScore,
		VisitDurationMinutes: model.DefaultVisitDurationMinutes,
	}
	a.PearScore = ranker.PearScore(neuralScore, similarityScore, neuralWeight, similarityWeight)

	if v, ok := hit.Payload["name"].(string); ok {
		a.Name = v
	}
	if v, ok := hit.Payload["category"].(string); ok {
		a.Category = v
	}
	if v, ok := hit.Payload["description"].(string); ok {
		a.Description = v
	}
	if v, ok := hit.Payload["region"].(string); ok {
		a.Region = v
	}
	if v, ok := hit.Payload["visit_duration_minutes"]; ok {
		a.VisitDurationMinutes = toInt(v, model.DefaultVisitDurationMinutes)
	}
	return a
}

func toInt(v any, fallback int) int {
	switch n := v.(type) {
	case int:
		return n
	case int64:
		return int(n)
	case float64:
		return int(n)
	default:
		return fallback
	}
}

func toFloat32(v []float64) []float32 {
	out := make([]float32, len(v))
	for i, x := range v {
		out[i] = float32(x)
	}
	return out
}

func toFloat64(v []float32) []float64 {
	out := make([]float64, len(v))
	for i, x := range v {
		out[i] = float64(x)
	}
	return out
}

func sortByPearScoreDesc(attrs []model.Attraction) {
	// insertion sort is fine here: N_TOP candidate budgets are small
	// (spec.md recommends VECTOR_SEARCH_LIMIT=100), and keeping this
	// stable (ties keep index search order) matters for the
	// ranking-monotonicity property in spec.md §8.
	for i := 1; i < len(attrs); i++ {
		for j := i; j > 0 && attrs[j].PearScore > attrs[j-1].PearScore; j-- {
			attrs[j], attrs[j-1] = attrs[j-1], attrs[j]
		}
	}
}
