package retriever

import (
	"context"
	"errors"
	"testing"

	"wayfarer/internal/model"
	"wayfarer/internal/ranker"
	"wayfarer/internal/vectorindex"
)

func fakeEmbed(dim int) Embedder {
	return func(_ context.Context, text string) ([]float64, error) {
		v := make([]float64, dim)
		for i, r := range text {
			v[i%dim] += float64(r % 7)
		}
		return v, nil
	}
}

func TestBuildContextText_EmptyFallsBackToDefault(t *testing.T) {
	got := BuildContextText(model.UserContext{})
	if got != "General travel preferences" {
		t.Fatalf("got %q", got)
	}
}

func TestBuildContextText_JoinsPresentFields(t *testing.T) {
	uc := model.UserContext{
		Interests:    []string{"culture", "history"},
		TripType:     "family",
		BudgetLevel:  "medium",
		DurationDays: 5,
		GroupSize:    3,
	}
	got := BuildContextText(uc)
	want := "culture, history. Trip type: family. Budget: medium. Duration: 5 days. Group size: 3"
	if got != want {
		t.Fatalf("got %q want %q", got, want)
	}
}

func TestBuildContextText_QualitativeThresholds(t *testing.T) {
	uc := model.UserContext{CulturalInterest: 8, AdventureLevel: 5, NatureAppreciation: 2}
	got := BuildContextText(uc)
	want := "Strong cultural interest. Moderate adventure"
	if got != want {
		t.Fatalf("got %q want %q", got, want)
	}
}

func TestRecommend_RankingMonotonicity(t *testing.T) {
	idx := vectorindex.NewMemory()
	idx.Upsert(context.Background(), []vectorindex.Point{
		{ID: "a", Vector: []float32{1, 0, 0}, Payload: map[string]any{"name": "Sigiriya"}},
		{ID: "b", Vector: []float32{0, 1, 0}, Payload: map[string]any{"name": "Kandy"}},
	})
	net := ranker.NewUntrained(3, 8, nil)
	r := New(fakeEmbed(3), idx, net, Config{VectorSearchLimit: 10}, nil)

	run := func() []model.Attraction {
		out, err := r.Recommend(context.Background(), "temples", model.UserContext{}, 10, nil)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		return out
	}
	first := run()
	second := run()
	if len(first) != len(second) {
		t.Fatalf("length mismatch: %d vs %d", len(first), len(second))
	}
	for i := range first {
		if first[i].ID != second[i].ID || first[i].PearScore != second[i].PearScore {
			t.Fatalf("non-deterministic ranking at %d: %+v vs %+v", i, first[i], second[i])
		}
	}
}

func TestRecommend_EmptyQueryIsInvalidRequest(t *testing.T) {
	idx := vectorindex.NewMemory()
	net := ranker.NewUntrained(3, 8, nil)
	r := New(fakeEmbed(3), idx, net, Config{}, nil)
	_, err := r.Recommend(context.Background(), "", model.UserContext{}, 10, nil)
	if err == nil {
		t.Fatalf("expected error for empty query")
	}
}

func TestRecommend_EmptyIndexReturnsEmptyNotError(t *testing.T) {
	idx := vectorindex.NewMemory()
	net := ranker.NewUntrained(3, 8, nil)
	r := New(fakeEmbed(3), idx, net, Config{}, nil)
	out, err := r.Recommend(context.Background(), "temples", model.UserContext{}, 10, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(out) != 0 {
		t.Fatalf("expected empty result, got %d", len(out))
	}
}

func TestRecommend_EmbedderFailurePropagates(t *testing.T) {
	idx := vectorindex.NewMemory()
	net := ranker.NewUntrained(3, 8, nil)
	failingEmbed := Embedder(func(context.Context, string) ([]float64, error) { return nil, errors.New("boom") })
	r := New(failingEmbed, idx, net, Config{}, nil)
	_, err := r.Recommend(context.Background(), "temples", model.UserContext{}, 10, nil)
	if err == nil {
		t.Fatalf("expected embedder failure to propagate")
	}
}

func TestScoreFusionBounds(t *testing.T) {
	got := ranker.PearScore(1.5, -0.5, ranker.DefaultNeuralWeight, ranker.DefaultSimilarityWeight)
	if got < 0 || got > 1 {
		t.Fatalf("pear score out of bounds: %v", got)
	}
}
