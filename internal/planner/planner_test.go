package planner

import (
	"context"
	"testing"
	"time"

	"wayfarer/internal/cluster"
	"wayfarer/internal/config"
	"wayfarer/internal/gazetteer"
	"wayfarer/internal/model"
	"wayfarer/internal/obs"
	"wayfarer/internal/ranker"
	"wayfarer/internal/retriever"
	"wayfarer/internal/routing"
	"wayfarer/internal/vectorindex"
)

type fixedClock struct{ t time.Time }

func (f fixedClock) Now() time.Time { return f.t }

func fakeEmbed(dim int) retriever.Embedder {
	return func(_ context.Context, text string) ([]float64, error) {
		v := make([]float64, dim)
		for i, r := range text {
			v[i%dim] += float64(r % 7)
		}
		return v, nil
	}
}

func testGazetteer(t *testing.T) *gazetteer.Gazetteer {
	t.Helper()
	gz, err := gazetteer.Load("../../configs/gazetteer.yaml")
	if err != nil {
		t.Fatalf("load gazetteer: %v", err)
	}
	return gz
}

func buildPlanner(t *testing.T, names []string) *Planner {
	t.Helper()
	idx := vectorindex.NewMemory()
	for i, name := range names {
		idx.Upsert(context.Background(), []vectorindex.Point{{
			ID:     name,
			Vector: []float32{float32(i + 1), 0, 0},
			Payload: map[string]any{
				"name":     name,
				"category": "heritage",
			},
		}})
	}
	net := ranker.NewUntrained(3, 8, nil)
	r := retriever.New(fakeEmbed(3), idx, net, retriever.Config{VectorSearchLimit: 50}, nil)
	gz := testGazetteer(t)
	c := cluster.New(routing.NewHaversine(routing.AvgSpeedKMH), config.ClusterConfig{
		MaxClusterRadiusKM: 60, MinPerCluster: 2, MaxPerCluster: 5, DistanceWeight: 0.7, Seed: 9,
	})
	return New(r, gz, c, routing.NewHaversine(routing.AvgSpeedKMH), Config{TopK: 30}, nil, fixedClock{t: time.Unix(0, 0)})
}

func TestPlan_EmptyQueryIsInvalidRequest(t *testing.T) {
	p := buildPlanner(t, []string{"Sigiriya Rock Fortress"})
	_, err := p.Plan(context.Background(), Request{Query: "", TripDurationDays: 2})
	if err == nil {
		t.Fatalf("expected error for empty query")
	}
}

func TestPlan_InvalidDurationRejected(t *testing.T) {
	p := buildPlanner(t, []string{"Sigiriya Rock Fortress"})
	_, err := p.Plan(context.Background(), Request{Query: "temples", TripDurationDays: 0})
	if err == nil {
		t.Fatalf("expected error for zero duration")
	}
}

func TestPlan_FullRun_EveryDayHasAtLeastOneAttraction(t *testing.T) {
	names := []string{
		"Sigiriya Rock Fortress", "Dambulla Cave Temple", "Temple of the Sacred Tooth Relic",
		"Polonnaruwa Ancient City", "Anuradhapura Sacred City",
	}
	p := buildPlanner(t, names)
	resp, err := p.Plan(context.Background(), Request{
		Query:                 "cultural temples and ancient heritage",
		UserContext:           model.UserContext{Interests: []string{"culture", "temples", "history"}},
		TripDurationDays:      2,
		DailyTravelPreference: "balanced",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp.TotalDays == 0 {
		t.Fatalf("expected at least one day")
	}
	for _, day := range resp.DailyItineraries {
		if len(day.Attractions) == 0 {
			t.Fatalf("day %d has no attractions", day.Day)
		}
	}
}

func TestPlan_RecordsMetrics(t *testing.T) {
	names := []string{"Sigiriya Rock Fortress", "Dambulla Cave Temple", "Temple of the Sacred Tooth Relic"}
	p := buildPlanner(t, names)
	mock := obs.NewMockMetrics()
	p.Metrics = mock

	if _, err := p.Plan(context.Background(), Request{Query: "", TripDurationDays: 1}); err == nil {
		t.Fatalf("expected error for empty query")
	}
	if _, err := p.Plan(context.Background(), Request{Query: "temples", TripDurationDays: 1}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if got := mock.Counters["plan_requests_total"]; got != 2 {
		t.Fatalf("expected 2 plan_requests_total observations, got %d", got)
	}
	if len(mock.Hists["plan_duration_ms"]) != 1 {
		t.Fatalf("expected 1 plan_duration_ms observation for the successful run, got %d", len(mock.Hists["plan_duration_ms"]))
	}
}

func TestPlan_EstimatedTimeDerivedFromOrderedTravelTime(t *testing.T) {
	names := []string{
		"Sigiriya Rock Fortress", "Dambulla Cave Temple", "Temple of the Sacred Tooth Relic",
	}
	p := buildPlanner(t, names)
	resp, err := p.Plan(context.Background(), Request{
		Query:            "cultural heritage sites",
		TripDurationDays: 1,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(resp.DailyItineraries) == 0 {
		t.Fatalf("expected at least one day")
	}
	for _, day := range resp.DailyItineraries {
		// Every test attraction here carries the default visit duration
		// (no visit_duration_minutes in its payload).
		wantHours := (float64(len(day.Attractions)*model.DefaultVisitDurationMinutes) + day.TravelTimeMinutes) / 60
		if diff := day.EstimatedTotalTimeHours - wantHours; diff > 1e-6 || diff < -1e-6 {
			t.Fatalf("day %d: EstimatedTotalTimeHours = %v, want %v derived from ordered TravelTimeMinutes=%v",
				day.Day, day.EstimatedTotalTimeHours, wantHours, day.TravelTimeMinutes)
		}
	}
}

func TestPlan_ClusterMembershipDisjoint(t *testing.T) {
	names := []string{
		"Sigiriya Rock Fortress", "Dambulla Cave Temple", "Temple of the Sacred Tooth Relic",
		"Polonnaruwa Ancient City", "Galle Fort", "Mirissa Beach",
	}
	p := buildPlanner(t, names)
	resp, err := p.Plan(context.Background(), Request{
		Query:            "beaches and heritage sites",
		TripDurationDays: 3,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	seen := make(map[string]bool)
	for _, day := range resp.DailyItineraries {
		for _, a := range day.Attractions {
			if seen[a.ID] {
				t.Fatalf("attraction %s appears on more than one day", a.ID)
			}
			seen[a.ID] = true
		}
	}
}
