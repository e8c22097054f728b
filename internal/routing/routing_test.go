package routing

import (
	"context"
	"math"
	"testing"

	"github.com/paulmach/orb"
)

func TestHaversine_RouteFallbackEquivalence(t *testing.T) {
	// spec.md §8: route(a,b).distance_km == haversine(a,b) within 1e-9,
	// duration_minutes == distance_km / AVG_SPEED_KMH * 60.
	h := NewHaversine(AvgSpeedKMH)
	sigiriya := orb.Point{80.7604, 7.9568}
	dambulla := orb.Point{80.6492, 7.8567}

	info := h.Route(context.Background(), sigiriya, dambulla)
	want := DistanceKM(sigiriya, dambulla)
	if math.Abs(info.DistanceKM-want) > 1e-9 {
		t.Fatalf("distance mismatch: got %v, want %v", info.DistanceKM, want)
	}
	wantDur := want / AvgSpeedKMH * 60
	if math.Abs(info.DurationMin-wantDur) > 1e-9 {
		t.Fatalf("duration mismatch: got %v, want %v", info.DurationMin, wantDur)
	}
	if info.LiveRouting {
		t.Fatalf("haversine provider must never report live routing")
	}
}

func TestHaversine_TwoNearbySitesScenario(t *testing.T) {
	// spec.md §8 scenario 2: Sigiriya/Dambulla ~16.8km, ~25.2min fallback.
	h := NewHaversine(AvgSpeedKMH)
	sigiriya := orb.Point{80.7604, 7.9568}
	dambulla := orb.Point{80.6492, 7.8567}
	info := h.Route(context.Background(), sigiriya, dambulla)
	if info.DistanceKM < 15 || info.DistanceKM > 19 {
		t.Fatalf("expected ~16.8km, got %v", info.DistanceKM)
	}
}

func TestORS_NoTokenFallsBackToHaversine(t *testing.T) {
	fallback := NewHaversine(AvgSpeedKMH)
	ors := NewORS("https://api.openrouteservice.org", "", "driving-car", 0, nil, fallback, nil)
	a := orb.Point{80.7604, 7.9568}
	b := orb.Point{80.6492, 7.8567}
	info := ors.Route(context.Background(), a, b)
	if info.LiveRouting {
		t.Fatalf("expected fallback when no token configured")
	}
	want := DistanceKM(a, b)
	if math.Abs(info.DistanceKM-want) > 1e-9 {
		t.Fatalf("distance mismatch: got %v, want %v", info.DistanceKM, want)
	}
}

func TestDistanceMatrix_SymmetricZeroDiagonal(t *testing.T) {
	h := NewHaversine(AvgSpeedKMH)
	points := []orb.Point{
		{80.7604, 7.9568},
		{80.6492, 7.8567},
		{80.6350, 7.2936},
	}
	m, err := DistanceMatrix(context.Background(), h, points, 4)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for i := range points {
		d, _ := m.Distance.At(i, i)
		if d != 0 {
			t.Fatalf("diagonal[%d] = %v, want 0", i, d)
		}
		for j := range points {
			dij, _ := m.Distance.At(i, j)
			dji, _ := m.Distance.At(j, i)
			if math.Abs(dij-dji) > 1e-9 {
				t.Fatalf("matrix not symmetric at (%d,%d)", i, j)
			}
		}
	}
	if m.LiveRouting {
		t.Fatalf("haversine-only matrix should not report live routing")
	}
}

func TestDistanceMatrix_Singleton(t *testing.T) {
	h := NewHaversine(AvgSpeedKMH)
	m, err := DistanceMatrix(context.Background(), h, []orb.Point{{80.76, 7.95}}, 4)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	d, _ := m.Distance.At(0, 0)
	if d != 0 {
		t.Fatalf("singleton diagonal = %v, want 0", d)
	}
}
