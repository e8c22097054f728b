package ordering

import (
	"testing"

	"github.com/katalvlaran/lvlath/matrix"
)

func denseFrom(t *testing.T, rows [][]float64) *matrix.Dense {
	t.Helper()
	n := len(rows)
	d, err := matrix.NewDense(n, n)
	if err != nil {
		t.Fatalf("NewDense: %v", err)
	}
	for i := range rows {
		for j := range rows[i] {
			if err := d.Set(i, j, rows[i][j]); err != nil {
				t.Fatalf("Set(%d,%d): %v", i, j, err)
			}
		}
	}
	return d
}

func TestGreedyNearestNeighbor_IsPermutation(t *testing.T) {
	dist := denseFrom(t, [][]float64{
		{0, 5, 9, 3},
		{5, 0, 2, 8},
		{9, 2, 0, 6},
		{3, 8, 6, 0},
	})
	order := GreedyNearestNeighbor(dist)
	if len(order) != 4 {
		t.Fatalf("expected 4 entries, got %d", len(order))
	}
	seen := make(map[int]bool)
	for _, idx := range order {
		if seen[idx] {
			t.Fatalf("duplicate index %d in order %v", idx, order)
		}
		seen[idx] = true
	}
	for i := 0; i < 4; i++ {
		if !seen[i] {
			t.Fatalf("missing index %d in order %v", i, order)
		}
	}
}

func TestGreedyNearestNeighbor_LocallyOptimalFirstStep(t *testing.T) {
	// spec.md §8: "starting from 0, the second index in optimal_order
	// equals argmin_{j!=0} dist[0,j]".
	dist := denseFrom(t, [][]float64{
		{0, 5, 1, 3},
		{5, 0, 2, 8},
		{1, 2, 0, 6},
		{3, 8, 6, 0},
	})
	order := GreedyNearestNeighbor(dist)
	if order[0] != 0 {
		t.Fatalf("expected tour to start at 0, got %v", order)
	}
	if order[1] != 2 {
		t.Fatalf("expected second stop to be argmin(dist[0,j]) = 2, got %v", order)
	}
}

func TestGreedyNearestNeighbor_TieBreakLowestIndex(t *testing.T) {
	dist := denseFrom(t, [][]float64{
		{0, 4, 4, 9},
		{4, 0, 1, 1},
		{4, 1, 0, 1},
		{9, 1, 1, 0},
	})
	order := GreedyNearestNeighbor(dist)
	if order[1] != 1 {
		t.Fatalf("expected tie broken toward lowest index (1), got %v", order)
	}
}

func TestGreedyNearestNeighbor_TrivialSizes(t *testing.T) {
	single := denseFrom(t, [][]float64{{0}})
	if order := GreedyNearestNeighbor(single); len(order) != 1 || order[0] != 0 {
		t.Fatalf("singleton order = %v", order)
	}
	two := denseFrom(t, [][]float64{{0, 4}, {4, 0}})
	if order := GreedyNearestNeighbor(two); len(order) != 2 || order[0] != 0 || order[1] != 1 {
		t.Fatalf("pair order = %v", order)
	}
}

func TestTotalTravelMinutes(t *testing.T) {
	dur := denseFrom(t, [][]float64{
		{0, 10, 20},
		{10, 0, 15},
		{20, 15, 0},
	})
	total := TotalTravelMinutes([]int{0, 1, 2}, dur)
	if total != 25 {
		t.Fatalf("expected 25, got %v", total)
	}
}
