// Package ordering solves the intra-cluster visiting order (C8): a
// greedy nearest-neighbor open-tour heuristic over a cluster's driving-
// distance matrix, per spec.md §4.7. This is a literal, pinned
// algorithm — "starting from index 0, argmin unvisited, lowest-index
// tie-break" — not a general TSP solver, because spec.md's testable
// property 8 depends on exactly this heuristic's first step.
package ordering

import (
	"math"

	"github.com/katalvlaran/lvlath/matrix"
)

// GreedyNearestNeighbor computes a visiting order over m members from
// their distance matrix. For m<=2 the order is trivially [0..m-1], per
// spec.md §4.7. The result is always a permutation of 0..m-1.
func GreedyNearestNeighbor(dist *matrix.Dense) []int {
	m := dist.Rows()
	if m <= 2 {
		order := make([]int, m)
		for i := range order {
			order[i] = i
		}
		return order
	}

	visited := make([]bool, m)
	order := make([]int, 0, m)
	current := 0
	visited[0] = true
	order = append(order, 0)

	for len(order) < m {
		best := -1
		bestDist := math.Inf(1)
		for j := 0; j < m; j++ {
			if visited[j] {
				continue
			}
			d, _ := dist.At(current, j)
			if d < bestDist {
				bestDist = d
				best = j
			}
		}
		visited[best] = true
		order = append(order, best)
		current = best
	}
	return order
}

// TotalTravelMinutes sums consecutive-hop durations along order using
// the cluster's duration matrix, per spec.md §4.7 ("Total travel time
// is then recomputed by summing consecutive-hop driving durations
// along the tour").
func TotalTravelMinutes(order []int, duration *matrix.Dense) float64 {
	var total float64
	for i := 1; i < len(order); i++ {
		d, _ := duration.At(order[i-1], order[i])
		total += d
	}
	return total
}

// TotalTravelKM sums consecutive-hop distances along order, used for
// the day-level total_travel_distance_km figure in PlanResponse.
func TotalTravelKM(order []int, distance *matrix.Dense) float64 {
	var total float64
	for i := 1; i < len(order); i++ {
		d, _ := distance.At(order[i-1], order[i])
		total += d
	}
	return total
}
