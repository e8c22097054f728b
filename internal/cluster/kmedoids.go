package cluster

import (
	"math"

	"github.com/katalvlaran/lvlath/matrix"
)

// kMedoids partitions n points into k groups using a precomputed
// distance matrix, following the same assign/update loop shape as a
// standard k-means implementation (see the teacher pack's k-means++
// init and iterate-to-convergence structure), adapted to a medoid
// (an actual member, not a centroid vector) because only pairwise
// distances are available here — there is no coordinate space to
// average over. Deterministic for a fixed seed, per spec.md §9's
// "reproducible, not cryptographic" requirement on cluster RNG.
func kMedoids(dist *matrix.Dense, k int, seed int64) []int {
	n := dist.Rows()
	if k >= n {
		labels := make([]int, n)
		for i := range labels {
			labels[i] = i
		}
		return labels
	}
	if k <= 1 {
		return make([]int, n)
	}

	rng := newLCG(seed)
	medoids := initMedoidsPlusPlus(dist, k, rng)
	labels := make([]int, n)

	const maxIters = 100
	for iter := 0; iter < maxIters; iter++ {
		changed := false
		for i := 0; i < n; i++ {
			best, bestDist := 0, math.Inf(1)
			for mi, m := range medoids {
				d, _ := dist.At(i, m)
				if d < bestDist {
					bestDist = d
					best = mi
				}
			}
			if labels[i] != best {
				labels[i] = best
				changed = true
			}
		}

		newMedoids := make([]int, k)
		for mi := range medoids {
			members := membersOf(labels, mi)
			if len(members) == 0 {
				newMedoids[mi] = medoids[mi]
				continue
			}
			newMedoids[mi] = minTotalDistanceMember(dist, members)
		}
		sameMedoids := true
		for i := range medoids {
			if medoids[i] != newMedoids[i] {
				sameMedoids = false
				break
			}
		}
		medoids = newMedoids
		if !changed && sameMedoids {
			break
		}
	}
	return labels
}

// initMedoidsPlusPlus picks k initial medoids with k-means++-style
// distance-weighted sampling: the first medoid is chosen uniformly,
// each subsequent one favors points far from the ones already chosen.
func initMedoidsPlusPlus(dist *matrix.Dense, k int, rng *lcg) []int {
	n := dist.Rows()
	medoids := make([]int, 0, k)
	medoids = append(medoids, rng.Intn(n))

	for len(medoids) < k {
		weights := make([]float64, n)
		var total float64
		for i := 0; i < n; i++ {
			minD := math.Inf(1)
			for _, m := range medoids {
				d, _ := dist.At(i, m)
				if d < minD {
					minD = d
				}
			}
			weights[i] = minD * minD
			total += weights[i]
		}
		if total == 0 {
			// all remaining points coincide with chosen medoids; fill
			// deterministically from the lowest unused index.
			for i := 0; i < n; i++ {
				if !contains(medoids, i) {
					medoids = append(medoids, i)
					break
				}
			}
			continue
		}
		target := rng.Float64() * total
		var cum float64
		chosen := -1
		for i := 0; i < n; i++ {
			cum += weights[i]
			if cum >= target {
				chosen = i
				break
			}
		}
		if chosen == -1 || contains(medoids, chosen) {
			chosen = firstUnused(medoids, n)
		}
		medoids = append(medoids, chosen)
	}
	return medoids
}

func contains(xs []int, v int) bool {
	for _, x := range xs {
		if x == v {
			return true
		}
	}
	return false
}

func firstUnused(used []int, n int) int {
	for i := 0; i < n; i++ {
		if !contains(used, i) {
			return i
		}
	}
	return 0
}

func membersOf(labels []int, label int) []int {
	var out []int
	for i, l := range labels {
		if l == label {
			out = append(out, i)
		}
	}
	return out
}

// minTotalDistanceMember finds, among members, the index minimizing
// total distance to all other members — the PAM-style medoid update.
func minTotalDistanceMember(dist *matrix.Dense, members []int) int {
	best, bestTotal := members[0], math.Inf(1)
	for _, i := range members {
		var total float64
		for _, j := range members {
			d, _ := dist.At(i, j)
			total += d
		}
		if total < bestTotal {
			bestTotal = total
			best = i
		}
	}
	return best
}

// lcg is a small deterministic linear congruential generator, used
// instead of math/rand so cluster assignment is reproducible byte-for-
// byte across Go versions for a fixed seed, per spec.md §9.
type lcg struct{ state uint64 }

func newLCG(seed int64) *lcg {
	s := uint64(seed)
	if s == 0 {
		s = 1
	}
	return &lcg{state: s}
}

func (l *lcg) next() uint64 {
	l.state = l.state*6364136223846793005 + 1442695040888963407
	return l.state
}

func (l *lcg) Float64() float64 {
	return float64(l.next()>>11) / float64(1<<53)
}

func (l *lcg) Intn(n int) int {
	if n <= 0 {
		return 0
	}
	return int(l.next() % uint64(n))
}
