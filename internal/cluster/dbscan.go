package cluster

import "github.com/katalvlaran/lvlath/matrix"

const noise = -1

// dbscanCluster groups points within epsKM of each other (density-
// reachability, standard DBSCAN), then reattaches any noise point to
// its nearest cluster per spec.md §4.6's "noise reattachment" step —
// unlike textbook DBSCAN, this clusterer never returns unassigned
// points, since every attraction must end up on some day.
func dbscanCluster(dist *matrix.Dense, epsKM float64, minPts int) []int {
	n := dist.Rows()
	labels := make([]int, n)
	for i := range labels {
		labels[i] = noise
	}
	visited := make([]bool, n)
	cluster := 0

	var neighbors func(i int) []int
	neighbors = func(i int) []int {
		var out []int
		for j := 0; j < n; j++ {
			if j == i {
				continue
			}
			d, _ := dist.At(i, j)
			if d <= epsKM {
				out = append(out, j)
			}
		}
		return out
	}

	for i := 0; i < n; i++ {
		if visited[i] {
			continue
		}
		visited[i] = true
		nbrs := neighbors(i)
		if len(nbrs)+1 < minPts {
			continue // stays noise for now, reattached below
		}
		labels[i] = cluster
		queue := append([]int{}, nbrs...)
		for len(queue) > 0 {
			j := queue[0]
			queue = queue[1:]
			if !visited[j] {
				visited[j] = true
				jn := neighbors(j)
				if len(jn)+1 >= minPts {
					queue = append(queue, jn...)
				}
			}
			if labels[j] == noise {
				labels[j] = cluster
			}
		}
		cluster++
	}

	if cluster == 0 {
		// nothing dense enough; treat the whole set as one cluster
		// rather than leaving it all unassigned.
		for i := range labels {
			labels[i] = 0
		}
		return labels
	}

	// reattach noise points to the nearest cluster's closest member.
	for i := 0; i < n; i++ {
		if labels[i] != noise {
			continue
		}
		bestCluster, bestDist := 0, -1.0
		for j := 0; j < n; j++ {
			if labels[j] == noise {
				continue
			}
			d, _ := dist.At(i, j)
			if bestDist < 0 || d < bestDist {
				bestDist = d
				bestCluster = labels[j]
			}
		}
		labels[i] = bestCluster
	}
	return labels
}
