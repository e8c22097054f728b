// Package cluster implements the balanced geographic clusterer (C7):
// partitioning ranked, coordinate-enriched candidates into day-sized
// clusters that respect travel-time and radius constraints, per
// spec.md §4.6. Three interchangeable strategies share one entry
// point (Cluster), matching the "tagged variant, single cluster(attrs)
// entry point" design note in spec.md §9 — callers never branch on the
// concrete algorithm.
package cluster

import (
	"context"
	"math"
	"sort"

	"github.com/katalvlaran/lvlath/matrix"
	"github.com/paulmach/orb"

	"wayfarer/internal/config"
	"wayfarer/internal/model"
	"wayfarer/internal/routing"
)

// Strategy selects which clustering algorithm Cluster runs, per
// spec.md §4.6 ("The planner picks the algorithm per request").
type Strategy string

const (
	Smart  Strategy = "smart"
	KMeans Strategy = "kmeans"
	DBSCAN Strategy = "dbscan"
)

// Clusterer builds day clusters over a set of ranked, geocoded
// candidates. It owns the route provider used to build the driving-
// distance matrix the clustering and balancing steps operate on.
type Clusterer struct {
	Provider routing.Provider
	Config   config.ClusterConfig
}

// New constructs a Clusterer.
func New(provider routing.Provider, cfg config.ClusterConfig) *Clusterer {
	return &Clusterer{Provider: provider, Config: cfg}
}

// Cluster partitions attrs into balanced day clusters using the
// requested strategy, per spec.md §4.6. attrs without coordinates are
// dropped first — clustering is not meaningful without a position.
func (c *Clusterer) Cluster(ctx context.Context, attrs []model.Attraction, strategy Strategy, targetClusters int) ([]model.Cluster, error) {
	valid := make([]model.Attraction, 0, len(attrs))
	for _, a := range attrs {
		if a.HasCoordinates {
			valid = append(valid, a)
		}
	}
	if len(valid) == 0 {
		return nil, nil
	}
	if len(valid) < c.Config.MinPerCluster {
		return []model.Cluster{c.buildCluster(0, valid, nil)}, nil
	}

	points := make([]orb.Point, len(valid))
	for i, a := range valid {
		points[i] = orb.Point{a.Longitude, a.Latitude}
	}
	matrices, err := routing.DistanceMatrix(ctx, c.Provider, points, 12)
	if err != nil {
		return nil, err
	}

	var labels []int
	switch strategy {
	case KMeans:
		k := clampK(targetClusters, len(valid), c.Config.MinPerCluster)
		labels = kMedoids(matrices.Distance, k, c.Config.Seed)
	case DBSCAN:
		labels = dbscanCluster(matrices.Distance, c.Config.MaxClusterRadiusKM, c.Config.MinPerCluster)
	default: // Smart
		pseudo := smartPseudoDistance(valid, matrices.Distance, c.Config.DistanceWeight)
		k := clampK(targetClusters, len(valid), c.Config.MinPerCluster)
		labels = kMedoids(pseudo, k, c.Config.Seed)
	}

	clusters := c.groupByLabel(valid, labels, matrices.Distance)
	clusters = c.balance(clusters, valid, matrices.Distance, points)
	for i := range clusters {
		clusters[i].ClusterID = i
	}
	return clusters, nil
}

func clampK(target, n, minPerCluster int) int {
	maxK := n / minPerCluster
	if maxK < 1 {
		maxK = 1
	}
	k := target
	if k > maxK {
		k = maxK
	}
	if k < 1 {
		k = 1
	}
	if k > n {
		k = n
	}
	return k
}

// smartPseudoDistance builds the pseudo-distance matrix described in
// spec.md §4.6 step 2-3: S[i,j] = score_similarity - distanceWeight *
// normalized_distance, converted to pseudo-distance 1-S (diagonal 0).
func smartPseudoDistance(attrs []model.Attraction, dist *matrix.Dense, distanceWeight float64) *matrix.Dense {
	n := len(attrs)
	maxDist := 0.0
	for i := 0; i < n; i++ {
		for j := 0; j < n; j++ {
			d, _ := dist.At(i, j)
			if d > maxDist {
				maxDist = d
			}
		}
	}
	if maxDist == 0 {
		maxDist = 1
	}
	out, _ := matrix.NewDense(n, n)
	for i := 0; i < n; i++ {
		for j := 0; j < n; j++ {
			if i == j {
				continue
			}
			d, _ := dist.At(i, j)
			normalizedDistance := d / maxDist
			scoreSimilarity := 1 - math.Abs(attrs[i].PearScore-attrs[j].PearScore)
			s := scoreSimilarity - distanceWeight*normalizedDistance
			_ = out.Set(i, j, 1-s)
		}
	}
	return out
}

// groupByLabel collects members per cluster label and computes initial
// metrics (center, scores, max pairwise distance) before balancing.
func (c *Clusterer) groupByLabel(attrs []model.Attraction, labels []int, dist *matrix.Dense) []model.Cluster {
	byLabel := make(map[int][]int)
	for i, l := range labels {
		byLabel[l] = append(byLabel[l], i)
	}
	keys := make([]int, 0, len(byLabel))
	for k := range byLabel {
		keys = append(keys, k)
	}
	sort.Ints(keys)

	clusters := make([]model.Cluster, 0, len(keys))
	for _, k := range keys {
		members := make([]model.Attraction, 0, len(byLabel[k]))
		for _, idx := range byLabel[k] {
			members = append(members, attrs[idx])
		}
		clusters = append(clusters, c.buildCluster(len(clusters), members, nil))
	}
	return clusters
}

// buildCluster computes the derived metrics from spec.md §3 for a
// fresh member set. optimalOrder is left nil — ordering (C8) fills it
// in after clustering, per the pipeline data flow in spec.md §2.
func (c *Clusterer) buildCluster(id int, members []model.Attraction, optimalOrder []int) model.Cluster {
	cl := model.Cluster{ClusterID: id, Attractions: members, OptimalOrder: optimalOrder}
	if len(members) == 0 {
		return cl
	}
	var sumLat, sumLng, sumVisit, sumScore float64
	for _, a := range members {
		sumLat += a.Latitude
		sumLng += a.Longitude
		sumVisit += float64(a.VisitDurationMinutes)
		sumScore += a.PearScore
	}
	cl.CenterLat = sumLat / float64(len(members))
	cl.CenterLng = sumLng / float64(len(members))
	cl.TotalPearScore = sumScore

	maxDist := 0.0
	for i := 0; i < len(members); i++ {
		for j := i + 1; j < len(members); j++ {
			d := routing.DistanceKM(
				orb.Point{members[i].Longitude, members[i].Latitude},
				orb.Point{members[j].Longitude, members[j].Latitude},
			)
			if d > maxDist {
				maxDist = d
			}
		}
	}
	cl.MaxPairwiseDistanceKM = maxDist
	cl.RegionName = RegionName(cl.CenterLat, cl.CenterLng)

	// Travel time isn't known yet (ordering hasn't run); approximate
	// with the cluster radius at AVG_SPEED_KMH so EstimatedTimeHours is
	// well-defined before C8 runs, matching the spec's own
	// estimate-from-radius fallback in §4.6's preprocessing discussion.
	approxTravel := 0.0
	if len(members) > 1 {
		approxTravel = (maxDist / routing.AvgSpeedKMH) * 60 * float64(len(members)-1)
	}
	cl.TotalTravelTimeMinutes = approxTravel
	cl.EstimatedTimeHours = (sumVisit + approxTravel) / 60
	cl.ValuePerHour = cl.TotalPearScore / math.Max(cl.EstimatedTimeHours, 0.1)
	cl.IsBalanced = isBalanced(cl, c.Config.MinPerCluster, c.Config.MaxPerCluster)
	return cl
}

// RecomputeTravelMetrics refreshes EstimatedTimeHours, ValuePerHour and
// IsBalanced from cl's current TotalTravelTimeMinutes, per spec.md §3's
// derivation chain (estimated_time_hours -> value_per_hour ->
// is_balanced). buildCluster's copy of these fields is only a
// pre-ordering radius-based approximation; callers MUST call this again
// once C8 ordering commits a real TotalTravelTimeMinutes, or the fields
// go stale next to the now-accurate travel time.
func (c *Clusterer) RecomputeTravelMetrics(cl *model.Cluster) {
	sumVisit := 0.0
	for _, a := range cl.Attractions {
		sumVisit += float64(a.VisitDurationMinutes)
	}
	cl.EstimatedTimeHours = (sumVisit + cl.TotalTravelTimeMinutes) / 60
	cl.ValuePerHour = cl.TotalPearScore / math.Max(cl.EstimatedTimeHours, 0.1)
	cl.IsBalanced = isBalanced(*cl, c.Config.MinPerCluster, c.Config.MaxPerCluster)
}

func isBalanced(cl model.Cluster, minPerCluster, maxPerCluster int) bool {
	size := len(cl.Attractions)
	return cl.MaxPairwiseDistanceKM <= 50 &&
		cl.EstimatedTimeHours <= 14 &&
		size >= minPerCluster && size <= maxPerCluster+2 &&
		cl.ValuePerHour > 0.1
}

// RegionName derives a region label for a cluster center using a fixed
// rectangular-bounds lookup table, per spec.md §4.6. The table is data
// (Sri Lanka's provinces), not algorithm, grounded on the original
// source's GeographicClusterer._get_region_name.
func RegionName(lat, lng float64) string {
	switch {
	case lat > 8.5:
		return "Northern Province"
	case lat > 7.5 && lng < 80.5:
		return "Western Province"
	case lat > 7.0 && lng > 81.0:
		return "Eastern Province"
	case lat > 6.5:
		return "Central Province"
	default:
		return "Southern Province"
	}
}

// RankClusters orders clusters by the day-assignment score from
// spec.md §4.6 and returns the top n.
func RankClusters(clusters []model.Cluster, n int, minPerCluster, maxPerCluster int) []model.Cluster {
	scored := make([]model.Cluster, len(clusters))
	copy(scored, clusters)
	score := func(cl model.Cluster) float64 {
		s := cl.ValuePerHour
		if cl.IsBalanced {
			s *= 1.2
		}
		if cl.TotalTravelTimeMinutes > 180 {
			s *= 0.7
		}
		size := len(cl.Attractions)
		if size >= minPerCluster && size <= maxPerCluster {
			s *= 1.1
		}
		return s
	}
	sort.SliceStable(scored, func(i, j int) bool { return score(scored[i]) > score(scored[j]) })
	if n > 0 && n < len(scored) {
		scored = scored[:n]
	}
	return scored
}
