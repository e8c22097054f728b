package cluster

import (
	"sort"

	"github.com/katalvlaran/lvlath/matrix"
	"github.com/paulmach/orb"

	"wayfarer/internal/model"
	"wayfarer/internal/routing"
)

// balance splits oversized clusters and reattaches orphan members of
// over-radius clusters, per spec.md §4.6's balancing pass. valid and
// dist are indexed the same way the clusters were built (pre-balance
// indices into the original candidate slice), so members are matched
// back to their original index by ID.
func (c *Clusterer) balance(clusters []model.Cluster, valid []model.Attraction, dist *matrix.Dense, points []orb.Point) []model.Cluster {
	idOf := make(map[string]int, len(valid))
	for i, a := range valid {
		idOf[a.ID] = i
	}

	out := make([]model.Cluster, 0, len(clusters))
	for _, cl := range clusters {
		out = append(out, c.splitOversized(cl, idOf, dist)...)
	}
	out = c.reattachOrphans(out, idOf, dist)

	rebuilt := make([]model.Cluster, len(out))
	for i, cl := range out {
		rebuilt[i] = c.buildCluster(i, cl.Attractions, nil)
	}
	return rebuilt
}

// splitOversized divides a cluster exceeding MaxPerCluster into
// round-robin groups ordered by descending pear_score, per spec.md
// §4.6 ("split oversized clusters round-robin by descending score").
func (c *Clusterer) splitOversized(cl model.Cluster, idOf map[string]int, dist *matrix.Dense) []model.Cluster {
	if len(cl.Attractions) <= c.Config.MaxPerCluster {
		return []model.Cluster{cl}
	}
	members := append([]model.Attraction{}, cl.Attractions...)
	sort.SliceStable(members, func(i, j int) bool { return members[i].PearScore > members[j].PearScore })

	numParts := (len(members) + c.Config.MaxPerCluster - 1) / c.Config.MaxPerCluster
	parts := make([][]model.Attraction, numParts)
	for i, a := range members {
		p := i % numParts
		parts[p] = append(parts[p], a)
	}
	out := make([]model.Cluster, 0, numParts)
	for _, p := range parts {
		if len(p) > 0 {
			out = append(out, model.Cluster{Attractions: p})
		}
	}
	return out
}

// can_admit: a candidate cluster may accept member iff it still has
// room, member sits within range of the cluster's center, AND within
// range of every existing member — the full three-conjunct feasibility
// predicate from spec.md §4.6. cl is expected to carry a computed
// center (i.e. the result of buildCluster), not a bare Attractions slice.
func canAdmit(cl model.Cluster, member model.Attraction, maxPerCluster int, maxRadiusKM float64) bool {
	if len(cl.Attractions) >= maxPerCluster {
		return false
	}
	if routing.DistanceKM(orb.Point{cl.CenterLng, cl.CenterLat}, orb.Point{member.Longitude, member.Latitude}) > maxRadiusKM {
		return false
	}
	for _, existing := range cl.Attractions {
		d := routing.DistanceKM(
			orb.Point{existing.Longitude, existing.Latitude},
			orb.Point{member.Longitude, member.Latitude},
		)
		if d > maxRadiusKM {
			return false
		}
	}
	return true
}

// orphanScore is the target-selection score from spec.md §4.6: attach
// an orphan to the feasible cluster that *minimizes*
// 1/(1+dist_to_center) + 0.3*value_per_hour, as specified.
func orphanScore(target model.Cluster, orphan model.Attraction) float64 {
	distToCenter := routing.DistanceKM(orb.Point{target.CenterLng, target.CenterLat}, orb.Point{orphan.Longitude, orphan.Latitude})
	return 1/(1+distToCenter) + 0.3*target.ValuePerHour
}

// reattachOrphans implements spec.md §4.6's orphan-redistribution step:
// any cluster whose MaxPairwiseDistanceKM exceeds the radius bound has
// ALL of its members marked as orphans and dissolves; each orphan is
// then attached to the feasible cluster (per can_admit) minimizing
// orphanScore, or becomes its own new singleton cluster if no existing
// cluster can admit it.
func (c *Clusterer) reattachOrphans(clusters []model.Cluster, idOf map[string]int, dist *matrix.Dense) []model.Cluster {
	out := make([]model.Cluster, len(clusters))
	for i, cl := range clusters {
		out[i] = c.buildCluster(i, append([]model.Attraction{}, cl.Attractions...), nil)
	}

	var singletons []model.Cluster
	for ci := range out {
		if out[ci].MaxPairwiseDistanceKM <= c.Config.MaxClusterRadiusKM {
			continue
		}
		orphans := out[ci].Attractions
		out[ci] = model.Cluster{}

		for _, orphan := range orphans {
			bestTarget, bestScore := -1, 0.0
			for cj := range out {
				if cj == ci || len(out[cj].Attractions) == 0 {
					continue
				}
				if !canAdmit(out[cj], orphan, c.Config.MaxPerCluster, c.Config.MaxClusterRadiusKM) {
					continue
				}
				score := orphanScore(out[cj], orphan)
				if bestTarget < 0 || score < bestScore {
					bestScore = score
					bestTarget = cj
				}
			}
			if bestTarget >= 0 {
				out[bestTarget] = c.buildCluster(bestTarget, append(out[bestTarget].Attractions, orphan), nil)
			} else {
				singletons = append(singletons, model.Cluster{Attractions: []model.Attraction{orphan}})
			}
		}
	}

	result := make([]model.Cluster, 0, len(out)+len(singletons))
	for _, cl := range out {
		if len(cl.Attractions) > 0 {
			result = append(result, cl)
		}
	}
	return append(result, singletons...)
}
