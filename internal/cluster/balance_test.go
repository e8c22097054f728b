package cluster

import (
	"testing"

	"wayfarer/internal/model"
	"wayfarer/internal/routing"
)

func TestCanAdmit_RejectsOnSizeRadiusOrMemberDistance(t *testing.T) {
	full := model.Cluster{
		CenterLat: 7.0, CenterLng: 80.0,
		Attractions: []model.Attraction{attraction("a", 7.0, 80.0, 0.5), attraction("b", 7.0, 80.0, 0.5)},
	}
	if canAdmit(full, attraction("c", 7.0, 80.0, 0.5), 2, 50) {
		t.Fatalf("expected rejection: cluster already at MaxPerCluster")
	}

	roomy := model.Cluster{
		CenterLat: 7.0, CenterLng: 80.0,
		Attractions: []model.Attraction{attraction("a", 7.0, 80.0, 0.5)},
	}
	far := attraction("far", 20.0, 90.0, 0.5)
	if canAdmit(roomy, far, 5, 50) {
		t.Fatalf("expected rejection: member is far outside the radius of the cluster center")
	}

	// Within radius of the center, but not within radius of every
	// existing member, per spec.md §4.6's third feasibility leg.
	nearCenterFarFromMember := model.Cluster{
		CenterLat: 7.0, CenterLng: 80.0,
		Attractions: []model.Attraction{
			attraction("near", 7.0, 80.0, 0.5),
			attraction("edge", 7.0, 80.5, 0.5),
		},
	}
	candidate := attraction("candidate", 7.2, 80.0, 0.5)
	if canAdmit(nearCenterFarFromMember, candidate, 5, 30) {
		t.Fatalf("expected rejection: candidate exceeds radius from an existing member even though it's within radius of the center")
	}

	if !canAdmit(roomy, attraction("close", 7.01, 80.01, 0.5), 5, 50) {
		t.Fatalf("expected admission: close, within radius, cluster has room")
	}
}

func TestReattachOrphans_DissolvesOverRadiusClusterAndRedistributes(t *testing.T) {
	c := New(routing.NewHaversine(routing.AvgSpeedKMH), testConfig())
	idOf := map[string]int{}

	// A tight, well-formed cluster near Kandy that can admit a new member.
	target := c.buildCluster(0, []model.Attraction{
		attraction("kandy-a", 7.29, 80.63, 0.8),
		attraction("kandy-b", 7.30, 80.64, 0.7),
	}, nil)

	// An over-radius cluster spanning from the hill country to the far
	// south, whose members must all become orphans.
	overRadius := c.buildCluster(1, []model.Attraction{
		attraction("nuwara-eliya", 6.9497, 80.7891, 0.6),
		attraction("mirissa", 5.9483, 80.4589, 0.55),
	}, nil)

	out := c.reattachOrphans([]model.Cluster{target, overRadius}, idOf, nil)

	total := 0
	for _, cl := range out {
		total += len(cl.Attractions)
		if cl.MaxPairwiseDistanceKM > c.Config.MaxClusterRadiusKM+1e-9 {
			// buildCluster recomputes radius; every resulting cluster
			// (including any fresh singleton) must itself be feasible.
			if len(cl.Attractions) > 1 {
				t.Fatalf("cluster %+v exceeds MaxClusterRadiusKM after reattachment", cl)
			}
		}
	}
	if total != 4 {
		t.Fatalf("expected all 4 attractions preserved across reattachment, got %d", total)
	}
	if len(out) < 2 {
		t.Fatalf("expected the dissolved cluster's orphans to land in at least one other cluster or singleton, got %d clusters", len(out))
	}
}

func TestOrphanScore_MatchesSpecFormula(t *testing.T) {
	orphan := attraction("orphan", 7.0, 80.0, 0.5)
	target := model.Cluster{CenterLat: 7.0, CenterLng: 80.0, ValuePerHour: 2.0}

	// dist_to_center is 0 here (orphan sits exactly at the center), so
	// the formula collapses to 1/(1+0) + 0.3*value_per_hour.
	want := 1.0 + 0.3*2.0
	if got := orphanScore(target, orphan); got != want {
		t.Fatalf("orphanScore = %v, want %v", got, want)
	}

	// reattachOrphans selects the feasible candidate that MINIMIZES
	// this score, per spec.md:176 — with equal value_per_hour, the
	// farther cluster (smaller 1/(1+dist) term) scores lower.
	near := model.Cluster{CenterLat: 7.0, CenterLng: 80.0, ValuePerHour: 1.0}
	far := model.Cluster{CenterLat: 7.0, CenterLng: 82.0, ValuePerHour: 1.0}
	if orphanScore(far, orphan) >= orphanScore(near, orphan) {
		t.Fatalf("expected the farther cluster to score lower under minimization: near=%v far=%v",
			orphanScore(near, orphan), orphanScore(far, orphan))
	}
}
