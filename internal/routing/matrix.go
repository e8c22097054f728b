package routing

import (
	"context"

	"github.com/katalvlaran/lvlath/matrix"
	"github.com/paulmach/orb"
	"golang.org/x/sync/errgroup"

	"wayfarer/internal/model"
)

// Matrices holds the paired distance/duration outputs of DistanceMatrix.
// Both are symmetric with a zero diagonal, matching spec.md §4.7 and
// §3's invariants on RouteInfo.
type Matrices struct {
	Distance    *matrix.Dense // km
	Duration    *matrix.Dense // minutes
	LiveRouting bool          // true iff every off-diagonal pair got a live answer
}

// DistanceMatrix computes the pairwise N×N route matrix for points,
// fanning pairwise Route calls out over a worker pool bounded to
// maxInFlight (spec.md §5, recommended 8-16). Each (i,j) pair writes
// into its own pre-allocated matrix cell — the lock-free "slot"
// approach spec.md §9 calls preferred over a shared-mutex map. Results
// are deterministic independent of completion order because every
// goroutine only ever touches its own (i,j)/(j,i) cells.
func DistanceMatrix(ctx context.Context, provider Provider, points []orb.Point, maxInFlight int) (Matrices, error) {
	n := len(points)
	if n == 0 {
		return Matrices{}, nil
	}
	dist, err := matrix.NewDense(n, n)
	if err != nil {
		return Matrices{}, err
	}
	dur, err := matrix.NewDense(n, n)
	if err != nil {
		return Matrices{}, err
	}
	if n == 1 {
		return Matrices{Distance: dist, Duration: dur, LiveRouting: true}, nil
	}
	if maxInFlight <= 0 {
		maxInFlight = 12
	}

	type pair struct{ i, j int }
	pairs := make([]pair, 0, n*(n-1)/2)
	for i := 0; i < n; i++ {
		for j := i + 1; j < n; j++ {
			pairs = append(pairs, pair{i, j})
		}
	}

	live := make([]bool, len(pairs))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(maxInFlight)
	for idx, p := range pairs {
		idx, p := idx, p
		g.Go(func() error {
			info := provider.Route(gctx, points[p.i], points[p.j])
			if err := dist.Set(p.i, p.j, info.DistanceKM); err != nil {
				return err
			}
			if err := dist.Set(p.j, p.i, info.DistanceKM); err != nil {
				return err
			}
			if err := dur.Set(p.i, p.j, info.DurationMin); err != nil {
				return err
			}
			if err := dur.Set(p.j, p.i, info.DurationMin); err != nil {
				return err
			}
			live[idx] = info.LiveRouting
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return Matrices{}, err
	}

	allLive := true
	for _, l := range live {
		if !l {
			allLive = false
			break
		}
	}
	return Matrices{Distance: dist, Duration: dur, LiveRouting: allLive}, nil
}

// RouteInfoAt reads the (i,j) pair back out of a Matrices as a
// model.RouteInfo, for callers that want the paired shape instead of
// two separate Dense lookups.
func RouteInfoAt(m Matrices, i, j int) model.RouteInfo {
	d, _ := m.Distance.At(i, j)
	t, _ := m.Duration.At(i, j)
	return model.RouteInfo{DistanceKM: d, DurationMin: t, LiveRouting: m.LiveRouting}
}
