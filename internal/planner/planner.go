// Package planner implements the top-level orchestration (C9):
// retrieve -> resolve coordinates -> cluster -> order -> rank -> emit,
// per spec.md §4.8.
package planner

import (
	"context"
	"time"

	"github.com/paulmach/orb"

	"wayfarer/internal/cluster"
	"wayfarer/internal/gazetteer"
	"wayfarer/internal/model"
	"wayfarer/internal/ordering"
	"wayfarer/internal/planerr"
	"wayfarer/internal/retriever"
	"wayfarer/internal/routing"
)

// Logger matches internal/obs.Logger's surface.
type Logger interface {
	Info(msg string, fields map[string]any)
	Error(msg string, fields map[string]any)
	Debug(msg string, fields map[string]any)
}

// Clock matches internal/obs.Clock's surface so tests can swap in a
// fixed time without depending on the wall clock.
type Clock interface {
	Now() time.Time
}

// Metrics matches internal/obs.Metrics's surface so callers can wire an
// obs.OtelMetrics (or obs.NoopMetrics) directly without an adapter. A
// nil Metrics disables instrumentation entirely.
type Metrics interface {
	IncCounter(name string, labels map[string]string)
	ObserveHistogram(name string, value float64, labels map[string]string)
}

// Config carries the fusion/coefficient overrides spec.md §9 asks to
// expose. New copies non-zero weights into the retriever's and the
// clusterer's configs; zero values keep their defaults.
type Config struct {
	NeuralWeight     float64
	SimilarityWeight float64
	DistanceWeight   float64
	TopK             int // candidates pulled from the retriever, recommended 30
}

// travelHoursByPreference implements spec.md §4.8 step 3's mapping.
var travelHoursByPreference = map[string]float64{
	"minimal":   2.0,
	"balanced":  3.0,
	"extensive": 4.5,
}

// Request is the logical plan_trip input from spec.md §6.
type Request struct {
	Query                 string
	UserContext           model.UserContext
	TripDurationDays      int
	DailyTravelPreference string // minimal | balanced | extensive, default "balanced"
	Strategy              cluster.Strategy
}

// Planner ties the retriever, gazetteer, clusterer and ordering
// heuristic into the single plan() entry point from spec.md §4.8.
type Planner struct {
	Retriever *retriever.Retriever
	Gazetteer *gazetteer.Gazetteer
	Clusterer *cluster.Clusterer
	Route     routing.Provider
	Config    Config
	Log       Logger
	Clock     Clock
	Metrics   Metrics
}

func New(r *retriever.Retriever, gz *gazetteer.Gazetteer, c *cluster.Clusterer, route routing.Provider, cfg Config, log Logger, clock Clock) *Planner {
	if r != nil && (cfg.NeuralWeight != 0 || cfg.SimilarityWeight != 0) {
		r.Config.NeuralWeight = cfg.NeuralWeight
		r.Config.SimilarityWeight = cfg.SimilarityWeight
	}
	if c != nil && cfg.DistanceWeight != 0 {
		c.Config.DistanceWeight = cfg.DistanceWeight
	}
	return &Planner{Retriever: r, Gazetteer: gz, Clusterer: c, Route: route, Config: cfg, Log: log, Clock: clock}
}

// Plan runs the full pipeline for one request, per spec.md §4.8.
func (p *Planner) Plan(ctx context.Context, req Request) (model.PlanResponse, error) {
	start := p.now()
	if req.Query == "" {
		return model.PlanResponse{}, p.fail(planerr.New(planerr.InvalidRequest, "query must not be empty"))
	}
	if req.TripDurationDays < 1 || req.TripDurationDays > 30 {
		return model.PlanResponse{}, p.fail(planerr.New(planerr.InvalidRequest, "trip_duration_days must be in [1,30]"))
	}

	topK := p.Config.TopK
	if topK <= 0 {
		topK = 30
	}
	attrs, err := p.Retriever.Recommend(ctx, req.Query, req.UserContext, topK, nil)
	if err != nil {
		return model.PlanResponse{}, p.fail(err)
	}
	if len(attrs) == 0 {
		return model.PlanResponse{}, p.fail(planerr.New(planerr.EmptyCandidateSet, "no attractions found"))
	}

	resolved := p.resolveCoordinates(attrs)
	if len(resolved) == 0 {
		return model.PlanResponse{}, p.fail(planerr.New(planerr.EmptyCandidateSet, "no attractions found"))
	}

	maxTravelHours := travelHoursByPreference["balanced"]
	if h, ok := travelHoursByPreference[req.DailyTravelPreference]; ok {
		maxTravelHours = h
	}
	p.Clusterer.Config.MaxDailyTravelHours = maxTravelHours

	strategy := req.Strategy
	if strategy == "" {
		strategy = cluster.Smart
	}
	clusters, err := p.Clusterer.Cluster(ctx, resolved, strategy, req.TripDurationDays)
	if err != nil {
		return model.PlanResponse{}, p.fail(err)
	}

	liveRouting := true
	for i := range clusters {
		ordered, live := p.orderCluster(ctx, &clusters[i])
		clusters[i] = ordered
		if !live {
			liveRouting = false
		}
	}

	ranked := cluster.RankClusters(clusters, req.TripDurationDays, p.Clusterer.Config.MinPerCluster, p.Clusterer.Config.MaxPerCluster)

	days := make([]model.DayItinerary, 0, len(ranked))
	var totalAttractions int
	var totalPearScore, totalValuePerHour float64
	for i, cl := range ranked {
		day := dayFromCluster(i+1, cl)
		days = append(days, day)
		totalAttractions += len(cl.Attractions)
		totalPearScore += cl.TotalPearScore
		totalValuePerHour += cl.ValuePerHour
	}

	stats := model.OverallStats{
		TotalPearScore:      totalPearScore,
		ClustersConsidered:  len(clusters),
		ClustersSelected:    len(ranked),
		TravelOptimization:  travelOptimizationLabel(liveRouting),
	}
	if len(ranked) > 0 {
		stats.AverageValuePerHour = totalValuePerHour / float64(len(ranked))
	}

	elapsed := elapsedMS(start, p.now())
	p.incCounter("plan_requests_total", map[string]string{"status": "ok"})
	p.observeHistogram("plan_duration_ms", float64(elapsed), nil)
	if !liveRouting {
		p.incCounter("route_fallback_total", nil)
	}

	return model.PlanResponse{
		Query:            req.Query,
		TotalDays:        len(ranked),
		TotalAttractions: totalAttractions,
		DailyItineraries: days,
		OverallStats:     stats,
		ProcessingTimeMS:  elapsed,
	}, nil
}

// fail records a failed-request counter tagged with the error's
// planerr.Kind (or "unknown" if the error isn't a planerr) and returns
// the error unchanged, so every Plan return path is instrumented.
func (p *Planner) fail(err error) error {
	p.incCounter("plan_requests_total", map[string]string{"status": "error", "kind": planerr.KindOf(err)})
	return err
}

func (p *Planner) incCounter(name string, labels map[string]string) {
	if p.Metrics == nil {
		return
	}
	p.Metrics.IncCounter(name, labels)
}

func (p *Planner) observeHistogram(name string, value float64, labels map[string]string) {
	if p.Metrics == nil {
		return
	}
	p.Metrics.ObserveHistogram(name, value, labels)
}

// resolveCoordinates attaches gazetteer coordinates to each attraction,
// dropping unresolved ones — "NO fallback for planning" per spec.md
// §4.8 step 2.
func (p *Planner) resolveCoordinates(attrs []model.Attraction) []model.Attraction {
	out := make([]model.Attraction, 0, len(attrs))
	for _, a := range attrs {
		res, ok := p.Gazetteer.Resolve(a.Name)
		if !ok {
			if p.Log != nil {
				p.Log.Error("planner: dropping candidate with no coordinates", map[string]any{"name": a.Name})
			}
			continue
		}
		a.Latitude = res.Entry.Lat
		a.Longitude = res.Entry.Lng
		a.HasCoordinates = true
		if a.Region == "" {
			a.Region = res.Entry.Category
		}
		out = append(out, a)
	}
	return out
}

// orderCluster runs the C8 greedy nearest-neighbor heuristic over a
// cluster's own driving-distance matrix and recomputes its travel
// figures from the resulting tour, per spec.md §4.7.
func (p *Planner) orderCluster(ctx context.Context, cl *model.Cluster) (model.Cluster, bool) {
	if len(cl.Attractions) == 0 {
		return *cl, true
	}
	if len(cl.Attractions) == 1 {
		cl.OptimalOrder = []int{0}
		return *cl, true
	}
	points := make([]orb.Point, len(cl.Attractions))
	for i, a := range cl.Attractions {
		points[i] = orb.Point{a.Longitude, a.Latitude}
	}
	matrices, err := routing.DistanceMatrix(ctx, p.Route, points, p.routeMaxInFlight())
	if err != nil {
		if p.Log != nil {
			p.Log.Error("planner: distance matrix failed for cluster", map[string]any{"error": err.Error()})
		}
		return *cl, false
	}
	order := ordering.GreedyNearestNeighbor(matrices.Distance)
	cl.OptimalOrder = order
	cl.TotalTravelTimeMinutes = ordering.TotalTravelMinutes(order, matrices.Duration)
	cl.TotalTravelDistanceKM = ordering.TotalTravelKM(order, matrices.Distance)
	p.Clusterer.RecomputeTravelMetrics(cl)
	return *cl, matrices.LiveRouting
}

func (p *Planner) routeMaxInFlight() int { return 12 }

func (p *Planner) now() time.Time {
	if p.Clock == nil {
		return time.Time{}
	}
	return p.Clock.Now()
}

func elapsedMS(start, end time.Time) int64 {
	if start.IsZero() || end.IsZero() {
		return 0
	}
	return end.Sub(start).Milliseconds()
}

func travelOptimizationLabel(liveRouting bool) string {
	if liveRouting {
		return "live-routing"
	}
	return "haversine-fallback"
}

func dayFromCluster(day int, cl model.Cluster) model.DayItinerary {
	ordered := cl.OrderedAttractions()
	dayAttrs := make([]model.DayAttraction, len(ordered))
	for i, a := range ordered {
		dayAttrs[i] = model.DayAttraction{
			ID: a.ID, Name: a.Name, Category: a.Category, Description: a.Description,
			Region: a.Region, Latitude: a.Latitude, Longitude: a.Longitude,
			PearScore: a.PearScore, VisitOrder: i,
		}
	}
	return model.DayItinerary{
		Day:                     day,
		ClusterID:               cl.ClusterID,
		RegionName:              cl.RegionName,
		CenterLat:               cl.CenterLat,
		CenterLng:               cl.CenterLng,
		Attractions:             dayAttrs,
		TotalTravelDistanceKM:   cl.TotalTravelDistanceKM,
		TotalPearScore:          cl.TotalPearScore,
		TravelTimeMinutes:       cl.TotalTravelTimeMinutes,
		EstimatedTotalTimeHours: cl.EstimatedTimeHours,
		ValuePerHour:            cl.ValuePerHour,
		IsBalanced:              cl.IsBalanced,
		OptimalVisitingOrder:    cl.OptimalOrder,
	}
}
