// Command planctl is the CLI entrypoint for the travel-itinerary
// planner: it wires config, gazetteer, embedding, vector index,
// ranker, route provider, clusterer and planner together and runs a
// single plan_trip request per spec.md §6, printing the PlanResponse
// as JSON to stdout.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"net/http"
	"os"
	"strings"
	"time"

	"wayfarer/internal/cluster"
	"wayfarer/internal/config"
	"wayfarer/internal/embedding"
	"wayfarer/internal/gazetteer"
	"wayfarer/internal/model"
	"wayfarer/internal/obs"
	"wayfarer/internal/observability"
	"wayfarer/internal/planner"
	"wayfarer/internal/ranker"
	"wayfarer/internal/retriever"
	"wayfarer/internal/routing"
	"wayfarer/internal/vectorindex"
	"wayfarer/internal/version"
)

func main() {
	showVersion := flag.Bool("version", false, "print the build version and exit")
	query := flag.String("query", "", "free-text travel query")
	interests := flag.String("interests", "", "comma-separated interests")
	days := flag.Int("days", 3, "trip duration in days [1-30]")
	preference := flag.String("daily-travel", "balanced", "minimal | balanced | extensive")
	groupSize := flag.Int("group-size", 2, "group size")
	budget := flag.String("budget", "medium", "budget | medium | luxury")
	strategy := flag.String("strategy", "smart", "smart | kmeans | dbscan")
	flag.Parse()

	if *showVersion {
		fmt.Println(version.Version)
		return
	}
	if *query == "" {
		fmt.Fprintln(os.Stderr, "planctl: -query is required")
		os.Exit(1)
	}

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "planctl: load config: %v\n", err)
		os.Exit(1)
	}
	log := obs.NewZerologLogger(cfg.LogPath, cfg.LogLevel)
	observability.InitLogger(cfg.LogPath, cfg.LogLevel, cfg.Obs.OTLP != "")

	metrics := obs.Metrics(obs.NoopMetrics{})
	if cfg.Obs.OTLP != "" {
		shutdown, err := observability.InitOTel(context.Background(), cfg.Obs)
		if err != nil {
			log.Error("planctl: otel init failed, continuing without metrics/tracing", map[string]any{"error": err.Error()})
		} else {
			defer func() { _ = shutdown(context.Background()) }()
			metrics = obs.NewOtelMetrics()
		}
	}

	gz, err := gazetteer.Load(cfg.GazetteerPath)
	if err != nil {
		log.Error("planctl: gazetteer load failed", map[string]any{"error": err.Error()})
		os.Exit(1)
	}

	index, err := buildIndex(cfg.VectorIndex)
	if err != nil {
		log.Error("planctl: vector index init failed", map[string]any{"error": err.Error()})
		os.Exit(1)
	}

	net := buildRanker(cfg.Ranker, cfg.Embedding.Dimensions, log)

	route := buildRouteProvider(cfg.Route, log)

	embed := func(ctx context.Context, text string) ([]float64, error) {
		return embedding.Embed(ctx, cfg.Embedding, text)
	}
	r := retriever.New(embed, index, net, retriever.Config{
		VectorSearchLimit: cfg.Cluster.VectorSearchLimit,
		NeuralWeight:      cfg.Ranker.NeuralWeight,
		SimilarityWeight:  cfg.Ranker.SimilarityWeight,
	}, log)

	c := cluster.New(route, cfg.Cluster)

	p := planner.New(r, gz, c, route, planner.Config{
		NeuralWeight:     cfg.Ranker.NeuralWeight,
		SimilarityWeight: cfg.Ranker.SimilarityWeight,
		DistanceWeight:   cfg.Cluster.DistanceWeight,
		TopK:             cfg.Cluster.NTop,
	}, log, obs.SystemClock{})
	p.Metrics = metrics

	req := planner.Request{
		Query:            *query,
		TripDurationDays: *days,
		UserContext: model.UserContext{
			Interests:    splitNonEmpty(*interests),
			GroupSize:    *groupSize,
			BudgetLevel:  *budget,
			DurationDays: *days,
		},
		DailyTravelPreference: *preference,
		Strategy:              cluster.Strategy(strings.ToLower(*strategy)),
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()
	resp, err := p.Plan(ctx, req)
	if err != nil {
		log.Error("planctl: plan failed", map[string]any{"error": err.Error()})
		os.Exit(1)
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(resp); err != nil {
		log.Error("planctl: encode response failed", map[string]any{"error": err.Error()})
		os.Exit(1)
	}
}

func buildIndex(cfg config.VectorIndexConfig) (vectorindex.Index, error) {
	switch strings.ToLower(cfg.Backend) {
	case "hnsw":
		return vectorindex.NewHNSW(cfg.Dimensions), nil
	case "qdrant":
		return vectorindex.NewQdrant(cfg.Endpoint, cfg.Token, cfg.Collection, cfg.Dimensions, cfg.Metric)
	default:
		return vectorindex.NewMemory(), nil
	}
}

func buildRanker(cfg config.RankerConfig, embeddingDim int, log obs.Logger) *ranker.Network {
	if cfg.WeightsPath != "" {
		net, err := ranker.LoadWeights(cfg.WeightsPath)
		if err == nil {
			return net
		}
		log.Error("planctl: failed to load ranker weights, falling back to untrained init", map[string]any{
			"path": cfg.WeightsPath, "error": err.Error(),
		})
	}
	return ranker.NewUntrained(embeddingDim, cfg.HiddenDim, log)
}

func buildRouteProvider(cfg config.RouteConfig, log obs.Logger) routing.Provider {
	fallback := routing.NewHaversine(cfg.AvgSpeedKMH)
	if cfg.Provider == "" || cfg.Token == "" {
		return fallback
	}
	client := observability.NewHTTPClient(&http.Client{Timeout: time.Duration(cfg.TimeoutSeconds) * time.Second})
	return routing.NewORS(cfg.BaseURL, cfg.Token, cfg.Profile, time.Duration(cfg.TimeoutSeconds)*time.Second, client, fallback, log)
}

func splitNonEmpty(s string) []string {
	if s == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}
