package config

import (
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// Load reads configuration from environment variables (optionally
// .env). Defaults are applied for anything awkward to express as a
// zero value; neither Load nor its callers log which defaults were
// used — Load itself stays side-effect free beyond reading the
// environment.
func Load() (Config, error) {
	// Use Overload so .env values override existing OS environment
	// variables, the same precedence the teacher's loader uses.
	_ = godotenv.Overload()

	cfg := Config{}

	cfg.GazetteerPath = firstNonEmpty(strings.TrimSpace(os.Getenv("GAZETTEER_PATH")), "configs/gazetteer.yaml")

	cfg.Embedding.BaseURL = strings.TrimSpace(os.Getenv("EMBED_BASE_URL"))
	cfg.Embedding.Path = firstNonEmpty(strings.TrimSpace(os.Getenv("EMBED_PATH")), "/v1/embeddings")
	cfg.Embedding.Model = strings.TrimSpace(os.Getenv("EMBED_MODEL"))
	cfg.Embedding.Dimensions = intFromEnv("EMBED_DIMENSIONS", 384)
	cfg.Embedding.APIKey = strings.TrimSpace(os.Getenv("EMBED_API_KEY"))
	cfg.Embedding.APIHeader = firstNonEmpty(strings.TrimSpace(os.Getenv("EMBED_API_HEADER")), "Authorization")
	cfg.Embedding.Timeout = intFromEnv("EMBED_TIMEOUT_SECONDS", 30)

	cfg.VectorIndex.Backend = firstNonEmpty(strings.TrimSpace(os.Getenv("VECTOR_INDEX_BACKEND")), "memory")
	cfg.VectorIndex.Endpoint = strings.TrimSpace(os.Getenv("VECTOR_INDEX_ENDPOINT"))
	cfg.VectorIndex.Token = strings.TrimSpace(os.Getenv("VECTOR_INDEX_TOKEN"))
	cfg.VectorIndex.Collection = firstNonEmpty(strings.TrimSpace(os.Getenv("VECTOR_INDEX_COLLECTION")), "attractions")
	cfg.VectorIndex.Dimensions = intFromEnv("VECTOR_INDEX_DIMENSIONS", cfg.Embedding.Dimensions)
	cfg.VectorIndex.Metric = firstNonEmpty(strings.TrimSpace(os.Getenv("VECTOR_INDEX_METRIC")), "cosine")

	cfg.Ranker.WeightsPath = strings.TrimSpace(os.Getenv("RANKER_WEIGHTS_PATH"))
	cfg.Ranker.HiddenDim = intFromEnv("RANKER_HIDDEN_DIM", 128)
	cfg.Ranker.NeuralWeight = floatFromEnv("RANKER_NEURAL_WEIGHT", 0.7)
	cfg.Ranker.SimilarityWeight = floatFromEnv("RANKER_SIMILARITY_WEIGHT", 0.3)

	cfg.Route.Provider = strings.TrimSpace(os.Getenv("ROUTE_PROVIDER")) // empty => haversine-only
	cfg.Route.BaseURL = firstNonEmpty(strings.TrimSpace(os.Getenv("ROUTE_BASE_URL")), "https://api.openrouteservice.org")
	cfg.Route.Token = strings.TrimSpace(os.Getenv("ROUTE_API_TOKEN"))
	cfg.Route.Profile = firstNonEmpty(strings.TrimSpace(os.Getenv("ROUTE_PROFILE")), "driving-car")
	cfg.Route.TimeoutSeconds = intFromEnv("ROUTE_TIMEOUT_SECONDS", 10)
	cfg.Route.MaxInFlight = intFromEnv("ROUTE_MAX_IN_FLIGHT", 12)
	cfg.Route.AvgSpeedKMH = floatFromEnv("ROUTE_AVG_SPEED_KMH", 40)
	if cfg.Route.Provider == "" || cfg.Route.Token == "" {
		// No credentials configured: routing is haversine-only by
		// construction (spec.md §6, "absence => haversine-only").
		cfg.Route.Provider = ""
	}

	cfg.Cluster.MaxClusterRadiusKM = floatFromEnv("CLUSTER_MAX_RADIUS_KM", 35)
	cfg.Cluster.MaxDailyTravelHours = floatFromEnv("CLUSTER_MAX_DAILY_TRAVEL_HOURS", 3)
	cfg.Cluster.MinPerCluster = intFromEnv("CLUSTER_MIN_PER_CLUSTER", 2)
	cfg.Cluster.MaxPerCluster = intFromEnv("CLUSTER_MAX_PER_CLUSTER", 5)
	cfg.Cluster.VectorSearchLimit = intFromEnv("CLUSTER_VECTOR_SEARCH_LIMIT", 100)
	cfg.Cluster.NTop = intFromEnv("CLUSTER_N_TOP", 30)
	cfg.Cluster.DistanceWeight = floatFromEnv("CLUSTER_DISTANCE_WEIGHT", 0.7)
	cfg.Cluster.Seed = int64(intFromEnv("CLUSTER_SEED", 42))

	cfg.Obs.OTLP = strings.TrimSpace(os.Getenv("OTEL_EXPORTER_OTLP_ENDPOINT"))
	cfg.Obs.ServiceName = firstNonEmpty(strings.TrimSpace(os.Getenv("OTEL_SERVICE_NAME")), "wayfarer")
	cfg.Obs.ServiceVersion = strings.TrimSpace(os.Getenv("OTEL_SERVICE_VERSION"))
	cfg.Obs.Environment = firstNonEmpty(strings.TrimSpace(os.Getenv("APP_ENV")), "development")

	cfg.LogPath = strings.TrimSpace(os.Getenv("LOG_PATH"))
	cfg.LogLevel = firstNonEmpty(strings.TrimSpace(os.Getenv("LOG_LEVEL")), "info")

	return cfg, nil
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return ""
}

func intFromEnv(key string, def int) int {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return def
}

func floatFromEnv(key string, def float64) float64 {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		if n, err := strconv.ParseFloat(v, 64); err == nil {
			return n
		}
	}
	return def
}
