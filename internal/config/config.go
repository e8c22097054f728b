// Package config defines the process-wide configuration for the
// planning pipeline: the vector index, embedding and ranker endpoints,
// the route provider, the gazetteer source, clustering defaults and
// observability wiring. There is no per-request configuration here —
// every field is read once at startup and shared read-only across
// requests.
package config

// ObsConfig controls the OpenTelemetry SDK bootstrap performed by
// internal/observability.InitOTel.
type ObsConfig struct {
	OTLP           string
	ServiceName    string
	ServiceVersion string
	Environment    string
}

// EmbeddingConfig configures the embedder (C2). The embedder is
// treated as an opaque REST dependency per spec.md §4.2: any endpoint
// that accepts {model, input} and returns one embedding per input is
// compatible.
type EmbeddingConfig struct {
	BaseURL    string
	Path       string
	Model      string
	Dimensions int
	APIKey     string
	APIHeader  string            // header name for APIKey, e.g. "Authorization" or "x-api-key"
	Headers    map[string]string // additional static headers, applied after APIHeader
	Timeout    int               // seconds
}

// VectorIndexConfig selects and configures the vector index backend
// (C3): memory (test fixtures), hnsw (embedded approximate index) or
// qdrant (production vector database).
type VectorIndexConfig struct {
	Backend    string // "memory" | "hnsw" | "qdrant"
	Endpoint   string // Qdrant DSN, e.g. "http://localhost:6334"
	Token      string
	Collection string
	Dimensions int
	Metric     string // "cosine" | "l2" | "ip"
}

// RankerConfig configures the neural re-ranker (C4).
type RankerConfig struct {
	WeightsPath string // optional; empty means deterministic untrained init
	HiddenDim   int
	NeuralWeight     float64 // pear_score fusion coefficient, default 0.7
	SimilarityWeight float64 // pear_score fusion coefficient, default 0.3
}

// RouteConfig configures the driving-route provider (C6). An empty
// Token means routing always falls back to haversine.
type RouteConfig struct {
	Provider       string // "openrouteservice" | "" (haversine-only)
	BaseURL        string
	Token          string
	Profile        string // e.g. "driving-car"
	TimeoutSeconds int
	MaxInFlight    int // read from ROUTE_MAX_IN_FLIGHT; the clusterer and planner do not read it and bound distance-matrix fan-out at a fixed 12
	AvgSpeedKMH    float64
}

// ClusterConfig holds the balanced-clustering defaults from spec.md
// §4.6. DailyTravelPreference maps to MaxDailyTravelHours at request
// time (minimal=2, balanced=3, extensive=4.5); the values here are the
// package defaults, not per-request overrides.
type ClusterConfig struct {
	MaxClusterRadiusKM   float64
	MaxDailyTravelHours  float64
	MinPerCluster        int
	MaxPerCluster        int
	VectorSearchLimit    int
	NTop                 int
	DistanceWeight       float64 // the -0.7 coefficient in the smart similarity matrix
	Seed                 int64   // fixed RNG seed for k-medoids reproducibility (DBSCAN uses no seed)
}

// Config is the top-level, process-wide configuration.
type Config struct {
	GazetteerPath string

	Embedding   EmbeddingConfig
	VectorIndex VectorIndexConfig
	Ranker      RankerConfig
	Route       RouteConfig
	Cluster     ClusterConfig
	Obs         ObsConfig

	LogPath  string
	LogLevel string
}
