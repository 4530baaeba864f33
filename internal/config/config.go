package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/couchcryptid/osint-event-etl/internal/domain"
)

// Config holds all service settings, populated from environment variables.
type Config struct {
	KafkaBrokers     []string
	KafkaSourceTopic string
	KafkaSinkTopic   string
	KafkaGroupID     string
	DatabaseURL      string
	HTTPAddr         string
	LogLevel         string
	LogFormat        string
	ShutdownTimeout  time.Duration

	BatchSize          int
	BatchFlushInterval time.Duration
	NormalizeWorkers   int

	// Normalization tunables. All have documented defaults; none are
	// hardcoded in the core.
	RelevanceThreshold float64
	Dedupe             domain.DedupeParams
	SeverityCutpoints  domain.SeverityCutpoints
	RescoreNoise       float64
	PopulationWindow   time.Duration

	// Repair job.
	RepairInterval    time.Duration
	RepairWindow      time.Duration
	RepairCollapseMin int

	// Seen-article cache for cheap idempotent redelivery.
	SeenCacheSize int
	SeenCacheTTL  time.Duration

	// Optional table overrides; empty means embedded defaults.
	SignalsPath   string
	GazetteerPath string
	LexiconPath   string
}

// Load reads configuration from environment variables, applying defaults
// where unset.
func Load() (*Config, error) {
	cfg := &Config{
		KafkaBrokers:     splitBrokers(envOrDefault("KAFKA_BROKERS", "localhost:9092")),
		KafkaSourceTopic: envOrDefault("KAFKA_SOURCE_TOPIC", "raw-articles"),
		KafkaSinkTopic:   envOrDefault("KAFKA_SINK_TOPIC", "normalized-events"),
		KafkaGroupID:     envOrDefault("KAFKA_GROUP_ID", "osint-event-etl"),
		DatabaseURL:      os.Getenv("DATABASE_URL"),
		HTTPAddr:         envOrDefault("HTTP_ADDR", ":8080"),
		LogLevel:         envOrDefault("LOG_LEVEL", "info"),
		LogFormat:        envOrDefault("LOG_FORMAT", "json"),

		SignalsPath:   os.Getenv("SIGNALS_TABLE"),
		GazetteerPath: os.Getenv("GAZETTEER_TABLE"),
		LexiconPath:   os.Getenv("LEXICON_TABLE"),
	}

	var err error
	if cfg.ShutdownTimeout, err = envDuration("SHUTDOWN_TIMEOUT", 10*time.Second); err != nil {
		return nil, err
	}
	if cfg.BatchSize, err = envInt("BATCH_SIZE", 50, 1, 1000); err != nil {
		return nil, err
	}
	if cfg.BatchFlushInterval, err = envDuration("BATCH_FLUSH_INTERVAL", 500*time.Millisecond); err != nil {
		return nil, err
	}
	if cfg.NormalizeWorkers, err = envInt("NORMALIZE_WORKERS", 4, 1, 64); err != nil {
		return nil, err
	}

	if cfg.RelevanceThreshold, err = envFloat("RELEVANCE_THRESHOLD", 0.3); err != nil {
		return nil, err
	}
	if cfg.RelevanceThreshold < 0 || cfg.RelevanceThreshold > 1 {
		return nil, errors.New("RELEVANCE_THRESHOLD must be in [0,1]")
	}

	dedupe := domain.DefaultDedupeParams()
	if dedupe.Window, err = envDuration("DEDUPE_WINDOW", dedupe.Window); err != nil {
		return nil, err
	}
	if dedupe.CoordTolerance, err = envFloat("DEDUPE_COORD_TOLERANCE", dedupe.CoordTolerance); err != nil {
		return nil, err
	}
	if dedupe.TitleSimilarity, err = envFloat("DEDUPE_TITLE_SIMILARITY", dedupe.TitleSimilarity); err != nil {
		return nil, err
	}
	if dedupe.BucketCap, err = envInt("DEDUPE_BUCKET_CAP", dedupe.BucketCap, 1, 1000); err != nil {
		return nil, err
	}
	cfg.Dedupe = dedupe

	cuts := domain.DefaultSeverityCutpoints()
	if cuts.Medium, err = envFloat("SEVERITY_MEDIUM", cuts.Medium); err != nil {
		return nil, err
	}
	if cuts.High, err = envFloat("SEVERITY_HIGH", cuts.High); err != nil {
		return nil, err
	}
	if cuts.Critical, err = envFloat("SEVERITY_CRITICAL", cuts.Critical); err != nil {
		return nil, err
	}
	if !(cuts.Medium <= cuts.High && cuts.High <= cuts.Critical) {
		return nil, errors.New("severity cut points must be non-decreasing")
	}
	cfg.SeverityCutpoints = cuts

	if cfg.RescoreNoise, err = envFloat("RESCORE_NOISE", 0.5); err != nil {
		return nil, err
	}
	if cfg.PopulationWindow, err = envDuration("POPULATION_WINDOW", 48*time.Hour); err != nil {
		return nil, err
	}

	if cfg.RepairInterval, err = envDuration("REPAIR_INTERVAL", time.Hour); err != nil {
		return nil, err
	}
	if cfg.RepairWindow, err = envDuration("REPAIR_WINDOW", 60*24*time.Hour); err != nil {
		return nil, err
	}
	if cfg.RepairCollapseMin, err = envInt("REPAIR_COLLAPSE_MIN", 5, 2, 10000); err != nil {
		return nil, err
	}

	if cfg.SeenCacheSize, err = envInt("SEEN_CACHE_SIZE", 10000, 1, 1_000_000); err != nil {
		return nil, err
	}
	if cfg.SeenCacheTTL, err = envDuration("SEEN_CACHE_TTL", 24*time.Hour); err != nil {
		return nil, err
	}

	if len(cfg.KafkaBrokers) == 0 {
		return nil, errors.New("KAFKA_BROKERS is required")
	}
	if cfg.KafkaSourceTopic == "" {
		return nil, errors.New("KAFKA_SOURCE_TOPIC is required")
	}
	if cfg.KafkaSinkTopic == "" {
		return nil, errors.New("KAFKA_SINK_TOPIC is required")
	}

	return cfg, nil
}

func envOrDefault(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func splitBrokers(value string) []string {
	var brokers []string
	for _, b := range strings.Split(value, ",") {
		if b = strings.TrimSpace(b); b != "" {
			brokers = append(brokers, b)
		}
	}
	return brokers
}

func envDuration(key string, fallback time.Duration) (time.Duration, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil || d <= 0 {
		return 0, fmt.Errorf("invalid %s: %q", key, v)
	}
	return d, nil
}

func envInt(key string, fallback, minVal, maxVal int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < minVal || n > maxVal {
		return 0, fmt.Errorf("invalid %s: %q (allowed %d-%d)", key, v, minVal, maxVal)
	}
	return n, nil
}

func envFloat(key string, fallback float64) (float64, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %q", key, v)
	}
	return f, nil
}
