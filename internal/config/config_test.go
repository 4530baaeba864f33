package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, []string{"localhost:9092"}, cfg.KafkaBrokers)
	assert.Equal(t, "raw-articles", cfg.KafkaSourceTopic)
	assert.Equal(t, "normalized-events", cfg.KafkaSinkTopic)
	assert.Equal(t, ":8080", cfg.HTTPAddr)
	assert.Equal(t, 50, cfg.BatchSize)
	assert.Equal(t, 4, cfg.NormalizeWorkers)
	assert.InDelta(t, 0.3, cfg.RelevanceThreshold, 1e-9)
	assert.Equal(t, 2*time.Hour, cfg.Dedupe.Window)
	assert.InDelta(t, 0.1, cfg.Dedupe.CoordTolerance, 1e-9)
	assert.InDelta(t, 0.7, cfg.Dedupe.TitleSimilarity, 1e-9)
	assert.Equal(t, 5, cfg.Dedupe.BucketCap)
	assert.InDelta(t, 3, cfg.SeverityCutpoints.Medium, 1e-9)
	assert.InDelta(t, 6, cfg.SeverityCutpoints.High, 1e-9)
	assert.InDelta(t, 10, cfg.SeverityCutpoints.Critical, 1e-9)
	assert.InDelta(t, 0.5, cfg.RescoreNoise, 1e-9)
	assert.Equal(t, 48*time.Hour, cfg.PopulationWindow)
	assert.Equal(t, time.Hour, cfg.RepairInterval)
	assert.Equal(t, 60*24*time.Hour, cfg.RepairWindow)
	assert.Equal(t, 5, cfg.RepairCollapseMin)
	assert.Equal(t, 10000, cfg.SeenCacheSize)
	assert.Equal(t, 24*time.Hour, cfg.SeenCacheTTL)
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("KAFKA_BROKERS", "kafka-1:9092, kafka-2:9092")
	t.Setenv("KAFKA_SOURCE_TOPIC", "articles.raw")
	t.Setenv("RELEVANCE_THRESHOLD", "0.25")
	t.Setenv("DEDUPE_WINDOW", "90m")
	t.Setenv("DEDUPE_BUCKET_CAP", "8")
	t.Setenv("SEVERITY_CRITICAL", "12")
	t.Setenv("BATCH_SIZE", "100")
	t.Setenv("LOG_LEVEL", "debug")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, []string{"kafka-1:9092", "kafka-2:9092"}, cfg.KafkaBrokers)
	assert.Equal(t, "articles.raw", cfg.KafkaSourceTopic)
	assert.InDelta(t, 0.25, cfg.RelevanceThreshold, 1e-9)
	assert.Equal(t, 90*time.Minute, cfg.Dedupe.Window)
	assert.Equal(t, 8, cfg.Dedupe.BucketCap)
	assert.InDelta(t, 12, cfg.SeverityCutpoints.Critical, 1e-9)
	assert.Equal(t, 100, cfg.BatchSize)
	assert.Equal(t, "debug", cfg.LogLevel)
}

func TestLoadInvalid(t *testing.T) {
	tests := []struct {
		name  string
		key   string
		value string
	}{
		{"threshold above one", "RELEVANCE_THRESHOLD", "1.5"},
		{"threshold not a number", "RELEVANCE_THRESHOLD", "high"},
		{"negative duration", "DEDUPE_WINDOW", "-2h"},
		{"batch size zero", "BATCH_SIZE", "0"},
		{"batch size over cap", "BATCH_SIZE", "100000"},
		{"bad duration syntax", "REPAIR_INTERVAL", "soonish"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv(tt.key, tt.value)
			_, err := Load()
			assert.Error(t, err)
		})
	}
}

func TestLoadInvalidCutpointOrder(t *testing.T) {
	t.Setenv("SEVERITY_MEDIUM", "7")
	t.Setenv("SEVERITY_HIGH", "6")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "non-decreasing")
}
