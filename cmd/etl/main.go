package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	httpadapter "github.com/couchcryptid/osint-event-etl/internal/adapter/http"
	kafkaadapter "github.com/couchcryptid/osint-event-etl/internal/adapter/kafka"
	"github.com/couchcryptid/osint-event-etl/internal/adapter/postgres"
	"github.com/couchcryptid/osint-event-etl/internal/config"
	"github.com/couchcryptid/osint-event-etl/internal/domain"
	"github.com/couchcryptid/osint-event-etl/internal/observability"
	"github.com/couchcryptid/osint-event-etl/internal/pipeline"
	"github.com/couchcryptid/osint-event-etl/internal/tables"
	"github.com/joho/godotenv"
	"golang.org/x/sync/errgroup"
)

func main() {
	godotenv.Load() //nolint:errcheck // .env is optional

	cfg, err := config.Load()
	if err != nil {
		slog.Error("load config", "error", err)
		os.Exit(1)
	}
	logger := observability.NewLogger(cfg)

	if err := run(cfg, logger); err != nil {
		logger.Error("service failed", "error", err)
		os.Exit(1)
	}
}

func run(cfg *config.Config, logger *slog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	metrics := observability.NewMetrics()

	signals, err := tables.LoadSignals(cfg.SignalsPath)
	if err != nil {
		return err
	}
	gazetteer, err := tables.LoadGazetteer(cfg.GazetteerPath)
	if err != nil {
		return err
	}
	lexicon, err := tables.LoadLexicon(cfg.LexiconPath)
	if err != nil {
		return err
	}

	classifier := domain.NewClassifier(signals, cfg.RelevanceThreshold)
	scorer := domain.NewScorer(lexicon, cfg.SeverityCutpoints)
	normalizer := domain.NewNormalizer(classifier, gazetteer, scorer)
	deduper := domain.NewDeduper(cfg.Dedupe)

	pool, err := postgres.Connect(ctx, cfg.DatabaseURL)
	if err != nil {
		return err
	}
	defer pool.Close()
	store := postgres.NewStore(pool, logger)

	reader := kafkaadapter.NewReader(cfg, logger)
	defer reader.Close() //nolint:errcheck
	writer := kafkaadapter.NewWriter(cfg, logger)
	defer writer.Close() //nolint:errcheck

	pipe := pipeline.New(reader, store, writer, normalizer, deduper, logger, metrics, pipeline.Options{
		BatchSize:        cfg.BatchSize,
		Workers:          cfg.NormalizeWorkers,
		PopulationWindow: cfg.PopulationWindow,
		SeenCacheSize:    cfg.SeenCacheSize,
		SeenCacheTTL:     cfg.SeenCacheTTL,
	})
	repair := pipeline.NewRepairJob(store, gazetteer, scorer, logger, metrics, pipeline.RepairOptions{
		Interval:     cfg.RepairInterval,
		Window:       cfg.RepairWindow,
		CollapseMin:  cfg.RepairCollapseMin,
		RescoreNoise: cfg.RescoreNoise,
	})
	server := httpadapter.NewServer(cfg.HTTPAddr, logger, pipe, store)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return pipe.Run(gctx) })
	g.Go(func() error { return repair.Run(gctx) })
	g.Go(server.Start)
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	})

	logger.Info("service started",
		"source_topic", cfg.KafkaSourceTopic, "sink_topic", cfg.KafkaSinkTopic, "http_addr", cfg.HTTPAddr)
	return g.Wait()
}
