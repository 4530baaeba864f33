package pipeline

import (
	"context"
	"errors"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/couchcryptid/osint-event-etl/internal/domain"
	"github.com/couchcryptid/osint-event-etl/internal/observability"
	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
)

// BatchExtractor reads up to batchSize raw messages from the source.
type BatchExtractor interface {
	ExtractBatch(ctx context.Context, batchSize int) ([]domain.RawMessage, error)
}

// BatchLoader publishes normalized events to the sink topic.
type BatchLoader interface {
	LoadBatch(ctx context.Context, events []domain.Event) error
}

// EventStore is the persistence collaborator: it supplies the comparison
// population for deduplication and receives upserts. The core never owns
// connections or retries; those belong to the adapter.
type EventStore interface {
	FetchPopulation(ctx context.Context, since time.Time) ([]domain.Event, error)
	UpsertEvents(ctx context.Context, events []domain.Event) error
}

// Options are the pipeline-level tunables.
type Options struct {
	BatchSize        int
	Workers          int
	PopulationWindow time.Duration
	SeenCacheSize    int
	SeenCacheTTL     time.Duration
}

// Pipeline orchestrates the extract-normalize-dedupe-load loop. Articles in
// a batch are normalized concurrently (each is independent); the dedup pass
// is serialized because survivor selection order is part of its contract.
type Pipeline struct {
	extractor  BatchExtractor
	store      EventStore
	loader     BatchLoader
	normalizer *domain.Normalizer
	deduper    *domain.Deduper
	seen       *seenCache
	logger     *slog.Logger
	metrics    *observability.Metrics
	ready      atomic.Bool
	opts       Options
}

// candidate pairs an accepted event with the raw message it came from, so
// the offset can be committed once the event is durably handled.
type candidate struct {
	raw   domain.RawMessage
	event domain.Event
}

// New creates a Pipeline with the given stages and observability.
func New(e BatchExtractor, store EventStore, loader BatchLoader,
	n *domain.Normalizer, d *domain.Deduper,
	logger *slog.Logger, metrics *observability.Metrics, opts Options) *Pipeline {
	if opts.BatchSize <= 0 {
		opts.BatchSize = 50
	}
	if opts.Workers <= 0 {
		opts.Workers = 4
	}
	if opts.PopulationWindow <= 0 {
		opts.PopulationWindow = 48 * time.Hour
	}
	return &Pipeline{
		extractor:  e,
		store:      store,
		loader:     loader,
		normalizer: n,
		deduper:    d,
		seen:       newSeenCache(opts.SeenCacheSize, opts.SeenCacheTTL),
		logger:     logger,
		metrics:    metrics,
		opts:       opts,
	}
}

// CheckReadiness returns nil once the pipeline has processed at least one
// batch, or an error describing why the service is not yet ready.
func (p *Pipeline) CheckReadiness(_ context.Context) error {
	if !p.ready.Load() {
		return errors.New("pipeline has not processed any batches yet")
	}
	return nil
}

// Run executes the batch loop until the context is cancelled.
func (p *Pipeline) Run(ctx context.Context) error {
	p.logger.Info("pipeline started", "batch_size", p.opts.BatchSize, "workers", p.opts.Workers)
	p.metrics.PipelineRunning.Set(1)
	defer p.metrics.PipelineRunning.Set(0)

	// Exponential backoff: start at 200ms, double each retry, cap at 5s.
	// Keeps retry storms short without tight-looping during broker outages.
	backoff := 200 * time.Millisecond
	maxBackoff := 5 * time.Second

	for {
		select {
		case <-ctx.Done():
			p.logger.Info("pipeline stopping", "reason", ctx.Err())
			return nil
		default:
		}

		if !p.processBatch(ctx, &backoff, maxBackoff) {
			return nil
		}
	}
}

// processBatch runs one extract-normalize-dedupe-load cycle. Returns false
// if the pipeline should stop.
func (p *Pipeline) processBatch(ctx context.Context, backoff *time.Duration, maxBackoff time.Duration) bool {
	start := time.Now()

	rawBatch, err := p.extractor.ExtractBatch(ctx, p.opts.BatchSize)
	if err != nil {
		if ctx.Err() != nil {
			return false
		}
		p.logger.Error("extract batch failed", "error", err)
		return p.backoffOrStop(ctx, backoff, maxBackoff)
	}

	if len(rawBatch) == 0 {
		return ctx.Err() == nil
	}

	logger := p.logger.With("batch_id", uuid.NewString()[:8])

	p.metrics.ArticlesConsumed.Add(float64(len(rawBatch)))
	p.metrics.BatchSize.Observe(float64(len(rawBatch)))
	*backoff = 200 * time.Millisecond

	candidates := p.normalizeBatch(ctx, logger, rawBatch)

	emitted, ok := p.dedupeAndLoad(ctx, logger, candidates, backoff, maxBackoff)
	if !ok {
		return false
	}

	if emitted > 0 {
		logger.Info("batch processed", "articles", len(rawBatch), "events", emitted)
	}
	p.metrics.BatchProcessingDuration.Observe(time.Since(start).Seconds())
	p.ready.Store(true)
	return true
}

// normalizeBatch classifies, geolocates, and scores each article using a
// bounded worker pool. Every per-article failure is terminal for that
// article only: parse errors, rejections, and redeliveries are counted,
// committed, and skipped without touching the rest of the batch.
func (p *Pipeline) normalizeBatch(ctx context.Context, logger *slog.Logger, rawBatch []domain.RawMessage) []candidate {
	results := make([]*candidate, len(rawBatch))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(p.opts.Workers)
	for i, raw := range rawBatch {
		g.Go(func() error {
			results[i] = p.normalizeOne(gctx, logger, raw)
			return nil
		})
	}
	g.Wait() //nolint:errcheck // workers never return errors; failures are per-article

	candidates := make([]candidate, 0, len(rawBatch))
	for _, c := range results {
		if c != nil {
			candidates = append(candidates, *c)
		}
	}
	return candidates
}

func (p *Pipeline) normalizeOne(ctx context.Context, logger *slog.Logger, raw domain.RawMessage) *candidate {
	article, err := domain.ParseRawArticle(raw)
	if err != nil {
		logger.Warn("parse failed, skipping article",
			"error", err, "topic", raw.Topic, "partition", raw.Partition, "offset", raw.Offset)
		p.metrics.ArticlesRejected.WithLabelValues("parse_error").Inc()
		p.commitOffset(ctx, raw)
		return nil
	}

	id := domain.ContentID(article.Title, article.SourceURL)
	if p.seen.Seen(id) {
		p.metrics.ArticlesRejected.WithLabelValues("seen").Inc()
		p.commitOffset(ctx, raw)
		return nil
	}

	event, err := p.normalizer.Normalize(article)
	if err != nil {
		if errors.Is(err, domain.ErrNotRelevant) {
			logger.Debug("article rejected", "id", id, "reason", err)
			p.metrics.ArticlesRejected.WithLabelValues("not_relevant").Inc()
		} else {
			logger.Warn("normalize failed, skipping article", "id", id, "error", err)
			p.metrics.ArticlesRejected.WithLabelValues("error").Inc()
		}
		p.seen.Mark(id)
		p.commitOffset(ctx, raw)
		return nil
	}

	p.metrics.LocationResolutions.WithLabelValues(string(event.CoordinateMethod)).Inc()
	return &candidate{raw: raw, event: event}
}

// dedupeAndLoad runs the serialized dedup pass and persists the survivors.
// Candidates are first checked against the stored population (stored events
// always win: the core never deletes persisted rows), then reduced among
// themselves by the batch deduper. Returns the number of emitted events and
// false if the pipeline should stop.
func (p *Pipeline) dedupeAndLoad(ctx context.Context, logger *slog.Logger, candidates []candidate, backoff *time.Duration, maxBackoff time.Duration) (int, bool) {
	if len(candidates) == 0 {
		return 0, true
	}

	population, err := p.store.FetchPopulation(ctx, time.Now().Add(-p.opts.PopulationWindow))
	if err != nil {
		// Offsets stay uncommitted; the batch is redelivered.
		logger.Error("fetch population failed", "error", err)
		return 0, p.backoffOrStop(ctx, backoff, maxBackoff)
	}

	fresh := make([]candidate, 0, len(candidates))
	for _, c := range candidates {
		if res := p.deduper.Dedupe(c.event, population); res.IsDuplicate {
			logger.Debug("duplicate of stored event", "id", c.event.ID, "match_id", res.MatchID)
			p.metrics.EventsDropped.Inc()
			p.seen.Mark(c.event.ID)
			p.commitOffset(ctx, c.raw)
			continue
		}
		fresh = append(fresh, c)
	}
	if len(fresh) == 0 {
		return 0, true
	}

	events := make([]domain.Event, len(fresh))
	for i, c := range fresh {
		events[i] = c.event
	}
	survivors := p.deduper.DedupeAll(events)
	surviving := make(map[string]bool, len(survivors))
	for _, e := range survivors {
		surviving[e.ID] = true
	}
	p.metrics.EventsDropped.Add(float64(len(events) - len(survivors)))

	if err := p.store.UpsertEvents(ctx, survivors); err != nil {
		logger.Error("upsert events failed", "error", err, "events", len(survivors))
		return 0, p.backoffOrStop(ctx, backoff, maxBackoff)
	}
	if err := p.loader.LoadBatch(ctx, survivors); err != nil {
		logger.Error("load batch failed", "error", err, "events", len(survivors))
		return 0, p.backoffOrStop(ctx, backoff, maxBackoff)
	}
	p.metrics.EventsEmitted.Add(float64(len(survivors)))

	for _, c := range fresh {
		p.seen.Mark(c.event.ID)
		p.commitOffset(ctx, c.raw)
		if !surviving[c.event.ID] {
			logger.Debug("duplicate within batch", "id", c.event.ID)
		}
	}

	return len(survivors), true
}

// backoffOrStop checks for context cancellation, sleeps with the current
// backoff, and advances it. Returns false if the pipeline should stop.
func (p *Pipeline) backoffOrStop(ctx context.Context, backoff *time.Duration, maxBackoff time.Duration) bool {
	if ctx.Err() != nil {
		return false
	}
	if !sleepWithContext(ctx, *backoff) {
		return false
	}
	*backoff = nextBackoff(*backoff, maxBackoff)
	return true
}

// commitOffset commits the message offset if a commit function is available.
func (p *Pipeline) commitOffset(ctx context.Context, raw domain.RawMessage) {
	if raw.Commit == nil {
		return
	}
	if err := raw.Commit(ctx); err != nil {
		p.logger.Warn("commit offset failed", "error", err,
			"topic", raw.Topic, "partition", raw.Partition, "offset", raw.Offset)
	}
}

func nextBackoff(current, maxBackoff time.Duration) time.Duration {
	next := current * 2
	if next > maxBackoff {
		return maxBackoff
	}
	return next
}

func sleepWithContext(ctx context.Context, d time.Duration) bool {
	if d <= 0 {
		return true
	}

	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return false
	case <-timer.C:
		return true
	}
}
