package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/couchcryptid/osint-event-etl/internal/domain"
	"github.com/couchcryptid/osint-event-etl/internal/observability"
	"github.com/jonboulle/clockwork"
)

// RepairStore is the slice of the persistence collaborator the repair job
// needs: a window of stored events and a write-back path.
type RepairStore interface {
	FetchForRepair(ctx context.Context, since time.Time) ([]domain.Event, error)
	UpsertEvents(ctx context.Context, events []domain.Event) error
}

// RepairOptions are the repair job tunables.
type RepairOptions struct {
	Interval     time.Duration
	Window       time.Duration
	CollapseMin  int
	RescoreNoise float64
	Clock        clockwork.Clock
}

// RepairJob periodically re-validates stored events: coordinate repair
// (swapped axes, null island, out-of-range, centroid collapse) and
// escalation rescoring. Corrections are logged and written back; nothing is
// ever deleted.
type RepairJob struct {
	store    RepairStore
	resolver *domain.Gazetteer
	scorer   *domain.Scorer
	logger   *slog.Logger
	metrics  *observability.Metrics
	opts     RepairOptions
}

// NewRepairJob wires a repair job over the store and resolvers.
func NewRepairJob(store RepairStore, resolver *domain.Gazetteer, scorer *domain.Scorer,
	logger *slog.Logger, metrics *observability.Metrics, opts RepairOptions) *RepairJob {
	if opts.Interval <= 0 {
		opts.Interval = time.Hour
	}
	if opts.Window <= 0 {
		opts.Window = 60 * 24 * time.Hour
	}
	if opts.CollapseMin <= 0 {
		opts.CollapseMin = 5
	}
	if opts.Clock == nil {
		opts.Clock = clockwork.NewRealClock()
	}
	return &RepairJob{
		store:    store,
		resolver: resolver,
		scorer:   scorer,
		logger:   logger,
		metrics:  metrics,
		opts:     opts,
	}
}

// Run executes repair passes on the configured interval until the context is
// cancelled. A failed pass is logged and retried on the next tick.
func (j *RepairJob) Run(ctx context.Context) error {
	ticker := j.opts.Clock.NewTicker(j.opts.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			j.logger.Info("repair job stopping", "reason", ctx.Err())
			return nil
		case <-ticker.Chan():
			if err := j.RunOnce(ctx); err != nil {
				j.logger.Error("repair pass failed", "error", err)
			}
		}
	}
}

// RunOnce executes a single repair pass over the configured window.
func (j *RepairJob) RunOnce(ctx context.Context) error {
	since := j.opts.Clock.Now().Add(-j.opts.Window)
	events, err := j.store.FetchForRepair(ctx, since)
	if err != nil {
		return fmt.Errorf("fetch events for repair: %w", err)
	}

	collapsed := map[string]bool{}
	for _, country := range domain.CollapsedCountries(events, j.opts.CollapseMin) {
		collapsed[country] = true
		j.logger.Warn("country-centroid collapse detected", "country", country)
	}

	var changed []domain.Event
	for _, e := range events {
		if j.repairOne(&e, collapsed[e.Country]) {
			changed = append(changed, e)
		}
	}

	if len(changed) > 0 {
		if err := j.store.UpsertEvents(ctx, changed); err != nil {
			return fmt.Errorf("write back repaired events: %w", err)
		}
	}

	j.metrics.RepairRuns.Inc()
	j.logger.Info("repair pass complete", "events", len(events), "corrected", len(changed))
	return nil
}

// repairOne applies coordinate repair and rescoring to a single event,
// returning true when the event was modified.
func (j *RepairJob) repairOne(e *domain.Event, inCollapsedCountry bool) bool {
	var res domain.RepairResult
	if inCollapsedCountry {
		// The shared centroid is "valid"; only a text re-extraction can
		// give these events distinct positions.
		res = j.resolver.Reextract(*e)
	} else {
		res = j.resolver.Repair(*e)
	}

	modified := false
	if res.Changed {
		j.logger.Info("coordinates corrected",
			"id", e.ID, "old_method", e.CoordinateMethod, "new_method", res.Method)
		e.Location = res.Point
		e.CoordinateMethod = res.Method
		e.CoordinateConfidence = res.Confidence
		j.metrics.RepairCorrections.WithLabelValues("coordinates").Inc()
		modified = true
	}

	fresh := j.scorer.Score(e.Title, e.Summary)
	if domain.RescoreNeeded(e.EscalationScore, fresh.Score, j.opts.RescoreNoise) {
		e.EscalationScore = fresh.Score
		e.Severity = j.scorer.DeriveSeverity(fresh.Score)
		j.metrics.RepairCorrections.WithLabelValues("rescore").Inc()
		modified = true
	}

	return modified
}
