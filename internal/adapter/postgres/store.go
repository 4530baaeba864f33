package postgres

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/couchcryptid/osint-event-etl/internal/domain"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Querier is the slice of pgxpool.Pool the store uses. pgxmock satisfies it
// too, so unit tests run without a database.
type Querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	Ping(ctx context.Context) error
}

// Store persists normalized events. It implements pipeline.EventStore and
// pipeline.RepairStore.
type Store struct {
	db     Querier
	logger *slog.Logger
}

// Connect opens a connection pool against the configured database URL and
// verifies it with a ping.
func Connect(ctx context.Context, databaseURL string) (*pgxpool.Pool, error) {
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, fmt.Errorf("create connection pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	return pool, nil
}

// NewStore creates a Store over an open pool (or a mock in tests).
func NewStore(db Querier, logger *slog.Logger) *Store {
	return &Store{db: db, logger: logger}
}

const upsertEventSQL = `
INSERT INTO events (
	id, title, summary, country, region, lat, lon,
	coordinate_method, coordinate_confidence, escalation_score, severity,
	event_time, tags, source_url, processed_at
) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)
ON CONFLICT (id) DO UPDATE SET
	title = EXCLUDED.title,
	summary = EXCLUDED.summary,
	country = EXCLUDED.country,
	region = EXCLUDED.region,
	lat = EXCLUDED.lat,
	lon = EXCLUDED.lon,
	coordinate_method = EXCLUDED.coordinate_method,
	coordinate_confidence = EXCLUDED.coordinate_confidence,
	escalation_score = EXCLUDED.escalation_score,
	severity = EXCLUDED.severity,
	event_time = EXCLUDED.event_time,
	tags = EXCLUDED.tags,
	source_url = EXCLUDED.source_url,
	processed_at = EXCLUDED.processed_at`

const selectEventsSQL = `
SELECT id, title, summary, country, region, lat, lon,
	coordinate_method, coordinate_confidence, escalation_score, severity,
	event_time, tags, source_url, processed_at
FROM events
WHERE event_time >= $1
ORDER BY event_time DESC`

// UpsertEvents writes events with ON CONFLICT (id) DO UPDATE. Content IDs are
// deterministic, so redelivered articles overwrite their own row instead of
// duplicating it.
func (s *Store) UpsertEvents(ctx context.Context, events []domain.Event) error {
	for _, e := range events {
		var lat, lon *float64
		if e.Location != nil {
			lat, lon = &e.Location.Lat, &e.Location.Lon
		}
		_, err := s.db.Exec(ctx, upsertEventSQL,
			e.ID, e.Title, e.Summary, e.Country, e.Region, lat, lon,
			string(e.CoordinateMethod), e.CoordinateConfidence, e.EscalationScore,
			string(e.Severity), e.Timestamp, e.Tags, e.SourceURL, e.ProcessedAt,
		)
		if err != nil {
			return fmt.Errorf("upsert event %s: %w", e.ID, err)
		}
	}
	return nil
}

// FetchPopulation returns stored events with an event time at or after since,
// newest first. The pipeline compares incoming candidates against this window.
func (s *Store) FetchPopulation(ctx context.Context, since time.Time) ([]domain.Event, error) {
	return s.fetchSince(ctx, since)
}

// FetchForRepair returns the repair job's working set; same query as the
// dedup population, typically over a much longer window.
func (s *Store) FetchForRepair(ctx context.Context, since time.Time) ([]domain.Event, error) {
	return s.fetchSince(ctx, since)
}

func (s *Store) fetchSince(ctx context.Context, since time.Time) ([]domain.Event, error) {
	rows, err := s.db.Query(ctx, selectEventsSQL, since)
	if err != nil {
		return nil, fmt.Errorf("query events: %w", err)
	}
	defer rows.Close()

	var events []domain.Event
	for rows.Next() {
		e, err := scanEvent(rows)
		if err != nil {
			return nil, err
		}
		events = append(events, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate events: %w", err)
	}
	return events, nil
}

// CheckReadiness reports database connectivity for the readiness probe.
func (s *Store) CheckReadiness(ctx context.Context) error {
	if err := s.db.Ping(ctx); err != nil {
		return fmt.Errorf("database unreachable: %w", err)
	}
	return nil
}

func scanEvent(rows pgx.Rows) (domain.Event, error) {
	var (
		e        domain.Event
		lat, lon *float64
		method   string
		severity string
	)
	err := rows.Scan(
		&e.ID, &e.Title, &e.Summary, &e.Country, &e.Region, &lat, &lon,
		&method, &e.CoordinateConfidence, &e.EscalationScore, &severity,
		&e.Timestamp, &e.Tags, &e.SourceURL, &e.ProcessedAt,
	)
	if err != nil {
		return domain.Event{}, fmt.Errorf("scan event: %w", err)
	}
	e.CoordinateMethod = domain.CoordinateMethod(method)
	e.Severity = domain.Severity(severity)
	if lat != nil && lon != nil {
		e.Location = &domain.GeoPoint{Lat: *lat, Lon: *lon}
	}
	return e, nil
}
