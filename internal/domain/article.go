package domain

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"net/url"
	"strings"
	"time"
)

// RawArticle is the flat JSON structure produced by the feed collector.
// Country is a free-text author-supplied hint, not a validated value.
type RawArticle struct {
	Title       string    `json:"title"`
	Summary     string    `json:"summary"`
	SourceURL   string    `json:"source_url"`
	PublishedAt time.Time `json:"published_at"`
	Country     string    `json:"country,omitempty"`
}

// RawMessage is an unprocessed message from the source topic.
type RawMessage struct {
	Key       []byte
	Value     []byte
	Headers   map[string]string
	Topic     string
	Partition int
	Offset    int64
	Timestamp time.Time
	Commit    func(ctx context.Context) error
}

// ParseRawArticle deserializes a RawMessage's value into a RawArticle.
// A missing publication time falls back to the Kafka message timestamp
// (set by the collector from the feed entry date).
func ParseRawArticle(raw RawMessage) (RawArticle, error) {
	var article RawArticle
	if err := json.Unmarshal(raw.Value, &article); err != nil {
		return RawArticle{}, fmt.Errorf("parse raw article: %w", err)
	}
	if article.PublishedAt.IsZero() {
		article.PublishedAt = raw.Timestamp
	}
	return article, nil
}

// ContentID produces a deterministic event ID from the article's normalized
// title and source host. Deterministic IDs make storage upserts idempotent
// (ON CONFLICT DO UPDATE) and keep replays from minting duplicate rows.
func ContentID(title, sourceURL string) string {
	input := normalizeTitle(title) + "|" + sourceHost(sourceURL)
	hash := sha256.Sum256([]byte(input))
	return "evt-" + hex.EncodeToString(hash[:8])
}

// normalizeTitle lower-cases and collapses whitespace so trivial reformatting
// by the feed does not change the identity.
func normalizeTitle(title string) string {
	return strings.Join(strings.Fields(strings.ToLower(title)), " ")
}

// sourceHost extracts the host from a source URL, falling back to the raw
// string when it does not parse.
func sourceHost(sourceURL string) string {
	u, err := url.Parse(sourceURL)
	if err != nil || u.Host == "" {
		return strings.ToLower(strings.TrimSpace(sourceURL))
	}
	return strings.ToLower(u.Host)
}
