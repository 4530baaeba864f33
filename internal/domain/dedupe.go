package domain

import (
	"math"
	"sort"
	"strings"
	"time"
)

// DedupeParams are the externally configured deduplication tunables.
type DedupeParams struct {
	// Window is the maximum timestamp distance for two events to be
	// considered the same incident.
	Window time.Duration
	// CoordTolerance is the per-axis coordinate tolerance in degrees.
	CoordTolerance float64
	// TitleSimilarity is the Jaccard threshold (exclusive) on title tokens.
	TitleSimilarity float64
	// BucketCap is the number of events per (country, region) bucket
	// accepted without pairwise comparison.
	BucketCap int
}

// DefaultDedupeParams returns the documented operating values.
func DefaultDedupeParams() DedupeParams {
	return DedupeParams{
		Window:          2 * time.Hour,
		CoordTolerance:  0.1,
		TitleSimilarity: 0.7,
		BucketCap:       5,
	}
}

// DedupeResult is the outcome of checking one candidate against a population.
type DedupeResult struct {
	IsDuplicate bool
	MatchID     string
}

// Deduper decides whether events duplicate each other using temporal,
// spatial, and lexical similarity. Pure; the batch form must not be
// parallelized because survivor selection order is part of its contract.
type Deduper struct {
	params DedupeParams
}

// NewDeduper builds a deduper with the given parameters.
func NewDeduper(params DedupeParams) *Deduper {
	if params.BucketCap <= 0 {
		params.BucketCap = DefaultDedupeParams().BucketCap
	}
	return &Deduper{params: params}
}

// Dedupe reports whether candidate duplicates any member of population.
// The first similar member (in population order) is reported as the match.
func (d *Deduper) Dedupe(candidate Event, population []Event) DedupeResult {
	for _, other := range population {
		if d.similar(candidate, other) {
			return DedupeResult{IsDuplicate: true, MatchID: other.ID}
		}
	}
	return DedupeResult{}
}

// DedupeAll reduces a batch to a duplicate-free set. Events are first sorted
// by severity descending, then recency descending, then ID ascending, which
// fixes the surviving member of each duplicate cluster: highest severity
// wins, then newest. Each (country, region) bucket accepts its first
// BucketCap events without comparison; past the cap, an event must not be
// similar to any already-accepted event. The two-tier design bounds cost to
// clustered hot spots and is part of the outcome contract, not merely an
// optimization: it changes behavior near bucket boundaries.
func (d *Deduper) DedupeAll(events []Event) []Event {
	sorted := make([]Event, len(events))
	copy(sorted, events)
	sort.SliceStable(sorted, func(i, j int) bool {
		a, b := sorted[i], sorted[j]
		if a.Severity.Rank() != b.Severity.Rank() {
			return a.Severity.Rank() > b.Severity.Rank()
		}
		if !a.Timestamp.Equal(b.Timestamp) {
			return a.Timestamp.After(b.Timestamp)
		}
		return a.ID < b.ID
	})

	type bucketKey struct{ country, region string }
	buckets := map[bucketKey]int{}
	accepted := make([]Event, 0, len(sorted))

	for _, e := range sorted {
		key := bucketKey{e.Country, e.Region}
		if buckets[key] < d.params.BucketCap {
			accepted = append(accepted, e)
			buckets[key]++
			continue
		}
		if d.Dedupe(e, accepted).IsDuplicate {
			continue
		}
		accepted = append(accepted, e)
		buckets[key]++
	}
	return accepted
}

// similar is the pairwise similarity predicate: same ID, or within the time
// window AND co-located (same bucket, or coordinates within tolerance on
// each axis) AND title Jaccard above the threshold. Location mismatch is
// terminal regardless of text.
func (d *Deduper) similar(a, b Event) bool {
	if a.ID != "" && a.ID == b.ID {
		return true
	}

	delta := a.Timestamp.Sub(b.Timestamp)
	if delta < 0 {
		delta = -delta
	}
	if delta > d.params.Window {
		return false
	}

	if !d.colocated(a, b) {
		return false
	}

	return jaccard(titleTokens(a.Title), titleTokens(b.Title)) > d.params.TitleSimilarity
}

func (d *Deduper) colocated(a, b Event) bool {
	if a.Country == b.Country && a.Region == b.Region {
		return true
	}
	if a.Location == nil || b.Location == nil || !a.Location.Valid() || !b.Location.Valid() {
		return false
	}
	return math.Abs(a.Location.Lat-b.Location.Lat) <= d.params.CoordTolerance &&
		math.Abs(a.Location.Lon-b.Location.Lon) <= d.params.CoordTolerance
}

// titleTokens lower-cases and whitespace-splits a title into a word set.
func titleTokens(title string) map[string]bool {
	tokens := map[string]bool{}
	for _, w := range strings.Fields(strings.ToLower(title)) {
		tokens[w] = true
	}
	return tokens
}

// jaccard is |A∩B| / |A∪B|. Either side empty yields 0, never similar.
func jaccard(a, b map[string]bool) float64 {
	if len(a) == 0 || len(b) == 0 {
		return 0
	}
	intersection := 0
	for w := range a {
		if b[w] {
			intersection++
		}
	}
	union := len(a) + len(b) - intersection
	return float64(intersection) / float64(union)
}
