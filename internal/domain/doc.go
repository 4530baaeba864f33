// Package domain implements the OSINT event normalization core: relevance
// classification, location resolution, escalation scoring, and deduplication
// of news-derived conflict events.
//
// # Data Source
//
// Raw articles originate from open-source news feeds (RSS and wire scrapes).
// The upstream collector fetches feeds on a cron schedule, strips markup, and
// publishes each article as flat JSON to the Kafka source topic. An article
// carries a title, a summary, a source URL, a publication timestamp, and an
// optional free-text country hint supplied by the feed author.
//
// # Relevance Classification
//
// Two weighted keyword tables decide whether an article is operationally
// relevant (conflict/military/security). Positive signals (action verbs and
// domain nouns: "strikes", "missile", "ceasefire") add weight; negative
// signals (sports, entertainment, markets, health, natural disasters, animal
// incidents) subtract it. Title matches count double because headlines are
// edited for topic while summaries drift. The weighted sum is clamped to
// [0,1] and compared against a configured threshold (observed operating
// points sit in the 0.15-0.4 band). An article matching nothing scores 0 and
// is rejected.
//
// # Coordinate Conventions
//
// WGS-84 decimal degrees, latitude in [-90,90], longitude in [-180,180].
// (0,0) is the "null island" sentinel for unset, never a real location.
// Resolution confidence is a fixed ladder usable for conflict resolution
// when multiple candidate points exist:
//
//	exact_city       0.9   gazetteer city hit in the text
//	existing_valid   0.8   stored coordinates that pass validation
//	keyword_match    0.6   country or region name mentioned in the text
//	country_centroid 0.3   fallback through the article's country hint
//	unresolved       0.0   no positional signal at all
//
// # Coordinate Repair
//
// Stored events accumulate known corruption modes: swapped axes, null
// island, out-of-range values, and country-centroid collapse (a whole
// country's events sharing one identical pair). The swap heuristic is the
// historical |lon| > 90 AND |lat| <= 180 test. It is kept as-is even though
// it misfires for legitimate longitudes east of 90°E; repair always re-runs
// gazetteer extraction before trusting a swap, and a reversed-centroid
// comparison catches the common corruption the heuristic misses. Repair is
// idempotent: an already-clean event reports changed=false.
//
// # Escalation Scoring
//
// A weighted lexicon sum over title and summary. Repeated hits of one term
// earn a single half-weight top-up rather than linear growth, so a wire copy
// repeating "strike" five times does not outrank a genuinely broader report.
// Numerals adjacent to casualty vocabulary add a flat bonus. Severity is a
// fixed monotonic step function of the score (cut points configurable).
//
// # ID Generation
//
// Event IDs are deterministic SHA-256 hashes of normalized title | source
// host. Re-ingesting the same article yields the same ID, so storage upserts
// (ON CONFLICT) stay idempotent without coordination. See [ContentID].
package domain
