package domain

import (
	"math"
	"time"
)

// GeoPoint is a WGS-84 latitude/longitude coordinate pair.
type GeoPoint struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

// Valid reports whether the point is a usable location: both axes finite,
// within range, and not the (0,0) null-island sentinel.
func (p GeoPoint) Valid() bool {
	if math.IsNaN(p.Lat) || math.IsNaN(p.Lon) || math.IsInf(p.Lat, 0) || math.IsInf(p.Lon, 0) {
		return false
	}
	if p.Lat < -90 || p.Lat > 90 || p.Lon < -180 || p.Lon > 180 {
		return false
	}
	return !p.IsNullIsland()
}

// IsNullIsland reports whether the point is the (0,0) "unset" sentinel.
func (p GeoPoint) IsNullIsland() bool {
	return p.Lat == 0 && p.Lon == 0
}

// CoordinateMethod records how an event's location was obtained.
type CoordinateMethod string

const (
	MethodExactCity       CoordinateMethod = "exact_city"
	MethodExistingValid   CoordinateMethod = "existing_valid"
	MethodKeywordMatch    CoordinateMethod = "keyword_match"
	MethodCountryCentroid CoordinateMethod = "country_centroid"
	MethodUnresolved      CoordinateMethod = "unresolved"
)

// Confidence returns the fixed confidence for a resolution method.
// The ladder is part of the conflict-resolution contract; see the package doc.
func (m CoordinateMethod) Confidence() float64 {
	switch m {
	case MethodExactCity:
		return 0.9
	case MethodExistingValid:
		return 0.8
	case MethodKeywordMatch:
		return 0.6
	case MethodCountryCentroid:
		return 0.3
	default:
		return 0.0
	}
}

// Severity is the four-level intensity label derived from the escalation score.
type Severity string

const (
	SeverityLow      Severity = "low"
	SeverityMedium   Severity = "medium"
	SeverityHigh     Severity = "high"
	SeverityCritical Severity = "critical"
)

// Rank orders severities for the dedup survivor tie-break: critical > high >
// medium > low. Unknown labels rank below low.
func (s Severity) Rank() int {
	switch s {
	case SeverityCritical:
		return 3
	case SeverityHigh:
		return 2
	case SeverityMedium:
		return 1
	case SeverityLow:
		return 0
	default:
		return -1
	}
}

// Event is the normalized, persisted unit consumed by the map and analytics
// APIs. Location is nil exactly when CoordinateMethod is unresolved.
type Event struct {
	ID                   string           `json:"id"`
	Title                string           `json:"title"`
	Summary              string           `json:"summary,omitempty"`
	Country              string           `json:"country,omitempty"`
	Region               string           `json:"region,omitempty"`
	Location             *GeoPoint        `json:"location,omitempty"`
	CoordinateMethod     CoordinateMethod `json:"coordinate_method"`
	CoordinateConfidence float64          `json:"coordinate_confidence"`
	EscalationScore      float64          `json:"escalation_score"`
	Severity             Severity         `json:"severity"`
	Timestamp            time.Time        `json:"timestamp"`
	Tags                 []string         `json:"tags,omitempty"`
	SourceURL            string           `json:"source_url,omitempty"`
	ProcessedAt          time.Time        `json:"processed_at"`
}
