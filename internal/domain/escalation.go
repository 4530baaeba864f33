package domain

import (
	"math"
	"regexp"
	"strings"
)

// LexiconEntry is one weighted escalation-indicative term or phrase.
type LexiconEntry struct {
	Term   string  `yaml:"term"`
	Weight float64 `yaml:"weight"`
}

// SeverityCutpoints maps escalation scores to severity labels. Scores below
// Medium are low; the function is monotonic by construction.
type SeverityCutpoints struct {
	Medium   float64
	High     float64
	Critical float64
}

// DefaultSeverityCutpoints are the documented operating values.
func DefaultSeverityCutpoints() SeverityCutpoints {
	return SeverityCutpoints{Medium: 3, High: 6, Critical: 10}
}

// EscalationResult is the outcome of escalation scoring.
type EscalationResult struct {
	Score   float64
	Drivers []string
}

// repeatTopUp is the one-time extra fraction of a term's weight granted when
// the term appears more than once. Capping repeats here keeps wire copies
// that loop one phrase from outranking broader reports.
const repeatTopUp = 0.5

// casualtyBonus is the flat score added when numerals sit next to casualty
// or strike-count vocabulary: quantified violence reads as more escalatory
// than unquantified mentions.
const casualtyBonus = 1.5

var (
	// "37 killed", "at least 12 people wounded"
	casualtyAfterRe = regexp.MustCompile(`\b\d[\d,]*\s+(?:people\s+|civilians\s+|soldiers\s+)?(?:killed|dead|wounded|injured|missing|casualties)\b`)
	// "killed 37", "launched 24 drones"
	casualtyBeforeRe = regexp.MustCompile(`\b(?:killed|wounded|injured|launched|fired|intercepted|struck)\s+(?:at\s+least\s+|about\s+|over\s+|some\s+)?\d[\d,]*\b`)
)

// Scorer computes escalation scores over a weighted lexicon. Pure and safe
// for concurrent use.
type Scorer struct {
	lexicon   []LexiconEntry
	cutpoints SeverityCutpoints
}

// NewScorer builds a scorer over the given lexicon and severity cut points.
func NewScorer(lexicon []LexiconEntry, cutpoints SeverityCutpoints) *Scorer {
	return &Scorer{lexicon: lexicon, cutpoints: cutpoints}
}

// Score computes the escalation score for title+summary. The score is an
// unbounded non-negative real: the sum of matched term weights, each term
// contributing at most weight*(1+repeatTopUp), plus the casualty bonus when
// quantified casualty language is present. Empty text scores 0.
func (s *Scorer) Score(title, summary string) EscalationResult {
	text := strings.ToLower(title + " " + summary)

	var score float64
	var drivers []string
	for _, entry := range s.lexicon {
		n := countTermMatches(text, strings.ToLower(entry.Term))
		if n == 0 {
			continue
		}
		contribution := entry.Weight
		if n > 1 {
			contribution += entry.Weight * repeatTopUp
		}
		score += contribution
		drivers = append(drivers, entry.Term)
	}

	if casualtyAfterRe.MatchString(text) || casualtyBeforeRe.MatchString(text) {
		score += casualtyBonus
		drivers = append(drivers, "quantified casualties")
	}

	return EscalationResult{Score: score, Drivers: drivers}
}

// DeriveSeverity maps a score onto the four-level severity scale using the
// fixed cut points.
func (s *Scorer) DeriveSeverity(score float64) Severity {
	switch {
	case score >= s.cutpoints.Critical:
		return SeverityCritical
	case score >= s.cutpoints.High:
		return SeverityHigh
	case score >= s.cutpoints.Medium:
		return SeverityMedium
	default:
		return SeverityLow
	}
}

// RescoreNeeded reports whether a freshly computed score differs from the
// stored one by more than the noise threshold. Rescoring runs repeatedly on
// unchanged text; the threshold stops write amplification from float jitter
// and minor lexicon tweaks.
func RescoreNeeded(stored, fresh, noise float64) bool {
	return math.Abs(stored-fresh) > noise
}
