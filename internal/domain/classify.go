package domain

import (
	"fmt"
	"sort"
	"strings"
)

// Signal is one weighted keyword or phrase in a classification table.
// Category tags accepted articles (e.g. "military_action", "diplomacy");
// it is empty for negative signals.
type Signal struct {
	Term     string  `yaml:"term"`
	Weight   float64 `yaml:"weight"`
	Category string  `yaml:"category,omitempty"`
}

// SignalTable holds the positive (conflict/military/security) and negative
// (off-topic) keyword sets. The tables are data, not code: they are loaded
// from configuration so they can be tuned without touching this file.
type SignalTable struct {
	Positive []Signal `yaml:"positive"`
	Negative []Signal `yaml:"negative"`
}

// ClassificationResult is the outcome of relevance classification.
type ClassificationResult struct {
	IsRelevant bool
	Confidence float64
	Categories []string
	Reasoning  string
}

// titleBoost is the extra weight for title matches relative to summary
// matches. Headlines are edited for topic; summaries drift.
const titleBoost = 2.0

// Classifier scores articles for topical relevance. It is pure and safe for
// concurrent use.
type Classifier struct {
	signals   SignalTable
	threshold float64
}

// NewClassifier builds a classifier over the given signal table. The
// threshold is the externally configured accept cut-off on confidence.
func NewClassifier(signals SignalTable, threshold float64) *Classifier {
	return &Classifier{signals: signals, threshold: threshold}
}

// Classify scores title+summary for conflict/military/security relevance.
// It never fails: empty or malformed text yields confidence 0 and a reject.
func (c *Classifier) Classify(title, summary string) ClassificationResult {
	titleText := strings.ToLower(title)
	summaryText := strings.ToLower(summary)

	var raw float64
	var matchedPos, matchedNeg []string
	categories := map[string]bool{}

	for _, sig := range c.signals.Positive {
		w := signalWeight(titleText, summaryText, sig)
		if w == 0 {
			continue
		}
		raw += w
		matchedPos = append(matchedPos, sig.Term)
		if sig.Category != "" {
			categories[sig.Category] = true
		}
	}
	for _, sig := range c.signals.Negative {
		w := signalWeight(titleText, summaryText, sig)
		if w == 0 {
			continue
		}
		raw -= w
		matchedNeg = append(matchedNeg, sig.Term)
	}

	confidence := clamp01(raw)
	result := ClassificationResult{
		IsRelevant: confidence >= c.threshold,
		Confidence: confidence,
		Categories: sortedKeys(categories),
		Reasoning:  reasoning(matchedPos, matchedNeg),
	}
	return result
}

// signalWeight returns the signal's contribution: full weight times the
// title boost when the term appears in the title, plain weight when it only
// appears in the summary, zero otherwise. Repeats within one field do not
// stack; the signal either fired or it did not.
func signalWeight(titleText, summaryText string, sig Signal) float64 {
	if containsTerm(titleText, strings.ToLower(sig.Term)) {
		return sig.Weight * titleBoost
	}
	if containsTerm(summaryText, strings.ToLower(sig.Term)) {
		return sig.Weight
	}
	return 0
}

func reasoning(pos, neg []string) string {
	switch {
	case len(pos) == 0 && len(neg) == 0:
		return "no signals matched"
	case len(neg) == 0:
		return fmt.Sprintf("matched: %s", strings.Join(pos, ", "))
	case len(pos) == 0:
		return fmt.Sprintf("off-topic: %s", strings.Join(neg, ", "))
	default:
		return fmt.Sprintf("matched: %s; off-topic: %s",
			strings.Join(pos, ", "), strings.Join(neg, ", "))
	}
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

func sortedKeys(set map[string]bool) []string {
	if len(set) == 0 {
		return nil
	}
	keys := make([]string, 0, len(set))
	for k := range set {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
