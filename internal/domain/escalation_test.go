package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func testLexicon() []LexiconEntry {
	return []LexiconEntry{
		{Term: "nuclear", Weight: 10},
		{Term: "invasion", Weight: 8},
		{Term: "missile", Weight: 4},
		{Term: "shelling", Weight: 4},
		{Term: "killed", Weight: 3},
		{Term: "strike", Weight: 2.5},
		{Term: "troops", Weight: 2},
	}
}

func TestScore(t *testing.T) {
	s := NewScorer(testLexicon(), DefaultSeverityCutpoints())

	tests := []struct {
		name           string
		title, summary string
		wantScore      float64
	}{
		{
			name:      "single term",
			title:     "Troops mass near the border",
			wantScore: 2,
		},
		{
			name:      "terms sum",
			title:     "Missile strike hits Kharkiv power plant",
			wantScore: 6.5, // missile 4 + strike 2.5
		},
		{
			name:      "repeats top up once",
			title:     "Strike after strike after strike",
			wantScore: 3.75, // 2.5 * 1.5, not 7.5
		},
		{
			name:      "casualty count after numeral",
			title:     "37 killed in overnight shelling",
			wantScore: 8.5, // killed 3 + shelling 4 + bonus 1.5
		},
		{
			name:      "casualty count before numeral",
			title:     "Forces launched 24 attack craft",
			wantScore: 1.5, // bonus only, no lexicon terms
		},
		{
			name:      "hedged count still quantified",
			title:     "At least 12 people wounded in blast",
			wantScore: 1.5,
		},
		{
			name:      "unquantified violence gets no bonus",
			title:     "Several killed in shelling",
			wantScore: 7, // killed 3 + shelling 4
		},
		{
			name:      "empty text",
			wantScore: 0,
		},
		{
			name:      "irrelevant text",
			title:     "Markets close mixed after quiet session",
			wantScore: 0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := s.Score(tt.title, tt.summary)
			assert.InDelta(t, tt.wantScore, got.Score, 1e-9)
			assert.GreaterOrEqual(t, got.Score, 0.0)
		})
	}
}

func TestScoreMonotonicInMatchedTerms(t *testing.T) {
	s := NewScorer(testLexicon(), DefaultSeverityCutpoints())

	base := s.Score("Troops mass near the border", "")
	withMore := s.Score("Troops mass near the border amid invasion fears", "")
	assert.Greater(t, withMore.Score, base.Score,
		"adding a weighted term must never decrease the score")
}

func TestScoreSpansTitleAndSummary(t *testing.T) {
	s := NewScorer(testLexicon(), DefaultSeverityCutpoints())

	// The same term once in each field counts as a repeat, not twice.
	got := s.Score("Missile fired", "The missile was intercepted.")
	assert.InDelta(t, 6, got.Score, 1e-9) // 4 * 1.5
}

func TestDeriveSeverity(t *testing.T) {
	s := NewScorer(testLexicon(), DefaultSeverityCutpoints())

	tests := []struct {
		score float64
		want  Severity
	}{
		{0, SeverityLow},
		{2.9, SeverityLow},
		{3, SeverityMedium},
		{5.9, SeverityMedium},
		{6, SeverityHigh},
		{6.5, SeverityHigh},
		{9.9, SeverityHigh},
		{10, SeverityCritical},
		{42, SeverityCritical},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, s.DeriveSeverity(tt.score), "score %v", tt.score)
	}
}

func TestSeverityRankOrdering(t *testing.T) {
	assert.Greater(t, SeverityCritical.Rank(), SeverityHigh.Rank())
	assert.Greater(t, SeverityHigh.Rank(), SeverityMedium.Rank())
	assert.Greater(t, SeverityMedium.Rank(), SeverityLow.Rank())
	assert.Greater(t, SeverityLow.Rank(), Severity("bogus").Rank())
}

func TestRescoreNeeded(t *testing.T) {
	assert.False(t, RescoreNeeded(6.5, 6.5, 0.5))
	assert.False(t, RescoreNeeded(6.5, 6.9, 0.5))
	assert.False(t, RescoreNeeded(6.5, 7.0, 0.5)) // exactly at the threshold
	assert.True(t, RescoreNeeded(6.5, 7.1, 0.5))
	assert.True(t, RescoreNeeded(7.1, 6.5, 0.5))
}
