package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func testSignals() SignalTable {
	return SignalTable{
		Positive: []Signal{
			{Term: "missile", Weight: 0.3, Category: "military_action"},
			{Term: "strike", Weight: 0.2, Category: "military_action"},
			{Term: "ceasefire", Weight: 0.25, Category: "diplomacy"},
			{Term: "war", Weight: 0.2, Category: "military_posture"},
		},
		Negative: []Signal{
			{Term: "cricket", Weight: 0.4},
			{Term: "tournament", Weight: 0.3},
		},
	}
}

func TestClassify(t *testing.T) {
	c := NewClassifier(testSignals(), 0.3)

	tests := []struct {
		name           string
		title, summary string
		wantRelevant   bool
		wantConfidence float64
		wantCategories []string
	}{
		{
			name:           "conflict headline clamps at one",
			title:          "Missile strike hits Kharkiv power plant",
			summary:        "A missile strike damaged infrastructure.",
			wantRelevant:   true,
			wantConfidence: 1.0,
			wantCategories: []string{"military_action"},
		},
		{
			name:           "summary only match at threshold",
			title:          "Overnight developments",
			summary:        "A missile was fired toward the city.",
			wantRelevant:   true,
			wantConfidence: 0.3,
			wantCategories: []string{"military_action"},
		},
		{
			name:           "sports rejected",
			title:          "Cricket final ends in a thriller",
			summary:        "The tournament concluded on Sunday.",
			wantRelevant:   false,
			wantConfidence: 0,
		},
		{
			name:           "negative signals pull a positive match below threshold",
			title:          "Missile strike delays cricket match",
			wantRelevant:   false,
			wantConfidence: 0.2,
			wantCategories: []string{"military_action"},
		},
		{
			name:           "empty text",
			wantRelevant:   false,
			wantConfidence: 0,
		},
		{
			name:           "categories sorted and unique",
			title:          "Ceasefire holds as missile attacks pause",
			summary:        "Negotiators extended the ceasefire.",
			wantRelevant:   true,
			wantConfidence: 1.0,
			wantCategories: []string{"diplomacy", "military_action"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := c.Classify(tt.title, tt.summary)
			assert.Equal(t, tt.wantRelevant, got.IsRelevant)
			assert.InDelta(t, tt.wantConfidence, got.Confidence, 1e-9)
			assert.Equal(t, tt.wantCategories, got.Categories)
		})
	}
}

func TestClassifyRepeatsDoNotStack(t *testing.T) {
	c := NewClassifier(testSignals(), 0.3)

	once := c.Classify("missile reported", "")
	thrice := c.Classify("missile missile missile reported", "")
	assert.Equal(t, once.Confidence, thrice.Confidence)
}

func TestClassifyTitleBoost(t *testing.T) {
	c := NewClassifier(testSignals(), 0.3)

	inTitle := c.Classify("missile alert", "")
	inSummary := c.Classify("alert", "missile inbound")
	assert.InDelta(t, 0.6, inTitle.Confidence, 1e-9)
	assert.InDelta(t, 0.3, inSummary.Confidence, 1e-9)
}

func TestClassifyWordBoundaries(t *testing.T) {
	c := NewClassifier(testSignals(), 0.3)

	// "war" must not fire inside "warning".
	got := c.Classify("Severe weather warning issued", "")
	assert.False(t, got.IsRelevant)
	assert.Zero(t, got.Confidence)
	assert.Equal(t, "no signals matched", got.Reasoning)
}

func TestClassifyConfidenceRange(t *testing.T) {
	c := NewClassifier(testSignals(), 0.3)

	titles := []string{
		"",
		"cricket cricket tournament",
		"missile war strike ceasefire missile",
		"nothing notable happened today",
	}
	for _, title := range titles {
		got := c.Classify(title, title)
		assert.GreaterOrEqual(t, got.Confidence, 0.0, "title %q", title)
		assert.LessOrEqual(t, got.Confidence, 1.0, "title %q", title)
	}
}

func TestClassifyIsPure(t *testing.T) {
	c := NewClassifier(testSignals(), 0.3)

	first := c.Classify("Missile strike on depot", "War intensifies.")
	second := c.Classify("Missile strike on depot", "War intensifies.")
	assert.Equal(t, first, second)
}
