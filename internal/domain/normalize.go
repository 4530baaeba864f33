package domain

import (
	"errors"
	"fmt"
)

// ErrNotRelevant marks an article classified below the relevance threshold.
// It is a terminal state, not a failure: the pipeline counts and drops it.
var ErrNotRelevant = errors.New("article not relevant")

// Normalizer composes the classifier, resolver, and scorer into the single
// "one article in, at most one event out" operation. Deduplication runs
// separately because it needs the batch and the stored population.
type Normalizer struct {
	classifier *Classifier
	resolver   *Gazetteer
	scorer     *Scorer
}

// NewNormalizer wires the three leaf components.
func NewNormalizer(classifier *Classifier, resolver *Gazetteer, scorer *Scorer) *Normalizer {
	return &Normalizer{classifier: classifier, resolver: resolver, scorer: scorer}
}

// Normalize classifies, geolocates, and scores one article. Returns
// ErrNotRelevant (wrapped) when classification rejects it. An article whose
// location cannot be resolved is still accepted with a nil location and
// method unresolved; later repair passes may recover it. Scoring always runs
// before dedup because severity feeds the survivor tie-break.
func (n *Normalizer) Normalize(article RawArticle) (Event, error) {
	cls := n.classifier.Classify(article.Title, article.Summary)
	if !cls.IsRelevant {
		return Event{}, fmt.Errorf("%w: confidence %.2f (%s)", ErrNotRelevant, cls.Confidence, cls.Reasoning)
	}

	loc := n.resolver.Resolve(article)
	esc := n.scorer.Score(article.Title, article.Summary)

	country := loc.Country
	if country == "" {
		country = article.Country
	}

	return Event{
		ID:                   ContentID(article.Title, article.SourceURL),
		Title:                article.Title,
		Summary:              article.Summary,
		Country:              country,
		Region:               loc.Region,
		Location:             loc.Point,
		CoordinateMethod:     loc.Method,
		CoordinateConfidence: loc.Confidence,
		EscalationScore:      esc.Score,
		Severity:             n.scorer.DeriveSeverity(esc.Score),
		Timestamp:            article.PublishedAt,
		Tags:                 cls.Categories,
		SourceURL:            article.SourceURL,
		ProcessedAt:          clock.Now(),
	}, nil
}
