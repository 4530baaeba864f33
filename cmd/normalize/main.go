// Command normalize runs the normalization stages over a JSON file of raw
// articles and prints the resulting events. Useful for tuning the signal and
// lexicon tables without a running Kafka cluster.
package main

import (
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/couchcryptid/osint-event-etl/internal/domain"
	"github.com/couchcryptid/osint-event-etl/internal/tables"
	"github.com/jonboulle/clockwork"
)

func main() {
	var (
		inPath    = flag.String("in", "-", "input JSON file of raw articles, - for stdin")
		outPath   = flag.String("out", "-", "output JSON file of events, - for stdout")
		at        = flag.String("at", "", "freeze processing time at this RFC3339 instant")
		threshold = flag.Float64("threshold", 0.3, "relevance confidence threshold")
	)
	flag.Parse()

	if err := run(*inPath, *outPath, *at, *threshold); err != nil {
		fmt.Fprintln(os.Stderr, "normalize:", err)
		os.Exit(1)
	}
}

func run(inPath, outPath, at string, threshold float64) error {
	if at != "" {
		frozen, err := time.Parse(time.RFC3339, at)
		if err != nil {
			return fmt.Errorf("parse -at: %w", err)
		}
		domain.SetClock(clockwork.NewFakeClockAt(frozen))
	}

	signals, err := tables.LoadSignals(os.Getenv("SIGNALS_TABLE"))
	if err != nil {
		return err
	}
	gazetteer, err := tables.LoadGazetteer(os.Getenv("GAZETTEER_TABLE"))
	if err != nil {
		return err
	}
	lexicon, err := tables.LoadLexicon(os.Getenv("LEXICON_TABLE"))
	if err != nil {
		return err
	}

	normalizer := domain.NewNormalizer(
		domain.NewClassifier(signals, threshold),
		gazetteer,
		domain.NewScorer(lexicon, domain.DefaultSeverityCutpoints()),
	)
	deduper := domain.NewDeduper(domain.DefaultDedupeParams())

	articles, err := readArticles(inPath)
	if err != nil {
		return err
	}

	var events []domain.Event
	rejected := 0
	for _, a := range articles {
		event, err := normalizer.Normalize(a)
		if err != nil {
			if errors.Is(err, domain.ErrNotRelevant) {
				rejected++
				continue
			}
			return fmt.Errorf("normalize %q: %w", a.Title, err)
		}
		events = append(events, event)
	}
	survivors := deduper.DedupeAll(events)

	if err := writeEvents(outPath, survivors); err != nil {
		return err
	}
	fmt.Fprintf(os.Stderr, "%d articles, %d rejected, %d duplicates, %d events\n",
		len(articles), rejected, len(events)-len(survivors), len(survivors))
	return nil
}

func readArticles(path string) ([]domain.RawArticle, error) {
	var r io.Reader = os.Stdin
	if path != "-" {
		f, err := os.Open(path)
		if err != nil {
			return nil, err
		}
		defer f.Close() //nolint:errcheck
		r = f
	}
	var articles []domain.RawArticle
	if err := json.NewDecoder(r).Decode(&articles); err != nil {
		return nil, fmt.Errorf("decode articles: %w", err)
	}
	return articles, nil
}

func writeEvents(path string, events []domain.Event) error {
	var w io.Writer = os.Stdout
	if path != "-" {
		f, err := os.Create(path)
		if err != nil {
			return err
		}
		defer f.Close() //nolint:errcheck
		w = f
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(events)
}
