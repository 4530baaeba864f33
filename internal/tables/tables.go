// Package tables loads the classification, gazetteer, and escalation lookup
// tables. The tables are data, not code: defaults ship embedded, and each
// can be overridden with an external YAML file so operators tune weights
// without touching algorithm logic.
package tables

import (
	"embed"
	"fmt"
	"os"

	"github.com/couchcryptid/osint-event-etl/internal/domain"
	"gopkg.in/yaml.v3"
)

//go:embed signals.yaml gazetteer.yaml lexicon.yaml
var defaults embed.FS

// LoadSignals returns the relevance signal table from path, or the embedded
// default when path is empty.
func LoadSignals(path string) (domain.SignalTable, error) {
	data, err := read(path, "signals.yaml")
	if err != nil {
		return domain.SignalTable{}, err
	}
	var table domain.SignalTable
	if err := yaml.Unmarshal(data, &table); err != nil {
		return domain.SignalTable{}, fmt.Errorf("parse signal table: %w", err)
	}
	if len(table.Positive) == 0 {
		return domain.SignalTable{}, fmt.Errorf("signal table has no positive signals")
	}
	return table, nil
}

type gazetteerFile struct {
	Countries []domain.Country `yaml:"countries"`
	Cities    []domain.City    `yaml:"cities"`
}

// LoadGazetteer returns a gazetteer built from path, or the embedded default
// when path is empty.
func LoadGazetteer(path string) (*domain.Gazetteer, error) {
	data, err := read(path, "gazetteer.yaml")
	if err != nil {
		return nil, err
	}
	var file gazetteerFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("parse gazetteer: %w", err)
	}
	if len(file.Countries) == 0 {
		return nil, fmt.Errorf("gazetteer has no countries")
	}
	return domain.NewGazetteer(file.Cities, file.Countries), nil
}

type lexiconFile struct {
	Terms []domain.LexiconEntry `yaml:"terms"`
}

// LoadLexicon returns the escalation lexicon from path, or the embedded
// default when path is empty.
func LoadLexicon(path string) ([]domain.LexiconEntry, error) {
	data, err := read(path, "lexicon.yaml")
	if err != nil {
		return nil, err
	}
	var file lexiconFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("parse lexicon: %w", err)
	}
	if len(file.Terms) == 0 {
		return nil, fmt.Errorf("lexicon has no terms")
	}
	return file.Terms, nil
}

func read(path, embedded string) ([]byte, error) {
	if path == "" {
		return defaults.ReadFile(embedded)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read table %s: %w", path, err)
	}
	return data, nil
}
