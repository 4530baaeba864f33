package domain

import (
	"fmt"
	"math"
	"sort"
	"strings"
)

// City is one gazetteer entry mapping a place name to coordinates.
type City struct {
	Name    string   `yaml:"name"`
	Country string   `yaml:"country"`
	Region  string   `yaml:"region,omitempty"`
	Point   GeoPoint `yaml:"point"`
}

// Country maps a country name (plus aliases such as adjectives or former
// names) to its representative centroid.
type Country struct {
	Name     string   `yaml:"name"`
	Aliases  []string `yaml:"aliases,omitempty"`
	Centroid GeoPoint `yaml:"centroid"`
}

// ResolvedLocation is the outcome of location resolution for an article.
// Point is nil exactly when Method is unresolved.
type ResolvedLocation struct {
	Point      *GeoPoint
	Method     CoordinateMethod
	Confidence float64
	Country    string
	Region     string
	Place      string
}

// RepairResult is the outcome of validating/repairing stored coordinates.
type RepairResult struct {
	Point      *GeoPoint
	Method     CoordinateMethod
	Confidence float64
	Changed    bool
}

// placeEntry is a precomputed lower-cased search term. Entries are scanned
// longest-first so "gaza city" wins over "gaza" when both are present.
type placeEntry struct {
	term string
	idx  int
}

// Gazetteer resolves article text to coordinates and repairs stored ones.
// It is immutable after construction and safe for concurrent use.
type Gazetteer struct {
	cities    []City
	countries []Country

	cityEntries    []placeEntry // longest-first over city names
	countryEntries []placeEntry // longest-first over country names and aliases
	countryByName  map[string]int
}

// NewGazetteer builds the lookup structures. Scan order is length
// descending, then term ascending, which fixes ambiguity resolution
// deterministically ("Gaza City" before "Gaza").
func NewGazetteer(cities []City, countries []Country) *Gazetteer {
	g := &Gazetteer{
		cities:        cities,
		countries:     countries,
		countryByName: make(map[string]int, len(countries)),
	}

	g.cityEntries = make([]placeEntry, 0, len(cities))
	for i, c := range cities {
		g.cityEntries = append(g.cityEntries, placeEntry{term: strings.ToLower(c.Name), idx: i})
	}
	sortLongestFirst(g.cityEntries)

	for i, c := range countries {
		g.countryEntries = append(g.countryEntries, placeEntry{term: strings.ToLower(c.Name), idx: i})
		g.countryByName[strings.ToLower(c.Name)] = i
		for _, alias := range c.Aliases {
			g.countryEntries = append(g.countryEntries, placeEntry{term: strings.ToLower(alias), idx: i})
			g.countryByName[strings.ToLower(alias)] = i
		}
	}
	sortLongestFirst(g.countryEntries)

	return g
}

func sortLongestFirst(entries []placeEntry) {
	sort.Slice(entries, func(i, j int) bool {
		if len(entries[i].term) != len(entries[j].term) {
			return len(entries[i].term) > len(entries[j].term)
		}
		return entries[i].term < entries[j].term
	})
}

// Resolve extracts the most specific place mentioned in the article's text.
// Preference order: gazetteer city in text (exact_city), country or region
// name in text (keyword_match), the article's free-text country hint mapped
// through the centroid table (country_centroid), else unresolved.
func (g *Gazetteer) Resolve(article RawArticle) ResolvedLocation {
	text := strings.ToLower(article.Title + " " + article.Summary)

	for _, e := range g.cityEntries {
		if !containsTerm(text, e.term) {
			continue
		}
		city := g.cities[e.idx]
		point := city.Point
		return ResolvedLocation{
			Point:      &point,
			Method:     MethodExactCity,
			Confidence: MethodExactCity.Confidence(),
			Country:    city.Country,
			Region:     city.Region,
			Place:      city.Name,
		}
	}

	for _, e := range g.countryEntries {
		if !containsTerm(text, e.term) {
			continue
		}
		country := g.countries[e.idx]
		point := country.Centroid
		return ResolvedLocation{
			Point:      &point,
			Method:     MethodKeywordMatch,
			Confidence: MethodKeywordMatch.Confidence(),
			Country:    country.Name,
			Place:      country.Name,
		}
	}

	if country, ok := g.lookupCountry(article.Country); ok {
		point := country.Centroid
		return ResolvedLocation{
			Point:      &point,
			Method:     MethodCountryCentroid,
			Confidence: MethodCountryCentroid.Confidence(),
			Country:    country.Name,
			Place:      country.Name,
		}
	}

	return ResolvedLocation{Method: MethodUnresolved}
}

// lookupCountry maps a free-text country hint to a gazetteer country.
func (g *Gazetteer) lookupCountry(name string) (Country, bool) {
	i, ok := g.countryByName[strings.ToLower(strings.TrimSpace(name))]
	if !ok {
		return Country{}, false
	}
	return g.countries[i], true
}

// Repair validates stored coordinates and recovers from the known corruption
// modes: swapped axes, null island, out-of-range values, and unvalidated
// legacy points. A detected failure re-runs extraction against the stored
// text, falling back to the country centroid. Repair is idempotent: a clean
// event (including one already repaired) reports Changed=false.
func (g *Gazetteer) Repair(e Event) RepairResult {
	// An exact_city point that still validates is never touched.
	if e.CoordinateMethod == MethodExactCity && e.Location != nil && e.Location.Valid() {
		return unchanged(e)
	}

	if e.Location != nil && e.Location.Valid() && !looksSwapped(*e.Location) && !g.reversedCentroid(e) {
		if knownMethod(e.CoordinateMethod) {
			return unchanged(e)
		}
		// Valid point of unknown provenance: keep it, label it.
		point := *e.Location
		return RepairResult{
			Point:      &point,
			Method:     MethodExistingValid,
			Confidence: MethodExistingValid.Confidence(),
			Changed:    true,
		}
	}

	res := g.Resolve(RawArticle{Title: e.Title, Summary: e.Summary, Country: e.Country})
	return RepairResult{
		Point:      res.Point,
		Method:     res.Method,
		Confidence: res.Confidence,
		Changed:    locationDiffers(e, res.Point, res.Method),
	}
}

// Reextract upgrades an event's location by re-running text extraction only.
// Used for country-centroid collapse, where the stored point is "valid" but
// every event in the country shares it. Only a city-level hit changes
// anything; otherwise the stored location is kept as-is.
func (g *Gazetteer) Reextract(e Event) RepairResult {
	res := g.Resolve(RawArticle{Title: e.Title, Summary: e.Summary})
	if res.Method != MethodExactCity {
		return unchanged(e)
	}
	return RepairResult{
		Point:      res.Point,
		Method:     res.Method,
		Confidence: res.Confidence,
		Changed:    locationDiffers(e, res.Point, res.Method),
	}
}

// CollapsedCountries detects country-centroid collapse: within one country,
// minGroup or more events with valid coordinates all sharing a single
// distinct coordinate pair. Returns the affected country names, sorted.
func CollapsedCountries(events []Event, minGroup int) []string {
	if minGroup <= 0 {
		minGroup = 5
	}
	type group struct {
		count int
		pairs map[string]bool
	}
	groups := map[string]*group{}
	for _, e := range events {
		if e.Country == "" || e.Location == nil || !e.Location.Valid() {
			continue
		}
		gr, ok := groups[e.Country]
		if !ok {
			gr = &group{pairs: map[string]bool{}}
			groups[e.Country] = gr
		}
		gr.count++
		gr.pairs[fmt.Sprintf("%.4f,%.4f", e.Location.Lat, e.Location.Lon)] = true
	}

	var collapsed []string
	for country, gr := range groups {
		if gr.count >= minGroup && len(gr.pairs) == 1 {
			collapsed = append(collapsed, country)
		}
	}
	sort.Strings(collapsed)
	return collapsed
}

// looksSwapped is the historical axis-swap heuristic: a magnitude beyond
// latitude's legal range sitting in the longitude slot while the latitude
// slot stays plausible. Known-imprecise near the antimeridian and for
// longitudes legitimately east of 90°E; repair re-extracts rather than
// blindly swapping, so a misfire costs a lookup, not a corruption.
func looksSwapped(p GeoPoint) bool {
	return math.Abs(p.Lon) > 90 && math.Abs(p.Lat) <= 180
}

// reversedCentroid reports whether the stored pair equals the country
// centroid with the axes exchanged, the fingerprint of an upstream importer
// writing (lon, lat) order.
func (g *Gazetteer) reversedCentroid(e Event) bool {
	country, ok := g.lookupCountry(e.Country)
	if !ok || e.Location == nil {
		return false
	}
	if country.Centroid.Lat == country.Centroid.Lon {
		return false
	}
	const tol = 0.001
	return math.Abs(e.Location.Lat-country.Centroid.Lon) <= tol &&
		math.Abs(e.Location.Lon-country.Centroid.Lat) <= tol
}

func knownMethod(m CoordinateMethod) bool {
	switch m {
	case MethodExactCity, MethodExistingValid, MethodKeywordMatch, MethodCountryCentroid:
		return true
	default:
		return false
	}
}

func unchanged(e Event) RepairResult {
	return RepairResult{
		Point:      e.Location,
		Method:     e.CoordinateMethod,
		Confidence: e.CoordinateConfidence,
		Changed:    false,
	}
}

func locationDiffers(e Event, point *GeoPoint, method CoordinateMethod) bool {
	if e.CoordinateMethod != method {
		return true
	}
	if (e.Location == nil) != (point == nil) {
		return true
	}
	if e.Location == nil {
		return false
	}
	return *e.Location != *point
}
