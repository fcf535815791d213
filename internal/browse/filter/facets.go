package filter

import (
	"github.com/Adithya-Monish-Kumar-K/essay-browser/internal/corpus"
)

// TopicKeySep joins the levels of a topic path in facet keys:
// "Startups", "Startups|Getting Started", "Startups|Getting Started|Ideas".
const TopicKeySep = "|"

// DataBounds is the span of years and reading times present in a corpus.
type DataBounds struct {
	YearMin int `json:"year_min"`
	YearMax int `json:"year_max"`
	TimeMin int `json:"time_min"`
	TimeMax int `json:"time_max"`
}

// Bounds returns the year and reading-time span of docs. An empty corpus
// yields all zeros.
func Bounds(docs []corpus.Document) DataBounds {
	if len(docs) == 0 {
		return DataBounds{}
	}
	b := DataBounds{
		YearMin: docs[0].Year, YearMax: docs[0].Year,
		TimeMin: docs[0].ReadingTime, TimeMax: docs[0].ReadingTime,
	}
	for _, d := range docs[1:] {
		b.YearMin = min(b.YearMin, d.Year)
		b.YearMax = max(b.YearMax, d.Year)
		b.TimeMin = min(b.TimeMin, d.ReadingTime)
		b.TimeMax = max(b.TimeMax, d.ReadingTime)
	}
	return b
}

// Counts holds the number of essays behind each selectable filter value.
type Counts struct {
	Topics    map[string]int `json:"topics"`
	Types     map[string]int `json:"types"`
	Audiences map[string]int `json:"audiences"`
}

// SearchFunc narrows a pool to the documents matching the active query. A
// nil SearchFunc means no query is active.
type SearchFunc func(pool []corpus.Document) []corpus.Document

// Facets counts, for every filter value, the essays that would remain if
// that value's own facet were cleared while all other filters and the
// search stay applied. Each essay counts at most once per key.
func Facets(docs []corpus.Document, c Criteria, search SearchFunc) Counts {
	narrow := func(skip Facet) []corpus.Document {
		pool := ApplyExcluding(docs, c, skip)
		if search != nil {
			pool = search(pool)
		}
		return pool
	}

	counts := Counts{
		Topics:    make(map[string]int),
		Types:     make(map[string]int),
		Audiences: make(map[string]int),
	}
	for _, d := range narrow(FacetTopics) {
		for _, key := range TopicKeys(d.Essay) {
			counts.Topics[key]++
		}
	}
	for _, d := range narrow(FacetTypes) {
		for _, t := range dedupe(d.EssayType) {
			counts.Types[t]++
		}
	}
	for _, d := range narrow(FacetAudiences) {
		for _, a := range dedupe(d.Audience) {
			counts.Audiences[a]++
		}
	}
	return counts
}

// TopicKeys returns every facet key e falls under, each once.
func TopicKeys(e corpus.Essay) []string {
	var keys []string
	seen := make(map[string]struct{})
	add := func(k string) {
		if _, ok := seen[k]; !ok {
			seen[k] = struct{}{}
			keys = append(keys, k)
		}
	}
	for _, t := range e.Topics {
		add(t.Topic)
		for _, s := range t.Subtopics {
			if s.Category != "" {
				cat := t.Topic + TopicKeySep + s.Category
				add(cat)
				for _, item := range s.Items {
					add(cat + TopicKeySep + item)
				}
				continue
			}
			for _, item := range s.Items {
				add(t.Topic + TopicKeySep + item)
			}
		}
	}
	return keys
}

func dedupe(values []string) []string {
	if len(values) < 2 {
		return values
	}
	out := make([]string, 0, len(values))
	seen := make(map[string]struct{}, len(values))
	for _, v := range values {
		if _, ok := seen[v]; !ok {
			seen[v] = struct{}{}
			out = append(out, v)
		}
	}
	return out
}
