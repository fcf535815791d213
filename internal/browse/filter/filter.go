// Package filter narrows the essay list by topic path, essay type, audience,
// year and reading time, and computes the counts shown next to each filter
// value.
package filter

import (
	"slices"

	"github.com/Adithya-Monish-Kumar-K/essay-browser/internal/corpus"
)

// Facet names one group of multi-select filters.
type Facet string

const (
	FacetNone      Facet = ""
	FacetTopics    Facet = "topics"
	FacetTypes     Facet = "types"
	FacetAudiences Facet = "audiences"
)

// Criteria is the set of active filters. Empty selections match everything.
// A zero range bound is open: YearMin 0 means no lower year limit.
type Criteria struct {
	TopicPaths [][]string `json:"topic_paths,omitempty"`
	EssayTypes []string   `json:"essay_types,omitempty"`
	Audiences  []string   `json:"audiences,omitempty"`
	YearMin    int        `json:"year_min,omitempty"`
	YearMax    int        `json:"year_max,omitempty"`
	TimeMin    int        `json:"time_min,omitempty"`
	TimeMax    int        `json:"time_max,omitempty"`
}

// IsZero reports whether no filter is active.
func (c Criteria) IsZero() bool {
	return len(c.TopicPaths) == 0 && len(c.EssayTypes) == 0 && len(c.Audiences) == 0 &&
		c.YearMin == 0 && c.YearMax == 0 && c.TimeMin == 0 && c.TimeMax == 0
}

// Matches reports whether e passes every filter.
func (c Criteria) Matches(e corpus.Essay) bool {
	return c.MatchesExcept(e, FacetNone)
}

// MatchesExcept is Matches with one facet's selection ignored. Range
// filters always apply.
func (c Criteria) MatchesExcept(e corpus.Essay, skip Facet) bool {
	if skip != FacetTopics && len(c.TopicPaths) > 0 && !MatchesTopicPaths(e, c.TopicPaths) {
		return false
	}
	if skip != FacetTypes && len(c.EssayTypes) > 0 && !containsAny(e.EssayType, c.EssayTypes) {
		return false
	}
	if skip != FacetAudiences && len(c.Audiences) > 0 && !containsAny(e.Audience, c.Audiences) {
		return false
	}
	return inRange(e.Year, c.YearMin, c.YearMax) && inRange(e.ReadingTime, c.TimeMin, c.TimeMax)
}

// Apply returns the documents matching c, in input order.
func Apply(docs []corpus.Document, c Criteria) []corpus.Document {
	return ApplyExcluding(docs, c, FacetNone)
}

// ApplyExcluding returns the documents matching c with the skip facet
// ignored, in input order.
func ApplyExcluding(docs []corpus.Document, c Criteria, skip Facet) []corpus.Document {
	out := make([]corpus.Document, 0, len(docs))
	for _, d := range docs {
		if c.MatchesExcept(d.Essay, skip) {
			out = append(out, d)
		}
	}
	return out
}

// MatchesTopicPaths reports whether e sits under ANY of paths. A path is
// one of:
//
//	[topic]
//	[topic, item]            item of a subtopic without a category
//	[topic, category]        every item of that category
//	[topic, category, item]
func MatchesTopicPaths(e corpus.Essay, paths [][]string) bool {
	for _, p := range paths {
		if len(p) == 0 {
			continue
		}
		for _, t := range e.Topics {
			if matchesTopicPath(t, p) {
				return true
			}
		}
	}
	return false
}

func matchesTopicPath(t corpus.TopicTag, path []string) bool {
	if t.Topic != path[0] {
		return false
	}
	switch len(path) {
	case 1:
		return true
	case 2:
		for _, s := range t.Subtopics {
			if s.Category == "" && slices.Contains(s.Items, path[1]) {
				return true
			}
			if s.Category != "" && s.Category == path[1] {
				return true
			}
		}
		return false
	default:
		for _, s := range t.Subtopics {
			if s.Category == path[1] && slices.Contains(s.Items, path[2]) {
				return true
			}
		}
		return false
	}
}

func containsAny(have, want []string) bool {
	for _, w := range want {
		if slices.Contains(have, w) {
			return true
		}
	}
	return false
}

func inRange(v, lo, hi int) bool {
	if lo != 0 && v < lo {
		return false
	}
	if hi != 0 && v > hi {
		return false
	}
	return true
}
