// Package browse evaluates one view of the essay list: filters, then the
// search query, then the sort, plus the facet counts for the filter panel.
package browse

import (
	"strings"

	"github.com/Adithya-Monish-Kumar-K/essay-browser/internal/browse/filter"
	"github.com/Adithya-Monish-Kumar-K/essay-browser/internal/browse/sorter"
	"github.com/Adithya-Monish-Kumar-K/essay-browser/internal/corpus"
	"github.com/Adithya-Monish-Kumar-K/essay-browser/internal/searcher/engine"
)

// Request describes the view to compute. Limit <= 0 returns every hit.
type Request struct {
	Query      string          `json:"query"`
	Criteria   filter.Criteria `json:"criteria"`
	Order      sorter.Order    `json:"order"`
	Limit      int             `json:"limit,omitempty"`
	WithFacets bool            `json:"with_facets,omitempty"`
}

// HasQuery reports whether the query contains anything but whitespace.
func (r Request) HasQuery() bool {
	return strings.TrimSpace(r.Query) != ""
}

// Hit is one essay in the result list. Score is set only while a search is
// active.
type Hit struct {
	corpus.Essay
	Score float64 `json:"score,omitempty"`
}

type Result struct {
	Query  string         `json:"query"`
	Order  sorter.Order   `json:"order"`
	Total  int            `json:"total"`
	Essays []Hit          `json:"essays"`
	Facets *filter.Counts `json:"facets,omitempty"`
}

// Run filters docs by req.Criteria, narrows them to positive-scoring search
// matches when a query is present, sorts them and truncates to req.Limit.
// Total counts hits before truncation.
func Run(eng *engine.Engine, docs []corpus.Document, req Request) Result {
	if req.Order.Primary == "" {
		req.Order = sorter.DefaultOrder()
	}
	pool := filter.Apply(docs, req.Criteria)

	hasQuery := req.HasQuery()
	var matches []engine.Match
	if hasQuery {
		matches = eng.Search(req.Query, pool)
	} else {
		matches = make([]engine.Match, len(pool))
		for i, d := range pool {
			matches[i] = engine.Match{Doc: d}
		}
	}
	sorter.Sort(matches, req.Order, hasQuery)

	res := Result{
		Query: req.Query,
		Order: req.Order,
		Total: len(matches),
	}
	if req.Limit > 0 && len(matches) > req.Limit {
		matches = matches[:req.Limit]
	}
	res.Essays = make([]Hit, len(matches))
	for i, m := range matches {
		res.Essays[i] = Hit{Essay: m.Doc.Essay, Score: m.Score}
	}
	if req.WithFacets {
		counts := Facets(eng, docs, req)
		res.Facets = &counts
	}
	return res
}

// Facets computes the filter-panel counts for req. The search, when
// present, narrows every facet.
func Facets(eng *engine.Engine, docs []corpus.Document, req Request) filter.Counts {
	var search filter.SearchFunc
	if req.HasQuery() {
		search = func(pool []corpus.Document) []corpus.Document {
			matches := eng.Search(req.Query, pool)
			out := make([]corpus.Document, len(matches))
			for i, m := range matches {
				out[i] = m.Doc
			}
			return out
		}
	}
	return filter.Facets(docs, req.Criteria, search)
}
