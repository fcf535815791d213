// Package engine answers search queries against a built index. It narrows a
// document pool to the documents that can match (Candidates) and scores each
// one with TF-IDF (Score); Search does both and keeps the positive scores.
package engine

import (
	"log/slog"

	"github.com/Adithya-Monish-Kumar-K/essay-browser/internal/corpus"
	"github.com/Adithya-Monish-Kumar-K/essay-browser/internal/indexer/index"
	"github.com/Adithya-Monish-Kumar-K/essay-browser/internal/indexer/tokenizer"
	"github.com/Adithya-Monish-Kumar-K/essay-browser/internal/searcher/ranker"
)

// Match is a document that scored above zero for a query.
type Match struct {
	Doc   corpus.Document
	Score float64
}

// Engine is read-only after New and safe for concurrent use.
type Engine struct {
	idx         *index.Index
	titleWeight float64
	logger      *slog.Logger
}

type Option func(*Engine)

// WithTitleWeight overrides ranker.DefaultTitleWeight. Non-positive values
// are ignored.
func WithTitleWeight(w float64) Option {
	return func(e *Engine) {
		if w > 0 {
			e.titleWeight = w
		}
	}
}

func New(idx *index.Index, opts ...Option) *Engine {
	e := &Engine{
		idx:         idx,
		titleWeight: ranker.DefaultTitleWeight,
		logger:      slog.Default().With("component", "query-engine"),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Index returns the index the engine reads from.
func (e *Engine) Index() *index.Index {
	return e.idx
}

// TitleWeight returns the multiplier applied to title subscores.
func (e *Engine) TitleWeight() float64 {
	return e.titleWeight
}

// Candidates returns the documents of pool that contain at least one query
// term, in pool order. A query with no terms has no candidates.
func (e *Engine) Candidates(query string, pool []corpus.Document) []corpus.Document {
	return e.candidates(tokenizer.Tokenize(query), pool)
}

func (e *Engine) candidates(terms []string, pool []corpus.Document) []corpus.Document {
	out := make([]corpus.Document, 0)
	if len(terms) == 0 || len(pool) == 0 {
		return out
	}
	ids := unionPostings(e.idx, terms)
	if len(ids) == 0 {
		return out
	}
	for _, d := range pool {
		if _, ok := ids[d.ID]; ok {
			out = append(out, d)
		}
	}
	return out
}

// Score returns the TF-IDF relevance of doc for query. A score of zero or
// less means the document should not be shown for this query; terms found in
// every document carry negative weight and can pull a score below zero.
func (e *Engine) Score(query string, doc corpus.Document) float64 {
	return e.score(tokenizer.Tokenize(query), doc)
}

func (e *Engine) score(terms []string, doc corpus.Document) float64 {
	if len(terms) == 0 {
		return 0
	}
	var body []string
	if doc.HasBody() {
		body = tokenizer.Tokenize(doc.BodyText())
	}
	return ranker.Score(terms, tokenizer.Tokenize(doc.Title), body, e.idx.IDF, e.titleWeight)
}

// Search scores the candidates of pool and returns those with a positive
// score, in pool order. The query is tokenized once.
func (e *Engine) Search(query string, pool []corpus.Document) []Match {
	terms := tokenizer.Tokenize(query)
	candidates := e.candidates(terms, pool)
	matches := make([]Match, 0, len(candidates))
	for _, d := range candidates {
		if s := e.score(terms, d); s > 0 {
			matches = append(matches, Match{Doc: d, Score: s})
		}
	}
	e.logger.Debug("query executed",
		"query", query,
		"terms", terms,
		"pool", len(pool),
		"candidates", len(candidates),
		"results", len(matches),
	)
	return matches
}

func unionPostings(idx *index.Index, terms []string) map[corpus.ID]struct{} {
	result := make(map[corpus.ID]struct{})
	for _, term := range terms {
		for _, id := range idx.Postings(term) {
			result[id] = struct{}{}
		}
	}
	return result
}
