// Package session keeps the interactive browse state of one user (query,
// filters, sort) and re-evaluates the view as it changes. Typed queries go
// through a debouncer so a burst of keystrokes costs one evaluation.
package session

import (
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/Adithya-Monish-Kumar-K/essay-browser/internal/browse"
	"github.com/Adithya-Monish-Kumar-K/essay-browser/internal/browse/filter"
	"github.com/Adithya-Monish-Kumar-K/essay-browser/internal/browse/sorter"
	"github.com/Adithya-Monish-Kumar-K/essay-browser/internal/corpus"
	"github.com/Adithya-Monish-Kumar-K/essay-browser/internal/debounce"
	"github.com/Adithya-Monish-Kumar-K/essay-browser/internal/searcher/engine"
)

type Session struct {
	engine *engine.Engine
	docs   []corpus.Document

	mu       sync.Mutex
	query    string
	criteria filter.Criteria
	order    sorter.Order
	limit    int

	debouncer *debounce.Debouncer
	logger    *slog.Logger
}

type Option func(*Session)

// WithDebounce sets the quiet window for Type.
func WithDebounce(window time.Duration) Option {
	return func(s *Session) {
		s.debouncer = debounce.New(window)
	}
}

// WithLimit caps the number of essays in each Result.
func WithLimit(n int) Option {
	return func(s *Session) {
		s.limit = n
	}
}

// New starts a session over docs with no query, no filters and the
// default order.
func New(eng *engine.Engine, docs []corpus.Document, opts ...Option) *Session {
	s := &Session{
		engine:    eng,
		docs:      docs,
		order:     sorter.DefaultOrder(),
		debouncer: debounce.New(debounce.DefaultWindow),
		logger:    slog.Default().With("component", "browse-session"),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// SetQuery replaces the query. A change to a non-blank query drops any sort
// the user picked so relevance ordering takes over.
func (s *Session) SetQuery(q string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	changed := q != s.query
	s.query = q
	if changed && strings.TrimSpace(q) != "" && s.order.UserSelected {
		s.order = sorter.DefaultOrder()
	}
}

func (s *Session) Query() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.query
}

// SetCriteria replaces the filters.
func (s *Session) SetCriteria(c filter.Criteria) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.criteria = c.Clone()
}

// UpdateCriteria applies fn to the filters under the session lock.
func (s *Session) UpdateCriteria(fn func(*filter.Criteria)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	fn(&s.criteria)
}

func (s *Session) Criteria() filter.Criteria {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.criteria.Clone()
}

// SetOrder replaces the sort.
func (s *Session) SetOrder(o sorter.Order) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.order = o
}

// ToggleSort applies a click on a sort key.
func (s *Session) ToggleSort(k sorter.Key) sorter.Order {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.order = s.order.Toggle(k)
	return s.order
}

func (s *Session) Order() sorter.Order {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.order
}

// ResetFilters clears every filter.
func (s *Session) ResetFilters() {
	s.UpdateCriteria(func(c *filter.Criteria) { c.Reset() })
}

// ResetSort returns to the default order.
func (s *Session) ResetSort() {
	s.SetOrder(sorter.DefaultOrder())
}

// Evaluate computes the current view, facets included.
func (s *Session) Evaluate() browse.Result {
	s.mu.Lock()
	req := browse.Request{
		Query:      s.query,
		Criteria:   s.criteria.Clone(),
		Order:      s.order,
		Limit:      s.limit,
		WithFacets: true,
	}
	s.mu.Unlock()

	start := time.Now()
	res := browse.Run(s.engine, s.docs, req)
	s.logger.Debug("view evaluated",
		"query", req.Query,
		"order", req.Order.String(),
		"total", res.Total,
		"duration_ms", time.Since(start).Milliseconds(),
	)
	return res
}

// Type records a keystroke's worth of query text and schedules an
// evaluation once typing has been quiet for the debounce window. Only the
// evaluation for the latest text is delivered.
func (s *Session) Type(q string, deliver func(browse.Result)) {
	s.SetQuery(q)
	s.debouncer.Schedule(func() {
		deliver(s.Evaluate())
	})
}

// Flush runs a pending debounced evaluation immediately. It reports
// whether one was pending.
func (s *Session) Flush() bool {
	return s.debouncer.Flush()
}

// Close cancels any pending evaluation.
func (s *Session) Close() {
	s.debouncer.Stop()
}
