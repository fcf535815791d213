// Package indexer turns a corpus source into a searchable snapshot: it loads
// the essays, builds the index and query engine, and publishes the result
// for readers. A rebuild produces a new snapshot and swaps it in atomically;
// readers holding the old one keep a consistent view until they finish.
package indexer

import (
	"context"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/Adithya-Monish-Kumar-K/essay-browser/internal/analytics"
	"github.com/Adithya-Monish-Kumar-K/essay-browser/internal/browse/filter"
	"github.com/Adithya-Monish-Kumar-K/essay-browser/internal/corpus"
	"github.com/Adithya-Monish-Kumar-K/essay-browser/internal/indexer/index"
	"github.com/Adithya-Monish-Kumar-K/essay-browser/internal/searcher/engine"
	apperrors "github.com/Adithya-Monish-Kumar-K/essay-browser/pkg/errors"
	"github.com/Adithya-Monish-Kumar-K/essay-browser/pkg/metrics"
)

// Snapshot is one immutable generation of the searchable corpus.
type Snapshot struct {
	Generation  uint64
	Source      string
	Engine      *engine.Engine
	Corpus      *corpus.Corpus
	Bounds      filter.DataBounds
	CorpusStats corpus.Stats
	IndexStats  index.Stats
	BuiltAt     time.Time
}

// Docs returns the documents in corpus order.
func (s *Snapshot) Docs() []corpus.Document {
	return s.Corpus.Documents()
}

// IndexTracker receives an event per successful build.
type IndexTracker interface {
	TrackIndex(e analytics.IndexEvent)
}

type Builder struct {
	source      corpus.Source
	sourceName  string
	loadTimeout time.Duration
	engineOpts  []engine.Option
	metrics     *metrics.Metrics
	tracker     IndexTracker
	current     atomic.Pointer[Snapshot]
	generation  atomic.Uint64
	logger      *slog.Logger
}

type Option func(*Builder)

// WithEngineOptions passes options to every engine the builder creates.
func WithEngineOptions(opts ...engine.Option) Option {
	return func(b *Builder) { b.engineOpts = append(b.engineOpts, opts...) }
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(b *Builder) { b.metrics = m }
}

func WithTracker(t IndexTracker) Option {
	return func(b *Builder) { b.tracker = t }
}

// NewBuilder creates a builder reading from src. sourceName labels logs and
// events.
func NewBuilder(src corpus.Source, sourceName string, loadTimeout time.Duration, opts ...Option) *Builder {
	b := &Builder{
		source:      src,
		sourceName:  sourceName,
		loadTimeout: loadTimeout,
		logger:      slog.Default().With("component", "indexer", "source", sourceName),
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Rebuild loads the corpus, builds a new snapshot and makes it current. On
// failure the previous snapshot, if any, stays current.
func (b *Builder) Rebuild(ctx context.Context) (*Snapshot, error) {
	c, cstats, err := corpus.Load(ctx, b.source, b.loadTimeout)
	if err != nil {
		b.countLoad("error")
		b.logger.Error("corpus load failed", "error", err)
		return nil, err
	}
	b.countLoad("ok")

	snap := b.snapshot(c, cstats)
	prev := b.current.Swap(snap)

	if b.metrics != nil {
		b.metrics.IndexBuildDuration.Observe(snap.IndexStats.BuildTime.Seconds())
		b.metrics.IndexedDocuments.Set(float64(snap.IndexStats.Documents))
		b.metrics.IndexTerms.Set(float64(snap.IndexStats.Terms))
	}
	if b.tracker != nil {
		b.tracker.TrackIndex(analytics.IndexEvent{
			Source:    b.sourceName,
			Documents: snap.IndexStats.Documents,
			Terms:     snap.IndexStats.Terms,
			Tokens:    snap.IndexStats.Tokens,
			BuildMs:   snap.IndexStats.BuildTime.Milliseconds(),
			Timestamp: snap.BuiltAt,
		})
	}
	attrs := []any{
		"generation", snap.Generation,
		"essays", cstats.Essays,
		"terms", snap.IndexStats.Terms,
	}
	if prev != nil {
		attrs = append(attrs, "replaced_generation", prev.Generation)
	}
	b.logger.Info("search snapshot published", attrs...)
	return snap, nil
}

// FromCorpus builds and publishes a snapshot from an already loaded corpus.
func (b *Builder) FromCorpus(c *corpus.Corpus) *Snapshot {
	snap := b.snapshot(c, corpus.Stats{Essays: c.Len()})
	b.current.Store(snap)
	return snap
}

func (b *Builder) snapshot(c *corpus.Corpus, cstats corpus.Stats) *Snapshot {
	idx := index.Build(c.Documents())
	return &Snapshot{
		Generation:  b.generation.Add(1),
		Source:      b.sourceName,
		Engine:      engine.New(idx, b.engineOpts...),
		Corpus:      c,
		Bounds:      filter.Bounds(c.Documents()),
		CorpusStats: cstats,
		IndexStats:  idx.Stats(),
		BuiltAt:     time.Now().UTC(),
	}
}

// Current returns the live snapshot, or ErrIndexNotReady before the first
// successful build.
func (b *Builder) Current() (*Snapshot, error) {
	snap := b.current.Load()
	if snap == nil {
		return nil, fmt.Errorf("%w: no corpus loaded from %s yet", apperrors.ErrIndexNotReady, b.sourceName)
	}
	return snap, nil
}

// Ready reports readiness for health checks.
func (b *Builder) Ready() (bool, string) {
	snap := b.current.Load()
	if snap == nil {
		return false, "index not built"
	}
	return true, fmt.Sprintf("generation %d: %d essays, %d terms",
		snap.Generation, snap.IndexStats.Documents, snap.IndexStats.Terms)
}

func (b *Builder) countLoad(status string) {
	if b.metrics != nil {
		b.metrics.CorpusLoadsTotal.WithLabelValues(status).Inc()
	}
}
