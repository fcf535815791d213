// Package handler serves the essay browser over HTTP: the filtered, searched
// and sorted essay list, the facet counts and topic tree behind the filter
// panel, and cache and index administration.
package handler

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/Adithya-Monish-Kumar-K/essay-browser/internal/analytics"
	"github.com/Adithya-Monish-Kumar-K/essay-browser/internal/browse"
	"github.com/Adithya-Monish-Kumar-K/essay-browser/internal/browse/filter"
	"github.com/Adithya-Monish-Kumar-K/essay-browser/internal/corpus"
	"github.com/Adithya-Monish-Kumar-K/essay-browser/internal/indexer"
	"github.com/Adithya-Monish-Kumar-K/essay-browser/internal/indexer/index"
	"github.com/Adithya-Monish-Kumar-K/essay-browser/internal/indexer/tokenizer"
	"github.com/Adithya-Monish-Kumar-K/essay-browser/internal/searcher/cache"
	apperrors "github.com/Adithya-Monish-Kumar-K/essay-browser/pkg/errors"
	"github.com/Adithya-Monish-Kumar-K/essay-browser/pkg/logger"
	"github.com/Adithya-Monish-Kumar-K/essay-browser/pkg/metrics"
	"github.com/Adithya-Monish-Kumar-K/essay-browser/pkg/middleware"
	"github.com/Adithya-Monish-Kumar-K/essay-browser/pkg/tracing"
)

// Snapshots supplies the live index and rebuilds it on demand.
type Snapshots interface {
	Current() (*indexer.Snapshot, error)
	Rebuild(ctx context.Context) (*indexer.Snapshot, error)
}

// SearchTracker receives an analytics event per evaluated view.
type SearchTracker interface {
	TrackSearch(e analytics.SearchEvent)
}

type Handler struct {
	snapshots    Snapshots
	cache        *cache.QueryCache
	tracker      SearchTracker
	metrics      *metrics.Metrics
	tracer       *tracing.Tracer
	order        filter.DisplayOrder
	defaultLimit int
	maxResults   int
	admin        func(http.Handler) http.Handler
	logger       *slog.Logger
}

type Option func(*Handler)

func WithCache(c *cache.QueryCache) Option {
	return func(h *Handler) { h.cache = c }
}

func WithTracker(t SearchTracker) Option {
	return func(h *Handler) { h.tracker = t }
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(h *Handler) { h.metrics = m }
}

func WithTracer(t *tracing.Tracer) Option {
	return func(h *Handler) { h.tracer = t }
}

// WithDisplayOrder sets the custom topic and audience ordering used by the
// topics endpoint.
func WithDisplayOrder(o filter.DisplayOrder) Option {
	return func(h *Handler) { h.order = o }
}

// WithAdminGuard wraps the rebuild and cache invalidation endpoints.
func WithAdminGuard(mw func(http.Handler) http.Handler) Option {
	return func(h *Handler) { h.admin = mw }
}

func New(snapshots Snapshots, defaultLimit, maxResults int, opts ...Option) *Handler {
	h := &Handler{
		snapshots:    snapshots,
		cache:        cache.New(nil, 0),
		order:        filter.DefaultDisplayOrder(),
		defaultLimit: defaultLimit,
		maxResults:   maxResults,
		logger:       slog.Default().With("component", "essay-handler"),
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Routes registers every endpoint on mux.
func (h *Handler) Routes(mux *http.ServeMux) {
	mux.HandleFunc("GET /api/v1/essays", h.Essays)
	mux.HandleFunc("GET /api/v1/essays/{id}", h.Essay)
	mux.HandleFunc("GET /api/v1/facets", h.Facets)
	mux.HandleFunc("GET /api/v1/bounds", h.Bounds)
	mux.HandleFunc("GET /api/v1/topics", h.Topics)
	mux.HandleFunc("GET /api/v1/index/stats", h.IndexStats)
	mux.Handle("POST /api/v1/index/rebuild", h.guard(h.Rebuild))
	mux.HandleFunc("GET /api/v1/cache/stats", h.CacheStats)
	mux.Handle("POST /api/v1/cache/invalidate", h.guard(h.CacheInvalidate))
}

func (h *Handler) guard(fn http.HandlerFunc) http.Handler {
	if h.admin == nil {
		return fn
	}
	return h.admin(fn)
}

// Essays handles GET /api/v1/essays.
func (h *Handler) Essays(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	ctx, root := h.tracer.Start(r.Context(), "essays", middleware.GetRequestID(r))
	defer h.tracer.Finish(root)
	log := logger.FromContext(ctx)

	req, err := ParseRequest(r.URL.Query(), h.defaultLimit, h.maxResults)
	if err != nil {
		h.countQuery(metrics.ResultError)
		h.writeError(w, err)
		return
	}
	snap, err := h.snapshots.Current()
	if err != nil {
		h.countQuery(metrics.ResultError)
		h.writeError(w, err)
		return
	}
	root.SetAttr("generation", snap.Generation)

	_, span := tracing.StartChildSpan(ctx, "evaluate")
	result, cacheHit, err := h.cache.GetOrCompute(ctx, snap.Generation, req, func() (browse.Result, error) {
		return browse.Run(snap.Engine, snap.Docs(), req), nil
	})
	span.SetAttr("cache_hit", cacheHit)
	span.End()
	if err != nil {
		log.Error("essay view failed", "query", req.Query, "error", err)
		h.countQuery(metrics.ResultError)
		h.writeError(w, err)
		return
	}

	latency := time.Since(start)
	h.observe(req, result, cacheHit, latency)
	log.Info("essay view served",
		"query", req.Query,
		"total", result.Total,
		"returned", len(result.Essays),
		"sort", result.Order.String(),
		"cache_hit", cacheHit,
		"latency_us", latency.Microseconds(),
	)
	if h.tracker != nil {
		h.tracker.TrackSearch(analytics.SearchEvent{
			Query:     req.Query,
			Terms:     tokenizer.Tokenize(req.Query),
			Filtered:  !req.Criteria.IsZero(),
			Sort:      result.Order.String(),
			TotalHits: result.Total,
			Returned:  len(result.Essays),
			LatencyUs: latency.Microseconds(),
			CacheHit:  cacheHit,
			Timestamp: time.Now().UTC(),
			RequestID: middleware.GetRequestID(r),
		})
	}
	h.writeJSON(w, http.StatusOK, result)
}

type essayResponse struct {
	corpus.Essay
	HasContent bool   `json:"has_content"`
	Content    string `json:"content,omitempty"`
}

// Essay handles GET /api/v1/essays/{id}.
func (h *Handler) Essay(w http.ResponseWriter, r *http.Request) {
	snap, err := h.snapshots.Current()
	if err != nil {
		h.writeError(w, err)
		return
	}
	id := corpus.ID(r.PathValue("id"))
	doc, ok := snap.Corpus.Get(id)
	if !ok {
		h.writeError(w, apperrors.Newf(apperrors.ErrNotFound, http.StatusNotFound, "essay %s not found", id))
		return
	}
	h.writeJSON(w, http.StatusOK, essayResponse{Essay: doc.Essay, HasContent: doc.HasBody(), Content: doc.BodyText()})
}

// Facets handles GET /api/v1/facets: counts per topic key, type and
// audience for the current filters and search.
func (h *Handler) Facets(w http.ResponseWriter, r *http.Request) {
	req, err := ParseRequest(r.URL.Query(), h.defaultLimit, h.maxResults)
	if err != nil {
		h.writeError(w, err)
		return
	}
	snap, err := h.snapshots.Current()
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, browse.Facets(snap.Engine, snap.Docs(), req))
}

// Bounds handles GET /api/v1/bounds: the year and reading-time range of the
// corpus, for the range sliders.
func (h *Handler) Bounds(w http.ResponseWriter, r *http.Request) {
	snap, err := h.snapshots.Current()
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, snap.Bounds)
}

type topicsResponse struct {
	Topics    []filter.Node `json:"topics"`
	Types     []filter.Node `json:"types"`
	Audiences []filter.Node `json:"audiences"`
}

// Topics handles GET /api/v1/topics: the topic tree and the type and
// audience lists with essay counts over the whole corpus.
func (h *Handler) Topics(w http.ResponseWriter, r *http.Request) {
	snap, err := h.snapshots.Current()
	if err != nil {
		h.writeError(w, err)
		return
	}
	docs := snap.Docs()
	h.writeJSON(w, http.StatusOK, topicsResponse{
		Topics:    filter.Hierarchy(docs, h.order),
		Types:     filter.EssayTypes(docs),
		Audiences: filter.Audiences(docs, h.order),
	})
}

type indexStatsResponse struct {
	Generation uint64       `json:"generation"`
	Source     string       `json:"source"`
	BuiltAt    time.Time    `json:"built_at"`
	Index      index.Stats  `json:"index"`
	Corpus     corpus.Stats `json:"corpus"`
}

// IndexStats handles GET /api/v1/index/stats.
func (h *Handler) IndexStats(w http.ResponseWriter, r *http.Request) {
	snap, err := h.snapshots.Current()
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, statsOf(snap))
}

// Rebuild handles POST /api/v1/index/rebuild: reload the corpus, swap in a
// new index and drop cached views.
func (h *Handler) Rebuild(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContext(r.Context())
	snap, err := h.snapshots.Rebuild(r.Context())
	if err != nil {
		log.Error("index rebuild failed", "error", err)
		h.writeError(w, err)
		return
	}
	if _, err := h.cache.Invalidate(r.Context()); err != nil {
		log.Warn("cache invalidation after rebuild failed", "error", err)
	}
	h.writeJSON(w, http.StatusOK, statsOf(snap))
}

func statsOf(snap *indexer.Snapshot) indexStatsResponse {
	return indexStatsResponse{
		Generation: snap.Generation,
		Source:     snap.Source,
		BuiltAt:    snap.BuiltAt,
		Index:      snap.IndexStats,
		Corpus:     snap.CorpusStats,
	}
}

// CacheStats handles GET /api/v1/cache/stats.
func (h *Handler) CacheStats(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, http.StatusOK, h.cache.Stats(r.Context()))
}

// CacheInvalidate handles POST /api/v1/cache/invalidate.
func (h *Handler) CacheInvalidate(w http.ResponseWriter, r *http.Request) {
	if !h.cache.Enabled() {
		h.writeError(w, apperrors.New(apperrors.ErrInvalidInput, http.StatusServiceUnavailable, "caching is disabled"))
		return
	}
	deleted, err := h.cache.Invalidate(r.Context())
	if err != nil {
		h.logger.Error("cache invalidation failed", "error", err)
		h.writeError(w, apperrors.New(apperrors.ErrInternal, http.StatusInternalServerError, "cache invalidation failed"))
		return
	}
	h.writeJSON(w, http.StatusOK, map[string]any{"status": "invalidated", "keys_deleted": deleted})
}

func (h *Handler) observe(req browse.Request, res browse.Result, cacheHit bool, latency time.Duration) {
	if h.metrics == nil {
		return
	}
	resultType := metrics.ResultBrowse
	if req.HasQuery() {
		resultType = metrics.ResultHit
		if res.Total == 0 {
			resultType = metrics.ResultZero
		}
	}
	cacheStatus := metrics.CacheStatusNone
	if h.cache.Enabled() {
		cacheStatus = metrics.CacheStatusMiss
		if cacheHit {
			cacheStatus = metrics.CacheStatusHit
		}
	}
	h.metrics.SearchQueriesTotal.WithLabelValues(resultType).Inc()
	h.metrics.SearchLatency.WithLabelValues(cacheStatus).Observe(latency.Seconds())
	h.metrics.SearchResultsCount.Observe(float64(res.Total))
}

func (h *Handler) countQuery(resultType string) {
	if h.metrics != nil {
		h.metrics.SearchQueriesTotal.WithLabelValues(resultType).Inc()
	}
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.logger.Error("failed to write response", "error", err)
	}
}

// writeError maps err to its HTTP status. Only client-facing messages are
// exposed; 5xx errors other than AppErrors are reported generically.
func (h *Handler) writeError(w http.ResponseWriter, err error) {
	status := apperrors.HTTPStatusCode(err)
	message := apperrors.Message(err)
	if status == http.StatusInternalServerError {
		h.logger.Error("request failed", "error", err)
		message = "internal error"
	}
	h.writeJSON(w, status, map[string]string{"error": message})
}
