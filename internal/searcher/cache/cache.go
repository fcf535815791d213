// Package cache stores evaluated essay views in Redis keyed by a normalized
// request, coalescing identical concurrent misses with singleflight. Redis
// calls run behind a circuit breaker; when it is open, or no store is
// configured, requests are computed directly.
package cache

import (
	"context"
	"crypto/sha256"
	"encoding/json"
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"sync/atomic"
	"time"

	"github.com/Adithya-Monish-Kumar-K/essay-browser/internal/browse"
	"github.com/Adithya-Monish-Kumar-K/essay-browser/internal/browse/sorter"
	"github.com/Adithya-Monish-Kumar-K/essay-browser/internal/indexer/tokenizer"
	"github.com/Adithya-Monish-Kumar-K/essay-browser/pkg/metrics"
	pkgredis "github.com/Adithya-Monish-Kumar-K/essay-browser/pkg/redis"
	"github.com/Adithya-Monish-Kumar-K/essay-browser/pkg/resilience"
	"golang.org/x/sync/singleflight"
)

const keyPrefix = "essays:"

// Store is the subset of the Redis client the cache needs.
type Store interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key string, value any, ttl time.Duration) error
	FlushByPattern(ctx context.Context, pattern string) (int64, error)
	CountByPattern(ctx context.Context, pattern string) (int64, error)
}

// Stats is a snapshot of cache effectiveness.
type Stats struct {
	Enabled      bool    `json:"enabled"`
	Hits         int64   `json:"hits"`
	Misses       int64   `json:"misses"`
	HitRate      float64 `json:"hit_rate"`
	Keys         int64   `json:"keys"`
	BreakerState string  `json:"breaker_state,omitempty"`
}

type QueryCache struct {
	store   Store
	ttl     time.Duration
	breaker *resilience.CircuitBreaker
	metrics *metrics.Metrics
	group   singleflight.Group
	logger  *slog.Logger
	hits    atomic.Int64
	misses  atomic.Int64
}

type Option func(*QueryCache)

// WithBreaker guards store calls with cb.
func WithBreaker(cb *resilience.CircuitBreaker) Option {
	return func(c *QueryCache) { c.breaker = cb }
}

// WithMetrics counts hits and misses in m.
func WithMetrics(m *metrics.Metrics) Option {
	return func(c *QueryCache) { c.metrics = m }
}

// New creates a cache over store. A nil store disables caching but keeps
// request coalescing.
func New(store Store, ttl time.Duration, opts ...Option) *QueryCache {
	c := &QueryCache{
		store:  store,
		ttl:    ttl,
		logger: slog.Default().With("component", "query-cache"),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Enabled reports whether results are stored anywhere.
func (c *QueryCache) Enabled() bool {
	return c.store != nil
}

// Get returns the cached result for req evaluated against index generation
// gen. Store errors count as misses.
func (c *QueryCache) Get(ctx context.Context, gen uint64, req browse.Request) (browse.Result, bool) {
	if c.store == nil {
		return browse.Result{}, false
	}
	key := Key(gen, req)
	var data string
	var found bool
	err := c.guard(func() error {
		v, err := c.store.Get(ctx, key)
		if pkgredis.IsNilError(err) {
			return nil
		}
		if err != nil {
			return err
		}
		data, found = v, true
		return nil
	})
	if err != nil {
		c.logger.Warn("cache get failed", "key", key, "error", err)
	}
	if !found {
		c.recordMiss()
		return browse.Result{}, false
	}
	var result browse.Result
	if err := json.Unmarshal([]byte(data), &result); err != nil {
		c.logger.Error("cache unmarshal failed", "key", key, "error", err)
		c.recordMiss()
		return browse.Result{}, false
	}
	c.recordHit()
	c.logger.Debug("cache hit", "query", req.Query, "key", key)
	result.Query = req.Query
	return result, true
}

// Set stores result under req's key. Failures are logged only.
func (c *QueryCache) Set(ctx context.Context, gen uint64, req browse.Request, result browse.Result) {
	if c.store == nil {
		return
	}
	key := Key(gen, req)
	data, err := json.Marshal(result)
	if err != nil {
		c.logger.Error("cache marshal failed", "key", key, "error", err)
		return
	}
	if err := c.guard(func() error {
		return c.store.Set(ctx, key, data, c.ttl)
	}); err != nil {
		c.logger.Warn("cache set failed", "key", key, "error", err)
	}
}

// GetOrCompute returns the cached result for req, or runs computeFn once
// for all concurrent callers with the same key and caches its result. The
// boolean reports a cache hit.
func (c *QueryCache) GetOrCompute(
	ctx context.Context,
	gen uint64,
	req browse.Request,
	computeFn func() (browse.Result, error),
) (browse.Result, bool, error) {
	if result, ok := c.Get(ctx, gen, req); ok {
		return result, true, nil
	}
	key := Key(gen, req)
	val, err, _ := c.group.Do(key, func() (any, error) {
		result, err := computeFn()
		if err != nil {
			return browse.Result{}, err
		}
		c.Set(ctx, gen, req, result)
		return result, nil
	})
	if err != nil {
		return browse.Result{}, false, err
	}
	result := val.(browse.Result)
	result.Query = req.Query
	return result, false, nil
}

// Invalidate deletes every cached essay view.
func (c *QueryCache) Invalidate(ctx context.Context) (int64, error) {
	if c.store == nil {
		return 0, nil
	}
	var deleted int64
	err := c.guard(func() error {
		n, err := c.store.FlushByPattern(ctx, keyPrefix+"*")
		deleted = n
		return err
	})
	if err != nil {
		return deleted, fmt.Errorf("invalidating cache: %w", err)
	}
	c.logger.Info("cache invalidate", "keys_deleted", deleted)
	return deleted, nil
}

// Stats reports hit counters and the number of stored views. A failed key
// count is logged and reported as zero.
func (c *QueryCache) Stats(ctx context.Context) Stats {
	s := Stats{
		Enabled: c.Enabled(),
		Hits:    c.hits.Load(),
		Misses:  c.misses.Load(),
	}
	if total := s.Hits + s.Misses; total > 0 {
		s.HitRate = float64(s.Hits) / float64(total)
	}
	if c.store != nil {
		err := c.guard(func() error {
			n, err := c.store.CountByPattern(ctx, keyPrefix+"*")
			s.Keys = n
			return err
		})
		if err != nil {
			s.Keys = 0
			c.logger.Warn("cache key count failed", "error", err)
		}
	}
	if c.breaker != nil {
		s.BreakerState = c.breaker.GetState().String()
	}
	return s
}

func (c *QueryCache) guard(fn func() error) error {
	if c.breaker == nil {
		return fn()
	}
	return c.breaker.Execute(fn)
}

func (c *QueryCache) recordHit() {
	c.hits.Add(1)
	if c.metrics != nil {
		c.metrics.CacheHitsTotal.Inc()
	}
}

func (c *QueryCache) recordMiss() {
	c.misses.Add(1)
	if c.metrics != nil {
		c.metrics.CacheMissesTotal.Inc()
	}
}

// Key derives the cache key of req against index generation gen. Requests
// that evaluate to the same view share a key: query terms are compared as a
// multiset, and filter values as sets.
func Key(gen uint64, req browse.Request) string {
	hash := sha256.Sum256([]byte(fmt.Sprintf("gen=%d|%s", gen, normalize(req))))
	return fmt.Sprintf("%s%x", keyPrefix, hash[:16])
}

func normalize(req browse.Request) string {
	var b strings.Builder

	switch {
	case !req.HasQuery():
		b.WriteString("q=")
	default:
		terms := tokenizer.Tokenize(req.Query)
		slices.Sort(terms)
		// A query with no terms still matches nothing, unlike no query.
		b.WriteString("q+=" + strings.Join(terms, ","))
	}

	c := req.Criteria
	paths := make([]string, 0, len(c.TopicPaths))
	for _, p := range c.TopicPaths {
		paths = append(paths, strings.Join(p, "\x1f"))
	}
	fmt.Fprintf(&b, "|topics=%s|types=%s|aud=%s|year=%d-%d|time=%d-%d",
		sortedSet(paths), sortedSet(c.EssayTypes), sortedSet(c.Audiences),
		c.YearMin, c.YearMax, c.TimeMin, c.TimeMax)

	order := req.Order
	if order.Primary == "" {
		order = sorter.DefaultOrder()
	}
	fmt.Fprintf(&b, "|sort=%s|user=%t|limit=%d|facets=%t",
		order.String(), order.UserSelected, max(req.Limit, 0), req.WithFacets)
	return b.String()
}

func sortedSet(values []string) string {
	s := slices.Clone(values)
	slices.Sort(s)
	return strings.Join(slices.Compact(s), ",")
}
