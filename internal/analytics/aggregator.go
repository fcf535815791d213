package analytics

import (
	"cmp"
	"context"
	"log/slog"
	"maps"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/Adithya-Monish-Kumar-K/essay-browser/pkg/kafka"
)

const (
	latencyWindow = 10000
	topQueries    = 10
)

type AggregatedStats struct {
	TotalSearches     int64            `json:"total_searches"`
	TotalIndexBuilds  int64            `json:"total_index_builds"`
	IndexedDocuments  int              `json:"indexed_documents"`
	IndexTerms        int              `json:"index_terms"`
	CacheHits         int64            `json:"cache_hits"`
	CacheMisses       int64            `json:"cache_misses"`
	ZeroResultCount   int64            `json:"zero_result_count"`
	FilteredSearches  int64            `json:"filtered_searches"`
	AvgLatencyUs      float64          `json:"avg_latency_us"`
	P50LatencyUs      int64            `json:"p50_latency_us"`
	P95LatencyUs      int64            `json:"p95_latency_us"`
	P99LatencyUs      int64            `json:"p99_latency_us"`
	TopQueries        []QueryCount     `json:"top_queries"`
	ZeroResultQueries []QueryCount     `json:"zero_result_queries"`
	SortUsage         map[string]int64 `json:"sort_usage"`
	QueriesPerMinute  float64          `json:"queries_per_minute"`
}

type QueryCount struct {
	Query string `json:"query"`
	Count int64  `json:"count"`
}

// Aggregator folds analytics events into running totals. Latency
// percentiles cover the most recent latencyWindow searches; query counts
// cover everything since start (or since the restored snapshot).
type Aggregator struct {
	mu                sync.Mutex
	totalSearches     int64
	totalIndexBuilds  int64
	indexedDocuments  int
	indexTerms        int
	cacheHits         int64
	cacheMisses       int64
	zeroResults       int64
	filtered          int64
	latencies         []int64
	next              int
	queryCounts       map[string]int64
	zeroResultQueries map[string]int64
	sortUsage         map[string]int64
	startTime         time.Time
	now               func() time.Time
	logger            *slog.Logger
}

func NewAggregator() *Aggregator {
	return &Aggregator{
		latencies:         make([]int64, 0, latencyWindow),
		queryCounts:       make(map[string]int64),
		zeroResultQueries: make(map[string]int64),
		sortUsage:         make(map[string]int64),
		startTime:         time.Now(),
		now:               time.Now,
		logger:            slog.Default().With("component", "analytics-aggregator"),
	}
}

// Handler adapts the aggregator to a Kafka consumer. Undecodable messages
// are logged and committed so they are not redelivered forever.
func (a *Aggregator) Handler() kafka.MessageHandler {
	return func(ctx context.Context, key []byte, value []byte) error {
		event, err := Decode(value)
		if err != nil {
			a.logger.Error("failed to decode analytics event", "key", string(key), "error", err)
			return nil
		}
		a.Record(event)
		return nil
	}
}

// Record folds one decoded event in.
func (a *Aggregator) Record(event any) {
	switch e := event.(type) {
	case *SearchEvent:
		a.recordSearch(*e)
	case SearchEvent:
		a.recordSearch(e)
	case *IndexEvent:
		a.recordIndex(*e)
	case IndexEvent:
		a.recordIndex(e)
	}
}

func (a *Aggregator) recordSearch(e SearchEvent) {
	query := normalizeQuery(e.Query)

	a.mu.Lock()
	defer a.mu.Unlock()
	a.totalSearches++
	if e.CacheHit {
		a.cacheHits++
	} else {
		a.cacheMisses++
	}
	if e.Filtered {
		a.filtered++
	}
	if e.Sort != "" {
		a.sortUsage[e.Sort]++
	}
	if len(a.latencies) < latencyWindow {
		a.latencies = append(a.latencies, e.LatencyUs)
	} else {
		a.latencies[a.next] = e.LatencyUs
	}
	a.next = (a.next + 1) % latencyWindow

	if query == "" {
		return
	}
	a.queryCounts[query]++
	if e.TotalHits == 0 {
		a.zeroResults++
		a.zeroResultQueries[query]++
	}
}

func (a *Aggregator) recordIndex(e IndexEvent) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.totalIndexBuilds++
	a.indexedDocuments = e.Documents
	a.indexTerms = e.Terms
}

// Restore seeds the counters from a persisted snapshot. Latencies are not
// restored.
func (a *Aggregator) Restore(s AggregatedStats) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.totalSearches = s.TotalSearches
	a.totalIndexBuilds = s.TotalIndexBuilds
	a.indexedDocuments = s.IndexedDocuments
	a.indexTerms = s.IndexTerms
	a.cacheHits = s.CacheHits
	a.cacheMisses = s.CacheMisses
	a.zeroResults = s.ZeroResultCount
	a.filtered = s.FilteredSearches
	for _, q := range s.TopQueries {
		a.queryCounts[q.Query] = q.Count
	}
	for _, q := range s.ZeroResultQueries {
		a.zeroResultQueries[q.Query] = q.Count
	}
	maps.Copy(a.sortUsage, s.SortUsage)
	a.logger.Info("analytics restored from snapshot", "total_searches", s.TotalSearches)
}

func (a *Aggregator) Stats() AggregatedStats {
	a.mu.Lock()
	defer a.mu.Unlock()

	stats := AggregatedStats{
		TotalSearches:     a.totalSearches,
		TotalIndexBuilds:  a.totalIndexBuilds,
		IndexedDocuments:  a.indexedDocuments,
		IndexTerms:        a.indexTerms,
		CacheHits:         a.cacheHits,
		CacheMisses:       a.cacheMisses,
		ZeroResultCount:   a.zeroResults,
		FilteredSearches:  a.filtered,
		TopQueries:        topN(a.queryCounts, topQueries),
		ZeroResultQueries: topN(a.zeroResultQueries, topQueries),
		SortUsage:         maps.Clone(a.sortUsage),
	}
	if len(a.latencies) > 0 {
		sorted := slices.Clone(a.latencies)
		slices.Sort(sorted)

		var sum int64
		for _, l := range sorted {
			sum += l
		}
		stats.AvgLatencyUs = float64(sum) / float64(len(sorted))
		stats.P50LatencyUs = percentile(sorted, 50)
		stats.P95LatencyUs = percentile(sorted, 95)
		stats.P99LatencyUs = percentile(sorted, 99)
	}
	if elapsed := a.now().Sub(a.startTime).Minutes(); elapsed > 0 {
		stats.QueriesPerMinute = float64(stats.TotalSearches) / elapsed
	}
	return stats
}

// normalizeQuery folds case and whitespace so "Startup  Ideas" and
// "startup ideas" count together.
func normalizeQuery(q string) string {
	return strings.Join(strings.Fields(strings.ToLower(q)), " ")
}

func percentile(sorted []int64, pct int) int64 {
	if len(sorted) == 0 {
		return 0
	}
	idx := (pct * len(sorted)) / 100
	if idx >= len(sorted) {
		idx = len(sorted) - 1
	}
	return sorted[idx]
}

// topN returns the n most frequent queries, ties broken alphabetically.
func topN(counts map[string]int64, n int) []QueryCount {
	result := make([]QueryCount, 0, len(counts))
	for query, count := range counts {
		result = append(result, QueryCount{Query: query, Count: count})
	}
	slices.SortFunc(result, func(a, b QueryCount) int {
		return cmp.Or(cmp.Compare(b.Count, a.Count), strings.Compare(a.Query, b.Query))
	})
	if len(result) > n {
		result = result[:n]
	}
	return result
}
