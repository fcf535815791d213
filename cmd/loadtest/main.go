// Command loadtest drives the essay API the way the browser UI does: users
// type queries a keystroke at a time, optionally debounced, and click
// filters and sort keys between searches.
//
// Usage:
//
//	go run ./cmd/loadtest -url http://localhost:8080 -concurrency 20 -duration 30s
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"math"
	"math/rand/v2"
	"net/http"
	"net/url"
	"os"
	"slices"
	"sync"
	"sync/atomic"
	"time"
)

type Config struct {
	BaseURL     string
	Concurrency int
	Duration    time.Duration
	// Debounce skips keystrokes typed faster than this window, as the UI
	// does. Zero sends every prefix.
	Debounce  time.Duration
	Keystroke time.Duration
	Queries   []string
	Filters   []url.Values
}

type Stats struct {
	totalRequests atomic.Int64
	successCount  atomic.Int64
	errorCount    atomic.Int64
	skipped       atomic.Int64
	latencies     []time.Duration
	latenciesMu   sync.Mutex
	statusCodes   map[int]*atomic.Int64
	statusCodesMu sync.Mutex
}

func NewStats() *Stats {
	return &Stats{
		latencies:   make([]time.Duration, 0, 100000),
		statusCodes: make(map[int]*atomic.Int64),
	}
}

func (s *Stats) RecordRequest(duration time.Duration, statusCode int, err error) {
	s.totalRequests.Add(1)

	if err != nil {
		s.errorCount.Add(1)
		return
	}

	if statusCode >= 200 && statusCode < 300 {
		s.successCount.Add(1)
	} else {
		s.errorCount.Add(1)
	}

	s.latenciesMu.Lock()
	s.latencies = append(s.latencies, duration)
	s.latenciesMu.Unlock()

	s.statusCodesMu.Lock()
	if _, ok := s.statusCodes[statusCode]; !ok {
		s.statusCodes[statusCode] = &atomic.Int64{}
	}
	s.statusCodes[statusCode].Add(1)
	s.statusCodesMu.Unlock()
}

func main() {
	baseURL := flag.String("url", "http://localhost:8080", "base URL of the essay service")
	concurrency := flag.Int("concurrency", 10, "number of simulated users")
	duration := flag.Duration("duration", 30*time.Second, "test duration")
	keystroke := flag.Duration("keystroke", 80*time.Millisecond, "delay between simulated keystrokes")
	debounce := flag.Duration("debounce", 300*time.Millisecond, "client-side debounce window; 0 sends every keystroke")
	flag.Parse()

	cfg := Config{
		BaseURL:     *baseURL,
		Concurrency: *concurrency,
		Duration:    *duration,
		Debounce:    *debounce,
		Keystroke:   *keystroke,
		Queries: []string{
			"startup ideas",
			"how to do great work",
			"writing",
			"wealth",
			"programming languages",
			"founders",
			"investors",
			"taste",
			"default alive",
			"persuade or inform",
			"cities and ambition",
			"hackers and painters",
		},
		Filters: []url.Values{
			{},
			{"topic": {"Startups"}},
			{"type": {"Guide"}},
			{"audience": {"Founders", "Hackers and Makers"}},
			{"year_min": {"2005"}, "year_max": {"2015"}},
			{"time_max": {"15"}, "sort": {"length-asc"}},
			{"facets": {"true"}},
		},
	}

	fmt.Println("=== Essay Browser Load Test ===")
	fmt.Printf("Target:      %s\n", cfg.BaseURL)
	fmt.Printf("Users:       %d\n", cfg.Concurrency)
	fmt.Printf("Duration:    %s\n", cfg.Duration)
	fmt.Printf("Keystroke:   %s\n", cfg.Keystroke)
	fmt.Printf("Debounce:    %s\n", cfg.Debounce)
	fmt.Printf("Queries:     %d unique\n", len(cfg.Queries))
	fmt.Println()

	stats := runLoadTest(cfg)
	printReport(stats, cfg.Duration)
}

func runLoadTest(cfg Config) *Stats {
	stats := NewStats()
	client := &http.Client{
		Timeout: 10 * time.Second,
		Transport: &http.Transport{
			MaxIdleConns:        cfg.Concurrency * 2,
			MaxIdleConnsPerHost: cfg.Concurrency * 2,
			IdleConnTimeout:     90 * time.Second,
		},
	}

	ctx, cancel := context.WithTimeout(context.Background(), cfg.Duration)
	defer cancel()

	var wg sync.WaitGroup
	fmt.Print("Running")

	for w := 0; w < cfg.Concurrency; w++ {
		wg.Add(1)
		go func(workerID int) {
			defer wg.Done()
			rng := rand.New(rand.NewPCG(uint64(workerID), uint64(time.Now().UnixNano())))
			for ctx.Err() == nil {
				query := cfg.Queries[rng.IntN(len(cfg.Queries))]
				params := cfg.Filters[rng.IntN(len(cfg.Filters))]
				typeQuery(ctx, client, cfg, stats, query, params)
			}
		}(w)
	}

	ticker := time.NewTicker(5 * time.Second)
	defer ticker.Stop()

	go func() {
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				fmt.Print(".")
			}
		}
	}()

	wg.Wait()
	fmt.Println(" done!")
	fmt.Println()
	return stats
}

// typeQuery types query one character at a time under the given filters.
// With a debounce window longer than the keystroke delay, only the prefix
// at which typing pauses, and the full query, reach the server.
func typeQuery(ctx context.Context, client *http.Client, cfg Config, stats *Stats, query string, params url.Values) {
	var quiet time.Duration
	for i := 1; i <= len(query); i++ {
		if ctx.Err() != nil {
			return
		}
		last := i == len(query)
		if !last && cfg.Debounce > 0 && quiet+cfg.Keystroke < cfg.Debounce {
			stats.skipped.Add(1)
			quiet += cfg.Keystroke
			sleep(ctx, cfg.Keystroke)
			continue
		}
		quiet = 0

		q := url.Values{}
		for k, v := range params {
			q[k] = v
		}
		q.Set("q", query[:i])
		q.Set("limit", "20")
		searchURL := cfg.BaseURL + "/api/v1/essays?" + q.Encode()

		start := time.Now()
		resp, err := client.Do(mustNewRequest(ctx, searchURL))
		duration := time.Since(start)
		if err != nil {
			if ctx.Err() == nil {
				stats.RecordRequest(duration, 0, err)
			}
			return
		}
		io.Copy(io.Discard, resp.Body)
		resp.Body.Close()
		stats.RecordRequest(duration, resp.StatusCode, nil)

		sleep(ctx, cfg.Keystroke)
	}
}

func sleep(ctx context.Context, d time.Duration) {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
	case <-t.C:
	}
}

func mustNewRequest(ctx context.Context, rawURL string) *http.Request {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		panic(fmt.Sprintf("creating request: %v", err))
	}
	return req
}

func printReport(stats *Stats, duration time.Duration) {
	total := stats.totalRequests.Load()
	success := stats.successCount.Load()
	errors := stats.errorCount.Load()

	fmt.Println("=== Results ===")
	fmt.Printf("Total Requests:  %d\n", total)
	fmt.Printf("Successful:      %d\n", success)
	fmt.Printf("Errors:          %d\n", errors)
	fmt.Printf("Debounced:       %d keystrokes\n", stats.skipped.Load())

	if total > 0 {
		errorRate := float64(errors) / float64(total) * 100
		fmt.Printf("Error Rate:      %.2f%%\n", errorRate)
		rps := float64(total) / duration.Seconds()
		fmt.Printf("Requests/sec:    %.2f\n", rps)
	}

	stats.latenciesMu.Lock()
	latencies := slices.Clone(stats.latencies)
	stats.latenciesMu.Unlock()

	if len(latencies) > 0 {
		slices.Sort(latencies)

		var sum time.Duration
		for _, l := range latencies {
			sum += l
		}
		avg := sum / time.Duration(len(latencies))

		fmt.Println()
		fmt.Println("=== Latency ===")
		fmt.Printf("Min:    %s\n", latencies[0])
		fmt.Printf("Avg:    %s\n", avg)
		fmt.Printf("P50:    %s\n", percentile(latencies, 50))
		fmt.Printf("P90:    %s\n", percentile(latencies, 90))
		fmt.Printf("P95:    %s\n", percentile(latencies, 95))
		fmt.Printf("P99:    %s\n", percentile(latencies, 99))
		fmt.Printf("Max:    %s\n", latencies[len(latencies)-1])

		var sumSquared float64
		avgFloat := float64(avg)
		for _, l := range latencies {
			diff := float64(l) - avgFloat
			sumSquared += diff * diff
		}
		stddev := time.Duration(math.Sqrt(sumSquared / float64(len(latencies))))
		fmt.Printf("StdDev: %s\n", stddev)
	}

	fmt.Println()
	fmt.Println("=== Status Codes ===")
	stats.statusCodesMu.Lock()
	codes := make([]int, 0, len(stats.statusCodes))
	for code := range stats.statusCodes {
		codes = append(codes, code)
	}
	slices.Sort(codes)
	for _, code := range codes {
		fmt.Printf("  %d: %d\n", code, stats.statusCodes[code].Load())
	}
	stats.statusCodesMu.Unlock()

	if total == 0 {
		fmt.Println()
		fmt.Println("WARNING: No requests completed. Is the service running?")
		os.Exit(1)
	}
}

func percentile(sorted []time.Duration, p float64) time.Duration {
	if len(sorted) == 0 {
		return 0
	}
	idx := int(math.Ceil(p/100*float64(len(sorted)))) - 1
	idx = max(0, min(idx, len(sorted)-1))
	return sorted[idx]
}
