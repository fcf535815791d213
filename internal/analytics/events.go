// Package analytics records what readers search for. The essay API emits a
// SearchEvent per evaluated view and an IndexEvent per index build; the
// analytics service aggregates them from Kafka into top queries, zero-result
// queries and latency percentiles.
package analytics

import (
	"encoding/json"
	"fmt"
	"time"
)

type EventType string

const (
	EventSearch     EventType = "search"
	EventIndexBuild EventType = "index_build"
)

type SearchEvent struct {
	Type      EventType `json:"type"`
	Query     string    `json:"query"`
	Terms     []string  `json:"terms"`
	Filtered  bool      `json:"filtered"`
	Sort      string    `json:"sort"`
	TotalHits int       `json:"total_hits"`
	Returned  int       `json:"returned"`
	LatencyUs int64     `json:"latency_us"`
	CacheHit  bool      `json:"cache_hit"`
	Timestamp time.Time `json:"timestamp"`
	RequestID string    `json:"request_id,omitempty"`
}

type IndexEvent struct {
	Type      EventType `json:"type"`
	Source    string    `json:"source"`
	Documents int       `json:"documents"`
	Terms     int       `json:"terms"`
	Tokens    int64     `json:"tokens"`
	BuildMs   int64     `json:"build_ms"`
	Timestamp time.Time `json:"timestamp"`
}

// Decode inspects the type field and returns a *SearchEvent or *IndexEvent.
func Decode(data []byte) (any, error) {
	var head struct {
		Type EventType `json:"type"`
	}
	if err := json.Unmarshal(data, &head); err != nil {
		return nil, fmt.Errorf("decoding analytics event: %w", err)
	}
	switch head.Type {
	case EventSearch:
		var e SearchEvent
		if err := json.Unmarshal(data, &e); err != nil {
			return nil, fmt.Errorf("decoding search event: %w", err)
		}
		return &e, nil
	case EventIndexBuild:
		var e IndexEvent
		if err := json.Unmarshal(data, &e); err != nil {
			return nil, fmt.Errorf("decoding index event: %w", err)
		}
		return &e, nil
	default:
		return nil, fmt.Errorf("unknown analytics event type %q", head.Type)
	}
}
