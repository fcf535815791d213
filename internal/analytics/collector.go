package analytics

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/Adithya-Monish-Kumar-K/essay-browser/pkg/kafka"
	"github.com/Adithya-Monish-Kumar-K/essay-browser/pkg/metrics"
)

// Publisher is the part of the Kafka producer the collector uses.
type Publisher interface {
	PublishBatch(ctx context.Context, events []kafka.Event) error
}

// Collector buffers events in a channel and publishes them in batches of up
// to batchSize, or every flushInterval, from a single goroutine. Track never
// blocks: when the buffer is full the event is dropped.
type Collector struct {
	publisher     Publisher
	eventCh       chan kafka.Event
	batchSize     int
	flushInterval time.Duration
	metrics       *metrics.Metrics
	logger        *slog.Logger
	done          chan struct{}
	closeOnce     sync.Once
}

// NewCollector creates a Collector. m may be nil.
func NewCollector(publisher Publisher, bufferSize, batchSize int, flushInterval time.Duration, m *metrics.Metrics) *Collector {
	if bufferSize <= 0 {
		bufferSize = 10000
	}
	if batchSize <= 0 {
		batchSize = 100
	}
	if flushInterval <= 0 {
		flushInterval = time.Second
	}
	return &Collector{
		publisher:     publisher,
		eventCh:       make(chan kafka.Event, bufferSize),
		batchSize:     batchSize,
		flushInterval: flushInterval,
		metrics:       m,
		logger:        slog.Default().With("component", "analytics-collector"),
		done:          make(chan struct{}),
	}
}

// Start launches the publish loop. It drains the buffer and returns when
// ctx is cancelled or Close is called.
func (c *Collector) Start(ctx context.Context) {
	go func() {
		defer close(c.done)
		ticker := time.NewTicker(c.flushInterval)
		defer ticker.Stop()
		batch := make([]kafka.Event, 0, c.batchSize)
		for {
			select {
			case event, ok := <-c.eventCh:
				if !ok {
					c.publish(context.Background(), batch)
					return
				}
				batch = append(batch, event)
				if len(batch) >= c.batchSize {
					c.publish(ctx, batch)
					batch = batch[:0]
				}
			case <-ticker.C:
				c.publish(ctx, batch)
				batch = batch[:0]
			case <-ctx.Done():
				c.publish(context.Background(), c.drain(batch))
				return
			}
		}
	}()
	c.logger.Info("analytics collector started",
		"buffer_size", cap(c.eventCh),
		"batch_size", c.batchSize,
		"flush_interval", c.flushInterval,
	)
}

// TrackSearch queues a search event.
func (c *Collector) TrackSearch(e SearchEvent) {
	e.Type = EventSearch
	c.track(kafka.Event{Key: string(EventSearch), Value: e})
}

// TrackIndex queues an index build event.
func (c *Collector) TrackIndex(e IndexEvent) {
	e.Type = EventIndexBuild
	c.track(kafka.Event{Key: string(EventIndexBuild), Value: e})
}

func (c *Collector) track(event kafka.Event) {
	select {
	case c.eventCh <- event:
		c.count(metrics.AnalyticsQueued, 1)
	default:
		c.count(metrics.AnalyticsDropped, 1)
		c.logger.Warn("analytics event dropped (buffer full)", "key", event.Key)
	}
}

// Close stops accepting events and waits for the final flush. It must not
// be called concurrently with Track.
func (c *Collector) Close() {
	c.closeOnce.Do(func() { close(c.eventCh) })
	<-c.done
}

func (c *Collector) drain(batch []kafka.Event) []kafka.Event {
	for {
		select {
		case event, ok := <-c.eventCh:
			if !ok {
				return batch
			}
			batch = append(batch, event)
		default:
			return batch
		}
	}
}

func (c *Collector) publish(ctx context.Context, batch []kafka.Event) {
	if len(batch) == 0 {
		return
	}
	if err := c.publisher.PublishBatch(ctx, batch); err != nil {
		c.count(metrics.AnalyticsFailed, len(batch))
		c.logger.Error("failed to publish analytics events", "count", len(batch), "error", err)
		return
	}
	c.logger.Debug("analytics events published", "count", len(batch))
}

func (c *Collector) count(outcome string, n int) {
	if c.metrics != nil {
		c.metrics.AnalyticsEventsTotal.WithLabelValues(outcome).Add(float64(n))
	}
}
