package analytics

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/Adithya-Monish-Kumar-K/wordindex/pkg/kafka"
)

// Publisher is the part of kafka.Producer the collector needs.
type Publisher interface {
	Publish(ctx context.Context, event kafka.Event) error
	PublishBatch(ctx context.Context, events []kafka.Event) error
}

// Collector buffers query events and publishes them from a background
// goroutine so that tracking never blocks a request.
type Collector struct {
	publisher Publisher
	eventCh   chan QueryEvent
	logger    *slog.Logger
	done      chan struct{}

	mu     sync.Mutex
	closed bool
}

func NewCollector(publisher Publisher, bufferSize int) *Collector {
	if bufferSize <= 0 {
		bufferSize = 10000
	}
	return &Collector{
		publisher: publisher,
		eventCh:   make(chan QueryEvent, bufferSize),
		logger:    slog.Default().With("component", "analytics-collector"),
		done:      make(chan struct{}),
	}
}

// Start launches the publishing loop. The loop runs until Close. Once ctx is
// cancelled, events are published in batches under their own timeout.
func (c *Collector) Start(ctx context.Context) {
	go func() {
		defer close(c.done)
		for {
			select {
			case event, ok := <-c.eventCh:
				if !ok {
					return
				}
				if err := c.publisher.Publish(ctx, toKafka(event)); err != nil {
					c.logger.Error("failed to publish query event", "error", err)
				}
			case <-ctx.Done():
				c.drainUntilClosed()
				return
			}
		}
	}()
	c.logger.Info("analytics collector started", "buffer_size", cap(c.eventCh))
}

// Track queues event. The event is dropped when the buffer is full or the
// collector has been closed.
func (c *Collector) Track(event QueryEvent) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		c.logger.Warn("analytics event dropped (collector closed)", "type", event.Type)
		return false
	}
	select {
	case c.eventCh <- event:
		return true
	default:
		c.logger.Warn("analytics event dropped (buffer full)", "type", event.Type)
		return false
	}
}

// Close stops accepting events and waits for the buffered ones to be
// published. Start must have been called. Calling Close twice is a no-op.
func (c *Collector) Close() {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.closed = true
	close(c.eventCh)
	c.mu.Unlock()
	<-c.done
}

func (c *Collector) drainUntilClosed() {
	for event := range c.eventCh {
		events := []kafka.Event{toKafka(event)}
	buffered:
		for {
			select {
			case next, ok := <-c.eventCh:
				if !ok {
					break buffered
				}
				events = append(events, toKafka(next))
			default:
				break buffered
			}
		}
		c.publishRemaining(events)
	}
}

func (c *Collector) publishRemaining(events []kafka.Event) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := c.publisher.PublishBatch(ctx, events); err != nil {
		c.logger.Error("failed to publish remaining events", "count", len(events), "error", err)
	}
}

func toKafka(event QueryEvent) kafka.Event {
	return kafka.Event{Key: event.Word, Value: event}
}

// PublishIndexEvent sends ev synchronously; it is called once per process.
func PublishIndexEvent(ctx context.Context, p Publisher, ev IndexEvent) error {
	ev.Type = EventIndexComplete
	if ev.Timestamp.IsZero() {
		ev.Timestamp = time.Now().UTC()
	}
	return p.Publish(ctx, kafka.Event{Key: ev.BuildID, Value: ev})
}
