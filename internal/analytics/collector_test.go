package analytics

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Adithya-Monish-Kumar-K/wordindex/pkg/kafka"
)

type fakePublisher struct {
	mu      sync.Mutex
	single  []kafka.Event
	batches [][]kafka.Event
	err     error
}

func (p *fakePublisher) Publish(_ context.Context, e kafka.Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.single = append(p.single, e)
	return p.err
}

func (p *fakePublisher) PublishBatch(_ context.Context, events []kafka.Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.batches = append(p.batches, events)
	return p.err
}

func (p *fakePublisher) count() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	n := len(p.single)
	for _, b := range p.batches {
		n += len(b)
	}
	return n
}

func TestCollector_PublishesTrackedEvents(t *testing.T) {
	pub := &fakePublisher{}
	c := NewCollector(pub, 8)
	c.Start(context.Background())

	assert.True(t, c.Track(QueryEvent{Type: EventSearch, Word: "cat", Hits: 2}))
	assert.True(t, c.Track(QueryEvent{Type: EventFrequency, Word: "dog"}))
	c.Close()

	require.Len(t, pub.single, 2)
	assert.Equal(t, "cat", pub.single[0].Key)
	ev := pub.single[0].Value.(QueryEvent)
	assert.Equal(t, EventSearch, ev.Type)
	assert.Equal(t, 2, ev.Hits)
}

func TestCollector_DropsWhenFull(t *testing.T) {
	c := NewCollector(&fakePublisher{}, 1)

	// Not started, so nothing drains the buffer.
	assert.True(t, c.Track(QueryEvent{Word: "a"}))
	assert.False(t, c.Track(QueryEvent{Word: "b"}))
}

func TestCollector_DrainsOnCancel(t *testing.T) {
	pub := &fakePublisher{}
	c := NewCollector(pub, 16)
	for _, w := range []string{"a", "b", "c"} {
		require.True(t, c.Track(QueryEvent{Word: w}))
	}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	c.Start(ctx)
	c.Close()

	assert.Equal(t, 3, pub.count())
}

func TestCollector_PublishErrorsDoNotStopLoop(t *testing.T) {
	pub := &fakePublisher{err: errors.New("broker down")}
	c := NewCollector(pub, 4)
	c.Start(context.Background())

	c.Track(QueryEvent{Word: "a"})
	c.Track(QueryEvent{Word: "b"})
	c.Close()

	assert.Equal(t, 2, pub.count())
}

func TestCollector_TrackAfterClose(t *testing.T) {
	pub := &fakePublisher{}
	c := NewCollector(pub, 4)
	c.Start(context.Background())
	c.Close()

	assert.NotPanics(t, func() {
		assert.False(t, c.Track(QueryEvent{Word: "late"}))
	})
	assert.NotPanics(t, c.Close)
	assert.Zero(t, pub.count())
}

func TestCollector_KeepsReadingAfterCancel(t *testing.T) {
	pub := &fakePublisher{}
	c := NewCollector(pub, 4)
	ctx, cancel := context.WithCancel(context.Background())
	c.Start(ctx)
	cancel()

	time.Sleep(10 * time.Millisecond)
	require.True(t, c.Track(QueryEvent{Word: "in-flight"}))
	c.Close()

	assert.Equal(t, 1, pub.count())
}

func TestPublishIndexEvent(t *testing.T) {
	pub := &fakePublisher{}

	err := PublishIndexEvent(context.Background(), pub, IndexEvent{BuildID: "b-1", CorpusDir: "pages", FilesIndexed: 3})

	require.NoError(t, err)
	require.Len(t, pub.single, 1)
	assert.Equal(t, "b-1", pub.single[0].Key)
	ev := pub.single[0].Value.(IndexEvent)
	assert.Equal(t, EventIndexComplete, ev.Type)
	assert.Equal(t, 3, ev.FilesIndexed)
	assert.WithinDuration(t, time.Now(), ev.Timestamp, time.Minute)
}

func TestQueryEvent_WireFields(t *testing.T) {
	data, err := json.Marshal(QueryEvent{Type: EventSearch, Word: "cat", LatencyUs: 1500})
	require.NoError(t, err)

	var fields map[string]any
	require.NoError(t, json.Unmarshal(data, &fields))
	assert.Equal(t, 1500.0, fields["latency_us"])
	assert.NotContains(t, fields, "latency_ms")
	assert.NotContains(t, fields, "request_id")
}
