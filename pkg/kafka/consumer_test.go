package kafka

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/emrahgewer/yorumatorapp/pkg/logger"
)

// fakeReader serves queued messages, then blocks until ctx is cancelled.
type fakeReader struct {
	mu        sync.Mutex
	queue     []kafka.Message
	committed []kafka.Message
	closed    int
}

func (r *fakeReader) FetchMessage(ctx context.Context) (kafka.Message, error) {
	r.mu.Lock()
	if len(r.queue) > 0 {
		msg := r.queue[0]
		r.queue = r.queue[1:]
		r.mu.Unlock()
		return msg, nil
	}
	r.mu.Unlock()
	<-ctx.Done()
	return kafka.Message{}, ctx.Err()
}

func (r *fakeReader) CommitMessages(_ context.Context, msgs ...kafka.Message) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.committed = append(r.committed, msgs...)
	return nil
}

func (r *fakeReader) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.closed++
	return nil
}

func (r *fakeReader) commits() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.committed)
}

type fakeDLQ struct {
	mu     sync.Mutex
	msgs   []kafka.Message
	causes []error
}

func (d *fakeDLQ) Publish(_ context.Context, msg kafka.Message, cause error, _ string) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.msgs = append(d.msgs, msg)
	d.causes = append(d.causes, cause)
	return nil
}

func eventMessage(t *testing.T, eventType string) kafka.Message {
	t.Helper()
	event, err := NewEvent(eventType, "agg-1", "review", map[string]string{"k": "v"})
	require.NoError(t, err)
	event.CorrelationID = "corr-7"
	raw, err := event.Marshal()
	require.NoError(t, err)
	return kafka.Message{Topic: Topic("review", "created"), Value: raw}
}

func TestConsumer_Process_Success(t *testing.T) {
	var gotCorrelation string
	handler := func(ctx context.Context, e *Event) error {
		gotCorrelation = logger.CorrelationIDFromContext(ctx)
		return nil
	}
	dlq := &fakeDLQ{}
	c := newConsumer(&fakeReader{}, "notifications", handler, dlq, testLogger())

	require.NoError(t, c.process(context.Background(), eventMessage(t, "review.created")))
	assert.Equal(t, "corr-7", gotCorrelation)
	assert.Empty(t, dlq.msgs)
}

func TestConsumer_Process_RetriesThenDeadLetters(t *testing.T) {
	var calls atomic.Int32
	handler := func(context.Context, *Event) error {
		calls.Add(1)
		return errors.New("db down")
	}
	dlq := &fakeDLQ{}
	c := newConsumer(&fakeReader{}, "notifications", handler, dlq, testLogger())
	c.backoff = time.Millisecond

	require.NoError(t, c.process(context.Background(), eventMessage(t, "review.created")))
	assert.Equal(t, int32(defaultMaxRetries), calls.Load())
	require.Len(t, dlq.msgs, 1)
	assert.EqualError(t, dlq.causes[0], "db down")
}

func TestConsumer_Process_RecoversOnRetry(t *testing.T) {
	var calls atomic.Int32
	handler := func(context.Context, *Event) error {
		if calls.Add(1) == 1 {
			return errors.New("transient")
		}
		return nil
	}
	dlq := &fakeDLQ{}
	c := newConsumer(&fakeReader{}, "notifications", handler, dlq, testLogger())
	c.backoff = time.Millisecond

	require.NoError(t, c.process(context.Background(), eventMessage(t, "review.created")))
	assert.Equal(t, int32(2), calls.Load())
	assert.Empty(t, dlq.msgs)
}

func TestConsumer_Process_UndecodableGoesToDLQ(t *testing.T) {
	var called bool
	handler := func(context.Context, *Event) error {
		called = true
		return nil
	}
	dlq := &fakeDLQ{}
	c := newConsumer(&fakeReader{}, "notifications", handler, dlq, testLogger())

	require.NoError(t, c.process(context.Background(), kafka.Message{Topic: "t", Value: []byte("garbage")}))
	assert.False(t, called)
	assert.Len(t, dlq.msgs, 1)
}

func TestConsumer_Process_NoDLQDrops(t *testing.T) {
	handler := func(context.Context, *Event) error { return errors.New("always") }
	c := newConsumer(&fakeReader{}, "notifications", handler, nil, testLogger())
	c.backoff = time.Millisecond

	assert.NoError(t, c.process(context.Background(), eventMessage(t, "review.created")))
}

func TestConsumer_Process_CancelledDuringBackoff(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	handler := func(context.Context, *Event) error {
		cancel()
		return errors.New("fail")
	}
	dlq := &fakeDLQ{}
	c := newConsumer(&fakeReader{}, "notifications", handler, dlq, testLogger())
	c.backoff = time.Hour

	err := c.process(ctx, eventMessage(t, "review.created"))
	assert.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, dlq.msgs)
}

func TestConsumer_Start_CommitsAndStops(t *testing.T) {
	reader := &fakeReader{queue: []kafka.Message{
		eventMessage(t, "review.created"),
		eventMessage(t, "review.liked"),
	}}
	var handled atomic.Int32
	handler := func(context.Context, *Event) error {
		handled.Add(1)
		return nil
	}
	c := newConsumer(reader, "notifications", handler, nil, testLogger())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- c.Start(ctx) }()

	require.Eventually(t, func() bool { return reader.commits() == 2 }, time.Second, 5*time.Millisecond)
	cancel()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("consumer did not stop")
	}
	assert.Equal(t, int32(2), handled.Load())

	require.NoError(t, c.Close())
	assert.Equal(t, 1, reader.closed)
}
