package kafka_infra

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// fakeReader hands out queued messages once each, like a reader whose fetch
// position only moves forward, then blocks until ctx is done.
type fakeReader struct {
	mu        sync.Mutex
	queue     []kafka.Message
	committed []int64
}

func (r *fakeReader) FetchMessage(ctx context.Context) (kafka.Message, error) {
	r.mu.Lock()
	if len(r.queue) > 0 {
		m := r.queue[0]
		r.queue = r.queue[1:]
		r.mu.Unlock()
		return m, nil
	}
	r.mu.Unlock()
	<-ctx.Done()
	return kafka.Message{}, ctx.Err()
}

func (r *fakeReader) CommitMessages(_ context.Context, msgs ...kafka.Message) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, m := range msgs {
		r.committed = append(r.committed, m.Offset)
	}
	return nil
}

func (r *fakeReader) Close() error { return nil }

func (r *fakeReader) commits() []int64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]int64(nil), r.committed...)
}

func TestConsumer_RetriesFailedMessageBeforeMovingOn(t *testing.T) {
	reader := &fakeReader{queue: []kafka.Message{{Offset: 10}, {Offset: 11}}}
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var (
		mu      sync.Mutex
		handled []int64
	)
	handler := func(_ context.Context, m kafka.Message) error {
		mu.Lock()
		defer mu.Unlock()
		handled = append(handled, m.Offset)
		if m.Offset == 10 && len(handled) == 1 {
			return errors.New("db down")
		}
		if m.Offset == 11 {
			cancel()
		}
		return nil
	}

	c := newConsumer(reader, "payment_gateway_results", "group", handler, zap.NewNop())
	c.minBackoff = time.Millisecond
	c.maxBackoff = time.Millisecond

	done := make(chan error, 1)
	go func() { done <- c.Consume(ctx) }()

	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("consumer did not stop")
	}

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, []int64{10, 10, 11}, handled)
	assert.Equal(t, []int64{10, 11}, reader.commits())
}

func TestConsumer_StopsWithoutCommittingUnhandledMessage(t *testing.T) {
	reader := &fakeReader{queue: []kafka.Message{{Offset: 5}}}
	ctx, cancel := context.WithCancel(context.Background())

	attempts := 0
	handler := func(context.Context, kafka.Message) error {
		attempts++
		if attempts == 3 {
			cancel()
		}
		return errors.New("db down")
	}

	c := newConsumer(reader, "payment_gateway_results", "group", handler, zap.NewNop())
	c.minBackoff = time.Millisecond
	c.maxBackoff = time.Millisecond

	require.NoError(t, c.Consume(ctx))
	assert.Equal(t, 3, attempts)
	assert.Empty(t, reader.commits())
}
