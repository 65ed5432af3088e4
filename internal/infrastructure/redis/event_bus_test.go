package redis

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"jobforge/internal/domain"
)

func newTestBus(t *testing.T) *EventBus {
	t.Helper()

	srv := miniredis.RunT(t)
	client := goredis.NewClient(&goredis.Options{Addr: srv.Addr()})
	t.Cleanup(func() { client.Close() })

	return NewEventBus(client)
}

func TestEventBus_PublishSubscribe(t *testing.T) {
	bus := newTestBus(t)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	events, err := bus.SubscribeResults(ctx)
	require.NoError(t, err)

	// Let the subscriber register before publishing.
	time.Sleep(50 * time.Millisecond)

	sent := domain.SubmissionResultEvent{
		DefinitionID: uuid.New(),
		Name:         "dbt_pipeline",
		Outcome:      domain.SubmissionAccepted,
		JobID:        42,
	}
	require.NoError(t, bus.PublishResult(ctx, sent))

	select {
	case got := <-events:
		assert.Equal(t, sent.DefinitionID, got.DefinitionID)
		assert.Equal(t, domain.SubmissionAccepted, got.Outcome)
		assert.Equal(t, int64(42), got.JobID)
	case <-time.After(2 * time.Second):
		t.Fatal("no event received")
	}
}

func TestEventBus_CancelUnblocksStalledSend(t *testing.T) {
	bus := newTestBus(t)

	ctx, cancel := context.WithCancel(context.Background())
	events, err := bus.SubscribeResults(ctx)
	require.NoError(t, err)

	// Publish without ever reading from the channel, so the forwarding
	// goroutine is stuck on its send when the context is cancelled.
	time.Sleep(50 * time.Millisecond)
	require.NoError(t, bus.PublishResult(ctx, domain.SubmissionResultEvent{
		DefinitionID: uuid.New(),
		Outcome:      domain.SubmissionRejected,
	}))
	time.Sleep(50 * time.Millisecond)

	cancel()

	require.Eventually(t, func() bool {
		select {
		case _, open := <-events:
			return !open
		default:
			return false
		}
	}, 2*time.Second, 10*time.Millisecond, "subscription did not shut down")
}

func TestEventBus_SubscribeClosedByContext(t *testing.T) {
	bus := newTestBus(t)

	ctx, cancel := context.WithCancel(context.Background())
	events, err := bus.SubscribeResults(ctx)
	require.NoError(t, err)

	cancel()

	select {
	case _, open := <-events:
		assert.False(t, open, "channel should close after cancellation")
	case <-time.After(2 * time.Second):
		t.Fatal("channel not closed after cancellation")
	}
}
