package queue_test

import (
	"context"
	"encoding/json"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pyronlaboratory/grapelock-sub001/internal/models"
	"github.com/pyronlaboratory/grapelock-sub001/internal/queue"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func TestMemoryQueue_EnqueueAndLease(t *testing.T) {
	ctx := context.Background()
	q := queue.NewMemoryQueue()

	id, err := q.Enqueue(ctx, queue.KindCreateCollection, map[string]string{"collection_id": "abc"}, 2)
	require.NoError(t, err)

	j, err := q.GetJob(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, queue.StateWaiting, j.State)
	assert.Equal(t, 0, j.Attempt)

	leased, err := q.FetchAndLease(ctx, time.Minute)
	require.NoError(t, err)
	require.NotNil(t, leased)
	assert.Equal(t, id, leased.ID)
	assert.Equal(t, queue.StateActive, leased.State)
	assert.Equal(t, 1, leased.Attempt)
	assert.Equal(t, queue.KindCreateCollection, leased.Kind)

	var payload map[string]string
	require.NoError(t, json.Unmarshal(leased.Payload, &payload))
	assert.Equal(t, "abc", payload["collection_id"])

	// The lease hides the job from other workers.
	other, err := q.FetchAndLease(ctx, time.Minute)
	require.NoError(t, err)
	assert.Nil(t, other)
}

func TestMemoryQueue_MarkCompleted(t *testing.T) {
	ctx := context.Background()
	q := queue.NewMemoryQueue()

	id, err := q.Enqueue(ctx, queue.KindMintAsset, map[string]string{"nft_id": "xyz"}, 2)
	require.NoError(t, err)

	leased, err := q.FetchAndLease(ctx, time.Minute)
	require.NoError(t, err)
	require.NotNil(t, leased)

	require.NoError(t, q.MarkCompleted(ctx, id, map[string]string{"nft_id": "xyz"}))

	j, err := q.GetJob(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, queue.StateCompleted, j.State)

	var result map[string]string
	require.NoError(t, json.Unmarshal(j.Result, &result))
	assert.Equal(t, "xyz", result["nft_id"])

	// Terminal jobs are never redelivered.
	other, err := q.FetchAndLease(ctx, time.Minute)
	require.NoError(t, err)
	assert.Nil(t, other)
}

func TestMemoryQueue_RetryThenExhaust(t *testing.T) {
	ctx := context.Background()
	clock := newFakeClock()
	q := queue.NewMemoryQueueWithClock(clock.Now)

	id, err := q.Enqueue(ctx, queue.KindCreateCollection, map[string]string{"collection_id": "abc"}, 2)
	require.NoError(t, err)

	leased, err := q.FetchAndLease(ctx, time.Minute)
	require.NoError(t, err)
	require.NotNil(t, leased)
	assert.Equal(t, 1, leased.Attempt)

	require.NoError(t, q.MarkFailed(ctx, id, "upstream timeout"))

	j, err := q.GetJob(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, queue.StateDelayed, j.State)
	assert.Equal(t, "upstream timeout", j.LastError)

	// The retry is not due until its delay elapses.
	notDue, err := q.FetchAndLease(ctx, time.Minute)
	require.NoError(t, err)
	assert.Nil(t, notDue)

	clock.Advance(10 * time.Second)

	leased, err = q.FetchAndLease(ctx, time.Minute)
	require.NoError(t, err)
	require.NotNil(t, leased)
	assert.Equal(t, 2, leased.Attempt)

	// Second failure exhausts the budget.
	require.NoError(t, q.MarkFailed(ctx, id, "upstream timeout again"))

	j, err = q.GetJob(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, queue.StateFailed, j.State)
	assert.Equal(t, "upstream timeout again", j.LastError)

	clock.Advance(time.Hour)
	gone, err := q.FetchAndLease(ctx, time.Minute)
	require.NoError(t, err)
	assert.Nil(t, gone)
}

func TestMemoryQueue_ExpiredLeaseIsRedelivered(t *testing.T) {
	ctx := context.Background()
	clock := newFakeClock()
	q := queue.NewMemoryQueueWithClock(clock.Now)

	id, err := q.Enqueue(ctx, queue.KindMintAsset, map[string]string{"nft_id": "xyz"}, 2)
	require.NoError(t, err)

	first, err := q.FetchAndLease(ctx, time.Minute)
	require.NoError(t, err)
	require.NotNil(t, first)
	assert.Equal(t, 1, first.Attempt)

	// Worker dies; the lease runs out.
	clock.Advance(2 * time.Minute)

	second, err := q.FetchAndLease(ctx, time.Minute)
	require.NoError(t, err)
	require.NotNil(t, second)
	assert.Equal(t, id, second.ID)
	assert.Equal(t, 2, second.Attempt)
}

func TestMemoryQueue_GetJobUnknown(t *testing.T) {
	q := queue.NewMemoryQueue()

	_, err := q.GetJob(context.Background(), uuid.New())
	assert.ErrorIs(t, err, models.ErrNotFound)
}
