package worker_test

import (
	"context"
	"encoding/json"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pyronlaboratory/grapelock-sub001/internal/queue"
	"github.com/pyronlaboratory/grapelock-sub001/internal/worker"
)

type stubProcessor struct {
	kind   queue.Kind
	result interface{}
	err    error
	calls  int32
}

func (p *stubProcessor) Kind() queue.Kind {
	return p.kind
}

func (p *stubProcessor) Process(ctx context.Context, payload json.RawMessage) (interface{}, error) {
	atomic.AddInt32(&p.calls, 1)
	return p.result, p.err
}

func TestRegistry_RejectsDuplicateKind(t *testing.T) {
	registry := worker.NewRegistry()

	require.NoError(t, registry.Register(&stubProcessor{kind: queue.KindCreateCollection}))
	err := registry.Register(&stubProcessor{kind: queue.KindCreateCollection})
	assert.Error(t, err)

	p, ok := registry.Get(queue.KindCreateCollection)
	assert.True(t, ok)
	assert.NotNil(t, p)

	_, ok = registry.Get(queue.KindMintAsset)
	assert.False(t, ok)
}

func waitForState(t *testing.T, q queue.Queue, id uuid.UUID, want queue.State) *queue.Job {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		j, err := q.GetJob(context.Background(), id)
		require.NoError(t, err)
		if j.State == want {
			return j
		}
		time.Sleep(10 * time.Millisecond)
	}
	j, err := q.GetJob(context.Background(), id)
	require.NoError(t, err)
	t.Fatalf("job never reached %s, still %s", want, j.State)
	return nil
}

func TestPool_CompletesJob(t *testing.T) {
	ctx := context.Background()
	q := queue.NewMemoryQueue()
	registry := worker.NewRegistry()
	proc := &stubProcessor{kind: queue.KindMintAsset, result: map[string]string{"nft_id": "abc"}}
	require.NoError(t, registry.Register(proc))

	id, err := q.Enqueue(ctx, queue.KindMintAsset, map[string]string{"nft_id": "abc"}, 2)
	require.NoError(t, err)

	pool := worker.NewPool(q, registry,
		worker.WithConcurrency(2),
		worker.WithPollInterval(10*time.Millisecond),
	)
	require.NoError(t, pool.Start())
	defer pool.Stop(ctx)

	j := waitForState(t, q, id, queue.StateCompleted)
	assert.Equal(t, int32(1), atomic.LoadInt32(&proc.calls))

	var result map[string]string
	require.NoError(t, json.Unmarshal(j.Result, &result))
	assert.Equal(t, "abc", result["nft_id"])
}

func TestPool_ProcessorErrorReportsFailure(t *testing.T) {
	ctx := context.Background()
	q := queue.NewMemoryQueue()
	registry := worker.NewRegistry()
	proc := &stubProcessor{kind: queue.KindCreateCollection, err: errors.New("upstream down")}
	require.NoError(t, registry.Register(proc))

	// Attempt budget of one: the first failure is terminal.
	id, err := q.Enqueue(ctx, queue.KindCreateCollection, map[string]string{"collection_id": "abc"}, 1)
	require.NoError(t, err)

	pool := worker.NewPool(q, registry,
		worker.WithConcurrency(1),
		worker.WithPollInterval(10*time.Millisecond),
	)
	require.NoError(t, pool.Start())
	defer pool.Stop(ctx)

	j := waitForState(t, q, id, queue.StateFailed)
	assert.Equal(t, "upstream down", j.LastError)
}

func TestPool_UnregisteredKindFails(t *testing.T) {
	ctx := context.Background()
	q := queue.NewMemoryQueue()
	registry := worker.NewRegistry()

	id, err := q.Enqueue(ctx, queue.KindMintAsset, map[string]string{"nft_id": "abc"}, 1)
	require.NoError(t, err)

	pool := worker.NewPool(q, registry, worker.WithPollInterval(10*time.Millisecond))
	require.NoError(t, pool.Start())
	defer pool.Stop(ctx)

	j := waitForState(t, q, id, queue.StateFailed)
	assert.Contains(t, j.LastError, "no processor registered")
}

func TestPool_StartRequiresConfiguredKinds(t *testing.T) {
	q := queue.NewMemoryQueue()
	registry := worker.NewRegistry()
	require.NoError(t, registry.Register(&stubProcessor{kind: queue.KindCreateCollection}))

	pool := worker.NewPool(q, registry,
		worker.WithPollInterval(10*time.Millisecond),
		worker.WithRequiredKinds(queue.Kinds()...),
	)

	err := pool.Start()
	require.Error(t, err)
	assert.Contains(t, err.Error(), string(queue.KindMintAsset))

	require.NoError(t, registry.Register(&stubProcessor{kind: queue.KindMintAsset}))
	require.NoError(t, pool.Start())
	pool.Stop(context.Background())
}
