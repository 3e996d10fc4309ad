package queue

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/pyronlaboratory/grapelock-sub001/internal/models"
)

// MemoryQueue is an in-process Queue for tests and local development.
// It honours the same lease and retry semantics as the Postgres queue.
type MemoryQueue struct {
	mu   sync.Mutex
	jobs map[uuid.UUID]*Job
	now  func() time.Time
}

func NewMemoryQueue() *MemoryQueue {
	return &MemoryQueue{
		jobs: make(map[uuid.UUID]*Job),
		now:  time.Now,
	}
}

// NewMemoryQueueWithClock injects a clock for deterministic lease tests.
func NewMemoryQueueWithClock(now func() time.Time) *MemoryQueue {
	q := NewMemoryQueue()
	q.now = now
	return q
}

func (q *MemoryQueue) Enqueue(ctx context.Context, kind Kind, payload interface{}, maxAttempts int) (uuid.UUID, error) {
	payloadJSON, err := json.Marshal(payload)
	if err != nil {
		return uuid.Nil, fmt.Errorf("failed to encode payload: %w", err)
	}

	now := q.now()
	j := &Job{
		ID:          uuid.New(),
		Kind:        kind,
		Payload:     payloadJSON,
		State:       StateWaiting,
		MaxAttempts: maxAttempts,
		RunAt:       now,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	q.mu.Lock()
	q.jobs[j.ID] = j
	q.mu.Unlock()

	return j.ID, nil
}

func (q *MemoryQueue) FetchAndLease(ctx context.Context, visibility time.Duration) (*Job, error) {
	q.mu.Lock()
	defer q.mu.Unlock()

	now := q.now()
	var due *Job
	for _, j := range q.jobs {
		switch j.State {
		case StateWaiting, StateDelayed, StateActive:
		default:
			continue
		}
		if j.RunAt.After(now) {
			continue
		}
		if j.LeaseExpiresAt != nil && j.LeaseExpiresAt.After(now) {
			continue
		}
		if due == nil || j.RunAt.Before(due.RunAt) {
			due = j
		}
	}

	if due == nil {
		return nil, nil
	}

	due.State = StateActive
	due.Attempt++
	leaseExpiry := now.Add(visibility)
	due.LeaseExpiresAt = &leaseExpiry
	due.UpdatedAt = now

	copied := *due
	return &copied, nil
}

func (q *MemoryQueue) MarkCompleted(ctx context.Context, id uuid.UUID, result interface{}) error {
	resultJSON, err := json.Marshal(result)
	if err != nil {
		return fmt.Errorf("failed to encode result: %w", err)
	}

	q.mu.Lock()
	defer q.mu.Unlock()

	j, ok := q.jobs[id]
	if !ok {
		return models.ErrNotFound
	}

	j.State = StateCompleted
	j.Result = resultJSON
	j.LeaseExpiresAt = nil
	j.UpdatedAt = q.now()
	return nil
}

func (q *MemoryQueue) MarkFailed(ctx context.Context, id uuid.UUID, jobErr string) error {
	q.mu.Lock()
	defer q.mu.Unlock()

	j, ok := q.jobs[id]
	if !ok {
		return models.ErrNotFound
	}

	j.LastError = jobErr
	j.LeaseExpiresAt = nil
	j.UpdatedAt = q.now()

	if j.Attempt < j.MaxAttempts {
		j.State = StateDelayed
		j.RunAt = q.now().Add(retryDelay)
	} else {
		j.State = StateFailed
	}
	return nil
}

func (q *MemoryQueue) GetJob(ctx context.Context, id uuid.UUID) (*Job, error) {
	q.mu.Lock()
	defer q.mu.Unlock()

	j, ok := q.jobs[id]
	if !ok {
		return nil, models.ErrNotFound
	}

	copied := *j
	return &copied, nil
}
