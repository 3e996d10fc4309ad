// Package queue is the durable job queue behind the asynchronous create
// endpoints. Delivery is at-least-once: a job is leased with a
// visibility timeout and redelivered if its worker dies, so processors
// must tolerate re-delivery.
package queue

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// Kind identifies which processor a job is dispatched to.
type Kind string

const (
	KindCreateCollection Kind = "create_collection"
	KindMintAsset        Kind = "mint_asset"
)

// Kinds lists every kind the API enqueues, for startup checks that each
// one has a processor.
func Kinds() []Kind {
	return []Kind{KindCreateCollection, KindMintAsset}
}

// State is the queue-native lifecycle of a job. The externally reported
// status is derived from it by the job status resolver.
type State string

const (
	StateWaiting   State = "waiting"
	StateActive    State = "active"
	StateCompleted State = "completed"
	StateFailed    State = "failed"
	StateDelayed   State = "delayed"
)

type Job struct {
	ID             uuid.UUID
	Kind           Kind
	Payload        json.RawMessage
	State          State
	Attempt        int
	MaxAttempts    int
	LastError      string
	Result         json.RawMessage
	LeaseExpiresAt *time.Time
	RunAt          time.Time
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// Queue is the minimal enqueue/lease/report contract. Any durable
// at-least-once queue satisfies it; the repo ships a Postgres-backed
// implementation and an in-memory one for tests.
type Queue interface {
	// Enqueue inserts a job in waiting state and returns its id.
	Enqueue(ctx context.Context, kind Kind, payload interface{}, maxAttempts int) (uuid.UUID, error)

	// FetchAndLease leases one due job, moving it to active and bumping
	// its attempt counter. Returns nil when no job is due.
	FetchAndLease(ctx context.Context, visibility time.Duration) (*Job, error)

	// MarkCompleted stores the result payload and moves the job to
	// completed.
	MarkCompleted(ctx context.Context, id uuid.UUID, result interface{}) error

	// MarkFailed records the error and either schedules a retry (delayed)
	// or, once attempts are exhausted, moves the job to failed.
	MarkFailed(ctx context.Context, id uuid.UUID, jobErr string) error

	// GetJob returns a job by id, models.ErrNotFound if unknown.
	GetJob(ctx context.Context, id uuid.UUID) (*Job, error)
}

// retryDelay spaces automatic retries out without a full backoff policy;
// the attempt budget is small (two by default).
const retryDelay = 5 * time.Second
