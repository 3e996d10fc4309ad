package queue

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	_ "github.com/lib/pq"
	"github.com/pyronlaboratory/grapelock-sub001/internal/models"
)

// PostgresQueue stores jobs in the same database as the entities they
// reference. Leasing uses FOR UPDATE SKIP LOCKED so concurrent workers
// never double-claim a job, and an expired lease makes the job visible
// again (at-least-once redelivery after a worker crash).
type PostgresQueue struct {
	db *sql.DB
}

func NewPostgresQueue(db *sql.DB) *PostgresQueue {
	return &PostgresQueue{db: db}
}

const jobColumns = `id, kind, payload, status, attempt, max_attempts,
	COALESCE(last_error, ''), result, lease_expires_at, run_at, created_at, updated_at`

func scanJob(row interface{ Scan(...interface{}) error }) (*Job, error) {
	var j Job
	err := row.Scan(
		&j.ID, &j.Kind, &j.Payload, &j.State, &j.Attempt, &j.MaxAttempts,
		&j.LastError, &j.Result, &j.LeaseExpiresAt, &j.RunAt, &j.CreatedAt, &j.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &j, nil
}

func (q *PostgresQueue) Enqueue(ctx context.Context, kind Kind, payload interface{}, maxAttempts int) (uuid.UUID, error) {
	payloadJSON, err := json.Marshal(payload)
	if err != nil {
		return uuid.Nil, fmt.Errorf("failed to encode payload: %w", err)
	}

	id := uuid.New()
	_, err = q.db.ExecContext(ctx, `
		INSERT INTO jobs (id, kind, payload, status, max_attempts)
		VALUES ($1, $2, $3, $4, $5)
	`, id, kind, payloadJSON, StateWaiting, maxAttempts)
	if err != nil {
		return uuid.Nil, fmt.Errorf("failed to enqueue job: %w", err)
	}

	return id, nil
}

func (q *PostgresQueue) FetchAndLease(ctx context.Context, visibility time.Duration) (*Job, error) {
	tx, err := q.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	row := tx.QueryRowContext(ctx, `
		SELECT `+jobColumns+` FROM jobs
		WHERE status IN ($1, $2, $3)
		  AND run_at <= NOW()
		  AND (lease_expires_at IS NULL OR lease_expires_at <= NOW())
		ORDER BY run_at ASC, created_at ASC
		FOR UPDATE SKIP LOCKED
		LIMIT 1
	`, StateWaiting, StateDelayed, StateActive)

	j, err := scanJob(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to fetch job: %w", err)
	}

	leaseExpiry := time.Now().Add(visibility)
	row = tx.QueryRowContext(ctx, `
		UPDATE jobs
		SET status = $1, attempt = attempt + 1, lease_expires_at = $2, updated_at = NOW()
		WHERE id = $3
		RETURNING `+jobColumns,
		StateActive, leaseExpiry, j.ID,
	)
	leased, err := scanJob(row)
	if err != nil {
		return nil, fmt.Errorf("failed to lease job: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit lease: %w", err)
	}

	return leased, nil
}

func (q *PostgresQueue) MarkCompleted(ctx context.Context, id uuid.UUID, result interface{}) error {
	resultJSON, err := json.Marshal(result)
	if err != nil {
		return fmt.Errorf("failed to encode result: %w", err)
	}

	_, err = q.db.ExecContext(ctx, `
		UPDATE jobs
		SET status = $1, result = $2, lease_expires_at = NULL, updated_at = NOW()
		WHERE id = $3
	`, StateCompleted, resultJSON, id)
	if err != nil {
		return fmt.Errorf("failed to mark job completed: %w", err)
	}
	return nil
}

func (q *PostgresQueue) MarkFailed(ctx context.Context, id uuid.UUID, jobErr string) error {
	j, err := q.GetJob(ctx, id)
	if err != nil {
		return err
	}

	state := StateFailed
	runAt := j.RunAt
	if j.Attempt < j.MaxAttempts {
		state = StateDelayed
		runAt = time.Now().Add(retryDelay)
	}

	_, err = q.db.ExecContext(ctx, `
		UPDATE jobs
		SET status = $1, last_error = $2, run_at = $3, lease_expires_at = NULL, updated_at = NOW()
		WHERE id = $4
	`, state, jobErr, runAt, id)
	if err != nil {
		return fmt.Errorf("failed to mark job failed: %w", err)
	}
	return nil
}

func (q *PostgresQueue) GetJob(ctx context.Context, id uuid.UUID) (*Job, error) {
	row := q.db.QueryRowContext(ctx, `SELECT `+jobColumns+` FROM jobs WHERE id = $1`, id)
	j, err := scanJob(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, models.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get job: %w", err)
	}
	return j, nil
}
