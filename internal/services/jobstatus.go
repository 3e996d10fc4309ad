// Package services holds the orchestration between the HTTP layer, the
// queue and the entity store: job status resolution, order settlement
// and physical-asset verification.
package services

import (
	"context"
	"encoding/json"
	"log"

	"github.com/google/uuid"
	"github.com/pyronlaboratory/grapelock-sub001/internal/models"
	"github.com/pyronlaboratory/grapelock-sub001/internal/queue"
)

// Externally reported job statuses, derived from the queue-native state.
const (
	JobStatusQueued     = "queued"
	JobStatusProcessing = "processing"
	JobStatusCompleted  = "completed"
	JobStatusFailed     = "failed"
)

// EntityReader is the read-only slice of the store the resolver uses for
// the best-effort result lookup.
type EntityReader interface {
	GetCollection(id uuid.UUID) (*models.Collection, error)
	GetNFT(id uuid.UUID) (*models.NFT, error)
}

// JobStatusResolver maps a job's queue-native state plus the produced
// entity's persisted record into the externally reported status.
type JobStatusResolver struct {
	queue queue.Queue
	store EntityReader
}

func NewJobStatusResolver(q queue.Queue, store EntityReader) *JobStatusResolver {
	return &JobStatusResolver{queue: q, store: store}
}

// Resolve returns the external status for a job, attaching the produced
// entity as result when the job completed. The read-back is best-effort:
// a failed lookup drops the result but the status stays completed.
func (r *JobStatusResolver) Resolve(ctx context.Context, jobID uuid.UUID) (*models.JobStatusResponse, error) {
	j, err := r.queue.GetJob(ctx, jobID)
	if err != nil {
		return nil, err
	}

	resp := &models.JobStatusResponse{
		JobID:  j.ID.String(),
		Status: externalStatus(j.State),
	}

	if resp.Status == JobStatusCompleted {
		resp.Result = r.lookupResult(j)
	}

	return resp, nil
}

func externalStatus(state queue.State) string {
	switch state {
	case queue.StateWaiting, queue.StateDelayed:
		return JobStatusQueued
	case queue.StateActive:
		return JobStatusProcessing
	case queue.StateCompleted:
		return JobStatusCompleted
	default:
		return JobStatusFailed
	}
}

func (r *JobStatusResolver) lookupResult(j *queue.Job) interface{} {
	var ref struct {
		CollectionID *uuid.UUID `json:"collection_id"`
		NFTID        *uuid.UUID `json:"nft_id"`
	}
	if err := json.Unmarshal(j.Result, &ref); err != nil {
		log.Printf("Job %s has undecodable result payload: %v", j.ID, err)
		return nil
	}

	switch {
	case ref.CollectionID != nil:
		col, err := r.store.GetCollection(*ref.CollectionID)
		if err != nil {
			log.Printf("Job %s result lookup failed: %v", j.ID, err)
			return nil
		}
		return col.ToResponse()
	case ref.NFTID != nil:
		nft, err := r.store.GetNFT(*ref.NFTID)
		if err != nil {
			log.Printf("Job %s result lookup failed: %v", j.ID, err)
			return nil
		}
		return nft.ToResponse()
	}
	return nil
}
