package processors

import (
	"context"
	"encoding/json"
	"fmt"
	"log"

	"github.com/google/uuid"
	"github.com/pyronlaboratory/grapelock-sub001/internal/chain"
	"github.com/pyronlaboratory/grapelock-sub001/internal/models"
	"github.com/pyronlaboratory/grapelock-sub001/internal/queue"
	"github.com/pyronlaboratory/grapelock-sub001/internal/realtime"
)

// CollectionStore is the slice of the entity store the collection
// processor writes through.
type CollectionStore interface {
	GetCollection(id uuid.UUID) (*models.Collection, error)
	UpdateCollectionStatus(id uuid.UUID, to models.CollectionStatus) (*models.Collection, error)
	SetCollectionMetadataURI(id uuid.UUID, uri string) error
	MarkCollectionPublished(id uuid.UUID, metadataURI, mintAddr, tokenAddr, metadataAddr, masterEditionAddr, txSignature string) (*models.Collection, error)
	MarkCollectionFailed(id uuid.UUID, errorMsg string) error
}

// CollectionJobPayload references the pending collection a job creates
// on-chain.
type CollectionJobPayload struct {
	CollectionID uuid.UUID `json:"collection_id"`
}

// CollectionJobResult is attached to the completed job for status polls.
type CollectionJobResult struct {
	CollectionID uuid.UUID `json:"collection_id"`
}

type CollectionCreationProcessor struct {
	store       CollectionStore
	uploader    MetadataUploader
	submitter   TransactionSubmitter
	checkpoints CheckpointSource
	publisher   *realtime.Client
}

func NewCollectionCreationProcessor(
	store CollectionStore,
	uploader MetadataUploader,
	submitter TransactionSubmitter,
	checkpoints CheckpointSource,
	publisher *realtime.Client,
) *CollectionCreationProcessor {
	return &CollectionCreationProcessor{
		store:       store,
		uploader:    uploader,
		submitter:   submitter,
		checkpoints: checkpoints,
		publisher:   publisher,
	}
}

func (p *CollectionCreationProcessor) Kind() queue.Kind {
	return queue.KindCreateCollection
}

func (p *CollectionCreationProcessor) Process(ctx context.Context, payload json.RawMessage) (interface{}, error) {
	var jobPayload CollectionJobPayload
	if err := json.Unmarshal(payload, &jobPayload); err != nil {
		return nil, fmt.Errorf("failed to decode job payload: %w", err)
	}

	col, err := p.store.GetCollection(jobPayload.CollectionID)
	if err != nil {
		return nil, fmt.Errorf("failed to load collection: %w", err)
	}

	// Re-delivery guard: the queue is at-least-once, so a terminal
	// collection must not be resubmitted. A published one completes the
	// job; a failed one re-signals the recorded failure.
	if col.Status == models.CollectionStatusPublished {
		return CollectionJobResult{CollectionID: col.ID}, nil
	}
	if col.IsTerminal() {
		return nil, fmt.Errorf("collection %s already terminal in status %s: %s",
			col.ID, col.Status, col.ErrorMessage.String)
	}

	// A redelivered job may find the collection already in processing
	// (worker died mid-run); resume without re-transitioning.
	if col.Status != models.CollectionStatusProcessing {
		if col, err = p.store.UpdateCollectionStatus(col.ID, models.CollectionStatusProcessing); err != nil {
			return nil, fmt.Errorf("failed to mark collection processing: %w", err)
		}
	}

	metadataURI, err := p.uploadMetadata(col)
	if err != nil {
		return nil, p.fail(col.ID, fmt.Errorf("metadata upload: %w", err))
	}

	result, err := p.submit(col, metadataURI)
	if err != nil {
		return nil, p.fail(col.ID, fmt.Errorf("transaction submit: %w", err))
	}

	updated, err := p.store.MarkCollectionPublished(col.ID, metadataURI,
		result.MintAddress, result.TokenAddress, result.MetadataAddress,
		result.MasterEditionAddress, result.Signature)
	if err != nil {
		return nil, p.fail(col.ID, fmt.Errorf("persist publish: %w", err))
	}

	if p.publisher != nil {
		p.publisher.PublishCollectionEvent(updated.ID, "collection_published",
			realtime.CollectionPublishedPayload(updated.ID, result.Signature))
	}

	return CollectionJobResult{CollectionID: updated.ID}, nil
}

func (p *CollectionCreationProcessor) uploadMetadata(col *models.Collection) (string, error) {
	var attrs []models.NFTAttribute
	if len(col.Attributes) > 0 {
		if err := json.Unmarshal(col.Attributes, &attrs); err != nil {
			return "", fmt.Errorf("decode attributes: %w", err)
		}
	}

	doc := metadataDoc{
		Name:                 col.Name,
		Symbol:               col.Symbol,
		Description:          col.Description,
		Image:                col.MediaURI,
		SellerFeeBasisPoints: col.SellerFeeBasisPoints,
		Attributes:           attrs,
	}

	uri, err := p.uploader.UploadMetadata("collections", col.ID, doc)
	if err != nil {
		return "", err
	}

	// Persist before the transaction so a later failure leaves the
	// partial progress visible to operators.
	if err := p.store.SetCollectionMetadataURI(col.ID, uri); err != nil {
		return "", err
	}

	return uri, nil
}

func (p *CollectionCreationProcessor) submit(col *models.Collection, metadataURI string) (*chain.SubmitResult, error) {
	cp, err := p.checkpoints.Get()
	if err != nil {
		return nil, fmt.Errorf("checkpoint fetch: %w", err)
	}

	tx := &chain.Transaction{
		Kind:                 chain.TxCreateCollection,
		Checkpoint:           cp.Value,
		LastValidHeight:      cp.LastValidHeight,
		CreatorAddress:       col.CreatorAddress,
		OwnerAddress:         col.OwnerAddress,
		SellerFeeBasisPoints: col.SellerFeeBasisPoints,
		MetadataURI:          metadataURI,
		Name:                 col.Name,
		Symbol:               col.Symbol,
	}

	return p.submitter.SubmitTransaction(tx)
}

// fail records the error on the collection and re-signals it so the
// queue's retry budget applies. Partial progress is not rolled back.
func (p *CollectionCreationProcessor) fail(id uuid.UUID, cause error) error {
	if err := p.store.MarkCollectionFailed(id, cause.Error()); err != nil {
		log.Printf("Failed to record collection %s failure: %v", id, err)
	}
	if p.publisher != nil {
		p.publisher.PublishCollectionEvent(id, "collection_failed",
			realtime.CollectionFailedPayload(id, cause.Error()))
	}
	return fmt.Errorf("%w: %s", models.ErrUpstreamFailure, cause.Error())
}
