// Package processors holds the per-kind job executors. Each processor
// owns the entity its job references: it uploads off-chain metadata,
// submits the on-chain transaction stamped with a fresh checkpoint, and
// drives the entity's status to a terminal state.
package processors

import (
	"github.com/google/uuid"
	"github.com/pyronlaboratory/grapelock-sub001/internal/chain"
	"github.com/pyronlaboratory/grapelock-sub001/internal/models"
)

// MetadataUploader uploads an off-chain metadata document and returns
// its public URI.
type MetadataUploader interface {
	UploadMetadata(entityKind string, entityID uuid.UUID, doc interface{}) (string, error)
}

// TransactionSubmitter signs and broadcasts a prepared transaction.
type TransactionSubmitter interface {
	SubmitTransaction(tx *chain.Transaction) (*chain.SubmitResult, error)
}

// CheckpointSource yields a checkpoint fresh enough to stamp a
// transaction with.
type CheckpointSource interface {
	Get() (*chain.Checkpoint, error)
}

// metadataDoc is the off-chain JSON document the on-chain record points
// at.
type metadataDoc struct {
	Name                 string                `json:"name"`
	Symbol               string                `json:"symbol"`
	Description          string                `json:"description,omitempty"`
	Image                string                `json:"image"`
	SellerFeeBasisPoints int                   `json:"seller_fee_basis_points"`
	Attributes           []models.NFTAttribute `json:"attributes,omitempty"`
}
