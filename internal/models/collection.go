package models

import (
	"database/sql"
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// CollectionStatus is the lifecycle state of a collection record.
type CollectionStatus string

const (
	CollectionStatusPending    CollectionStatus = "pending"
	CollectionStatusProcessing CollectionStatus = "processing"
	CollectionStatusPublished  CollectionStatus = "published"
	CollectionStatusFailed     CollectionStatus = "failed"
	CollectionStatusArchived   CollectionStatus = "archived"
)

type Collection struct {
	ID                   uuid.UUID
	Name                 string
	Symbol               string
	Description          string
	MediaURI             string
	MetadataURI          sql.NullString
	SellerFeeBasisPoints int
	Attributes           json.RawMessage
	CreatorAddress       string
	OwnerAddress         string
	MintAddress          sql.NullString
	TokenAddress         sql.NullString
	MetadataAddress      sql.NullString
	MasterEditionAddress sql.NullString
	Status               CollectionStatus
	TxSignature          sql.NullString
	ErrorMessage         sql.NullString
	CreatedAt            time.Time
	UpdatedAt            time.Time
}

// IsTerminal reports whether the collection has finished its creation
// lifecycle (a processor must not resubmit it).
func (c *Collection) IsTerminal() bool {
	switch c.Status {
	case CollectionStatusPublished, CollectionStatusFailed, CollectionStatusArchived:
		return true
	}
	return false
}
