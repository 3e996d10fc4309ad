package models

import (
	"database/sql"
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// NFTStatus is the lifecycle state of an NFT record. It is the richest
// machine in the system: minting, physical-tag linking, verification,
// sale, delivery and consumption all move through it.
type NFTStatus string

const (
	NFTStatusPending       NFTStatus = "pending"
	NFTStatusProcessing    NFTStatus = "processing"
	NFTStatusMinted        NFTStatus = "minted"
	NFTStatusFailed        NFTStatus = "failed"
	NFTStatusLinked        NFTStatus = "linked"
	NFTStatusVerified      NFTStatus = "verified"
	NFTStatusInCirculation NFTStatus = "in_circulation"
	NFTStatusDelivered     NFTStatus = "delivered"
	NFTStatusConsumed      NFTStatus = "consumed"
	NFTStatusCancelled     NFTStatus = "cancelled"
	NFTStatusBurned        NFTStatus = "burned"
)

// NFTType distinguishes one-off assets from batch records that mint
// multiple units under a single row.
type NFTType string

const (
	NFTTypeSingle NFTType = "single"
	NFTTypeBatch  NFTType = "batch"
)

type NFT struct {
	ID                   uuid.UUID
	CollectionID         uuid.UUID
	Name                 string
	Symbol               string
	Description          string
	MediaURI             string
	MetadataURI          sql.NullString
	SellerFeeBasisPoints int
	Type                 NFTType
	MaxSupply            int
	Attributes           json.RawMessage
	CreatorAddress       string
	OwnerAddress         string
	MintAddress          sql.NullString
	TokenAddress         sql.NullString
	MetadataAddress      sql.NullString
	MasterEditionAddress sql.NullString
	ChipID               sql.NullString
	Status               NFTStatus
	TxSignature          sql.NullString
	ErrorMessage         sql.NullString
	CreatedAt            time.Time
	UpdatedAt            time.Time
}

// NFTAttribute is one entry of an NFT's attribute list, stored as JSON.
type NFTAttribute struct {
	TraitType string `json:"trait_type"`
	Value     string `json:"value"`
}

// IsTerminal reports whether the mint lifecycle has finished. Later
// states (linked, verified, ...) are all past the mint, so anything but
// pending/processing counts as terminal for the mint processor.
func (n *NFT) IsTerminal() bool {
	switch n.Status {
	case NFTStatusPending, NFTStatusProcessing:
		return false
	}
	return true
}
