package models

import (
	"database/sql"
	"time"

	"github.com/google/uuid"
)

// OfferStatus is the lifecycle state of a sale offer.
type OfferStatus string

const (
	OfferStatusOpen       OfferStatus = "open"
	OfferStatusInProgress OfferStatus = "in_progress"
	OfferStatusClosed     OfferStatus = "closed"
	OfferStatusCompleted  OfferStatus = "completed"
	OfferStatusFailed     OfferStatus = "failed"
)

type Offer struct {
	ID                uuid.UUID
	NFTID             uuid.UUID
	SellingPrice      int64
	ProducerAddress   string
	ConsumerAddress   sql.NullString
	ProducerTokenMint sql.NullString
	ProducerVault     sql.NullString
	ConsumerTokenMint sql.NullString
	ConsumerVault     sql.NullString
	Status            OfferStatus
	TxSignature       sql.NullString
	CreatedAt         time.Time
	UpdatedAt         time.Time
}
