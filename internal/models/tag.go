package models

import (
	"database/sql"
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// TagStatus is the state of a physical-asset authenticator chip.
type TagStatus string

const (
	TagStatusActive      TagStatus = "ACTIVE"
	TagStatusTampered    TagStatus = "TAMPERED"
	TagStatusDeactivated TagStatus = "DEACTIVATED"
)

type Tag struct {
	ID                uuid.UUID
	ChipID            string
	Manufacturer      string
	Status            TagStatus
	LastVerifiedAt    sql.NullTime
	VerificationCount int
	TamperHistory     json.RawMessage
	CreatedAt         time.Time
	UpdatedAt         time.Time
}

// TamperEvent is one entry of a tag's tamper history, stored as JSON.
type TamperEvent struct {
	DetectedAt time.Time `json:"detected_at"`
	Detail     string    `json:"detail"`
}
