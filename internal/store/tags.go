package store

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/pyronlaboratory/grapelock-sub001/internal/models"
)

const tagColumns = `id, chip_id, manufacturer, status, last_verified_at,
	verification_count, tamper_history, created_at, updated_at`

func scanTag(row interface{ Scan(...interface{}) error }) (*models.Tag, error) {
	var t models.Tag
	err := row.Scan(
		&t.ID, &t.ChipID, &t.Manufacturer, &t.Status, &t.LastVerifiedAt,
		&t.VerificationCount, &t.TamperHistory, &t.CreatedAt, &t.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

func (c *Client) GetTagByChipID(chipID string) (*models.Tag, error) {
	row := c.db.QueryRow(`SELECT `+tagColumns+` FROM tags WHERE chip_id = $1`, chipID)
	t, err := scanTag(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, models.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get tag: %w", err)
	}
	return t, nil
}

// UpsertTagVerification records a verification event: the tag is created
// on first sight, and its counter and last-verified timestamp advance on
// every subsequent event.
func (c *Client) UpsertTagVerification(chipID, manufacturer string, status models.TagStatus) (*models.Tag, error) {
	row := c.db.QueryRow(`
		INSERT INTO tags (id, chip_id, manufacturer, status, last_verified_at, verification_count)
		VALUES ($1, $2, $3, $4, NOW(), 1)
		ON CONFLICT (chip_id) DO UPDATE
		SET status = CASE WHEN tags.status IN ('TAMPERED', 'DEACTIVATED') THEN tags.status ELSE EXCLUDED.status END,
			last_verified_at = NOW(),
			verification_count = tags.verification_count + 1,
			updated_at = NOW()
		RETURNING `+tagColumns,
		uuid.New(), chipID, manufacturer, status,
	)
	t, err := scanTag(row)
	if err != nil {
		return nil, fmt.Errorf("failed to upsert tag: %w", err)
	}
	return t, nil
}

// DeactivateTag retires a chip. Only an ACTIVE tag can be deactivated;
// a tampered one stays tampered.
func (c *Client) DeactivateTag(chipID string) (*models.Tag, error) {
	row := c.db.QueryRow(`
		UPDATE tags SET status = $1, updated_at = NOW()
		WHERE chip_id = $2 AND status = $3
		RETURNING `+tagColumns,
		models.TagStatusDeactivated, chipID, models.TagStatusActive,
	)
	t, err := scanTag(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			if _, getErr := c.GetTagByChipID(chipID); getErr != nil {
				return nil, getErr
			}
			return nil, fmt.Errorf("tag %s is not active: %w", chipID, models.ErrInvalidStateTransition)
		}
		return nil, fmt.Errorf("failed to deactivate tag: %w", err)
	}
	return t, nil
}

// RecordTagTamper appends a tamper event and flips the tag to TAMPERED.
func (c *Client) RecordTagTamper(chipID, detail string) (*models.Tag, error) {
	row := c.db.QueryRow(`
		UPDATE tags
		SET status = $1,
			tamper_history = tamper_history || jsonb_build_array(
				jsonb_build_object('detected_at', NOW(), 'detail', $2::text)),
			updated_at = NOW()
		WHERE chip_id = $3
		RETURNING `+tagColumns,
		models.TagStatusTampered, detail, chipID,
	)
	t, err := scanTag(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, models.ErrNotFound
		}
		return nil, fmt.Errorf("failed to record tamper: %w", err)
	}
	return t, nil
}
