package store

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/pyronlaboratory/grapelock-sub001/internal/models"
)

const collectionColumns = `id, name, symbol, description, media_uri, metadata_uri,
	seller_fee_basis_points, attributes, creator_address, owner_address,
	mint_address, token_address, metadata_address, master_edition_address,
	status, tx_signature, error_message, created_at, updated_at`

func scanCollection(row interface{ Scan(...interface{}) error }) (*models.Collection, error) {
	var c models.Collection
	err := row.Scan(
		&c.ID, &c.Name, &c.Symbol, &c.Description, &c.MediaURI, &c.MetadataURI,
		&c.SellerFeeBasisPoints, &c.Attributes, &c.CreatorAddress, &c.OwnerAddress,
		&c.MintAddress, &c.TokenAddress, &c.MetadataAddress, &c.MasterEditionAddress,
		&c.Status, &c.TxSignature, &c.ErrorMessage, &c.CreatedAt, &c.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &c, nil
}

func (c *Client) CreateCollection(col *models.Collection) (*models.Collection, error) {
	attributes := col.Attributes
	if attributes == nil {
		attributes = []byte("[]")
	}
	row := c.db.QueryRow(`
		INSERT INTO collections (id, name, symbol, description, media_uri,
			seller_fee_basis_points, attributes, creator_address, owner_address, status)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING `+collectionColumns,
		col.ID, col.Name, col.Symbol, col.Description, col.MediaURI,
		col.SellerFeeBasisPoints, attributes, col.CreatorAddress, col.OwnerAddress,
		models.CollectionStatusPending,
	)
	created, err := scanCollection(row)
	if err != nil {
		return nil, fmt.Errorf("failed to create collection: %w", err)
	}
	return created, nil
}

func (c *Client) GetCollection(id uuid.UUID) (*models.Collection, error) {
	row := c.db.QueryRow(`SELECT `+collectionColumns+` FROM collections WHERE id = $1`, id)
	col, err := scanCollection(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, models.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get collection: %w", err)
	}
	return col, nil
}

func (c *Client) ListCollections(creatorAddress string) ([]models.Collection, error) {
	query := `SELECT ` + collectionColumns + ` FROM collections`
	args := []interface{}{}
	if creatorAddress != "" {
		query += ` WHERE creator_address = $1`
		args = append(args, creatorAddress)
	}
	query += ` ORDER BY created_at DESC`

	rows, err := c.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list collections: %w", err)
	}
	defer rows.Close()

	var cols []models.Collection
	for rows.Next() {
		col, err := scanCollection(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan collection: %w", err)
		}
		cols = append(cols, *col)
	}
	return cols, rows.Err()
}

// UpdateCollectionStatus moves a collection to a new status after
// checking the transition table. The WHERE clause re-checks the current
// status so a concurrent writer cannot skip a state.
func (c *Client) UpdateCollectionStatus(id uuid.UUID, to models.CollectionStatus) (*models.Collection, error) {
	cur, err := c.GetCollection(id)
	if err != nil {
		return nil, err
	}
	if !models.CollectionCanTransition(cur.Status, to) {
		return nil, fmt.Errorf("collection %s: %s -> %s: %w",
			id, cur.Status, to, models.ErrInvalidStateTransition)
	}

	row := c.db.QueryRow(`
		UPDATE collections SET status = $1, updated_at = NOW()
		WHERE id = $2 AND status = $3
		RETURNING `+collectionColumns,
		to, id, cur.Status,
	)
	updated, err := scanCollection(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, models.ErrNotFound
		}
		return nil, fmt.Errorf("failed to update collection status: %w", err)
	}
	return updated, nil
}

// MarkCollectionPublished records the on-chain addresses and signature
// produced by a successful create transaction.
func (c *Client) MarkCollectionPublished(id uuid.UUID, metadataURI, mintAddr, tokenAddr, metadataAddr, masterEditionAddr, txSignature string) (*models.Collection, error) {
	cur, err := c.GetCollection(id)
	if err != nil {
		return nil, err
	}
	if !models.CollectionCanTransition(cur.Status, models.CollectionStatusPublished) {
		return nil, fmt.Errorf("collection %s: %s -> %s: %w",
			id, cur.Status, models.CollectionStatusPublished, models.ErrInvalidStateTransition)
	}

	row := c.db.QueryRow(`
		UPDATE collections
		SET status = $1, metadata_uri = $2, mint_address = $3, token_address = $4,
			metadata_address = $5, master_edition_address = $6, tx_signature = $7,
			error_message = NULL, updated_at = NOW()
		WHERE id = $8
		RETURNING `+collectionColumns,
		models.CollectionStatusPublished, metadataURI, mintAddr, tokenAddr,
		metadataAddr, masterEditionAddr, txSignature, id,
	)
	updated, err := scanCollection(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, models.ErrNotFound
		}
		return nil, fmt.Errorf("failed to mark collection published: %w", err)
	}
	return updated, nil
}

// MarkCollectionFailed records the processor error. The transition table
// applies like everywhere else, so only a processing collection can fail.
// Partial progress (e.g. an uploaded metadata URI) is left in place for
// inspection.
func (c *Client) MarkCollectionFailed(id uuid.UUID, errorMsg string) error {
	cur, err := c.GetCollection(id)
	if err != nil {
		return err
	}
	if !models.CollectionCanTransition(cur.Status, models.CollectionStatusFailed) {
		return fmt.Errorf("collection %s: %s -> %s: %w",
			id, cur.Status, models.CollectionStatusFailed, models.ErrInvalidStateTransition)
	}

	_, err = c.db.Exec(`
		UPDATE collections SET status = $1, error_message = $2, updated_at = NOW()
		WHERE id = $3 AND status = $4
	`, models.CollectionStatusFailed, errorMsg, id, cur.Status)
	return err
}

// SetCollectionMetadataURI persists the uploaded metadata location
// before the transaction is submitted.
func (c *Client) SetCollectionMetadataURI(id uuid.UUID, uri string) error {
	_, err := c.db.Exec(`
		UPDATE collections SET metadata_uri = $1, updated_at = NOW()
		WHERE id = $2
	`, uri, id)
	return err
}
