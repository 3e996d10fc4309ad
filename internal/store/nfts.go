package store

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/pyronlaboratory/grapelock-sub001/internal/models"
)

const nftColumns = `id, collection_id, name, symbol, description, media_uri, metadata_uri,
	seller_fee_basis_points, type, max_supply, attributes,
	creator_address, owner_address,
	mint_address, token_address, metadata_address, master_edition_address,
	chip_id, status, tx_signature, error_message, created_at, updated_at`

func scanNFT(row interface{ Scan(...interface{}) error }) (*models.NFT, error) {
	var n models.NFT
	err := row.Scan(
		&n.ID, &n.CollectionID, &n.Name, &n.Symbol, &n.Description, &n.MediaURI, &n.MetadataURI,
		&n.SellerFeeBasisPoints, &n.Type, &n.MaxSupply, &n.Attributes,
		&n.CreatorAddress, &n.OwnerAddress,
		&n.MintAddress, &n.TokenAddress, &n.MetadataAddress, &n.MasterEditionAddress,
		&n.ChipID, &n.Status, &n.TxSignature, &n.ErrorMessage, &n.CreatedAt, &n.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &n, nil
}

func (c *Client) CreateNFT(n *models.NFT) (*models.NFT, error) {
	attributes := n.Attributes
	if attributes == nil {
		attributes = []byte("[]")
	}
	row := c.db.QueryRow(`
		INSERT INTO nfts (id, collection_id, name, symbol, description, media_uri,
			seller_fee_basis_points, type, max_supply, attributes,
			creator_address, owner_address, status)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
		RETURNING `+nftColumns,
		n.ID, n.CollectionID, n.Name, n.Symbol, n.Description, n.MediaURI,
		n.SellerFeeBasisPoints, n.Type, n.MaxSupply, attributes,
		n.CreatorAddress, n.OwnerAddress, models.NFTStatusPending,
	)
	created, err := scanNFT(row)
	if err != nil {
		return nil, fmt.Errorf("failed to create nft: %w", err)
	}
	return created, nil
}

func (c *Client) GetNFT(id uuid.UUID) (*models.NFT, error) {
	row := c.db.QueryRow(`SELECT `+nftColumns+` FROM nfts WHERE id = $1`, id)
	n, err := scanNFT(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, models.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get nft: %w", err)
	}
	return n, nil
}

// ListNFTs filters by collection, owner and status; empty arguments are
// ignored.
func (c *Client) ListNFTs(collectionID *uuid.UUID, ownerAddress string, status models.NFTStatus) ([]models.NFT, error) {
	query := `SELECT ` + nftColumns + ` FROM nfts WHERE 1=1`
	args := []interface{}{}
	if collectionID != nil {
		args = append(args, *collectionID)
		query += fmt.Sprintf(` AND collection_id = $%d`, len(args))
	}
	if ownerAddress != "" {
		args = append(args, ownerAddress)
		query += fmt.Sprintf(` AND owner_address = $%d`, len(args))
	}
	if status != "" {
		args = append(args, status)
		query += fmt.Sprintf(` AND status = $%d`, len(args))
	}
	query += ` ORDER BY created_at DESC`

	rows, err := c.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list nfts: %w", err)
	}
	defer rows.Close()

	var nfts []models.NFT
	for rows.Next() {
		n, err := scanNFT(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan nft: %w", err)
		}
		nfts = append(nfts, *n)
	}
	return nfts, rows.Err()
}

// UpdateNFTStatus moves an NFT to a new status after checking the
// transition table.
func (c *Client) UpdateNFTStatus(id uuid.UUID, to models.NFTStatus) (*models.NFT, error) {
	cur, err := c.GetNFT(id)
	if err != nil {
		return nil, err
	}
	if !models.NFTCanTransition(cur.Status, to) {
		return nil, fmt.Errorf("nft %s: %s -> %s: %w",
			id, cur.Status, to, models.ErrInvalidStateTransition)
	}

	row := c.db.QueryRow(`
		UPDATE nfts SET status = $1, updated_at = NOW()
		WHERE id = $2 AND status = $3
		RETURNING `+nftColumns,
		to, id, cur.Status,
	)
	updated, err := scanNFT(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, models.ErrNotFound
		}
		return nil, fmt.Errorf("failed to update nft status: %w", err)
	}
	return updated, nil
}

// MarkNFTMinted records the on-chain addresses and signature produced by
// a successful mint transaction.
func (c *Client) MarkNFTMinted(id uuid.UUID, metadataURI, mintAddr, tokenAddr, metadataAddr, masterEditionAddr, txSignature string) (*models.NFT, error) {
	cur, err := c.GetNFT(id)
	if err != nil {
		return nil, err
	}
	if !models.NFTCanTransition(cur.Status, models.NFTStatusMinted) {
		return nil, fmt.Errorf("nft %s: %s -> %s: %w",
			id, cur.Status, models.NFTStatusMinted, models.ErrInvalidStateTransition)
	}

	row := c.db.QueryRow(`
		UPDATE nfts
		SET status = $1, metadata_uri = $2, mint_address = $3, token_address = $4,
			metadata_address = $5, master_edition_address = $6, tx_signature = $7,
			error_message = NULL, updated_at = NOW()
		WHERE id = $8
		RETURNING `+nftColumns,
		models.NFTStatusMinted, metadataURI, mintAddr, tokenAddr,
		metadataAddr, masterEditionAddr, txSignature, id,
	)
	updated, err := scanNFT(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, models.ErrNotFound
		}
		return nil, fmt.Errorf("failed to mark nft minted: %w", err)
	}
	return updated, nil
}

// MarkNFTFailed records the processor error. The transition table applies
// like everywhere else, so only a processing NFT can fail.
func (c *Client) MarkNFTFailed(id uuid.UUID, errorMsg string) error {
	cur, err := c.GetNFT(id)
	if err != nil {
		return err
	}
	if !models.NFTCanTransition(cur.Status, models.NFTStatusFailed) {
		return fmt.Errorf("nft %s: %s -> %s: %w",
			id, cur.Status, models.NFTStatusFailed, models.ErrInvalidStateTransition)
	}

	_, err = c.db.Exec(`
		UPDATE nfts SET status = $1, error_message = $2, updated_at = NOW()
		WHERE id = $3 AND status = $4
	`, models.NFTStatusFailed, errorMsg, id, cur.Status)
	return err
}

func (c *Client) SetNFTMetadataURI(id uuid.UUID, uri string) error {
	_, err := c.db.Exec(`
		UPDATE nfts SET metadata_uri = $1, updated_at = NOW()
		WHERE id = $2
	`, uri, id)
	return err
}

// LinkNFTChip binds a physical chip id and moves the NFT to linked.
func (c *Client) LinkNFTChip(id uuid.UUID, chipID string) (*models.NFT, error) {
	cur, err := c.GetNFT(id)
	if err != nil {
		return nil, err
	}
	if !models.NFTCanTransition(cur.Status, models.NFTStatusLinked) {
		return nil, fmt.Errorf("nft %s: %s -> %s: %w",
			id, cur.Status, models.NFTStatusLinked, models.ErrInvalidStateTransition)
	}

	row := c.db.QueryRow(`
		UPDATE nfts SET status = $1, chip_id = $2, updated_at = NOW()
		WHERE id = $3
		RETURNING `+nftColumns,
		models.NFTStatusLinked, chipID, id,
	)
	updated, err := scanNFT(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, models.ErrNotFound
		}
		return nil, fmt.Errorf("failed to link nft chip: %w", err)
	}
	return updated, nil
}
