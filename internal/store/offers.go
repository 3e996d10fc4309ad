package store

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/pyronlaboratory/grapelock-sub001/internal/models"
)

const offerColumns = `id, nft_id, selling_price, producer_address, consumer_address,
	producer_token_mint, producer_vault, consumer_token_mint, consumer_vault,
	status, tx_signature, created_at, updated_at`

func scanOffer(row interface{ Scan(...interface{}) error }) (*models.Offer, error) {
	var o models.Offer
	err := row.Scan(
		&o.ID, &o.NFTID, &o.SellingPrice, &o.ProducerAddress, &o.ConsumerAddress,
		&o.ProducerTokenMint, &o.ProducerVault, &o.ConsumerTokenMint, &o.ConsumerVault,
		&o.Status, &o.TxSignature, &o.CreatedAt, &o.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &o, nil
}

func (c *Client) CreateOffer(o *models.Offer) (*models.Offer, error) {
	row := c.db.QueryRow(`
		INSERT INTO offers (id, nft_id, selling_price, producer_address,
			producer_token_mint, producer_vault, status)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING `+offerColumns,
		o.ID, o.NFTID, o.SellingPrice, o.ProducerAddress,
		o.ProducerTokenMint, o.ProducerVault, models.OfferStatusOpen,
	)
	created, err := scanOffer(row)
	if err != nil {
		return nil, fmt.Errorf("failed to create offer: %w", err)
	}
	return created, nil
}

func (c *Client) GetOffer(id uuid.UUID) (*models.Offer, error) {
	row := c.db.QueryRow(`SELECT `+offerColumns+` FROM offers WHERE id = $1`, id)
	o, err := scanOffer(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, models.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get offer: %w", err)
	}
	return o, nil
}

// ListOpenOffers returns offers visible to buyers: status open and the
// referenced NFT in circulation.
func (c *Client) ListOpenOffers() ([]models.Offer, error) {
	rows, err := c.db.Query(`
		SELECT `+qualify(offerColumns, "o")+`
		FROM offers o
		JOIN nfts n ON n.id = o.nft_id
		WHERE o.status = $1 AND n.status = $2
		ORDER BY o.created_at DESC
	`, models.OfferStatusOpen, models.NFTStatusInCirculation)
	if err != nil {
		return nil, fmt.Errorf("failed to list open offers: %w", err)
	}
	defer rows.Close()

	var offers []models.Offer
	for rows.Next() {
		o, err := scanOffer(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan offer: %w", err)
		}
		offers = append(offers, *o)
	}
	return offers, rows.Err()
}

func (c *Client) ListOffersByProducer(producerAddress string) ([]models.Offer, error) {
	rows, err := c.db.Query(`
		SELECT `+offerColumns+` FROM offers
		WHERE producer_address = $1
		ORDER BY created_at DESC
	`, producerAddress)
	if err != nil {
		return nil, fmt.Errorf("failed to list offers: %w", err)
	}
	defer rows.Close()

	var offers []models.Offer
	for rows.Next() {
		o, err := scanOffer(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan offer: %w", err)
		}
		offers = append(offers, *o)
	}
	return offers, rows.Err()
}

// ReserveOffer moves an open offer to in_progress and records the buyer
// side, so listings drop it and settlement knows who is purchasing.
func (c *Client) ReserveOffer(id uuid.UUID, consumerAddress, consumerTokenMint, consumerVault string) (*models.Offer, error) {
	cur, err := c.GetOffer(id)
	if err != nil {
		return nil, err
	}
	if !models.OfferCanTransition(cur.Status, models.OfferStatusInProgress) {
		return nil, fmt.Errorf("offer %s: %s -> %s: %w",
			id, cur.Status, models.OfferStatusInProgress, models.ErrInvalidStateTransition)
	}

	row := c.db.QueryRow(`
		UPDATE offers
		SET status = $1, consumer_address = $2,
			consumer_token_mint = NULLIF($3, ''), consumer_vault = NULLIF($4, ''),
			updated_at = NOW()
		WHERE id = $5 AND status = $6
		RETURNING `+offerColumns,
		models.OfferStatusInProgress, consumerAddress, consumerTokenMint, consumerVault,
		id, cur.Status,
	)
	updated, err := scanOffer(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, models.ErrNotFound
		}
		return nil, fmt.Errorf("failed to reserve offer: %w", err)
	}
	return updated, nil
}

// UpdateOfferStatus moves an offer to a new status after checking the
// transition table.
func (c *Client) UpdateOfferStatus(id uuid.UUID, to models.OfferStatus) (*models.Offer, error) {
	cur, err := c.GetOffer(id)
	if err != nil {
		return nil, err
	}
	if !models.OfferCanTransition(cur.Status, to) {
		return nil, fmt.Errorf("offer %s: %s -> %s: %w",
			id, cur.Status, to, models.ErrInvalidStateTransition)
	}

	row := c.db.QueryRow(`
		UPDATE offers SET status = $1, updated_at = NOW()
		WHERE id = $2 AND status = $3
		RETURNING `+offerColumns,
		to, id, cur.Status,
	)
	updated, err := scanOffer(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, models.ErrNotFound
		}
		return nil, fmt.Errorf("failed to update offer status: %w", err)
	}
	return updated, nil
}
