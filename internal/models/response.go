package models

import (
	"encoding/json"
	"time"
)

type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}

type HealthResponse struct {
	Status string `json:"status"`
}

type CollectionResponse struct {
	ID                   string          `json:"collection_id"`
	Name                 string          `json:"name"`
	Symbol               string          `json:"symbol"`
	Description          string          `json:"description,omitempty"`
	MediaURI             string          `json:"media_uri"`
	MetadataURI          string          `json:"metadata_uri,omitempty"`
	SellerFeeBasisPoints int             `json:"seller_fee_basis_points"`
	Attributes           json.RawMessage `json:"attributes,omitempty"`
	CreatorAddress       string          `json:"creator_address"`
	OwnerAddress         string          `json:"owner_address"`
	MintAddress          string          `json:"mint_address,omitempty"`
	TokenAddress         string          `json:"token_address,omitempty"`
	MetadataAddress      string          `json:"metadata_address,omitempty"`
	MasterEditionAddress string          `json:"master_edition_address,omitempty"`
	Status               string          `json:"status"`
	TxSignature          string          `json:"tx_signature,omitempty"`
	ErrorMessage         string          `json:"error_message,omitempty"`
	CreatedAt            time.Time       `json:"created_at"`
	UpdatedAt            time.Time       `json:"updated_at"`
}

func (c *Collection) ToResponse() CollectionResponse {
	return CollectionResponse{
		ID:                   c.ID.String(),
		Name:                 c.Name,
		Symbol:               c.Symbol,
		Description:          c.Description,
		MediaURI:             c.MediaURI,
		MetadataURI:          c.MetadataURI.String,
		SellerFeeBasisPoints: c.SellerFeeBasisPoints,
		Attributes:           c.Attributes,
		CreatorAddress:       c.CreatorAddress,
		OwnerAddress:         c.OwnerAddress,
		MintAddress:          c.MintAddress.String,
		TokenAddress:         c.TokenAddress.String,
		MetadataAddress:      c.MetadataAddress.String,
		MasterEditionAddress: c.MasterEditionAddress.String,
		Status:               string(c.Status),
		TxSignature:          c.TxSignature.String,
		ErrorMessage:         c.ErrorMessage.String,
		CreatedAt:            c.CreatedAt,
		UpdatedAt:            c.UpdatedAt,
	}
}

type NFTResponse struct {
	ID                   string          `json:"nft_id"`
	CollectionID         string          `json:"collection_id"`
	Name                 string          `json:"name"`
	Symbol               string          `json:"symbol"`
	Description          string          `json:"description,omitempty"`
	MediaURI             string          `json:"media_uri"`
	MetadataURI          string          `json:"metadata_uri,omitempty"`
	SellerFeeBasisPoints int             `json:"seller_fee_basis_points"`
	Type                 string          `json:"type"`
	MaxSupply            int             `json:"max_supply"`
	Attributes           json.RawMessage `json:"attributes,omitempty"`
	CreatorAddress       string          `json:"creator_address"`
	OwnerAddress         string          `json:"owner_address"`
	MintAddress          string          `json:"mint_address,omitempty"`
	TokenAddress         string          `json:"token_address,omitempty"`
	MetadataAddress      string          `json:"metadata_address,omitempty"`
	MasterEditionAddress string          `json:"master_edition_address,omitempty"`
	ChipID               string          `json:"chip_id,omitempty"`
	Status               string          `json:"status"`
	TxSignature          string          `json:"tx_signature,omitempty"`
	ErrorMessage         string          `json:"error_message,omitempty"`
	CreatedAt            time.Time       `json:"created_at"`
	UpdatedAt            time.Time       `json:"updated_at"`
}

func (n *NFT) ToResponse() NFTResponse {
	return NFTResponse{
		ID:                   n.ID.String(),
		CollectionID:         n.CollectionID.String(),
		Name:                 n.Name,
		Symbol:               n.Symbol,
		Description:          n.Description,
		MediaURI:             n.MediaURI,
		MetadataURI:          n.MetadataURI.String,
		SellerFeeBasisPoints: n.SellerFeeBasisPoints,
		Type:                 string(n.Type),
		MaxSupply:            n.MaxSupply,
		Attributes:           n.Attributes,
		CreatorAddress:       n.CreatorAddress,
		OwnerAddress:         n.OwnerAddress,
		MintAddress:          n.MintAddress.String,
		TokenAddress:         n.TokenAddress.String,
		MetadataAddress:      n.MetadataAddress.String,
		MasterEditionAddress: n.MasterEditionAddress.String,
		ChipID:               n.ChipID.String,
		Status:               string(n.Status),
		TxSignature:          n.TxSignature.String,
		ErrorMessage:         n.ErrorMessage.String,
		CreatedAt:            n.CreatedAt,
		UpdatedAt:            n.UpdatedAt,
	}
}

type OfferResponse struct {
	ID              string    `json:"offer_id"`
	NFTID           string    `json:"nft_id"`
	SellingPrice    int64     `json:"selling_price"`
	ProducerAddress string    `json:"producer_address"`
	ConsumerAddress string    `json:"consumer_address,omitempty"`
	Status          string    `json:"status"`
	TxSignature     string    `json:"tx_signature,omitempty"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

func (o *Offer) ToResponse() OfferResponse {
	return OfferResponse{
		ID:              o.ID.String(),
		NFTID:           o.NFTID.String(),
		SellingPrice:    o.SellingPrice,
		ProducerAddress: o.ProducerAddress,
		ConsumerAddress: o.ConsumerAddress.String,
		Status:          string(o.Status),
		TxSignature:     o.TxSignature.String,
		CreatedAt:       o.CreatedAt,
		UpdatedAt:       o.UpdatedAt,
	}
}

type OrderResponse struct {
	ID                string    `json:"order_id"`
	OfferID           string    `json:"offer_id"`
	ProducerPublicKey string    `json:"producer_public_key"`
	ConsumerPublicKey string    `json:"consumer_public_key"`
	Status            string    `json:"status"`
	CreatedAt         time.Time `json:"created_at"`
	UpdatedAt         time.Time `json:"updated_at"`
}

func (o *Order) ToResponse() OrderResponse {
	return OrderResponse{
		ID:                o.ID.String(),
		OfferID:           o.OfferID.String(),
		ProducerPublicKey: o.ProducerPublicKey,
		ConsumerPublicKey: o.ConsumerPublicKey,
		Status:            string(o.Status),
		CreatedAt:         o.CreatedAt,
		UpdatedAt:         o.UpdatedAt,
	}
}

type TagResponse struct {
	ID                string     `json:"tag_id"`
	ChipID            string     `json:"chip_id"`
	Manufacturer      string     `json:"manufacturer"`
	Status            string     `json:"status"`
	LastVerifiedAt    *time.Time `json:"last_verified_at,omitempty"`
	VerificationCount int        `json:"verification_count"`
	CreatedAt         time.Time  `json:"created_at"`
	UpdatedAt         time.Time  `json:"updated_at"`
}

func (t *Tag) ToResponse() TagResponse {
	resp := TagResponse{
		ID:                t.ID.String(),
		ChipID:            t.ChipID,
		Manufacturer:      t.Manufacturer,
		Status:            string(t.Status),
		VerificationCount: t.VerificationCount,
		CreatedAt:         t.CreatedAt,
		UpdatedAt:         t.UpdatedAt,
	}
	if t.LastVerifiedAt.Valid {
		resp.LastVerifiedAt = &t.LastVerifiedAt.Time
	}
	return resp
}

// SubmitResponse is returned by the asynchronous create endpoints: the
// persisted entity in pending status plus the job to poll.
type SubmitResponse struct {
	JobID  string      `json:"job_id"`
	Entity interface{} `json:"entity"`
}

// JobStatusResponse is the externally reported outcome of a job.
type JobStatusResponse struct {
	JobID  string      `json:"job_id"`
	Status string      `json:"status"`
	Result interface{} `json:"result,omitempty"`
}

// VerificationResponse is returned once a physical check registered an
// ACTIVE tag and the NFT moved to verified.
type VerificationResponse struct {
	NFT NFTResponse `json:"nft"`
	Tag TagResponse `json:"tag"`
}
