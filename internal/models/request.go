package models

// CreateCollectionRequest is the form submitted to start a collection
// creation job.
type CreateCollectionRequest struct {
	Name                 string         `json:"name" binding:"required"`
	Symbol               string         `json:"symbol" binding:"required"`
	Description          string         `json:"description"`
	MediaURI             string         `json:"media_uri" binding:"required"`
	SellerFeeBasisPoints int            `json:"seller_fee_basis_points"`
	CreatorAddress       string         `json:"creator_address" binding:"required"`
	OwnerAddress         string         `json:"owner_address" binding:"required"`
	Attributes           []NFTAttribute `json:"attributes,omitempty"`
}

// MintNFTRequest is the form submitted to start an asset mint job.
type MintNFTRequest struct {
	CollectionID         string         `json:"collection_id" binding:"required"`
	Name                 string         `json:"name" binding:"required"`
	Symbol               string         `json:"symbol" binding:"required"`
	Description          string         `json:"description"`
	MediaURI             string         `json:"media_uri" binding:"required"`
	SellerFeeBasisPoints int            `json:"seller_fee_basis_points"`
	Type                 string         `json:"type,omitempty"` // "single" (default) or "batch"
	MaxSupply            int            `json:"max_supply,omitempty"`
	Attributes           []NFTAttribute `json:"attributes,omitempty"`
	CreatorAddress       string         `json:"creator_address" binding:"required"`
	OwnerAddress         string         `json:"owner_address" binding:"required"`
}

// CreateOfferRequest lists an NFT for sale.
type CreateOfferRequest struct {
	NFTID             string `json:"nft_id" binding:"required"`
	SellingPrice      int64  `json:"selling_price" binding:"required"`
	ProducerAddress   string `json:"producer_address" binding:"required"`
	ProducerTokenMint string `json:"producer_token_mint,omitempty"`
	ProducerVault     string `json:"producer_vault,omitempty"`
}

// CreateOrderRequest opens a purchase against an offer. The optional
// escrow accounts are recorded on the offer's buyer side.
type CreateOrderRequest struct {
	OfferID           string `json:"offer_id" binding:"required"`
	ProducerPublicKey string `json:"producer_public_key" binding:"required"`
	ConsumerPublicKey string `json:"consumer_public_key" binding:"required"`
	ConsumerTokenMint string `json:"consumer_token_mint,omitempty"`
	ConsumerVault     string `json:"consumer_vault,omitempty"`
}

// UpdateOrderStatusRequest moves an order through its delivery states.
type UpdateOrderStatusRequest struct {
	Status string `json:"status" binding:"required"`
}

// ConfirmOrderRequest is the confirmation payload that triggers
// settlement. Status must be "completed".
type ConfirmOrderRequest struct {
	Status      string `json:"status" binding:"required"`
	TxSignature string `json:"tx_signature,omitempty"`
}

// LinkNFTRequest binds a physical chip to a minted NFT.
type LinkNFTRequest struct {
	ChipID string `json:"chip_id" binding:"required"`
}

// ReportTamperRequest flags a chip as tampered.
type ReportTamperRequest struct {
	Detail string `json:"detail" binding:"required"`
}

// RegisterVerificationRequest is the physical-asset check payload.
type RegisterVerificationRequest struct {
	NFTID        string `json:"nft_id" binding:"required"`
	ChipID       string `json:"chip_id" binding:"required"`
	Manufacturer string `json:"manufacturer" binding:"required"`
	Payload      string `json:"payload,omitempty"` // raw chip challenge data, base64
}
