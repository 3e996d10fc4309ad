package handlers

import (
	"database/sql"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/pyronlaboratory/grapelock-sub001/internal/models"
)

// OfferStore is the store surface the offers handler needs.
type OfferStore interface {
	CreateOffer(o *models.Offer) (*models.Offer, error)
	GetOffer(id uuid.UUID) (*models.Offer, error)
	GetNFT(id uuid.UUID) (*models.NFT, error)
	ListOpenOffers() ([]models.Offer, error)
	ListOffersByProducer(producerAddress string) ([]models.Offer, error)
}

type OffersHandler struct {
	store OfferStore
}

func NewOffersHandler(store OfferStore) *OffersHandler {
	return &OffersHandler{store: store}
}

// Create lists an NFT for sale. The price must be positive and the NFT
// must belong to the producer.
func (h *OffersHandler) Create(c *gin.Context) {
	var req models.CreateOfferRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, fmt.Errorf("invalid request body: %s: %w", err.Error(), models.ErrValidationFailed))
		return
	}

	nftID, err := uuid.Parse(req.NFTID)
	if err != nil {
		respondError(c, fmt.Errorf("invalid nft id: %w", models.ErrValidationFailed))
		return
	}

	if req.SellingPrice <= 0 {
		respondError(c, fmt.Errorf("selling_price must be positive: %w", models.ErrValidationFailed))
		return
	}

	nft, err := h.store.GetNFT(nftID)
	if err != nil {
		respondError(c, err)
		return
	}
	if nft.OwnerAddress != req.ProducerAddress {
		respondError(c, fmt.Errorf("nft %s is not owned by %s: %w",
			nftID, req.ProducerAddress, models.ErrValidationFailed))
		return
	}

	offer := &models.Offer{
		ID:                uuid.New(),
		NFTID:             nftID,
		SellingPrice:      req.SellingPrice,
		ProducerAddress:   req.ProducerAddress,
		ProducerTokenMint: nullString(req.ProducerTokenMint),
		ProducerVault:     nullString(req.ProducerVault),
	}

	created, err := h.store.CreateOffer(offer)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, created.ToResponse())
}

// List returns offers visible to buyers by default (open offers whose
// NFT is in circulation); ?producer= returns a producer's own offers
// regardless of visibility.
func (h *OffersHandler) List(c *gin.Context) {
	var (
		offers []models.Offer
		err    error
	)
	if producer := c.Query("producer"); producer != "" {
		offers, err = h.store.ListOffersByProducer(producer)
	} else {
		offers, err = h.store.ListOpenOffers()
	}
	if err != nil {
		respondError(c, err)
		return
	}

	resp := make([]models.OfferResponse, 0, len(offers))
	for i := range offers {
		resp = append(resp, offers[i].ToResponse())
	}
	c.JSON(http.StatusOK, gin.H{"offers": resp})
}

func (h *OffersHandler) Get(c *gin.Context) {
	id, err := uuid.Parse(c.Param("offer_id"))
	if err != nil {
		respondError(c, fmt.Errorf("invalid offer id: %w", models.ErrValidationFailed))
		return
	}

	offer, err := h.store.GetOffer(id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, offer.ToResponse())
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
