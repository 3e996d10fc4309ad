package handlers

import (
	"encoding/json"
	"fmt"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/pyronlaboratory/grapelock-sub001/internal/models"
	"github.com/pyronlaboratory/grapelock-sub001/internal/queue"
)

// NFTStore is the store surface the NFTs handler needs.
type NFTStore interface {
	CreateNFT(n *models.NFT) (*models.NFT, error)
	GetNFT(id uuid.UUID) (*models.NFT, error)
	GetCollection(id uuid.UUID) (*models.Collection, error)
	ListNFTs(collectionID *uuid.UUID, ownerAddress string, status models.NFTStatus) ([]models.NFT, error)
	UpdateNFTStatus(id uuid.UUID, to models.NFTStatus) (*models.NFT, error)
	LinkNFTChip(id uuid.UUID, chipID string) (*models.NFT, error)
	MarkNFTFailed(id uuid.UUID, errorMsg string) error
}

type NFTsHandler struct {
	store       NFTStore
	queue       queue.Queue
	maxAttempts int
}

func NewNFTsHandler(store NFTStore, q queue.Queue, maxAttempts int) *NFTsHandler {
	return &NFTsHandler{
		store:       store,
		queue:       q,
		maxAttempts: maxAttempts,
	}
}

// Mint godoc
// @Summary     Submit an asset mint job
// @Description Persists the NFT in pending status and enqueues the on-chain mint. Poll the returned job id for the outcome.
// @Tags        nfts
// @Accept      json
// @Produce     json
// @Security    Bearer
// @Param       request body models.MintNFTRequest true "Mint form"
// @Success     202 {object} models.SubmitResponse
// @Failure     400 {object} models.ErrorResponse
// @Failure     404 {object} models.ErrorResponse
// @Failure     500 {object} models.ErrorResponse
// @Router      /nfts [post]
func (h *NFTsHandler) Mint(c *gin.Context) {
	var req models.MintNFTRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, fmt.Errorf("invalid request body: %s: %w", err.Error(), models.ErrValidationFailed))
		return
	}

	collectionID, err := uuid.Parse(req.CollectionID)
	if err != nil {
		respondError(c, fmt.Errorf("invalid collection id: %w", models.ErrValidationFailed))
		return
	}

	if req.SellerFeeBasisPoints < 0 || req.SellerFeeBasisPoints > 10000 {
		respondError(c, fmt.Errorf("seller_fee_basis_points must be in [0,10000]: %w", models.ErrValidationFailed))
		return
	}

	nftType := models.NFTTypeSingle
	switch req.Type {
	case "", string(models.NFTTypeSingle):
	case string(models.NFTTypeBatch):
		nftType = models.NFTTypeBatch
	default:
		respondError(c, fmt.Errorf("type must be single or batch: %w", models.ErrValidationFailed))
		return
	}

	maxSupply := req.MaxSupply
	if maxSupply == 0 {
		maxSupply = 1
	}
	if maxSupply < 1 {
		respondError(c, fmt.Errorf("max_supply must be positive: %w", models.ErrValidationFailed))
		return
	}
	if nftType == models.NFTTypeSingle && maxSupply != 1 {
		respondError(c, fmt.Errorf("single type mints exactly one unit: %w", models.ErrValidationFailed))
		return
	}

	// The parent collection must exist before anything is persisted.
	if _, err := h.store.GetCollection(collectionID); err != nil {
		respondError(c, err)
		return
	}

	attributes, err := json.Marshal(req.Attributes)
	if err != nil {
		respondError(c, fmt.Errorf("invalid attributes: %w", models.ErrValidationFailed))
		return
	}

	nft := &models.NFT{
		ID:                   uuid.New(),
		CollectionID:         collectionID,
		Name:                 req.Name,
		Symbol:               req.Symbol,
		Description:          req.Description,
		MediaURI:             req.MediaURI,
		SellerFeeBasisPoints: req.SellerFeeBasisPoints,
		Type:                 nftType,
		MaxSupply:            maxSupply,
		Attributes:           attributes,
		CreatorAddress:       req.CreatorAddress,
		OwnerAddress:         req.OwnerAddress,
	}

	created, err := h.store.CreateNFT(nft)
	if err != nil {
		respondError(c, err)
		return
	}

	jobID, err := h.queue.Enqueue(c.Request.Context(), queue.KindMintAsset,
		map[string]string{"nft_id": created.ID.String()}, h.maxAttempts)
	if err != nil {
		// Same walk as the collection path: the transition table has no
		// pending to failed edge.
		if _, stepErr := h.store.UpdateNFTStatus(created.ID, models.NFTStatusProcessing); stepErr != nil {
			log.Printf("Failed to mark nft %s processing after enqueue error: %v", created.ID, stepErr)
		} else if markErr := h.store.MarkNFTFailed(created.ID, "failed to enqueue mint job"); markErr != nil {
			log.Printf("Failed to mark nft %s failed after enqueue error: %v", created.ID, markErr)
		}
		respondError(c, err)
		return
	}

	c.JSON(http.StatusAccepted, models.SubmitResponse{
		JobID:  jobID.String(),
		Entity: created.ToResponse(),
	})
}

func (h *NFTsHandler) List(c *gin.Context) {
	var collectionID *uuid.UUID
	if raw := c.Query("collection"); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			respondError(c, fmt.Errorf("invalid collection filter: %w", models.ErrValidationFailed))
			return
		}
		collectionID = &id
	}

	nfts, err := h.store.ListNFTs(collectionID, c.Query("owner"), models.NFTStatus(c.Query("status")))
	if err != nil {
		respondError(c, err)
		return
	}

	resp := make([]models.NFTResponse, 0, len(nfts))
	for i := range nfts {
		resp = append(resp, nfts[i].ToResponse())
	}
	c.JSON(http.StatusOK, gin.H{"nfts": resp})
}

func (h *NFTsHandler) Get(c *gin.Context) {
	id, err := uuid.Parse(c.Param("nft_id"))
	if err != nil {
		respondError(c, fmt.Errorf("invalid nft id: %w", models.ErrValidationFailed))
		return
	}

	nft, err := h.store.GetNFT(id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, nft.ToResponse())
}

// Link binds a physical chip to a minted NFT, the precondition for
// verification.
func (h *NFTsHandler) Link(c *gin.Context) {
	id, err := uuid.Parse(c.Param("nft_id"))
	if err != nil {
		respondError(c, fmt.Errorf("invalid nft id: %w", models.ErrValidationFailed))
		return
	}

	var req models.LinkNFTRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, fmt.Errorf("invalid request body: %s: %w", err.Error(), models.ErrValidationFailed))
		return
	}

	nft, err := h.store.LinkNFTChip(id, req.ChipID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, nft.ToResponse())
}

// UpdateStatus drives the post-sale transitions (delivered, consumed,
// cancelled, burned). The state machine table decides what is legal.
func (h *NFTsHandler) UpdateStatus(c *gin.Context) {
	id, err := uuid.Parse(c.Param("nft_id"))
	if err != nil {
		respondError(c, fmt.Errorf("invalid nft id: %w", models.ErrValidationFailed))
		return
	}

	var req models.UpdateOrderStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, fmt.Errorf("invalid request body: %s: %w", err.Error(), models.ErrValidationFailed))
		return
	}

	switch models.NFTStatus(req.Status) {
	case models.NFTStatusDelivered, models.NFTStatusConsumed,
		models.NFTStatusCancelled, models.NFTStatusBurned:
	default:
		respondError(c, fmt.Errorf("status %q cannot be set through this endpoint: %w",
			req.Status, models.ErrValidationFailed))
		return
	}

	nft, err := h.store.UpdateNFTStatus(id, models.NFTStatus(req.Status))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, nft.ToResponse())
}
