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

// CollectionStore is the store surface the collections handler needs.
type CollectionStore interface {
	CreateCollection(col *models.Collection) (*models.Collection, error)
	GetCollection(id uuid.UUID) (*models.Collection, error)
	ListCollections(creatorAddress string) ([]models.Collection, error)
	UpdateCollectionStatus(id uuid.UUID, to models.CollectionStatus) (*models.Collection, error)
	MarkCollectionFailed(id uuid.UUID, errorMsg string) error
}

type CollectionsHandler struct {
	store       CollectionStore
	queue       queue.Queue
	maxAttempts int
}

func NewCollectionsHandler(store CollectionStore, q queue.Queue, maxAttempts int) *CollectionsHandler {
	return &CollectionsHandler{
		store:       store,
		queue:       q,
		maxAttempts: maxAttempts,
	}
}

// Create godoc
// @Summary     Submit a collection creation job
// @Description Persists the collection in pending status and enqueues the on-chain creation. Poll the returned job id for the outcome.
// @Tags        collections
// @Accept      json
// @Produce     json
// @Security    Bearer
// @Param       request body models.CreateCollectionRequest true "Collection form"
// @Success     202 {object} models.SubmitResponse
// @Failure     400 {object} models.ErrorResponse
// @Failure     500 {object} models.ErrorResponse
// @Router      /collections [post]
func (h *CollectionsHandler) Create(c *gin.Context) {
	var req models.CreateCollectionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, fmt.Errorf("invalid request body: %s: %w", err.Error(), models.ErrValidationFailed))
		return
	}

	// Everything is validated before any persistence or queue write.
	if req.SellerFeeBasisPoints < 0 || req.SellerFeeBasisPoints > 10000 {
		respondError(c, fmt.Errorf("seller_fee_basis_points must be in [0,10000]: %w", models.ErrValidationFailed))
		return
	}

	attributes, err := json.Marshal(req.Attributes)
	if err != nil {
		respondError(c, fmt.Errorf("invalid attributes: %w", models.ErrValidationFailed))
		return
	}

	col := &models.Collection{
		ID:                   uuid.New(),
		Name:                 req.Name,
		Symbol:               req.Symbol,
		Description:          req.Description,
		MediaURI:             req.MediaURI,
		SellerFeeBasisPoints: req.SellerFeeBasisPoints,
		Attributes:           attributes,
		CreatorAddress:       req.CreatorAddress,
		OwnerAddress:         req.OwnerAddress,
	}

	created, err := h.store.CreateCollection(col)
	if err != nil {
		respondError(c, err)
		return
	}

	jobID, err := h.queue.Enqueue(c.Request.Context(), queue.KindCreateCollection,
		map[string]string{"collection_id": created.ID.String()}, h.maxAttempts)
	if err != nil {
		// The entity exists but no job will run it. Walk it through
		// processing to failed so the transition table holds and the
		// state is visible instead of stuck in pending.
		if _, stepErr := h.store.UpdateCollectionStatus(created.ID, models.CollectionStatusProcessing); stepErr != nil {
			log.Printf("Failed to mark collection %s processing after enqueue error: %v", created.ID, stepErr)
		} else if markErr := h.store.MarkCollectionFailed(created.ID, "failed to enqueue creation job"); markErr != nil {
			log.Printf("Failed to mark collection %s failed after enqueue error: %v", created.ID, markErr)
		}
		respondError(c, err)
		return
	}

	c.JSON(http.StatusAccepted, models.SubmitResponse{
		JobID:  jobID.String(),
		Entity: created.ToResponse(),
	})
}

func (h *CollectionsHandler) List(c *gin.Context) {
	cols, err := h.store.ListCollections(c.Query("creator"))
	if err != nil {
		respondError(c, err)
		return
	}

	resp := make([]models.CollectionResponse, 0, len(cols))
	for i := range cols {
		resp = append(resp, cols[i].ToResponse())
	}
	c.JSON(http.StatusOK, gin.H{"collections": resp})
}

func (h *CollectionsHandler) Get(c *gin.Context) {
	id, err := uuid.Parse(c.Param("collection_id"))
	if err != nil {
		respondError(c, fmt.Errorf("invalid collection id: %w", models.ErrValidationFailed))
		return
	}

	col, err := h.store.GetCollection(id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, col.ToResponse())
}

// Archive is the operator-only terminal transition for published or
// failed collections.
func (h *CollectionsHandler) Archive(c *gin.Context) {
	id, err := uuid.Parse(c.Param("collection_id"))
	if err != nil {
		respondError(c, fmt.Errorf("invalid collection id: %w", models.ErrValidationFailed))
		return
	}

	col, err := h.store.UpdateCollectionStatus(id, models.CollectionStatusArchived)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, col.ToResponse())
}
