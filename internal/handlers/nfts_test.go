package handlers_test

import (
	"encoding/json"
	"net/http"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pyronlaboratory/grapelock-sub001/internal/handlers"
	"github.com/pyronlaboratory/grapelock-sub001/internal/models"
	"github.com/pyronlaboratory/grapelock-sub001/internal/queue"
)

type fakeNFTStore struct {
	collections map[uuid.UUID]*models.Collection
	nfts        map[uuid.UUID]*models.NFT
	createCalls int
}

func newFakeNFTStore() *fakeNFTStore {
	return &fakeNFTStore{
		collections: make(map[uuid.UUID]*models.Collection),
		nfts:        make(map[uuid.UUID]*models.NFT),
	}
}

func (s *fakeNFTStore) CreateNFT(n *models.NFT) (*models.NFT, error) {
	s.createCalls++
	n.Status = models.NFTStatusPending
	s.nfts[n.ID] = n
	copied := *n
	return &copied, nil
}

func (s *fakeNFTStore) GetNFT(id uuid.UUID) (*models.NFT, error) {
	n, ok := s.nfts[id]
	if !ok {
		return nil, models.ErrNotFound
	}
	copied := *n
	return &copied, nil
}

func (s *fakeNFTStore) GetCollection(id uuid.UUID) (*models.Collection, error) {
	c, ok := s.collections[id]
	if !ok {
		return nil, models.ErrNotFound
	}
	copied := *c
	return &copied, nil
}

func (s *fakeNFTStore) ListNFTs(collectionID *uuid.UUID, ownerAddress string, status models.NFTStatus) ([]models.NFT, error) {
	var out []models.NFT
	for _, n := range s.nfts {
		out = append(out, *n)
	}
	return out, nil
}

func (s *fakeNFTStore) UpdateNFTStatus(id uuid.UUID, to models.NFTStatus) (*models.NFT, error) {
	n, ok := s.nfts[id]
	if !ok {
		return nil, models.ErrNotFound
	}
	if !models.NFTCanTransition(n.Status, to) {
		return nil, models.ErrInvalidStateTransition
	}
	n.Status = to
	copied := *n
	return &copied, nil
}

func (s *fakeNFTStore) LinkNFTChip(id uuid.UUID, chipID string) (*models.NFT, error) {
	n, ok := s.nfts[id]
	if !ok {
		return nil, models.ErrNotFound
	}
	if !models.NFTCanTransition(n.Status, models.NFTStatusLinked) {
		return nil, models.ErrInvalidStateTransition
	}
	n.Status = models.NFTStatusLinked
	n.ChipID.String = chipID
	n.ChipID.Valid = true
	copied := *n
	return &copied, nil
}

func (s *fakeNFTStore) MarkNFTFailed(id uuid.UUID, errorMsg string) error {
	n, ok := s.nfts[id]
	if !ok {
		return models.ErrNotFound
	}
	if !models.NFTCanTransition(n.Status, models.NFTStatusFailed) {
		return models.ErrInvalidStateTransition
	}
	n.Status = models.NFTStatusFailed
	return nil
}

func nftsRouter(store *fakeNFTStore, q queue.Queue) *gin.Engine {
	gin.SetMode(gin.TestMode)
	h := handlers.NewNFTsHandler(store, q, 2)

	router := gin.New()
	router.POST("/nfts", h.Mint)
	router.POST("/nfts/:nft_id/link", h.Link)
	router.PATCH("/nfts/:nft_id/status", h.UpdateStatus)
	return router
}

func validMintForm(collectionID uuid.UUID) map[string]interface{} {
	return map[string]interface{}{
		"collection_id":   collectionID.String(),
		"name":            "Reserve Bottle #1",
		"symbol":          "ESTRV",
		"media_uri":       "https://cdn.test/bottle.png",
		"creator_address": "creator111",
		"owner_address":   "owner111",
	}
}

func TestNFTsMint_AcceptsAndEnqueues(t *testing.T) {
	store := newFakeNFTStore()
	col := &models.Collection{ID: uuid.New(), Status: models.CollectionStatusPublished}
	store.collections[col.ID] = col
	q := queue.NewMemoryQueue()
	router := nftsRouter(store, q)

	w := postJSON(router, "/nfts", validMintForm(col.ID))
	assert.Equal(t, http.StatusAccepted, w.Code)

	var resp models.SubmitResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.NotEmpty(t, resp.JobID)
	assert.Equal(t, 1, store.createCalls)
}

func TestNFTsMint_EnqueueFailureFailsThroughProcessing(t *testing.T) {
	store := newFakeNFTStore()
	col := &models.Collection{ID: uuid.New(), Status: models.CollectionStatusPublished}
	store.collections[col.ID] = col
	router := nftsRouter(store, failingQueue{})

	w := postJSON(router, "/nfts", validMintForm(col.ID))
	assert.Equal(t, http.StatusInternalServerError, w.Code)

	require.Equal(t, 1, store.createCalls)
	for _, n := range store.nfts {
		assert.Equal(t, models.NFTStatusFailed, n.Status)
	}
}

func TestNFTsMint_UnknownCollectionIsNotFound(t *testing.T) {
	store := newFakeNFTStore()
	router := nftsRouter(store, queue.NewMemoryQueue())

	w := postJSON(router, "/nfts", validMintForm(uuid.New()))
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, 0, store.createCalls)
}

func TestNFTsMint_SingleWithSupplyRejected(t *testing.T) {
	store := newFakeNFTStore()
	col := &models.Collection{ID: uuid.New(), Status: models.CollectionStatusPublished}
	store.collections[col.ID] = col
	router := nftsRouter(store, queue.NewMemoryQueue())

	form := validMintForm(col.ID)
	form["type"] = "single"
	form["max_supply"] = 3

	w := postJSON(router, "/nfts", form)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, 0, store.createCalls)
}

func TestNFTsMint_UnknownTypeRejected(t *testing.T) {
	store := newFakeNFTStore()
	col := &models.Collection{ID: uuid.New(), Status: models.CollectionStatusPublished}
	store.collections[col.ID] = col
	router := nftsRouter(store, queue.NewMemoryQueue())

	form := validMintForm(col.ID)
	form["type"] = "edition"

	w := postJSON(router, "/nfts", form)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, 0, store.createCalls)
}

func TestNFTsLink_MintedOnly(t *testing.T) {
	store := newFakeNFTStore()
	router := nftsRouter(store, queue.NewMemoryQueue())

	nft := &models.NFT{ID: uuid.New(), Status: models.NFTStatusMinted}
	store.nfts[nft.ID] = nft

	w := postJSON(router, "/nfts/"+nft.ID.String()+"/link", map[string]string{"chip_id": "chip-001"})
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, models.NFTStatusLinked, store.nfts[nft.ID].Status)
	assert.Equal(t, "chip-001", store.nfts[nft.ID].ChipID.String)

	// A second link attempt is out of order.
	w = postJSON(router, "/nfts/"+nft.ID.String()+"/link", map[string]string{"chip_id": "chip-002"})
	assert.Equal(t, http.StatusConflict, w.Code)
}

func TestNFTsUpdateStatus_GuardsEndpointStates(t *testing.T) {
	store := newFakeNFTStore()
	router := nftsRouter(store, queue.NewMemoryQueue())

	nft := &models.NFT{ID: uuid.New(), Status: models.NFTStatusInCirculation}
	store.nfts[nft.ID] = nft

	// verified is processor/verification territory, not this endpoint.
	w := patchJSON(router, "/nfts/"+nft.ID.String()+"/status", map[string]string{"status": "verified"})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = patchJSON(router, "/nfts/"+nft.ID.String()+"/status", map[string]string{"status": "delivered"})
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, models.NFTStatusDelivered, store.nfts[nft.ID].Status)
}
