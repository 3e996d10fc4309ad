package services_test

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pyronlaboratory/grapelock-sub001/internal/models"
	"github.com/pyronlaboratory/grapelock-sub001/internal/services"
)

type fakeSettlementStore struct {
	orders map[uuid.UUID]*models.Order
	offers map[uuid.UUID]*models.Offer
	nfts   map[uuid.UUID]*models.NFT

	writeOrder []string
}

func newSettlementFixture() (*fakeSettlementStore, *models.Order, *models.Offer, *models.NFT) {
	nft := &models.NFT{ID: uuid.New(), Status: models.NFTStatusVerified}
	offer := &models.Offer{ID: uuid.New(), NFTID: nft.ID, Status: models.OfferStatusInProgress}
	order := &models.Order{ID: uuid.New(), OfferID: offer.ID, Status: models.OrderStatusAwaitingConfirmation}

	s := &fakeSettlementStore{
		orders: map[uuid.UUID]*models.Order{order.ID: order},
		offers: map[uuid.UUID]*models.Offer{offer.ID: offer},
		nfts:   map[uuid.UUID]*models.NFT{nft.ID: nft},
	}
	return s, order, offer, nft
}

func (s *fakeSettlementStore) GetOrder(id uuid.UUID) (*models.Order, error) {
	o, ok := s.orders[id]
	if !ok {
		return nil, models.ErrNotFound
	}
	return o, nil
}

func (s *fakeSettlementStore) UpdateOrderStatus(id uuid.UUID, to models.OrderStatus) (*models.Order, error) {
	o, ok := s.orders[id]
	if !ok {
		return nil, models.ErrNotFound
	}
	if !models.OrderCanTransition(o.Status, to) {
		return nil, models.ErrInvalidStateTransition
	}
	o.Status = to
	s.writeOrder = append(s.writeOrder, "order")
	copied := *o
	return &copied, nil
}

func (s *fakeSettlementStore) GetOffer(id uuid.UUID) (*models.Offer, error) {
	o, ok := s.offers[id]
	if !ok {
		return nil, models.ErrNotFound
	}
	return o, nil
}

func (s *fakeSettlementStore) UpdateOfferStatus(id uuid.UUID, to models.OfferStatus) (*models.Offer, error) {
	o, ok := s.offers[id]
	if !ok {
		return nil, models.ErrNotFound
	}
	if !models.OfferCanTransition(o.Status, to) {
		return nil, models.ErrInvalidStateTransition
	}
	o.Status = to
	s.writeOrder = append(s.writeOrder, "offer")
	copied := *o
	return &copied, nil
}

func (s *fakeSettlementStore) UpdateNFTStatus(id uuid.UUID, to models.NFTStatus) (*models.NFT, error) {
	n, ok := s.nfts[id]
	if !ok {
		return nil, models.ErrNotFound
	}
	if !models.NFTCanTransition(n.Status, to) {
		return nil, models.ErrInvalidStateTransition
	}
	n.Status = to
	s.writeOrder = append(s.writeOrder, "nft")
	copied := *n
	return &copied, nil
}

func TestSettlement_ConfirmOrderCascades(t *testing.T) {
	store, order, offer, nft := newSettlementFixture()
	settlement := services.NewSettlement(store, nil)

	confirmed, err := settlement.ConfirmOrder(order.ID, models.ConfirmOrderRequest{Status: "completed"})
	require.NoError(t, err)
	assert.Equal(t, models.OrderStatusCompleted, confirmed.Status)

	assert.Equal(t, models.OrderStatusCompleted, store.orders[order.ID].Status)
	assert.Equal(t, models.OfferStatusCompleted, store.offers[offer.ID].Status)
	assert.Equal(t, models.NFTStatusInCirculation, store.nfts[nft.ID].Status)

	// Order, then offer, then NFT.
	assert.Equal(t, []string{"order", "offer", "nft"}, store.writeOrder)
}

func TestSettlement_RejectsNonCompletedPayload(t *testing.T) {
	store, order, offer, nft := newSettlementFixture()
	settlement := services.NewSettlement(store, nil)

	_, err := settlement.ConfirmOrder(order.ID, models.ConfirmOrderRequest{Status: "awaiting_delivery"})
	require.Error(t, err)
	assert.ErrorIs(t, err, models.ErrInvalidConfirmation)

	// Nothing was written.
	assert.Empty(t, store.writeOrder)
	assert.Equal(t, models.OrderStatusAwaitingConfirmation, store.orders[order.ID].Status)
	assert.Equal(t, models.OfferStatusInProgress, store.offers[offer.ID].Status)
	assert.Equal(t, models.NFTStatusVerified, store.nfts[nft.ID].Status)
}

func TestSettlement_InvalidOrderTransition(t *testing.T) {
	store, order, _, _ := newSettlementFixture()
	store.orders[order.ID].Status = models.OrderStatusCancelledByConsumer
	settlement := services.NewSettlement(store, nil)

	_, err := settlement.ConfirmOrder(order.ID, models.ConfirmOrderRequest{Status: "completed"})
	require.Error(t, err)
	assert.ErrorIs(t, err, models.ErrInvalidStateTransition)
	assert.Empty(t, store.writeOrder)
}

func TestSettlement_LaterFailureKeepsEarlierWrites(t *testing.T) {
	// The NFT is in a state that cannot move to in_circulation, so the
	// third write fails. The first two are not rolled back.
	store, order, offer, nft := newSettlementFixture()
	store.nfts[nft.ID].Status = models.NFTStatusLinked
	settlement := services.NewSettlement(store, nil)

	confirmed, err := settlement.ConfirmOrder(order.ID, models.ConfirmOrderRequest{Status: "completed"})
	require.Error(t, err)
	assert.ErrorIs(t, err, models.ErrInvalidStateTransition)

	require.NotNil(t, confirmed)
	assert.Equal(t, models.OrderStatusCompleted, confirmed.Status)
	assert.Equal(t, models.OrderStatusCompleted, store.orders[order.ID].Status)
	assert.Equal(t, models.OfferStatusCompleted, store.offers[offer.ID].Status)
	assert.Equal(t, models.NFTStatusLinked, store.nfts[nft.ID].Status)
}
