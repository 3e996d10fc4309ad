package services

import (
	"fmt"
	"log"

	"github.com/google/uuid"
	"github.com/pyronlaboratory/grapelock-sub001/internal/models"
	"github.com/pyronlaboratory/grapelock-sub001/internal/realtime"
)

// SettlementStore is the slice of the entity store the settlement
// pipeline chains writes through.
type SettlementStore interface {
	GetOrder(id uuid.UUID) (*models.Order, error)
	UpdateOrderStatus(id uuid.UUID, to models.OrderStatus) (*models.Order, error)
	GetOffer(id uuid.UUID) (*models.Offer, error)
	UpdateOfferStatus(id uuid.UUID, to models.OfferStatus) (*models.Offer, error)
	UpdateNFTStatus(id uuid.UUID, to models.NFTStatus) (*models.NFT, error)
}

// Settlement drives the order -> offer -> NFT status cascade triggered
// by confirming a completed order. The three writes are separate; a
// later failure leaves earlier writes in place for reconciliation
// tooling rather than attempting a rollback the store cannot make
// atomic.
type Settlement struct {
	store     SettlementStore
	publisher *realtime.Client
}

func NewSettlement(store SettlementStore, publisher *realtime.Client) *Settlement {
	return &Settlement{store: store, publisher: publisher}
}

// ConfirmOrder validates the confirmation payload and runs the cascade.
// Nothing is written unless the payload carries status "completed".
func (s *Settlement) ConfirmOrder(orderID uuid.UUID, payload models.ConfirmOrderRequest) (*models.Order, error) {
	if payload.Status != string(models.OrderStatusCompleted) {
		return nil, fmt.Errorf("confirmation payload status %q: %w",
			payload.Status, models.ErrInvalidConfirmation)
	}

	order, err := s.store.UpdateOrderStatus(orderID, models.OrderStatusCompleted)
	if err != nil {
		return nil, err
	}

	offer, err := s.store.UpdateOfferStatus(order.OfferID, models.OfferStatusCompleted)
	if err != nil {
		log.Printf("Settlement for order %s: order completed but offer %s update failed: %v",
			orderID, order.OfferID, err)
		return order, fmt.Errorf("offer settlement: %w", err)
	}

	nft, err := s.store.UpdateNFTStatus(offer.NFTID, models.NFTStatusInCirculation)
	if err != nil {
		log.Printf("Settlement for order %s: offer completed but nft %s update failed: %v",
			orderID, offer.NFTID, err)
		return order, fmt.Errorf("nft settlement: %w", err)
	}

	if s.publisher != nil {
		s.publisher.PublishOrderEvent(order.ID, "order_completed",
			realtime.OrderCompletedPayload(order.ID, offer.ID, nft.ID))
	}

	return order, nil
}
