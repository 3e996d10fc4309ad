package models

import (
	"time"

	"github.com/google/uuid"
)

// OrderStatus is the lifecycle state of a purchase order.
type OrderStatus string

const (
	OrderStatusPending              OrderStatus = "pending"
	OrderStatusCancelledByProducer  OrderStatus = "cancelled_by_producer"
	OrderStatusCancelledByConsumer  OrderStatus = "cancelled_by_consumer"
	OrderStatusAwaitingDelivery     OrderStatus = "awaiting_delivery"
	OrderStatusAwaitingConfirmation OrderStatus = "awaiting_confirmation"
	OrderStatusCompleted            OrderStatus = "completed"
	OrderStatusFailed               OrderStatus = "failed"
)

type Order struct {
	ID                uuid.UUID
	OfferID           uuid.UUID
	ProducerPublicKey string
	ConsumerPublicKey string
	Status            OrderStatus
	CreatedAt         time.Time
	UpdatedAt         time.Time
}
