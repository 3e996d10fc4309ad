package handlers

import (
	"fmt"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/pyronlaboratory/grapelock-sub001/internal/models"
	"github.com/pyronlaboratory/grapelock-sub001/internal/services"
)

// OrderStore is the store surface the orders handler needs.
type OrderStore interface {
	CreateOrder(o *models.Order) (*models.Order, error)
	GetOrder(id uuid.UUID) (*models.Order, error)
	ListOrders(consumerPublicKey string) ([]models.Order, error)
	UpdateOrderStatus(id uuid.UUID, to models.OrderStatus) (*models.Order, error)
	GetOffer(id uuid.UUID) (*models.Offer, error)
	GetNFT(id uuid.UUID) (*models.NFT, error)
	ReserveOffer(id uuid.UUID, consumerAddress, consumerTokenMint, consumerVault string) (*models.Offer, error)
	UpdateOfferStatus(id uuid.UUID, to models.OfferStatus) (*models.Offer, error)
}

type OrdersHandler struct {
	store      OrderStore
	settlement *services.Settlement
}

func NewOrdersHandler(store OrderStore, settlement *services.Settlement) *OrdersHandler {
	return &OrdersHandler{
		store:      store,
		settlement: settlement,
	}
}

// Create opens a purchase against an open offer and reserves it: the
// offer moves to in_progress, recording the buyer side, so it disappears
// from listings.
func (h *OrdersHandler) Create(c *gin.Context) {
	var req models.CreateOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, fmt.Errorf("invalid request body: %s: %w", err.Error(), models.ErrValidationFailed))
		return
	}

	offerID, err := uuid.Parse(req.OfferID)
	if err != nil {
		respondError(c, fmt.Errorf("invalid offer id: %w", models.ErrValidationFailed))
		return
	}

	offer, err := h.store.GetOffer(offerID)
	if err != nil {
		respondError(c, err)
		return
	}
	if offer.Status != models.OfferStatusOpen {
		respondError(c, fmt.Errorf("offer %s is %s, not open: %w",
			offerID, offer.Status, models.ErrInvalidStateTransition))
		return
	}

	order := &models.Order{
		ID:                uuid.New(),
		OfferID:           offerID,
		ProducerPublicKey: req.ProducerPublicKey,
		ConsumerPublicKey: req.ConsumerPublicKey,
	}

	created, err := h.store.CreateOrder(order)
	if err != nil {
		respondError(c, err)
		return
	}

	if _, err := h.store.ReserveOffer(offerID, req.ConsumerPublicKey,
		req.ConsumerTokenMint, req.ConsumerVault); err != nil {
		log.Printf("Order %s created but offer %s not reserved: %v", created.ID, offerID, err)
	}

	c.JSON(http.StatusCreated, created.ToResponse())
}

func (h *OrdersHandler) List(c *gin.Context) {
	orders, err := h.store.ListOrders(c.Query("consumer"))
	if err != nil {
		respondError(c, err)
		return
	}

	resp := make([]models.OrderResponse, 0, len(orders))
	for i := range orders {
		resp = append(resp, orders[i].ToResponse())
	}
	c.JSON(http.StatusOK, gin.H{"orders": resp})
}

func (h *OrdersHandler) Get(c *gin.Context) {
	id, err := uuid.Parse(c.Param("order_id"))
	if err != nil {
		respondError(c, fmt.Errorf("invalid order id: %w", models.ErrValidationFailed))
		return
	}

	order, err := h.store.GetOrder(id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, order.ToResponse())
}

// UpdateStatus drives the delivery lifecycle and cancellations. The
// completed status must go through Confirm so settlement runs.
func (h *OrdersHandler) UpdateStatus(c *gin.Context) {
	id, err := uuid.Parse(c.Param("order_id"))
	if err != nil {
		respondError(c, fmt.Errorf("invalid order id: %w", models.ErrValidationFailed))
		return
	}

	var req models.UpdateOrderStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, fmt.Errorf("invalid request body: %s: %w", err.Error(), models.ErrValidationFailed))
		return
	}

	to := models.OrderStatus(req.Status)
	switch to {
	case models.OrderStatusAwaitingDelivery, models.OrderStatusAwaitingConfirmation,
		models.OrderStatusCancelledByProducer, models.OrderStatusCancelledByConsumer,
		models.OrderStatusFailed:
	default:
		respondError(c, fmt.Errorf("status %q cannot be set through this endpoint: %w",
			req.Status, models.ErrValidationFailed))
		return
	}

	order, err := h.store.UpdateOrderStatus(id, to)
	if err != nil {
		respondError(c, err)
		return
	}

	// A dead order releases its offer from in_progress.
	switch to {
	case models.OrderStatusCancelledByProducer, models.OrderStatusCancelledByConsumer:
		if _, err := h.store.UpdateOfferStatus(order.OfferID, models.OfferStatusClosed); err != nil {
			log.Printf("Order %s cancelled but offer %s not closed: %v", order.ID, order.OfferID, err)
		}
	case models.OrderStatusFailed:
		if _, err := h.store.UpdateOfferStatus(order.OfferID, models.OfferStatusFailed); err != nil {
			log.Printf("Order %s failed but offer %s not failed: %v", order.ID, order.OfferID, err)
		}
	}

	c.JSON(http.StatusOK, order.ToResponse())
}

// Confirm godoc
// @Summary     Confirm a completed order
// @Description Validates the confirmation payload and settles the sale: order, offer and NFT statuses cascade in that order.
// @Tags        orders
// @Accept      json
// @Produce     json
// @Security    Bearer
// @Param       order_id path string true "Order ID (UUID)"
// @Param       request body models.ConfirmOrderRequest true "Confirmation payload"
// @Success     200 {object} models.OrderResponse
// @Failure     400 {object} models.ErrorResponse
// @Failure     404 {object} models.ErrorResponse
// @Failure     409 {object} models.ErrorResponse
// @Router      /orders/{order_id}/confirm [post]
func (h *OrdersHandler) Confirm(c *gin.Context) {
	id, err := uuid.Parse(c.Param("order_id"))
	if err != nil {
		respondError(c, fmt.Errorf("invalid order id: %w", models.ErrValidationFailed))
		return
	}

	var req models.ConfirmOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, fmt.Errorf("invalid request body: %s: %w", err.Error(), models.ErrValidationFailed))
		return
	}

	order, err := h.settlement.ConfirmOrder(id, req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, order.ToResponse())
}
