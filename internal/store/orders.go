package store

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/pyronlaboratory/grapelock-sub001/internal/models"
)

const orderColumns = `id, offer_id, producer_public_key, consumer_public_key,
	status, created_at, updated_at`

func scanOrder(row interface{ Scan(...interface{}) error }) (*models.Order, error) {
	var o models.Order
	err := row.Scan(
		&o.ID, &o.OfferID, &o.ProducerPublicKey, &o.ConsumerPublicKey,
		&o.Status, &o.CreatedAt, &o.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &o, nil
}

func (c *Client) CreateOrder(o *models.Order) (*models.Order, error) {
	row := c.db.QueryRow(`
		INSERT INTO orders (id, offer_id, producer_public_key, consumer_public_key, status)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING `+orderColumns,
		o.ID, o.OfferID, o.ProducerPublicKey, o.ConsumerPublicKey, models.OrderStatusPending,
	)
	created, err := scanOrder(row)
	if err != nil {
		return nil, fmt.Errorf("failed to create order: %w", err)
	}
	return created, nil
}

func (c *Client) GetOrder(id uuid.UUID) (*models.Order, error) {
	row := c.db.QueryRow(`SELECT `+orderColumns+` FROM orders WHERE id = $1`, id)
	o, err := scanOrder(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, models.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get order: %w", err)
	}
	return o, nil
}

func (c *Client) ListOrders(consumerPublicKey string) ([]models.Order, error) {
	query := `SELECT ` + orderColumns + ` FROM orders`
	args := []interface{}{}
	if consumerPublicKey != "" {
		query += ` WHERE consumer_public_key = $1`
		args = append(args, consumerPublicKey)
	}
	query += ` ORDER BY created_at DESC`

	rows, err := c.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list orders: %w", err)
	}
	defer rows.Close()

	var orders []models.Order
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan order: %w", err)
		}
		orders = append(orders, *o)
	}
	return orders, rows.Err()
}

// UpdateOrderStatus moves an order to a new status after checking the
// transition table.
func (c *Client) UpdateOrderStatus(id uuid.UUID, to models.OrderStatus) (*models.Order, error) {
	cur, err := c.GetOrder(id)
	if err != nil {
		return nil, err
	}
	if !models.OrderCanTransition(cur.Status, to) {
		return nil, fmt.Errorf("order %s: %s -> %s: %w",
			id, cur.Status, to, models.ErrInvalidStateTransition)
	}

	row := c.db.QueryRow(`
		UPDATE orders SET status = $1, updated_at = NOW()
		WHERE id = $2 AND status = $3
		RETURNING `+orderColumns,
		to, id, cur.Status,
	)
	updated, err := scanOrder(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, models.ErrNotFound
		}
		return nil, fmt.Errorf("failed to update order status: %w", err)
	}
	return updated, nil
}
