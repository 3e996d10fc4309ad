// Package store is the narrow persistence adapter over collection, NFT,
// offer, order and tag records. It owns no business logic; status
// transitions are validated against the state machine tables in models
// before any write.
package store

import (
	"database/sql"
	"fmt"
	"strings"

	_ "github.com/lib/pq"
)

type Client struct {
	db *sql.DB
}

func NewClient(connectionString string) (*Client, error) {
	db, err := sql.Open("postgres", connectionString)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &Client{db: db}, nil
}

// NewClientWithDB wraps an existing connection, used by the queue which
// shares the same database.
func NewClientWithDB(db *sql.DB) *Client {
	return &Client{db: db}
}

func (c *Client) DB() *sql.DB {
	return c.db
}

func (c *Client) Close() error {
	return c.db.Close()
}

// qualify prefixes every column in a comma-separated list with a table
// alias, for queries that join.
func qualify(columns, alias string) string {
	parts := strings.Split(columns, ",")
	for i := range parts {
		parts[i] = alias + "." + strings.TrimSpace(parts[i])
	}
	return strings.Join(parts, ", ")
}
