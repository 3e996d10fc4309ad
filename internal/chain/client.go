// Package chain talks to the ledger RPC gateway: it fetches the latest
// checkpoint used to stamp transactions and submits prepared create/mint
// transactions for signing and broadcast.
package chain

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// Checkpoint is the short-lived ledger reference used to anchor a
// submitted transaction. It expires on-chain once the ledger passes
// LastValidHeight, so a cached copy older than its validity window must
// not be used.
type Checkpoint struct {
	Value           string
	LastValidHeight uint64
	CachedAt        time.Time
}

// RemainingValidity is how much of the validity window is left at the
// given instant. Callers must recompute this on every read.
func (cp *Checkpoint) RemainingValidity(now time.Time, window time.Duration) time.Duration {
	remaining := window - now.Sub(cp.CachedAt)
	if remaining < 0 {
		return 0
	}
	return remaining
}

// TransactionKind selects the on-chain program invocation.
type TransactionKind string

const (
	TxCreateCollection TransactionKind = "create_collection"
	TxMintNFT          TransactionKind = "mint_nft"
)

// Transaction is a prepared, not-yet-signed transaction. The gateway
// signs and broadcasts it.
type Transaction struct {
	Kind                 TransactionKind `json:"kind"`
	Checkpoint           string          `json:"checkpoint"`
	LastValidHeight      uint64          `json:"last_valid_height"`
	CreatorAddress       string          `json:"creator_address"`
	OwnerAddress         string          `json:"owner_address"`
	SellerFeeBasisPoints int             `json:"seller_fee_basis_points"`
	MetadataURI          string          `json:"metadata_uri"`
	Name                 string          `json:"name"`
	Symbol               string          `json:"symbol"`
	CollectionMint       string          `json:"collection_mint,omitempty"`
	MaxSupply            int             `json:"max_supply,omitempty"`
}

// SubmitResult carries the signature and derived account addresses of a
// confirmed submission.
type SubmitResult struct {
	Signature            string `json:"signature"`
	MintAddress          string `json:"mint_address"`
	TokenAddress         string `json:"token_address"`
	MetadataAddress      string `json:"metadata_address"`
	MasterEditionAddress string `json:"master_edition_address"`
}

type checkpointResponse struct {
	Value           string `json:"value"`
	LastValidHeight uint64 `json:"last_valid_height"`
}

type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
}

func NewClient(baseURL, apiKey string) *Client {
	return &Client{
		baseURL: baseURL,
		apiKey:  apiKey,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// GetLatestCheckpoint fetches the current checkpoint from the gateway.
// CachedAt is left zero; the cache stamps it on store.
func (c *Client) GetLatestCheckpoint() (*Checkpoint, error) {
	url := strings.TrimSuffix(c.baseURL, "/") + "/v1/checkpoint/latest"

	req, err := http.NewRequest("GET", url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("x-api-key", c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to execute request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("failed to fetch checkpoint: status %d, body: %s", resp.StatusCode, string(body))
	}

	var result checkpointResponse
	if err := json.Unmarshal(body, &result); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w, body: %s", err, string(body))
	}

	if result.Value == "" {
		return nil, fmt.Errorf("checkpoint value is empty in response, body: %s", string(body))
	}

	return &Checkpoint{
		Value:           result.Value,
		LastValidHeight: result.LastValidHeight,
	}, nil
}

// SubmitTransaction sends a prepared transaction to the gateway for
// signing and broadcast. There is no automatic resubmission here; the
// caller decides whether a failure is retried.
func (c *Client) SubmitTransaction(tx *Transaction) (*SubmitResult, error) {
	url := strings.TrimSuffix(c.baseURL, "/") + "/v1/transactions"

	jsonData, err := json.Marshal(tx)
	if err != nil {
		return nil, fmt.Errorf("failed to encode transaction: %w", err)
	}

	req, err := http.NewRequest("POST", url, bytes.NewBuffer(jsonData))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("x-api-key", c.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to execute request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("failed to submit transaction: status %d, body: %s", resp.StatusCode, string(body))
	}

	var result SubmitResult
	if err := json.Unmarshal(body, &result); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w, body: %s", err, string(body))
	}

	if result.Signature == "" {
		return nil, fmt.Errorf("signature is empty in response, body: %s", string(body))
	}

	return &result, nil
}

// RetryWithBackoff executes a function with exponential backoff retry logic
func (c *Client) RetryWithBackoff(fn func() error, maxRetries int) error {
	backoffs := []time.Duration{1 * time.Second, 2 * time.Second, 4 * time.Second}

	var lastErr error
	for i := 0; i < maxRetries; i++ {
		err := fn()
		if err == nil {
			return nil
		}

		lastErr = err
		if i < len(backoffs) {
			time.Sleep(backoffs[i])
		}
	}

	return fmt.Errorf("failed after %d retries: %w", maxRetries, lastErr)
}
