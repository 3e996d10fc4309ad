// Package realtime pushes entity status events to the frontend. Status
// writes on watched tables already trigger Supabase Realtime; explicit
// publishes are kept behind this client so event names stay in one place.
package realtime

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/supabase-community/supabase-go"
)

type Client struct {
	client *supabase.Client
}

func NewClient(client *supabase.Client) *Client {
	return &Client{
		client: client,
	}
}

func (r *Client) PublishEvent(channel string, event string, payload map[string]interface{}) error {
	// Database updates on collections/nfts/orders trigger Realtime
	// automatically; this hook exists for events with no backing write.
	return nil
}

func (r *Client) PublishCollectionEvent(collectionID uuid.UUID, event string, payload map[string]interface{}) error {
	channel := fmt.Sprintf("collection:%s", collectionID.String())
	return r.PublishEvent(channel, event, payload)
}

func (r *Client) PublishNFTEvent(nftID uuid.UUID, event string, payload map[string]interface{}) error {
	channel := fmt.Sprintf("nft:%s", nftID.String())
	return r.PublishEvent(channel, event, payload)
}

func (r *Client) PublishOrderEvent(orderID uuid.UUID, event string, payload map[string]interface{}) error {
	channel := fmt.Sprintf("order:%s", orderID.String())
	return r.PublishEvent(channel, event, payload)
}

// Event payloads
func CollectionPublishedPayload(collectionID uuid.UUID, txSignature string) map[string]interface{} {
	return map[string]interface{}{
		"collection_id": collectionID.String(),
		"status":        "published",
		"tx_signature":  txSignature,
	}
}

func CollectionFailedPayload(collectionID uuid.UUID, errorMsg string) map[string]interface{} {
	return map[string]interface{}{
		"collection_id": collectionID.String(),
		"status":        "failed",
		"error":         errorMsg,
	}
}

func NFTMintedPayload(nftID uuid.UUID, txSignature string) map[string]interface{} {
	return map[string]interface{}{
		"nft_id":       nftID.String(),
		"status":       "minted",
		"tx_signature": txSignature,
	}
}

func NFTMintFailedPayload(nftID uuid.UUID, errorMsg string) map[string]interface{} {
	return map[string]interface{}{
		"nft_id": nftID.String(),
		"status": "failed",
		"error":  errorMsg,
	}
}

func NFTVerifiedPayload(nftID uuid.UUID, chipID string) map[string]interface{} {
	return map[string]interface{}{
		"nft_id":  nftID.String(),
		"status":  "verified",
		"chip_id": chipID,
	}
}

func OrderCompletedPayload(orderID, offerID, nftID uuid.UUID) map[string]interface{} {
	return map[string]interface{}{
		"order_id": orderID.String(),
		"offer_id": offerID.String(),
		"nft_id":   nftID.String(),
		"status":   "completed",
	}
}
