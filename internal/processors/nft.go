package processors

import (
	"context"
	"encoding/json"
	"fmt"
	"log"

	"github.com/google/uuid"
	"github.com/pyronlaboratory/grapelock-sub001/internal/chain"
	"github.com/pyronlaboratory/grapelock-sub001/internal/models"
	"github.com/pyronlaboratory/grapelock-sub001/internal/queue"
	"github.com/pyronlaboratory/grapelock-sub001/internal/realtime"
)

// NFTStore is the slice of the entity store the mint processor writes
// through. It also reads the parent collection for the on-chain
// back-reference.
type NFTStore interface {
	GetNFT(id uuid.UUID) (*models.NFT, error)
	GetCollection(id uuid.UUID) (*models.Collection, error)
	UpdateNFTStatus(id uuid.UUID, to models.NFTStatus) (*models.NFT, error)
	SetNFTMetadataURI(id uuid.UUID, uri string) error
	MarkNFTMinted(id uuid.UUID, metadataURI, mintAddr, tokenAddr, metadataAddr, masterEditionAddr, txSignature string) (*models.NFT, error)
	MarkNFTFailed(id uuid.UUID, errorMsg string) error
}

// NFTJobPayload references the pending NFT a job mints on-chain.
type NFTJobPayload struct {
	NFTID uuid.UUID `json:"nft_id"`
}

// NFTJobResult is attached to the completed job for status polls.
type NFTJobResult struct {
	NFTID uuid.UUID `json:"nft_id"`
}

type AssetMintProcessor struct {
	store       NFTStore
	uploader    MetadataUploader
	submitter   TransactionSubmitter
	checkpoints CheckpointSource
	publisher   *realtime.Client
}

func NewAssetMintProcessor(
	store NFTStore,
	uploader MetadataUploader,
	submitter TransactionSubmitter,
	checkpoints CheckpointSource,
	publisher *realtime.Client,
) *AssetMintProcessor {
	return &AssetMintProcessor{
		store:       store,
		uploader:    uploader,
		submitter:   submitter,
		checkpoints: checkpoints,
		publisher:   publisher,
	}
}

func (p *AssetMintProcessor) Kind() queue.Kind {
	return queue.KindMintAsset
}

func (p *AssetMintProcessor) Process(ctx context.Context, payload json.RawMessage) (interface{}, error) {
	var jobPayload NFTJobPayload
	if err := json.Unmarshal(payload, &jobPayload); err != nil {
		return nil, fmt.Errorf("failed to decode job payload: %w", err)
	}

	nft, err := p.store.GetNFT(jobPayload.NFTID)
	if err != nil {
		return nil, fmt.Errorf("failed to load nft: %w", err)
	}

	// Re-delivery guard: anything past the mint means this job already
	// ran; only a recorded failure is re-signalled.
	if nft.Status == models.NFTStatusFailed {
		return nil, fmt.Errorf("nft %s already terminal in status %s: %s",
			nft.ID, nft.Status, nft.ErrorMessage.String)
	}
	if nft.IsTerminal() {
		return NFTJobResult{NFTID: nft.ID}, nil
	}

	if nft.Status != models.NFTStatusProcessing {
		if nft, err = p.store.UpdateNFTStatus(nft.ID, models.NFTStatusProcessing); err != nil {
			return nil, fmt.Errorf("failed to mark nft processing: %w", err)
		}
	}

	col, err := p.store.GetCollection(nft.CollectionID)
	if err != nil {
		return nil, p.fail(nft.ID, fmt.Errorf("load parent collection: %w", err))
	}
	if col.Status != models.CollectionStatusPublished {
		return nil, p.fail(nft.ID, fmt.Errorf("parent collection %s is %s, not published", col.ID, col.Status))
	}

	metadataURI, err := p.uploadMetadata(nft)
	if err != nil {
		return nil, p.fail(nft.ID, fmt.Errorf("metadata upload: %w", err))
	}

	result, err := p.submit(nft, col, metadataURI)
	if err != nil {
		return nil, p.fail(nft.ID, fmt.Errorf("transaction submit: %w", err))
	}

	updated, err := p.store.MarkNFTMinted(nft.ID, metadataURI,
		result.MintAddress, result.TokenAddress, result.MetadataAddress,
		result.MasterEditionAddress, result.Signature)
	if err != nil {
		return nil, p.fail(nft.ID, fmt.Errorf("persist mint: %w", err))
	}

	if p.publisher != nil {
		p.publisher.PublishNFTEvent(updated.ID, "nft_minted",
			realtime.NFTMintedPayload(updated.ID, result.Signature))
	}

	return NFTJobResult{NFTID: updated.ID}, nil
}

func (p *AssetMintProcessor) uploadMetadata(nft *models.NFT) (string, error) {
	var attrs []models.NFTAttribute
	if len(nft.Attributes) > 0 {
		if err := json.Unmarshal(nft.Attributes, &attrs); err != nil {
			return "", fmt.Errorf("decode attributes: %w", err)
		}
	}

	doc := metadataDoc{
		Name:                 nft.Name,
		Symbol:               nft.Symbol,
		Description:          nft.Description,
		Image:                nft.MediaURI,
		SellerFeeBasisPoints: nft.SellerFeeBasisPoints,
		Attributes:           attrs,
	}

	uri, err := p.uploader.UploadMetadata("nfts", nft.ID, doc)
	if err != nil {
		return "", err
	}

	if err := p.store.SetNFTMetadataURI(nft.ID, uri); err != nil {
		return "", err
	}

	return uri, nil
}

func (p *AssetMintProcessor) submit(nft *models.NFT, col *models.Collection, metadataURI string) (*chain.SubmitResult, error) {
	cp, err := p.checkpoints.Get()
	if err != nil {
		return nil, fmt.Errorf("checkpoint fetch: %w", err)
	}

	// Batch-type assets mint maxSupply units under one record; singles
	// always mint exactly one.
	maxSupply := 1
	if nft.Type == models.NFTTypeBatch && nft.MaxSupply > 1 {
		maxSupply = nft.MaxSupply
	}

	tx := &chain.Transaction{
		Kind:                 chain.TxMintNFT,
		Checkpoint:           cp.Value,
		LastValidHeight:      cp.LastValidHeight,
		CreatorAddress:       nft.CreatorAddress,
		OwnerAddress:         nft.OwnerAddress,
		SellerFeeBasisPoints: nft.SellerFeeBasisPoints,
		MetadataURI:          metadataURI,
		Name:                 nft.Name,
		Symbol:               nft.Symbol,
		CollectionMint:       col.MintAddress.String,
		MaxSupply:            maxSupply,
	}

	return p.submitter.SubmitTransaction(tx)
}

func (p *AssetMintProcessor) fail(id uuid.UUID, cause error) error {
	if err := p.store.MarkNFTFailed(id, cause.Error()); err != nil {
		log.Printf("Failed to record nft %s failure: %v", id, err)
	}
	if p.publisher != nil {
		p.publisher.PublishNFTEvent(id, "nft_mint_failed",
			realtime.NFTMintFailedPayload(id, cause.Error()))
	}
	return fmt.Errorf("%w: %s", models.ErrUpstreamFailure, cause.Error())
}
