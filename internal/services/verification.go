package services

import (
	"crypto/ed25519"
	"encoding/base64"
	"encoding/hex"
	"fmt"

	"github.com/google/uuid"
	"github.com/pyronlaboratory/grapelock-sub001/internal/models"
	"github.com/pyronlaboratory/grapelock-sub001/internal/realtime"
)

// VerificationStore is the slice of the entity store the verification
// sub-flow reads and writes.
type VerificationStore interface {
	GetNFT(id uuid.UUID) (*models.NFT, error)
	UpdateNFTStatus(id uuid.UUID, to models.NFTStatus) (*models.NFT, error)
	UpsertTagVerification(chipID, manufacturer string, status models.TagStatus) (*models.Tag, error)
	GetTagByChipID(chipID string) (*models.Tag, error)
	RecordTagTamper(chipID, detail string) (*models.Tag, error)
	DeactivateTag(chipID string) (*models.Tag, error)
}

// Verification produces the off-chain audit attestation for a physical
// check and registers the tag it examined. An NFT can only move to
// verified through this flow: the tag must come back ACTIVE first, so a
// verified-without-tag state is never persisted.
type Verification struct {
	store      VerificationStore
	signingKey ed25519.PrivateKey
	publisher  *realtime.Client
}

// NewVerification builds the service. The signing key is a hex-encoded
// ed25519 seed; an empty key generates an ephemeral one (useful in
// development, attestations then don't survive a restart).
func NewVerification(store VerificationStore, signingKeyHex string, publisher *realtime.Client) (*Verification, error) {
	var key ed25519.PrivateKey
	if signingKeyHex == "" {
		_, generated, err := ed25519.GenerateKey(nil)
		if err != nil {
			return nil, fmt.Errorf("failed to generate signing key: %w", err)
		}
		key = generated
	} else {
		seed, err := hex.DecodeString(signingKeyHex)
		if err != nil {
			return nil, fmt.Errorf("invalid signing key: %w", err)
		}
		if len(seed) != ed25519.SeedSize {
			return nil, fmt.Errorf("signing key must be %d bytes, got %d", ed25519.SeedSize, len(seed))
		}
		key = ed25519.NewKeyFromSeed(seed)
	}

	return &Verification{
		store:      store,
		signingKey: key,
		publisher:  publisher,
	}, nil
}

// AuditNFT signs the physical-check payload and returns the attestation.
// Pure function of payload and signer; nothing is persisted.
func (v *Verification) AuditNFT(nftID uuid.UUID, chipID string, payload []byte) string {
	message := append([]byte(nftID.String()+":"+chipID+":"), payload...)
	sig := ed25519.Sign(v.signingKey, message)
	return base64.StdEncoding.EncodeToString(sig)
}

// RegisterTag records the verification event for a chip. It fails with
// ErrTagRegistrationFailed unless the resulting tag is ACTIVE (a
// previously tampered chip stays TAMPERED).
func (v *Verification) RegisterTag(chipID, manufacturer, signature string) (*models.Tag, error) {
	if signature == "" {
		return nil, fmt.Errorf("missing attestation signature: %w", models.ErrTagRegistrationFailed)
	}

	tag, err := v.store.UpsertTagVerification(chipID, manufacturer, models.TagStatusActive)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", models.ErrUpstreamFailure, err.Error())
	}

	if tag.Status != models.TagStatusActive {
		return nil, fmt.Errorf("tag %s is %s: %w", chipID, tag.Status, models.ErrTagRegistrationFailed)
	}

	return tag, nil
}

// GetTag looks a tag up by its chip id.
func (v *Verification) GetTag(chipID string) (*models.Tag, error) {
	return v.store.GetTagByChipID(chipID)
}

// ReportTamper records a tamper event against a chip. A tampered tag
// never comes back ACTIVE through verification, so the linked NFT can
// never reach verified afterwards.
func (v *Verification) ReportTamper(chipID, detail string) (*models.Tag, error) {
	if detail == "" {
		return nil, fmt.Errorf("tamper detail is required: %w", models.ErrValidationFailed)
	}
	return v.store.RecordTagTamper(chipID, detail)
}

// DeactivateTag retires a chip. Verification events on a deactivated tag
// no longer produce ACTIVE, so the linked NFT cannot reach verified
// through it afterwards.
func (v *Verification) DeactivateTag(chipID string) (*models.Tag, error) {
	return v.store.DeactivateTag(chipID)
}

// RegisterVerification runs the full sub-flow: attest, register the tag,
// and only then move the NFT to verified.
func (v *Verification) RegisterVerification(req models.RegisterVerificationRequest) (*models.NFT, *models.Tag, error) {
	nftID, err := uuid.Parse(req.NFTID)
	if err != nil {
		return nil, nil, fmt.Errorf("invalid nft id: %w", models.ErrValidationFailed)
	}

	nft, err := v.store.GetNFT(nftID)
	if err != nil {
		return nil, nil, err
	}

	if !nft.ChipID.Valid || nft.ChipID.String != req.ChipID {
		return nil, nil, fmt.Errorf("chip %s is not linked to nft %s: %w",
			req.ChipID, nftID, models.ErrValidationFailed)
	}

	payload, err := base64.StdEncoding.DecodeString(req.Payload)
	if err != nil {
		return nil, nil, fmt.Errorf("invalid payload encoding: %w", models.ErrValidationFailed)
	}

	signature := v.AuditNFT(nftID, req.ChipID, payload)

	tag, err := v.RegisterTag(req.ChipID, req.Manufacturer, signature)
	if err != nil {
		return nil, nil, err
	}

	verified, err := v.store.UpdateNFTStatus(nftID, models.NFTStatusVerified)
	if err != nil {
		return nil, nil, err
	}

	if v.publisher != nil {
		v.publisher.PublishNFTEvent(verified.ID, "nft_verified",
			realtime.NFTVerifiedPayload(verified.ID, req.ChipID))
	}

	return verified, tag, nil
}
