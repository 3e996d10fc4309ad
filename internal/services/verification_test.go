package services_test

import (
	"crypto/ed25519"
	"database/sql"
	"encoding/base64"
	"encoding/hex"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pyronlaboratory/grapelock-sub001/internal/models"
	"github.com/pyronlaboratory/grapelock-sub001/internal/services"
)

type fakeVerificationStore struct {
	nfts map[uuid.UUID]*models.NFT
	tags map[string]*models.Tag

	statusWrites int
}

func newFakeVerificationStore(nfts ...*models.NFT) *fakeVerificationStore {
	s := &fakeVerificationStore{
		nfts: make(map[uuid.UUID]*models.NFT),
		tags: make(map[string]*models.Tag),
	}
	for _, n := range nfts {
		s.nfts[n.ID] = n
	}
	return s
}

func (s *fakeVerificationStore) GetNFT(id uuid.UUID) (*models.NFT, error) {
	n, ok := s.nfts[id]
	if !ok {
		return nil, models.ErrNotFound
	}
	copied := *n
	return &copied, nil
}

func (s *fakeVerificationStore) UpdateNFTStatus(id uuid.UUID, to models.NFTStatus) (*models.NFT, error) {
	n, ok := s.nfts[id]
	if !ok {
		return nil, models.ErrNotFound
	}
	if !models.NFTCanTransition(n.Status, to) {
		return nil, models.ErrInvalidStateTransition
	}
	n.Status = to
	s.statusWrites++
	copied := *n
	return &copied, nil
}

func (s *fakeVerificationStore) UpsertTagVerification(chipID, manufacturer string, status models.TagStatus) (*models.Tag, error) {
	tag, ok := s.tags[chipID]
	if !ok {
		tag = &models.Tag{ID: uuid.New(), ChipID: chipID, Manufacturer: manufacturer, Status: status}
		s.tags[chipID] = tag
	} else if tag.Status == models.TagStatusActive {
		tag.Status = status
	}
	tag.VerificationCount++
	copied := *tag
	return &copied, nil
}

func (s *fakeVerificationStore) GetTagByChipID(chipID string) (*models.Tag, error) {
	tag, ok := s.tags[chipID]
	if !ok {
		return nil, models.ErrNotFound
	}
	copied := *tag
	return &copied, nil
}

func (s *fakeVerificationStore) RecordTagTamper(chipID, detail string) (*models.Tag, error) {
	tag, ok := s.tags[chipID]
	if !ok {
		return nil, models.ErrNotFound
	}
	tag.Status = models.TagStatusTampered
	copied := *tag
	return &copied, nil
}

func (s *fakeVerificationStore) DeactivateTag(chipID string) (*models.Tag, error) {
	tag, ok := s.tags[chipID]
	if !ok {
		return nil, models.ErrNotFound
	}
	if tag.Status != models.TagStatusActive {
		return nil, models.ErrInvalidStateTransition
	}
	tag.Status = models.TagStatusDeactivated
	copied := *tag
	return &copied, nil
}

func linkedNFT(chipID string) *models.NFT {
	return &models.NFT{
		ID:     uuid.New(),
		ChipID: sql.NullString{String: chipID, Valid: true},
		Status: models.NFTStatusLinked,
	}
}

const testSeedHex = "4f2a8d3c91e07b6655aa3f0c8b12de94761cb3a2f0e85d174c6b9e20a1357f08"

func TestVerification_RegisterVerification(t *testing.T) {
	nft := linkedNFT("chip-001")
	store := newFakeVerificationStore(nft)
	v, err := services.NewVerification(store, testSeedHex, nil)
	require.NoError(t, err)

	verified, tag, err := v.RegisterVerification(models.RegisterVerificationRequest{
		NFTID:        nft.ID.String(),
		ChipID:       "chip-001",
		Manufacturer: "ntag",
		Payload:      base64.StdEncoding.EncodeToString([]byte("challenge")),
	})
	require.NoError(t, err)

	assert.Equal(t, models.NFTStatusVerified, verified.Status)
	assert.Equal(t, models.TagStatusActive, tag.Status)
	assert.Equal(t, 1, tag.VerificationCount)
}

func TestVerification_ChipMismatchRejectedBeforeAnyWrite(t *testing.T) {
	nft := linkedNFT("chip-001")
	store := newFakeVerificationStore(nft)
	v, err := services.NewVerification(store, testSeedHex, nil)
	require.NoError(t, err)

	_, _, err = v.RegisterVerification(models.RegisterVerificationRequest{
		NFTID:        nft.ID.String(),
		ChipID:       "chip-999",
		Manufacturer: "ntag",
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, models.ErrValidationFailed)

	assert.Empty(t, store.tags)
	assert.Equal(t, 0, store.statusWrites)
	assert.Equal(t, models.NFTStatusLinked, store.nfts[nft.ID].Status)
}

func TestVerification_TamperedTagBlocksVerified(t *testing.T) {
	nft := linkedNFT("chip-001")
	store := newFakeVerificationStore(nft)
	store.tags["chip-001"] = &models.Tag{
		ID:     uuid.New(),
		ChipID: "chip-001",
		Status: models.TagStatusTampered,
	}

	v, err := services.NewVerification(store, testSeedHex, nil)
	require.NoError(t, err)

	_, _, err = v.RegisterVerification(models.RegisterVerificationRequest{
		NFTID:        nft.ID.String(),
		ChipID:       "chip-001",
		Manufacturer: "ntag",
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, models.ErrTagRegistrationFailed)

	// verified-without-tag is never persisted.
	assert.Equal(t, 0, store.statusWrites)
	assert.Equal(t, models.NFTStatusLinked, store.nfts[nft.ID].Status)
}

func TestVerification_RegisterTagRequiresSignature(t *testing.T) {
	store := newFakeVerificationStore()
	v, err := services.NewVerification(store, testSeedHex, nil)
	require.NoError(t, err)

	_, err = v.RegisterTag("chip-001", "ntag", "")
	require.Error(t, err)
	assert.ErrorIs(t, err, models.ErrTagRegistrationFailed)
	assert.Empty(t, store.tags)
}

func TestVerification_AuditNFTIsDeterministic(t *testing.T) {
	store := newFakeVerificationStore()
	v, err := services.NewVerification(store, testSeedHex, nil)
	require.NoError(t, err)

	nftID := uuid.New()
	payload := []byte("challenge")

	sig := v.AuditNFT(nftID, "chip-001", payload)
	assert.Equal(t, sig, v.AuditNFT(nftID, "chip-001", payload))
	assert.NotEqual(t, sig, v.AuditNFT(nftID, "chip-002", payload))

	// The attestation verifies against the configured key.
	seed, err := hex.DecodeString(testSeedHex)
	require.NoError(t, err)
	pub := ed25519.NewKeyFromSeed(seed).Public().(ed25519.PublicKey)

	raw, err := base64.StdEncoding.DecodeString(sig)
	require.NoError(t, err)
	message := append([]byte(nftID.String()+":chip-001:"), payload...)
	assert.True(t, ed25519.Verify(pub, message, raw))
}

func TestVerification_ReportTamperBlocksLaterVerification(t *testing.T) {
	nft := linkedNFT("chip-001")
	store := newFakeVerificationStore(nft)
	store.tags["chip-001"] = &models.Tag{ID: uuid.New(), ChipID: "chip-001", Status: models.TagStatusActive}

	v, err := services.NewVerification(store, testSeedHex, nil)
	require.NoError(t, err)

	tag, err := v.ReportTamper("chip-001", "seal broken")
	require.NoError(t, err)
	assert.Equal(t, models.TagStatusTampered, tag.Status)

	_, _, err = v.RegisterVerification(models.RegisterVerificationRequest{
		NFTID:        nft.ID.String(),
		ChipID:       "chip-001",
		Manufacturer: "ntag",
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, models.ErrTagRegistrationFailed)

	_, err = v.ReportTamper("chip-001", "")
	assert.ErrorIs(t, err, models.ErrValidationFailed)
}

func TestVerification_DeactivatedTagStaysRetired(t *testing.T) {
	nft := linkedNFT("chip-001")
	store := newFakeVerificationStore(nft)
	store.tags["chip-001"] = &models.Tag{ID: uuid.New(), ChipID: "chip-001", Status: models.TagStatusActive}

	v, err := services.NewVerification(store, testSeedHex, nil)
	require.NoError(t, err)

	tag, err := v.DeactivateTag("chip-001")
	require.NoError(t, err)
	assert.Equal(t, models.TagStatusDeactivated, tag.Status)

	// A verification event does not resurrect a retired chip.
	_, _, err = v.RegisterVerification(models.RegisterVerificationRequest{
		NFTID:        nft.ID.String(),
		ChipID:       "chip-001",
		Manufacturer: "ntag",
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, models.ErrTagRegistrationFailed)
	assert.Equal(t, models.TagStatusDeactivated, store.tags["chip-001"].Status)
	assert.Equal(t, 0, store.statusWrites)

	_, err = v.DeactivateTag("chip-001")
	assert.ErrorIs(t, err, models.ErrInvalidStateTransition)
}

func TestVerification_RejectsBadSigningKey(t *testing.T) {
	store := newFakeVerificationStore()

	_, err := services.NewVerification(store, "not-hex", nil)
	assert.Error(t, err)

	_, err = services.NewVerification(store, "abcd", nil)
	assert.Error(t, err)
}
