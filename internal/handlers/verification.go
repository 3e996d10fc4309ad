package handlers

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/pyronlaboratory/grapelock-sub001/internal/models"
	"github.com/pyronlaboratory/grapelock-sub001/internal/services"
)

type VerificationHandler struct {
	verification *services.Verification
}

func NewVerificationHandler(verification *services.Verification) *VerificationHandler {
	return &VerificationHandler{verification: verification}
}

// Register godoc
// @Summary     Register a physical verification
// @Description Attests the physical check, registers the tag and, only if the tag comes back ACTIVE, moves the NFT to verified.
// @Tags        verification
// @Accept      json
// @Produce     json
// @Security    Bearer
// @Param       request body models.RegisterVerificationRequest true "Verification payload"
// @Success     200 {object} models.VerificationResponse
// @Failure     400 {object} models.ErrorResponse
// @Failure     404 {object} models.ErrorResponse
// @Failure     422 {object} models.ErrorResponse
// @Router      /verifications [post]
func (h *VerificationHandler) Register(c *gin.Context) {
	var req models.RegisterVerificationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, fmt.Errorf("invalid request body: %s: %w", err.Error(), models.ErrValidationFailed))
		return
	}

	nft, tag, err := h.verification.RegisterVerification(req)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, models.VerificationResponse{
		NFT: nft.ToResponse(),
		Tag: tag.ToResponse(),
	})
}

func (h *VerificationHandler) GetTag(c *gin.Context) {
	tag, err := h.verification.GetTag(c.Param("chip_id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, tag.ToResponse())
}

// Deactivate retires an active chip so verification stops accepting it.
func (h *VerificationHandler) Deactivate(c *gin.Context) {
	tag, err := h.verification.DeactivateTag(c.Param("chip_id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, tag.ToResponse())
}

// ReportTamper flips a tag to TAMPERED and appends the event to its
// history. There is no way back through this API.
func (h *VerificationHandler) ReportTamper(c *gin.Context) {
	var req models.ReportTamperRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, fmt.Errorf("invalid request body: %s: %w", err.Error(), models.ErrValidationFailed))
		return
	}

	tag, err := h.verification.ReportTamper(c.Param("chip_id"), req.Detail)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, tag.ToResponse())
}
