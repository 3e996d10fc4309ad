package handlers

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/pyronlaboratory/grapelock-sub001/internal/models"
	"github.com/pyronlaboratory/grapelock-sub001/internal/services"
)

type JobsHandler struct {
	resolver *services.JobStatusResolver
}

func NewJobsHandler(resolver *services.JobStatusResolver) *JobsHandler {
	return &JobsHandler{resolver: resolver}
}

// GetStatus godoc
// @Summary     Poll a job
// @Description Reports queued/processing/completed/failed. A completed job carries the produced entity as result.
// @Tags        jobs
// @Produce     json
// @Security    Bearer
// @Param       job_id path string true "Job ID (UUID)"
// @Success     200 {object} models.JobStatusResponse
// @Failure     400 {object} models.ErrorResponse
// @Failure     404 {object} models.ErrorResponse
// @Router      /jobs/{job_id} [get]
func (h *JobsHandler) GetStatus(c *gin.Context) {
	id, err := uuid.Parse(c.Param("job_id"))
	if err != nil {
		respondError(c, fmt.Errorf("invalid job id: %w", models.ErrValidationFailed))
		return
	}

	status, err := h.resolver.Resolve(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, status)
}
