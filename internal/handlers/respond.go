package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/pyronlaboratory/grapelock-sub001/internal/models"
)

// respondError maps an error kind to a stable machine-readable code and
// HTTP status. Every failure crossing the API boundary goes through
// here; internal detail stays in the message string.
func respondError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, models.ErrNotFound):
		c.JSON(http.StatusNotFound, models.ErrorResponse{
			Error: "not_found", Message: err.Error(),
		})
	case errors.Is(err, models.ErrValidationFailed):
		c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Error: "validation_failed", Message: err.Error(),
		})
	case errors.Is(err, models.ErrInvalidConfirmation):
		c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Error: "invalid_confirmation", Message: err.Error(),
		})
	case errors.Is(err, models.ErrInvalidStateTransition):
		c.JSON(http.StatusConflict, models.ErrorResponse{
			Error: "invalid_state_transition", Message: err.Error(),
		})
	case errors.Is(err, models.ErrTagRegistrationFailed):
		c.JSON(http.StatusUnprocessableEntity, models.ErrorResponse{
			Error: "tag_registration_failed", Message: err.Error(),
		})
	case errors.Is(err, models.ErrUpstreamFailure):
		c.JSON(http.StatusBadGateway, models.ErrorResponse{
			Error: "upstream_failure", Message: err.Error(),
		})
	default:
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{
			Error: "internal_error", Message: err.Error(),
		})
	}
}
