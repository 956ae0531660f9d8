package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"mlbeam-backend/internal/models"
)

// respondError maps workflow errors onto HTTP responses. Validation and
// not-found errors carry enough detail for the caller to correct the request;
// everything unexpected collapses to a 500 without leaking internals.
func respondError(c *gin.Context, logger *zap.Logger, err error) {
	var vErr *models.ValidationError
	var rErr *models.RetrainingError

	switch {
	case errors.As(err, &vErr):
		c.JSON(http.StatusBadRequest, gin.H{"error": vErr.Error(), "fields": vErr.Fields})
	case errors.Is(err, models.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "Submission not found"})
	case errors.Is(err, models.ErrInvalidState):
		c.JSON(http.StatusConflict, gin.H{"error": "Submission has already been reviewed"})
	case errors.Is(err, models.ErrAlreadyInProgress):
		c.JSON(http.StatusConflict, gin.H{"error": "Another model operation is already in progress"})
	case errors.As(err, &rErr):
		c.JSON(http.StatusBadGateway, gin.H{"error": "Model retraining failed", "details": rErr.Error()})
	default:
		logger.Error("Request failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
	}
}
