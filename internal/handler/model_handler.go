package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"mlbeam-backend/internal/models"
	"mlbeam-backend/internal/predictor"
	"mlbeam-backend/internal/service"
)

type ModelHandler interface {
	GetModelVersions(c *gin.Context)
	GetModelInfo(c *gin.Context)
	RetrainModel(c *gin.Context)
	RollbackModel(c *gin.Context)
	Predict(c *gin.Context)
}

type modelHandler struct {
	lifecycle service.LifecycleService
	predictor *predictor.Client
	logger    *zap.Logger
}

func NewModelHandler(lifecycle service.LifecycleService, pred *predictor.Client, logger *zap.Logger) ModelHandler {
	return &modelHandler{
		lifecycle: lifecycle,
		predictor: pred,
		logger:    logger,
	}
}

// GetModelVersions handles GET /api/admin/model-versions
func (h *modelHandler) GetModelVersions(c *gin.Context) {
	versions, active, err := h.lifecycle.Versions()
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"versions":        versions,
		"current_version": active.VersionID,
	})
}

// GetModelInfo handles GET /api/model-info
func (h *modelHandler) GetModelInfo(c *gin.Context) {
	active, err := h.lifecycle.ActiveInfo()
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"version":            active.VersionID,
		"training_samples":   active.TrainingSamples,
		"additional_samples": active.AdditionalSamples,
		"r2_score":           active.R2Score,
		"oob_score":          active.OOBScore,
	})
}

// RetrainModel handles POST /api/admin/retrain
func (h *modelHandler) RetrainModel(c *gin.Context) {
	report, err := h.lifecycle.Retrain(c.Request.Context())
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusOK, report)
}

// RollbackModel handles POST /api/admin/rollback
func (h *modelHandler) RollbackModel(c *gin.Context) {
	if err := h.lifecycle.Rollback(c.Request.Context()); err != nil {
		respondError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "Model rolled back to baseline, contributed data cleared",
	})
}

// Predict handles POST /api/predict by forwarding the feature vector to the
// Prediction Runner.
func (h *modelHandler) Predict(c *gin.Context) {
	var features models.BeamFeatures
	if err := c.ShouldBindJSON(&features); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}

	prediction, err := h.predictor.Predict(c.Request.Context(), &features)
	if err != nil {
		h.logger.Error("Prediction request failed", zap.Error(err))
		c.JSON(http.StatusBadGateway, gin.H{"error": "Prediction service unavailable"})
		return
	}

	c.JSON(http.StatusOK, prediction)
}
