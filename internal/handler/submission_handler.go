package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"mlbeam-backend/internal/service"
)

type SubmissionHandler interface {
	SubmitResearch(c *gin.Context)
	ListSubmissions(c *gin.Context)
	GetSubmissionStats(c *gin.Context)
	ReviewSubmission(c *gin.Context)
}

type submissionHandler struct {
	submissions service.SubmissionService
	logger      *zap.Logger
}

func NewSubmissionHandler(submissions service.SubmissionService, logger *zap.Logger) SubmissionHandler {
	return &submissionHandler{
		submissions: submissions,
		logger:      logger,
	}
}

// SubmitResearch handles POST /api/submissions
func (h *submissionHandler) SubmitResearch(c *gin.Context) {
	var input service.SubmitInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}

	sub, err := h.submissions.Submit(&input)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success":       true,
		"submission_id": sub.ID,
		"message":       "Research data submitted successfully for review",
	})
}

// ListSubmissions handles GET /api/admin/submissions
// Query parameters:
// - status: filter by status (optional)
func (h *submissionHandler) ListSubmissions(c *gin.Context) {
	subs, err := h.submissions.List(c.Query("status"))
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"submissions": subs, "total": len(subs)})
}

// GetSubmissionStats handles GET /api/admin/submissions/stats
func (h *submissionHandler) GetSubmissionStats(c *gin.Context) {
	stats, err := h.submissions.Stats()
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"by_status": stats})
}

// ReviewRequest carries a review decision from the admin dashboard.
type ReviewRequest struct {
	SubmissionID string `json:"submission_id" binding:"required"`
	Action       string `json:"action" binding:"required"`
}

// ReviewSubmission handles POST /api/admin/review
func (h *submissionHandler) ReviewSubmission(c *gin.Context) {
	var req ReviewRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Missing submission_id or action"})
		return
	}

	result, err := h.submissions.Review(c.Request.Context(), req.SubmissionID, req.Action)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusOK, result)
}
