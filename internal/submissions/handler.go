package submissions

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"clinicalforge/contributor-portal/contributor-portal-backend/internal/errs"
)

// Handler handles HTTP requests for submission operations.
type Handler struct {
	service      Service
	logger       *zap.Logger
	collaborator func(*gin.Context) *UserProfile
}

// NewHandler creates a submissions handler. collaborator extracts the
// signed-in profile set by the auth middleware.
func NewHandler(service Service, logger *zap.Logger, collaborator func(*gin.Context) *UserProfile) *Handler {
	return &Handler{
		service:      service,
		logger:       logger,
		collaborator: collaborator,
	}
}

// RegisterRoutes registers submission routes.
func (h *Handler) RegisterRoutes(router *gin.RouterGroup) {
	subs := router.Group("/submissions")
	{
		subs.POST("", h.submit)
		subs.POST("/drafts", h.saveDraft)
		subs.GET("", h.list)
		subs.GET("/search", h.search)
		subs.GET("/:id", h.get)
		subs.PUT("/:id", h.resubmit)
		subs.PATCH("/:id/status", h.updateStatus)
	}
}

// SubmitRequest is the body of POST /submissions and /submissions/drafts.
type SubmitRequest struct {
	FormType FormType `json:"form_type" binding:"required"`
	Payload  Payload  `json:"payload"`
	Priority string   `json:"priority,omitempty"`
}

// StatusUpdateRequest is the body of PATCH /submissions/:id/status.
type StatusUpdateRequest struct {
	Status          SubmissionStatus `json:"status" binding:"required"`
	ExpectedVersion int64            `json:"expected_version" binding:"required"`
}

func (h *Handler) submit(c *gin.Context) {
	var req SubmitRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	submission, err := h.service.Submit(c.Request.Context(), h.collaborator(c), req.FormType, req.Payload)
	if err != nil {
		h.respondError(c, err, "Failed to submit")
		return
	}
	c.JSON(http.StatusCreated, submission)
}

func (h *Handler) saveDraft(c *gin.Context) {
	var req SubmitRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	submission, err := h.service.SaveDraft(c.Request.Context(), h.collaborator(c), req.FormType, req.Payload)
	if err != nil {
		h.respondError(c, err, "Failed to save draft")
		return
	}
	c.JSON(http.StatusCreated, submission)
}

func (h *Handler) get(c *gin.Context) {
	submission, err := h.service.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.respondError(c, err, "Failed to load submission")
		return
	}
	if submission == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "submission not found"})
		return
	}
	c.JSON(http.StatusOK, submission)
}

func (h *Handler) resubmit(c *gin.Context) {
	var req SubmitRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	submission, err := h.service.Resubmit(c.Request.Context(), h.collaborator(c), c.Param("id"), req.Payload)
	if err != nil {
		h.respondError(c, err, "Failed to resubmit")
		return
	}
	c.JSON(http.StatusOK, submission)
}

// list returns the caller's submissions, or a status-filtered list when the
// status query parameter is present.
func (h *Handler) list(c *gin.Context) {
	limit, _ := strconv.ParseInt(c.DefaultQuery("limit", "0"), 10, 64)

	var (
		result []Submission
		err    error
	)
	if status := c.Query("status"); status != "" {
		result, err = h.service.ListByStatus(c.Request.Context(), SubmissionStatus(status), limit)
	} else {
		profile := h.collaborator(c)
		if profile == nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "sign in required"})
			return
		}
		result, err = h.service.ListByCollaborator(c.Request.Context(), profile.UID, limit)
	}
	if err != nil {
		h.respondError(c, err, "Failed to list submissions")
		return
	}

	if c.Query("format") == "json-download" {
		c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=submissions-%s.json",
			time.Now().Format("2006-01-02")))
	}
	c.JSON(http.StatusOK, gin.H{"submissions": result, "count": len(result)})
}

func (h *Handler) search(c *gin.Context) {
	keyword := c.Query("q")
	if keyword == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "query parameter q is required"})
		return
	}

	result, err := h.service.Search(c.Request.Context(), keyword)
	if err != nil {
		h.respondError(c, err, "Failed to search submissions")
		return
	}
	c.JSON(http.StatusOK, gin.H{"submissions": result, "count": len(result)})
}

func (h *Handler) updateStatus(c *gin.Context) {
	var req StatusUpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	profile := h.collaborator(c)
	actorID := ""
	if profile != nil {
		actorID = profile.UID
	}

	err := h.service.UpdateStatus(c.Request.Context(), c.Param("id"), req.Status, actorID, req.ExpectedVersion)
	if err != nil {
		h.respondError(c, err, "Failed to update status")
		return
	}
	c.JSON(http.StatusOK, gin.H{"submission_id": c.Param("id"), "status": req.Status})
}

// respondError maps the portal's error kinds to HTTP statuses. In-progress
// form state lives client-side, so write failures surface as retryable
// notifications.
func (h *Handler) respondError(c *gin.Context, err error, logMsg string) {
	var validationErr *errs.ValidationError
	switch {
	case errors.As(err, &validationErr):
		c.JSON(http.StatusBadRequest, gin.H{
			"error":  "validation failed",
			"fields": validationErr.Fields,
		})
	case errors.Is(err, errs.ErrUnauthenticated):
		c.JSON(http.StatusUnauthorized, gin.H{"error": "sign in required"})
	case errors.Is(err, errs.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "submission not found"})
	case errors.Is(err, errs.ErrConflict):
		c.JSON(http.StatusConflict, gin.H{"error": "submission was modified concurrently, reload and retry"})
	case errors.Is(err, errs.ErrInvalidTransition):
		c.JSON(http.StatusConflict, gin.H{"error": "status can only move forward"})
	case errors.Is(err, errs.ErrPermissionDenied):
		c.JSON(http.StatusForbidden, gin.H{"error": "permission denied"})
	case errors.Is(err, errs.ErrDeadlineExceeded):
		c.JSON(http.StatusGatewayTimeout, gin.H{"error": "storage timed out, please retry"})
	case errors.Is(err, errs.ErrStorageUnavailable):
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "storage unavailable, please retry"})
	default:
		h.logger.Error(logMsg, zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
	}
}
