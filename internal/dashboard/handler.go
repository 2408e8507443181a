package dashboard

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"clinicalforge/contributor-portal/contributor-portal-backend/internal/export"
	"clinicalforge/contributor-portal/contributor-portal-backend/internal/submissions"
)

// SubmissionLister provides the rows for CSV export.
type SubmissionLister interface {
	ListByStatus(ctx context.Context, status submissions.SubmissionStatus, limit int64) ([]submissions.Submission, error)
}

// Handler handles HTTP requests for dashboard views and downloads.
type Handler struct {
	aggregator *Aggregator
	hub        *Hub
	lister     SubmissionLister
	logger     *zap.Logger
}

// NewHandler creates a dashboard handler.
func NewHandler(aggregator *Aggregator, hub *Hub, lister SubmissionLister, logger *zap.Logger) *Handler {
	return &Handler{
		aggregator: aggregator,
		hub:        hub,
		lister:     lister,
		logger:     logger,
	}
}

// RegisterRoutes registers dashboard routes.
func (h *Handler) RegisterRoutes(router *gin.RouterGroup) {
	dash := router.Group("/dashboard")
	{
		dash.GET("/stats", h.getStats)
		dash.POST("/refresh", h.refresh)
		dash.GET("/health", h.health)
		dash.GET("/ws", h.websocket)
		dash.GET("/export/stats.xlsx", h.exportStatsExcel)
		dash.GET("/export/stats.json", h.exportStatsJSON)
		dash.GET("/export/submissions.csv", h.exportSubmissionsCSV)
	}
}

// getStats never fails: aggregation resolves to empty stats on read errors.
func (h *Handler) getStats(c *gin.Context) {
	c.JSON(http.StatusOK, h.aggregator.GetDashboardStats(c.Request.Context()))
}

func (h *Handler) refresh(c *gin.Context) {
	h.aggregator.Invalidate()
	stats := h.aggregator.Refresh(c.Request.Context())
	h.hub.BroadcastStats(stats)
	c.JSON(http.StatusOK, stats)
}

func (h *Handler) health(c *gin.Context) {
	stats := h.aggregator.GetDashboardStats(c.Request.Context())
	c.JSON(http.StatusOK, gin.H{
		"system_health": stats.SystemHealth,
		"cache":         h.aggregator.CacheStats(),
		"ws_clients":    h.hub.ClientCount(),
	})
}

func (h *Handler) websocket(c *gin.Context) {
	if err := h.hub.HandleConnection(c.Writer, c.Request); err != nil {
		h.logger.Warn("Failed to upgrade dashboard connection", zap.Error(err))
	}
}

func (h *Handler) exportStatsExcel(c *gin.Context) {
	stats := h.aggregator.GetDashboardStats(c.Request.Context())

	exporter := export.NewExcelExporter()
	defer exporter.Close()
	if err := exporter.WriteDashboardStats(stats); err != nil {
		h.logger.Error("Failed to build dashboard workbook", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "export failed"})
		return
	}

	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=dashboard-%s.xlsx",
		time.Now().Format("2006-01-02")))
	c.Header("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	if err := exporter.WriteTo(c.Writer); err != nil {
		h.logger.Error("Failed to stream dashboard workbook", zap.Error(err))
	}
}

func (h *Handler) exportStatsJSON(c *gin.Context) {
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=dashboard-%s.json",
		time.Now().Format("2006-01-02")))
	c.JSON(http.StatusOK, h.aggregator.GetDashboardStats(c.Request.Context()))
}

func (h *Handler) exportSubmissionsCSV(c *gin.Context) {
	status := submissions.SubmissionStatus(c.DefaultQuery("status", string(submissions.StatusSubmitted)))
	rows, err := h.lister.ListByStatus(c.Request.Context(), status, 0)
	if err != nil {
		h.logger.Error("Failed to load submissions for export", zap.Error(err))
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "storage unavailable, please retry"})
		return
	}

	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=submissions-%s.csv",
		time.Now().Format("2006-01-02")))
	c.Header("Content-Type", "text/csv")
	exporter := export.NewCSVExporter(c.Writer, export.DefaultCSVOptions())
	if err := exporter.WriteSubmissions(rows); err != nil {
		h.logger.Error("Failed to stream submissions CSV", zap.Error(err))
	}
}
