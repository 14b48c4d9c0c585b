package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel/attribute"

	"faultdesk/internal/observability"
	"faultdesk/internal/services"
)

// Audit log paging
const (
	defaultAuditPageSize = 100
	maxAuditPageSize     = 500
)

// InsightsHandler serves the analytics dashboard and the audit trail
type InsightsHandler struct {
	analyticsService services.AnalyticsServiceInterface
	auditService     services.AuditServiceInterface
	logger           *observability.Logger
}

// NewInsightsHandler creates a new InsightsHandler instance
func NewInsightsHandler(analyticsService services.AnalyticsServiceInterface, auditService services.AuditServiceInterface, logger *observability.Logger) *InsightsHandler {
	return &InsightsHandler{analyticsService: analyticsService, auditService: auditService, logger: logger}
}

// Analytics returns the dashboard summary; managers may pass ?userId=
func (h *InsightsHandler) Analytics(c *gin.Context) {
	ctx, span := observability.TraceHandlerFunction(c.Request.Context(), "analytics",
		attribute.String("analytics.selected_user_id", c.Query("userId")))
	defer observability.FinishSpan(span, nil)

	viewer, ok := currentUser(c)
	if !ok {
		return
	}
	summary, err := h.analyticsService.Summary(ctx, viewer, c.Query("userId"))
	if err != nil {
		HandleAppError(c, err)
		return
	}
	c.JSON(http.StatusOK, summary)
}

// AuditLogs returns the role-filtered audit trail, newest first
func (h *InsightsHandler) AuditLogs(c *gin.Context) {
	ctx, span := observability.TraceHandlerFunction(c.Request.Context(), "audit_logs")
	defer observability.FinishSpan(span, nil)

	viewer, ok := currentUser(c)
	if !ok {
		return
	}
	page, size := ParsePagination(c, 1, defaultAuditPageSize, maxAuditPageSize)

	logs, err := h.auditService.List(ctx, viewer)
	if err != nil {
		HandleAppError(c, err)
		return
	}
	items, pagination := Paginate(logs, page, size)
	WritePaginated(c, "logs", items, pagination, nil)
}
