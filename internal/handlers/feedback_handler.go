package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel/attribute"

	"faultdesk/internal/models"
	"faultdesk/internal/observability"
	"faultdesk/internal/services"
)

// Feedback list paging
const (
	defaultFeedbackPageSize = 50
	maxFeedbackPageSize     = 200
)

// ApproveRequest is the optional body of POST /v1/feedback/:id/approve
type ApproveRequest struct {
	Notes string `json:"notes"`
}

// RejectRequest is the body of POST /v1/feedback/:id/reject
type RejectRequest struct {
	Reason string `json:"reason" binding:"required"`
}

// StatusRequest is the body of PUT /v1/feedback/:id/status
type StatusRequest struct {
	Status models.ResolutionStatus `json:"status" binding:"required,resolution_status"`
}

// FeedbackHandler serves fault reports
type FeedbackHandler struct {
	feedbackService services.FeedbackServiceInterface
	logger          *observability.Logger
}

// NewFeedbackHandler creates a new FeedbackHandler instance
func NewFeedbackHandler(feedbackService services.FeedbackServiceInterface, logger *observability.Logger) *FeedbackHandler {
	return &FeedbackHandler{feedbackService: feedbackService, logger: logger}
}

// List returns the reports visible to the caller, filtered by ?q= and paged
func (h *FeedbackHandler) List(c *gin.Context) {
	ctx, span := observability.TraceHandlerFunction(c.Request.Context(), "list_feedback")
	defer observability.FinishSpan(span, nil)

	viewer, ok := currentUser(c)
	if !ok {
		return
	}
	query := c.Query("q")
	page, size := ParsePagination(c, 1, defaultFeedbackPageSize, maxFeedbackPageSize)
	span.SetAttributes(observability.AttributeSearch(query), attribute.Int("page", page))

	views, err := h.feedbackService.List(ctx, viewer, query)
	if err != nil {
		HandleAppError(c, err)
		return
	}
	items, pagination := Paginate(views, page, size)
	WritePaginated(c, "feedback", items, pagination, nil)
}

// Submit files a new report from the caller
func (h *FeedbackHandler) Submit(c *gin.Context) {
	ctx, span := observability.TraceHandlerFunction(c.Request.Context(), "submit_feedback")
	defer observability.FinishSpan(span, nil)

	actor, ok := currentUser(c)
	if !ok {
		return
	}
	var req services.SubmitFeedbackRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		HandleBindError(c, err)
		return
	}

	f, err := h.feedbackService.Submit(ctx, actor, req)
	if err != nil {
		HandleAppError(c, err)
		return
	}
	c.JSON(http.StatusCreated, f)
}

// Get returns one report if the caller may see it
func (h *FeedbackHandler) Get(c *gin.Context) {
	ctx, span := observability.TraceHandlerFunction(c.Request.Context(), "get_feedback", observability.AttributeFeedbackID(c.Param("id")))
	defer observability.FinishSpan(span, nil)

	viewer, ok := currentUser(c)
	if !ok {
		return
	}
	v, err := h.feedbackService.Get(ctx, viewer, c.Param("id"))
	if err != nil {
		HandleAppError(c, err)
		return
	}
	c.JSON(http.StatusOK, v)
}

// Approve accepts a report, optionally with manager notes
func (h *FeedbackHandler) Approve(c *gin.Context) {
	ctx, span := observability.TraceHandlerFunction(c.Request.Context(), "approve_feedback", observability.AttributeFeedbackID(c.Param("id")))
	defer observability.FinishSpan(span, nil)

	actor, ok := currentUser(c)
	if !ok {
		return
	}
	var req ApproveRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			HandleBindError(c, err)
			return
		}
	}

	f, err := h.feedbackService.Approve(ctx, actor, c.Param("id"), req.Notes)
	if err != nil {
		HandleAppError(c, err)
		return
	}
	c.JSON(http.StatusOK, f)
}

// Reject declines a report with a reason
func (h *FeedbackHandler) Reject(c *gin.Context) {
	ctx, span := observability.TraceHandlerFunction(c.Request.Context(), "reject_feedback", observability.AttributeFeedbackID(c.Param("id")))
	defer observability.FinishSpan(span, nil)

	actor, ok := currentUser(c)
	if !ok {
		return
	}
	var req RejectRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		HandleBindError(c, err)
		return
	}

	f, err := h.feedbackService.Reject(ctx, actor, c.Param("id"), req.Reason)
	if err != nil {
		HandleAppError(c, err)
		return
	}
	c.JSON(http.StatusOK, f)
}

// SetStatus moves an approved report along its resolution lifecycle
func (h *FeedbackHandler) SetStatus(c *gin.Context) {
	ctx, span := observability.TraceHandlerFunction(c.Request.Context(), "set_feedback_status", observability.AttributeFeedbackID(c.Param("id")))
	defer observability.FinishSpan(span, nil)

	actor, ok := currentUser(c)
	if !ok {
		return
	}
	var req StatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		HandleBindError(c, err)
		return
	}

	f, err := h.feedbackService.SetStatus(ctx, actor, c.Param("id"), req.Status)
	if err != nil {
		HandleAppError(c, err)
		return
	}
	c.JSON(http.StatusOK, f)
}

// Analyze stores an AI summary of the report
func (h *FeedbackHandler) Analyze(c *gin.Context) {
	ctx, span := observability.TraceHandlerFunction(c.Request.Context(), "analyze_feedback", observability.AttributeFeedbackID(c.Param("id")))
	defer observability.FinishSpan(span, nil)

	actor, ok := currentUser(c)
	if !ok {
		return
	}
	f, err := h.feedbackService.Analyze(ctx, actor, c.Param("id"))
	if err != nil {
		HandleAppError(c, err)
		return
	}
	c.JSON(http.StatusOK, f)
}
