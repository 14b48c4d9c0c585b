package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel/attribute"

	"faultdesk/internal/observability"
	"faultdesk/internal/services"
)

// RefineRequest is the body of POST /v1/ai/refine
type RefineRequest struct {
	Text     string `json:"text" binding:"required"`
	Category string `json:"category"`
}

// CoachRequest is the body of POST /v1/ai/coach
type CoachRequest struct {
	Text string `json:"text" binding:"required"`
}

// AIHandler exposes the writing helpers. Responses are always 200; failures
// degrade to fallback text.
type AIHandler struct {
	aiService services.AIServiceInterface
	logger    *observability.Logger
}

// NewAIHandler creates a new AIHandler instance
func NewAIHandler(aiService services.AIServiceInterface, logger *observability.Logger) *AIHandler {
	return &AIHandler{aiService: aiService, logger: logger}
}

// Refine rewrites draft feedback into a professional tone
func (h *AIHandler) Refine(c *gin.Context) {
	ctx, span := observability.TraceHandlerFunction(c.Request.Context(), "ai_refine")
	defer observability.FinishSpan(span, nil)

	var req RefineRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		HandleBindError(c, err)
		return
	}
	span.SetAttributes(attribute.Int("text.length", len(req.Text)), attribute.String("ai.category", req.Category))

	c.JSON(http.StatusOK, gin.H{"text": h.aiService.Refine(ctx, req.Text, req.Category)})
}

// Coach returns suggestions for the employee named in a report
func (h *AIHandler) Coach(c *gin.Context) {
	ctx, span := observability.TraceHandlerFunction(c.Request.Context(), "ai_coach")
	defer observability.FinishSpan(span, nil)

	var req CoachRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		HandleBindError(c, err)
		return
	}
	span.SetAttributes(attribute.Int("text.length", len(req.Text)))

	c.JSON(http.StatusOK, gin.H{"text": h.aiService.Coach(ctx, req.Text)})
}
