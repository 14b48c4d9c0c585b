package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"faultdesk/internal/observability"
	"faultdesk/internal/services"
)

// ContentHandler serves announcements and knowledge base articles
type ContentHandler struct {
	contentService services.ContentServiceInterface
	logger         *observability.Logger
}

// NewContentHandler creates a new ContentHandler instance
func NewContentHandler(contentService services.ContentServiceInterface, logger *observability.Logger) *ContentHandler {
	return &ContentHandler{contentService: contentService, logger: logger}
}

// ListAnnouncements returns announcements, important first
func (h *ContentHandler) ListAnnouncements(c *gin.Context) {
	ctx, span := observability.TraceHandlerFunction(c.Request.Context(), "list_announcements")
	defer observability.FinishSpan(span, nil)

	items, err := h.contentService.ListAnnouncements(ctx)
	if err != nil {
		HandleAppError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"announcements": items})
}

// CreateAnnouncement publishes an announcement
func (h *ContentHandler) CreateAnnouncement(c *gin.Context) {
	ctx, span := observability.TraceHandlerFunction(c.Request.Context(), "create_announcement")
	defer observability.FinishSpan(span, nil)

	actor, ok := currentUser(c)
	if !ok {
		return
	}
	var req services.AnnouncementInput
	if err := c.ShouldBindJSON(&req); err != nil {
		HandleBindError(c, err)
		return
	}
	a, err := h.contentService.CreateAnnouncement(ctx, actor, req)
	if err != nil {
		HandleAppError(c, err)
		return
	}
	c.JSON(http.StatusCreated, a)
}

// DeleteAnnouncement removes an announcement
func (h *ContentHandler) DeleteAnnouncement(c *gin.Context) {
	ctx, span := observability.TraceHandlerFunction(c.Request.Context(), "delete_announcement")
	defer observability.FinishSpan(span, nil)

	actor, ok := currentUser(c)
	if !ok {
		return
	}
	if err := h.contentService.DeleteAnnouncement(ctx, actor, c.Param("id")); err != nil {
		HandleAppError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// ListArticles returns the knowledge base
func (h *ContentHandler) ListArticles(c *gin.Context) {
	ctx, span := observability.TraceHandlerFunction(c.Request.Context(), "list_articles")
	defer observability.FinishSpan(span, nil)

	items, err := h.contentService.ListArticles(ctx)
	if err != nil {
		HandleAppError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"articles": items})
}

// CreateArticle publishes a knowledge base article
func (h *ContentHandler) CreateArticle(c *gin.Context) {
	ctx, span := observability.TraceHandlerFunction(c.Request.Context(), "create_article")
	defer observability.FinishSpan(span, nil)

	actor, ok := currentUser(c)
	if !ok {
		return
	}
	var req services.ArticleInput
	if err := c.ShouldBindJSON(&req); err != nil {
		HandleBindError(c, err)
		return
	}
	a, err := h.contentService.CreateArticle(ctx, actor, req)
	if err != nil {
		HandleAppError(c, err)
		return
	}
	c.JSON(http.StatusCreated, a)
}

// DeleteArticle removes a knowledge base article
func (h *ContentHandler) DeleteArticle(c *gin.Context) {
	ctx, span := observability.TraceHandlerFunction(c.Request.Context(), "delete_article")
	defer observability.FinishSpan(span, nil)

	actor, ok := currentUser(c)
	if !ok {
		return
	}
	if err := h.contentService.DeleteArticle(ctx, actor, c.Param("id")); err != nil {
		HandleAppError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
