package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel/attribute"

	"faultdesk/internal/observability"
	"faultdesk/internal/services"
)

// ReorderNotesRequest is the body of PUT /v1/notes/order
type ReorderNotesRequest struct {
	IDs []string `json:"ids" binding:"required"`
}

// NoteHandler serves the caller's personal notes board
type NoteHandler struct {
	noteService services.NoteServiceInterface
	logger      *observability.Logger
}

// NewNoteHandler creates a new NoteHandler instance
func NewNoteHandler(noteService services.NoteServiceInterface, logger *observability.Logger) *NoteHandler {
	return &NoteHandler{noteService: noteService, logger: logger}
}

// List returns the caller's notes in board order
func (h *NoteHandler) List(c *gin.Context) {
	ctx, span := observability.TraceHandlerFunction(c.Request.Context(), "list_notes")
	defer observability.FinishSpan(span, nil)

	owner, ok := currentUser(c)
	if !ok {
		return
	}
	notes, err := h.noteService.List(ctx, owner)
	if err != nil {
		HandleAppError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"notes": notes})
}

// Create adds a note to the end of the board
func (h *NoteHandler) Create(c *gin.Context) {
	ctx, span := observability.TraceHandlerFunction(c.Request.Context(), "create_note")
	defer observability.FinishSpan(span, nil)

	owner, ok := currentUser(c)
	if !ok {
		return
	}
	var req services.NoteInput
	if err := c.ShouldBindJSON(&req); err != nil {
		HandleBindError(c, err)
		return
	}
	note, err := h.noteService.Create(ctx, owner, req)
	if err != nil {
		HandleAppError(c, err)
		return
	}
	c.JSON(http.StatusCreated, note)
}

// Update edits one of the caller's notes
func (h *NoteHandler) Update(c *gin.Context) {
	ctx, span := observability.TraceHandlerFunction(c.Request.Context(), "update_note", attribute.String("note.id", c.Param("id")))
	defer observability.FinishSpan(span, nil)

	owner, ok := currentUser(c)
	if !ok {
		return
	}
	var req services.NoteInput
	if err := c.ShouldBindJSON(&req); err != nil {
		HandleBindError(c, err)
		return
	}
	note, err := h.noteService.Update(ctx, owner, c.Param("id"), req)
	if err != nil {
		HandleAppError(c, err)
		return
	}
	c.JSON(http.StatusOK, note)
}

// Delete removes one of the caller's notes
func (h *NoteHandler) Delete(c *gin.Context) {
	ctx, span := observability.TraceHandlerFunction(c.Request.Context(), "delete_note", attribute.String("note.id", c.Param("id")))
	defer observability.FinishSpan(span, nil)

	owner, ok := currentUser(c)
	if !ok {
		return
	}
	if err := h.noteService.Delete(ctx, owner, c.Param("id")); err != nil {
		HandleAppError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// Reorder rewrites board order from the full list of note ids
func (h *NoteHandler) Reorder(c *gin.Context) {
	ctx, span := observability.TraceHandlerFunction(c.Request.Context(), "reorder_notes")
	defer observability.FinishSpan(span, nil)

	owner, ok := currentUser(c)
	if !ok {
		return
	}
	var req ReorderNotesRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		HandleBindError(c, err)
		return
	}
	notes, err := h.noteService.Reorder(ctx, owner, req.IDs)
	if err != nil {
		HandleAppError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"notes": notes})
}
