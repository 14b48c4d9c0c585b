package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel/attribute"

	"faultdesk/internal/models"
	"faultdesk/internal/observability"
	"faultdesk/internal/services"
)

// SetRoleRequest is the body of PUT /v1/users/:id/role
type SetRoleRequest struct {
	Role models.Role `json:"role" binding:"required,role"`
}

// AssignManagerRequest is the body of PUT /v1/users/:id/manager. A null or
// empty managerId detaches the user.
type AssignManagerRequest struct {
	ManagerID *string `json:"managerId"`
}

// UserHandler serves the user directory and account administration
type UserHandler struct {
	userService services.UserServiceInterface
	logger      *observability.Logger
}

// NewUserHandler creates a new UserHandler instance
func NewUserHandler(userService services.UserServiceInterface, logger *observability.Logger) *UserHandler {
	return &UserHandler{userService: userService, logger: logger}
}

// List returns the user directory. Viewers outside the manager tier get
// summaries only.
func (h *UserHandler) List(c *gin.Context) {
	ctx, span := observability.TraceHandlerFunction(c.Request.Context(), "list_users")
	defer observability.FinishSpan(span, nil)

	viewer, ok := currentUser(c)
	if !ok {
		return
	}
	users, err := h.userService.List(ctx, viewer)
	if err != nil {
		HandleAppError(c, err)
		return
	}
	if viewer.Role.IsManagerTier() {
		c.JSON(http.StatusOK, gin.H{"users": users})
		return
	}
	summaries := make([]models.UserSummary, 0, len(users))
	for _, u := range users {
		summaries = append(summaries, u.Summary())
	}
	c.JSON(http.StatusOK, gin.H{"users": summaries})
}

// Hierarchy returns the org forest for managers or the team view for users
func (h *UserHandler) Hierarchy(c *gin.Context) {
	ctx, span := observability.TraceHandlerFunction(c.Request.Context(), "user_hierarchy")
	defer observability.FinishSpan(span, nil)

	viewer, ok := currentUser(c)
	if !ok {
		return
	}
	view, err := h.userService.Hierarchy(ctx, viewer)
	if err != nil {
		HandleAppError(c, err)
		return
	}
	c.JSON(http.StatusOK, view)
}

// Create adds an approved account directly
func (h *UserHandler) Create(c *gin.Context) {
	ctx, span := observability.TraceHandlerFunction(c.Request.Context(), "create_user")
	defer observability.FinishSpan(span, nil)

	actor, ok := currentUser(c)
	if !ok {
		return
	}
	var req services.CreateUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		HandleBindError(c, err)
		return
	}
	span.SetAttributes(attribute.String("user.username", req.Username), attribute.String("user.role", string(req.Role)))

	user, err := h.userService.Create(ctx, actor, req)
	if err != nil {
		HandleAppError(c, err)
		return
	}
	c.JSON(http.StatusCreated, user)
}

// Approve activates a pending account
func (h *UserHandler) Approve(c *gin.Context) {
	ctx, span := observability.TraceHandlerFunction(c.Request.Context(), "approve_user", attribute.String("user.id", c.Param("id")))
	defer observability.FinishSpan(span, nil)

	actor, ok := currentUser(c)
	if !ok {
		return
	}
	user, err := h.userService.Approve(ctx, actor, c.Param("id"))
	if err != nil {
		HandleAppError(c, err)
		return
	}
	c.JSON(http.StatusOK, user)
}

// SetRole changes an account's role
func (h *UserHandler) SetRole(c *gin.Context) {
	ctx, span := observability.TraceHandlerFunction(c.Request.Context(), "set_user_role", attribute.String("user.id", c.Param("id")))
	defer observability.FinishSpan(span, nil)

	actor, ok := currentUser(c)
	if !ok {
		return
	}
	var req SetRoleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		HandleBindError(c, err)
		return
	}
	role, _ := models.ParseRole(string(req.Role))

	user, err := h.userService.SetRole(ctx, actor, c.Param("id"), role)
	if err != nil {
		HandleAppError(c, err)
		return
	}
	c.JSON(http.StatusOK, user)
}

// AssignManager sets or clears an account's manager
func (h *UserHandler) AssignManager(c *gin.Context) {
	ctx, span := observability.TraceHandlerFunction(c.Request.Context(), "assign_manager", attribute.String("user.id", c.Param("id")))
	defer observability.FinishSpan(span, nil)

	actor, ok := currentUser(c)
	if !ok {
		return
	}
	var req AssignManagerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		HandleBindError(c, err)
		return
	}

	user, err := h.userService.AssignManager(ctx, actor, c.Param("id"), req.ManagerID)
	if err != nil {
		HandleAppError(c, err)
		return
	}
	c.JSON(http.StatusOK, user)
}

// Delete removes an account and everything it owns
func (h *UserHandler) Delete(c *gin.Context) {
	ctx, span := observability.TraceHandlerFunction(c.Request.Context(), "delete_user", attribute.String("user.id", c.Param("id")))
	defer observability.FinishSpan(span, nil)

	actor, ok := currentUser(c)
	if !ok {
		return
	}
	result, err := h.userService.Delete(ctx, actor, c.Param("id"))
	if err != nil {
		HandleAppError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}
