package handlers

import (
	"net/http"

	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel/attribute"

	"faultdesk/internal/config"
	"faultdesk/internal/middleware"
	"faultdesk/internal/observability"
	"faultdesk/internal/services"
	contextutils "faultdesk/internal/utils"
)

// LoginRequest is the credential payload for POST /v1/auth/login
type LoginRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// AuthHandler handles authentication related HTTP requests
type AuthHandler struct {
	authService services.AuthServiceInterface
	config      *config.Config
	logger      *observability.Logger
}

// NewAuthHandler creates a new AuthHandler instance
func NewAuthHandler(authService services.AuthServiceInterface, cfg *config.Config, logger *observability.Logger) *AuthHandler {
	return &AuthHandler{authService: authService, config: cfg, logger: logger}
}

// Login checks credentials and starts a session
func (h *AuthHandler) Login(c *gin.Context) {
	ctx, span := observability.TraceHandlerFunction(c.Request.Context(), "login")
	defer observability.FinishSpan(span, nil)

	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		HandleBindError(c, err)
		return
	}
	span.SetAttributes(attribute.String("auth.username", req.Username))

	user, err := h.authService.Login(ctx, req.Username, req.Password)
	if err != nil {
		h.logger.Warn(ctx, "Login rejected", map[string]interface{}{
			"username": req.Username,
			"code":     string(contextutils.GetErrorCode(err)),
		})
		HandleAppError(c, err)
		return
	}
	span.SetAttributes(attribute.String("user.id", user.ID), attribute.String("user.role", user.Role.String()))

	session := sessions.Default(c)
	session.Set(middleware.UserIDKey, user.ID)
	session.Set(middleware.UsernameKey, user.Username)
	if err := session.Save(); err != nil {
		h.logger.Error(ctx, "Failed to save session", err)
		HandleAppError(c, contextutils.WrapError(err, "failed to create session"))
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "Login successful",
		"user":    user,
	})
}

// Signup registers a pending account. It does not start a session.
func (h *AuthHandler) Signup(c *gin.Context) {
	ctx, span := observability.TraceHandlerFunction(c.Request.Context(), "signup")
	defer observability.FinishSpan(span, nil)

	var req services.SignupRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		HandleBindError(c, err)
		return
	}
	span.SetAttributes(attribute.String("auth.username", req.Username))

	user, err := h.authService.Signup(ctx, req)
	if err != nil {
		HandleAppError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"success": true,
		"message": "Account created. A manager must approve it before you can sign in.",
		"user":    user,
	})
}

// Logout clears the session
func (h *AuthHandler) Logout(c *gin.Context) {
	_, span := observability.TraceHandlerFunction(c.Request.Context(), "logout")
	defer observability.FinishSpan(span, nil)

	session := sessions.Default(c)
	if username, ok := session.Get(middleware.UsernameKey).(string); ok {
		span.SetAttributes(attribute.String("user.username", username))
	}
	session.Clear()
	if err := session.Save(); err != nil {
		HandleAppError(c, contextutils.WrapError(err, "failed to clear session"))
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "message": "Logout successful"})
}

// Me returns the signed-in user
func (h *AuthHandler) Me(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"user":             user,
		"signups_disabled": h.config.IsSignupDisabled(),
	})
}
