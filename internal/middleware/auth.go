// Package middleware provides authentication and authorization middleware for the Gin web framework.
package middleware

import (
	"context"
	"net/http"

	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"

	"faultdesk/internal/models"
	contextutils "faultdesk/internal/utils"
)

// Session and context keys for storing user information
const (
	// UserIDKey is the key used to store user ID in session
	UserIDKey = "user_id"
	// UsernameKey is the key used to store username in session
	UsernameKey = "username"
	// CurrentUserKey holds the freshly loaded models.User in the gin context
	CurrentUserKey = "current_user"
)

// UserLoader resolves the session user. It must reject deleted and unapproved accounts.
type UserLoader interface {
	CurrentUser(ctx context.Context, userID string) (*models.User, error)
}

func abortUnauthorized(c *gin.Context, message string) {
	c.JSON(http.StatusUnauthorized, gin.H{
		"error": message,
		"code":  string(contextutils.ErrorCodeUnauthorized),
	})
	c.Abort()
}

// RequireAuth returns a middleware that requires a session whose user still
// exists and is approved. The user is reloaded on every request so role
// changes apply immediately.
func RequireAuth(loader UserLoader) gin.HandlerFunc {
	return func(c *gin.Context) {
		session := sessions.Default(c)
		userID, ok := session.Get(UserIDKey).(string)
		if !ok || userID == "" {
			abortUnauthorized(c, "Authentication required")
			return
		}

		user, err := loader.CurrentUser(c.Request.Context(), userID)
		if err != nil {
			code := contextutils.GetErrorCode(err)
			switch code {
			case contextutils.ErrorCodeUnauthorized, contextutils.ErrorCodeAccountPending:
				session.Clear()
				_ = session.Save()
				c.JSON(http.StatusUnauthorized, gin.H{"error": err.Error(), "code": string(code)})
			default:
				c.JSON(http.StatusInternalServerError, gin.H{
					"error": "Failed to load current user",
					"code":  string(contextutils.ErrorCodeInternalError),
				})
			}
			c.Abort()
			return
		}

		c.Set(UserIDKey, user.ID)
		c.Set(UsernameKey, user.Username)
		c.Set(CurrentUserKey, *user)
		c.Request = c.Request.WithContext(contextutils.WithActorID(c.Request.Context(), user.ID))
		c.Next()
	}
}

// CurrentUser returns the user loaded by RequireAuth.
func CurrentUser(c *gin.Context) (models.User, bool) {
	v, exists := c.Get(CurrentUserKey)
	if !exists {
		return models.User{}, false
	}
	u, ok := v.(models.User)
	return u, ok
}

func requireRole(allowed func(models.Role) bool, message string) gin.HandlerFunc {
	return func(c *gin.Context) {
		user, ok := CurrentUser(c)
		if !ok {
			abortUnauthorized(c, "Authentication required")
			return
		}
		if !allowed(user.Role) {
			c.JSON(http.StatusForbidden, gin.H{
				"error": message,
				"code":  string(contextutils.ErrorCodeForbidden),
			})
			c.Abort()
			return
		}
		c.Next()
	}
}

// RequireManagerTier must run after RequireAuth; it admits MANAGER and ADMIN.
func RequireManagerTier() gin.HandlerFunc {
	return requireRole(models.Role.IsManagerTier, "Manager access required")
}

// RequireAdmin must run after RequireAuth; it admits ADMIN only.
func RequireAdmin() gin.HandlerFunc {
	return requireRole(func(r models.Role) bool { return r == models.RoleAdmin }, "Admin access required")
}
