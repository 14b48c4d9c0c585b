package handlers

import (
	"github.com/gin-gonic/gin"

	"faultdesk/internal/middleware"
	"faultdesk/internal/models"
	contextutils "faultdesk/internal/utils"
)

// currentUser returns the user loaded by middleware.RequireAuth. When the
// route was mounted without it, a 401 is written and ok is false.
func currentUser(c *gin.Context) (models.User, bool) {
	user, ok := middleware.CurrentUser(c)
	if !ok {
		HandleAppError(c, contextutils.WrapError(contextutils.ErrUnauthorized, "authentication required"))
		return models.User{}, false
	}
	return user, true
}
