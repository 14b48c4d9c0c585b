package handlers

import (
	"net/http"
	"net/url"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"faultdesk/internal/config"
	"faultdesk/internal/observability"
	"faultdesk/internal/voice"
	contextutils "faultdesk/internal/utils"
)

// VoiceHandler upgrades the caller to a relayed voice session
type VoiceHandler struct {
	manager        *voice.Manager
	allowedOrigins []string
	upgrader       websocket.Upgrader
	logger         *observability.Logger
}

// NewVoiceHandler creates a new VoiceHandler. An empty origin list admits any origin.
func NewVoiceHandler(manager *voice.Manager, allowedOrigins []string, logger *observability.Logger) *VoiceHandler {
	h := &VoiceHandler{manager: manager, allowedOrigins: allowedOrigins, logger: logger}
	h.upgrader = websocket.Upgrader{
		ReadBufferSize:  4096,
		WriteBufferSize: 4096,
		CheckOrigin:     h.checkOrigin,
	}
	return h
}

func (h *VoiceHandler) checkOrigin(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	if origin == "" || len(h.allowedOrigins) == 0 {
		return true
	}
	for _, allowed := range h.allowedOrigins {
		if origin == allowed {
			return true
		}
	}
	// same host is always allowed
	if u, err := url.Parse(origin); err == nil && u.Host == r.Host {
		return true
	}
	return false
}

// Session handles GET /v1/voice/session. The request blocks until the relay ends.
func (h *VoiceHandler) Session(c *gin.Context) {
	ctx, span := observability.TraceHandlerFunction(c.Request.Context(), "voice_session")
	defer observability.FinishSpan(span, nil)

	user, ok := currentUser(c)
	if !ok {
		return
	}
	if !h.manager.Enabled() {
		HandleAppError(c, contextutils.WrapError(contextutils.ErrServiceUnavailable, "voice is not configured"))
		return
	}

	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		// the upgrader has already written an HTTP error
		h.logger.Warn(ctx, "WebSocket upgrade failed", map[string]interface{}{"error": err.Error()})
		return
	}

	session, err := h.manager.Start(ctx, user.ID, conn)
	if err != nil {
		h.logger.Error(ctx, "Failed to start voice session", err, map[string]interface{}{"user_id": user.ID})
		_ = conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseTryAgainLater, "voice unavailable"),
			time.Now().Add(config.VoiceWriteWait))
		_ = conn.Close()
		return
	}
	<-session.Done()
}
