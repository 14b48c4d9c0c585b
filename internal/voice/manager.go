package voice

import (
	"context"
	"net/http"
	"sync"

	"github.com/gorilla/websocket"
	"go.opentelemetry.io/otel/attribute"

	"faultdesk/internal/config"
	"faultdesk/internal/observability"
	contextutils "faultdesk/internal/utils"
)

// Dialer opens the upstream voice connection.
type Dialer interface {
	DialContext(ctx context.Context, urlStr string, requestHeader http.Header) (*websocket.Conn, *http.Response, error)
}

// Manager keeps at most one active session per user.
type Manager struct {
	cfg     config.VoiceConfig
	dialer  Dialer
	logger  *observability.Logger
	metrics *observability.Metrics

	mu       sync.Mutex
	sessions map[string]*Session
}

// NewManager creates a session manager. A nil dialer uses websocket.DefaultDialer.
func NewManager(cfg config.VoiceConfig, dialer Dialer, logger *observability.Logger, metrics *observability.Metrics) *Manager {
	if dialer == nil {
		dialer = websocket.DefaultDialer
	}
	return &Manager{
		cfg:      cfg,
		dialer:   dialer,
		logger:   logger,
		metrics:  metrics,
		sessions: make(map[string]*Session),
	}
}

// Enabled reports whether an upstream endpoint is configured.
func (m *Manager) Enabled() bool {
	return m.cfg.Enabled && m.cfg.URL != ""
}

// Start dials upstream and relays client through it. Any session the user
// already has is stopped first. The returned session runs until either side
// closes, ctx is cancelled or the configured time limit passes.
func (m *Manager) Start(ctx context.Context, userID string, client *websocket.Conn) (result0 *Session, err error) {
	ctx, span := observability.TraceVoiceFunction(ctx, "start_session", attribute.String("user.id", userID))
	defer observability.FinishSpan(span, &err)

	if !m.Enabled() {
		return nil, contextutils.WrapError(contextutils.ErrServiceUnavailable, "voice is not configured")
	}

	m.stopUser(userID)

	header := http.Header{}
	if m.cfg.APIKey != "" {
		header.Set("Authorization", "Bearer "+m.cfg.APIKey)
	}
	upstream, resp, err := m.dialer.DialContext(ctx, m.cfg.URL, header)
	if resp != nil && resp.Body != nil {
		_ = resp.Body.Close()
	}
	if err != nil {
		return nil, contextutils.WrapErrorf(contextutils.ErrServiceUnavailable, "failed to reach voice endpoint: %v", err)
	}

	s := NewSession(userID, client, upstream, m.logger, m.metrics)
	span.SetAttributes(attribute.String("voice.session_id", s.ID))

	m.mu.Lock()
	m.sessions[userID] = s
	m.mu.Unlock()

	// session lifetime is bound to the connection, not the request span
	s.Start(context.WithoutCancel(ctx), m.cfg.MaxSessionDuration)
	go m.forget(s)

	m.logger.Info(ctx, "Voice session started", map[string]interface{}{
		"session_id": s.ID,
		"user_id":    userID,
	})
	return s, nil
}

func (m *Manager) forget(s *Session) {
	<-s.Done()
	m.mu.Lock()
	if m.sessions[s.UserID] == s {
		delete(m.sessions, s.UserID)
	}
	m.mu.Unlock()
}

func (m *Manager) stopUser(userID string) {
	m.mu.Lock()
	prev := m.sessions[userID]
	delete(m.sessions, userID)
	m.mu.Unlock()
	if prev != nil {
		prev.Stop()
	}
}

// Active returns the session for userID, if any.
func (m *Manager) Active(userID string) (*Session, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sessions[userID]
	return s, ok
}

// Count returns the number of active sessions.
func (m *Manager) Count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.sessions)
}

// Shutdown stops every session.
func (m *Manager) Shutdown() {
	m.mu.Lock()
	all := make([]*Session, 0, len(m.sessions))
	for _, s := range m.sessions {
		all = append(all, s)
	}
	m.sessions = make(map[string]*Session)
	m.mu.Unlock()

	for _, s := range all {
		s.Stop()
	}
}
