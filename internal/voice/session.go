// Package voice relays a browser WebSocket to an upstream realtime voice
// endpoint. Binary frames carry audio and are forwarded untouched; text frames
// carry JSON events.
package voice

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"faultdesk/internal/config"
	"faultdesk/internal/observability"
)

const (
	writeWait      = config.VoiceWriteWait
	maxMessageSize = 1 << 20
)

// Event types carried in text frames
const (
	EventTranscript = "transcript"
	EventInterrupt  = "interrupt"
	EventError      = "error"
)

// Event is a JSON control message exchanged in text frames
type Event struct {
	Type string `json:"type"`
	Text string `json:"text,omitempty"`
}

// Session pairs one client connection with one upstream connection.
type Session struct {
	ID     string
	UserID string

	client   *websocket.Conn
	upstream *websocket.Conn
	logger   *observability.Logger
	metrics  *observability.Metrics

	// one writer per connection at a time
	clientMu   sync.Mutex
	upstreamMu sync.Mutex

	wg       sync.WaitGroup
	done     chan struct{}
	stopOnce sync.Once
}

// NewSession wraps an already-established pair of connections.
func NewSession(userID string, client, upstream *websocket.Conn, logger *observability.Logger, metrics *observability.Metrics) *Session {
	return &Session{
		ID:       uuid.NewString(),
		UserID:   userID,
		client:   client,
		upstream: upstream,
		logger:   logger,
		metrics:  metrics,
		done:     make(chan struct{}),
	}
}

// Start launches both pumps. maxDuration <= 0 means no limit.
func (s *Session) Start(ctx context.Context, maxDuration time.Duration) {
	s.metrics.VoiceSessionStarted()
	s.client.SetReadLimit(maxMessageSize)
	s.upstream.SetReadLimit(maxMessageSize)

	s.wg.Add(2)
	go s.pump(ctx, "client_to_upstream", s.client, s.upstream, &s.upstreamMu)
	go s.pump(ctx, "upstream_to_client", s.upstream, s.client, &s.clientMu)

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		var timeout <-chan time.Time
		if maxDuration > 0 {
			timer := time.NewTimer(maxDuration)
			defer timer.Stop()
			timeout = timer.C
		}
		select {
		case <-s.done:
		case <-ctx.Done():
			s.shutdown("context cancelled")
		case <-timeout:
			s.notifyClient(ctx, Event{Type: EventError, Text: "session time limit reached"})
			s.shutdown("max duration reached")
		}
	}()
}

// Done is closed once the session has begun shutting down.
func (s *Session) Done() <-chan struct{} {
	return s.done
}

// Stop closes both connections and waits for the pumps. Safe to call more than once.
func (s *Session) Stop() {
	s.shutdown("stopped")
	s.wg.Wait()
}

// shutdown closes both connections without waiting; pumps call it on exit.
func (s *Session) shutdown(reason string) {
	s.stopOnce.Do(func() {
		close(s.done)
		s.closeConn(s.client, &s.clientMu)
		s.closeConn(s.upstream, &s.upstreamMu)
		s.metrics.VoiceSessionEnded()
		s.logger.Info(context.Background(), "Voice session ended", map[string]interface{}{
			"session_id": s.ID,
			"user_id":    s.UserID,
			"reason":     reason,
		})
	})
}

func (s *Session) closeConn(conn *websocket.Conn, mu *sync.Mutex) {
	mu.Lock()
	_ = conn.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
		time.Now().Add(writeWait))
	mu.Unlock()
	_ = conn.Close()
}

func (s *Session) notifyClient(ctx context.Context, ev Event) {
	payload, err := json.Marshal(ev)
	if err != nil {
		return
	}
	if err := s.write(s.client, &s.clientMu, websocket.TextMessage, payload); err != nil {
		s.logger.Debug(ctx, "Failed to notify voice client", map[string]interface{}{"error": err.Error()})
	}
}

func (s *Session) write(conn *websocket.Conn, mu *sync.Mutex, messageType int, data []byte) error {
	mu.Lock()
	defer mu.Unlock()
	_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
	return conn.WriteMessage(messageType, data)
}

// pump copies frames from src to dst until either side fails.
func (s *Session) pump(ctx context.Context, direction string, src, dst *websocket.Conn, dstMu *sync.Mutex) {
	defer s.wg.Done()
	defer s.shutdown(direction + " closed")

	for {
		messageType, data, err := src.ReadMessage()
		if err != nil {
			if !isExpectedClose(err) {
				s.logger.Debug(ctx, "Voice relay read failed", map[string]interface{}{
					"session_id": s.ID,
					"direction":  direction,
					"error":      err.Error(),
				})
			}
			return
		}

		switch messageType {
		case websocket.BinaryMessage:
		case websocket.TextMessage:
			ev, ok := ParseEvent(data)
			if !ok {
				s.logger.Debug(ctx, "Dropping malformed voice event", map[string]interface{}{
					"session_id": s.ID,
					"direction":  direction,
				})
				continue
			}
			if ev.Type == EventTranscript {
				s.logger.Debug(ctx, "Voice transcript", map[string]interface{}{
					"session_id": s.ID,
					"direction":  direction,
					"length":     len(ev.Text),
				})
			}
		default:
			continue
		}

		if err := s.write(dst, dstMu, messageType, data); err != nil {
			return
		}
	}
}

// ParseEvent decodes a text frame. Frames without a type are rejected.
func ParseEvent(data []byte) (Event, bool) {
	var ev Event
	if err := json.Unmarshal(data, &ev); err != nil || ev.Type == "" {
		return Event{}, false
	}
	return ev, true
}

func isExpectedClose(err error) bool {
	if websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway, websocket.CloseNoStatusReceived) {
		return true
	}
	return errors.Is(err, websocket.ErrCloseSent)
}
