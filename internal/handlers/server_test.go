package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
	"golang.org/x/crypto/bcrypt"

	"faultdesk/internal/config"
	"faultdesk/internal/models"
	"faultdesk/internal/observability"
	"faultdesk/internal/services"
	"faultdesk/internal/store"
	"faultdesk/internal/store/memory"
	"faultdesk/internal/voice"
)

const testPassword = "password"

type testServer struct {
	t       *testing.T
	cfg     *config.Config
	router  *gin.Engine
	stores  *store.Stores
	metrics *observability.Metrics
	logs    *observer.ObservedLogs

	admin   models.User
	manager models.User
	alice   models.User
	bob     models.User
}

func newTestServer(t *testing.T, mutate ...func(*config.Config)) *testServer {
	t.Helper()
	gin.SetMode(gin.TestMode)

	core, logs := observer.New(zap.DebugLevel)
	logger := observability.NewLoggerFromZap(zap.New(core))
	metrics, err := observability.NewMetrics()
	require.NoError(t, err)

	cfg := &config.Config{
		Server: config.ServerConfig{SessionSecret: "test-secret", MetricsEnabled: true},
		System: &config.SystemConfig{Auth: config.AuthConfig{BcryptCost: bcrypt.MinCost}},
	}
	for _, m := range mutate {
		m(cfg)
	}

	stores := memory.New().Stores()
	audit := services.NewAuditService(stores.AuditLogs, cfg, logger)
	auth := services.NewAuthService(stores.Users, audit, cfg, logger)
	users := services.NewUserService(stores, auth, audit, logger)
	ai := services.NewAIService(cfg, logger, metrics)
	feedback := services.NewFeedbackService(stores, audit, ai, cfg, metrics, logger)
	notes := services.NewNoteService(stores.Notes, logger)
	content := services.NewContentService(stores.Content, audit, logger)
	analytics := services.NewAnalyticsService(stores, logger)
	voiceManager := voice.NewManager(cfg.Voice, nil, logger, metrics)

	ts := &testServer{t: t, cfg: cfg, stores: stores, metrics: metrics, logs: logs}
	ts.router = NewRouter(cfg, auth, users, feedback, audit, analytics, notes, content, ai, voiceManager, metrics, logger)

	ts.admin = ts.seedUser("admin", models.RoleAdmin, nil, true)
	ts.manager = ts.seedUser("mgr", models.RoleManager, nil, true)
	ts.alice = ts.seedUser("alice", models.RoleUser, &ts.manager.ID, true)
	ts.bob = ts.seedUser("bob", models.RoleUser, &ts.manager.ID, true)
	return ts
}

func (ts *testServer) seedUser(username string, role models.Role, managerID *string, approved bool) models.User {
	ts.t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte(testPassword), bcrypt.MinCost)
	require.NoError(ts.t, err)
	now := time.Now().UTC()
	u := models.User{
		ID:           uuid.NewString(),
		Username:     username,
		Name:         username + " name",
		Role:         role,
		ManagerID:    managerID,
		IsApproved:   approved,
		PasswordHash: string(hash),
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	require.NoError(ts.t, ts.stores.Users.Upsert(context.Background(), &u))
	return u
}

// do sends a request with an optional JSON body and session cookies
func (ts *testServer) do(method, path string, body interface{}, cookies ...*http.Cookie) *httptest.ResponseRecorder {
	ts.t.Helper()
	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(ts.t, err)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	for _, c := range cookies {
		req.AddCookie(c)
	}
	w := httptest.NewRecorder()
	ts.router.ServeHTTP(w, req)
	return w
}

// login signs username in and returns its session cookies
func (ts *testServer) login(username string) []*http.Cookie {
	ts.t.Helper()
	w := ts.do(http.MethodPost, "/v1/auth/login", LoginRequest{Username: username, Password: testPassword})
	require.Equal(ts.t, http.StatusOK, w.Code, w.Body.String())
	cookies := w.Result().Cookies()
	require.NotEmpty(ts.t, cookies)
	return cookies
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out), w.Body.String())
	return out
}

type errorBody struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Details string `json:"details"`
}
