package services

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
	"golang.org/x/crypto/bcrypt"

	"faultdesk/internal/config"
	"faultdesk/internal/models"
	"faultdesk/internal/observability"
	"faultdesk/internal/store"
	"faultdesk/internal/store/memory"
)

type stubAI struct {
	analysis string
	calls    int
}

func (s *stubAI) Refine(_ context.Context, text, _ string) string { return "refined: " + text }

func (s *stubAI) Analyze(_ context.Context, _ string) string {
	s.calls++
	return s.analysis
}

func (s *stubAI) Coach(_ context.Context, _ string) string { return "tip" }

type fixture struct {
	mem      *memory.Store
	stores   *store.Stores
	cfg      *config.Config
	logs     *observer.ObservedLogs
	metrics  *observability.Metrics
	ai       *stubAI
	audit    *AuditService
	auth     *AuthService
	users    *UserService
	feedback *FeedbackService
	notes    *NoteService
	content  *ContentService
	stats    *AnalyticsService
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	core, logs := observer.New(zap.DebugLevel)
	logger := observability.NewLoggerFromZap(zap.New(core))
	metrics, err := observability.NewMetrics()
	require.NoError(t, err)

	cfg := &config.Config{System: &config.SystemConfig{Auth: config.AuthConfig{BcryptCost: bcrypt.MinCost}}}
	mem := memory.New()
	stores := mem.Stores()

	f := &fixture{mem: mem, stores: stores, cfg: cfg, logs: logs, metrics: metrics, ai: &stubAI{analysis: "looks like a training gap"}}
	f.audit = NewAuditService(stores.AuditLogs, cfg, logger)
	f.auth = NewAuthService(stores.Users, f.audit, cfg, logger)
	f.users = NewUserService(stores, f.auth, f.audit, logger)
	f.feedback = NewFeedbackService(stores, f.audit, f.ai, cfg, metrics, logger)
	f.notes = NewNoteService(stores.Notes, logger)
	f.content = NewContentService(stores.Content, f.audit, logger)
	f.stats = NewAnalyticsService(stores, logger)
	return f
}

// seedUser stores an approved user with password "password".
func (f *fixture) seedUser(t *testing.T, username string, role models.Role, managerID *string) models.User {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte("password"), bcrypt.MinCost)
	require.NoError(t, err)
	now := time.Now().UTC()
	u := models.User{
		ID:           uuid.NewString(),
		Username:     username,
		Name:         username + " name",
		Role:         role,
		ManagerID:    managerID,
		IsApproved:   true,
		PasswordHash: string(hash),
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	require.NoError(t, f.stores.Users.Upsert(context.Background(), &u))
	return u
}

func (f *fixture) auditActions(t *testing.T) []string {
	t.Helper()
	logs, err := f.stores.AuditLogs.List(context.Background(), 0)
	require.NoError(t, err)
	out := make([]string, 0, len(logs))
	for _, l := range logs {
		out = append(out, l.Action)
	}
	return out
}

func countAction(actions []string, action string) int {
	n := 0
	for _, a := range actions {
		if a == action {
			n++
		}
	}
	return n
}

func strPtr(s string) *string { return &s }
