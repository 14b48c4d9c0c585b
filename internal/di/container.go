// Package di provides dependency injection container for managing service lifecycle and dependencies.
package di

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sync"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"faultdesk/internal/config"
	"faultdesk/internal/database"
	"faultdesk/internal/handlers"
	"faultdesk/internal/observability"
	"faultdesk/internal/services"
	"faultdesk/internal/store"
	"faultdesk/internal/store/fallback"
	"faultdesk/internal/store/memory"
	"faultdesk/internal/store/postgres"
	"faultdesk/internal/voice"
	contextutils "faultdesk/internal/utils"
)

// ServiceContainerInterface defines the interface for service containers
type ServiceContainerInterface interface {
	Stores() *store.Stores
	AuthService() *services.AuthService
	UserService() *services.UserService
	AuditService() *services.AuditService
	FeedbackService() *services.FeedbackService
	VoiceManager() *voice.Manager
	Metrics() *observability.Metrics
	GetDatabase() *sql.DB
	GetConfig() *config.Config
	GetLogger() *observability.Logger
	Router() *gin.Engine
	Initialize(ctx context.Context) error
	Shutdown(ctx context.Context) error
	EnsureAdminUser(ctx context.Context) error
}

// ServiceContainer manages all service dependencies and lifecycle
type ServiceContainer struct {
	cfg     *config.Config
	logger  *observability.Logger
	metrics *observability.Metrics
	dialer  voice.Dialer

	dbManager *database.Manager
	db        *sql.DB
	cache     fallback.Cache
	stores    *store.Stores

	audit     *services.AuditService
	auth      *services.AuthService
	users     *services.UserService
	ai        *services.AIService
	feedback  *services.FeedbackService
	analytics *services.AnalyticsService
	notes     *services.NoteService
	content   *services.ContentService
	voice     *voice.Manager

	mu            sync.RWMutex
	initialized   bool
	shutdownFuncs []func(context.Context) error
}

// Option customizes a ServiceContainer
type Option func(*ServiceContainer)

// WithVoiceDialer replaces the websocket dialer used for the upstream voice service
func WithVoiceDialer(d voice.Dialer) Option {
	return func(sc *ServiceContainer) { sc.dialer = d }
}

// NewServiceContainer creates a new dependency injection container
func NewServiceContainer(cfg *config.Config, logger *observability.Logger, opts ...Option) *ServiceContainer {
	sc := &ServiceContainer{cfg: cfg, logger: logger, dialer: websocket.DefaultDialer}
	for _, opt := range opts {
		opt(sc)
	}
	return sc
}

// Initialize opens the stores and builds every service
func (sc *ServiceContainer) Initialize(ctx context.Context) error {
	sc.mu.Lock()
	defer sc.mu.Unlock()

	if sc.initialized {
		return nil
	}

	metrics, err := observability.NewMetrics()
	if err != nil {
		return contextutils.WrapError(err, "failed to register metrics")
	}
	sc.metrics = metrics

	if err := sc.openStores(ctx); err != nil {
		_ = sc.cleanup(ctx)
		return err
	}
	sc.initializeServices()
	sc.initialized = true
	return nil
}

// openStores selects the primary store. For postgres, audit logs and notes are
// wrapped with the local fallback cache.
func (sc *ServiceContainer) openStores(ctx context.Context) error {
	switch sc.cfg.Database.Driver {
	case config.DriverMemory:
		sc.logger.Warn(ctx, "Using in-memory store; data is lost on restart")
		sc.stores = memory.New().Stores()
		return nil
	case config.DriverPostgres, "":
	default:
		return contextutils.WrapErrorf(contextutils.ErrInvalidInput, "unknown database driver %q", sc.cfg.Database.Driver)
	}

	sc.dbManager = database.NewManager(sc.logger)
	db, err := sc.dbManager.Open(ctx, sc.cfg.Database)
	if err != nil {
		return contextutils.WrapError(err, "failed to initialize database")
	}
	sc.db = db
	sc.shutdownFuncs = append(sc.shutdownFuncs, func(_ context.Context) error { return db.Close() })
	sc.stores = postgres.NewStores(db)

	cache, err := fallback.Open(ctx, sc.cfg.Fallback)
	if err != nil {
		// the primary store still works; audit logs and notes just lose their local copy
		sc.logger.Error(ctx, "Failed to open fallback cache; continuing without it", err, map[string]interface{}{
			"driver": sc.cfg.Fallback.Driver,
		})
		cache = nil
	}
	if cache != nil {
		sc.cache = cache
		sc.shutdownFuncs = append(sc.shutdownFuncs, func(_ context.Context) error { return cache.Close() })
	}
	sc.stores.AuditLogs = fallback.NewAuditLogStore(sc.stores.AuditLogs, sc.cache, sc.logger, sc.metrics)
	sc.stores.Notes = fallback.NewNoteStore(sc.stores.Notes, sc.cache, sc.logger, sc.metrics)

	sc.logger.Info(ctx, "Stores ready", map[string]interface{}{
		"driver":          config.DriverPostgres,
		"fallback_driver": sc.cfg.Fallback.Driver,
		"fallback_active": sc.cache != nil,
	})
	return nil
}

// initializeServices sets up all service dependencies
func (sc *ServiceContainer) initializeServices() {
	sc.audit = services.NewAuditService(sc.stores.AuditLogs, sc.cfg, sc.logger)
	sc.auth = services.NewAuthService(sc.stores.Users, sc.audit, sc.cfg, sc.logger)
	sc.users = services.NewUserService(sc.stores, sc.auth, sc.audit, sc.logger)
	sc.ai = services.NewAIService(sc.cfg, sc.logger, sc.metrics)
	sc.feedback = services.NewFeedbackService(sc.stores, sc.audit, sc.ai, sc.cfg, sc.metrics, sc.logger)
	sc.analytics = services.NewAnalyticsService(sc.stores, sc.logger)
	sc.notes = services.NewNoteService(sc.stores.Notes, sc.logger)
	sc.content = services.NewContentService(sc.stores.Content, sc.audit, sc.logger)
	sc.voice = voice.NewManager(sc.cfg.Voice, sc.dialer, sc.logger, sc.metrics)

	// open voice sessions are closed before the database goes away
	sc.shutdownFuncs = append(sc.shutdownFuncs, func(_ context.Context) error {
		sc.voice.Shutdown()
		return nil
	})
}

// Router builds the HTTP engine over the container's services
func (sc *ServiceContainer) Router() *gin.Engine {
	sc.mu.RLock()
	defer sc.mu.RUnlock()
	return handlers.NewRouter(sc.cfg, sc.auth, sc.users, sc.feedback, sc.audit, sc.analytics,
		sc.notes, sc.content, sc.ai, sc.voice, sc.metrics, sc.logger)
}

// Stores returns the active store set
func (sc *ServiceContainer) Stores() *store.Stores { return sc.stores }

// AuthService returns the auth service
func (sc *ServiceContainer) AuthService() *services.AuthService { return sc.auth }

// UserService returns the user service
func (sc *ServiceContainer) UserService() *services.UserService { return sc.users }

// AuditService returns the audit service
func (sc *ServiceContainer) AuditService() *services.AuditService { return sc.audit }

// FeedbackService returns the feedback service
func (sc *ServiceContainer) FeedbackService() *services.FeedbackService { return sc.feedback }

// VoiceManager returns the voice relay manager
func (sc *ServiceContainer) VoiceManager() *voice.Manager { return sc.voice }

// Metrics returns the Prometheus metrics
func (sc *ServiceContainer) Metrics() *observability.Metrics { return sc.metrics }

// GetDatabase returns the database handle, nil for the memory driver
func (sc *ServiceContainer) GetDatabase() *sql.DB { return sc.db }

// GetConfig returns the configuration
func (sc *ServiceContainer) GetConfig() *config.Config { return sc.cfg }

// GetLogger returns the logger
func (sc *ServiceContainer) GetLogger() *observability.Logger { return sc.logger }

// EnsureAdminUser creates the bootstrap admin when credentials are configured
func (sc *ServiceContainer) EnsureAdminUser(ctx context.Context) error {
	if sc.auth == nil {
		return contextutils.WrapError(contextutils.ErrServiceUnavailable, "container is not initialized")
	}
	if sc.cfg.Server.AdminUsername == "" || sc.cfg.Server.AdminPassword == "" {
		sc.logger.Info(ctx, "No admin credentials configured; skipping admin bootstrap")
		return nil
	}
	return sc.auth.EnsureAdminUserExists(ctx, sc.cfg.Server.AdminUsername, sc.cfg.Server.AdminPassword)
}

// Shutdown releases resources in reverse order of acquisition
func (sc *ServiceContainer) Shutdown(ctx context.Context) error {
	sc.mu.Lock()
	defer sc.mu.Unlock()

	return sc.cleanup(ctx)
}

func (sc *ServiceContainer) cleanup(ctx context.Context) error {
	var errs []error
	for i := len(sc.shutdownFuncs) - 1; i >= 0; i-- {
		if err := sc.shutdownFuncs[i](ctx); err != nil {
			sc.logger.Error(ctx, "Shutdown step failed", err)
			errs = append(errs, err)
		}
	}
	sc.shutdownFuncs = nil
	sc.initialized = false

	if len(errs) > 0 {
		return fmt.Errorf("shutdown errors: %w", errors.Join(errs...))
	}
	return nil
}
