package handlers

import (
	"context"
	"net/http"

	"github.com/gin-contrib/cors"
	"github.com/gin-contrib/secure"
	"github.com/gin-contrib/sessions"
	"github.com/gin-contrib/sessions/cookie"
	"github.com/gin-gonic/gin"

	"faultdesk/internal/config"
	"faultdesk/internal/middleware"
	"faultdesk/internal/observability"
	"faultdesk/internal/services"
	"faultdesk/internal/version"
	"faultdesk/internal/voice"
)

// ServiceName tags traces and the route listing
const ServiceName = "faultdesk"

// NewRouter creates the gin engine with all middleware and routes
func NewRouter(
	cfg *config.Config,
	authService services.AuthServiceInterface,
	userService services.UserServiceInterface,
	feedbackService services.FeedbackServiceInterface,
	auditService services.AuditServiceInterface,
	analyticsService services.AnalyticsServiceInterface,
	noteService services.NoteServiceInterface,
	contentService services.ContentServiceInterface,
	aiService services.AIServiceInterface,
	voiceManager *voice.Manager,
	metrics *observability.Metrics,
	logger *observability.Logger,
) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	if cfg.Server.Debug {
		gin.SetMode(gin.DebugMode)
	}
	if err := RegisterValidators(); err != nil {
		logger.Error(context.Background(), "Failed to register request validators", err)
	}

	router := gin.New()
	router.RedirectTrailingSlash = false
	router.Use(middleware.ErrorRecoveryMiddleware(logger, middleware.DefaultErrorRecoveryConfig()))
	router.Use(observability.RequestLogger(logger))

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok", "service": ServiceName})
	})
	if cfg.Server.MetricsEnabled && metrics != nil {
		router.GET("/metrics", gin.WrapH(metrics.Handler()))
	}

	router.Use(observability.GinMiddlewareWithErrorHandling(ServiceName))
	router.Use(metrics.GinMiddleware())

	corsConfig := cors.DefaultConfig()
	if len(cfg.Server.CORSOrigins) > 0 {
		corsConfig.AllowOrigins = cfg.Server.CORSOrigins
	} else {
		corsConfig.AllowAllOrigins = true
	}
	corsConfig.AllowCredentials = len(cfg.Server.CORSOrigins) > 0
	corsConfig.AllowHeaders = []string{"Origin", "Content-Length", "Content-Type", "Authorization", "X-Requested-With"}
	corsConfig.AllowMethods = []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"}
	router.Use(cors.New(corsConfig))

	store := cookie.NewStore([]byte(cfg.Server.SessionSecret))
	sessionOpts := sessions.Options{
		Path:     config.SessionPath,
		MaxAge:   int(config.SessionMaxAge.Seconds()),
		HttpOnly: config.SessionHTTPOnly,
		Secure:   config.SessionSecure,
	}
	if cfg.Server.Debug {
		sessionOpts.SameSite = http.SameSiteDefaultMode
	} else {
		sessionOpts.SameSite = http.SameSiteLaxMode
		sessionOpts.Secure = true
	}
	store.Options(sessionOpts)
	router.Use(sessions.Sessions(config.SessionName, store))

	secureConfig := secure.DefaultConfig()
	secureConfig.SSLRedirect = false
	secureConfig.IsDevelopment = cfg.Server.Debug
	secureConfig.ContentSecurityPolicy = config.DefaultCSP
	router.Use(secure.New(secureConfig))

	authHandler := NewAuthHandler(authService, cfg, logger)
	userHandler := NewUserHandler(userService, logger)
	feedbackHandler := NewFeedbackHandler(feedbackService, logger)
	insightsHandler := NewInsightsHandler(analyticsService, auditService, logger)
	noteHandler := NewNoteHandler(noteService, logger)
	contentHandler := NewContentHandler(contentService, logger)
	aiHandler := NewAIHandler(aiService, logger)
	voiceHandler := NewVoiceHandler(voiceManager, cfg.Server.CORSOrigins, logger)

	requireAuth := middleware.RequireAuth(authService)
	managerTier := middleware.RequireManagerTier()
	adminOnly := middleware.RequireAdmin()

	v1 := router.Group("/v1")
	{
		v1.GET("/version", func(c *gin.Context) {
			c.JSON(http.StatusOK, version.Current(ServiceName))
		})

		auth := v1.Group("/auth")
		{
			auth.POST("/login", authHandler.Login)
			auth.POST("/signup", authHandler.Signup)
			auth.POST("/logout", authHandler.Logout)
			auth.GET("/me", requireAuth, authHandler.Me)
		}

		users := v1.Group("/users")
		users.Use(requireAuth)
		{
			users.GET("", userHandler.List)
			users.GET("/hierarchy", userHandler.Hierarchy)
			users.POST("", managerTier, userHandler.Create)
			users.POST("/:id/approve", managerTier, userHandler.Approve)
			users.PUT("/:id/role", adminOnly, userHandler.SetRole)
			users.PUT("/:id/manager", managerTier, userHandler.AssignManager)
			users.DELETE("/:id", managerTier, userHandler.Delete)
		}

		feedback := v1.Group("/feedback")
		feedback.Use(requireAuth)
		{
			feedback.GET("", feedbackHandler.List)
			feedback.POST("", feedbackHandler.Submit)
			feedback.GET("/:id", feedbackHandler.Get)
			feedback.POST("/:id/approve", managerTier, feedbackHandler.Approve)
			feedback.POST("/:id/reject", managerTier, feedbackHandler.Reject)
			feedback.POST("/:id/analyze", managerTier, feedbackHandler.Analyze)
			feedback.PUT("/:id/status", managerTier, feedbackHandler.SetStatus)
		}

		v1.GET("/analytics", requireAuth, insightsHandler.Analytics)
		v1.GET("/audit-logs", requireAuth, managerTier, insightsHandler.AuditLogs)

		notes := v1.Group("/notes")
		notes.Use(requireAuth)
		{
			notes.GET("", noteHandler.List)
			notes.POST("", noteHandler.Create)
			notes.PUT("/order", noteHandler.Reorder)
			notes.PUT("/:id", noteHandler.Update)
			notes.DELETE("/:id", noteHandler.Delete)
		}

		announcements := v1.Group("/announcements")
		announcements.Use(requireAuth)
		{
			announcements.GET("", contentHandler.ListAnnouncements)
			announcements.POST("", managerTier, contentHandler.CreateAnnouncement)
			announcements.DELETE("/:id", managerTier, contentHandler.DeleteAnnouncement)
		}

		articles := v1.Group("/articles")
		articles.Use(requireAuth)
		{
			articles.GET("", contentHandler.ListArticles)
			articles.POST("", managerTier, contentHandler.CreateArticle)
			articles.DELETE("/:id", managerTier, contentHandler.DeleteArticle)
		}

		ai := v1.Group("/ai")
		ai.Use(requireAuth)
		{
			ai.POST("/refine", aiHandler.Refine)
			ai.POST("/coach", aiHandler.Coach)
		}

		v1.GET("/voice/session", requireAuth, voiceHandler.Session)
	}

	router.NoRoute(func(c *gin.Context) {
		StandardizeHTTPError(c, http.StatusNotFound, "Not found", c.Request.URL.Path)
	})

	routeListing := NewRouteListingHandler(ServiceName)
	routeListing.CollectRoutes(router)
	router.GET("/", routeListing.GetRouteListingJSON)

	return router
}
