package config

import "time"

// Timeout constants
const (
	// HTTP timeouts
	DefaultHTTPTimeout = 60 * time.Second
	AIRequestTimeout   = 30 * time.Second
	ShutdownTimeout    = 30 * time.Second

	// Database timeouts
	DatabaseConnMaxLifetime = 5 * time.Minute

	// Session timeouts
	SessionMaxAge = 7 * 24 * time.Hour // 7 days

	// Voice session limits
	VoiceMaxSessionDuration = 15 * time.Minute
	VoiceWriteWait          = 10 * time.Second

	// AI result memoization
	AICacheTTL = 10 * time.Minute
)

// Defaults applied when the config file leaves a value unset
const (
	DefaultPort               = "8080"
	DefaultAuditListLimit     = 500
	DefaultFallbackMaxEntries = 5000
	DefaultFallbackPath       = "data/fallback.db"
	DefaultAIMaxTokens        = 512
)

// Store driver names
const (
	DriverPostgres = "postgres"
	DriverMemory   = "memory"

	FallbackSQLite = "sqlite"
	FallbackRedis  = "redis"
	FallbackNone   = "none"
)

// Session configuration constants
const (
	// Session settings
	SessionPath     = "/"
	SessionHTTPOnly = true
	SessionSecure   = false // Set to true in production with HTTPS

	// Session name
	SessionName = "faultdesk-session"
)

// Security configuration constants
const (
	// Content Security Policy
	DefaultCSP = "default-src 'self'; style-src 'self' 'unsafe-inline'; script-src 'self'; img-src 'self' data:; media-src 'self' blob:; connect-src 'self' ws: wss:;"
)
