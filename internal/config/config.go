// Package config handles application configuration loading from a YAML file and environment variables.
package config

import (
	"os"
	"reflect"
	"strconv"
	"strings"
	"time"

	contextutils "faultdesk/internal/utils"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// ConfigFileEnv names the environment variable that points at the YAML config file
const ConfigFileEnv = "FAULTDESK_CONFIG_FILE"

// AuthConfig represents authentication-related configuration
type AuthConfig struct {
	SignupsDisabled bool `json:"signups_disabled" yaml:"signups_disabled"`
	BcryptCost      int  `json:"bcrypt_cost,omitempty" yaml:"bcrypt_cost,omitempty"`
}

// SystemConfig represents system-wide configuration
type SystemConfig struct {
	Auth AuthConfig `json:"auth" yaml:"auth"`
}

// Config holds all configuration for the application
type Config struct {
	// Server configuration
	Server ServerConfig `json:"server" yaml:"server"`

	// Primary store configuration
	Database DatabaseConfig `json:"database" yaml:"database"`

	// Local fallback cache for audit logs and notes
	Fallback FallbackConfig `json:"fallback" yaml:"fallback"`

	// Generative text collaborator
	AI AIConfig `json:"ai" yaml:"ai"`

	// Voice collaborator
	Voice VoiceConfig `json:"voice" yaml:"voice"`

	// Report list behaviour
	Feedback FeedbackConfig `json:"feedback" yaml:"feedback"`

	System *SystemConfig `json:"system,omitempty" yaml:"system,omitempty"`

	// OpenTelemetry Configuration
	OpenTelemetry OpenTelemetryConfig `json:"open_telemetry" yaml:"open_telemetry"`

	// Internal fields
	IsTest bool `json:"is_test" yaml:"is_test"`
}

// ServerConfig represents server configuration
type ServerConfig struct {
	Port          string   `json:"port" yaml:"port"`
	AdminUsername string   `json:"admin_username" yaml:"admin_username"`
	AdminPassword string   `json:"admin_password" yaml:"admin_password"`
	SessionSecret string   `json:"session_secret" yaml:"session_secret"`
	Debug         bool     `json:"debug" yaml:"debug"`
	LogLevel      string   `json:"log_level" yaml:"log_level"`
	CORSOrigins   []string `json:"cors_origins" yaml:"cors_origins"`
	// MetricsEnabled exposes the Prometheus scrape endpoint at /metrics
	MetricsEnabled bool `json:"metrics_enabled" yaml:"metrics_enabled"`
}

// DatabaseConfig represents primary store configuration
type DatabaseConfig struct {
	// Driver selects the primary store: "postgres" or "memory"
	Driver          string        `json:"driver" yaml:"driver"`
	URL             string        `json:"url" yaml:"url"`
	MaxOpenConns    int           `json:"max_open_conns" yaml:"max_open_conns"`       // Maximum number of open connections to the database
	MaxIdleConns    int           `json:"max_idle_conns" yaml:"max_idle_conns"`       // Maximum number of idle connections in the pool
	ConnMaxLifetime time.Duration `json:"conn_max_lifetime" yaml:"conn_max_lifetime"` // Maximum amount of time a connection may be reused
	RunMigrations   bool          `json:"run_migrations" yaml:"run_migrations"`
	MigrationsPath  string        `json:"migrations_path" yaml:"migrations_path"`
}

// FallbackConfig configures the local durable cache that shadows audit log and note writes
type FallbackConfig struct {
	// Driver selects the cache: "sqlite", "redis" or "none"
	Driver     string `json:"driver" yaml:"driver"`
	SQLitePath string `json:"sqlite_path" yaml:"sqlite_path"`
	RedisAddr  string `json:"redis_addr" yaml:"redis_addr"`
	RedisDB    int    `json:"redis_db" yaml:"redis_db"`
	// MaxEntries caps how many audit entries the cache retains
	MaxEntries int `json:"max_entries" yaml:"max_entries"`
}

// AIConfig configures the OpenAI-compatible chat completions endpoint
type AIConfig struct {
	Enabled   bool          `json:"enabled" yaml:"enabled"`
	URL       string        `json:"url" yaml:"url"`
	APIKey    string        `json:"api_key" yaml:"api_key"`
	Model     string        `json:"model" yaml:"model"`
	MaxTokens int           `json:"max_tokens" yaml:"max_tokens"`
	Timeout   time.Duration `json:"timeout" yaml:"timeout"`
	CacheTTL  time.Duration `json:"cache_ttl" yaml:"cache_ttl"`
}

// VoiceConfig configures the upstream realtime voice endpoint
type VoiceConfig struct {
	Enabled bool   `json:"enabled" yaml:"enabled"`
	URL     string `json:"url" yaml:"url"`
	APIKey  string `json:"api_key" yaml:"api_key"`
	// MaxSessionDuration bounds a single voice session
	MaxSessionDuration time.Duration `json:"max_session_duration" yaml:"max_session_duration"`
}

// FeedbackConfig controls report list behaviour
type FeedbackConfig struct {
	// SearchMatchesRedactedSender lets a search term match the true sender
	// name of a report whose sender is displayed as anonymous.
	SearchMatchesRedactedSender bool `json:"search_matches_redacted_sender" yaml:"search_matches_redacted_sender"`
	// AuditListLimit caps how many audit entries are read from each source
	AuditListLimit int `json:"audit_list_limit" yaml:"audit_list_limit"`
}

// IsSignupDisabled returns whether signups are disabled based on configuration
func (c *Config) IsSignupDisabled() bool {
	if c.System == nil {
		return false
	}
	return c.System.Auth.SignupsDisabled
}

// AuditLimit returns the configured audit read limit or the default
func (c *Config) AuditLimit() int {
	if c.Feedback.AuditListLimit > 0 {
		return c.Feedback.AuditListLimit
	}
	return DefaultAuditListLimit
}

// OpenTelemetryConfig holds all OpenTelemetry-related configuration
type OpenTelemetryConfig struct {
	Endpoint       string            `json:"endpoint" yaml:"endpoint"`               // Default: "http://localhost:4317"
	Protocol       string            `json:"protocol" yaml:"protocol"`               // "grpc" or "http", default: "grpc"
	Insecure       bool              `json:"insecure" yaml:"insecure"`               // Default: true (for localhost)
	Headers        map[string]string `json:"headers" yaml:"headers"`                 // For authenticated endpoints
	ServiceName    string            `json:"service_name" yaml:"service_name"`       // Default: "faultdesk"
	ServiceVersion string            `json:"service_version" yaml:"service_version"` // From version package
	EnableTracing  bool              `json:"enable_tracing" yaml:"enable_tracing"`
	EnableMetrics  bool              `json:"enable_metrics" yaml:"enable_metrics"`
	EnableLogging  bool              `json:"enable_logging" yaml:"enable_logging"`
	SamplingRate   float64           `json:"sampling_rate" yaml:"sampling_rate"` // Default: 1.0 (100%)
}

// NewConfig loads configuration from YAML file first, then overrides with environment variables
func NewConfig() (result0 *Config, err error) {
	// A missing .env is normal outside local development
	_ = godotenv.Load()

	config, err := loadConfigWithOverrides()
	if err != nil {
		return nil, contextutils.WrapErrorf(contextutils.ErrInternalError, "failed to load config: %w", err)
	}

	config.overrideFromEnv()
	config.applyDefaults()

	return config, nil
}

// applyDefaults fills zero values that would otherwise leave the service unusable
func (c *Config) applyDefaults() {
	if c.Server.Port == "" {
		c.Server.Port = DefaultPort
	}
	if c.Database.Driver == "" {
		c.Database.Driver = DriverPostgres
	}
	if c.Database.MaxOpenConns == 0 {
		c.Database.MaxOpenConns = 25
	}
	if c.Database.MaxIdleConns == 0 {
		c.Database.MaxIdleConns = 5
	}
	if c.Database.ConnMaxLifetime == 0 {
		c.Database.ConnMaxLifetime = DatabaseConnMaxLifetime
	}
	if c.Fallback.Driver == "" {
		c.Fallback.Driver = FallbackSQLite
	}
	if c.Fallback.SQLitePath == "" {
		c.Fallback.SQLitePath = DefaultFallbackPath
	}
	if c.Fallback.MaxEntries == 0 {
		c.Fallback.MaxEntries = DefaultFallbackMaxEntries
	}
	if c.AI.Timeout == 0 {
		c.AI.Timeout = AIRequestTimeout
	}
	if c.AI.CacheTTL == 0 {
		c.AI.CacheTTL = AICacheTTL
	}
	if c.AI.MaxTokens == 0 {
		c.AI.MaxTokens = DefaultAIMaxTokens
	}
	if c.Voice.MaxSessionDuration == 0 {
		c.Voice.MaxSessionDuration = VoiceMaxSessionDuration
	}
}

// overrideFromEnv overrides config values with environment variables using reflection
func (c *Config) overrideFromEnv() {
	overrideStructFromEnv(c)
}

// overrideStructFromEnv recursively overrides struct fields with environment variables
func overrideStructFromEnv(v interface{}) {
	overrideStructFromEnvWithPrefix(v, "")
}

// overrideStructFromEnvWithPrefix recursively overrides struct fields with environment variables.
// The variable name is the upper-cased yaml tag path joined by underscores, e.g. DATABASE_URL.
func overrideStructFromEnvWithPrefix(v interface{}, prefix string) {
	val := reflect.ValueOf(v)
	if val.Kind() == reflect.Ptr {
		val = val.Elem()
	}

	if val.Kind() != reflect.Struct {
		return
	}

	typ := val.Type()
	for i := 0; i < val.NumField(); i++ {
		field := val.Field(i)
		fieldType := typ.Field(i)

		if !field.CanSet() {
			continue
		}

		yamlTag := strings.Split(fieldType.Tag.Get("yaml"), ",")[0]
		if yamlTag == "" || yamlTag == "-" {
			continue
		}

		envKey := strings.ToUpper(strings.ReplaceAll(yamlTag, "-", "_"))
		if prefix != "" {
			envKey = prefix + "_" + envKey
		}

		switch field.Kind() {
		case reflect.String:
			if envVal := os.Getenv(envKey); envVal != "" {
				field.SetString(envVal)
			}
		case reflect.Int64:
			// time.Duration is an int64 and reads better as "30s"
			if envVal := os.Getenv(envKey); envVal != "" {
				if field.Type() == reflect.TypeOf(time.Duration(0)) {
					if d, err := time.ParseDuration(envVal); err == nil {
						field.SetInt(int64(d))
					}
				} else if intVal, err := strconv.ParseInt(envVal, 10, 64); err == nil {
					field.SetInt(intVal)
				}
			}
		case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32:
			if envVal := os.Getenv(envKey); envVal != "" {
				if intVal, err := strconv.ParseInt(envVal, 10, 64); err == nil {
					field.SetInt(intVal)
				}
			}
		case reflect.Float32, reflect.Float64:
			if envVal := os.Getenv(envKey); envVal != "" {
				if floatVal, err := strconv.ParseFloat(envVal, 64); err == nil {
					field.SetFloat(floatVal)
				}
			}
		case reflect.Bool:
			if envVal := os.Getenv(envKey); envVal != "" {
				if boolVal, err := strconv.ParseBool(envVal); err == nil {
					field.SetBool(boolVal)
				}
			}
		case reflect.Slice:
			if envVal := os.Getenv(envKey); envVal != "" {
				if field.Type().Elem().Kind() == reflect.String {
					slice := strings.Split(envVal, ",")
					field.Set(reflect.ValueOf(slice))
				}
			}
		case reflect.Struct:
			if field.CanAddr() {
				overrideStructFromEnvWithPrefix(field.Addr().Interface(), envKey)
			}
		case reflect.Ptr:
			if !field.IsNil() && field.Elem().Kind() == reflect.Struct {
				overrideStructFromEnvWithPrefix(field.Interface(), envKey)
			}
		}
	}
}

// loadConfigWithOverrides loads the config file named by FAULTDESK_CONFIG_FILE or config.yaml
func loadConfigWithOverrides() (result0 *Config, err error) {
	if envPath := os.Getenv(ConfigFileEnv); envPath != "" {
		config, err := loadConfigFromFile(envPath)
		if err != nil {
			return nil, contextutils.WrapErrorf(contextutils.ErrInternalError, "failed to load config from %s: %w", envPath, err)
		}
		return config, nil
	}

	return loadConfigFromFile("config.yaml")
}

// loadConfigFromFile loads configuration from a specific file
func loadConfigFromFile(path string) (result0 *Config, err error) {
	yamlFile, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var config Config
	if err := yaml.Unmarshal(yamlFile, &config); err != nil {
		return nil, err
	}

	return &config, nil
}
