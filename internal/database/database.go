// Package database provides database connection and migration functionality.
package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"faultdesk/internal/config"
	"faultdesk/internal/observability"
	contextutils "faultdesk/internal/utils"

	// Import PostgreSQL driver for database/sql
	_ "github.com/lib/pq"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres" // required for golang-migrate postgres driver
	_ "github.com/golang-migrate/migrate/v4/source/file"       // required for golang-migrate file source

	// OpenTelemetry SQL instrumentation
	"go.nhat.io/otelsql"

	"go.opentelemetry.io/otel/attribute"
	semconv "go.opentelemetry.io/otel/semconv/v1.4.0"
)

// Manager opens the primary database and applies schema migrations
type Manager struct {
	logger *observability.Logger
}

var (
	otelDriverNameCache string
	otelDriverOnce      sync.Once
	otelDriverErr       error
)

// ErrNoMigrations is returned when the migrations directory holds no .up.sql files
var ErrNoMigrations = errors.New("no migration files found")

// NewManager creates a new database manager with the provided logger
func NewManager(logger *observability.Logger) *Manager {
	return &Manager{
		logger: logger,
	}
}

// DefaultDatabaseConfig returns the default database configuration
func DefaultDatabaseConfig() config.DatabaseConfig {
	cfg := config.DatabaseConfig{
		Driver:          config.DriverPostgres,
		MaxOpenConns:    25,
		MaxIdleConns:    5,
		ConnMaxLifetime: config.DatabaseConnMaxLifetime,
	}

	// Check for TEST_DATABASE_URL first (for tests)
	if testURL := os.Getenv("TEST_DATABASE_URL"); testURL != "" {
		cfg.URL = testURL
	}

	return cfg
}

// Open connects to the database and, when RunMigrations is set, brings the
// schema up to date. A failed migration is logged and the connection is still
// returned: stores report missing tables individually.
func (dm *Manager) Open(ctx context.Context, cfg config.DatabaseConfig) (result0 *sql.DB, err error) {
	ctx, span := observability.TraceDatabaseFunction(ctx, "Open",
		attribute.String("db.name", ExtractDatabaseName(cfg.URL)),
		attribute.String("db.system", "postgresql"),
		attribute.Bool("migrations.enabled", cfg.RunMigrations),
		attribute.Int("db.max_open_conns", cfg.MaxOpenConns),
		attribute.Int("db.max_idle_conns", cfg.MaxIdleConns),
	)
	defer observability.FinishSpan(span, &err)

	db, err := dm.Connect(ctx, cfg)
	if err != nil {
		return nil, err
	}

	if cfg.RunMigrations {
		if migErr := dm.MigrateUp(ctx, cfg); migErr != nil {
			dm.logger.Error(ctx, "Database migrations failed; continuing with existing schema", migErr)
		}
	}

	return db, nil
}

// ExtractDatabaseName extracts the database name from a PostgreSQL connection string
func ExtractDatabaseName(databaseURL string) string {
	if u, err := url.Parse(databaseURL); err == nil && (u.Scheme == "postgres" || u.Scheme == "postgresql") {
		if dbName := strings.TrimPrefix(u.Path, "/"); dbName != "" {
			return dbName
		}
		return "faultdesk"
	}

	// key=value form: "host=db dbname=feedback sslmode=disable"
	for _, part := range strings.Fields(databaseURL) {
		if name, ok := strings.CutPrefix(part, "dbname="); ok && name != "" {
			return name
		}
	}

	return "faultdesk"
}

// Connect opens an instrumented connection pool and verifies it with a ping
func (dm *Manager) Connect(ctx context.Context, cfg config.DatabaseConfig) (result0 *sql.DB, err error) {
	ctx, span := observability.TraceDatabaseFunction(ctx, "Connect",
		attribute.String("db.name", ExtractDatabaseName(cfg.URL)),
	)
	defer observability.FinishSpan(span, &err)

	if cfg.URL == "" {
		return nil, contextutils.WrapError(contextutils.ErrMissingRequired, "database url is not configured")
	}

	// Register OpenTelemetry SQL driver once per process and reuse the name
	otelDriverOnce.Do(func() {
		otelDriverNameCache, otelDriverErr = otelsql.Register("postgres",
			otelsql.WithDatabaseName(ExtractDatabaseName(cfg.URL)),
			otelsql.TraceQueryWithArgs(),
			otelsql.WithSystem(semconv.DBSystemPostgreSQL),
			otelsql.TraceRowsAffected(),
		)
	})
	if otelDriverErr != nil {
		return nil, contextutils.WrapError(otelDriverErr, "failed to register otelsql driver")
	}

	db, err := sql.Open(otelDriverNameCache, cfg.URL)
	if err != nil {
		return nil, contextutils.WrapError(err, "failed to open database connection")
	}

	if cfg.MaxOpenConns > 0 {
		db.SetMaxOpenConns(cfg.MaxOpenConns)
	}
	if cfg.MaxIdleConns > 0 {
		db.SetMaxIdleConns(cfg.MaxIdleConns)
	}
	if cfg.ConnMaxLifetime > 0 {
		db.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	}

	if err := db.PingContext(ctx); err != nil {
		if closeErr := db.Close(); closeErr != nil {
			dm.logger.Error(ctx, "Failed to close database connection after ping failure", closeErr)
		}
		return nil, contextutils.WrapErrorf(contextutils.ErrDatabaseConnection, "failed to ping database: %v", err)
	}

	dm.logger.Info(ctx, "Database connection established", map[string]interface{}{
		"db_name":           ExtractDatabaseName(cfg.URL),
		"max_open_conns":    cfg.MaxOpenConns,
		"max_idle_conns":    cfg.MaxIdleConns,
		"conn_max_lifetime": cfg.ConnMaxLifetime.String(),
	})

	return db, nil
}

// newMigrate builds a golang-migrate instance for cfg
func (dm *Manager) newMigrate(cfg config.DatabaseConfig) (*migrate.Migrate, string, error) {
	migrationsPath := cfg.MigrationsPath
	if migrationsPath == "" {
		found, err := FindMigrationsPath()
		if err != nil {
			return nil, "", err
		}
		migrationsPath = found
	}

	count, err := CountMigrationFiles(migrationsPath)
	if err != nil {
		return nil, migrationsPath, err
	}
	if count == 0 {
		return nil, migrationsPath, fmt.Errorf("%w in %s", ErrNoMigrations, migrationsPath)
	}

	abs, err := filepath.Abs(migrationsPath)
	if err != nil {
		return nil, migrationsPath, err
	}

	m, err := migrate.New("file://"+filepath.ToSlash(abs), cfg.URL)
	if err != nil {
		return nil, migrationsPath, contextutils.WrapError(err, "failed to initialize golang-migrate")
	}
	return m, migrationsPath, nil
}

func (dm *Manager) closeMigrate(ctx context.Context, m *migrate.Migrate) {
	if srcErr, dbErr := m.Close(); srcErr != nil || dbErr != nil {
		dm.logger.Error(ctx, "Error closing migration", errors.Join(srcErr, dbErr))
	}
}

// MigrateUp applies every pending migration
func (dm *Manager) MigrateUp(ctx context.Context, cfg config.DatabaseConfig) (err error) {
	ctx, span := observability.TraceDatabaseFunction(ctx, "MigrateUp",
		attribute.String("db.system", "postgresql"),
	)
	defer observability.FinishSpan(span, &err)

	m, path, err := dm.newMigrate(cfg)
	if err != nil {
		return err
	}
	defer dm.closeMigrate(ctx, m)
	span.SetAttributes(attribute.String("migration.path", path))

	err = m.Up()
	if errors.Is(err, migrate.ErrNoChange) {
		dm.logger.Info(ctx, "No new migrations to apply", map[string]interface{}{"migrations_path": path})
		return nil
	}
	if err != nil {
		return contextutils.WrapError(err, "golang-migrate up failed")
	}
	dm.logger.Info(ctx, "Migrations applied successfully", map[string]interface{}{"migrations_path": path})
	return nil
}

// MigrateDown rolls back steps migrations
func (dm *Manager) MigrateDown(ctx context.Context, cfg config.DatabaseConfig, steps int) (err error) {
	ctx, span := observability.TraceDatabaseFunction(ctx, "MigrateDown",
		attribute.Int("migration.steps", steps),
	)
	defer observability.FinishSpan(span, &err)

	if steps <= 0 {
		return contextutils.WrapError(contextutils.ErrInvalidInput, "steps must be positive")
	}

	m, _, err := dm.newMigrate(cfg)
	if err != nil {
		return err
	}
	defer dm.closeMigrate(ctx, m)

	if err = m.Steps(-steps); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return contextutils.WrapError(err, "golang-migrate down failed")
	}
	return nil
}

// Version reports the applied schema version and whether the last migration left it dirty
func (dm *Manager) Version(ctx context.Context, cfg config.DatabaseConfig) (version uint, dirty bool, err error) {
	ctx, span := observability.TraceDatabaseFunction(ctx, "Version")
	defer observability.FinishSpan(span, &err)

	m, _, err := dm.newMigrate(cfg)
	if err != nil {
		return 0, false, err
	}
	defer dm.closeMigrate(ctx, m)

	version, dirty, err = m.Version()
	if errors.Is(err, migrate.ErrNilVersion) {
		return 0, false, nil
	}
	return version, dirty, err
}

// CountMigrationFiles returns the number of .up.sql files in dir
func CountMigrationFiles(dir string) (int, error) {
	files, err := os.ReadDir(dir)
	if err != nil {
		return 0, contextutils.WrapErrorf(err, "could not read migrations directory %s", dir)
	}
	count := 0
	for _, file := range files {
		if !file.IsDir() && strings.HasSuffix(file.Name(), ".up.sql") {
			count++
		}
	}
	return count, nil
}

// FindMigrationsPath walks up from the working directory to the first "migrations" directory
func FindMigrationsPath() (string, error) {
	currentDir, err := os.Getwd()
	if err != nil {
		return "", err
	}

	for {
		migrationsPath := filepath.Join(currentDir, "migrations")
		if info, statErr := os.Stat(migrationsPath); statErr == nil && info.IsDir() {
			return migrationsPath, nil
		}

		parentDir := filepath.Dir(currentDir)
		if parentDir == currentDir {
			return "", contextutils.ErrorWithContextf("migrations directory not found in any parent directory")
		}
		currentDir = parentDir
	}
}
