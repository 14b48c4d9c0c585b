// Package commands provides CLI commands for the admin tool
package commands

import (
	"context"
	"io"
	"strings"

	"faultdesk/internal/config"
	"faultdesk/internal/models"
	"faultdesk/internal/observability"
	"faultdesk/internal/services"
	"faultdesk/internal/store"
	contextutils "faultdesk/internal/utils"
)

// Deps carries the services the admin commands operate on
type Deps struct {
	Config *config.Config
	Logger *observability.Logger
	Stores *store.Stores
	Auth   *services.AuthService
	Users  *services.UserService
	Audit  *services.AuditService
	Out    io.Writer
	// ReadPassword reads a secret without echo
	ReadPassword func() ([]byte, error)
}

// Migrator applies schema migrations
type Migrator interface {
	MigrateUp(ctx context.Context, cfg config.DatabaseConfig) error
	MigrateDown(ctx context.Context, cfg config.DatabaseConfig, steps int) error
	Version(ctx context.Context, cfg config.DatabaseConfig) (uint, bool, error)
}

// SystemActor is recorded in the audit trail for changes made from the CLI
var SystemActor = models.User{
	ID:       "system",
	Username: "adm",
	Name:     "Admin CLI",
	Role:     models.RoleAdmin,
}

// maskDatabaseURL masks credentials in the database URL for display
func maskDatabaseURL(url string) string {
	if strings.Contains(url, "@") {
		parts := strings.SplitN(url, "@", 2)
		scheme := "postgres://"
		if i := strings.Index(parts[0], "://"); i >= 0 {
			scheme = parts[0][:i+3]
		}
		return scheme + "***:***@" + parts[1]
	}
	return url
}

func (d *Deps) lookup(ctx context.Context, username string) (*models.User, error) {
	return d.Stores.Users.GetByUsername(ctx, contextutils.NormalizeUsername(username))
}
