// Package fallback keeps a local durable copy of audit logs and notes so they
// survive an unreachable or unmigrated primary store.
package fallback

import (
	"context"
	"fmt"

	"faultdesk/internal/config"
	"faultdesk/internal/models"
)

// Cache is the local copy written alongside the primary store.
type Cache interface {
	AppendAuditLog(ctx context.Context, l *models.AuditLog) error
	ListAuditLogs(ctx context.Context, limit int) ([]models.AuditLog, error)
	DeleteAuditLogsByUser(ctx context.Context, userID string) error

	UpsertNote(ctx context.Context, n *models.Note) error
	ListNotes(ctx context.Context, userID string) ([]models.Note, error)
	DeleteNote(ctx context.Context, id string) error
	DeleteNotesByUser(ctx context.Context, userID string) error

	Close() error
}

// Open builds the cache selected by cfg.Driver. The "none" driver returns a nil
// Cache and no error.
func Open(ctx context.Context, cfg config.FallbackConfig) (Cache, error) {
	switch cfg.Driver {
	case config.FallbackSQLite:
		c, err := OpenSQLite(cfg.SQLitePath, cfg.MaxEntries)
		if err != nil {
			return nil, err
		}
		return c, nil
	case config.FallbackRedis:
		c, err := OpenRedis(ctx, cfg.RedisAddr, cfg.RedisDB, cfg.MaxEntries)
		if err != nil {
			return nil, err
		}
		return c, nil
	case config.FallbackNone, "":
		return nil, nil
	default:
		return nil, fmt.Errorf("unknown fallback driver %q", cfg.Driver)
	}
}
