package fallback

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"faultdesk/internal/models"
)

// SQLiteCache stores the fallback copy in a local SQLite file through gorm.
type SQLiteCache struct {
	db         *gorm.DB
	maxEntries int
}

// OpenSQLite opens (creating if needed) the cache database at path. Use
// ":memory:" for an ephemeral cache.
func OpenSQLite(path string, maxEntries int) (*SQLiteCache, error) {
	if path != ":memory:" {
		if dir := filepath.Dir(path); dir != "" {
			if err := os.MkdirAll(dir, 0o750); err != nil {
				return nil, fmt.Errorf("failed to create fallback directory: %w", err)
			}
		}
	}

	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	if err != nil {
		return nil, fmt.Errorf("failed to open fallback SQLite database: %w", err)
	}
	if err := db.AutoMigrate(&models.AuditLog{}, &models.Note{}); err != nil {
		return nil, fmt.Errorf("failed to migrate fallback SQLite database: %w", err)
	}
	return &SQLiteCache{db: db, maxEntries: maxEntries}, nil
}

// AppendAuditLog stores l and trims the oldest entries beyond maxEntries.
func (c *SQLiteCache) AppendAuditLog(ctx context.Context, l *models.AuditLog) error {
	db := c.db.WithContext(ctx)
	if err := db.Create(l).Error; err != nil {
		return err
	}
	if c.maxEntries <= 0 {
		return nil
	}
	keep := db.Model(&models.AuditLog{}).Select("id").Order("timestamp DESC").Limit(c.maxEntries)
	return db.Where("id NOT IN (?)", keep).Delete(&models.AuditLog{}).Error
}

// ListAuditLogs returns at most limit entries, newest first.
func (c *SQLiteCache) ListAuditLogs(ctx context.Context, limit int) ([]models.AuditLog, error) {
	var logs []models.AuditLog
	q := c.db.WithContext(ctx).Order("timestamp DESC")
	if limit > 0 {
		q = q.Limit(limit)
	}
	if err := q.Find(&logs).Error; err != nil {
		return nil, err
	}
	return logs, nil
}

// DeleteAuditLogsByUser removes the entries written by userID.
func (c *SQLiteCache) DeleteAuditLogsByUser(ctx context.Context, userID string) error {
	return c.db.WithContext(ctx).Where("user_id = ?", userID).Delete(&models.AuditLog{}).Error
}

// UpsertNote inserts or replaces n.
func (c *SQLiteCache) UpsertNote(ctx context.Context, n *models.Note) error {
	return c.db.WithContext(ctx).Save(n).Error
}

// ListNotes returns userID's notes in display order.
func (c *SQLiteCache) ListNotes(ctx context.Context, userID string) ([]models.Note, error) {
	var notes []models.Note
	err := c.db.WithContext(ctx).Where("user_id = ?", userID).Order("order_index, timestamp").Find(&notes).Error
	if err != nil {
		return nil, err
	}
	return notes, nil
}

// DeleteNote removes the note with id.
func (c *SQLiteCache) DeleteNote(ctx context.Context, id string) error {
	return c.db.WithContext(ctx).Where("id = ?", id).Delete(&models.Note{}).Error
}

// DeleteNotesByUser removes every note owned by userID.
func (c *SQLiteCache) DeleteNotesByUser(ctx context.Context, userID string) error {
	return c.db.WithContext(ctx).Where("user_id = ?", userID).Delete(&models.Note{}).Error
}

// Close releases the underlying connection.
func (c *SQLiteCache) Close() error {
	sqlDB, err := c.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
