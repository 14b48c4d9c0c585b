package fallback

import (
	"context"
	"fmt"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"faultdesk/internal/config"
	"faultdesk/internal/models"
)

func openTestSQLite(t *testing.T, maxEntries int) *SQLiteCache {
	t.Helper()
	c, err := OpenSQLite(filepath.Join(t.TempDir(), "nested", "fallback.db"), maxEntries)
	require.NoError(t, err)
	t.Cleanup(func() { _ = c.Close() })
	return c
}

func TestSQLiteCache_AuditLogsTrimmedToMaxEntries(t *testing.T) {
	ctx := context.Background()
	c := openTestSQLite(t, 3)
	base := time.Date(2024, 1, 1, 9, 0, 0, 0, time.UTC)

	for i := 0; i < 5; i++ {
		require.NoError(t, c.AppendAuditLog(ctx, &models.AuditLog{
			ID:        fmt.Sprintf("l-%d", i),
			UserID:    "u-1",
			UserRole:  models.RoleUser,
			Action:    models.ActionLogin,
			Timestamp: base.Add(time.Duration(i) * time.Minute),
		}))
	}

	logs, err := c.ListAuditLogs(ctx, 0)
	require.NoError(t, err)
	require.Len(t, logs, 3)
	assert.Equal(t, "l-4", logs[0].ID)
	assert.Equal(t, "l-2", logs[2].ID)

	limited, err := c.ListAuditLogs(ctx, 1)
	require.NoError(t, err)
	require.Len(t, limited, 1)

	require.NoError(t, c.DeleteAuditLogsByUser(ctx, "u-1"))
	logs, err = c.ListAuditLogs(ctx, 0)
	require.NoError(t, err)
	assert.Empty(t, logs)
}

func TestSQLiteCache_Notes(t *testing.T) {
	ctx := context.Background()
	c := openTestSQLite(t, 0)
	now := time.Now().UTC()

	n := &models.Note{ID: "n-1", UserID: "u-1", Title: "first", Color: models.NoteYellow, FontSize: models.FontMedium, OrderIndex: 1, Timestamp: now}
	require.NoError(t, c.UpsertNote(ctx, n))
	require.NoError(t, c.UpsertNote(ctx, &models.Note{ID: "n-2", UserID: "u-1", Title: "second", OrderIndex: 0, Timestamp: now}))

	n.Title = "first (edited)"
	require.NoError(t, c.UpsertNote(ctx, n))

	notes, err := c.ListNotes(ctx, "u-1")
	require.NoError(t, err)
	require.Len(t, notes, 2)
	assert.Equal(t, "n-2", notes[0].ID)
	assert.Equal(t, "first (edited)", notes[1].Title)

	require.NoError(t, c.DeleteNote(ctx, "n-2"))
	require.NoError(t, c.DeleteNote(ctx, "missing"))
	notes, err = c.ListNotes(ctx, "u-1")
	require.NoError(t, err)
	assert.Len(t, notes, 1)

	require.NoError(t, c.DeleteNotesByUser(ctx, "u-1"))
	notes, err = c.ListNotes(ctx, "u-1")
	require.NoError(t, err)
	assert.Empty(t, notes)
}

func TestOpen_Drivers(t *testing.T) {
	ctx := context.Background()

	c, err := Open(ctx, config.FallbackConfig{Driver: config.FallbackNone})
	require.NoError(t, err)
	assert.Nil(t, c)

	c, err = Open(ctx, config.FallbackConfig{Driver: config.FallbackSQLite, SQLitePath: filepath.Join(t.TempDir(), "f.db")})
	require.NoError(t, err)
	require.NotNil(t, c)
	require.NoError(t, c.Close())

	_, err = Open(ctx, config.FallbackConfig{Driver: "etcd"})
	assert.Error(t, err)
}
