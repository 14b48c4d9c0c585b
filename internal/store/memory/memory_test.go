package memory

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"faultdesk/internal/models"
	"faultdesk/internal/store"
	contextutils "faultdesk/internal/utils"
)

func TestUsers_UniqueUsername(t *testing.T) {
	ctx := context.Background()
	stores := New().Stores()

	require.NoError(t, stores.Users.Upsert(ctx, &models.User{ID: "1", Username: "alice"}))
	require.NoError(t, stores.Users.Upsert(ctx, &models.User{ID: "1", Username: "alice", Name: "Alice"}), "same id may keep its username")

	err := stores.Users.Upsert(ctx, &models.User{ID: "2", Username: "alice"})
	assert.Equal(t, contextutils.ErrorCodeRecordExists, contextutils.GetErrorCode(err))

	u, err := stores.Users.GetByUsername(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, "Alice", u.Name)

	_, err = stores.Users.Get(ctx, "404")
	assert.True(t, store.IsNotFound(err))
}

func TestFeedback_DeleteByUser(t *testing.T) {
	ctx := context.Background()
	stores := New().Stores()
	now := time.Now()

	for i, f := range []models.Feedback{
		{ID: "a", FromUserID: "u1", ToUserID: "u2", Timestamp: now},
		{ID: "b", FromUserID: "u2", ToUserID: "u1", Timestamp: now.Add(time.Second)},
		{ID: "c", FromUserID: "u2", ToUserID: "u3", Timestamp: now.Add(2 * time.Second)},
	} {
		f := f
		require.NoError(t, stores.Feedback.Upsert(ctx, &f), i)
	}

	n, err := stores.Feedback.DeleteByUser(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)

	left, err := stores.Feedback.List(ctx)
	require.NoError(t, err)
	require.Len(t, left, 1)
	assert.Equal(t, "c", left[0].ID)
}

func TestAuditLogs_NewestFirstWithLimit(t *testing.T) {
	ctx := context.Background()
	stores := New().Stores()
	base := time.Now()

	for i := 0; i < 5; i++ {
		require.NoError(t, stores.AuditLogs.Append(ctx, &models.AuditLog{
			ID:        string(rune('a' + i)),
			UserID:    "u1",
			Timestamp: base.Add(time.Duration(i) * time.Minute),
		}))
	}

	logs, err := stores.AuditLogs.List(ctx, 3)
	require.NoError(t, err)
	require.Len(t, logs, 3)
	assert.Equal(t, "e", logs[0].ID)
	assert.Equal(t, "c", logs[2].ID)
}

func TestFail_InjectsErrors(t *testing.T) {
	ctx := context.Background()
	s := New()
	s.Fail("audit.list", contextutils.ErrTableMissing)

	_, err := s.Stores().AuditLogs.List(ctx, 10)
	assert.True(t, store.IsTableMissing(err))

	s.Fail("audit.list", nil)
	_, err = s.Stores().AuditLogs.List(ctx, 10)
	assert.NoError(t, err)
}

func TestNotes_OrderedByIndex(t *testing.T) {
	ctx := context.Background()
	stores := New().Stores()
	now := time.Now()

	require.NoError(t, stores.Notes.Upsert(ctx, &models.Note{ID: "n2", UserID: "u1", OrderIndex: 1, Timestamp: now}))
	require.NoError(t, stores.Notes.Upsert(ctx, &models.Note{ID: "n1", UserID: "u1", OrderIndex: 0, Timestamp: now}))
	require.NoError(t, stores.Notes.Upsert(ctx, &models.Note{ID: "x", UserID: "u2", OrderIndex: 0, Timestamp: now}))

	notes, err := stores.Notes.ListByUser(ctx, "u1")
	require.NoError(t, err)
	require.Len(t, notes, 2)
	assert.Equal(t, "n1", notes[0].ID)

	require.NoError(t, stores.Notes.DeleteByUser(ctx, "u1"))
	notes, err = stores.Notes.ListByUser(ctx, "u1")
	require.NoError(t, err)
	assert.Empty(t, notes)
}
