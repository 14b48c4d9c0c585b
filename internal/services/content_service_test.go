package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"faultdesk/internal/models"
	contextutils "faultdesk/internal/utils"
)

func TestContentService_Announcements(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	mgr := f.seedUser(t, "mgr", models.RoleManager, nil)
	user := f.seedUser(t, "bob", models.RoleUser, nil)

	_, err := f.content.CreateAnnouncement(ctx, user, AnnouncementInput{Title: "hello"})
	assert.Equal(t, contextutils.ErrorCodeForbidden, contextutils.GetErrorCode(err))

	_, err = f.content.CreateAnnouncement(ctx, mgr, AnnouncementInput{Title: "  "})
	assert.Equal(t, contextutils.ErrorCodeMissingRequired, contextutils.GetErrorCode(err))

	base := time.Date(2024, 1, 1, 9, 0, 0, 0, time.UTC)
	f.content.now = func() time.Time { return base }
	important, err := f.content.CreateAnnouncement(ctx, mgr, AnnouncementInput{Title: "Outage", IsImportant: true})
	require.NoError(t, err)
	f.content.now = func() time.Time { return base.Add(time.Hour) }
	routine, err := f.content.CreateAnnouncement(ctx, mgr, AnnouncementInput{Title: "Lunch"})
	require.NoError(t, err)
	assert.Equal(t, "mgr name", routine.AuthorName)

	items, err := f.content.ListAnnouncements(ctx)
	require.NoError(t, err)
	require.Len(t, items, 2)
	assert.Equal(t, important.ID, items[0].ID, "important announcements come first")
	assert.Equal(t, 2, countAction(f.auditActions(t), models.ActionCreateAnnouncement))

	err = f.content.DeleteAnnouncement(ctx, user, routine.ID)
	assert.Equal(t, contextutils.ErrorCodeForbidden, contextutils.GetErrorCode(err))
	require.NoError(t, f.content.DeleteAnnouncement(ctx, mgr, routine.ID))
	err = f.content.DeleteAnnouncement(ctx, mgr, routine.ID)
	assert.Equal(t, contextutils.ErrorCodeRecordNotFound, contextutils.GetErrorCode(err))
}

func TestContentService_Articles(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	admin := f.seedUser(t, "root", models.RoleAdmin, nil)

	a, err := f.content.CreateArticle(ctx, admin, ArticleInput{Title: "Refund policy", Category: " Billing ", Content: "..."})
	require.NoError(t, err)
	assert.Equal(t, "Billing", a.Category)

	items, err := f.content.ListArticles(ctx)
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, 1, countAction(f.auditActions(t), models.ActionCreateArticle))

	require.NoError(t, f.content.DeleteArticle(ctx, admin, a.ID))
	items, err = f.content.ListArticles(ctx)
	require.NoError(t, err)
	assert.Empty(t, items)
}
