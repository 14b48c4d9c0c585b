// Package store defines the persistence contracts of the feedback service.
// Implementations return snapshots; callers never share slices with the store.
package store

import (
	"context"
	"errors"

	"faultdesk/internal/models"
	contextutils "faultdesk/internal/utils"
)

// UserStore persists users. Delete does not cascade; callers remove dependent
// records first.
type UserStore interface {
	List(ctx context.Context) ([]models.User, error)
	Get(ctx context.Context, id string) (*models.User, error)
	GetByUsername(ctx context.Context, username string) (*models.User, error)
	Upsert(ctx context.Context, u *models.User) error
	Delete(ctx context.Context, id string) error
}

// FeedbackStore persists reports.
type FeedbackStore interface {
	List(ctx context.Context) ([]models.Feedback, error)
	Get(ctx context.Context, id string) (*models.Feedback, error)
	Upsert(ctx context.Context, f *models.Feedback) error
	// DeleteByUser removes every report sent or received by userID.
	DeleteByUser(ctx context.Context, userID string) (int64, error)
}

// AuditLogStore persists audit entries. List returns newest first.
type AuditLogStore interface {
	List(ctx context.Context, limit int) ([]models.AuditLog, error)
	Append(ctx context.Context, l *models.AuditLog) error
	DeleteByUser(ctx context.Context, userID string) error
}

// NoteStore persists sticky notes. ListByUser returns notes ordered by OrderIndex.
type NoteStore interface {
	ListByUser(ctx context.Context, userID string) ([]models.Note, error)
	Upsert(ctx context.Context, n *models.Note) error
	Delete(ctx context.Context, id string) error
	DeleteByUser(ctx context.Context, userID string) error
}

// ContentStore persists announcements and articles. Lists return newest first.
type ContentStore interface {
	ListAnnouncements(ctx context.Context) ([]models.Announcement, error)
	CreateAnnouncement(ctx context.Context, a *models.Announcement) error
	DeleteAnnouncement(ctx context.Context, id string) error
	ListArticles(ctx context.Context) ([]models.Article, error)
	CreateArticle(ctx context.Context, a *models.Article) error
	DeleteArticle(ctx context.Context, id string) error
}

// Stores bundles one implementation of every contract.
type Stores struct {
	Users     UserStore
	Feedback  FeedbackStore
	AuditLogs AuditLogStore
	Notes     NoteStore
	Content   ContentStore
}

// IsTableMissing reports whether err means the backing table does not exist.
func IsTableMissing(err error) bool {
	return errors.Is(err, contextutils.ErrTableMissing)
}

// IsNotFound reports whether err means the record does not exist.
func IsNotFound(err error) bool {
	return errors.Is(err, contextutils.ErrRecordNotFound)
}
