package services

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"

	"faultdesk/internal/models"
	"faultdesk/internal/observability"
	"faultdesk/internal/store"
	contextutils "faultdesk/internal/utils"
)

// AnnouncementInput is the payload for a new announcement
type AnnouncementInput struct {
	Title       string `json:"title" binding:"required"`
	Content     string `json:"content"`
	IsImportant bool   `json:"isImportant"`
}

// ArticleInput is the payload for a new knowledge base article
type ArticleInput struct {
	Title    string `json:"title" binding:"required"`
	Content  string `json:"content"`
	Category string `json:"category"`
}

// ContentServiceInterface defines announcement and article operations
type ContentServiceInterface interface {
	ListAnnouncements(ctx context.Context) ([]models.Announcement, error)
	CreateAnnouncement(ctx context.Context, actor models.User, in AnnouncementInput) (*models.Announcement, error)
	DeleteAnnouncement(ctx context.Context, actor models.User, id string) error
	ListArticles(ctx context.Context) ([]models.Article, error)
	CreateArticle(ctx context.Context, actor models.User, in ArticleInput) (*models.Article, error)
	DeleteArticle(ctx context.Context, actor models.User, id string) error
}

// ContentService manages announcements and the knowledge base.
type ContentService struct {
	content store.ContentStore
	audit   AuditServiceInterface
	logger  *observability.Logger
	now     func() time.Time
}

// NewContentService creates a new ContentService instance.
func NewContentService(content store.ContentStore, audit AuditServiceInterface, logger *observability.Logger) *ContentService {
	if content == nil {
		panic("NewContentService: content store is nil")
	}
	return &ContentService{content: content, audit: audit, logger: logger, now: time.Now}
}

func requireAuthor(actor models.User) error {
	if actor.Role.IsManagerTier() {
		return nil
	}
	return contextutils.WrapError(contextutils.ErrForbidden, "only managers can publish content")
}

// ListAnnouncements returns announcements, important first.
func (s *ContentService) ListAnnouncements(ctx context.Context) (result0 []models.Announcement, err error) {
	ctx, span := observability.TraceContentFunction(ctx, "list_announcements")
	defer observability.FinishSpan(span, &err)

	items, err := s.content.ListAnnouncements(ctx)
	if store.IsTableMissing(err) {
		return []models.Announcement{}, nil
	}
	return items, err
}

// CreateAnnouncement publishes an announcement authored by actor.
func (s *ContentService) CreateAnnouncement(ctx context.Context, actor models.User, in AnnouncementInput) (result0 *models.Announcement, err error) {
	ctx, span := observability.TraceContentFunction(ctx, "create_announcement", attribute.Bool("announcement.important", in.IsImportant))
	defer observability.FinishSpan(span, &err)

	if err := requireAuthor(actor); err != nil {
		return nil, err
	}
	if contextutils.IsBlank(in.Title) {
		return nil, contextutils.WrapError(contextutils.ErrMissingRequired, "title is required")
	}

	a := &models.Announcement{
		ID:          uuid.NewString(),
		Title:       strings.TrimSpace(in.Title),
		Content:     in.Content,
		AuthorID:    actor.ID,
		AuthorName:  actor.DisplayName(),
		IsImportant: in.IsImportant,
		Timestamp:   s.now().UTC(),
	}
	if err := s.content.CreateAnnouncement(ctx, a); err != nil {
		return nil, contextutils.WrapError(err, "failed to create announcement")
	}
	if s.audit != nil {
		s.audit.Record(ctx, actor, models.ActionCreateAnnouncement, "Published announcement: "+a.Title)
	}
	return a, nil
}

// DeleteAnnouncement removes an announcement.
func (s *ContentService) DeleteAnnouncement(ctx context.Context, actor models.User, id string) (err error) {
	ctx, span := observability.TraceContentFunction(ctx, "delete_announcement", attribute.String("announcement.id", id))
	defer observability.FinishSpan(span, &err)

	if err := requireAuthor(actor); err != nil {
		return err
	}
	return s.content.DeleteAnnouncement(ctx, id)
}

// ListArticles returns knowledge base articles, newest first.
func (s *ContentService) ListArticles(ctx context.Context) (result0 []models.Article, err error) {
	ctx, span := observability.TraceContentFunction(ctx, "list_articles")
	defer observability.FinishSpan(span, &err)

	items, err := s.content.ListArticles(ctx)
	if store.IsTableMissing(err) {
		return []models.Article{}, nil
	}
	return items, err
}

// CreateArticle publishes an article authored by actor.
func (s *ContentService) CreateArticle(ctx context.Context, actor models.User, in ArticleInput) (result0 *models.Article, err error) {
	ctx, span := observability.TraceContentFunction(ctx, "create_article", attribute.String("article.category", in.Category))
	defer observability.FinishSpan(span, &err)

	if err := requireAuthor(actor); err != nil {
		return nil, err
	}
	if contextutils.IsBlank(in.Title) {
		return nil, contextutils.WrapError(contextutils.ErrMissingRequired, "title is required")
	}

	a := &models.Article{
		ID:         uuid.NewString(),
		Title:      strings.TrimSpace(in.Title),
		Content:    in.Content,
		Category:   strings.TrimSpace(in.Category),
		AuthorID:   actor.ID,
		AuthorName: actor.DisplayName(),
		Timestamp:  s.now().UTC(),
	}
	if err := s.content.CreateArticle(ctx, a); err != nil {
		return nil, contextutils.WrapError(err, "failed to create article")
	}
	if s.audit != nil {
		s.audit.Record(ctx, actor, models.ActionCreateArticle, "Published article: "+a.Title)
	}
	return a, nil
}

// DeleteArticle removes an article.
func (s *ContentService) DeleteArticle(ctx context.Context, actor models.User, id string) (err error) {
	ctx, span := observability.TraceContentFunction(ctx, "delete_article", attribute.String("article.id", id))
	defer observability.FinishSpan(span, &err)

	if err := requireAuthor(actor); err != nil {
		return err
	}
	return s.content.DeleteArticle(ctx, id)
}
