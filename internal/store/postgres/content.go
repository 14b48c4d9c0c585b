package postgres

import (
	"context"
	"database/sql"

	"faultdesk/internal/models"
)

// ContentStore implements store.ContentStore.
type ContentStore struct {
	db *sql.DB
}

// NewContentStore creates a ContentStore.
func NewContentStore(db *sql.DB) *ContentStore {
	return &ContentStore{db: db}
}

// ListAnnouncements returns announcements, important ones first, then newest first.
func (s *ContentStore) ListAnnouncements(ctx context.Context) (result0 []models.Announcement, err error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, title, content, author_id, author_name, is_important, timestamp FROM announcements ORDER BY is_important DESC, timestamp DESC`)
	if err != nil {
		return nil, translate(err, "list announcements")
	}
	defer func() {
		if cerr := rows.Close(); cerr != nil && err == nil {
			err = translate(cerr, "list announcements")
		}
	}()

	out := make([]models.Announcement, 0)
	for rows.Next() {
		var a models.Announcement
		if err := rows.Scan(&a.ID, &a.Title, &a.Content, &a.AuthorID, &a.AuthorName, &a.IsImportant, &a.Timestamp); err != nil {
			return nil, translate(err, "scan announcement")
		}
		out = append(out, a)
	}
	return out, translate(rows.Err(), "list announcements")
}

// CreateAnnouncement inserts a.
func (s *ContentStore) CreateAnnouncement(ctx context.Context, a *models.Announcement) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO announcements (id, title, content, author_id, author_name, is_important, timestamp) VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		a.ID, a.Title, a.Content, a.AuthorID, a.AuthorName, a.IsImportant, a.Timestamp)
	return translate(err, "create announcement")
}

// DeleteAnnouncement removes the announcement with id.
func (s *ContentStore) DeleteAnnouncement(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM announcements WHERE id = $1`, id)
	if err != nil {
		return translate(err, "delete announcement")
	}
	return requireRows(res, "delete announcement "+id)
}

// ListArticles returns knowledge base articles, newest first.
func (s *ContentStore) ListArticles(ctx context.Context) (result0 []models.Article, err error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, title, content, category, author_id, author_name, timestamp FROM articles ORDER BY timestamp DESC`)
	if err != nil {
		return nil, translate(err, "list articles")
	}
	defer func() {
		if cerr := rows.Close(); cerr != nil && err == nil {
			err = translate(cerr, "list articles")
		}
	}()

	out := make([]models.Article, 0)
	for rows.Next() {
		var a models.Article
		if err := rows.Scan(&a.ID, &a.Title, &a.Content, &a.Category, &a.AuthorID, &a.AuthorName, &a.Timestamp); err != nil {
			return nil, translate(err, "scan article")
		}
		out = append(out, a)
	}
	return out, translate(rows.Err(), "list articles")
}

// CreateArticle inserts a.
func (s *ContentStore) CreateArticle(ctx context.Context, a *models.Article) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO articles (id, title, content, category, author_id, author_name, timestamp) VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		a.ID, a.Title, a.Content, a.Category, a.AuthorID, a.AuthorName, a.Timestamp)
	return translate(err, "create article")
}

// DeleteArticle removes the article with id.
func (s *ContentStore) DeleteArticle(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM articles WHERE id = $1`, id)
	if err != nil {
		return translate(err, "delete article")
	}
	return requireRows(res, "delete article "+id)
}
