// Package memory implements the store contracts in process memory. It backs
// the "memory" database driver and the service and handler tests.
package memory

import (
	"context"
	"sort"
	"sync"

	"faultdesk/internal/models"
	"faultdesk/internal/store"
	contextutils "faultdesk/internal/utils"
)

// Store holds every collection behind one lock.
type Store struct {
	mu            sync.RWMutex
	users         map[string]models.User
	feedback      map[string]models.Feedback
	auditLogs     []models.AuditLog
	notes         map[string]models.Note
	announcements map[string]models.Announcement
	articles      map[string]models.Article

	// Failures injects errors per operation name, e.g. "audit.list".
	Failures map[string]error
}

// New creates an empty Store.
func New() *Store {
	return &Store{
		users:         make(map[string]models.User),
		feedback:      make(map[string]models.Feedback),
		notes:         make(map[string]models.Note),
		announcements: make(map[string]models.Announcement),
		articles:      make(map[string]models.Article),
		Failures:      make(map[string]error),
	}
}

// Stores exposes s through every store contract.
func (s *Store) Stores() *store.Stores {
	return &store.Stores{
		Users:     (*userStore)(s),
		Feedback:  (*feedbackStore)(s),
		AuditLogs: (*auditLogStore)(s),
		Notes:     (*noteStore)(s),
		Content:   (*contentStore)(s),
	}
}

// Fail makes op return err until cleared with a nil err.
func (s *Store) Fail(op string, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err == nil {
		delete(s.Failures, op)
		return
	}
	s.Failures[op] = err
}

func (s *Store) failure(op string) error {
	return s.Failures[op]
}

type userStore Store

func (u *userStore) List(_ context.Context) ([]models.User, error) {
	s := (*Store)(u)
	s.mu.RLock()
	defer s.mu.RUnlock()
	if err := s.failure("users.list"); err != nil {
		return nil, err
	}
	out := make([]models.User, 0, len(s.users))
	for _, v := range s.users {
		out = append(out, v)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Name != out[j].Name {
			return out[i].Name < out[j].Name
		}
		return out[i].Username < out[j].Username
	})
	return out, nil
}

func (u *userStore) Get(_ context.Context, id string) (*models.User, error) {
	s := (*Store)(u)
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.users[id]
	if !ok {
		return nil, contextutils.WrapErrorf(contextutils.ErrRecordNotFound, "user %s", id)
	}
	return &v, nil
}

func (u *userStore) GetByUsername(_ context.Context, username string) (*models.User, error) {
	s := (*Store)(u)
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, v := range s.users {
		if v.Username == username {
			found := v
			return &found, nil
		}
	}
	return nil, contextutils.WrapErrorf(contextutils.ErrRecordNotFound, "user %s", username)
}

func (u *userStore) Upsert(_ context.Context, user *models.User) error {
	s := (*Store)(u)
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.failure("users.upsert"); err != nil {
		return err
	}
	for id, v := range s.users {
		if id != user.ID && v.Username == user.Username {
			return contextutils.WrapErrorf(contextutils.ErrRecordExists, "username %s", user.Username)
		}
	}
	s.users[user.ID] = *user
	return nil
}

func (u *userStore) Delete(_ context.Context, id string) error {
	s := (*Store)(u)
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.failure("users.delete"); err != nil {
		return err
	}
	if _, ok := s.users[id]; !ok {
		return contextutils.WrapErrorf(contextutils.ErrRecordNotFound, "user %s", id)
	}
	delete(s.users, id)
	return nil
}

type feedbackStore Store

func (f *feedbackStore) List(_ context.Context) ([]models.Feedback, error) {
	s := (*Store)(f)
	s.mu.RLock()
	defer s.mu.RUnlock()
	if err := s.failure("feedback.list"); err != nil {
		return nil, err
	}
	out := make([]models.Feedback, 0, len(s.feedback))
	for _, v := range s.feedback {
		out = append(out, v)
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].Timestamp.Equal(out[j].Timestamp) {
			return out[i].Timestamp.After(out[j].Timestamp)
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

func (f *feedbackStore) Get(_ context.Context, id string) (*models.Feedback, error) {
	s := (*Store)(f)
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.feedback[id]
	if !ok {
		return nil, contextutils.WrapErrorf(contextutils.ErrRecordNotFound, "feedback %s", id)
	}
	return &v, nil
}

func (f *feedbackStore) Upsert(_ context.Context, fb *models.Feedback) error {
	s := (*Store)(f)
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.failure("feedback.upsert"); err != nil {
		return err
	}
	s.feedback[fb.ID] = *fb
	return nil
}

func (f *feedbackStore) DeleteByUser(_ context.Context, userID string) (int64, error) {
	s := (*Store)(f)
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.failure("feedback.delete"); err != nil {
		return 0, err
	}
	var n int64
	for id, v := range s.feedback {
		if v.InvolvesUser(userID) {
			delete(s.feedback, id)
			n++
		}
	}
	return n, nil
}

type auditLogStore Store

func (a *auditLogStore) List(_ context.Context, limit int) ([]models.AuditLog, error) {
	s := (*Store)(a)
	s.mu.RLock()
	defer s.mu.RUnlock()
	if err := s.failure("audit.list"); err != nil {
		return nil, err
	}
	out := make([]models.AuditLog, len(s.auditLogs))
	copy(out, s.auditLogs)
	sort.SliceStable(out, func(i, j int) bool { return out[i].Timestamp.After(out[j].Timestamp) })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (a *auditLogStore) Append(_ context.Context, l *models.AuditLog) error {
	s := (*Store)(a)
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.failure("audit.append"); err != nil {
		return err
	}
	s.auditLogs = append(s.auditLogs, *l)
	return nil
}

func (a *auditLogStore) DeleteByUser(_ context.Context, userID string) error {
	s := (*Store)(a)
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.failure("audit.delete"); err != nil {
		return err
	}
	kept := s.auditLogs[:0]
	for _, l := range s.auditLogs {
		if l.UserID != userID {
			kept = append(kept, l)
		}
	}
	s.auditLogs = kept
	return nil
}

type noteStore Store

func (n *noteStore) ListByUser(_ context.Context, userID string) ([]models.Note, error) {
	s := (*Store)(n)
	s.mu.RLock()
	defer s.mu.RUnlock()
	if err := s.failure("notes.list"); err != nil {
		return nil, err
	}
	out := make([]models.Note, 0)
	for _, v := range s.notes {
		if v.UserID == userID {
			out = append(out, v)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].OrderIndex != out[j].OrderIndex {
			return out[i].OrderIndex < out[j].OrderIndex
		}
		return out[i].Timestamp.Before(out[j].Timestamp)
	})
	return out, nil
}

func (n *noteStore) Upsert(_ context.Context, note *models.Note) error {
	s := (*Store)(n)
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.failure("notes.upsert"); err != nil {
		return err
	}
	s.notes[note.ID] = *note
	return nil
}

func (n *noteStore) Delete(_ context.Context, id string) error {
	s := (*Store)(n)
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.failure("notes.delete"); err != nil {
		return err
	}
	delete(s.notes, id)
	return nil
}

func (n *noteStore) DeleteByUser(_ context.Context, userID string) error {
	s := (*Store)(n)
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.failure("notes.delete"); err != nil {
		return err
	}
	for id, v := range s.notes {
		if v.UserID == userID {
			delete(s.notes, id)
		}
	}
	return nil
}

type contentStore Store

func (c *contentStore) ListAnnouncements(_ context.Context) ([]models.Announcement, error) {
	s := (*Store)(c)
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]models.Announcement, 0, len(s.announcements))
	for _, v := range s.announcements {
		out = append(out, v)
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].IsImportant != out[j].IsImportant {
			return out[i].IsImportant
		}
		return out[i].Timestamp.After(out[j].Timestamp)
	})
	return out, nil
}

func (c *contentStore) CreateAnnouncement(_ context.Context, a *models.Announcement) error {
	s := (*Store)(c)
	s.mu.Lock()
	defer s.mu.Unlock()
	s.announcements[a.ID] = *a
	return nil
}

func (c *contentStore) DeleteAnnouncement(_ context.Context, id string) error {
	s := (*Store)(c)
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.announcements[id]; !ok {
		return contextutils.WrapErrorf(contextutils.ErrRecordNotFound, "announcement %s", id)
	}
	delete(s.announcements, id)
	return nil
}

func (c *contentStore) ListArticles(_ context.Context) ([]models.Article, error) {
	s := (*Store)(c)
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]models.Article, 0, len(s.articles))
	for _, v := range s.articles {
		out = append(out, v)
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Timestamp.After(out[j].Timestamp) })
	return out, nil
}

func (c *contentStore) CreateArticle(_ context.Context, a *models.Article) error {
	s := (*Store)(c)
	s.mu.Lock()
	defer s.mu.Unlock()
	s.articles[a.ID] = *a
	return nil
}

func (c *contentStore) DeleteArticle(_ context.Context, id string) error {
	s := (*Store)(c)
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.articles[id]; !ok {
		return contextutils.WrapErrorf(contextutils.ErrRecordNotFound, "article %s", id)
	}
	delete(s.articles, id)
	return nil
}
