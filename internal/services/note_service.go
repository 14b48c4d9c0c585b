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

// NoteInput is the editable part of a sticky note
type NoteInput struct {
	Title    string           `json:"title"`
	Content  string           `json:"content"`
	Color    models.NoteColor `json:"color" binding:"omitempty,note_color"`
	FontSize models.FontSize  `json:"fontSize" binding:"omitempty,font_size"`
}

// NoteServiceInterface defines sticky note operations. Every method is scoped to owner.
type NoteServiceInterface interface {
	List(ctx context.Context, owner models.User) ([]models.Note, error)
	Create(ctx context.Context, owner models.User, in NoteInput) (*models.Note, error)
	Update(ctx context.Context, owner models.User, id string, in NoteInput) (*models.Note, error)
	Delete(ctx context.Context, owner models.User, id string) error
	Reorder(ctx context.Context, owner models.User, ids []string) ([]models.Note, error)
}

// NoteService manages the personal notes board.
type NoteService struct {
	notes  store.NoteStore
	logger *observability.Logger
	now    func() time.Time
}

// NewNoteService creates a new NoteService instance.
func NewNoteService(notes store.NoteStore, logger *observability.Logger) *NoteService {
	if notes == nil {
		panic("NewNoteService: note store is nil")
	}
	return &NoteService{notes: notes, logger: logger, now: time.Now}
}

func normalizeNoteInput(in NoteInput) (NoteInput, error) {
	if in.Color == "" {
		in.Color = models.NoteYellow
	}
	if in.FontSize == "" {
		in.FontSize = models.FontMedium
	}
	if !in.Color.Valid() {
		return in, contextutils.WrapErrorf(contextutils.ErrInvalidInput, "unknown note color %q", in.Color)
	}
	if !in.FontSize.Valid() {
		return in, contextutils.WrapErrorf(contextutils.ErrInvalidInput, "unknown font size %q", in.FontSize)
	}
	if contextutils.IsBlank(in.Title) && contextutils.IsBlank(in.Content) {
		return in, contextutils.WrapError(contextutils.ErrMissingRequired, "a note needs a title or content")
	}
	in.Title = strings.TrimSpace(in.Title)
	return in, nil
}

// List returns owner's notes in display order.
func (s *NoteService) List(ctx context.Context, owner models.User) (result0 []models.Note, err error) {
	ctx, span := observability.TraceNoteFunction(ctx, "list", attribute.String("user.id", owner.ID))
	defer observability.FinishSpan(span, &err)

	notes, err := s.notes.ListByUser(ctx, owner.ID)
	if err != nil {
		if store.IsTableMissing(err) {
			return []models.Note{}, nil
		}
		return nil, contextutils.WrapError(err, "failed to list notes")
	}
	return notes, nil
}

// Create appends a note at the end of owner's board.
func (s *NoteService) Create(ctx context.Context, owner models.User, in NoteInput) (result0 *models.Note, err error) {
	ctx, span := observability.TraceNoteFunction(ctx, "create", attribute.String("user.id", owner.ID))
	defer observability.FinishSpan(span, &err)

	in, err = normalizeNoteInput(in)
	if err != nil {
		return nil, err
	}
	existing, err := s.List(ctx, owner)
	if err != nil {
		return nil, err
	}

	next := 0
	for _, n := range existing {
		if n.OrderIndex >= next {
			next = n.OrderIndex + 1
		}
	}

	note := &models.Note{
		ID:         uuid.NewString(),
		UserID:     owner.ID,
		Title:      in.Title,
		Content:    in.Content,
		Color:      in.Color,
		FontSize:   in.FontSize,
		OrderIndex: next,
		Timestamp:  s.now().UTC(),
	}
	if err := s.notes.Upsert(ctx, note); err != nil {
		return nil, contextutils.WrapError(err, "failed to save note")
	}
	return note, nil
}

// owned returns owner's note with id, or ErrRecordNotFound.
func (s *NoteService) owned(ctx context.Context, owner models.User, id string) (*models.Note, []models.Note, error) {
	notes, err := s.List(ctx, owner)
	if err != nil {
		return nil, nil, err
	}
	for i := range notes {
		if notes[i].ID == id {
			return &notes[i], notes, nil
		}
	}
	return nil, notes, contextutils.WrapErrorf(contextutils.ErrRecordNotFound, "note %s", id)
}

// Update replaces the editable fields of one of owner's notes.
func (s *NoteService) Update(ctx context.Context, owner models.User, id string, in NoteInput) (result0 *models.Note, err error) {
	ctx, span := observability.TraceNoteFunction(ctx, "update", attribute.String("note.id", id))
	defer observability.FinishSpan(span, &err)

	in, err = normalizeNoteInput(in)
	if err != nil {
		return nil, err
	}
	note, _, err := s.owned(ctx, owner, id)
	if err != nil {
		return nil, err
	}

	note.Title = in.Title
	note.Content = in.Content
	note.Color = in.Color
	note.FontSize = in.FontSize
	note.Timestamp = s.now().UTC()
	if err := s.notes.Upsert(ctx, note); err != nil {
		return nil, contextutils.WrapError(err, "failed to save note")
	}
	return note, nil
}

// Delete removes one of owner's notes.
func (s *NoteService) Delete(ctx context.Context, owner models.User, id string) (err error) {
	ctx, span := observability.TraceNoteFunction(ctx, "delete", attribute.String("note.id", id))
	defer observability.FinishSpan(span, &err)

	if _, _, err := s.owned(ctx, owner, id); err != nil {
		return err
	}
	return s.notes.Delete(ctx, id)
}

// Reorder assigns OrderIndex by position in ids. ids must be exactly owner's notes.
func (s *NoteService) Reorder(ctx context.Context, owner models.User, ids []string) (result0 []models.Note, err error) {
	ctx, span := observability.TraceNoteFunction(ctx, "reorder", attribute.Int("notes.count", len(ids)))
	defer observability.FinishSpan(span, &err)

	notes, err := s.List(ctx, owner)
	if err != nil {
		return nil, err
	}
	if len(ids) != len(notes) {
		return nil, contextutils.WrapErrorf(contextutils.ErrInvalidInput, "expected %d note ids, got %d", len(notes), len(ids))
	}

	byID := make(map[string]models.Note, len(notes))
	for _, n := range notes {
		byID[n.ID] = n
	}

	out := make([]models.Note, 0, len(ids))
	seen := make(map[string]bool, len(ids))
	for i, id := range ids {
		n, ok := byID[id]
		if !ok || seen[id] {
			return nil, contextutils.WrapErrorf(contextutils.ErrInvalidInput, "note %s is not on your board or is repeated", id)
		}
		seen[id] = true
		n.OrderIndex = i
		out = append(out, n)
	}

	for i := range out {
		if err := s.notes.Upsert(ctx, &out[i]); err != nil {
			return nil, contextutils.WrapError(err, "failed to save note order")
		}
	}
	return out, nil
}
