package postgres

import (
	"context"
	"database/sql"

	"faultdesk/internal/models"
)

// NoteStore implements store.NoteStore.
type NoteStore struct {
	db *sql.DB
}

// NewNoteStore creates a NoteStore.
func NewNoteStore(db *sql.DB) *NoteStore {
	return &NoteStore{db: db}
}

// ListByUser returns the notes owned by userID in display order.
func (s *NoteStore) ListByUser(ctx context.Context, userID string) (result0 []models.Note, err error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, user_id, title, content, color, font_size, order_index, timestamp FROM notes WHERE user_id = $1 ORDER BY order_index, timestamp`, userID)
	if err != nil {
		return nil, translate(err, "list notes")
	}
	defer func() {
		if cerr := rows.Close(); cerr != nil && err == nil {
			err = translate(cerr, "list notes")
		}
	}()

	notes := make([]models.Note, 0)
	for rows.Next() {
		var n models.Note
		if err := rows.Scan(&n.ID, &n.UserID, &n.Title, &n.Content, &n.Color, &n.FontSize, &n.OrderIndex, &n.Timestamp); err != nil {
			return nil, translate(err, "scan note")
		}
		notes = append(notes, n)
	}
	return notes, translate(rows.Err(), "list notes")
}

// Upsert inserts or replaces n.
func (s *NoteStore) Upsert(ctx context.Context, n *models.Note) error {
	const query = `INSERT INTO notes (id, user_id, title, content, color, font_size, order_index, timestamp)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (id) DO UPDATE SET
			title = EXCLUDED.title,
			content = EXCLUDED.content,
			color = EXCLUDED.color,
			font_size = EXCLUDED.font_size,
			order_index = EXCLUDED.order_index,
			timestamp = EXCLUDED.timestamp`
	_, err := s.db.ExecContext(ctx, query,
		n.ID, n.UserID, n.Title, n.Content, string(n.Color), string(n.FontSize), n.OrderIndex, n.Timestamp)
	return translate(err, "upsert note")
}

// Delete removes the note with id. Deleting a missing note is not an error.
func (s *NoteStore) Delete(ctx context.Context, id string) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM notes WHERE id = $1`, id)
	return translate(err, "delete note")
}

// DeleteByUser removes every note owned by userID.
func (s *NoteStore) DeleteByUser(ctx context.Context, userID string) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM notes WHERE user_id = $1`, userID)
	return translate(err, "delete notes by user")
}
