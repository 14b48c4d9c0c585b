// Package postgres implements the store contracts on PostgreSQL with plain SQL.
package postgres

import (
	"database/sql"
	"errors"

	"github.com/lib/pq"

	"faultdesk/internal/store"
	contextutils "faultdesk/internal/utils"
)

const (
	pqUndefinedTable  = "42P01"
	pqUniqueViolation = "23505"
)

var (
	_ store.UserStore     = (*UserStore)(nil)
	_ store.FeedbackStore = (*FeedbackStore)(nil)
	_ store.AuditLogStore = (*AuditLogStore)(nil)
	_ store.NoteStore     = (*NoteStore)(nil)
	_ store.ContentStore  = (*ContentStore)(nil)
)

// NewStores returns every store backed by db.
func NewStores(db *sql.DB) *store.Stores {
	return &store.Stores{
		Users:     NewUserStore(db),
		Feedback:  NewFeedbackStore(db),
		AuditLogs: NewAuditLogStore(db),
		Notes:     NewNoteStore(db),
		Content:   NewContentStore(db),
	}
}

// translate maps driver errors onto AppErrors.
func translate(err error, op string) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, sql.ErrNoRows) {
		return contextutils.WrapError(contextutils.ErrRecordNotFound, op)
	}
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		switch pqErr.Code {
		case pqUndefinedTable:
			return contextutils.WrapErrorf(contextutils.ErrTableMissing, "%s: %s", op, pqErr.Message)
		case pqUniqueViolation:
			return contextutils.WrapErrorf(contextutils.ErrRecordExists, "%s: %s", op, pqErr.Detail)
		}
	}
	return contextutils.WrapErrorf(contextutils.ErrDatabaseQuery, "%s: %v", op, err)
}

// requireRows turns an update or delete that touched nothing into ErrRecordNotFound.
func requireRows(res sql.Result, op string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return translate(err, op)
	}
	if n == 0 {
		return contextutils.WrapError(contextutils.ErrRecordNotFound, op)
	}
	return nil
}

func nullString(s *string) sql.NullString {
	if s == nil || *s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: *s, Valid: true}
}

func stringPtr(ns sql.NullString) *string {
	if !ns.Valid {
		return nil
	}
	s := ns.String
	return &s
}
