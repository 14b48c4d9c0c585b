package postgres

import (
	"context"
	"database/sql"

	"faultdesk/internal/models"
)

// AuditLogStore implements store.AuditLogStore.
type AuditLogStore struct {
	db *sql.DB
}

// NewAuditLogStore creates an AuditLogStore.
func NewAuditLogStore(db *sql.DB) *AuditLogStore {
	return &AuditLogStore{db: db}
}

// List returns at most limit entries, newest first.
func (s *AuditLogStore) List(ctx context.Context, limit int) (result0 []models.AuditLog, err error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, user_id, user_name, user_role, action, details, timestamp FROM audit_logs ORDER BY timestamp DESC LIMIT $1`, limit)
	if err != nil {
		return nil, translate(err, "list audit logs")
	}
	defer func() {
		if cerr := rows.Close(); cerr != nil && err == nil {
			err = translate(cerr, "list audit logs")
		}
	}()

	logs := make([]models.AuditLog, 0)
	for rows.Next() {
		var l models.AuditLog
		if err := rows.Scan(&l.ID, &l.UserID, &l.UserName, &l.UserRole, &l.Action, &l.Details, &l.Timestamp); err != nil {
			return nil, translate(err, "scan audit log")
		}
		logs = append(logs, l)
	}
	return logs, translate(rows.Err(), "list audit logs")
}

// Append writes l. Entries are never updated.
func (s *AuditLogStore) Append(ctx context.Context, l *models.AuditLog) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO audit_logs (id, user_id, user_name, user_role, action, details, timestamp) VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		l.ID, l.UserID, l.UserName, string(l.UserRole), l.Action, l.Details, l.Timestamp)
	return translate(err, "append audit log")
}

// DeleteByUser removes the entries written by userID.
func (s *AuditLogStore) DeleteByUser(ctx context.Context, userID string) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM audit_logs WHERE user_id = $1`, userID)
	return translate(err, "delete audit logs by user")
}
