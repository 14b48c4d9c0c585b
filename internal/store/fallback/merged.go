package fallback

import (
	"context"
	"sort"

	"faultdesk/internal/models"
	"faultdesk/internal/observability"
	"faultdesk/internal/store"
)

const migrateHint = "run `faultdesk-adm db migrate` or enable database.run_migrations"

// Outcomes recorded for fallback metrics.
const (
	outcomePrimary  = "primary"
	outcomeDegraded = "degraded"
	outcomeFailed   = "failed"
)

// AuditLogStore writes every entry to the primary store and the local cache,
// and reads the union of both, preferring the primary copy of an id.
type AuditLogStore struct {
	primary store.AuditLogStore
	local   Cache
	logger  *observability.Logger
	metrics *observability.Metrics
}

// NewAuditLogStore wraps primary. local may be nil.
func NewAuditLogStore(primary store.AuditLogStore, local Cache, logger *observability.Logger, metrics *observability.Metrics) *AuditLogStore {
	return &AuditLogStore{primary: primary, local: local, logger: logger, metrics: metrics}
}

func (s *AuditLogStore) warnPrimary(ctx context.Context, op string, err error) {
	fields := map[string]interface{}{"collection": "audit_logs", "operation": op, "error": err.Error()}
	if store.IsTableMissing(err) {
		fields["hint"] = migrateHint
		s.logger.Warn(ctx, "Audit log table is missing; using local fallback", fields)
		return
	}
	s.logger.Warn(ctx, "Primary audit log store unavailable; using local fallback", fields)
}

// List returns at most limit entries from both sources, newest first. It never
// fails: when neither source answers the result is empty.
func (s *AuditLogStore) List(ctx context.Context, limit int) ([]models.AuditLog, error) {
	primary, perr := s.primary.List(ctx, limit)
	if perr != nil {
		s.warnPrimary(ctx, "list", perr)
		primary = nil
	}

	var local []models.AuditLog
	if s.local != nil {
		var lerr error
		local, lerr = s.local.ListAuditLogs(ctx, limit)
		if lerr != nil {
			s.logger.Warn(ctx, "Local audit log cache unavailable", map[string]interface{}{"error": lerr.Error()})
			local = nil
		}
	}

	switch {
	case perr == nil:
		s.metrics.RecordFallback("audit_logs", "list", outcomePrimary)
	case s.local != nil:
		s.metrics.RecordFallback("audit_logs", "list", outcomeDegraded)
	default:
		s.metrics.RecordFallback("audit_logs", "list", outcomeFailed)
	}

	return MergeAuditLogs(primary, local, limit), nil
}

// Append writes l to both sources. It fails only when no source stored the entry.
func (s *AuditLogStore) Append(ctx context.Context, l *models.AuditLog) error {
	perr := s.primary.Append(ctx, l)
	if perr != nil {
		s.warnPrimary(ctx, "append", perr)
	}
	if s.local == nil {
		if perr != nil {
			s.metrics.RecordFallback("audit_logs", "append", outcomeFailed)
		}
		return perr
	}

	if lerr := s.local.AppendAuditLog(ctx, l); lerr != nil {
		s.logger.Warn(ctx, "Failed to write audit log to local cache", map[string]interface{}{"error": lerr.Error(), "audit_id": l.ID})
		if perr != nil {
			s.metrics.RecordFallback("audit_logs", "append", outcomeFailed)
			return perr
		}
	}
	if perr != nil {
		s.metrics.RecordFallback("audit_logs", "append", outcomeDegraded)
	}
	return nil
}

// DeleteByUser removes userID's entries from both sources.
func (s *AuditLogStore) DeleteByUser(ctx context.Context, userID string) error {
	perr := s.primary.DeleteByUser(ctx, userID)
	if s.local != nil {
		if lerr := s.local.DeleteAuditLogsByUser(ctx, userID); lerr != nil {
			s.logger.Warn(ctx, "Failed to delete audit logs from local cache", map[string]interface{}{"error": lerr.Error(), "user_id": userID})
		}
	}
	if perr != nil && store.IsTableMissing(perr) {
		return nil
	}
	return perr
}

// MergeAuditLogs unions two entry sets by id, keeping the primary copy on
// conflict, sorted newest first and cut to limit (no cut when limit <= 0).
func MergeAuditLogs(primary, local []models.AuditLog, limit int) []models.AuditLog {
	byID := make(map[string]models.AuditLog, len(primary)+len(local))
	for _, l := range local {
		byID[l.ID] = l
	}
	for _, l := range primary {
		byID[l.ID] = l
	}

	out := make([]models.AuditLog, 0, len(byID))
	for _, l := range byID {
		out = append(out, l)
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].Timestamp.Equal(out[j].Timestamp) {
			return out[i].Timestamp.After(out[j].Timestamp)
		}
		return out[i].ID < out[j].ID
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out
}

// NoteStore mirrors notes into the local cache with the same policy as AuditLogStore.
type NoteStore struct {
	primary store.NoteStore
	local   Cache
	logger  *observability.Logger
	metrics *observability.Metrics
}

// NewNoteStore wraps primary. local may be nil.
func NewNoteStore(primary store.NoteStore, local Cache, logger *observability.Logger, metrics *observability.Metrics) *NoteStore {
	return &NoteStore{primary: primary, local: local, logger: logger, metrics: metrics}
}

func (s *NoteStore) warnPrimary(ctx context.Context, op string, err error) {
	fields := map[string]interface{}{"collection": "notes", "operation": op, "error": err.Error()}
	if store.IsTableMissing(err) {
		fields["hint"] = migrateHint
		s.logger.Warn(ctx, "Notes table is missing; using local fallback", fields)
		return
	}
	s.logger.Warn(ctx, "Primary note store unavailable; using local fallback", fields)
}

// ListByUser returns the union of both sources in display order. It never fails.
func (s *NoteStore) ListByUser(ctx context.Context, userID string) ([]models.Note, error) {
	primary, perr := s.primary.ListByUser(ctx, userID)
	if perr != nil {
		s.warnPrimary(ctx, "list", perr)
		primary = nil
	}

	var local []models.Note
	if s.local != nil {
		var lerr error
		local, lerr = s.local.ListNotes(ctx, userID)
		if lerr != nil {
			s.logger.Warn(ctx, "Local note cache unavailable", map[string]interface{}{"error": lerr.Error()})
			local = nil
		}
	}

	switch {
	case perr == nil:
		s.metrics.RecordFallback("notes", "list", outcomePrimary)
	case s.local != nil:
		s.metrics.RecordFallback("notes", "list", outcomeDegraded)
	default:
		s.metrics.RecordFallback("notes", "list", outcomeFailed)
	}

	return MergeNotes(primary, local), nil
}

// Upsert writes n to both sources. It fails only when no source stored the note.
func (s *NoteStore) Upsert(ctx context.Context, n *models.Note) error {
	perr := s.primary.Upsert(ctx, n)
	if perr != nil {
		s.warnPrimary(ctx, "upsert", perr)
	}
	if s.local == nil {
		return perr
	}
	if lerr := s.local.UpsertNote(ctx, n); lerr != nil {
		s.logger.Warn(ctx, "Failed to write note to local cache", map[string]interface{}{"error": lerr.Error(), "note_id": n.ID})
		if perr != nil {
			s.metrics.RecordFallback("notes", "upsert", outcomeFailed)
			return perr
		}
	}
	if perr != nil {
		s.metrics.RecordFallback("notes", "upsert", outcomeDegraded)
	}
	return nil
}

// Delete removes the note from both sources.
func (s *NoteStore) Delete(ctx context.Context, id string) error {
	perr := s.primary.Delete(ctx, id)
	if perr != nil {
		s.warnPrimary(ctx, "delete", perr)
	}
	if s.local == nil {
		return perr
	}
	lerr := s.local.DeleteNote(ctx, id)
	if lerr != nil {
		s.logger.Warn(ctx, "Failed to delete note from local cache", map[string]interface{}{"error": lerr.Error(), "note_id": id})
	}
	if perr != nil && lerr != nil {
		return perr
	}
	return nil
}

// DeleteByUser removes every note owned by userID from both sources.
func (s *NoteStore) DeleteByUser(ctx context.Context, userID string) error {
	perr := s.primary.DeleteByUser(ctx, userID)
	if s.local != nil {
		if lerr := s.local.DeleteNotesByUser(ctx, userID); lerr != nil {
			s.logger.Warn(ctx, "Failed to delete notes from local cache", map[string]interface{}{"error": lerr.Error(), "user_id": userID})
		}
	}
	if perr != nil && store.IsTableMissing(perr) {
		return nil
	}
	return perr
}

// MergeNotes unions two note sets by id, keeping the primary copy on conflict,
// ordered by OrderIndex then Timestamp.
func MergeNotes(primary, local []models.Note) []models.Note {
	byID := make(map[string]models.Note, len(primary)+len(local))
	for _, n := range local {
		byID[n.ID] = n
	}
	for _, n := range primary {
		byID[n.ID] = n
	}

	out := make([]models.Note, 0, len(byID))
	for _, n := range byID {
		out = append(out, n)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].OrderIndex != out[j].OrderIndex {
			return out[i].OrderIndex < out[j].OrderIndex
		}
		if !out[i].Timestamp.Equal(out[j].Timestamp) {
			return out[i].Timestamp.Before(out[j].Timestamp)
		}
		return out[i].ID < out[j].ID
	})
	return out
}

var (
	_ store.AuditLogStore = (*AuditLogStore)(nil)
	_ store.NoteStore     = (*NoteStore)(nil)
	_ Cache               = (*SQLiteCache)(nil)
	_ Cache               = (*RedisCache)(nil)
)
