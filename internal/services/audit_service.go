package services

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"

	"faultdesk/internal/config"
	"faultdesk/internal/models"
	"faultdesk/internal/observability"
	"faultdesk/internal/policy"
	"faultdesk/internal/store"
	contextutils "faultdesk/internal/utils"
)

// AuditServiceInterface defines audit trail operations
type AuditServiceInterface interface {
	Record(ctx context.Context, actor models.User, action, details string)
	List(ctx context.Context, viewer models.User) ([]models.AuditLog, error)
}

// AuditService writes and reads the audit trail.
type AuditService struct {
	logs   store.AuditLogStore
	cfg    *config.Config
	logger *observability.Logger
	now    func() time.Time
}

// NewAuditService creates a new AuditService instance.
func NewAuditService(logs store.AuditLogStore, cfg *config.Config, logger *observability.Logger) *AuditService {
	if logs == nil {
		panic("NewAuditService: audit log store is nil")
	}
	if logger == nil {
		panic("NewAuditService: logger is nil")
	}
	return &AuditService{logs: logs, cfg: cfg, logger: logger, now: time.Now}
}

// Record appends an entry attributed to actor. It is best-effort: a failed
// write is logged and swallowed.
func (s *AuditService) Record(ctx context.Context, actor models.User, action, details string) {
	ctx, span := observability.TraceAuditFunction(ctx, "record",
		attribute.String("audit.action", action),
		attribute.String("audit.user_id", actor.ID),
	)
	defer span.End()

	entry := &models.AuditLog{
		ID:        uuid.NewString(),
		UserID:    actor.ID,
		UserName:  actor.DisplayName(),
		UserRole:  actor.Role,
		Action:    action,
		Details:   details,
		Timestamp: s.now().UTC(),
	}
	if err := s.logs.Append(ctx, entry); err != nil {
		span.SetAttributes(attribute.Bool("audit.dropped", true))
		s.logger.Warn(ctx, "Failed to write audit log entry", map[string]interface{}{
			"action":  action,
			"user_id": actor.ID,
			"error":   err.Error(),
		})
	}
}

// List returns the entries viewer may see, newest first.
func (s *AuditService) List(ctx context.Context, viewer models.User) (result0 []models.AuditLog, err error) {
	ctx, span := observability.TraceAuditFunction(ctx, "list",
		attribute.String("viewer.role", viewer.Role.String()),
	)
	defer observability.FinishSpan(span, &err)

	if !policy.CanViewAuditLogs(viewer.Role) {
		return nil, contextutils.WrapError(contextutils.ErrForbidden, "audit logs require a manager role")
	}

	limit := config.DefaultAuditListLimit
	if s.cfg != nil {
		limit = s.cfg.AuditLimit()
	}
	logs, err := s.logs.List(ctx, limit)
	if err != nil {
		if store.IsTableMissing(err) {
			return []models.AuditLog{}, nil
		}
		return nil, contextutils.WrapError(err, "failed to list audit logs")
	}

	visible, err := policy.FilterAuditLogs(viewer, logs)
	if err != nil {
		return nil, err
	}
	span.SetAttributes(attribute.Int("audit.count", len(visible)))
	return visible, nil
}
