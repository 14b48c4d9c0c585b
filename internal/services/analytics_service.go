package services

import (
	"context"

	"go.opentelemetry.io/otel/attribute"

	"faultdesk/internal/analytics"
	"faultdesk/internal/models"
	"faultdesk/internal/observability"
	"faultdesk/internal/store"
	contextutils "faultdesk/internal/utils"
)

// AnalyticsServiceInterface defines the dashboard aggregation
type AnalyticsServiceInterface interface {
	Summary(ctx context.Context, viewer models.User, selectedUserID string) (*analytics.Summary, error)
}

// AnalyticsService aggregates a snapshot of reports for a viewer.
type AnalyticsService struct {
	feedback store.FeedbackStore
	users    store.UserStore
	logger   *observability.Logger
}

// NewAnalyticsService creates a new AnalyticsService instance.
func NewAnalyticsService(stores *store.Stores, logger *observability.Logger) *AnalyticsService {
	if stores == nil || stores.Feedback == nil || stores.Users == nil {
		panic("NewAnalyticsService: feedback and user stores are required")
	}
	return &AnalyticsService{feedback: stores.Feedback, users: stores.Users, logger: logger}
}

// Summary returns the analytics view for viewer, optionally narrowed to selectedUserID.
func (s *AnalyticsService) Summary(ctx context.Context, viewer models.User, selectedUserID string) (result0 *analytics.Summary, err error) {
	ctx, span := observability.TraceAnalyticsFunction(ctx, "summary",
		attribute.String("viewer.role", viewer.Role.String()),
		attribute.String("analytics.selected_user_id", selectedUserID),
	)
	defer observability.FinishSpan(span, &err)

	items, err := s.feedback.List(ctx)
	if err != nil {
		return nil, contextutils.WrapError(err, "failed to list reports")
	}
	users, err := s.users.List(ctx)
	if err != nil {
		return nil, contextutils.WrapError(err, "failed to list users")
	}

	summary, err := analytics.Summarize(viewer, items, users, selectedUserID)
	if err != nil {
		return nil, err
	}
	span.SetAttributes(attribute.Int("analytics.total", summary.Counts.Total))
	return &summary, nil
}
