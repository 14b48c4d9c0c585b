package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	openapi_types "github.com/oapi-codegen/runtime/types"
	"go.opentelemetry.io/otel/attribute"

	"faultdesk/internal/config"
	"faultdesk/internal/models"
	"faultdesk/internal/observability"
	"faultdesk/internal/policy"
	"faultdesk/internal/store"
	contextutils "faultdesk/internal/utils"
)

// SubmitFeedbackRequest is the payload for a new fault report
type SubmitFeedbackRequest struct {
	ToUserID         string             `json:"toUserId" binding:"required"`
	ReportDate       openapi_types.Date `json:"reportDate"`
	OrderNumber      string             `json:"orderNumber"`
	CaseNumber       string             `json:"caseNumber"`
	FaultDescription string             `json:"faultDescription"`
	ProcessType      models.ProcessType `json:"processType" binding:"required,process_type"`
	ScenarioTag      models.ScenarioTag `json:"scenarioTag" binding:"omitempty,scenario_tag"`
	Priority         models.Priority    `json:"priority" binding:"omitempty,priority"`
	FeedbackContent  string             `json:"feedbackContent" binding:"required"`
	AdditionalNotes  string             `json:"additionalNotes"`
}

// FeedbackServiceInterface defines report operations
type FeedbackServiceInterface interface {
	Submit(ctx context.Context, actor models.User, req SubmitFeedbackRequest) (*models.Feedback, error)
	List(ctx context.Context, viewer models.User, query string) ([]models.FeedbackView, error)
	Get(ctx context.Context, viewer models.User, id string) (*models.FeedbackView, error)
	Approve(ctx context.Context, actor models.User, id, notes string) (*models.Feedback, error)
	Reject(ctx context.Context, actor models.User, id, reason string) (*models.Feedback, error)
	SetStatus(ctx context.Context, actor models.User, id string, status models.ResolutionStatus) (*models.Feedback, error)
	Analyze(ctx context.Context, actor models.User, id string) (*models.Feedback, error)
}

// FeedbackService implements FeedbackServiceInterface.
type FeedbackService struct {
	feedback store.FeedbackStore
	users    store.UserStore
	audit    AuditServiceInterface
	ai       AIServiceInterface
	cfg      *config.Config
	metrics  *observability.Metrics
	logger   *observability.Logger
	now      func() time.Time
}

// NewFeedbackService creates a new FeedbackService instance.
func NewFeedbackService(stores *store.Stores, audit AuditServiceInterface, ai AIServiceInterface, cfg *config.Config, metrics *observability.Metrics, logger *observability.Logger) *FeedbackService {
	if stores == nil || stores.Feedback == nil || stores.Users == nil {
		panic("NewFeedbackService: feedback and user stores are required")
	}
	if logger == nil {
		panic("NewFeedbackService: logger is nil")
	}
	return &FeedbackService{
		feedback: stores.Feedback,
		users:    stores.Users,
		audit:    audit,
		ai:       ai,
		cfg:      cfg,
		metrics:  metrics,
		logger:   logger,
		now:      time.Now,
	}
}

func (s *FeedbackService) record(ctx context.Context, actor models.User, action, details string) {
	if s.audit != nil {
		s.audit.Record(ctx, actor, action, details)
	}
}

// Submit files a new Pending/Open report from actor about req.ToUserID.
func (s *FeedbackService) Submit(ctx context.Context, actor models.User, req SubmitFeedbackRequest) (result0 *models.Feedback, err error) {
	ctx, span := observability.TraceFeedbackFunction(ctx, "submit",
		attribute.String("feedback.from_user_id", actor.ID),
		attribute.String("feedback.to_user_id", req.ToUserID),
		attribute.String("feedback.process_type", string(req.ProcessType)),
	)
	defer observability.FinishSpan(span, &err)

	if req.ToUserID == "" {
		return nil, contextutils.WrapError(contextutils.ErrMissingRequired, "a subject is required")
	}
	if req.ToUserID == actor.ID {
		return nil, contextutils.WrapError(contextutils.ErrInvalidInput, "you cannot file a report about yourself")
	}
	if !req.ProcessType.Valid() {
		return nil, contextutils.WrapErrorf(contextutils.ErrInvalidInput, "unknown process type %q", req.ProcessType)
	}
	if !req.ScenarioTag.Valid() {
		return nil, contextutils.WrapErrorf(contextutils.ErrInvalidInput, "unknown scenario tag %q", req.ScenarioTag)
	}
	priority := req.Priority
	if priority == "" {
		priority = models.PriorityMedium
	}
	if !priority.Valid() {
		return nil, contextutils.WrapErrorf(contextutils.ErrInvalidInput, "unknown priority %q", req.Priority)
	}
	if contextutils.IsBlank(req.FeedbackContent) {
		return nil, contextutils.WrapError(contextutils.ErrMissingRequired, "feedback content is required")
	}

	target, err := s.users.Get(ctx, req.ToUserID)
	if err != nil {
		if store.IsNotFound(err) {
			return nil, contextutils.WrapErrorf(contextutils.ErrInvalidInput, "user %s does not exist", req.ToUserID)
		}
		return nil, err
	}

	now := s.now().UTC()
	reportDate := req.ReportDate
	if reportDate.Time.IsZero() {
		reportDate = openapi_types.Date{Time: now.Truncate(24 * time.Hour)}
	}

	f := &models.Feedback{
		ID:               uuid.NewString(),
		FromUserID:       actor.ID,
		ToUserID:         target.ID,
		ReportDate:       reportDate,
		OrderNumber:      strings.TrimSpace(req.OrderNumber),
		CaseNumber:       strings.TrimSpace(req.CaseNumber),
		FaultDescription: strings.TrimSpace(req.FaultDescription),
		ProcessType:      req.ProcessType,
		ScenarioTag:      req.ScenarioTag,
		ResolutionStatus: models.ResolutionOpen,
		ApprovalStatus:   models.ApprovalPending,
		Priority:         priority,
		FeedbackContent:  strings.TrimSpace(req.FeedbackContent),
		AdditionalNotes:  strings.TrimSpace(req.AdditionalNotes),
		Timestamp:        now,
	}
	if err := s.feedback.Upsert(ctx, f); err != nil {
		return nil, contextutils.WrapError(err, "failed to save report")
	}

	span.SetAttributes(attribute.String("feedback.id", f.ID))
	s.record(ctx, actor, models.ActionSubmitReport, fmt.Sprintf("Submitted %s report %s about %s", f.ProcessType, f.ID, target.DisplayName()))
	return f, nil
}

// List returns the reports viewer may see, projected and filtered by query.
func (s *FeedbackService) List(ctx context.Context, viewer models.User, query string) (result0 []models.FeedbackView, err error) {
	ctx, span := observability.TraceFeedbackFunction(ctx, "list",
		attribute.String("viewer.role", viewer.Role.String()),
		attribute.Bool("search.enabled", strings.TrimSpace(query) != ""),
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

	search := policy.SearchOptions{Query: query}
	if s.cfg != nil {
		search.MatchRedactedSender = s.cfg.Feedback.SearchMatchesRedactedSender
	}
	views := policy.VisibleFeedback(viewer, items, users, search)
	span.SetAttributes(attribute.Int("feedback.visible", len(views)))
	return views, nil
}

// Get returns one report if viewer may see it. Invisible reports are reported
// as not found.
func (s *FeedbackService) Get(ctx context.Context, viewer models.User, id string) (result0 *models.FeedbackView, err error) {
	ctx, span := observability.TraceFeedbackFunction(ctx, "get", attribute.String("feedback.id", id))
	defer observability.FinishSpan(span, &err)

	f, err := s.feedback.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if !policy.CanSeeFeedback(viewer, *f) {
		return nil, contextutils.WrapErrorf(contextutils.ErrRecordNotFound, "report %s", id)
	}
	users, err := s.users.List(ctx)
	if err != nil {
		return nil, contextutils.WrapError(err, "failed to list users")
	}
	v := policy.Project(viewer, *f, policy.IndexUsers(users))
	return &v, nil
}

// transition loads id, applies fn and persists and audits the result when it changed anything.
func (s *FeedbackService) transition(ctx context.Context, actor models.User, id string, fn func(*models.Feedback) (policy.Transition, error)) (*models.Feedback, error) {
	f, err := s.feedback.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	t, err := fn(f)
	if err != nil {
		return nil, err
	}
	if !t.Changed {
		return f, nil
	}
	if err := s.feedback.Upsert(ctx, f); err != nil {
		return nil, contextutils.WrapError(err, "failed to save report")
	}
	s.metrics.RecordTransition(t.Action)
	s.record(ctx, actor, t.Action, t.Details)
	return f, nil
}

// Approve moves the report to Approved.
func (s *FeedbackService) Approve(ctx context.Context, actor models.User, id, notes string) (result0 *models.Feedback, err error) {
	ctx, span := observability.TraceFeedbackFunction(ctx, "approve", attribute.String("feedback.id", id))
	defer observability.FinishSpan(span, &err)

	return s.transition(ctx, actor, id, func(f *models.Feedback) (policy.Transition, error) {
		return policy.Approve(actor, f, notes)
	})
}

// Reject moves the report to Rejected with a required reason.
func (s *FeedbackService) Reject(ctx context.Context, actor models.User, id, reason string) (result0 *models.Feedback, err error) {
	ctx, span := observability.TraceFeedbackFunction(ctx, "reject", attribute.String("feedback.id", id))
	defer observability.FinishSpan(span, &err)

	return s.transition(ctx, actor, id, func(f *models.Feedback) (policy.Transition, error) {
		return policy.Reject(actor, f, reason)
	})
}

// SetStatus changes the resolution status of an approved report.
func (s *FeedbackService) SetStatus(ctx context.Context, actor models.User, id string, status models.ResolutionStatus) (result0 *models.Feedback, err error) {
	ctx, span := observability.TraceFeedbackFunction(ctx, "set_status",
		attribute.String("feedback.id", id),
		attribute.String("feedback.resolution_status", string(status)),
	)
	defer observability.FinishSpan(span, &err)

	return s.transition(ctx, actor, id, func(f *models.Feedback) (policy.Transition, error) {
		return policy.SetResolution(actor, f, status, s.now())
	})
}

// Analyze stores an AI summary of the report. AI failures store the fallback text.
func (s *FeedbackService) Analyze(ctx context.Context, actor models.User, id string) (result0 *models.Feedback, err error) {
	ctx, span := observability.TraceFeedbackFunction(ctx, "analyze", attribute.String("feedback.id", id))
	defer observability.FinishSpan(span, &err)

	if !actor.Role.IsManagerTier() {
		return nil, contextutils.WrapError(contextutils.ErrForbidden, "only managers can analyze reports")
	}
	f, err := s.feedback.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	analysis := FallbackAnalysis
	if s.ai != nil {
		analysis = s.ai.Analyze(ctx, reportText(f))
	}
	f.AIAnalysis = analysis
	if err := s.feedback.Upsert(ctx, f); err != nil {
		return nil, contextutils.WrapError(err, "failed to save analysis")
	}
	s.record(ctx, actor, models.ActionAnalyzeReport, "Generated AI analysis for report "+f.ID)
	return f, nil
}

func reportText(f *models.Feedback) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Process: %s\n", f.ProcessType)
	if f.ScenarioTag != models.ScenarioNone {
		fmt.Fprintf(&b, "Scenario: %s\n", f.ScenarioTag)
	}
	fmt.Fprintf(&b, "Priority: %s\n", f.Priority)
	if f.FaultDescription != "" {
		fmt.Fprintf(&b, "Fault: %s\n", f.FaultDescription)
	}
	fmt.Fprintf(&b, "Feedback: %s\n", f.FeedbackContent)
	if f.AdditionalNotes != "" {
		fmt.Fprintf(&b, "Notes: %s\n", f.AdditionalNotes)
	}
	return b.String()
}
