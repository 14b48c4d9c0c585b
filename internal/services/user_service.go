package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"

	"faultdesk/internal/hierarchy"
	"faultdesk/internal/models"
	"faultdesk/internal/observability"
	"faultdesk/internal/store"
	contextutils "faultdesk/internal/utils"
)

// CreateUserRequest is the payload a manager uses to add an account directly
type CreateUserRequest struct {
	Username  string      `json:"username" binding:"required"`
	Name      string      `json:"name" binding:"required"`
	Password  string      `json:"password" binding:"required"`
	Role      models.Role `json:"role"`
	ManagerID *string     `json:"managerId,omitempty"`
}

// HierarchyView is the org view returned for a viewer. Exactly one field is set.
type HierarchyView struct {
	Forest *hierarchy.Forest `json:"forest,omitempty"`
	Team   *hierarchy.Team   `json:"team,omitempty"`
}

// DeleteResult reports what a cascading user deletion removed.
type DeleteResult struct {
	FeedbackDeleted int64    `json:"feedbackDeleted"`
	Failures        []string `json:"failures,omitempty"`
}

// UserServiceInterface defines user management operations
type UserServiceInterface interface {
	List(ctx context.Context, viewer models.User) ([]models.User, error)
	Get(ctx context.Context, id string) (*models.User, error)
	Create(ctx context.Context, actor models.User, req CreateUserRequest) (*models.User, error)
	Approve(ctx context.Context, actor models.User, id string) (*models.User, error)
	SetRole(ctx context.Context, actor models.User, id string, role models.Role) (*models.User, error)
	AssignManager(ctx context.Context, actor models.User, id string, managerID *string) (*models.User, error)
	Delete(ctx context.Context, actor models.User, id string) (*DeleteResult, error)
	Hierarchy(ctx context.Context, viewer models.User) (*HierarchyView, error)
}

// UserService provides methods for user management.
type UserService struct {
	stores *store.Stores
	auth   *AuthService
	audit  AuditServiceInterface
	logger *observability.Logger
	now    func() time.Time
}

// NewUserService creates a new UserService instance.
func NewUserService(stores *store.Stores, auth *AuthService, audit AuditServiceInterface, logger *observability.Logger) *UserService {
	if stores == nil || stores.Users == nil {
		panic("NewUserService: user store is nil")
	}
	if logger == nil {
		panic("NewUserService: logger is nil")
	}
	return &UserService{stores: stores, auth: auth, audit: audit, logger: logger, now: time.Now}
}

func (s *UserService) record(ctx context.Context, actor models.User, action, details string) {
	if s.audit != nil {
		s.audit.Record(ctx, actor, action, details)
	}
}

// List returns the user directory as viewer may see it. Manager-tier viewers
// get every account. Everyone else gets approved accounts only, stripped of
// role, manager and approval fields so reporting lines cannot be rebuilt.
func (s *UserService) List(ctx context.Context, viewer models.User) (result0 []models.User, err error) {
	ctx, span := observability.TraceUserFunction(ctx, "list_users",
		attribute.String("viewer.role", viewer.Role.String()),
	)
	defer observability.FinishSpan(span, &err)

	users, err := s.stores.Users.List(ctx)
	if err != nil {
		return nil, contextutils.WrapError(err, "failed to list users")
	}
	if !viewer.Role.IsManagerTier() {
		visible := make([]models.User, 0, len(users))
		for _, u := range users {
			if !u.IsApproved {
				continue
			}
			visible = append(visible, models.User{ID: u.ID, Username: u.Username, Name: u.Name})
		}
		users = visible
	}
	span.SetAttributes(attribute.Int("users.count", len(users)))
	return users, nil
}

// Get returns the user with id.
func (s *UserService) Get(ctx context.Context, id string) (result0 *models.User, err error) {
	ctx, span := observability.TraceUserFunction(ctx, "get_user", attribute.String("user.id", id))
	defer observability.FinishSpan(span, &err)

	return s.stores.Users.Get(ctx, id)
}

// Create adds an approved account. Only ADMIN may create another ADMIN.
func (s *UserService) Create(ctx context.Context, actor models.User, req CreateUserRequest) (result0 *models.User, err error) {
	username := contextutils.NormalizeUsername(req.Username)
	ctx, span := observability.TraceUserFunction(ctx, "create_user",
		attribute.String("user.username", username),
		attribute.String("actor.id", actor.ID),
	)
	defer observability.FinishSpan(span, &err)

	if !actor.Role.IsManagerTier() {
		return nil, contextutils.WrapError(contextutils.ErrForbidden, "only managers can create users")
	}
	role := req.Role
	if role == "" {
		role = models.RoleUser
	}
	if !role.Valid() {
		return nil, contextutils.WrapErrorf(contextutils.ErrInvalidInput, "unknown role %q", req.Role)
	}
	if role == models.RoleAdmin && actor.Role != models.RoleAdmin {
		return nil, contextutils.WrapError(contextutils.ErrForbidden, "only admins can create admin accounts")
	}
	if !contextutils.IsValidUsername(username) {
		return nil, contextutils.WrapError(contextutils.ErrInvalidInput, "username must be 3-32 letters, digits, dots, underscores or dashes")
	}
	if contextutils.IsBlank(req.Name) {
		return nil, contextutils.WrapError(contextutils.ErrMissingRequired, "name is required")
	}
	if err := s.auth.ensureUsernameFree(ctx, username); err != nil {
		return nil, err
	}

	managerID, err := s.resolveManager(ctx, "", req.ManagerID)
	if err != nil {
		return nil, err
	}

	hash, err := s.auth.HashPassword(req.Password)
	if err != nil {
		return nil, err
	}

	now := s.now().UTC()
	user := &models.User{
		ID:           uuid.NewString(),
		Username:     username,
		Name:         strings.TrimSpace(req.Name),
		Role:         role,
		ManagerID:    managerID,
		IsApproved:   true,
		PasswordHash: hash,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.stores.Users.Upsert(ctx, user); err != nil {
		return nil, contextutils.WrapError(err, "failed to create user")
	}

	s.record(ctx, actor, models.ActionCreateUser, fmt.Sprintf("Created %s account %s", role, username))
	return user, nil
}

// Approve marks a pending signup as approved. Approving an approved user is a no-op.
func (s *UserService) Approve(ctx context.Context, actor models.User, id string) (result0 *models.User, err error) {
	ctx, span := observability.TraceUserFunction(ctx, "approve_user", attribute.String("user.id", id))
	defer observability.FinishSpan(span, &err)

	if !actor.Role.IsManagerTier() {
		return nil, contextutils.WrapError(contextutils.ErrForbidden, "only managers can approve accounts")
	}
	user, err := s.stores.Users.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if user.IsApproved {
		return user, nil
	}

	user.IsApproved = true
	user.UpdatedAt = s.now().UTC()
	if err := s.stores.Users.Upsert(ctx, user); err != nil {
		return nil, contextutils.WrapError(err, "failed to approve user")
	}
	s.record(ctx, actor, models.ActionApproveUser, "Approved account "+user.Username)
	return user, nil
}

// SetRole changes the role of id. Only ADMIN actors may change roles and an
// admin cannot demote themselves.
func (s *UserService) SetRole(ctx context.Context, actor models.User, id string, role models.Role) (result0 *models.User, err error) {
	ctx, span := observability.TraceUserFunction(ctx, "set_role",
		attribute.String("user.id", id),
		attribute.String("user.role", role.String()),
	)
	defer observability.FinishSpan(span, &err)

	if actor.Role != models.RoleAdmin {
		return nil, contextutils.WrapError(contextutils.ErrForbidden, "only admins can change roles")
	}
	if !role.Valid() {
		return nil, contextutils.WrapErrorf(contextutils.ErrInvalidInput, "unknown role %q", role)
	}
	if actor.ID == id && role != models.RoleAdmin {
		return nil, contextutils.WrapError(contextutils.ErrInvalidInput, "admins cannot demote themselves")
	}

	user, err := s.stores.Users.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if user.Role == role {
		return user, nil
	}

	from := user.Role
	user.Role = role
	user.UpdatedAt = s.now().UTC()
	if err := s.stores.Users.Upsert(ctx, user); err != nil {
		return nil, contextutils.WrapError(err, "failed to update role")
	}
	s.record(ctx, actor, models.ActionUpdateUserRole, fmt.Sprintf("Changed role of %s from %s to %s", user.Username, from, role))
	return user, nil
}

// AssignManager sets or, with a nil or empty managerID, clears the manager of id.
func (s *UserService) AssignManager(ctx context.Context, actor models.User, id string, managerID *string) (result0 *models.User, err error) {
	ctx, span := observability.TraceUserFunction(ctx, "assign_manager", attribute.String("user.id", id))
	defer observability.FinishSpan(span, &err)

	if !actor.Role.IsManagerTier() {
		return nil, contextutils.WrapError(contextutils.ErrForbidden, "only managers can assign managers")
	}
	user, err := s.stores.Users.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	resolved, err := s.resolveManager(ctx, id, managerID)
	if err != nil {
		return nil, err
	}
	if user.ManagerRef() == derefString(resolved) {
		return user, nil
	}

	user.ManagerID = resolved
	user.UpdatedAt = s.now().UTC()
	if err := s.stores.Users.Upsert(ctx, user); err != nil {
		return nil, contextutils.WrapError(err, "failed to assign manager")
	}

	details := "Cleared manager of " + user.Username
	if resolved != nil {
		details = fmt.Sprintf("Assigned manager %s to %s", *resolved, user.Username)
	}
	s.record(ctx, actor, models.ActionAssignManager, details)
	return user, nil
}

// resolveManager validates a manager reference for userID. Blank means none.
func (s *UserService) resolveManager(ctx context.Context, userID string, managerID *string) (*string, error) {
	if managerID == nil || strings.TrimSpace(*managerID) == "" {
		return nil, nil
	}
	id := strings.TrimSpace(*managerID)
	if id == userID {
		return nil, contextutils.WrapError(contextutils.ErrInvalidInput, "a user cannot manage themselves")
	}
	if _, err := s.stores.Users.Get(ctx, id); err != nil {
		if store.IsNotFound(err) {
			return nil, contextutils.WrapErrorf(contextutils.ErrInvalidInput, "manager %s does not exist", id)
		}
		return nil, err
	}
	return &id, nil
}

// Delete removes id together with its reports, audit entries and notes. Each
// cascade step is independent; failed steps are logged and reported in the
// result, and the user record is deleted last.
func (s *UserService) Delete(ctx context.Context, actor models.User, id string) (result0 *DeleteResult, err error) {
	ctx, span := observability.TraceUserFunction(ctx, "delete_user",
		attribute.String("user.id", id),
		attribute.String("actor.id", actor.ID),
	)
	defer observability.FinishSpan(span, &err)

	if !actor.Role.IsManagerTier() {
		return nil, contextutils.WrapError(contextutils.ErrForbidden, "only managers can delete users")
	}
	if actor.ID == id {
		return nil, contextutils.WrapError(contextutils.ErrInvalidInput, "you cannot delete your own account")
	}

	user, err := s.stores.Users.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if user.Role == models.RoleAdmin && actor.Role != models.RoleAdmin {
		return nil, contextutils.WrapError(contextutils.ErrForbidden, "only admins can delete admin accounts")
	}

	result := &DeleteResult{}
	warn := func(step string, stepErr error) {
		result.Failures = append(result.Failures, step)
		s.logger.Warn(ctx, "Cascading delete step failed; dependent records may be orphaned", map[string]interface{}{
			"user_id": id,
			"step":    step,
			"error":   stepErr.Error(),
		})
	}

	if s.stores.Feedback != nil {
		n, ferr := s.stores.Feedback.DeleteByUser(ctx, id)
		if ferr != nil {
			warn("feedback", ferr)
		}
		result.FeedbackDeleted = n
	}
	if s.stores.AuditLogs != nil {
		if aerr := s.stores.AuditLogs.DeleteByUser(ctx, id); aerr != nil {
			warn("audit_logs", aerr)
		}
	}
	if s.stores.Notes != nil {
		if nerr := s.stores.Notes.DeleteByUser(ctx, id); nerr != nil {
			warn("notes", nerr)
		}
	}

	if err := s.stores.Users.Delete(ctx, id); err != nil {
		return nil, contextutils.WrapError(err, "failed to delete user")
	}

	span.SetAttributes(
		attribute.Int64("feedback.deleted", result.FeedbackDeleted),
		attribute.Int("cascade.failures", len(result.Failures)),
	)
	s.record(ctx, actor, models.ActionDeleteUser, fmt.Sprintf("Deleted user %s and %d related reports", user.Username, result.FeedbackDeleted))
	return result, nil
}

// Hierarchy returns the full forest for manager-tier viewers and the team view otherwise.
func (s *UserService) Hierarchy(ctx context.Context, viewer models.User) (result0 *HierarchyView, err error) {
	ctx, span := observability.TraceUserFunction(ctx, "hierarchy", attribute.String("viewer.role", viewer.Role.String()))
	defer observability.FinishSpan(span, &err)

	users, err := s.stores.Users.List(ctx)
	if err != nil {
		return nil, contextutils.WrapError(err, "failed to list users")
	}

	if viewer.Role.IsManagerTier() {
		forest := hierarchy.Build(users)
		span.SetAttributes(attribute.Int("hierarchy.roots", len(forest.Roots)))
		return &HierarchyView{Forest: &forest}, nil
	}
	team := hierarchy.TeamOf(viewer, users)
	return &HierarchyView{Team: &team}, nil
}

func derefString(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
