package services

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"golang.org/x/crypto/bcrypt"

	"faultdesk/internal/config"
	"faultdesk/internal/models"
	"faultdesk/internal/observability"
	"faultdesk/internal/store"
	contextutils "faultdesk/internal/utils"
)

// MinPasswordLength is the shortest password accepted at signup or reset
const MinPasswordLength = 6

// SignupRequest is the self-service registration payload
type SignupRequest struct {
	Username string `json:"username" binding:"required"`
	Name     string `json:"name" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// AuthServiceInterface defines credential operations
type AuthServiceInterface interface {
	Login(ctx context.Context, username, password string) (*models.User, error)
	Signup(ctx context.Context, req SignupRequest) (*models.User, error)
	CurrentUser(ctx context.Context, userID string) (*models.User, error)
}

// AuthService checks credentials against the user store.
type AuthService struct {
	users  store.UserStore
	audit  AuditServiceInterface
	cfg    *config.Config
	logger *observability.Logger
	now    func() time.Time
}

// NewAuthService creates a new AuthService instance.
func NewAuthService(users store.UserStore, audit AuditServiceInterface, cfg *config.Config, logger *observability.Logger) *AuthService {
	if users == nil {
		panic("NewAuthService: user store is nil")
	}
	if logger == nil {
		panic("NewAuthService: logger is nil")
	}
	return &AuthService{users: users, audit: audit, cfg: cfg, logger: logger, now: time.Now}
}

func (s *AuthService) bcryptCost() int {
	if s.cfg != nil && s.cfg.System != nil && s.cfg.System.Auth.BcryptCost >= bcrypt.MinCost {
		return s.cfg.System.Auth.BcryptCost
	}
	return bcrypt.DefaultCost
}

// HashPassword returns the bcrypt hash of password.
func (s *AuthService) HashPassword(password string) (string, error) {
	if len(password) < MinPasswordLength {
		return "", contextutils.WrapErrorf(contextutils.ErrInvalidInput, "password must be at least %d characters", MinPasswordLength)
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.bcryptCost())
	if err != nil {
		return "", contextutils.WrapError(err, "failed to hash password")
	}
	return string(hash), nil
}

// Login returns the user whose credentials match. Unknown users and wrong
// passwords get the same error; unapproved users get ErrAccountPending.
func (s *AuthService) Login(ctx context.Context, username, password string) (result0 *models.User, err error) {
	username = contextutils.NormalizeUsername(username)
	ctx, span := observability.TraceUserFunction(ctx, "login", attribute.String("user.username", username))
	defer observability.FinishSpan(span, &err)

	if username == "" || password == "" {
		return nil, contextutils.WrapError(contextutils.ErrInvalidCredentials, "username and password are required")
	}

	user, err := s.users.GetByUsername(ctx, username)
	if err != nil {
		if store.IsNotFound(err) {
			return nil, contextutils.WrapError(contextutils.ErrInvalidCredentials, "invalid username or password")
		}
		return nil, contextutils.WrapError(err, "failed to look up user")
	}

	if user.PasswordHash == "" || bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)) != nil {
		s.logger.Info(ctx, "Login rejected", map[string]interface{}{"username": username})
		return nil, contextutils.WrapError(contextutils.ErrInvalidCredentials, "invalid username or password")
	}

	if !user.IsApproved {
		return nil, contextutils.WrapError(contextutils.ErrAccountPending, "your account is awaiting manager approval")
	}

	span.SetAttributes(attribute.String("user.id", user.ID), attribute.String("user.role", user.Role.String()))
	if s.audit != nil {
		s.audit.Record(ctx, *user, models.ActionLogin, "User logged in")
	}
	return user, nil
}

// Signup registers a USER account that stays unapproved until a manager approves it.
func (s *AuthService) Signup(ctx context.Context, req SignupRequest) (result0 *models.User, err error) {
	username := contextutils.NormalizeUsername(req.Username)
	ctx, span := observability.TraceUserFunction(ctx, "signup", attribute.String("user.username", username))
	defer observability.FinishSpan(span, &err)

	if s.cfg != nil && s.cfg.IsSignupDisabled() {
		return nil, contextutils.ErrSignupsDisabled
	}
	if !contextutils.IsValidUsername(username) {
		return nil, contextutils.WrapError(contextutils.ErrInvalidInput, "username must be 3-32 letters, digits, dots, underscores or dashes")
	}
	if contextutils.IsBlank(req.Name) {
		return nil, contextutils.WrapError(contextutils.ErrMissingRequired, "name is required")
	}

	if err := s.ensureUsernameFree(ctx, username); err != nil {
		return nil, err
	}

	hash, err := s.HashPassword(req.Password)
	if err != nil {
		return nil, err
	}

	now := s.now().UTC()
	user := &models.User{
		ID:           uuid.NewString(),
		Username:     username,
		Name:         strings.TrimSpace(req.Name),
		Role:         models.RoleUser,
		IsApproved:   false,
		PasswordHash: hash,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.users.Upsert(ctx, user); err != nil {
		return nil, contextutils.WrapError(err, "failed to create user")
	}

	s.logger.Info(ctx, "User signed up", map[string]interface{}{"user_id": user.ID, "username": username})
	if s.audit != nil {
		s.audit.Record(ctx, *user, models.ActionSignup, "New account pending approval: "+username)
	}
	return user, nil
}

// CurrentUser reloads the session user so role and approval changes apply immediately.
func (s *AuthService) CurrentUser(ctx context.Context, userID string) (result0 *models.User, err error) {
	ctx, span := observability.TraceUserFunction(ctx, "current_user", attribute.String("user.id", userID))
	defer observability.FinishSpan(span, &err)

	user, err := s.users.Get(ctx, userID)
	if err != nil {
		if store.IsNotFound(err) {
			return nil, contextutils.WrapError(contextutils.ErrUnauthorized, "session user no longer exists")
		}
		return nil, err
	}
	if !user.IsApproved {
		return nil, contextutils.WrapError(contextutils.ErrAccountPending, "your account is awaiting manager approval")
	}
	return user, nil
}

// ResetPassword replaces the stored credential of userID.
func (s *AuthService) ResetPassword(ctx context.Context, userID, password string) (err error) {
	ctx, span := observability.TraceUserFunction(ctx, "reset_password", attribute.String("user.id", userID))
	defer observability.FinishSpan(span, &err)

	user, err := s.users.Get(ctx, userID)
	if err != nil {
		return err
	}
	hash, err := s.HashPassword(password)
	if err != nil {
		return err
	}
	user.PasswordHash = hash
	user.UpdatedAt = s.now().UTC()
	return s.users.Upsert(ctx, user)
}

// EnsureAdminUserExists creates an approved ADMIN account when username is not taken yet.
func (s *AuthService) EnsureAdminUserExists(ctx context.Context, username, password string) (err error) {
	username = contextutils.NormalizeUsername(username)
	ctx, span := observability.TraceUserFunction(ctx, "ensure_admin_user_exists", attribute.String("user.username", username))
	defer observability.FinishSpan(span, &err)

	if username == "" || password == "" {
		return nil
	}

	_, err = s.users.GetByUsername(ctx, username)
	if err == nil {
		return nil
	}
	if !store.IsNotFound(err) {
		return contextutils.WrapError(err, "failed to look up admin user")
	}

	hash, err := s.HashPassword(password)
	if err != nil {
		return err
	}
	now := s.now().UTC()
	admin := &models.User{
		ID:           uuid.NewString(),
		Username:     username,
		Name:         username,
		Role:         models.RoleAdmin,
		IsApproved:   true,
		PasswordHash: hash,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err = s.users.Upsert(ctx, admin); err != nil {
		return contextutils.WrapError(err, "failed to create admin user")
	}
	s.logger.Info(ctx, "Created admin user", map[string]interface{}{"username": username})
	return nil
}

func (s *AuthService) ensureUsernameFree(ctx context.Context, username string) error {
	_, err := s.users.GetByUsername(ctx, username)
	switch {
	case err == nil:
		return contextutils.WrapErrorf(contextutils.ErrRecordExists, "username %q is already taken", username)
	case store.IsNotFound(err):
		return nil
	default:
		return contextutils.WrapError(err, "failed to check username")
	}
}
