package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"faultdesk/internal/config"
	"faultdesk/internal/models"
	contextutils "faultdesk/internal/utils"
)

func TestAuthService_SignupThenApprovalGatesLogin(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	mgr := f.seedUser(t, "mgr", models.RoleManager, nil)

	user, err := f.auth.Signup(ctx, SignupRequest{Username: "  Dana ", Name: "Dana Scully", Password: "trustno1"})
	require.NoError(t, err)
	assert.Equal(t, "dana", user.Username)
	assert.Equal(t, models.RoleUser, user.Role)
	assert.False(t, user.IsApproved)
	assert.NotEqual(t, "trustno1", user.PasswordHash)

	_, err = f.auth.Login(ctx, "dana", "trustno1")
	assert.Equal(t, contextutils.ErrorCodeAccountPending, contextutils.GetErrorCode(err))

	_, err = f.users.Approve(ctx, mgr, user.ID)
	require.NoError(t, err)

	got, err := f.auth.Login(ctx, "DANA", "trustno1")
	require.NoError(t, err)
	assert.Equal(t, user.ID, got.ID)

	actions := f.auditActions(t)
	assert.Equal(t, 1, countAction(actions, models.ActionSignup))
	assert.Equal(t, 1, countAction(actions, models.ActionApproveUser))
	assert.Equal(t, 1, countAction(actions, models.ActionLogin))
}

func TestAuthService_LoginFailuresLookAlike(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.seedUser(t, "bob", models.RoleUser, nil)

	_, err := f.auth.Login(ctx, "bob", "wrong")
	assert.Equal(t, contextutils.ErrorCodeInvalidCredentials, contextutils.GetErrorCode(err))

	_, err = f.auth.Login(ctx, "nobody", "password")
	assert.Equal(t, contextutils.ErrorCodeInvalidCredentials, contextutils.GetErrorCode(err))

	_, err = f.auth.Login(ctx, "", "")
	assert.Equal(t, contextutils.ErrorCodeInvalidCredentials, contextutils.GetErrorCode(err))

	assert.Empty(t, f.auditActions(t))
}

func TestAuthService_SignupRejectsDuplicatesAndBadInput(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.seedUser(t, "bob", models.RoleUser, nil)

	_, err := f.auth.Signup(ctx, SignupRequest{Username: "Bob", Name: "Other Bob", Password: "secret1"})
	assert.Equal(t, contextutils.ErrorCodeRecordExists, contextutils.GetErrorCode(err))

	_, err = f.auth.Signup(ctx, SignupRequest{Username: "x", Name: "X", Password: "secret1"})
	assert.Equal(t, contextutils.ErrorCodeInvalidInput, contextutils.GetErrorCode(err))

	_, err = f.auth.Signup(ctx, SignupRequest{Username: "shorty", Name: "S", Password: "123"})
	assert.Equal(t, contextutils.ErrorCodeInvalidInput, contextutils.GetErrorCode(err))

	_, err = f.auth.Signup(ctx, SignupRequest{Username: "noname", Name: "  ", Password: "secret1"})
	assert.Equal(t, contextutils.ErrorCodeMissingRequired, contextutils.GetErrorCode(err))

	users, err := f.stores.Users.List(ctx)
	require.NoError(t, err)
	assert.Len(t, users, 1, "nothing was created")
}

func TestAuthService_SignupsDisabled(t *testing.T) {
	f := newFixture(t)
	f.cfg.System.Auth.SignupsDisabled = true

	_, err := f.auth.Signup(context.Background(), SignupRequest{Username: "dana", Name: "Dana", Password: "trustno1"})
	assert.ErrorIs(t, err, contextutils.ErrSignupsDisabled)
}

func TestAuthService_EnsureAdminUserExists(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	require.NoError(t, f.auth.EnsureAdminUserExists(ctx, "Admin", "adminpass"))
	require.NoError(t, f.auth.EnsureAdminUserExists(ctx, "admin", "different"))

	users, err := f.stores.Users.List(ctx)
	require.NoError(t, err)
	require.Len(t, users, 1)
	assert.Equal(t, models.RoleAdmin, users[0].Role)
	assert.True(t, users[0].IsApproved)

	_, err = f.auth.Login(ctx, "admin", "adminpass")
	assert.NoError(t, err)
}

func TestAuthService_ResetPasswordAndCurrentUser(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	bob := f.seedUser(t, "bob", models.RoleUser, nil)

	require.NoError(t, f.auth.ResetPassword(ctx, bob.ID, "newpassword"))
	_, err := f.auth.Login(ctx, "bob", "password")
	assert.Error(t, err)
	_, err = f.auth.Login(ctx, "bob", "newpassword")
	assert.NoError(t, err)

	current, err := f.auth.CurrentUser(ctx, bob.ID)
	require.NoError(t, err)
	assert.Equal(t, "bob", current.Username)

	_, err = f.auth.CurrentUser(ctx, "gone")
	assert.Equal(t, contextutils.ErrorCodeUnauthorized, contextutils.GetErrorCode(err))
}

func TestAuthService_BcryptCostFromConfig(t *testing.T) {
	f := newFixture(t)
	assert.Equal(t, 4, f.auth.bcryptCost())

	f.auth.cfg = &config.Config{}
	assert.Equal(t, 10, f.auth.bcryptCost())
}
