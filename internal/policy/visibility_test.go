package policy

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"faultdesk/internal/models"
	contextutils "faultdesk/internal/utils"
)

var (
	bob   = models.User{ID: "u-bob", Username: "bob", Name: "Bob", Role: models.RoleUser, IsApproved: true}
	alice = models.User{ID: "u-alice", Username: "alice", Name: "Alice", Role: models.RoleUser, IsApproved: true}
	carol = models.User{ID: "u-carol", Username: "carol", Name: "Carol", Role: models.RoleUser, IsApproved: true}
	mgr   = models.User{ID: "u-mgr", Username: "mgr", Name: "Mgr", Role: models.RoleManager, IsApproved: true}
	admin = models.User{ID: "u-admin", Username: "admin", Name: "Admin", Role: models.RoleAdmin, IsApproved: true}
)

func report(id, from, to string, status models.ApprovalStatus) models.Feedback {
	return models.Feedback{
		ID:               id,
		FromUserID:       from,
		ToUserID:         to,
		ApprovalStatus:   status,
		ResolutionStatus: models.ResolutionOpen,
		ProcessType:      models.ProcessBehavior,
	}
}

func ids(items []models.Feedback) []string {
	out := make([]string, 0, len(items))
	for _, f := range items {
		out = append(out, f.ID)
	}
	return out
}

func TestCanSeeFeedback_ReceiverNeedsApproval(t *testing.T) {
	for _, status := range []models.ApprovalStatus{models.ApprovalPending, models.ApprovalRejected} {
		f := report("f-1", bob.ID, alice.ID, status)
		assert.False(t, CanSeeFeedback(alice, f), "receiver must not see %s report", status)
		assert.True(t, CanSeeFeedback(bob, f), "sender sees own %s report", status)
	}
	assert.True(t, CanSeeFeedback(alice, report("f-2", bob.ID, alice.ID, models.ApprovalApproved)))
}

func TestCanSeeFeedback_UnrelatedUserNeverSees(t *testing.T) {
	for _, status := range []models.ApprovalStatus{models.ApprovalPending, models.ApprovalApproved, models.ApprovalRejected} {
		assert.False(t, CanSeeFeedback(carol, report("f", bob.ID, alice.ID, status)))
	}
}

func TestFilterFeedback_ByRole(t *testing.T) {
	items := []models.Feedback{
		report("f-1", bob.ID, alice.ID, models.ApprovalPending),
		report("f-2", bob.ID, alice.ID, models.ApprovalApproved),
		report("f-3", alice.ID, carol.ID, models.ApprovalRejected),
		report("f-4", carol.ID, bob.ID, models.ApprovalPending),
	}

	tests := []struct {
		name   string
		viewer models.User
		want   []string
	}{
		{"admin sees all", admin, []string{"f-1", "f-2", "f-3", "f-4"}},
		{"manager sees all", mgr, []string{"f-1", "f-2", "f-3", "f-4"}},
		{"alice sees sent and approved received", alice, []string{"f-2", "f-3"}},
		{"bob sees only sent", bob, []string{"f-1", "f-2"}},
		{"carol sees only sent", carol, []string{"f-4"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ids(FilterFeedback(tt.viewer, items)))
		})
	}
}

func TestProject_SenderRedaction(t *testing.T) {
	users := IndexUsers([]models.User{bob, alice, mgr})
	f := report("f-1", bob.ID, alice.ID, models.ApprovalApproved)

	receiverView := Project(alice, f, users)
	assert.Equal(t, AnonymousSender, receiverView.FromUserName)
	assert.Empty(t, receiverView.FromUserID, "sender id must not leak")
	assert.True(t, receiverView.SenderRedacted)
	assert.Equal(t, "Alice", receiverView.ToUserName)

	senderView := Project(bob, f, users)
	assert.Equal(t, "Bob", senderView.FromUserName)
	assert.False(t, senderView.SenderRedacted)

	managerView := Project(mgr, f, users)
	assert.Equal(t, "Bob", managerView.FromUserName)
	assert.Equal(t, bob.ID, managerView.FromUserID)
}

func TestProject_SelfReportIsNotRedacted(t *testing.T) {
	users := IndexUsers([]models.User{alice})
	v := Project(alice, report("f", alice.ID, alice.ID, models.ApprovalApproved), users)
	assert.Equal(t, "Alice", v.FromUserName)
}

func TestProject_UnknownUsers(t *testing.T) {
	v := Project(mgr, report("f", "ghost-1", "ghost-2", models.ApprovalPending), IndexUsers(nil))
	assert.Equal(t, UnknownUser, v.FromUserName)
	assert.Equal(t, UnknownUser, v.ToUserName)
}

func TestVisibleFeedback_SearchAndRedactedSender(t *testing.T) {
	users := []models.User{bob, alice}
	f := report("f-1", bob.ID, alice.ID, models.ApprovalApproved)
	f.OrderNumber = "ORD-991"
	items := []models.Feedback{f}

	t.Run("redacted rows do not match the true sender by default", func(t *testing.T) {
		got := VisibleFeedback(alice, items, users, SearchOptions{Query: "bob"})
		assert.Empty(t, got)
	})

	t.Run("redacted rows match the true sender when enabled", func(t *testing.T) {
		got := VisibleFeedback(alice, items, users, SearchOptions{Query: "bob", MatchRedactedSender: true})
		require.Len(t, got, 1)
		assert.Equal(t, AnonymousSender, got[0].FromUserName, "display stays anonymous")
	})

	t.Run("anonymous matches redacted rows", func(t *testing.T) {
		assert.Len(t, VisibleFeedback(alice, items, users, SearchOptions{Query: "anonym"}), 1)
	})

	t.Run("order number match is case insensitive", func(t *testing.T) {
		assert.Len(t, VisibleFeedback(mgr, items, users, SearchOptions{Query: "ord-99"}), 1)
	})

	t.Run("empty query returns everything visible", func(t *testing.T) {
		assert.Len(t, VisibleFeedback(mgr, items, users, SearchOptions{}), 1)
	})
}

func TestFilterAuditLogs(t *testing.T) {
	logs := []models.AuditLog{
		{ID: "l-1", UserRole: models.RoleUser},
		{ID: "l-2", UserRole: models.RoleManager},
		{ID: "l-3", UserRole: models.RoleAdmin},
		{ID: "l-4", UserRole: models.RoleUser},
	}

	all, err := FilterAuditLogs(admin, logs)
	require.NoError(t, err)
	assert.Len(t, all, 4)

	managerLogs, err := FilterAuditLogs(mgr, logs)
	require.NoError(t, err)
	require.Len(t, managerLogs, 2)
	for _, l := range managerLogs {
		assert.Equal(t, models.RoleUser, l.UserRole)
	}

	_, err = FilterAuditLogs(bob, logs)
	require.Error(t, err)
	assert.Equal(t, contextutils.ErrorCodeForbidden, contextutils.GetErrorCode(err))

	assert.False(t, CanViewAuditLogs(models.RoleUser))
	assert.True(t, CanViewAuditLogs(models.RoleManager))
}
