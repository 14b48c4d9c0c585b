// Package policy holds the role-scoped rules of the feedback service: who may
// see which report or audit entry, and which report state changes are allowed.
// Everything here is a pure function over snapshots already fetched from the
// stores.
package policy

import (
	"strings"

	"faultdesk/internal/models"
	contextutils "faultdesk/internal/utils"
)

// Display names used when a sender is hidden or a user id does not resolve.
const (
	AnonymousSender = "Anonymous"
	UnknownUser     = "Unknown"
)

// CanSeeFeedback reports whether viewer may see f at all. Manager-tier viewers
// see everything. A USER sees what they sent in any state and what they received
// once it is Approved.
func CanSeeFeedback(viewer models.User, f models.Feedback) bool {
	if viewer.Role.IsManagerTier() {
		return true
	}
	if f.FromUserID == viewer.ID {
		return true
	}
	return f.ToUserID == viewer.ID && f.ApprovalStatus == models.ApprovalApproved
}

// FilterFeedback returns the reports visible to viewer, preserving input order.
// The "mine" and "all" list views share this rule: manager-tier viewers get
// everything in both, and a USER gets their personal set in both.
func FilterFeedback(viewer models.User, items []models.Feedback) []models.Feedback {
	out := make([]models.Feedback, 0, len(items))
	for _, f := range items {
		if CanSeeFeedback(viewer, f) {
			out = append(out, f)
		}
	}
	return out
}

// SenderRedacted reports whether the sender must be hidden from viewer.
func SenderRedacted(viewer models.User, f models.Feedback) bool {
	return !viewer.Role.IsManagerTier() && f.FromUserID != viewer.ID
}

// ResolveName returns the display name for id, or UnknownUser.
func ResolveName(usersByID map[string]models.User, id string) string {
	if u, ok := usersByID[id]; ok {
		return u.DisplayName()
	}
	return UnknownUser
}

// Project builds the viewer-specific representation of f. Redaction replaces
// the sender name with AnonymousSender and clears FromUserID.
func Project(viewer models.User, f models.Feedback, usersByID map[string]models.User) models.FeedbackView {
	v := models.FeedbackView{
		Feedback:   f,
		ToUserName: ResolveName(usersByID, f.ToUserID),
	}
	if SenderRedacted(viewer, f) {
		v.FromUserName = AnonymousSender
		v.FromUserID = ""
		v.SenderRedacted = true
		return v
	}
	v.FromUserName = ResolveName(usersByID, f.FromUserID)
	return v
}

// SearchOptions controls free-text matching on the report list.
type SearchOptions struct {
	Query string
	// MatchRedactedSender lets redacted rows match on the true sender name.
	MatchRedactedSender bool
}

// Matches reports whether the projected report matches the query. trueSender is
// the unredacted sender name. An empty query matches everything.
func (o SearchOptions) Matches(v models.FeedbackView, trueSender string) bool {
	q := strings.ToLower(strings.TrimSpace(o.Query))
	if q == "" {
		return true
	}

	fields := []string{
		v.OrderNumber,
		v.CaseNumber,
		v.FaultDescription,
		v.FeedbackContent,
		v.ToUserName,
		v.FromUserName,
	}
	if v.SenderRedacted && o.MatchRedactedSender {
		fields = append(fields, trueSender)
	}

	for _, field := range fields {
		if strings.Contains(strings.ToLower(field), q) {
			return true
		}
	}
	return false
}

// VisibleFeedback filters, projects and searches in one pass.
func VisibleFeedback(viewer models.User, items []models.Feedback, users []models.User, search SearchOptions) []models.FeedbackView {
	usersByID := IndexUsers(users)
	out := make([]models.FeedbackView, 0, len(items))
	for _, f := range FilterFeedback(viewer, items) {
		pv := Project(viewer, f, usersByID)
		if !search.Matches(pv, ResolveName(usersByID, f.FromUserID)) {
			continue
		}
		out = append(out, pv)
	}
	return out
}

// IndexUsers maps users by id.
func IndexUsers(users []models.User) map[string]models.User {
	byID := make(map[string]models.User, len(users))
	for _, u := range users {
		byID[u.ID] = u
	}
	return byID
}

// CanViewAuditLogs reports whether the role has any audit log access.
func CanViewAuditLogs(role models.Role) bool {
	return role.IsManagerTier()
}

// FilterAuditLogs returns the entries visible to viewer. ADMIN sees every
// entry, MANAGER only entries written by USER actors, USER gets ErrForbidden.
func FilterAuditLogs(viewer models.User, logs []models.AuditLog) ([]models.AuditLog, error) {
	switch viewer.Role {
	case models.RoleAdmin:
		return logs, nil
	case models.RoleManager:
		out := make([]models.AuditLog, 0, len(logs))
		for _, l := range logs {
			if l.UserRole == models.RoleUser {
				out = append(out, l)
			}
		}
		return out, nil
	case models.RoleUser:
		return nil, contextutils.WrapError(contextutils.ErrForbidden, "audit log is not available to this role")
	}
	return nil, contextutils.WrapErrorf(contextutils.ErrForbidden, "unknown role %q", viewer.Role)
}
