package policy

import (
	"fmt"
	"strings"
	"time"

	openapi_types "github.com/oapi-codegen/runtime/types"

	"faultdesk/internal/models"
	contextutils "faultdesk/internal/utils"
)

// Transition describes the outcome of a workflow command. When Changed is false
// the command was a no-op and nothing must be written or audited.
type Transition struct {
	Changed bool
	Action  string
	Details string
}

var resolutionEdges = map[models.ResolutionStatus][]models.ResolutionStatus{
	models.ResolutionOpen:       {models.ResolutionInProgress, models.ResolutionClosed},
	models.ResolutionInProgress: {models.ResolutionClosed},
	models.ResolutionClosed:     {models.ResolutionInProgress},
}

func requireManagerTier(actor models.User, what string) error {
	if actor.Role.IsManagerTier() {
		return nil
	}
	return contextutils.WrapErrorf(contextutils.ErrForbidden, "only managers can %s", what)
}

// Approve moves f to Approved. notes, when non-blank, replace ManagerNotes.
// Blank notes on a previously Rejected report clear the rejection reason.
// Approving an Approved report changes nothing.
func Approve(actor models.User, f *models.Feedback, notes string) (Transition, error) {
	if err := requireManagerTier(actor, "approve reports"); err != nil {
		return Transition{}, err
	}
	switch f.ApprovalStatus {
	case models.ApprovalApproved:
		return Transition{}, nil
	case models.ApprovalPending, models.ApprovalRejected:
	default:
		return Transition{}, contextutils.WrapErrorf(contextutils.ErrInvalidTransition, "unknown approval status %q", f.ApprovalStatus)
	}

	from := f.ApprovalStatus
	f.ApprovalStatus = models.ApprovalApproved
	if n := strings.TrimSpace(notes); n != "" {
		f.ManagerNotes = n
	} else if from == models.ApprovalRejected {
		f.ManagerNotes = ""
	}

	details := fmt.Sprintf("Approved report %s (was %s)", f.ID, from)
	if f.ManagerNotes != "" {
		details += ": " + f.ManagerNotes
	}
	return Transition{Changed: true, Action: models.ActionApproveReport, Details: details}, nil
}

// Reject moves f to Rejected. A non-blank reason is required and is stored as
// ManagerNotes. Rejecting a Rejected report changes nothing, reason or not.
func Reject(actor models.User, f *models.Feedback, reason string) (Transition, error) {
	if err := requireManagerTier(actor, "reject reports"); err != nil {
		return Transition{}, err
	}
	switch f.ApprovalStatus {
	case models.ApprovalRejected:
		return Transition{}, nil
	case models.ApprovalPending, models.ApprovalApproved:
	default:
		return Transition{}, contextutils.WrapErrorf(contextutils.ErrInvalidTransition, "unknown approval status %q", f.ApprovalStatus)
	}
	reason = strings.TrimSpace(reason)
	if reason == "" {
		return Transition{}, contextutils.WrapError(contextutils.ErrMissingRequired, "a rejection reason is required")
	}

	from := f.ApprovalStatus
	f.ApprovalStatus = models.ApprovalRejected
	f.ManagerNotes = reason
	return Transition{
		Changed: true,
		Action:  models.ActionRejectReport,
		Details: fmt.Sprintf("Rejected report %s (was %s): %s", f.ID, from, reason),
	}, nil
}

// CanChangeResolution reports whether from -> to is an allowed resolution edge.
func CanChangeResolution(from, to models.ResolutionStatus) bool {
	for _, next := range resolutionEdges[from] {
		if next == to {
			return true
		}
	}
	return false
}

// SetResolution changes the resolution status of an Approved report. Closing
// stamps ResolutionDate with now; moving back to In Progress clears it.
func SetResolution(actor models.User, f *models.Feedback, to models.ResolutionStatus, now time.Time) (Transition, error) {
	if err := requireManagerTier(actor, "change report status"); err != nil {
		return Transition{}, err
	}
	if !to.Valid() {
		return Transition{}, contextutils.WrapErrorf(contextutils.ErrInvalidInput, "unknown resolution status %q", to)
	}
	if f.ApprovalStatus != models.ApprovalApproved {
		return Transition{}, contextutils.WrapErrorf(contextutils.ErrInvalidTransition,
			"report %s is %s; only approved reports can be resolved", f.ID, f.ApprovalStatus)
	}
	if f.ResolutionStatus == to {
		return Transition{}, nil
	}
	if !CanChangeResolution(f.ResolutionStatus, to) {
		return Transition{}, contextutils.WrapErrorf(contextutils.ErrInvalidTransition,
			"cannot move report %s from %s to %s", f.ID, f.ResolutionStatus, to)
	}

	from := f.ResolutionStatus
	f.ResolutionStatus = to
	if to == models.ResolutionClosed {
		f.ResolutionDate = &openapi_types.Date{Time: now.UTC().Truncate(24 * time.Hour)}
	} else {
		f.ResolutionDate = nil
	}
	return Transition{
		Changed: true,
		Action:  models.ActionUpdateStatus,
		Details: fmt.Sprintf("Report %s status changed from %s to %s", f.ID, from, to),
	}, nil
}
