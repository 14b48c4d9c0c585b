// Package models defines the entities of the feedback service and the closed
// enumerations they use.
package models

import "strings"

// Role is the access tier of a user.
type Role string

const (
	RoleUser    Role = "USER"
	RoleManager Role = "MANAGER"
	RoleAdmin   Role = "ADMIN"
)

// Roles lists every role in ascending privilege order.
var Roles = []Role{RoleUser, RoleManager, RoleAdmin}

// Valid reports whether r is a known role.
func (r Role) Valid() bool {
	switch r {
	case RoleUser, RoleManager, RoleAdmin:
		return true
	}
	return false
}

// IsManagerTier reports whether the role has elevated visibility (MANAGER or ADMIN).
func (r Role) IsManagerTier() bool {
	switch r {
	case RoleManager, RoleAdmin:
		return true
	case RoleUser:
		return false
	}
	return false
}

func (r Role) String() string { return string(r) }

// ParseRole parses a role name case-insensitively.
func ParseRole(s string) (Role, bool) {
	r := Role(strings.ToUpper(strings.TrimSpace(s)))
	return r, r.Valid()
}

// ApprovalStatus is the manager-gated review state of a report.
type ApprovalStatus string

const (
	ApprovalPending  ApprovalStatus = "Pending"
	ApprovalApproved ApprovalStatus = "Approved"
	ApprovalRejected ApprovalStatus = "Rejected"
)

func (s ApprovalStatus) Valid() bool {
	switch s {
	case ApprovalPending, ApprovalApproved, ApprovalRejected:
		return true
	}
	return false
}

// ResolutionStatus tracks whether the underlying issue has been addressed.
type ResolutionStatus string

const (
	ResolutionOpen       ResolutionStatus = "Open"
	ResolutionInProgress ResolutionStatus = "In Progress"
	ResolutionClosed     ResolutionStatus = "Closed/Resolved"
)

func (s ResolutionStatus) Valid() bool {
	switch s {
	case ResolutionOpen, ResolutionInProgress, ResolutionClosed:
		return true
	}
	return false
}

// Priority of a report.
type Priority string

const (
	PriorityHigh   Priority = "High"
	PriorityMedium Priority = "Medium"
	PriorityLow    Priority = "Low"
)

func (p Priority) Valid() bool {
	switch p {
	case PriorityHigh, PriorityMedium, PriorityLow:
		return true
	}
	return false
}

// ProcessType is the broad category of a fault.
type ProcessType string

const (
	ProcessWrongProcess         ProcessType = "Wrong Process"
	ProcessWrongDepartment      ProcessType = "Wrong Department"
	ProcessFirstPointResolution ProcessType = "First Point Resolution"
	ProcessBehavior             ProcessType = "Behavior"
	ProcessDocumentation        ProcessType = "Documentation"
	ProcessSystemUsage          ProcessType = "System Usage"
	ProcessFollowUp             ProcessType = "Follow Up"
	ProcessOther                ProcessType = "Other"
)

// ProcessTypes lists every process type in display order.
var ProcessTypes = []ProcessType{
	ProcessWrongProcess,
	ProcessWrongDepartment,
	ProcessFirstPointResolution,
	ProcessBehavior,
	ProcessDocumentation,
	ProcessSystemUsage,
	ProcessFollowUp,
	ProcessOther,
}

func (p ProcessType) Valid() bool {
	for _, known := range ProcessTypes {
		if p == known {
			return true
		}
	}
	return false
}

// ScenarioTag is a fine-grained fault scenario. The empty tag means "none".
type ScenarioTag string

const (
	ScenarioNone                  ScenarioTag = ""
	ScenarioIncorrectRefund       ScenarioTag = "Incorrect Refund"
	ScenarioMissedEscalation      ScenarioTag = "Missed Escalation"
	ScenarioWrongTransfer         ScenarioTag = "Wrong Transfer"
	ScenarioIncompleteNotes       ScenarioTag = "Incomplete Notes"
	ScenarioNoCaseCreated         ScenarioTag = "No Case Created"
	ScenarioDuplicateCase         ScenarioTag = "Duplicate Case"
	ScenarioWrongDisposition      ScenarioTag = "Wrong Disposition"
	ScenarioMissedCallback        ScenarioTag = "Missed Callback"
	ScenarioRudeTone              ScenarioTag = "Rude Tone"
	ScenarioInterruptedCustomer   ScenarioTag = "Interrupted Customer"
	ScenarioLongHold              ScenarioTag = "Long Hold"
	ScenarioNoVerification        ScenarioTag = "No Verification"
	ScenarioWrongOrderUpdate      ScenarioTag = "Wrong Order Update"
	ScenarioIncorrectInformation  ScenarioTag = "Incorrect Information"
	ScenarioSystemMisuse          ScenarioTag = "System Misuse"
	ScenarioPolicyBreach          ScenarioTag = "Policy Breach"
	ScenarioUnresolvedOnFirstCall ScenarioTag = "Unresolved On First Call"
	ScenarioWrongQueue            ScenarioTag = "Wrong Queue"
	ScenarioMissingAttachment     ScenarioTag = "Missing Attachment"
	ScenarioDelayedResponse       ScenarioTag = "Delayed Response"
	ScenarioOther                 ScenarioTag = "Other Scenario"
)

// ScenarioTags lists every non-empty scenario tag.
var ScenarioTags = []ScenarioTag{
	ScenarioIncorrectRefund,
	ScenarioMissedEscalation,
	ScenarioWrongTransfer,
	ScenarioIncompleteNotes,
	ScenarioNoCaseCreated,
	ScenarioDuplicateCase,
	ScenarioWrongDisposition,
	ScenarioMissedCallback,
	ScenarioRudeTone,
	ScenarioInterruptedCustomer,
	ScenarioLongHold,
	ScenarioNoVerification,
	ScenarioWrongOrderUpdate,
	ScenarioIncorrectInformation,
	ScenarioSystemMisuse,
	ScenarioPolicyBreach,
	ScenarioUnresolvedOnFirstCall,
	ScenarioWrongQueue,
	ScenarioMissingAttachment,
	ScenarioDelayedResponse,
	ScenarioOther,
}

// Valid accepts the empty tag.
func (s ScenarioTag) Valid() bool {
	if s == ScenarioNone {
		return true
	}
	for _, known := range ScenarioTags {
		if s == known {
			return true
		}
	}
	return false
}

// NoteColor is the background colour of a sticky note.
type NoteColor string

const (
	NoteYellow NoteColor = "yellow"
	NoteBlue   NoteColor = "blue"
	NoteGreen  NoteColor = "green"
	NotePink   NoteColor = "pink"
	NotePurple NoteColor = "purple"
	NoteOrange NoteColor = "orange"
)

func (c NoteColor) Valid() bool {
	switch c {
	case NoteYellow, NoteBlue, NoteGreen, NotePink, NotePurple, NoteOrange:
		return true
	}
	return false
}

// FontSize of a sticky note.
type FontSize string

const (
	FontSmall  FontSize = "small"
	FontMedium FontSize = "medium"
	FontLarge  FontSize = "large"
	FontXLarge FontSize = "xlarge"
)

func (f FontSize) Valid() bool {
	switch f {
	case FontSmall, FontMedium, FontLarge, FontXLarge:
		return true
	}
	return false
}
