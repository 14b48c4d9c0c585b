package models

import (
	"time"

	openapi_types "github.com/oapi-codegen/runtime/types"
)

// Feedback is a fault report filed by one user about another.
type Feedback struct {
	ID               string              `json:"id" db:"id"`
	FromUserID       string              `json:"fromUserId" db:"from_user_id"`
	ToUserID         string              `json:"toUserId" db:"to_user_id"`
	ReportDate       openapi_types.Date  `json:"reportDate" db:"report_date"`
	OrderNumber      string              `json:"orderNumber" db:"order_number"`
	CaseNumber       string              `json:"caseNumber" db:"case_number"`
	FaultDescription string              `json:"faultDescription" db:"fault_description"`
	ProcessType      ProcessType         `json:"processType" db:"process_type"`
	ScenarioTag      ScenarioTag         `json:"scenarioTag" db:"scenario_tag"`
	ResolutionStatus ResolutionStatus    `json:"resolutionStatus" db:"resolution_status"`
	ApprovalStatus   ApprovalStatus      `json:"approvalStatus" db:"approval_status"`
	Priority         Priority            `json:"priority" db:"priority"`
	FeedbackContent  string              `json:"feedbackContent" db:"feedback_content"`
	AdditionalNotes  string              `json:"additionalNotes" db:"additional_notes"`
	ResolutionDate   *openapi_types.Date `json:"resolutionDate,omitempty" db:"resolution_date"`
	Timestamp        time.Time           `json:"timestamp" db:"timestamp"`
	AIAnalysis       string              `json:"aiAnalysis,omitempty" db:"ai_analysis"`
	ManagerNotes     string              `json:"managerNotes,omitempty" db:"manager_notes"`
}

// InvolvesUser reports whether userID is the sender or the receiver.
func (f Feedback) InvolvesUser(userID string) bool {
	return f.FromUserID == userID || f.ToUserID == userID
}

// FeedbackView is a Feedback projected for one viewer, with display names
// resolved and the sender redacted where required.
type FeedbackView struct {
	Feedback
	FromUserName   string `json:"fromUserName"`
	ToUserName     string `json:"toUserName"`
	SenderRedacted bool   `json:"senderRedacted"`
}
