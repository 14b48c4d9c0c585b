package models

import "time"

// Audit actions recorded by the service.
const (
	ActionSubmitReport       = "SUBMIT_REPORT"
	ActionApproveReport      = "APPROVE_REPORT"
	ActionRejectReport       = "REJECT_REPORT"
	ActionUpdateStatus       = "UPDATE_STATUS"
	ActionAnalyzeReport      = "ANALYZE_REPORT"
	ActionCreateUser         = "CREATE_USER"
	ActionApproveUser        = "APPROVE_USER"
	ActionUpdateUserRole     = "UPDATE_USER_ROLE"
	ActionAssignManager      = "ASSIGN_MANAGER"
	ActionDeleteUser         = "DELETE_USER"
	ActionLogin              = "LOGIN"
	ActionSignup             = "SIGNUP"
	ActionCreateAnnouncement = "CREATE_ANNOUNCEMENT"
	ActionCreateArticle      = "CREATE_ARTICLE"
)

// AuditLog is an immutable record of an action. User fields are copied at write time.
type AuditLog struct {
	ID        string    `json:"id" gorm:"primaryKey;size:36"`
	UserID    string    `json:"userId" gorm:"index;size:36"`
	UserName  string    `json:"userName"`
	UserRole  Role      `json:"userRole" gorm:"size:16"`
	Action    string    `json:"action" gorm:"size:64"`
	Details   string    `json:"details"`
	Timestamp time.Time `json:"timestamp" gorm:"index"`
}
