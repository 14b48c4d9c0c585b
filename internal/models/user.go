package models

import "time"

// User is an employee account and its place in the org hierarchy.
type User struct {
	ID           string    `json:"id" yaml:"id"`
	Username     string    `json:"username" yaml:"username"`
	Name         string    `json:"name" yaml:"name"`
	Role         Role      `json:"role" yaml:"role"`
	ManagerID    *string   `json:"managerId,omitempty" yaml:"manager_id,omitempty"`
	IsApproved   bool      `json:"isApproved" yaml:"is_approved"`
	PasswordHash string    `json:"-" yaml:"-"` // Omit from JSON responses
	CreatedAt    time.Time `json:"createdAt" yaml:"created_at"`
	UpdatedAt    time.Time `json:"updatedAt" yaml:"updated_at"`
}

// HasManager reports whether the user has a non-empty manager reference.
func (u User) HasManager() bool {
	return u.ManagerID != nil && *u.ManagerID != ""
}

// ManagerRef returns the manager id or "" when unset.
func (u User) ManagerRef() string {
	if u.ManagerID == nil {
		return ""
	}
	return *u.ManagerID
}

// DisplayName prefers the full name and falls back to the username.
func (u User) DisplayName() string {
	if u.Name != "" {
		return u.Name
	}
	return u.Username
}

// UserSummary is the directory entry shown to viewers outside the manager
// tier: enough to pick a report subject, nothing about reporting lines.
type UserSummary struct {
	ID       string `json:"id"`
	Username string `json:"username"`
	Name     string `json:"name"`
}

// Summary projects u to its directory entry.
func (u User) Summary() UserSummary {
	return UserSummary{ID: u.ID, Username: u.Username, Name: u.Name}
}
