package entities

import (
	"time"
)

// UserContext carries caller-supplied attributes used for flow and step
// eligibility checks.
type UserContext struct {
	LoggedIn *bool  `json:"logged_in,omitempty"`
	UserType string `json:"user_type,omitempty"`
	Device   string `json:"device,omitempty"`
	Language string `json:"language,omitempty"`
}

// Session tracks one user's navigation state within a tenant.
type Session struct {
	ID             string      `json:"id" db:"id"`
	TenantID       string      `json:"tenant_id" db:"tenant_id"`
	CurrentFlowID  string      `json:"current_flow_id,omitempty" db:"current_flow_id"`
	CurrentStepID  string      `json:"current_step_id,omitempty" db:"current_step_id"`
	Context        UserContext `json:"context" db:"context"`
	StartedAt      time.Time   `json:"started_at" db:"started_at"`
	LastActivityAt time.Time   `json:"last_activity_at" db:"last_activity_at"`
	Completed      bool        `json:"completed" db:"completed"`
}
