package entities

import (
	"strings"
	"time"
)

// QueryEvent is a single observed navigation query. Events are append-only:
// once logged they are never mutated or deleted, and all frequency data is
// derived from them rather than kept as mutable counters.
type QueryEvent struct {
	ID              string    `json:"id" db:"id"`
	TenantID        string    `json:"tenant_id" db:"tenant_id"`
	Query           string    `json:"query" db:"query"`
	NormalizedQuery string    `json:"normalized_query" db:"normalized_query"`
	Intent          string    `json:"intent" db:"intent"`
	FlowID          string    `json:"flow_id" db:"flow_id"`
	TargetURL       string    `json:"target_url" db:"target_url"`
	SessionID       string    `json:"session_id,omitempty" db:"session_id"`
	Success         bool      `json:"success" db:"success"`
	CreatedAt       time.Time `json:"created_at" db:"created_at"`
}

// NormalizeQuery produces the canonical aggregation key for a raw query:
// lowercased, trimmed, internal whitespace collapsed to single spaces.
// Writers and readers must use the same normalization or frequencies split
// across variants of the same query.
func NormalizeQuery(raw string) string {
	return strings.Join(strings.Fields(strings.ToLower(raw)), " ")
}
