package entities

import (
	"time"
)

// QueryTrackedEvent is the notification published on the event bus after a
// query event has been durably logged. Consumers (the live analytics stream)
// get the aggregation key and outcome, not the raw query text.
type QueryTrackedEvent struct {
	ID              string    `json:"id"`
	TenantID        string    `json:"tenant_id"`
	NormalizedQuery string    `json:"normalized_query"`
	Intent          string    `json:"intent"`
	FlowID          string    `json:"flow_id"`
	Success         bool      `json:"success"`
	TrackedAt       time.Time `json:"tracked_at"`
}
