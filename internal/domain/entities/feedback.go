package entities

import (
	"time"
)

// Feedback records whether a navigation session's outcome was useful to the
// user. A useful/not-useful signal is folded back into the query log as a
// success/failure observation for the session's original query.
type Feedback struct {
	ID         string    `json:"id" db:"id"`
	SessionID  string    `json:"session_id" db:"session_id"`
	Useful     bool      `json:"useful" db:"useful"`
	Reason     string    `json:"reason,omitempty" db:"reason"`
	CorrectURL string    `json:"correct_url,omitempty" db:"correct_url"`
	CreatedAt  time.Time `json:"created_at" db:"created_at"`
}
