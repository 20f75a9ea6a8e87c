package entities

import (
	"time"
)

// QueryFrequency is the derived, read-only view over the event log for one
// normalized query. It has no independent existence: it is recomputed from
// QueryEvents, never edited.
type QueryFrequency struct {
	NormalizedQuery string    `json:"normalized_query" db:"normalized_query"`
	Intent          string    `json:"intent" db:"intent"`
	FlowID          string    `json:"flow_id" db:"flow_id"`
	TargetURL       string    `json:"target_url" db:"target_url"`
	Count           int       `json:"count" db:"count"`
	SuccessRate     float64   `json:"success_rate" db:"success_rate"`
	LastUsed        time.Time `json:"last_used" db:"last_used"`
}

// AggregateQueryEvents derives a QueryFrequency from a set of events sharing
// one normalized query. An event without an explicit success flag counts as
// a non-success. An empty set yields count 0 and success rate 0.
func AggregateQueryEvents(events []*QueryEvent) QueryFrequency {
	freq := QueryFrequency{Count: len(events)}
	if len(events) == 0 {
		return freq
	}

	successes := 0
	for _, e := range events {
		if e.Success {
			successes++
		}
		if e.CreatedAt.After(freq.LastUsed) {
			freq.LastUsed = e.CreatedAt
			freq.NormalizedQuery = e.NormalizedQuery
			freq.Intent = e.Intent
			freq.FlowID = e.FlowID
			freq.TargetURL = e.TargetURL
		}
	}
	freq.SuccessRate = float64(successes) / float64(len(events))
	return freq
}

// Priority is the ranking score the navigation matcher uses to boost
// candidate flows: count * successRate. It grows unboundedly with volume
// and is a relative signal, not a probability. A nil frequency is the
// cold-start case and scores 0.
func (f *QueryFrequency) Priority() float64 {
	if f == nil || f.Count == 0 {
		return 0
	}
	return float64(f.Count) * f.SuccessRate
}
