package repositories

import (
	"context"

	"github.com/carlwahlen/ai-navigation-api/internal/domain/entities"
)

// QueryRepository persists query events and answers the derived-frequency
// reads. The event log is append-only; every frequency a read returns is
// computed from the log, never from stored counters.
//
// All reads are tenant-scoped. Frequency lookups for a query with no events
// return (nil, nil): cold start is not an error.
type QueryRepository interface {
	// LogQuery appends one event. The adapter fills ID, NormalizedQuery and
	// CreatedAt when unset.
	LogQuery(ctx context.Context, event *entities.QueryEvent) error

	// GetFrequencyForQuery returns the derived frequency for one normalized
	// query, or nil when the query has never been observed.
	GetFrequencyForQuery(ctx context.Context, tenantID, normalizedQuery string) (*entities.QueryFrequency, error)

	// GetQueryFrequency returns up to limit frequencies ordered by count
	// descending, then success rate descending, then normalized query.
	GetQueryFrequency(ctx context.Context, tenantID string, limit int) ([]*entities.QueryFrequency, error)

	// GetQueriesForFlow returns up to limit raw events for a flow,
	// newest first.
	GetQueriesForFlow(ctx context.Context, tenantID, flowID string, limit int) ([]*entities.QueryEvent, error)

	// GetLatestForSession returns the newest event recorded for a session,
	// or nil when the session never tracked a query.
	GetLatestForSession(ctx context.Context, tenantID, sessionID string) (*entities.QueryEvent, error)

	// ExportForSyntheticGeneration returns aggregated frequencies only,
	// bounded to the top entries by count. Raw events, session IDs and
	// timestamps never leave through this path.
	ExportForSyntheticGeneration(ctx context.Context, tenantID string) ([]*entities.QueryFrequency, error)
}
