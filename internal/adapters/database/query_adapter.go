package database

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/doug-martin/goqu/v9"
	_ "github.com/doug-martin/goqu/v9/dialect/postgres"
	"github.com/google/uuid"

	"github.com/carlwahlen/ai-navigation-api/internal/domain/entities"
	"github.com/carlwahlen/ai-navigation-api/internal/domain/repositories"
	"github.com/carlwahlen/ai-navigation-api/internal/infrastructure/clients/postgres"
	apperrors "github.com/carlwahlen/ai-navigation-api/pkg/errors"
)

// exportLimit bounds the synthetic-generation export to the most frequent
// normalized queries per tenant.
const exportLimit = 1000

// frequencySelect derives per-query aggregates from the event log. The log
// is the only source of truth: count and success rate are always computed
// together from the same rows, never read from stored counters.
const frequencySelect = `
	SELECT normalized_query,
	       (array_agg(intent ORDER BY created_at DESC))[1]     AS intent,
	       (array_agg(flow_id ORDER BY created_at DESC))[1]    AS flow_id,
	       (array_agg(target_url ORDER BY created_at DESC))[1] AS target_url,
	       COUNT(*)                                            AS count,
	       AVG(CASE WHEN success THEN 1.0 ELSE 0.0 END)        AS success_rate,
	       MAX(created_at)                                     AS last_used
	FROM query_events
	WHERE tenant_id = $1
`

// QueryAdapter implements the query event log in Postgres.
type QueryAdapter struct {
	client *postgres.Client
	db     *goqu.Database
}

// NewQueryAdapter creates a new query adapter.
func NewQueryAdapter(client *postgres.Client) repositories.QueryRepository {
	return &QueryAdapter{
		client: client,
		db:     goqu.New("postgres", client.DB()),
	}
}

// LogQuery appends one event to the log. Events are insert-only; there is no
// update or delete path through this adapter.
func (a *QueryAdapter) LogQuery(ctx context.Context, event *entities.QueryEvent) error {
	if event == nil {
		return apperrors.NewInternalError("query event is nil", errors.New("query event is nil"))
	}
	if event.ID == "" {
		event.ID = uuid.New().String()
	}
	if event.NormalizedQuery == "" {
		event.NormalizedQuery = entities.NormalizeQuery(event.Query)
	}
	if event.CreatedAt.IsZero() {
		event.CreatedAt = time.Now().UTC()
	}

	record := goqu.Record{
		"id":               event.ID,
		"tenant_id":        event.TenantID,
		"query":            event.Query,
		"normalized_query": event.NormalizedQuery,
		"intent":           event.Intent,
		"flow_id":          event.FlowID,
		"target_url":       event.TargetURL,
		"session_id":       sql.NullString{String: event.SessionID, Valid: event.SessionID != ""},
		"success":          event.Success,
		"created_at":       event.CreatedAt,
	}

	query, args, err := a.db.Insert("query_events").Rows(record).ToSQL()
	if err != nil {
		return apperrors.NewInternalError("failed to build query event insert", err)
	}

	if _, err := a.client.DB().ExecContext(ctx, query, args...); err != nil {
		return apperrors.NewInternalError("failed to log query event", err)
	}

	return nil
}

// GetFrequencyForQuery returns the derived frequency for one normalized
// query, or nil when no events exist: cold start is not an error.
func (a *QueryAdapter) GetFrequencyForQuery(ctx context.Context, tenantID, normalizedQuery string) (*entities.QueryFrequency, error) {
	query := frequencySelect + `
	  AND normalized_query = $2
	GROUP BY normalized_query
	`

	freq := &entities.QueryFrequency{}
	err := a.client.DB().QueryRowContext(ctx, query, tenantID, normalizedQuery).Scan(
		&freq.NormalizedQuery,
		&freq.Intent,
		&freq.FlowID,
		&freq.TargetURL,
		&freq.Count,
		&freq.SuccessRate,
		&freq.LastUsed,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, apperrors.NewInternalError("failed to get query frequency", err)
	}

	return freq, nil
}

// GetQueryFrequency returns the top frequencies for a tenant ordered by
// count descending, success rate descending, then normalized query for a
// deterministic tie-break.
func (a *QueryAdapter) GetQueryFrequency(ctx context.Context, tenantID string, limit int) ([]*entities.QueryFrequency, error) {
	if limit <= 0 {
		limit = 100
	}

	query := frequencySelect + `
	GROUP BY normalized_query
	ORDER BY count DESC, success_rate DESC, normalized_query ASC
	LIMIT $2
	`

	rows, err := a.client.DB().QueryContext(ctx, query, tenantID, limit)
	if err != nil {
		return nil, apperrors.NewInternalError("failed to get query frequencies", err)
	}
	defer rows.Close()

	return scanFrequencies(rows)
}

// GetQueriesForFlow returns the most recent raw events for one flow,
// newest first.
func (a *QueryAdapter) GetQueriesForFlow(ctx context.Context, tenantID, flowID string, limit int) ([]*entities.QueryEvent, error) {
	if limit <= 0 {
		limit = 50
	}

	query := `
		SELECT id, tenant_id, query, normalized_query, intent, flow_id, target_url, session_id, success, created_at
		FROM query_events
		WHERE tenant_id = $1 AND flow_id = $2
		ORDER BY created_at DESC
		LIMIT $3
	`

	rows, err := a.client.DB().QueryContext(ctx, query, tenantID, flowID, limit)
	if err != nil {
		return nil, apperrors.NewInternalError("failed to get queries for flow", err)
	}
	defer rows.Close()

	var events []*entities.QueryEvent
	for rows.Next() {
		e := &entities.QueryEvent{}
		var sessionID sql.NullString
		err := rows.Scan(
			&e.ID,
			&e.TenantID,
			&e.Query,
			&e.NormalizedQuery,
			&e.Intent,
			&e.FlowID,
			&e.TargetURL,
			&sessionID,
			&e.Success,
			&e.CreatedAt,
		)
		if err != nil {
			return nil, apperrors.NewInternalError("failed to scan query event", err)
		}
		e.SessionID = sessionID.String
		events = append(events, e)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.NewInternalError("failed to read query events", err)
	}

	return events, nil
}

// GetLatestForSession returns the newest event for one session, or nil when
// the session never tracked a query.
func (a *QueryAdapter) GetLatestForSession(ctx context.Context, tenantID, sessionID string) (*entities.QueryEvent, error) {
	query := `
		SELECT id, tenant_id, query, normalized_query, intent, flow_id, target_url, session_id, success, created_at
		FROM query_events
		WHERE tenant_id = $1 AND session_id = $2
		ORDER BY created_at DESC
		LIMIT 1
	`

	e := &entities.QueryEvent{}
	var sid sql.NullString
	err := a.client.DB().QueryRowContext(ctx, query, tenantID, sessionID).Scan(
		&e.ID,
		&e.TenantID,
		&e.Query,
		&e.NormalizedQuery,
		&e.Intent,
		&e.FlowID,
		&e.TargetURL,
		&sid,
		&e.Success,
		&e.CreatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, apperrors.NewInternalError("failed to get latest session query", err)
	}
	e.SessionID = sid.String

	return e, nil
}

// ExportForSyntheticGeneration returns aggregated frequencies only. Raw
// event rows, session IDs and timestamps stay inside the store.
func (a *QueryAdapter) ExportForSyntheticGeneration(ctx context.Context, tenantID string) ([]*entities.QueryFrequency, error) {
	return a.GetQueryFrequency(ctx, tenantID, exportLimit)
}

func scanFrequencies(rows *sql.Rows) ([]*entities.QueryFrequency, error) {
	var freqs []*entities.QueryFrequency
	for rows.Next() {
		f := &entities.QueryFrequency{}
		err := rows.Scan(
			&f.NormalizedQuery,
			&f.Intent,
			&f.FlowID,
			&f.TargetURL,
			&f.Count,
			&f.SuccessRate,
			&f.LastUsed,
		)
		if err != nil {
			return nil, apperrors.NewInternalError("failed to scan query frequency", err)
		}
		freqs = append(freqs, f)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.NewInternalError("failed to read query frequencies", err)
	}
	return freqs, nil
}
