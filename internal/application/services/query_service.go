package services

import (
	"context"
	"strconv"

	"github.com/carlwahlen/ai-navigation-api/internal/adapters/cache"
	"github.com/carlwahlen/ai-navigation-api/internal/domain/entities"
	"github.com/carlwahlen/ai-navigation-api/internal/domain/providers"
	"github.com/carlwahlen/ai-navigation-api/internal/domain/repositories"
	"github.com/carlwahlen/ai-navigation-api/internal/infrastructure/observability"
	apperrors "github.com/carlwahlen/ai-navigation-api/pkg/errors"
)

const (
	defaultTopQueriesLimit  = 100
	defaultFlowQueriesLimit = 50
	statsTopQueriesReturned = 10
)

// TrackQueryInput is the request to record one query usage observation.
// Success defaults to false when the caller does not report an outcome: an
// unconfirmed navigation is not evidence of success.
type TrackQueryInput struct {
	TenantID  string `json:"tenant_id"`
	Query     string `json:"query"`
	Intent    string `json:"intent"`
	FlowID    string `json:"flow_id"`
	TargetURL string `json:"target_url"`
	SessionID string `json:"session_id,omitempty"`
	Success   bool   `json:"success"`
}

// QueryStats summarizes a tenant's query log.
type QueryStats struct {
	TotalQueries       int                        `json:"total_queries"`
	UniqueQueries      int                        `json:"unique_queries"`
	OverallSuccessRate float64                    `json:"overall_success_rate"`
	TopQueries         []*entities.QueryFrequency `json:"top_queries"`
}

// QueryService is the facade over the query event log: recording usage,
// deriving frequencies and priority scores, and exporting aggregates.
type QueryService struct {
	repo  repositories.QueryRepository
	cache providers.CacheProvider
}

// NewQueryService creates a new query service. cacheProvider may be nil, in
// which case priority lookups always hit the store.
func NewQueryService(repo repositories.QueryRepository, cacheProvider providers.CacheProvider) *QueryService {
	return &QueryService{repo: repo, cache: cacheProvider}
}

// NewEvent validates tracking input and builds the event to log. Nothing is
// stored: invalid input never reaches the event log.
func (s *QueryService) NewEvent(in TrackQueryInput) (*entities.QueryEvent, error) {
	if in.TenantID == "" {
		return nil, apperrors.NewValidationError("tenant_id is required")
	}
	if in.Query == "" {
		return nil, apperrors.NewValidationError("query is required")
	}
	if in.Intent == "" {
		return nil, apperrors.NewValidationError("intent is required")
	}
	if in.FlowID == "" {
		return nil, apperrors.NewValidationError("flow_id is required")
	}
	if in.TargetURL == "" {
		return nil, apperrors.NewValidationError("target_url is required")
	}

	return &entities.QueryEvent{
		TenantID:        in.TenantID,
		Query:           in.Query,
		NormalizedQuery: entities.NormalizeQuery(in.Query),
		Intent:          in.Intent,
		FlowID:          in.FlowID,
		TargetURL:       in.TargetURL,
		SessionID:       in.SessionID,
		Success:         in.Success,
	}, nil
}

// TrackQuery validates and synchronously appends one usage observation.
// Fire-and-forget callers go through the tracker instead.
func (s *QueryService) TrackQuery(ctx context.Context, in TrackQueryInput) (*entities.QueryEvent, error) {
	event, err := s.NewEvent(in)
	if err != nil {
		return nil, err
	}

	if err := s.repo.LogQuery(ctx, event); err != nil {
		return nil, err
	}

	s.invalidatePriority(ctx, event.TenantID, event.NormalizedQuery)
	return event, nil
}

// GetQueryPriority returns the priority score for a raw query: frequency
// count weighted by success rate. A query with no history scores zero.
func (s *QueryService) GetQueryPriority(ctx context.Context, tenantID, query string) (float64, error) {
	if tenantID == "" {
		return 0, apperrors.NewValidationError("tenant_id is required")
	}

	normalized := entities.NormalizeQuery(query)
	if normalized == "" {
		return 0, nil
	}

	if score, ok := s.cachedPriority(ctx, tenantID, normalized); ok {
		return score, nil
	}

	freq, err := s.repo.GetFrequencyForQuery(ctx, tenantID, normalized)
	if err != nil {
		return 0, err
	}

	score := freq.Priority()
	s.storePriority(ctx, tenantID, normalized, score)
	return score, nil
}

// GetTopQueries returns a tenant's most used queries ordered by count, then
// success rate, then normalized query.
func (s *QueryService) GetTopQueries(ctx context.Context, tenantID string, limit int) ([]*entities.QueryFrequency, error) {
	if tenantID == "" {
		return nil, apperrors.NewValidationError("tenant_id is required")
	}
	if limit <= 0 {
		limit = defaultTopQueriesLimit
	}
	return s.repo.GetQueryFrequency(ctx, tenantID, limit)
}

// GetQueriesForFlow returns the most recent raw events routed to one flow,
// newest first.
func (s *QueryService) GetQueriesForFlow(ctx context.Context, tenantID, flowID string, limit int) ([]*entities.QueryEvent, error) {
	if tenantID == "" {
		return nil, apperrors.NewValidationError("tenant_id is required")
	}
	if flowID == "" {
		return nil, apperrors.NewValidationError("flow_id is required")
	}
	if limit <= 0 {
		limit = defaultFlowQueriesLimit
	}
	return s.repo.GetQueriesForFlow(ctx, tenantID, flowID, limit)
}

// ExportForSyntheticGeneration returns aggregated frequencies suitable for
// feeding a synthetic data pipeline. The export carries no raw query events,
// session IDs or timestamps beyond last use.
func (s *QueryService) ExportForSyntheticGeneration(ctx context.Context, tenantID string) ([]*entities.QueryFrequency, error) {
	if tenantID == "" {
		return nil, apperrors.NewValidationError("tenant_id is required")
	}
	return s.repo.ExportForSyntheticGeneration(ctx, tenantID)
}

// GetStats summarizes the tenant's query log from the same aggregates the
// export produces.
func (s *QueryService) GetStats(ctx context.Context, tenantID string) (*QueryStats, error) {
	freqs, err := s.ExportForSyntheticGeneration(ctx, tenantID)
	if err != nil {
		return nil, err
	}

	stats := &QueryStats{TopQueries: []*entities.QueryFrequency{}}
	var successWeighted float64
	for _, f := range freqs {
		stats.TotalQueries += f.Count
		stats.UniqueQueries++
		successWeighted += f.SuccessRate * float64(f.Count)
	}
	if stats.TotalQueries > 0 {
		stats.OverallSuccessRate = successWeighted / float64(stats.TotalQueries)
	}

	top := statsTopQueriesReturned
	if top > len(freqs) {
		top = len(freqs)
	}
	stats.TopQueries = freqs[:top]

	return stats, nil
}

func (s *QueryService) cachedPriority(ctx context.Context, tenantID, normalized string) (float64, bool) {
	if s.cache == nil {
		return 0, false
	}

	data, err := s.cache.Get(ctx, cache.PriorityKey(tenantID, normalized))
	if err != nil {
		return 0, false
	}

	score, err := strconv.ParseFloat(string(data), 64)
	if err != nil {
		return 0, false
	}
	return score, true
}

func (s *QueryService) storePriority(ctx context.Context, tenantID, normalized string, score float64) {
	if s.cache == nil {
		return
	}

	value := strconv.FormatFloat(score, 'f', -1, 64)
	if err := s.cache.Set(ctx, cache.PriorityKey(tenantID, normalized), []byte(value), cache.PriorityTTLSeconds); err != nil {
		observability.LoggerFromContext(ctx).Warn().Err(err).Msg("failed to cache priority score")
	}
}

func (s *QueryService) invalidatePriority(ctx context.Context, tenantID, normalized string) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Delete(ctx, cache.PriorityKey(tenantID, normalized)); err != nil {
		observability.LoggerFromContext(ctx).Warn().Err(err).Msg("failed to invalidate priority cache")
	}
}
