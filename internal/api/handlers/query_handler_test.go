package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/carlwahlen/ai-navigation-api/internal/application/services"
	"github.com/carlwahlen/ai-navigation-api/internal/domain/entities"
)

// stubQueryRepository implements repositories.QueryRepository with function
// fields so each test overrides only what it needs.
type stubQueryRepository struct {
	logQuery            func(ctx context.Context, event *entities.QueryEvent) error
	getFrequency        func(ctx context.Context, tenantID, normalizedQuery string) (*entities.QueryFrequency, error)
	getQueryFrequency   func(ctx context.Context, tenantID string, limit int) ([]*entities.QueryFrequency, error)
	getQueriesForFlow   func(ctx context.Context, tenantID, flowID string, limit int) ([]*entities.QueryEvent, error)
	getLatestForSession func(ctx context.Context, tenantID, sessionID string) (*entities.QueryEvent, error)
	export              func(ctx context.Context, tenantID string) ([]*entities.QueryFrequency, error)
}

func (s *stubQueryRepository) LogQuery(ctx context.Context, event *entities.QueryEvent) error {
	if s.logQuery == nil {
		return nil
	}
	return s.logQuery(ctx, event)
}

func (s *stubQueryRepository) GetFrequencyForQuery(ctx context.Context, tenantID, normalizedQuery string) (*entities.QueryFrequency, error) {
	if s.getFrequency == nil {
		return nil, nil
	}
	return s.getFrequency(ctx, tenantID, normalizedQuery)
}

func (s *stubQueryRepository) GetQueryFrequency(ctx context.Context, tenantID string, limit int) ([]*entities.QueryFrequency, error) {
	if s.getQueryFrequency == nil {
		return nil, nil
	}
	return s.getQueryFrequency(ctx, tenantID, limit)
}

func (s *stubQueryRepository) GetQueriesForFlow(ctx context.Context, tenantID, flowID string, limit int) ([]*entities.QueryEvent, error) {
	if s.getQueriesForFlow == nil {
		return nil, nil
	}
	return s.getQueriesForFlow(ctx, tenantID, flowID, limit)
}

func (s *stubQueryRepository) GetLatestForSession(ctx context.Context, tenantID, sessionID string) (*entities.QueryEvent, error) {
	if s.getLatestForSession == nil {
		return nil, nil
	}
	return s.getLatestForSession(ctx, tenantID, sessionID)
}

func (s *stubQueryRepository) ExportForSyntheticGeneration(ctx context.Context, tenantID string) ([]*entities.QueryFrequency, error) {
	if s.export == nil {
		return nil, nil
	}
	return s.export(ctx, tenantID)
}

func TestQueryHandler_TrackQuery(t *testing.T) {
	t.Run("missing tenant_id is rejected before any write", func(t *testing.T) {
		logged := false
		repo := &stubQueryRepository{
			logQuery: func(context.Context, *entities.QueryEvent) error {
				logged = true
				return nil
			},
		}
		handler := NewQueryHandler(services.NewQueryService(repo, nil), nil)

		body, _ := json.Marshal(map[string]interface{}{
			"query":      "reset password",
			"intent":     "find_information",
			"flow_id":    "flow-reset",
			"target_url": "/account/reset",
		})
		req := httptest.NewRequest(http.MethodPost, "/v1/queries", bytes.NewReader(body))
		rec := httptest.NewRecorder()

		handler.TrackQuery(rec, req)

		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.False(t, logged, "store must not be touched")
	})

	t.Run("valid request is written", func(t *testing.T) {
		var written *entities.QueryEvent
		repo := &stubQueryRepository{
			logQuery: func(_ context.Context, event *entities.QueryEvent) error {
				written = event
				return nil
			},
		}
		handler := NewQueryHandler(services.NewQueryService(repo, nil), nil)

		body, _ := json.Marshal(map[string]interface{}{
			"tenant_id":  "tenant-1",
			"query":      "Reset  PASSWORD",
			"intent":     "find_information",
			"flow_id":    "flow-reset",
			"target_url": "/account/reset",
			"success":    true,
		})
		req := httptest.NewRequest(http.MethodPost, "/v1/queries", bytes.NewReader(body))
		rec := httptest.NewRecorder()

		handler.TrackQuery(rec, req)

		assert.Equal(t, http.StatusCreated, rec.Code)
		require.NotNil(t, written)
		assert.Equal(t, "reset password", written.NormalizedQuery)
		assert.True(t, written.Success)
	})

	t.Run("tenant falls back to header", func(t *testing.T) {
		repo := &stubQueryRepository{}
		handler := NewQueryHandler(services.NewQueryService(repo, nil), nil)

		body, _ := json.Marshal(map[string]interface{}{
			"query":      "reset password",
			"intent":     "find_information",
			"flow_id":    "flow-reset",
			"target_url": "/account/reset",
		})
		req := httptest.NewRequest(http.MethodPost, "/v1/queries", bytes.NewReader(body))
		req.Header.Set("X-Tenant-ID", "tenant-1")
		rec := httptest.NewRecorder()

		handler.TrackQuery(rec, req)

		assert.Equal(t, http.StatusCreated, rec.Code)
	})
}

func TestQueryHandler_GetTopQueries(t *testing.T) {
	repo := &stubQueryRepository{
		getQueryFrequency: func(_ context.Context, tenant string, limit int) ([]*entities.QueryFrequency, error) {
			assert.Equal(t, "tenant-1", tenant)
			assert.Equal(t, 5, limit)
			return []*entities.QueryFrequency{
				{NormalizedQuery: "reset password", Count: 20, SuccessRate: 0.9, LastUsed: time.Now().UTC()},
			}, nil
		},
	}
	handler := NewQueryHandler(services.NewQueryService(repo, nil), nil)

	req := httptest.NewRequest(http.MethodGet, "/v1/queries?tenant_id=tenant-1&limit=5", nil)
	rec := httptest.NewRecorder()

	handler.GetTopQueries(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var resp struct {
		Queries []*entities.QueryFrequency `json:"queries"`
		Count   int                        `json:"count"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, 1, resp.Count)
	assert.Equal(t, "reset password", resp.Queries[0].NormalizedQuery)
}

func TestQueryHandler_GetQueryPriority(t *testing.T) {
	repo := &stubQueryRepository{
		getFrequency: func(_ context.Context, _, normalized string) (*entities.QueryFrequency, error) {
			assert.Equal(t, "reset password", normalized)
			return &entities.QueryFrequency{NormalizedQuery: normalized, Count: 11, SuccessRate: 10.0 / 11.0}, nil
		},
	}
	handler := NewQueryHandler(services.NewQueryService(repo, nil), nil)

	req := httptest.NewRequest(http.MethodGet, "/v1/queries/priority?tenant_id=tenant-1&q=Reset+PASSWORD", nil)
	rec := httptest.NewRecorder()

	handler.GetQueryPriority(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var resp struct {
		Priority float64 `json:"priority"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.InDelta(t, 10.0, resp.Priority, 0.0001)
}

func TestQueryHandler_GetQueriesForFlow(t *testing.T) {
	repo := &stubQueryRepository{
		getQueriesForFlow: func(_ context.Context, tenant, flowID string, limit int) ([]*entities.QueryEvent, error) {
			assert.Equal(t, "flow-reset", flowID)
			assert.Equal(t, 2, limit)
			return []*entities.QueryEvent{{ID: "e2"}, {ID: "e1"}}, nil
		},
	}
	handler := NewQueryHandler(services.NewQueryService(repo, nil), nil)

	req := httptest.NewRequest(http.MethodGet, "/v1/flows/flow-reset/queries?tenant_id=tenant-1&limit=2", nil)
	req.SetPathValue("id", "flow-reset")
	rec := httptest.NewRecorder()

	handler.GetQueriesForFlow(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var resp struct {
		Queries []*entities.QueryEvent `json:"queries"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Len(t, resp.Queries, 2)
	assert.Equal(t, "e2", resp.Queries[0].ID)
}

func TestQueryHandler_ExportQueries(t *testing.T) {
	repo := &stubQueryRepository{
		export: func(_ context.Context, tenant string) ([]*entities.QueryFrequency, error) {
			return []*entities.QueryFrequency{
				{NormalizedQuery: "reset password", Count: 10, SuccessRate: 0.9},
			}, nil
		},
	}
	handler := NewQueryHandler(services.NewQueryService(repo, nil), nil)

	req := httptest.NewRequest(http.MethodGet, "/v1/queries/export?tenant_id=tenant-1", nil)
	rec := httptest.NewRecorder()

	handler.ExportQueries(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.NotContains(t, rec.Body.String(), "session_id")
}
