package database

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/carlwahlen/ai-navigation-api/internal/domain/entities"
	"github.com/carlwahlen/ai-navigation-api/internal/infrastructure/clients/postgres"
)

func setupQueryAdapter(t *testing.T) (*QueryAdapter, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	adapter := NewQueryAdapter(postgres.NewClientWithDB(db)).(*QueryAdapter)
	return adapter, mock
}

func TestQueryAdapter_LogQuery(t *testing.T) {
	adapter, mock := setupQueryAdapter(t)

	mock.ExpectExec(`INSERT INTO "query_events"`).
		WillReturnResult(sqlmock.NewResult(0, 1))

	event := &entities.QueryEvent{
		TenantID:  "tenant-1",
		Query:     "  How do I  RESET my password? ",
		Intent:    entities.IntentFindInformation,
		FlowID:    "flow-reset",
		TargetURL: "/account/reset",
		Success:   true,
	}

	err := adapter.LogQuery(context.Background(), event)
	require.NoError(t, err)

	assert.NotEmpty(t, event.ID)
	assert.Equal(t, "how do i reset my password?", event.NormalizedQuery)
	assert.False(t, event.CreatedAt.IsZero())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestQueryAdapter_GetFrequencyForQuery(t *testing.T) {
	t.Run("returns aggregated frequency", func(t *testing.T) {
		adapter, mock := setupQueryAdapter(t)

		lastUsed := time.Now().UTC()
		rows := sqlmock.NewRows([]string{
			"normalized_query", "intent", "flow_id", "target_url", "count", "success_rate", "last_used",
		}).AddRow("reset password", "find_information", "flow-reset", "/account/reset", 11, 10.0/11.0, lastUsed)

		mock.ExpectQuery(`SELECT normalized_query`).
			WithArgs("tenant-1", "reset password").
			WillReturnRows(rows)

		freq, err := adapter.GetFrequencyForQuery(context.Background(), "tenant-1", "reset password")
		require.NoError(t, err)
		require.NotNil(t, freq)

		assert.Equal(t, 11, freq.Count)
		assert.InDelta(t, 10.0/11.0, freq.SuccessRate, 0.0001)
		assert.InDelta(t, 10.0, freq.Priority(), 0.0001)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("returns nil for never-seen query", func(t *testing.T) {
		adapter, mock := setupQueryAdapter(t)

		mock.ExpectQuery(`SELECT normalized_query`).
			WithArgs("tenant-1", "quantum billing").
			WillReturnRows(sqlmock.NewRows([]string{
				"normalized_query", "intent", "flow_id", "target_url", "count", "success_rate", "last_used",
			}))

		freq, err := adapter.GetFrequencyForQuery(context.Background(), "tenant-1", "quantum billing")
		require.NoError(t, err)
		assert.Nil(t, freq)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestQueryAdapter_GetQueryFrequency(t *testing.T) {
	adapter, mock := setupQueryAdapter(t)

	now := time.Now().UTC()
	rows := sqlmock.NewRows([]string{
		"normalized_query", "intent", "flow_id", "target_url", "count", "success_rate", "last_used",
	}).
		AddRow("reset password", "find_information", "flow-reset", "/account/reset", 20, 0.9, now).
		AddRow("contact support", "contact_support", "flow-contact", "/contact", 5, 1.0, now)

	mock.ExpectQuery(`ORDER BY count DESC, success_rate DESC, normalized_query ASC`).
		WithArgs("tenant-1", 100).
		WillReturnRows(rows)

	freqs, err := adapter.GetQueryFrequency(context.Background(), "tenant-1", 0)
	require.NoError(t, err)
	require.Len(t, freqs, 2)

	assert.Equal(t, "reset password", freqs[0].NormalizedQuery)
	assert.Equal(t, "contact support", freqs[1].NormalizedQuery)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestQueryAdapter_GetQueriesForFlow(t *testing.T) {
	adapter, mock := setupQueryAdapter(t)

	newest := time.Now().UTC()
	older := newest.Add(-time.Hour)
	rows := sqlmock.NewRows([]string{
		"id", "tenant_id", "query", "normalized_query", "intent", "flow_id", "target_url", "session_id", "success", "created_at",
	}).
		AddRow("e2", "tenant-1", "reset password", "reset password", "find_information", "flow-reset", "/account/reset", "s2", true, newest).
		AddRow("e1", "tenant-1", "password reset", "password reset", "find_information", "flow-reset", "/account/reset", nil, false, older)

	mock.ExpectQuery(`ORDER BY created_at DESC`).
		WithArgs("tenant-1", "flow-reset", 2).
		WillReturnRows(rows)

	events, err := adapter.GetQueriesForFlow(context.Background(), "tenant-1", "flow-reset", 2)
	require.NoError(t, err)
	require.Len(t, events, 2)

	assert.Equal(t, "e2", events[0].ID)
	assert.Equal(t, "s2", events[0].SessionID)
	assert.Equal(t, "", events[1].SessionID)
	assert.True(t, events[0].CreatedAt.After(events[1].CreatedAt))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestQueryAdapter_ExportForSyntheticGeneration(t *testing.T) {
	adapter, mock := setupQueryAdapter(t)

	rows := sqlmock.NewRows([]string{
		"normalized_query", "intent", "flow_id", "target_url", "count", "success_rate", "last_used",
	}).AddRow("reset password", "find_information", "flow-reset", "/account/reset", 3, 1.0, time.Now().UTC())

	mock.ExpectQuery(`LIMIT \$2`).
		WithArgs("tenant-1", exportLimit).
		WillReturnRows(rows)

	freqs, err := adapter.ExportForSyntheticGeneration(context.Background(), "tenant-1")
	require.NoError(t, err)
	require.Len(t, freqs, 1)
	assert.NoError(t, mock.ExpectationsWereMet())
}
