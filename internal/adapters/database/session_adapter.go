package database

import (
	"context"
	"database/sql"
	"encoding/json"
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

// SessionAdapter implements session persistence in Postgres. The user
// context is stored as JSONB.
type SessionAdapter struct {
	client *postgres.Client
	db     *goqu.Database
}

// NewSessionAdapter creates a new session adapter.
func NewSessionAdapter(client *postgres.Client) repositories.SessionRepository {
	return &SessionAdapter{
		client: client,
		db:     goqu.New("postgres", client.DB()),
	}
}

// Create inserts a new session.
func (a *SessionAdapter) Create(ctx context.Context, session *entities.Session) error {
	if session == nil {
		return apperrors.NewInternalError("session is nil", errors.New("session is nil"))
	}
	if session.ID == "" {
		session.ID = uuid.New().String()
	}
	now := time.Now().UTC()
	if session.StartedAt.IsZero() {
		session.StartedAt = now
	}
	if session.LastActivityAt.IsZero() {
		session.LastActivityAt = now
	}

	contextJSON, err := json.Marshal(session.Context)
	if err != nil {
		return apperrors.NewInternalError("failed to marshal session context", err)
	}

	record := goqu.Record{
		"id":               session.ID,
		"tenant_id":        session.TenantID,
		"current_flow_id":  sql.NullString{String: session.CurrentFlowID, Valid: session.CurrentFlowID != ""},
		"current_step_id":  sql.NullString{String: session.CurrentStepID, Valid: session.CurrentStepID != ""},
		"context":          contextJSON,
		"started_at":       session.StartedAt,
		"last_activity_at": session.LastActivityAt,
		"completed":        session.Completed,
	}

	query, args, err := a.db.Insert("sessions").Rows(record).ToSQL()
	if err != nil {
		return apperrors.NewInternalError("failed to build session insert", err)
	}

	if _, err := a.client.DB().ExecContext(ctx, query, args...); err != nil {
		return apperrors.NewInternalError("failed to create session", err)
	}

	return nil
}

// GetByID returns one session or a not-found error.
func (a *SessionAdapter) GetByID(ctx context.Context, id string) (*entities.Session, error) {
	query := `
		SELECT id, tenant_id, current_flow_id, current_step_id, context, started_at, last_activity_at, completed
		FROM sessions
		WHERE id = $1
	`

	session := &entities.Session{}
	var flowID, stepID sql.NullString
	var contextJSON []byte

	err := a.client.DB().QueryRowContext(ctx, query, id).Scan(
		&session.ID,
		&session.TenantID,
		&flowID,
		&stepID,
		&contextJSON,
		&session.StartedAt,
		&session.LastActivityAt,
		&session.Completed,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperrors.NewNotFoundError("session not found")
	}
	if err != nil {
		return nil, apperrors.NewInternalError("failed to get session", err)
	}

	session.CurrentFlowID = flowID.String
	session.CurrentStepID = stepID.String
	if len(contextJSON) > 0 {
		if err := json.Unmarshal(contextJSON, &session.Context); err != nil {
			return nil, apperrors.NewInternalError("failed to unmarshal session context", err)
		}
	}

	return session, nil
}

// Update persists the session's current position and activity time.
func (a *SessionAdapter) Update(ctx context.Context, session *entities.Session) error {
	if session == nil {
		return apperrors.NewInternalError("session is nil", errors.New("session is nil"))
	}
	session.LastActivityAt = time.Now().UTC()

	contextJSON, err := json.Marshal(session.Context)
	if err != nil {
		return apperrors.NewInternalError("failed to marshal session context", err)
	}

	record := goqu.Record{
		"current_flow_id":  sql.NullString{String: session.CurrentFlowID, Valid: session.CurrentFlowID != ""},
		"current_step_id":  sql.NullString{String: session.CurrentStepID, Valid: session.CurrentStepID != ""},
		"context":          contextJSON,
		"last_activity_at": session.LastActivityAt,
		"completed":        session.Completed,
	}

	query, args, err := a.db.Update("sessions").Set(record).Where(goqu.C("id").Eq(session.ID)).ToSQL()
	if err != nil {
		return apperrors.NewInternalError("failed to build session update", err)
	}

	result, err := a.client.DB().ExecContext(ctx, query, args...)
	if err != nil {
		return apperrors.NewInternalError("failed to update session", err)
	}
	if affected, err := result.RowsAffected(); err == nil && affected == 0 {
		return apperrors.NewNotFoundError("session not found")
	}

	return nil
}
