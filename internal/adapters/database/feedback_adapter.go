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

// FeedbackAdapter implements feedback persistence in Postgres.
type FeedbackAdapter struct {
	client *postgres.Client
	db     *goqu.Database
}

// NewFeedbackAdapter creates a new feedback adapter.
func NewFeedbackAdapter(client *postgres.Client) repositories.FeedbackRepository {
	return &FeedbackAdapter{
		client: client,
		db:     goqu.New("postgres", client.DB()),
	}
}

// Create inserts a feedback record.
func (a *FeedbackAdapter) Create(ctx context.Context, feedback *entities.Feedback) error {
	if feedback == nil {
		return apperrors.NewInternalError("feedback is nil", errors.New("feedback is nil"))
	}
	if feedback.ID == "" {
		feedback.ID = uuid.New().String()
	}
	if feedback.CreatedAt.IsZero() {
		feedback.CreatedAt = time.Now().UTC()
	}

	record := goqu.Record{
		"id":          feedback.ID,
		"session_id":  feedback.SessionID,
		"useful":      feedback.Useful,
		"reason":      sql.NullString{String: feedback.Reason, Valid: feedback.Reason != ""},
		"correct_url": sql.NullString{String: feedback.CorrectURL, Valid: feedback.CorrectURL != ""},
		"created_at":  feedback.CreatedAt,
	}

	query, args, err := a.db.Insert("session_feedback").Rows(record).ToSQL()
	if err != nil {
		return apperrors.NewInternalError("failed to build feedback insert", err)
	}

	if _, err := a.client.DB().ExecContext(ctx, query, args...); err != nil {
		return apperrors.NewInternalError("failed to create feedback", err)
	}

	return nil
}

// GetBySession returns all feedback for one session, newest first.
func (a *FeedbackAdapter) GetBySession(ctx context.Context, sessionID string) ([]*entities.Feedback, error) {
	query := `
		SELECT id, session_id, useful, COALESCE(reason, ''), COALESCE(correct_url, ''), created_at
		FROM session_feedback
		WHERE session_id = $1
		ORDER BY created_at DESC
	`

	rows, err := a.client.DB().QueryContext(ctx, query, sessionID)
	if err != nil {
		return nil, apperrors.NewInternalError("failed to get feedback", err)
	}
	defer rows.Close()

	var items []*entities.Feedback
	for rows.Next() {
		f := &entities.Feedback{}
		err := rows.Scan(&f.ID, &f.SessionID, &f.Useful, &f.Reason, &f.CorrectURL, &f.CreatedAt)
		if err != nil {
			return nil, apperrors.NewInternalError("failed to scan feedback", err)
		}
		items = append(items, f)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.NewInternalError("failed to read feedback", err)
	}

	return items, nil
}
