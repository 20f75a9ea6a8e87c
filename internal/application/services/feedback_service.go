package services

import (
	"context"

	"github.com/carlwahlen/ai-navigation-api/internal/domain/entities"
	"github.com/carlwahlen/ai-navigation-api/internal/domain/repositories"
	"github.com/carlwahlen/ai-navigation-api/internal/infrastructure/observability"
	apperrors "github.com/carlwahlen/ai-navigation-api/pkg/errors"
)

// FeedbackInput reports whether a navigation session's outcome was useful.
type FeedbackInput struct {
	TenantID   string `json:"tenant_id"`
	SessionID  string `json:"session_id"`
	Useful     bool   `json:"useful"`
	Reason     string `json:"reason,omitempty"`
	CorrectURL string `json:"correct_url,omitempty"`
}

// FeedbackService records feedback and folds it back into the query log:
// a useful/not-useful answer becomes a success/failure observation for the
// session's last tracked query, so future priority scores reflect it.
type FeedbackService struct {
	feedback repositories.FeedbackRepository
	sessions repositories.SessionRepository
	queries  repositories.QueryRepository
}

// NewFeedbackService creates a new feedback service.
func NewFeedbackService(
	feedback repositories.FeedbackRepository,
	sessions repositories.SessionRepository,
	queries repositories.QueryRepository,
) *FeedbackService {
	return &FeedbackService{
		feedback: feedback,
		sessions: sessions,
		queries:  queries,
	}
}

// SubmitFeedback stores the feedback and appends the outcome observation.
func (s *FeedbackService) SubmitFeedback(ctx context.Context, in FeedbackInput) (*entities.Feedback, error) {
	if in.TenantID == "" {
		return nil, apperrors.NewValidationError("tenant_id is required")
	}
	if in.SessionID == "" {
		return nil, apperrors.NewValidationError("session_id is required")
	}

	session, err := s.sessions.GetByID(ctx, in.SessionID)
	if err != nil {
		return nil, err
	}
	if session.TenantID != in.TenantID {
		return nil, apperrors.NewNotFoundError("session not found")
	}

	feedback := &entities.Feedback{
		SessionID:  in.SessionID,
		Useful:     in.Useful,
		Reason:     in.Reason,
		CorrectURL: in.CorrectURL,
	}
	if err := s.feedback.Create(ctx, feedback); err != nil {
		return nil, err
	}

	s.foldIntoQueryLog(ctx, in)

	return feedback, nil
}

// GetBySession returns all feedback for one session.
func (s *FeedbackService) GetBySession(ctx context.Context, tenantID, sessionID string) ([]*entities.Feedback, error) {
	if sessionID == "" {
		return nil, apperrors.NewValidationError("session_id is required")
	}

	session, err := s.sessions.GetByID(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if session.TenantID != tenantID {
		return nil, apperrors.NewNotFoundError("session not found")
	}

	return s.feedback.GetBySession(ctx, sessionID)
}

// foldIntoQueryLog appends a new event mirroring the session's last query
// with the confirmed outcome. The log stays append-only: feedback adds an
// observation, it never rewrites one.
func (s *FeedbackService) foldIntoQueryLog(ctx context.Context, in FeedbackInput) {
	logger := observability.LoggerFromContext(ctx)

	last, err := s.queries.GetLatestForSession(ctx, in.TenantID, in.SessionID)
	if err != nil {
		logger.Warn().Err(err).Str("session_id", in.SessionID).Msg("failed to load session query for feedback fold")
		return
	}
	if last == nil {
		return
	}

	outcome := &entities.QueryEvent{
		TenantID:  last.TenantID,
		Query:     last.Query,
		Intent:    last.Intent,
		FlowID:    last.FlowID,
		TargetURL: last.TargetURL,
		SessionID: last.SessionID,
		Success:   in.Useful,
	}
	if err := s.queries.LogQuery(ctx, outcome); err != nil {
		logger.Warn().Err(err).Str("session_id", in.SessionID).Msg("failed to fold feedback into query log")
	}
}
