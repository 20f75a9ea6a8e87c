package repositories

import (
	"context"

	"github.com/carlwahlen/ai-navigation-api/internal/domain/entities"
)

// FeedbackRepository persists session feedback.
type FeedbackRepository interface {
	Create(ctx context.Context, feedback *entities.Feedback) error
	GetBySession(ctx context.Context, sessionID string) ([]*entities.Feedback, error)
}
