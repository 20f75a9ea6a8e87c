package repositories

import (
	"context"

	"github.com/carlwahlen/ai-navigation-api/internal/domain/entities"
)

// SessionRepository persists navigation sessions.
type SessionRepository interface {
	Create(ctx context.Context, session *entities.Session) error
	GetByID(ctx context.Context, id string) (*entities.Session, error)
	Update(ctx context.Context, session *entities.Session) error
}
