package repositories

import (
	"context"

	"github.com/carlwahlen/ai-navigation-api/internal/domain/entities"
)

// FlowRepository reads per-tenant flow definitions.
type FlowRepository interface {
	// GetByTenant returns all enabled flows for a tenant.
	GetByTenant(ctx context.Context, tenantID string) ([]*entities.Flow, error)
}
