package repositories

import (
	"context"

	"github.com/carlwahlen/ai-navigation-api/internal/domain/entities"
)

// ContentRepository persists the per-tenant content index.
type ContentRepository interface {
	GetByTenant(ctx context.Context, tenantID string) ([]*entities.ContentItem, error)

	// BulkUpsert replaces the tenant's index with the given items in one
	// transaction.
	BulkUpsert(ctx context.Context, tenantID string, items []*entities.ContentItem) error
}
