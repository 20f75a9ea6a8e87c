package database

import (
	"context"

	"github.com/lib/pq"

	"github.com/carlwahlen/ai-navigation-api/internal/domain/entities"
	"github.com/carlwahlen/ai-navigation-api/internal/domain/repositories"
	"github.com/carlwahlen/ai-navigation-api/internal/infrastructure/clients/postgres"
	apperrors "github.com/carlwahlen/ai-navigation-api/pkg/errors"
)

// ContentAdapter persists the per-tenant content index in Postgres.
type ContentAdapter struct {
	client *postgres.Client
}

// NewContentAdapter creates a new content adapter.
func NewContentAdapter(client *postgres.Client) repositories.ContentRepository {
	return &ContentAdapter{client: client}
}

// GetByTenant returns the tenant's full content index.
func (a *ContentAdapter) GetByTenant(ctx context.Context, tenantID string) ([]*entities.ContentItem, error) {
	query := `
		SELECT id, tenant_id, url, title, language, tags, content_type, COALESCE(description, '')
		FROM content_items
		WHERE tenant_id = $1
		ORDER BY title ASC
	`

	rows, err := a.client.DB().QueryContext(ctx, query, tenantID)
	if err != nil {
		return nil, apperrors.NewInternalError("failed to get content items", err)
	}
	defer rows.Close()

	var items []*entities.ContentItem
	for rows.Next() {
		item := &entities.ContentItem{}
		err := rows.Scan(
			&item.ID,
			&item.TenantID,
			&item.URL,
			&item.Title,
			&item.Language,
			pq.Array(&item.Tags),
			&item.ContentType,
			&item.Description,
		)
		if err != nil {
			return nil, apperrors.NewInternalError("failed to scan content item", err)
		}
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.NewInternalError("failed to read content items", err)
	}

	return items, nil
}

// BulkUpsert replaces the tenant's index in one transaction so readers never
// see a half-written index.
func (a *ContentAdapter) BulkUpsert(ctx context.Context, tenantID string, items []*entities.ContentItem) error {
	tx, err := a.client.BeginTx(ctx)
	if err != nil {
		return apperrors.NewInternalError("failed to begin content index transaction", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM content_items WHERE tenant_id = $1`, tenantID); err != nil {
		return apperrors.NewInternalError("failed to clear content index", err)
	}

	insert := `
		INSERT INTO content_items (id, tenant_id, url, title, language, tags, content_type, description)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`
	for _, item := range items {
		_, err := tx.ExecContext(ctx, insert,
			item.ID,
			tenantID,
			item.URL,
			item.Title,
			item.Language,
			pq.Array(item.Tags),
			item.ContentType,
			item.Description,
		)
		if err != nil {
			return apperrors.NewInternalError("failed to insert content item", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return apperrors.NewInternalError("failed to commit content index", err)
	}

	return nil
}
