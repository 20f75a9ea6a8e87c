package services

import (
	"context"

	"github.com/google/uuid"

	"github.com/carlwahlen/ai-navigation-api/internal/domain/entities"
	"github.com/carlwahlen/ai-navigation-api/internal/domain/repositories"
	apperrors "github.com/carlwahlen/ai-navigation-api/pkg/errors"
)

// ContentService maintains the per-tenant content index navigation steps
// resolve their URLs against.
type ContentService struct {
	content repositories.ContentRepository
}

// NewContentService creates a new content service.
func NewContentService(content repositories.ContentRepository) *ContentService {
	return &ContentService{content: content}
}

// IndexContent validates and replaces the tenant's content index.
func (s *ContentService) IndexContent(ctx context.Context, tenantID string, items []*entities.ContentItem) (int, error) {
	if tenantID == "" {
		return 0, apperrors.NewValidationError("tenant_id is required")
	}
	if len(items) == 0 {
		return 0, apperrors.NewValidationError("at least one content item is required")
	}

	for _, item := range items {
		if item.URL == "" {
			return 0, apperrors.NewValidationError("content item url is required")
		}
		if item.Title == "" {
			return 0, apperrors.NewValidationError("content item title is required")
		}
		if item.ID == "" {
			item.ID = uuid.New().String()
		}
		item.TenantID = tenantID
	}

	if err := s.content.BulkUpsert(ctx, tenantID, items); err != nil {
		return 0, err
	}

	return len(items), nil
}

// GetContent returns the tenant's content index.
func (s *ContentService) GetContent(ctx context.Context, tenantID string) ([]*entities.ContentItem, error) {
	if tenantID == "" {
		return nil, apperrors.NewValidationError("tenant_id is required")
	}
	return s.content.GetByTenant(ctx, tenantID)
}
