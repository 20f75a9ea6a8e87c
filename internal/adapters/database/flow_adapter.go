package database

import (
	"context"
	"encoding/json"

	"github.com/lib/pq"

	"github.com/carlwahlen/ai-navigation-api/internal/domain/entities"
	"github.com/carlwahlen/ai-navigation-api/internal/domain/repositories"
	"github.com/carlwahlen/ai-navigation-api/internal/infrastructure/clients/postgres"
	apperrors "github.com/carlwahlen/ai-navigation-api/pkg/errors"
)

// FlowAdapter reads flow definitions from Postgres. Steps and conditions are
// stored as JSONB, keywords as a text array.
type FlowAdapter struct {
	client *postgres.Client
}

// NewFlowAdapter creates a new flow adapter.
func NewFlowAdapter(client *postgres.Client) repositories.FlowRepository {
	return &FlowAdapter{client: client}
}

// GetByTenant returns all enabled flows for a tenant.
func (a *FlowAdapter) GetByTenant(ctx context.Context, tenantID string) ([]*entities.Flow, error) {
	query := `
		SELECT id, tenant_id, name, COALESCE(description, ''), intent, keywords, steps, conditions, enabled
		FROM flows
		WHERE tenant_id = $1 AND enabled = true
		ORDER BY name ASC
	`

	rows, err := a.client.DB().QueryContext(ctx, query, tenantID)
	if err != nil {
		return nil, apperrors.NewInternalError("failed to get flows", err)
	}
	defer rows.Close()

	var flows []*entities.Flow
	for rows.Next() {
		f := &entities.Flow{}
		var stepsJSON, conditionsJSON []byte
		err := rows.Scan(
			&f.ID,
			&f.TenantID,
			&f.Name,
			&f.Description,
			&f.Intent,
			pq.Array(&f.Keywords),
			&stepsJSON,
			&conditionsJSON,
			&f.Enabled,
		)
		if err != nil {
			return nil, apperrors.NewInternalError("failed to scan flow", err)
		}

		if len(stepsJSON) > 0 {
			if err := json.Unmarshal(stepsJSON, &f.Steps); err != nil {
				return nil, apperrors.NewInternalError("failed to unmarshal flow steps", err)
			}
		}
		if len(conditionsJSON) > 0 {
			if err := json.Unmarshal(conditionsJSON, &f.Conditions); err != nil {
				return nil, apperrors.NewInternalError("failed to unmarshal flow conditions", err)
			}
		}

		flows = append(flows, f)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.NewInternalError("failed to read flows", err)
	}

	return flows, nil
}
