package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/carlwahlen/ai-navigation-api/internal/application/services"
	"github.com/carlwahlen/ai-navigation-api/internal/domain/entities"
)

// ContentHandler manages the per-tenant content index.
type ContentHandler struct {
	service *services.ContentService
}

// NewContentHandler creates a new content handler.
func NewContentHandler(service *services.ContentService) *ContentHandler {
	return &ContentHandler{service: service}
}

type indexContentRequest struct {
	TenantID string                  `json:"tenant_id"`
	Items    []*entities.ContentItem `json:"items"`
}

// IndexContent handles POST /v1/content/index
func (h *ContentHandler) IndexContent(w http.ResponseWriter, r *http.Request) {
	var req indexContentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, "invalid request payload")
		return
	}
	if req.TenantID == "" {
		req.TenantID = tenantID(r)
	}

	indexed, err := h.service.IndexContent(r.Context(), req.TenantID, req.Items)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	respondWithJSON(w, http.StatusOK, map[string]interface{}{
		"indexed": indexed,
	})
}

// GetContent handles GET /v1/content
func (h *ContentHandler) GetContent(w http.ResponseWriter, r *http.Request) {
	items, err := h.service.GetContent(r.Context(), tenantID(r))
	if err != nil {
		handleServiceError(w, err)
		return
	}

	respondWithJSON(w, http.StatusOK, map[string]interface{}{
		"items": items,
		"count": len(items),
	})
}
