package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/carlwahlen/ai-navigation-api/internal/application/services"
)

// NavigationHandler handles navigation HTTP requests.
type NavigationHandler struct {
	service *services.NavigationService
}

// NewNavigationHandler creates a new navigation handler.
func NewNavigationHandler(service *services.NavigationService) *NavigationHandler {
	return &NavigationHandler{service: service}
}

// Navigate handles POST /v1/navigate
func (h *NavigationHandler) Navigate(w http.ResponseWriter, r *http.Request) {
	var in services.NavigateInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		respondWithError(w, http.StatusBadRequest, "invalid request payload")
		return
	}
	if in.TenantID == "" {
		in.TenantID = tenantID(r)
	}

	result, err := h.service.Navigate(r.Context(), in)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	respondWithJSON(w, http.StatusOK, result)
}

// Continue handles POST /v1/navigate/continue
func (h *NavigationHandler) Continue(w http.ResponseWriter, r *http.Request) {
	var in services.ContinueInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		respondWithError(w, http.StatusBadRequest, "invalid request payload")
		return
	}
	if in.TenantID == "" {
		in.TenantID = tenantID(r)
	}

	result, err := h.service.Continue(r.Context(), in)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	respondWithJSON(w, http.StatusOK, result)
}
