package handlers

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/carlwahlen/ai-navigation-api/internal/application/services"
)

// FeedbackHandler handles feedback submissions.
type FeedbackHandler struct {
	service *services.FeedbackService
}

// NewFeedbackHandler creates a new feedback handler.
func NewFeedbackHandler(service *services.FeedbackService) *FeedbackHandler {
	return &FeedbackHandler{service: service}
}

// SubmitFeedback handles POST /v1/feedback
func (h *FeedbackHandler) SubmitFeedback(w http.ResponseWriter, r *http.Request) {
	var in services.FeedbackInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		respondWithError(w, http.StatusBadRequest, "invalid request payload")
		return
	}
	if in.TenantID == "" {
		in.TenantID = tenantID(r)
	}

	in.Reason = strings.TrimSpace(in.Reason)
	if len(in.Reason) > 1000 {
		respondWithError(w, http.StatusBadRequest, "reason is too long")
		return
	}

	feedback, err := h.service.SubmitFeedback(r.Context(), in)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	respondWithJSON(w, http.StatusCreated, feedback)
}

// GetSessionFeedback handles GET /v1/sessions/{id}/feedback
func (h *FeedbackHandler) GetSessionFeedback(w http.ResponseWriter, r *http.Request) {
	sessionID := r.PathValue("id")
	if sessionID == "" {
		respondWithError(w, http.StatusBadRequest, "session ID is required")
		return
	}

	items, err := h.service.GetBySession(r.Context(), tenantID(r), sessionID)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	respondWithJSON(w, http.StatusOK, map[string]interface{}{
		"feedback": items,
		"count":    len(items),
	})
}
