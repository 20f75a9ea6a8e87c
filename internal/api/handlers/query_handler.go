package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/carlwahlen/ai-navigation-api/internal/application/services"
)

// QueryHandler exposes the query log: tracking, frequencies, priority
// scores, stats and the aggregate export.
type QueryHandler struct {
	service *services.QueryService
	tracker *services.QueryTracker
}

// NewQueryHandler creates a new query handler. tracker may be nil, in which
// case tracking writes synchronously.
func NewQueryHandler(service *services.QueryService, tracker *services.QueryTracker) *QueryHandler {
	return &QueryHandler{service: service, tracker: tracker}
}

// TrackQuery handles POST /v1/queries
//
// Validation runs before anything is queued; a valid request is accepted and
// written in the background.
func (h *QueryHandler) TrackQuery(w http.ResponseWriter, r *http.Request) {
	var in services.TrackQueryInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		respondWithError(w, http.StatusBadRequest, "invalid request payload")
		return
	}
	if in.TenantID == "" {
		in.TenantID = tenantID(r)
	}

	if h.tracker != nil {
		if err := h.tracker.Track(r.Context(), in); err != nil {
			handleServiceError(w, err)
			return
		}
		respondWithJSON(w, http.StatusAccepted, map[string]string{"status": "accepted"})
		return
	}

	event, err := h.service.TrackQuery(r.Context(), in)
	if err != nil {
		handleServiceError(w, err)
		return
	}
	respondWithJSON(w, http.StatusCreated, event)
}

// GetTopQueries handles GET /v1/queries
func (h *QueryHandler) GetTopQueries(w http.ResponseWriter, r *http.Request) {
	limit := parseLimit(r, 0)

	freqs, err := h.service.GetTopQueries(r.Context(), tenantID(r), limit)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	respondWithJSON(w, http.StatusOK, map[string]interface{}{
		"queries": freqs,
		"count":   len(freqs),
	})
}

// GetQueriesForFlow handles GET /v1/flows/{id}/queries
func (h *QueryHandler) GetQueriesForFlow(w http.ResponseWriter, r *http.Request) {
	flowID := r.PathValue("id")
	if flowID == "" {
		respondWithError(w, http.StatusBadRequest, "flow ID is required")
		return
	}

	events, err := h.service.GetQueriesForFlow(r.Context(), tenantID(r), flowID, parseLimit(r, 0))
	if err != nil {
		handleServiceError(w, err)
		return
	}

	respondWithJSON(w, http.StatusOK, map[string]interface{}{
		"queries": events,
		"count":   len(events),
	})
}

// GetQueryPriority handles GET /v1/queries/priority
func (h *QueryHandler) GetQueryPriority(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query().Get("q")
	if query == "" {
		respondWithError(w, http.StatusBadRequest, "q is required")
		return
	}

	score, err := h.service.GetQueryPriority(r.Context(), tenantID(r), query)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	respondWithJSON(w, http.StatusOK, map[string]interface{}{
		"query":    query,
		"priority": score,
	})
}

// GetStats handles GET /v1/queries/stats
func (h *QueryHandler) GetStats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.service.GetStats(r.Context(), tenantID(r))
	if err != nil {
		handleServiceError(w, err)
		return
	}

	respondWithJSON(w, http.StatusOK, stats)
}

// ExportQueries handles GET /v1/queries/export
func (h *QueryHandler) ExportQueries(w http.ResponseWriter, r *http.Request) {
	freqs, err := h.service.ExportForSyntheticGeneration(r.Context(), tenantID(r))
	if err != nil {
		handleServiceError(w, err)
		return
	}

	respondWithJSON(w, http.StatusOK, map[string]interface{}{
		"queries": freqs,
		"count":   len(freqs),
	})
}

func parseLimit(r *http.Request, fallback int) int {
	raw := r.URL.Query().Get("limit")
	if raw == "" {
		return fallback
	}
	limit, err := strconv.Atoi(raw)
	if err != nil || limit < 0 {
		return fallback
	}
	return limit
}
