package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/carlwahlen/ai-navigation-api/internal/domain/providers"
	"github.com/carlwahlen/ai-navigation-api/internal/infrastructure/observability"
)

const streamHeartbeatInterval = 30 * time.Second

// StreamHandler pushes tracked-query events to clients over Server-Sent
// Events.
type StreamHandler struct {
	eventBus providers.EventBus
}

// NewStreamHandler creates a new stream handler.
func NewStreamHandler(eventBus providers.EventBus) *StreamHandler {
	return &StreamHandler{eventBus: eventBus}
}

// StreamQueries handles GET /v1/queries/stream
//
// With a tenant set the stream is scoped to that tenant's channel, otherwise
// it carries every tracked query.
func (h *StreamHandler) StreamQueries(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		respondWithError(w, http.StatusInternalServerError, "streaming not supported")
		return
	}

	channel := providers.EventChannelQueriesTracked
	if tenant := tenantID(r); tenant != "" {
		channel = providers.GetTenantChannel(tenant)
	}

	events, err := h.eventBus.Subscribe(r.Context(), channel)
	if err != nil {
		observability.LoggerFromContext(r.Context()).Error().Err(err).Str("channel", channel).Msg("failed to subscribe to query stream")
		respondWithError(w, http.StatusInternalServerError, "failed to subscribe")
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	sendEvent(w, "connected", map[string]interface{}{
		"channel":   channel,
		"timestamp": time.Now().UTC(),
	})
	flusher.Flush()

	heartbeat := time.NewTicker(streamHeartbeatInterval)
	defer heartbeat.Stop()

	for {
		select {
		case <-r.Context().Done():
			return
		case <-heartbeat.C:
			fmt.Fprint(w, ": heartbeat\n\n")
			flusher.Flush()
		case event, ok := <-events:
			if !ok {
				return
			}
			sendEvent(w, "query_tracked", event)
			flusher.Flush()
		}
	}
}

func sendEvent(w http.ResponseWriter, eventType string, payload interface{}) {
	data, err := json.Marshal(payload)
	if err != nil {
		return
	}
	fmt.Fprintf(w, "event: %s\ndata: %s\n\n", eventType, data)
}
