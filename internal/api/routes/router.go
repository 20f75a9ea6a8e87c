package routes

import (
	"net/http"

	"github.com/carlwahlen/ai-navigation-api/internal/api/handlers"
	"github.com/carlwahlen/ai-navigation-api/internal/api/middleware"
	"github.com/carlwahlen/ai-navigation-api/internal/infrastructure/observability"
)

// Router holds all route handlers
type Router struct {
	mux *http.ServeMux

	navigationHandler *handlers.NavigationHandler
	queryHandler      *handlers.QueryHandler
	feedbackHandler   *handlers.FeedbackHandler
	contentHandler    *handlers.ContentHandler
	streamHandler     *handlers.StreamHandler

	metrics *observability.Metrics
}

// NewRouter creates a new router
func NewRouter(
	navigationHandler *handlers.NavigationHandler,
	queryHandler *handlers.QueryHandler,
	feedbackHandler *handlers.FeedbackHandler,
	contentHandler *handlers.ContentHandler,
	streamHandler *handlers.StreamHandler,
	metrics *observability.Metrics,
) *Router {
	return &Router{
		mux:               http.NewServeMux(),
		navigationHandler: navigationHandler,
		queryHandler:      queryHandler,
		feedbackHandler:   feedbackHandler,
		contentHandler:    contentHandler,
		streamHandler:     streamHandler,
		metrics:           metrics,
	}
}

// SetupRoutes configures all application routes
func (r *Router) SetupRoutes() http.Handler {
	// Health check endpoint
	r.mux.HandleFunc("GET /health", func(w http.ResponseWriter, req *http.Request) {
		w.WriteHeader(http.StatusOK)
		if _, err := w.Write([]byte("OK")); err != nil {
			return
		}
	})

	// Navigation endpoints
	r.mux.HandleFunc("POST /v1/navigate", r.navigationHandler.Navigate)
	r.mux.HandleFunc("POST /v1/navigate/continue", r.navigationHandler.Continue)

	// Query log endpoints
	r.mux.HandleFunc("POST /v1/queries", r.queryHandler.TrackQuery)
	r.mux.HandleFunc("GET /v1/queries", r.queryHandler.GetTopQueries)
	r.mux.HandleFunc("GET /v1/queries/priority", r.queryHandler.GetQueryPriority)
	r.mux.HandleFunc("GET /v1/queries/stats", r.queryHandler.GetStats)
	r.mux.HandleFunc("GET /v1/queries/export", r.queryHandler.ExportQueries)
	r.mux.HandleFunc("GET /v1/flows/{id}/queries", r.queryHandler.GetQueriesForFlow)

	// Live query stream
	if r.streamHandler != nil {
		r.mux.HandleFunc("GET /v1/queries/stream", r.streamHandler.StreamQueries)
	}

	// Feedback endpoints
	r.mux.HandleFunc("POST /v1/feedback", r.feedbackHandler.SubmitFeedback)
	r.mux.HandleFunc("GET /v1/sessions/{id}/feedback", r.feedbackHandler.GetSessionFeedback)

	// Content index endpoints
	r.mux.HandleFunc("POST /v1/content/index", r.contentHandler.IndexContent)
	r.mux.HandleFunc("GET /v1/content", r.contentHandler.GetContent)

	// Apply middleware in reverse order (last middleware wraps first)
	var handler http.Handler = r.mux
	handler = middleware.LoggingMiddleware(handler)
	handler = middleware.ObservabilityMiddleware(r.metrics)(handler)
	handler = middleware.CORSMiddleware(handler)

	return handler
}
