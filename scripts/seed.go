package main

import (
	"context"
	"encoding/json"
	"log"
	"os"

	"github.com/lib/pq"

	"github.com/carlwahlen/ai-navigation-api/internal/adapters/database"
	"github.com/carlwahlen/ai-navigation-api/internal/application/services"
	"github.com/carlwahlen/ai-navigation-api/internal/domain/entities"
	"github.com/carlwahlen/ai-navigation-api/internal/infrastructure/clients/postgres"
	"github.com/carlwahlen/ai-navigation-api/pkg/config"
)

const demoTenant = "demo"

func boolPtr(v bool) *bool { return &v }

const schema = `
CREATE TABLE IF NOT EXISTS query_events (
	id               UUID PRIMARY KEY,
	tenant_id        TEXT NOT NULL,
	query            TEXT NOT NULL,
	normalized_query TEXT NOT NULL,
	intent           TEXT NOT NULL,
	flow_id          TEXT NOT NULL,
	target_url       TEXT NOT NULL,
	session_id       TEXT,
	success          BOOLEAN NOT NULL DEFAULT FALSE,
	created_at       TIMESTAMPTZ NOT NULL DEFAULT NOW()
);
CREATE INDEX IF NOT EXISTS idx_query_events_tenant_normalized
	ON query_events (tenant_id, normalized_query);
CREATE INDEX IF NOT EXISTS idx_query_events_tenant_flow
	ON query_events (tenant_id, flow_id, created_at DESC);

CREATE TABLE IF NOT EXISTS sessions (
	id               UUID PRIMARY KEY,
	tenant_id        TEXT NOT NULL,
	current_flow_id  TEXT,
	current_step_id  TEXT,
	context          JSONB NOT NULL DEFAULT '{}',
	started_at       TIMESTAMPTZ NOT NULL DEFAULT NOW(),
	last_activity_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
	completed        BOOLEAN NOT NULL DEFAULT FALSE
);

CREATE TABLE IF NOT EXISTS flows (
	id          TEXT PRIMARY KEY,
	tenant_id   TEXT NOT NULL,
	name        TEXT NOT NULL,
	description TEXT,
	intent      TEXT NOT NULL,
	keywords    TEXT[] NOT NULL DEFAULT '{}',
	steps       JSONB NOT NULL DEFAULT '[]',
	conditions  JSONB,
	enabled     BOOLEAN NOT NULL DEFAULT TRUE
);
CREATE INDEX IF NOT EXISTS idx_flows_tenant ON flows (tenant_id) WHERE enabled;

CREATE TABLE IF NOT EXISTS content_items (
	id           TEXT PRIMARY KEY,
	tenant_id    TEXT NOT NULL,
	url          TEXT NOT NULL,
	title        TEXT NOT NULL,
	language     TEXT NOT NULL DEFAULT 'en',
	tags         TEXT[] NOT NULL DEFAULT '{}',
	content_type TEXT NOT NULL DEFAULT 'page',
	description  TEXT
);
CREATE INDEX IF NOT EXISTS idx_content_items_tenant ON content_items (tenant_id);

CREATE TABLE IF NOT EXISTS session_feedback (
	id          UUID PRIMARY KEY,
	session_id  TEXT NOT NULL,
	useful      BOOLEAN NOT NULL,
	reason      TEXT,
	correct_url TEXT,
	created_at  TIMESTAMPTZ NOT NULL DEFAULT NOW()
);
CREATE INDEX IF NOT EXISTS idx_session_feedback_session
	ON session_feedback (session_id, created_at DESC);
`

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	pgClient, err := postgres.NewClient(&cfg.Database)
	if err != nil {
		log.Fatalf("Failed to connect to DB: %v", err)
	}
	defer pgClient.Close()

	ctx := context.Background()

	if _, err := pgClient.DB().ExecContext(ctx, schema); err != nil {
		log.Fatalf("Failed to create schema: %v", err)
	}
	log.Println("Schema ensured")

	if os.Getenv("RESET_DB") == "true" {
		log.Println("RESET_DB=true detected, truncating tables before seeding")
		_, err := pgClient.DB().ExecContext(ctx, `
			TRUNCATE TABLE
				query_events,
				sessions,
				flows,
				content_items,
				session_feedback
		`)
		if err != nil {
			log.Fatalf("Failed to reset tables: %v", err)
		}
	}

	seedFlows(ctx, pgClient)
	seedContent(ctx, pgClient)
	seedQueries(ctx, pgClient)

	log.Println("Seeding complete")
}

func seedFlows(ctx context.Context, pgClient *postgres.Client) {
	flows := []entities.Flow{
		{
			ID:       "flow-password-reset",
			TenantID: demoTenant,
			Name:     "Password reset",
			Intent:   entities.IntentFindInformation,
			Keywords: []string{"password", "reset", "login"},
			Steps: []entities.Step{
				{ID: "step-guide", Type: entities.StepTypeContent, Title: "Reset guide", DirectURL: "/help/password-reset", Order: 1},
				{ID: "step-form", Type: entities.StepTypeForm, Title: "Request reset link", DirectURL: "/account/reset", Order: 2},
			},
			Enabled: true,
		},
		{
			ID:       "flow-contact-support",
			TenantID: demoTenant,
			Name:     "Contact support",
			Intent:   entities.IntentContactSupport,
			Keywords: []string{"support", "help", "agent"},
			Steps: []entities.Step{
				{ID: "step-contact", Type: entities.StepTypeContent, Title: "Contact options", DirectURL: "/support/contact", Order: 1},
			},
			Enabled: true,
		},
		{
			ID:       "flow-order-status",
			TenantID: demoTenant,
			Name:     "Order status",
			Intent:   entities.IntentCheckStatus,
			Keywords: []string{"order", "status", "tracking"},
			Steps: []entities.Step{
				{ID: "step-login", Type: entities.StepTypeLogin, Title: "Sign in", DirectURL: "/login", Order: 1,
					Conditions: &entities.StepConditions{LoggedIn: boolPtr(false)}},
				{ID: "step-orders", Type: entities.StepTypeContent, Title: "Your orders", DirectURL: "/account/orders", Order: 2},
			},
			Enabled: true,
		},
	}

	for _, f := range flows {
		steps, err := json.Marshal(f.Steps)
		if err != nil {
			log.Fatalf("Failed to marshal steps for flow %s: %v", f.ID, err)
		}
		_, err = pgClient.DB().ExecContext(ctx, `
			INSERT INTO flows (id, tenant_id, name, description, intent, keywords, steps, conditions, enabled)
			VALUES ($1, $2, $3, $4, $5, $6, $7, NULL, $8)
			ON CONFLICT (id) DO NOTHING
		`, f.ID, f.TenantID, f.Name, f.Description, f.Intent, pq.Array(f.Keywords), steps, f.Enabled)
		if err != nil {
			log.Printf("Failed to create flow %s: %v", f.Name, err)
		}
	}
	log.Printf("Seeded %d flows", len(flows))
}

func seedContent(ctx context.Context, pgClient *postgres.Client) {
	contentService := services.NewContentService(database.NewContentAdapter(pgClient))

	items := []*entities.ContentItem{
		{URL: "/help/password-reset", Title: "How to reset your password", Language: "en", Tags: []string{"account", "password"}, ContentType: "article"},
		{URL: "/support/contact", Title: "Contact support", Language: "en", Tags: []string{"support"}, ContentType: "page"},
		{URL: "/account/orders", Title: "Your orders", Language: "en", Tags: []string{"orders"}, ContentType: "page"},
	}

	count, err := contentService.IndexContent(ctx, demoTenant, items)
	if err != nil {
		log.Fatalf("Failed to index content: %v", err)
	}
	log.Printf("Indexed %d content items", count)
}

func seedQueries(ctx context.Context, pgClient *postgres.Client) {
	queryService := services.NewQueryService(database.NewQueryAdapter(pgClient), nil)

	observations := []struct {
		query   string
		flowID  string
		intent  string
		url     string
		success bool
	}{
		{"how do I reset my password", "flow-password-reset", entities.IntentFindInformation, "/help/password-reset", true},
		{"reset password", "flow-password-reset", entities.IntentFindInformation, "/help/password-reset", true},
		{"reset password", "flow-password-reset", entities.IntentFindInformation, "/help/password-reset", false},
		{"where is my order", "flow-order-status", entities.IntentCheckStatus, "/account/orders", true},
		{"talk to an agent", "flow-contact-support", entities.IntentContactSupport, "/support/contact", true},
	}

	for _, o := range observations {
		_, err := queryService.TrackQuery(ctx, services.TrackQueryInput{
			TenantID:  demoTenant,
			Query:     o.query,
			Intent:    o.intent,
			FlowID:    o.flowID,
			TargetURL: o.url,
			Success:   o.success,
		})
		if err != nil {
			log.Printf("Failed to track query %q: %v", o.query, err)
		}
	}
	log.Printf("Tracked %d seed queries", len(observations))
}
