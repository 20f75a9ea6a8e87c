package main

import (
	"context"
	"encoding/json"
	"flag"
	"log"
	"os"
	"time"

	"github.com/carlwahlen/ai-navigation-api/internal/adapters/database"
	"github.com/carlwahlen/ai-navigation-api/internal/application/services"
	"github.com/carlwahlen/ai-navigation-api/internal/infrastructure/clients/postgres"
	"github.com/carlwahlen/ai-navigation-api/pkg/config"
)

// Exports a tenant's aggregated query frequencies as JSON, for feeding
// synthetic test data generation. Aggregates only: no raw queries, sessions
// or timestamps beyond last use.
func main() {
	var tenantID string
	var outPath string

	flag.StringVar(&tenantID, "tenant", "", "Tenant ID to export (required)")
	flag.StringVar(&outPath, "out", "-", "Output file, or - for stdout")
	flag.Parse()

	if tenantID == "" {
		log.Fatal("the -tenant flag is required")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	pgClient, err := postgres.NewClient(&cfg.Database)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer pgClient.Close()

	svc := services.NewQueryService(database.NewQueryAdapter(pgClient), nil)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	freqs, err := svc.ExportForSyntheticGeneration(ctx, tenantID)
	if err != nil {
		log.Fatalf("Export failed: %v", err)
	}

	out := os.Stdout
	if outPath != "-" {
		f, err := os.Create(outPath)
		if err != nil {
			log.Fatalf("Failed to create output file: %v", err)
		}
		defer f.Close()
		out = f
	}

	encoder := json.NewEncoder(out)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(map[string]interface{}{
		"tenant_id":   tenantID,
		"exported_at": time.Now().UTC(),
		"count":       len(freqs),
		"queries":     freqs,
	}); err != nil {
		log.Fatalf("Failed to write export: %v", err)
	}

	log.Printf("Exported %d query aggregates for tenant %s", len(freqs), tenantID)
}
