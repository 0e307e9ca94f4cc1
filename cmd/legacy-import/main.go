// Command legacy-import loads the historical job spreadsheet into Supabase
// as legacy jobs.
//
//	legacy-import -file jobs.xlsx [-dry-run]
package main

import (
	"context"
	"flag"
	"net/http"
	"os"
	"time"

	"github.com/boddenberg/jjr-ops-go/internal/config"
	"github.com/boddenberg/jjr-ops-go/internal/infra/export"
	"github.com/boddenberg/jjr-ops-go/internal/infra/observability"
	"github.com/boddenberg/jjr-ops-go/internal/infra/resilience"
	"github.com/boddenberg/jjr-ops-go/internal/infra/supabase"
	"github.com/boddenberg/jjr-ops-go/internal/money"
	"github.com/boddenberg/jjr-ops-go/internal/service"

	"go.uber.org/zap"
)

func main() {
	_ = config.LoadDotEnv(".env")
	cfg := config.Load()

	logger := observability.NewLogger(cfg.LogLevel)
	defer logger.Sync()

	file := flag.String("file", "", "path to the historical .xlsx sheet")
	dryRun := flag.Bool("dry-run", false, "parse and report without writing")
	flag.Parse()

	if *file == "" {
		flag.Usage()
		os.Exit(2)
	}

	f, err := os.Open(*file)
	if err != nil {
		logger.Fatal("open sheet", zap.Error(err))
	}
	records, err := export.ReadLegacyRecords(f)
	f.Close()
	if err != nil {
		logger.Fatal("read sheet", zap.String("file", *file), zap.Error(err))
	}

	revenue := 0.0
	for _, r := range records {
		revenue += r.Revenue
	}
	logger.Info("legacy sheet parsed",
		zap.Int("records", len(records)),
		zap.String("revenue", money.Dollars(revenue)),
	)
	if *dryRun {
		return
	}

	if !cfg.SupabaseEnabled() {
		logger.Fatal("SUPABASE_URL and SUPABASE_ANON_KEY are required for the import")
	}

	store := supabase.NewClient(
		&http.Client{Timeout: cfg.HTTPTimeout},
		cfg.SupabaseURL,
		cfg.SupabaseAnonKey,
		cfg.SupabaseServiceKey,
		resilience.NewCircuitBreaker("supabase"),
		resilience.Config{MaxRetries: cfg.MaxRetries, InitialBackoff: cfg.InitialBackoff, MaxConcurrency: cfg.MaxConcurrency},
		logger,
	)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
	defer cancel()

	jobs := service.NewJobsService(store, observability.NewMetrics(), cfg.StuckAfterDays, logger)
	imported, err := jobs.ImportLegacy(ctx, records)
	if err != nil {
		logger.Fatal("import failed", zap.Int("imported", len(imported)), zap.Error(err))
	}

	for _, j := range imported {
		logger.Debug("legacy job imported", zap.String("job_number", j.JobNumber), zap.String("client", j.Client.Name))
	}
	logger.Info("legacy import finished", zap.Int("jobs", len(imported)))
}
