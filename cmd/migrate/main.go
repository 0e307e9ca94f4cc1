// Command migrate applies the embedded Postgres schema to the Supabase
// database.
//
//	migrate [up|down|redo|reset|status|version]
package main

import (
	"context"
	"flag"
	"os"
	"time"

	"github.com/boddenberg/jjr-ops-go/internal/config"
	"github.com/boddenberg/jjr-ops-go/internal/infra/observability"
	"github.com/boddenberg/jjr-ops-go/internal/infra/postgres"

	"go.uber.org/zap"
)

func main() {
	_ = config.LoadDotEnv(".env")
	cfg := config.Load()

	logger := observability.NewLogger(cfg.LogLevel)
	defer logger.Sync()

	timeout := flag.Duration("timeout", 2*time.Minute, "overall migration timeout")
	flag.Parse()

	command := "up"
	if flag.NArg() > 0 {
		command = flag.Arg(0)
	}

	if cfg.DatabaseURL == "" {
		logger.Fatal("DATABASE_URL is required")
	}

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	db, err := postgres.Open(ctx, cfg.DatabaseURL)
	if err != nil {
		logger.Fatal("database connection failed", zap.Error(err))
	}
	defer db.Close()

	if err := postgres.Command(ctx, db, command, logger); err != nil {
		logger.Error("migration failed", zap.String("command", command), zap.Error(err))
		db.Close()
		os.Exit(1)
	}
	logger.Info("migration finished", zap.String("command", command))
}
