package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/boddenberg/jjr-ops-go/internal/config"
	"github.com/boddenberg/jjr-ops-go/internal/domain"
	"github.com/boddenberg/jjr-ops-go/internal/handler"
	"github.com/boddenberg/jjr-ops-go/internal/infra/ai"
	"github.com/boddenberg/jjr-ops-go/internal/infra/cache"
	"github.com/boddenberg/jjr-ops-go/internal/infra/fallback"
	"github.com/boddenberg/jjr-ops-go/internal/infra/mail"
	"github.com/boddenberg/jjr-ops-go/internal/infra/memory"
	"github.com/boddenberg/jjr-ops-go/internal/infra/observability"
	"github.com/boddenberg/jjr-ops-go/internal/infra/pdf"
	"github.com/boddenberg/jjr-ops-go/internal/infra/resilience"
	"github.com/boddenberg/jjr-ops-go/internal/infra/scheduler"
	"github.com/boddenberg/jjr-ops-go/internal/infra/supabase"
	"github.com/boddenberg/jjr-ops-go/internal/port"
	"github.com/boddenberg/jjr-ops-go/internal/service"

	"go.uber.org/zap"
)

func main() {
	// --- Load .env file (for local development) ---
	_ = config.LoadDotEnv(".env")

	// --- Config ---
	cfg := config.Load()

	// --- Logger ---
	logger := observability.NewLogger(cfg.LogLevel)
	defer logger.Sync()

	logger.Info("configuration loaded",
		zap.Int("port", cfg.Port),
		zap.String("log_level", cfg.LogLevel),
		zap.Bool("use_supabase", cfg.SupabaseEnabled()),
		zap.String("ai_provider", cfg.AIProvider),
		zap.Duration("http_timeout", cfg.HTTPTimeout),
		zap.Duration("cache_ttl", cfg.CacheTTL),
		zap.Int("max_retries", cfg.MaxRetries),
		zap.Duration("initial_backoff", cfg.InitialBackoff),
		zap.Int("stuck_after_days", cfg.StuckAfterDays),
		zap.Bool("auth_required", cfg.AuthRequired),
		zap.Bool("dev_tools", cfg.DevTools),
	)

	ctx := context.Background()

	// --- Tracing ---
	shutdown, err := observability.InitTracer(cfg.OTLPEndpoint, observability.ServiceName)
	if err != nil {
		logger.Fatal("failed to init tracer", zap.Error(err))
	}
	defer shutdown(context.Background())

	// --- Metrics ---
	metrics := observability.NewMetrics()

	// --- Resilience ---
	resilienceCfg := resilience.Config{
		MaxRetries:     cfg.MaxRetries,
		InitialBackoff: cfg.InitialBackoff,
		MaxConcurrency: cfg.MaxConcurrency,
	}
	httpClient := &http.Client{Timeout: cfg.HTTPTimeout}

	// --- Store ---
	store := buildStore(ctx, cfg, httpClient, resilienceCfg, metrics, logger)

	// --- Cache ---
	var assistantCache port.Cache[*domain.CompletionResult] = cache.New[*domain.CompletionResult](cfg.CacheTTL)
	var repsCache port.Cache[[]domain.SalesRep] = cache.New[[]domain.SalesRep](cfg.CacheTTL)
	if cfg.RedisURL != "" {
		rdb, err := cache.NewRedisClient(ctx, cfg.RedisURL)
		if err != nil {
			logger.Warn("redis unavailable, using in-memory cache", zap.Error(err))
		} else {
			defer rdb.Close()
			assistantCache = cache.NewRedis[*domain.CompletionResult](rdb, "jjr:assistant", cfg.CacheTTL, logger)
			repsCache = cache.NewRedis[[]domain.SalesRep](rdb, "jjr:reps", cfg.CacheTTL, logger)
			logger.Info("redis cache enabled")
		}
	}

	// --- Optional collaborators ---
	completer := buildCompleter(ctx, cfg, resilienceCfg, logger)

	var renderer port.ContractRenderer
	if cfg.GotenbergURL != "" {
		renderer = pdf.NewGotenberg(httpClient, cfg.GotenbergURL, resilience.NewCircuitBreaker("gotenberg"), resilienceCfg)
		logger.Info("contract pdf rendering enabled", zap.String("gotenberg_url", cfg.GotenbergURL))
	} else {
		logger.Warn("GOTENBERG_URL not set, contract pdf and email unavailable")
	}

	var mailer port.Mailer
	if cfg.SMTPHost != "" {
		mailer = mail.NewSMTPMailer(mail.Config{
			Host:      cfg.SMTPHost,
			Port:      cfg.SMTPPort,
			Username:  cfg.SMTPUsername,
			Password:  cfg.SMTPPassword,
			FromEmail: cfg.SMTPFrom,
			FromName:  cfg.SMTPFromName,
		}, logger)
	} else {
		logger.Warn("SMTP_HOST not set, contract email unavailable")
	}

	// --- Services ---
	jobsSvc := service.NewJobsService(store, metrics, cfg.StuckAfterDays, logger)
	leadsSvc := service.NewLeadsService(store, logger)
	svc := handler.Services{
		Jobs:      jobsSvc,
		Leads:     leadsSvc,
		Contracts: service.NewContractsService(store, jobsSvc, renderer, mailer, metrics, logger),
		Reports:   service.NewReportsService(store, logger),
		Assistant: service.NewAssistant(store, completer, assistantCache, metrics, logger),
		Auth:      service.NewAuthService(store, cfg.JWTSecret, cfg.JWTAccessTTL, cfg.JWTRefreshTTL, logger),
		SalesReps: service.NewSalesRepsService(store, repsCache, metrics, logger),
		Store:     store,
	}
	if cfg.DevTools {
		svc.DevTools = service.NewDevToolsService(leadsSvc, jobsSvc, logger)
		logger.Warn("dev tools enabled")
	}

	// --- Scheduler ---
	sched := scheduler.New(logger)
	agePhases := func(ctx context.Context) error {
		n, err := jobsSvc.AgePhases(ctx)
		if err != nil {
			return err
		}
		logger.Info("phase aging finished", zap.Int("jobs_updated", n))
		return nil
	}
	if err := sched.Add("phase-aging", cfg.PhaseAgingCron, 5*time.Minute, agePhases); err != nil {
		logger.Fatal("invalid PHASE_AGING_CRON", zap.String("spec", cfg.PhaseAgingCron), zap.Error(err))
	}
	sched.Start()
	go sched.RunNow("phase-aging", 5*time.Minute, agePhases)

	// --- Router ---
	router := handler.NewRouter(svc, handler.Options{
		AuthRequired:       cfg.AuthRequired,
		AssistantPerMinute: cfg.AIRatePerMinute,
	}, metrics, logger)

	// --- Server ---
	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// --- Graceful shutdown ---
	go func() {
		logger.Info("server starting", zap.Int("port", cfg.Port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("server failed", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("server shutting down...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	sched.Stop(shutdownCtx)
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Fatal("server forced shutdown", zap.Error(err))
	}

	logger.Info("server stopped")
}

// buildStore returns Supabase behind the local mirror when configured, or
// the in-memory store alone.
func buildStore(ctx context.Context, cfg *config.Config, httpClient *http.Client, rcfg resilience.Config, metrics *observability.Metrics, logger *zap.Logger) port.Store {
	mirror := memory.New()
	if !cfg.SupabaseEnabled() {
		logger.Warn("Supabase not configured, data lives in memory only")
		return mirror
	}

	logger.Info("using Supabase as data backend", zap.String("supabase_url", cfg.SupabaseURL))
	remote := supabase.NewClient(
		httpClient,
		cfg.SupabaseURL,
		cfg.SupabaseAnonKey,
		cfg.SupabaseServiceKey,
		resilience.NewCircuitBreaker("supabase"),
		rcfg,
		logger,
	)
	store := fallback.New(remote, mirror, metrics, logger)
	if err := store.Connect(ctx); err != nil {
		logger.Warn("Supabase unreachable at startup, serving from local mirror", zap.Error(err))
	}
	return store
}

// buildCompleter picks the assistant provider. A nil result leaves the
// assistant endpoint answering 503.
func buildCompleter(ctx context.Context, cfg *config.Config, rcfg resilience.Config, logger *zap.Logger) port.Completer {
	switch cfg.AIProvider {
	case "openai":
		if cfg.OpenAIAPIKey == "" {
			break
		}
		logger.Info("assistant provider: openai", zap.String("model", cfg.OpenAIModel))
		return ai.NewOpenAI(cfg.OpenAIAPIKey, cfg.OpenAIModel, "", resilience.NewCircuitBreaker("openai"), rcfg, logger)
	case "gemini":
		if cfg.GeminiAPIKey == "" {
			break
		}
		g, err := ai.NewGemini(ctx, ai.GeminiOptions{APIKey: cfg.GeminiAPIKey, Model: cfg.GeminiModel}, resilience.NewCircuitBreaker("gemini"), rcfg, logger)
		if err != nil {
			logger.Error("gemini client init failed", zap.Error(err))
			return nil
		}
		logger.Info("assistant provider: gemini", zap.String("model", cfg.GeminiModel))
		return g
	default:
		logger.Warn("unknown AI_PROVIDER", zap.String("provider", cfg.AIProvider))
		return nil
	}
	logger.Warn("assistant API key missing, assistant unavailable", zap.String("provider", cfg.AIProvider))
	return nil
}
