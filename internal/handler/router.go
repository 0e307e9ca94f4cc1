package handler

import (
	"net/http"

	"github.com/boddenberg/jjr-ops-go/internal/infra/observability"
	"github.com/boddenberg/jjr-ops-go/internal/port"
	"github.com/boddenberg/jjr-ops-go/internal/service"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/otel"
	"go.uber.org/zap"
)

var tracer = otel.Tracer("handler")

// Services bundles everything the router dispatches to. DevTools is nil
// unless seeding is enabled.
type Services struct {
	Jobs      *service.JobsService
	Leads     *service.LeadsService
	Contracts *service.ContractsService
	Reports   *service.ReportsService
	Assistant *service.Assistant
	Auth      *service.AuthService
	SalesReps *service.SalesRepsService
	DevTools  *service.DevToolsService

	// Store is probed by /healthz.
	Store port.Pinger
}

// Options toggles router behavior from config.
type Options struct {
	AuthRequired       bool
	AssistantPerMinute int
}

// NewRouter creates the HTTP router with all routes and middleware.
func NewRouter(svc Services, opts Options, metrics *observability.Metrics, logger *zap.Logger) http.Handler {
	r := chi.NewRouter()

	// --- Middleware ---
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(observability.TracingMiddleware)
	r.Use(observability.ZapLoggerMiddleware(logger))
	r.Use(middleware.Recoverer)
	r.Use(middleware.Heartbeat("/ping"))

	// --- Operational endpoints ---
	r.Get("/healthz", healthzHandler(svc.Store, logger))
	r.Get("/readyz", readyzHandler())
	r.Handle("/metrics", promhttp.HandlerFor(metrics.Registry, promhttp.HandlerOpts{}))

	assistantLimiter := NewIPRateLimiter(opts.AssistantPerMinute, logger)

	r.Route("/v1", func(r chi.Router) {
		// Auth endpoints that issue tokens stay public.
		r.Post("/auth/login", loginHandler(svc.Auth, logger))
		r.Post("/auth/refresh", refreshHandler(svc.Auth, logger))

		r.Group(func(r chi.Router) {
			if opts.AuthRequired {
				r.Use(JWTAuthMiddleware(svc.Auth, logger))
			}

			r.Post("/auth/logout", logoutHandler(svc.Auth, logger))
			r.Get("/metrics/assistant", assistantMetricsHandler(metrics))
			r.Get("/phases", listPhasesHandler())

			// Jobs
			r.Route("/jobs", func(r chi.Router) {
				r.Get("/", listJobsHandler(svc.Jobs, logger))
				r.Post("/", createJobHandler(svc.Jobs, logger))
				r.Post("/legacy-import", legacyImportHandler(svc.Jobs, logger))

				r.Route("/{jobId}", func(r chi.Router) {
					r.Get("/", getJobHandler(svc.Jobs, logger))
					r.Patch("/", updateJobHandler(svc.Jobs, logger))
					r.Put("/phase", setPhaseHandler(svc.Jobs, logger))
					r.Patch("/financials", setFinancialFieldHandler(svc.Jobs, logger))
					r.Post("/supplements", addSupplementHandler(svc.Jobs, logger))
					r.Patch("/supplements/{supplementId}", updateSupplementHandler(svc.Jobs, logger))
					r.Delete("/supplements/{supplementId}", deleteSupplementHandler(svc.Jobs, logger))
					r.With(assistantLimiter.Middleware).Post("/assistant", assistantHandler(svc.Assistant, logger))
				})
			})

			// Leads
			r.Route("/leads", func(r chi.Router) {
				r.Get("/", listLeadsHandler(svc.Leads, logger))
				r.Post("/", createLeadHandler(svc.Leads, logger))

				r.Route("/{leadId}", func(r chi.Router) {
					r.Get("/", getLeadHandler(svc.Leads, logger))
					r.Put("/", updateLeadHandler(svc.Leads, logger))
					r.Delete("/", deleteLeadHandler(svc.Leads, logger))
					r.Put("/status", updateLeadStatusHandler(svc.Leads, logger))
					r.Post("/contract", createContractHandler(svc.Contracts, logger))
					r.Post("/convert", convertLeadHandler(svc.Contracts, logger))
				})
			})

			// Contracts
			r.Route("/contracts", func(r chi.Router) {
				r.Get("/", listContractsHandler(svc.Contracts, logger))

				r.Route("/{contractId}", func(r chi.Router) {
					r.Get("/", getContractHandler(svc.Contracts, logger))
					r.Put("/", updateContractHandler(svc.Contracts, logger))
					r.Post("/line-items", addLineItemHandler(svc.Contracts, logger))
					r.Patch("/line-items/{itemId}", setLineItemFieldHandler(svc.Contracts, logger))
					r.Delete("/line-items/{itemId}", removeLineItemHandler(svc.Contracts, logger))
					r.Put("/signatures/{slot}", signContractHandler(svc.Contracts, logger))
					r.Put("/status", setContractStatusHandler(svc.Contracts, logger))
					r.Get("/pdf", contractPDFHandler(svc.Contracts, logger))
					r.Post("/send", sendContractHandler(svc.Contracts, logger))
				})
			})

			// Reports
			r.Get("/reports/dashboard", dashboardHandler(svc.Reports, logger))
			r.Get("/reports/pnl", profitAndLossHandler(svc.Reports, logger))
			r.Get("/reports/pnl.xlsx", exportProfitAndLossHandler(svc.Reports, logger))

			// Sales reps
			r.Get("/sales-reps", listSalesRepsHandler(svc.SalesReps, logger))
			r.Post("/sales-reps", createSalesRepHandler(svc.SalesReps, logger))
			r.Put("/sales-reps/{repId}", updateSalesRepHandler(svc.SalesReps, logger))
			r.Put("/sales-reps/{repId}/password", setPasswordHandler(svc.Auth, logger))

			if svc.DevTools != nil {
				r.Post("/dev/seed", devSeedHandler(svc.DevTools, logger))
			}
		})
	})

	return r
}
