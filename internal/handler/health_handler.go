package handler

import (
	"net/http"
	"time"

	"github.com/boddenberg/jjr-ops-go/internal/domain"
	"github.com/boddenberg/jjr-ops-go/internal/infra/observability"
	"github.com/boddenberg/jjr-ops-go/internal/port"

	"go.uber.org/zap"
)

// ============================================================
// Operational endpoints
// ============================================================

func healthzHandler(store port.Pinger, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		now := time.Now().Format(time.RFC3339)

		services := []domain.ServiceHealth{
			{Name: "jjr-api", Status: "healthy", LastChecked: now},
		}
		mode := domain.StoreLocal

		if store != nil {
			start := time.Now()
			err := store.Ping(ctx)
			latency := time.Since(start).Milliseconds()

			if s, ok := store.(port.StoreStatus); ok {
				mode = s.Mode()
			}
			sh := domain.ServiceHealth{Name: "store", Status: "healthy", LatencyMs: latency, LastChecked: now}
			switch {
			case err != nil:
				logger.Warn("health: store ping failed", zap.Error(err))
				sh.Status = "degraded"
				sh.Detail = err.Error()
			case mode == domain.StoreDisconnected:
				sh.Status = "degraded"
				sh.Detail = "serving from local mirror"
			}
			services = append(services, sh)
		}

		overallStatus := "healthy"
		for _, s := range services {
			if s.Status == "unhealthy" {
				overallStatus = "unhealthy"
				break
			}
			if s.Status == "degraded" {
				overallStatus = "degraded"
			}
		}

		writeJSON(w, http.StatusOK, domain.HealthStatus{
			Status:    overallStatus,
			StoreMode: mode,
			Services:  services,
		})
	}
}

func readyzHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
	}
}

func assistantMetricsHandler(metrics *observability.Metrics) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, metrics.GetAssistantSnapshot())
	}
}

func listPhasesHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, domain.Phases())
	}
}
