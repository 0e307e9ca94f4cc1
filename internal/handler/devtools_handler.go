package handler

import (
	"net/http"

	"github.com/boddenberg/jjr-ops-go/internal/domain"
	"github.com/boddenberg/jjr-ops-go/internal/service"

	"go.uber.org/zap"
)

// ============================================================
// Dev Tools Handlers
// ============================================================

func devSeedHandler(svc *service.DevToolsService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "POST /v1/dev/seed")
		defer span.End()

		var req domain.DevSeedRequest
		if !decodeJSON(w, r, &req) {
			return
		}

		resp, err := svc.Seed(ctx, &req)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}

		writeJSON(w, http.StatusCreated, resp)
	}
}
