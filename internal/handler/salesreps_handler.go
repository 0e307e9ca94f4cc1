package handler

import (
	"net/http"

	"github.com/boddenberg/jjr-ops-go/internal/domain"
	"github.com/boddenberg/jjr-ops-go/internal/service"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// ============================================================
// Sales reps: /v1/sales-reps
// ============================================================

// listSalesRepsHandler returns active reps; ?all=true includes inactive ones.
func listSalesRepsHandler(svc *service.SalesRepsService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "GET /v1/sales-reps")
		defer span.End()

		reps, err := svc.ListSalesReps(ctx, queryBool(r, "all"))
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, reps)
	}
}

func createSalesRepHandler(svc *service.SalesRepsService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "POST /v1/sales-reps")
		defer span.End()

		var rep domain.SalesRep
		if !decodeJSON(w, r, &rep) {
			return
		}
		rep.ID = ""
		saved, err := svc.SaveSalesRep(ctx, &rep)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusCreated, saved)
	}
}

func updateSalesRepHandler(svc *service.SalesRepsService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "PUT /v1/sales-reps/{repId}")
		defer span.End()

		var rep domain.SalesRep
		if !decodeJSON(w, r, &rep) {
			return
		}
		rep.ID = chi.URLParam(r, "repId")
		saved, err := svc.SaveSalesRep(ctx, &rep)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, saved)
	}
}
