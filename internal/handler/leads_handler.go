package handler

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/boddenberg/jjr-ops-go/internal/domain"
	"github.com/boddenberg/jjr-ops-go/internal/service"

	"github.com/go-chi/chi/v5"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

// ============================================================
// Leads: /v1/leads
// ============================================================

type statusRequest struct {
	Status string `json:"status" validate:"required"`
}

func listLeadsHandler(svc *service.LeadsService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "GET /v1/leads")
		defer span.End()

		q := r.URL.Query()
		filter := domain.LeadFilter{
			Status:   domain.LeadStatus(q.Get("status")),
			Priority: domain.Priority(q.Get("priority")),
			Search:   q.Get("q"),
		}
		leads, err := svc.ListLeads(ctx, filter)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		page, pageSize := parsePagination(r)
		writeJSON(w, http.StatusOK, domain.Paginate(leads, page, pageSize))
	}
}

// createLeadHandler accepts an empty body, which yields a blank intake lead.
func createLeadHandler(svc *service.LeadsService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "POST /v1/leads")
		defer span.End()

		var in *domain.Lead
		var body domain.Lead
		switch err := json.NewDecoder(r.Body).Decode(&body); {
		case errors.Is(err, io.EOF):
		case err != nil:
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		default:
			if err := validate.Struct(&body); err != nil {
				writeError(w, http.StatusBadRequest, validationMessage(err))
				return
			}
			in = &body
		}

		lead, err := svc.CreateLead(ctx, in)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusCreated, lead)
	}
}

func getLeadHandler(svc *service.LeadsService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "GET /v1/leads/{leadId}")
		defer span.End()

		leadID := chi.URLParam(r, "leadId")
		span.SetAttributes(attribute.String("lead.id", leadID))

		lead, err := svc.GetLead(ctx, leadID)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, lead)
	}
}

func updateLeadHandler(svc *service.LeadsService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "PUT /v1/leads/{leadId}")
		defer span.End()

		leadID := chi.URLParam(r, "leadId")
		span.SetAttributes(attribute.String("lead.id", leadID))

		var in domain.Lead
		if !decodeJSON(w, r, &in) {
			return
		}
		lead, err := svc.UpdateLead(ctx, leadID, &in)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, lead)
	}
}

func updateLeadStatusHandler(svc *service.LeadsService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "PUT /v1/leads/{leadId}/status")
		defer span.End()

		var req statusRequest
		if !decodeJSON(w, r, &req) {
			return
		}
		lead, err := svc.UpdateLeadStatus(ctx, chi.URLParam(r, "leadId"), domain.LeadStatus(req.Status))
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, lead)
	}
}

func deleteLeadHandler(svc *service.LeadsService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "DELETE /v1/leads/{leadId}")
		defer span.End()

		leadID := chi.URLParam(r, "leadId")
		if err := svc.DeleteLead(ctx, leadID); err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, domain.SuccessResponse{Message: "lead deleted", ID: leadID})
	}
}

// convertLeadHandler turns a quoted lead with a signed or sent contract
// into a job.
func convertLeadHandler(svc *service.ContractsService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "POST /v1/leads/{leadId}/convert")
		defer span.End()

		leadID := chi.URLParam(r, "leadId")
		span.SetAttributes(attribute.String("lead.id", leadID))

		job, err := svc.ConvertLead(ctx, leadID)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		logger.Info("lead converted", zap.String("lead_id", leadID), zap.String("job_number", job.JobNumber))
		writeJSON(w, http.StatusCreated, newJobResponse(job))
	}
}
