package handler

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/boddenberg/jjr-ops-go/internal/domain"
	"github.com/boddenberg/jjr-ops-go/internal/infra/export"
	"github.com/boddenberg/jjr-ops-go/internal/money"
	"github.com/boddenberg/jjr-ops-go/internal/service"

	"github.com/go-chi/chi/v5"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

// ============================================================
// Jobs: /v1/jobs
// ============================================================

// jobResponse adds the supplement ledger footer and advisory warnings to a
// job. Warnings never block the edit.
type jobResponse struct {
	*domain.Job
	SupplementTotals domain.SupplementSummary `json:"supplementTotals"`
	Warnings         []string                 `json:"warnings,omitempty"`
}

func newJobResponse(j *domain.Job) jobResponse {
	resp := jobResponse{Job: j, SupplementTotals: domain.SupplementTotals(j.Supplements)}
	if diff := j.UnreconciledApproved(); diff > 0 {
		resp.Warnings = append(resp.Warnings,
			fmt.Sprintf("approved supplements exceed insurance supplements total by %s", money.Dollars(diff)))
	}
	return resp
}

type phaseRequest struct {
	Phase int `json:"phase" validate:"required,min=1,max=10"`
}

type fieldRequest struct {
	Section string          `json:"section"`
	Field   string          `json:"field" validate:"required"`
	Value   json.RawMessage `json:"value"`
}

func listJobsHandler(svc *service.JobsService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "GET /v1/jobs")
		defer span.End()

		jobs, err := svc.ListJobs(ctx)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		page, pageSize := parsePagination(r)
		writeJSON(w, http.StatusOK, domain.Paginate(jobs, page, pageSize))
	}
}

func createJobHandler(svc *service.JobsService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "POST /v1/jobs")
		defer span.End()

		job, err := svc.CreateJob(ctx)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusCreated, newJobResponse(job))
	}
}

func getJobHandler(svc *service.JobsService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "GET /v1/jobs/{jobId}")
		defer span.End()

		jobID := chi.URLParam(r, "jobId")
		span.SetAttributes(attribute.String("job.id", jobID))

		job, err := svc.GetJob(ctx, jobID)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, newJobResponse(job))
	}
}

func updateJobHandler(svc *service.JobsService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "PATCH /v1/jobs/{jobId}")
		defer span.End()

		jobID := chi.URLParam(r, "jobId")
		span.SetAttributes(attribute.String("job.id", jobID))

		var patch domain.JobPatch
		if !decodeJSON(w, r, &patch) {
			return
		}
		job, err := svc.UpdateJob(ctx, jobID, patch)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, newJobResponse(job))
	}
}

func setPhaseHandler(svc *service.JobsService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "PUT /v1/jobs/{jobId}/phase")
		defer span.End()

		jobID := chi.URLParam(r, "jobId")
		var req phaseRequest
		if !decodeJSON(w, r, &req) {
			return
		}
		span.SetAttributes(attribute.String("job.id", jobID), attribute.Int("job.phase", req.Phase))

		job, err := svc.SetPhase(ctx, jobID, req.Phase)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, newJobResponse(job))
	}
}

// setFinancialFieldHandler accepts either {section, field} or a dotted
// field path such as "insurance.rcvTotal".
func setFinancialFieldHandler(svc *service.JobsService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "PATCH /v1/jobs/{jobId}/financials")
		defer span.End()

		jobID := chi.URLParam(r, "jobId")
		var req fieldRequest
		if !decodeJSON(w, r, &req) {
			return
		}
		if req.Section == "" {
			if section, field, ok := strings.Cut(req.Field, "."); ok {
				req.Section, req.Field = section, field
			}
		}
		span.SetAttributes(
			attribute.String("job.id", jobID),
			attribute.String("financials.field", req.Section+"."+req.Field),
		)

		job, err := svc.SetFinancialField(ctx, jobID, req.Section, req.Field, rawValue(req.Value))
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, newJobResponse(job))
	}
}

func addSupplementHandler(svc *service.JobsService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "POST /v1/jobs/{jobId}/supplements")
		defer span.End()

		sup, err := svc.AddSupplement(ctx, chi.URLParam(r, "jobId"))
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusCreated, sup)
	}
}

func updateSupplementHandler(svc *service.JobsService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "PATCH /v1/jobs/{jobId}/supplements/{supplementId}")
		defer span.End()

		var req fieldRequest
		if !decodeJSON(w, r, &req) {
			return
		}
		sup, err := svc.UpdateSupplement(ctx, chi.URLParam(r, "jobId"), chi.URLParam(r, "supplementId"), req.Field, rawValue(req.Value))
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, sup)
	}
}

// deleteSupplementHandler requires ?confirm=true; without it the service
// answers 428 and nothing is removed.
func deleteSupplementHandler(svc *service.JobsService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "DELETE /v1/jobs/{jobId}/supplements/{supplementId}")
		defer span.End()

		supID := chi.URLParam(r, "supplementId")
		if err := svc.DeleteSupplement(ctx, chi.URLParam(r, "jobId"), supID, queryBool(r, "confirm")); err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, domain.SuccessResponse{Message: "supplement deleted", ID: supID})
	}
}

// legacyImportHandler takes the historical job sheet as the raw request body.
func legacyImportHandler(svc *service.JobsService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "POST /v1/jobs/legacy-import")
		defer span.End()

		records, err := export.ReadLegacyRecords(http.MaxBytesReader(w, r.Body, 10<<20))
		if err != nil {
			logger.Debug("legacy import: unreadable sheet", zap.Error(err))
			writeError(w, http.StatusBadRequest, "invalid legacy spreadsheet: "+err.Error())
			return
		}
		span.SetAttributes(attribute.Int("legacy.records", len(records)))

		jobs, err := svc.ImportLegacy(ctx, records)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusCreated, domain.ListResponse[domain.Job]{
			Data: jobs, Total: len(jobs), Page: 1, PageSize: len(jobs),
		})
	}
}
