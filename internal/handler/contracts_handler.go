package handler

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/boddenberg/jjr-ops-go/internal/domain"
	"github.com/boddenberg/jjr-ops-go/internal/service"

	"github.com/go-chi/chi/v5"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

// ============================================================
// Contracts: /v1/contracts
// ============================================================

type lineItemRequest struct {
	Category string `json:"category" validate:"required,oneof=roofing gutter window other"`
}

type signRequest struct {
	SignerName string `json:"signerName" validate:"required"`
	DataURL    string `json:"dataUrl" validate:"required"`
}

func listContractsHandler(svc *service.ContractsService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "GET /v1/contracts")
		defer span.End()

		contracts, err := svc.ListContracts(ctx)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		page, pageSize := parsePagination(r)
		writeJSON(w, http.StatusOK, domain.Paginate(contracts, page, pageSize))
	}
}

// createContractHandler opens a contract prefilled from the lead.
func createContractHandler(svc *service.ContractsService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "POST /v1/leads/{leadId}/contract")
		defer span.End()

		leadID := chi.URLParam(r, "leadId")
		span.SetAttributes(attribute.String("lead.id", leadID))

		c, err := svc.CreateContract(ctx, leadID)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusCreated, c)
	}
}

func getContractHandler(svc *service.ContractsService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "GET /v1/contracts/{contractId}")
		defer span.End()

		c, err := svc.GetContract(ctx, chi.URLParam(r, "contractId"))
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, c)
	}
}

func updateContractHandler(svc *service.ContractsService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "PUT /v1/contracts/{contractId}")
		defer span.End()

		contractID := chi.URLParam(r, "contractId")
		span.SetAttributes(attribute.String("contract.id", contractID))

		var in domain.Contract
		if !decodeJSON(w, r, &in) {
			return
		}
		c, err := svc.UpdateContract(ctx, contractID, &in)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, c)
	}
}

func addLineItemHandler(svc *service.ContractsService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "POST /v1/contracts/{contractId}/line-items")
		defer span.End()

		var req lineItemRequest
		if !decodeJSON(w, r, &req) {
			return
		}
		c, err := svc.AddLineItem(ctx, chi.URLParam(r, "contractId"), domain.LineCategory(req.Category))
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusCreated, c)
	}
}

func setLineItemFieldHandler(svc *service.ContractsService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "PATCH /v1/contracts/{contractId}/line-items/{itemId}")
		defer span.End()

		var req fieldRequest
		if !decodeJSON(w, r, &req) {
			return
		}
		c, err := svc.SetLineItemField(ctx, chi.URLParam(r, "contractId"), chi.URLParam(r, "itemId"), req.Field, rawValue(req.Value))
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, c)
	}
}

func removeLineItemHandler(svc *service.ContractsService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "DELETE /v1/contracts/{contractId}/line-items/{itemId}")
		defer span.End()

		c, err := svc.RemoveLineItem(ctx, chi.URLParam(r, "contractId"), chi.URLParam(r, "itemId"))
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, c)
	}
}

func signContractHandler(svc *service.ContractsService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "PUT /v1/contracts/{contractId}/signatures/{slot}")
		defer span.End()

		contractID := chi.URLParam(r, "contractId")
		slot := domain.SignatureSlot(chi.URLParam(r, "slot"))
		span.SetAttributes(attribute.String("contract.id", contractID), attribute.String("slot", string(slot)))

		var req signRequest
		if !decodeJSON(w, r, &req) {
			return
		}
		c, err := svc.Sign(ctx, contractID, slot, req.SignerName, req.DataURL)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, c)
	}
}

func setContractStatusHandler(svc *service.ContractsService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "PUT /v1/contracts/{contractId}/status")
		defer span.End()

		var req statusRequest
		if !decodeJSON(w, r, &req) {
			return
		}
		c, err := svc.SetStatus(ctx, chi.URLParam(r, "contractId"), domain.ContractStatus(req.Status))
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, c)
	}
}

func contractPDFHandler(svc *service.ContractsService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "GET /v1/contracts/{contractId}/pdf")
		defer span.End()

		pdf, c, err := svc.RenderPDF(ctx, chi.URLParam(r, "contractId"))
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		w.Header().Set("Content-Type", "application/pdf")
		w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="contract-%s.pdf"`, c.ID))
		w.Header().Set("Content-Length", strconv.Itoa(len(pdf)))
		w.WriteHeader(http.StatusOK)
		w.Write(pdf)
	}
}

func sendContractHandler(svc *service.ContractsService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "POST /v1/contracts/{contractId}/send")
		defer span.End()

		c, err := svc.Send(ctx, chi.URLParam(r, "contractId"))
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, c)
	}
}
