package handler

import (
	"bytes"
	"fmt"
	"net/http"
	"time"

	"github.com/boddenberg/jjr-ops-go/internal/service"

	"go.uber.org/zap"
)

// ============================================================
// Reports: /v1/reports
// ============================================================

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

func dashboardHandler(svc *service.ReportsService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "GET /v1/reports/dashboard")
		defer span.End()

		d, err := svc.Dashboard(ctx)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, d)
	}
}

func profitAndLossHandler(svc *service.ReportsService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "GET /v1/reports/pnl")
		defer span.End()

		pnl, err := svc.ProfitAndLoss(ctx)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, pnl)
	}
}

// exportProfitAndLossHandler buffers the workbook so a failure can still
// produce a JSON error.
func exportProfitAndLossHandler(svc *service.ReportsService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "GET /v1/reports/pnl.xlsx")
		defer span.End()

		var buf bytes.Buffer
		if err := svc.ExportProfitAndLoss(ctx, &buf); err != nil {
			handleServiceError(w, err, logger)
			return
		}
		filename := fmt.Sprintf("jjr-pnl-%s.xlsx", time.Now().Format("2006-01-02"))
		w.Header().Set("Content-Type", xlsxContentType)
		w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, filename))
		w.WriteHeader(http.StatusOK)
		buf.WriteTo(w)
	}
}
