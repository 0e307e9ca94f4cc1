package service

import (
	"context"
	"fmt"
	"io"

	"github.com/boddenberg/jjr-ops-go/internal/domain"
	"github.com/boddenberg/jjr-ops-go/internal/infra/export"
	"github.com/boddenberg/jjr-ops-go/internal/port"

	"go.opentelemetry.io/otel"
	"go.uber.org/zap"
)

var reportsTracer = otel.Tracer("service/reports")

// ReportsService builds the dashboard and the company P&L from all jobs.
type ReportsService struct {
	store  port.JobStore
	logger *zap.Logger
}

// NewReportsService creates a new reports service.
func NewReportsService(store port.JobStore, logger *zap.Logger) *ReportsService {
	return &ReportsService{store: store, logger: logger}
}

func (s *ReportsService) Dashboard(ctx context.Context) (*domain.Dashboard, error) {
	ctx, span := reportsTracer.Start(ctx, "ReportsService.Dashboard")
	defer span.End()

	jobs, err := s.store.ListJobs(ctx)
	if err != nil {
		return nil, err
	}
	d := domain.BuildDashboard(jobs)
	return &d, nil
}

func (s *ReportsService) ProfitAndLoss(ctx context.Context) (*domain.ProfitAndLoss, error) {
	ctx, span := reportsTracer.Start(ctx, "ReportsService.ProfitAndLoss")
	defer span.End()

	jobs, err := s.store.ListJobs(ctx)
	if err != nil {
		return nil, err
	}
	pnl := domain.BuildProfitAndLoss(jobs)
	return &pnl, nil
}

// ExportProfitAndLoss writes the P&L workbook to w.
func (s *ReportsService) ExportProfitAndLoss(ctx context.Context, w io.Writer) error {
	ctx, span := reportsTracer.Start(ctx, "ReportsService.ExportProfitAndLoss")
	defer span.End()

	jobs, err := s.store.ListJobs(ctx)
	if err != nil {
		return err
	}
	if err := export.WriteProfitAndLoss(w, domain.BuildProfitAndLoss(jobs), jobs); err != nil {
		return fmt.Errorf("write workbook: %w", err)
	}
	s.logger.Debug("p&l exported", zap.Int("jobs", len(jobs)))
	return nil
}
