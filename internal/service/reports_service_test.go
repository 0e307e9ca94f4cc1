package service_test

import (
	"bytes"
	"context"
	"testing"
	"time"

	"github.com/boddenberg/jjr-ops-go/internal/domain"
	"github.com/boddenberg/jjr-ops-go/internal/service"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"
)

func seedReportJobs(t *testing.T, s *services) {
	t.Helper()
	ctx := context.Background()
	for i, phase := range []int{2, 6, 10} {
		j := domain.NewJob("", domain.JobNumber(2025, i+1), time.Now())
		j.Client.Name = "Client Number" + string(rune('A'+i))
		j.PhaseTracking.CurrentPhase = phase
		f := j.Financials
		f.Insurance.RCVTotal = 20000
		f.Costs.Materials = 6000
		f.Costs.Labor = 4000
		f.Payments.ACVReceived = 12000
		j.Financials = domain.Recompute(f)
		_, err := s.store.SaveJob(ctx, j)
		require.NoError(t, err)
	}
}

func TestReports(t *testing.T) {
	s := newServices(t, nil, nil)
	seedReportJobs(t, s)
	reports := service.NewReportsService(s.store, zap.NewNop())
	ctx := context.Background()

	d, err := reports.Dashboard(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, d.ActiveJobs)
	assert.InDelta(t, 30000, d.TotalGrossProfit, 0.001)
	assert.InDelta(t, 36000, d.CollectedCash, 0.001)
	assert.Len(t, d.PhaseBands, 3)
	assert.Len(t, d.TopJobs, 3)

	pnl, err := reports.ProfitAndLoss(ctx)
	require.NoError(t, err)
	assert.InDelta(t, 60000, pnl.TotalRevenue, 0.001)
	assert.InDelta(t, 6000, pnl.TotalCommissions, 0.001)
	assert.InDelta(t, 30000, pnl.GrossProfit, 0.001)
	assert.InDelta(t, 24000, pnl.NetProfit, 0.001)

	var buf bytes.Buffer
	require.NoError(t, reports.ExportProfitAndLoss(ctx, &buf))
	f, err := excelize.OpenReader(&buf)
	require.NoError(t, err)
	defer f.Close()
	rows, err := f.GetRows("Jobs")
	require.NoError(t, err)
	assert.Len(t, rows, 4)
}
