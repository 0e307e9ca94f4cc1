package service_test

import (
	"testing"
	"time"

	"github.com/boddenberg/jjr-ops-go/internal/infra/memory"
	"github.com/boddenberg/jjr-ops-go/internal/infra/observability"
	"github.com/boddenberg/jjr-ops-go/internal/service"

	"go.uber.org/zap"
)

type services struct {
	store     *memory.Store
	metrics   *observability.Metrics
	jobs      *service.JobsService
	leads     *service.LeadsService
	contracts *service.ContractsService
}

func newServices(t *testing.T, renderer *fakeRenderer, mailer *fakeMailer) *services {
	t.Helper()
	store := memory.New()
	metrics := observability.NewMetrics()
	logger := zap.NewNop()

	jobs := service.NewJobsService(store, metrics, 14, logger)
	s := &services{
		store:   store,
		metrics: metrics,
		jobs:    jobs,
		leads:   service.NewLeadsService(store, logger),
	}
	// Typed nils must not reach the interface fields.
	switch {
	case renderer != nil && mailer != nil:
		s.contracts = service.NewContractsService(store, jobs, renderer, mailer, metrics, logger)
	case renderer != nil:
		s.contracts = service.NewContractsService(store, jobs, renderer, nil, metrics, logger)
	default:
		s.contracts = service.NewContractsService(store, jobs, nil, nil, metrics, logger)
	}
	return s
}

func daysAgo(n int) time.Time {
	return time.Now().Add(-time.Duration(n) * 24 * time.Hour)
}
