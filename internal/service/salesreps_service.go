package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/boddenberg/jjr-ops-go/internal/domain"
	"github.com/boddenberg/jjr-ops-go/internal/infra/observability"
	"github.com/boddenberg/jjr-ops-go/internal/infra/phone"
	"github.com/boddenberg/jjr-ops-go/internal/port"

	"go.opentelemetry.io/otel"
	"go.uber.org/zap"
)

var repsTracer = otel.Tracer("service/salesreps")

const salesRepsCacheKey = "sales-reps"

// SalesRepsService lists and maintains the sales team. The roster is read on
// every lead and job form, so it is cached.
type SalesRepsService struct {
	store   port.SalesRepStore
	cache   port.Cache[[]domain.SalesRep]
	metrics *observability.Metrics
	logger  *zap.Logger
}

func NewSalesRepsService(store port.SalesRepStore, cache port.Cache[[]domain.SalesRep], metrics *observability.Metrics, logger *zap.Logger) *SalesRepsService {
	return &SalesRepsService{store: store, cache: cache, metrics: metrics, logger: logger}
}

// ListSalesReps returns the roster, active reps only unless all is set.
func (s *SalesRepsService) ListSalesReps(ctx context.Context, all bool) ([]domain.SalesRep, error) {
	ctx, span := repsTracer.Start(ctx, "SalesRepsService.ListSalesReps")
	defer span.End()

	reps, ok := s.cache.Get(salesRepsCacheKey)
	if ok {
		s.metrics.IncrCacheHit("sales_reps")
	} else {
		s.metrics.IncrCacheMiss("sales_reps")
		var err error
		reps, err = s.store.ListSalesReps(ctx)
		if err != nil {
			return nil, err
		}
		s.cache.Set(salesRepsCacheKey, reps)
	}

	if all {
		return reps, nil
	}
	out := make([]domain.SalesRep, 0, len(reps))
	for _, r := range reps {
		if r.Active {
			out = append(out, r)
		}
	}
	return out, nil
}

// SaveSalesRep creates or updates a rep. Emails are unique.
func (s *SalesRepsService) SaveSalesRep(ctx context.Context, rep *domain.SalesRep) (*domain.SalesRep, error) {
	ctx, span := repsTracer.Start(ctx, "SalesRepsService.SaveSalesRep")
	defer span.End()

	rep.Email = strings.ToLower(strings.TrimSpace(rep.Email))
	rep.Phone = phone.NormalizeE164(rep.Phone)

	existing, err := s.store.GetSalesRepByEmail(ctx, rep.Email)
	if err != nil {
		return nil, err
	}
	if existing != nil && existing.ID != rep.ID {
		return nil, &domain.ErrConflict{Message: "email " + rep.Email + " already belongs to " + existing.Name}
	}
	if rep.ID != "" {
		current, err := s.store.GetSalesRep(ctx, rep.ID)
		if err != nil {
			return nil, err
		}
		rep.CreatedAt = current.CreatedAt
	}

	saved, err := s.store.SaveSalesRep(ctx, rep)
	if err != nil {
		return nil, fmt.Errorf("save sales rep: %w", err)
	}
	s.cache.Delete(salesRepsCacheKey)

	s.logger.Info("sales rep saved", zap.String("rep_id", saved.ID), zap.Bool("active", saved.Active))
	return saved, nil
}
