package service_test

import (
	"context"
	"testing"
	"time"

	"github.com/boddenberg/jjr-ops-go/internal/domain"
	"github.com/boddenberg/jjr-ops-go/internal/infra/cache"
	"github.com/boddenberg/jjr-ops-go/internal/infra/memory"
	"github.com/boddenberg/jjr-ops-go/internal/infra/observability"
	"github.com/boddenberg/jjr-ops-go/internal/service"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestSalesReps(t *testing.T) {
	store := memory.New()
	metrics := observability.NewMetrics()
	reps := service.NewSalesRepsService(store, cache.New[[]domain.SalesRep](time.Minute), metrics, zap.NewNop())
	ctx := context.Background()

	ian, err := reps.SaveSalesRep(ctx, &domain.SalesRep{Name: "Ian", Email: "Ian@JJRoofingPros.com", Active: true})
	require.NoError(t, err)
	assert.Equal(t, "ian@jjroofingpros.com", ian.Email)
	_, err = reps.SaveSalesRep(ctx, &domain.SalesRep{Name: "Old Rep", Email: "old@jjroofingpros.com"})
	require.NoError(t, err)

	active, err := reps.ListSalesReps(ctx, false)
	require.NoError(t, err)
	require.Len(t, active, 1)
	assert.Equal(t, "Ian", active[0].Name)

	all, err := reps.ListSalesReps(ctx, true)
	require.NoError(t, err)
	assert.Len(t, all, 2)
	assert.InDelta(t, 0.5, metrics.GetAssistantSnapshot().CacheHitRate, 0.001)

	_, err = reps.SaveSalesRep(ctx, &domain.SalesRep{Name: "Copy", Email: "ian@jjroofingpros.com"})
	var conflict *domain.ErrConflict
	require.ErrorAs(t, err, &conflict)

	// Saving invalidates the cached roster.
	ian.Active = false
	_, err = reps.SaveSalesRep(ctx, ian)
	require.NoError(t, err)
	active, err = reps.ListSalesReps(ctx, false)
	require.NoError(t, err)
	assert.Empty(t, active)
}
