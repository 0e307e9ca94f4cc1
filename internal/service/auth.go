// Package service holds the use cases behind the HTTP API: jobs, leads,
// contracts, reports, the job assistant and sales rep authentication.
package service

import (
	"time"

	"github.com/boddenberg/jjr-ops-go/internal/port"

	"go.opentelemetry.io/otel"
	"go.uber.org/zap"
)

var authTracer = otel.Tracer("service/auth")

const (
	maxFailedAttempts = 5
	lockDuration      = 30 * time.Minute
	bcryptCost        = 12
)

// authStore is what AuthService needs from persistence.
type authStore interface {
	port.AuthStore
	port.SalesRepStore
}

// AuthService orchestrates authentication flows.
type AuthService struct {
	store      authStore
	jwtSecret  []byte
	accessTTL  time.Duration
	refreshTTL time.Duration
	logger     *zap.Logger
	now        func() time.Time
}

// NewAuthService creates a new auth service.
func NewAuthService(store authStore, jwtSecret string, accessTTL, refreshTTL time.Duration, logger *zap.Logger) *AuthService {
	return &AuthService{
		store:      store,
		jwtSecret:  []byte(jwtSecret),
		accessTTL:  accessTTL,
		refreshTTL: refreshTTL,
		logger:     logger,
		now:        time.Now,
	}
}
