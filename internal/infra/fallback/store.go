// Package fallback keeps the API usable when the remote store is down.
// Every call goes to the remote store first; failures are served by the
// in-memory mirror and the store reports itself disconnected until the
// remote answers again.
package fallback

import (
	"context"
	"errors"
	"sync/atomic"
	"time"

	"github.com/boddenberg/jjr-ops-go/internal/domain"
	"github.com/boddenberg/jjr-ops-go/internal/infra/memory"
	"github.com/boddenberg/jjr-ops-go/internal/infra/observability"
	"github.com/boddenberg/jjr-ops-go/internal/port"

	"go.opentelemetry.io/otel"
	"go.uber.org/zap"
)

var tracer = otel.Tracer("fallback")

// Store wraps a remote port.Store with a local mirror.
type Store struct {
	remote    port.Store
	mirror    *memory.Store
	metrics   *observability.Metrics
	logger    *zap.Logger
	connected atomic.Bool
}

// New creates the store. It starts disconnected until Connect or the first
// successful remote call.
func New(remote port.Store, mirror *memory.Store, metrics *observability.Metrics, logger *zap.Logger) *Store {
	s := &Store{remote: remote, mirror: mirror, metrics: metrics, logger: logger}
	metrics.SetStoreConnected(false)
	return s
}

// Connect runs the startup connectivity check.
func (s *Store) Connect(ctx context.Context) error {
	ctx, span := tracer.Start(ctx, "Fallback.Connect")
	defer span.End()

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := s.remote.Ping(ctx); err != nil {
		s.markDisconnected("ping", err)
		return err
	}
	s.markConnected()
	return nil
}

// Ping reports the remote connectivity.
func (s *Store) Ping(ctx context.Context) error {
	if err := s.remote.Ping(ctx); err != nil {
		s.markDisconnected("ping", err)
		return err
	}
	s.markConnected()
	return nil
}

// Mode is connected while the remote store answers, disconnected otherwise.
func (s *Store) Mode() domain.StoreMode {
	if s.connected.Load() {
		return domain.StoreConnected
	}
	return domain.StoreDisconnected
}

func (s *Store) markConnected() {
	if !s.connected.Swap(true) {
		s.logger.Info("remote store connected")
	}
	s.metrics.SetStoreConnected(true)
}

func (s *Store) markDisconnected(op string, err error) {
	if s.connected.Swap(false) {
		s.logger.Warn("remote store disconnected, serving local mirror", zap.String("operation", op), zap.Error(err))
	}
	s.metrics.SetStoreConnected(false)
}

func isNotFound(err error) bool {
	var nf *domain.ErrNotFound
	return errors.As(err, &nf)
}

// read serves remote data and mirrors it. A remote failure falls back to
// the mirror. A remote miss is checked against the mirror too, since the
// entity may have been created while disconnected.
func read[T any](s *Store, op string, remote func() (T, error), local func() (T, error), keep func(T)) (T, error) {
	v, err := remote()
	if err == nil {
		s.markConnected()
		keep(v)
		return v, nil
	}
	if isNotFound(err) {
		s.markConnected()
		if lv, lerr := local(); lerr == nil {
			return lv, nil
		}
		return v, err
	}

	s.markDisconnected(op, err)
	s.metrics.IncrStoreFallback("read")
	s.logger.Warn("store read served from mirror", zap.String("operation", op), zap.Error(err))
	return local()
}

// write applies the change remotely and mirrors the result. When the remote
// store fails the change is applied to the mirror only and the optimistic
// value is returned.
func write[T any](s *Store, op string, remote func() (T, error), local func() (T, error), keep func(T)) (T, error) {
	v, err := remote()
	if err == nil {
		s.markConnected()
		keep(v)
		return v, nil
	}
	if isNotFound(err) {
		return v, err
	}

	s.markDisconnected(op, err)
	s.metrics.IncrStoreFallback("write")
	s.logger.Warn("store write kept in mirror only", zap.String("operation", op), zap.Error(err))
	return local()
}

func noop[T any](T) {}

// --- Jobs ---

func (s *Store) ListJobs(ctx context.Context) ([]domain.Job, error) {
	return read(s, "list_jobs",
		func() ([]domain.Job, error) { return s.remote.ListJobs(ctx) },
		func() ([]domain.Job, error) { return s.mirror.ListJobs(ctx) },
		func(jobs []domain.Job) {
			for i := range jobs {
				s.mirror.PutJob(&jobs[i])
			}
		})
}

func (s *Store) GetJob(ctx context.Context, jobID string) (*domain.Job, error) {
	return read(s, "get_job",
		func() (*domain.Job, error) { return s.remote.GetJob(ctx, jobID) },
		func() (*domain.Job, error) { return s.mirror.GetJob(ctx, jobID) },
		s.mirror.PutJob)
}

func (s *Store) SaveJob(ctx context.Context, job *domain.Job) (*domain.Job, error) {
	return write(s, "save_job",
		func() (*domain.Job, error) { return s.remote.SaveJob(ctx, job) },
		func() (*domain.Job, error) { return s.mirror.SaveJob(ctx, job) },
		s.mirror.PutJob)
}

// --- Leads ---

func (s *Store) ListLeads(ctx context.Context) ([]domain.Lead, error) {
	return read(s, "list_leads",
		func() ([]domain.Lead, error) { return s.remote.ListLeads(ctx) },
		func() ([]domain.Lead, error) { return s.mirror.ListLeads(ctx) },
		func(leads []domain.Lead) {
			for i := range leads {
				s.mirror.PutLead(&leads[i])
			}
		})
}

func (s *Store) GetLead(ctx context.Context, leadID string) (*domain.Lead, error) {
	return read(s, "get_lead",
		func() (*domain.Lead, error) { return s.remote.GetLead(ctx, leadID) },
		func() (*domain.Lead, error) { return s.mirror.GetLead(ctx, leadID) },
		s.mirror.PutLead)
}

func (s *Store) SaveLead(ctx context.Context, lead *domain.Lead) (*domain.Lead, error) {
	return write(s, "save_lead",
		func() (*domain.Lead, error) { return s.remote.SaveLead(ctx, lead) },
		func() (*domain.Lead, error) { return s.mirror.SaveLead(ctx, lead) },
		s.mirror.PutLead)
}

func (s *Store) DeleteLead(ctx context.Context, leadID string) error {
	_, err := write(s, "delete_lead",
		func() (struct{}, error) { return struct{}{}, s.remote.DeleteLead(ctx, leadID) },
		func() (struct{}, error) { return struct{}{}, s.mirror.DeleteLead(ctx, leadID) },
		func(struct{}) { s.mirror.ForgetLead(leadID) })
	return err
}

// --- Contracts ---

func (s *Store) ListContracts(ctx context.Context) ([]domain.Contract, error) {
	return read(s, "list_contracts",
		func() ([]domain.Contract, error) { return s.remote.ListContracts(ctx) },
		func() ([]domain.Contract, error) { return s.mirror.ListContracts(ctx) },
		func(contracts []domain.Contract) {
			for i := range contracts {
				s.mirror.PutContract(&contracts[i])
			}
		})
}

func (s *Store) GetContract(ctx context.Context, contractID string) (*domain.Contract, error) {
	return read(s, "get_contract",
		func() (*domain.Contract, error) { return s.remote.GetContract(ctx, contractID) },
		func() (*domain.Contract, error) { return s.mirror.GetContract(ctx, contractID) },
		s.mirror.PutContract)
}

func (s *Store) SaveContract(ctx context.Context, contract *domain.Contract) (*domain.Contract, error) {
	return write(s, "save_contract",
		func() (*domain.Contract, error) { return s.remote.SaveContract(ctx, contract) },
		func() (*domain.Contract, error) { return s.mirror.SaveContract(ctx, contract) },
		s.mirror.PutContract)
}

// --- Sales reps ---

func (s *Store) ListSalesReps(ctx context.Context) ([]domain.SalesRep, error) {
	return read(s, "list_sales_reps",
		func() ([]domain.SalesRep, error) { return s.remote.ListSalesReps(ctx) },
		func() ([]domain.SalesRep, error) { return s.mirror.ListSalesReps(ctx) },
		func(reps []domain.SalesRep) {
			for i := range reps {
				s.mirror.PutSalesRep(&reps[i])
			}
		})
}

func (s *Store) GetSalesRep(ctx context.Context, repID string) (*domain.SalesRep, error) {
	return read(s, "get_sales_rep",
		func() (*domain.SalesRep, error) { return s.remote.GetSalesRep(ctx, repID) },
		func() (*domain.SalesRep, error) { return s.mirror.GetSalesRep(ctx, repID) },
		s.mirror.PutSalesRep)
}

func (s *Store) GetSalesRepByEmail(ctx context.Context, email string) (*domain.SalesRep, error) {
	return read(s, "get_sales_rep_by_email",
		func() (*domain.SalesRep, error) { return s.remote.GetSalesRepByEmail(ctx, email) },
		func() (*domain.SalesRep, error) { return s.mirror.GetSalesRepByEmail(ctx, email) },
		func(rep *domain.SalesRep) {
			if rep != nil {
				s.mirror.PutSalesRep(rep)
			}
		})
}

func (s *Store) SaveSalesRep(ctx context.Context, rep *domain.SalesRep) (*domain.SalesRep, error) {
	return write(s, "save_sales_rep",
		func() (*domain.SalesRep, error) { return s.remote.SaveSalesRep(ctx, rep) },
		func() (*domain.SalesRep, error) { return s.mirror.SaveSalesRep(ctx, rep) },
		s.mirror.PutSalesRep)
}

// --- Auth ---
// Credentials and tokens are mirrored as well so a rep logged in during an
// outage keeps a valid session afterwards only if the remote accepted it.

func (s *Store) GetCredentials(ctx context.Context, repID string) (*domain.RepCredential, error) {
	return read(s, "get_credentials",
		func() (*domain.RepCredential, error) { return s.remote.GetCredentials(ctx, repID) },
		func() (*domain.RepCredential, error) { return s.mirror.GetCredentials(ctx, repID) },
		func(cred *domain.RepCredential) {
			if cred != nil {
				_ = s.mirror.SaveCredentials(ctx, cred)
			}
		})
}

func (s *Store) SaveCredentials(ctx context.Context, cred *domain.RepCredential) error {
	_, err := write(s, "save_credentials",
		func() (struct{}, error) { return struct{}{}, s.remote.SaveCredentials(ctx, cred) },
		func() (struct{}, error) { return struct{}{}, s.mirror.SaveCredentials(ctx, cred) },
		func(struct{}) { _ = s.mirror.SaveCredentials(ctx, cred) })
	return err
}

func (s *Store) StoreRefreshToken(ctx context.Context, repID, tokenHash string, expiresAt time.Time) error {
	_, err := write(s, "store_refresh_token",
		func() (struct{}, error) {
			return struct{}{}, s.remote.StoreRefreshToken(ctx, repID, tokenHash, expiresAt)
		},
		func() (struct{}, error) {
			return struct{}{}, s.mirror.StoreRefreshToken(ctx, repID, tokenHash, expiresAt)
		},
		func(struct{}) { _ = s.mirror.StoreRefreshToken(ctx, repID, tokenHash, expiresAt) })
	return err
}

func (s *Store) GetRefreshToken(ctx context.Context, tokenHash string) (*domain.RefreshToken, error) {
	return read(s, "get_refresh_token",
		func() (*domain.RefreshToken, error) { return s.remote.GetRefreshToken(ctx, tokenHash) },
		func() (*domain.RefreshToken, error) { return s.mirror.GetRefreshToken(ctx, tokenHash) },
		noop[*domain.RefreshToken])
}

func (s *Store) RevokeRefreshToken(ctx context.Context, tokenHash string) error {
	_, err := write(s, "revoke_refresh_token",
		func() (struct{}, error) { return struct{}{}, s.remote.RevokeRefreshToken(ctx, tokenHash) },
		func() (struct{}, error) { return struct{}{}, s.mirror.RevokeRefreshToken(ctx, tokenHash) },
		func(struct{}) { _ = s.mirror.RevokeRefreshToken(ctx, tokenHash) })
	return err
}

func (s *Store) RevokeAllRefreshTokens(ctx context.Context, repID string) error {
	_, err := write(s, "revoke_all_refresh_tokens",
		func() (struct{}, error) { return struct{}{}, s.remote.RevokeAllRefreshTokens(ctx, repID) },
		func() (struct{}, error) { return struct{}{}, s.mirror.RevokeAllRefreshTokens(ctx, repID) },
		func(struct{}) { _ = s.mirror.RevokeAllRefreshTokens(ctx, repID) })
	return err
}
