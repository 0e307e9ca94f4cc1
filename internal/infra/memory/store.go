// Package memory provides an in-process implementation of every store port.
// It backs local development and acts as the offline mirror of the remote
// store.
package memory

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/boddenberg/jjr-ops-go/internal/domain"

	"github.com/google/uuid"
)

// Store keeps all aggregates in maps guarded by a single RWMutex.
// Values are copied on the way in and out.
type Store struct {
	mu        sync.RWMutex
	jobs      map[string]*domain.Job
	leads     map[string]*domain.Lead
	contracts map[string]*domain.Contract
	reps      map[string]*domain.SalesRep
	creds     map[string]*domain.RepCredential
	tokens    map[string]*domain.RefreshToken
	now       func() time.Time
}

// New creates an empty store.
func New() *Store {
	return &Store{
		jobs:      make(map[string]*domain.Job),
		leads:     make(map[string]*domain.Lead),
		contracts: make(map[string]*domain.Contract),
		reps:      make(map[string]*domain.SalesRep),
		creds:     make(map[string]*domain.RepCredential),
		tokens:    make(map[string]*domain.RefreshToken),
		now:       time.Now,
	}
}

// Ping always succeeds.
func (s *Store) Ping(_ context.Context) error { return nil }

// Mode reports the store as local-only.
func (s *Store) Mode() domain.StoreMode { return domain.StoreLocal }

// --- Jobs ---

func (s *Store) ListJobs(_ context.Context) ([]domain.Job, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]domain.Job, 0, len(s.jobs))
	for _, j := range s.jobs {
		out = append(out, *j.Clone())
	}
	sort.SliceStable(out, func(a, b int) bool { return out[a].CreatedAt.After(out[b].CreatedAt) })
	return out, nil
}

func (s *Store) GetJob(_ context.Context, jobID string) (*domain.Job, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	j, ok := s.jobs[jobID]
	if !ok {
		return nil, &domain.ErrNotFound{Resource: "job", ID: jobID}
	}
	return j.Clone(), nil
}

func (s *Store) SaveJob(_ context.Context, job *domain.Job) (*domain.Job, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	stored := job.Clone()
	if stored.ID == "" {
		stored.ID = uuid.New().String()
	}
	now := s.now().UTC()
	if stored.CreatedAt.IsZero() {
		stored.CreatedAt = now
	}
	stored.UpdatedAt = now
	for i := range stored.Supplements {
		if stored.Supplements[i].ID == "" {
			stored.Supplements[i].ID = uuid.New().String()
		}
	}
	s.jobs[stored.ID] = stored
	return stored.Clone(), nil
}

// --- Leads ---

func (s *Store) ListLeads(_ context.Context) ([]domain.Lead, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]domain.Lead, 0, len(s.leads))
	for _, l := range s.leads {
		out = append(out, *l.Clone())
	}
	sort.SliceStable(out, func(a, b int) bool { return out[a].CreatedAt.After(out[b].CreatedAt) })
	return out, nil
}

func (s *Store) GetLead(_ context.Context, leadID string) (*domain.Lead, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	l, ok := s.leads[leadID]
	if !ok {
		return nil, &domain.ErrNotFound{Resource: "lead", ID: leadID}
	}
	return l.Clone(), nil
}

func (s *Store) SaveLead(_ context.Context, lead *domain.Lead) (*domain.Lead, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	stored := lead.Clone()
	if stored.ID == "" {
		stored.ID = uuid.New().String()
	}
	now := s.now().UTC()
	if stored.CreatedAt.IsZero() {
		stored.CreatedAt = now
	}
	stored.UpdatedAt = now
	s.leads[stored.ID] = stored
	return stored.Clone(), nil
}

func (s *Store) DeleteLead(_ context.Context, leadID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.leads[leadID]; !ok {
		return &domain.ErrNotFound{Resource: "lead", ID: leadID}
	}
	delete(s.leads, leadID)
	return nil
}

// --- Contracts ---

func (s *Store) ListContracts(_ context.Context) ([]domain.Contract, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]domain.Contract, 0, len(s.contracts))
	for _, c := range s.contracts {
		out = append(out, *c.Clone())
	}
	sort.SliceStable(out, func(a, b int) bool { return out[a].CreatedAt.After(out[b].CreatedAt) })
	return out, nil
}

func (s *Store) GetContract(_ context.Context, contractID string) (*domain.Contract, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	c, ok := s.contracts[contractID]
	if !ok {
		return nil, &domain.ErrNotFound{Resource: "contract", ID: contractID}
	}
	return c.Clone(), nil
}

func (s *Store) SaveContract(_ context.Context, contract *domain.Contract) (*domain.Contract, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	stored := contract.Clone()
	if stored.ID == "" {
		stored.ID = uuid.New().String()
	}
	now := s.now().UTC()
	if stored.CreatedAt.IsZero() {
		stored.CreatedAt = now
	}
	stored.UpdatedAt = now
	for i := range stored.LineItems {
		if stored.LineItems[i].ID == "" {
			stored.LineItems[i].ID = uuid.New().String()
		}
	}
	s.contracts[stored.ID] = stored
	return stored.Clone(), nil
}

// --- Sales reps ---

func (s *Store) ListSalesReps(_ context.Context) ([]domain.SalesRep, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]domain.SalesRep, 0, len(s.reps))
	for _, r := range s.reps {
		out = append(out, *r)
	}
	sort.SliceStable(out, func(a, b int) bool { return out[a].CreatedAt.After(out[b].CreatedAt) })
	return out, nil
}

func (s *Store) GetSalesRep(_ context.Context, repID string) (*domain.SalesRep, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	r, ok := s.reps[repID]
	if !ok {
		return nil, &domain.ErrNotFound{Resource: "sales_rep", ID: repID}
	}
	cp := *r
	return &cp, nil
}

func (s *Store) GetSalesRepByEmail(_ context.Context, email string) (*domain.SalesRep, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, r := range s.reps {
		if strings.EqualFold(r.Email, email) {
			cp := *r
			return &cp, nil
		}
	}
	return nil, nil
}

func (s *Store) SaveSalesRep(_ context.Context, rep *domain.SalesRep) (*domain.SalesRep, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	stored := *rep
	if stored.ID == "" {
		stored.ID = uuid.New().String()
	}
	now := s.now().UTC()
	if stored.CreatedAt.IsZero() {
		stored.CreatedAt = now
	}
	stored.UpdatedAt = now
	s.reps[stored.ID] = &stored
	cp := stored
	return &cp, nil
}

// --- Auth ---

func (s *Store) GetCredentials(_ context.Context, repID string) (*domain.RepCredential, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	c, ok := s.creds[repID]
	if !ok {
		return nil, nil
	}
	cp := *c
	return &cp, nil
}

func (s *Store) SaveCredentials(_ context.Context, cred *domain.RepCredential) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	cp := *cred
	s.creds[cred.RepID] = &cp
	return nil
}

func (s *Store) StoreRefreshToken(_ context.Context, repID, tokenHash string, expiresAt time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.tokens[tokenHash] = &domain.RefreshToken{RepID: repID, TokenHash: tokenHash, ExpiresAt: expiresAt}
	return nil
}

func (s *Store) GetRefreshToken(_ context.Context, tokenHash string) (*domain.RefreshToken, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	t, ok := s.tokens[tokenHash]
	if !ok || t.RevokedAt != nil {
		return nil, nil
	}
	cp := *t
	return &cp, nil
}

func (s *Store) RevokeRefreshToken(_ context.Context, tokenHash string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if t, ok := s.tokens[tokenHash]; ok {
		now := s.now().UTC()
		t.RevokedAt = &now
	}
	return nil
}

func (s *Store) RevokeAllRefreshTokens(_ context.Context, repID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now().UTC()
	for _, t := range s.tokens {
		if t.RepID == repID && t.RevokedAt == nil {
			t.RevokedAt = &now
		}
	}
	return nil
}

// --- Mirroring ---
// Put* store values exactly as given, timestamps included. They keep the
// mirror in step with the remote store.

func (s *Store) PutJob(job *domain.Job) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.jobs[job.ID] = job.Clone()
}

func (s *Store) PutLead(lead *domain.Lead) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.leads[lead.ID] = lead.Clone()
}

func (s *Store) PutContract(contract *domain.Contract) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.contracts[contract.ID] = contract.Clone()
}

func (s *Store) PutSalesRep(rep *domain.SalesRep) {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *rep
	s.reps[rep.ID] = &cp
}

// ForgetLead drops a lead without reporting a missing one.
func (s *Store) ForgetLead(leadID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.leads, leadID)
}
