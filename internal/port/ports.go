// Package port defines the interfaces (ports) for external dependencies.
// Following hexagonal architecture, these ports decouple the domain/service
// layer from concrete implementations.
package port

import (
	"context"
	"time"

	"github.com/boddenberg/jjr-ops-go/internal/domain"
)

// JobStore persists jobs together with their financials and supplements.
// SaveJob writes the whole aggregate at once.
type JobStore interface {
	ListJobs(ctx context.Context) ([]domain.Job, error)
	GetJob(ctx context.Context, jobID string) (*domain.Job, error)
	SaveJob(ctx context.Context, job *domain.Job) (*domain.Job, error)
}

// LeadStore persists sales leads.
type LeadStore interface {
	ListLeads(ctx context.Context) ([]domain.Lead, error)
	GetLead(ctx context.Context, leadID string) (*domain.Lead, error)
	SaveLead(ctx context.Context, lead *domain.Lead) (*domain.Lead, error)
	DeleteLead(ctx context.Context, leadID string) error
}

// ContractStore persists contracts with their line items.
// SaveContract writes the contract and its line items atomically.
type ContractStore interface {
	ListContracts(ctx context.Context) ([]domain.Contract, error)
	GetContract(ctx context.Context, contractID string) (*domain.Contract, error)
	SaveContract(ctx context.Context, contract *domain.Contract) (*domain.Contract, error)
}

// SalesRepStore persists the sales team.
type SalesRepStore interface {
	ListSalesReps(ctx context.Context) ([]domain.SalesRep, error)
	GetSalesRep(ctx context.Context, repID string) (*domain.SalesRep, error)
	GetSalesRepByEmail(ctx context.Context, email string) (*domain.SalesRep, error)
	SaveSalesRep(ctx context.Context, rep *domain.SalesRep) (*domain.SalesRep, error)
}

// AuthStore defines the data operations of the authentication system.
type AuthStore interface {
	GetCredentials(ctx context.Context, repID string) (*domain.RepCredential, error)
	SaveCredentials(ctx context.Context, cred *domain.RepCredential) error

	StoreRefreshToken(ctx context.Context, repID, tokenHash string, expiresAt time.Time) error
	GetRefreshToken(ctx context.Context, tokenHash string) (*domain.RefreshToken, error)
	RevokeRefreshToken(ctx context.Context, tokenHash string) error
	RevokeAllRefreshTokens(ctx context.Context, repID string) error
}

// Store bundles every persistence port.
type Store interface {
	JobStore
	LeadStore
	ContractStore
	SalesRepStore
	AuthStore
	Pinger
}

// Pinger checks connectivity with a backend.
type Pinger interface {
	Ping(ctx context.Context) error
}

// StoreStatus exposes whether the store is running on its local mirror.
type StoreStatus interface {
	Mode() domain.StoreMode
}

// Completer produces free text for a prompt and system instruction.
type Completer interface {
	Complete(ctx context.Context, req *domain.CompletionRequest) (*domain.CompletionResult, error)
}

// ContractRenderer turns a contract into a printable PDF.
type ContractRenderer interface {
	RenderContract(ctx context.Context, c *domain.Contract) ([]byte, error)
}

// Mailer delivers a document to a recipient.
type Mailer interface {
	SendContract(ctx context.Context, to, customerName string, c *domain.Contract, pdf []byte) error
}

// Cache provides generic caching with TTL.
type Cache[T any] interface {
	Get(key string) (T, bool)
	Set(key string, value T)
	Delete(key string)
}
