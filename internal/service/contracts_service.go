package service

import (
	"context"
	"fmt"
	"time"

	"github.com/boddenberg/jjr-ops-go/internal/domain"
	"github.com/boddenberg/jjr-ops-go/internal/infra/observability"
	"github.com/boddenberg/jjr-ops-go/internal/port"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

var contractsTracer = otel.Tracer("service/contracts")

type contractStore interface {
	port.ContractStore
	port.LeadStore
}

// ContractsService drafts, prices, signs and delivers contracts, and turns a
// quoted lead into a job.
type ContractsService struct {
	store    contractStore
	jobs     *JobsService
	renderer port.ContractRenderer
	mailer   port.Mailer
	metrics  *observability.Metrics
	logger   *zap.Logger
	now      func() time.Time
}

// NewContractsService creates a new contracts service. renderer and mailer
// may be nil when PDF delivery is not configured.
func NewContractsService(
	store contractStore,
	jobs *JobsService,
	renderer port.ContractRenderer,
	mailer port.Mailer,
	metrics *observability.Metrics,
	logger *zap.Logger,
) *ContractsService {
	return &ContractsService{
		store:    store,
		jobs:     jobs,
		renderer: renderer,
		mailer:   mailer,
		metrics:  metrics,
		logger:   logger,
		now:      time.Now,
	}
}

// ============================================================
// Contracts
// ============================================================

func (s *ContractsService) ListContracts(ctx context.Context) ([]domain.Contract, error) {
	ctx, span := contractsTracer.Start(ctx, "ContractsService.ListContracts")
	defer span.End()

	return s.store.ListContracts(ctx)
}

func (s *ContractsService) GetContract(ctx context.Context, contractID string) (*domain.Contract, error) {
	ctx, span := contractsTracer.Start(ctx, "ContractsService.GetContract")
	defer span.End()
	span.SetAttributes(attribute.String("contract.id", contractID))

	return s.store.GetContract(ctx, contractID)
}

// CreateContract drafts a contract. With a leadID the contract is pre-filled
// from the lead and the lead becomes quoted.
func (s *ContractsService) CreateContract(ctx context.Context, leadID string) (*domain.Contract, error) {
	ctx, span := contractsTracer.Start(ctx, "ContractsService.CreateContract")
	defer span.End()
	span.SetAttributes(attribute.String("lead.id", leadID))

	var lead *domain.Lead
	if leadID != "" {
		l, err := s.store.GetLead(ctx, leadID)
		if err != nil {
			return nil, err
		}
		if l.Status == domain.LeadConverted {
			return nil, &domain.ErrConflict{Message: "lead " + leadID + " is already converted"}
		}
		lead = l
	}

	now := s.now()
	c := domain.NewContract("", uuid.New().String(), lead, now)
	domain.RecalculateTotal(c)

	saved, err := s.store.SaveContract(ctx, c)
	if err != nil {
		return nil, fmt.Errorf("save contract: %w", err)
	}

	if lead != nil {
		domain.MarkQuoted(lead, saved.ID)
		lead.UpdatedAt = now.UTC()
		if _, err := s.store.SaveLead(ctx, lead); err != nil {
			return nil, fmt.Errorf("save lead: %w", err)
		}
	}

	s.logger.Info("contract drafted", zap.String("contract_id", saved.ID), zap.String("lead_id", leadID))
	return saved, nil
}

// UpdateContract replaces the details, line items and notes of a contract.
// The total is always re-derived from the line items.
func (s *ContractsService) UpdateContract(ctx context.Context, contractID string, in *domain.Contract) (*domain.Contract, error) {
	ctx, span := contractsTracer.Start(ctx, "ContractsService.UpdateContract")
	defer span.End()
	span.SetAttributes(attribute.String("contract.id", contractID))

	return s.mutate(ctx, contractID, func(c *domain.Contract) error {
		for _, li := range in.LineItems {
			if !li.Category.Valid() {
				return &domain.ErrValidation{Field: "lineItems.category", Message: "must be roofing, gutter, window or other"}
			}
		}
		c.Details = in.Details
		if c.Details.PaymentSchedule.ProgressPayments == nil {
			c.Details.PaymentSchedule.ProgressPayments = []domain.ProgressPayment{}
		}
		c.LineItems = make([]domain.LineItem, len(in.LineItems))
		copy(c.LineItems, in.LineItems)
		for i := range c.LineItems {
			if c.LineItems[i].ID == "" {
				c.LineItems[i].ID = uuid.New().String()
			}
		}
		c.Notes = in.Notes
		return nil
	})
}

// AddLineItem appends an empty priced row in category.
func (s *ContractsService) AddLineItem(ctx context.Context, contractID string, category domain.LineCategory) (*domain.Contract, error) {
	ctx, span := contractsTracer.Start(ctx, "ContractsService.AddLineItem")
	defer span.End()

	if category == "" {
		category = domain.CategoryRoofing
	}
	if !category.Valid() {
		return nil, &domain.ErrValidation{Field: "category", Message: "must be roofing, gutter, window or other"}
	}
	return s.mutate(ctx, contractID, func(c *domain.Contract) error {
		c.LineItems = append(c.LineItems, domain.LineItem{
			ID:       uuid.New().String(),
			Quantity: 1,
			Category: category,
		})
		return nil
	})
}

// SetLineItemField edits one line item field from raw form input.
func (s *ContractsService) SetLineItemField(ctx context.Context, contractID, itemID, field, raw string) (*domain.Contract, error) {
	ctx, span := contractsTracer.Start(ctx, "ContractsService.SetLineItemField")
	defer span.End()
	span.SetAttributes(attribute.String("contract.id", contractID), attribute.String("field", field))

	return s.mutate(ctx, contractID, func(c *domain.Contract) error {
		for i := range c.LineItems {
			if c.LineItems[i].ID == itemID {
				return domain.SetLineItemField(&c.LineItems[i], field, raw)
			}
		}
		return &domain.ErrNotFound{Resource: "line_item", ID: itemID}
	})
}

func (s *ContractsService) RemoveLineItem(ctx context.Context, contractID, itemID string) (*domain.Contract, error) {
	ctx, span := contractsTracer.Start(ctx, "ContractsService.RemoveLineItem")
	defer span.End()

	return s.mutate(ctx, contractID, func(c *domain.Contract) error {
		for i := range c.LineItems {
			if c.LineItems[i].ID == itemID {
				c.LineItems = append(c.LineItems[:i], c.LineItems[i+1:]...)
				return nil
			}
		}
		return &domain.ErrNotFound{Resource: "line_item", ID: itemID}
	})
}

// Sign stores a signature in slot, replacing an earlier one.
func (s *ContractsService) Sign(ctx context.Context, contractID string, slot domain.SignatureSlot, signerName, dataURL string) (*domain.Contract, error) {
	ctx, span := contractsTracer.Start(ctx, "ContractsService.Sign")
	defer span.End()
	span.SetAttributes(attribute.String("contract.id", contractID), attribute.String("slot", string(slot)))

	c, err := s.mutate(ctx, contractID, func(c *domain.Contract) error {
		_, err := domain.Sign(c, slot, uuid.New().String(), signerName, dataURL, s.now())
		return err
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("contract signed",
		zap.String("contract_id", contractID),
		zap.String("slot", string(slot)),
		zap.String("status", string(c.Status)),
	)
	s.syncJobStatus(ctx, c)
	return c, nil
}

// SetStatus moves the contract forward.
func (s *ContractsService) SetStatus(ctx context.Context, contractID string, status domain.ContractStatus) (*domain.Contract, error) {
	ctx, span := contractsTracer.Start(ctx, "ContractsService.SetStatus")
	defer span.End()

	c, err := s.mutate(ctx, contractID, func(c *domain.Contract) error {
		return domain.SetContractStatus(c, status)
	})
	if err != nil {
		return nil, err
	}
	s.syncJobStatus(ctx, c)
	return c, nil
}

// ============================================================
// Rendering & delivery
// ============================================================

// RenderPDF returns the printable contract.
func (s *ContractsService) RenderPDF(ctx context.Context, contractID string) ([]byte, *domain.Contract, error) {
	ctx, span := contractsTracer.Start(ctx, "ContractsService.RenderPDF")
	defer span.End()

	if s.renderer == nil {
		return nil, nil, &domain.ErrUnavailable{Feature: "contract pdf"}
	}
	c, err := s.store.GetContract(ctx, contractID)
	if err != nil {
		return nil, nil, err
	}

	start := time.Now()
	pdf, err := s.renderer.RenderContract(ctx, c)
	s.metrics.RecordRequestDuration("contract_pdf", time.Since(start))
	if err != nil {
		s.metrics.IncrExternalError("gotenberg")
		return nil, nil, err
	}
	return pdf, c, nil
}

// Send emails the contract PDF to the customer and marks a draft as sent.
func (s *ContractsService) Send(ctx context.Context, contractID string) (*domain.Contract, error) {
	ctx, span := contractsTracer.Start(ctx, "ContractsService.Send")
	defer span.End()

	if s.mailer == nil {
		return nil, &domain.ErrUnavailable{Feature: "contract email"}
	}
	pdf, c, err := s.RenderPDF(ctx, contractID)
	if err != nil {
		return nil, err
	}
	if c.Details.CustomerEmail == "" {
		return nil, &domain.ErrValidation{Field: "details.customerEmail", Message: "required to send the contract"}
	}

	if err := s.mailer.SendContract(ctx, c.Details.CustomerEmail, c.Details.CustomerName, c, pdf); err != nil {
		s.metrics.IncrExternalError("smtp")
		return nil, err
	}
	s.metrics.IncrContractSent()

	if !c.Status.AtLeast(domain.ContractSent) {
		if c, err = s.SetStatus(ctx, contractID, domain.ContractSent); err != nil {
			return nil, err
		}
	}

	s.logger.Info("contract sent", zap.String("contract_id", contractID))
	return c, nil
}

// ============================================================
// Conversion
// ============================================================

// ConvertLead turns a quoted lead and its contract into a job in the
// Contracting phase, then links contract and lead to the new job.
func (s *ContractsService) ConvertLead(ctx context.Context, leadID string) (*domain.Job, error) {
	ctx, span := contractsTracer.Start(ctx, "ContractsService.ConvertLead")
	defer span.End()
	span.SetAttributes(attribute.String("lead.id", leadID))

	lead, err := s.store.GetLead(ctx, leadID)
	if err != nil {
		return nil, err
	}
	if lead.Status == domain.LeadConverted {
		return nil, &domain.ErrConflict{Message: "lead " + leadID + " is already converted to job " + lead.ConvertedJobID}
	}
	if lead.ContractID == "" {
		return nil, &domain.ErrValidation{Field: "contractId", Message: "lead has no contract"}
	}

	contract, err := s.store.GetContract(ctx, lead.ContractID)
	if err != nil {
		return nil, err
	}
	if contract.Status == domain.ContractDraft {
		return nil, &domain.ErrValidation{Field: "contract.status", Message: "a draft contract cannot be converted"}
	}
	domain.RecalculateTotal(contract)

	number, err := s.jobs.nextJobNumber(ctx)
	if err != nil {
		return nil, err
	}
	now := s.now()
	job, err := domain.ConvertLeadToJob("", number, lead, contract, now)
	if err != nil {
		return nil, err
	}

	saved, err := s.jobs.store.SaveJob(ctx, job)
	if err != nil {
		return nil, fmt.Errorf("save job: %w", err)
	}

	contract.JobID = saved.ID
	contract.UpdatedAt = now.UTC()
	if _, err := s.store.SaveContract(ctx, contract); err != nil {
		return nil, fmt.Errorf("link contract: %w", err)
	}

	domain.MarkConverted(lead, saved.ID)
	lead.UpdatedAt = now.UTC()
	if _, err := s.store.SaveLead(ctx, lead); err != nil {
		return nil, fmt.Errorf("mark lead converted: %w", err)
	}

	s.logger.Info("lead converted",
		zap.String("lead_id", leadID),
		zap.String("contract_id", contract.ID),
		zap.String("job_id", saved.ID),
		zap.String("job_number", saved.JobNumber),
		zap.Float64("contract_total", contract.Details.TotalAmount),
	)
	return saved, nil
}

// mutate loads a contract, applies fn, re-derives the total and saves.
func (s *ContractsService) mutate(ctx context.Context, contractID string, fn func(*domain.Contract) error) (*domain.Contract, error) {
	c, err := s.store.GetContract(ctx, contractID)
	if err != nil {
		return nil, err
	}
	if err := fn(c); err != nil {
		return nil, err
	}
	domain.RecalculateTotal(c)
	c.UpdatedAt = s.now().UTC()
	return s.store.SaveContract(ctx, c)
}

// syncJobStatus mirrors the contract status on the job created from it.
func (s *ContractsService) syncJobStatus(ctx context.Context, c *domain.Contract) {
	if c.JobID == "" {
		return
	}
	_, err := s.jobs.mutate(ctx, c.JobID, func(j *domain.Job) error {
		j.ContractStatus = c.Status
		return nil
	})
	if err != nil {
		s.logger.Warn("contract status not copied to job",
			zap.String("contract_id", c.ID),
			zap.String("job_id", c.JobID),
			zap.Error(err),
		)
	}
}
