package service

import (
	"context"
	"fmt"
	"time"

	"github.com/boddenberg/jjr-ops-go/internal/domain"
	"github.com/boddenberg/jjr-ops-go/internal/infra/phone"
	"github.com/boddenberg/jjr-ops-go/internal/port"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

var leadsTracer = otel.Tracer("service/leads")

// LeadsService manages the sales pipeline before a lead becomes a job.
type LeadsService struct {
	store  port.LeadStore
	logger *zap.Logger
	now    func() time.Time
}

// NewLeadsService creates a new leads service.
func NewLeadsService(store port.LeadStore, logger *zap.Logger) *LeadsService {
	return &LeadsService{store: store, logger: logger, now: time.Now}
}

func (s *LeadsService) ListLeads(ctx context.Context, filter domain.LeadFilter) ([]domain.Lead, error) {
	ctx, span := leadsTracer.Start(ctx, "LeadsService.ListLeads")
	defer span.End()

	leads, err := s.store.ListLeads(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]domain.Lead, 0, len(leads))
	for _, l := range leads {
		if filter.Match(l) {
			out = append(out, l)
		}
	}
	return out, nil
}

func (s *LeadsService) GetLead(ctx context.Context, leadID string) (*domain.Lead, error) {
	ctx, span := leadsTracer.Start(ctx, "LeadsService.GetLead")
	defer span.End()
	span.SetAttributes(attribute.String("lead.id", leadID))

	return s.store.GetLead(ctx, leadID)
}

// CreateLead stores a new lead. Blank fields of in take the intake form
// defaults; in may be nil.
func (s *LeadsService) CreateLead(ctx context.Context, in *domain.Lead) (*domain.Lead, error) {
	ctx, span := leadsTracer.Start(ctx, "LeadsService.CreateLead")
	defer span.End()

	lead := domain.NewLead("", s.now())
	if in != nil {
		mergeLead(lead, in)
	}

	saved, err := s.store.SaveLead(ctx, lead)
	if err != nil {
		return nil, fmt.Errorf("save lead: %w", err)
	}
	s.logger.Info("lead created", zap.String("lead_id", saved.ID), zap.String("source", string(saved.Source)))
	return saved, nil
}

// UpdateLead replaces the editable fields of a lead. Status, contract and
// conversion links are only changed by their own operations.
func (s *LeadsService) UpdateLead(ctx context.Context, leadID string, in *domain.Lead) (*domain.Lead, error) {
	ctx, span := leadsTracer.Start(ctx, "LeadsService.UpdateLead")
	defer span.End()
	span.SetAttributes(attribute.String("lead.id", leadID))

	lead, err := s.store.GetLead(ctx, leadID)
	if err != nil {
		return nil, err
	}
	lead.CustomerInfo = in.CustomerInfo
	lead.CustomerInfo.Phone = phone.NormalizeE164(in.CustomerInfo.Phone)
	if in.Source != "" {
		lead.Source = in.Source
	}
	if in.Priority != "" {
		lead.Priority = in.Priority
	}
	lead.EstimatedValue = in.EstimatedValue
	lead.Description = in.Description
	lead.Notes = in.Notes
	lead.AssignedTo = in.AssignedTo
	lead.NextFollowUp = in.NextFollowUp
	lead.UpdatedAt = s.now().UTC()

	return s.store.SaveLead(ctx, lead)
}

// UpdateLeadStatus applies a manual status change.
func (s *LeadsService) UpdateLeadStatus(ctx context.Context, leadID string, status domain.LeadStatus) (*domain.Lead, error) {
	ctx, span := leadsTracer.Start(ctx, "LeadsService.UpdateLeadStatus")
	defer span.End()
	span.SetAttributes(attribute.String("lead.id", leadID), attribute.String("status", string(status)))

	lead, err := s.store.GetLead(ctx, leadID)
	if err != nil {
		return nil, err
	}
	from := lead.Status
	now := s.now()
	if err := domain.SetLeadStatus(lead, status, now); err != nil {
		return nil, err
	}
	lead.UpdatedAt = now.UTC()

	saved, err := s.store.SaveLead(ctx, lead)
	if err != nil {
		return nil, err
	}
	s.logger.Info("lead status changed",
		zap.String("lead_id", leadID),
		zap.String("from", string(from)),
		zap.String("to", string(status)),
	)
	return saved, nil
}

func (s *LeadsService) DeleteLead(ctx context.Context, leadID string) error {
	ctx, span := leadsTracer.Start(ctx, "LeadsService.DeleteLead")
	defer span.End()

	if err := s.store.DeleteLead(ctx, leadID); err != nil {
		return err
	}
	s.logger.Info("lead deleted", zap.String("lead_id", leadID))
	return nil
}

func mergeLead(dst, src *domain.Lead) {
	if src.CustomerInfo.Name != "" {
		dst.CustomerInfo.Name = src.CustomerInfo.Name
	}
	if src.CustomerInfo.PreferredContact != "" {
		dst.CustomerInfo.PreferredContact = src.CustomerInfo.PreferredContact
	}
	dst.CustomerInfo.Address = src.CustomerInfo.Address
	dst.CustomerInfo.Email = src.CustomerInfo.Email
	dst.CustomerInfo.Phone = phone.NormalizeE164(src.CustomerInfo.Phone)
	if src.Source != "" {
		dst.Source = src.Source
	}
	if src.Priority != "" {
		dst.Priority = src.Priority
	}
	dst.EstimatedValue = src.EstimatedValue
	dst.Description = src.Description
	dst.Notes = src.Notes
	dst.AssignedTo = src.AssignedTo
	dst.NextFollowUp = src.NextFollowUp
}
