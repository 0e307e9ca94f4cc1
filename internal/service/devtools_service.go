package service

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/boddenberg/jjr-ops-go/internal/domain"

	"github.com/brianvoe/gofakeit/v6"
	"go.opentelemetry.io/otel"
	"go.uber.org/zap"
)

var devTracer = otel.Tracer("service/devtools")

// ============================================================
// Dev Tools
// ============================================================

// DevToolsService fills a local environment with plausible data.
type DevToolsService struct {
	leads  *LeadsService
	jobs   *JobsService
	logger *zap.Logger
}

func NewDevToolsService(leads *LeadsService, jobs *JobsService, logger *zap.Logger) *DevToolsService {
	return &DevToolsService{leads: leads, jobs: jobs, logger: logger}
}

var (
	seedReps     = []string{"Ian", "Justin", "Kyle", "Collier"}
	seedCarriers = []string{"State Farm", "Allstate", "USAA", "Farmers", "Liberty Mutual", "Travelers"}
	seedSources  = []string{"referral", "online", "advertisement", "cold-call", "other"}
	seedPriority = []string{"low", "medium", "high"}
	seedDamage   = []string{"Hail", "Wind", "Other"}
)

// Seed creates req.Leads fake leads and req.Jobs fake jobs.
func (s *DevToolsService) Seed(ctx context.Context, req *domain.DevSeedRequest) (*domain.DevSeedResponse, error) {
	ctx, span := devTracer.Start(ctx, "DevToolsService.Seed")
	defer span.End()

	if req.Leads <= 0 && req.Jobs <= 0 {
		return nil, &domain.ErrValidation{Field: "leads", Message: "leads or jobs must be positive"}
	}

	resp := &domain.DevSeedResponse{LeadIDs: []string{}, JobIDs: []string{}}

	for i := 0; i < req.Leads; i++ {
		lead, err := s.leads.CreateLead(ctx, fakeLead())
		if err != nil {
			return nil, fmt.Errorf("seed lead %d: %w", i, err)
		}
		resp.LeadIDs = append(resp.LeadIDs, lead.ID)
	}

	for i := 0; i < req.Jobs; i++ {
		id, err := s.seedJob(ctx)
		if err != nil {
			return nil, fmt.Errorf("seed job %d: %w", i, err)
		}
		resp.JobIDs = append(resp.JobIDs, id)
	}

	s.logger.Info("DEV: seed data created",
		zap.Int("leads", len(resp.LeadIDs)),
		zap.Int("jobs", len(resp.JobIDs)),
	)

	resp.Success = true
	resp.Message = fmt.Sprintf("%d leads and %d jobs created", len(resp.LeadIDs), len(resp.JobIDs))
	return resp, nil
}

func fakeLead() *domain.Lead {
	return &domain.Lead{
		CustomerInfo: domain.CustomerInfo{
			Name:             gofakeit.Name(),
			Address:          fakeAddress(),
			Phone:            gofakeit.Phone(),
			Email:            gofakeit.Email(),
			PreferredContact: domain.ContactPhone,
		},
		Source:         domain.LeadSource(gofakeit.RandomString(seedSources)),
		Priority:       domain.Priority(gofakeit.RandomString(seedPriority)),
		EstimatedValue: float64(gofakeit.Number(80, 400) * 100),
		Description:    gofakeit.Sentence(8),
		AssignedTo:     gofakeit.RandomString(seedReps),
	}
}

func fakeAddress() string {
	a := gofakeit.Address()
	return fmt.Sprintf("%s, %s, %s %s", a.Street, a.City, a.State, a.Zip)
}

// seedJob creates a job and walks it through the normal edit operations.
func (s *DevToolsService) seedJob(ctx context.Context) (string, error) {
	job, err := s.jobs.CreateJob(ctx)
	if err != nil {
		return "", err
	}

	now := time.Now()
	rep := gofakeit.RandomString(seedReps)
	patch := domain.JobPatch{
		Client: &domain.Client{
			Name:        gofakeit.Name(),
			Address:     fakeAddress(),
			Phone:       gofakeit.Phone(),
			Email:       gofakeit.Email(),
			Carrier:     gofakeit.RandomString(seedCarriers),
			ClaimNumber: gofakeit.Regex("CLM-[0-9]{6}"),
		},
		Details: &domain.JobDetails{
			StormDate:  gofakeit.DateRange(now.AddDate(-1, 0, 0), now).Format(domain.DateLayout),
			DamageType: domain.DamageType(gofakeit.RandomString(seedDamage)),
		},
		SalesRep: &rep,
	}
	if _, err := s.jobs.UpdateJob(ctx, job.ID, patch); err != nil {
		return "", err
	}

	rcv := gofakeit.Number(120, 450) * 100
	fields := []struct {
		section, field string
		value          int
	}{
		{"insurance", "rcvTotal", rcv},
		{"insurance", "acvTotal", rcv * 6 / 10},
		{"insurance", "depreciation", rcv * 4 / 10},
		{"insurance", "deductible", gofakeit.Number(5, 25) * 100},
		{"costs", "materials", rcv * gofakeit.Number(25, 40) / 100},
		{"costs", "labor", rcv * gofakeit.Number(15, 25) / 100},
		{"commissions", "salesRepPct", 10},
	}
	for _, f := range fields {
		if _, err := s.jobs.SetFinancialField(ctx, job.ID, f.section, f.field, strconv.Itoa(f.value)); err != nil {
			return "", err
		}
	}

	if _, err := s.jobs.SetPhase(ctx, job.ID, gofakeit.Number(domain.MinPhase, domain.ClosedPhase)); err != nil {
		return "", err
	}
	return job.ID, nil
}
