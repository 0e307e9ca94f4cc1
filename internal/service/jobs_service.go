package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/boddenberg/jjr-ops-go/internal/domain"
	"github.com/boddenberg/jjr-ops-go/internal/infra/observability"
	"github.com/boddenberg/jjr-ops-go/internal/port"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

var jobsTracer = otel.Tracer("service/jobs")

// JobsService owns the job lifecycle: creation, phase moves, financial
// edits, the supplement ledger and phase aging.
type JobsService struct {
	store          port.JobStore
	metrics        *observability.Metrics
	logger         *zap.Logger
	stuckAfterDays int
	now            func() time.Time
}

// NewJobsService creates a new jobs service.
func NewJobsService(store port.JobStore, metrics *observability.Metrics, stuckAfterDays int, logger *zap.Logger) *JobsService {
	return &JobsService{
		store:          store,
		metrics:        metrics,
		logger:         logger,
		stuckAfterDays: stuckAfterDays,
		now:            time.Now,
	}
}

// ============================================================
// Jobs
// ============================================================

func (s *JobsService) ListJobs(ctx context.Context) ([]domain.Job, error) {
	ctx, span := jobsTracer.Start(ctx, "JobsService.ListJobs")
	defer span.End()

	return s.store.ListJobs(ctx)
}

func (s *JobsService) GetJob(ctx context.Context, jobID string) (*domain.Job, error) {
	ctx, span := jobsTracer.Start(ctx, "JobsService.GetJob")
	defer span.End()
	span.SetAttributes(attribute.String("job.id", jobID))

	return s.store.GetJob(ctx, jobID)
}

// CreateJob adds a blank phase-1 job with the next free job number.
func (s *JobsService) CreateJob(ctx context.Context) (*domain.Job, error) {
	ctx, span := jobsTracer.Start(ctx, "JobsService.CreateJob")
	defer span.End()

	number, err := s.nextJobNumber(ctx)
	if err != nil {
		return nil, err
	}

	saved, err := s.store.SaveJob(ctx, domain.NewJob("", number, s.now()))
	if err != nil {
		return nil, fmt.Errorf("save job: %w", err)
	}

	s.logger.Info("job created",
		zap.String("job_id", saved.ID),
		zap.String("job_number", saved.JobNumber),
	)
	return saved, nil
}

// nextJobNumber numbers the new job after every job on file and skips any
// number already in use.
func (s *JobsService) nextJobNumber(ctx context.Context) (string, error) {
	jobs, err := s.store.ListJobs(ctx)
	if err != nil {
		return "", fmt.Errorf("list jobs: %w", err)
	}
	taken := make(map[string]bool, len(jobs))
	for _, j := range jobs {
		taken[j.JobNumber] = true
	}
	return domain.NextJobNumber(s.now().Year(), len(jobs), taken), nil
}

// UpdateJob applies client, details, sales rep and timeline edits.
func (s *JobsService) UpdateJob(ctx context.Context, jobID string, patch domain.JobPatch) (*domain.Job, error) {
	ctx, span := jobsTracer.Start(ctx, "JobsService.UpdateJob")
	defer span.End()
	span.SetAttributes(attribute.String("job.id", jobID))

	return s.mutate(ctx, jobID, func(j *domain.Job) error {
		return patch.Apply(j)
	})
}

// SetPhase moves a job to phase n. Any phase may follow any other.
func (s *JobsService) SetPhase(ctx context.Context, jobID string, n int) (*domain.Job, error) {
	ctx, span := jobsTracer.Start(ctx, "JobsService.SetPhase")
	defer span.End()
	span.SetAttributes(attribute.String("job.id", jobID), attribute.Int("phase", n))

	var from int
	job, err := s.mutate(ctx, jobID, func(j *domain.Job) error {
		from = j.PhaseTracking.CurrentPhase
		return domain.SetPhase(j, n, s.now())
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("job phase changed",
		zap.String("job_id", jobID),
		zap.Int("from", from),
		zap.Int("to", n),
		zap.String("phase", domain.PhaseName(n)),
	)
	return job, nil
}

// SetFinancialField writes one financial input and stores the recomputed
// financials.
func (s *JobsService) SetFinancialField(ctx context.Context, jobID, section, field, raw string) (*domain.Job, error) {
	ctx, span := jobsTracer.Start(ctx, "JobsService.SetFinancialField")
	defer span.End()
	span.SetAttributes(
		attribute.String("job.id", jobID),
		attribute.String("field", section+"."+field),
	)

	return s.mutate(ctx, jobID, func(j *domain.Job) error {
		f, err := domain.SetFinancialField(j.Financials, section, field, raw)
		if err != nil {
			return err
		}
		j.Financials = f
		return nil
	})
}

// ============================================================
// Supplements
// ============================================================

func (s *JobsService) AddSupplement(ctx context.Context, jobID string) (*domain.Supplement, error) {
	ctx, span := jobsTracer.Start(ctx, "JobsService.AddSupplement")
	defer span.End()

	var added domain.Supplement
	_, err := s.mutate(ctx, jobID, func(j *domain.Job) error {
		added = domain.AddSupplement(j, uuid.New().String(), s.now())
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("supplement added", zap.String("job_id", jobID), zap.String("supplement_id", added.ID))
	return &added, nil
}

func (s *JobsService) UpdateSupplement(ctx context.Context, jobID, supplementID, field, value string) (*domain.Supplement, error) {
	ctx, span := jobsTracer.Start(ctx, "JobsService.UpdateSupplement")
	defer span.End()

	var updated domain.Supplement
	_, err := s.mutate(ctx, jobID, func(j *domain.Job) error {
		var err error
		updated, err = domain.UpdateSupplement(j, supplementID, field, value)
		return err
	})
	if err != nil {
		return nil, err
	}
	return &updated, nil
}

// DeleteSupplement removes one supplement. confirmed must be true.
func (s *JobsService) DeleteSupplement(ctx context.Context, jobID, supplementID string, confirmed bool) error {
	ctx, span := jobsTracer.Start(ctx, "JobsService.DeleteSupplement")
	defer span.End()

	_, err := s.mutate(ctx, jobID, func(j *domain.Job) error {
		return domain.DeleteSupplement(j, supplementID, confirmed)
	})
	if err != nil {
		return err
	}

	s.logger.Info("supplement deleted", zap.String("job_id", jobID), zap.String("supplement_id", supplementID))
	return nil
}

// ============================================================
// Legacy import
// ============================================================

// ImportLegacy stores historical records as legacy jobs numbered after the
// legacy jobs already on file.
func (s *JobsService) ImportLegacy(ctx context.Context, records []domain.LegacyRecord) ([]domain.Job, error) {
	ctx, span := jobsTracer.Start(ctx, "JobsService.ImportLegacy")
	defer span.End()
	span.SetAttributes(attribute.Int("records", len(records)))

	jobs, err := s.store.ListJobs(ctx)
	if err != nil {
		return nil, fmt.Errorf("list jobs: %w", err)
	}
	taken := make(map[string]bool, len(jobs))
	seq := 0
	for _, j := range jobs {
		taken[j.JobNumber] = true
		if strings.HasPrefix(j.JobNumber, "JJR-LEGACY-") {
			seq++
		}
	}

	now := s.now()
	out := make([]domain.Job, 0, len(records))
	for _, r := range records {
		seq++
		for taken[domain.LegacyJobNumber(seq)] {
			seq++
		}
		saved, err := s.store.SaveJob(ctx, domain.NewLegacyJob("", seq, r, now))
		if err != nil {
			return out, fmt.Errorf("save legacy job %s: %w", r.ClientName, err)
		}
		taken[saved.JobNumber] = true
		out = append(out, *saved)
	}

	s.logger.Info("legacy jobs imported", zap.Int("count", len(out)))
	return out, nil
}

// ============================================================
// Phase aging
// ============================================================

// AgePhases refreshes DaysInPhase and IsStuck on every job and stores the
// ones that changed. It returns the number of jobs updated.
func (s *JobsService) AgePhases(ctx context.Context) (int, error) {
	ctx, span := jobsTracer.Start(ctx, "JobsService.AgePhases")
	defer span.End()

	jobs, err := s.store.ListJobs(ctx)
	if err != nil {
		return 0, fmt.Errorf("list jobs: %w", err)
	}

	now := s.now()
	updated := 0
	for i := range jobs {
		// The listing only selects candidates; edits saved since then must survive.
		if !domain.AgePhase(&jobs[i], now, s.stuckAfterDays) {
			continue
		}
		stuck, changed, err := s.ageJob(ctx, jobs[i].ID, now)
		if err != nil {
			s.logger.Warn("phase aging: save failed", zap.String("job_id", jobs[i].ID), zap.Error(err))
			continue
		}
		if !changed {
			continue
		}
		s.metrics.IncrJobAged(stuck)
		updated++
	}

	span.SetAttributes(attribute.Int("jobs.updated", updated))
	s.logger.Info("phase aging finished", zap.Int("jobs", len(jobs)), zap.Int("updated", updated))
	return updated, nil
}

// ageJob re-reads one job and stores it only when its phase tracking moved.
// UpdatedAt is left alone: aging is not a user edit.
func (s *JobsService) ageJob(ctx context.Context, jobID string, now time.Time) (stuck, changed bool, err error) {
	job, err := s.store.GetJob(ctx, jobID)
	if err != nil {
		return false, false, err
	}
	if !domain.AgePhase(job, now, s.stuckAfterDays) {
		return false, false, nil
	}
	if _, err := s.store.SaveJob(ctx, job); err != nil {
		return false, false, err
	}
	return job.PhaseTracking.IsStuck, true, nil
}

// mutate loads a job, applies fn and saves the result.
func (s *JobsService) mutate(ctx context.Context, jobID string, fn func(*domain.Job) error) (*domain.Job, error) {
	job, err := s.store.GetJob(ctx, jobID)
	if err != nil {
		return nil, err
	}
	if err := fn(job); err != nil {
		return nil, err
	}
	job.UpdatedAt = s.now().UTC()
	return s.store.SaveJob(ctx, job)
}
