package supabase

import (
	"context"
	"fmt"
	"net/url"
	"time"

	"github.com/boddenberg/jjr-ops-go/internal/domain"
	"github.com/boddenberg/jjr-ops-go/internal/infra/resilience"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"golang.org/x/sync/errgroup"
)

// ============================================================
// JobStore: jobs + job_financials + supplements
// ============================================================

// ListJobs loads the three job tables concurrently and joins them in memory.
func (c *Client) ListJobs(ctx context.Context) ([]domain.Job, error) {
	ctx, span := tracer.Start(ctx, "Supabase.ListJobs")
	defer span.End()

	var out []domain.Job
	err := c.call(ctx, "jobs", func() error {
		var (
			jobs  []jobRow
			fins  []financialsRow
			supps []supplementRow
		)
		g, gctx := errgroup.WithContext(ctx)
		g.Go(func() (err error) {
			jobs, err = getRows[jobRow](gctx, c, "jobs?select=*&order=created_at.desc")
			return err
		})
		g.Go(func() (err error) {
			fins, err = getRows[financialsRow](gctx, c, "job_financials?select=*")
			return err
		})
		g.Go(func() (err error) {
			supps, err = getRows[supplementRow](gctx, c, "supplements?select=*&order=position.asc")
			return err
		})
		if err := g.Wait(); err != nil {
			return err
		}

		finByJob := make(map[string]*financialsRow, len(fins))
		for i := range fins {
			finByJob[fins[i].JobID] = &fins[i]
		}
		suppsByJob := make(map[string][]supplementRow)
		for _, s := range supps {
			suppsByJob[s.JobID] = append(suppsByJob[s.JobID], s)
		}

		out = make([]domain.Job, 0, len(jobs))
		for _, r := range jobs {
			out = append(out, assembleJob(r, finByJob[r.ID], suppsByJob[r.ID]))
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	span.SetAttributes(attribute.Int("jobs.count", len(out)))
	return out, nil
}

// GetJob loads one job with its financials and supplements.
func (c *Client) GetJob(ctx context.Context, jobID string) (*domain.Job, error) {
	ctx, span := tracer.Start(ctx, "Supabase.GetJob")
	defer span.End()
	span.SetAttributes(attribute.String("job.id", jobID))

	id := url.QueryEscape(jobID)
	var job *domain.Job
	err := c.call(ctx, "jobs", func() error {
		var (
			jobs  []jobRow
			fins  []financialsRow
			supps []supplementRow
		)
		g, gctx := errgroup.WithContext(ctx)
		g.Go(func() (err error) {
			jobs, err = getRows[jobRow](gctx, c, fmt.Sprintf("jobs?id=eq.%s&limit=1", id))
			return err
		})
		g.Go(func() (err error) {
			fins, err = getRows[financialsRow](gctx, c, fmt.Sprintf("job_financials?job_id=eq.%s&limit=1", id))
			return err
		})
		g.Go(func() (err error) {
			supps, err = getRows[supplementRow](gctx, c, fmt.Sprintf("supplements?job_id=eq.%s&order=position.asc", id))
			return err
		})
		if err := g.Wait(); err != nil {
			return err
		}
		if len(jobs) == 0 {
			return resilience.Permanent(&domain.ErrNotFound{Resource: "job", ID: jobID})
		}

		var fin *financialsRow
		if len(fins) > 0 {
			fin = &fins[0]
		}
		j := assembleJob(jobs[0], fin, supps)
		job = &j
		return nil
	})
	if err != nil {
		return nil, err
	}
	return job, nil
}

// saveJobArgs is the payload of the save_job Postgres function, which
// upserts the job and its financials and replaces its supplements in one
// transaction.
type saveJobArgs struct {
	Job         jobRow          `json:"p_job"`
	Financials  financialsRow   `json:"p_financials"`
	Supplements []supplementRow `json:"p_supplements"`
}

// SaveJob writes the whole job aggregate atomically.
func (c *Client) SaveJob(ctx context.Context, job *domain.Job) (*domain.Job, error) {
	ctx, span := tracer.Start(ctx, "Supabase.SaveJob")
	defer span.End()

	saved := job.Clone()
	if saved.ID == "" {
		saved.ID = uuid.New().String()
	}
	now := time.Now().UTC()
	if saved.CreatedAt.IsZero() {
		saved.CreatedAt = now
	}
	saved.UpdatedAt = now
	for i := range saved.Supplements {
		if saved.Supplements[i].ID == "" {
			saved.Supplements[i].ID = uuid.New().String()
		}
	}
	span.SetAttributes(attribute.String("job.id", saved.ID))

	args := saveJobArgs{
		Job:         toJobRow(saved),
		Financials:  toFinancialsRow(saved.ID, saved.Financials),
		Supplements: toSupplementRows(saved.ID, saved.Supplements),
	}
	err := c.call(ctx, "save_job", func() error {
		_, err := c.doRPC(ctx, "save_job", args)
		return err
	})
	if err != nil {
		return nil, err
	}
	return saved, nil
}
