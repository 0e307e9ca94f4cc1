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
)

// ============================================================
// LeadStore
// ============================================================

func (c *Client) ListLeads(ctx context.Context) ([]domain.Lead, error) {
	ctx, span := tracer.Start(ctx, "Supabase.ListLeads")
	defer span.End()

	var out []domain.Lead
	err := c.call(ctx, "leads", func() error {
		rows, err := getRows[leadRow](ctx, c, "leads?select=*&order=created_at.desc")
		if err != nil {
			return err
		}
		out = make([]domain.Lead, 0, len(rows))
		for _, r := range rows {
			out = append(out, fromLeadRow(r))
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) GetLead(ctx context.Context, leadID string) (*domain.Lead, error) {
	ctx, span := tracer.Start(ctx, "Supabase.GetLead")
	defer span.End()
	span.SetAttributes(attribute.String("lead.id", leadID))

	var lead *domain.Lead
	err := c.call(ctx, "leads", func() error {
		rows, err := getRows[leadRow](ctx, c, fmt.Sprintf("leads?id=eq.%s&limit=1", url.QueryEscape(leadID)))
		if err != nil {
			return err
		}
		if len(rows) == 0 {
			return resilience.Permanent(&domain.ErrNotFound{Resource: "lead", ID: leadID})
		}
		l := fromLeadRow(rows[0])
		lead = &l
		return nil
	})
	if err != nil {
		return nil, err
	}
	return lead, nil
}

// SaveLead upserts the lead row.
func (c *Client) SaveLead(ctx context.Context, lead *domain.Lead) (*domain.Lead, error) {
	ctx, span := tracer.Start(ctx, "Supabase.SaveLead")
	defer span.End()

	saved := lead.Clone()
	if saved.ID == "" {
		saved.ID = uuid.New().String()
	}
	now := time.Now().UTC()
	if saved.CreatedAt.IsZero() {
		saved.CreatedAt = now
	}
	saved.UpdatedAt = now
	span.SetAttributes(attribute.String("lead.id", saved.ID))

	row := toLeadRow(saved)
	err := c.call(ctx, "leads", func() error {
		return c.doUpsert(ctx, "leads", row)
	})
	if err != nil {
		return nil, err
	}
	return saved, nil
}

func (c *Client) DeleteLead(ctx context.Context, leadID string) error {
	ctx, span := tracer.Start(ctx, "Supabase.DeleteLead")
	defer span.End()
	span.SetAttributes(attribute.String("lead.id", leadID))

	return c.call(ctx, "leads", func() error {
		return c.doDelete(ctx, fmt.Sprintf("leads?id=eq.%s", url.QueryEscape(leadID)))
	})
}
