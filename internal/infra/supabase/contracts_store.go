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
// ContractStore: contracts + contract_line_items
// ============================================================

func (c *Client) ListContracts(ctx context.Context) ([]domain.Contract, error) {
	ctx, span := tracer.Start(ctx, "Supabase.ListContracts")
	defer span.End()

	var out []domain.Contract
	err := c.call(ctx, "contracts", func() error {
		var (
			contracts []contractRow
			items     []lineItemRow
		)
		g, gctx := errgroup.WithContext(ctx)
		g.Go(func() (err error) {
			contracts, err = getRows[contractRow](gctx, c, "contracts?select=*&order=created_at.desc")
			return err
		})
		g.Go(func() (err error) {
			items, err = getRows[lineItemRow](gctx, c, "contract_line_items?select=*&order=position.asc")
			return err
		})
		if err := g.Wait(); err != nil {
			return err
		}

		byContract := make(map[string][]lineItemRow)
		for _, li := range items {
			byContract[li.ContractID] = append(byContract[li.ContractID], li)
		}
		out = make([]domain.Contract, 0, len(contracts))
		for _, r := range contracts {
			out = append(out, assembleContract(r, byContract[r.ID]))
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) GetContract(ctx context.Context, contractID string) (*domain.Contract, error) {
	ctx, span := tracer.Start(ctx, "Supabase.GetContract")
	defer span.End()
	span.SetAttributes(attribute.String("contract.id", contractID))

	id := url.QueryEscape(contractID)
	var contract *domain.Contract
	err := c.call(ctx, "contracts", func() error {
		var (
			rows  []contractRow
			items []lineItemRow
		)
		g, gctx := errgroup.WithContext(ctx)
		g.Go(func() (err error) {
			rows, err = getRows[contractRow](gctx, c, fmt.Sprintf("contracts?id=eq.%s&limit=1", id))
			return err
		})
		g.Go(func() (err error) {
			items, err = getRows[lineItemRow](gctx, c, fmt.Sprintf("contract_line_items?contract_id=eq.%s&order=position.asc", id))
			return err
		})
		if err := g.Wait(); err != nil {
			return err
		}
		if len(rows) == 0 {
			return resilience.Permanent(&domain.ErrNotFound{Resource: "contract", ID: contractID})
		}
		ct := assembleContract(rows[0], items)
		contract = &ct
		return nil
	})
	if err != nil {
		return nil, err
	}
	return contract, nil
}

// saveContractArgs is the payload of the save_contract Postgres function.
// Line items are replaced wholesale inside the same transaction as the
// contract upsert.
type saveContractArgs struct {
	Contract  contractRow   `json:"p_contract"`
	LineItems []lineItemRow `json:"p_line_items"`
}

// SaveContract writes the contract and its line items atomically.
func (c *Client) SaveContract(ctx context.Context, contract *domain.Contract) (*domain.Contract, error) {
	ctx, span := tracer.Start(ctx, "Supabase.SaveContract")
	defer span.End()

	saved := contract.Clone()
	if saved.ID == "" {
		saved.ID = uuid.New().String()
	}
	now := time.Now().UTC()
	if saved.CreatedAt.IsZero() {
		saved.CreatedAt = now
	}
	saved.UpdatedAt = now
	for i := range saved.LineItems {
		if saved.LineItems[i].ID == "" {
			saved.LineItems[i].ID = uuid.New().String()
		}
	}
	span.SetAttributes(attribute.String("contract.id", saved.ID))

	args := saveContractArgs{
		Contract:  toContractRow(saved),
		LineItems: toLineItemRows(saved.ID, saved.LineItems),
	}
	err := c.call(ctx, "save_contract", func() error {
		_, err := c.doRPC(ctx, "save_contract", args)
		return err
	})
	if err != nil {
		return nil, err
	}
	return saved, nil
}
