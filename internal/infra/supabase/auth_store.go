package supabase

import (
	"context"
	"fmt"
	"net/url"
	"time"

	"github.com/boddenberg/jjr-ops-go/internal/domain"

	"github.com/google/uuid"
)

// ============================================================
// SalesRepStore + AuthStore: sales_reps, rep_credentials,
// rep_refresh_tokens via PostgREST
// ============================================================

// --- Sales reps ---

func (c *Client) ListSalesReps(ctx context.Context) ([]domain.SalesRep, error) {
	ctx, span := tracer.Start(ctx, "Supabase.ListSalesReps")
	defer span.End()

	var out []domain.SalesRep
	err := c.call(ctx, "sales_reps", func() error {
		rows, err := getRows[salesRepRow](ctx, c, "sales_reps?select=*&order=created_at.desc")
		if err != nil {
			return err
		}
		out = make([]domain.SalesRep, 0, len(rows))
		for _, r := range rows {
			out = append(out, fromSalesRepRow(r))
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) GetSalesRep(ctx context.Context, repID string) (*domain.SalesRep, error) {
	ctx, span := tracer.Start(ctx, "Supabase.GetSalesRep")
	defer span.End()

	rep, err := c.findSalesRep(ctx, fmt.Sprintf("sales_reps?id=eq.%s&limit=1", url.QueryEscape(repID)))
	if err != nil {
		return nil, err
	}
	if rep == nil {
		return nil, &domain.ErrNotFound{Resource: "sales_rep", ID: repID}
	}
	return rep, nil
}

// GetSalesRepByEmail returns nil, nil when nobody uses the address.
func (c *Client) GetSalesRepByEmail(ctx context.Context, email string) (*domain.SalesRep, error) {
	ctx, span := tracer.Start(ctx, "Supabase.GetSalesRepByEmail")
	defer span.End()

	return c.findSalesRep(ctx, fmt.Sprintf("sales_reps?email=ilike.%s&limit=1", url.QueryEscape(email)))
}

func (c *Client) findSalesRep(ctx context.Context, path string) (*domain.SalesRep, error) {
	var rep *domain.SalesRep
	err := c.call(ctx, "sales_reps", func() error {
		rows, err := getRows[salesRepRow](ctx, c, path)
		if err != nil {
			return err
		}
		if len(rows) > 0 {
			r := fromSalesRepRow(rows[0])
			rep = &r
		}
		return nil
	})
	return rep, err
}

func (c *Client) SaveSalesRep(ctx context.Context, rep *domain.SalesRep) (*domain.SalesRep, error) {
	ctx, span := tracer.Start(ctx, "Supabase.SaveSalesRep")
	defer span.End()

	saved := *rep
	if saved.ID == "" {
		saved.ID = uuid.New().String()
	}
	now := time.Now().UTC()
	if saved.CreatedAt.IsZero() {
		saved.CreatedAt = now
	}
	saved.UpdatedAt = now

	row := toSalesRepRow(&saved)
	err := c.call(ctx, "sales_reps", func() error {
		return c.doUpsert(ctx, "sales_reps", row)
	})
	if err != nil {
		return nil, err
	}
	return &saved, nil
}

// --- Credentials ---

// GetCredentials returns nil, nil for a rep without a password.
func (c *Client) GetCredentials(ctx context.Context, repID string) (*domain.RepCredential, error) {
	ctx, span := tracer.Start(ctx, "Supabase.GetCredentials")
	defer span.End()

	var cred *domain.RepCredential
	err := c.call(ctx, "rep_credentials", func() error {
		rows, err := getRows[domain.RepCredential](ctx, c, fmt.Sprintf("rep_credentials?rep_id=eq.%s&limit=1", url.QueryEscape(repID)))
		if err != nil {
			return err
		}
		if len(rows) > 0 {
			cred = &rows[0]
		}
		return nil
	})
	return cred, err
}

func (c *Client) SaveCredentials(ctx context.Context, cred *domain.RepCredential) error {
	ctx, span := tracer.Start(ctx, "Supabase.SaveCredentials")
	defer span.End()

	return c.call(ctx, "rep_credentials", func() error {
		return c.doUpsert(ctx, "rep_credentials", cred)
	})
}

// --- Refresh tokens ---

func (c *Client) StoreRefreshToken(ctx context.Context, repID, tokenHash string, expiresAt time.Time) error {
	ctx, span := tracer.Start(ctx, "Supabase.StoreRefreshToken")
	defer span.End()

	data := map[string]any{
		"id":         uuid.New().String(),
		"rep_id":     repID,
		"token_hash": tokenHash,
		"expires_at": expiresAt.UTC().Format(time.RFC3339),
	}
	return c.call(ctx, "rep_refresh_tokens", func() error {
		_, err := c.doPost(ctx, "rep_refresh_tokens", data)
		return err
	})
}

// GetRefreshToken returns nil, nil for unknown or revoked tokens.
func (c *Client) GetRefreshToken(ctx context.Context, tokenHash string) (*domain.RefreshToken, error) {
	ctx, span := tracer.Start(ctx, "Supabase.GetRefreshToken")
	defer span.End()

	var tok *domain.RefreshToken
	err := c.call(ctx, "rep_refresh_tokens", func() error {
		path := fmt.Sprintf("rep_refresh_tokens?token_hash=eq.%s&revoked_at=is.null&limit=1", url.QueryEscape(tokenHash))
		rows, err := getRows[domain.RefreshToken](ctx, c, path)
		if err != nil {
			return err
		}
		if len(rows) > 0 {
			tok = &rows[0]
		}
		return nil
	})
	return tok, err
}

func (c *Client) RevokeRefreshToken(ctx context.Context, tokenHash string) error {
	ctx, span := tracer.Start(ctx, "Supabase.RevokeRefreshToken")
	defer span.End()

	path := fmt.Sprintf("rep_refresh_tokens?token_hash=eq.%s", url.QueryEscape(tokenHash))
	return c.call(ctx, "rep_refresh_tokens", func() error {
		return c.doPatch(ctx, path, map[string]any{"revoked_at": time.Now().UTC().Format(time.RFC3339)})
	})
}

func (c *Client) RevokeAllRefreshTokens(ctx context.Context, repID string) error {
	ctx, span := tracer.Start(ctx, "Supabase.RevokeAllRefreshTokens")
	defer span.End()

	path := fmt.Sprintf("rep_refresh_tokens?rep_id=eq.%s&revoked_at=is.null", url.QueryEscape(repID))
	return c.call(ctx, "rep_refresh_tokens", func() error {
		return c.doPatch(ctx, path, map[string]any{"revoked_at": time.Now().UTC().Format(time.RFC3339)})
	})
}
