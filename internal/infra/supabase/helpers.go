package supabase

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/boddenberg/jjr-ops-go/internal/infra/resilience"

	"go.uber.org/zap"
)

// ============================================================
// HTTP helpers for POST, PATCH, DELETE and RPC
// ============================================================

const (
	preferRepresentation = "return=representation"
	preferMinimal        = "return=minimal"
	preferUpsert         = "resolution=merge-duplicates,return=minimal"
)

// send performs one PostgREST call. 4xx answers are permanent so they are
// neither retried nor counted against the breaker.
func (c *Client) send(ctx context.Context, method, path string, data any, prefer string) ([]byte, error) {
	url := fmt.Sprintf("%s/rest/v1/%s", c.baseURL, path)

	var payload io.Reader
	if data != nil {
		jsonBody, err := json.Marshal(data)
		if err != nil {
			return nil, resilience.Permanent(err)
		}
		payload = bytes.NewReader(jsonBody)
	}

	req, err := http.NewRequestWithContext(ctx, method, url, payload)
	if err != nil {
		c.logger.Error("supabase: failed to create request",
			zap.String("method", method),
			zap.String("path", path),
			zap.Error(err),
		)
		return nil, resilience.Permanent(err)
	}

	req.Header.Set("apikey", c.apiKey)
	req.Header.Set("Authorization", fmt.Sprintf("Bearer %s", c.serviceRoleKey))
	req.Header.Set("Content-Type", "application/json")
	if prefer != "" {
		req.Header.Set("Prefer", prefer)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Error("supabase: request failed",
			zap.String("method", method),
			zap.String("path", path),
			zap.Error(err),
		)
		return nil, err
	}
	defer resp.Body.Close()

	body, err := readBody(resp)
	if err != nil {
		return nil, err
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		c.logger.Warn("supabase: non-2xx response",
			zap.String("method", method),
			zap.String("path", path),
			zap.Int("status", resp.StatusCode),
			zap.String("body", string(body)),
		)
		apiErr := &APIError{Method: method, Path: tableOf(path), Status: resp.StatusCode, Body: string(body)}
		if resp.StatusCode < 500 && resp.StatusCode != http.StatusTooManyRequests {
			return nil, resilience.Permanent(apiErr)
		}
		return nil, apiErr
	}

	c.logger.Debug("supabase: request OK",
		zap.String("method", method),
		zap.String("path", path),
		zap.Int("status", resp.StatusCode),
	)

	if resp.StatusCode == http.StatusNoContent {
		return nil, nil
	}
	return body, nil
}

func (c *Client) doPost(ctx context.Context, table string, data any) ([]byte, error) {
	return c.send(ctx, http.MethodPost, table, data, preferRepresentation)
}

// doUpsert inserts or merges rows on the primary key.
func (c *Client) doUpsert(ctx context.Context, table string, data any) error {
	_, err := c.send(ctx, http.MethodPost, table, data, preferUpsert)
	return err
}

func (c *Client) doPatch(ctx context.Context, path string, data any) error {
	_, err := c.send(ctx, http.MethodPatch, path, data, preferMinimal)
	return err
}

func (c *Client) doDelete(ctx context.Context, path string) error {
	_, err := c.send(ctx, http.MethodDelete, path, nil, preferMinimal)
	return err
}

// doRPC calls a Postgres function exposed under /rpc. The function runs in
// a single transaction.
func (c *Client) doRPC(ctx context.Context, fn string, args any) ([]byte, error) {
	return c.send(ctx, http.MethodPost, "rpc/"+fn, args, "")
}

func readBody(resp *http.Response) ([]byte, error) {
	var buf bytes.Buffer
	if _, err := buf.ReadFrom(resp.Body); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
