// Package supabase provides a client for Supabase (PostgREST).
// It is the remote data backend for jobs, leads, contracts and sales reps.
package supabase

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/boddenberg/jjr-ops-go/internal/domain"
	"github.com/boddenberg/jjr-ops-go/internal/infra/resilience"

	"github.com/sony/gobreaker"
	"go.opentelemetry.io/otel"
	"go.uber.org/zap"
)

var tracer = otel.Tracer("supabase")

// Client wraps HTTP calls to Supabase PostgREST API.
type Client struct {
	httpClient     *http.Client
	baseURL        string
	apiKey         string
	serviceRoleKey string
	cb             *gobreaker.CircuitBreaker
	cfg            resilience.Config
	logger         *zap.Logger
}

// NewClient creates a Supabase client.
func NewClient(httpClient *http.Client, baseURL, apiKey, serviceRoleKey string, cb *gobreaker.CircuitBreaker, cfg resilience.Config, logger *zap.Logger) *Client {
	if serviceRoleKey == "" {
		serviceRoleKey = apiKey
	}
	return &Client{
		httpClient:     httpClient,
		baseURL:        strings.TrimRight(baseURL, "/"),
		apiKey:         apiKey,
		serviceRoleKey: serviceRoleKey,
		cb:             cb,
		cfg:            cfg,
		logger:         logger,
	}
}

// APIError is a non-2xx answer from PostgREST.
type APIError struct {
	Method string
	Path   string
	Status int
	Body   string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("supabase %s %s returned %d: %s", e.Method, e.Path, e.Status, e.Body)
}

// doRequest executes an authenticated GET against PostgREST.
func (c *Client) doRequest(ctx context.Context, method, path string) ([]byte, error) {
	return c.send(ctx, method, path, nil, "")
}

// call runs fn behind the breaker with retries. Not-found errors pass
// through; every other failure becomes ErrExternalService.
func (c *Client) call(ctx context.Context, op string, fn func() error) error {
	err := resilience.Call(ctx, c.cb, c.cfg, "supabase", fn)
	if err == nil {
		return nil
	}
	var nf *domain.ErrNotFound
	if errors.As(err, &nf) {
		return err
	}
	return &domain.ErrExternalService{Service: "supabase/" + op, Err: err}
}

// Ping checks that PostgREST answers with our credentials.
func (c *Client) Ping(ctx context.Context) error {
	ctx, span := tracer.Start(ctx, "Supabase.Ping")
	defer span.End()

	_, err := c.doRequest(ctx, http.MethodGet, "sales_reps?select=id&limit=1")
	if err != nil {
		return &domain.ErrExternalService{Service: "supabase/ping", Err: err}
	}
	return nil
}

// getRows fetches path and decodes a JSON array of rows.
func getRows[T any](ctx context.Context, c *Client, path string) ([]T, error) {
	body, err := c.doRequest(ctx, http.MethodGet, path)
	if err != nil {
		return nil, err
	}
	if len(body) == 0 {
		return []T{}, nil
	}
	var rows []T
	if err := json.Unmarshal(body, &rows); err != nil {
		return nil, resilience.Permanent(fmt.Errorf("decode %s: %w", tableOf(path), err))
	}
	return rows, nil
}

func tableOf(path string) string {
	if i := strings.IndexAny(path, "?/"); i >= 0 {
		return path[:i]
	}
	return path
}
