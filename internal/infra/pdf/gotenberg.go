// Package pdf renders contracts to HTML and converts them to PDF through a
// Gotenberg instance.
package pdf

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"

	"github.com/boddenberg/jjr-ops-go/internal/domain"
	"github.com/boddenberg/jjr-ops-go/internal/infra/resilience"

	"github.com/sony/gobreaker"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
)

var tracer = otel.Tracer("pdf")

const convertPath = "/forms/chromium/convert/html"

// Gotenberg implements port.ContractRenderer.
type Gotenberg struct {
	httpClient *http.Client
	baseURL    string
	cb         *gobreaker.CircuitBreaker
	cfg        resilience.Config
	bulkhead   *resilience.Bulkhead
}

// NewGotenberg creates a renderer. Concurrent conversions are capped at
// cfg.MaxConcurrency since each one occupies a Chromium tab.
func NewGotenberg(httpClient *http.Client, baseURL string, cb *gobreaker.CircuitBreaker, cfg resilience.Config) *Gotenberg {
	return &Gotenberg{
		httpClient: httpClient,
		baseURL:    baseURL,
		cb:         cb,
		cfg:        cfg,
		bulkhead:   resilience.NewBulkhead(cfg.MaxConcurrency),
	}
}

// RenderContract produces the printable A4 PDF of a contract.
func (g *Gotenberg) RenderContract(ctx context.Context, c *domain.Contract) ([]byte, error) {
	ctx, span := tracer.Start(ctx, "Gotenberg.RenderContract")
	defer span.End()
	span.SetAttributes(attribute.String("contract.id", c.ID))

	html, err := RenderContractHTML(c)
	if err != nil {
		return nil, fmt.Errorf("render contract html: %w", err)
	}

	if err := g.bulkhead.Acquire(ctx); err != nil {
		return nil, err
	}
	defer g.bulkhead.Release()

	var out []byte
	err = resilience.Call(ctx, g.cb, g.cfg, "gotenberg", func() error {
		pdf, err := g.convert(ctx, html)
		if err != nil {
			return err
		}
		out = pdf
		return nil
	})
	if err != nil {
		return nil, &domain.ErrExternalService{Service: "gotenberg", Err: err}
	}
	return out, nil
}

// convert posts index.html as a multipart form. The body is rebuilt on
// every attempt.
func (g *Gotenberg) convert(ctx context.Context, indexHTML []byte) ([]byte, error) {
	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)

	fields := []struct{ k, v string }{
		{"paperWidth", "8.27"},
		{"paperHeight", "11.7"},
		{"marginTop", "0.5"},
		{"marginBottom", "0.5"},
		{"marginLeft", "0.5"},
		{"marginRight", "0.5"},
		{"printBackground", "true"},
	}
	for _, f := range fields {
		if err := writer.WriteField(f.k, f.v); err != nil {
			return nil, fmt.Errorf("write field %s: %w", f.k, err)
		}
	}

	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition", `form-data; name="files"; filename="index.html"`)
	h.Set("Content-Type", "text/html")
	part, err := writer.CreatePart(h)
	if err != nil {
		return nil, fmt.Errorf("create html part: %w", err)
	}
	if _, err := part.Write(indexHTML); err != nil {
		return nil, fmt.Errorf("write html part: %w", err)
	}
	if err := writer.Close(); err != nil {
		return nil, fmt.Errorf("close multipart writer: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, g.baseURL+convertPath, body)
	if err != nil {
		return nil, resilience.Permanent(err)
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())

	resp, err := g.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		err := fmt.Errorf("gotenberg returned %d: %s", resp.StatusCode, bytes.TrimSpace(msg))
		if resp.StatusCode >= 400 && resp.StatusCode < 500 {
			return nil, resilience.Permanent(err)
		}
		return nil, err
	}
	return io.ReadAll(resp.Body)
}
