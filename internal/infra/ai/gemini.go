// Package ai adapts hosted LLM providers to port.Completer.
package ai

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/boddenberg/jjr-ops-go/internal/domain"
	"github.com/boddenberg/jjr-ops-go/internal/infra/resilience"

	"github.com/sony/gobreaker"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
	"google.golang.org/genai"
)

var tracer = otel.Tracer("ai")

// Gemini calls the Gemini API through the genai SDK.
type Gemini struct {
	client *genai.Client
	model  string
	cb     *gobreaker.CircuitBreaker
	cfg    resilience.Config
	logger *zap.Logger
}

// GeminiOptions configures NewGemini. BaseURL and HTTPClient are only set
// when pointing the client at a proxy or a test server.
type GeminiOptions struct {
	APIKey     string
	Model      string
	BaseURL    string
	HTTPClient *http.Client
}

// NewGemini creates a Gemini completer.
func NewGemini(ctx context.Context, opts GeminiOptions, cb *gobreaker.CircuitBreaker, cfg resilience.Config, logger *zap.Logger) (*Gemini, error) {
	cc := &genai.ClientConfig{
		APIKey:     opts.APIKey,
		Backend:    genai.BackendGeminiAPI,
		HTTPClient: opts.HTTPClient,
	}
	if opts.BaseURL != "" {
		cc.HTTPOptions = genai.HTTPOptions{BaseURL: opts.BaseURL}
	}
	client, err := genai.NewClient(ctx, cc)
	if err != nil {
		return nil, err
	}
	return &Gemini{client: client, model: opts.Model, cb: cb, cfg: cfg, logger: logger}, nil
}

// Complete sends the prompt with the job context as system instruction.
func (g *Gemini) Complete(ctx context.Context, req *domain.CompletionRequest) (*domain.CompletionResult, error) {
	ctx, span := tracer.Start(ctx, "Gemini.Complete")
	defer span.End()
	span.SetAttributes(attribute.String("llm.model", g.model))

	conf := &genai.GenerateContentConfig{}
	if req.SystemInstruction != "" {
		conf.SystemInstruction = genai.NewContentFromText(req.SystemInstruction, genai.RoleUser)
	}

	var resp *genai.GenerateContentResponse
	err := resilience.Call(ctx, g.cb, g.cfg, "gemini", func() error {
		r, err := g.client.Models.GenerateContent(ctx, g.model, genai.Text(req.Prompt), conf)
		if err != nil {
			return classifyGemini(err)
		}
		resp = r
		return nil
	})
	if err != nil {
		var open *domain.ErrCircuitOpen
		if errors.As(err, &open) {
			return nil, err
		}
		return nil, &domain.ErrExternalService{Service: "gemini", Err: err}
	}

	out := &domain.CompletionResult{Text: strings.TrimSpace(resp.Text()), Model: g.model}
	if u := resp.UsageMetadata; u != nil {
		out.TokensUsed = domain.TokenUsage{
			PromptTokens:     int(u.PromptTokenCount),
			CompletionTokens: int(u.CandidatesTokenCount),
			TotalTokens:      int(u.TotalTokenCount),
		}
	}
	g.logger.Debug("gemini completion",
		zap.String("model", g.model),
		zap.Int("prompt_tokens", out.TokensUsed.PromptTokens),
		zap.Int("completion_tokens", out.TokensUsed.CompletionTokens),
	)
	return out, nil
}

// Client errors other than rate limiting are not retried.
func classifyGemini(err error) error {
	var apiErr genai.APIError
	if errors.As(err, &apiErr) && isPermanentStatus(apiErr.Code) {
		return resilience.Permanent(err)
	}
	return err
}

func isPermanentStatus(code int) bool {
	return code >= 400 && code < 500 && code != http.StatusTooManyRequests
}
