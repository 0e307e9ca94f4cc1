package ai

import (
	"context"
	"errors"
	"strings"

	"github.com/boddenberg/jjr-ops-go/internal/domain"
	"github.com/boddenberg/jjr-ops-go/internal/infra/resilience"

	openai "github.com/sashabaranov/go-openai"
	"github.com/sony/gobreaker"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

// OpenAI calls the chat completions API.
type OpenAI struct {
	client *openai.Client
	model  string
	cb     *gobreaker.CircuitBreaker
	cfg    resilience.Config
	logger *zap.Logger
}

// NewOpenAI creates an OpenAI completer. An empty baseURL uses the public API.
func NewOpenAI(apiKey, model, baseURL string, cb *gobreaker.CircuitBreaker, cfg resilience.Config, logger *zap.Logger) *OpenAI {
	oc := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		oc.BaseURL = baseURL
	}
	return &OpenAI{
		client: openai.NewClientWithConfig(oc),
		model:  model,
		cb:     cb,
		cfg:    cfg,
		logger: logger,
	}
}

func (o *OpenAI) Complete(ctx context.Context, req *domain.CompletionRequest) (*domain.CompletionResult, error) {
	ctx, span := tracer.Start(ctx, "OpenAI.Complete")
	defer span.End()
	span.SetAttributes(attribute.String("llm.model", o.model))

	messages := make([]openai.ChatCompletionMessage, 0, 2)
	if req.SystemInstruction != "" {
		messages = append(messages, openai.ChatCompletionMessage{Role: openai.ChatMessageRoleSystem, Content: req.SystemInstruction})
	}
	messages = append(messages, openai.ChatCompletionMessage{Role: openai.ChatMessageRoleUser, Content: req.Prompt})

	var resp openai.ChatCompletionResponse
	err := resilience.Call(ctx, o.cb, o.cfg, "openai", func() error {
		r, err := o.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
			Model:    o.model,
			Messages: messages,
		})
		if err != nil {
			var apiErr *openai.APIError
			if errors.As(err, &apiErr) && isPermanentStatus(apiErr.HTTPStatusCode) {
				return resilience.Permanent(err)
			}
			return err
		}
		resp = r
		return nil
	})
	if err != nil {
		var open *domain.ErrCircuitOpen
		if errors.As(err, &open) {
			return nil, err
		}
		return nil, &domain.ErrExternalService{Service: "openai", Err: err}
	}

	out := &domain.CompletionResult{
		Model: o.model,
		TokensUsed: domain.TokenUsage{
			PromptTokens:     resp.Usage.PromptTokens,
			CompletionTokens: resp.Usage.CompletionTokens,
			TotalTokens:      resp.Usage.TotalTokens,
		},
	}
	if len(resp.Choices) > 0 {
		out.Text = strings.TrimSpace(resp.Choices[0].Message.Content)
	}
	o.logger.Debug("openai completion",
		zap.String("model", o.model),
		zap.Int("total_tokens", out.TokensUsed.TotalTokens),
	)
	return out, nil
}
