package ai_test

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/boddenberg/jjr-ops-go/internal/domain"
	"github.com/boddenberg/jjr-ops-go/internal/infra/ai"
	"github.com/boddenberg/jjr-ops-go/internal/infra/resilience"
	"github.com/boddenberg/jjr-ops-go/internal/port"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

var (
	_ port.Completer = (*ai.Gemini)(nil)
	_ port.Completer = (*ai.OpenAI)(nil)
)

var testCfg = resilience.Config{MaxRetries: 2, InitialBackoff: time.Millisecond}

func TestOpenAI_Complete(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer sk-test", r.Header.Get("Authorization"))

		var body struct {
			Model    string `json:"model"`
			Messages []struct {
				Role    string `json:"role"`
				Content string `json:"content"`
			} `json:"messages"`
		}
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "gpt-4o-mini", body.Model)
		if assert.Len(t, body.Messages, 2) {
			assert.Equal(t, "system", body.Messages[0].Role)
			assert.Equal(t, "Summarize the job", body.Messages[1].Content)
		}

		w.Header().Set("Content-Type", "application/json")
		io.WriteString(w, `{"id":"x","object":"chat.completion","model":"gpt-4o-mini",
			"choices":[{"index":0,"message":{"role":"assistant","content":"  Margin looks thin.  "},"finish_reason":"stop"}],
			"usage":{"prompt_tokens":120,"completion_tokens":30,"total_tokens":150}}`)
	}))
	defer srv.Close()

	c := ai.NewOpenAI("sk-test", "gpt-4o-mini", srv.URL+"/v1", resilience.NewCircuitBreaker("openai-test"), testCfg, zap.NewNop())

	res, err := c.Complete(context.Background(), &domain.CompletionRequest{
		SystemInstruction: "You are a roofing project manager.",
		Prompt:            "Summarize the job",
	})
	require.NoError(t, err)
	assert.Equal(t, "Margin looks thin.", res.Text)
	assert.Equal(t, 120, res.TokensUsed.PromptTokens)
	assert.Equal(t, 30, res.TokensUsed.CompletionTokens)
}

func TestOpenAI_ClientErrorNotRetried(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusUnauthorized)
		io.WriteString(w, `{"error":{"message":"bad key","type":"invalid_request_error"}}`)
	}))
	defer srv.Close()

	c := ai.NewOpenAI("sk-bad", "gpt-4o-mini", srv.URL+"/v1", resilience.NewCircuitBreaker("openai-test"), testCfg, zap.NewNop())

	_, err := c.Complete(context.Background(), &domain.CompletionRequest{Prompt: "hi"})

	var ext *domain.ErrExternalService
	require.ErrorAs(t, err, &ext)
	assert.Equal(t, "openai", ext.Service)
	assert.Equal(t, int32(1), calls.Load())
}

func TestGemini_Complete(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.True(t, strings.HasSuffix(r.URL.Path, "models/gemini-2.5-flash:generateContent"), r.URL.Path)

		raw, _ := io.ReadAll(r.Body)
		assert.Contains(t, string(raw), "Analyze this job")
		assert.Contains(t, string(raw), "systemInstruction")

		w.Header().Set("Content-Type", "application/json")
		io.WriteString(w, `{"candidates":[{"content":{"role":"model","parts":[{"text":"- Phase 4 for 20 days"}]},"finishReason":"STOP"}],
			"usageMetadata":{"promptTokenCount":200,"candidatesTokenCount":40,"totalTokenCount":240}}`)
	}))
	defer srv.Close()

	g, err := ai.NewGemini(context.Background(), ai.GeminiOptions{
		APIKey:     "test-key",
		Model:      "gemini-2.5-flash",
		BaseURL:    srv.URL,
		HTTPClient: srv.Client(),
	}, resilience.NewCircuitBreaker("gemini-test"), testCfg, zap.NewNop())
	require.NoError(t, err)

	res, err := g.Complete(context.Background(), &domain.CompletionRequest{
		SystemInstruction: "Job context",
		Prompt:            "Analyze this job",
	})
	require.NoError(t, err)
	assert.Equal(t, "- Phase 4 for 20 days", res.Text)
	assert.Equal(t, 200, res.TokensUsed.PromptTokens)
	assert.Equal(t, 40, res.TokensUsed.CompletionTokens)
}
