package service

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"
	"time"

	"github.com/boddenberg/jjr-ops-go/internal/domain"
	"github.com/boddenberg/jjr-ops-go/internal/infra/observability"
	"github.com/boddenberg/jjr-ops-go/internal/money"
	"github.com/boddenberg/jjr-ops-go/internal/port"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

var tracer = otel.Tracer("service/assistant")

// FallbackReply is returned when the provider answers with no text.
const FallbackReply = "I couldn't generate a response. Please try again."

// Assistant answers questions about a single job through a text-completion
// provider. Replies are returned verbatim and never change job state.
type Assistant struct {
	jobs      port.JobStore
	completer port.Completer
	cache     port.Cache[*domain.CompletionResult]
	metrics   *observability.Metrics
	logger    *zap.Logger
}

// NewAssistant creates the assistant service. completer may be nil when no
// provider key is configured.
func NewAssistant(
	jobs port.JobStore,
	completer port.Completer,
	cache port.Cache[*domain.CompletionResult],
	metrics *observability.Metrics,
	logger *zap.Logger,
) *Assistant {
	return &Assistant{
		jobs:      jobs,
		completer: completer,
		cache:     cache,
		metrics:   metrics,
		logger:    logger,
	}
}

// Ask sends the job context plus the user's message, or the prompt of a
// quick action, to the provider.
func (a *Assistant) Ask(ctx context.Context, jobID string, req *domain.AssistantRequest) (*domain.AssistantResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	ctx, span := tracer.Start(ctx, "Assistant.Ask")
	defer span.End()
	span.SetAttributes(attribute.String("job.id", jobID), attribute.String("action", string(req.Action)))

	if a.completer == nil {
		return nil, &domain.ErrUnavailable{Feature: "assistant"}
	}

	job, err := a.jobs.GetJob(ctx, jobID)
	if err != nil {
		return nil, err
	}

	prompt := strings.TrimSpace(req.Message)
	if req.Action != "" {
		prompt, err = QuickActionPrompt(req.Action, job)
		if err != nil {
			return nil, err
		}
	}
	if prompt == "" {
		return nil, &domain.ErrValidation{Field: "message", Message: "message or action is required"}
	}

	start := time.Now()
	defer func() {
		a.metrics.RecordRequestDuration("assistant", time.Since(start))
	}()

	system := BuildJobContext(job)

	// Quick actions on an unchanged job give the same answer; skip the call.
	key := cacheKey(job, prompt)
	if req.Action != "" {
		if cached, ok := a.cache.Get(key); ok {
			a.metrics.IncrCacheHit("assistant")
			return &domain.AssistantResult{JobID: jobID, Prompt: prompt, Completion: cached, ProcessedAt: time.Now()}, nil
		}
		a.metrics.IncrCacheMiss("assistant")
	}

	res, err := a.completer.Complete(ctx, &domain.CompletionRequest{SystemInstruction: system, Prompt: prompt})
	if err != nil {
		a.logger.Error("assistant completion failed",
			zap.String("job_id", jobID),
			zap.Error(err),
		)
		a.metrics.IncrAssistant("error")
		a.metrics.IncrExternalError("assistant")
		return nil, fmt.Errorf("assistant completion: %w", err)
	}
	a.metrics.IncrAssistant("success")
	a.metrics.RecordTokens(res.TokensUsed.PromptTokens, res.TokensUsed.CompletionTokens)

	if strings.TrimSpace(res.Text) == "" {
		res.Text = FallbackReply
	} else if req.Action != "" {
		a.cache.Set(key, res)
	}

	return &domain.AssistantResult{
		JobID:       jobID,
		Prompt:      prompt,
		Completion:  res,
		ProcessedAt: time.Now(),
	}, nil
}

// QuickActionPrompt returns the canned prompt for action.
func QuickActionPrompt(action domain.QuickAction, job *domain.Job) (string, error) {
	switch action {
	case domain.ActionAnalyzeHealth:
		return "Analyze this job's health. Look at the phase duration, margin, and missing info. " +
			"Give me 3 bullet points on risks and next steps.", nil
	case domain.ActionDraftUpdate:
		return fmt.Sprintf("Draft a polite email to the client (%s) updating them on our progress in Phase %d. "+
			"Keep it professional and reassuring.", job.Client.Name, job.PhaseTracking.CurrentPhase), nil
	case domain.ActionSupplementIdeas:
		return "Based on the damage type and current financials, what are common supplement items we might have missed? " +
			"List them with brief reasoning.", nil
	}
	return "", &domain.ErrValidation{Field: "action", Message: "unknown quick action " + string(action)}
}

// BuildJobContext renders the job snapshot used as the system instruction.
func BuildJobContext(job *domain.Job) string {
	var b strings.Builder
	f := job.Financials
	pt := job.PhaseTracking

	email := job.Client.Email
	if email == "" {
		email = "No email"
	}
	stuck := "No"
	if pt.IsStuck {
		stuck = "YES"
	}

	fmt.Fprintf(&b, "You are an expert roofing project manager and insurance restoration consultant for %s.\n\n", domain.CompanyName)

	b.WriteString("CURRENT JOB CONTEXT:\n")
	fmt.Fprintf(&b, "- Client: %s (%s)\n", job.Client.Name, email)
	fmt.Fprintf(&b, "- Job Number: %s\n", job.JobNumber)
	fmt.Fprintf(&b, "- Address: %s\n", job.Client.Address)
	fmt.Fprintf(&b, "- Current Phase: %d - %s\n", pt.CurrentPhase, domain.PhaseName(pt.CurrentPhase))
	fmt.Fprintf(&b, "- Days in Phase: %d\n", pt.DaysInPhase)
	fmt.Fprintf(&b, "- Stuck: %s\n\n", stuck)

	b.WriteString("FINANCIALS:\n")
	fmt.Fprintf(&b, "- RCV (Revenue Potential): %s\n", money.Dollars(f.Insurance.RCVTotal+f.Insurance.SupplementsTotal))
	fmt.Fprintf(&b, "- ACV Received: %s\n", money.Dollars(f.Payments.ACVReceived))
	fmt.Fprintf(&b, "- Deductible: %s\n", money.Dollars(f.Insurance.Deductible))
	fmt.Fprintf(&b, "- Est. Gross Profit: %s\n", money.Dollars(f.Profitability.GrossProfit))
	fmt.Fprintf(&b, "- Gross Margin: %.1f%% (Target is >30%%)\n\n", f.Profitability.GrossMargin)

	b.WriteString("DETAILS:\n")
	fmt.Fprintf(&b, "- Damage Type: %s\n", job.Details.DamageType)
	fmt.Fprintf(&b, "- Storm Date: %s\n", job.Details.StormDate)
	fmt.Fprintf(&b, "- Carrier: %s\n\n", job.Client.Carrier)

	b.WriteString("SUPPLEMENTS:\n")
	if len(job.Supplements) == 0 {
		b.WriteString("No supplements filed.\n")
	}
	for _, s := range job.Supplements {
		fmt.Fprintf(&b, "- %s: %s (%s)\n", s.Reason, s.Status, money.Dollars(s.AmountRequested))
	}

	b.WriteString("\nYOUR ROLE:\n")
	b.WriteString("Provide concise, actionable advice. If generating emails, make them professional. " +
		"If analyzing financials, be critical about low margins.\n")
	return b.String()
}

func cacheKey(job *domain.Job, prompt string) string {
	h := sha256.Sum256([]byte(prompt))
	return fmt.Sprintf("assistant:%s:%d:%s", job.ID, job.UpdatedAt.UnixNano(), hex.EncodeToString(h[:8]))
}
