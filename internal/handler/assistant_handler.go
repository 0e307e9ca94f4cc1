package handler

import (
	"net/http"
	"time"

	"github.com/boddenberg/jjr-ops-go/internal/domain"
	"github.com/boddenberg/jjr-ops-go/internal/service"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

// ============================================================
// Job assistant: POST /v1/jobs/{jobId}/assistant
// ============================================================

func assistantHandler(svc *service.Assistant, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "POST /v1/jobs/{jobId}/assistant")
		defer span.End()

		jobID := chi.URLParam(r, "jobId")
		span.SetAttributes(attribute.String("job.id", jobID))

		var req domain.AssistantRequest
		if !decodeJSON(w, r, &req) {
			return
		}

		start := time.Now()
		result, err := svc.Ask(ctx, jobID, &req)
		latencyMs := time.Since(start).Milliseconds()
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}

		convID := req.ConversationID
		if convID == "" {
			convID = uuid.New().String()
		}

		usage := result.Completion.TokensUsed
		resp := domain.AssistantResponse{
			ConversationID: convID,
			JobID:          result.JobID,
			Prompt:         result.Prompt,
			Message: &domain.AssistantMessage{
				ID:        uuid.New().String(),
				Role:      "model",
				Content:   result.Completion.Text,
				Timestamp: result.ProcessedAt.Format(time.RFC3339),
				Metadata: &domain.MessageMetadata{
					Model:      result.Completion.Model,
					TokenUsage: &usage,
					LatencyMs:  latencyMs,
				},
			},
		}

		writeJSON(w, http.StatusOK, resp)
	}
}
