package domain

import "time"

// ============================================================
// Job AI assistant
// ============================================================

// QuickAction is a canned assistant prompt offered next to each job.
type QuickAction string

const (
	ActionAnalyzeHealth   QuickAction = "analyze-health"
	ActionDraftUpdate     QuickAction = "draft-update"
	ActionSupplementIdeas QuickAction = "supplement-ideas"
)

// CompletionRequest is what the assistant sends to a text-completion provider.
type CompletionRequest struct {
	SystemInstruction string
	Prompt            string
}

// CompletionResult is the provider reply, returned to the user verbatim.
type CompletionResult struct {
	Text       string
	Model      string
	TokensUsed TokenUsage
}

// TokenUsage tracks LLM token consumption.
type TokenUsage struct {
	PromptTokens     int `json:"promptTokens"`
	CompletionTokens int `json:"completionTokens"`
	TotalTokens      int `json:"totalTokens"`
}

// AssistantRequest is the body of POST /v1/jobs/{jobId}/assistant.
// Either Message or Action must be set.
type AssistantRequest struct {
	Message        string      `json:"message"`
	Action         QuickAction `json:"action,omitempty" validate:"omitempty,oneof=analyze-health draft-update supplement-ideas"`
	ConversationID string      `json:"conversationId,omitempty"`
}

// AssistantMessage is a single chat message.
type AssistantMessage struct {
	ID        string           `json:"id"`
	Role      string           `json:"role"` // user, model
	Content   string           `json:"content"`
	Timestamp string           `json:"timestamp"`
	Metadata  *MessageMetadata `json:"metadata,omitempty"`
}

type MessageMetadata struct {
	Model      string      `json:"model,omitempty"`
	TokenUsage *TokenUsage `json:"tokenUsage,omitempty"`
	LatencyMs  int64       `json:"latencyMs,omitempty"`
}

// AssistantResponse is returned by the assistant endpoint.
type AssistantResponse struct {
	ConversationID string            `json:"conversationId"`
	JobID          string            `json:"jobId"`
	Prompt         string            `json:"prompt"`
	Message        *AssistantMessage `json:"message"`
}

// AssistantResult is the service-level result before mapping to the API shape.
type AssistantResult struct {
	JobID       string
	Prompt      string
	Completion  *CompletionResult
	ProcessedAt time.Time
}
