package ai

import (
	"context"

	"resumescore/internal/types"
)

// FeedbackProvider produces qualitative résumé feedback from a language model.
// Token usage may be nil when the backend does not report it.
type FeedbackProvider interface {
	GenerateFeedback(ctx context.Context, input types.FeedbackInput) (types.Feedback, *TokenUsage, error)
	GetModelInfo(ctx context.Context) *ModelInfo
	Close() error
}

// StatsReporter is implemented by providers that expose circuit breaker state
type StatsReporter interface {
	GetCircuitBreakerStats() CircuitBreakerStats
}

// TokenUsage represents token usage information from AI responses
type TokenUsage struct {
	InputTokens  int64
	OutputTokens int64
	TotalTokens  int64
}

// ModelInfo represents information about the AI model
type ModelInfo struct {
	Name        string `json:"name"`
	DisplayName string `json:"displayName,omitempty"`
	Version     string `json:"version,omitempty"`
	Available   bool   `json:"available"`
	Error       string `json:"error,omitempty"`
}

// CircuitBreakerStats groups the provider's breakers
type CircuitBreakerStats struct {
	Generate BreakerStats `json:"generate"`
	Model    BreakerStats `json:"model"`
	Healthy  bool         `json:"healthy"`
}
