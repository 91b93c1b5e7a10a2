package ai

import (
	"context"
	"fmt"
	"strings"
	"time"

	"resumescore/internal/config"
	"resumescore/internal/errors"
	"resumescore/internal/types"
)

// Result is one feedback response together with its request metadata
type Result struct {
	Feedback  types.Feedback
	Usage     *TokenUsage
	Truncated bool
	Model     string
	Duration  time.Duration
}

// Service truncates résumé text and requests feedback from a provider
type Service struct {
	Provider      FeedbackProvider // Exported for health and stats in the server package
	model         string
	maxInputChars int
	logger        *errors.Logger
}

// NewService builds the feedback service from configuration. Without an API
// key it returns a FEEDBACK_UNAVAILABLE config error; callers treat that as
// "scoring only" rather than a fatal condition.
func NewService(cfg *config.Config, logger *errors.Logger) (*Service, error) {
	opCfg := cfg.GetFeedbackConfig()

	logger.Debug("Initializing AI service",
		"provider", opCfg.Provider,
		"model", opCfg.Model,
		"temperature", *opCfg.Temperature,
		"timeout", *opCfg.Timeout,
		"max_retries", *opCfg.MaxRetries,
		"max_input_chars", *opCfg.MaxInputChars,
		"use_system_prompts", *opCfg.UseSystemPrompts)

	if opCfg.APIKey == "" {
		return nil, errors.NewConfigError(errors.ErrCodeFeedbackDisabled,
			"feedback is unavailable: no AI API key configured (set RESUMESCORE_AI_APIKEY)", nil)
	}

	var provider FeedbackProvider
	var err error
	switch opCfg.Provider {
	case "gemini":
		provider, err = NewGeminiProvider(opCfg, cfg.GetLoadedPrompts(),
			cfg.Observability.HealthCheck.AIModelCheckTimeout, logger)
	default:
		return nil, errors.NewConfigError(errors.ErrCodeInvalidConfig,
			fmt.Sprintf("Unsupported AI provider: %s", opCfg.Provider), nil)
	}
	if err != nil {
		return nil, err
	}

	return NewServiceWithProvider(provider, opCfg.Model, *opCfg.MaxInputChars, logger), nil
}

// NewServiceWithProvider wraps an existing provider
func NewServiceWithProvider(provider FeedbackProvider, model string, maxInputChars int, logger *errors.Logger) *Service {
	return &Service{
		Provider:      provider,
		model:         model,
		maxInputChars: maxInputChars,
		logger:        logger,
	}
}

// Generate requests feedback for the leading maxInputChars runes of the
// résumé. Blank text is rejected before any network call.
func (s *Service) Generate(ctx context.Context, input types.FeedbackInput) (*Result, error) {
	if strings.TrimSpace(input.ResumeText) == "" {
		return nil, errors.NewValidationError(errors.ErrCodeEmptyDocument,
			"resume text is empty", nil)
	}

	text, truncated := TruncateForFeedback(input.ResumeText, s.maxInputChars)
	if truncated {
		s.logger.Debug("Truncated resume text for feedback",
			"max_chars", s.maxInputChars)
	}

	start := time.Now()
	feedback, usage, err := s.Provider.GenerateFeedback(ctx, types.FeedbackInput{
		ResumeText: text,
		Domain:     input.Domain,
	})
	duration := time.Since(start)
	if err != nil {
		return nil, err
	}

	return &Result{
		Feedback:  feedback,
		Usage:     usage,
		Truncated: truncated,
		Model:     s.model,
		Duration:  duration,
	}, nil
}

// Model returns the configured model name
func (s *Service) Model() string {
	return s.model
}

// GetModelInfo returns information about the AI model for health checks
func (s *Service) GetModelInfo(ctx context.Context) *ModelInfo {
	return s.Provider.GetModelInfo(ctx)
}

// CircuitBreakerStats returns breaker statistics when the provider has any
func (s *Service) CircuitBreakerStats() (CircuitBreakerStats, bool) {
	reporter, ok := s.Provider.(StatsReporter)
	if !ok {
		return CircuitBreakerStats{}, false
	}
	return reporter.GetCircuitBreakerStats(), true
}

// Close releases the provider
func (s *Service) Close() error {
	return s.Provider.Close()
}
