package analysis

import (
	"fmt"

	"resumescore/internal/ai"
	"resumescore/internal/config"
	"resumescore/internal/errors"
	"resumescore/internal/extract"
	"resumescore/internal/scoring"
)

// Components is an analysis service together with the feedback service
// behind it. Feedback is nil when no AI service could be built.
type Components struct {
	Analysis *Service
	Feedback *ai.Service
}

// Close releases the feedback provider, if any
func (c *Components) Close() error {
	if c == nil || c.Feedback == nil {
		return nil
	}
	return c.Feedback.Close()
}

// Build wires extraction, scoring and feedback from configuration. A
// feedback service that cannot be built is not an error: the analysis
// service then runs in score-only mode and reports why.
func Build(cfg *config.Config, logger *errors.Logger, metrics Metrics) (*Components, error) {
	profiles, err := cfg.Scoring.ProfileSet()
	if err != nil {
		return nil, errors.NewConfigError(errors.ErrCodeInvalidConfig,
			fmt.Sprintf("invalid scoring profiles: %v", err), err)
	}

	extractor := extract.NewService(extract.WithMaxFileSize(cfg.App.MaxFileSize))
	engine := scoring.NewEngine(profiles)

	opts := []Option{WithMetrics(metrics)}

	feedback, err := ai.NewService(cfg, logger)
	if err != nil {
		if errors.HasCode(err, errors.ErrCodeFeedbackDisabled) {
			logger.Warn("AI feedback disabled, scores only", "reason", err.Error())
		} else {
			logger.LogError(err, "Failed to initialize AI feedback, scores only")
		}
		opts = append(opts, WithFeedbackUnavailable(err))
		feedback = nil
	} else {
		opts = append(opts, WithFeedback(feedback))
	}

	return &Components{
		Analysis: NewService(extractor, engine, logger, opts...),
		Feedback: feedback,
	}, nil
}
