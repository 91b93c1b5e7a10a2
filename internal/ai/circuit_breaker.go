package ai

import (
	"fmt"

	"resumescore/internal/config"
	"resumescore/internal/errors"

	"github.com/sony/gobreaker/v2"
	"google.golang.org/genai"
)

// Breaker guards calls returning T. A nil Breaker passes calls straight through.
type Breaker[T any] struct {
	cb *gobreaker.CircuitBreaker[T]
}

// BreakerStats is a snapshot of a breaker for the stats endpoint
type BreakerStats struct {
	Name    string           `json:"name,omitempty"`
	State   string           `json:"state,omitempty"`
	Counts  gobreaker.Counts `json:"counts"`
	Enabled bool             `json:"enabled"`
}

// NewGenerateBreaker creates the breaker for content generation, tripping
// on the configured failure ratio. Returns nil when disabled.
func NewGenerateBreaker(operation string, cfg config.CircuitBreakerConfig, logger *errors.Logger) *Breaker[*genai.GenerateContentResponse] {
	return newBreaker[*genai.GenerateContentResponse](fmt.Sprintf("AI-%s", operation), cfg, logger,
		func(counts gobreaker.Counts) bool {
			failureRatio := float64(counts.TotalFailures) / float64(counts.Requests)
			return counts.Requests >= cfg.MinRequests && failureRatio >= cfg.FailureThreshold
		})
}

// NewModelBreaker creates the breaker for model availability checks. Those
// are less critical, so it trips later than the generation breaker.
func NewModelBreaker(operation string, cfg config.CircuitBreakerConfig, logger *errors.Logger) *Breaker[*genai.Model] {
	return newBreaker[*genai.Model](fmt.Sprintf("AI-Model-%s", operation), cfg, logger,
		func(counts gobreaker.Counts) bool {
			failureRatio := float64(counts.TotalFailures) / float64(counts.Requests)
			return counts.Requests >= 5 && failureRatio >= 0.8
		})
}

func newBreaker[T any](name string, cfg config.CircuitBreakerConfig, logger *errors.Logger, readyToTrip func(gobreaker.Counts) bool) *Breaker[T] {
	if !cfg.Enabled {
		return nil
	}

	settings := gobreaker.Settings{
		Name:        name,
		MaxRequests: cfg.MaxRequests,
		Interval:    cfg.Interval,
		Timeout:     cfg.Timeout,
		ReadyToTrip: readyToTrip,
		OnStateChange: func(name string, from gobreaker.State, to gobreaker.State) {
			if logger == nil {
				return
			}
			logger.Info("Circuit breaker state changed",
				"name", name,
				"from", from.String(),
				"to", to.String(),
				"max_requests", cfg.MaxRequests,
				"failure_threshold", cfg.FailureThreshold)
		},
	}

	return &Breaker[T]{cb: gobreaker.NewCircuitBreaker[T](settings)}
}

// Execute runs fn under the breaker
func (b *Breaker[T]) Execute(fn func() (T, error)) (T, error) {
	if b == nil || b.cb == nil {
		return fn()
	}
	return b.cb.Execute(fn)
}

// Stats returns the breaker state and counters
func (b *Breaker[T]) Stats() BreakerStats {
	if b == nil || b.cb == nil {
		return BreakerStats{Enabled: false}
	}
	return BreakerStats{
		Name:    b.cb.Name(),
		State:   b.cb.State().String(),
		Counts:  b.cb.Counts(),
		Enabled: true,
	}
}

// IsHealthy reports whether the breaker is closed. A disabled breaker is healthy.
func (b *Breaker[T]) IsHealthy() bool {
	if b == nil || b.cb == nil {
		return true
	}
	return b.cb.State() == gobreaker.StateClosed
}
