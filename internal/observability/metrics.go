package observability

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"resumescore/internal/ai"
	"resumescore/internal/errors"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// MetricsOptions selects which metric groups are recorded
type MetricsOptions struct {
	Scoring         bool
	AIOperations    bool
	TrackDuration   bool
	TrackTokenUsage bool
	Infrastructure  bool
	TrackRateLimits bool
}

// AllMetrics enables every metric group
func AllMetrics() MetricsOptions {
	return MetricsOptions{
		Scoring:         true,
		AIOperations:    true,
		TrackDuration:   true,
		TrackTokenUsage: true,
		Infrastructure:  true,
		TrackRateLimits: true,
	}
}

// Metrics holds all custom metrics. A nil *Metrics records nothing, so
// callers never need to check whether observability is enabled.
type Metrics struct {
	opts MetricsOptions

	// Scoring metrics
	ScoreTotal         metric.Int64Histogram
	DomainDetections   metric.Int64Counter
	DocumentsExtracted metric.Int64Counter

	// Feedback metrics
	FeedbackDuration metric.Float64Histogram
	FeedbackRequests metric.Int64Counter
	FeedbackErrors   metric.Int64Counter
	FeedbackTokens   metric.Int64Histogram
	FeedbackDegraded metric.Int64Counter

	// Infrastructure metrics
	RateLimitHits   metric.Int64Counter
	CertReloads     metric.Int64Counter
	APIKeyRotations metric.Int64Counter
}

// NewMetrics creates the instruments on meter
func NewMetrics(meter metric.Meter, opts MetricsOptions) (*Metrics, error) {
	m := &Metrics{opts: opts}

	if err := m.createScoringMetrics(meter); err != nil {
		return nil, err
	}
	if err := m.createFeedbackMetrics(meter); err != nil {
		return nil, err
	}
	if err := m.createInfrastructureMetrics(meter); err != nil {
		return nil, err
	}
	return m, nil
}

func (m *Metrics) createScoringMetrics(meter metric.Meter) error {
	var err error

	m.ScoreTotal, err = meter.Int64Histogram(
		"resumescore_score_total",
		metric.WithDescription("Distribution of total resume scores"),
		metric.WithUnit("{point}"),
		metric.WithExplicitBucketBoundaries(10, 20, 30, 40, 50, 60, 70, 80, 90, 100),
	)
	if err != nil {
		return fmt.Errorf("failed to create score metric: %w", err)
	}

	m.DomainDetections, err = meter.Int64Counter(
		"resumescore_domain_detections_total",
		metric.WithDescription("Resumes scored, by domain"),
	)
	if err != nil {
		return fmt.Errorf("failed to create domain detection metric: %w", err)
	}

	m.DocumentsExtracted, err = meter.Int64Counter(
		"resumescore_documents_extracted_total",
		metric.WithDescription("Documents processed by text extraction"),
	)
	if err != nil {
		return fmt.Errorf("failed to create extraction metric: %w", err)
	}

	return nil
}

func (m *Metrics) createFeedbackMetrics(meter metric.Meter) error {
	var err error

	m.FeedbackDuration, err = meter.Float64Histogram(
		"resumescore_feedback_duration_seconds",
		metric.WithDescription("Time spent waiting for AI feedback"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return fmt.Errorf("failed to create feedback duration metric: %w", err)
	}

	m.FeedbackRequests, err = meter.Int64Counter(
		"resumescore_feedback_requests_total",
		metric.WithDescription("Total number of AI feedback requests"),
	)
	if err != nil {
		return fmt.Errorf("failed to create feedback request metric: %w", err)
	}

	m.FeedbackErrors, err = meter.Int64Counter(
		"resumescore_feedback_errors_total",
		metric.WithDescription("Total number of failed AI feedback requests"),
	)
	if err != nil {
		return fmt.Errorf("failed to create feedback error metric: %w", err)
	}

	m.FeedbackTokens, err = meter.Int64Histogram(
		"resumescore_feedback_tokens",
		metric.WithDescription("Token usage of AI feedback requests"),
		metric.WithUnit("{token}"),
	)
	if err != nil {
		return fmt.Errorf("failed to create feedback token metric: %w", err)
	}

	m.FeedbackDegraded, err = meter.Int64Counter(
		"resumescore_feedback_degraded_total",
		metric.WithDescription("Analyses returned with a feedback warning instead of feedback"),
	)
	if err != nil {
		return fmt.Errorf("failed to create feedback degradation metric: %w", err)
	}

	return nil
}

func (m *Metrics) createInfrastructureMetrics(meter metric.Meter) error {
	var err error

	m.RateLimitHits, err = meter.Int64Counter(
		"resumescore_rate_limit_hits_total",
		metric.WithDescription("Total number of rate limit hits"),
	)
	if err != nil {
		return fmt.Errorf("failed to create rate limit hits metric: %w", err)
	}

	m.CertReloads, err = meter.Int64Counter(
		"resumescore_cert_reloads_total",
		metric.WithDescription("Total number of TLS certificate reloads"),
	)
	if err != nil {
		return fmt.Errorf("failed to create certificate reload metric: %w", err)
	}

	m.APIKeyRotations, err = meter.Int64Counter(
		"resumescore_api_key_rotations_total",
		metric.WithDescription("Total number of API key sets loaded from Vault"),
	)
	if err != nil {
		return fmt.Errorf("failed to create API key rotation metric: %w", err)
	}

	return nil
}

// RecordExtraction counts one extraction attempt
func (m *Metrics) RecordExtraction(ctx context.Context, format string, success bool) {
	if m == nil || !m.opts.Scoring {
		return
	}
	m.DocumentsExtracted.Add(ctx, 1, metric.WithAttributes(
		attribute.String("format", format),
		attribute.Bool("success", success),
	))
}

// RecordScore records a total and the domain it was scored under
func (m *Metrics) RecordScore(ctx context.Context, domain string, total int, forced bool) {
	if m == nil || !m.opts.Scoring {
		return
	}
	attrs := metric.WithAttributes(
		attribute.String("domain", domain),
		attribute.Bool("forced", forced),
	)
	m.ScoreTotal.Record(ctx, int64(total), attrs)
	m.DomainDetections.Add(ctx, 1, attrs)
}

// RecordFeedback records one feedback request with its duration, token
// usage and outcome
func (m *Metrics) RecordFeedback(ctx context.Context, duration time.Duration, usage *ai.TokenUsage, err error) {
	if m == nil || !m.opts.AIOperations {
		return
	}

	attrs := []attribute.KeyValue{
		attribute.String("operation", "feedback"),
		attribute.Bool("success", err == nil),
	}

	m.FeedbackRequests.Add(ctx, 1, metric.WithAttributes(attrs...))
	if m.opts.TrackDuration {
		m.FeedbackDuration.Record(ctx, duration.Seconds(), metric.WithAttributes(attrs...))
	}
	if err != nil {
		code := "unknown"
		if appErr, ok := errors.AsAppError(err); ok {
			code = appErr.Code
		}
		m.FeedbackErrors.Add(ctx, 1, metric.WithAttributes(attribute.String("code", code)))
	}
	if usage != nil && m.opts.TrackTokenUsage {
		m.recordTokens(ctx, usage)
	}
}

func (m *Metrics) recordTokens(ctx context.Context, usage *ai.TokenUsage) {
	tokenTypes := []struct {
		tokenType string
		value     int64
	}{
		{"input", usage.InputTokens},
		{"output", usage.OutputTokens},
		{"total", usage.TotalTokens},
	}

	for _, tt := range tokenTypes {
		m.FeedbackTokens.Record(ctx, tt.value, metric.WithAttributes(
			attribute.String("token_type", tt.tokenType),
		))
	}
}

// RecordFeedbackDegraded counts a report that carries a warning instead of feedback
func (m *Metrics) RecordFeedbackDegraded(ctx context.Context, reason string) {
	if m == nil || !m.opts.AIOperations {
		return
	}
	m.FeedbackDegraded.Add(ctx, 1, metric.WithAttributes(attribute.String("reason", reason)))
}

// RecordRateLimitHit counts a rejected request
func (m *Metrics) RecordRateLimitHit(ctx context.Context, clientType string) {
	if m == nil || !m.opts.Infrastructure || !m.opts.TrackRateLimits {
		return
	}
	m.RateLimitHits.Add(ctx, 1, metric.WithAttributes(attribute.String("client_type", clientType)))
}

// RecordCertReload counts a certificate reload attempt
func (m *Metrics) RecordCertReload(ctx context.Context, success bool) {
	if m == nil || !m.opts.Infrastructure {
		return
	}
	m.CertReloads.Add(ctx, 1, metric.WithAttributes(attribute.Bool("success", success)))
}

// RecordKeyRotation counts an API key refresh from Vault
func (m *Metrics) RecordKeyRotation(ctx context.Context, version int64, success bool) {
	if m == nil || !m.opts.Infrastructure {
		return
	}
	m.APIKeyRotations.Add(ctx, 1, metric.WithAttributes(
		attribute.Bool("success", success),
		attribute.String("version", strconv.FormatInt(version, 10)),
	))
}
