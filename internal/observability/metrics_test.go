package observability

import (
	"context"
	"testing"
	"time"

	"resumescore/internal/ai"
	"resumescore/internal/config"
	"resumescore/internal/errors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
)

func newTestMetrics(t *testing.T, opts MetricsOptions) (*Metrics, *sdkmetric.ManualReader) {
	t.Helper()
	reader := sdkmetric.NewManualReader()
	mp := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	t.Cleanup(func() { _ = mp.Shutdown(context.Background()) })

	m, err := NewMetrics(mp.Meter("test"), opts)
	require.NoError(t, err)
	return m, reader
}

func collect(t *testing.T, reader *sdkmetric.ManualReader) map[string]metricdata.Metrics {
	t.Helper()
	var rm metricdata.ResourceMetrics
	require.NoError(t, reader.Collect(context.Background(), &rm))

	out := make(map[string]metricdata.Metrics)
	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			out[m.Name] = m
		}
	}
	return out
}

func counterTotal(t *testing.T, m metricdata.Metrics) int64 {
	t.Helper()
	sum, ok := m.Data.(metricdata.Sum[int64])
	require.True(t, ok, "metric %s is not an int64 sum", m.Name)
	var total int64
	for _, dp := range sum.DataPoints {
		total += dp.Value
	}
	return total
}

func TestMetricsRecordScoring(t *testing.T) {
	m, reader := newTestMetrics(t, AllMetrics())
	ctx := context.Background()

	m.RecordScore(ctx, "tech", 72, false)
	m.RecordScore(ctx, "medical", 40, true)
	m.RecordExtraction(ctx, "pdf", true)

	got := collect(t, reader)
	assert.Equal(t, int64(2), counterTotal(t, got["resumescore_domain_detections_total"]))
	assert.Equal(t, int64(1), counterTotal(t, got["resumescore_documents_extracted_total"]))

	hist, ok := got["resumescore_score_total"].Data.(metricdata.Histogram[int64])
	require.True(t, ok)
	var count uint64
	for _, dp := range hist.DataPoints {
		count += dp.Count
	}
	assert.Equal(t, uint64(2), count)
}

func TestMetricsRecordFeedback(t *testing.T) {
	m, reader := newTestMetrics(t, AllMetrics())
	ctx := context.Background()

	usage := &ai.TokenUsage{InputTokens: 100, OutputTokens: 20, TotalTokens: 120}
	m.RecordFeedback(ctx, 2*time.Second, usage, nil)
	m.RecordFeedback(ctx, time.Second, nil, errors.NewAIError(errors.ErrCodeAITimeout, "timeout", nil))
	m.RecordFeedbackDegraded(ctx, "ai_timeout")

	got := collect(t, reader)
	assert.Equal(t, int64(2), counterTotal(t, got["resumescore_feedback_requests_total"]))
	assert.Equal(t, int64(1), counterTotal(t, got["resumescore_feedback_errors_total"]))
	assert.Equal(t, int64(1), counterTotal(t, got["resumescore_feedback_degraded_total"]))
	assert.Contains(t, got, "resumescore_feedback_duration_seconds")

	tokens, ok := got["resumescore_feedback_tokens"].Data.(metricdata.Histogram[int64])
	require.True(t, ok)
	assert.Len(t, tokens.DataPoints, 3, "one series per token type")
}

func TestMetricsOptionsDisableGroups(t *testing.T) {
	m, reader := newTestMetrics(t, MetricsOptions{Infrastructure: true})
	ctx := context.Background()

	m.RecordScore(ctx, "tech", 50, false)
	m.RecordFeedback(ctx, time.Second, nil, nil)
	m.RecordRateLimitHit(ctx, "ip")
	m.RecordCertReload(ctx, true)
	m.RecordKeyRotation(ctx, 3, true)

	got := collect(t, reader)
	assert.NotContains(t, got, "resumescore_domain_detections_total")
	assert.NotContains(t, got, "resumescore_feedback_requests_total")
	assert.NotContains(t, got, "resumescore_rate_limit_hits_total", "rate limit tracking is off")
	assert.Equal(t, int64(1), counterTotal(t, got["resumescore_cert_reloads_total"]))
	assert.Equal(t, int64(1), counterTotal(t, got["resumescore_api_key_rotations_total"]))
}

func TestNilMetricsIsNoop(t *testing.T) {
	var m *Metrics
	ctx := context.Background()

	assert.NotPanics(t, func() {
		m.RecordScore(ctx, "tech", 1, false)
		m.RecordExtraction(ctx, "text", true)
		m.RecordFeedback(ctx, time.Second, &ai.TokenUsage{}, nil)
		m.RecordFeedbackDegraded(ctx, "x")
		m.RecordRateLimitHit(ctx, "ip")
		m.RecordCertReload(ctx, false)
		m.RecordKeyRotation(ctx, 1, false)
	})
}

func TestDisabledManager(t *testing.T) {
	om, err := NewObservabilityManager(ObservabilityConfig{ServiceName: "test"}, nil)
	require.NoError(t, err)

	assert.Nil(t, om.GetMetrics())
	assert.NotNil(t, om.Tracer("test"))
	assert.NotNil(t, om.HTTPMiddleware())
	assert.NoError(t, om.Shutdown(context.Background()))
}

func TestGetObservabilityConfig(t *testing.T) {
	t.Run("nil config", func(t *testing.T) {
		cfg := GetObservabilityConfig(nil, "1.2.3")
		assert.Equal(t, "resumescore", cfg.ServiceName)
		assert.Equal(t, "1.2.3", cfg.ServiceVersion)
		assert.Equal(t, AllMetrics(), cfg.Metrics)
		assert.False(t, cfg.Prometheus.Enabled)
	})

	t.Run("from config", func(t *testing.T) {
		c := &config.Config{}
		c.Observability.ServiceName = "scorer"
		c.Observability.Enabled = true
		c.Observability.SampleRate = 0.5
		c.Observability.MetricsInterval = 30 * time.Second
		c.Observability.Prometheus.Enabled = true
		c.Observability.Prometheus.Port = "9100"
		c.Observability.CustomMetrics.Scoring.Enabled = true
		c.Observability.CustomMetrics.Infrastructure.TrackRateLimits = true

		cfg := GetObservabilityConfig(c, "dev")
		assert.Equal(t, "scorer", cfg.ServiceName)
		assert.Equal(t, "dev", cfg.ServiceVersion)
		assert.Equal(t, 0.5, cfg.SampleRate)
		assert.Equal(t, 30*time.Second, cfg.MetricsInterval)
		assert.Equal(t, "9100", cfg.Prometheus.Port)
		assert.True(t, cfg.Metrics.Scoring)
		assert.False(t, cfg.Metrics.AIOperations)
		assert.True(t, cfg.Metrics.TrackRateLimits)
	})
}
