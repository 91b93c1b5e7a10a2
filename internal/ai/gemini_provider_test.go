package ai

import (
	"context"
	stderrors "errors"
	"fmt"
	"log/slog"
	"net"
	"testing"
	"time"

	"resumescore/internal/config"
	"resumescore/internal/errors"

	"github.com/sony/gobreaker/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/api/googleapi"
	"google.golang.org/genai"
)

func testLogger() *errors.Logger {
	return errors.NewLogger(slog.LevelError)
}

func TestIsRetryableError(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{name: "nil", err: nil, want: false},
		{name: "deadline", err: context.DeadlineExceeded, want: false},
		{name: "canceled wrapped", err: fmt.Errorf("call: %w", context.Canceled), want: false},
		{name: "network", err: &net.OpError{Op: "dial", Err: stderrors.New("connection refused")}, want: true},
		{name: "googleapi 503", err: &googleapi.Error{Code: 503}, want: true},
		{name: "googleapi 429", err: &googleapi.Error{Code: 429}, want: true},
		{name: "googleapi 400", err: &googleapi.Error{Code: 400}, want: false},
		{name: "genai 500", err: genai.APIError{Code: 500}, want: true},
		{name: "genai 403", err: genai.APIError{Code: 403}, want: false},
		{name: "plain", err: stderrors.New("bad prompt"), want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, isRetryableError(tt.err))
		})
	}
}

func fastRetrier(maxRetries int) retrier {
	return retrier{
		maxRetries: maxRetries,
		backoff:    func(int) time.Duration { return time.Millisecond },
		logger:     testLogger(),
	}
}

func TestRetrySucceedsAfterTransientFailures(t *testing.T) {
	calls := 0
	got, err := retry(context.Background(), fastRetrier(3), "test", func() (string, error) {
		calls++
		if calls < 3 {
			return "", &googleapi.Error{Code: 503}
		}
		return "ok", nil
	})

	require.NoError(t, err)
	assert.Equal(t, "ok", got)
	assert.Equal(t, 3, calls)
}

func TestRetryStopsOnPermanentError(t *testing.T) {
	calls := 0
	_, err := retry(context.Background(), fastRetrier(3), "test", func() (string, error) {
		calls++
		return "", &googleapi.Error{Code: 400}
	})

	require.Error(t, err)
	assert.Equal(t, 1, calls)
	assert.Contains(t, err.Error(), "operation 'test' failed")
}

func TestRetryGivesUp(t *testing.T) {
	calls := 0
	_, err := retry(context.Background(), fastRetrier(2), "test", func() (int, error) {
		calls++
		return 0, &googleapi.Error{Code: 502}
	})

	require.Error(t, err)
	assert.Equal(t, 3, calls)
	var apiErr *googleapi.Error
	assert.True(t, stderrors.As(err, &apiErr))
}

func TestRetryHonorsContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	r := fastRetrier(5)
	r.backoff = func(int) time.Duration { return time.Hour }

	calls := 0
	_, err := retry(ctx, r, "test", func() (int, error) {
		calls++
		cancel()
		return 0, &googleapi.Error{Code: 503}
	})

	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 1, calls)
}

func TestExponentialBackoff(t *testing.T) {
	assert.GreaterOrEqual(t, exponentialBackoff(1), time.Second)
	assert.Less(t, exponentialBackoff(1), 1100*time.Millisecond)
	assert.GreaterOrEqual(t, exponentialBackoff(3), 4*time.Second)
	assert.Equal(t, 30*time.Second, exponentialBackoff(10))
}

func TestClassifyGenerateError(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		wantCode string
		contains string
	}{
		{name: "timeout", err: fmt.Errorf("wrapped: %w", context.DeadlineExceeded), wantCode: errors.ErrCodeAITimeout, contains: "timed out"},
		{name: "open circuit", err: gobreaker.ErrOpenState, wantCode: errors.ErrCodeAIServiceFailed, contains: "circuit open"},
		{name: "half-open limit", err: gobreaker.ErrTooManyRequests, wantCode: errors.ErrCodeAIServiceFailed, contains: "circuit open"},
		{name: "other", err: stderrors.New("boom"), wantCode: errors.ErrCodeAIServiceFailed, contains: "Failed to generate"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := classifyGenerateError("generate_feedback", tt.err)
			assert.True(t, errors.HasCode(err, tt.wantCode), "got %v", err)
			assert.Contains(t, err.Error(), tt.contains)
			assert.ErrorIs(t, err, tt.err)
		})
	}
}

func TestPromptSetBuild(t *testing.T) {
	p := newPromptSet(config.OperationAIConfig{}, config.LoadedPrompts{})

	system, user := p.build("Jane Doe, Go developer", "")
	assert.Equal(t, DefaultSystemPrompt, system)
	assert.Contains(t, user, "Jane Doe, Go developer")
	assert.NotContains(t, user, "classified under")

	_, user = p.build("Jane Doe", "backend")
	assert.Contains(t, user, `classified under the "backend" domain`)
}

func TestPromptSetPrecedence(t *testing.T) {
	cfg := config.OperationAIConfig{
		Prompts: config.PromptConfig{SystemPrompt: "config system", UserPrompt: "config user: %s"},
	}

	p := newPromptSet(cfg, config.LoadedPrompts{UserPrompt: "file user: %s"})
	system, user := p.build("text", "")
	assert.Equal(t, "config system", system)
	assert.Equal(t, "file user: text", user)
}

func TestBuildFeedbackSchema(t *testing.T) {
	temperature := float32(0.4)
	g := &GeminiProvider{config: config.OperationAIConfig{Temperature: &temperature}}

	cfg := g.buildFeedbackSchema()
	require.NotNil(t, cfg.ResponseSchema)
	assert.Equal(t, "application/json", cfg.ResponseMIMEType)
	assert.ElementsMatch(t, []string{"strengths", "weaknesses", "suggestions"}, cfg.ResponseSchema.Required)
	assert.Contains(t, cfg.ResponseSchema.Properties, "overallRating")
	require.NotNil(t, cfg.Temperature)
	assert.InDelta(t, 0.4, *cfg.Temperature, 0.0001)

	zero := float32(0)
	g.config.Temperature = &zero
	assert.Nil(t, g.buildFeedbackSchema().Temperature)
}

func TestExtractTokenUsage(t *testing.T) {
	assert.Nil(t, extractTokenUsage(nil))
	assert.Nil(t, extractTokenUsage(&genai.GenerateContentResponse{}))

	usage := extractTokenUsage(&genai.GenerateContentResponse{
		UsageMetadata: &genai.GenerateContentResponseUsageMetadata{
			PromptTokenCount:     120,
			CandidatesTokenCount: 80,
			TotalTokenCount:      200,
		},
	})
	require.NotNil(t, usage)
	assert.Equal(t, int64(120), usage.InputTokens)
	assert.Equal(t, int64(80), usage.OutputTokens)
	assert.Equal(t, int64(200), usage.TotalTokens)
}

func TestNewGeminiProviderRequiresKey(t *testing.T) {
	_, err := NewGeminiProvider(config.OperationAIConfig{}, config.LoadedPrompts{}, 0, testLogger())
	require.Error(t, err)
	assert.True(t, errors.HasCode(err, errors.ErrCodeMissingAPIKey))
}
