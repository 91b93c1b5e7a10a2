package ai

import (
	"context"
	"crypto/rand"
	stderrors "errors"
	"fmt"
	"math"
	"math/big"
	"net"
	"net/http"
	"time"

	"resumescore/internal/config"
	"resumescore/internal/errors"
	"resumescore/internal/types"

	"github.com/sony/gobreaker/v2"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"google.golang.org/api/googleapi"
	"google.golang.org/genai"
)

const defaultModelCheckTimeout = 10 * time.Second

// GeminiProvider implements FeedbackProvider for Google Gemini
type GeminiProvider struct {
	client            *genai.Client
	config            config.OperationAIConfig
	prompts           promptSet
	retry             retrier
	generateBreaker   *Breaker[*genai.GenerateContentResponse]
	modelBreaker      *Breaker[*genai.Model]
	modelCheckTimeout time.Duration
	logger            *errors.Logger
}

var (
	_ FeedbackProvider = (*GeminiProvider)(nil)
	_ StatsReporter    = (*GeminiProvider)(nil)
)

// NewGeminiProvider creates a Gemini-backed feedback provider. cfg must
// already carry the global fallbacks (see config.GetFeedbackConfig).
func NewGeminiProvider(cfg config.OperationAIConfig, loaded config.LoadedPrompts, modelCheckTimeout time.Duration, logger *errors.Logger) (*GeminiProvider, error) {
	if cfg.APIKey == "" {
		return nil, errors.NewConfigError(errors.ErrCodeMissingAPIKey,
			"Gemini API key is not configured", nil)
	}
	if modelCheckTimeout <= 0 {
		modelCheckTimeout = defaultModelCheckTimeout
	}

	client, err := genai.NewClient(context.Background(), &genai.ClientConfig{
		APIKey:     cfg.APIKey,
		Backend:    genai.BackendGeminiAPI,
		HTTPClient: &http.Client{Transport: otelhttp.NewTransport(http.DefaultTransport)},
	})
	if err != nil {
		return nil, errors.NewAIError(errors.ErrCodeAIServiceFailed,
			"Failed to create Gemini client", err)
	}

	return &GeminiProvider{
		client:            client,
		config:            cfg,
		prompts:           newPromptSet(cfg, loaded),
		retry:             newRetrier(*cfg.MaxRetries, logger),
		generateBreaker:   NewGenerateBreaker("feedback", cfg.CircuitBreaker, logger),
		modelBreaker:      NewModelBreaker("feedback", cfg.CircuitBreaker, logger),
		modelCheckTimeout: modelCheckTimeout,
		logger:            logger,
	}, nil
}

// GetModelInfo checks the readiness and availability of the configured model
func (g *GeminiProvider) GetModelInfo(ctx context.Context) *ModelInfo {
	modelInfo := &ModelInfo{Name: g.config.Model}

	checkCtx, cancel := context.WithTimeout(ctx, g.modelCheckTimeout)
	defer cancel()

	model, err := g.modelBreaker.Execute(func() (*genai.Model, error) {
		return g.client.Models.Get(checkCtx, g.config.Model, &genai.GetModelConfig{})
	})
	if err != nil {
		modelInfo.Error = fmt.Sprintf("Failed to get model info: %v", err)
		g.logger.Warn("Model availability check failed",
			"model", g.config.Model,
			"error", err.Error())
		return modelInfo
	}

	modelInfo.Available = true
	modelInfo.DisplayName = model.DisplayName
	modelInfo.Version = model.Version
	return modelInfo
}

// GenerateFeedback implements FeedbackProvider
func (g *GeminiProvider) GenerateFeedback(ctx context.Context, input types.FeedbackInput) (types.Feedback, *TokenUsage, error) {
	systemPrompt, userPrompt := g.prompts.build(input.ResumeText, input.Domain)

	output, usage, err := executeAIOperation(
		g,
		ctx,
		"generate_feedback",
		userPrompt,
		systemPrompt,
		g.buildFeedbackSchema(),
		ParseFeedback,
		attribute.Int("input.resume_length", len(input.ResumeText)),
		attribute.String("input.domain", input.Domain),
	)
	if err != nil {
		return types.Feedback{}, nil, err
	}

	if span := trace.SpanFromContext(ctx); span.IsRecording() {
		span.SetAttributes(
			attribute.Int("output.strengths", len(output.Strengths)),
			attribute.Int("output.weaknesses", len(output.Weaknesses)),
			attribute.Int("output.suggestions", len(output.Suggestions)),
		)
	}

	return output, usage, nil
}

// GetCircuitBreakerStats returns circuit breaker statistics
func (g *GeminiProvider) GetCircuitBreakerStats() CircuitBreakerStats {
	return CircuitBreakerStats{
		Generate: g.generateBreaker.Stats(),
		Model:    g.modelBreaker.Stats(),
		Healthy:  g.generateBreaker.IsHealthy() && g.modelBreaker.IsHealthy(),
	}
}

// Close implements FeedbackProvider. The genai client holds no resources
// in request/response mode.
func (g *GeminiProvider) Close() error {
	return nil
}

// executeAIOperation runs one generation with tracing, the circuit breaker,
// retries and a per-call timeout, then hands the response text to parse.
func executeAIOperation[Out any](
	g *GeminiProvider,
	ctx context.Context,
	operationName string,
	userPrompt string,
	systemPrompt string,
	genaiConfig *genai.GenerateContentConfig,
	parse func(string) (Out, error),
	spanAttributes ...attribute.KeyValue,
) (Out, *TokenUsage, error) {
	var output Out
	tracer := otel.Tracer("resumescore.ai.gemini")
	ctx, span := tracer.Start(ctx, "gemini."+operationName)
	defer span.End()

	span.SetAttributes(
		attribute.String("ai.provider", "gemini"),
		attribute.String("ai.model", g.config.Model),
		attribute.Float64("ai.temperature", float64(*g.config.Temperature)),
	)
	span.SetAttributes(spanAttributes...)

	if *g.config.UseSystemPrompts && systemPrompt != "" {
		genaiConfig.SystemInstruction = genai.NewContentFromText(systemPrompt, genai.RoleUser)
	}

	callCtx, cancel := context.WithTimeout(ctx, *g.config.Timeout)
	defer cancel()

	result, err := g.generateBreaker.Execute(func() (*genai.GenerateContentResponse, error) {
		return retry(callCtx, g.retry, operationName, func() (*genai.GenerateContentResponse, error) {
			return g.client.Models.GenerateContent(callCtx, g.config.Model, genai.Text(userPrompt), genaiConfig)
		})
	})
	if err != nil {
		span.RecordError(err)
		span.SetAttributes(attribute.Bool("success", false))
		return output, nil, classifyGenerateError(operationName, err)
	}

	tokenUsage := extractTokenUsage(result)
	if tokenUsage != nil {
		span.SetAttributes(
			attribute.Int64("ai.tokens.input", tokenUsage.InputTokens),
			attribute.Int64("ai.tokens.output", tokenUsage.OutputTokens),
			attribute.Int64("ai.tokens.total", tokenUsage.TotalTokens),
		)
	}

	output, err = parse(result.Text())
	if err != nil {
		span.RecordError(err)
		span.SetAttributes(attribute.Bool("success", false))
		return output, tokenUsage, err
	}

	span.SetAttributes(attribute.Bool("success", true))
	return output, tokenUsage, nil
}

// classifyGenerateError maps a failed generation onto an AppError
func classifyGenerateError(operationName string, err error) error {
	switch {
	case stderrors.Is(err, context.DeadlineExceeded):
		return errors.NewAIError(errors.ErrCodeAITimeout, "AI request timed out for "+operationName, err)
	case stderrors.Is(err, gobreaker.ErrOpenState), stderrors.Is(err, gobreaker.ErrTooManyRequests):
		return errors.NewAIError(errors.ErrCodeAIServiceFailed, "AI service temporarily unavailable (circuit open) for "+operationName, err)
	default:
		return errors.NewAIError(errors.ErrCodeAIServiceFailed, "Failed to generate content for "+operationName, err)
	}
}

// buildFeedbackSchema creates the generation config for feedback requests
func (g *GeminiProvider) buildFeedbackSchema() *genai.GenerateContentConfig {
	stringList := &genai.Schema{
		Type:  genai.TypeArray,
		Items: &genai.Schema{Type: genai.TypeString},
	}

	config := &genai.GenerateContentConfig{
		ResponseMIMEType: "application/json",
		ResponseSchema: &genai.Schema{
			Type: genai.TypeObject,
			Properties: map[string]*genai.Schema{
				"strengths":     stringList,
				"weaknesses":    stringList,
				"suggestions":   stringList,
				"missingSkills": stringList,
				"overallRating": {Type: genai.TypeNumber},
			},
			Required: []string{"strengths", "weaknesses", "suggestions"},
		},
	}

	if *g.config.Temperature > 0 {
		config.Temperature = g.config.Temperature
	}

	return config
}

// extractTokenUsage extracts token usage information from Gemini API response
func extractTokenUsage(result *genai.GenerateContentResponse) *TokenUsage {
	if result == nil || result.UsageMetadata == nil {
		return nil
	}

	usage := result.UsageMetadata
	return &TokenUsage{
		InputTokens:  int64(usage.PromptTokenCount),
		OutputTokens: int64(usage.CandidatesTokenCount),
		TotalTokens:  int64(usage.TotalTokenCount),
	}
}

// retrier holds the retry policy for transient transport failures
type retrier struct {
	maxRetries int
	backoff    func(attempt int) time.Duration
	logger     *errors.Logger
}

func newRetrier(maxRetries int, logger *errors.Logger) retrier {
	return retrier{maxRetries: maxRetries, backoff: exponentialBackoff, logger: logger}
}

// exponentialBackoff returns 2^(attempt-1) seconds plus up to 10% jitter, capped at 30s
func exponentialBackoff(attempt int) time.Duration {
	baseDelay := time.Duration(math.Pow(2, float64(attempt-1))) * time.Second
	jitter := time.Duration(0)
	if jitterMax := int64(float64(baseDelay) * 0.1); jitterMax > 0 {
		if n, err := rand.Int(rand.Reader, big.NewInt(jitterMax)); err == nil {
			jitter = time.Duration(n.Int64())
		}
	}
	return min(baseDelay+jitter, 30*time.Second)
}

// retry executes fn, retrying retryable errors with backoff until the
// policy or the context runs out.
func retry[T any](ctx context.Context, r retrier, operation string, fn func() (T, error)) (T, error) {
	var zero T
	var lastErr error

	for attempt := 0; attempt <= r.maxRetries; attempt++ {
		if attempt > 0 {
			r.logger.Warn("Retrying AI operation",
				"operation", operation,
				"attempt", attempt,
				"max_retries", r.maxRetries,
				"error", lastErr.Error())

			select {
			case <-time.After(r.backoff(attempt)):
			case <-ctx.Done():
				return zero, ctx.Err()
			}
		}

		result, err := fn()
		if err == nil {
			if attempt > 0 {
				r.logger.Info("AI operation succeeded after retry",
					"operation", operation,
					"total_attempts", attempt+1)
			}
			return result, nil
		}

		lastErr = err
		if !isRetryableError(err) {
			r.logger.Debug("Error is not retryable, stopping retry attempts",
				"operation", operation,
				"error", err.Error())
			break
		}
	}

	r.logger.LogError(lastErr, "AI operation failed after all retry attempts",
		"operation", operation)

	return zero, fmt.Errorf("operation '%s' failed: %w", operation, lastErr)
}

// isRetryableError determines if an error should trigger a retry
func isRetryableError(err error) bool {
	if err == nil {
		return false
	}

	// A deadline on the caller's context will not clear up by retrying
	if stderrors.Is(err, context.DeadlineExceeded) || stderrors.Is(err, context.Canceled) {
		return false
	}

	var netErr net.Error
	if stderrors.As(err, &netErr) {
		return true
	}

	var apiErr *googleapi.Error
	if stderrors.As(err, &apiErr) {
		return isRetryableStatus(apiErr.Code)
	}

	var genaiErr genai.APIError
	if stderrors.As(err, &genaiErr) {
		return isRetryableStatus(genaiErr.Code)
	}

	return false
}

func isRetryableStatus(code int) bool {
	switch code {
	case http.StatusTooManyRequests,
		http.StatusInternalServerError,
		http.StatusBadGateway,
		http.StatusServiceUnavailable,
		http.StatusGatewayTimeout:
		return true
	}
	return false
}
