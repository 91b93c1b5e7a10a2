// Package analysis combines extraction, scoring and AI feedback into the
// reports shown to users. Scoring and feedback run independently: a
// feedback failure degrades the report, it never hides the score.
package analysis

import (
	"context"
	stderrors "errors"
	"fmt"
	"strings"
	"time"

	"resumescore/internal/ai"
	"resumescore/internal/errors"
	"resumescore/internal/extract"
	"resumescore/internal/scoring"
	"resumescore/internal/types"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"golang.org/x/sync/errgroup"
)

// Extractor turns an uploaded document into text
type Extractor interface {
	Extract(ctx context.Context, doc extract.Document) (*extract.Result, error)
}

// FeedbackGenerator requests qualitative feedback for résumé text
type FeedbackGenerator interface {
	Generate(ctx context.Context, input types.FeedbackInput) (*ai.Result, error)
}

// Metrics receives the business events of an analysis. Implementations
// must be safe for concurrent use.
type Metrics interface {
	RecordExtraction(ctx context.Context, format string, success bool)
	RecordScore(ctx context.Context, domain string, total int, forced bool)
	RecordFeedback(ctx context.Context, duration time.Duration, usage *ai.TokenUsage, err error)
	RecordFeedbackDegraded(ctx context.Context, reason string)
}

// Options controls a single analysis
type Options struct {
	// Domain forces a profile by name; empty means detect.
	Domain       string
	SkipFeedback bool
}

// Service runs analyses. It is safe for concurrent use.
type Service struct {
	extractor   Extractor
	engine      *scoring.Engine
	feedback    FeedbackGenerator
	unavailable error
	metrics     Metrics
	logger      *errors.Logger
	now         func() time.Time
}

// Option configures a Service
type Option func(*Service)

// WithFeedback enables the feedback collaborator
func WithFeedback(g FeedbackGenerator) Option {
	return func(s *Service) {
		s.feedback = g
		s.unavailable = nil
	}
}

// WithFeedbackUnavailable records why feedback is disabled. The reason is
// shown in place of feedback.
func WithFeedbackUnavailable(reason error) Option {
	return func(s *Service) {
		s.feedback = nil
		s.unavailable = reason
	}
}

// WithMetrics sets the metrics sink
func WithMetrics(m Metrics) Option {
	return func(s *Service) {
		if m != nil {
			s.metrics = m
		}
	}
}

// WithClock overrides the report timestamp source
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// NewService wires an analysis service. Feedback stays disabled unless
// WithFeedback is given.
func NewService(extractor Extractor, engine *scoring.Engine, logger *errors.Logger, opts ...Option) *Service {
	if engine == nil {
		engine = scoring.NewEngine(nil)
	}
	s := &Service{
		extractor: extractor,
		engine:    engine,
		metrics:   nopMetrics{},
		logger:    logger,
		now:       time.Now,
		unavailable: errors.NewConfigError(errors.ErrCodeFeedbackDisabled,
			"feedback is not configured", nil),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// FeedbackEnabled reports whether a feedback collaborator is configured
func (s *Service) FeedbackEnabled() bool {
	return s.feedback != nil
}

// Domains lists the configured profiles in detection order
func (s *Service) Domains() types.DomainList {
	return types.DomainList{Domains: s.engine.Profiles().Profiles()}
}

// Analyze extracts doc and produces the full report. Extraction failures
// are returned as errors and nothing is scored. Feedback failures end up
// in the report as a warning.
func (s *Service) Analyze(ctx context.Context, doc extract.Document, opts Options) (*types.AnalysisReport, error) {
	if err := s.checkDomain(opts.Domain); err != nil {
		return nil, err
	}

	extracted, err := s.extract(ctx, doc)
	if err != nil {
		return nil, err
	}

	info := types.DocumentInfo{
		Name:       doc.Name,
		MIMEType:   mimeOf(doc),
		Format:     extracted.Format,
		Pages:      extracted.Pages,
		Characters: extracted.Characters,
	}
	return s.analyzeText(ctx, extracted.Text, info, opts)
}

// ScoreDocument extracts doc and scores it without requesting feedback
func (s *Service) ScoreDocument(ctx context.Context, doc extract.Document, domain string) (types.ScoreReport, error) {
	if err := s.checkDomain(domain); err != nil {
		return types.ScoreReport{}, err
	}
	extracted, err := s.extract(ctx, doc)
	if err != nil {
		return types.ScoreReport{}, err
	}
	return s.score(ctx, extracted.Text, domain)
}

// FeedbackDocument extracts doc and requests feedback on its own. Failures
// are returned as errors, as with Feedback.
func (s *Service) FeedbackDocument(ctx context.Context, doc extract.Document, domain string) (*types.FeedbackReport, error) {
	if err := s.checkDomain(domain); err != nil {
		return nil, err
	}
	extracted, err := s.extract(ctx, doc)
	if err != nil {
		return nil, err
	}
	return s.Feedback(ctx, extracted.Text, domain)
}

func (s *Service) extract(ctx context.Context, doc extract.Document) (*extract.Result, error) {
	extracted, err := s.extractor.Extract(ctx, doc)
	if err != nil {
		s.metrics.RecordExtraction(ctx, formatOf(doc), false)
		return nil, err
	}
	s.metrics.RecordExtraction(ctx, extracted.Format, true)

	s.logger.Debug("Extracted resume text",
		"document", doc.Name,
		"format", extracted.Format,
		"pages", extracted.Pages,
		"characters", extracted.Characters)
	return extracted, nil
}

// AnalyzeText produces the full report for text that is already extracted
func (s *Service) AnalyzeText(ctx context.Context, text string, opts Options) (*types.AnalysisReport, error) {
	if err := s.checkDomain(opts.Domain); err != nil {
		return nil, err
	}
	if strings.TrimSpace(text) == "" {
		return nil, emptyTextError()
	}

	info := types.DocumentInfo{
		MIMEType:   extract.MIMETypeText,
		Format:     "text",
		Characters: len([]rune(text)),
	}
	return s.analyzeText(ctx, text, info, opts)
}

func (s *Service) analyzeText(ctx context.Context, text string, info types.DocumentInfo, opts Options) (*types.AnalysisReport, error) {
	ctx, span := otel.Tracer("resumescore.analysis").Start(ctx, "analysis.analyze")
	defer span.End()

	report := &types.AnalysisReport{
		ID:        uuid.NewString(),
		CreatedAt: s.now().UTC(),
		Status:    types.StatusComplete,
		Document:  info,
	}

	g, gctx := errgroup.WithContext(ctx)

	var score types.ScoreReport
	g.Go(func() error {
		var err error
		score, err = s.score(gctx, text, opts.Domain)
		return err
	})

	var (
		feedback *ai.Result
		warning  string
	)
	if opts.SkipFeedback {
		report.FeedbackSkipped = true
	} else {
		g.Go(func() error {
			// Errors stay out of the group so a feedback failure never
			// cancels scoring.
			feedback, warning = s.requestFeedback(gctx, text, opts.Domain)
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		span.RecordError(err)
		return nil, err
	}

	report.Score = score
	if feedback != nil {
		report.Feedback = &feedback.Feedback
	}
	if warning != "" {
		report.Status = types.StatusPartial
		report.FeedbackWarning = warning
	}

	span.SetAttributes(
		attribute.String("analysis.id", report.ID),
		attribute.String("analysis.domain", score.Domain),
		attribute.Int("analysis.total", score.Total),
		attribute.String("analysis.status", report.Status),
	)

	s.logger.Info("Resume analyzed",
		"id", report.ID,
		"domain", score.Domain,
		"total", score.Total,
		"status", report.Status)

	return report, nil
}

// ScoreText scores text without requesting feedback. It needs no network.
func (s *Service) ScoreText(ctx context.Context, text, domain string) (types.ScoreReport, error) {
	if strings.TrimSpace(text) == "" {
		return types.ScoreReport{}, emptyTextError()
	}
	return s.score(ctx, text, domain)
}

func (s *Service) score(ctx context.Context, text, domain string) (types.ScoreReport, error) {
	eval, err := s.engine.EvaluateAs(text, domain)
	if err != nil {
		return types.ScoreReport{}, unknownDomainError(err)
	}
	s.metrics.RecordScore(ctx, eval.Result.Domain, eval.Result.Total, eval.Forced)
	return types.NewScoreReport(eval), nil
}

// Feedback requests feedback on its own, outside of a full analysis. It is
// how callers retry after a degraded report; unlike Analyze it returns
// feedback failures as errors.
func (s *Service) Feedback(ctx context.Context, text, domain string) (*types.FeedbackReport, error) {
	if err := s.checkDomain(domain); err != nil {
		return nil, err
	}
	if strings.TrimSpace(text) == "" {
		return nil, emptyTextError()
	}
	if s.feedback == nil {
		return nil, s.unavailable
	}

	hint := s.domainHint(text, domain)
	start := time.Now()
	result, err := s.feedback.Generate(ctx, types.FeedbackInput{ResumeText: text, Domain: hint})
	s.recordFeedback(ctx, start, result, err)
	if err != nil {
		return nil, err
	}

	return &types.FeedbackReport{
		ID:        uuid.NewString(),
		CreatedAt: s.now().UTC(),
		Domain:    hint,
		Feedback:  result.Feedback,
		Truncated: result.Truncated,
	}, nil
}

// requestFeedback returns either a result or a user-facing warning
func (s *Service) requestFeedback(ctx context.Context, text, domain string) (*ai.Result, string) {
	if s.feedback == nil {
		s.metrics.RecordFeedbackDegraded(ctx, "unavailable")
		return nil, warningFor(s.unavailable)
	}

	start := time.Now()
	result, err := s.feedback.Generate(ctx, types.FeedbackInput{
		ResumeText: text,
		Domain:     s.domainHint(text, domain),
	})
	s.recordFeedback(ctx, start, result, err)
	if err != nil {
		s.logger.LogError(err, "Feedback unavailable, returning score only")
		s.metrics.RecordFeedbackDegraded(ctx, degradationReason(err))
		return nil, warningFor(err)
	}
	return result, ""
}

func (s *Service) recordFeedback(ctx context.Context, start time.Time, result *ai.Result, err error) {
	var usage *ai.TokenUsage
	if result != nil {
		usage = result.Usage
	}
	s.metrics.RecordFeedback(ctx, time.Since(start), usage, err)
}

// domainHint is the forced domain, or the detected one
func (s *Service) domainHint(text, domain string) string {
	if domain != "" {
		return domain
	}
	return s.engine.Profiles().Detect(text).Profile.Name
}

func (s *Service) checkDomain(domain string) error {
	if domain == "" {
		return nil
	}
	if _, ok := s.engine.Profiles().Lookup(domain); !ok {
		return unknownDomainError(fmt.Errorf("%w: %q", scoring.ErrUnknownDomain, domain)).
			WithContext("known", s.engine.Profiles().Names())
	}
	return nil
}

func unknownDomainError(err error) *errors.AppError {
	return errors.NewValidationError(errors.ErrCodeUnknownDomain, "unknown domain", err)
}

func emptyTextError() error {
	return errors.NewValidationError(errors.ErrCodeEmptyDocument, "resume text is empty", nil)
}

// warningFor renders a feedback failure for display
func warningFor(err error) string {
	if appErr, ok := errors.AsAppError(err); ok {
		switch appErr.Code {
		case errors.ErrCodeFeedbackDisabled:
			return "Feedback unavailable: no AI service is configured. Showing the score only."
		case errors.ErrCodeAIResponseParse:
			return "Feedback could not be read from the AI response. The score is shown; try requesting feedback again."
		case errors.ErrCodeAITimeout:
			return "Feedback timed out. The score is shown; try requesting feedback again."
		}
		return "Feedback failed: " + appErr.Message + ". The score is shown; try requesting feedback again."
	}
	if stderrors.Is(err, context.Canceled) {
		return "Feedback was cancelled."
	}
	return "Feedback failed. The score is shown; try requesting feedback again."
}

func degradationReason(err error) string {
	if appErr, ok := errors.AsAppError(err); ok {
		return strings.ToLower(appErr.Code)
	}
	return "error"
}

func formatOf(doc extract.Document) string {
	switch mimeOf(doc) {
	case extract.MIMETypePDF:
		return "pdf"
	case extract.MIMETypeDOCX:
		return "docx"
	case extract.MIMETypeText:
		return "text"
	}
	return "unknown"
}

func mimeOf(doc extract.Document) string {
	if doc.MIMEType != "" {
		return doc.MIMEType
	}
	return extract.DetectMIMEType(doc.Name, doc.Data)
}

type nopMetrics struct{}

func (nopMetrics) RecordExtraction(context.Context, string, bool) {}

func (nopMetrics) RecordScore(context.Context, string, int, bool) {}

func (nopMetrics) RecordFeedback(context.Context, time.Duration, *ai.TokenUsage, error) {}

func (nopMetrics) RecordFeedbackDegraded(context.Context, string) {}
