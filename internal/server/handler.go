package server

import (
	"bytes"
	"fmt"
	"io"
	"mime"
	"net/http"
	"strconv"
	"strings"

	"resumescore/internal/analysis"
	"resumescore/internal/errors"
	"resumescore/internal/extract"
	"resumescore/internal/types"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	oteltrace "go.opentelemetry.io/otel/trace"
)

const (
	uploadField      = "resume"
	multipartMemory  = 8 << 20
	tracerName       = "resumescore.api"
	defaultMaxUpload = 10 << 20
)

// analyzeHandler accepts a multipart upload or a JSON text body and
// returns the full report. Feedback problems show up as a warning in a
// 200 response; only extraction and request errors fail the call.
func (s *Server) analyzeHandler(w http.ResponseWriter, r *http.Request) {
	ctx, span := otel.Tracer(tracerName).Start(r.Context(), "api.analyze")
	defer span.End()

	opts, err := analyzeOptions(r)
	if err != nil {
		s.fail(w, span, err)
		return
	}

	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	span.SetAttributes(attribute.String("request.content_type", mediaType))

	var report *types.AnalysisReport
	switch mediaType {
	case "multipart/form-data":
		doc, err := s.readUpload(r)
		if err != nil {
			s.fail(w, span, err)
			return
		}
		span.SetAttributes(
			attribute.String("document.mime_type", doc.MIMEType),
			attribute.Int("document.size", len(doc.Data)),
		)
		report, err = s.Analysis.Analyze(ctx, doc, opts)
		if err != nil {
			s.fail(w, span, err)
			return
		}

	case "application/json":
		var req types.AnalyzeTextRequest
		if err := parseJSONRequest(r, &req); err != nil {
			s.fail(w, span, err)
			return
		}
		if req.Domain != "" && opts.Domain == "" {
			opts.Domain = req.Domain
		}
		if !req.WantsFeedback() {
			opts.SkipFeedback = true
		}
		report, err = s.Analysis.AnalyzeText(ctx, req.Text, opts)
		if err != nil {
			s.fail(w, span, err)
			return
		}

	default:
		s.fail(w, span, errors.NewValidationError(errors.ErrCodeUnsupportedType,
			"content type must be multipart/form-data or application/json", nil))
		return
	}

	span.SetAttributes(
		attribute.String("analysis.id", report.ID),
		attribute.String("analysis.domain", report.Score.Domain),
		attribute.Int("analysis.total", report.Score.Total),
		attribute.String("analysis.status", report.Status),
	)
	writeJSON(w, http.StatusOK, report)
}

// scoreHandler scores JSON text; it never calls the AI service
func (s *Server) scoreHandler(w http.ResponseWriter, r *http.Request) {
	ctx, span := otel.Tracer(tracerName).Start(r.Context(), "api.score")
	defer span.End()

	var req types.ScoreRequest
	if err := parseJSONRequest(r, &req); err != nil {
		s.fail(w, span, err)
		return
	}

	report, err := s.Analysis.ScoreText(ctx, req.Text, req.Domain)
	if err != nil {
		s.fail(w, span, err)
		return
	}

	span.SetAttributes(
		attribute.String("score.domain", report.Domain),
		attribute.Int("score.total", report.Total),
	)
	writeJSON(w, http.StatusOK, report)
}

// feedbackHandler is the retry path for the feedback section alone
func (s *Server) feedbackHandler(w http.ResponseWriter, r *http.Request) {
	ctx, span := otel.Tracer(tracerName).Start(r.Context(), "api.feedback")
	defer span.End()

	var req types.FeedbackRequest
	if err := parseJSONRequest(r, &req); err != nil {
		s.fail(w, span, err)
		return
	}

	report, err := s.Analysis.Feedback(ctx, req.Text, req.Domain)
	if err != nil {
		s.fail(w, span, err)
		return
	}

	span.SetAttributes(
		attribute.String("feedback.domain", report.Domain),
		attribute.Bool("feedback.truncated", report.Truncated),
	)
	writeJSON(w, http.StatusOK, report)
}

// domainsHandler lists the configured profiles
func (s *Server) domainsHandler(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.Analysis.Domains())
}

// analyzeOptions reads the domain and feedback query parameters
func analyzeOptions(r *http.Request) (analysis.Options, error) {
	q := r.URL.Query()
	opts := analysis.Options{Domain: strings.TrimSpace(q.Get("domain"))}

	if raw := q.Get("feedback"); raw != "" {
		want, err := strconv.ParseBool(raw)
		if err != nil {
			return opts, errors.NewValidationError(errors.ErrCodeInvalidRequest,
				fmt.Sprintf("invalid feedback parameter %q", raw), err)
		}
		opts.SkipFeedback = !want
	}
	return opts, nil
}

// readUpload reads the résumé part of a multipart request. Only PDF and
// DOCX uploads are accepted.
func (s *Server) readUpload(r *http.Request) (extract.Document, error) {
	if err := r.ParseMultipartForm(multipartMemory); err != nil {
		if isBodyTooLarge(err) {
			return extract.Document{}, errors.NewValidationError(errors.ErrCodeFileTooLarge,
				"request body too large", err)
		}
		return extract.Document{}, errors.NewValidationError(errors.ErrCodeInvalidRequest,
			"invalid multipart form", err)
	}
	defer func() {
		if r.MultipartForm != nil {
			_ = r.MultipartForm.RemoveAll()
		}
	}()

	file, header, err := r.FormFile(uploadField)
	if err != nil {
		return extract.Document{}, errors.NewValidationError(errors.ErrCodeInvalidRequest,
			fmt.Sprintf("multipart field %q is required", uploadField), err)
	}
	defer func() { _ = file.Close() }()

	limit := s.MaxFileSize
	if limit <= 0 {
		limit = defaultMaxUpload
	}

	var buf bytes.Buffer
	n, err := io.Copy(&buf, io.LimitReader(file, limit+1))
	if err != nil {
		return extract.Document{}, errors.NewIOError(errors.ErrCodeFileNotReadable,
			"failed to read uploaded file", err)
	}
	if n > limit {
		return extract.Document{}, errors.NewValidationError(errors.ErrCodeFileTooLarge,
			fmt.Sprintf("file exceeds the %d byte limit", limit), nil).
			WithContext("file", header.Filename)
	}

	data := buf.Bytes()
	mimeType := extract.DetectMIMEType(header.Filename, data)
	if !extract.IsUploadType(mimeType) {
		return extract.Document{}, errors.NewValidationError(errors.ErrCodeUnsupportedType,
			"only PDF and DOCX uploads are supported", nil).
			WithContext("file", header.Filename)
	}

	return extract.Document{Name: header.Filename, MIMEType: mimeType, Data: data}, nil
}

// fail records err on the span, logs server-side failures and writes the
// mapped error response
func (s *Server) fail(w http.ResponseWriter, span oteltrace.Span, err error) {
	status, resp := errorResponseFor(err)

	span.RecordError(err)
	span.SetStatus(codes.Error, resp.Error)
	span.SetAttributes(
		attribute.Int("http.status_code", status),
		attribute.String("error.code", resp.Code),
	)

	if status >= http.StatusInternalServerError {
		s.Logger.LogError(err, "Request failed", "status", status)
	} else {
		s.Logger.Debug("Request rejected", "status", status, "code", resp.Code)
	}

	writeErrorResponse(w, status, resp)
}
