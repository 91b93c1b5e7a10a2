package server

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"log"
	"mime"
	"net/http"
	"time"

	"resumescore/internal/errors"
	"resumescore/internal/types"

	"github.com/sony/gobreaker/v2"
)

const defaultHealthCheckTimeout = 10 * time.Second

// getHealthCheckTimeout returns the configured health check timeout
func (s *Server) getHealthCheckTimeout() time.Duration {
	if s.AppConfig != nil && s.AppConfig.Observability.HealthCheck.AIModelCheckTimeout > 0 {
		return s.AppConfig.Observability.HealthCheck.AIModelCheckTimeout
	}
	return defaultHealthCheckTimeout
}

// healthHandler reports service health. Scoring has no external
// dependencies, so an unavailable AI model or expiring certificate only
// degrades the status.
func (s *Server) healthHandler(w http.ResponseWriter, r *http.Request) {
	response := map[string]any{
		"status":  "healthy",
		"service": "resumescore",
		"version": s.Version,
		"scoring": map[string]any{
			"available": true,
			"domains":   s.Analysis.Domains().Domains,
		},
	}

	healthy := true

	feedback := s.checkFeedbackHealth(r.Context())
	response["feedback"] = feedback
	if available, _ := feedback["available"].(bool); !available && s.Feedback != nil {
		healthy = false
	}

	if certStatus := s.checkCertificateHealth(); certStatus != nil {
		response["certificates"] = certStatus
		if ok, _ := certStatus["healthy"].(bool); !ok {
			healthy = false
		}
	}

	status := http.StatusOK
	if !healthy {
		response["status"] = "degraded"
		status = http.StatusServiceUnavailable
	}
	writeJSON(w, status, response)
}

// checkFeedbackHealth reports the AI model and circuit breaker state
func (s *Server) checkFeedbackHealth(ctx context.Context) map[string]any {
	if s.Feedback == nil {
		return map[string]any{
			"enabled":   false,
			"available": false,
			"message":   "No AI service configured; scores are returned without feedback",
		}
	}

	ctx, cancel := context.WithTimeout(ctx, s.getHealthCheckTimeout())
	defer cancel()

	model := s.Feedback.GetModelInfo(ctx)
	status := map[string]any{
		"enabled": true,
		"model":   model,
	}
	available := model != nil && model.Available
	if stats, ok := s.Feedback.CircuitBreakerStats(); ok {
		status["circuit_breakers"] = stats
		available = available && stats.Healthy
	}
	status["available"] = available
	return status
}

// checkCertificateHealth checks the health of TLS certificates
func (s *Server) checkCertificateHealth() map[string]any {
	if s.CertificateManager == nil {
		return nil
	}

	certStatus := make(map[string]any)

	timeToExpiry, err := s.CertificateManager.CheckExpiry()
	if err != nil {
		certStatus["healthy"] = false
		certStatus["error"] = fmt.Sprintf("Failed to check certificate expiry: %v", err)
		return certStatus
	}

	criticalThreshold := 24 * time.Hour
	warningThreshold := 7 * 24 * time.Hour

	certStatus["time_to_expiry_hours"] = int(timeToExpiry.Hours())

	switch {
	case timeToExpiry <= 0:
		certStatus["healthy"] = false
		certStatus["status"] = "expired"
	case timeToExpiry <= criticalThreshold:
		certStatus["healthy"] = false
		certStatus["status"] = "critical"
	case timeToExpiry <= warningThreshold:
		certStatus["healthy"] = true
		certStatus["status"] = "warning"
	default:
		certStatus["healthy"] = true
		certStatus["status"] = "ok"
	}

	certStatus["auto_reload"] = s.CertificateManager.Status()
	return certStatus
}

// statsHandler provides server statistics including rate limiting info
func (s *Server) statsHandler(w http.ResponseWriter, _ *http.Request) {
	response := map[string]any{
		"service":        "resumescore",
		"version":        s.Version,
		"uptime_seconds": int64(time.Since(s.startedAt).Seconds()),
		"server": map[string]any{
			"max_request_size_bytes": s.MaxRequestSize,
			"max_file_size_bytes":    s.MaxFileSize,
			"api_keys_configured":    s.APIKeys.Len(),
		},
		"feedback_enabled": s.Analysis.FeedbackEnabled(),
	}

	if s.Feedback != nil {
		if stats, ok := s.Feedback.CircuitBreakerStats(); ok {
			response["circuit_breakers"] = stats
		}
	}

	if s.RateLimiter != nil {
		response["rate_limiting"] = s.RateLimiter.GetStats()
	} else {
		response["rate_limiting"] = map[string]any{"enabled": false}
	}

	if s.RateLimit != nil {
		response["rate_limit_config"] = map[string]any{
			"enabled":          s.RateLimit.Enabled,
			"requests_per_min": s.RateLimit.RequestsPerMin,
			"burst_capacity":   s.RateLimit.BurstCapacity,
			"by_ip":            s.RateLimit.ByIP,
			"by_api_key":       s.RateLimit.ByAPIKey,
		}
	}

	if s.keyWatcher != nil {
		response["api_key_rotation"] = s.keyWatcher.Status()
	}

	writeJSON(w, http.StatusOK, response)
}

// parseJSONRequest decodes and validates a JSON request body
func parseJSONRequest(r *http.Request, v interface{ Validate() error }) error {
	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if mediaType != "application/json" {
		return errors.NewValidationError(errors.ErrCodeUnsupportedType,
			"content-type must be application/json", nil)
	}

	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		if isBodyTooLarge(err) {
			return errors.NewValidationError(errors.ErrCodeFileTooLarge,
				"request body too large", err)
		}
		return errors.NewValidationError(errors.ErrCodeInvalidRequest,
			"failed to parse JSON body", err)
	}

	if err := v.Validate(); err != nil {
		return errors.NewValidationError(errors.ErrCodeInvalidRequest,
			"request validation failed", err)
	}
	return nil
}

func isBodyTooLarge(err error) bool {
	var maxBytesErr *http.MaxBytesError
	return stderrors.As(err, &maxBytesErr)
}

// errorResponseFor maps an error onto an HTTP status and body
func errorResponseFor(err error) (int, ErrorResponse) {
	appErr, ok := errors.AsAppError(err)
	if !ok {
		if stderrors.Is(err, context.DeadlineExceeded) {
			return http.StatusGatewayTimeout, ErrorResponse{Error: "Request timed out", Message: err.Error()}
		}
		return http.StatusInternalServerError, ErrorResponse{Error: "Internal server error", Message: err.Error()}
	}

	resp := ErrorResponse{
		Message: appErr.Message,
		Code:    appErr.Code,
	}
	if details := types.ValidationDetails(appErr.Cause); details != nil {
		resp.Details = details
	}

	switch appErr.Type {
	case errors.ErrorTypeValidation:
		resp.Error = "Invalid request"
		switch appErr.Code {
		case errors.ErrCodeFileTooLarge:
			return http.StatusRequestEntityTooLarge, resp
		case errors.ErrCodeUnsupportedType:
			return http.StatusUnsupportedMediaType, resp
		case errors.ErrCodeEmptyDocument:
			return http.StatusUnprocessableEntity, resp
		}
		return http.StatusBadRequest, resp

	case errors.ErrorTypeIO:
		resp.Error = "Document could not be processed"
		if appErr.Code == errors.ErrCodeExtraction {
			return http.StatusUnprocessableEntity, resp
		}
		return http.StatusInternalServerError, resp

	case errors.ErrorTypeAI:
		resp.Error = "Feedback failed"
		if appErr.Code == errors.ErrCodeAITimeout || stderrors.Is(appErr, gobreaker.ErrOpenState) {
			return http.StatusServiceUnavailable, resp
		}
		return http.StatusBadGateway, resp

	case errors.ErrorTypeConfig:
		if appErr.Code == errors.ErrCodeFeedbackDisabled {
			resp.Error = "Feedback unavailable"
			return http.StatusServiceUnavailable, resp
		}
		resp.Error = "Server misconfigured"
		return http.StatusInternalServerError, resp

	case errors.ErrorTypeNetwork:
		resp.Error = "Upstream unavailable"
		return http.StatusServiceUnavailable, resp
	}

	resp.Error = "Internal server error"
	return http.StatusInternalServerError, resp
}

// writeJSON writes v with the given status
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("Failed to encode response: %v", err)
	}
}

// writeErrorResponse writes a standardized error response
func writeErrorResponse(w http.ResponseWriter, status int, resp ErrorResponse) {
	writeJSON(w, status, resp)
}
