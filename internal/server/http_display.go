package server

// logServerInfo logs the effective server setup at startup
func (s *Server) logServerInfo() {
	s.Logger.Info("Available endpoints",
		"public", []string{"GET /health", "GET /stats", "GET /domains"},
		"protected", []string{"POST /analyze", "POST /score", "POST /feedback"})

	if s.APIKeys.Enabled() {
		s.Logger.Info("API authentication enabled", "keys", s.APIKeys.Len())
	} else {
		s.Logger.Warn("API authentication disabled, endpoints are publicly accessible")
	}

	if s.MaxRequestSize > 0 {
		s.Logger.Info("Request size limit",
			"bytes", s.MaxRequestSize,
			"upload_limit_bytes", s.MaxFileSize)
	} else {
		s.Logger.Warn("No request size limit configured")
	}

	if s.RateLimit != nil && s.RateLimit.Enabled {
		s.Logger.Info("Rate limiting enabled",
			"requests_per_min", s.RateLimit.RequestsPerMin,
			"burst", s.RateLimit.BurstCapacity,
			"by_api_key", s.RateLimit.ByAPIKey,
			"by_ip", s.RateLimit.ByIP)
	} else {
		s.Logger.Warn("Rate limiting disabled")
	}

	switch {
	case s.Feedback != nil:
		s.Logger.Info("AI feedback enabled", "model", s.Feedback.Model())
	case s.Analysis.FeedbackEnabled():
		s.Logger.Info("AI feedback enabled")
	default:
		s.Logger.Warn("AI feedback disabled, responses carry scores only")
	}
}
