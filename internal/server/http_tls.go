package server

import (
	"crypto/tls"
	"fmt"
	"net/http"
)

// configureTLS sets up TLS configuration based on the mode
func (s *Server) configureTLS(httpServer *http.Server) error {
	switch s.TLSConfig.Mode {
	case "", "disabled":
		s.Logger.Info("TLS disabled, serving plain HTTP", "address", httpServer.Addr)
		return nil
	case "server", "mutual":
	default:
		return fmt.Errorf("invalid TLS mode: %s (must be 'disabled', 'server', or 'mutual')", s.TLSConfig.Mode)
	}

	certManager := NewCertificateManager(s.TLSConfig, s.metrics, s.Logger)
	if err := certManager.Start(); err != nil {
		return fmt.Errorf("failed to set up TLS: %w", err)
	}
	s.CertificateManager = certManager

	httpServer.TLSConfig = s.buildTLSConfig()

	s.Logger.Info("TLS enabled",
		"mode", s.TLSConfig.Mode,
		"min_version", s.TLSConfig.MinVersion,
		"auto_reload", s.TLSConfig.AutoReload.Enabled)
	return nil
}

// buildTLSConfig creates the TLS configuration. Certificates and the client
// CA pool are resolved per handshake so reloads take effect immediately.
func (s *Server) buildTLSConfig() *tls.Config {
	base := &tls.Config{
		MinVersion:     tlsVersion(s.TLSConfig.MinVersion),
		GetCertificate: s.CertificateManager.GetServerCertificate,
	}

	if s.TLSConfig.Mode != "mutual" {
		base.ClientAuth = tls.NoClientCert
		return base
	}

	base.ClientAuth = clientAuthPolicy(s.TLSConfig.ClientAuthPolicy)
	base.ClientCAs = s.CertificateManager.GetCACertPool()
	base.GetConfigForClient = func(*tls.ClientHelloInfo) (*tls.Config, error) {
		cfg := base.Clone()
		cfg.GetConfigForClient = nil
		cfg.ClientCAs = s.CertificateManager.GetCACertPool()
		return cfg, nil
	}
	return base
}

// tlsVersion maps the configured minimum version
func tlsVersion(v string) uint16 {
	if v == "1.3" {
		return tls.VersionTLS13
	}
	return tls.VersionTLS12
}

// clientAuthPolicy returns the appropriate client authentication policy
func clientAuthPolicy(policy string) tls.ClientAuthType {
	switch policy {
	case "request":
		return tls.RequestClientCert
	case "verify":
		return tls.VerifyClientCertIfGiven
	default:
		return tls.RequireAndVerifyClientCert
	}
}
