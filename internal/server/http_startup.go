package server

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"time"

	"resumescore/internal/config"
	"resumescore/internal/observability"
)

const shutdownTimeout = 30 * time.Second

// Start serves until ctx is cancelled, then shuts down gracefully. The
// observability manager wraps the handler chain; its lifecycle belongs to
// the caller.
func (s *Server) Start(ctx context.Context, om *observability.ObservabilityManager) error {
	httpServer := s.setupHTTPServer(om)

	if err := s.configureTLS(httpServer); err != nil {
		return err
	}

	if err := s.startKeyWatcher(); err != nil {
		s.stopBackground()
		return err
	}

	listener, err := net.Listen("tcp", httpServer.Addr)
	if err != nil {
		s.stopBackground()
		return fmt.Errorf("failed to listen on %s: %w", httpServer.Addr, err)
	}

	s.logServerInfo()

	return s.serveWithGracefulShutdown(ctx, httpServer, listener)
}

// setupHTTPServer creates and configures the HTTP server
func (s *Server) setupHTTPServer(om *observability.ObservabilityManager) *http.Server {
	handler := s.Handler()
	if om != nil {
		handler = om.HTTPMiddleware()(handler)
	}

	return &http.Server{
		Addr:              net.JoinHostPort(s.Host, s.Port),
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       s.ReadTimeout,
		WriteTimeout:      s.WriteTimeout,
		IdleTimeout:       s.IdleTimeout,
	}
}

// startKeyWatcher starts API key rotation from Vault when enabled
func (s *Server) startKeyWatcher() error {
	if s.AppConfig == nil || !s.AppConfig.Vault.Enabled || !s.AppConfig.Vault.KeyRotation.Enabled {
		return nil
	}

	client, err := config.NewVaultClient(s.AppConfig.Vault, s.Logger)
	if err != nil {
		return fmt.Errorf("failed to initialize Vault client: %w", err)
	}

	watcher := NewKeyWatcher(client, s.APIKeys, s.AppConfig.Vault.KeyRotation.PollInterval, s.metrics, s.Logger)
	if err := watcher.Start(); err != nil {
		return err
	}
	s.keyWatcher = watcher
	return nil
}

// serveWithGracefulShutdown serves on listener until ctx is done or the
// server fails
func (s *Server) serveWithGracefulShutdown(ctx context.Context, server *http.Server, listener net.Listener) error {
	serverErrors := make(chan error, 1)

	go func() {
		s.Logger.Info("Starting HTTP server",
			"address", listener.Addr().String(),
			"tls_enabled", server.TLSConfig != nil)

		var err error
		if server.TLSConfig != nil {
			// Certificates come from the TLS config's GetCertificate
			err = server.ServeTLS(listener, "", "")
		} else {
			err = server.Serve(listener)
		}
		if err != nil && err != http.ErrServerClosed {
			serverErrors <- err
		}
		close(serverErrors)
	}()

	select {
	case err, ok := <-serverErrors:
		s.stopBackground()
		if ok {
			return fmt.Errorf("server failed: %w", err)
		}
		return nil
	case <-ctx.Done():
		s.Logger.Info("Received shutdown signal, starting graceful shutdown")
		return s.performGracefulShutdown(server)
	}
}

// performGracefulShutdown handles the graceful shutdown process
func (s *Server) performGracefulShutdown(server *http.Server) error {
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	s.stopBackground()

	s.Logger.Info("Shutting down HTTP server...")
	if err := server.Shutdown(shutdownCtx); err != nil {
		s.Logger.LogError(err, "Failed to shutdown server gracefully, forcing close")
		return server.Close()
	}

	s.Logger.Info("Server shutdown completed successfully")
	return nil
}

// stopBackground stops the watchers and the rate limiter
func (s *Server) stopBackground() {
	if s.CertificateManager != nil {
		if err := s.CertificateManager.Stop(); err != nil {
			s.Logger.LogError(err, "Failed to stop certificate manager")
		}
	}
	if s.keyWatcher != nil {
		if err := s.keyWatcher.Stop(); err != nil {
			s.Logger.LogError(err, "Failed to stop API key watcher")
		}
	}
	if s.RateLimiter != nil {
		s.RateLimiter.Close()
	}
}
