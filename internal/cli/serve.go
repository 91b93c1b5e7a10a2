package cli

import (
	"context"
	"fmt"
	"time"

	"resumescore/internal/analysis"
	"resumescore/internal/config"
	"resumescore/internal/observability"
	"resumescore/internal/server"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

const observabilityShutdownTimeout = 10 * time.Second

type serveOptions struct {
	port     string
	host     string
	tlsMode  string
	certFile string
	keyFile  string
	caFile   string
}

func newServeCmd() *cobra.Command {
	opts := &serveOptions{}

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP API",
		Long: `Start an HTTP server that exposes résumé scoring and feedback.

Available endpoints:
- POST /analyze: Upload a PDF or DOCX (multipart field "resume") or send JSON text; returns score and feedback
- POST /score: Score JSON text without AI feedback
- POST /feedback: Request feedback on its own, to retry after a partial report
- GET /domains: List the domain profiles
- GET /health: Health check endpoint
- GET /stats: Server statistics and rate limiting info

TLS Configuration:
- Use --tls-mode to set TLS mode: disabled, server, mutual
- Use --cert-file and --key-file for TLS certificates
- Use --ca-file for mutual TLS client certificate verification`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, _, err := runtimeFrom(cmd)
			if err != nil {
				return err
			}
			opts.apply(cmd.Flags(), cfg)
			return runServe(cmd)
		},
	}

	cmd.Flags().StringVarP(&opts.port, "port", "p", "", "Port to listen on (default from config)")
	cmd.Flags().StringVar(&opts.host, "host", "", "Host to bind to (default from config)")
	cmd.Flags().StringVar(&opts.tlsMode, "tls-mode", "", "TLS mode: disabled, server, mutual (overrides config)")
	cmd.Flags().StringVar(&opts.certFile, "cert-file", "", "Server certificate file (PEM, overrides config)")
	cmd.Flags().StringVar(&opts.keyFile, "key-file", "", "Server private key file (PEM, overrides config)")
	cmd.Flags().StringVar(&opts.caFile, "ca-file", "", "CA certificate file for client cert verification (PEM, overrides config)")
	return cmd
}

// apply copies the flags the user set onto the server configuration
func (o *serveOptions) apply(flags *pflag.FlagSet, cfg *config.Config) {
	overrides := []struct {
		flag   string
		value  string
		target *string
	}{
		{"port", o.port, &cfg.Server.Port},
		{"host", o.host, &cfg.Server.Host},
		{"tls-mode", o.tlsMode, &cfg.Server.TLS.Mode},
		{"cert-file", o.certFile, &cfg.Server.TLS.CertFile},
		{"key-file", o.keyFile, &cfg.Server.TLS.KeyFile},
		{"ca-file", o.caFile, &cfg.Server.TLS.CAFile},
	}
	for _, ov := range overrides {
		if flags.Changed(ov.flag) {
			*ov.target = ov.value
		}
	}
}

func runServe(cmd *cobra.Command) error {
	cfg, logger, err := runtimeFrom(cmd)
	if err != nil {
		return err
	}

	// Validate TLS configuration after applying overrides
	if err := cfg.ValidateTLSConfig(); err != nil {
		return fmt.Errorf("invalid TLS configuration: %w", err)
	}

	om, err := observability.NewObservabilityManager(observability.GetObservabilityConfig(cfg, Version), logger)
	if err != nil {
		return fmt.Errorf("failed to initialize observability: %w", err)
	}
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), observabilityShutdownTimeout)
		defer cancel()
		if err := om.Shutdown(ctx); err != nil {
			logger.LogError(err, "Failed to shut down observability")
		}
	}()

	var metrics analysis.Metrics
	if m := om.GetMetrics(); m != nil {
		metrics = m
	}

	components, err := analysis.Build(cfg, logger, metrics)
	if err != nil {
		return err
	}
	defer func() {
		if err := components.Close(); err != nil {
			logger.LogError(err, "Failed to close AI service")
		}
	}()

	serverCfg := server.ConfigFromApp(cfg, Version)
	serverCfg.Analysis = components.Analysis
	serverCfg.Feedback = components.Feedback
	serverCfg.Metrics = om.GetMetrics()

	return server.NewServer(cfg, serverCfg, logger).Start(cmd.Context(), om)
}
