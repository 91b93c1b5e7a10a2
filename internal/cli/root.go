// Package cli implements the resumescore command line.
package cli

import (
	"context"
	"fmt"

	"resumescore/internal/config"
	"resumescore/internal/errors"

	"github.com/spf13/cobra"
)

// Define custom private types for context keys.
type configKeyType struct{}
type loggerKeyType struct{}

// Use variables of these types as the keys.
var configKey = configKeyType{}
var loggerKey = loggerKeyType{}

type rootOptions struct {
	configFile string
	logLevel   string
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}

	cmd := &cobra.Command{
		Use:   "resumescore",
		Short: "Score résumés and get AI feedback",
		Long: `Resumescore evaluates a résumé (PDF, DOCX or plain text) against a
domain profile and produces a 0-100 score with a per-category breakdown.
When an AI key is configured it also asks a language model for strengths,
weaknesses and suggestions. Scoring works offline; feedback is optional.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return opts.initialize(cmd)
		},
	}

	cmd.PersistentFlags().StringVarP(&opts.configFile, "config", "c", "", "Config file (default: search /etc/resumescore, $HOME/.resumescore and .)")
	cmd.PersistentFlags().StringVar(&opts.logLevel, "log-level", "", "Log level: debug, info, warn, error (overrides config)")

	cmd.AddCommand(
		newAnalyzeCmd(),
		newScoreCmd(),
		newFeedbackCmd(),
		newDomainsCmd(),
		newServeCmd(),
		newVersionCmd(),
	)
	return cmd
}

// Execute runs the command line with ctx, which should be cancelled on
// interrupt signals
func Execute(ctx context.Context) error {
	return newRootCmd().ExecuteContext(ctx)
}

// initialize loads configuration and the logger into the command context.
// A context that already carries both is left alone.
func (o *rootOptions) initialize(cmd *cobra.Command) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	if _, err := getConfigFromContext(ctx); err == nil {
		if _, err := getLoggerFromContext(ctx); err == nil {
			return nil
		}
	}

	cfg, err := config.LoadConfigFile(o.configFile)
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	level := cfg.App.LogLevel
	if o.logLevel != "" {
		level = o.logLevel
	}
	logger, err := errors.New(level)
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}

	if err := config.ApplyVaultSecrets(cfg, logger); err != nil {
		return fmt.Errorf("failed to apply Vault secrets: %w", err)
	}

	logger.Debug("Configuration loaded",
		"version", Version,
		"log_level", level,
		"ai_provider", cfg.AI.Provider,
		"ai_key_configured", cfg.HasAIKey())

	cmd.SetContext(withRuntime(ctx, cfg, logger))
	return nil
}

// withRuntime attaches the config and logger, making them available to all subcommands
func withRuntime(ctx context.Context, cfg *config.Config, logger *errors.Logger) context.Context {
	ctx = context.WithValue(ctx, configKey, cfg)
	return context.WithValue(ctx, loggerKey, logger)
}

// getConfigFromContext is a helper function to get config from context
func getConfigFromContext(ctx context.Context) (*config.Config, error) {
	if cfg, ok := ctx.Value(configKey).(*config.Config); ok && cfg != nil {
		return cfg, nil
	}
	return nil, fmt.Errorf("config not found in context")
}

// getLoggerFromContext is a helper function to get logger from context
func getLoggerFromContext(ctx context.Context) (*errors.Logger, error) {
	if logger, ok := ctx.Value(loggerKey).(*errors.Logger); ok && logger != nil {
		return logger, nil
	}
	return nil, fmt.Errorf("logger not found in context")
}

// runtimeFrom returns both the config and the logger
func runtimeFrom(cmd *cobra.Command) (*config.Config, *errors.Logger, error) {
	cfg, err := getConfigFromContext(cmd.Context())
	if err != nil {
		return nil, nil, err
	}
	logger, err := getLoggerFromContext(cmd.Context())
	if err != nil {
		return nil, nil, err
	}
	return cfg, logger, nil
}
