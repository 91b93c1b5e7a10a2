package cli

import (
	"context"

	"resumescore/internal/analysis"
	"resumescore/internal/common"
	"resumescore/internal/config"
	"resumescore/internal/errors"
	"resumescore/internal/extract"

	"github.com/spf13/cobra"
)

// outputOptions are the flags shared by every command that prints a report
type outputOptions struct {
	outputFile string
	format     string
}

func (o *outputOptions) register(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&o.outputFile, "output", "o", "", "Output file path (default: stdout)")
	cmd.Flags().StringVar(&o.format, "format", "", "Output format: json, yaml, text or markdown (default from config)")

	_ = cmd.RegisterFlagCompletionFunc("format", func(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
		cfg, err := getConfigFromContext(cmd.Context())
		if err != nil {
			return common.SupportedOutputFormats(nil), cobra.ShellCompDirectiveNoFileComp
		}
		return common.SupportedOutputFormats(cfg.App.SupportedFormats), cobra.ShellCompDirectiveNoFileComp
	})
}

// commandConfig resolves the output format against the configuration
func (o *outputOptions) commandConfig(cfg *config.Config) (common.CommandConfig, error) {
	format := o.format
	if format == "" {
		format = cfg.App.DefaultFormat
	}
	normalized, err := common.NormalizeOutputFormat(format, cfg.App.SupportedFormats)
	if err != nil {
		return common.CommandConfig{}, errors.NewValidationError(errors.ErrCodeInvalidFormat, err.Error(), err)
	}
	return common.CommandConfig{
		OutputFile:   o.outputFile,
		OutputFormat: normalized,
		MaxFileSize:  cfg.App.MaxFileSize,
	}, nil
}

// documentCommand runs operation on the résumé named in args with a fully
// wired analysis service
func documentCommand[Output any](
	cmd *cobra.Command,
	args []string,
	out *outputOptions,
	name string,
	operation func(context.Context, *analysis.Service, extract.Document) (Output, error),
) error {
	cfg, logger, err := runtimeFrom(cmd)
	if err != nil {
		return err
	}

	cmdConfig, err := out.commandConfig(cfg)
	if err != nil {
		return err
	}

	components, err := analysis.Build(cfg, logger, nil)
	if err != nil {
		return err
	}
	defer func() {
		if err := components.Close(); err != nil {
			logger.LogError(err, "Failed to close AI service")
		}
	}()

	logDetails := func(doc extract.Document, c common.CommandConfig) {
		logger.Info("Starting resume "+name,
			"file", doc.Name,
			"mime_type", doc.MIMEType,
			"bytes", len(doc.Data),
			"output_format", c.OutputFormat)
	}

	run := func(ctx context.Context, doc extract.Document) (Output, error) {
		return operation(ctx, components.Analysis, doc)
	}

	if err := common.RunDocumentCommand(cmd.Context(), logger, cmdConfig, args, run, logDetails); err != nil {
		return err
	}
	logger.Info("Resume " + name + " completed successfully")
	return nil
}
