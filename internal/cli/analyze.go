package cli

import (
	"context"

	"resumescore/internal/analysis"
	"resumescore/internal/extract"
	"resumescore/internal/types"

	"github.com/spf13/cobra"
)

type analyzeOptions struct {
	outputOptions
	domain     string
	noFeedback bool
}

func newAnalyzeCmd() *cobra.Command {
	opts := &analyzeOptions{}

	cmd := &cobra.Command{
		Use:   "analyze [resume-file]",
		Short: "Score a résumé and request AI feedback",
		Long: `Analyze a résumé file (PDF, DOCX or plain text). The report contains the
0-100 score with its category breakdown and, when an AI service is
configured, qualitative feedback.

If feedback fails the score is still printed and the report is marked
partial with a warning. Use the feedback command to retry.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			analysisOpts := analysis.Options{Domain: opts.domain, SkipFeedback: opts.noFeedback}
			return documentCommand(cmd, args, &opts.outputOptions, "analysis",
				func(ctx context.Context, svc *analysis.Service, doc extract.Document) (*types.AnalysisReport, error) {
					return svc.Analyze(ctx, doc, analysisOpts)
				})
		},
	}

	opts.register(cmd)
	cmd.Flags().StringVarP(&opts.domain, "domain", "d", "", "Force a domain profile instead of detecting it")
	cmd.Flags().BoolVar(&opts.noFeedback, "no-feedback", false, "Skip AI feedback and print the score only")
	_ = cmd.RegisterFlagCompletionFunc("domain", completeDomains)
	return cmd
}
