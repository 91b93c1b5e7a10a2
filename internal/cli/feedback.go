package cli

import (
	"context"

	"resumescore/internal/analysis"
	"resumescore/internal/extract"
	"resumescore/internal/types"

	"github.com/spf13/cobra"
)

func newFeedbackCmd() *cobra.Command {
	var (
		out    outputOptions
		domain string
	)

	cmd := &cobra.Command{
		Use:   "feedback [resume-file]",
		Short: "Request AI feedback for a résumé",
		Long: `Request qualitative feedback (strengths, weaknesses, suggestions) for a
résumé file. Requires a configured AI key. Unlike analyze, a feedback
failure makes the command fail.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return documentCommand(cmd, args, &out, "feedback",
				func(ctx context.Context, svc *analysis.Service, doc extract.Document) (*types.FeedbackReport, error) {
					return svc.FeedbackDocument(ctx, doc, domain)
				})
		},
	}

	out.register(cmd)
	cmd.Flags().StringVarP(&domain, "domain", "d", "", "Domain passed to the model as context (default: detected)")
	_ = cmd.RegisterFlagCompletionFunc("domain", completeDomains)
	return cmd
}
