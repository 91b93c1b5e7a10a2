package cli

import (
	"context"

	"resumescore/internal/analysis"
	"resumescore/internal/extract"
	"resumescore/internal/types"

	"github.com/spf13/cobra"
)

func newScoreCmd() *cobra.Command {
	var (
		out    outputOptions
		domain string
	)

	cmd := &cobra.Command{
		Use:   "score [resume-file]",
		Short: "Score a résumé without AI feedback",
		Long: `Score a résumé file against the detected (or forced) domain profile.
Scoring is deterministic and needs no network access.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return documentCommand(cmd, args, &out, "scoring",
				func(ctx context.Context, svc *analysis.Service, doc extract.Document) (types.ScoreReport, error) {
					return svc.ScoreDocument(ctx, doc, domain)
				})
		},
	}

	out.register(cmd)
	cmd.Flags().StringVarP(&domain, "domain", "d", "", "Force a domain profile instead of detecting it")
	_ = cmd.RegisterFlagCompletionFunc("domain", completeDomains)
	return cmd
}
