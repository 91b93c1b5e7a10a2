package cli

import (
	"resumescore/internal/common"
	"resumescore/internal/errors"
	"resumescore/internal/scoring"
	"resumescore/internal/types"

	"github.com/spf13/cobra"
)

func newDomainsCmd() *cobra.Command {
	var out outputOptions

	cmd := &cobra.Command{
		Use:   "domains",
		Short: "List the domain profiles and their keywords",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, err := runtimeFrom(cmd)
			if err != nil {
				return err
			}

			cmdConfig, err := out.commandConfig(cfg)
			if err != nil {
				return err
			}

			profiles, err := cfg.Scoring.ProfileSet()
			if err != nil {
				return errors.NewConfigError(errors.ErrCodeInvalidConfig, "invalid scoring profiles", err)
			}

			handler := common.NewOutputHandlerWithWriter(logger, cmd.OutOrStdout())
			return handler.HandleOutput(types.DomainList{Domains: profiles.Profiles()}, cmdConfig)
		},
	}

	out.register(cmd)
	return cmd
}

// completeDomains completes --domain from the configured profiles, or the
// built-in ones when no configuration is loaded
func completeDomains(cmd *cobra.Command, _ []string, _ string) ([]string, cobra.ShellCompDirective) {
	cfg, err := getConfigFromContext(cmd.Context())
	if err != nil {
		return scoring.DefaultProfiles().Names(), cobra.ShellCompDirectiveNoFileComp
	}
	profiles, err := cfg.Scoring.ProfileSet()
	if err != nil {
		return nil, cobra.ShellCompDirectiveError
	}
	return profiles.Names(), cobra.ShellCompDirectiveNoFileComp
}
