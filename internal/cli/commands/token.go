package commands

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/newslynx/recipes/internal/web/auth"
)

func newTokenCommand(opts *globalOptions) *cobra.Command {
	var (
		orgID   int64
		subject string
	)
	cmd := &cobra.Command{
		Use:   "token",
		Short: "Issue an API token for an organization",
		Long:  "Sign a bearer token with auth.jwt_secret for use against `recipes serve`.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, _, err := opts.loadConfig(true)
			if err != nil {
				return err
			}
			if cfg.Auth.JWTSecret == "" {
				return &configError{errors.New("auth.jwt_secret must be set to issue tokens")}
			}

			token, err := auth.NewService(cfg.Auth.JWTSecret, cfg.Auth.TokenTTL).GenerateToken(orgID, subject)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), token)
			return nil
		},
	}
	cmd.Flags().Int64Var(&orgID, "org", 1, "organization the token acts for")
	cmd.Flags().StringVar(&subject, "subject", "cli", "token subject")
	return cmd
}
