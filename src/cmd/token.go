package cmd

import (
	"fmt"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/cobra"

	"github.com/theleywin/talent-nest-network/src/lib"
)

// NewTokenCommand creates the token command. Tokens are normally issued by
// the auth service; this one is for local development and tests.
func NewTokenCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "token <user-id>",
		Short: "Mint a bearer token for a user id",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := validator.New().Var(args[0], "mongodb"); err != nil {
				return fmt.Errorf("invalid user id %q", args[0])
			}
			cfg, err := rootOpts.load()
			if err != nil {
				return err
			}
			token, err := lib.NewJWT(cfg.Auth.JWTSecret, cfg.Auth.TokenTTL).GenerateJWT(args[0])
			if err != nil {
				return fmt.Errorf("sign token: %w", err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), token)
			return nil
		},
	}
}
