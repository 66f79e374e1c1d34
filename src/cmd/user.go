package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/theleywin/talent-nest-network/src/lib"
	"github.com/theleywin/talent-nest-network/src/users"
)

// NewUserCommand groups user administration commands.
func NewUserCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "user",
		Short: "Manage user records",
	}
	cmd.AddCommand(newUserCreateCommand(rootOpts))
	return cmd
}

func newUserCreateCommand(rootOpts *RootOptions) *cobra.Command {
	var in users.NewUser

	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create a user record and print its id",
		Long: `Create a user record and print its id.

Example:
  talentnest user create --username alice --email alice@example.com`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := rootOpts.load()
			if err != nil {
				return err
			}
			db, err := lib.ConnectDB(cmd.Context(), cfg.Database)
			if err != nil {
				return err
			}
			defer func() { _ = db.Close(context.Background()) }()
			if err := db.Migrate(cmd.Context()); err != nil {
				return fmt.Errorf("migrate: %w", err)
			}

			u, err := users.NewService(db, cfg.API.MaxSearchResult).Create(cmd.Context(), in)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), u.ID)
			return nil
		},
	}

	cmd.Flags().StringVar(&in.Username, "username", "", "unique username (required)")
	cmd.Flags().StringVar(&in.Email, "email", "", "unique email (required)")
	cmd.Flags().StringVar(&in.FirstName, "first-name", "", "first name")
	cmd.Flags().StringVar(&in.LastName, "last-name", "", "last name")
	_ = cmd.MarkFlagRequired("username")
	_ = cmd.MarkFlagRequired("email")

	return cmd
}
