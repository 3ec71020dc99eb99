package main

import (
	"fmt"

	"onlyfails/internal/logger"
	"onlyfails/internal/services"
	"onlyfails/internal/token"

	"github.com/spf13/cobra"
)

// onlyfails migrate
func newMigrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create the tables or indexes for the configured store",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, store, err := boot(cmd.Context())
			if err != nil {
				return err
			}
			defer closeStore(store)

			if err := store.Migrate(cmd.Context()); err != nil {
				return err
			}
			logger.Log.Infow("migration complete", "driver", cfg.Database.Driver)
			return nil
		},
	}
}

// newAccountService opens the store and builds the user service the account
// commands share.
func newAccountService(cmd *cobra.Command) (*services.UserService, func(), error) {
	cfg, store, err := boot(cmd.Context())
	if err != nil {
		return nil, nil, err
	}
	if err := store.Migrate(cmd.Context()); err != nil {
		closeStore(store)
		return nil, nil, err
	}
	tokens, err := token.NewManager(cfg.TokenSecret, cfg.TokenTTL)
	if err != nil {
		closeStore(store)
		return nil, nil, err
	}
	return services.NewUserService(store.Users, tokens, nil), func() { closeStore(store) }, nil
}

// onlyfails create-admin: the only way to obtain an admin account.
func newCreateAdminCmd() *cobra.Command {
	var in services.RegisterInput
	cmd := &cobra.Command{
		Use:   "create-admin",
		Short: "Create an admin account",
		RunE: func(cmd *cobra.Command, args []string) error {
			users, done, err := newAccountService(cmd)
			if err != nil {
				return err
			}
			defer done()

			id, err := users.ProvisionAdmin(cmd.Context(), in)
			if err != nil {
				return fmt.Errorf("failed to create admin: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "admin %s created with ID %s\n", in.Email, id)
			return nil
		},
	}
	cmd.Flags().StringVar(&in.Username, "username", "", "admin username")
	cmd.Flags().StringVar(&in.Email, "email", "", "admin email")
	cmd.Flags().StringVar(&in.Password, "password", "", "admin password")
	_ = cmd.MarkFlagRequired("username")
	_ = cmd.MarkFlagRequired("email")
	_ = cmd.MarkFlagRequired("password")
	return cmd
}

// onlyfails ban <email> / onlyfails unban <email>
func newBanCmd(banned bool) *cobra.Command {
	use, short := "ban", "Ban the account registered with an email"
	if !banned {
		use, short = "unban", "Lift the ban on the account registered with an email"
	}
	return &cobra.Command{
		Use:   use + " <email>",
		Short: short,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			users, done, err := newAccountService(cmd)
			if err != nil {
				return err
			}
			defer done()

			if err := users.SetBanned(cmd.Context(), args[0], banned); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s: banned=%t\n", args[0], banned)
			return nil
		},
	}
}
