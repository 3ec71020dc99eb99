package main

import (
	"context"
	"fmt"
	"os"

	"onlyfails/internal/app"
	"onlyfails/internal/config"
	"onlyfails/internal/logger"

	"github.com/spf13/cobra"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "onlyfails",
		Short:         "OnlyFails API server and admin tools",
		Long:          "OnlyFails catalogues failed products. Use this CLI to run the API and manage accounts.",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	// Server
	rootCmd.AddCommand(newServeCmd())
	rootCmd.AddCommand(newEventsCmd())

	// Database
	rootCmd.AddCommand(newMigrateCmd())

	// Accounts
	rootCmd.AddCommand(newCreateAdminCmd())
	rootCmd.AddCommand(newBanCmd(true))
	rootCmd.AddCommand(newBanCmd(false))

	return rootCmd
}

// boot loads config, initializes the logger and opens the store. The caller
// closes the store.
func boot(ctx context.Context) (*config.Config, *app.Store, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, err
	}
	if err := logger.Initialize(cfg.LogLevel); err != nil {
		return nil, nil, fmt.Errorf("failed to initialize logger: %w", err)
	}

	store, err := app.OpenStore(ctx, cfg.Database)
	if err != nil {
		return nil, nil, err
	}
	return cfg, store, nil
}

func closeStore(store *app.Store) {
	if err := store.Close(context.Background()); err != nil {
		logger.Log.Errorw("failed to close store", "err", err)
	}
	logger.Sync()
}
