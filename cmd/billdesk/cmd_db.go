package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/shashiranjanraj/billdesk/config"
	"github.com/shashiranjanraj/billdesk/internal/bootstrap"
	"github.com/shashiranjanraj/billdesk/pkg/logger"
)

// billdesk migrate
var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Create tables (sql) or indexes (mongo) for the configured store",
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := config.Load(); err != nil {
			return err
		}
		logger.Configure(config.AppEnv())

		ctx := cmd.Context()
		store, err := bootstrap.OpenStore(ctx)
		if err != nil {
			return err
		}
		defer store.Close(context.Background())

		if err := store.Migrate(ctx); err != nil {
			return fmt.Errorf("migrate %s store: %w", store.Driver(), err)
		}
		fmt.Printf("Migrated %s store.\n", store.Driver())
		return nil
	},
}
