package main

import (
	"context"
	"fmt"

	"github.com/kylejryan/vehicle-claims-api/internal/config"
	"github.com/kylejryan/vehicle-claims-api/internal/storage"

	"github.com/spf13/cobra"
)

func migrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create the claims table or indexes",
		Long: `Prepare the repository named by DATABASE_URL.

For DynamoDB this creates the table when it does not exist; for MongoDB it
creates the createdAt index. The in-memory backend needs nothing.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runMigrate(cmd.Context(), cmd)
		},
	}
}

func runMigrate(ctx context.Context, cmd *cobra.Command) error {
	env, err := config.Load()
	if err != nil {
		return err
	}

	backend, err := storage.Open(ctx, env)
	if err != nil {
		return fmt.Errorf("open storage: %w", err)
	}
	defer backend.Close()

	m, ok := backend.(storage.Migrator)
	if !ok {
		fmt.Fprintln(cmd.OutOrStdout(), "nothing to migrate")
		return nil
	}
	if err := m.Migrate(ctx); err != nil {
		return fmt.Errorf("migrate: %w", err)
	}
	fmt.Fprintln(cmd.OutOrStdout(), "migration complete")
	return nil
}
