package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/AnshRaj112/fitcoach-backend/internal/database"
)

var indexesCmd = &cobra.Command{
	Use:   "indexes",
	Short: "Create MongoDB indexes and exit",
	RunE: func(cmd *cobra.Command, _ []string) error {
		cfg, log, err := setup()
		if err != nil {
			return err
		}
		ctx := cmd.Context()
		if ctx == nil {
			ctx = context.Background()
		}

		store, err := database.Connect(ctx, cfg.MongoURI, cfg.MongoDatabase, log)
		if err != nil {
			return fmt.Errorf("connect mongo: %w", err)
		}
		defer store.Disconnect(context.Background())

		if err := store.EnsureIndexes(ctx); err != nil {
			return fmt.Errorf("ensure indexes: %w", err)
		}
		log.Info().Int("collections", len(database.Indexes())).Msg("indexes ensured")
		return nil
	},
}
