package main

import (
	"fmt"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/parcelroute/parcel-server/internal/config"
	"github.com/parcelroute/parcel-server/internal/logging"
	"github.com/parcelroute/parcel-server/internal/store"
)

func migrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply database schema migrations and exit",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(configPath)
			if err != nil {
				return err
			}
			logging.Init(cfg.Log.Level, cfg.Log.Format)

			pool, err := store.NewPool(cmd.Context(), cfg.DBDSN)
			if err != nil {
				return fmt.Errorf("database connection failed: %w", err)
			}
			defer pool.Close()

			if err := store.RunMigrations(cmd.Context(), pool); err != nil {
				return fmt.Errorf("migrations failed: %w", err)
			}
			log.Info().Msg("migrations applied")
			return nil
		},
	}
}
