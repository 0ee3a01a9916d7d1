package main

import (
	"fmt"

	"github.com/mohammad-safakhou/flytogether/config"
	"github.com/mohammad-safakhou/flytogether/internal/store"
	"github.com/spf13/cobra"
)

func migrateCMD(load func() (*config.Config, error)) *cobra.Command {
	migDirDefault := "file://migrations"
	var migDir string
	var direction string
	var steps int

	migrate := &cobra.Command{
		Use:   "migrate",
		Short: "Run database migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := load()
			if err != nil {
				return err
			}
			if err := cfg.Storage.Postgres.Validate(); err != nil {
				return fmt.Errorf("postgres not configured: %w", err)
			}
			if migDir == "" {
				migDir = migDirDefault
			}
			return store.Migrate(migDir, cfg.Storage.Postgres.DSN(), direction, steps)
		},
	}
	migrate.Flags().StringVar(&migDir, "dir", migDirDefault, "migrations source (file://migrations)")
	migrate.Flags().StringVar(&direction, "direction", "up", "up or down")
	migrate.Flags().IntVar(&steps, "steps", 0, "number of steps (0 = all)")
	return migrate
}
