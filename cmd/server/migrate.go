package main

import (
	"fmt"

	"github.com/phrazzld/mastery/internal/platform/postgres"
	"github.com/phrazzld/mastery/internal/platform/sqlite"
	"github.com/spf13/cobra"
)

func (c *cli) migrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate [up|down|status|version|reset]",
		Short: "Apply or inspect schema migrations",
		Long: "Runs a goose migration command against PostgreSQL (default \"up\").\n" +
			"SQLite databases migrate themselves on open; for them this only reports the schema version.",
		Args:      cobra.MaximumNArgs(1),
		ValidArgs: []string{"up", "down", "status", "version", "reset"},
		RunE: func(cmd *cobra.Command, args []string) error {
			command := "up"
			if len(args) == 1 {
				command = args[0]
			}

			cfg, log, err := c.load(cmd)
			if err != nil {
				return err
			}
			ctx := cmd.Context()

			db, _, err := openStores(ctx, cfg.Database, log)
			if err != nil {
				return err
			}
			defer db.Close()

			switch cfg.Database.Driver {
			case "postgres":
				if err := postgres.Migrate(ctx, db, command, log); err != nil {
					return fmt.Errorf("migration failed: %w", err)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "migrate %s: done\n", command)
			case "sqlite":
				version, err := sqlite.SchemaVersion(ctx, db)
				if err != nil {
					return fmt.Errorf("failed to read schema version: %w", err)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "sqlite schema version %d\n", version)
			}
			return nil
		},
	}
}
