package main

import (
	"fmt"

	"github.com/banshee-data/trd-gtu/internal/gtu/storage/sqlite"
	"github.com/spf13/cobra"
)

func newMigrateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:       "migrate up|down|version",
		Short:     "Manage the database schema",
		Args:      cobra.ExactArgs(1),
		ValidArgs: []string{"up", "down", "version"},
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			path := cfg.GetDatabasePath()
			if path == "" {
				return fmt.Errorf("no database: set --db or database_path")
			}
			db, err := sqlite.Open(path)
			if err != nil {
				return err
			}
			defer db.Close()

			switch args[0] {
			case "up":
				if err := sqlite.MigrateUp(db); err != nil {
					return err
				}
			case "down":
				if err := sqlite.MigrateDown(db); err != nil {
					return err
				}
			case "version":
			default:
				return fmt.Errorf("unknown migrate action %q", args[0])
			}

			version, dirty, err := sqlite.MigrateVersion(db)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "schema version %d (dirty: %t)\n", version, dirty)
			return nil
		},
	}
	return cmd
}
