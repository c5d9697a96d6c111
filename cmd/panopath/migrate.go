// cmd/panopath/migrate.go
package main

import (
	"fmt"

	"github.com/OCAP2/panopath/internal/config"
	"github.com/OCAP2/panopath/internal/database"

	"github.com/spf13/cobra"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Create or update the annotation database schema",
	Long: `Connects to the configured SQL store (postgres with SQLite fallback, or
sqlite) and runs the schema migration. Nothing to do for the memory store.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := config.GetStorageConfig()
		mgr := database.NewManager(app.component("database"), cfg.SQLite.Path)

		var err error
		switch cfg.Type {
		case "postgres":
			err = mgr.ConnectPostgres(cfg.DB)
		case "sqlite":
			err = mgr.ConnectSQLite()
		default:
			fmt.Fprintf(cmd.OutOrStdout(), "storage type %q has no schema\n", cfg.Type)
			return nil
		}
		if err != nil {
			return err
		}
		defer mgr.Close()

		if err := mgr.Setup(); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "schema version %s ready on %s\n", database.SchemaVersion, mgr.DB.Name())
		if mgr.UsingFallback {
			fmt.Fprintf(cmd.OutOrStdout(), "postgres unreachable, migrated SQLite fallback at %s\n", cfg.SQLite.Path)
		}
		return nil
	},
}
