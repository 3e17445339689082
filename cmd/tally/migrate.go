package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"tally/internal/cli"
	"tally/internal/config"
	"tally/internal/storage"
)

func migrateCmd() *cobra.Command {
	var status bool

	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Run database migrations",
		Long: `Migrate brings the database schema up to the latest version. Every other
command runs pending migrations automatically; this one exists for checking
the schema state and for warming a fresh database explicitly.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()

			dbPath := viper.GetString("database.path")
			if dbPath == "" {
				dbPath = config.DefaultDatabasePath()
			}
			dbPath = config.ExpandPath(dbPath)

			store, err := storage.NewSQLiteStorage(dbPath)
			if err != nil {
				return fmt.Errorf("failed to open database: %w", err)
			}
			defer func() { _ = store.Close() }()

			if status {
				version, err := store.SchemaVersion(ctx)
				if err != nil {
					return err
				}
				fmt.Printf("Database: %s\n", dbPath)
				fmt.Printf("Schema version: %d (latest %d)\n", version, storage.ExpectedSchemaVersion)
				if version < storage.ExpectedSchemaVersion {
					fmt.Println(cli.FormatWarning(fmt.Sprintf("%d migrations pending", storage.ExpectedSchemaVersion-version)))
				}
				return nil
			}

			if err := store.Migrate(ctx); err != nil {
				return fmt.Errorf("migration failed: %w", err)
			}

			fmt.Println(cli.FormatSuccess(fmt.Sprintf("Schema is at version %d", storage.ExpectedSchemaVersion)))
			return nil
		},
	}

	cmd.Flags().BoolVar(&status, "status", false, "show the schema version without applying changes")
	return cmd
}
