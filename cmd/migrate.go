package cmd

import (
	"github.com/charmbracelet/log"
	"github.com/fernwood/fernwood/internal/config"
	"github.com/fernwood/fernwood/internal/database"
	"github.com/spf13/cobra"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Create or update the database schema",
	Long:  `Open the configured database and run the schema migrations for users, profiles, settings and the follow graph.`,
	Run:   runMigrate,
}

func init() {
	rootCmd.AddCommand(migrateCmd)
}

func runMigrate(_ *cobra.Command, _ []string) {
	cfg, err := config.Load(rootCmdPersistentFlags.ConfigFile)
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	db, err := database.New(cfg.Database.Path)
	if err != nil {
		log.Fatalf("failed to migrate database: %v", err)
	}
	defer func() {
		if err := db.Close(); err != nil {
			log.Warn("failed to close database", "error", err)
		}
	}()

	log.Info("database migrated", "path", cfg.Database.Path)
}
