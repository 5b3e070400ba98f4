package cmd

import (
	"errors"
	"fmt"

	"github.com/charmbracelet/log"
	"github.com/dustin/go-humanize"
	"github.com/fernwood/fernwood/internal/config"
	"github.com/fernwood/fernwood/internal/database"
	"github.com/mergestat/timediff"
	"github.com/spf13/cobra"
	"gorm.io/gorm"
)

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show user statistics from the database",
	Run:   runStats,
}

func init() {
	rootCmd.AddCommand(statsCmd)
}

func runStats(cmd *cobra.Command, _ []string) {
	cfg, err := config.Load(rootCmdPersistentFlags.ConfigFile)
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	db, err := database.New(cfg.Database.Path)
	if err != nil {
		log.Fatalf("failed to open database: %v", err)
	}
	defer func() {
		if err := db.Close(); err != nil {
			log.Warn("failed to close database", "error", err)
		}
	}()

	ctx := cmd.Context()

	total, err := db.CountUsers(ctx)
	if err != nil {
		log.Fatalf("failed to count users: %v", err)
	}
	fmt.Printf("Users: %s\n", humanize.Comma(total))

	latest, err := db.LatestUser(ctx)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return
	}
	if err != nil {
		log.Fatalf("failed to get latest user: %v", err)
	}
	fmt.Printf("Latest registration: %s (%s)\n", latest.Username, timediff.TimeDiff(latest.RegisteredAt))
}
