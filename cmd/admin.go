package cmd

import (
	"github.com/charmbracelet/log"
	"github.com/fernwood/fernwood/internal/config"
	"github.com/fernwood/fernwood/internal/database"
	"github.com/fernwood/fernwood/internal/password"
	"github.com/spf13/cobra"
)

var adminCmd = &cobra.Command{
	Use:   "admin",
	Short: "Administrative account operations",
}

var adminCreateFlags struct {
	Username string
	Email    string
	Password string
}

var adminCreateCmd = &cobra.Command{
	Use:     "create",
	Short:   "Create a confirmed superuser account",
	Example: `fernwood admin create --username root --email root@example.com --password s3cret`,
	Run:     runAdminCreate,
}

func init() {
	adminCreateCmd.Flags().StringVar(&adminCreateFlags.Username, "username", "", "Username of the superuser")
	adminCreateCmd.Flags().StringVar(&adminCreateFlags.Email, "email", "", "Email of the superuser")
	adminCreateCmd.Flags().StringVar(&adminCreateFlags.Password, "password", "", "Password of the superuser")
	_ = adminCreateCmd.MarkFlagRequired("username")
	_ = adminCreateCmd.MarkFlagRequired("email")
	_ = adminCreateCmd.MarkFlagRequired("password")

	adminCmd.AddCommand(adminCreateCmd)
	rootCmd.AddCommand(adminCmd)
}

func runAdminCreate(cmd *cobra.Command, _ []string) {
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

	hash, err := password.Hash(adminCreateFlags.Password)
	if err != nil {
		log.Fatalf("failed to hash password: %v", err)
	}

	user, err := db.CreateSuperuser(cmd.Context(), adminCreateFlags.Username, adminCreateFlags.Email, hash)
	if err != nil {
		log.Fatalf("failed to create superuser: %v", err)
	}

	log.Info("superuser created", "username", user.Username, "id", user.ID)
}
