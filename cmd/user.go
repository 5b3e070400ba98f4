package cmd

import (
	"github.com/charmbracelet/log"
	"github.com/fernwood/fernwood/internal/config"
	"github.com/fernwood/fernwood/internal/user"
	"github.com/spf13/cobra"
)

var userCmd = &cobra.Command{
	Use:   "user",
	Short: "User account operations",
}

var userRegisterFlags struct {
	Username string
	Email    string
	Password string
}

var userRegisterCmd = &cobra.Command{
	Use:     "register",
	Short:   "Register a new account and queue its confirmation email",
	Example: `fernwood user register --username dan --email dan@example.com --password s3cret`,
	Run:     runUserRegister,
}

var userConfirmFlags struct {
	Token string
}

var userConfirmCmd = &cobra.Command{
	Use:     "confirm",
	Short:   "Confirm an account with an email confirmation token",
	Example: `fernwood user confirm --token v4.local...`,
	Run:     runUserConfirm,
}

func init() {
	userRegisterCmd.Flags().StringVar(&userRegisterFlags.Username, "username", "", "Username of the account")
	userRegisterCmd.Flags().StringVar(&userRegisterFlags.Email, "email", "", "Email of the account")
	userRegisterCmd.Flags().StringVar(&userRegisterFlags.Password, "password", "", "Password of the account")
	_ = userRegisterCmd.MarkFlagRequired("username")
	_ = userRegisterCmd.MarkFlagRequired("email")
	_ = userRegisterCmd.MarkFlagRequired("password")

	userConfirmCmd.Flags().StringVar(&userConfirmFlags.Token, "token", "", "Confirmation token from the email")
	_ = userConfirmCmd.MarkFlagRequired("token")

	userCmd.AddCommand(userRegisterCmd)
	userCmd.AddCommand(userConfirmCmd)
	rootCmd.AddCommand(userCmd)
}

func newUserService(cmd *cobra.Command) (*user.Service, func() error) {
	cfg, err := config.Load(rootCmdPersistentFlags.ConfigFile)
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	svc, closeFn, err := user.NewFromConfig(cmd.Context(), cfg)
	if err != nil {
		log.Fatalf("failed to initialize user service: %v", err)
	}
	return svc, closeFn
}

func runUserRegister(cmd *cobra.Command, _ []string) {
	svc, closeFn := newUserService(cmd)
	defer func() {
		if err := closeFn(); err != nil {
			log.Warn("failed to shut down user service", "error", err)
		}
	}()

	u, err := svc.Register(cmd.Context(), userRegisterFlags.Username, userRegisterFlags.Email, userRegisterFlags.Password)
	if err != nil {
		log.Fatalf("failed to register user: %v", err)
	}

	log.Info("user registered", "username", u.Username, "id", u.ID)
}

func runUserConfirm(cmd *cobra.Command, _ []string) {
	svc, closeFn := newUserService(cmd)
	defer func() {
		if err := closeFn(); err != nil {
			log.Warn("failed to shut down user service", "error", err)
		}
	}()

	u, err := svc.ConfirmEmail(cmd.Context(), userConfirmFlags.Token)
	if err != nil {
		log.Fatalf("failed to confirm account: %v", err)
	}

	log.Info("account confirmed", "username", u.Username, "id", u.ID)
}
