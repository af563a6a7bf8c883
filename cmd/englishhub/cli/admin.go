package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/englishhub/englishhub/internal/auth"
)

// errWrongPassword is returned when the entered current password does not
// match the stored one.
var errWrongPassword = errors.New("current password is incorrect")

func newAdminCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "admin",
		Short: "Manage the admin account",
		Long:  "Verify or change the password of the single EnglishHub admin account.",
	}

	cmd.AddCommand(newAdminPasswdCmd(a))
	cmd.AddCommand(newAdminVerifyCmd(a))

	return cmd
}

// ---------- admin passwd ----------

func newAdminPasswdCmd(a *app) *cobra.Command {
	var username string

	cmd := &cobra.Command{
		Use:   "passwd",
		Short: "Change the admin password",
		Long: `Change the admin password. The current password is required. Passwords are
read from the terminal without echo, or one per line from piped input.`,
		Example: `  englishhub admin passwd
  printf 'admin123\nnew-secret\nnew-secret\n' | englishhub admin passwd`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, err := a.setup(cmd)
			if err != nil {
				return err
			}
			if username == "" {
				username = cfg.Auth.AdminUsername
			}

			prompt := newPasswordReader(cmd)
			current, err := prompt.Read("Current password")
			if err != nil {
				return err
			}
			next, err := prompt.Read("New password")
			if err != nil {
				return err
			}
			confirm, err := prompt.Read("Confirm new password")
			if err != nil {
				return err
			}
			if next != confirm {
				return errors.New("passwords do not match")
			}
			if err := auth.CheckPolicy(next); err != nil {
				return err
			}

			ctx := cmd.Context()
			backend, hasher, err := openInitialized(ctx, cfg, logger)
			if err != nil {
				return err
			}
			defer backend.Close()

			creds, err := auth.NewCredentials(backend, hasher, logger)
			if err != nil {
				return err
			}
			ok, err := creds.ChangePassword(ctx, username, current, next)
			if err != nil {
				return err
			}
			if !ok {
				return errWrongPassword
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Password changed for %s\n", username)
			return nil
		},
	}

	cmd.Flags().StringVar(&username, "username", "", "admin username (default from auth.admin_username)")

	return cmd
}

// ---------- admin verify ----------

func newAdminVerifyCmd(a *app) *cobra.Command {
	var username string

	cmd := &cobra.Command{
		Use:   "verify",
		Short: "Check a password against the stored admin credential",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, err := a.setup(cmd)
			if err != nil {
				return err
			}
			if username == "" {
				username = cfg.Auth.AdminUsername
			}

			password, err := newPasswordReader(cmd).Read("Password")
			if err != nil {
				return err
			}

			ctx := cmd.Context()
			backend, hasher, err := openInitialized(ctx, cfg, logger)
			if err != nil {
				return err
			}
			defer backend.Close()

			creds, err := auth.NewCredentials(backend, hasher, logger)
			if err != nil {
				return err
			}
			ok, err := creds.Verify(ctx, username, password)
			if err != nil {
				return err
			}
			if !ok {
				return errors.New("invalid username or password")
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Credentials valid for %s\n", username)
			return nil
		},
	}

	cmd.Flags().StringVar(&username, "username", "", "admin username (default from auth.admin_username)")

	return cmd
}
