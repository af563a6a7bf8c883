package cli

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/englishhub/englishhub/internal/store"
)

func newDBCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "db",
		Short: "Prepare and inspect storage",
		Long:  "Create the EnglishHub tables, seed the admin account and report on the storage backend.",
	}

	cmd.AddCommand(newDBInitCmd(a))
	cmd.AddCommand(newDBCheckCmd(a))

	return cmd
}

// ---------- db init ----------

func newDBInitCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "init",
		Short: "Create missing tables and seed the admin if absent",
		Long: `Create missing tables and seed the admin account. Safe to run any number of
times: existing content and an existing admin, including a changed password,
are left untouched.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, err := a.setup(cmd)
			if err != nil {
				return err
			}
			ctx := cmd.Context()

			hasher, err := newHasher(cfg)
			if err != nil {
				return err
			}
			backend, err := openBackend(ctx, cfg, logger)
			if err != nil {
				return err
			}
			defer backend.Close()

			res, err := initialize(ctx, cfg, backend, hasher, logger)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Storage ready (%s)\n", res.Backend)
			fmt.Fprintf(out, "  tables: %s\n", strings.Join(res.Tables, ", "))
			switch {
			case res.AdminCreated && res.UsedDevSecret:
				fmt.Fprintf(out, "  admin:  %s created with the development password; change it with 'englishhub admin passwd'\n", cfg.Auth.AdminUsername)
			case res.AdminCreated:
				fmt.Fprintf(out, "  admin:  %s created\n", cfg.Auth.AdminUsername)
			default:
				fmt.Fprintf(out, "  admin:  %s already present\n", cfg.Auth.AdminUsername)
			}
			return nil
		},
	}
}

// ---------- db check ----------

func newDBCheckCmd(a *app) *cobra.Command {
	var readOnly bool

	cmd := &cobra.Command{
		Use:   "check",
		Short: "Report storage state, initialize it and report again",
		Long: `Connect to storage, report which tables exist and whether the admin is
present, then run the initializer and report the final state.`,
		Example: `  englishhub db check
  englishhub db check --read-only   # report only, change nothing`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, err := a.setup(cmd)
			if err != nil {
				return err
			}
			ctx := cmd.Context()

			backend, err := openBackend(ctx, cfg, logger)
			if err != nil {
				return err
			}
			defer backend.Close()

			out := cmd.OutOrStdout()
			report := func() (bool, error) {
				tables, err := backend.Tables(ctx)
				if err != nil {
					return false, err
				}
				fmt.Fprintf(out, "Backend: %s\n", backend.Name())
				if len(tables) == 0 {
					fmt.Fprintln(out, "  tables: none")
				} else {
					fmt.Fprintf(out, "  tables: %s\n", strings.Join(tables, ", "))
				}
				// Every backend keeps one collection for the admin and one for content.
				if len(tables) < 2 {
					fmt.Fprintln(out, "  admin:  unknown (schema incomplete)")
					return false, nil
				}

				_, err = backend.GetAdmin(ctx, cfg.Auth.AdminUsername)
				switch {
				case err == nil:
					fmt.Fprintf(out, "  admin:  %s present\n", cfg.Auth.AdminUsername)
					return true, nil
				case errors.Is(err, store.ErrNotFound):
					fmt.Fprintf(out, "  admin:  %s missing\n", cfg.Auth.AdminUsername)
					return false, nil
				default:
					return false, err
				}
			}

			healthy, err := report()
			if err != nil {
				return err
			}
			if readOnly {
				if !healthy {
					fmt.Fprintln(out, "Run 'englishhub db init' to create what is missing.")
				}
				return nil
			}

			hasher, err := newHasher(cfg)
			if err != nil {
				return err
			}
			if _, err := initialize(ctx, cfg, backend, hasher, logger); err != nil {
				return err
			}
			fmt.Fprintln(out, "After initialization:")
			_, err = report()
			return err
		},
	}

	cmd.Flags().BoolVar(&readOnly, "read-only", false, "only report, do not initialize")

	return cmd
}
