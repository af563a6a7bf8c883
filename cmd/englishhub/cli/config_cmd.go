package cli

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
)

func newConfigCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Manage EnglishHub configuration",
		Long:  "Write a starter configuration file or display the effective configuration with secrets masked.",
	}

	cmd.AddCommand(newConfigInitCmd())
	cmd.AddCommand(newConfigShowCmd(a))

	return cmd
}

// ---------- config init ----------

func newConfigInitCmd() *cobra.Command {
	var (
		force bool
		dir   string
	)

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Create a starter englishhub.yaml",
		RunE: func(cmd *cobra.Command, args []string) error {
			path := filepath.Join(dir, "englishhub.yaml")
			if !force {
				if _, err := os.Stat(path); err == nil {
					return fmt.Errorf("%s already exists (use --force to overwrite)", path)
				}
			}
			if err := os.WriteFile(path, []byte(configTemplate), 0o600); err != nil {
				return fmt.Errorf("failed to write config: %w", err)
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Created %s\n", path)
			fmt.Fprintln(cmd.OutOrStdout(), "Set auth.seed_password and auth.jwt_secret before exposing the server.")
			return nil
		},
	}

	cmd.Flags().BoolVar(&force, "force", false, "overwrite an existing file")
	cmd.Flags().StringVar(&dir, "dir", ".", "directory to write englishhub.yaml into")

	return cmd
}

const configTemplate = `# EnglishHub configuration
# Every key can also be set as ENGLISHHUB_<SECTION>_<KEY>, e.g. ENGLISHHUB_SERVER_PORT.

server:
  host: 0.0.0.0
  port: 8080
  shutdown_timeout: 30s
  cors_origins:
    - "*"
  login_rate_limit: 10   # login attempts per IP per minute, 0 disables
  trust_proxy_headers: false  # take client IP from X-Forwarded-For; only behind a proxy

storage:
  backend: sqlite        # sqlite, postgres, mysql or local
  dsn: ""                # required for postgres and mysql; DATABASE_URL also works
  # data_dir: ~/.englishhub
  max_open_conns: 10
  connect_timeout: 30s

auth:
  jwt_secret: ""         # set via ENGLISHHUB_AUTH_JWT_SECRET; random per process when empty
  session_ttl: 24h
  bcrypt_cost: 10
  admin_username: admin
  seed_password: ""      # first-run admin password; admin123 when empty
  require_seed_password: false

log:
  level: info            # debug, info, warn, error
  format: text           # text, json or pretty

mcp:
  transport: stdio       # stdio or http
  port: 3001
`

// ---------- config show ----------

func newConfigShowCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Show the effective configuration",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := a.config()
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if file := a.v.ConfigFileUsed(); file != "" {
				fmt.Fprintf(out, "# Config file: %s\n", file)
			} else {
				fmt.Fprintln(out, "# Config file: (none found, using defaults and environment)")
			}

			b, err := cfg.YAML()
			if err != nil {
				return fmt.Errorf("failed to render config: %w", err)
			}
			_, err = out.Write(b)
			return err
		},
	}
}
