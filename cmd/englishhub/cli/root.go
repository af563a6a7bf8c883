package cli

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/englishhub/englishhub/internal/config"
	"github.com/englishhub/englishhub/internal/logging"
)

// app is the state shared by every command of one invocation.
type app struct {
	version string
	commit  string
	date    string

	cfgFile string
	envFile string
	v       *viper.Viper

	cfg    *config.Config
	logger *slog.Logger
}

// Execute creates the root command tree and runs it.
func Execute(version, commit, date string) error {
	return newRootCmd(version, commit, date).ExecuteContext(context.Background())
}

func newRootCmd(version, commit, date string) *cobra.Command {
	a := &app{version: version, commit: commit, date: date, v: viper.New()}
	config.Bind(a.v)

	cmd := &cobra.Command{
		Use:   "englishhub",
		Short: "Backend for the EnglishHub video catalog",
		Long: `EnglishHub serves a catalog of YouTube lessons for English learners,
grouped into listening, speaking and reading, and lets a single admin curate it.

Configuration is read from englishhub.yaml, ENGLISHHUB_* environment variables
(a .env file is loaded first when present) and command-line flags.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.initConfig()
		},
	}

	flags := cmd.PersistentFlags()
	flags.StringVar(&a.cfgFile, "config", "", "config file (default is ./englishhub.yaml or ~/.englishhub/englishhub.yaml)")
	flags.StringVar(&a.envFile, "env-file", "", "dotenv file to load (default is ./.env when present)")
	flags.String("data-dir", "", "data directory for the sqlite and local backends (default ~/.englishhub)")
	flags.String("backend", "", "storage backend: sqlite, postgres, mysql or local")
	flags.String("dsn", "", "database connection string for postgres and mysql")
	flags.String("log-level", "", "log level: debug, info, warn or error")
	flags.String("log-format", "", "log format: text, json or pretty")
	_ = a.v.BindPFlag("storage.data_dir", flags.Lookup("data-dir"))
	_ = a.v.BindPFlag("storage.backend", flags.Lookup("backend"))
	_ = a.v.BindPFlag("storage.dsn", flags.Lookup("dsn"))
	_ = a.v.BindPFlag("log.level", flags.Lookup("log-level"))
	_ = a.v.BindPFlag("log.format", flags.Lookup("log-format"))

	cmd.AddCommand(newServeCmd(a))
	cmd.AddCommand(newDBCmd(a))
	cmd.AddCommand(newAdminCmd(a))
	cmd.AddCommand(newContentCmd(a))
	cmd.AddCommand(newMCPCmd(a))
	cmd.AddCommand(newOpenAPICmd(a))
	cmd.AddCommand(newStatusCmd(a))
	cmd.AddCommand(newConfigCmd(a))
	cmd.AddCommand(newVersionCmd(a))

	return cmd
}

// initConfig loads the dotenv file and the config file into viper. Both are
// optional unless named explicitly.
func (a *app) initConfig() error {
	if a.envFile != "" {
		if err := godotenv.Load(a.envFile); err != nil {
			return fmt.Errorf("load env file: %w", err)
		}
	} else if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("load .env: %w", err)
	}

	if a.cfgFile != "" {
		a.v.SetConfigFile(a.cfgFile)
	} else {
		a.v.SetConfigName("englishhub")
		a.v.SetConfigType("yaml")
		a.v.AddConfigPath(".")
		a.v.AddConfigPath("$HOME/.englishhub")
	}
	if err := a.v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if a.cfgFile != "" || !errors.As(err, &notFound) {
			return fmt.Errorf("read config: %w", err)
		}
	}
	return nil
}

// config returns the validated configuration, loading it on first use.
func (a *app) config() (*config.Config, error) {
	if a.cfg != nil {
		return a.cfg, nil
	}
	cfg, err := config.Load(a.v)
	if err != nil {
		return nil, err
	}
	a.cfg = cfg
	return cfg, nil
}

// setup loads the configuration and builds the logger, which writes to the
// command's stderr.
func (a *app) setup(cmd *cobra.Command) (*config.Config, *slog.Logger, error) {
	cfg, err := a.config()
	if err != nil {
		return nil, nil, err
	}
	if a.logger == nil {
		a.logger, err = logging.New(cfg.Log.Level, cfg.Log.Format, cmd.ErrOrStderr())
		if err != nil {
			return nil, nil, err
		}
	}
	return cfg, a.logger, nil
}
