package cli

import (
	"github.com/spf13/cobra"

	"github.com/englishhub/englishhub/internal/auth"
	"github.com/englishhub/englishhub/internal/content"
	"github.com/englishhub/englishhub/internal/metrics"
	"github.com/englishhub/englishhub/internal/server"
	"github.com/englishhub/englishhub/internal/service"
)

func newServeCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP API server",
		Long: `Start the EnglishHub HTTP API. Storage is initialized on startup: missing
tables are created and the admin is seeded if absent.`,
		Example: `  englishhub serve
  englishhub serve --port 9000 --backend postgres --dsn postgres://hub@localhost/hub`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runServe(cmd)
		},
	}

	cmd.Flags().String("host", "", "listen host (default 0.0.0.0)")
	cmd.Flags().Int("port", 0, "listen port (default 8080)")
	_ = a.v.BindPFlag("server.host", cmd.Flags().Lookup("host"))
	_ = a.v.BindPFlag("server.port", cmd.Flags().Lookup("port"))

	return cmd
}

func (a *app) runServe(cmd *cobra.Command) error {
	cfg, logger, err := a.setup(cmd)
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

	secret, generated, err := cfg.Auth.SigningSecret()
	if err != nil {
		return err
	}
	if generated {
		logger.Warn("no auth.jwt_secret configured; using a random key, sessions will not survive a restart")
	}

	m := metrics.New()
	sessions, err := service.NewSessionService(creds, service.SessionConfig{
		Secret:  secret,
		TTL:     cfg.Auth.SessionTTL,
		Metrics: m,
		Logger:  logger,
	})
	if err != nil {
		return err
	}

	srv := server.New(server.Config{
		Host:              cfg.Server.Host,
		Port:              cfg.Server.Port,
		ShutdownTimeout:   cfg.Server.ShutdownTimeout,
		CORSOrigins:       cfg.Server.CORSOrigins,
		LoginRateLimit:    cfg.Server.LoginRateLimit,
		TrustProxyHeaders: cfg.Server.TrustProxyHeaders,
		Version:           versionString(a.version, a.commit),
	}, server.Deps{
		Backend:  backend,
		Content:  content.NewRepository(backend),
		Sessions: sessions,
		Metrics:  m,
		Logger:   logger,
	})

	logger.Info("starting englishhub",
		"version", a.version,
		"addr", srv.Addr(),
		"backend", backend.Name(),
	)
	return srv.ListenAndServe(ctx)
}
