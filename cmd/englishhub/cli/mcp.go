package cli

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/englishhub/englishhub/internal/content"
	"github.com/englishhub/englishhub/internal/mcp"
)

func newMCPCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "mcp",
		Short: "Serve the content catalog to AI agents over MCP",
		Long: `Start a Model Context Protocol server that exposes the catalog as
read-only tools and resources. With the stdio transport the server talks over
stdin/stdout, which is what desktop MCP clients expect.`,
		Example: `  englishhub mcp
  englishhub mcp --transport http --port 3001`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runMCP(cmd)
		},
	}

	cmd.Flags().String("transport", "", "MCP transport: stdio or http (default stdio)")
	cmd.Flags().Int("port", 0, "port for the http transport (default 3001)")
	_ = a.v.BindPFlag("mcp.transport", cmd.Flags().Lookup("transport"))
	_ = a.v.BindPFlag("mcp.port", cmd.Flags().Lookup("port"))

	return cmd
}

func (a *app) runMCP(cmd *cobra.Command) error {
	cfg, logger, err := a.setup(cmd)
	if err != nil {
		return err
	}
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	backend, _, err := openInitialized(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer backend.Close()

	srv := mcp.NewCatalogServer(content.NewRepository(backend), versionString(a.version, a.commit), logger)

	switch cfg.MCP.Transport {
	case "http":
		return srv.ServeHTTP(ctx, fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.MCP.Port))
	default:
		return srv.ServeStdio()
	}
}
