// Package mcp exposes the content catalog to MCP clients as read-only tools
// and resources.
package mcp

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/englishhub/englishhub/internal/content"
)

// CatalogServer wraps the mcp-go server with the englishhub catalog tools.
// Nothing it registers can modify the catalog.
type CatalogServer struct {
	repo   *content.Repository
	logger *slog.Logger
	server *server.MCPServer
}

// NewCatalogServer creates a CatalogServer with every tool and resource
// registered.
func NewCatalogServer(repo *content.Repository, version string, logger *slog.Logger) *CatalogServer {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	s := &CatalogServer{repo: repo, logger: logger}

	srv := server.NewMCPServer(
		"EnglishHub Catalog",
		version,
		server.WithResourceCapabilities(true, false),
		server.WithToolCapabilities(false),
	)
	s.registerTools(srv)
	s.registerResources(srv)

	s.server = srv
	return s
}

// Server returns the underlying mcp-go server.
func (s *CatalogServer) Server() *server.MCPServer {
	return s.server
}

// ServeStdio serves MCP over stdin/stdout until the client disconnects.
func (s *CatalogServer) ServeStdio() error {
	s.logger.Info("starting MCP server in stdio mode")
	return server.ServeStdio(s.server)
}

// ServeHTTP serves MCP over streamable HTTP on addr until ctx is done.
func (s *CatalogServer) ServeHTTP(ctx context.Context, addr string) error {
	httpServer := server.NewStreamableHTTPServer(s.server)

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("MCP HTTP server starting", "addr", addr)
		errCh <- httpServer.Start(addr)
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func readOnlyAnnotation() mcp.ToolAnnotation {
	return mcp.ToolAnnotation{
		ReadOnlyHint:   boolPtr(true),
		IdempotentHint: boolPtr(true),
	}
}

func boolPtr(b bool) *bool {
	return &b
}
