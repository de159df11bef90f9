package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	mcpserver "github.com/mark3labs/mcp-go/server"
)

// sseShutdownTimeout bounds the graceful shutdown of the SSE server.
const sseShutdownTimeout = 30 * time.Second

// runSSEServer runs the server on the SSE transport until ctx is cancelled.
func runSSEServer(ctx context.Context, mcpSrv *mcpserver.MCPServer, cfg ServeConfig, logger *slog.Logger) error {
	sseServer := mcpserver.NewSSEServer(mcpSrv,
		mcpserver.WithSSEEndpoint(cfg.SSEEndpoint),
		mcpserver.WithMessageEndpoint(cfg.MessageEndpoint),
	)

	logger.Info("SSE server starting",
		"addr", cfg.HTTPAddr,
		"sse_endpoint", cfg.SSEEndpoint,
		"message_endpoint", cfg.MessageEndpoint,
	)

	serverDone := make(chan error, 1)
	go func() {
		defer close(serverDone)
		if err := sseServer.Start(cfg.HTTPAddr); err != nil {
			serverDone <- err
		}
	}()

	select {
	case <-ctx.Done():
		logger.Info("shutdown signal received, stopping SSE server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), sseShutdownTimeout)
		defer cancel()
		if err := sseServer.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("error shutting down SSE server: %w", err)
		}
	case err := <-serverDone:
		if err != nil {
			return fmt.Errorf("SSE server stopped with error: %w", err)
		}
	}

	logger.Info("SSE server stopped")
	return nil
}
