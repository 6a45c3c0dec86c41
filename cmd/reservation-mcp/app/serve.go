package app

import (
	"context"
	"os/signal"
	"syscall"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/FreePeak/reservation-mcp/internal/builder"
	"github.com/FreePeak/reservation-mcp/internal/config"
	"github.com/FreePeak/reservation-mcp/internal/infrastructure/logging"
)

func newServeCmd(v *viper.Viper) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the MCP server",
		Long: `Start the MCP server on the selected transport.

  stdio  newline delimited JSON-RPC on stdin and stdout
  sse    GET /sse event stream with POST /message?sessionId=
         (paths set with --sse-path and --message-path)
  http   stateless POST /mcp, plus the SSE endpoints

The HTTP transports also serve /health, / and /metrics.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig(v, cmd)
			if err != nil {
				return err
			}
			logger, err := newLogger(cfg)
			if err != nil {
				return err
			}
			defer func() { _ = logger.Sync() }()

			return runServe(cmd.Context(), cfg, logger)
		},
	}

	flags := cmd.Flags()
	flags.String("transport", config.TransportStdio, "Transport to serve (stdio, sse, http)")
	flags.String("host", "0.0.0.0", "Host the HTTP transports listen on")
	flags.Int("port", 3000, "Port the HTTP transports listen on (env PORT)")
	flags.String("base-url", "", "n8n base URL (env N8N_BASE_URL)")
	flags.String("public-url", "", "Public base URL advertised in the SSE endpoint event")
	flags.Duration("webhook-timeout", 0, "Timeout of one webhook call, 0 disables it (default 30s)")
	flags.Int("max-retries", 0, "Retries for network errors and 5xx responses")
	flags.Duration("retry-delay", 0, "Initial delay between retries (default 500ms)")
	flags.Duration("shutdown-timeout", 0, "Grace period for HTTP shutdown (default 10s)")
	flags.Int("event-buffer", 0, "Queue size of each SSE session (default 100)")
	flags.String("sse-path", "", "Path of the SSE event stream (default /sse)")
	flags.String("message-path", "", "Path SSE clients POST messages to (default /message)")

	return cmd
}

func runServe(ctx context.Context, cfg *config.Config, logger *logging.Logger) error {
	b := builder.NewServerBuilder(cfg).WithLogger(logger)

	logger.Info("Starting reservation MCP server", logging.Fields{
		"transport":   cfg.Transport,
		"webhook_url": cfg.BaseURL,
		"secret_set":  cfg.Secret != "",
	})

	if cfg.Transport == config.TransportStdio {
		return b.ServeStdio()
	}

	mcp, err := b.BuildMCPServer()
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		errCh <- mcp.Start()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	logger.Info("Shutting down server...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := mcp.Stop(shutdownCtx); err != nil {
		return errors.Wrap(err, "server forced to shutdown")
	}
	if err := <-errCh; err != nil {
		return err
	}

	logger.Info("Server shutdown complete")
	return nil
}
