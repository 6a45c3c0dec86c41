// Package stdio provides the stdio interface for the MCP server.
package stdio

import (
	"context"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/pkg/errors"

	"github.com/FreePeak/reservation-mcp/internal/infrastructure/logging"
	"github.com/FreePeak/reservation-mcp/internal/infrastructure/server"
)

// StdioContextFunc is a function that takes an existing context and returns
// a potentially modified context.
// This can be used to inject context values from environment variables,
// for example.
type StdioContextFunc func(ctx context.Context) context.Context

// StdioServer runs one MCP session over a pair of byte streams, normally
// the process's stdin and stdout. Logs never go to stdout.
type StdioServer struct {
	server      *server.Server
	logger      *logging.Logger
	contextFunc StdioContextFunc
}

// StdioOption defines a function type for configuring StdioServer
type StdioOption func(*StdioServer)

// WithLogger sets the logger for the server
func WithLogger(logger *logging.Logger) StdioOption {
	return func(s *StdioServer) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithStdioContextFunc sets a function that will be called to customize the
// context of the session. The stdio server runs a single session, so this
// function is called once per Listen.
func WithStdioContextFunc(fn StdioContextFunc) StdioOption {
	return func(s *StdioServer) {
		s.contextFunc = fn
	}
}

// NewStdioServer creates a new stdio server around an MCP server.
func NewStdioServer(srv *server.Server, opts ...StdioOption) *StdioServer {
	s := &StdioServer{
		server: srv,
		logger: logging.Default(),
	}

	for _, opt := range opts {
		opt(s)
	}
	s.logger = s.logger.Named("stdio")

	return s
}

// Listen serves JSON-RPC messages read from stdin and writes responses to
// stdout. It returns when stdin is exhausted and every pending call has been
// answered, or when ctx is cancelled.
func (s *StdioServer) Listen(ctx context.Context, stdin io.Reader, stdout io.Writer) error {
	if s.contextFunc != nil {
		ctx = s.contextFunc(ctx)
	}

	err := s.server.Serve(ctx, server.NewStreamTransport(stdin, stdout))
	if err != nil && !errors.Is(err, context.Canceled) {
		return errors.Wrap(err, "stdio session failed")
	}
	return nil
}

// ServeStdio serves on the process's standard streams until stdin closes or
// the process receives SIGINT or SIGTERM.
func ServeStdio(srv *server.Server, opts ...StdioOption) error {
	s := NewStdioServer(srv, opts...)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
	defer stop()

	s.logger.Info("Starting MCP server in stdio mode")

	if err := s.Listen(ctx, os.Stdin, os.Stdout); err != nil {
		s.logger.Error("Server exited with error", logging.Fields{"error": err})
		return err
	}

	s.logger.Info("Server shutdown complete")
	return nil
}
