// Package rest provides the HTTP interface for the MCP server.
package rest

import (
	"context"
	"encoding/json"
	"net"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/pkg/errors"

	"github.com/FreePeak/reservation-mcp/internal/infrastructure/logging"
	"github.com/FreePeak/reservation-mcp/internal/infrastructure/server"
)

const (
	// mcpPath is the stateless Streamable HTTP endpoint.
	mcpPath = "/mcp"
	// healthPath answers liveness probes.
	healthPath = "/health"
	// metricsPath exposes Prometheus metrics.
	metricsPath = "/metrics"

	readHeaderTimeout = 10 * time.Second
	idleTimeout       = 60 * time.Second
)

// MCPServer serves the MCP HTTP bindings and the auxiliary endpoints.
type MCPServer struct {
	name       string
	version    string
	router     chi.Router
	httpServer *http.Server
	stateless  http.Handler
	sseServer  *server.SSEServer
	metrics    http.Handler
	logger     *logging.Logger
	now        func() time.Time
}

// Option configures an MCPServer.
type Option func(*MCPServer)

// WithStateless mounts the stateless binding on /mcp.
func WithStateless(handler http.Handler) Option {
	return func(s *MCPServer) {
		s.stateless = handler
	}
}

// WithSSE mounts the SSE binding on its stream and message paths.
func WithSSE(sse *server.SSEServer) Option {
	return func(s *MCPServer) {
		s.sseServer = sse
	}
}

// WithMetricsHandler mounts a Prometheus handler on /metrics.
func WithMetricsHandler(handler http.Handler) Option {
	return func(s *MCPServer) {
		s.metrics = handler
	}
}

// WithLogger sets the logger used for request logs.
func WithLogger(logger *logging.Logger) Option {
	return func(s *MCPServer) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// NewMCPServer creates a new HTTP server listening on addr.
func NewMCPServer(name, version, addr string, opts ...Option) *MCPServer {
	s := &MCPServer{
		name:    name,
		version: version,
		logger:  logging.Default(),
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.logger = s.logger.Named("http")

	s.router = s.routes()
	s.httpServer = &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadHeaderTimeout: readHeaderTimeout,
		IdleTimeout:       idleTimeout,
	}
	return s
}

func (s *MCPServer) routes() chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(requestLogger(s.logger))
	r.Use(middleware.Recoverer)
	r.Use(corsMiddleware)

	r.Get("/", s.handleRoot)
	r.Get(healthPath, s.handleHealth)

	if s.stateless != nil {
		r.Handle(mcpPath, s.stateless)
	}
	if s.sseServer != nil {
		r.Handle(s.sseServer.CompleteSsePath(), s.sseServer)
		r.Handle(s.sseServer.CompleteMessagePath(), s.sseServer)
	}
	if s.metrics != nil {
		r.Handle(metricsPath, s.metrics)
	}

	return r
}

// Handler returns the root HTTP handler.
func (s *MCPServer) Handler() http.Handler {
	return s.router
}

// Addr returns the configured listen address.
func (s *MCPServer) Addr() string {
	return s.httpServer.Addr
}

// Start listens on the configured address and serves until Stop is called.
func (s *MCPServer) Start() error {
	ln, err := net.Listen("tcp", s.httpServer.Addr)
	if err != nil {
		return errors.Wrapf(err, "failed to listen on %s", s.httpServer.Addr)
	}
	return s.Serve(ln)
}

// Serve accepts connections on ln. It returns nil after a graceful Stop.
func (s *MCPServer) Serve(ln net.Listener) error {
	s.logger.Info("Starting MCP HTTP server", logging.Fields{
		"addr":      ln.Addr().String(),
		"endpoints": s.endpoints(),
	})
	if err := s.httpServer.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return errors.Wrap(err, "http server failed")
	}
	return nil
}

// Stop closes open SSE streams and shuts the HTTP server down gracefully.
func (s *MCPServer) Stop(ctx context.Context) error {
	if s.sseServer != nil {
		if err := s.sseServer.Shutdown(ctx); err != nil {
			s.logger.Warn("Failed to close SSE sessions", logging.Fields{"error": err})
		}
	}
	return s.httpServer.Shutdown(ctx)
}

func (s *MCPServer) endpoints() map[string]string {
	endpoints := map[string]string{"health": healthPath}
	if s.stateless != nil {
		endpoints["mcp"] = mcpPath
	}
	if s.sseServer != nil {
		endpoints["sse"] = s.sseServer.CompleteSsePath()
		endpoints["message"] = s.sseServer.CompleteMessagePath()
	}
	if s.metrics != nil {
		endpoints["metrics"] = metricsPath
	}
	return endpoints
}

func (s *MCPServer) handleRoot(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"name":      s.name,
		"version":   s.version,
		"endpoints": s.endpoints(),
	})
}

func (s *MCPServer) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"status":    "ok",
		"timestamp": s.now().UTC().Format(time.RFC3339Nano),
	})
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
