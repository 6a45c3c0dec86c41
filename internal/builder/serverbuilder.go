package builder

import (
	"net/http"

	"github.com/pkg/errors"

	"github.com/FreePeak/reservation-mcp/internal/config"
	"github.com/FreePeak/reservation-mcp/internal/domain"
	"github.com/FreePeak/reservation-mcp/internal/infrastructure/logging"
	"github.com/FreePeak/reservation-mcp/internal/infrastructure/metrics"
	"github.com/FreePeak/reservation-mcp/internal/infrastructure/registry"
	"github.com/FreePeak/reservation-mcp/internal/infrastructure/server"
	"github.com/FreePeak/reservation-mcp/internal/infrastructure/validation"
	"github.com/FreePeak/reservation-mcp/internal/infrastructure/webhook"
	"github.com/FreePeak/reservation-mcp/internal/interfaces/rest"
	"github.com/FreePeak/reservation-mcp/internal/interfaces/stdio"
	"github.com/FreePeak/reservation-mcp/internal/usecases"
)

// ServerBuilder implements the Builder pattern for creating MCP servers
type ServerBuilder struct {
	config       *config.Config
	instructions string
	logger       *logging.Logger
	metrics      *metrics.Metrics
	toolRepo     domain.ToolRegistry
	httpClient   *http.Client

	server *server.Server
}

// NewServerBuilder creates a new server builder for the given configuration
func NewServerBuilder(cfg *config.Config) *ServerBuilder {
	return &ServerBuilder{
		config:       cfg,
		instructions: "Check table availability and create bookings for the restaurant.",
	}
}

// WithInstructions sets the server instructions
func (b *ServerBuilder) WithInstructions(instructions string) *ServerBuilder {
	b.instructions = instructions
	return b
}

// WithLogger sets the logger shared by every component
func (b *ServerBuilder) WithLogger(logger *logging.Logger) *ServerBuilder {
	b.logger = logger
	return b
}

// WithMetrics sets the metrics collectors
func (b *ServerBuilder) WithMetrics(m *metrics.Metrics) *ServerBuilder {
	b.metrics = m
	return b
}

// WithToolRepository overrides the tool registry
func (b *ServerBuilder) WithToolRepository(repo domain.ToolRegistry) *ServerBuilder {
	b.toolRepo = repo
	return b
}

// WithHTTPClient sets the client used for webhook calls
func (b *ServerBuilder) WithHTTPClient(client *http.Client) *ServerBuilder {
	b.httpClient = client
	return b
}

// Logger returns the configured logger, or the default one.
func (b *ServerBuilder) Logger() *logging.Logger {
	if b.logger == nil {
		b.logger = logging.Default()
	}
	return b.logger
}

// Metrics returns the metrics collectors, creating them on first use.
func (b *ServerBuilder) Metrics() *metrics.Metrics {
	if b.metrics == nil {
		b.metrics = metrics.New()
	}
	return b.metrics
}

// BuildToolRepository returns the registry: the override if one was set,
// the configured tools file if any, the built-in tools otherwise.
func (b *ServerBuilder) BuildToolRepository() (domain.ToolRegistry, error) {
	if b.toolRepo != nil {
		return b.toolRepo, nil
	}
	if b.config.ToolsFile == "" {
		b.toolRepo = registry.Default()
		return b.toolRepo, nil
	}

	repo, err := registry.LoadFile(b.config.ToolsFile)
	if err != nil {
		return nil, err
	}
	b.Logger().Info("Loaded tools file", logging.Fields{"path": b.config.ToolsFile, "tools": repo.Len()})
	b.toolRepo = repo
	return b.toolRepo, nil
}

// BuildService builds and returns the server service
func (b *ServerBuilder) BuildService() (*usecases.ServerService, error) {
	toolRepo, err := b.BuildToolRepository()
	if err != nil {
		return nil, err
	}

	validator, err := validation.NewSchemaValidator(toolRepo)
	if err != nil {
		return nil, errors.Wrap(err, "failed to compile tool schemas")
	}

	if b.config.BaseURL == "" {
		b.Logger().Warn("N8N_BASE_URL is not set, tool calls will fail until it is configured")
	}

	invoker := webhook.New(webhook.Config{
		BaseURL:        b.config.BaseURL,
		Secret:         b.config.Secret,
		Timeout:        b.config.WebhookTimeout,
		MaxRetries:     b.config.MaxRetries,
		RetryBaseDelay: b.config.RetryDelay,
		HTTPClient:     b.httpClient,
		Logger:         b.Logger(),
		Metrics:        b.Metrics(),
	})

	return usecases.NewServerService(usecases.ServerConfig{
		Name:         b.config.Name,
		Version:      b.config.Version,
		Instructions: b.instructions,
		ToolRepo:     toolRepo,
		Validator:    validator,
		Invoker:      invoker,
		Logger:       b.Logger(),
		Metrics:      b.Metrics(),
	}), nil
}

// BuildServer builds the transport independent session manager. Repeated
// calls return the same server.
func (b *ServerBuilder) BuildServer() (*server.Server, error) {
	if b.server != nil {
		return b.server, nil
	}

	service, err := b.BuildService()
	if err != nil {
		return nil, err
	}

	b.server = server.NewServer(service,
		server.WithLogger(b.Logger()),
		server.WithMetrics(b.Metrics()),
	)
	return b.server, nil
}

// BuildMCPServer builds the HTTP server for the configured transport. The
// sse transport serves only the SSE binding; http serves the stateless
// binding and the SSE binding.
func (b *ServerBuilder) BuildMCPServer() (*rest.MCPServer, error) {
	srv, err := b.BuildServer()
	if err != nil {
		return nil, err
	}

	sse := server.NewSSEServer(srv,
		server.WithBaseURL(b.config.PublicURL),
		server.WithEventBuffer(b.config.EventBuffer),
		server.WithSSEEndpoint(b.config.SSEPath),
		server.WithMessageEndpoint(b.config.MessagePath),
	)

	opts := []rest.Option{
		rest.WithSSE(sse),
		rest.WithMetricsHandler(b.Metrics().Handler()),
		rest.WithLogger(b.Logger()),
	}
	switch b.config.Transport {
	case config.TransportHTTP:
		opts = append(opts, rest.WithStateless(server.NewStatelessHandler(srv)))
	case config.TransportSSE:
	default:
		return nil, errors.Errorf("transport %q is not served over HTTP", b.config.Transport)
	}

	return rest.NewMCPServer(b.config.Name, b.config.Version, b.config.Address(), opts...), nil
}

// BuildStdioServer builds a stdio server that uses the MCP server
func (b *ServerBuilder) BuildStdioServer(opts ...stdio.StdioOption) (*stdio.StdioServer, error) {
	srv, err := b.BuildServer()
	if err != nil {
		return nil, err
	}
	return stdio.NewStdioServer(srv, append([]stdio.StdioOption{stdio.WithLogger(b.Logger())}, opts...)...), nil
}

// ServeStdio builds and starts serving a stdio server
func (b *ServerBuilder) ServeStdio(opts ...stdio.StdioOption) error {
	srv, err := b.BuildServer()
	if err != nil {
		return err
	}
	return stdio.ServeStdio(srv, append([]stdio.StdioOption{stdio.WithLogger(b.Logger())}, opts...)...)
}
