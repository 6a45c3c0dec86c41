package server

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"strings"
	"sync"

	"github.com/pkg/errors"

	"github.com/FreePeak/reservation-mcp/internal/domain"
	"github.com/FreePeak/reservation-mcp/internal/domain/shared"
	"github.com/FreePeak/reservation-mcp/internal/domain/transport"
	"github.com/FreePeak/reservation-mcp/internal/infrastructure/logging"
	"github.com/FreePeak/reservation-mcp/internal/infrastructure/metrics"
	"github.com/FreePeak/reservation-mcp/internal/infrastructure/server/client"
)

// ToolService is the application logic the server dispatches tool methods to.
type ToolService interface {
	ServerInfo() (name, version, instructions string)
	ListTools(ctx context.Context) []domain.ToolDefinition
	CallTool(ctx context.Context, req domain.ToolInvocationRequest) domain.ToolInvocationResult
}

// Server represents an MCP server. One Server drives any number of sessions
// over any mix of transport bindings.
type Server struct {
	info         shared.ServerInfo
	capabilities shared.Capabilities
	service      ToolService
	logger       *logging.Logger
	metrics      *metrics.Metrics
}

// Option configures a Server.
type Option func(*Server)

// WithLogger sets the logger of the server.
func WithLogger(logger *logging.Logger) Option {
	return func(s *Server) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithMetrics sets the metrics collectors of the server.
func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Server) {
		s.metrics = m
	}
}

// NewServer creates a new MCP server backed by the given tool service.
func NewServer(service ToolService, opts ...Option) *Server {
	name, version, _ := service.ServerInfo()
	s := &Server{
		info: shared.ServerInfo{
			Name:    name,
			Version: version,
		},
		capabilities: shared.Capabilities{
			Tools: &shared.ToolsCapability{},
		},
		service: service,
		logger:  logging.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Serve runs one session over the binding until the peer finishes or
// disconnects. Each message is handled on its own goroutine, started in
// arrival order; responses are sent as they complete.
//
// On io.EOF in-flight calls are awaited before the session closes. On any
// other receive error, or when ctx is done, the session closes at once;
// in-flight webhook calls keep running but their results are dropped.
func (s *Server) Serve(ctx context.Context, binding transport.Binding) error {
	session := domain.NewSession(binding.Kind())
	session.Connect()

	kind := string(binding.Kind())
	logger := s.logger.With(logging.Fields{"session_id": session.ID, "transport": kind})
	logger.Debug("Session opened")
	s.metrics.SessionOpened(kind)

	closeSession := func() {
		if session.Close() {
			s.metrics.SessionClosed(kind)
			if err := binding.Close(); err != nil {
				logger.Debug("Error closing binding", logging.Fields{"error": err})
			}
			logger.Debug("Session closed")
		}
	}
	defer closeSession()

	// Calls must outlive a dropped connection, so they never see its cancellation.
	callCtx := context.WithoutCancel(ctx)

	var inFlight sync.WaitGroup
	for {
		raw, err := binding.Receive(ctx)
		if err != nil {
			if errors.Is(err, io.EOF) {
				inFlight.Wait()
				return nil
			}
			closeSession()
			if ctx.Err() != nil || errors.Is(err, ErrDisconnected) || errors.Is(err, ErrSessionClosed) {
				return nil
			}
			return errors.Wrap(err, "error receiving message")
		}

		inFlight.Add(1)
		go func(raw json.RawMessage) {
			defer inFlight.Done()

			response := s.HandleMessage(callCtx, session, raw)
			if response == nil || session.Closed() {
				return
			}
			if err := binding.Send(ctx, response); err != nil {
				logger.Warn("Error sending response", logging.Fields{"error": err})
			}
		}(raw)
	}
}

// HandleMessage processes one raw JSON-RPC message and returns the response
// to send, or nil when none is due.
func (s *Server) HandleMessage(ctx context.Context, session *domain.Session, raw json.RawMessage) *shared.JSONRPCResponse {
	if !json.Valid(raw) {
		return shared.NewErrorResponse(shared.NullID, shared.ParseError, "")
	}

	var req shared.JSONRPCRequest
	if err := json.Unmarshal(raw, &req); err != nil {
		return shared.NewErrorResponse(shared.NullID, shared.InvalidRequest, "")
	}
	if req.JSONRPC != shared.JSONRPCVersion || req.Method == "" {
		return shared.NewErrorResponse(req.ID, shared.InvalidRequest, "")
	}

	if req.IsNotification() {
		s.handleNotification(session, req)
		return nil
	}

	switch req.Method {
	case shared.MethodInitialize:
		return s.handleInitialize(session, req)
	case shared.MethodPing:
		return s.sendResponse(req, struct{}{})
	case shared.MethodListTools:
		return s.handleListTools(ctx, req)
	case shared.MethodCallTool:
		return s.handleCallTool(ctx, session, req)
	default:
		return s.sendErrorResponse(req, shared.MethodNotFound, "Method not found: "+req.Method)
	}
}

func (s *Server) handleNotification(session *domain.Session, req shared.JSONRPCRequest) {
	fields := logging.Fields{"method": req.Method}
	if session != nil {
		fields["session_id"] = session.ID
	}
	if strings.HasPrefix(req.Method, shared.NotificationPrefix) {
		s.logger.Debug("Notification received", fields)
		return
	}
	s.logger.Debug("Ignoring request without id", fields)
}

// handleInitialize handles the initialize method
func (s *Server) handleInitialize(session *domain.Session, req shared.JSONRPCRequest) *shared.JSONRPCResponse {
	var params shared.InitializeParams
	if err := unmarshalParams(req.Params, &params); err != nil {
		return s.sendErrorResponse(req, shared.InvalidParams, "Invalid params")
	}

	version := params.ProtocolVersion
	if version == "" {
		version = shared.DefaultProtocolVersion
	}

	fields := logging.Fields{
		"client":           params.ClientInfo.Name,
		"client_version":   params.ClientInfo.Version,
		"client_type":      string(client.DetectClientType(params.ClientInfo)),
		"protocol_version": version,
	}
	if session != nil {
		fields["session_id"] = session.ID
	}
	s.logger.Info("Client initialized", fields)

	return s.sendResponse(req, shared.InitializeResult{
		ProtocolVersion: version,
		ServerInfo:      s.info,
		Capabilities:    s.capabilities,
	})
}

// handleListTools handles the tools/list method
func (s *Server) handleListTools(ctx context.Context, req shared.JSONRPCRequest) *shared.JSONRPCResponse {
	definitions := s.service.ListTools(ctx)
	tools := make([]shared.Tool, 0, len(definitions))
	for _, def := range definitions {
		tools = append(tools, ToWireTool(def))
	}
	return s.sendResponse(req, shared.ListToolsResult{Tools: tools})
}

// handleCallTool handles the tools/call method
func (s *Server) handleCallTool(ctx context.Context, session *domain.Session, req shared.JSONRPCRequest) *shared.JSONRPCResponse {
	var params shared.CallToolParams
	if unmarshalParams(req.Params, &params) != nil {
		return s.sendErrorResponse(req, shared.InvalidParams, "Invalid params: name must be a string and arguments an object")
	}
	if params.Name == "" {
		return s.sendErrorResponse(req, shared.InvalidParams, "Invalid params: tool name is required")
	}

	if session != nil {
		if !session.BeginDispatch() {
			return nil
		}
		defer session.EndDispatch()
	}

	result := s.service.CallTool(ctx, domain.ToolInvocationRequest{
		ToolName:  params.Name,
		Arguments: params.Arguments,
		Session:   session,
	})

	return s.sendResponse(req, shared.CallToolResult{
		Content: []shared.TextContent{shared.NewTextContent(result.Message)},
		IsError: result.IsError,
	})
}

// sendResponse builds a JSON-RPC response
func (s *Server) sendResponse(req shared.JSONRPCRequest, result interface{}) *shared.JSONRPCResponse {
	return shared.NewResponse(req.ID, result)
}

// sendErrorResponse builds a JSON-RPC error response
func (s *Server) sendErrorResponse(req shared.JSONRPCRequest, code shared.ErrorCode, message string) *shared.JSONRPCResponse {
	return shared.NewErrorResponse(req.ID, code, message)
}

// ToWireTool renders a tool definition as advertised by tools/list.
func ToWireTool(def domain.ToolDefinition) shared.Tool {
	properties := make(map[string]shared.SchemaProperty, len(def.InputSchema))
	for _, field := range def.InputSchema {
		properties[field.Name] = shared.SchemaProperty{
			Type:        string(field.Type),
			Description: field.Description,
		}
	}
	return shared.Tool{
		Name:        def.Name,
		Description: def.Description,
		InputSchema: shared.InputSchema{
			Type:       "object",
			Properties: properties,
			Required:   def.RequiredFields(),
		},
	}
}

// unmarshalParams unmarshals request parameters. Absent or null params leave
// target untouched.
func unmarshalParams(params json.RawMessage, target interface{}) error {
	trimmed := bytes.TrimSpace(params)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return nil
	}
	return json.Unmarshal(trimmed, target)
}
