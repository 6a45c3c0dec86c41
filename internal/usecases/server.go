// Package usecases implements the application business logic for the MCP server.
package usecases

import (
	"context"
	"time"

	"github.com/FreePeak/reservation-mcp/internal/domain"
	"github.com/FreePeak/reservation-mcp/internal/infrastructure/logging"
	"github.com/FreePeak/reservation-mcp/internal/infrastructure/metrics"
)

// ServerService handles business logic for the MCP server.
type ServerService struct {
	name         string
	version      string
	instructions string
	toolRepo     domain.ToolRegistry
	validator    domain.Validator
	invoker      domain.Invoker
	logger       *logging.Logger
	metrics      *metrics.Metrics
}

// ServerConfig contains configuration for the ServerService.
type ServerConfig struct {
	Name         string
	Version      string
	Instructions string
	ToolRepo     domain.ToolRegistry
	Validator    domain.Validator
	Invoker      domain.Invoker
	Logger       *logging.Logger
	Metrics      *metrics.Metrics
}

// NewServerService creates a new ServerService with the given collaborators and configuration.
func NewServerService(config ServerConfig) *ServerService {
	logger := config.Logger
	if logger == nil {
		logger = logging.Default()
	}
	return &ServerService{
		name:         config.Name,
		version:      config.Version,
		instructions: config.Instructions,
		toolRepo:     config.ToolRepo,
		validator:    config.Validator,
		invoker:      config.Invoker,
		logger:       logger,
		metrics:      config.Metrics,
	}
}

// ServerInfo returns information about the server.
func (s *ServerService) ServerInfo() (string, string, string) {
	return s.name, s.version, s.instructions
}

// ListTools returns all available tools in declaration order.
func (s *ServerService) ListTools(_ context.Context) []domain.ToolDefinition {
	return s.toolRepo.ListTools()
}

// GetTool returns a tool by its name.
func (s *ServerService) GetTool(_ context.Context, name string) (domain.ToolDefinition, bool) {
	return s.toolRepo.GetTool(name)
}

// CallTool validates the request and forwards it to the webhook. Every
// failure is returned as an error result; the invoker is never reached when
// validation fails.
func (s *ServerService) CallTool(ctx context.Context, req domain.ToolInvocationRequest) domain.ToolInvocationResult {
	start := time.Now()
	fields := logging.Fields{"tool": req.ToolName}
	if req.Session != nil {
		fields["session_id"] = req.Session.ID
		fields["transport"] = string(req.Session.Transport)
	}
	logger := s.logger.With(fields)

	result := s.callTool(ctx, req)

	label := req.ToolName
	if result.Kind == domain.KindUnknownTool {
		label = metrics.UnknownToolLabel
	}
	s.metrics.ObserveToolCall(label, result.IsError, string(result.Kind))
	if result.IsError {
		logger.Warn("Tool call failed", logging.Fields{
			"kind":     string(result.Kind),
			"message":  result.Message,
			"duration": time.Since(start),
		})
	} else {
		logger.Info("Tool call succeeded", logging.Fields{"duration": time.Since(start)})
	}
	return result
}

func (s *ServerService) callTool(ctx context.Context, req domain.ToolInvocationRequest) domain.ToolInvocationResult {
	tool, ok := s.toolRepo.GetTool(req.ToolName)
	if !ok {
		return domain.ResultFromError(domain.NewUnknownToolError(req.ToolName))
	}

	args, err := s.validator.Validate(req.ToolName, req.Arguments)
	if err != nil {
		return domain.ResultFromError(err)
	}

	return s.invoker.Invoke(ctx, tool, args)
}
