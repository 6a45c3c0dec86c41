package domain

import "context"

// ToolRegistry is the read-only catalogue of tools.
type ToolRegistry interface {
	// ListTools returns all tools in their declaration order.
	ListTools() []ToolDefinition

	// GetTool retrieves a tool by its name.
	GetTool(name string) (ToolDefinition, bool)
}

// Validator checks invocation arguments against a tool's schema.
type Validator interface {
	// Validate returns the arguments unchanged or a *ValidationError.
	Validate(toolName string, arguments map[string]interface{}) (map[string]interface{}, error)
}

// Invoker forwards a validated call to the webhook backing the tool.
type Invoker interface {
	// Invoke performs the call. Failures are reported as error results.
	Invoke(ctx context.Context, tool ToolDefinition, arguments map[string]interface{}) ToolInvocationResult
}
