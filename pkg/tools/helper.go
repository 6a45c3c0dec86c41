// Package tools provides utility functions for declaring webhook-backed tools.
package tools

import (
	"github.com/FreePeak/reservation-mcp/internal/domain"
)

// ToolOption is a function that configures a tool.
type ToolOption func(*domain.ToolDefinition)

// NewTool creates a new tool definition with the given name and options.
func NewTool(name string, options ...ToolOption) domain.ToolDefinition {
	tool := domain.ToolDefinition{
		Name:        name,
		InputSchema: []domain.SchemaField{},
	}

	for _, option := range options {
		option(&tool)
	}

	return tool
}

// WithDescription sets the description of a tool.
func WithDescription(description string) ToolOption {
	return func(t *domain.ToolDefinition) {
		t.Description = description
	}
}

// WithTargetPath sets the webhook path the tool is forwarded to.
func WithTargetPath(path string) ToolOption {
	return func(t *domain.ToolDefinition) {
		t.TargetPath = path
	}
}

// ParameterOption is a function that configures a parameter.
type ParameterOption func(*domain.SchemaField)

// Description sets the description of a parameter.
func Description(description string) ParameterOption {
	return func(p *domain.SchemaField) {
		p.Description = description
	}
}

// Required marks a parameter as required.
func Required() ParameterOption {
	return func(p *domain.SchemaField) {
		p.Required = true
	}
}

// WithString adds a string parameter to a tool.
func WithString(name string, options ...ParameterOption) ToolOption {
	return withField(name, domain.FieldTypeString, options)
}

// WithNumber adds a number parameter to a tool.
func WithNumber(name string, options ...ParameterOption) ToolOption {
	return withField(name, domain.FieldTypeNumber, options)
}

// WithBoolean adds a boolean parameter to a tool.
func WithBoolean(name string, options ...ParameterOption) ToolOption {
	return withField(name, domain.FieldTypeBoolean, options)
}

func withField(name string, fieldType domain.FieldType, options []ParameterOption) ToolOption {
	return func(t *domain.ToolDefinition) {
		param := domain.SchemaField{
			Name: name,
			Type: fieldType,
		}

		for _, option := range options {
			option(&param)
		}

		t.InputSchema = append(t.InputSchema, param)
	}
}
