// Package registry holds the static catalogue of webhook-backed tools.
package registry

import (
	"fmt"
	"os"
	"strings"

	"go.uber.org/multierr"
	"gopkg.in/yaml.v3"

	"github.com/FreePeak/reservation-mcp/internal/domain"
)

// StaticRegistry is an ordered, immutable ToolRegistry. It is safe for
// concurrent reads without synchronisation.
type StaticRegistry struct {
	tools []domain.ToolDefinition
	index map[string]int
}

// New builds a registry from the given definitions, preserving their order.
// Every invalid definition is reported in the returned error.
func New(tools ...domain.ToolDefinition) (*StaticRegistry, error) {
	r := &StaticRegistry{
		tools: make([]domain.ToolDefinition, 0, len(tools)),
		index: make(map[string]int, len(tools)),
	}

	var errs error
	for i, tool := range tools {
		if err := validateDefinition(tool); err != nil {
			errs = multierr.Append(errs, fmt.Errorf("tool #%d (%s): %w", i, tool.Name, err))
			continue
		}
		if _, exists := r.index[tool.Name]; exists {
			errs = multierr.Append(errs, fmt.Errorf("tool #%d: duplicate tool name %q", i, tool.Name))
			continue
		}
		r.index[tool.Name] = len(r.tools)
		r.tools = append(r.tools, tool.Clone())
	}

	if errs != nil {
		return nil, errs
	}
	return r, nil
}

// ListTools returns all tools in declaration order. The slice is a copy.
func (r *StaticRegistry) ListTools() []domain.ToolDefinition {
	out := make([]domain.ToolDefinition, len(r.tools))
	for i, tool := range r.tools {
		out[i] = tool.Clone()
	}
	return out
}

// GetTool retrieves a tool by its name.
func (r *StaticRegistry) GetTool(name string) (domain.ToolDefinition, bool) {
	i, ok := r.index[name]
	if !ok {
		return domain.ToolDefinition{}, false
	}
	return r.tools[i].Clone(), true
}

// Len returns the number of registered tools.
func (r *StaticRegistry) Len() int {
	return len(r.tools)
}

type fileFormat struct {
	Tools []domain.ToolDefinition `yaml:"tools"`
}

// Parse builds a registry from a YAML document of the form
//
//	tools:
//	  - name: check_availability
//	    targetPath: /webhook/...
//	    inputSchema:
//	      - {name: date, type: string, required: true}
func Parse(data []byte) (*StaticRegistry, error) {
	var doc fileFormat
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("failed to parse tools file: %w", err)
	}
	if len(doc.Tools) == 0 {
		return nil, fmt.Errorf("tools file declares no tools")
	}
	return New(doc.Tools...)
}

// LoadFile reads a YAML tools file from disk.
func LoadFile(path string) (*StaticRegistry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read tools file: %w", err)
	}
	return Parse(data)
}

func validateDefinition(tool domain.ToolDefinition) error {
	var errs error
	if strings.TrimSpace(tool.Name) == "" {
		errs = multierr.Append(errs, fmt.Errorf("name is required"))
	}
	if !strings.HasPrefix(tool.TargetPath, "/") {
		errs = multierr.Append(errs, fmt.Errorf("target path %q must start with /", tool.TargetPath))
	}

	seen := make(map[string]struct{}, len(tool.InputSchema))
	for _, field := range tool.InputSchema {
		if field.Name == "" {
			errs = multierr.Append(errs, fmt.Errorf("field name is required"))
			continue
		}
		if _, dup := seen[field.Name]; dup {
			errs = multierr.Append(errs, fmt.Errorf("duplicate field %q", field.Name))
		}
		seen[field.Name] = struct{}{}
		if !field.Type.Valid() {
			errs = multierr.Append(errs, fmt.Errorf("field %q has unsupported type %q", field.Name, field.Type))
		}
	}
	return errs
}
