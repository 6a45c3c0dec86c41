// Package validation checks tool arguments against the declared input schemas.
package validation

import (
	"fmt"
	"sort"

	"github.com/xeipuuv/gojsonschema"

	"github.com/FreePeak/reservation-mcp/internal/domain"
)

// gojsonschema result error types mapped onto the domain taxonomy.
const (
	resultTypeRequired    = "required"
	resultTypeInvalidType = "invalid_type"
)

type compiledTool struct {
	definition domain.ToolDefinition
	schema     *gojsonschema.Schema
	order      map[string]int
}

// SchemaValidator validates arguments with a JSON Schema compiled once per tool.
// Unknown extra fields are accepted and values are never coerced.
type SchemaValidator struct {
	tools map[string]compiledTool
}

// NewSchemaValidator compiles the schemas of every tool in the registry.
func NewSchemaValidator(registry domain.ToolRegistry) (*SchemaValidator, error) {
	v := &SchemaValidator{tools: make(map[string]compiledTool)}

	for _, tool := range registry.ListTools() {
		schema, err := gojsonschema.NewSchema(gojsonschema.NewGoLoader(SchemaDocument(tool)))
		if err != nil {
			return nil, fmt.Errorf("failed to compile schema for tool %s: %w", tool.Name, err)
		}

		order := make(map[string]int, len(tool.InputSchema))
		for i, field := range tool.InputSchema {
			order[field.Name] = i
		}

		v.tools[tool.Name] = compiledTool{
			definition: tool,
			schema:     schema,
			order:      order,
		}
	}

	return v, nil
}

// SchemaDocument renders a tool's input schema as a JSON Schema object.
func SchemaDocument(tool domain.ToolDefinition) map[string]interface{} {
	properties := make(map[string]interface{}, len(tool.InputSchema))
	for _, field := range tool.InputSchema {
		properties[field.Name] = map[string]interface{}{
			"type": string(field.Type),
		}
	}

	doc := map[string]interface{}{
		"type":       "object",
		"properties": properties,
	}
	if required := tool.RequiredFields(); len(required) > 0 {
		doc["required"] = required
	}
	return doc
}

// Validate returns the arguments unchanged, or a *domain.ValidationError
// describing the first violation in the tool's field order.
func (v *SchemaValidator) Validate(toolName string, arguments map[string]interface{}) (map[string]interface{}, error) {
	tool, ok := v.tools[toolName]
	if !ok {
		return nil, domain.NewUnknownToolError(toolName)
	}

	document := arguments
	if document == nil {
		document = map[string]interface{}{}
	}

	result, err := tool.schema.Validate(gojsonschema.NewGoLoader(document))
	if err != nil {
		return nil, fmt.Errorf("failed to validate arguments for tool %s: %w", toolName, err)
	}
	if result.Valid() {
		return arguments, nil
	}

	violations := make([]*domain.ValidationError, 0, len(result.Errors()))
	for _, re := range result.Errors() {
		if violation := tool.toViolation(re); violation != nil {
			violations = append(violations, violation)
		}
	}
	if len(violations) == 0 {
		return arguments, nil
	}

	sort.SliceStable(violations, func(i, j int) bool {
		return tool.position(violations[i].Field) < tool.position(violations[j].Field)
	})
	return nil, violations[0]
}

func (t compiledTool) toViolation(re gojsonschema.ResultError) *domain.ValidationError {
	switch re.Type() {
	case resultTypeRequired:
		field, _ := re.Details()["property"].(string)
		return domain.NewMissingFieldError(t.definition.Name, field)
	case resultTypeInvalidType:
		field := re.Field()
		declared, _ := t.definition.Field(field)
		given, _ := re.Details()["given"].(string)
		return domain.NewTypeMismatchError(t.definition.Name, field, declared.Type, given)
	default:
		return nil
	}
}

func (t compiledTool) position(field string) int {
	if i, ok := t.order[field]; ok {
		return i
	}
	return len(t.order)
}
