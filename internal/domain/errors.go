package domain

import (
	"errors"
	"fmt"
)

// ErrorKind classifies failures of a tool call.
type ErrorKind string

// Error kinds raised by the validator and the webhook invoker.
const (
	KindUnknownTool          ErrorKind = "unknown_tool"
	KindMissingRequiredField ErrorKind = "missing_required_field"
	KindTypeMismatch         ErrorKind = "type_mismatch"
	KindConfiguration        ErrorKind = "configuration_error"
	KindUpstream             ErrorKind = "upstream_error"
	KindUpstreamDecode       ErrorKind = "upstream_decode_error"
	KindNetwork              ErrorKind = "network_error"
	KindInternal             ErrorKind = "internal_error"
)

// Error is a classified tool call failure.
type Error struct {
	Kind    ErrorKind
	Message string
	Err     error
}

// Error returns the error message.
func (e *Error) Error() string {
	return e.Message
}

// Unwrap returns the underlying cause, if any.
func (e *Error) Unwrap() error {
	return e.Err
}

// KindOf returns the kind of a classified error, or "" when err is not one.
func KindOf(err error) ErrorKind {
	var de *Error
	if errors.As(err, &de) {
		return de.Kind
	}
	var ve *ValidationError
	if errors.As(err, &ve) {
		return ve.Kind
	}
	var ue *UpstreamError
	if errors.As(err, &ue) {
		return KindUpstream
	}
	return ""
}

// NewUnknownToolError creates an error for a tool name that is not registered.
func NewUnknownToolError(name string) *ValidationError {
	return &ValidationError{
		Kind: KindUnknownTool,
		Tool: name,
	}
}

// ValidationError indicates that an invocation was rejected before dispatch.
type ValidationError struct {
	Kind     ErrorKind
	Tool     string
	Field    string
	Expected FieldType
	Given    string
}

// Error returns the error message.
func (e *ValidationError) Error() string {
	switch e.Kind {
	case KindUnknownTool:
		return fmt.Sprintf("Unknown tool: %s", e.Tool)
	case KindMissingRequiredField:
		return fmt.Sprintf("Missing required field %q for tool %s", e.Field, e.Tool)
	case KindTypeMismatch:
		return fmt.Sprintf("Invalid type for field %q of tool %s: expected %s, got %s", e.Field, e.Tool, e.Expected, e.Given)
	default:
		return fmt.Sprintf("Invalid arguments for tool %s", e.Tool)
	}
}

// NewMissingFieldError creates an error for an absent required field.
func NewMissingFieldError(tool, field string) *ValidationError {
	return &ValidationError{
		Kind:  KindMissingRequiredField,
		Tool:  tool,
		Field: field,
	}
}

// NewTypeMismatchError creates an error for a field of the wrong JSON type.
func NewTypeMismatchError(tool, field string, expected FieldType, given string) *ValidationError {
	return &ValidationError{
		Kind:     KindTypeMismatch,
		Tool:     tool,
		Field:    field,
		Expected: expected,
		Given:    given,
	}
}

// NewConfigurationError creates an error for a missing or invalid setting.
func NewConfigurationError(message string) *Error {
	return &Error{
		Kind:    KindConfiguration,
		Message: fmt.Sprintf("Error: %s", message),
	}
}

// UpstreamError indicates the webhook answered with a non-success status.
type UpstreamError struct {
	Status int
	Body   string
}

// Error returns the error message.
func (e *UpstreamError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("webhook failed (%d)", e.Status)
	}
	return fmt.Sprintf("webhook failed (%d): %s", e.Status, e.Body)
}

// NewUpstreamDecodeError creates an error for a success response that is not valid JSON.
func NewUpstreamDecodeError(tool string, err error) *Error {
	return &Error{
		Kind:    KindUpstreamDecode,
		Message: fmt.Sprintf("Error calling %s: webhook returned an invalid JSON body: %v", tool, err),
		Err:     err,
	}
}

// NewNetworkError creates an error for a failure to reach the webhook.
func NewNetworkError(tool string, err error) *Error {
	return &Error{
		Kind:    KindNetwork,
		Message: fmt.Sprintf("Error calling %s: %v", tool, err),
		Err:     err,
	}
}

// NewInternalError creates an error for a failure inside the adapter, before
// any request was sent.
func NewInternalError(tool string, err error) *Error {
	return &Error{
		Kind:    KindInternal,
		Message: fmt.Sprintf("Error calling %s: %v", tool, err),
		Err:     err,
	}
}

// ResultFromError converts any tool call failure into an error-flagged result.
func ResultFromError(err error) ToolInvocationResult {
	result := NewErrorResult(err.Error())
	result.Kind = KindOf(err)
	return result
}
