// Package domain defines the core entities of the reservation MCP adapter.
package domain

import (
	"sync"
	"sync/atomic"

	"github.com/google/uuid"
)

// FieldType is the JSON type a tool argument must have.
type FieldType string

// Supported argument types.
const (
	FieldTypeString  FieldType = "string"
	FieldTypeNumber  FieldType = "number"
	FieldTypeBoolean FieldType = "boolean"
)

// Valid reports whether t is one of the supported argument types.
func (t FieldType) Valid() bool {
	switch t {
	case FieldTypeString, FieldTypeNumber, FieldTypeBoolean:
		return true
	default:
		return false
	}
}

// SchemaField declares a single named argument of a tool.
type SchemaField struct {
	Name        string    `json:"name" yaml:"name"`
	Type        FieldType `json:"type" yaml:"type"`
	Required    bool      `json:"required" yaml:"required"`
	Description string    `json:"description" yaml:"description"`
}

// ToolDefinition describes a tool exposed to MCP clients and the webhook
// path that implements it. Definitions are immutable once the registry is built.
type ToolDefinition struct {
	Name        string        `json:"name" yaml:"name"`
	Description string        `json:"description" yaml:"description"`
	InputSchema []SchemaField `json:"inputSchema" yaml:"inputSchema"`
	TargetPath  string        `json:"targetPath" yaml:"targetPath"`
}

// Field returns the schema field with the given name.
func (t ToolDefinition) Field(name string) (SchemaField, bool) {
	for _, f := range t.InputSchema {
		if f.Name == name {
			return f, true
		}
	}
	return SchemaField{}, false
}

// RequiredFields returns the names of the required fields in declaration order.
func (t ToolDefinition) RequiredFields() []string {
	var required []string
	for _, f := range t.InputSchema {
		if f.Required {
			required = append(required, f.Name)
		}
	}
	return required
}

// Clone returns a deep copy of the definition.
func (t ToolDefinition) Clone() ToolDefinition {
	out := t
	if t.InputSchema != nil {
		out.InputSchema = make([]SchemaField, len(t.InputSchema))
		copy(out.InputSchema, t.InputSchema)
	}
	return out
}

// ToolInvocationRequest is a single inbound call of a tool.
type ToolInvocationRequest struct {
	ToolName  string
	Arguments map[string]interface{}
	Session   *Session
}

// ToolInvocationResult is the outcome of a tool call. Payload holds the
// decoded webhook response on success; Message is the text handed to the client.
// Kind classifies failures and is empty on success.
type ToolInvocationResult struct {
	IsError bool
	Kind    ErrorKind
	Payload interface{}
	Message string
}

// NewSuccessResult creates a successful result.
func NewSuccessResult(payload interface{}, text string) ToolInvocationResult {
	return ToolInvocationResult{
		Payload: payload,
		Message: text,
	}
}

// NewErrorResult creates an error-flagged result with a human readable message.
func NewErrorResult(message string) ToolInvocationResult {
	return ToolInvocationResult{
		IsError: true,
		Message: message,
	}
}

// TransportKind identifies the physical transport a session is bound to.
type TransportKind string

// Transport kinds.
const (
	TransportStdio     TransportKind = "stdio"
	TransportSSE       TransportKind = "sse"
	TransportStateless TransportKind = "http"
)

// SessionState is a state of the session state machine.
type SessionState string

// Session states.
const (
	SessionUninitialized SessionState = "uninitialized"
	SessionReady         SessionState = "ready"
	SessionDispatching   SessionState = "dispatching"
	SessionClosed        SessionState = "closed"
)

// Session represents one transport-level conversation with a client.
type Session struct {
	ID        string
	Transport TransportKind

	mu        sync.Mutex
	connected bool
	closed    bool
	inFlight  atomic.Int64
}

// NewSession creates a new uninitialized session with a unique ID.
func NewSession(kind TransportKind) *Session {
	return &Session{
		ID:        uuid.New().String(),
		Transport: kind,
	}
}

// Connect moves the session to the ready state. It reports false if the
// session was already closed.
func (s *Session) Connect() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return false
	}
	s.connected = true
	return true
}

// BeginDispatch marks the start of a tool call. It reports false if the
// session is not ready.
func (s *Session) BeginDispatch() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed || !s.connected {
		return false
	}
	s.inFlight.Add(1)
	return true
}

// EndDispatch marks the end of a tool call started with BeginDispatch.
func (s *Session) EndDispatch() {
	s.inFlight.Add(-1)
}

// Close moves the session to its terminal state. It reports whether this call
// performed the transition.
func (s *Session) Close() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return false
	}
	s.closed = true
	return true
}

// Closed reports whether the session is closed.
func (s *Session) Closed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closed
}

// State returns the current state of the session.
func (s *Session) State() SessionState {
	s.mu.Lock()
	defer s.mu.Unlock()
	switch {
	case s.closed:
		return SessionClosed
	case !s.connected:
		return SessionUninitialized
	case s.inFlight.Load() > 0:
		return SessionDispatching
	default:
		return SessionReady
	}
}
