// Package testutil holds test doubles shared by the package tests.
package testutil

import (
	"context"
	"encoding/json"
	"io"
	"sync"
	"sync/atomic"

	"github.com/FreePeak/reservation-mcp/internal/domain"
	"github.com/FreePeak/reservation-mcp/internal/domain/shared"
)

// MockBinding implements transport.Binding over channels. Messages pushed on
// In are received in order; EndInput makes Receive return io.EOF and
// Disconnect makes it return DisconnectErr.
type MockBinding struct {
	In  chan json.RawMessage
	Out chan *shared.JSONRPCResponse

	kind          domain.TransportKind
	disconnectErr error
	disconnect    chan struct{}
	disconnectOne sync.Once
	endOnce       sync.Once
	closed        atomic.Bool
}

// NewMockBinding creates a stdio-kind binding that fails Receive with
// disconnectErr once Disconnect is called.
func NewMockBinding(disconnectErr error) *MockBinding {
	return &MockBinding{
		In:            make(chan json.RawMessage, 16),
		Out:           make(chan *shared.JSONRPCResponse, 16),
		kind:          domain.TransportStdio,
		disconnectErr: disconnectErr,
		disconnect:    make(chan struct{}),
	}
}

// Push queues raw messages for Receive.
func (m *MockBinding) Push(messages ...string) {
	for _, msg := range messages {
		m.In <- json.RawMessage(msg)
	}
}

// EndInput signals the end of the inbound stream.
func (m *MockBinding) EndInput() {
	m.endOnce.Do(func() { close(m.In) })
}

// Disconnect simulates the peer going away.
func (m *MockBinding) Disconnect() {
	m.disconnectOne.Do(func() { close(m.disconnect) })
}

// Closed reports whether Close was called.
func (m *MockBinding) Closed() bool {
	return m.closed.Load()
}

// Kind implements transport.Binding.
func (m *MockBinding) Kind() domain.TransportKind {
	return m.kind
}

// Receive implements transport.Binding.
func (m *MockBinding) Receive(ctx context.Context) (json.RawMessage, error) {
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-m.disconnect:
		return nil, m.disconnectErr
	case msg, ok := <-m.In:
		if !ok {
			return nil, io.EOF
		}
		return msg, nil
	}
}

// Send implements transport.Binding.
func (m *MockBinding) Send(_ context.Context, response *shared.JSONRPCResponse) error {
	m.Out <- response
	return nil
}

// Close implements transport.Binding.
func (m *MockBinding) Close() error {
	m.closed.Store(true)
	return nil
}

// MockInvoker records the calls that reach the webhook layer and answers
// each with Result.
type MockInvoker struct {
	Result domain.ToolInvocationResult

	mu    sync.Mutex
	calls []map[string]interface{}
}

// Invoke implements domain.Invoker.
func (m *MockInvoker) Invoke(_ context.Context, _ domain.ToolDefinition, arguments map[string]interface{}) domain.ToolInvocationResult {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = append(m.calls, arguments)
	return m.Result
}

// Calls returns the number of recorded invocations.
func (m *MockInvoker) Calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.calls)
}

// LastArguments returns the arguments of the most recent invocation.
func (m *MockInvoker) LastArguments() map[string]interface{} {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.calls) == 0 {
		return nil
	}
	return m.calls[len(m.calls)-1]
}
