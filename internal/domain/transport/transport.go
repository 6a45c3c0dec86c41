// Package transport defines the binding between the session manager and a
// physical transport.
package transport

import (
	"context"
	"encoding/json"

	"github.com/FreePeak/reservation-mcp/internal/domain"
	"github.com/FreePeak/reservation-mcp/internal/domain/shared"
)

// Binding adapts one physical transport to the session manager.
type Binding interface {
	// Kind returns the transport kind of the binding.
	Kind() domain.TransportKind

	// Receive blocks until the next raw JSON-RPC message arrives. It returns
	// io.EOF once the peer has no more messages to send.
	Receive(ctx context.Context) (json.RawMessage, error)

	// Send delivers a response to the peer. Implementations must be safe for
	// concurrent use.
	Send(ctx context.Context, response *shared.JSONRPCResponse) error

	// Close releases the transport. It is safe to call more than once.
	Close() error
}
