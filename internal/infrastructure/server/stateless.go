package server

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"sync"

	"github.com/pkg/errors"

	"github.com/FreePeak/reservation-mcp/internal/domain"
	"github.com/FreePeak/reservation-mcp/internal/domain/shared"
	"github.com/FreePeak/reservation-mcp/internal/infrastructure/logging"
)

// maxRequestBody caps the body accepted by the stateless endpoint.
const maxRequestBody = 1 << 20

// RequestTransport is a single-shot binding: it yields one message, then
// io.EOF, and captures the one response produced for it.
type RequestTransport struct {
	mu       sync.Mutex
	message  json.RawMessage
	consumed bool
	response *shared.JSONRPCResponse
}

// NewRequestTransport creates a binding for a single inbound message.
func NewRequestTransport(message json.RawMessage) *RequestTransport {
	return &RequestTransport{message: message}
}

// Kind implements transport.Binding.
func (t *RequestTransport) Kind() domain.TransportKind {
	return domain.TransportStateless
}

// Receive returns the message once, then io.EOF.
func (t *RequestTransport) Receive(ctx context.Context) (json.RawMessage, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	t.mu.Lock()
	defer t.mu.Unlock()
	if t.consumed {
		return nil, io.EOF
	}
	t.consumed = true
	return t.message, nil
}

// Send stores the response for the HTTP handler to write.
func (t *RequestTransport) Send(_ context.Context, response *shared.JSONRPCResponse) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.response != nil {
		return errors.New("response already sent")
	}
	t.response = response
	return nil
}

// Response returns the captured response, or nil for notifications.
func (t *RequestTransport) Response() *shared.JSONRPCResponse {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.response
}

// Close implements transport.Binding. The captured response stays readable.
func (t *RequestTransport) Close() error {
	return nil
}

// StatelessHandler serves POST /mcp: one JSON-RPC request in, one JSON
// response out, with a fresh session per request.
type StatelessHandler struct {
	server *Server
}

// NewStatelessHandler creates the HTTP handler of the stateless binding.
func NewStatelessHandler(server *Server) *StatelessHandler {
	return &StatelessHandler{server: server}
}

// ServeHTTP implements http.Handler.
func (h *StatelessHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		WriteJSONRPCError(w, http.StatusMethodNotAllowed, shared.NullID, shared.ServerError, "Method not allowed.")
		return
	}

	body, err := io.ReadAll(io.LimitReader(r.Body, maxRequestBody))
	if err != nil {
		WriteJSONRPCError(w, http.StatusBadRequest, shared.NullID, shared.ParseError, "")
		return
	}

	binding := NewRequestTransport(body)
	if err := h.server.Serve(r.Context(), binding); err != nil {
		h.server.logger.Error("Stateless request failed", logging.Fields{"error": err})
		WriteJSONRPCError(w, http.StatusInternalServerError, shared.NullID, shared.InternalError, "Internal server error")
		return
	}

	response := binding.Response()
	if response == nil {
		w.WriteHeader(http.StatusAccepted)
		return
	}

	status := http.StatusOK
	if response.Error != nil && response.Error.Code == int(shared.ParseError) {
		status = http.StatusBadRequest
	}
	writeJSON(w, status, response)
}

// WriteJSONRPCError writes a JSON-RPC error response with the given HTTP status.
func WriteJSONRPCError(w http.ResponseWriter, status int, id json.RawMessage, code shared.ErrorCode, message string) {
	writeJSON(w, status, shared.NewErrorResponse(id, code, message))
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	data, err := json.Marshal(v)
	if err != nil {
		http.Error(w, errors.Wrap(err, "error marshalling response").Error(), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(data)
}
