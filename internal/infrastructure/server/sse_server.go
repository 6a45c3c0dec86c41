package server

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/pkg/errors"

	"github.com/FreePeak/reservation-mcp/internal/domain/shared"
	"github.com/FreePeak/reservation-mcp/internal/infrastructure/logging"
)

// defaultEventBuffer is the per-session size of the inbound and outbound queues.
const defaultEventBuffer = 100

// Endpoint paths used when no option overrides them.
const (
	DefaultSSEEndpoint     = "/sse"
	DefaultMessageEndpoint = "/message"
)

// SSEServer implements the Server-Sent Events binding: GET on the SSE
// endpoint opens a session, POST on the message endpoint feeds it.
type SSEServer struct {
	server          *Server
	manager         *sseConnectionManager
	baseURL         string
	basePath        string
	messageEndpoint string
	sseEndpoint     string
	bufferSize      int
	logger          *logging.Logger
}

// SSEOption defines a function type for configuring SSEServer
type SSEOption func(*SSEServer)

// WithBaseURL sets the base URL advertised in the endpoint event
func WithBaseURL(baseURL string) SSEOption {
	return func(s *SSEServer) {
		if baseURL != "" {
			u, err := url.Parse(baseURL)
			if err != nil {
				return
			}
			if u.Scheme != "http" && u.Scheme != "https" {
				return
			}
			// Check if the host is empty or only contains a port
			if u.Host == "" || strings.HasPrefix(u.Host, ":") {
				return
			}
			if len(u.Query()) > 0 {
				return
			}
		}
		s.baseURL = strings.TrimSuffix(baseURL, "/")
	}
}

// WithBasePath sets the base path for the SSE server
func WithBasePath(basePath string) SSEOption {
	return func(s *SSEServer) {
		// Ensure the path starts with / and doesn't end with /
		if !strings.HasPrefix(basePath, "/") {
			basePath = "/" + basePath
		}
		s.basePath = strings.TrimSuffix(basePath, "/")
	}
}

// WithMessageEndpoint sets the message endpoint path. Empty keeps the default.
func WithMessageEndpoint(endpoint string) SSEOption {
	return func(s *SSEServer) {
		if endpoint != "" {
			s.messageEndpoint = endpoint
		}
	}
}

// WithSSEEndpoint sets the SSE endpoint path. Empty keeps the default.
func WithSSEEndpoint(endpoint string) SSEOption {
	return func(s *SSEServer) {
		if endpoint != "" {
			s.sseEndpoint = endpoint
		}
	}
}

// WithEventBuffer sets the per-session queue size.
func WithEventBuffer(size int) SSEOption {
	return func(s *SSEServer) {
		if size > 0 {
			s.bufferSize = size
		}
	}
}

// NewSSEServer creates a new SSE binding driven by the given server.
func NewSSEServer(server *Server, opts ...SSEOption) *SSEServer {
	s := &SSEServer{
		server:          server,
		manager:         newSSEConnectionManager(),
		sseEndpoint:     DefaultSSEEndpoint,
		messageEndpoint: DefaultMessageEndpoint,
		bufferSize:      defaultEventBuffer,
		logger:          server.logger.Named("sse"),
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

// SessionCount returns the number of open SSE sessions.
func (s *SSEServer) SessionCount() int {
	return s.manager.Count()
}

// Shutdown closes all active sessions.
func (s *SSEServer) Shutdown(_ context.Context) error {
	s.manager.CloseAll()
	return nil
}

// HandleSSE opens an event stream and runs a session over it until the
// client disconnects. The first event is "endpoint", carrying the URL that
// messages for this session must be POSTed to.
func (s *SSEServer) HandleSSE(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		WriteJSONRPCError(w, http.StatusMethodNotAllowed, shared.NullID, shared.ServerError, "Method not allowed.")
		return
	}

	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, ErrResponseWriterNotFlusher.Error(), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	session := newSSESession(s.bufferSize)
	s.manager.AddSession(session)
	defer func() {
		s.manager.RemoveSession(session.ID())
		_ = session.Close()
	}()

	ctx := r.Context()

	messageEndpoint := fmt.Sprintf("%s?sessionId=%s", s.CompleteMessageEndpoint(), session.ID())
	if err := session.queueEvent(ctx, "endpoint", messageEndpoint); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	go func() {
		if err := s.server.Serve(ctx, session); err != nil {
			s.logger.Warn("SSE session ended with error", logging.Fields{
				"session_id": session.ID(),
				"error":      err,
			})
		}
	}()

	session.Stream(r.Context(), w, flusher)
}

// HandleMessage accepts a JSON-RPC message for an open session. The response
// is delivered on the session's event stream.
func (s *SSEServer) HandleMessage(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		WriteJSONRPCError(w, http.StatusMethodNotAllowed, shared.NullID, shared.ServerError, "Method not allowed.")
		return
	}

	sessionID := r.URL.Query().Get("sessionId")
	if sessionID == "" {
		WriteJSONRPCError(w, http.StatusBadRequest, shared.NullID, shared.InvalidParams, "Missing sessionId")
		return
	}

	session, ok := s.manager.GetSession(sessionID)
	if !ok {
		WriteJSONRPCError(w, http.StatusNotFound, shared.NullID, shared.InvalidParams, "Invalid session ID")
		return
	}

	body, err := io.ReadAll(io.LimitReader(r.Body, maxRequestBody))
	if err != nil || !json.Valid(body) {
		WriteJSONRPCError(w, http.StatusBadRequest, shared.NullID, shared.ParseError, "")
		return
	}

	if err := session.Deliver(r.Context(), body); err != nil {
		if errors.Is(err, ErrSessionClosed) {
			WriteJSONRPCError(w, http.StatusNotFound, shared.NullID, shared.InvalidParams, "Invalid session ID")
			return
		}
		WriteJSONRPCError(w, http.StatusServiceUnavailable, shared.NullID, shared.InternalError, err.Error())
		return
	}

	w.WriteHeader(http.StatusAccepted)
}

// GetUrlPath returns the path component of a URL.
func (s *SSEServer) GetUrlPath(input string) (string, error) {
	parse, err := url.Parse(input)
	if err != nil {
		return "", fmt.Errorf("failed to parse URL %s: %w", input, err)
	}
	return parse.Path, nil
}

// CompleteSseEndpoint returns the full SSE endpoint.
func (s *SSEServer) CompleteSseEndpoint() string {
	return s.baseURL + s.basePath + s.sseEndpoint
}

// CompleteSsePath returns the path of the SSE endpoint.
func (s *SSEServer) CompleteSsePath() string {
	path, err := s.GetUrlPath(s.CompleteSseEndpoint())
	if err != nil {
		return s.basePath + s.sseEndpoint
	}
	return path
}

// CompleteMessageEndpoint returns the full message endpoint.
func (s *SSEServer) CompleteMessageEndpoint() string {
	return s.baseURL + s.basePath + s.messageEndpoint
}

// CompleteMessagePath returns the path of the message endpoint.
func (s *SSEServer) CompleteMessagePath() string {
	path, err := s.GetUrlPath(s.CompleteMessageEndpoint())
	if err != nil {
		return s.basePath + s.messageEndpoint
	}
	return path
}

// ServeHTTP implements the http.Handler interface.
func (s *SSEServer) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	path := r.URL.Path
	if ssePath := s.CompleteSsePath(); ssePath != "" && path == ssePath {
		s.HandleSSE(w, r)
		return
	}
	if messagePath := s.CompleteMessagePath(); messagePath != "" && path == messagePath {
		s.HandleMessage(w, r)
		return
	}

	http.NotFound(w, r)
}
