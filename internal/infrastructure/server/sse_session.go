package server

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"

	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/FreePeak/reservation-mcp/internal/domain"
	"github.com/FreePeak/reservation-mcp/internal/domain/shared"
)

// sseSession represents an active SSE connection. It is the binding between
// the event stream and the session manager: POSTed messages are queued on
// inbox, responses are queued on eventQueue and written by Stream.
type sseSession struct {
	id         string
	inbox      chan json.RawMessage
	eventQueue chan string
	done       chan struct{}
	closeOnce  sync.Once
}

// newSSESession creates a session with queues of the given size.
func newSSESession(bufferSize int) *sseSession {
	return &sseSession{
		id:         uuid.New().String(),
		inbox:      make(chan json.RawMessage, bufferSize),
		eventQueue: make(chan string, bufferSize),
		done:       make(chan struct{}),
	}
}

// ID returns the session ID.
func (s *sseSession) ID() string {
	return s.id
}

// Kind implements transport.Binding.
func (s *sseSession) Kind() domain.TransportKind {
	return domain.TransportSSE
}

// Receive returns the next POSTed message. It fails with ErrDisconnected
// once the stream is gone.
func (s *sseSession) Receive(ctx context.Context) (json.RawMessage, error) {
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-s.done:
		return nil, ErrDisconnected
	case msg := <-s.inbox:
		return msg, nil
	}
}

// Send queues a response as a message event. When the queue is full it
// waits for the stream to drain it, for the session to close or for ctx.
func (s *sseSession) Send(ctx context.Context, response *shared.JSONRPCResponse) error {
	data, err := json.Marshal(response)
	if err != nil {
		return errors.Wrap(err, "error marshalling message")
	}
	return s.queueEvent(ctx, "message", string(data))
}

// Close ends the stream. It is safe to call more than once.
func (s *sseSession) Close() error {
	s.closeOnce.Do(func() {
		close(s.done)
	})
	return nil
}

// Deliver hands a POSTed message to the session manager.
func (s *sseSession) Deliver(ctx context.Context, msg json.RawMessage) error {
	select {
	case <-s.done:
		return ErrSessionClosed
	default:
	}

	select {
	case s.inbox <- msg:
		return nil
	case <-s.done:
		return ErrSessionClosed
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (s *sseSession) queueEvent(ctx context.Context, event, data string) error {
	select {
	case <-s.done:
		return ErrSessionClosed
	default:
	}

	select {
	case s.eventQueue <- fmt.Sprintf("event: %s\ndata: %s\n\n", event, data):
		return nil
	case <-s.done:
		return ErrSessionClosed
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Stream writes queued events to w until the session closes or ctx is done.
// It must run on the HTTP handler goroutine that owns w.
func (s *sseSession) Stream(ctx context.Context, w http.ResponseWriter, flusher http.Flusher) {
	for {
		select {
		case event := <-s.eventQueue:
			if _, err := fmt.Fprint(w, event); err != nil {
				return
			}
			flusher.Flush()
		case <-s.done:
			return
		case <-ctx.Done():
			return
		}
	}
}
