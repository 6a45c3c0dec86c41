package server

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"io"
	"os"
	"sync"

	"github.com/pkg/errors"

	"github.com/FreePeak/reservation-mcp/internal/domain"
	"github.com/FreePeak/reservation-mcp/internal/domain/shared"
)

type readResult struct {
	line []byte
	err  error
}

// StdioTransport is a binding that exchanges newline-delimited JSON-RPC
// messages over a reader and a writer, by default stdin and stdout.
type StdioTransport struct {
	reader    *bufio.Reader
	writer    *bufio.Writer
	lines     chan readResult
	startOnce sync.Once
	closeCh   chan struct{}
	closeOnce sync.Once
	writeMu   sync.Mutex
}

// NewStdioTransport creates a new stdio transport over the process streams
func NewStdioTransport() *StdioTransport {
	return NewStreamTransport(os.Stdin, os.Stdout)
}

// NewStreamTransport creates a stdio-style transport over arbitrary streams.
func NewStreamTransport(in io.Reader, out io.Writer) *StdioTransport {
	return &StdioTransport{
		reader:  bufio.NewReader(in),
		writer:  bufio.NewWriter(out),
		lines:   make(chan readResult),
		closeCh: make(chan struct{}),
	}
}

// Kind implements transport.Binding.
func (t *StdioTransport) Kind() domain.TransportKind {
	return domain.TransportStdio
}

// Receive returns the next non-empty line. The blocking read runs on its own
// goroutine so that Receive honours ctx and Close.
func (t *StdioTransport) Receive(ctx context.Context) (json.RawMessage, error) {
	t.startOnce.Do(func() { go t.readLines() })

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-t.closeCh:
		return nil, ErrSessionClosed
	case res, ok := <-t.lines:
		if !ok {
			return nil, io.EOF
		}
		if res.err != nil {
			return nil, res.err
		}
		return res.line, nil
	}
}

// Send writes the response followed by a newline
func (t *StdioTransport) Send(_ context.Context, response *shared.JSONRPCResponse) error {
	data, err := json.Marshal(response)
	if err != nil {
		return errors.Wrap(err, "error marshalling message")
	}

	t.writeMu.Lock()
	defer t.writeMu.Unlock()

	select {
	case <-t.closeCh:
		return ErrSessionClosed
	default:
	}

	if _, err := t.writer.Write(data); err != nil {
		return errors.Wrap(err, "error writing message")
	}
	if err := t.writer.WriteByte('\n'); err != nil {
		return errors.Wrap(err, "error writing newline")
	}
	if err := t.writer.Flush(); err != nil {
		return errors.Wrap(err, "error flushing writer")
	}

	return nil
}

// Close closes the transport
func (t *StdioTransport) Close() error {
	t.closeOnce.Do(func() {
		close(t.closeCh)
	})
	return nil
}

// readLines feeds t.lines until the input ends or the transport closes.
func (t *StdioTransport) readLines() {
	defer close(t.lines)

	for {
		line, err := t.reader.ReadBytes('\n')
		if trimmed := bytes.TrimSpace(line); len(trimmed) > 0 {
			if !t.deliver(readResult{line: trimmed}) {
				return
			}
		}

		if err != nil {
			if !errors.Is(err, io.EOF) {
				t.deliver(readResult{err: errors.Wrap(err, "error reading input")})
			}
			return
		}
	}
}

func (t *StdioTransport) deliver(res readResult) bool {
	select {
	case t.lines <- res:
		return true
	case <-t.closeCh:
		return false
	}
}
