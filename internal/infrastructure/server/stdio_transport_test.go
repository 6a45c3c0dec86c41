package server

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/FreePeak/reservation-mcp/internal/domain"
	"github.com/FreePeak/reservation-mcp/internal/domain/shared"
)

func TestStdioTransportReceive(t *testing.T) {
	input := "{\"jsonrpc\":\"2.0\",\"id\":1,\"method\":\"ping\"}\r\n\n   \n{\"jsonrpc\":\"2.0\",\"id\":2,\"method\":\"ping\"}"
	tr := NewStreamTransport(strings.NewReader(input), io.Discard)
	ctx := context.Background()

	assert.Equal(t, domain.TransportStdio, tr.Kind())

	first, err := tr.Receive(ctx)
	require.NoError(t, err)
	assert.JSONEq(t, `{"jsonrpc":"2.0","id":1,"method":"ping"}`, string(first))

	second, err := tr.Receive(ctx)
	require.NoError(t, err)
	assert.JSONEq(t, `{"jsonrpc":"2.0","id":2,"method":"ping"}`, string(second))

	_, err = tr.Receive(ctx)
	assert.ErrorIs(t, err, io.EOF)
}

func TestStdioTransportSendFramesWithNewline(t *testing.T) {
	var out bytes.Buffer
	tr := NewStreamTransport(strings.NewReader(""), &out)

	require.NoError(t, tr.Send(context.Background(), shared.NewResponse(json.RawMessage(`1`), struct{}{})))
	require.NoError(t, tr.Send(context.Background(), shared.NewErrorResponse(nil, shared.ParseError, "")))

	lines := strings.Split(strings.TrimSuffix(out.String(), "\n"), "\n")
	require.Len(t, lines, 2)
	assert.JSONEq(t, `{"jsonrpc":"2.0","id":1,"result":{}}`, lines[0])
	assert.JSONEq(t, `{"jsonrpc":"2.0","id":null,"error":{"code":-32700,"message":"Parse error"}}`, lines[1])
}

func TestStdioTransportCloseAndCancel(t *testing.T) {
	reader, writer := io.Pipe()
	defer writer.Close()

	tr := NewStreamTransport(reader, io.Discard)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := tr.Receive(ctx)
	assert.ErrorIs(t, err, context.Canceled)

	done := make(chan error, 1)
	go func() {
		_, err := tr.Receive(context.Background())
		done <- err
	}()

	require.NoError(t, tr.Close())
	require.NoError(t, tr.Close())

	select {
	case err := <-done:
		assert.ErrorIs(t, err, ErrSessionClosed)
	case <-time.After(time.Second):
		t.Fatal("Receive did not return after Close")
	}

	assert.ErrorIs(t, tr.Send(context.Background(), shared.NewResponse(json.RawMessage(`1`), nil)), ErrSessionClosed)
}

func TestServeOverStdio(t *testing.T) {
	input := strings.Join([]string{
		`{"jsonrpc":"2.0","id":1,"method":"initialize","params":{"protocolVersion":"2024-11-05","clientInfo":{"name":"test","version":"1"}}}`,
		`{"jsonrpc":"2.0","method":"notifications/initialized"}`,
		`{"jsonrpc":"2.0","id":2,"method":"tools/list"}`,
		`not json`,
		`{"jsonrpc":"2.0","id":3,"method":"tools/call","params":{"name":"check_availability","arguments":{"date":"2025-06-01","time":"19:00","partySize":4}}}`,
	}, "\n") + "\n"

	var out bytes.Buffer
	s := newTestServer(&fakeService{}, nil)
	require.NoError(t, s.Serve(context.Background(), NewStreamTransport(strings.NewReader(input), &out)))

	byID := map[string]map[string]interface{}{}
	scanner := bufio.NewScanner(&out)
	for scanner.Scan() {
		var msg map[string]interface{}
		require.NoError(t, json.Unmarshal(scanner.Bytes(), &msg))
		id, _ := json.Marshal(msg["id"])
		byID[string(id)] = msg
	}

	require.Len(t, byID, 4)
	assert.Contains(t, byID["1"], "result")
	assert.Contains(t, byID["2"], "result")
	assert.Equal(t, float64(shared.ParseError), byID["null"]["error"].(map[string]interface{})["code"])

	call := byID["3"]["result"].(map[string]interface{})
	assert.Equal(t, "ok:check_availability", call["content"].([]interface{})[0].(map[string]interface{})["text"])
}
