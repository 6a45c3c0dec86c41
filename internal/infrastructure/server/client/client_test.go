package client

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/FreePeak/reservation-mcp/internal/domain/shared"
)

func TestDetectClientType(t *testing.T) {
	tests := []struct {
		name string
		want ClientType
	}{
		{name: "cursor-vscode", want: ClientTypeCursor},
		{name: "claude-ai", want: ClientTypeClaude},
		{name: "Claude", want: ClientTypeClaude},
		{name: "vapi", want: ClientTypeGeneric},
		{name: "", want: ClientTypeGeneric},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, DetectClientType(shared.ServerInfo{Name: tt.name}))
		})
	}
}

func TestRenderClaudeStdio(t *testing.T) {
	registry := NewConfigRegistry()

	out, err := registry.GetConfig(ClientTypeClaude).Render(Launch{
		ServerName: "reservation",
		Command:    "/usr/local/bin/reservation-mcp",
		Args:       []string{"serve", "--transport", "stdio"},
		Env:        map[string]string{"N8N_BASE_URL": "https://n8n.example.com"},
	})
	require.NoError(t, err)
	assert.JSONEq(t, `{
		"mcpServers": {
			"reservation": {
				"command": "/usr/local/bin/reservation-mcp",
				"args": ["serve", "--transport", "stdio"],
				"env": {"N8N_BASE_URL": "https://n8n.example.com"}
			}
		}
	}`, string(out))
}

func TestRenderCursorURL(t *testing.T) {
	out, err := NewConfigRegistry().GetConfig(ClientTypeCursor).Render(Launch{
		ServerName: "reservation",
		Command:    "ignored",
		URL:        "http://localhost:3000/sse",
	})
	require.NoError(t, err)
	assert.JSONEq(t, `{"mcpServers":{"reservation":{"url":"http://localhost:3000/sse"}}}`, string(out))
}

func TestRenderRequiresServerName(t *testing.T) {
	_, err := NewConfigRegistry().GetConfig(ClientTypeClaude).Render(Launch{Command: "x"})
	assert.Error(t, err)
}

func TestGenericAndFallback(t *testing.T) {
	registry := NewConfigRegistry()

	assert.Equal(t, ClientTypeGeneric, registry.GetConfig("windsurf").GetClientType())

	out, err := registry.GetConfig(ClientTypeGeneric).Render(Launch{URL: "http://localhost:3000/mcp"})
	require.NoError(t, err)
	assert.JSONEq(t, `{"url":"http://localhost:3000/mcp"}`, string(out))

	assert.Equal(t, []ClientType{ClientTypeClaude, ClientTypeCursor, ClientTypeGeneric}, registry.Types())
}

func TestParseClientType(t *testing.T) {
	got, err := ParseClientType(" Cursor ")
	require.NoError(t, err)
	assert.Equal(t, ClientTypeCursor, got)

	_, err = ParseClientType("zed")
	assert.Error(t, err)
}
