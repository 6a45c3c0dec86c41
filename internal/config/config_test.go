package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// clearEnv blanks the variables read by NewViper. Empty values count as unset.
func clearEnv(t *testing.T) {
	t.Helper()
	for _, name := range []string{"N8N_BASE_URL", "N8N_SECRET", "PORT"} {
		t.Setenv(name, "")
	}
	for _, key := range []string{
		KeyBaseURL, KeySecret, KeyHost, KeyPort, KeyPublicURL, KeyTransport,
		KeyWebhookTimeout, KeyMaxRetries, KeyRetryDelay, KeyToolsFile,
		KeyLogLevel, KeyLogFormat, KeyShutdownTimeout, KeyEventBuffer, KeyConfigFile,
		KeySSEPath, KeyMessagePath,
	} {
		t.Setenv(EnvPrefix+"_"+strings.ToUpper(key), "")
	}
}

func TestLoadDefaults(t *testing.T) {
	clearEnv(t)

	cfg, err := Load(NewViper())
	require.NoError(t, err)

	assert.Equal(t, ServerName, cfg.Name)
	assert.Equal(t, ServerVersion, cfg.Version)
	assert.Empty(t, cfg.BaseURL)
	assert.Empty(t, cfg.Secret)
	assert.Equal(t, "0.0.0.0", cfg.Host)
	assert.Equal(t, 3000, cfg.Port)
	assert.Equal(t, "0.0.0.0:3000", cfg.Address())
	assert.Equal(t, TransportStdio, cfg.Transport)
	assert.Equal(t, 30*time.Second, cfg.WebhookTimeout)
	assert.Zero(t, cfg.MaxRetries)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, 100, cfg.EventBuffer)
	assert.Equal(t, DefaultSSEPath, cfg.SSEPath)
	assert.Equal(t, DefaultMessagePath, cfg.MessagePath)
}

func TestLoadFromEnvironment(t *testing.T) {
	clearEnv(t)
	t.Setenv("N8N_BASE_URL", " https://n8n.example.com ")
	t.Setenv("N8N_SECRET", "s3cret")
	t.Setenv("PORT", "8080")
	t.Setenv("RESERVATION_MCP_MAX_RETRIES", "2")
	t.Setenv("RESERVATION_MCP_WEBHOOK_TIMEOUT", "5s")
	t.Setenv("RESERVATION_MCP_TRANSPORT", "HTTP")

	cfg, err := Load(NewViper())
	require.NoError(t, err)

	assert.Equal(t, "https://n8n.example.com", cfg.BaseURL)
	assert.Equal(t, "s3cret", cfg.Secret)
	assert.Equal(t, 8080, cfg.Port)
	assert.Equal(t, 2, cfg.MaxRetries)
	assert.Equal(t, 5*time.Second, cfg.WebhookTimeout)
	assert.Equal(t, TransportHTTP, cfg.Transport)
}

func TestFlagsOverrideEnvironment(t *testing.T) {
	clearEnv(t)
	t.Setenv("PORT", "8080")

	flags := pflag.NewFlagSet("test", pflag.ContinueOnError)
	flags.Int("port", 3000, "")
	flags.String("transport", TransportStdio, "")
	flags.String("log-level", "info", "")
	flags.String("sse-path", "", "")
	flags.String("message-path", "", "")
	require.NoError(t, flags.Parse([]string{
		"--port", "9090", "--log-level", "debug", "--sse-path", "/mcp/sse", "--message-path", "/mcp/messages",
	}))

	v := NewViper()
	require.NoError(t, BindFlags(v, flags))

	cfg, err := Load(v)
	require.NoError(t, err)
	assert.Equal(t, 9090, cfg.Port)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, TransportStdio, cfg.Transport)
	assert.Equal(t, "/mcp/sse", cfg.SSEPath)
	assert.Equal(t, "/mcp/messages", cfg.MessagePath)
}

func TestLoadConfigFile(t *testing.T) {
	clearEnv(t)

	path := filepath.Join(t.TempDir(), "reservation-mcp.yaml")
	require.NoError(t, os.WriteFile(path, []byte(
		"base_url: https://n8n.internal\ntransport: sse\nwebhook_timeout: 10s\ntools_file: /etc/tools.yaml\n",
	), 0o600))

	v := NewViper()
	v.Set(KeyConfigFile, path)

	cfg, err := Load(v)
	require.NoError(t, err)
	assert.Equal(t, "https://n8n.internal", cfg.BaseURL)
	assert.Equal(t, TransportSSE, cfg.Transport)
	assert.Equal(t, 10*time.Second, cfg.WebhookTimeout)
	assert.Equal(t, "/etc/tools.yaml", cfg.ToolsFile)
}

func TestLoadMissingConfigFile(t *testing.T) {
	clearEnv(t)

	v := NewViper()
	v.Set(KeyConfigFile, filepath.Join(t.TempDir(), "missing.yaml"))

	_, err := Load(v)
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	valid := func() *Config {
		return &Config{
			Transport:      TransportHTTP,
			Port:           3000,
			WebhookTimeout: time.Second,
			EventBuffer:    10,
		}
	}

	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{name: "valid", mutate: func(*Config) {}},
		{name: "zero timeout", mutate: func(c *Config) { c.WebhookTimeout = 0 }},
		{name: "transport", mutate: func(c *Config) { c.Transport = "websocket" }, wantErr: "unknown transport"},
		{name: "port", mutate: func(c *Config) { c.Port = 70000 }, wantErr: "port 70000"},
		{name: "timeout", mutate: func(c *Config) { c.WebhookTimeout = -time.Second }, wantErr: "webhook timeout"},
		{name: "retries", mutate: func(c *Config) { c.MaxRetries = 11 }, wantErr: "max retries"},
		{name: "buffer", mutate: func(c *Config) { c.EventBuffer = 0 }, wantErr: "event buffer"},
		{name: "base url scheme", mutate: func(c *Config) { c.BaseURL = "ftp://n8n" }, wantErr: "N8N_BASE_URL"},
		{name: "base url host", mutate: func(c *Config) { c.BaseURL = "https://" }, wantErr: "missing host"},
		{name: "custom paths", mutate: func(c *Config) { c.SSEPath, c.MessagePath = "/events", "/events/post" }},
		{name: "relative sse path", mutate: func(c *Config) { c.SSEPath = "events" }, wantErr: "must start with /"},
		{name: "reserved message path", mutate: func(c *Config) { c.MessagePath = "/health" }, wantErr: "already served"},
		{name: "same paths", mutate: func(c *Config) { c.SSEPath, c.MessagePath = "/events", "/events" }, wantErr: "must differ"},
		{name: "public url", mutate: func(c *Config) { c.PublicURL = "localhost:3000" }, wantErr: "public URL"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestValidateReportsAllProblems(t *testing.T) {
	cfg := &Config{Transport: "x", Port: 0, EventBuffer: 1}
	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown transport")
	assert.Contains(t, err.Error(), "port 0")
}
