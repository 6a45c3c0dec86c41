// Package client knows the MCP clients this server is typically wired into:
// it recognises them during initialize and renders their configuration
// snippets.
package client

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"github.com/FreePeak/reservation-mcp/internal/domain/shared"
)

// ClientType represents the type of client connecting to the server
type ClientType string

const (
	// ClientTypeCursor represents Cursor IDE client
	ClientTypeCursor ClientType = "cursor"
	// ClientTypeClaude represents Claude Desktop client
	ClientTypeClaude ClientType = "claude"
	// ClientTypeGeneric represents a generic client
	ClientTypeGeneric ClientType = "generic"
)

// Launch describes how a client reaches the server: either by spawning the
// binary over stdio or by connecting to a URL.
type Launch struct {
	ServerName string
	Command    string
	Args       []string
	Env        map[string]string
	URL        string
}

// Config defines the interface for client-specific configurations
type Config interface {
	// GetClientType returns the type of client this configuration is for
	GetClientType() ClientType

	// Render returns the configuration snippet for this client.
	Render(launch Launch) ([]byte, error)
}

// ConfigRegistry is a registry of client configurations
type ConfigRegistry struct {
	configs map[ClientType]Config
}

// NewConfigRegistry creates a registry holding the built-in client configurations.
func NewConfigRegistry() *ConfigRegistry {
	r := &ConfigRegistry{
		configs: make(map[ClientType]Config),
	}
	r.Register(mcpServersConfig{clientType: ClientTypeClaude})
	r.Register(mcpServersConfig{clientType: ClientTypeCursor})
	r.Register(genericConfig{})
	return r
}

// Register registers a client configuration
func (r *ConfigRegistry) Register(config Config) {
	r.configs[config.GetClientType()] = config
}

// GetConfig returns the configuration for a specific client type
func (r *ConfigRegistry) GetConfig(clientType ClientType) Config {
	config, exists := r.configs[clientType]
	if !exists {
		return genericConfig{}
	}
	return config
}

// Types returns the registered client types, sorted.
func (r *ConfigRegistry) Types() []ClientType {
	types := make([]ClientType, 0, len(r.configs))
	for t := range r.configs {
		types = append(types, t)
	}
	sort.Slice(types, func(i, j int) bool { return types[i] < types[j] })
	return types
}

// ParseClientType converts a name to a ClientType.
func ParseClientType(name string) (ClientType, error) {
	switch t := ClientType(strings.ToLower(strings.TrimSpace(name))); t {
	case ClientTypeClaude, ClientTypeCursor, ClientTypeGeneric:
		return t, nil
	default:
		return "", fmt.Errorf("unknown client type %q", name)
	}
}

// DetectClientType attempts to detect the client type from client info
func DetectClientType(clientInfo shared.ServerInfo) ClientType {
	clientName := strings.ToLower(clientInfo.Name)

	switch {
	case strings.Contains(clientName, "cursor"):
		return ClientTypeCursor
	case strings.Contains(clientName, "claude"):
		return ClientTypeClaude
	default:
		return ClientTypeGeneric
	}
}

type serverEntry struct {
	Command string            `json:"command,omitempty"`
	Args    []string          `json:"args,omitempty"`
	Env     map[string]string `json:"env,omitempty"`
	URL     string            `json:"url,omitempty"`
}

func entryFor(launch Launch) serverEntry {
	if launch.URL != "" {
		return serverEntry{URL: launch.URL}
	}
	return serverEntry{
		Command: launch.Command,
		Args:    launch.Args,
		Env:     launch.Env,
	}
}

// mcpServersConfig renders the {"mcpServers": {...}} document read by
// Claude Desktop and Cursor.
type mcpServersConfig struct {
	clientType ClientType
}

func (c mcpServersConfig) GetClientType() ClientType {
	return c.clientType
}

func (c mcpServersConfig) Render(launch Launch) ([]byte, error) {
	if launch.ServerName == "" {
		return nil, fmt.Errorf("server name is required")
	}
	doc := map[string]map[string]serverEntry{
		"mcpServers": {launch.ServerName: entryFor(launch)},
	}
	return json.MarshalIndent(doc, "", "  ")
}

// genericConfig renders the bare server entry.
type genericConfig struct{}

func (genericConfig) GetClientType() ClientType {
	return ClientTypeGeneric
}

func (genericConfig) Render(launch Launch) ([]byte, error) {
	return json.MarshalIndent(entryFor(launch), "", "  ")
}
