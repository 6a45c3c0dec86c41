// Package config loads the runtime configuration of the reservation MCP server.
//
// Values come from, in increasing priority: defaults, an optional config
// file, environment variables and command line flags. The n8n settings keep
// their historical variable names (N8N_BASE_URL, N8N_SECRET, PORT); every
// other key is read from RESERVATION_MCP_<KEY>.
package config

import (
	"net"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"go.uber.org/multierr"
)

// Server identity reported to MCP clients.
const (
	ServerName    = "reservation-mcp"
	ServerVersion = "1.0.0"
)

// EnvPrefix is the prefix of the environment variables read by viper.
const EnvPrefix = "RESERVATION_MCP"

// Configuration keys.
const (
	KeyConfigFile      = "config"
	KeyBaseURL         = "base_url"
	KeySecret          = "secret"
	KeyHost            = "host"
	KeyPort            = "port"
	KeyPublicURL       = "public_url"
	KeyTransport       = "transport"
	KeyWebhookTimeout  = "webhook_timeout"
	KeyMaxRetries      = "max_retries"
	KeyRetryDelay      = "retry_delay"
	KeyToolsFile       = "tools_file"
	KeyLogLevel        = "log_level"
	KeyLogFormat       = "log_format"
	KeyShutdownTimeout = "shutdown_timeout"
	KeyEventBuffer     = "event_buffer"
	KeySSEPath         = "sse_path"
	KeyMessagePath     = "message_path"
)

// Transport names accepted by the serve command.
const (
	TransportStdio = "stdio"
	TransportSSE   = "sse"
	TransportHTTP  = "http"
)

// Bounds enforced by Validate.
const (
	MaxRetries      = 10
	maxEventBuffer  = 10000
	defaultPort     = 3000
	defaultHost     = "0.0.0.0"
	defaultTimeout  = 30 * time.Second
	defaultShutdown = 10 * time.Second
)

// Default SSE endpoint paths.
const (
	DefaultSSEPath     = "/sse"
	DefaultMessagePath = "/message"
)

// reservedPaths are served by the HTTP router itself.
var reservedPaths = map[string]bool{"/": true, "/mcp": true, "/health": true, "/metrics": true}

// Config holds every setting the server needs. It is built once at startup
// and passed by reference; request handling never reads the environment.
type Config struct {
	Name    string
	Version string

	// BaseURL is the n8n instance the webhooks live on. It may be empty, in
	// which case every tool call fails with a configuration error.
	BaseURL string
	Secret  string

	Host      string
	Port      int
	PublicURL string
	Transport string

	WebhookTimeout time.Duration
	MaxRetries     int
	RetryDelay     time.Duration

	ToolsFile string

	LogLevel  string
	LogFormat string

	ShutdownTimeout time.Duration
	EventBuffer     int

	// SSEPath and MessagePath mount the SSE binding. Empty means the default.
	SSEPath     string
	MessagePath string
}

// Address returns the host:port the HTTP server listens on.
func (c *Config) Address() string {
	return net.JoinHostPort(c.Host, strconv.Itoa(c.Port))
}

// Validate checks the configuration and reports every problem found.
func (c *Config) Validate() error {
	var err error

	switch c.Transport {
	case TransportStdio, TransportSSE, TransportHTTP:
	default:
		err = multierr.Append(err, errors.Errorf("unknown transport %q (want stdio, sse or http)", c.Transport))
	}

	if c.Port < 1 || c.Port > 65535 {
		err = multierr.Append(err, errors.Errorf("port %d out of range", c.Port))
	}
	if c.WebhookTimeout < 0 {
		err = multierr.Append(err, errors.New("webhook timeout must not be negative"))
	}
	if c.MaxRetries < 0 || c.MaxRetries > MaxRetries {
		err = multierr.Append(err, errors.Errorf("max retries must be between 0 and %d", MaxRetries))
	}
	if c.RetryDelay < 0 {
		err = multierr.Append(err, errors.New("retry delay must not be negative"))
	}
	if c.ShutdownTimeout < 0 {
		err = multierr.Append(err, errors.New("shutdown timeout must not be negative"))
	}
	if c.EventBuffer < 1 || c.EventBuffer > maxEventBuffer {
		err = multierr.Append(err, errors.Errorf("event buffer must be between 1 and %d", maxEventBuffer))
	}

	for name, path := range map[string]string{"sse path": c.SSEPath, "message path": c.MessagePath} {
		if path == "" {
			continue
		}
		if !strings.HasPrefix(path, "/") {
			err = multierr.Append(err, errors.Errorf("%s %q must start with /", name, path))
		} else if reservedPaths[path] {
			err = multierr.Append(err, errors.Errorf("%s %q is already served", name, path))
		}
	}
	if c.SSEPath != "" && c.SSEPath == c.MessagePath {
		err = multierr.Append(err, errors.Errorf("sse path and message path must differ, both are %q", c.SSEPath))
	}

	if c.BaseURL != "" {
		if urlErr := checkURL(c.BaseURL); urlErr != nil {
			err = multierr.Append(err, errors.Wrap(urlErr, "invalid N8N_BASE_URL"))
		}
	}
	if c.PublicURL != "" {
		if urlErr := checkURL(c.PublicURL); urlErr != nil {
			err = multierr.Append(err, errors.Wrap(urlErr, "invalid public URL"))
		}
	}

	return err
}

func checkURL(raw string) error {
	u, err := url.Parse(raw)
	if err != nil {
		return err
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return errors.Errorf("scheme %q is not http or https", u.Scheme)
	}
	if u.Host == "" {
		return errors.New("missing host")
	}
	return nil
}

// NewViper returns a viper instance with defaults and environment bindings.
func NewViper() *viper.Viper {
	v := viper.New()

	v.SetDefault(KeyHost, defaultHost)
	v.SetDefault(KeyPort, defaultPort)
	v.SetDefault(KeyTransport, TransportStdio)
	v.SetDefault(KeyWebhookTimeout, defaultTimeout)
	v.SetDefault(KeyMaxRetries, 0)
	v.SetDefault(KeyRetryDelay, 500*time.Millisecond)
	v.SetDefault(KeyLogLevel, "info")
	v.SetDefault(KeyLogFormat, "json")
	v.SetDefault(KeyShutdownTimeout, defaultShutdown)
	v.SetDefault(KeyEventBuffer, 100)
	v.SetDefault(KeySSEPath, DefaultSSEPath)
	v.SetDefault(KeyMessagePath, DefaultMessagePath)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_", ".", "_"))
	v.AutomaticEnv()

	// Historical names used by the n8n deployment.
	_ = v.BindEnv(KeyBaseURL, "N8N_BASE_URL", EnvPrefix+"_BASE_URL")
	_ = v.BindEnv(KeySecret, "N8N_SECRET", EnvPrefix+"_SECRET")
	_ = v.BindEnv(KeyPort, "PORT", EnvPrefix+"_PORT")

	return v
}

// BindFlags binds every flag of the set whose name matches a configuration
// key, after replacing dashes with underscores.
func BindFlags(v *viper.Viper, flags *pflag.FlagSet) error {
	var err error
	flags.VisitAll(func(f *pflag.Flag) {
		key := strings.ReplaceAll(f.Name, "-", "_")
		if bindErr := v.BindPFlag(key, f); bindErr != nil {
			err = multierr.Append(err, errors.Wrapf(bindErr, "failed to bind flag %s", f.Name))
		}
	})
	return err
}

// Load reads the optional config file and builds a validated Config.
func Load(v *viper.Viper) (*Config, error) {
	if path := v.GetString(KeyConfigFile); path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, errors.Wrapf(err, "failed to read config file %s", path)
		}
	}

	cfg := &Config{
		Name:            ServerName,
		Version:         ServerVersion,
		BaseURL:         strings.TrimSpace(v.GetString(KeyBaseURL)),
		Secret:          v.GetString(KeySecret),
		Host:            v.GetString(KeyHost),
		Port:            v.GetInt(KeyPort),
		PublicURL:       strings.TrimSpace(v.GetString(KeyPublicURL)),
		Transport:       strings.ToLower(strings.TrimSpace(v.GetString(KeyTransport))),
		WebhookTimeout:  v.GetDuration(KeyWebhookTimeout),
		MaxRetries:      v.GetInt(KeyMaxRetries),
		RetryDelay:      v.GetDuration(KeyRetryDelay),
		ToolsFile:       v.GetString(KeyToolsFile),
		LogLevel:        v.GetString(KeyLogLevel),
		LogFormat:       v.GetString(KeyLogFormat),
		ShutdownTimeout: v.GetDuration(KeyShutdownTimeout),
		EventBuffer:     v.GetInt(KeyEventBuffer),
		SSEPath:         strings.TrimSpace(v.GetString(KeySSEPath)),
		MessagePath:     strings.TrimSpace(v.GetString(KeyMessagePath)),
	}

	if err := cfg.Validate(); err != nil {
		return nil, errors.Wrap(err, "invalid configuration")
	}
	return cfg, nil
}
