// Package app provides the command line interface of the reservation MCP server.
package app

import (
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/FreePeak/reservation-mcp/internal/config"
	"github.com/FreePeak/reservation-mcp/internal/infrastructure/logging"
)

// NewRootCmd creates the root command with every subcommand attached.
func NewRootCmd() *cobra.Command {
	v := config.NewViper()

	rootCmd := &cobra.Command{
		Use:   "reservation-mcp",
		Short: "MCP server that forwards reservation tools to n8n webhooks",
		Long: `reservation-mcp exposes check_availability and create_booking as MCP tools
and forwards each call to the matching n8n webhook. It speaks MCP over stdio,
Server-Sent Events and stateless HTTP.`,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return cmd.Help()
		},
	}

	flags := rootCmd.PersistentFlags()
	flags.String("config", "", "Path to a YAML config file")
	flags.String("log-level", "info", "Log level (debug, info, warn, error)")
	flags.String("log-format", logging.EncodingJSON, "Log encoding (json, console)")
	flags.String("tools-file", "", "YAML file replacing the built-in tool definitions")

	rootCmd.AddCommand(
		newServeCmd(v),
		newToolsCmd(v),
		newClientConfigCmd(),
		newVersionCmd(),
	)

	return rootCmd
}

// loadConfig binds the flags of cmd, including inherited ones, and loads
// the configuration.
func loadConfig(v *viper.Viper, cmd *cobra.Command) (*config.Config, error) {
	if err := config.BindFlags(v, cmd.Flags()); err != nil {
		return nil, err
	}
	return config.Load(v)
}

// newLogger builds the process logger from the configuration. Logs always go
// to stderr.
func newLogger(cfg *config.Config) (*logging.Logger, error) {
	level, err := logging.ParseLevel(cfg.LogLevel)
	if err != nil {
		return nil, err
	}

	logCfg := logging.DefaultConfig()
	logCfg.Level = level
	if cfg.LogFormat != "" {
		logCfg.Encoding = cfg.LogFormat
	}
	logCfg.InitialFields = logging.Fields{"service": cfg.Name, "version": cfg.Version}

	logger, err := logging.New(logCfg)
	if err != nil {
		return nil, errors.Wrap(err, "failed to create logger")
	}
	logging.SetDefault(logger)
	return logger, nil
}
