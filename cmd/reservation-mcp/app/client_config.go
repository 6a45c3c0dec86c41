package app

import (
	"os"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/FreePeak/reservation-mcp/internal/config"
	"github.com/FreePeak/reservation-mcp/internal/infrastructure/server/client"
)

type clientConfigOptions struct {
	client    string
	name      string
	transport string
	url       string
	command   string
	baseURL   string
}

func newClientConfigCmd() *cobra.Command {
	opts := clientConfigOptions{}

	cmd := &cobra.Command{
		Use:   "client-config",
		Short: "Print the configuration snippet that registers this server with an MCP client",
		Long: `Print the configuration snippet that registers this server with an MCP client.

With --transport stdio the client spawns this binary; with sse or http it
connects to --url instead.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			launch, clientType, err := opts.launch()
			if err != nil {
				return err
			}

			out, err := client.NewConfigRegistry().GetConfig(clientType).Render(launch)
			if err != nil {
				return err
			}
			_, err = cmd.OutOrStdout().Write(append(out, '\n'))
			return err
		},
	}

	flags := cmd.Flags()
	flags.StringVar(&opts.client, "client", string(client.ClientTypeClaude), "Client to configure (claude, cursor, generic)")
	flags.StringVar(&opts.name, "name", "reservation", "Server name in the client configuration")
	flags.StringVar(&opts.transport, "transport", config.TransportStdio, "Transport the client uses (stdio, sse, http)")
	flags.StringVar(&opts.url, "url", "", "Server URL for the sse and http transports")
	flags.StringVar(&opts.command, "command", "", "Binary to spawn for stdio (defaults to this executable)")
	flags.StringVar(&opts.baseURL, "base-url", "", "N8N_BASE_URL passed to the spawned server")

	return cmd
}

func (o clientConfigOptions) launch() (client.Launch, client.ClientType, error) {
	clientType, err := client.ParseClientType(o.client)
	if err != nil {
		return client.Launch{}, "", err
	}

	launch := client.Launch{ServerName: o.name}

	switch o.transport {
	case config.TransportStdio:
		launch.Command = o.command
		if launch.Command == "" {
			exe, err := os.Executable()
			if err != nil {
				return client.Launch{}, "", errors.Wrap(err, "failed to locate executable")
			}
			launch.Command = exe
		}
		launch.Args = []string{"serve", "--transport", config.TransportStdio}
		if o.baseURL != "" {
			launch.Env = map[string]string{"N8N_BASE_URL": o.baseURL}
		}
	case config.TransportSSE, config.TransportHTTP:
		if o.url == "" {
			return client.Launch{}, "", errors.Errorf("--url is required for the %s transport", o.transport)
		}
		launch.URL = o.url
	default:
		return client.Launch{}, "", errors.Errorf("unknown transport %q", o.transport)
	}

	return launch, clientType, nil
}
