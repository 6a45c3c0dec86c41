package app

import (
	"encoding/json"
	"io"
	"strings"

	"github.com/olekukonko/tablewriter"
	"github.com/olekukonko/tablewriter/tw"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/FreePeak/reservation-mcp/internal/builder"
	"github.com/FreePeak/reservation-mcp/internal/domain"
	"github.com/FreePeak/reservation-mcp/internal/domain/shared"
	"github.com/FreePeak/reservation-mcp/internal/infrastructure/logging"
	"github.com/FreePeak/reservation-mcp/internal/infrastructure/server"
)

func newToolsCmd(v *viper.Viper) *cobra.Command {
	var format string

	cmd := &cobra.Command{
		Use:   "tools",
		Short: "List the tools the server exposes",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig(v, cmd)
			if err != nil {
				return err
			}

			repo, err := builder.NewServerBuilder(cfg).
				WithLogger(logging.NewNop()).
				BuildToolRepository()
			if err != nil {
				return err
			}

			switch format {
			case "json":
				return renderToolsJSON(cmd.OutOrStdout(), repo.ListTools())
			case "table":
				return renderToolsTable(cmd.OutOrStdout(), repo.ListTools())
			default:
				return errors.Errorf("unknown format %q (want table or json)", format)
			}
		},
	}

	cmd.Flags().StringVar(&format, "format", "table", "Output format (table, json)")
	return cmd
}

// renderToolsJSON prints the tools exactly as tools/list advertises them.
func renderToolsJSON(w io.Writer, tools []domain.ToolDefinition) error {
	wire := make([]shared.Tool, 0, len(tools))
	for _, tool := range tools {
		wire = append(wire, server.ToWireTool(tool))
	}

	data, err := json.MarshalIndent(shared.ListToolsResult{Tools: wire}, "", "  ")
	if err != nil {
		return errors.Wrap(err, "failed to encode tools")
	}
	_, err = w.Write(append(data, '\n'))
	return err
}

func renderToolsTable(w io.Writer, tools []domain.ToolDefinition) error {
	headers := []string{"Tool", "Webhook Path", "Required", "Optional"}

	table := tablewriter.NewWriter(w)
	table.Options(
		tablewriter.WithHeader(headers),
		tablewriter.WithRendition(
			tw.Rendition{
				Borders: tw.Border{
					Left:   tw.State(1),
					Top:    tw.State(1),
					Right:  tw.State(1),
					Bottom: tw.State(1),
				},
			},
		),
		tablewriter.WithAlignment(tw.MakeAlign(len(headers), tw.AlignLeft)),
	)

	for _, tool := range tools {
		var required, optional []string
		for _, field := range tool.InputSchema {
			entry := field.Name + " (" + string(field.Type) + ")"
			if field.Required {
				required = append(required, entry)
			} else {
				optional = append(optional, entry)
			}
		}
		if err := table.Append([]string{
			tool.Name,
			tool.TargetPath,
			strings.Join(required, ", "),
			strings.Join(optional, ", "),
		}); err != nil {
			return errors.Wrap(err, "failed to append row")
		}
	}

	if err := table.Render(); err != nil {
		return errors.Wrap(err, "failed to render table")
	}
	return nil
}
