package app

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/FreePeak/reservation-mcp/internal/config"
)

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the server version",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			_, err := fmt.Fprintf(cmd.OutOrStdout(), "%s %s\n", config.ServerName, config.ServerVersion)
			return err
		},
	}
}
