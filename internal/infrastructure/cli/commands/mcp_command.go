package commands

import (
	"github.com/spf13/cobra"

	"github.com/doeshing/orbit-go/internal/infrastructure/mcpserver"
	"github.com/doeshing/orbit-go/internal/version"
)

// NewMCPCommand creates the mcp command, which serves every registered
// action as an MCP tool over stdio until stdin closes.
func NewMCPCommand(provider ContainerFunc) *cobra.Command {
	return &cobra.Command{
		Use:   "mcp",
		Short: "Serve actions as MCP tools over stdio",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			container, err := provider(cmd.Context())
			if err != nil {
				return err
			}
			srv, err := mcpserver.New(container.Control, version.Version, container.Logger)
			if err != nil {
				return err
			}
			container.Logger.Info("mcp server starting", map[string]interface{}{"tools": len(srv.Tools())})
			return srv.ServeStdio()
		},
	}
}
