package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/doeshing/orbit-go/internal/infrastructure/toolcall"
)

// NewSchemaCommand creates the schema command
func NewSchemaCommand(provider ContainerFunc) *cobra.Command {
	var format string

	cmd := &cobra.Command{
		Use:   "schema",
		Short: "Export action schemas for LLM tool calling",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			container, err := provider(cmd.Context())
			if err != nil {
				return err
			}
			control := container.Control
			switch format {
			case SchemaFormatOpenAI:
				return writeJSON(cmd.OutOrStdout(), toolcall.New(control).Tools())
			case SchemaFormatPlain:
				return writeJSON(cmd.OutOrStdout(), control.ExportToolSchema())
			case SchemaFormatCatalog:
				return writeJSON(cmd.OutOrStdout(), control.ExportCatalog())
			default:
				return fmt.Errorf("unknown format %q (want %s, %s or %s)", format, SchemaFormatOpenAI, SchemaFormatPlain, SchemaFormatCatalog)
			}
		},
	}

	cmd.Flags().StringVarP(&format, "format", "f", SchemaFormatOpenAI, "Output format: openai, plain or catalog")
	return cmd
}
