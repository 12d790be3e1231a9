package commands

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/doeshing/orbit-go/internal/domain"
	"github.com/doeshing/orbit-go/internal/infrastructure/catalog"
	"github.com/doeshing/orbit-go/internal/infrastructure/cli/helpers"
)

// NewListCommand creates the list command
func NewListCommand(provider ContainerFunc) *cobra.Command {
	var (
		category string
		safety   string
		details  bool
		count    bool
		asJSON   bool
	)

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List registered actions",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			container, err := provider(cmd.Context())
			if err != nil {
				return err
			}
			reg := container.Control.Registry()
			actions := reg.ListAll()
			if category != "" {
				actions = reg.ListByCategory(category)
			}
			actions, err = filterActions(actions, "", safety)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			switch {
			case count:
				fmt.Fprintln(out, len(actions))
				return nil
			case asJSON:
				return writeJSON(out, actions)
			}
			helpers.RenderActionList(out, actions, details)
			return nil
		},
	}

	cmd.Flags().StringVarP(&category, "category", "c", "", "Only show actions in this category")
	cmd.Flags().StringVarP(&safety, "safety", "s", "", "Only show actions with this risk level (safe, moderate, dangerous, critical)")
	cmd.Flags().BoolVarP(&details, "details", "d", false, "Show parameters")
	cmd.Flags().BoolVar(&count, "count", false, "Only print the number of matching actions")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print the catalog form as JSON")
	return cmd
}

// NewSearchCommand creates the search command
func NewSearchCommand(provider ContainerFunc) *cobra.Command {
	var (
		category string
		asJSON   bool
	)

	cmd := &cobra.Command{
		Use:   "search <query>",
		Short: "Search actions by name or description",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			container, err := provider(cmd.Context())
			if err != nil {
				return err
			}
			actions, err := filterActions(container.Control.Registry().Search(args[0]), category, "")
			if err != nil {
				return err
			}
			if asJSON {
				return writeJSON(cmd.OutOrStdout(), actions)
			}
			helpers.RenderActionList(cmd.OutOrStdout(), actions, false)
			return nil
		},
	}

	cmd.Flags().StringVarP(&category, "category", "c", "", "Restrict results to a category")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print results as JSON")
	return cmd
}

// NewInfoCommand creates the info command
func NewInfoCommand(provider ContainerFunc) *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "info <action>",
		Short: "Show details of one action",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			container, err := provider(cmd.Context())
			if err != nil {
				return err
			}
			action, ok := container.Control.Registry().Get(args[0])
			if !ok {
				return &domain.NotFoundError{Name: args[0]}
			}
			if asJSON {
				return writeJSON(cmd.OutOrStdout(), action)
			}
			helpers.RenderActionInfo(cmd.OutOrStdout(), action)
			return nil
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "Print the catalog form as JSON")
	return cmd
}

// NewStatsCommand creates the stats command
func NewStatsCommand(provider ContainerFunc) *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Show catalog statistics",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			container, err := provider(cmd.Context())
			if err != nil {
				return err
			}
			reg := container.Control.Registry()
			if asJSON {
				return writeJSON(cmd.OutOrStdout(), reg.Stats())
			}
			helpers.RenderRegistryStats(cmd.OutOrStdout(), reg.Stats(), reg.Categories())
			return nil
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "Print statistics as JSON")
	return cmd
}

// NewLintCommand creates the lint command. Without arguments it checks the
// registered catalog; with directories it loads and checks those instead.
func NewLintCommand(provider ContainerFunc) *cobra.Command {
	return &cobra.Command{
		Use:   "lint [dir...]",
		Short: "Check catalog definitions and their tool schemas",
		RunE: func(cmd *cobra.Command, args []string) error {
			container, err := provider(cmd.Context())
			if err != nil {
				return err
			}
			actions := container.Control.ExportCatalog()
			if len(args) > 0 {
				loader := catalog.NewLoader(container.Renderer, catalog.Options{})
				actions = nil
				for _, dir := range args {
					loaded, err := loader.LoadDir(dir)
					if err != nil {
						return fmt.Errorf("catalog %s: %w", dir, err)
					}
					actions = append(actions, loaded...)
				}
			}
			return reportLint(cmd.OutOrStdout(), catalog.Lint(actions))
		},
	}
}

func reportLint(out io.Writer, issues []catalog.Issue) error {
	if len(issues) == 0 {
		fmt.Fprintln(out, MsgCatalogClean)
		return nil
	}
	for _, issue := range issues {
		fmt.Fprintln(out, issue.String())
	}
	return fmt.Errorf("%d catalog issue(s)", len(issues))
}

func filterActions(actions []*domain.ActionDefinition, category, safety string) ([]*domain.ActionDefinition, error) {
	var level domain.RiskLevel
	if safety != "" {
		parsed, err := domain.ParseRiskLevel(safety)
		if err != nil {
			return nil, err
		}
		level = parsed
	}
	out := make([]*domain.ActionDefinition, 0, len(actions))
	for _, action := range actions {
		if category != "" && action.Category != category {
			continue
		}
		if level != "" && action.Risk != level {
			continue
		}
		out = append(out, action)
	}
	return out, nil
}

func writeJSON(out io.Writer, v any) error {
	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
