package cli

import (
	"context"
	"sync"

	"github.com/spf13/cobra"

	"github.com/doeshing/orbit-go/internal/app"
	"github.com/doeshing/orbit-go/internal/infrastructure/cli/commands"
	configinfra "github.com/doeshing/orbit-go/internal/infrastructure/config"
	"github.com/doeshing/orbit-go/internal/infrastructure/security"
)

// Options holds CLI-level configuration.
type Options struct {
	Verbose bool
	// Prompter answers shield confirmations. Nil selects a stdin prompter.
	Prompter *Prompter
}

// NewRootCmd wires the cobra root command. The container is built lazily by
// the first command that needs it, so `orbit version` and `orbit config`
// work even when the catalog or config is broken.
func NewRootCmd(opts Options) *cobra.Command {
	var (
		verbose    bool
		configPath string
	)

	prompter := opts.Prompter
	if prompter == nil {
		prompter = NewPrompter(nil, nil)
	}

	interactive := newProvider(func() app.Options {
		return app.Options{Verbose: opts.Verbose || verbose, ConfigPath: configPath, Confirm: confirmFunc(prompter)}
	})
	// The MCP server owns stdin, so it never prompts.
	headless := newProvider(func() app.Options {
		return app.Options{Verbose: opts.Verbose || verbose, ConfigPath: configPath}
	})
	loader := func() *configinfra.FileLoader { return configinfra.NewFileLoader(configPath) }

	root := &cobra.Command{
		Use:   "orbit",
		Short: "Orbit - macOS automation actions for humans and LLM agents",
		Long: "Orbit keeps a catalog of AppleScript actions, checks every invocation against a\n" +
			"safety shield and runs it through osascript. The same catalog is exported as\n" +
			"OpenAI tool schemas and served over MCP.",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable debug logging")
	root.PersistentFlags().StringVar(&configPath, "config", "", "Config file (default ~/.orbit/config.yaml, or $ORBIT_CONFIG)")

	root.AddCommand(
		commands.NewListCommand(interactive),
		commands.NewSearchCommand(interactive),
		commands.NewInfoCommand(interactive),
		commands.NewRunCommand(interactive),
		commands.NewBatchCommand(interactive),
		commands.NewToolCallCommand(headless),
		commands.NewSchemaCommand(interactive),
		commands.NewStatsCommand(interactive),
		commands.NewLintCommand(interactive),
		commands.NewHistoryCommand(interactive),
		commands.NewMCPCommand(headless),
		commands.NewConfigCommand(loader),
		commands.NewDoctorCommand(interactive),
		commands.NewVersionCommand(),
	)
	return root
}

// newProvider memoizes one container per process.
func newProvider(options func() app.Options) commands.ContainerFunc {
	var (
		once      sync.Once
		container *app.Container
		err       error
	)
	return func(ctx context.Context) (*app.Container, error) {
		once.Do(func() {
			container, err = app.BuildContainer(ctx, options())
		})
		return container, err
	}
}

func confirmFunc(p *Prompter) security.ConfirmFunc {
	if !p.Enabled() {
		return nil
	}
	return p.Confirm
}
