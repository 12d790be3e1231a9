package commands

import (
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"strings"

	"github.com/google/go-cmp/cmp"
	"github.com/google/shlex"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	configapp "github.com/doeshing/orbit-go/internal/application/config"
	"github.com/doeshing/orbit-go/internal/infrastructure/cli/helpers"
	configinfra "github.com/doeshing/orbit-go/internal/infrastructure/config"
)

const envKeyEditor = "EDITOR"

// LoaderFunc returns the config file loader. Config commands do not build the
// full container so they keep working when the file is invalid.
type LoaderFunc func() *configinfra.FileLoader

// NewConfigCommand creates the config command with all subcommands
func NewConfigCommand(loader LoaderFunc) *cobra.Command {
	configCmd := &cobra.Command{
		Use:   "config",
		Short: "Inspect and edit orbit configuration",
		RunE: func(cmd *cobra.Command, args []string) error {
			return showConfiguration(cmd, loader())
		},
	}

	configCmd.AddCommand(
		&cobra.Command{
			Use:   "show",
			Short: "Show full configuration",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				return showConfiguration(cmd, loader())
			},
		},
		&cobra.Command{
			Use:   "path",
			Short: "Print the configuration file path",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				fmt.Fprintln(cmd.OutOrStdout(), loader().Path())
				return nil
			},
		},
		&cobra.Command{
			Use:   "validate",
			Short: "Validate configuration file",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				cfg, err := loader().Load(cmd.Context())
				if err != nil {
					return fmt.Errorf("configuration validation failed: %w", err)
				}
				if err := configapp.Validate(cfg); err != nil {
					return fmt.Errorf("configuration validation failed: %w", err)
				}
				fmt.Fprintln(cmd.OutOrStdout(), MsgConfigurationValid)
				return nil
			},
		},
		&cobra.Command{
			Use:   "get <key>",
			Short: "Get a configuration value (e.g. execution.timeout)",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				return getConfigurationValue(cmd, loader(), args[0])
			},
		},
		&cobra.Command{
			Use:   "set <key> <value>",
			Short: "Set a configuration value (value accepts YAML syntax)",
			Args:  cobra.MinimumNArgs(2),
			RunE: func(cmd *cobra.Command, args []string) error {
				return setConfigurationValue(cmd, loader(), args[0], strings.Join(args[1:], " "))
			},
		},
		&cobra.Command{
			Use:   "edit",
			Short: "Edit configuration in $EDITOR",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				return editConfigurationInEditor(cmd, loader())
			},
		},
		&cobra.Command{
			Use:   "reset",
			Short: "Reset configuration to defaults",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				return resetConfigurationToDefaults(cmd.OutOrStdout(), loader())
			},
		},
		&cobra.Command{
			Use:   "diff",
			Short: "Show differences from the default configuration",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				return showConfigurationDiff(cmd, loader())
			},
		},
	)

	return configCmd
}

func showConfiguration(cmd *cobra.Command, loader *configinfra.FileLoader) error {
	cfg, err := loader.Load(cmd.Context())
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}
	return writeYAML(cmd.OutOrStdout(), cfg)
}

func getConfigurationValue(cmd *cobra.Command, loader *configinfra.FileLoader, key string) error {
	cfg, err := loader.Load(cmd.Context())
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}
	cfgMap, err := helpers.ConfigToMap(cfg)
	if err != nil {
		return err
	}
	value, found := helpers.TraverseNestedMap(cfgMap, helpers.SplitKeyPath(key))
	if !found {
		return fmt.Errorf("key %s not found in configuration", key)
	}
	return writeYAML(cmd.OutOrStdout(), value)
}

func setConfigurationValue(cmd *cobra.Command, loader *configinfra.FileLoader, key, raw string) error {
	cfg, err := loader.Load(cmd.Context())
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}
	cfgMap, err := helpers.ConfigToMap(cfg)
	if err != nil {
		return err
	}
	value, err := helpers.ParseYAMLValue(raw)
	if err != nil {
		return fmt.Errorf("failed to parse value: %w", err)
	}
	path := helpers.SplitKeyPath(key)
	if _, known := helpers.TraverseNestedMap(cfgMap, path[:max(len(path)-1, 0)]); !known {
		return fmt.Errorf("unknown configuration section in %s", key)
	}
	if !helpers.SetNestedMapValue(cfgMap, path, value) {
		return fmt.Errorf("unable to set key %s", key)
	}
	updated, err := helpers.MapToConfig(cfgMap)
	if err != nil {
		return err
	}
	if err := helpers.SaveConfigWithValidation(loader, updated); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "%s updated in %s\n", key, loader.Path())
	return nil
}

func editConfigurationInEditor(cmd *cobra.Command, loader *configinfra.FileLoader) error {
	// Load first so the file exists before the editor opens it.
	if _, err := loader.Load(cmd.Context()); err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}
	argv, err := editorCommand()
	if err != nil {
		return err
	}
	editor := exec.Command(argv[0], append(argv[1:], loader.Path())...)
	editor.Stdin = os.Stdin
	editor.Stdout = os.Stdout
	editor.Stderr = os.Stderr
	if err := editor.Run(); err != nil {
		return fmt.Errorf("failed to run editor %s: %w", argv[0], err)
	}
	return nil
}

func editorCommand() ([]string, error) {
	editor := os.Getenv(envKeyEditor)
	if editor == "" {
		editor = DefaultEditorCommand
	}
	argv, err := shlex.Split(editor)
	if err != nil {
		return nil, fmt.Errorf("invalid %s: %w", envKeyEditor, err)
	}
	if len(argv) == 0 {
		return nil, errors.New("no editor configured")
	}
	return argv, nil
}

func resetConfigurationToDefaults(out io.Writer, loader *configinfra.FileLoader) error {
	if _, err := os.Stat(loader.Path()); err == nil {
		if _, err := loader.Backup(); err != nil {
			return fmt.Errorf("failed to create configuration backup: %w", err)
		}
	}
	cfg, err := loader.Reset()
	if err != nil {
		return fmt.Errorf("failed to reset configuration: %w", err)
	}
	fmt.Fprintf(out, "Configuration reset at %s\n", loader.Path())
	return writeYAML(out, cfg)
}

func showConfigurationDiff(cmd *cobra.Command, loader *configinfra.FileLoader) error {
	current, err := loader.Load(cmd.Context())
	if err != nil {
		return fmt.Errorf("failed to load current configuration: %w", err)
	}
	defaults, err := configinfra.Defaults()
	if err != nil {
		return err
	}
	diff := cmp.Diff(defaults, current)
	if diff == "" {
		fmt.Fprintln(cmd.OutOrStdout(), MsgNoDifferencesFromDefault)
		return nil
	}
	fmt.Fprintln(cmd.OutOrStdout(), diff)
	return nil
}

func writeYAML(out io.Writer, v any) error {
	data, err := yaml.Marshal(v)
	if err != nil {
		return fmt.Errorf("failed to marshal configuration: %w", err)
	}
	_, err = out.Write(data)
	return err
}

var _ helpers.ConfigStore = (*configinfra.FileLoader)(nil)
