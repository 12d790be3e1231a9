package commands

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/mattn/go-isatty"
	openai "github.com/sashabaranov/go-openai"
	"github.com/spf13/cobra"

	"github.com/doeshing/orbit-go/internal/app"
	"github.com/doeshing/orbit-go/internal/domain"
	"github.com/doeshing/orbit-go/internal/infrastructure/cli/helpers"
	"github.com/doeshing/orbit-go/internal/infrastructure/toolcall"
)

// invocationView is the JSON form of a successful invocation.
type invocationView struct {
	ID         string `json:"id"`
	Action     string `json:"action"`
	Value      any    `json:"value"`
	Attempts   int    `json:"attempts"`
	DurationMS int64  `json:"duration_ms"`
	Error      string `json:"error,omitempty"`
}

func newInvocationView(action string, result domain.InvocationResult, err error) invocationView {
	view := invocationView{
		ID:         result.ID,
		Action:     action,
		Value:      result.Value,
		Attempts:   result.Attempts,
		DurationMS: result.Duration.Milliseconds(),
	}
	if err != nil {
		view.Error = err.Error()
	}
	return view
}

// NewRunCommand creates the run command
func NewRunCommand(provider ContainerFunc) *cobra.Command {
	var (
		bypass     bool
		timeout    time.Duration
		attempts   int
		asJSON     bool
		raw        bool
		copyResult bool
	)

	cmd := &cobra.Command{
		Use:   "run <action> [json | key=value...]",
		Short: "Invoke an action",
		Long: "Invoke an action by name. Parameters are either one JSON object or key=value pairs;\n" +
			"values are read as YAML, so count=3 is a number and enabled=true a boolean.",
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			container, err := provider(cmd.Context())
			if err != nil {
				return err
			}
			params, err := helpers.ParseInvocationArgs(args[1:])
			if err != nil {
				return err
			}
			req := domain.InvocationRequest{
				Action:       args[0],
				Parameters:   params,
				BypassPolicy: bypass,
				Timeout:      timeout,
				Attempts:     attempts,
			}

			stop := startSpinner(cmd, container, req)
			result, err := container.Control.Invoke(cmd.Context(), req)
			stop()
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			switch {
			case asJSON:
				if err := writeJSON(out, newInvocationView(req.Action, result, nil)); err != nil {
					return err
				}
			case raw:
				fmt.Fprint(out, result.Raw)
			default:
				helpers.RenderResult(out, result, isVerbose(cmd))
			}

			if copyResult {
				if err := helpers.NewClipboard().Copy(app.FormatValue(result.Value)); err != nil {
					fmt.Fprintf(cmd.ErrOrStderr(), "warning: copy to clipboard failed: %v\n", err)
				}
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&bypass, "bypass-shield", false, "Skip the safety shield (use with care)")
	cmd.Flags().DurationVar(&timeout, "timeout", 0, "Override the execution timeout")
	cmd.Flags().IntVar(&attempts, "retry", 0, "Retry failed executions up to this many total attempts")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print the result as JSON")
	cmd.Flags().BoolVar(&raw, "raw", false, "Print the unparsed script output")
	cmd.Flags().BoolVarP(&copyResult, "copy", "c", false, "Copy the result to the clipboard")
	return cmd
}

// batchEntry is one line of a batch file.
type batchEntry struct {
	Action     string         `json:"action"`
	Parameters map[string]any `json:"parameters"`
}

// NewBatchCommand creates the batch command
func NewBatchCommand(provider ContainerFunc) *cobra.Command {
	var (
		parallel int
		bypass   bool
		asJSON   bool
	)

	cmd := &cobra.Command{
		Use:   "batch [file]",
		Short: "Invoke several actions concurrently",
		Long: "Read a JSON array of {\"action\": ..., \"parameters\": {...}} objects from file\n" +
			"(or stdin when omitted or \"-\") and invoke them with bounded parallelism.",
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := readInput(cmd, args)
			if err != nil {
				return err
			}
			var entries []batchEntry
			if err := json.Unmarshal(data, &entries); err != nil {
				return fmt.Errorf("batch input is not a JSON array of invocations: %w", err)
			}
			container, err := provider(cmd.Context())
			if err != nil {
				return err
			}

			reqs := make([]domain.InvocationRequest, len(entries))
			for i, entry := range entries {
				reqs[i] = domain.InvocationRequest{Action: entry.Action, Parameters: entry.Parameters, BypassPolicy: bypass}
			}
			outcomes := container.Control.InvokeBatch(cmd.Context(), reqs, parallel)
			return reportBatch(cmd.OutOrStdout(), reqs, outcomes, asJSON)
		},
	}

	cmd.Flags().IntVarP(&parallel, "parallel", "p", DefaultBatchParallelism, "Maximum invocations in flight")
	cmd.Flags().BoolVar(&bypass, "bypass-shield", false, "Skip the safety shield for every entry")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print outcomes as JSON")
	return cmd
}

func reportBatch(out io.Writer, reqs []domain.InvocationRequest, outcomes []domain.InvocationOutcome, asJSON bool) error {
	failed := 0
	views := make([]invocationView, len(outcomes))
	for i, outcome := range outcomes {
		if outcome.Err != nil {
			failed++
		}
		views[i] = newInvocationView(reqs[i].Action, outcome.Result, outcome.Err)
	}
	if asJSON {
		if err := writeJSON(out, views); err != nil {
			return err
		}
	} else {
		for i, view := range views {
			if view.Error != "" {
				fmt.Fprintf(out, "[%d] %s: error: %s\n", i, view.Action, view.Error)
				continue
			}
			fmt.Fprintf(out, "[%d] %s: %s\n", i, view.Action, app.FormatValue(view.Value))
		}
	}
	if failed > 0 {
		return fmt.Errorf("%d of %d invocations failed", failed, len(outcomes))
	}
	return nil
}

// NewToolCallCommand creates the tool-call command
func NewToolCallCommand(provider ContainerFunc) *cobra.Command {
	return &cobra.Command{
		Use:   "tool-call [file]",
		Short: "Execute OpenAI tool calls and print the tool messages",
		Long: "Read one OpenAI tool call object or an array of them from file (or stdin)\n" +
			"and print the resulting role=tool chat messages as JSON.",
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := readInput(cmd, args)
			if err != nil {
				return err
			}
			calls, err := decodeToolCalls(data)
			if err != nil {
				return err
			}
			container, err := provider(cmd.Context())
			if err != nil {
				return err
			}
			messages := toolcall.New(container.Control).ExecuteAll(cmd.Context(), calls)
			return writeJSON(cmd.OutOrStdout(), messages)
		},
	}
}

func decodeToolCalls(data []byte) ([]openai.ToolCall, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) > 0 && trimmed[0] == '{' {
		var call openai.ToolCall
		if err := json.Unmarshal(trimmed, &call); err != nil {
			return nil, fmt.Errorf("invalid tool call: %w", err)
		}
		return []openai.ToolCall{call}, nil
	}
	var calls []openai.ToolCall
	if err := json.Unmarshal(trimmed, &calls); err != nil {
		return nil, fmt.Errorf("invalid tool calls: %w", err)
	}
	return calls, nil
}

func readInput(cmd *cobra.Command, args []string) ([]byte, error) {
	if len(args) == 0 || args[0] == "-" {
		return io.ReadAll(cmd.InOrStdin())
	}
	return os.ReadFile(args[0])
}

// startSpinner animates stderr while an action that needs no confirmation
// runs. It returns the function that stops it.
func startSpinner(cmd *cobra.Command, container *app.Container, req domain.InvocationRequest) func() {
	noop := func() {}
	if isVerbose(cmd) || !isatty.IsTerminal(os.Stderr.Fd()) {
		return noop
	}
	action, ok := container.Control.Registry().Get(req.Action)
	if !ok {
		return noop
	}
	if !req.BypassPolicy {
		decision, err := container.Shield.Decide(action, req.Parameters)
		if err != nil || decision != domain.DecisionAllow {
			return noop
		}
	}
	spinner := helpers.NewSpinner(os.Stderr, action.Name)
	spinner.Start()
	return spinner.Stop
}

func isVerbose(cmd *cobra.Command) bool {
	verbose, err := cmd.Flags().GetBool("verbose")
	return err == nil && verbose
}
