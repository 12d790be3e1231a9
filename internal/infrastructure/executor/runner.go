package executor

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"time"

	"github.com/google/shlex"

	"github.com/doeshing/orbit-go/internal/domain"
	"github.com/doeshing/orbit-go/internal/ports"
)

// waitDelay bounds how long Run waits for output pipes after the process is
// killed; scripts that spawn children would otherwise hold them open.
const waitDelay = 2 * time.Second

// ScriptRunner runs rendered scripts through an interpreter such as osascript.
type ScriptRunner struct {
	argv []string
	flag string
}

// NewScriptRunner builds a runner. interpreter may carry arguments
// ("osascript -l JavaScript") and defaults to osascript; flag precedes the
// script and defaults to -e.
func NewScriptRunner(interpreter, flag string) (*ScriptRunner, error) {
	if interpreter == "" {
		interpreter = domain.DefaultInterpreter
	}
	if flag == "" {
		flag = domain.DefaultScriptFlag
	}
	argv, err := shlex.Split(interpreter)
	if err != nil {
		return nil, fmt.Errorf("parse interpreter %q: %w", interpreter, err)
	}
	if len(argv) == 0 {
		return nil, fmt.Errorf("empty interpreter")
	}
	return &ScriptRunner{argv: argv, flag: flag}, nil
}

// Command returns the argv Run would execute for script.
func (r *ScriptRunner) Command(script string) []string {
	args := append([]string(nil), r.argv...)
	return append(args, r.flag, script)
}

// Run implements ports.ScriptRunner.
func (r *ScriptRunner) Run(ctx context.Context, script string, timeout time.Duration) (domain.ExecutionResult, error) {
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	argv := r.Command(script)
	c := exec.CommandContext(ctx, argv[0], argv[1:]...)
	c.WaitDelay = waitDelay
	var stdout, stderr bytes.Buffer
	c.Stdout = &stdout
	c.Stderr = &stderr

	start := time.Now()
	err := c.Run()
	duration := time.Since(start).Milliseconds()

	result := domain.ExecutionResult{
		Stdout:     stdout.String(),
		Stderr:     stderr.String(),
		DurationMS: duration,
	}
	if ctx.Err() != nil && errors.Is(ctx.Err(), context.DeadlineExceeded) {
		result.TimedOut = true
		result.ExitCode = -1
		return result, nil
	}
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		result.ExitCode = exitErr.ExitCode()
		return result, nil
	}
	if err != nil {
		result.ExitCode = -1
		return result, err
	}
	return result, nil
}

var _ ports.ScriptRunner = (*ScriptRunner)(nil)
