package executor

import (
	"context"
	"runtime"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func shellRunner(t *testing.T) *ScriptRunner {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("requires /bin/sh")
	}
	r, err := NewScriptRunner("/bin/sh", "-c")
	require.NoError(t, err)
	return r
}

func TestNewScriptRunnerDefaults(t *testing.T) {
	r, err := NewScriptRunner("", "")
	require.NoError(t, err)
	assert.Equal(t, []string{"osascript", "-e", `return "hi"`}, r.Command(`return "hi"`))
}

func TestNewScriptRunnerSplitsInterpreter(t *testing.T) {
	r, err := NewScriptRunner("osascript -l 'JavaScript'", "")
	require.NoError(t, err)
	assert.Equal(t, []string{"osascript", "-l", "JavaScript", "-e", "x"}, r.Command("x"))

	_, err = NewScriptRunner("   ", "")
	assert.Error(t, err)
}

func TestScriptRunnerCapturesOutput(t *testing.T) {
	r := shellRunner(t)

	result, err := r.Run(context.Background(), "echo hello; echo oops >&2", time.Second*5)

	require.NoError(t, err)
	assert.Equal(t, "hello\n", result.Stdout)
	assert.Equal(t, "oops\n", result.Stderr)
	assert.Zero(t, result.ExitCode)
	assert.False(t, result.TimedOut)
}

func TestScriptRunnerReportsExitCode(t *testing.T) {
	r := shellRunner(t)

	result, err := r.Run(context.Background(), "echo failed >&2; exit 3", time.Second*5)

	require.NoError(t, err)
	assert.Equal(t, 3, result.ExitCode)
	assert.Equal(t, "failed\n", result.Stderr)
}

func TestScriptRunnerTimeout(t *testing.T) {
	r := shellRunner(t)

	start := time.Now()
	result, err := r.Run(context.Background(), "exec sleep 5", 100*time.Millisecond)

	require.NoError(t, err)
	assert.True(t, result.TimedOut)
	assert.Less(t, time.Since(start), 4*time.Second)
}

func TestScriptRunnerMissingInterpreter(t *testing.T) {
	r, err := NewScriptRunner("/definitely/not/an/interpreter", "-e")
	require.NoError(t, err)

	_, err = r.Run(context.Background(), "x", time.Second)
	assert.Error(t, err)
}
