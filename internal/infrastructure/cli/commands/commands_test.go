package commands

import (
	"bytes"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/doeshing/orbit-go/internal/domain"
)

func TestDecodeToolCalls(t *testing.T) {
	t.Run("Should accept a single call object", func(t *testing.T) {
		calls, err := decodeToolCalls([]byte(` {"id":"c1","type":"function","function":{"name":"get_volume","arguments":"{}"}}`))
		require.NoError(t, err)
		require.Len(t, calls, 1)
		assert.Equal(t, "get_volume", calls[0].Function.Name)
	})

	t.Run("Should accept an array of calls", func(t *testing.T) {
		calls, err := decodeToolCalls([]byte(`[{"id":"a","function":{"name":"x"}},{"id":"b","function":{"name":"y"}}]`))
		require.NoError(t, err)
		assert.Len(t, calls, 2)
	})

	t.Run("Should reject anything else", func(t *testing.T) {
		_, err := decodeToolCalls([]byte(`"nope"`))
		assert.Error(t, err)
	})
}

func TestFilterActions(t *testing.T) {
	actions := []*domain.ActionDefinition{
		{Name: "a", Category: "notes", Risk: domain.RiskSafe},
		{Name: "b", Category: "notes", Risk: domain.RiskDangerous},
		{Name: "c", Category: "music", Risk: domain.RiskSafe},
	}

	out, err := filterActions(actions, "notes", "")
	require.NoError(t, err)
	assert.Len(t, out, 2)

	out, err = filterActions(actions, "", "SAFE")
	require.NoError(t, err)
	assert.Len(t, out, 2)

	out, err = filterActions(actions, "notes", "dangerous")
	require.NoError(t, err)
	require.Len(t, out, 1)
	assert.Equal(t, "b", out[0].Name)

	_, err = filterActions(actions, "", "extreme")
	assert.Error(t, err)
}

func TestReportBatch(t *testing.T) {
	reqs := []domain.InvocationRequest{{Action: "a"}, {Action: "b"}}
	outcomes := []domain.InvocationOutcome{
		{Result: domain.InvocationResult{Value: "done"}},
		{Err: errors.New("boom")},
	}

	var out bytes.Buffer
	err := reportBatch(&out, reqs, outcomes, false)
	require.Error(t, err)
	assert.Equal(t, "1 of 2 invocations failed", err.Error())
	assert.Equal(t, "[0] a: done\n[1] b: error: boom\n", out.String())
}

func TestEditorCommand(t *testing.T) {
	t.Setenv(envKeyEditor, `code --wait`)
	argv, err := editorCommand()
	require.NoError(t, err)
	assert.Equal(t, []string{"code", "--wait"}, argv)

	t.Setenv(envKeyEditor, "")
	argv, err = editorCommand()
	require.NoError(t, err)
	assert.Equal(t, []string{DefaultEditorCommand}, argv)
}
