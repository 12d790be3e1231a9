package toolcall

import (
	"context"
	"testing"

	openai "github.com/sashabaranov/go-openai"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/doeshing/orbit-go/internal/domain"
)

type fakeInvoker struct {
	calls []domain.ToolCall
}

func (f *fakeInvoker) ExportToolSchema() []domain.ToolSchema {
	action := &domain.ActionDefinition{
		Name:        "system_set_volume",
		Description: "Set output volume",
		Parameters: []domain.ParameterSpec{
			{Name: "level", Type: domain.ParamInteger, Required: true},
		},
	}
	return []domain.ToolSchema{action.ToolSchema()}
}

func (f *fakeInvoker) ExecuteToolCall(_ context.Context, call domain.ToolCall) (domain.InvocationResult, error) {
	f.calls = append(f.calls, call)
	if call.Name == "broken" {
		return domain.InvocationResult{}, &domain.NotFoundError{Name: call.Name}
	}
	return domain.InvocationResult{Value: map[string]any{"volume": 50}}, nil
}

func TestAdapterTools(t *testing.T) {
	tools := New(&fakeInvoker{}).Tools()
	require.Len(t, tools, 1)
	assert.Equal(t, openai.ToolTypeFunction, tools[0].Type)
	assert.Equal(t, "system_set_volume", tools[0].Function.Name)
	params, ok := tools[0].Function.Parameters.(domain.ToolParameters)
	require.True(t, ok)
	assert.Equal(t, []string{"level"}, params.Required)
}

func TestAdapterExecute(t *testing.T) {
	t.Run("Should return a tool message with the JSON result", func(t *testing.T) {
		inv := &fakeInvoker{}
		msg := New(inv).Execute(context.Background(), openai.ToolCall{
			ID:       "call_1",
			Type:     openai.ToolTypeFunction,
			Function: openai.FunctionCall{Name: "system_set_volume", Arguments: `{"level":50}`},
		})

		assert.Equal(t, openai.ChatMessageRoleTool, msg.Role)
		assert.Equal(t, "call_1", msg.ToolCallID)
		assert.JSONEq(t, `{"volume":50}`, msg.Content)
		require.Len(t, inv.calls, 1)
		assert.Equal(t, `{"level":50}`, inv.calls[0].Arguments)
	})

	t.Run("Should report failures in the content", func(t *testing.T) {
		msgs := New(&fakeInvoker{}).ExecuteAll(context.Background(), []openai.ToolCall{
			{ID: "a", Function: openai.FunctionCall{Name: "broken"}},
			{ID: "b", Function: openai.FunctionCall{Name: "system_set_volume", Arguments: `{}`}},
		})

		require.Len(t, msgs, 2)
		assert.Contains(t, msgs[0].Content, "error: ")
		assert.Contains(t, msgs[0].Content, "not found")
		assert.Equal(t, "b", msgs[1].ToolCallID)
	})
}
