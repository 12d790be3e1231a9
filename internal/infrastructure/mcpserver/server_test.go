package mcpserver

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/doeshing/orbit-go/internal/domain"
	"github.com/doeshing/orbit-go/internal/pkg/logger"
)

type fakeInvoker struct {
	gotParams map[string]any
}

func (f *fakeInvoker) ExportToolSchema() []domain.ToolSchema {
	return []domain.ToolSchema{
		(&domain.ActionDefinition{
			Name:        "notes_create",
			Description: "Create a note",
			Parameters:  []domain.ParameterSpec{{Name: "title", Type: domain.ParamString, Required: true}},
		}).ToolSchema(),
	}
}

func (f *fakeInvoker) InvokeByName(_ context.Context, name string, params map[string]any, bypass bool) (domain.InvocationResult, error) {
	f.gotParams = params
	if bypass {
		panic("mcp calls must not bypass the shield")
	}
	if _, ok := params["title"]; !ok {
		return domain.InvocationResult{}, &domain.ParameterValidationError{Action: name, Parameter: "title", Message: "required parameter is missing"}
	}
	return domain.InvocationResult{Value: "created"}, nil
}

func TestServerTools(t *testing.T) {
	s, err := New(&fakeInvoker{}, "test", logger.NewNop())
	require.NoError(t, err)

	tools := s.Tools()
	require.Len(t, tools, 1)
	assert.Equal(t, "notes_create", tools[0].Name)

	var schema map[string]any
	require.NoError(t, json.Unmarshal(tools[0].RawInputSchema, &schema))
	assert.Equal(t, "object", schema["type"])
	assert.Equal(t, []any{"title"}, schema["required"])
}

func TestServerHandle(t *testing.T) {
	t.Run("Should return text content on success", func(t *testing.T) {
		inv := &fakeInvoker{}
		s, err := New(inv, "test", logger.NewNop())
		require.NoError(t, err)

		req := mcp.CallToolRequest{}
		req.Params.Name = "notes_create"
		req.Params.Arguments = map[string]any{"title": "groceries"}

		res, err := s.Handle(context.Background(), req)
		require.NoError(t, err)
		assert.False(t, res.IsError)
		require.Len(t, res.Content, 1)
		text, ok := res.Content[0].(mcp.TextContent)
		require.True(t, ok)
		assert.Equal(t, "created", text.Text)
		assert.Equal(t, "groceries", inv.gotParams["title"])
	})

	t.Run("Should turn orbit errors into tool errors", func(t *testing.T) {
		s, err := New(&fakeInvoker{}, "test", logger.NewNop())
		require.NoError(t, err)

		req := mcp.CallToolRequest{}
		req.Params.Name = "notes_create"

		res, err := s.Handle(context.Background(), req)
		require.NoError(t, err)
		assert.True(t, res.IsError)
	})
}
