// Package toolcall exposes registered actions to OpenAI-compatible chat
// completion APIs as function tools.
package toolcall

import (
	"context"

	openai "github.com/sashabaranov/go-openai"

	"github.com/doeshing/orbit-go/internal/app"
	"github.com/doeshing/orbit-go/internal/domain"
)

// Invoker is the part of app.Control the adapter needs.
type Invoker interface {
	ExportToolSchema() []domain.ToolSchema
	ExecuteToolCall(ctx context.Context, call domain.ToolCall) (domain.InvocationResult, error)
}

// Adapter converts between go-openai tool types and orbit invocations.
type Adapter struct {
	invoker Invoker
}

// New builds an adapter over invoker.
func New(invoker Invoker) *Adapter {
	return &Adapter{invoker: invoker}
}

// Tools returns one function tool per registered action, ready for
// ChatCompletionRequest.Tools.
func (a *Adapter) Tools() []openai.Tool {
	schemas := a.invoker.ExportToolSchema()
	tools := make([]openai.Tool, 0, len(schemas))
	for _, schema := range schemas {
		tools = append(tools, openai.Tool{
			Type: openai.ToolTypeFunction,
			Function: &openai.FunctionDefinition{
				Name:        schema.Name,
				Description: schema.Description,
				Parameters:  schema.Parameters,
			},
		})
	}
	return tools
}

// Execute runs one tool call and returns the tool message to append to the
// conversation. Failures are reported in the message content so the model
// can react to them.
func (a *Adapter) Execute(ctx context.Context, call openai.ToolCall) openai.ChatCompletionMessage {
	msg := openai.ChatCompletionMessage{
		Role:       openai.ChatMessageRoleTool,
		ToolCallID: call.ID,
		Name:       call.Function.Name,
	}
	result, err := a.invoker.ExecuteToolCall(ctx, domain.ToolCall{
		Name:      call.Function.Name,
		Arguments: call.Function.Arguments,
	})
	if err != nil {
		msg.Content = "error: " + err.Error()
		return msg
	}
	msg.Content = app.FormatValue(result.Value)
	return msg
}

// ExecuteAll runs calls in order, as returned in one assistant message.
func (a *Adapter) ExecuteAll(ctx context.Context, calls []openai.ToolCall) []openai.ChatCompletionMessage {
	out := make([]openai.ChatCompletionMessage, 0, len(calls))
	for _, call := range calls {
		out = append(out, a.Execute(ctx, call))
	}
	return out
}
