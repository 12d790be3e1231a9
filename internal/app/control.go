// Package app composes the registry, the shield and the dispatcher into the
// Control facade and wires them from configuration.
package app

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/doeshing/orbit-go/internal/application/dispatch"
	"github.com/doeshing/orbit-go/internal/application/registry"
	"github.com/doeshing/orbit-go/internal/domain"
	"github.com/doeshing/orbit-go/internal/infrastructure/executor"
	"github.com/doeshing/orbit-go/internal/infrastructure/render"
	"github.com/doeshing/orbit-go/internal/infrastructure/security"
	"github.com/doeshing/orbit-go/internal/pkg/logger"
	"github.com/doeshing/orbit-go/internal/ports"
)

// ControlConfig lists the collaborators of a Control. Zero values select
// defaults: osascript runner, text/template renderer, default shield without
// confirmation callback, discard logger, no history.
type ControlConfig struct {
	Runner   ports.ScriptRunner
	Renderer ports.TemplateRenderer
	Policy   ports.PolicyEngine
	Logger   ports.Logger
	History  ports.HistoryRepository
	Hint     dispatch.HintFunc
	Settings dispatch.Settings
}

// Control is the single entry point adapters call: register actions, invoke
// them by name and export their schemas.
type Control struct {
	registry   *registry.Registry
	policy     ports.PolicyEngine
	dispatcher *dispatch.Service
	history    ports.HistoryRepository
	logger     ports.Logger
}

// NewControl builds a Control with an empty registry.
func NewControl(cfg ControlConfig) (*Control, error) {
	if cfg.Runner == nil {
		runner, err := executor.NewScriptRunner(domain.DefaultInterpreter, domain.DefaultScriptFlag)
		if err != nil {
			return nil, err
		}
		cfg.Runner = runner
	}
	if cfg.Renderer == nil {
		cfg.Renderer = render.NewRenderer()
	}
	if cfg.Policy == nil {
		cfg.Policy = security.NewShield(security.ShieldConfig{})
	}
	if cfg.Logger == nil {
		cfg.Logger = logger.NewNop()
	}
	if cfg.Hint == nil {
		cfg.Hint = security.PermissionHint
	}
	return &Control{
		registry: registry.New(),
		policy:   cfg.Policy,
		dispatcher: &dispatch.Service{
			Runner:   cfg.Runner,
			Renderer: cfg.Renderer,
			Policy:   cfg.Policy,
			Logger:   cfg.Logger,
			Hint:     cfg.Hint,
			Settings: cfg.Settings,
		},
		history: cfg.History,
		logger:  cfg.Logger,
	}, nil
}

// Registry exposes the underlying registry for read access.
func (c *Control) Registry() *registry.Registry { return c.registry }

// Policy returns the policy engine shared with the dispatcher.
func (c *Control) Policy() ports.PolicyEngine { return c.policy }

// Register adds one action.
func (c *Control) Register(action *domain.ActionDefinition) error {
	return c.registry.Register(action)
}

// RegisterMany adds actions in order and stops at the first failure. Actions
// before the failing one stay registered.
func (c *Control) RegisterMany(actions []*domain.ActionDefinition) error {
	for _, action := range actions {
		if err := c.registry.Register(action); err != nil {
			return err
		}
	}
	return nil
}

// InvokeByName looks up name and dispatches it.
func (c *Control) InvokeByName(ctx context.Context, name string, params map[string]any, bypassPolicy bool) (domain.InvocationResult, error) {
	return c.Invoke(ctx, domain.InvocationRequest{Action: name, Parameters: params, BypassPolicy: bypassPolicy})
}

// Invoke dispatches req and records the outcome in history.
func (c *Control) Invoke(ctx context.Context, req domain.InvocationRequest) (domain.InvocationResult, error) {
	action, ok := c.registry.Get(req.Action)
	if !ok {
		return domain.InvocationResult{}, &domain.NotFoundError{Name: req.Action}
	}
	started := time.Now()
	result, err := c.dispatcher.Invoke(ctx, action, req.Parameters, options(req))
	c.record(action, req.Parameters, started, result, err)
	return result, err
}

// InvokeAsync runs Invoke on its own goroutine. The channel yields exactly
// one outcome and is then closed.
func (c *Control) InvokeAsync(ctx context.Context, req domain.InvocationRequest) <-chan domain.InvocationOutcome {
	out := make(chan domain.InvocationOutcome, 1)
	go func() {
		defer close(out)
		res, err := c.Invoke(ctx, req)
		out <- domain.InvocationOutcome{Result: res, Err: err}
	}()
	return out
}

// InvokeBatch dispatches reqs with at most limit in flight. Outcomes are in
// input order; an unknown name yields a NotFoundError for that entry only.
func (c *Control) InvokeBatch(ctx context.Context, reqs []domain.InvocationRequest, limit int) []domain.InvocationOutcome {
	outcomes := make([]domain.InvocationOutcome, len(reqs))
	calls := make([]dispatch.Call, 0, len(reqs))
	index := make([]int, 0, len(reqs))
	for i, req := range reqs {
		action, ok := c.registry.Get(req.Action)
		if !ok {
			outcomes[i] = domain.InvocationOutcome{Err: &domain.NotFoundError{Name: req.Action}}
			continue
		}
		calls = append(calls, dispatch.Call{Action: action, Params: req.Parameters, Options: options(req)})
		index = append(index, i)
	}

	started := time.Now()
	for j, outcome := range c.dispatcher.InvokeBatch(ctx, calls, limit) {
		outcomes[index[j]] = outcome
		c.record(calls[j].Action, calls[j].Params, started, outcome.Result, outcome.Err)
	}
	return outcomes
}

// ExportToolSchema returns the tool declaration of every registered action.
func (c *Control) ExportToolSchema() []domain.ToolSchema {
	return c.registry.ExportToolSchema()
}

// ExportCatalog returns the descriptive form of every registered action.
func (c *Control) ExportCatalog() []*domain.ActionDefinition {
	return c.registry.ExportCatalog()
}

// ExecuteToolCall decodes the JSON arguments of an LLM tool call and invokes
// the named action. Empty arguments mean no parameters.
func (c *Control) ExecuteToolCall(ctx context.Context, call domain.ToolCall) (domain.InvocationResult, error) {
	params, err := DecodeArguments(call.Name, call.Arguments)
	if err != nil {
		return domain.InvocationResult{}, err
	}
	return c.InvokeByName(ctx, call.Name, params, false)
}

// DecodeArguments parses a tool-call argument string into a parameter map.
func DecodeArguments(action, arguments string) (map[string]any, error) {
	params := map[string]any{}
	if strings.TrimSpace(arguments) == "" {
		return params, nil
	}
	if err := json.Unmarshal([]byte(arguments), &params); err != nil {
		return nil, &domain.ParameterValidationError{
			Action:  action,
			Message: "arguments are not a JSON object: " + err.Error(),
		}
	}
	if params == nil {
		params = map[string]any{}
	}
	return params, nil
}

// History returns the configured history repository, or nil.
func (c *Control) History() ports.HistoryRepository { return c.history }

func options(req domain.InvocationRequest) dispatch.CallOptions {
	return dispatch.CallOptions{BypassPolicy: req.BypassPolicy, Timeout: req.Timeout, Attempts: req.Attempts}
}

// record never fails the invocation: history errors are only logged.
func (c *Control) record(action *domain.ActionDefinition, params map[string]any, started time.Time, result domain.InvocationResult, err error) {
	if c.history == nil {
		return
	}
	encoded, marshalErr := json.Marshal(params)
	if marshalErr != nil || params == nil {
		encoded = []byte("{}")
	}
	rec := domain.HistoryRecord{
		ID:              result.ID,
		Timestamp:       started,
		Action:          action.Name,
		Category:        action.Category,
		RiskLevel:       action.Risk,
		Parameters:      string(encoded),
		Success:         err == nil,
		Attempts:        result.Attempts,
		ExecutionTimeMS: result.Duration.Milliseconds(),
	}
	if rec.ID == "" {
		rec.ID = uuid.NewString()
	}
	if err != nil {
		rec.Error = err.Error()
		var execErr *domain.ExecutionError
		if errors.As(err, &execErr) {
			rec.ExitCode = execErr.ExitCode
		}
	}
	if saveErr := c.history.Save(rec); saveErr != nil {
		c.logger.Warn("history record failed", map[string]interface{}{"action": action.Name, "error": saveErr.Error()})
	}
}
