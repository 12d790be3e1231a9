// Package dispatch runs one action invocation end-to-end: parameter
// validation, policy check, template rendering, script execution with
// timeout and retry, and result parsing.
package dispatch

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sethvargo/go-retry"
	"golang.org/x/sync/errgroup"

	"github.com/doeshing/orbit-go/internal/domain"
	"github.com/doeshing/orbit-go/internal/ports"
)

// HintFunc returns remediation advice for a failed action, or "".
type HintFunc func(name, category, errText string) string

// Settings controls timeout and retry behavior.
type Settings struct {
	Timeout        time.Duration
	RetryOnFailure bool
	// MaxRetries is the total number of attempts when retry is enabled.
	MaxRetries   int
	RetryBackoff time.Duration
}

// SettingsFromConfig converts the execution section of the config.
func SettingsFromConfig(cfg domain.ExecutionSettings) (Settings, error) {
	timeout, err := cfg.TimeoutDuration()
	if err != nil {
		return Settings{}, err
	}
	backoff, err := cfg.RetryBackoffDuration()
	if err != nil {
		return Settings{}, err
	}
	return Settings{
		Timeout:        timeout,
		RetryOnFailure: cfg.RetryOnFailure,
		MaxRetries:     cfg.MaxRetries,
		RetryBackoff:   backoff,
	}, nil
}

// CallOptions adjusts a single invocation.
type CallOptions struct {
	BypassPolicy bool
	// Timeout overrides Settings.Timeout when positive.
	Timeout time.Duration
	// Attempts forces retry with this many total attempts when above 1.
	Attempts int
}

// Call is one entry of a batch.
type Call struct {
	Action  *domain.ActionDefinition
	Params  map[string]any
	Options CallOptions
}

// Service orchestrates invocations. It holds no per-call state, so one
// Service may serve concurrent callers.
type Service struct {
	Runner   ports.ScriptRunner
	Renderer ports.TemplateRenderer
	Policy   ports.PolicyEngine
	Logger   ports.Logger
	Hint     HintFunc
	Settings Settings
}

// Invoke validates, authorizes, renders, executes and parses one call.
func (s *Service) Invoke(ctx context.Context, action *domain.ActionDefinition, params map[string]any, opts CallOptions) (domain.InvocationResult, error) {
	if s.Runner == nil || s.Renderer == nil || s.Logger == nil {
		return domain.InvocationResult{}, errors.New("dispatch.Service dependencies not satisfied")
	}
	if action == nil {
		return domain.InvocationResult{}, errors.New("nil action")
	}
	if ctx == nil {
		ctx = context.Background()
	}
	if params == nil {
		params = map[string]any{}
	}

	start := time.Now()
	result := domain.InvocationResult{ID: uuid.NewString(), Action: action.Name}
	fields := map[string]interface{}{
		"action":   action.Name,
		"category": action.Category,
		"risk":     string(action.Risk),
		"id":       result.ID,
	}
	s.Logger.Debug("invocation started", fields)

	if err := ValidateParameters(action, params); err != nil {
		return result, err
	}

	if !opts.BypassPolicy {
		if s.Policy == nil {
			return result, errors.New("dispatch.Service has no policy engine")
		}
		if err := s.Policy.Validate(action, params); err != nil {
			s.Logger.Warn("invocation blocked", withField(fields, "reason", err.Error()))
			return result, err
		}
	} else {
		s.Logger.Warn("policy bypassed", fields)
	}

	script, err := s.Renderer.Render(action.Name, action.Template, action.WithDefaults(params))
	if err != nil {
		return result, err
	}
	result.Script = script

	timeout := s.Settings.Timeout
	if opts.Timeout > 0 {
		timeout = opts.Timeout
	}
	if timeout <= 0 {
		timeout = domain.DefaultExecutionTimeout
	}

	execResult, attempts, err := s.runWithRetry(ctx, action, script, timeout, opts.Attempts, fields)
	result.Attempts = attempts
	result.Duration = time.Since(start)
	if err != nil {
		s.Logger.Error("invocation failed", err, withField(fields, "attempts", attempts))
		return result, err
	}

	result.Raw = execResult.Stdout
	value, err := parseOutput(action, execResult.Stdout)
	if err != nil {
		return result, err
	}
	result.Value = value

	s.Logger.Info("invocation completed", withField(withField(fields, "attempts", attempts), "duration_ms", result.Duration.Milliseconds()))
	return result, nil
}

// InvokeAsync runs Invoke on its own goroutine. The channel receives exactly
// one outcome and is then closed.
func (s *Service) InvokeAsync(ctx context.Context, action *domain.ActionDefinition, params map[string]any, opts CallOptions) <-chan domain.InvocationOutcome {
	out := make(chan domain.InvocationOutcome, 1)
	go func() {
		defer close(out)
		res, err := s.Invoke(ctx, action, params, opts)
		out <- domain.InvocationOutcome{Result: res, Err: err}
	}()
	return out
}

// InvokeBatch runs calls with at most limit in flight and returns their
// outcomes in input order. A failing call does not cancel the others.
func (s *Service) InvokeBatch(ctx context.Context, calls []Call, limit int) []domain.InvocationOutcome {
	if limit <= 0 {
		limit = domain.DefaultBatchLimit
	}
	outcomes := make([]domain.InvocationOutcome, len(calls))

	var g errgroup.Group
	g.SetLimit(limit)
	for i, call := range calls {
		g.Go(func() error {
			res, err := s.Invoke(ctx, call.Action, call.Params, call.Options)
			outcomes[i] = domain.InvocationOutcome{Result: res, Err: err}
			return nil
		})
	}
	_ = g.Wait()
	return outcomes
}

func (s *Service) runWithRetry(
	ctx context.Context,
	action *domain.ActionDefinition,
	script string,
	timeout time.Duration,
	forced int,
	fields map[string]interface{},
) (domain.ExecutionResult, int, error) {
	maxAttempts := 1
	if s.Settings.RetryOnFailure && s.Settings.MaxRetries > 1 {
		maxAttempts = s.Settings.MaxRetries
	}
	if forced > 1 {
		maxAttempts = forced
	}
	delay := s.Settings.RetryBackoff
	backoff := retry.WithMaxRetries(uint64(maxAttempts-1), retry.BackoffFunc(func() (time.Duration, bool) {
		return delay, false
	}))

	var (
		attempts int
		last     domain.ExecutionResult
		lastErr  error
	)
	err := retry.Do(ctx, backoff, func(ctx context.Context) error {
		attempts++
		res, err := s.execute(ctx, action, script, timeout)
		if err == nil {
			last, lastErr = res, nil
			return nil
		}
		lastErr = err
		var execErr *domain.ExecutionError
		if errors.As(err, &execErr) {
			if attempts < maxAttempts {
				s.Logger.Warn("attempt failed, retrying", withField(withField(fields, "attempt", attempts), "exit_code", execErr.ExitCode))
			}
			return retry.RetryableError(err)
		}
		return err
	})
	if err != nil {
		if lastErr != nil && ctx.Err() == nil {
			return last, attempts, lastErr
		}
		return last, attempts, err
	}
	return last, attempts, nil
}

func (s *Service) execute(ctx context.Context, action *domain.ActionDefinition, script string, timeout time.Duration) (domain.ExecutionResult, error) {
	res, err := s.Runner.Run(ctx, script, timeout)
	if err != nil {
		return res, &domain.ExecutionError{
			Action:   action.Name,
			Command:  script,
			ExitCode: res.ExitCode,
			Stderr:   strings.TrimSpace(res.Stderr),
			Err:      err,
		}
	}
	if res.TimedOut {
		return res, &domain.ExecutionTimeoutError{
			ExecutionError: domain.ExecutionError{
				Action:   action.Name,
				Command:  script,
				ExitCode: res.ExitCode,
				Stderr:   strings.TrimSpace(res.Stderr),
			},
			Timeout: timeout.String(),
		}
	}
	if res.ExitCode != 0 {
		stderr := strings.TrimSpace(res.Stderr)
		return res, &domain.ExecutionError{
			Action:   action.Name,
			Command:  script,
			ExitCode: res.ExitCode,
			Stderr:   stderr,
			Hint:     s.hint(action, stderr),
		}
	}
	return res, nil
}

// hint never fails: a panicking HintFunc yields no hint.
func (s *Service) hint(action *domain.ActionDefinition, errText string) (hint string) {
	if s.Hint == nil {
		return ""
	}
	defer func() {
		if r := recover(); r != nil {
			s.Logger.Debug("permission hint lookup failed", map[string]interface{}{"panic": fmt.Sprint(r)})
			hint = ""
		}
	}()
	return s.Hint(action.Name, action.Category, errText)
}

// ValidateParameters checks required parameters and enum membership. A nil
// value counts as absent.
func ValidateParameters(action *domain.ActionDefinition, params map[string]any) error {
	for _, spec := range action.Parameters {
		value, present := params[spec.Name]
		if present && value == nil {
			present = false
		}
		if spec.Required && !present {
			return &domain.ParameterValidationError{
				Action:    action.Name,
				Parameter: spec.Name,
				Message:   "required parameter is missing",
			}
		}
		if present && !spec.Allows(value) {
			return &domain.ParameterValidationError{
				Action:    action.Name,
				Parameter: spec.Name,
				Message:   fmt.Sprintf("value %v is not one of %v", value, spec.Enum),
			}
		}
	}
	return nil
}

func parseOutput(action *domain.ActionDefinition, stdout string) (any, error) {
	if action.Parser == nil {
		return strings.TrimSpace(stdout), nil
	}
	raw := strings.TrimRight(stdout, "\r\n")
	value, err := action.Parser.Parse(raw)
	if err != nil {
		return nil, &domain.ResultParseError{Action: action.Name, Raw: raw, Err: err}
	}
	return value, nil
}

func withField(fields map[string]interface{}, key string, value interface{}) map[string]interface{} {
	out := make(map[string]interface{}, len(fields)+1)
	for k, v := range fields {
		out[k] = v
	}
	out[key] = value
	return out
}
