package domain

import (
	"errors"
	"fmt"
	"strings"
)

// ErrCore is matched by every error raised by the registry, shield and
// dispatcher: errors.Is(err, ErrCore) holds for all of them.
var ErrCore = errors.New("orbit")

// NotFoundError reports an unknown action identifier.
type NotFoundError struct {
	Name string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("action %q not found", e.Name)
}

func (e *NotFoundError) Is(target error) bool { return target == ErrCore }

// DuplicateIdentifierError reports a second registration of the same name.
type DuplicateIdentifierError struct {
	Name string
}

func (e *DuplicateIdentifierError) Error() string {
	return fmt.Sprintf("action %q already registered", e.Name)
}

func (e *DuplicateIdentifierError) Is(target error) bool { return target == ErrCore }

// ParameterValidationError reports a missing required parameter, an enum
// mismatch or undecodable tool-call arguments.
type ParameterValidationError struct {
	Action    string
	Parameter string
	Message   string
}

func (e *ParameterValidationError) Error() string {
	if e.Parameter == "" {
		return fmt.Sprintf("invalid parameters for %q: %s", e.Action, e.Message)
	}
	return fmt.Sprintf("invalid parameter %q for %q: %s", e.Parameter, e.Action, e.Message)
}

func (e *ParameterValidationError) Is(target error) bool { return target == ErrCore }

// PolicyReason classifies why the shield refused an invocation.
type PolicyReason string

const (
	ReasonProtectedPath    PolicyReason = "protected_path"
	ReasonDangerousCommand PolicyReason = "dangerous_command"
	ReasonDenied           PolicyReason = "denied"
	ReasonNoCallback       PolicyReason = "no_callback"
	ReasonUserDenied       PolicyReason = "user_denied"
)

// PolicyError reports a shield refusal.
type PolicyError struct {
	Action string
	Reason PolicyReason
	Detail string
	Err    error
}

func (e *PolicyError) Error() string {
	var msg string
	switch e.Reason {
	case ReasonProtectedPath:
		msg = fmt.Sprintf("protected path detected: %s", e.Detail)
	case ReasonDangerousCommand:
		msg = fmt.Sprintf("dangerous command detected: %s", e.Detail)
	case ReasonDenied:
		msg = fmt.Sprintf("action %q blocked due to %s risk level", e.Action, e.Detail)
	case ReasonNoCallback:
		msg = fmt.Sprintf("action %q requires confirmation but no callback provided", e.Action)
	case ReasonUserDenied:
		msg = fmt.Sprintf("user denied action %q", e.Action)
	default:
		msg = fmt.Sprintf("action %q rejected by shield", e.Action)
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *PolicyError) Unwrap() error { return e.Err }

func (e *PolicyError) Is(target error) bool { return target == ErrCore }

// TemplateRenderingError reports a malformed template or a missing value.
// It points at a catalog bug rather than a user error.
type TemplateRenderingError struct {
	Action  string
	Missing []string
	Err     error
}

func (e *TemplateRenderingError) Error() string {
	if len(e.Missing) > 0 {
		return fmt.Sprintf("render template for %q: missing parameter(s) %s", e.Action, strings.Join(e.Missing, ", "))
	}
	return fmt.Sprintf("render template for %q: %v", e.Action, e.Err)
}

func (e *TemplateRenderingError) Unwrap() error { return e.Err }

func (e *TemplateRenderingError) Is(target error) bool { return target == ErrCore }

// ExecutionError reports a script that exited non-zero or could not start.
type ExecutionError struct {
	Action   string
	Command  string
	ExitCode int
	Stderr   string
	// Hint is advisory remediation text (e.g. which privacy permission to grant).
	Hint string
	Err  error
}

func (e *ExecutionError) Error() string {
	var b strings.Builder
	switch {
	case e.Err != nil:
		fmt.Fprintf(&b, "execution of %q failed: %v", e.Action, e.Err)
	case e.Stderr != "":
		fmt.Fprintf(&b, "execution of %q failed (exit %d): %s", e.Action, e.ExitCode, e.Stderr)
	default:
		fmt.Fprintf(&b, "execution of %q failed (exit %d)", e.Action, e.ExitCode)
	}
	if e.Hint != "" {
		b.WriteString("\n")
		b.WriteString(e.Hint)
	}
	return b.String()
}

func (e *ExecutionError) Unwrap() error { return e.Err }

func (e *ExecutionError) Is(target error) bool { return target == ErrCore }

// ExecutionTimeoutError reports a script killed after exceeding its timeout.
// errors.As(err, **ExecutionError) also succeeds for it.
type ExecutionTimeoutError struct {
	ExecutionError
	Timeout string
}

func (e *ExecutionTimeoutError) Error() string {
	return fmt.Sprintf("execution of %q timed out after %s", e.Action, e.Timeout)
}

func (e *ExecutionTimeoutError) Unwrap() error { return &e.ExecutionError }

// ResultParseError reports output that the action's parser rejected.
type ResultParseError struct {
	Action string
	Raw    string
	Err    error
}

func (e *ResultParseError) Error() string {
	return fmt.Sprintf("parse result of %q: %v", e.Action, e.Err)
}

func (e *ResultParseError) Unwrap() error { return e.Err }

func (e *ResultParseError) Is(target error) bool { return target == ErrCore }
