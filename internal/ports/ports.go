// Package ports defines the interfaces (ports) for the hexagonal architecture.
//
// This package establishes the contract between the application core (registry,
// dispatcher, facade) and external adapters (infrastructure). Following the Ports
// and Adapters pattern, these interfaces keep the core independent of osascript,
// the template engine, the history database and the CLI.
//
// Key architectural concepts:
//   - Ports: Interfaces defined here (e.g., ScriptRunner, PolicyEngine)
//   - Adapters: Concrete implementations in the infrastructure layer
//   - Dependency inversion: Application depends on abstractions, not implementations
package ports

import (
	"context"
	"time"

	"github.com/doeshing/orbit-go/internal/domain"
)

// ConfigProvider loads the latest configuration from persistent storage.
// Implementations typically read from ~/.orbit/config.yaml.
type ConfigProvider interface {
	Load(context.Context) (domain.Config, error)
}

// ScriptRunner is the external command-execution facility. It spawns the
// interpreter with the rendered script, waits at most timeout and reports
// stdout, stderr and exit status. A non-zero exit is reported in the result,
// not as an error; errors are reserved for processes that could not run.
type ScriptRunner interface {
	Run(ctx context.Context, script string, timeout time.Duration) (domain.ExecutionResult, error)
}

// TemplateRenderer turns an action's command template into a script.
type TemplateRenderer interface {
	Render(name, source string, params map[string]any) (string, error)
}

// PolicyEngine approves or rejects an invocation before anything runs.
type PolicyEngine interface {
	Validate(action *domain.ActionDefinition, params map[string]any) error
}

// ConfirmationPrompter handles interactive user confirmations for risky actions.
// The shield calls Confirm synchronously; implementations must not block forever.
type ConfirmationPrompter interface {
	Confirm(action *domain.ActionDefinition, params map[string]any) (bool, error)
	Enabled() bool
}

// HistoryRepository persists invocation outcomes.
type HistoryRepository interface {
	Save(domain.HistoryRecord) error
	Records(limit int, search string) ([]domain.HistoryRecord, error)
	Clear() error
	Prune(olderThan time.Time) (int64, error)
	ExportJSON(dest string) error
	Path() string
}

// Logger provides structured logging abstraction for the application layer.
// Implementations can route to different backends (stderr, files, JSON).
type Logger interface {
	Debug(msg string, fields map[string]interface{})
	Info(msg string, fields map[string]interface{})
	Warn(msg string, fields map[string]interface{})
	Error(msg string, err error, fields map[string]interface{})
}
