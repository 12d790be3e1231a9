package domain

import (
	"fmt"
	"time"
)

// Config mirrors ~/.orbit/config.yaml.
type Config struct {
	ConfigFormatVersion string            `yaml:"config_format_version"`
	Execution           ExecutionSettings `yaml:"execution"`
	Safety              SafetySettings    `yaml:"safety"`
	History             HistorySettings   `yaml:"history"`
	Logging             LoggingSettings   `yaml:"logging"`
	Catalog             CatalogSettings   `yaml:"catalog"`
}

// ExecutionSettings controls how rendered scripts are run.
type ExecutionSettings struct {
	Interpreter    string `yaml:"interpreter" validate:"required"`
	ScriptFlag     string `yaml:"script_flag"`
	Timeout        string `yaml:"timeout" validate:"required"`
	RetryOnFailure bool   `yaml:"retry_on_failure"`
	MaxRetries     int    `yaml:"max_retries" validate:"gte=1,lte=10"`
	RetryBackoff   string `yaml:"retry_backoff"`
}

// TimeoutDuration parses Timeout.
func (e ExecutionSettings) TimeoutDuration() (time.Duration, error) {
	return parseDuration("execution.timeout", e.Timeout, DefaultExecutionTimeout)
}

// RetryBackoffDuration parses RetryBackoff.
func (e ExecutionSettings) RetryBackoffDuration() (time.Duration, error) {
	return parseDuration("execution.retry_backoff", e.RetryBackoff, 0)
}

// SafetySettings configures the shield.
type SafetySettings struct {
	Preset            string            `yaml:"preset" validate:"omitempty,oneof=default strict permissive"`
	Rules             map[string]string `yaml:"rules,omitempty"`
	ProtectedPaths    []string          `yaml:"protected_paths,omitempty"`
	DangerousCommands []string          `yaml:"dangerous_commands,omitempty"`
	RulesFile         string            `yaml:"rules_file"`
}

// HistorySettings configures invocation history.
type HistorySettings struct {
	Enabled       bool   `yaml:"enabled"`
	Path          string `yaml:"path"`
	RetentionDays int    `yaml:"retention_days" validate:"gte=0"`
}

// LoggingSettings configures the structured logger.
type LoggingSettings struct {
	Level string `yaml:"level" validate:"omitempty,oneof=debug info warn error"`
	JSON  bool   `yaml:"json"`
}

// CatalogSettings selects which actions get registered.
type CatalogSettings struct {
	DisabledCategories []string `yaml:"disabled_categories,omitempty"`
	ExtraDirs          []string `yaml:"extra_dirs,omitempty"`
}

func parseDuration(field, value string, fallback time.Duration) (time.Duration, error) {
	if value == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		return 0, fmt.Errorf("%s invalid: %w", field, err)
	}
	if d < 0 {
		return 0, fmt.Errorf("%s must be >= 0", field)
	}
	return d, nil
}
