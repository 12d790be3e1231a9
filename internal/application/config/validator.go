package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/doeshing/orbit-go/internal/domain"
)

var structValidator = validator.New()

// Validate ensures config structure is consistent.
func Validate(cfg domain.Config) error {
	if err := structValidator.Struct(cfg); err != nil {
		return describe(err)
	}
	if err := validateExecution(cfg.Execution); err != nil {
		return err
	}
	if err := validateSafety(cfg.Safety); err != nil {
		return err
	}
	if cfg.History.Enabled && cfg.History.Path == "" {
		return errors.New("history.path must be set when history is enabled")
	}
	return nil
}

func validateExecution(exec domain.ExecutionSettings) error {
	timeout, err := exec.TimeoutDuration()
	if err != nil {
		return err
	}
	if timeout == 0 {
		return errors.New("execution.timeout must be > 0")
	}
	if _, err := exec.RetryBackoffDuration(); err != nil {
		return err
	}
	return nil
}

func validateSafety(sec domain.SafetySettings) error {
	if _, err := domain.RulesForPreset(sec.Preset); err != nil {
		return fmt.Errorf("safety.preset: %w", err)
	}
	for level, decision := range sec.Rules {
		if _, err := domain.ParseRiskLevel(level); err != nil {
			return fmt.Errorf("safety.rules: %w", err)
		}
		if _, err := domain.ParsePolicyDecision(decision); err != nil {
			return fmt.Errorf("safety.rules.%s: %w", level, err)
		}
	}
	return nil
}

// describe turns validator errors into "section.field" messages.
func describe(err error) error {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}
	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		field := strings.TrimPrefix(fe.Namespace(), "Config.")
		if fe.Param() != "" {
			msgs = append(msgs, fmt.Sprintf("%s failed %s=%s", field, fe.Tag(), fe.Param()))
		} else {
			msgs = append(msgs, fmt.Sprintf("%s failed %s", field, fe.Tag()))
		}
	}
	return fmt.Errorf("invalid config: %s", strings.Join(msgs, "; "))
}
