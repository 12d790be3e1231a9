package doctor

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"

	appconfig "github.com/doeshing/orbit-go/internal/application/config"
	"github.com/doeshing/orbit-go/internal/application/registry"
	"github.com/doeshing/orbit-go/internal/domain"
	"github.com/doeshing/orbit-go/internal/ports"
)

// CommandRunner exposes the argv a runner would spawn.
type CommandRunner interface {
	Command(script string) []string
}

// ShieldInspector exposes the shield's effective tables.
type ShieldInspector interface {
	Rules() domain.RuleTable
	ProtectedPaths() []string
	DangerousCommands() []string
}

// Service runs environment diagnostics.
type Service struct {
	ConfigProvider ports.ConfigProvider
	Runner         CommandRunner
	Shield         ShieldInspector
	Registry       *registry.Registry
	HistoryStore   ports.HistoryRepository
	// Lint reports catalog problems for the registered actions.
	Lint func([]*domain.ActionDefinition) []string
	// LookPath defaults to exec.LookPath.
	LookPath func(string) (string, error)
}

// Run executes checks and returns a report.
func (s *Service) Run(ctx context.Context) (domain.HealthReport, error) {
	var checks []domain.HealthCheck

	cfg, err := s.ConfigProvider.Load(ctx)
	if err != nil {
		checks = append(checks, fail("Config file", fmt.Sprintf("load failed: %v", err)))
		return domain.HealthReport{Checks: checks}, err
	}
	if err := appconfig.Validate(cfg); err != nil {
		checks = append(checks, fail("Config file", err.Error()))
	} else {
		checks = append(checks, ok("Config file", fmt.Sprintf("format %s", cfg.ConfigFormatVersion)))
	}

	checks = append(checks, s.interpreterCheck())

	if s.Shield != nil {
		rules := s.Shield.Rules()
		checks = append(checks, ok("Shield", fmt.Sprintf("critical=%s, %d protected paths, %d dangerous commands",
			rules.Decision(domain.RiskCritical), len(s.Shield.ProtectedPaths()), len(s.Shield.DangerousCommands()))))
	} else {
		checks = append(checks, warn("Shield", "policy engine not initialized"))
	}

	if s.Registry != nil {
		checks = append(checks, s.catalogCheck())
	}

	checks = append(checks, s.historyCheck(cfg.History))

	return domain.HealthReport{Checks: checks}, nil
}

func (s *Service) interpreterCheck() domain.HealthCheck {
	if s.Runner == nil {
		return warn("Interpreter", "script runner not initialized")
	}
	argv := s.Runner.Command("")
	if len(argv) == 0 {
		return fail("Interpreter", "no interpreter configured")
	}
	lookPath := s.LookPath
	if lookPath == nil {
		lookPath = exec.LookPath
	}
	path, err := lookPath(argv[0])
	if err != nil {
		return fail("Interpreter", fmt.Sprintf("%s not found on PATH", argv[0]))
	}
	return ok("Interpreter", path)
}

func (s *Service) catalogCheck() domain.HealthCheck {
	stats := s.Registry.Stats()
	if stats.Total == 0 {
		return warn("Catalog", "no actions registered")
	}
	var issues []string
	if s.Lint != nil {
		issues = s.Lint(s.Registry.ListAll())
	}
	if len(issues) > 0 {
		return warn("Catalog", fmt.Sprintf("%d actions, %d lint issue(s); first: %s", stats.Total, len(issues), issues[0]))
	}
	return ok("Catalog", fmt.Sprintf("%d actions in %d categories", stats.Total, stats.Categories))
}

func (s *Service) historyCheck(settings domain.HistorySettings) domain.HealthCheck {
	if !settings.Enabled || s.HistoryStore == nil {
		return warn("History", "disabled")
	}
	dir := filepath.Dir(s.HistoryStore.Path())
	info, err := os.Stat(dir)
	if err != nil || !info.IsDir() {
		return warn("History", fmt.Sprintf("%s not accessible", dir))
	}
	return ok("History", s.HistoryStore.Path())
}

func ok(name, details string) domain.HealthCheck {
	return domain.HealthCheck{Name: name, Status: domain.HealthOK, Details: details}
}

func warn(name, details string) domain.HealthCheck {
	return domain.HealthCheck{Name: name, Status: domain.HealthWarn, Details: details}
}

func fail(name, details string) domain.HealthCheck {
	return domain.HealthCheck{Name: name, Status: domain.HealthError, Details: details}
}
