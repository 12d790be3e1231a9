package security

import (
	"fmt"
	"path/filepath"
	"strings"
	"sync"

	"github.com/doeshing/orbit-go/internal/domain"
	"github.com/doeshing/orbit-go/internal/pkg/filesystem"
	"github.com/doeshing/orbit-go/internal/ports"
)

// ConfirmFunc approves or rejects an action that requires confirmation.
// It is called synchronously and must not block indefinitely.
type ConfirmFunc func(action *domain.ActionDefinition, params map[string]any) (bool, error)

// ShieldConfig holds the explicit policy inputs of a Shield.
//
// A nil Rules, ProtectedPaths or DangerousCommands selects the defaults; a
// non-nil empty slice means "none".
type ShieldConfig struct {
	Rules             domain.RuleTable
	Confirm           ConfirmFunc
	ProtectedPaths    []string
	DangerousCommands []string
}

// Shield is the policy engine that gates every invocation.
type Shield struct {
	rules     domain.RuleTable
	confirm   ConfirmFunc
	dangerous []string

	mu        sync.RWMutex
	protected []string
}

// NewShield builds a shield from cfg.
func NewShield(cfg ShieldConfig) *Shield {
	rules := cfg.Rules
	if rules == nil {
		rules = domain.DefaultRules()
	}
	paths := cfg.ProtectedPaths
	if paths == nil {
		paths = DefaultProtectedPaths()
	}
	commands := cfg.DangerousCommands
	if commands == nil {
		commands = DefaultDangerousCommands()
	}

	s := &Shield{
		rules:     rules.Clone(),
		confirm:   cfg.Confirm,
		dangerous: append([]string(nil), commands...),
	}
	for _, p := range paths {
		s.protected = appendUnique(s.protected, normalizePath(p))
	}
	return s
}

// DefaultProtectedPaths lists macOS system locations that actions must not touch.
func DefaultProtectedPaths() []string {
	return []string{"/System", "/Library", "/usr", "/bin", "/sbin", "/etc", "/var"}
}

// DefaultDangerousCommands lists command fragments that are always refused.
func DefaultDangerousCommands() []string {
	return []string{
		"rm -rf /",
		"dd if=/dev/zero",
		":(){ :|:& };:",
		"mkfs",
		"chmod 000",
		"chown root",
	}
}

// Rules returns a copy of the rule table.
func (s *Shield) Rules() domain.RuleTable {
	return s.rules.Clone()
}

// ProtectedPaths returns the normalized protected locations.
func (s *Shield) ProtectedPaths() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]string(nil), s.protected...)
}

// DangerousCommands returns the refused command fragments.
func (s *Shield) DangerousCommands() []string {
	return append([]string(nil), s.dangerous...)
}

// AddProtectedPath protects path (after ~ expansion and absolute resolution).
func (s *Shield) AddProtectedPath(path string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.protected = appendUnique(s.protected, normalizePath(path))
}

// RemoveProtectedPath stops protecting path. Unknown paths are ignored.
func (s *Shield) RemoveProtectedPath(path string) {
	target := normalizePath(path)
	s.mu.Lock()
	defer s.mu.Unlock()
	out := s.protected[:0:0]
	for _, p := range s.protected {
		if p != target {
			out = append(out, p)
		}
	}
	s.protected = out
}

// Decide runs the unconditional path and command checks and returns the rule
// for the action's risk level without asking for confirmation. A deny rule
// is reported as a PolicyError.
func (s *Shield) Decide(action *domain.ActionDefinition, params map[string]any) (domain.PolicyDecision, error) {
	if raw, ok := params["path"]; ok {
		if err := s.checkPath(action, raw); err != nil {
			return domain.DecisionDeny, err
		}
	}
	if raw, ok := params["command"]; ok {
		if err := s.checkCommand(action, raw); err != nil {
			return domain.DecisionDeny, err
		}
	}

	decision := s.rules.Decision(action.Risk)
	if decision == domain.DecisionDeny {
		return decision, &domain.PolicyError{
			Action: action.Name,
			Reason: domain.ReasonDenied,
			Detail: string(action.Risk),
		}
	}
	return decision, nil
}

// Validate implements ports.PolicyEngine.
func (s *Shield) Validate(action *domain.ActionDefinition, params map[string]any) error {
	decision, err := s.Decide(action, params)
	if err != nil {
		return err
	}
	if decision != domain.DecisionRequireConfirmation {
		return nil
	}

	if s.confirm == nil {
		return &domain.PolicyError{Action: action.Name, Reason: domain.ReasonNoCallback}
	}
	approved, err := s.confirm(action, params)
	if err != nil {
		return &domain.PolicyError{Action: action.Name, Reason: domain.ReasonUserDenied, Err: err}
	}
	if !approved {
		return &domain.PolicyError{Action: action.Name, Reason: domain.ReasonUserDenied}
	}
	return nil
}

func (s *Shield) checkPath(action *domain.ActionDefinition, raw any) error {
	value, ok := raw.(string)
	if !ok || value == "" {
		return nil
	}
	candidates := []string{normalizePath(value)}
	if resolved, ok := resolveSymlinks(candidates[0]); ok && resolved != candidates[0] {
		candidates = append(candidates, resolved)
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, protected := range s.protected {
		for _, candidate := range candidates {
			if within(candidate, protected) {
				return &domain.PolicyError{
					Action: action.Name,
					Reason: domain.ReasonProtectedPath,
					Detail: value,
				}
			}
		}
	}
	return nil
}

func (s *Shield) checkCommand(action *domain.ActionDefinition, raw any) error {
	value, ok := raw.(string)
	if !ok {
		value = fmt.Sprint(raw)
	}
	for _, dangerous := range s.dangerous {
		if dangerous != "" && strings.Contains(value, dangerous) {
			return &domain.PolicyError{
				Action: action.Name,
				Reason: domain.ReasonDangerousCommand,
				Detail: value,
			}
		}
	}
	return nil
}

// within reports whether path equals root or is nested under it.
func within(path, root string) bool {
	rel, err := filepath.Rel(root, path)
	if err != nil {
		return false
	}
	if rel == "." {
		return true
	}
	return rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator))
}

// resolveSymlinks resolves links in the longest existing prefix of path and
// rejoins the remainder, so a file that does not exist yet still resolves
// through a linked parent directory.
func resolveSymlinks(path string) (string, bool) {
	existing := path
	var rest []string
	for {
		if resolved, err := filepath.EvalSymlinks(existing); err == nil {
			return filepath.Join(append([]string{resolved}, rest...)...), true
		}
		parent := filepath.Dir(existing)
		if parent == existing {
			return "", false
		}
		rest = append([]string{filepath.Base(existing)}, rest...)
		existing = parent
	}
}

// normalizePath expands ~, makes the path absolute and cleans it.
func normalizePath(path string) string {
	path = filesystem.ExpandHome(path)
	if abs, err := filepath.Abs(path); err == nil {
		return abs
	}
	return filepath.Clean(path)
}

func appendUnique(list []string, item string) []string {
	for _, existing := range list {
		if existing == item {
			return list
		}
	}
	return append(list, item)
}

var _ ports.PolicyEngine = (*Shield)(nil)
