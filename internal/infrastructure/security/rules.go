package security

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/doeshing/orbit-go/assets"
	"github.com/doeshing/orbit-go/internal/domain"
	"github.com/doeshing/orbit-go/internal/pkg/filesystem"
)

// RulesFile is the YAML schema of ~/.orbit/shield.yaml.
type RulesFile struct {
	Rules             map[string]string `yaml:"rules"`
	ProtectedPaths    []string          `yaml:"protected_paths"`
	DangerousCommands []string          `yaml:"dangerous_commands"`
}

// LoadRules reads a rules file, falling back to the embedded defaults when the
// file is missing. Sections left empty in the file also take the defaults.
func LoadRules(path string) (RulesFile, error) {
	defaults, err := parseRules(assets.DefaultShieldYAML)
	if err != nil {
		return RulesFile{}, fmt.Errorf("embedded shield rules: %w", err)
	}
	if path == "" {
		return defaults, nil
	}

	data, err := os.ReadFile(filesystem.ExpandHome(path))
	if err != nil {
		if os.IsNotExist(err) {
			return defaults, nil
		}
		return RulesFile{}, err
	}
	rules, err := parseRules(data)
	if err != nil {
		return RulesFile{}, fmt.Errorf("parse %s: %w", path, err)
	}
	if len(rules.Rules) == 0 {
		rules.Rules = defaults.Rules
	}
	if rules.ProtectedPaths == nil {
		rules.ProtectedPaths = defaults.ProtectedPaths
	}
	if rules.DangerousCommands == nil {
		rules.DangerousCommands = defaults.DangerousCommands
	}
	return rules, nil
}

func parseRules(data []byte) (RulesFile, error) {
	var rules RulesFile
	if err := yaml.Unmarshal(data, &rules); err != nil {
		return RulesFile{}, err
	}
	return rules, nil
}

// BuildShield assembles a shield from config: the preset is the base table,
// the rules file and then the config overrides are layered on top, and the
// config's paths and commands extend those of the rules file.
func BuildShield(settings domain.SafetySettings, confirm ConfirmFunc) (*Shield, error) {
	table, err := domain.RulesForPreset(settings.Preset)
	if err != nil {
		return nil, err
	}
	file, err := LoadRules(settings.RulesFile)
	if err != nil {
		return nil, err
	}

	// A non-default preset is an explicit choice; the rules file only
	// refines the default preset.
	if settings.Preset == "" || strings.EqualFold(settings.Preset, "default") {
		if err := applyRules(table, file.Rules); err != nil {
			return nil, fmt.Errorf("shield rules file: %w", err)
		}
	}
	if err := applyRules(table, settings.Rules); err != nil {
		return nil, fmt.Errorf("safety.rules: %w", err)
	}

	paths := append(append([]string{}, file.ProtectedPaths...), settings.ProtectedPaths...)
	commands := append(append([]string{}, file.DangerousCommands...), settings.DangerousCommands...)

	return NewShield(ShieldConfig{
		Rules:             table,
		Confirm:           confirm,
		ProtectedPaths:    paths,
		DangerousCommands: commands,
	}), nil
}

func applyRules(table domain.RuleTable, overrides map[string]string) error {
	for levelName, decisionName := range overrides {
		level, err := domain.ParseRiskLevel(levelName)
		if err != nil {
			return err
		}
		decision, err := domain.ParsePolicyDecision(decisionName)
		if err != nil {
			return err
		}
		table[level] = decision
	}
	return nil
}
