package security

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/doeshing/orbit-go/internal/domain"
)

func writeRules(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "shield.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoadRulesFallsBackToEmbeddedDefaults(t *testing.T) {
	rules, err := LoadRules(filepath.Join(t.TempDir(), "missing.yaml"))
	require.NoError(t, err)

	assert.Equal(t, "deny", rules.Rules["critical"])
	assert.Contains(t, rules.ProtectedPaths, "/System")
	assert.Contains(t, rules.DangerousCommands, "rm -rf /")
}

func TestLoadRulesKeepsDefaultsForOmittedSections(t *testing.T) {
	path := writeRules(t, "protected_paths:\n  - /opt/vault\n")

	rules, err := LoadRules(path)
	require.NoError(t, err)

	assert.Equal(t, []string{"/opt/vault"}, rules.ProtectedPaths)
	assert.Equal(t, "allow", rules.Rules["safe"])
	assert.Contains(t, rules.DangerousCommands, "mkfs")
}

func TestLoadRulesRejectsInvalidYAML(t *testing.T) {
	_, err := LoadRules(writeRules(t, "rules: [unterminated"))
	assert.Error(t, err)
}

func TestBuildShieldLayersOverrides(t *testing.T) {
	path := writeRules(t, "rules:\n  moderate: allow\n")

	shield, err := BuildShield(domain.SafetySettings{
		Preset:         "default",
		RulesFile:      path,
		Rules:          map[string]string{"dangerous": "block"},
		ProtectedPaths: []string{"/opt/vault"},
	}, nil)
	require.NoError(t, err)

	rules := shield.Rules()
	assert.Equal(t, domain.DecisionAllow, rules.Decision(domain.RiskModerate))
	assert.Equal(t, domain.DecisionDeny, rules.Decision(domain.RiskDangerous))
	assert.Equal(t, domain.DecisionAllow, rules.Decision(domain.RiskSafe))
	assert.Contains(t, shield.ProtectedPaths(), "/opt/vault")
	assert.Contains(t, shield.ProtectedPaths(), "/System")
}

func TestBuildShieldPresetIgnoresRulesFileTable(t *testing.T) {
	path := writeRules(t, "rules:\n  moderate: allow\n")

	shield, err := BuildShield(domain.SafetySettings{Preset: "strict", RulesFile: path}, nil)
	require.NoError(t, err)

	assert.Equal(t, domain.DecisionDeny, shield.Rules().Decision(domain.RiskModerate))
}

func TestBuildShieldRejectsUnknownValues(t *testing.T) {
	_, err := BuildShield(domain.SafetySettings{Preset: "yolo"}, nil)
	assert.Error(t, err)

	_, err = BuildShield(domain.SafetySettings{Rules: map[string]string{"harmless": "allow"}}, nil)
	assert.Error(t, err)

	_, err = BuildShield(domain.SafetySettings{Rules: map[string]string{"safe": "maybe"}}, nil)
	assert.Error(t, err)
}
