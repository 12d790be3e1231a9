package security

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/doeshing/orbit-go/internal/domain"
)

func testAction(name string, risk domain.RiskLevel) *domain.ActionDefinition {
	return &domain.ActionDefinition{Name: name, Category: "test", Risk: risk, Template: `return "ok"`}
}

func approve(calls *int) ConfirmFunc {
	return func(*domain.ActionDefinition, map[string]any) (bool, error) {
		*calls++
		return true, nil
	}
}

func policyReason(t *testing.T, err error) domain.PolicyReason {
	t.Helper()
	var perr *domain.PolicyError
	require.ErrorAs(t, err, &perr)
	assert.ErrorIs(t, err, domain.ErrCore)
	return perr.Reason
}

func TestShieldDefaultRules(t *testing.T) {
	t.Run("Should deny critical actions even with an approving callback", func(t *testing.T) {
		calls := 0
		shield := NewShield(ShieldConfig{Confirm: approve(&calls)})

		err := shield.Validate(testAction("system_shutdown", domain.RiskCritical), nil)

		assert.Equal(t, domain.ReasonDenied, policyReason(t, err))
		assert.Contains(t, err.Error(), "critical")
		assert.Zero(t, calls)
	})

	t.Run("Should allow safe actions without consulting the callback", func(t *testing.T) {
		calls := 0
		shield := NewShield(ShieldConfig{Confirm: approve(&calls)})

		require.NoError(t, shield.Validate(testAction("system_get_info", domain.RiskSafe), map[string]any{}))
		assert.Zero(t, calls)
	})

	t.Run("Should ask the callback for moderate actions", func(t *testing.T) {
		calls := 0
		shield := NewShield(ShieldConfig{Confirm: approve(&calls)})

		require.NoError(t, shield.Validate(testAction("notes_create", domain.RiskModerate), nil))
		assert.Equal(t, 1, calls)
	})

	t.Run("Should fail without a callback when confirmation is required", func(t *testing.T) {
		shield := NewShield(ShieldConfig{})

		err := shield.Validate(testAction("file_delete", domain.RiskDangerous), nil)

		assert.Equal(t, domain.ReasonNoCallback, policyReason(t, err))
	})

	t.Run("Should report a declined confirmation", func(t *testing.T) {
		shield := NewShield(ShieldConfig{Confirm: func(*domain.ActionDefinition, map[string]any) (bool, error) {
			return false, nil
		}})

		err := shield.Validate(testAction("notes_create", domain.RiskModerate), nil)

		assert.Equal(t, domain.ReasonUserDenied, policyReason(t, err))
	})

	t.Run("Should treat a callback error as denial", func(t *testing.T) {
		boom := errors.New("tty closed")
		shield := NewShield(ShieldConfig{Confirm: func(*domain.ActionDefinition, map[string]any) (bool, error) {
			return false, boom
		}})

		err := shield.Validate(testAction("notes_create", domain.RiskModerate), nil)

		assert.Equal(t, domain.ReasonUserDenied, policyReason(t, err))
		assert.ErrorIs(t, err, boom)
	})

	t.Run("Should deny levels missing from a partial table", func(t *testing.T) {
		shield := NewShield(ShieldConfig{Rules: domain.RuleTable{domain.RiskSafe: domain.DecisionAllow}})

		err := shield.Validate(testAction("notes_create", domain.RiskModerate), nil)

		assert.Equal(t, domain.ReasonDenied, policyReason(t, err))
	})
}

func TestShieldUnconditionalChecks(t *testing.T) {
	t.Run("Should block protected paths even for safe actions", func(t *testing.T) {
		shield := NewShield(ShieldConfig{})

		err := shield.Validate(testAction("file_read", domain.RiskSafe), map[string]any{"path": "/System/Library/x"})

		assert.Equal(t, domain.ReasonProtectedPath, policyReason(t, err))
		assert.Contains(t, err.Error(), "/System/Library/x")
	})

	t.Run("Should block the protected root itself", func(t *testing.T) {
		shield := NewShield(ShieldConfig{})

		err := shield.Validate(testAction("file_list", domain.RiskSafe), map[string]any{"path": "/etc"})

		assert.Equal(t, domain.ReasonProtectedPath, policyReason(t, err))
	})

	t.Run("Should not confuse sibling prefixes with protected roots", func(t *testing.T) {
		shield := NewShield(ShieldConfig{ProtectedPaths: []string{"/opt/protected"}})

		require.NoError(t, shield.Validate(testAction("file_read", domain.RiskSafe), map[string]any{"path": "/opt/protected-not"}))
	})

	t.Run("Should block dangerous command fragments", func(t *testing.T) {
		shield := NewShield(ShieldConfig{})

		err := shield.Validate(testAction("shell_run", domain.RiskSafe), map[string]any{"command": "rm -rf /home"})

		assert.Equal(t, domain.ReasonDangerousCommand, policyReason(t, err))
	})

	t.Run("Should check the path before the command", func(t *testing.T) {
		shield := NewShield(ShieldConfig{})

		err := shield.Validate(testAction("shell_run", domain.RiskSafe), map[string]any{
			"path":    "/usr/bin",
			"command": "mkfs /dev/disk2",
		})

		assert.Equal(t, domain.ReasonProtectedPath, policyReason(t, err))
	})

	t.Run("Should ignore non-string paths", func(t *testing.T) {
		shield := NewShield(ShieldConfig{})

		require.NoError(t, shield.Validate(testAction("file_read", domain.RiskSafe), map[string]any{"path": 42}))
	})

	t.Run("Should allow an empty list to disable checks", func(t *testing.T) {
		shield := NewShield(ShieldConfig{ProtectedPaths: []string{}, DangerousCommands: []string{}})

		require.NoError(t, shield.Validate(testAction("shell_run", domain.RiskSafe), map[string]any{
			"path":    "/System",
			"command": "rm -rf /",
		}))
		assert.Empty(t, shield.ProtectedPaths())
		assert.Empty(t, shield.DangerousCommands())
	})
}

func TestShieldProtectedPathManagement(t *testing.T) {
	dir := t.TempDir()
	target := filepath.Join(dir, "secret")
	require.NoError(t, os.MkdirAll(target, 0o755))

	shield := NewShield(ShieldConfig{ProtectedPaths: []string{}})
	action := testAction("file_read", domain.RiskSafe)
	params := map[string]any{"path": filepath.Join(target, "notes.txt")}

	require.NoError(t, shield.Validate(action, params))

	shield.AddProtectedPath(target)
	shield.AddProtectedPath(target)
	assert.Len(t, shield.ProtectedPaths(), 1)
	assert.Equal(t, domain.ReasonProtectedPath, policyReason(t, shield.Validate(action, params)))

	shield.RemoveProtectedPath(target)
	require.NoError(t, shield.Validate(action, params))

	shield.RemoveProtectedPath("/never/added")
	assert.Empty(t, shield.ProtectedPaths())
}

func TestShieldFollowsSymlinks(t *testing.T) {
	dir := t.TempDir()
	protected := filepath.Join(dir, "protected")
	require.NoError(t, os.MkdirAll(protected, 0o755))
	link := filepath.Join(dir, "link")
	if err := os.Symlink(protected, link); err != nil {
		t.Skipf("symlinks unavailable: %v", err)
	}
	resolved, err := filepath.EvalSymlinks(protected)
	require.NoError(t, err)

	shield := NewShield(ShieldConfig{ProtectedPaths: []string{resolved}})

	err = shield.Validate(testAction("file_read", domain.RiskSafe), map[string]any{"path": link})
	assert.Equal(t, domain.ReasonProtectedPath, policyReason(t, err))
}

func TestShieldFollowsSymlinksToNewFiles(t *testing.T) {
	dir := t.TempDir()
	protected := filepath.Join(dir, "protected")
	require.NoError(t, os.MkdirAll(protected, 0o755))
	outside := filepath.Join(dir, "outside")
	require.NoError(t, os.MkdirAll(outside, 0o755))
	link := filepath.Join(dir, "link")
	if err := os.Symlink(protected, link); err != nil {
		t.Skipf("symlinks unavailable: %v", err)
	}
	resolved, err := filepath.EvalSymlinks(protected)
	require.NoError(t, err)

	shield := NewShield(ShieldConfig{Rules: domain.PermissiveRules(), ProtectedPaths: []string{resolved}})
	action := testAction("file_write", domain.RiskModerate)

	t.Run("Should block a new file behind a linked directory", func(t *testing.T) {
		err := shield.Validate(action, map[string]any{"path": filepath.Join(link, "new.txt")})
		assert.Equal(t, domain.ReasonProtectedPath, policyReason(t, err))
	})

	t.Run("Should block new nested directories behind a linked directory", func(t *testing.T) {
		err := shield.Validate(action, map[string]any{"path": filepath.Join(link, "a", "b", "new.txt")})
		assert.Equal(t, domain.ReasonProtectedPath, policyReason(t, err))
	})

	t.Run("Should allow new files outside protected directories", func(t *testing.T) {
		assert.NoError(t, shield.Validate(action, map[string]any{"path": filepath.Join(outside, "new.txt")}))
	})
}

func TestShieldPresets(t *testing.T) {
	t.Run("Should only allow safe actions under strict rules", func(t *testing.T) {
		shield := NewShield(ShieldConfig{Rules: domain.StrictRules(), Confirm: approve(new(int))})

		require.NoError(t, shield.Validate(testAction("a", domain.RiskSafe), nil))
		assert.Equal(t, domain.ReasonDenied, policyReason(t, shield.Validate(testAction("b", domain.RiskModerate), nil)))
	})

	t.Run("Should allow critical actions under permissive rules", func(t *testing.T) {
		shield := NewShield(ShieldConfig{Rules: domain.PermissiveRules()})

		require.NoError(t, shield.Validate(testAction("c", domain.RiskCritical), nil))
	})

	t.Run("Should still block protected paths under permissive rules", func(t *testing.T) {
		shield := NewShield(ShieldConfig{Rules: domain.PermissiveRules()})

		err := shield.Validate(testAction("c", domain.RiskCritical), map[string]any{"path": "/bin/sh"})
		assert.Equal(t, domain.ReasonProtectedPath, policyReason(t, err))
	})
}

func TestShieldDecide(t *testing.T) {
	shield := NewShield(ShieldConfig{})

	decision, err := shield.Decide(testAction("notes_create", domain.RiskModerate), nil)
	require.NoError(t, err)
	assert.Equal(t, domain.DecisionRequireConfirmation, decision)

	decision, err = shield.Decide(testAction("system_shutdown", domain.RiskCritical), nil)
	require.Error(t, err)
	assert.Equal(t, domain.DecisionDeny, decision)
}

func TestShieldRulesIsACopy(t *testing.T) {
	shield := NewShield(ShieldConfig{})
	rules := shield.Rules()
	rules[domain.RiskCritical] = domain.DecisionAllow

	assert.Equal(t, domain.DecisionDeny, shield.Rules().Decision(domain.RiskCritical))
}
