package app

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/doeshing/orbit-go/internal/domain"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestBuildContainer(t *testing.T) {
	t.Setenv("HOME", t.TempDir())

	t.Run("Should register the built-in catalog", func(t *testing.T) {
		dir := t.TempDir()
		path := writeConfig(t, fmt.Sprintf(`execution:
  interpreter: /bin/sh
  script_flag: -c
safety:
  rules_file: %s
history:
  enabled: true
  path: %s
catalog:
  disabled_categories: [wifi]
`, filepath.Join(dir, "shield.yaml"), filepath.Join(dir, "history.db")))

		c, err := BuildContainer(context.Background(), Options{ConfigPath: path})
		require.NoError(t, err)

		reg := c.Control.Registry()
		assert.GreaterOrEqual(t, reg.Stats().Total, 40)
		assert.Empty(t, reg.ListByCategory("wifi"))
		assert.Equal(t, []string{"/bin/sh", "-c", "echo"}, c.Runner.Command("echo"))
		assert.Equal(t, filepath.Join(dir, "history.db"), c.HistoryStore.Path())
		assert.Equal(t, domain.DecisionDeny, c.Shield.Rules().Decision(domain.RiskCritical))
		assert.NotNil(t, c.DoctorService)
	})

	t.Run("Should leave history off when disabled", func(t *testing.T) {
		path := writeConfig(t, "history:\n  enabled: false\n")

		c, err := BuildContainer(context.Background(), Options{ConfigPath: path})
		require.NoError(t, err)
		assert.Nil(t, c.HistoryStore)
		assert.Nil(t, c.Control.History())
	})

	t.Run("Should reject an invalid config", func(t *testing.T) {
		path := writeConfig(t, "execution:\n  timeout: whenever\nhistory:\n  enabled: false\n")

		_, err := BuildContainer(context.Background(), Options{ConfigPath: path})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "execution.timeout")
	})

	t.Run("Should load extra catalog directories", func(t *testing.T) {
		extra := t.TempDir()
		require.NoError(t, os.WriteFile(filepath.Join(extra, "custom.yaml"), []byte(`category: custom
actions:
  - name: custom_hello
    description: Say hello
    risk: safe
    template: return "hello"
`), 0o600))
		path := writeConfig(t, fmt.Sprintf("history:\n  enabled: false\ncatalog:\n  extra_dirs: [%s]\n", extra))

		c, err := BuildContainer(context.Background(), Options{ConfigPath: path})
		require.NoError(t, err)
		action, ok := c.Control.Registry().Get("custom_hello")
		require.True(t, ok)
		assert.Equal(t, "custom", action.Category)
	})
}
