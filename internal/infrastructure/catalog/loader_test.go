package catalog

import (
	"os"
	"path/filepath"
	"testing"
	"testing/fstest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/doeshing/orbit-go/internal/domain"
	"github.com/doeshing/orbit-go/internal/infrastructure/parser"
)

const sampleFile = `
category: test
author: tester
actions:
  - name: echo_test
    description: Echo a message
    risk: SAFE
    parameters:
      - name: msg
        required: true
        description: Message
      - name: count
        type: integer
        default: 5
    template: 'return "{{ .msg }}"'
    parser:
      kind: list
  - name: other
    category: misc
    description: Other category
    risk: moderate
    version: "2.0.0"
    template: 'return "x"'
`

func TestLoaderParse(t *testing.T) {
	l := NewLoader(nil, Options{})

	actions, err := l.Parse("sample.yaml", []byte(sampleFile))
	require.NoError(t, err)
	require.Len(t, actions, 2)

	echo := actions[0]
	assert.Equal(t, "echo_test", echo.Name)
	assert.Equal(t, "test", echo.Category)
	assert.Equal(t, domain.RiskSafe, echo.Risk)
	assert.Equal(t, domain.DefaultActionVersion, echo.Version)
	assert.Equal(t, "tester", echo.Author)
	assert.Equal(t, domain.ParamString, echo.Parameters[0].Type)
	assert.Equal(t, 5, echo.Parameters[1].Default)
	assert.IsType(t, parser.List{}, echo.Parser)

	other := actions[1]
	assert.Equal(t, "misc", other.Category)
	assert.Equal(t, "2.0.0", other.Version)
	assert.Nil(t, other.Parser)
}

func TestLoaderParseRejectsInvalidDefinitions(t *testing.T) {
	cases := map[string]string{
		"unknown risk": `
category: x
actions:
  - {name: a, risk: scary, template: "x"}`,
		"missing name": `
category: x
actions:
  - {risk: safe, template: "x"}`,
		"empty template": `
category: x
actions:
  - {name: a, risk: safe, template: "  "}`,
		"broken template": `
category: x
actions:
  - {name: a, risk: safe, template: "{{ .x "}`,
		"unknown parameter type": `
category: x
actions:
  - name: a
    risk: safe
    template: x
    parameters: [{name: p, type: float}]`,
		"duplicate parameter": `
category: x
actions:
  - name: a
    risk: safe
    template: x
    parameters: [{name: p}, {name: p}]`,
		"unknown parser": `
category: x
actions:
  - {name: a, risk: safe, template: x, parser: {kind: xml}}`,
		"missing category": `
actions:
  - {name: a, risk: safe, template: x}`,
	}

	l := NewLoader(nil, Options{})
	for name, doc := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := l.Parse("bad.yaml", []byte(doc))
			assert.Error(t, err)
		})
	}
}

func TestLoaderDisabledCategories(t *testing.T) {
	l := NewLoader(nil, Options{DisabledCategories: []string{"MISC"}})

	actions, err := l.Parse("sample.yaml", []byte(sampleFile))
	require.NoError(t, err)
	require.Len(t, actions, 1)
	assert.Equal(t, "echo_test", actions[0].Name)

	l = NewLoader(nil, Options{DisabledCategories: []string{"test"}})
	actions, err = l.Parse("sample.yaml", []byte(sampleFile))
	require.NoError(t, err)
	assert.Empty(t, actions)
}

func TestLoaderLoadFS(t *testing.T) {
	t.Run("Should read yaml files in lexical order", func(t *testing.T) {
		fsys := fstest.MapFS{
			"cat/b.yaml":   {Data: []byte("category: b\nactions:\n  - {name: b1, risk: safe, template: x}\n")},
			"cat/a.yml":    {Data: []byte("category: a\nactions:\n  - {name: a1, risk: safe, template: x}\n")},
			"cat/notes.md": {Data: []byte("ignored")},
		}

		actions, err := NewLoader(nil, Options{}).LoadFS(fsys, "cat")
		require.NoError(t, err)
		require.Len(t, actions, 2)
		assert.Equal(t, "a1", actions[0].Name)
		assert.Equal(t, "b1", actions[1].Name)
	})

	t.Run("Should reject names declared in two files", func(t *testing.T) {
		fsys := fstest.MapFS{
			"cat/a.yaml": {Data: []byte("category: a\nactions:\n  - {name: dup, risk: safe, template: x}\n")},
			"cat/b.yaml": {Data: []byte("category: b\nactions:\n  - {name: dup, risk: safe, template: x}\n")},
		}

		_, err := NewLoader(nil, Options{}).LoadFS(fsys, "cat")
		assert.ErrorContains(t, err, "dup")
	})
}

func TestLoaderLoadDir(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "sample.yaml"), []byte(sampleFile), 0o600))

	actions, err := NewLoader(nil, Options{}).LoadDir(dir)
	require.NoError(t, err)
	assert.Len(t, actions, 2)
}

func TestLoaderLoadBuiltin(t *testing.T) {
	actions, err := NewLoader(nil, Options{}).LoadBuiltin()
	require.NoError(t, err)
	assert.GreaterOrEqual(t, len(actions), 40)

	names := map[string]*domain.ActionDefinition{}
	for _, a := range actions {
		names[a.Name] = a
	}
	require.Contains(t, names, "system_get_info")
	assert.Equal(t, domain.RiskSafe, names["system_get_info"].Risk)
	require.Contains(t, names, "system_shutdown")
	assert.Equal(t, domain.RiskCritical, names["system_shutdown"].Risk)
	require.Contains(t, names, "notes_create")
	assert.Equal(t, []string{"title", "body"}, names["notes_create"].ToolSchema().Parameters.Required)
}

func TestLintBuiltinCatalogTemplates(t *testing.T) {
	actions, err := NewLoader(nil, Options{}).LoadBuiltin()
	require.NoError(t, err)

	for _, issue := range Lint(actions) {
		assert.NotContains(t, issue.Message, "undeclared parameter", issue.String())
		assert.NotContains(t, issue.Message, "enum values", issue.String())
	}
}

func TestLint(t *testing.T) {
	actions := []*domain.ActionDefinition{
		{
			Name:     "bad_template",
			Risk:     domain.RiskSafe,
			Template: `{{ .declared }} {{ .ghost }}`,
			Parameters: []domain.ParameterSpec{
				{Name: "declared", Type: domain.ParamString},
			},
		},
		{
			Name:     "bad_default",
			Risk:     domain.RiskSafe,
			Template: `{{ .mode }}`,
			Parameters: []domain.ParameterSpec{
				{Name: "mode", Type: domain.ParamString, Default: "c", Enum: []any{"a", "b"}},
			},
		},
		{
			Name:     "bad_example",
			Risk:     domain.RiskSafe,
			Template: `{{ .title }}`,
			Parameters: []domain.ParameterSpec{
				{Name: "title", Type: domain.ParamString, Required: true},
			},
			Examples: []domain.Example{{Input: map[string]any{}}},
		},
	}

	issues := Lint(actions)

	byAction := map[string][]string{}
	for _, issue := range issues {
		byAction[issue.Action] = append(byAction[issue.Action], issue.Message)
	}
	require.Len(t, byAction["bad_template"], 1)
	assert.Contains(t, byAction["bad_template"][0], `"ghost"`)
	require.Len(t, byAction["bad_default"], 1)
	assert.Contains(t, byAction["bad_default"][0], "enum")
	require.Len(t, byAction["bad_example"], 1)
	assert.Contains(t, byAction["bad_example"][0], "example #1")
}
