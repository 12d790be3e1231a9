package catalog

import (
	"encoding/json"
	"fmt"
	"sort"
	"text/template"

	"github.com/kaptinlin/jsonschema"

	"github.com/doeshing/orbit-go/internal/domain"
	"github.com/doeshing/orbit-go/internal/infrastructure/render"
)

// Issue is one lint finding.
type Issue struct {
	Action  string `json:"action"`
	Message string `json:"message"`
}

func (i Issue) String() string {
	return fmt.Sprintf("%s: %s", i.Action, i.Message)
}

// Lint checks loaded definitions for problems the loader tolerates: tool
// schemas that are not valid JSON Schema, examples that do not satisfy their
// schema, enum defaults outside the enum, and template references to
// undeclared parameters.
func Lint(actions []*domain.ActionDefinition) []Issue {
	var issues []Issue
	funcs := render.NewRenderer().Funcs()

	for _, action := range actions {
		report := func(format string, args ...any) {
			issues = append(issues, Issue{Action: action.Name, Message: fmt.Sprintf(format, args...)})
		}

		schemaJSON, err := json.Marshal(action.ToolSchema().Parameters)
		if err != nil {
			report("marshal schema: %v", err)
			continue
		}
		schema, err := jsonschema.NewCompiler().Compile(schemaJSON)
		if err != nil {
			report("invalid parameter schema: %v", err)
			continue
		}

		for i, example := range action.Examples {
			input, err := normalize(example.Input)
			if err != nil {
				report("example #%d: %v", i+1, err)
				continue
			}
			if result := schema.Validate(input); !result.Valid {
				report("example #%d does not match the parameter schema: %v", i+1, result.Errors)
			}
		}

		for _, p := range action.Parameters {
			if p.Default != nil && len(p.Enum) > 0 && !p.Allows(p.Default) {
				report("default of %q is not one of its enum values", p.Name)
			}
		}

		tmpl, err := template.New(action.Name).Funcs(funcs).Parse(action.Template)
		if err != nil {
			report("template: %v", err)
			continue
		}
		for _, ref := range render.References(tmpl) {
			if _, ok := action.Parameter(ref); !ok {
				report("template references undeclared parameter %q", ref)
			}
		}
	}

	sort.SliceStable(issues, func(i, j int) bool { return issues[i].Action < issues[j].Action })
	return issues
}

// normalize converts YAML-decoded values into their JSON-decoded form so they
// validate the way tool-call arguments would.
func normalize(input map[string]any) (map[string]any, error) {
	if input == nil {
		return map[string]any{}, nil
	}
	raw, err := json.Marshal(input)
	if err != nil {
		return nil, err
	}
	var out map[string]any
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, err
	}
	return out, nil
}
