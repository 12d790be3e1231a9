// Package domain defines core entities and value objects for Orbit.
//
// This file contains the action (satellite) definitions that the registry
// indexes and the dispatcher launches. The domain layer is independent of
// infrastructure concerns.
package domain

import (
	"encoding/json"
	"fmt"
	"reflect"
	"strings"
)

// RiskLevel classifies how much harm an action can cause.
// Levels are strictly ordered: safe < moderate < dangerous < critical.
type RiskLevel string

const (
	// RiskSafe covers read-only operations without side effects.
	RiskSafe RiskLevel = "safe"
	// RiskModerate covers create/modify operations.
	RiskModerate RiskLevel = "moderate"
	// RiskDangerous covers delete operations.
	RiskDangerous RiskLevel = "dangerous"
	// RiskCritical covers system-level operations (shutdown, reboot).
	RiskCritical RiskLevel = "critical"
)

// RiskLevels lists every level in increasing order of potential harm.
var RiskLevels = []RiskLevel{RiskSafe, RiskModerate, RiskDangerous, RiskCritical}

// Rank returns the ordinal of the level, or -1 when unknown.
func (r RiskLevel) Rank() int {
	for i, level := range RiskLevels {
		if level == r {
			return i
		}
	}
	return -1
}

// Valid reports whether r is one of the known levels.
func (r RiskLevel) Valid() bool {
	return r.Rank() >= 0
}

// ParseRiskLevel converts a case-insensitive name into a RiskLevel.
func ParseRiskLevel(value string) (RiskLevel, error) {
	level := RiskLevel(strings.ToLower(strings.TrimSpace(value)))
	if !level.Valid() {
		return "", fmt.Errorf("unknown risk level %q", value)
	}
	return level, nil
}

// ParameterType is the JSON-schema type of a parameter.
type ParameterType string

const (
	ParamString  ParameterType = "string"
	ParamInteger ParameterType = "integer"
	ParamBoolean ParameterType = "boolean"
	ParamObject  ParameterType = "object"
	ParamArray   ParameterType = "array"
)

// Valid reports whether t is a supported parameter type.
func (t ParameterType) Valid() bool {
	switch t {
	case ParamString, ParamInteger, ParamBoolean, ParamObject, ParamArray:
		return true
	default:
		return false
	}
}

// ParameterSpec declares one named input of an action.
type ParameterSpec struct {
	Name        string        `yaml:"name" json:"name"`
	Type        ParameterType `yaml:"type" json:"type"`
	Description string        `yaml:"description" json:"description"`
	Required    bool          `yaml:"required" json:"required"`
	Default     any           `yaml:"default,omitempty" json:"default,omitempty"`
	Enum        []any         `yaml:"enum,omitempty" json:"enum,omitempty"`
}

// Allows reports whether value satisfies the enum constraint. Numbers compare
// by value, so 5, int64(5) and 5.0 are equal.
func (p ParameterSpec) Allows(value any) bool {
	if len(p.Enum) == 0 {
		return true
	}
	v := normalizeScalar(value)
	for _, allowed := range p.Enum {
		if reflect.DeepEqual(normalizeScalar(allowed), v) {
			return true
		}
	}
	return false
}

func normalizeScalar(v any) any {
	switch n := v.(type) {
	case int:
		return float64(n)
	case int8:
		return float64(n)
	case int16:
		return float64(n)
	case int32:
		return float64(n)
	case int64:
		return float64(n)
	case uint:
		return float64(n)
	case uint8:
		return float64(n)
	case uint16:
		return float64(n)
	case uint32:
		return float64(n)
	case uint64:
		return float64(n)
	case float32:
		return float64(n)
	case json.Number:
		if f, err := n.Float64(); err == nil {
			return f
		}
		return n.String()
	default:
		return v
	}
}

// Example documents one sample invocation of an action.
type Example struct {
	Input  map[string]any `yaml:"input" json:"input"`
	Output any            `yaml:"output,omitempty" json:"output,omitempty"`
}

// ResultParser turns raw script output into a structured value.
type ResultParser interface {
	Parse(raw string) (any, error)
}

// ActionDefinition is the static, immutable description of one automation
// action. Once registered it is owned by the registry and never mutated.
type ActionDefinition struct {
	Name        string          `yaml:"name" json:"name"`
	Description string          `yaml:"description" json:"description"`
	Category    string          `yaml:"category" json:"category"`
	Parameters  []ParameterSpec `yaml:"parameters" json:"parameters"`
	Risk        RiskLevel       `yaml:"risk" json:"safety_level"`
	Template    string          `yaml:"template" json:"-"`
	ParserSpec  *ParserSpec     `yaml:"parser,omitempty" json:"parser,omitempty"`
	Examples    []Example       `yaml:"examples,omitempty" json:"examples,omitempty"`
	Version     string          `yaml:"version" json:"version"`
	Author      string          `yaml:"author,omitempty" json:"author,omitempty"`

	// Parser is built from ParserSpec by the catalog loader, or set directly
	// for actions declared in code.
	Parser ResultParser `yaml:"-" json:"-"`
}

// Parameter returns the spec for name, if declared.
func (a *ActionDefinition) Parameter(name string) (ParameterSpec, bool) {
	for _, p := range a.Parameters {
		if p.Name == name {
			return p, true
		}
	}
	return ParameterSpec{}, false
}

// WithDefaults returns a copy of params where every declared parameter that
// is absent or nil but has a default is filled in. Nil values are dropped.
// The input map is not modified.
func (a *ActionDefinition) WithDefaults(params map[string]any) map[string]any {
	merged := make(map[string]any, len(params)+len(a.Parameters))
	for k, v := range params {
		if v != nil {
			merged[k] = v
		}
	}
	for _, p := range a.Parameters {
		if _, ok := merged[p.Name]; !ok && p.Default != nil {
			merged[p.Name] = p.Default
		}
	}
	return merged
}

// ToolSchema builds the tool-calling declaration consumed by LLM APIs.
func (a *ActionDefinition) ToolSchema() ToolSchema {
	props := make(map[string]PropertySchema, len(a.Parameters))
	required := make([]string, 0, len(a.Parameters))
	for _, p := range a.Parameters {
		props[p.Name] = PropertySchema{
			Type:        string(p.Type),
			Description: p.Description,
			Default:     p.Default,
			Enum:        p.Enum,
		}
		if p.Required {
			required = append(required, p.Name)
		}
	}
	return ToolSchema{
		Name:        a.Name,
		Description: a.Description,
		Parameters: ToolParameters{
			Type:       "object",
			Properties: props,
			Required:   required,
		},
	}
}

// ToolSchema is the function/tool declaration format of LLM tool-calling APIs.
type ToolSchema struct {
	Name        string         `json:"name"`
	Description string         `json:"description"`
	Parameters  ToolParameters `json:"parameters"`
}

// ToolParameters is the JSON-schema object describing tool arguments.
type ToolParameters struct {
	Type       string                    `json:"type"`
	Properties map[string]PropertySchema `json:"properties"`
	Required   []string                  `json:"required"`
}

// PropertySchema describes a single tool argument.
type PropertySchema struct {
	Type        string `json:"type"`
	Description string `json:"description"`
	Default     any    `json:"default,omitempty"`
	Enum        []any  `json:"enum,omitempty"`
}

// ToolCall is the envelope an LLM returns when it wants a tool invoked.
type ToolCall struct {
	Name      string `json:"name"`
	Arguments string `json:"arguments"`
}
