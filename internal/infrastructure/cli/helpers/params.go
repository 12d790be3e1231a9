package helpers

import (
	"encoding/json"
	"fmt"
	"strings"
)

// ParseInvocationArgs turns the positional arguments of `orbit run` into a
// parameter map. A single argument starting with "{" is decoded as a JSON
// object; otherwise every argument must be key=value, with the value read as
// YAML so numbers, booleans and lists keep their type.
func ParseInvocationArgs(args []string) (map[string]any, error) {
	params := map[string]any{}
	if len(args) == 1 && strings.HasPrefix(strings.TrimSpace(args[0]), "{") {
		if err := json.Unmarshal([]byte(args[0]), &params); err != nil {
			return nil, fmt.Errorf("parameters are not a JSON object: %w", err)
		}
		return params, nil
	}
	for _, arg := range args {
		key, raw, ok := strings.Cut(arg, "=")
		key = strings.TrimSpace(key)
		if !ok || key == "" {
			return nil, fmt.Errorf("expected key=value, got %q", arg)
		}
		if raw == "" {
			params[key] = ""
			continue
		}
		value, err := ParseYAMLValue(raw)
		if err != nil {
			return nil, err
		}
		if value == nil {
			value = raw
		}
		params[key] = value
	}
	return params, nil
}
