package app

import (
	"encoding/json"
	"fmt"
)

// FormatValue renders a parsed action result as text: strings verbatim,
// everything else as indented JSON.
func FormatValue(v any) string {
	switch val := v.(type) {
	case nil:
		return ""
	case string:
		return val
	case fmt.Stringer:
		return val.String()
	}
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Sprint(v)
	}
	return string(data)
}
