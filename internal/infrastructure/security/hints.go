package security

import (
	"strings"
)

type hintRule struct {
	match func(name, category, errLower, errText string) bool
	hint  string
}

const hintFooter = "\nThen try again."

var hintRules = []hintRule{
	{
		match: func(name, category, errLower, _ string) bool {
			return category == "safari" || strings.Contains(name, "safari")
		},
		hint: `Safari Automation Permission Required:
  1. Open System Settings
  2. Go to Privacy & Security > Automation
  3. Find Terminal (or your IDE)
  4. Enable Safari in the list` + hintFooter,
	},
	{
		match: func(_, _, errLower, errText string) bool {
			return strings.Contains(errLower, "not allowed") ||
				strings.Contains(errText, "不允许访问") ||
				strings.Contains(errText, "-1743")
		},
		hint: `Automation Permission Required:
  1. Open System Settings
  2. Go to Privacy & Security > Automation
  3. Find Terminal (or your IDE)
  4. Enable the application the action controls` + hintFooter,
	},
	{
		match: func(_, _, errLower, _ string) bool {
			return strings.Contains(errLower, "system events")
		},
		hint: `System Events Permission Required:
  1. Open System Settings
  2. Go to Privacy & Security > Accessibility
  3. Add Terminal (or your IDE) to the list
  4. Enable the checkbox` + hintFooter,
	},
	{
		match: func(name, category, errLower, _ string) bool {
			return (category == "finder" || strings.Contains(name, "finder")) && strings.Contains(errLower, "finder")
		},
		hint: `Finder Permission Required:
  1. Open System Settings
  2. Go to Privacy & Security > Accessibility
  3. Add Terminal (or your IDE) to the list
  4. Enable the checkbox` + hintFooter,
	},
	{
		match: func(name, category, errLower, _ string) bool {
			isFile := category == "files" || strings.HasPrefix(name, "file_")
			return isFile && (strings.Contains(errLower, "access") || strings.Contains(errLower, "permission"))
		},
		hint: `File Access Permission Required:
  1. Open System Settings
  2. Go to Privacy & Security > Full Disk Access
  3. Add Terminal (or your IDE) to the list
  4. Enable the checkbox` + hintFooter,
	},
}

// PermissionHint suggests which macOS privacy permission to grant for a
// failed action. It returns "" when nothing matches. Hints are advisory only;
// a panic while matching is swallowed and yields no hint.
func PermissionHint(name, category, errText string) (hint string) {
	defer func() {
		if recover() != nil {
			hint = ""
		}
	}()

	name = strings.ToLower(name)
	category = strings.ToLower(category)
	errLower := strings.ToLower(errText)
	for _, rule := range hintRules {
		if rule.match(name, category, errLower, errText) {
			return rule.hint
		}
	}
	return ""
}
