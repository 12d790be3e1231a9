package security

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPermissionHint(t *testing.T) {
	cases := []struct {
		name     string
		action   string
		category string
		errText  string
		want     string
	}{
		{"safari category", "safari_get_url", "safari", "execution error", "Safari Automation"},
		{"english automation denial", "notes_create", "notes", "Not allowed to send Apple events to Notes. (-1743)", "Privacy & Security > Automation"},
		{"localized automation denial", "music_play", "music", "不允许访问", "Privacy & Security > Automation"},
		{"system events", "system_get_battery", "system", "System Events got an error: access denied", "Accessibility"},
		{"finder", "finder_get_selection", "finder", "Finder got an error", "Finder Permission"},
		{"file access", "file_read", "files", "Permission denied", "Full Disk Access"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			hint := PermissionHint(tc.action, tc.category, tc.errText)
			assert.Contains(t, hint, tc.want)
			assert.Contains(t, hint, "Then try again.")
		})
	}
}

func TestPermissionHintNoMatch(t *testing.T) {
	assert.Empty(t, PermissionHint("notes_list", "notes", "syntax error"))
	assert.Empty(t, PermissionHint("file_read", "files", "no such file"))
}
