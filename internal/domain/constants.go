package domain

import "time"

// File permissions constants
const (
	// DirectoryPermissions is the default permission for directories (rwxr-xr-x)
	DirectoryPermissions = 0o755
	// SecureFilePermissions is the permission for sensitive files (rw-------)
	SecureFilePermissions = 0o600
)

// Execution constants
const (
	// DefaultExecutionTimeout bounds a single script run
	DefaultExecutionTimeout = 30 * time.Second
	// DefaultMaxRetries is the attempt limit when retry is enabled
	DefaultMaxRetries = 3
	// DefaultInterpreter runs AppleScript source passed with DefaultScriptFlag
	DefaultInterpreter = "osascript"
	// DefaultScriptFlag precedes the script text on the interpreter command line
	DefaultScriptFlag = "-e"
	// DefaultActionVersion is assigned to catalog entries without a version
	DefaultActionVersion = "1.0.0"
)

// History constants
const (
	// DefaultHistoryLimit is the default number of history records to display
	DefaultHistoryLimit = 20
	// DefaultHistorySearchLimit is the default number of search results to return
	DefaultHistorySearchLimit = 50
	// DefaultHistoryRetainDays is the default number of days to retain history
	DefaultHistoryRetainDays = 30
)

// CLI constants
const (
	// DefaultListCount is the number of actions `orbit list` shows
	DefaultListCount = 20
	// DefaultBatchLimit bounds concurrent invocations in a batch
	DefaultBatchLimit = 4
)

// Time formats
const (
	// TimestampFormat is the standard timestamp format
	TimestampFormat = time.RFC3339
)
