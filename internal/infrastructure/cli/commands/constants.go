package commands

import (
	"context"

	"github.com/doeshing/orbit-go/internal/app"
)

// ContainerFunc returns the application container, building it on first use.
type ContainerFunc func(ctx context.Context) (*app.Container, error)

// CLI-specific constants
const (
	// DefaultEditorCommand is the default editor command
	DefaultEditorCommand = "vi"

	DefaultHistoryLimit       = 20
	DefaultHistorySearchLimit = 50
	DefaultHistoryPruneDays   = 30
	MaxHistoryAnalysisRecords = 1000
	DefaultBatchParallelism   = 4
)

// Schema export formats
const (
	SchemaFormatOpenAI  = "openai"
	SchemaFormatPlain   = "plain"
	SchemaFormatCatalog = "catalog"
)

// Error messages
const (
	ErrDoctorServiceUnavailable = "doctor service unavailable"
	ErrHistoryStoreUnavailable  = "history store unavailable (history.enabled is false)"
	ErrInvalidRetainDays        = "--days must be > 0"
)

// Success messages
const (
	MsgConfigurationValid       = "Configuration valid"
	MsgNoDifferencesFromDefault = "No differences from default configuration."
	MsgCatalogClean             = "No catalog issues found."
)
