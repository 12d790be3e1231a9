// Package version holds build metadata injected with -ldflags.
package version

var (
	// Version is the release tag.
	Version = "dev"
	// Commit is the git revision.
	Commit = ""
	// BuildDate is the build timestamp.
	BuildDate = ""
)
