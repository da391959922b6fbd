package version

import "fmt"

var (
	// Version is the semantic version of the installer build. Overridden via ldflags on release.
	Version = "1.0.0"
	// Commit is the short git SHA embedded at build time (or "none" for local builds).
	Commit = "none"
	// BuildTime is the UTC build timestamp embedded at build time.
	BuildTime = "unknown"
)

// Short returns only the semantic version string.
func Short() string {
	return Version
}

// Full renders the complete build description in the
// "version: X, commit: Y, built at: Z" form the CLI prints.
func Full() string {
	return fmt.Sprintf("version: %s, commit: %s, built at: %s", Version, Commit, BuildTime)
}
