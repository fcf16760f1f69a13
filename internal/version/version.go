// Package version carries build metadata injected via -ldflags.
package version

import "fmt"

// Set at build time:
//
//	go build -ldflags "-X .../internal/version.Version=1.2.3 ..."
var (
	Version = "dev"
	Commit  = "unknown"
	Date    = "unknown"
)

// Info returns the full multi-value version line.
func Info() string {
	return fmt.Sprintf("GigaGrok %s (commit %s, built %s)", Version, Commit, Date)
}

// Short returns just the version string.
func Short() string {
	return Version
}
