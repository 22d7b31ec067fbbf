// Package build provides version and build information for relcut.
// This package intentionally has no dependencies on other internal packages
// to avoid import cycles.
package build

import (
	"fmt"
	"runtime"
)

var (
	// Version information - set via ldflags during build
	Version   = "dev"
	Commit    = "unknown"
	BuildDate = "unknown"
)

// Info returns a one-line summary used by `relcut --version`.
func Info() string {
	return fmt.Sprintf("%s (commit %s, built %s, %s %s/%s)",
		Version, truncateCommit(Commit), BuildDate, runtime.Version(), runtime.GOOS, runtime.GOARCH)
}

// truncateCommit shortens commit hash if it's too long
func truncateCommit(commit string) string {
	if len(commit) > 8 {
		return commit[:8]
	}
	return commit
}
