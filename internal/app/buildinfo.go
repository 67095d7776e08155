package app

import "fmt"

// Set with -ldflags "-X github.com/hyperifyio/gooptimize/internal/app.BuildVersion=..."
var (
	BuildVersion = "0.0.0-dev"
	BuildCommit  = "unknown"
	BuildDate    = "unknown"
)

// VersionString is printed by -version.
func VersionString() string {
	return fmt.Sprintf("gooptimize %s (commit %s, built %s)", BuildVersion, BuildCommit, BuildDate)
}
