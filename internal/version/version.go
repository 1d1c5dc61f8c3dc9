// Package version centralizes version information for the server.
package version

import "fmt"

// Version is the semantic version of this build. Overridable at link
// time with -ldflags "-X .../internal/version.Version=x.y.z".
var Version = "0.1.0"

// Commit is the VCS revision of this build, when known.
var Commit = "dev"

// FullInfo returns a human-readable version string.
func FullInfo() string {
	return fmt.Sprintf("%s (%s)", Version, Commit)
}
