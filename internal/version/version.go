// Package version exposes the build version of the quizdeck server.
package version

import "fmt"

// Version is the semver of the current build. Overridden at build time with
// -ldflags "-X github.com/quizdeck/quizdeck/internal/version.Version=...".
var Version = "0.4.0"

// DevVersion is the version suffix used for development builds.
var DevVersion = "dev"

// GetCurrentVersion returns the version string for the given mode.
func GetCurrentVersion(mode string) string {
	if mode == "prod" {
		return Version
	}
	return fmt.Sprintf("%s-%s", Version, DevVersion)
}
