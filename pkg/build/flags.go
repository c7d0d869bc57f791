// SPDX-License-Identifier: MIT
//
// Package build manages build metadata embedded into the binary at
// compile time via linker flags: application name, semantic version,
// Git commit hash and build timestamp. The values are surfaced in the
// CLI version string and log output.
package build

import "fmt"

type ldFlags struct {
	Name    string
	Time    string
	Commit  string
	Version string
}

// Package-level variables populated by -ldflags during compilation.
// They stay empty during development builds, in which case Initialize
// falls back to "dev" placeholders instead of failing.
var (
	buildName    string
	buildTime    string
	buildCommit  string
	buildVersion string
	buildFlags   = &ldFlags{
		Name:    "pulseviz",
		Time:    "unknown",
		Commit:  "unknown",
		Version: "dev",
	}
)

// Initialize copies build information from the ldflags variables into
// the buildFlags struct. Call early in program startup. Missing values
// keep their development defaults; a missing name is the only hard error
// since the CLI needs one.
func Initialize() error {
	if buildName != "" {
		buildFlags.Name = buildName
	}
	if buildTime != "" {
		buildFlags.Time = buildTime
	}
	if buildCommit != "" {
		buildFlags.Commit = buildCommit
	}
	if buildVersion != "" {
		buildFlags.Version = buildVersion
	}
	if buildFlags.Name == "" {
		return fmt.Errorf("build name is required")
	}
	return nil
}

// GetBuildFlags returns the current build information. Initialize must
// be called first for ldflags values to take effect.
func GetBuildFlags() *ldFlags {
	return buildFlags
}

// VersionString formats the build info for the CLI --version output.
func VersionString() string {
	return fmt.Sprintf("%s %s (%s, built %s)",
		buildFlags.Name, buildFlags.Version, buildFlags.Commit, buildFlags.Time)
}
