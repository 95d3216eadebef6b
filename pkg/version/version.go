// Package version reports the lexdebate build.
package version

import (
	"fmt"
	"runtime"
)

// Version is the release version, injected at link time:
//
//	-X github.com/Aman-CERP/lexdebate/pkg/version.Version=$(VERSION)
var Version = "dev"

var (
	// Commit is the short git hash (-X ...version.Commit).
	Commit = "unknown"

	// Date is the RFC3339 build time (-X ...version.Date).
	Date = "unknown"

	GoVersion = runtime.Version()
)

// BuildInfo is the JSON shape of `lexdebate version --json` and GET /health.
type BuildInfo struct {
	Version   string `json:"version"`
	Commit    string `json:"commit"`
	Date      string `json:"date"`
	GoVersion string `json:"go_version"`
	OS        string `json:"os"`
	Arch      string `json:"arch"`
}

// String returns the one-line banner printed by `lexdebate version`.
func String() string {
	return fmt.Sprintf("lexdebate %s (commit: %s, built: %s, go: %s, %s/%s)",
		Version, Commit, Date, GoVersion, runtime.GOOS, runtime.GOARCH)
}

// Short returns the bare version.
func Short() string {
	return Version
}

// GetInfo returns the build as a struct.
func GetInfo() BuildInfo {
	return BuildInfo{
		Version:   Version,
		Commit:    Commit,
		Date:      Date,
		GoVersion: GoVersion,
		OS:        runtime.GOOS,
		Arch:      runtime.GOARCH,
	}
}

// UserAgent identifies lexdebate to upstream embedding providers.
func UserAgent() string {
	return "lexdebate/" + Version
}
