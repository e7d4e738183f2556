// Package version reports build information and the companion file format.
package version

import (
	"fmt"
	"runtime"
)

// Build information. These variables are set at build time via ldflags.
var (
	// CommitHash is the git commit hash when the binary was built
	CommitHash = "dev"

	// BuildTime is when the binary was built
	BuildTime = "unknown"

	// Version is the semantic version (if tagged)
	Version = "dev"
)

// FormatVersion is the version of the companion file layout written by make.
// Readers accept any companion whose major version matches FormatConstraint.
const (
	FormatVersion    = "1.0.0"
	FormatConstraint = "^1"
)

// Info contains version and build information
type Info struct {
	CommitHash string `json:"commit_hash"`
	BuildTime  string `json:"build_time"`
	Version    string `json:"version"`
	Format     string `json:"format"`
	GoVersion  string `json:"go_version"`
	Platform   string `json:"platform"`
}

// Get returns the current version information
func Get() Info {
	return Info{
		CommitHash: CommitHash,
		BuildTime:  BuildTime,
		Version:    Version,
		Format:     FormatVersion,
		GoVersion:  runtime.Version(),
		Platform:   fmt.Sprintf("%s/%s", runtime.GOOS, runtime.GOARCH),
	}
}

// String returns a human-readable version string
func (i Info) String() string {
	if i.Version != "dev" {
		return fmt.Sprintf("portrait %s (commit %s, built %s, format %s)", i.Version, i.CommitHash, i.BuildTime, i.Format)
	}
	return fmt.Sprintf("portrait dev (commit %s, built %s, format %s)", i.CommitHash, i.BuildTime, i.Format)
}
