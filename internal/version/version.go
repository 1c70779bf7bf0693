// Package version carries build metadata stamped in with -ldflags, e.g.
//
//	go build -ldflags "-X github.com/banshee-data/flowcheck/internal/version.Version=v0.3.0"
package version

import "fmt"

var (
	// Version is the release tag of the flowcheck binary.
	Version = "dev"
	// GitSHA is the git commit SHA
	GitSHA = "unknown"
	// BuildTime is the build timestamp
	BuildTime = "unknown"
)

// String formats the build metadata for -version output.
func String() string {
	return fmt.Sprintf("flowcheck %s (%s, built %s)", Version, GitSHA, BuildTime)
}
