// Package version carries build metadata stamped in via -ldflags.
package version

var (
	// Version is the release tag of this engineer build, or "dev" for
	// local builds.
	Version = "dev"
	// GitSHA identifies the commit the binary was built from.
	GitSHA = "unknown"
	// BuildTime is when the binary was built.
	BuildTime = "unknown"
)
