package app

// Version is the semantic version of sixmcp, set at build time via -ldflags.
var Version = "dev"

// Build is the git commit hash or build identifier, set at build time via -ldflags.
var Build = "unknown"

// UserAgent is sent on catalog requests when none is configured.
func UserAgent() string {
	return "sixmcp/" + Version
}
