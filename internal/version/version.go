// Package version exposes build metadata, overridable at link time via
// -ldflags "-X timelock-scope/internal/version.Version=...".
package version

var (
	Version = "dev"
	Commit  = "unknown"
)
