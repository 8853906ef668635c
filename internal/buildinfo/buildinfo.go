// Package buildinfo carries version stamps set with
// -ldflags "-X watch/internal/buildinfo.Version=...".
package buildinfo

// Version is set at build time via -ldflags.
var Version = "dev"

// Commit is set at build time via -ldflags.
var Commit = "unknown"

// Date is set at build time via -ldflags.
var Date = "unknown"

// Short returns a compact build identifier for the window title and logs.
func Short() string {
	if Version != "" && Version != "dev" {
		return Version
	}
	if Commit != "" && Commit != "unknown" {
		return Commit
	}
	return "dev"
}

// String is the full stamp, e.g. "v1.2.0 (abc1234, 2024-03-09)".
func String() string {
	return Short() + " (" + Commit + ", " + Date + ")"
}
