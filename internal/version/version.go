package version

import "runtime"

// Set at build time with -ldflags "-X github.com/user/bmvault/internal/version.Version=v0.1.0".
var (
	Version   = "dev"
	Commit    = "none"
	BuildDate = "unknown"
	GoVersion = runtime.Version()
)

func String() string {
	return Version + " (commit " + Commit + ", built " + BuildDate + ", " + GoVersion + ")"
}
