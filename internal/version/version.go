package version

import (
	"fmt"
	"runtime"
)

// Set via ldflags at build time:
//
//	go build -ldflags "-X github.com/soyeahso/jackbot/internal/version.Version=1.0.0
//	  -X github.com/soyeahso/jackbot/internal/version.Commit=abc123
//	  -X github.com/soyeahso/jackbot/internal/version.Date=2026-01-01"
var (
	Version = "dev"
	Commit  = "unknown"
	Date    = "unknown"
)

// Info returns a formatted version string.
func Info() string {
	return fmt.Sprintf("jackbot %s (commit: %s, built: %s, %s/%s)",
		Version, short(Commit), Date, runtime.GOOS, runtime.GOARCH)
}

// UserAgent is sent on every request to the artifact service.
func UserAgent() string {
	return fmt.Sprintf("jackbot/%s (+%s)", Version, short(Commit))
}

func short(s string) string {
	if len(s) > 7 {
		return s[:7]
	}
	return s
}
