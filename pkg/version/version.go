// Package version holds build information injected by the linker.
package version

import "fmt"

// Version, GitCommit, and BuildDate are set at build time via ldflags:
//
//	go build -ldflags "-X github.com/rishi-bahadoor/validation-tests-generator/pkg/version.Version=v1.0.0 \
//	  -X github.com/rishi-bahadoor/validation-tests-generator/pkg/version.GitCommit=abc1234 \
//	  -X github.com/rishi-bahadoor/validation-tests-generator/pkg/version.BuildDate=2026-01-01T00:00:00Z"
var (
	Version   = "dev"
	GitCommit = "unknown"
	BuildDate = "unknown"
)

// Info returns a formatted version string for display.
func Info() string {
	return Version + " (" + GitCommit + ") built " + BuildDate
}

// Banner is the one-line version output of the named program.
func Banner(program string) string {
	if Version == "dev" {
		return fmt.Sprintf("%s dev build (use 'make build' for version info)", program)
	}
	return fmt.Sprintf("%s %s", program, Info())
}
