// Package version provides version information for the fwbump CLI.
package version

import "fmt"

// Version and Commit are set via ldflags during build.
var (
	Version = "dev"
	Commit  = ""
)

// GetVersion returns the current version string, with the short commit
// appended when known.
func GetVersion() string {
	if Commit == "" {
		return Version
	}
	short := Commit
	if len(short) > 7 {
		short = short[:7]
	}
	return fmt.Sprintf("%s (%s)", Version, short)
}
