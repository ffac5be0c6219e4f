package version

import "fmt"

// These variables are set at build time via ldflags
var (
	Commit    = "unknown"
	BuildTime = "unknown"

	// Interface is the conversational interface version shipped by this build.
	// Identities whose stored marker differs are shown an upgrade notice once.
	Interface = "1.1.1"
)

// Baseline is the marker assumed for identities created before versioning existed.
const Baseline = "1.0"

// String returns the version string (commit-hash based, no semver)
func String() string {
	return fmt.Sprintf("bpbot dev (commit: %s, built: %s, interface: %s)", shortCommit(), BuildTime, Interface)
}

func shortCommit() string {
	if len(Commit) > 7 {
		return Commit[:7]
	}
	return Commit
}
