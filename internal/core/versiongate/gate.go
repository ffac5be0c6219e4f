// Package versiongate decides whether an identity must see the upgrade notice
// before its next interaction.
package versiongate

// Decision is the outcome of comparing a stored marker with the build's.
type Decision int

const (
	// Unchanged means the identity already runs the current interface.
	Unchanged Decision = iota
	// Interrupted means the marker was stale; the caller records the new
	// version and shows the upgrade notice instead of the normal reply.
	Interrupted
)

func (d Decision) String() string {
	switch d {
	case Unchanged:
		return "unchanged"
	case Interrupted:
		return "interrupted"
	default:
		return "unknown"
	}
}

// Decide compares versions by exact string equality. An empty stored value
// (never stamped) always differs from a non-empty current version.
func Decide(stored, current string) Decision {
	if stored == current {
		return Unchanged
	}
	return Interrupted
}
