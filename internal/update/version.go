package update

import (
	"strings"

	"github.com/Masterminds/semver/v3"
)

// IsNewer reports whether candidate is a newer version than current.
// Both strings are compared as semantic versions when possible
// (tolerating a leading "v"); if either fails to parse, the comparison
// falls back to plain lexicographic order. The fallback is a known
// imprecision for free-form version strings, not a correctness
// guarantee.
func IsNewer(candidate, current string) bool {
	cv, errC := parseSemver(candidate)
	iv, errI := parseSemver(current)
	if errC != nil || errI != nil {
		return candidate > current
	}
	return cv.GreaterThan(iv)
}

func parseSemver(version string) (*semver.Version, error) {
	return semver.NewVersion(strings.TrimPrefix(version, "v"))
}
