package gems

import (
	"strings"

	"github.com/Masterminds/semver/v3"
)

// VersionsEqual reports whether two version strings name the same release.
//
// Versions that parse as semantic versions are compared numerically, so
// "1.6" equals "1.6.0". Anything else, such as "1.6.0.rc1", falls back to
// string equality.
func VersionsEqual(a, b string) bool {
	a, b = strings.TrimSpace(a), strings.TrimSpace(b)
	if a == b {
		return true
	}
	va, errA := semver.NewVersion(a)
	vb, errB := semver.NewVersion(b)
	if errA != nil || errB != nil {
		return false
	}
	return va.Equal(vb)
}
