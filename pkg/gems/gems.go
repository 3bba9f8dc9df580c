package gems

import (
	"context"
	"fmt"
	"slices"
	"strings"

	"github.com/matzehuels/railcar/pkg/resource"
)

const (
	DefaultCheckpoint = "rails_gems" // Checkpoint every gem is ordered before
	DefaultMaxDepth   = 10           // Default maximum metadata expansion depth
	DefaultMaxNodes   = 500          // Default maximum metadata lookups per gem
	DefaultGroup      = "default"    // Group of manifest entries without one

	ProviderGem = "gem"
)

// Spec requests one gem.
type Spec struct {
	Name    string // Gem name
	Version string // Exact version; empty means any
	Source  string // Alternative gem source URL
	Alias   string // Alternative reference name for the package resource
}

func (s Spec) String() string {
	if s.Version == "" {
		return s.Name
	}
	return s.Name + " (" + s.Version + ")"
}

// Dependency is a gem entry of a bundled manifest.
type Dependency struct {
	Spec                  // Version is set only for an exact requirement
	Requirements []string // Raw version requirements, e.g. "~> 1.6"
	Groups       []string // Empty means the default group
}

// InGroups reports whether d belongs to any of the active groups.
func (d Dependency) InGroups(active []string) bool {
	if len(d.Groups) == 0 {
		return slices.Contains(active, DefaultGroup)
	}
	for _, g := range d.Groups {
		if slices.Contains(active, g) {
			return true
		}
	}
	return false
}

// ActiveGroups returns the default group plus groups, without duplicates.
func ActiveGroups(groups ...string) []string {
	out := []string{DefaultGroup}
	for _, g := range groups {
		if g != "" && !slices.Contains(out, g) {
			out = append(out, g)
		}
	}
	return out
}

// Probe is the installation state of a gem in the target environment.
type Probe struct {
	Present bool
	Version string // Installed version matched, if present
}

// Inventory answers whether a gem is installed.
type Inventory interface {
	// Probe reports whether name is installed. If version is non-empty,
	// only that exact version counts as present.
	Probe(ctx context.Context, name, version string) (Probe, error)
}

// Lookup is the result of a metadata query. Either Names holds the runtime
// dependencies of the gem, or Unavailable explains why they are unknown.
type Lookup struct {
	Names       []string
	Unavailable string
}

// Found returns a successful lookup.
func Found(names ...string) Lookup { return Lookup{Names: names} }

// LookupFailed returns an unavailable lookup with a formatted reason.
func LookupFailed(format string, args ...any) Lookup {
	return Lookup{Unavailable: fmt.Sprintf(format, args...)}
}

// Available reports whether the lookup produced a dependency list.
func (l Lookup) Available() bool { return l.Unavailable == "" }

// MetadataSource fetches the runtime dependencies of a gem.
//
// Recoverable failures (unknown gem, network trouble) are reported through
// Lookup.Unavailable. The error return is reserved for failures that must
// abort resolution, such as context cancellation.
type MetadataSource interface {
	Dependencies(ctx context.Context, name, version string) (Lookup, error)
}

// ChainSource queries sources in order; the first available lookup wins.
type ChainSource []MetadataSource

func (c ChainSource) Dependencies(ctx context.Context, name, version string) (Lookup, error) {
	var reasons []string
	for _, src := range c {
		if src == nil {
			continue
		}
		l, err := src.Dependencies(ctx, name, version)
		if err != nil {
			return Lookup{}, err
		}
		if l.Available() {
			return l, nil
		}
		reasons = append(reasons, l.Unavailable)
	}
	if len(reasons) == 0 {
		return LookupFailed("no metadata source configured"), nil
	}
	return LookupFailed("%s", strings.Join(reasons, "; ")), nil
}

// Ensure picks the ensure value for a gem from its probe state.
//
// A requested version is always pinned. Without one the gem is only
// required to be installed, so resolving an installed gem never forces
// a reinstall or upgrade.
func Ensure(p Probe, version string) string {
	switch {
	case p.Present && version == "":
		return resource.EnsureInstalled
	case p.Present:
		return version
	case version != "":
		return version
	default:
		return resource.EnsureInstalled
	}
}
