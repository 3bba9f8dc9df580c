package gemfile

import (
	"bufio"
	"context"
	"io"
	"os"
	"regexp"
	"strings"

	"github.com/matzehuels/railcar/pkg/errors"
	"github.com/matzehuels/railcar/pkg/gems"
)

// LockedSpec is one resolved gem of a Gemfile.lock.
type LockedSpec struct {
	Name         string
	Version      string
	Dependencies []string
}

// Lockfile is a parsed Gemfile.lock.
type Lockfile struct {
	Specs       map[string]*LockedSpec
	Platforms   []string
	BundledWith string
	order       []string
}

// Names returns the locked gem names in file order.
func (l *Lockfile) Names() []string { return l.order }

// Version returns the locked version of name.
func (l *Lockfile) Version(name string) (string, bool) {
	s, ok := l.Specs[name]
	if !ok {
		return "", false
	}
	return s.Version, true
}

var (
	specLine = regexp.MustCompile(`^    ([^\s(]+) \(([^)]+)\)$`)
	depLine  = regexp.MustCompile(`^      ([^\s(]+)`)
)

// ParseLockfile reads the specs sections (GEM, GIT and PATH) of a
// Gemfile.lock, along with its platforms and bundler version.
func ParseLockfile(r io.Reader) (*Lockfile, error) {
	l := &Lockfile{Specs: map[string]*LockedSpec{}}
	var (
		section string
		inSpecs bool
		current *LockedSpec
	)

	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		line := strings.TrimRight(scanner.Text(), " \r")
		if line == "" {
			inSpecs, current = false, nil
			continue
		}
		if !strings.HasPrefix(line, " ") {
			section, inSpecs, current = line, false, nil
			continue
		}

		switch section {
		case "GEM", "GIT", "PATH":
			if strings.TrimSpace(line) == "specs:" {
				inSpecs = true
				continue
			}
			if !inSpecs {
				continue
			}
			if m := specLine.FindStringSubmatch(line); m != nil {
				current = &LockedSpec{Name: m[1], Version: m[2]}
				if _, dup := l.Specs[m[1]]; !dup {
					l.order = append(l.order, m[1])
				}
				l.Specs[m[1]] = current
				continue
			}
			if m := depLine.FindStringSubmatch(line); m != nil && current != nil {
				current.Dependencies = append(current.Dependencies, m[1])
				continue
			}
			return nil, errors.New(errors.ErrCodeInvalidManifest, "unexpected lockfile line %q", line)
		case "PLATFORMS":
			l.Platforms = append(l.Platforms, strings.TrimSpace(line))
		case "BUNDLED WITH":
			l.BundledWith = strings.TrimSpace(line)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidManifest, err, "read lockfile")
	}
	return l, nil
}

// ParseLockfileFile parses the Gemfile.lock at path.
func ParseLockfileFile(path string) (*Lockfile, error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.Wrap(errors.ErrCodeFileNotFound, err, "lockfile")
		}
		return nil, err
	}
	defer f.Close()
	return ParseLockfile(f)
}

// LockfileSource answers metadata queries offline from a lockfile.
type LockfileSource struct {
	Lock *Lockfile
}

// Dependencies returns the locked dependencies of name. A gem that is not
// locked, or locked at another version, is unavailable.
func (s LockfileSource) Dependencies(ctx context.Context, name, version string) (gems.Lookup, error) {
	if err := ctx.Err(); err != nil {
		return gems.Lookup{}, err
	}
	spec, ok := s.Lock.Specs[name]
	if !ok {
		return gems.LookupFailed("%s is not locked", name), nil
	}
	if version != "" && !gems.VersionsEqual(spec.Version, version) {
		return gems.LookupFailed("%s is locked at %s, not %s", name, spec.Version, version), nil
	}
	return gems.Found(spec.Dependencies...), nil
}
