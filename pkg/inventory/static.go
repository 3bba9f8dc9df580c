package inventory

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/matzehuels/railcar/pkg/errors"
	"github.com/matzehuels/railcar/pkg/gems"
)

// Static is an in-memory inventory of installed gem versions.
type Static struct {
	installed map[string][]string
}

// NewStatic creates an inventory from gem name → installed versions.
func NewStatic(installed map[string][]string) *Static {
	s := &Static{installed: make(map[string][]string, len(installed))}
	for name, versions := range installed {
		s.installed[name] = slices.Clone(versions)
	}
	return s
}

// LoadFile reads a JSON or YAML snapshot mapping gem names to versions,
// e.g. captured from `gem list` on a provisioned host and passed to
// `railcar plan --snapshot`.
func LoadFile(path string) (*Static, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.Wrap(errors.ErrCodeFileNotFound, err, "inventory %s", path)
		}
		return nil, err
	}

	installed := map[string][]string{}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		err = json.Unmarshal(data, &installed)
	case ".yml", ".yaml":
		err = yaml.Unmarshal(data, &installed)
	default:
		return nil, errors.New(errors.ErrCodeInvalidFormat, "unsupported inventory format %q", filepath.Ext(path))
	}
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidFormat, err, "decode inventory %s", path)
	}
	return NewStatic(installed), nil
}

// Probe implements gems.Inventory.
func (s *Static) Probe(ctx context.Context, name, version string) (gems.Probe, error) {
	if err := ctx.Err(); err != nil {
		return gems.Probe{}, err
	}
	return match(s.installed[name], version), nil
}

// Installed returns a copy of the inventory contents.
func (s *Static) Installed() map[string][]string {
	out := make(map[string][]string, len(s.installed))
	for name, versions := range s.installed {
		out[name] = slices.Clone(versions)
	}
	return out
}

// match picks the first installed version equal to version, or the first
// installed version if version is empty.
func match(installed []string, version string) gems.Probe {
	for _, v := range installed {
		if version == "" || gems.VersionsEqual(v, version) {
			return gems.Probe{Present: true, Version: v}
		}
	}
	return gems.Probe{}
}
