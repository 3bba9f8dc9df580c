package gems

import (
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"

	"github.com/matzehuels/railcar/pkg/errors"
)

// SystemPackageMap maps a gem name to the system packages it needs to build.
// It is read-only once resolution starts.
type SystemPackageMap map[string][]string

// Packages returns the system packages for name.
func (m SystemPackageMap) Packages(name string) []string {
	return m[name]
}

// With returns a copy of m with the entries of overrides replacing its own.
func (m SystemPackageMap) With(overrides SystemPackageMap) SystemPackageMap {
	out := make(SystemPackageMap, len(m)+len(overrides))
	for k, v := range m {
		out[k] = slices.Clone(v)
	}
	for k, v := range overrides {
		out[k] = slices.Clone(v)
	}
	return out
}

// Validate checks every system package name.
func (m SystemPackageMap) Validate() error {
	for gem, pkgs := range m {
		for _, p := range pkgs {
			if err := errors.ValidateSystemPackageName(p); err != nil {
				return errors.Wrap(errors.ErrCodeConfig, err, "system packages of %s", gem)
			}
		}
	}
	return nil
}

// DefaultSystemPackageMap returns the stock table of gems with native
// extensions and the Debian/Ubuntu packages they build against.
func DefaultSystemPackageMap() SystemPackageMap {
	return SystemPackageMap{
		"capybara-webkit": {"libqt4-dev", "xvfb"},
		"curb":            {"libcurl4-openssl-dev"},
		"eventmachine":    {"libssl-dev"},
		"libxml-ruby":     {"libxml2-dev"},
		"memcached":       {"libmemcached-dev", "libsasl2-dev"},
		"mini_magick":     {"imagemagick"},
		"mysql":           {"libmysqlclient-dev"},
		"mysql2":          {"libmysqlclient-dev"},
		"nokogiri":        {"libxml2-dev", "libxslt1-dev"},
		"paperclip":       {"imagemagick"},
		"pg":              {"libpq-dev"},
		"rmagick":         {"imagemagick", "libmagickwand-dev"},
		"ruby-oci8":       {"libaio1"},
		"sqlite3":         {"sqlite3", "libsqlite3-dev"},
		"sqlite3-ruby":    {"sqlite3", "libsqlite3-dev"},
		"thinking-sphinx": {"sphinxsearch"},
		"typhoeus":        {"libcurl4-openssl-dev"},
	}
}

// LoadSystemPackageMap reads a map from a YAML (.yml, .yaml) or TOML (.toml)
// document whose top-level keys are gem names.
func LoadSystemPackageMap(path string) (SystemPackageMap, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.Wrap(errors.ErrCodeFileNotFound, err, "system package map %s", path)
		}
		return nil, errors.Wrap(errors.ErrCodeConfig, err, "read system package map")
	}
	return ParseSystemPackageMap(data, filepath.Ext(path))
}

// ParseSystemPackageMap decodes data in the format named by ext.
func ParseSystemPackageMap(data []byte, ext string) (SystemPackageMap, error) {
	m := SystemPackageMap{}
	switch strings.ToLower(ext) {
	case ".yml", ".yaml":
		if err := yaml.Unmarshal(data, &m); err != nil {
			return nil, errors.Wrap(errors.ErrCodeConfig, err, "decode yaml system package map")
		}
	case ".toml":
		if _, err := toml.Decode(string(data), &m); err != nil {
			return nil, errors.Wrap(errors.ErrCodeConfig, err, "decode toml system package map")
		}
	default:
		return nil, errors.New(errors.ErrCodeInvalidFormat, "unsupported system package map format %q", ext)
	}
	if err := m.Validate(); err != nil {
		return nil, err
	}
	return m, nil
}
