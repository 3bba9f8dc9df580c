package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/matzehuels/railcar/pkg/errors"
	"github.com/matzehuels/railcar/pkg/gems"
)

const sampleYAML = `
application: storefront
deploy_to: /srv/storefront
user: deploy
rails_env: staging
gems:
  - name: rake
    version: 13.1.0
  - name: pg
apt_gems:
  curb: [libcurl4-openssl-dev, libcurl4]
bundler:
  install_without_groups: development
  disable_binstubs: true
shared_children: [system, log, pids]
app_symlinks: [uploads]
rails_logrotate:
  options: [weekly]
cache:
  backend: none
  ttl: 2h
`

func writeConfig(t *testing.T, name, body string) string {
	t.Helper()
	dir := filepath.Join(t.TempDir(), "config")
	require.NoError(t, os.MkdirAll(dir, 0o755))
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestLoadYAML(t *testing.T) {
	path := writeConfig(t, "railcar.yml", sampleYAML)

	c, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "storefront", c.Application)
	assert.Equal(t, "/srv/storefront", c.DeployTo)
	assert.Equal(t, "deploy", c.User)
	assert.Equal(t, "staging", c.RailsEnv)
	require.Len(t, c.Gems, 2)
	assert.Equal(t, gems.Spec{Name: "rake", Version: "13.1.0"}, c.Gems[0].Spec())
	assert.Equal(t, []string{"libcurl4-openssl-dev", "libcurl4"}, c.AptGems["curb"])
	assert.Equal(t, "development", c.Bundler.InstallWithoutGroups)
	assert.True(t, c.Bundler.DisableBinstubs)
	assert.Equal(t, []string{"system", "log", "pids"}, c.SharedChildren)
	assert.Equal(t, []string{"weekly"}, c.LogrotateOptions())
	assert.Equal(t, CacheNone, c.Cache.Backend)
	assert.Equal(t, 2*time.Hour, c.Cache.TTL)
	assert.Equal(t, path, c.Path())
	assert.NoError(t, c.Validate())
}

func TestLoadTOML(t *testing.T) {
	path := writeConfig(t, "railcar.toml", `
application = "storefront"
deploy_to = "/srv/storefront"

[[gems]]
name = "nokogiri"
`)

	c, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "/srv/storefront", c.DeployTo)
	require.Len(t, c.Gems, 1)
	assert.Equal(t, "nokogiri", c.Gems[0].Name)
	assert.Equal(t, DefaultUser, c.User)
	assert.Equal(t, DefaultRailsEnv, c.RailsEnv)
}

func TestLoadMissing(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "railcar.yml"))
	assert.True(t, errors.Is(err, errors.ErrCodeFileNotFound), "got %v", err)

	t.Chdir(t.TempDir())
	c, err := Load("")
	require.NoError(t, err)
	assert.Empty(t, c.Path())
	assert.Equal(t, DefaultRailsEnv, c.RailsEnv)
}

func TestLoadMalformed(t *testing.T) {
	path := writeConfig(t, "railcar.yml", "deploy_to: [unclosed\n")
	_, err := Load(path)
	assert.True(t, errors.Is(err, errors.ErrCodeConfig), "got %v", err)
}

func TestEnvironmentOverrides(t *testing.T) {
	path := writeConfig(t, "railcar.yml", sampleYAML)

	t.Setenv("RAILCAR_DEPLOY_TO", "/srv/override")
	t.Setenv("RAILCAR_BUNDLER_DISABLE_BINSTUBS", "false")
	t.Setenv("RAILS_ENV", "production")

	c, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "/srv/override", c.DeployTo)
	assert.False(t, c.Bundler.DisableBinstubs)
	assert.Equal(t, "production", c.RailsEnv)
}

func TestRailcarRailsEnv(t *testing.T) {
	t.Setenv("RAILCAR_RAILS_ENV", "qa")
	c, err := Parse([]byte("deploy_to: /srv/app\n"), "yaml")
	require.NoError(t, err)
	assert.Equal(t, "qa", c.RailsEnv)
}

func TestWithDefaults(t *testing.T) {
	c := Config{Application: "shop"}.WithDefaults()

	assert.Equal(t, "/srv/shop", c.DeployTo)
	assert.Equal(t, DefaultUser, c.User)
	assert.Equal(t, gems.DefaultWithout, c.Bundler.InstallWithoutGroups)
	assert.Equal(t, gems.DefaultMaxDepth, c.Metadata.MaxDepth)
	assert.Equal(t, gems.DefaultMaxNodes, c.Metadata.MaxNodes)
	assert.Equal(t, CacheFile, c.Cache.Backend)
	assert.Equal(t, DefaultCacheTTL, c.Cache.TTL)
	assert.Equal(t, DefaultAddr, c.Server.Addr)
	assert.Equal(t, DefaultBootstrapTask, c.BootstrapTask)
}

func TestDerivedPaths(t *testing.T) {
	c := Config{DeployTo: "/srv/shop/", User: "deploy"}

	assert.Equal(t, "/srv/shop/current", c.Root())
	assert.Equal(t, "deploy", c.OwnerGroup())
	assert.Equal(t, DefaultLogrotateOptions, c.LogrotateOptions())
	assert.Equal(t, "touch /srv/shop/current/tmp/restart.txt", c.LogrotatePostrotate())

	c.RailsRoot = "/srv/shop/releases/1"
	c.Group = "www"
	assert.Equal(t, "/srv/shop/releases/1", c.Root())
	assert.Equal(t, "www", c.OwnerGroup())
}

func TestValidate(t *testing.T) {
	base := Config{DeployTo: "/srv/shop"}.WithDefaults()

	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"relative deploy_to", func(c *Config) { c.DeployTo = "srv/shop" }},
		{"empty deploy_to", func(c *Config) { c.DeployTo = "" }},
		{"bad rails_root", func(c *Config) { c.RailsRoot = "/srv/../etc" }},
		{"bad gem", func(c *Config) { c.Gems = []Gem{{Name: "bad gem"}} }},
		{"unknown cache", func(c *Config) { c.Cache.Backend = "memcached" }},
		{"redis without url", func(c *Config) { c.Cache.Backend = CacheRedis }},
		{"bad mirror", func(c *Config) { c.Metadata.RubygemsURL = "ftp://gems" }},
	}

	require.NoError(t, base.Validate())
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := base
			tt.mutate(&c)
			err := c.Validate()
			assert.True(t, errors.Is(err, errors.ErrCodeConfig), "got %v", err)
		})
	}
}

func TestSystemPackages(t *testing.T) {
	c := Config{AptGems: map[string][]string{"curb": {"libcurl4-openssl-dev"}}}
	m, err := c.SystemPackages()
	require.NoError(t, err)
	assert.Equal(t, []string{"libcurl4-openssl-dev"}, m.Packages("curb"))
	assert.Equal(t, []string{"libpq-dev"}, m.Packages("pg"))

	mapPath := writeConfig(t, "apt_gems.yml", "oj: [libyaml-dev]\n")
	cfgPath := filepath.Join(filepath.Dir(mapPath), "railcar.yml")
	require.NoError(t, os.WriteFile(cfgPath, []byte("deploy_to: /srv/app\nsystem_map: config/apt_gems.yml\n"), 0o644))

	loaded, err := Load(cfgPath)
	require.NoError(t, err)
	m, err = loaded.SystemPackages()
	require.NoError(t, err)
	assert.Equal(t, []string{"libyaml-dev"}, m.Packages("oj"))
	assert.Empty(t, m.Packages("pg"))

	bad := Config{AptGems: map[string][]string{"curb": {"Not A Package"}}}
	_, err = bad.SystemPackages()
	assert.True(t, errors.Is(err, errors.ErrCodeConfig), "got %v", err)
}

func TestHashAndForEnv(t *testing.T) {
	c := Config{DeployTo: "/srv/app", RailsEnv: "production"}
	staging := c.ForEnv("staging")

	assert.Equal(t, "production", c.RailsEnv)
	assert.Equal(t, "staging", staging.RailsEnv)
	assert.NotEqual(t, c.Hash(), staging.Hash())
	assert.Equal(t, c.Hash(), c.ForEnv("").Hash())
}
