// Package config loads the deployment configuration of a Rails application.
//
// Configuration is read from config/railcar.yml (or .yaml/.toml) with
// [viper]. Every key can be overridden from the environment with the
// RAILCAR_ prefix, nested keys joined by underscores:
//
//	RAILCAR_DEPLOY_TO=/srv/app RAILCAR_BUNDLER_DISABLE_BINSTUBS=true railcar plan
//
// The stage is taken from rails_env, RAILCAR_RAILS_ENV or RAILS_ENV, in
// increasing order of precedence among the environment variables.
//
// [viper]: https://github.com/spf13/viper
package config

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	stderrors "errors"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/matzehuels/railcar/pkg/errors"
	"github.com/matzehuels/railcar/pkg/gems"
)

const (
	// DefaultPath is where Load looks when no path is given.
	DefaultPath = "config/railcar.yml"

	DefaultRailsEnv = "production"
	DefaultUser     = "rails"
	DefaultCacheTTL = 24 * time.Hour
	DefaultAddr     = ":8080"

	// DefaultBootstrapTask loads the schema and seeds on the first deploy.
	DefaultBootstrapTask = "db:setup"

	// Cache backends.
	CacheFile  = "file"
	CacheRedis = "redis"
	CacheNone  = "none"
)

// DefaultLogrotateOptions are applied when rails_logrotate.options is unset.
var DefaultLogrotateOptions = []string{"daily", "missingok", "compress", "delaycompress", "sharedscripts"}

// Gem is one entry of the gems list, used when the application has no Gemfile.
type Gem struct {
	Name    string `mapstructure:"name" json:"name"`
	Version string `mapstructure:"version" json:"version,omitempty"`
	Source  string `mapstructure:"source" json:"source,omitempty"`
	Alias   string `mapstructure:"alias" json:"alias,omitempty"`
}

// Spec converts the entry into a resolver request.
func (g Gem) Spec() gems.Spec {
	return gems.Spec{Name: g.Name, Version: g.Version, Source: g.Source, Alias: g.Alias}
}

// Bundler configures bundle install.
type Bundler struct {
	InstallWithoutGroups string `mapstructure:"install_without_groups" json:"install_without_groups,omitempty"`
	DisableBinstubs      bool   `mapstructure:"disable_binstubs" json:"disable_binstubs,omitempty"`
	Version              string `mapstructure:"version" json:"version,omitempty"`
}

// Logrotate configures rotation of the shared Rails logs.
type Logrotate struct {
	Options    []string `mapstructure:"options" json:"options,omitempty"`
	Postrotate string   `mapstructure:"postrotate" json:"postrotate,omitempty"`
}

// Metadata configures the gem metadata sources used to expand missing gems.
type Metadata struct {
	Offline     bool   `mapstructure:"offline" json:"offline,omitempty"`           // Skip RubyGems.org
	RubygemsURL string `mapstructure:"rubygems_url" json:"rubygems_url,omitempty"` // Mirror base URL
	Lockfile    string `mapstructure:"lockfile" json:"lockfile,omitempty"`         // Gemfile.lock used before the registry
	MaxDepth    int    `mapstructure:"max_depth" json:"max_depth,omitempty"`
	MaxNodes    int    `mapstructure:"max_nodes" json:"max_nodes,omitempty"`
}

// Cache configures the HTTP metadata cache.
type Cache struct {
	Backend  string        `mapstructure:"backend" json:"backend"` // file, redis or none
	Dir      string        `mapstructure:"dir" json:"dir,omitempty"`
	RedisURL string        `mapstructure:"redis_url" json:"redis_url,omitempty"`
	TTL      time.Duration `mapstructure:"ttl" json:"ttl"`
}

// Server configures railcar serve.
type Server struct {
	Addr string `mapstructure:"addr" json:"addr"`
}

// Config is the deployment configuration of one application.
type Config struct {
	Application    string              `mapstructure:"application" json:"application,omitempty"`
	DeployTo       string              `mapstructure:"deploy_to" json:"deploy_to"`
	User           string              `mapstructure:"user" json:"user"`
	Group          string              `mapstructure:"group" json:"group,omitempty"`
	RailsRoot      string              `mapstructure:"rails_root" json:"rails_root,omitempty"`
	RailsEnv       string              `mapstructure:"rails_env" json:"rails_env"`
	Gems           []Gem               `mapstructure:"gems" json:"gems,omitempty"`
	AptGems        map[string][]string `mapstructure:"apt_gems" json:"apt_gems,omitempty"`
	SystemMap      string              `mapstructure:"system_map" json:"system_map,omitempty"`
	Rubygems       map[string]any      `mapstructure:"rubygems" json:"rubygems,omitempty"`
	Bundler        Bundler             `mapstructure:"bundler" json:"bundler"`
	RakeVersion    string              `mapstructure:"rake_version" json:"rake_version,omitempty"`
	BootstrapTask  string              `mapstructure:"bootstrap_task" json:"bootstrap_task,omitempty"`
	SharedChildren []string            `mapstructure:"shared_children" json:"shared_children,omitempty"`
	AppSymlinks    []string            `mapstructure:"app_symlinks" json:"app_symlinks,omitempty"`
	RailsLogrotate Logrotate           `mapstructure:"rails_logrotate" json:"rails_logrotate"`
	AssetPipeline  bool                `mapstructure:"asset_pipeline" json:"asset_pipeline,omitempty"`
	Inventory      string              `mapstructure:"inventory" json:"inventory,omitempty"` // Installed gem snapshot; empty probes with gem list
	Metadata       Metadata            `mapstructure:"metadata" json:"metadata"`
	Cache          Cache               `mapstructure:"cache" json:"cache"`
	Server         Server              `mapstructure:"server" json:"server"`

	path string
}

// Path returns the file the configuration was read from, if any.
func (c *Config) Path() string { return c.path }

// CurrentPath is the path of the deployed release.
func (c *Config) CurrentPath() string {
	return strings.TrimSuffix(c.DeployTo, "/") + "/current"
}

// Root returns the Rails root, defaulting to the current release.
func (c *Config) Root() string {
	if c.RailsRoot != "" {
		return c.RailsRoot
	}
	return c.CurrentPath()
}

// OwnerGroup returns the group owning deployed files, defaulting to the user.
func (c *Config) OwnerGroup() string {
	if c.Group != "" {
		return c.Group
	}
	return c.User
}

// LogrotateOptions returns the configured options or the defaults.
func (c *Config) LogrotateOptions() []string {
	if len(c.RailsLogrotate.Options) > 0 {
		return c.RailsLogrotate.Options
	}
	return DefaultLogrotateOptions
}

// LogrotatePostrotate returns the configured postrotate script or a
// restart touch of the current release.
func (c *Config) LogrotatePostrotate() string {
	if c.RailsLogrotate.Postrotate != "" {
		return c.RailsLogrotate.Postrotate
	}
	return "touch " + c.CurrentPath() + "/tmp/restart.txt"
}

// SystemPackages returns the system package map: the file named by
// system_map or the stock table, with apt_gems overrides applied.
func (c *Config) SystemPackages() (gems.SystemPackageMap, error) {
	base := gems.DefaultSystemPackageMap()
	if c.SystemMap != "" {
		m, err := gems.LoadSystemPackageMap(c.resolve(c.SystemMap))
		if err != nil {
			return nil, err
		}
		base = m
	}
	m := base.With(c.AptGems)
	if err := m.Validate(); err != nil {
		return nil, err
	}
	return m, nil
}

// Hash fingerprints the configuration for cache keys.
func (c *Config) Hash() string {
	data, _ := json.Marshal(c)
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:8])
}

// ForEnv returns a copy of c evaluated for another stage.
func (c *Config) ForEnv(env string) *Config {
	out := *c
	if env != "" {
		out.RailsEnv = env
	}
	return &out
}

// WithDefaults returns a copy with zero values replaced by defaults.
func (c Config) WithDefaults() Config {
	if c.User == "" {
		c.User = DefaultUser
	}
	if c.RailsEnv == "" {
		c.RailsEnv = DefaultRailsEnv
	}
	if c.DeployTo == "" && c.Application != "" {
		c.DeployTo = "/srv/" + c.Application
	}
	if c.Bundler.InstallWithoutGroups == "" {
		c.Bundler.InstallWithoutGroups = gems.DefaultWithout
	}
	if c.Metadata.MaxDepth <= 0 {
		c.Metadata.MaxDepth = gems.DefaultMaxDepth
	}
	if c.Metadata.MaxNodes <= 0 {
		c.Metadata.MaxNodes = gems.DefaultMaxNodes
	}
	if c.Cache.Backend == "" {
		c.Cache.Backend = CacheFile
	}
	if c.Cache.TTL <= 0 {
		c.Cache.TTL = DefaultCacheTTL
	}
	if c.Server.Addr == "" {
		c.Server.Addr = DefaultAddr
	}
	if c.BootstrapTask == "" {
		c.BootstrapTask = DefaultBootstrapTask
	}
	return c
}

// Validate reports configuration mistakes as ErrCodeConfig errors.
func (c *Config) Validate() error {
	if err := errors.ValidateDeployPath(c.DeployTo); err != nil {
		return errors.Wrap(errors.ErrCodeConfig, err, "deploy_to")
	}
	if c.RailsRoot != "" {
		if err := errors.ValidateDeployPath(c.RailsRoot); err != nil {
			return errors.Wrap(errors.ErrCodeConfig, err, "rails_root")
		}
	}
	if c.User == "" {
		return errors.New(errors.ErrCodeConfig, "user is required")
	}
	for i, g := range c.Gems {
		if err := errors.ValidateGemName(g.Name); err != nil {
			return errors.Wrap(errors.ErrCodeConfig, err, "gems[%d]", i)
		}
	}
	switch c.Cache.Backend {
	case CacheFile, CacheNone:
	case CacheRedis:
		if c.Cache.RedisURL == "" {
			return errors.New(errors.ErrCodeConfig, "cache.redis_url is required for the redis backend")
		}
	default:
		return errors.New(errors.ErrCodeConfig, "unknown cache backend %q", c.Cache.Backend)
	}
	if c.Metadata.RubygemsURL != "" {
		if err := errors.ValidateURL(c.Metadata.RubygemsURL); err != nil {
			return errors.Wrap(errors.ErrCodeConfig, err, "metadata.rubygems_url")
		}
	}
	return nil
}

// resolve makes p relative to the directory holding the config file.
func (c *Config) resolve(p string) string {
	if p == "" || filepath.IsAbs(p) || c.path == "" {
		return p
	}
	return filepath.Join(filepath.Dir(filepath.Dir(c.path)), p)
}

// ResolvePath returns p relative to the application root the config was
// loaded from (the parent of its config/ directory).
func (c *Config) ResolvePath(p string) string { return c.resolve(p) }

// Load reads the configuration at path, or DefaultPath when path is empty.
// A missing default file is not an error: defaults and the environment
// still apply. A missing explicit path is ErrCodeFileNotFound.
func Load(path string) (*Config, error) {
	v := newViper()

	explicit := path != ""
	if !explicit {
		path = DefaultPath
	}
	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		switch {
		case stderrors.As(err, &notFound), stderrors.Is(err, os.ErrNotExist):
			if explicit {
				return nil, errors.Wrap(errors.ErrCodeFileNotFound, err, "config %s", path)
			}
			path = ""
		default:
			return nil, errors.Wrap(errors.ErrCodeConfig, err, "read %s", path)
		}
	}
	return decode(v, path)
}

// Parse reads configuration from data in the given format ("yaml" or "toml").
func Parse(data []byte, format string) (*Config, error) {
	v := newViper()
	v.SetConfigType(format)
	if err := v.ReadConfig(strings.NewReader(string(data))); err != nil {
		return nil, errors.Wrap(errors.ErrCodeConfig, err, "parse %s config", format)
	}
	return decode(v, "")
}

func newViper() *viper.Viper {
	v := viper.New()
	v.SetEnvPrefix("RAILCAR")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	_ = v.BindEnv("rails_env", "RAILS_ENV", "RAILCAR_RAILS_ENV")

	// Scalar keys must be known to viper for environment overrides to
	// reach Unmarshal.
	v.SetDefault("application", "")
	v.SetDefault("deploy_to", "")
	v.SetDefault("user", DefaultUser)
	v.SetDefault("group", "")
	v.SetDefault("rails_root", "")
	v.SetDefault("rails_env", DefaultRailsEnv)
	v.SetDefault("system_map", "")
	v.SetDefault("rake_version", "")
	v.SetDefault("bootstrap_task", DefaultBootstrapTask)
	v.SetDefault("asset_pipeline", false)
	v.SetDefault("inventory", "")
	v.SetDefault("bundler.install_without_groups", gems.DefaultWithout)
	v.SetDefault("bundler.disable_binstubs", false)
	v.SetDefault("bundler.version", "")
	v.SetDefault("metadata.offline", false)
	v.SetDefault("metadata.rubygems_url", "")
	v.SetDefault("metadata.lockfile", "")
	v.SetDefault("metadata.max_depth", gems.DefaultMaxDepth)
	v.SetDefault("metadata.max_nodes", gems.DefaultMaxNodes)
	v.SetDefault("cache.backend", CacheFile)
	v.SetDefault("cache.dir", "")
	v.SetDefault("cache.redis_url", "")
	v.SetDefault("cache.ttl", DefaultCacheTTL)
	v.SetDefault("server.addr", DefaultAddr)
	return v
}

func decode(v *viper.Viper, path string) (*Config, error) {
	var c Config
	if err := v.Unmarshal(&c); err != nil {
		return nil, errors.Wrap(errors.ErrCodeConfig, err, "decode config")
	}
	c = c.WithDefaults()
	c.path = path
	return &c, nil
}
