package deploy

import (
	"context"
	"io"
	"os"
	"path/filepath"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/railcar/pkg/cache"
	"github.com/matzehuels/railcar/pkg/catalog"
	"github.com/matzehuels/railcar/pkg/config"
	"github.com/matzehuels/railcar/pkg/gems"
	"github.com/matzehuels/railcar/pkg/gems/gemfile"
	"github.com/matzehuels/railcar/pkg/integrations/rubygems"
	"github.com/matzehuels/railcar/pkg/inventory"
)

// Sources configures how NewOptions builds the collaborators of a Manifest.
type Sources struct {
	Cache     cache.Cache    // HTTP metadata cache (default: none)
	Keyer     cache.Keyer    // Cache key scheme (default: unscoped)
	Inventory gems.Inventory // Overrides the configured inventory
	Refresh   bool           // Bypass cached metadata
	Logger    *log.Logger
}

// NewOptions assembles manifest options from cfg:
//
//   - the system package map (system_map or the stock table, plus apt_gems)
//   - the inventory (the snapshot named by inventory, or gem list)
//   - the metadata sources (the lockfile, then RubyGems.org unless offline)
//   - the Gemfile under the Rails root, if there is one
func NewOptions(ctx context.Context, cfg *config.Config, src Sources) (Options, error) {
	logger := src.Logger
	if logger == nil {
		logger = log.New(io.Discard)
	}

	sysmap, err := cfg.SystemPackages()
	if err != nil {
		return Options{}, err
	}

	inv := src.Inventory
	if inv == nil {
		if cfg.Inventory != "" {
			static, err := inventory.LoadFile(cfg.ResolvePath(cfg.Inventory))
			if err != nil {
				return Options{}, err
			}
			inv = static
		} else {
			inv = inventory.NewGemList(inventory.DefaultTimeout)
		}
	}

	gf, err := LoadGemfile(cfg)
	if err != nil {
		return Options{}, err
	}

	var chain gems.ChainSource
	lock, err := loadLockfile(cfg)
	if err != nil {
		return Options{}, err
	}
	if lock != nil {
		logger.Debug("using lockfile metadata", "gems", len(lock.Specs))
		chain = append(chain, gemfile.LockfileSource{Lock: lock})
	}
	if !cfg.Metadata.Offline {
		client := rubygems.NewClient(src.Cache, cfg.Cache.TTL, cfg.Metadata.RubygemsURL)
		if src.Keyer != nil {
			client.WithKeyer(src.Keyer)
		}
		chain = append(chain, rubygems.NewSource(client).WithRefresh(src.Refresh))
	}

	var metadata gems.MetadataSource
	if len(chain) > 0 {
		metadata = chain
	}
	if err := ctx.Err(); err != nil {
		return Options{}, err
	}
	return Options{
		SystemPackages: sysmap,
		Inventory:      inv,
		Metadata:       metadata,
		Gemfile:        gf,
		Logger:         logger,
	}, nil
}

// LoadGemfile parses the Gemfile of the application, found in the Rails
// root or next to the config/ directory the configuration was loaded from.
// It returns nil when the application has none.
func LoadGemfile(cfg *config.Config) (*gemfile.Manifest, error) {
	path := appFile(cfg, "Gemfile")
	if path == "" {
		return nil, nil
	}
	return gemfile.ParseFile(path)
}

// loadLockfile reads metadata.lockfile, or the application's Gemfile.lock
// when unset. Only an explicitly configured lockfile must exist.
func loadLockfile(cfg *config.Config) (*gemfile.Lockfile, error) {
	if cfg.Metadata.Lockfile != "" {
		return gemfile.ParseLockfileFile(cfg.ResolvePath(cfg.Metadata.Lockfile))
	}
	path := appFile(cfg, "Gemfile.lock")
	if path == "" {
		return nil, nil
	}
	return gemfile.ParseLockfileFile(path)
}

// InputFiles lists the files an evaluation of cfg reads besides the
// configuration itself: Gemfile, lockfile, system package map and inventory
// snapshot. extra paths (such as a --snapshot override) are appended.
// A missing Gemfile or lockfile is listed at its Rails root location, so
// that adding one is noticed.
func InputFiles(cfg *config.Config, extra ...string) []string {
	var paths []string
	for _, name := range []string{"Gemfile", "Gemfile.lock"} {
		path := appFile(cfg, name)
		if path == "" {
			path = filepath.Join(cfg.Root(), name)
		}
		paths = append(paths, path)
	}
	if cfg.Metadata.Lockfile != "" {
		paths = append(paths, cfg.ResolvePath(cfg.Metadata.Lockfile))
	}
	if cfg.SystemMap != "" {
		paths = append(paths, cfg.ResolvePath(cfg.SystemMap))
	}
	if cfg.Inventory != "" {
		paths = append(paths, cfg.ResolvePath(cfg.Inventory))
	}
	return append(paths, extra...)
}

// appFile returns the first existing candidate for an application file, or
// "" when there is none.
func appFile(cfg *config.Config, name string) string {
	candidates := []string{filepath.Join(cfg.Root(), name)}
	if cfg.Path() != "" {
		candidates = append(candidates, cfg.ResolvePath(name))
	}
	for _, path := range candidates {
		if info, err := os.Stat(path); err == nil && !info.IsDir() {
			return path
		}
	}
	return ""
}

// Evaluate builds the manifest of cfg for env and evaluates it. An empty
// env keeps the configured stage.
func Evaluate(ctx context.Context, cfg *config.Config, env string, src Sources) (*catalog.Catalog, error) {
	staged := cfg.ForEnv(env)
	opts, err := NewOptions(ctx, staged, src)
	if err != nil {
		return nil, err
	}
	m, err := New(staged, opts)
	if err != nil {
		return nil, err
	}
	return m.Evaluate(ctx)
}
