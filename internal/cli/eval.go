package cli

import (
	"context"
	"fmt"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/matzehuels/railcar/pkg/cache"
	"github.com/matzehuels/railcar/pkg/catalog"
	"github.com/matzehuels/railcar/pkg/config"
	"github.com/matzehuels/railcar/pkg/deploy"
	"github.com/matzehuels/railcar/pkg/inventory"
)

// evalFlags are the flags shared by every command that evaluates gems.
type evalFlags struct {
	noCache  bool
	refresh  bool
	offline  bool
	snapshot string
}

func (f *evalFlags) register(cmd *cobra.Command) {
	cmd.Flags().BoolVar(&f.noCache, "no-cache", false, "disable the metadata cache")
	cmd.Flags().BoolVar(&f.refresh, "refresh", false, "refetch cached gem metadata")
	cmd.Flags().BoolVar(&f.offline, "offline", false, "do not query RubyGems.org (lockfile metadata only)")
	cmd.Flags().StringVar(&f.snapshot, "snapshot", "", "probe an inventory snapshot (JSON or YAML) instead of gem list")
}

// sources builds the manifest sources for cfg. The returned cache must be
// closed by the caller.
func (f *evalFlags) sources(cfg *config.Config, logger *log.Logger) (deploy.Sources, cache.Cache, error) {
	if f.offline {
		cfg.Metadata.Offline = true
	}
	c, err := newCache(cfg, f.noCache)
	if err != nil {
		return deploy.Sources{}, nil, err
	}
	src := deploy.Sources{
		Cache:   c,
		Refresh: f.refresh,
		Logger:  logger,
	}
	if f.snapshot != "" {
		inv, err := inventory.LoadFile(f.snapshot)
		if err != nil {
			c.Close()
			return deploy.Sources{}, nil, err
		}
		src.Inventory = inv
	}
	return src, c, nil
}

// evaluate evaluates the configured manifest behind a spinner.
func (c *CLI) evaluate(ctx context.Context, f *evalFlags) (*catalog.Catalog, error) {
	logger := loggerFromContext(ctx)
	cfg, err := c.loadConfig()
	if err != nil {
		return nil, err
	}
	src, mc, err := f.sources(cfg, logger)
	if err != nil {
		return nil, err
	}
	defer mc.Close()

	prog := newProgress(logger)
	spinner := newSpinner(ctx, c.out, "Loading gem sources...")
	spinner.Start()
	defer spinner.Stop()

	opts, err := deploy.NewOptions(ctx, cfg, src)
	if err != nil {
		return nil, err
	}
	m, err := deploy.New(cfg, opts)
	if err != nil {
		return nil, err
	}
	if m.Bundled() {
		spinner.stage(fmt.Sprintf("Resolving bundle for %s...", cfg.RailsEnv))
	} else {
		spinner.stage(fmt.Sprintf("Resolving %d gems for %s...", len(cfg.Gems), cfg.RailsEnv))
	}
	cat, err := m.Evaluate(ctx)
	spinner.Stop()
	if err != nil {
		return nil, err
	}
	prog.done(fmt.Sprintf("Evaluated %d resources", cat.Len()))
	return cat, nil
}
