package deploy

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/railcar/pkg/catalog"
	"github.com/matzehuels/railcar/pkg/config"
	"github.com/matzehuels/railcar/pkg/errors"
	"github.com/matzehuels/railcar/pkg/gems"
	"github.com/matzehuels/railcar/pkg/gems/gemfile"
	"github.com/matzehuels/railcar/pkg/observability"
	"github.com/matzehuels/railcar/pkg/resource"
)

// Gemrc is the RubyGems configuration file every gem requires.
const Gemrc = "/etc/gemrc"

// Options supplies the collaborators of a Manifest.
type Options struct {
	SystemPackages gems.SystemPackageMap // Required gem → system packages table
	Inventory      gems.Inventory        // Required installation probe
	Metadata       gems.MetadataSource   // Transitive dependency source (optional)
	Gemfile        *gemfile.Manifest     // Parsed Gemfile, nil if the application has none
	Logger         *log.Logger           // Diagnostics (default: discard)
}

// Manifest declares the deployment of one application for one stage.
// It belongs to a single evaluation pass and is not safe for concurrent use.
type Manifest struct {
	cfg      *config.Config
	gemfile  *gemfile.Manifest
	reg      *resource.Registry
	resolver *gems.Resolver
	logger   *log.Logger
}

// New validates cfg and creates a manifest with an empty registry.
func New(cfg *config.Config, opts Options) (*Manifest, error) {
	if cfg == nil {
		return nil, errors.New(errors.ErrCodeConfig, "manifest needs a configuration")
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	logger := opts.Logger
	if logger == nil {
		logger = log.New(io.Discard)
	}

	reg := resource.NewRegistry()
	resolver, err := gems.NewResolver(reg, gems.Options{
		SystemPackages: opts.SystemPackages,
		Inventory:      opts.Inventory,
		Metadata:       opts.Metadata,
		Checkpoint:     gems.DefaultCheckpoint,
		Baseline:       resource.FileID(Gemrc),
		MaxDepth:       cfg.Metadata.MaxDepth,
		MaxNodes:       cfg.Metadata.MaxNodes,
		Logger:         logger,
	})
	if err != nil {
		return nil, err
	}
	return &Manifest{
		cfg:      cfg,
		gemfile:  opts.Gemfile,
		reg:      reg,
		resolver: resolver,
		logger:   logger,
	}, nil
}

// Registry returns the registry the manifest declares into.
func (m *Manifest) Registry() *resource.Registry { return m.reg }

// Config returns the configuration being evaluated.
func (m *Manifest) Config() *config.Config { return m.cfg }

// Bundled reports whether the application installs its gems with bundler.
func (m *Manifest) Bundled() bool { return m.gemfile != nil }

// Step is one named declaration sequence of the manifest.
type Step struct {
	Name string
	Run  func(ctx context.Context) error
}

// Steps returns the steps Evaluate runs, in order.
func (m *Manifest) Steps() []Step {
	steps := []Step{
		{"directories", func(context.Context) error { return m.Directories() }},
		{"gems", m.Gems},
		{"rake environment", func(context.Context) error { return m.RakeEnvironment() }},
		{"bootstrap", func(context.Context) error { return m.Bootstrap() }},
		{"migrations", func(context.Context) error { return m.Migrations() }},
	}
	if m.cfg.AssetPipeline {
		steps = append(steps, Step{"asset pipeline", func(context.Context) error { return m.AssetPipeline() }})
	}
	return append(steps, Step{"logrotate", func(context.Context) error { return m.LogRotate() }})
}

// Evaluate runs every step and orders the declared resources into a catalog.
// Identity conflicts, undeclared references and cycles are fatal.
func (m *Manifest) Evaluate(ctx context.Context) (c *catalog.Catalog, err error) {
	env := m.cfg.RailsEnv
	hooks := observability.Evaluation()
	hooks.OnEvaluateStart(ctx, env)
	start := time.Now()
	defer func() {
		n := 0
		if c != nil {
			n = c.Len()
		}
		hooks.OnEvaluateComplete(ctx, env, n, time.Since(start), err)
	}()

	for _, step := range m.Steps() {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if err := step.Run(ctx); err != nil {
			return nil, fmt.Errorf("%s: %w", step.Name, err)
		}
		m.logger.Debug("step declared", "step", step.Name, "resources", m.reg.Len())
	}

	c, err = catalog.New(m.reg, m.cfg.Application, env)
	if err != nil {
		return nil, err
	}
	m.logger.Info("catalog evaluated", "env", env, "resources", c.Len(), "took", time.Since(start).Round(time.Millisecond))
	return c, nil
}

// checkpoint returns the shared gems checkpoint.
func (m *Manifest) checkpoint() resource.ID {
	return m.reg.Checkpoint(gems.DefaultCheckpoint).ID
}
