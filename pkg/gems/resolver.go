package gems

import (
	"context"
	"io"
	"slices"
	"strings"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/railcar/pkg/errors"
	"github.com/matzehuels/railcar/pkg/observability"
	"github.com/matzehuels/railcar/pkg/resource"
)

// Options configures a Resolver.
type Options struct {
	SystemPackages SystemPackageMap // Required gem → system packages table
	Inventory      Inventory        // Required installation probe
	Metadata       MetadataSource   // Transitive dependency source (optional)
	Checkpoint     string           // Checkpoint name (default: rails_gems)
	Baseline       resource.ID      // Resource every gem requires, e.g. File[/etc/gemrc] (optional)
	MaxDepth       int              // Maximum expansion depth (default: 10)
	MaxNodes       int              // Maximum metadata lookups per gem (default: 500)
	Logger         *log.Logger      // Diagnostics (default: discard)
}

// WithDefaults returns a copy of Options with zero values replaced by defaults.
func (o Options) WithDefaults() Options {
	opts := o
	if opts.Checkpoint == "" {
		opts.Checkpoint = DefaultCheckpoint
	}
	if opts.MaxDepth <= 0 {
		opts.MaxDepth = DefaultMaxDepth
	}
	if opts.MaxNodes <= 0 {
		opts.MaxNodes = DefaultMaxNodes
	}
	if opts.Logger == nil {
		opts.Logger = log.New(io.Discard)
	}
	return opts
}

// Resolver turns gem requests into package resources in a registry.
//
// A Resolver belongs to one evaluation pass: it shares the pass's registry
// and memoizes metadata lookups for its lifetime. It is not safe for
// concurrent use.
type Resolver struct {
	reg  *resource.Registry
	opts Options
	memo map[string]Lookup
}

// NewResolver validates opts and creates a resolver declaring into reg.
func NewResolver(reg *resource.Registry, opts Options) (*Resolver, error) {
	if reg == nil {
		return nil, errors.New(errors.ErrCodeConfig, "resolver needs a registry")
	}
	if opts.SystemPackages == nil {
		return nil, errors.New(errors.ErrCodeConfig, "resolver needs a system package map")
	}
	if opts.Inventory == nil {
		return nil, errors.New(errors.ErrCodeConfig, "resolver needs a gem inventory")
	}
	return &Resolver{
		reg:  reg,
		opts: opts.WithDefaults(),
		memo: make(map[string]Lookup),
	}, nil
}

// Registry returns the registry the resolver declares into.
func (r *Resolver) Registry() *resource.Registry { return r.reg }

// Resolve declares the package resource for spec and returns it.
//
// The gem is ordered before the checkpoint and after the baseline resource.
// If the gem is not yet installed, the system packages of the gem and of
// its transitive dependencies are declared and ordered before it. Missing
// metadata only narrows that expansion; it never fails resolution.
func (r *Resolver) Resolve(ctx context.Context, spec Spec) (res *resource.Resource, err error) {
	if err := ValidateSpec(spec); err != nil {
		return nil, err
	}

	hooks := observability.Evaluation()
	hooks.OnResolveStart(ctx, spec.Name)
	start := time.Now()
	var system []resource.ID
	defer func() {
		hooks.OnResolveComplete(ctx, spec.Name, len(system), time.Since(start), err)
	}()

	probe, err := r.opts.Inventory.Probe(ctx, spec.Name, spec.Version)
	if err != nil {
		return nil, err
	}
	ensure := Ensure(probe, spec.Version)

	if !probe.Present {
		names, err := r.expand(ctx, spec.Name, spec.Version)
		if err != nil {
			return nil, err
		}
		for _, name := range r.systemOnly(spec.Name, names) {
			sys, err := r.declareSystemPackage(name, resource.Edges{})
			if err != nil {
				return nil, err
			}
			system = append(system, sys.ID)
		}
	}

	checkpoint := r.reg.Checkpoint(r.opts.Checkpoint)
	edges := resource.Edges{
		Before:  []resource.ID{checkpoint.ID},
		Require: append(r.baseline(), system...),
	}
	res, err = r.reg.Declare(resource.KindPackage, spec.Name, resource.PackageAttrs{
		Ensure:   ensure,
		Provider: ProviderGem,
		Source:   spec.Source,
		Alias:    spec.Alias,
	}, edges)
	if err != nil {
		return nil, err
	}

	r.opts.Logger.Debug("resolved gem", "gem", spec.Name, "ensure", ensure,
		"present", probe.Present, "system", len(system))
	return res, nil
}

// ValidateSpec checks a gem request before anything is declared.
func ValidateSpec(spec Spec) error {
	if err := errors.ValidateGemName(spec.Name); err != nil {
		return err
	}
	if strings.ContainsAny(spec.Version, " \t\n<>=~,") {
		return errors.New(errors.ErrCodeInvalidInput,
			"version of %s must be exact, got %q", spec.Name, spec.Version)
	}
	return nil
}

func (r *Resolver) baseline() []resource.ID {
	if r.opts.Baseline.Name == "" {
		return nil
	}
	return []resource.ID{r.opts.Baseline}
}

// declareSystemPackage declares an installed system package. An existing
// declaration keeps its own ensure value.
func (r *Resolver) declareSystemPackage(name string, edges resource.Edges) (*resource.Resource, error) {
	return r.reg.DeclareDefaults(resource.KindPackage, name,
		resource.PackageAttrs{Ensure: resource.EnsureInstalled}, edges)
}

// systemOnly drops system package names that would share an identity with
// gem or with a package already installed by the gem provider. A gem never
// requires its own package resource. An empty gem only filters declared gems.
func (r *Resolver) systemOnly(gem string, names []string) []string {
	out := make([]string, 0, len(names))
	for _, name := range names {
		if gem != "" && name == gem {
			r.opts.Logger.Warn("system package shares its gem's name", "gem", gem, "package", name)
			continue
		}
		if res, ok := r.reg.Get(resource.KindPackage, name); ok {
			if a, _ := res.Package(); a.Provider == ProviderGem {
				r.opts.Logger.Warn("system package names a declared gem", "gem", gem, "package", name)
				continue
			}
		}
		out = append(out, name)
	}
	return out
}

type job struct {
	name    string
	version string
	depth   int
}

// expand walks the metadata of name breadth-first and collects the system
// packages of every gem reached, in discovery order without duplicates.
// Only context errors and other fatal source errors are returned.
func (r *Resolver) expand(ctx context.Context, name, version string) ([]string, error) {
	var out []string
	visited := map[string]bool{name: true}
	queue := []job{{name: name, version: version}}
	lookups := 0

	for len(queue) > 0 {
		j := queue[0]
		queue = queue[1:]

		for _, p := range r.opts.SystemPackages.Packages(j.name) {
			if !slices.Contains(out, p) {
				out = append(out, p)
			}
		}

		if r.opts.Metadata == nil || j.depth >= r.opts.MaxDepth || lookups >= r.opts.MaxNodes {
			continue
		}
		lookups++
		l, err := r.dependencies(ctx, j.name, j.version)
		if err != nil {
			return nil, err
		}
		if !l.Available() {
			r.opts.Logger.Warn("metadata unavailable", "gem", j.name, "reason", l.Unavailable)
			observability.Evaluation().OnMetadataUnavailable(ctx, j.name, l.Unavailable)
			continue
		}
		for _, dep := range l.Names {
			if !visited[dep] {
				visited[dep] = true
				queue = append(queue, job{name: dep, depth: j.depth + 1})
			}
		}
	}
	return out, nil
}

// dependencies memoizes metadata lookups for the resolver's lifetime.
func (r *Resolver) dependencies(ctx context.Context, name, version string) (Lookup, error) {
	if err := ctx.Err(); err != nil {
		return Lookup{}, err
	}
	key := name + "@" + version
	if l, ok := r.memo[key]; ok {
		return l, nil
	}
	l, err := r.opts.Metadata.Dependencies(ctx, name, version)
	if err != nil {
		return Lookup{}, err
	}
	r.memo[key] = l
	return l, nil
}
