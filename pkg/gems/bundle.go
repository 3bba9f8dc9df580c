package gems

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/matzehuels/railcar/pkg/resource"
)

const (
	BundleInstall    = "bundle install"
	AcceptGitHubKey  = "accept github key"
	BundlerGem       = "bundler"
	DefaultWithout   = "development test"
	BundleTimeout    = 108000 * time.Second
	LogOnFailure     = "on_failure"
	githubKeyCommand = "ssh git@github.com -o StrictHostKeyChecking=no || true"
	githubKeyUnless  = "ssh-keygen -F github.com | grep github.com"
)

// BundleOptions configures ResolveBundle.
type BundleOptions struct {
	Groups          []string // Active groups besides default, usually the rails env
	RailsRoot       string   // Working directory of bundle install
	DeployTo        string   // Deployment root; the bundle lives in shared/bundle
	User            string   // User running bundle install
	Without         string   // Groups skipped by bundle install (default: "development test")
	DisableBinstubs bool     // Omit --binstubs
	BundlerVersion  string   // Pinned bundler version (optional)
}

// InstallCommand renders the bundle install command line.
func (o BundleOptions) InstallCommand() string {
	without := o.Without
	if without == "" {
		without = DefaultWithout
	}
	args := []string{
		BundleInstall,
		"--deployment",
		"--path " + strings.TrimSuffix(o.DeployTo, "/") + "/shared/bundle",
		fmt.Sprintf("--without '%s'", without),
	}
	if !o.DisableBinstubs {
		args = append(args, "--binstubs")
	}
	return strings.Join(args, " ")
}

// ResolveBundle declares the resources that install a bundled manifest and
// returns the bundle install resource.
//
// Bundler itself is declared first; every resource declared for an entry
// requires it. Entries outside the active groups declare nothing. The
// system packages of each active entry are ordered before bundle install,
// which is ordered before the checkpoint. Gems are installed by bundler, so
// no per-gem package resources are declared. Every active entry is validated
// before anything is declared.
func (r *Resolver) ResolveBundle(ctx context.Context, deps []Dependency, opts BundleOptions) (*resource.Resource, error) {
	active := ActiveGroups(opts.Groups...)
	install := resource.ExecID(BundleInstall)

	for _, dep := range deps {
		if !dep.InGroups(active) {
			continue
		}
		if err := ValidateSpec(dep.Spec); err != nil {
			return nil, err
		}
	}

	bootstrap, err := r.reg.Declare(resource.KindPackage, BundlerGem, resource.PackageAttrs{
		Ensure:   Ensure(Probe{}, opts.BundlerVersion),
		Provider: ProviderGem,
	}, resource.Edges{Require: r.baseline()})
	if err != nil {
		return nil, err
	}

	entryEdges := resource.Edges{
		Before:  []resource.ID{install},
		Require: []resource.ID{bootstrap.ID},
	}
	for _, dep := range deps {
		if !dep.InGroups(active) {
			r.opts.Logger.Debug("skipping inactive gem", "gem", dep.Name, "groups", dep.Groups)
			continue
		}
		names, err := r.entrySystemPackages(ctx, dep.Spec)
		if err != nil {
			return nil, err
		}
		for _, name := range r.systemOnly("", names) {
			if _, err := r.declareSystemPackage(name, entryEdges); err != nil {
				return nil, err
			}
		}
	}

	if _, err := r.reg.Declare(resource.KindExec, AcceptGitHubKey, resource.ExecAttrs{
		Command: githubKeyCommand,
		User:    opts.User,
		Unless:  githubKeyUnless,
	}, resource.Edges{Before: []resource.ID{install}}); err != nil {
		return nil, err
	}

	checkpoint := r.reg.Checkpoint(r.opts.Checkpoint)
	return r.reg.Declare(resource.KindExec, BundleInstall, resource.ExecAttrs{
		Command:   opts.InstallCommand(),
		Cwd:       opts.RailsRoot,
		User:      opts.User,
		Timeout:   BundleTimeout,
		LogOutput: LogOnFailure,
	}, resource.Edges{
		Before:  []resource.ID{checkpoint.ID},
		Require: append(r.baseline(), bootstrap.ID),
	})
}

// entrySystemPackages returns the direct system packages of an installed
// entry, or the full transitive expansion of a missing one. spec has already
// been validated.
func (r *Resolver) entrySystemPackages(ctx context.Context, spec Spec) ([]string, error) {
	probe, err := r.opts.Inventory.Probe(ctx, spec.Name, spec.Version)
	if err != nil {
		return nil, err
	}
	if probe.Present {
		return r.opts.SystemPackages.Packages(spec.Name), nil
	}
	return r.expand(ctx, spec.Name, spec.Version)
}
