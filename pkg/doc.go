// Package pkg provides the core libraries for Railcar deployment planning.
//
// # Overview
//
// Railcar evaluates the deployment manifest of a Rails application into a
// catalog: an ordered set of packages, commands and files, each with the
// ordering constraints that tie it to the rest. The pkg directory is
// organized into four main areas:
//
//  1. [resource] and [dag] - The resource registry and the graph it orders
//  2. [gems] - Gem resolution against the installed inventory
//  3. [deploy] - The Rails deployment steps
//  4. [catalog] and [server] - Output formats and the HTTP service
//
// # Architecture
//
// The typical data flow through Railcar:
//
//	config/railcar.yml + Gemfile
//	         ↓
//	    [config] package (load, defaults, validation)
//	         ↓
//	    [deploy] package (directories, gems, rake, logrotate)
//	         ↓
//	    [gems] package (inventory probe, metadata expansion)
//	         ↓
//	    [resource] package (declare, merge, order)
//	         ↓
//	    [catalog] package (JSON, DOT, SVG)
//
// # Quick Start
//
// Resolve one gem into a registry:
//
//	import (
//	    "context"
//	    "github.com/matzehuels/railcar/pkg/gems"
//	    "github.com/matzehuels/railcar/pkg/inventory"
//	    "github.com/matzehuels/railcar/pkg/resource"
//	)
//
//	reg := resource.NewRegistry()
//	r, _ := gems.NewResolver(reg, gems.Options{
//	    SystemPackages: gems.DefaultSystemPackageMap(),
//	    Inventory:      inventory.NewGemList(inventory.DefaultTimeout),
//	})
//	pkg, _ := r.Resolve(context.Background(), gems.Spec{Name: "nokogiri"})
//
// Evaluate a whole application:
//
//	cfg, _ := config.Load("config/railcar.yml")
//	cat, _ := deploy.Evaluate(ctx, cfg, "staging", deploy.Sources{})
//	_ = cat.WriteJSON(os.Stdout)
//
// # Main Packages
//
// [resource] - Registry of provisioning resources keyed by kind and name.
// Repeated declarations merge; aliases, "before" and "require" edges are
// resolved when the registry is ordered.
//
// [dag] - Directed acyclic graph with deterministic topological order and
// tier assignment.
//
// [gems] - Resolver turning gem requests into package resources plus the
// system packages their native extensions need, for single gems and for
// Bundler-managed applications. [gems/gemfile] parses Gemfile and
// Gemfile.lock.
//
// [inventory] - Installed gem probes: `gem list` on the host or a snapshot.
//
// [integrations/rubygems] - RubyGems.org API client used as a metadata
// source, on top of the cached, retrying HTTP client in [integrations].
//
// [cache] - File, Redis and null caches for metadata responses and
// catalogs.
//
// [config] - Deployment configuration loaded with viper.
//
// [errors] - Structured error codes shared by every package.
//
// [observability] - Hooks for evaluation, cache and HTTP events.
//
// [resource]: https://pkg.go.dev/github.com/matzehuels/railcar/pkg/resource
// [dag]: https://pkg.go.dev/github.com/matzehuels/railcar/pkg/dag
// [gems]: https://pkg.go.dev/github.com/matzehuels/railcar/pkg/gems
// [gems/gemfile]: https://pkg.go.dev/github.com/matzehuels/railcar/pkg/gems/gemfile
// [inventory]: https://pkg.go.dev/github.com/matzehuels/railcar/pkg/inventory
// [integrations]: https://pkg.go.dev/github.com/matzehuels/railcar/pkg/integrations
// [integrations/rubygems]: https://pkg.go.dev/github.com/matzehuels/railcar/pkg/integrations/rubygems
// [cache]: https://pkg.go.dev/github.com/matzehuels/railcar/pkg/cache
// [config]: https://pkg.go.dev/github.com/matzehuels/railcar/pkg/config
// [deploy]: https://pkg.go.dev/github.com/matzehuels/railcar/pkg/deploy
// [catalog]: https://pkg.go.dev/github.com/matzehuels/railcar/pkg/catalog
// [server]: https://pkg.go.dev/github.com/matzehuels/railcar/pkg/server
// [errors]: https://pkg.go.dev/github.com/matzehuels/railcar/pkg/errors
// [observability]: https://pkg.go.dev/github.com/matzehuels/railcar/pkg/observability
package pkg
