// Package gems resolves Ruby gem requests into ordered package resources.
//
// # Overview
//
// A [Resolver] declares into a [resource.Registry] owned by one evaluation
// pass. For every requested gem it declares a package resource with the gem
// provider and orders it before a shared checkpoint, so later steps can
// depend on "all gems installed" through a single reference:
//
//	reg := resource.NewRegistry()
//	r, _ := gems.NewResolver(reg, gems.Options{
//	    SystemPackages: gems.DefaultSystemPackageMap(),
//	    Inventory:      inventory.NewGemList(30 * time.Second),
//	    Metadata:       rubygems.NewSource(client),
//	})
//	pkg, _ := r.Resolve(ctx, gems.Spec{Name: "nokogiri"})
//
// # Ensure Values
//
// [Ensure] implements the pinning policy. A requested version is always
// pinned; otherwise the gem is only required to be installed, so a second
// run against an already provisioned host changes nothing.
//
// # System Packages
//
// When the [Inventory] reports a gem as missing, the resolver walks its
// runtime dependencies through the [MetadataSource] and looks every gem it
// reaches up in the [SystemPackageMap]. Each system package found is
// declared and ordered before the gem:
//
//	Package[libxml2-dev]  ─┐
//	Package[libxslt1-dev] ─┴─> Package[nokogiri] ─> Checkpoint[rails_gems]
//
// Installed gems are not expanded. Metadata failures are logged and only
// narrow the expansion; they never fail resolution.
//
// # Bundles
//
// [Resolver.ResolveBundle] handles applications with a Gemfile. Bundler
// installs the gems, so only the system packages of entries in the active
// groups are declared, all ordered after the bundler package and before
// the bundle install command.
//
// [resource.Registry]: github.com/matzehuels/railcar/pkg/resource.Registry
package gems
