// Package rubygems provides an HTTP client for the RubyGems.org API.
//
// # Overview
//
// This package fetches gem release metadata from RubyGems.org
// (https://rubygems.org) or a compatible mirror. It backs the transitive
// expansion of missing gems:
//
//	client := rubygems.NewClient(backend, 24*time.Hour, "")
//	resolver, _ := gems.NewResolver(reg, gems.Options{
//	    SystemPackages: gems.DefaultSystemPackageMap(),
//	    Inventory:      inv,
//	    Metadata:       rubygems.NewSource(client),
//	})
//
// # Endpoints
//
// [Client.FetchGem] reads /api/v1/gems/<name>.json for the latest release
// and /api/v2/rubygems/<name>/versions/<version>.json for a pinned one.
// Only runtime dependencies are kept; names are normalized to lowercase.
//
// # Caching
//
// Responses are cached per name and version through the configured
// [cache.Cache]. Pass refresh=true to bypass the cache.
//
// [cache.Cache]: github.com/matzehuels/railcar/pkg/cache.Cache
package rubygems
