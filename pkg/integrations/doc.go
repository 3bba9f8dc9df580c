// Package integrations provides HTTP clients for gem metadata APIs.
//
// # Overview
//
// The [Client] type provides shared HTTP functionality: JSON GET requests,
// response caching through a [cache.Cache], retry of transient failures
// through [httputil.RetryWithBackoff] and observability hooks. API clients
// embed it; see [rubygems] for the RubyGems.org client.
//
// # Errors
//
// Requests fail with [ErrNotFound] for 404 responses and [ErrNetwork] for
// connection failures and other non-200 statuses. Connection failures, 429
// and 5xx responses are retried; everything else is returned immediately.
//
// [rubygems]: github.com/matzehuels/railcar/pkg/integrations/rubygems
// [cache.Cache]: github.com/matzehuels/railcar/pkg/cache.Cache
// [httputil.RetryWithBackoff]: github.com/matzehuels/railcar/pkg/httputil.RetryWithBackoff
package integrations
