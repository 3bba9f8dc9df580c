package rubygems

import (
	"context"
	"errors"

	"github.com/matzehuels/railcar/pkg/gems"
	"github.com/matzehuels/railcar/pkg/integrations"
)

// Source adapts a [Client] to [gems.MetadataSource].
//
// Registry failures are reported as unavailable lookups so the resolver can
// continue with what it knows. Only context cancellation is returned as an
// error.
type Source struct {
	client  *Client
	refresh bool
}

// NewSource creates a metadata source backed by client.
func NewSource(client *Client) *Source {
	return &Source{client: client}
}

// WithRefresh bypasses the HTTP cache for every lookup.
func (s *Source) WithRefresh(refresh bool) *Source {
	s.refresh = refresh
	return s
}

// Dependencies returns the runtime dependencies of name at version.
func (s *Source) Dependencies(ctx context.Context, name, version string) (gems.Lookup, error) {
	info, err := s.client.FetchGem(ctx, name, version, s.refresh)
	switch {
	case err == nil:
		return gems.Found(info.Dependencies...), nil
	case ctx.Err() != nil:
		return gems.Lookup{}, ctx.Err()
	case errors.Is(err, integrations.ErrNotFound):
		return gems.LookupFailed("rubygems: %s not published", gemRef(name, version)), nil
	default:
		return gems.LookupFailed("rubygems: %s: %v", gemRef(name, version), err), nil
	}
}

func gemRef(name, version string) string {
	if version == "" {
		return name
	}
	return name + " " + version
}

var _ gems.MetadataSource = (*Source)(nil)
