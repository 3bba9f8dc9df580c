package rubygems

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/matzehuels/railcar/pkg/buildinfo"
	"github.com/matzehuels/railcar/pkg/cache"
	"github.com/matzehuels/railcar/pkg/integrations"
)

// DefaultBaseURL is the public RubyGems.org endpoint.
const DefaultBaseURL = "https://rubygems.org"

// GemInfo holds metadata for one release of a Ruby gem.
//
// Gem names are normalized to lowercase.
// Dependencies include only runtime dependencies; development dependencies are excluded.
type GemInfo struct {
	Name         string   // Gem name, normalized lowercase
	Version      string   // Release version (e.g., "1.16.2")
	Platform     string   // Release platform, "ruby" for pure gems
	Dependencies []string // Runtime dependency gem names, normalized (nil if none)
	Requirements []string // Requirement strings parallel to Dependencies
	Licenses     []string // License identifiers (may be empty)
	HomepageURI  string   // Homepage URL (may be empty)
}

// Client provides access to the RubyGems.org API.
// It handles HTTP requests with caching and automatic retries.
//
// All methods are safe for concurrent use by multiple goroutines.
type Client struct {
	*integrations.Client
	baseURL string
}

// NewClient creates a RubyGems client with the given cache backend.
// An empty baseURL selects [DefaultBaseURL], which lets callers point the
// client at a mirror.
func NewClient(backend cache.Cache, cacheTTL time.Duration, baseURL string) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &Client{
		Client:  integrations.NewClient(backend, "rubygems", cacheTTL, map[string]string{
			"User-Agent": buildinfo.UserAgent(),
		}),
		baseURL: strings.TrimSuffix(baseURL, "/"),
	}
}

// FetchGem retrieves metadata for a gem release.
//
// An empty version fetches the latest release. If refresh is true, the
// cache is bypassed and a fresh API call is made.
//
// Returns [integrations.ErrNotFound] if the gem or version doesn't exist
// and [integrations.ErrNetwork] for HTTP failures.
func (c *Client) FetchGem(ctx context.Context, gem, version string, refresh bool) (*GemInfo, error) {
	gem = strings.ToLower(strings.TrimSpace(gem))
	version = strings.TrimSpace(version)
	key := gem
	if version != "" {
		key = gem + "@" + version
	}

	var info GemInfo
	err := c.Cached(ctx, key, refresh, &info, func() error {
		return c.fetch(ctx, gem, version, &info)
	})
	if err != nil {
		return nil, err
	}
	return &info, nil
}

func (c *Client) fetch(ctx context.Context, gem, version string, info *GemInfo) error {
	endpoint := fmt.Sprintf("%s/api/v1/gems/%s.json", c.baseURL, url.PathEscape(gem))
	if version != "" {
		endpoint = fmt.Sprintf("%s/api/v2/rubygems/%s/versions/%s.json",
			c.baseURL, url.PathEscape(gem), url.PathEscape(version))
	}

	var data gemResponse
	if err := c.Get(ctx, endpoint, &data); err != nil {
		if errors.Is(err, integrations.ErrNotFound) {
			if version != "" {
				return fmt.Errorf("%w: gem %s %s", err, gem, version)
			}
			return fmt.Errorf("%w: gem %s", err, gem)
		}
		return err
	}

	names, reqs := runtimeDeps(data.Dependencies.Runtime)
	*info = GemInfo{
		Name:         strings.ToLower(data.Name),
		Version:      data.Version,
		Platform:     data.Platform,
		Dependencies: names,
		Requirements: reqs,
		Licenses:     data.Licenses,
		HomepageURI:  data.HomepageURI,
	}
	return nil
}

func runtimeDeps(deps []dependency) ([]string, []string) {
	seen := make(map[string]bool)
	var names, reqs []string
	for _, d := range deps {
		name := strings.ToLower(strings.TrimSpace(d.Name))
		if name == "" || seen[name] {
			continue
		}
		seen[name] = true
		names = append(names, name)
		reqs = append(reqs, d.Requirements)
	}
	return names, reqs
}

type gemResponse struct {
	Name         string   `json:"name"`
	Version      string   `json:"version"`
	Platform     string   `json:"platform"`
	Licenses     []string `json:"licenses"`
	HomepageURI  string   `json:"homepage_uri"`
	Dependencies struct {
		Runtime []dependency `json:"runtime"`
	} `json:"dependencies"`
}

type dependency struct {
	Name         string `json:"name"`
	Requirements string `json:"requirements"`
}
