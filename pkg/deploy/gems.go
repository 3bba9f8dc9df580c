package deploy

import (
	"context"
	"maps"

	"gopkg.in/yaml.v3"

	"github.com/matzehuels/railcar/pkg/errors"
	"github.com/matzehuels/railcar/pkg/gems"
	"github.com/matzehuels/railcar/pkg/resource"
)

// DefaultGemrc is the RubyGems configuration written before any gem is
// installed. The rubygems configuration key overrides individual entries.
func DefaultGemrc() map[string]any {
	return map[string]any{
		"verbose":        true,
		"gem":            "--no-ri --no-rdoc",
		"update_sources": true,
		"sources":        []string{"http://rubygems.org", "http://gems.github.com"},
	}
}

// GemrcContent renders the gemrc with overrides applied.
func GemrcContent(overrides map[string]any) (string, error) {
	rc := DefaultGemrc()
	maps.Copy(rc, overrides)
	data, err := yaml.Marshal(rc)
	if err != nil {
		return "", errors.Wrap(errors.ErrCodeConfig, err, "render gemrc")
	}
	return "---\n" + string(data), nil
}

// Gems declares /etc/gemrc, the rails_gems checkpoint and the gems of the
// application. With a Gemfile the bundle is resolved for the current stage;
// otherwise every configured gem is resolved on its own.
func (m *Manifest) Gems(ctx context.Context) error {
	content, err := GemrcContent(m.cfg.Rubygems)
	if err != nil {
		return err
	}
	if _, err := m.reg.Declare(resource.KindFile, Gemrc, resource.FileAttrs{
		Ensure:  resource.EnsurePresent,
		Mode:    "744",
		Owner:   "root",
		Group:   "root",
		Content: content,
	}, resource.Edges{}); err != nil {
		return err
	}
	m.checkpoint()

	if m.gemfile != nil {
		_, err := m.resolver.ResolveBundle(ctx, m.gemfile.Dependencies, gems.BundleOptions{
			Groups:          []string{m.cfg.RailsEnv},
			RailsRoot:       m.cfg.Root(),
			DeployTo:        m.cfg.DeployTo,
			User:            m.cfg.User,
			Without:         m.cfg.Bundler.InstallWithoutGroups,
			DisableBinstubs: m.cfg.Bundler.DisableBinstubs,
			BundlerVersion:  m.cfg.Bundler.Version,
		})
		return err
	}

	for _, g := range m.cfg.Gems {
		if _, err := m.resolver.Resolve(ctx, g.Spec()); err != nil {
			return err
		}
	}
	return nil
}
