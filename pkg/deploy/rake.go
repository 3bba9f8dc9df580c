package deploy

import (
	"github.com/matzehuels/railcar/pkg/config"
	"github.com/matzehuels/railcar/pkg/gems"
	"github.com/matzehuels/railcar/pkg/resource"
)

const (
	// RakeTasks is the alias of the rake environment check every task requires.
	RakeTasks   = "rake tasks"
	RakeTimeout = gems.BundleTimeout
	RakeGem     = "rake"
)

// RakeOptions overrides the defaults of a rake task.
type RakeOptions struct {
	Alias       string        // Default: "rake <task>"
	Before      []resource.ID // Resources the task must precede
	Require     []resource.ID // Replaces the default Exec[rake tasks] when non-nil
	RefreshOnly bool          // Run only when notified
	LogOutput   string        // Default: "true"
}

// RakeCommand returns the command line of task, run through bundler when
// the application has a Gemfile.
func (m *Manifest) RakeCommand(task string) string {
	if m.Bundled() {
		return "bundle exec rake " + task
	}
	return "rake " + task
}

// Rake declares an exec running task in the Rails root.
func (m *Manifest) Rake(task string, o RakeOptions) (*resource.Resource, error) {
	cmd := m.RakeCommand(task)
	attrs := resource.ExecAttrs{
		Command:     cmd,
		Alias:       "rake " + task,
		User:        m.cfg.User,
		Cwd:         m.cfg.Root(),
		Environment: []string{"RAILS_ENV=" + m.cfg.RailsEnv},
		LogOutput:   "true",
		Timeout:     RakeTimeout,
		RefreshOnly: o.RefreshOnly,
	}
	if o.Alias != "" {
		attrs.Alias = o.Alias
	}
	if o.LogOutput != "" {
		attrs.LogOutput = o.LogOutput
	}
	require := []resource.ID{resource.ExecID(RakeTasks)}
	if o.Require != nil {
		require = o.Require
	}
	return m.reg.Declare(resource.KindExec, cmd, attrs, resource.Edges{
		Before:  o.Before,
		Require: require,
	})
}

// RakeEnvironment declares the rake gem and "rake environment --trace",
// aliased "rake tasks", which proves the application boots once every gem
// is installed.
func (m *Manifest) RakeEnvironment() error {
	pkg := resource.PackageAttrs{Ensure: resource.EnsureInstalled, Provider: gems.ProviderGem}
	declare := m.reg.DeclareDefaults
	if m.cfg.RakeVersion != "" {
		pkg.Ensure = m.cfg.RakeVersion
		declare = m.reg.Declare
	}
	rake, err := declare(resource.KindPackage, RakeGem, pkg, resource.Edges{})
	if err != nil {
		return err
	}

	_, err = m.Rake("environment --trace", RakeOptions{
		Alias:     RakeTasks,
		Require:   []resource.ID{m.checkpoint(), rake.ID},
		LogOutput: gems.LogOnFailure,
	})
	return err
}

// Bootstrap declares the bootstrap_task rake task (db:setup unless
// configured), which loads the schema and seeds on the first deploy. It only
// runs when notified and precedes the migrations declared by
// [Manifest.Migrations].
func (m *Manifest) Bootstrap() error {
	task := m.cfg.BootstrapTask
	if task == "" {
		task = config.DefaultBootstrapTask
	}
	_, err := m.Rake(task, RakeOptions{
		Alias:       "rails_bootstrap",
		RefreshOnly: true,
		Before:      []resource.ID{resource.ExecID("rake db:migrate")},
	})
	return err
}

// Migrations declares "rake db:migrate", run on every deploy.
func (m *Manifest) Migrations() error {
	_, err := m.Rake("db:migrate", RakeOptions{})
	return err
}
