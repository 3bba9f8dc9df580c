// Package deploy evaluates the Rails deployment manifest of an application.
//
// # Overview
//
// A [Manifest] owns one [resource.Registry] and declares into it the
// resources that deploy a Rails application: the directory layout, the
// gems and their system packages, rake, migrations, asset precompilation
// and log rotation. [Manifest.Evaluate] runs every step and orders the
// result into a [catalog.Catalog]:
//
//	cfg, _ := config.Load("")
//	opts, _ := deploy.NewOptions(ctx, cfg, deploy.Sources{Cache: backend})
//	m, _ := deploy.New(cfg, opts)
//	c, err := m.Evaluate(ctx)
//
// # Gems
//
// [Manifest.Gems] writes /etc/gemrc and anchors every gem before the
// rails_gems checkpoint. With a Gemfile, bundler installs the gems and only
// their system packages are declared; otherwise each configured gem is
// resolved individually.
//
// # Rake
//
// Every rake task runs in the Rails root as the deploy user with RAILS_ENV
// set, after "rake environment" has proven the application boots. Tasks
// are prefixed with "bundle exec" when the application has a Gemfile and
// are aliased "rake <task>", so other steps can refer to them the same way
// in both cases:
//
//	Exec[bundle exec rake db:migrate] (alias "rake db:migrate")
//
// [resource.Registry]: github.com/matzehuels/railcar/pkg/resource.Registry
// [catalog.Catalog]: github.com/matzehuels/railcar/pkg/catalog.Catalog
package deploy
