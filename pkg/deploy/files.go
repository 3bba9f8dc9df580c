package deploy

import (
	"strings"

	"github.com/matzehuels/railcar/pkg/resource"
)

const (
	logrotatePackage = "logrotate"
	logrotateDir     = "/etc/logrotate.d/"
	directoryMode    = "775"
)

// Directories declares the capistrano layout under deploy_to: its parent
// directories, shared, releases, the shared children (with their parents)
// and the shared public directories backing app_symlinks.
func (m *Manifest) Directories() error {
	deployTo := strings.TrimSuffix(m.cfg.DeployTo, "/")

	parts := strings.Split(deployTo, "/")
	for i := 1; i < len(parts)-1; i++ {
		dir := "/" + strings.Join(parts[1:i+1], "/")
		if _, err := m.reg.Declare(resource.KindFile, dir, resource.FileAttrs{
			Ensure: resource.EnsureDirectory,
		}, resource.Edges{}); err != nil {
			return err
		}
	}

	dirs := []string{deployTo, deployTo + "/shared", deployTo + "/releases"}
	for _, child := range m.cfg.SharedChildren {
		dirs = append(dirs, withParents(deployTo+"/shared", child)...)
	}
	if len(m.cfg.AppSymlinks) > 0 {
		dirs = append(dirs, deployTo+"/shared/public")
		for _, link := range m.cfg.AppSymlinks {
			dirs = append(dirs, deployTo+"/shared/public/"+strings.Trim(link, "/"))
		}
	}

	for _, dir := range dirs {
		if _, err := m.ownedDirectory(dir); err != nil {
			return err
		}
	}
	return nil
}

// withParents expands "a/b/c" under root into root/a, root/a/b and root/a/b/c.
func withParents(root, child string) []string {
	var out []string
	path := root
	for _, part := range strings.Split(strings.Trim(child, "/"), "/") {
		if part == "" {
			continue
		}
		path += "/" + part
		out = append(out, path)
	}
	return out
}

func (m *Manifest) ownedDirectory(dir string) (*resource.Resource, error) {
	return m.reg.Declare(resource.KindFile, dir, resource.FileAttrs{
		Ensure: resource.EnsureDirectory,
		Owner:  m.cfg.User,
		Group:  m.cfg.OwnerGroup(),
		Mode:   directoryMode,
	}, resource.Edges{})
}

// LogRotate declares rotation of the shared Rails logs and removes the
// configuration file older releases installed.
func (m *Manifest) LogRotate() error {
	deployTo := strings.TrimSuffix(m.cfg.DeployTo, "/")
	glob := deployTo + "/shared/log/*.log"

	pkg, err := m.reg.DeclareDefaults(resource.KindPackage, logrotatePackage, resource.PackageAttrs{
		Ensure: resource.EnsureInstalled,
	}, resource.Edges{})
	if err != nil {
		return err
	}
	if _, err := m.reg.Declare(resource.KindFile, logrotateDir+lettersOnly(glob)+".conf", resource.FileAttrs{
		Ensure:  resource.EnsurePresent,
		Owner:   "root",
		Group:   "root",
		Mode:    "644",
		Content: LogrotateConfig(glob, m.cfg.LogrotateOptions(), m.cfg.LogrotatePostrotate()),
	}, resource.Edges{Require: []resource.ID{pkg.ID}}); err != nil {
		return err
	}

	legacy := logrotateDir + strings.ReplaceAll(deployTo, "/", "") + "sharedlog.conf"
	_, err = m.reg.Declare(resource.KindFile, legacy, resource.FileAttrs{
		Ensure: resource.EnsureAbsent,
	}, resource.Edges{})
	return err
}

// LogrotateConfig renders a logrotate stanza for glob.
func LogrotateConfig(glob string, options []string, postrotate string) string {
	var b strings.Builder
	b.WriteString(glob + " {\n")
	for _, opt := range options {
		b.WriteString("  " + opt + "\n")
	}
	if postrotate != "" {
		b.WriteString("  postrotate\n")
		b.WriteString("    " + postrotate + "\n")
		b.WriteString("  endscript\n")
	}
	b.WriteString("}\n")
	return b.String()
}

func lettersOnly(s string) string {
	return strings.Map(func(r rune) rune {
		if (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') {
			return r
		}
		return -1
	}, s)
}

// AssetPipeline declares the shared assets directory, links it into the
// Rails root and precompiles assets once every gem is installed.
func (m *Manifest) AssetPipeline() error {
	shared, err := m.ownedDirectory(strings.TrimSuffix(m.cfg.DeployTo, "/") + "/shared/assets")
	if err != nil {
		return err
	}
	link, err := m.reg.Declare(resource.KindFile, m.cfg.Root()+"/public/assets", resource.FileAttrs{
		Ensure: resource.EnsureLink,
		Target: shared.Name(),
		Owner:  m.cfg.User,
	}, resource.Edges{Require: []resource.ID{shared.ID}})
	if err != nil {
		return err
	}
	_, err = m.Rake("assets:precompile", RakeOptions{
		Require: []resource.ID{link.ID, m.checkpoint()},
	})
	return err
}
