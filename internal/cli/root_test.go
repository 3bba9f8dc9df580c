package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/matzehuels/railcar/pkg/buildinfo"
	"github.com/matzehuels/railcar/pkg/catalog"
)

func TestSetVersion(t *testing.T) {
	v, c, d := buildinfo.Version, buildinfo.Commit, buildinfo.Date
	t.Cleanup(func() { buildinfo.Version, buildinfo.Commit, buildinfo.Date = v, c, d })

	SetVersion("1.0.0", "abc123", "2024-01-01")

	if buildinfo.Version != "1.0.0" {
		t.Errorf("Version = %q, want %q", buildinfo.Version, "1.0.0")
	}
	if buildinfo.Commit != "abc123" {
		t.Errorf("Commit = %q, want %q", buildinfo.Commit, "abc123")
	}
	if buildinfo.Date != "2024-01-01" {
		t.Errorf("Date = %q, want %q", buildinfo.Date, "2024-01-01")
	}
}

func TestSetVersionEmptyKeepsDefaults(t *testing.T) {
	v := buildinfo.Version
	SetVersion("", "", "")

	if buildinfo.Version != v {
		t.Errorf("Version = %q, want unchanged %q", buildinfo.Version, v)
	}
}

func TestRootCommandRegistersSubcommands(t *testing.T) {
	root := New(&bytes.Buffer{}, LogInfo).RootCommand()

	for _, name := range []string{"plan", "resolve", "graph", "serve", "cache", "completion"} {
		if cmd, _, err := root.Find([]string{name}); err != nil || cmd.Name() != name {
			t.Errorf("subcommand %q not registered", name)
		}
	}
	for _, flag := range []string{"config", "env"} {
		if root.PersistentFlags().Lookup(flag) == nil {
			t.Errorf("persistent flag --%s missing", flag)
		}
	}
}

func TestParseGemArg(t *testing.T) {
	tests := []struct {
		arg, name, version string
	}{
		{"nokogiri", "nokogiri", ""},
		{"pg@1.5.4", "pg", "1.5.4"},
		{"rails@", "rails", ""},
	}
	for _, tt := range tests {
		spec := parseGemArg(tt.arg)
		if spec.Name != tt.name || spec.Version != tt.version {
			t.Errorf("parseGemArg(%q) = %+v, want %s@%s", tt.arg, spec, tt.name, tt.version)
		}
	}
}

// writeApp lays out an application root with a configuration and an
// inventory snapshot, returning the config path and snapshot path.
func writeApp(t *testing.T) (string, string) {
	t.Helper()
	root := t.TempDir()
	if err := os.MkdirAll(filepath.Join(root, "config"), 0755); err != nil {
		t.Fatal(err)
	}
	cfg := `application: shop
deploy_to: /srv/shop
rails_env: staging
gems:
  - name: pg
  - name: json
    version: 2.7.1
cache:
  backend: none
`
	cfgPath := filepath.Join(root, "config", "railcar.yml")
	if err := os.WriteFile(cfgPath, []byte(cfg), 0644); err != nil {
		t.Fatal(err)
	}
	snapshot := filepath.Join(root, "inventory.json")
	if err := os.WriteFile(snapshot, []byte(`{"json": ["2.7.1"]}`), 0644); err != nil {
		t.Fatal(err)
	}
	return cfgPath, snapshot
}

func TestPlanWritesCatalog(t *testing.T) {
	cfgPath, snapshot := writeApp(t)
	out := filepath.Join(t.TempDir(), "catalog.json")

	var logs bytes.Buffer
	err := Execute(context.Background(), &logs, []string{
		"plan", "-c", cfgPath, "--snapshot", snapshot, "--offline", "-o", out,
	})
	if err != nil {
		t.Fatalf("plan error: %v\n%s", err, logs.String())
	}

	c, err := catalog.Import(out)
	if err != nil {
		t.Fatalf("Import() error: %v", err)
	}
	if c.Environment != "staging" {
		t.Errorf("Environment = %q, want staging", c.Environment)
	}
	for _, ref := range []string{"Package[pg]", "Package[libpq-dev]", "Package[json]", "Exec[rake db:migrate]"} {
		if _, ok := c.Lookup(ref); !ok {
			t.Errorf("catalog missing %s", ref)
		}
	}
	if !strings.Contains(logs.String(), "Evaluated") {
		t.Errorf("expected progress log, got %q", logs.String())
	}
}

func TestPlanEnvFlag(t *testing.T) {
	cfgPath, snapshot := writeApp(t)
	out := filepath.Join(t.TempDir(), "catalog.json")

	err := Execute(context.Background(), &bytes.Buffer{}, []string{
		"plan", "-c", cfgPath, "--env", "production", "--snapshot", snapshot, "--offline", "-o", out,
	})
	if err != nil {
		t.Fatalf("plan error: %v", err)
	}

	data, err := os.ReadFile(out)
	if err != nil {
		t.Fatal(err)
	}
	var doc struct {
		Environment string `json:"environment"`
	}
	if err := json.Unmarshal(data, &doc); err != nil {
		t.Fatal(err)
	}
	if doc.Environment != "production" {
		t.Errorf("environment = %q, want production", doc.Environment)
	}
}

func TestPlanMissingConfig(t *testing.T) {
	err := Execute(context.Background(), &bytes.Buffer{}, []string{
		"plan", "-c", filepath.Join(t.TempDir(), "missing.yml"),
	})
	if err == nil {
		t.Fatal("plan should fail for a missing explicit config")
	}
}

func TestGraphFromCatalog(t *testing.T) {
	cfgPath, snapshot := writeApp(t)
	dir := t.TempDir()
	catPath := filepath.Join(dir, "catalog.json")
	dotPath := filepath.Join(dir, "catalog.dot")

	ctx := context.Background()
	if err := Execute(ctx, &bytes.Buffer{}, []string{
		"plan", "-c", cfgPath, "--snapshot", snapshot, "--offline", "-o", catPath,
	}); err != nil {
		t.Fatalf("plan error: %v", err)
	}
	if err := Execute(ctx, &bytes.Buffer{}, []string{
		"graph", "-c", cfgPath, "--from", catPath, "-o", dotPath,
	}); err != nil {
		t.Fatalf("graph error: %v", err)
	}

	data, err := os.ReadFile(dotPath)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.HasPrefix(string(data), "digraph G {") {
		t.Errorf("expected DOT output, got %q", string(data))
	}
	if !strings.Contains(string(data), `"Package[pg]"`) {
		t.Error("DOT output should contain Package[pg]")
	}
}

func TestGraphRejectsFormat(t *testing.T) {
	err := Execute(context.Background(), &bytes.Buffer{}, []string{"graph", "--format", "png"})
	if err == nil || !strings.Contains(err.Error(), "unsupported format") {
		t.Errorf("graph --format png error = %v, want unsupported format", err)
	}
}

func TestResolveRejectsVersionRange(t *testing.T) {
	err := Execute(context.Background(), &bytes.Buffer{}, []string{"resolve", "rails@>=7"})
	if err == nil {
		t.Fatal("resolve should reject a version range")
	}
}

func TestCachePath(t *testing.T) {
	cfgPath, _ := writeApp(t)
	t.Setenv("XDG_CACHE_HOME", "/tmp/xdg")

	var out bytes.Buffer
	root := newRoot(&bytes.Buffer{})
	root.SetOut(&out)
	root.SetArgs([]string{"cache", "path", "-c", cfgPath})
	if err := root.ExecuteContext(context.Background()); err != nil {
		t.Fatalf("cache path error: %v", err)
	}
	if got := strings.TrimSpace(out.String()); got != "/tmp/xdg/railcar" {
		t.Errorf("cache path = %q, want /tmp/xdg/railcar", got)
	}
}

func TestPlanExampleApplication(t *testing.T) {
	out := filepath.Join(t.TempDir(), "catalog.json")

	err := Execute(context.Background(), &bytes.Buffer{}, []string{
		"plan",
		"-c", filepath.Join("..", "..", "examples", "shop", "config", "railcar.yml"),
		"--snapshot", filepath.Join("..", "..", "examples", "shop", "inventory.yml"),
		"--offline", "--no-cache", "-o", out,
	})
	if err != nil {
		t.Fatalf("plan error: %v", err)
	}

	c, err := catalog.Import(out)
	if err != nil {
		t.Fatalf("Import() error: %v", err)
	}
	for _, ref := range []string{
		"Exec[bundle install]",
		"Package[bundler]",
		"Package[libpq-dev]",
		"Package[imagemagick]",
		"Package[libsass-dev]",
		"File[/etc/logrotate.d/srvshopsharedlog.conf]",
	} {
		if _, ok := c.Lookup(ref); !ok {
			t.Errorf("catalog missing %s", ref)
		}
	}
}
