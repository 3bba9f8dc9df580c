package catalog

import (
	"bytes"
	"context"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/matzehuels/railcar/pkg/errors"
	"github.com/matzehuels/railcar/pkg/resource"
)

// gemRegistry declares the nokogiri example: two system packages before
// the gem, the gem before the checkpoint, and a rake task behind an alias.
func gemRegistry(t *testing.T) *resource.Registry {
	t.Helper()
	reg := resource.NewRegistry()
	must := func(_ *resource.Resource, err error) { require.NoError(t, err) }

	must(reg.Declare(resource.KindFile, "/etc/gemrc", resource.FileAttrs{Ensure: resource.EnsurePresent}, resource.Edges{}))
	must(reg.Declare(resource.KindPackage, "libxml2-dev", resource.PackageAttrs{Ensure: resource.EnsureInstalled}, resource.Edges{}))
	must(reg.Declare(resource.KindPackage, "libxslt1-dev", resource.PackageAttrs{Ensure: resource.EnsureInstalled}, resource.Edges{}))
	cp := reg.Checkpoint("rails_gems")
	must(reg.Declare(resource.KindPackage, "nokogiri", resource.PackageAttrs{Ensure: resource.EnsureInstalled, Provider: "gem"}, resource.Edges{
		Before:  []resource.ID{cp.ID},
		Require: []resource.ID{resource.FileID("/etc/gemrc"), resource.PackageID("libxml2-dev"), resource.PackageID("libxslt1-dev")},
	}))
	must(reg.Declare(resource.KindExec, "rake environment --trace", resource.ExecAttrs{Alias: "rake tasks"}, resource.Edges{
		Require: []resource.ID{cp.ID},
	}))
	must(reg.Declare(resource.KindExec, "rake db:migrate", resource.ExecAttrs{Alias: "rake db:migrate"}, resource.Edges{
		Require: []resource.ID{resource.ExecID("rake tasks")},
	}))
	return reg
}

func TestNew(t *testing.T) {
	c, err := New(gemRegistry(t), "storefront", "production")
	require.NoError(t, err)

	assert.NotEmpty(t, c.ID)
	assert.Equal(t, "production", c.Environment)
	assert.Equal(t, 7, c.Len())
	assert.Equal(t, 3, c.Count(resource.KindPackage))

	refs := c.Refs()
	pos := func(ref string) int {
		for i, r := range refs {
			if r == ref {
				return i
			}
		}
		t.Fatalf("%s missing from %v", ref, refs)
		return -1
	}
	assert.Less(t, pos("Package[libxml2-dev]"), pos("Package[nokogiri]"))
	assert.Less(t, pos("Package[nokogiri]"), pos("Checkpoint[rails_gems]"))
	assert.Less(t, pos("Checkpoint[rails_gems]"), pos("Exec[rake environment --trace]"))
	assert.Less(t, pos("Exec[rake environment --trace]"), pos("Exec[rake db:migrate]"))

	gem, ok := c.Lookup("Package[nokogiri]")
	require.True(t, ok)
	assert.Equal(t, 1, gem.Tier)
	assert.Equal(t, "gem", gem.Attrs["provider"])
	assert.Equal(t, []string{"Checkpoint[rails_gems]"}, gem.Before)

	migrate, ok := c.Lookup("Exec[rake db:migrate]")
	require.True(t, ok)
	assert.Equal(t, []string{"Exec[rake environment --trace]"}, migrate.Require, "aliases are canonicalized")
	assert.Equal(t, 4, migrate.Tier)

	_, ok = c.Lookup("Package[missing]")
	assert.False(t, ok)
}

func TestNewErrors(t *testing.T) {
	t.Run("cycle", func(t *testing.T) {
		reg := resource.NewRegistry()
		_, err := reg.Declare(resource.KindExec, "a", resource.ExecAttrs{}, resource.Edges{Before: []resource.ID{resource.ExecID("b")}})
		require.NoError(t, err)
		_, err = reg.Declare(resource.KindExec, "b", resource.ExecAttrs{}, resource.Edges{Before: []resource.ID{resource.ExecID("a")}})
		require.NoError(t, err)

		_, err = New(reg, "", "production")
		assert.True(t, errors.Is(err, errors.ErrCodeGraphCycle), "got %v", err)
	})

	t.Run("undeclared", func(t *testing.T) {
		reg := resource.NewRegistry()
		_, err := reg.Declare(resource.KindExec, "a", resource.ExecAttrs{}, resource.Edges{Require: []resource.ID{resource.FileID("/missing")}})
		require.NoError(t, err)

		_, err = New(reg, "", "production")
		assert.True(t, errors.Is(err, errors.ErrCodeNotFound), "got %v", err)
	})
}

func TestJSON(t *testing.T) {
	c, err := New(gemRegistry(t), "storefront", "production")
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, c.WriteJSON(&buf))
	assert.Contains(t, buf.String(), `"ref": "Package[nokogiri]"`)

	back, err := ReadJSON(&buf)
	require.NoError(t, err)
	assert.Equal(t, c.ID, back.ID)
	assert.Equal(t, c.Refs(), back.Refs())

	g, err := back.Graph()
	require.NoError(t, err)
	assert.True(t, g.HasEdge("Package[libxml2-dev]", "Package[nokogiri]"))
	assert.True(t, g.HasEdge("Package[nokogiri]", "Checkpoint[rails_gems]"))
}

func TestExportImport(t *testing.T) {
	c, err := New(gemRegistry(t), "storefront", "staging")
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "catalog.json")
	require.NoError(t, c.Export(path))

	back, err := Import(path)
	require.NoError(t, err)
	assert.Equal(t, "staging", back.Environment)

	_, err = Import(filepath.Join(t.TempDir(), "missing.json"))
	assert.True(t, errors.Is(err, errors.ErrCodeFileNotFound), "got %v", err)
}

func TestReadJSONInvalid(t *testing.T) {
	tests := []struct {
		name string
		data string
		code errors.Code
	}{
		{"malformed", `{"resources": [`, errors.ErrCodeInvalidFormat},
		{"duplicate", `{"resources": [{"ref": "Exec[a]"}, {"ref": "Exec[a]"}]}`, errors.ErrCodeInvalidFormat},
		{"dangling edge", `{"resources": [{"ref": "Exec[a]", "before": ["Exec[b]"]}]}`, errors.ErrCodeNotFound},
		{"cycle", `{"resources": [{"ref": "Exec[a]", "before": ["Exec[b]"]}, {"ref": "Exec[b]", "before": ["Exec[a]"]}]}`, errors.ErrCodeGraphCycle},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ReadJSON(strings.NewReader(tt.data))
			assert.True(t, errors.Is(err, tt.code), "got %v", err)
		})
	}
}

func TestToDOT(t *testing.T) {
	c, err := New(gemRegistry(t), "storefront", "production")
	require.NoError(t, err)

	dot := ToDOT(c, Options{})
	assert.True(t, strings.HasPrefix(dot, "digraph G {"))
	assert.Contains(t, dot, `"Package[nokogiri]" -> "Checkpoint[rails_gems]";`)
	assert.Contains(t, dot, `"Package[libxml2-dev]" -> "Package[nokogiri]" [style=dashed];`)
	assert.Contains(t, dot, `"Checkpoint[rails_gems]" [label="Checkpoint[rails_gems]", fillcolor=lightgrey`)

	detailed := ToDOT(c, Options{Detailed: true})
	assert.Contains(t, detailed, `tier: 1\nensure: installed\nprovider: gem`)
}

func TestRenderSVG(t *testing.T) {
	if testing.Short() {
		t.Skip("graphviz rendering is slow")
	}
	c, err := New(gemRegistry(t), "storefront", "production")
	require.NoError(t, err)

	svg, err := RenderSVG(context.Background(), ToDOT(c, Options{}))
	require.NoError(t, err)
	assert.Contains(t, string(svg), `<svg xmlns="http://www.w3.org/2000/svg" viewBox="0 0 `)

	_, err = RenderSVG(context.Background(), "digraph {")
	assert.Error(t, err)
}

func TestNormalizeViewBox(t *testing.T) {
	in := []byte(`<svg width="10pt" height="20pt" viewBox="0.00 0.00 100.50 200.00"><g/></svg>`)
	out := string(normalizeViewBox(in))
	assert.Equal(t, `<svg xmlns="http://www.w3.org/2000/svg" viewBox="0 0 100.50 200.00" width="100" height="200"><g/></svg>`, out)

	plain := []byte(`<svg><g/></svg>`)
	assert.Equal(t, plain, normalizeViewBox(plain))
}
