package gemfile

import (
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"

	"github.com/matzehuels/railcar/pkg/errors"
)

const sampleGemfile = `source 'https://rubygems.org'

# Web framework
gem 'rails', '3.2.22'
gem 'pg'
gem "nokogiri", "~> 1.6", ">= 1.6.0"
gem 'unicorn', require: false

group :development, :test do
  gem 'rspec-rails'
  gem 'sqlite3'
end

group :test do
  gem 'capybara-webkit' # needs qt
end

gem 'newrelic_rpm', group: :production
gem 'rmagick', :groups => [:staging, :production]
gem 'sqlite3', group: :staging
`

func TestParse(t *testing.T) {
	m, err := Parse(strings.NewReader(sampleGemfile))
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}

	if want := []string{"https://rubygems.org"}; !reflect.DeepEqual(m.Sources, want) {
		t.Errorf("Sources = %v, want %v", m.Sources, want)
	}

	tests := []struct {
		name    string
		version string
		reqs    []string
		groups  []string
	}{
		{"rails", "3.2.22", []string{"3.2.22"}, nil},
		{"pg", "", nil, nil},
		{"nokogiri", "", []string{"~> 1.6", ">= 1.6.0"}, nil},
		{"unicorn", "", nil, nil},
		{"rspec-rails", "", nil, []string{"development", "test"}},
		{"sqlite3", "", nil, []string{"development", "test", "staging"}},
		{"capybara-webkit", "", nil, []string{"test"}},
		{"newrelic_rpm", "", nil, []string{"production"}},
		{"rmagick", "", nil, []string{"staging", "production"}},
	}

	if len(m.Dependencies) != len(tests) {
		t.Fatalf("got %d dependencies, want %d", len(m.Dependencies), len(tests))
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dep, ok := m.Get(tt.name)
			if !ok {
				t.Fatalf("dependency %q not found", tt.name)
			}
			if dep.Version != tt.version {
				t.Errorf("Version = %q, want %q", dep.Version, tt.version)
			}
			if !reflect.DeepEqual(dep.Requirements, tt.reqs) {
				t.Errorf("Requirements = %v, want %v", dep.Requirements, tt.reqs)
			}
			if !reflect.DeepEqual(dep.Groups, tt.groups) {
				t.Errorf("Groups = %v, want %v", dep.Groups, tt.groups)
			}
		})
	}
}

func TestManifestActive(t *testing.T) {
	m, err := Parse(strings.NewReader(sampleGemfile))
	if err != nil {
		t.Fatal(err)
	}

	names := func(env ...string) []string {
		var out []string
		for _, d := range m.Active(env...) {
			out = append(out, d.Name)
		}
		return out
	}

	if got, want := names(), []string{"rails", "pg", "nokogiri", "unicorn"}; !reflect.DeepEqual(got, want) {
		t.Errorf("Active() = %v, want %v", got, want)
	}
	if got, want := names("production"), []string{"rails", "pg", "nokogiri", "unicorn", "newrelic_rpm", "rmagick"}; !reflect.DeepEqual(got, want) {
		t.Errorf("Active(production) = %v, want %v", got, want)
	}
	if got, want := names("test"), []string{"rails", "pg", "nokogiri", "unicorn", "rspec-rails", "sqlite3", "capybara-webkit"}; !reflect.DeepEqual(got, want) {
		t.Errorf("Active(test) = %v, want %v", got, want)
	}
}

func TestParseBlocks(t *testing.T) {
	content := `source 'https://rubygems.org'

platforms :ruby do
  gem 'therubyracer'
end

source 'https://gems.example.com' do
  gem 'internal-tools'
end

if ENV['WITH_DEBUGGER']
  gem 'byebug'
end

group :production do
  gem 'lograge' if ENV['LOGRAGE']
  gem('dalli')
end
`
	m, err := Parse(strings.NewReader(content))
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}

	if dep, _ := m.Get("therubyracer"); dep.Groups != nil {
		t.Errorf("therubyracer groups = %v, want none", dep.Groups)
	}
	if dep, _ := m.Get("internal-tools"); dep.Source != "https://gems.example.com" {
		t.Errorf("internal-tools source = %q", dep.Source)
	}
	if dep, _ := m.Get("byebug"); dep.Groups != nil {
		t.Errorf("byebug groups = %v, want none", dep.Groups)
	}
	for _, name := range []string{"lograge", "dalli"} {
		dep, ok := m.Get(name)
		if !ok {
			t.Fatalf("dependency %q not found", name)
		}
		if !reflect.DeepEqual(dep.Groups, []string{"production"}) {
			t.Errorf("%s groups = %v, want [production]", name, dep.Groups)
		}
	}
	if len(m.Sources) != 1 {
		t.Errorf("Sources = %v, want block sources excluded", m.Sources)
	}
}

func TestParseDuplicatesFirstWins(t *testing.T) {
	content := `gem 'rails', '4.2.0'
gem 'rails', '5.0.0'  # duplicate should be ignored
# gem 'commented_out'
`
	m, err := Parse(strings.NewReader(content))
	if err != nil {
		t.Fatal(err)
	}
	if len(m.Dependencies) != 1 {
		t.Fatalf("expected 1 gem, got %d: %v", len(m.Dependencies), m.Dependencies)
	}
	if v := m.Dependencies[0].Version; v != "4.2.0" {
		t.Errorf("Version = %q, want 4.2.0", v)
	}
}

func TestParseMalformed(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"unquoted name", "gem rails\n"},
		{"invalid name", "gem '-rails'\n"},
		{"stray argument", "gem 'rails', nil\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse(strings.NewReader(tt.content))
			if err == nil {
				t.Fatal("expected error")
			}
			if !errors.Is(err, errors.ErrCodeInvalidManifest) {
				t.Errorf("error code = %s, want %s", errors.GetCode(err), errors.ErrCodeInvalidManifest)
			}
		})
	}
}

func TestParseFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "Gemfile")
	if err := os.WriteFile(path, []byte("gem 'rails'\ngem \"puma\"\n"), 0644); err != nil {
		t.Fatal(err)
	}

	m, err := ParseFile(path)
	if err != nil {
		t.Fatalf("ParseFile failed: %v", err)
	}
	if m.Path != path {
		t.Errorf("Path = %q, want %q", m.Path, path)
	}
	if len(m.Dependencies) != 2 {
		t.Errorf("expected 2 gems, got %d", len(m.Dependencies))
	}

	if _, err := ParseFile(filepath.Join(dir, "missing")); !errors.Is(err, errors.ErrCodeFileNotFound) {
		t.Errorf("missing file error = %v, want FILE_NOT_FOUND", err)
	}
}
