package resource

import (
	"fmt"
	"slices"
	"time"
)

// Ensure states understood by the provisioning engine. Package resources may
// also carry a version string as their ensure value.
const (
	EnsureInstalled = "installed"
	EnsurePresent   = "present"
	EnsureAbsent    = "absent"
	EnsureDirectory = "directory"
	EnsureLink      = "link"
)

// Attributes is the typed attribute set of one resource kind.
//
// It is implemented only by [PackageAttrs], [ExecAttrs], [FileAttrs] and
// [CheckpointAttrs]. Merging is field-level: a set field in the newer
// declaration overwrites the older value, or only fills a gap when merging
// defaults.
type Attributes interface {
	// Kind returns the resource kind these attributes belong to.
	Kind() Kind
	// Fields renders the set fields for catalog output.
	Fields() map[string]any
	// AliasName returns the alias, if any.
	AliasName() string

	merge(next Attributes, fill bool) (Attributes, error)
}

// PackageAttrs configures a package resource.
type PackageAttrs struct {
	Ensure   string // "installed", "absent" or a version
	Provider string // e.g. "gem"; empty means the platform default (apt)
	Source   string
	Alias    string
}

// ExecAttrs configures a command resource.
type ExecAttrs struct {
	Command     string
	Cwd         string
	User        string
	Environment []string
	Timeout     time.Duration
	LogOutput   string // "true", "false" or "on_failure"
	RefreshOnly bool
	Unless      string
	Alias       string
}

// FileAttrs configures a file, directory or symlink resource.
type FileAttrs struct {
	Ensure  string // "present", "absent", "directory" or "link"
	Owner   string
	Group   string
	Mode    string
	Content string
	Target  string // link target when Ensure is "link"
}

// CheckpointAttrs marks a no-op resource used only to anchor ordering.
type CheckpointAttrs struct{}

func (PackageAttrs) Kind() Kind    { return KindPackage }
func (ExecAttrs) Kind() Kind       { return KindExec }
func (FileAttrs) Kind() Kind       { return KindFile }
func (CheckpointAttrs) Kind() Kind { return KindCheckpoint }

func (a PackageAttrs) AliasName() string  { return a.Alias }
func (a ExecAttrs) AliasName() string     { return a.Alias }
func (FileAttrs) AliasName() string       { return "" }
func (CheckpointAttrs) AliasName() string { return "" }

// zeroAttrs returns the empty attribute set for kind.
func zeroAttrs(kind Kind) Attributes {
	switch kind {
	case KindPackage:
		return PackageAttrs{}
	case KindExec:
		return ExecAttrs{}
	case KindFile:
		return FileAttrs{}
	case KindCheckpoint:
		return CheckpointAttrs{}
	}
	return nil
}

// pick implements overwrite-if-present for a single field.
func pick[T comparable](cur, next T, fill bool) T {
	var zero T
	if next == zero {
		return cur
	}
	if fill && cur != zero {
		return cur
	}
	return next
}

func kindMismatch(want Kind, got Attributes) error {
	return fmt.Errorf("cannot merge %s attributes into a %s", got.Kind(), want)
}

func (a PackageAttrs) merge(next Attributes, fill bool) (Attributes, error) {
	n, ok := next.(PackageAttrs)
	if !ok {
		return a, kindMismatch(KindPackage, next)
	}
	if a.Provider != "" && n.Provider != "" && a.Provider != n.Provider {
		return a, fmt.Errorf("provider %q conflicts with %q", n.Provider, a.Provider)
	}
	return PackageAttrs{
		Ensure:   pick(a.Ensure, n.Ensure, fill),
		Provider: pick(a.Provider, n.Provider, fill),
		Source:   pick(a.Source, n.Source, fill),
		Alias:    pick(a.Alias, n.Alias, fill),
	}, nil
}

func (a ExecAttrs) merge(next Attributes, fill bool) (Attributes, error) {
	n, ok := next.(ExecAttrs)
	if !ok {
		return a, kindMismatch(KindExec, next)
	}
	env := a.Environment
	if len(n.Environment) > 0 && (!fill || len(env) == 0) {
		env = slices.Clone(n.Environment)
	}
	return ExecAttrs{
		Command:     pick(a.Command, n.Command, fill),
		Cwd:         pick(a.Cwd, n.Cwd, fill),
		User:        pick(a.User, n.User, fill),
		Environment: env,
		Timeout:     pick(a.Timeout, n.Timeout, fill),
		LogOutput:   pick(a.LogOutput, n.LogOutput, fill),
		RefreshOnly: a.RefreshOnly || n.RefreshOnly,
		Unless:      pick(a.Unless, n.Unless, fill),
		Alias:       pick(a.Alias, n.Alias, fill),
	}, nil
}

func (a FileAttrs) merge(next Attributes, fill bool) (Attributes, error) {
	n, ok := next.(FileAttrs)
	if !ok {
		return a, kindMismatch(KindFile, next)
	}
	return FileAttrs{
		Ensure:  pick(a.Ensure, n.Ensure, fill),
		Owner:   pick(a.Owner, n.Owner, fill),
		Group:   pick(a.Group, n.Group, fill),
		Mode:    pick(a.Mode, n.Mode, fill),
		Content: pick(a.Content, n.Content, fill),
		Target:  pick(a.Target, n.Target, fill),
	}, nil
}

func (a CheckpointAttrs) merge(next Attributes, _ bool) (Attributes, error) {
	if _, ok := next.(CheckpointAttrs); !ok {
		return a, kindMismatch(KindCheckpoint, next)
	}
	return a, nil
}

// Fields renders the set package fields.
func (a PackageAttrs) Fields() map[string]any {
	m := map[string]any{}
	put(m, "ensure", a.Ensure)
	put(m, "provider", a.Provider)
	put(m, "source", a.Source)
	put(m, "alias", a.Alias)
	return m
}

// Fields renders the set exec fields. Timeout is rendered in seconds.
func (a ExecAttrs) Fields() map[string]any {
	m := map[string]any{}
	put(m, "command", a.Command)
	put(m, "cwd", a.Cwd)
	put(m, "user", a.User)
	if len(a.Environment) > 0 {
		m["environment"] = slices.Clone(a.Environment)
	}
	if a.Timeout > 0 {
		m["timeout"] = int(a.Timeout / time.Second)
	}
	put(m, "logoutput", a.LogOutput)
	if a.RefreshOnly {
		m["refreshonly"] = true
	}
	put(m, "unless", a.Unless)
	put(m, "alias", a.Alias)
	return m
}

// Fields renders the set file fields.
func (a FileAttrs) Fields() map[string]any {
	m := map[string]any{}
	put(m, "ensure", a.Ensure)
	put(m, "owner", a.Owner)
	put(m, "group", a.Group)
	put(m, "mode", a.Mode)
	put(m, "content", a.Content)
	put(m, "target", a.Target)
	return m
}

// Fields renders a checkpoint as the no-op command the engine runs.
func (CheckpointAttrs) Fields() map[string]any {
	return map[string]any{"command": "true"}
}

func put(m map[string]any, key, value string) {
	if value != "" {
		m[key] = value
	}
}
