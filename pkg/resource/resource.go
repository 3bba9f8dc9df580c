package resource

import (
	"slices"
	"strings"
)

// Kind is the type of a provisioning resource.
type Kind string

const (
	KindFile       Kind = "file"
	KindPackage    Kind = "package"
	KindExec       Kind = "exec"
	KindCheckpoint Kind = "checkpoint"
)

// Valid reports whether k is one of the known kinds.
func (k Kind) Valid() bool {
	switch k {
	case KindFile, KindPackage, KindExec, KindCheckpoint:
		return true
	}
	return false
}

// Title returns the capitalized kind, as used in references like Package[rake].
func (k Kind) Title() string {
	if k == "" {
		return ""
	}
	return strings.ToUpper(string(k[:1])) + string(k[1:])
}

// ID identifies a resource within a registry.
// Two declarations with the same ID always refer to the same resource.
type ID struct {
	Kind Kind   `json:"kind"`
	Name string `json:"name"`
}

// String renders the reference form, e.g. "Package[nokogiri]".
func (id ID) String() string {
	return id.Kind.Title() + "[" + id.Name + "]"
}

func PackageID(name string) ID    { return ID{Kind: KindPackage, Name: name} }
func ExecID(name string) ID       { return ID{Kind: KindExec, Name: name} }
func FileID(name string) ID       { return ID{Kind: KindFile, Name: name} }
func CheckpointID(name string) ID { return ID{Kind: KindCheckpoint, Name: name} }

// Edges are the ordering constraints attached to a declaration.
// Before lists resources that must be applied after this one; Require lists
// resources that must be applied before it.
type Edges struct {
	Before  []ID
	Require []ID
}

// Resource is a declared unit of provisioning work.
type Resource struct {
	ID      ID
	Attrs   Attributes
	Before  []ID
	Require []ID
}

// Kind returns the resource kind.
func (r *Resource) Kind() Kind { return r.ID.Kind }

// Name returns the resource name.
func (r *Resource) Name() string { return r.ID.Name }

// Package returns the package attributes, or false if r is not a package.
func (r *Resource) Package() (PackageAttrs, bool) {
	a, ok := r.Attrs.(PackageAttrs)
	return a, ok
}

// Exec returns the exec attributes, or false if r is not an exec.
func (r *Resource) Exec() (ExecAttrs, bool) {
	a, ok := r.Attrs.(ExecAttrs)
	return a, ok
}

// File returns the file attributes, or false if r is not a file.
func (r *Resource) File() (FileAttrs, bool) {
	a, ok := r.Attrs.(FileAttrs)
	return a, ok
}

// Requires reports whether r has a require edge on id.
func (r *Resource) Requires(id ID) bool { return slices.Contains(r.Require, id) }

// PrecedesDirectly reports whether r has a before edge on id.
func (r *Resource) PrecedesDirectly(id ID) bool { return slices.Contains(r.Before, id) }

func (r *Resource) addEdges(e Edges) {
	r.Before = appendUnique(r.Before, e.Before...)
	r.Require = appendUnique(r.Require, e.Require...)
}

func appendUnique(dst []ID, ids ...ID) []ID {
	for _, id := range ids {
		if !slices.Contains(dst, id) {
			dst = append(dst, id)
		}
	}
	return dst
}
