package resource

import (
	"github.com/matzehuels/railcar/pkg/errors"
)

// Registry is the identity-keyed store of resources declared during one
// manifest evaluation pass.
//
// A Registry has a single owner and is discarded after the pass; it is not
// safe for concurrent use.
type Registry struct {
	resources map[ID]*Resource
	order     []ID
	aliases   map[ID]ID // (kind, alias) -> canonical ID
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		resources: make(map[ID]*Resource),
		aliases:   make(map[ID]ID),
	}
}

// Declare creates the resource (kind, name) or merges into the existing one.
//
// Fields set in attrs overwrite existing values; edges are appended without
// duplicates. attrs may be nil to declare or fetch a resource without
// changing it. Declaring with attributes of another kind, a conflicting
// package provider or an alias already taken is an identity conflict.
func (r *Registry) Declare(kind Kind, name string, attrs Attributes, edges Edges) (*Resource, error) {
	return r.declare(kind, name, attrs, edges, false)
}

// DeclareDefaults is like Declare but attrs only fill fields that are unset
// on an existing resource.
func (r *Registry) DeclareDefaults(kind Kind, name string, attrs Attributes, edges Edges) (*Resource, error) {
	return r.declare(kind, name, attrs, edges, true)
}

func (r *Registry) declare(kind Kind, name string, attrs Attributes, edges Edges, fill bool) (*Resource, error) {
	if !kind.Valid() {
		return nil, errors.New(errors.ErrCodeInvalidInput, "unknown resource kind %q", kind)
	}
	if name == "" {
		return nil, errors.New(errors.ErrCodeInvalidInput, "%s name cannot be empty", kind)
	}
	if attrs == nil {
		attrs = zeroAttrs(kind)
	}
	id := r.canonical(ID{Kind: kind, Name: name})

	if attrs.Kind() != kind {
		return nil, errors.New(errors.ErrCodeIdentityConflict,
			"%s declared with %s attributes", id, attrs.Kind())
	}

	res, exists := r.resources[id]
	if !exists {
		res = &Resource{ID: id, Attrs: zeroAttrs(kind)}
	}

	merged, err := res.Attrs.merge(attrs, fill)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeIdentityConflict, err, "%s", id)
	}
	if err := r.claimAlias(id, merged.AliasName()); err != nil {
		return nil, err
	}
	if prev := res.Attrs.AliasName(); exists && prev != merged.AliasName() {
		r.releaseAlias(id, prev)
	}

	res.Attrs = merged
	res.addEdges(edges)
	if !exists {
		r.resources[id] = res
		r.order = append(r.order, id)
	}
	return res, nil
}

func (r *Registry) claimAlias(id ID, alias string) error {
	if alias == "" || alias == id.Name {
		return nil
	}
	key := ID{Kind: id.Kind, Name: alias}
	if owner, ok := r.aliases[key]; ok && owner != id {
		return errors.New(errors.ErrCodeIdentityConflict,
			"alias %q of %s is already used by %s", alias, id, owner)
	}
	if _, ok := r.resources[key]; ok {
		return errors.New(errors.ErrCodeIdentityConflict,
			"alias %q of %s collides with declared %s", alias, id, key)
	}
	r.aliases[key] = id
	return nil
}

// releaseAlias frees an alias of id that a later declaration replaced.
func (r *Registry) releaseAlias(id ID, alias string) {
	key := ID{Kind: id.Kind, Name: alias}
	if r.aliases[key] == id {
		delete(r.aliases, key)
	}
}

// canonical follows an alias to the resource it names.
func (r *Registry) canonical(id ID) ID {
	if target, ok := r.aliases[id]; ok {
		return target
	}
	return id
}

// Get looks up a resource by name or alias. It never declares anything.
func (r *Registry) Get(kind Kind, name string) (*Resource, bool) {
	res, ok := r.resources[r.canonical(ID{Kind: kind, Name: name})]
	return res, ok
}

// Lookup is Get keyed by ID.
func (r *Registry) Lookup(id ID) (*Resource, bool) {
	return r.Get(id.Kind, id.Name)
}

// Checkpoint declares (or fetches) the no-op ordering anchor name.
// It panics if name is empty, like other Must-style bootstrap helpers.
func (r *Registry) Checkpoint(name string) *Resource {
	res, err := r.Declare(KindCheckpoint, name, CheckpointAttrs{}, Edges{})
	if err != nil {
		panic(err)
	}
	return res
}

// Resources returns all resources in declaration order.
func (r *Registry) Resources() []*Resource {
	out := make([]*Resource, 0, len(r.order))
	for _, id := range r.order {
		out = append(out, r.resources[id])
	}
	return out
}

// Len returns the number of declared resources.
func (r *Registry) Len() int { return len(r.order) }

// Count returns the number of declared resources of kind.
func (r *Registry) Count(kind Kind) int {
	n := 0
	for _, id := range r.order {
		if id.Kind == kind {
			n++
		}
	}
	return n
}
