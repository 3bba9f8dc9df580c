package resource

import (
	"github.com/matzehuels/railcar/pkg/dag"
	"github.com/matzehuels/railcar/pkg/errors"
)

// Graph converts the declared resources into an ordering graph.
//
// Each resource becomes a node keyed by its reference string (e.g.
// "Package[rake]") with "kind" and "attrs" metadata. Before edges point from
// the resource to the target; Require edges point from the target to the
// resource. Edges may name aliases. A reference to an undeclared resource is
// an ErrCodeNotFound error, and a cycle is an ErrCodeGraphCycle error.
func (r *Registry) Graph() (*dag.DAG, error) {
	g := dag.New()
	for _, res := range r.Resources() {
		if err := g.AddNode(dag.Node{
			ID: res.ID.String(),
			Meta: dag.Metadata{
				"kind":  string(res.ID.Kind),
				"name":  res.ID.Name,
				"attrs": res.Attrs.Fields(),
			},
		}); err != nil {
			return nil, errors.Wrap(errors.ErrCodeInternal, err, "%s", res.ID)
		}
	}

	for _, res := range r.Resources() {
		for _, target := range res.Before {
			if err := r.link(g, res.ID, target, res.ID, target); err != nil {
				return nil, err
			}
		}
		for _, dep := range res.Require {
			if err := r.link(g, res.ID, dep, dep, res.ID); err != nil {
				return nil, err
			}
		}
	}

	if err := g.Validate(); err != nil {
		return nil, errors.Wrap(errors.ErrCodeGraphCycle, err, "invalid resource ordering")
	}
	return g, nil
}

func (r *Registry) link(g *dag.DAG, owner, ref, from, to ID) error {
	if _, ok := r.Lookup(ref); !ok {
		return errors.New(errors.ErrCodeNotFound, "%s references undeclared %s", owner, ref)
	}
	from, to = r.canonical(from), r.canonical(to)
	return g.AddEdge(dag.Edge{From: from.String(), To: to.String()})
}

// Order returns the resources in an apply order consistent with every edge.
// Ties follow declaration order.
func (r *Registry) Order() ([]*Resource, error) {
	g, err := r.Graph()
	if err != nil {
		return nil, err
	}
	ids, err := g.TopoSort()
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeGraphCycle, err, "invalid resource ordering")
	}

	byRef := make(map[string]*Resource, r.Len())
	for _, res := range r.Resources() {
		byRef[res.ID.String()] = res
	}
	out := make([]*Resource, len(ids))
	for i, id := range ids {
		out[i] = byRef[id]
	}
	return out, nil
}

// Precedes reports whether a is ordered strictly before b, directly or
// transitively.
func (r *Registry) Precedes(a, b ID) (bool, error) {
	g, err := r.Graph()
	if err != nil {
		return false, err
	}
	a, b = r.canonical(a), r.canonical(b)
	target := b.String()
	seen := map[string]bool{}
	stack := []string{a.String()}
	for len(stack) > 0 {
		curr := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		for _, next := range g.Children(curr) {
			if next == target {
				return true, nil
			}
			if !seen[next] {
				seen[next] = true
				stack = append(stack, next)
			}
		}
	}
	return false, nil
}
