package catalog

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/google/uuid"

	"github.com/matzehuels/railcar/pkg/dag"
	"github.com/matzehuels/railcar/pkg/errors"
	"github.com/matzehuels/railcar/pkg/resource"
)

// Entry is one resource of a catalog.
type Entry struct {
	Ref     string         `json:"ref"`
	Kind    resource.Kind  `json:"kind"`
	Name    string         `json:"name"`
	Attrs   map[string]any `json:"attrs,omitempty"`
	Before  []string       `json:"before,omitempty"`
	Require []string       `json:"require,omitempty"`
	Tier    int            `json:"tier"`
}

// Catalog is an evaluated set of resources in apply order.
type Catalog struct {
	ID          string    `json:"id"`
	Application string    `json:"application,omitempty"`
	Environment string    `json:"environment"`
	CreatedAt   time.Time `json:"created_at"`
	Resources   []Entry   `json:"resources"`
}

// New orders the resources of reg into a catalog.
// It fails if an edge names an undeclared resource or the edges form a cycle.
func New(reg *resource.Registry, application, environment string) (*Catalog, error) {
	g, err := reg.Graph()
	if err != nil {
		return nil, err
	}
	order, err := g.TopoSort()
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeGraphCycle, err, "order catalog")
	}
	g.AssignLayers()

	byRef := make(map[string]*resource.Resource, reg.Len())
	for _, res := range reg.Resources() {
		byRef[res.ID.String()] = res
	}

	c := &Catalog{
		ID:          uuid.NewString(),
		Application: application,
		Environment: environment,
		CreatedAt:   time.Now().UTC(),
		Resources:   make([]Entry, 0, len(order)),
	}
	for _, ref := range order {
		res := byRef[ref]
		node, _ := g.Node(ref)
		c.Resources = append(c.Resources, Entry{
			Ref:     ref,
			Kind:    res.Kind(),
			Name:    res.Name(),
			Attrs:   res.Attrs.Fields(),
			Before:  canonical(reg, res.Before),
			Require: canonical(reg, res.Require),
			Tier:    node.Row,
		})
	}
	return c, nil
}

func canonical(reg *resource.Registry, ids []resource.ID) []string {
	if len(ids) == 0 {
		return nil
	}
	out := make([]string, len(ids))
	for i, id := range ids {
		if res, ok := reg.Lookup(id); ok {
			id = res.ID
		}
		out[i] = id.String()
	}
	return out
}

// Len returns the number of resources.
func (c *Catalog) Len() int { return len(c.Resources) }

// Lookup returns the entry with the given reference, e.g. "Package[pg]".
func (c *Catalog) Lookup(ref string) (*Entry, bool) {
	for i := range c.Resources {
		if c.Resources[i].Ref == ref {
			return &c.Resources[i], true
		}
	}
	return nil, false
}

// Count returns the number of resources of kind.
func (c *Catalog) Count(kind resource.Kind) int {
	n := 0
	for _, e := range c.Resources {
		if e.Kind == kind {
			n++
		}
	}
	return n
}

// Refs returns the resource references in apply order.
func (c *Catalog) Refs() []string {
	refs := make([]string, len(c.Resources))
	for i, e := range c.Resources {
		refs[i] = e.Ref
	}
	return refs
}

// Graph rebuilds the ordering graph of the catalog. Nodes carry the entry's
// kind and attributes as metadata and its tier as row.
func (c *Catalog) Graph() (*dag.DAG, error) {
	g := dag.New()
	for _, e := range c.Resources {
		if err := g.AddNode(dag.Node{
			ID:   e.Ref,
			Row:  e.Tier,
			Meta: dag.Metadata{"kind": string(e.Kind), "name": e.Name, "attrs": e.Attrs},
		}); err != nil {
			return nil, errors.Wrap(errors.ErrCodeInvalidFormat, err, "resource %s", e.Ref)
		}
	}
	for _, e := range c.Resources {
		for _, to := range e.Before {
			if err := g.AddEdge(dag.Edge{From: e.Ref, To: to}); err != nil {
				return nil, errors.Wrap(errors.ErrCodeNotFound, err, "%s before %s", e.Ref, to)
			}
		}
		for _, from := range e.Require {
			if err := g.AddEdge(dag.Edge{From: from, To: e.Ref}); err != nil {
				return nil, errors.Wrap(errors.ErrCodeNotFound, err, "%s requires %s", e.Ref, from)
			}
		}
	}
	if err := g.Validate(); err != nil {
		return nil, errors.Wrap(errors.ErrCodeGraphCycle, err, "catalog %s", c.ID)
	}
	return g, nil
}

// WriteJSON encodes the catalog as indented JSON.
func (c *Catalog) WriteJSON(w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(c); err != nil {
		return fmt.Errorf("encode: %w", err)
	}
	return nil
}

// Export writes the catalog to a JSON file at path.
func (c *Catalog) Export(path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	defer f.Close()
	return c.WriteJSON(f)
}

// ReadJSON decodes a catalog and checks that its edges form a valid graph.
func ReadJSON(r io.Reader) (*Catalog, error) {
	var c Catalog
	if err := json.NewDecoder(r).Decode(&c); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidFormat, err, "decode catalog")
	}
	if _, err := c.Graph(); err != nil {
		return nil, err
	}
	return &c, nil
}

// Import reads a catalog from a JSON file at path.
func Import(path string) (*Catalog, error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.Wrap(errors.ErrCodeFileNotFound, err, "catalog %s", path)
		}
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()
	return ReadJSON(f)
}
