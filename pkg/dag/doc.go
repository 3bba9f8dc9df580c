// Package dag provides the directed acyclic graph that carries ordering
// constraints between provisioning resources.
//
// # Overview
//
// A catalog is a set of resources plus "before" edges. An edge From → To
// means the engine must apply From before To. railcar builds the graph from
// a resource registry, validates that it is acyclic and computes a
// deterministic apply order for the external provisioning engine.
//
// # Basic Usage
//
//	g := dag.New()
//	_ = g.AddNode(dag.Node{ID: "Package[libxml2-dev]"})
//	_ = g.AddNode(dag.Node{ID: "Package[nokogiri]"})
//	_ = g.AddEdge(dag.Edge{From: "Package[libxml2-dev]", To: "Package[nokogiri]"})
//	order, err := g.TopoSort()
//
// # Ordering
//
// [DAG.TopoSort] uses Kahn's algorithm with insertion-order tie-breaking, and
// [DAG.AssignLayers] computes longest-path tiers (row 0 applies first).
// Both are O(N+E).
//
// # Cycles
//
// Resolution is acyclic by construction, but callers may add their own edges.
// [DAG.Validate] reports a cycle as an error wrapping [ErrGraphHasCycle] that
// names the offending path.
package dag
