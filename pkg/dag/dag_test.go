package dag

import (
	"errors"
	"slices"
	"testing"
)

func TestAddNode(t *testing.T) {
	g := New()

	if err := g.AddNode(Node{}); !errors.Is(err, ErrInvalidNodeID) {
		t.Errorf("AddNode(empty) = %v, want ErrInvalidNodeID", err)
	}
	if err := g.AddNode(Node{ID: "a"}); err != nil {
		t.Fatalf("AddNode(a) = %v", err)
	}
	if err := g.AddNode(Node{ID: "a"}); !errors.Is(err, ErrDuplicateNodeID) {
		t.Errorf("AddNode(a) twice = %v, want ErrDuplicateNodeID", err)
	}

	n, ok := g.Node("a")
	if !ok {
		t.Fatal("node a not found")
	}
	if n.Meta == nil {
		t.Error("Meta should be initialized")
	}
}

func TestAddEdge(t *testing.T) {
	g := New()
	_ = g.AddNode(Node{ID: "a"})
	_ = g.AddNode(Node{ID: "b"})

	tests := []struct {
		name    string
		edge    Edge
		wantErr error
	}{
		{"unknown source", Edge{From: "x", To: "b"}, ErrUnknownSourceNode},
		{"unknown target", Edge{From: "a", To: "x"}, ErrUnknownTargetNode},
		{"valid", Edge{From: "a", To: "b"}, nil},
		{"duplicate ignored", Edge{From: "a", To: "b"}, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := g.AddEdge(tt.edge); !errors.Is(err, tt.wantErr) {
				t.Errorf("AddEdge() = %v, want %v", err, tt.wantErr)
			}
		})
	}

	if got := g.EdgeCount(); got != 1 {
		t.Errorf("EdgeCount = %d, want 1", got)
	}
	if !g.HasEdge("a", "b") || g.HasEdge("b", "a") {
		t.Error("HasEdge returned wrong direction")
	}
}

func TestNodesInsertionOrder(t *testing.T) {
	g := New()
	ids := []string{"zeta", "alpha", "mid"}
	for _, id := range ids {
		_ = g.AddNode(Node{ID: id})
	}

	var got []string
	for _, n := range g.Nodes() {
		got = append(got, n.ID)
	}
	if !slices.Equal(got, ids) {
		t.Errorf("Nodes() = %v, want %v", got, ids)
	}
}

func TestSourcesAndParents(t *testing.T) {
	g := New()
	for _, id := range []string{"sys", "gem", "checkpoint", "lonely"} {
		_ = g.AddNode(Node{ID: id})
	}
	_ = g.AddEdge(Edge{From: "sys", To: "gem"})
	_ = g.AddEdge(Edge{From: "gem", To: "checkpoint"})

	var sources []string
	for _, n := range g.Sources() {
		sources = append(sources, n.ID)
	}
	if !slices.Equal(sources, []string{"sys", "lonely"}) {
		t.Errorf("Sources() = %v", sources)
	}
	if got := g.Parents("gem"); !slices.Equal(got, []string{"sys"}) {
		t.Errorf("Parents(gem) = %v", got)
	}
	if got := g.Parents("sys"); len(got) != 0 {
		t.Errorf("Parents(sys) = %v, want none", got)
	}
}

func TestTopoSortDeterministic(t *testing.T) {
	build := func() *DAG {
		g := New()
		for _, id := range []string{"gemrc", "checkpoint", "pg", "libpq-dev", "nokogiri", "libxml2-dev"} {
			_ = g.AddNode(Node{ID: id})
		}
		_ = g.AddEdge(Edge{From: "libpq-dev", To: "pg"})
		_ = g.AddEdge(Edge{From: "libxml2-dev", To: "nokogiri"})
		_ = g.AddEdge(Edge{From: "gemrc", To: "pg"})
		_ = g.AddEdge(Edge{From: "gemrc", To: "nokogiri"})
		_ = g.AddEdge(Edge{From: "pg", To: "checkpoint"})
		_ = g.AddEdge(Edge{From: "nokogiri", To: "checkpoint"})
		return g
	}

	first, err := build().TopoSort()
	if err != nil {
		t.Fatalf("TopoSort: %v", err)
	}
	want := []string{"gemrc", "libpq-dev", "libxml2-dev", "pg", "nokogiri", "checkpoint"}
	if !slices.Equal(first, want) {
		t.Errorf("TopoSort() = %v, want %v", first, want)
	}

	for range 5 {
		again, _ := build().TopoSort()
		if !slices.Equal(first, again) {
			t.Fatalf("TopoSort not deterministic: %v vs %v", first, again)
		}
	}
}

func TestTopoSortCycle(t *testing.T) {
	g := New()
	for _, id := range []string{"a", "b", "c"} {
		_ = g.AddNode(Node{ID: id})
	}
	_ = g.AddEdge(Edge{From: "a", To: "b"})
	_ = g.AddEdge(Edge{From: "b", To: "c"})
	_ = g.AddEdge(Edge{From: "c", To: "b"})

	_, err := g.TopoSort()
	if !errors.Is(err, ErrGraphHasCycle) {
		t.Fatalf("TopoSort() = %v, want ErrGraphHasCycle", err)
	}
	if got := err.Error(); got != "graph contains a cycle: b -> c -> b" {
		t.Errorf("error = %q", got)
	}
}

func TestValidateAcyclic(t *testing.T) {
	g := New()
	_ = g.AddNode(Node{ID: "a"})
	_ = g.AddNode(Node{ID: "b"})
	_ = g.AddEdge(Edge{From: "a", To: "b"})

	if err := g.Validate(); err != nil {
		t.Errorf("Validate() = %v, want nil", err)
	}
}

func TestAssignLayersLongestPath(t *testing.T) {
	g := New()
	for _, id := range []string{"gemrc", "sys", "gem", "checkpoint"} {
		_ = g.AddNode(Node{ID: id})
	}
	_ = g.AddEdge(Edge{From: "sys", To: "gem"})
	_ = g.AddEdge(Edge{From: "gemrc", To: "gem"})
	_ = g.AddEdge(Edge{From: "gem", To: "checkpoint"})
	_ = g.AddEdge(Edge{From: "gemrc", To: "checkpoint"})

	g.AssignLayers()

	want := map[string]int{"gemrc": 0, "sys": 0, "gem": 1, "checkpoint": 2}
	for id, row := range want {
		n, _ := g.Node(id)
		if n.Row != row {
			t.Errorf("%s row = %d, want %d", id, n.Row, row)
		}
	}
	if got := g.MaxRow(); got != 2 {
		t.Errorf("MaxRow() = %d, want 2", got)
	}
}
