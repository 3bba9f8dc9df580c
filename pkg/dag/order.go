package dag

import "fmt"

// TopoSort returns node IDs in an order consistent with every edge.
//
// TopoSort uses Kahn's algorithm. Ties are broken by insertion order, so the
// same sequence of declarations always yields the same apply order. If the
// graph contains a cycle the error wraps ErrGraphHasCycle.
func (d *DAG) TopoSort() ([]string, error) {
	inDegree := make(map[string]int, len(d.nodes))
	for _, id := range d.order {
		inDegree[id] = len(d.incoming[id])
	}

	ready := make([]string, 0, len(d.order))
	for _, id := range d.order {
		if inDegree[id] == 0 {
			ready = append(ready, id)
		}
	}

	sorted := make([]string, 0, len(d.order))
	for len(ready) > 0 {
		curr := ready[0]
		ready = ready[1:]
		sorted = append(sorted, curr)

		for _, child := range d.outgoing[curr] {
			inDegree[child]--
			if inDegree[child] == 0 {
				ready = append(ready, child)
			}
		}
	}

	if len(sorted) != len(d.order) {
		if err := d.Validate(); err != nil {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %d nodes unreachable", ErrGraphHasCycle, len(d.order)-len(sorted))
	}
	return sorted, nil
}

// AssignLayers sets each node's Row to its tier in the ordering graph.
//
// AssignLayers uses a longest-path assignment over a topological traversal:
// sources are at row 0 and each node is placed one row below its deepest
// predecessor. For a resolved gem this yields the system package tier, the
// gem tier and the checkpoint tier. Nodes on a cycle keep row 0; call
// [DAG.Validate] first.
func (d *DAG) AssignLayers() {
	inDegree := make(map[string]int, len(d.nodes))
	rows := make(map[string]int, len(d.nodes))
	queue := make([]string, 0, len(d.nodes))

	for _, id := range d.order {
		degree := len(d.incoming[id])
		inDegree[id] = degree
		if degree == 0 {
			queue = append(queue, id)
		}
	}

	for len(queue) > 0 {
		curr := queue[0]
		queue = queue[1:]

		for _, child := range d.outgoing[curr] {
			if row := rows[curr] + 1; row > rows[child] {
				rows[child] = row
			}
			inDegree[child]--
			if inDegree[child] == 0 {
				queue = append(queue, child)
			}
		}
	}

	for id, n := range d.nodes {
		n.Row = rows[id]
	}
}

// MaxRow returns the highest row index, or 0 if the graph is empty.
func (d *DAG) MaxRow() int {
	maxRow := 0
	for _, n := range d.nodes {
		maxRow = max(maxRow, n.Row)
	}
	return maxRow
}

// NodesInRow returns the nodes assigned to row in insertion order.
func (d *DAG) NodesInRow(row int) []*Node {
	var nodes []*Node
	for _, n := range d.Nodes() {
		if n.Row == row {
			nodes = append(nodes, n)
		}
	}
	return nodes
}
