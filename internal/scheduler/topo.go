package scheduler

import (
	"fmt"
	"sort"

	"github.com/vk/nodeflow/internal/livegraph"
)

// TopoOrder implements spec.md §4.7's topological sort: indegree per node
// counts only input ports with an incoming edge, the ready queue is seeded
// with indegree-zero nodes, and ties are broken lexicographically by node
// id at every step (not just at seeding), giving a fully deterministic
// order.
func TopoOrder(g *livegraph.Graph) ([]string, error) {
	indegree := make(map[string]int, len(g.Nodes))
	for id, gn := range g.Nodes {
		indegree[id] = len(gn.InEdges)
	}

	ready := make(map[string]struct{})
	for id, d := range indegree {
		if d == 0 {
			ready[id] = struct{}{}
		}
	}

	var order []string
	for len(ready) > 0 {
		id := popLexMin(ready)
		order = append(order, id)

		for _, e := range g.Nodes[id].OutEdges {
			indegree[e.ToNode]--
			if indegree[e.ToNode] == 0 {
				ready[e.ToNode] = struct{}{}
			}
		}
	}

	if len(order) < len(g.Nodes) {
		return order, fmt.Errorf("scheduler: cycle detected; %d of %d nodes ordered", len(order), len(g.Nodes))
	}
	return order, nil
}

// Unordered returns the ids left out of a partial order returned by
// TopoOrder alongside a cycle error: exactly the nodes indegree-elimination
// could never reach zero-indegree for, i.e. the ones cycle detection
// implicates, sorted for a deterministic report.
func Unordered(g *livegraph.Graph, order []string) []string {
	seen := make(map[string]struct{}, len(order))
	for _, id := range order {
		seen[id] = struct{}{}
	}
	var rest []string
	for _, id := range g.SortedIDs() {
		if _, ok := seen[id]; !ok {
			rest = append(rest, id)
		}
	}
	return rest
}

func popLexMin(ready map[string]struct{}) string {
	ids := make([]string, 0, len(ready))
	for id := range ready {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	min := ids[0]
	delete(ready, min)
	return min
}
