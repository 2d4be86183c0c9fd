package livegraph

import "github.com/vk/nodeflow/internal/node"

// Downstream returns the forward-edge closure from id, excluding id
// itself, per spec.md §4.7's reachability analysis.
func (g *Graph) Downstream(id string) map[string]struct{} {
	visited := make(map[string]struct{})
	var visit func(cur string)
	visit = func(cur string) {
		for _, e := range g.Nodes[cur].OutEdges {
			if _, ok := visited[e.ToNode]; ok {
				continue
			}
			visited[e.ToNode] = struct{}{}
			visit(e.ToNode)
		}
	}
	visit(id)
	return visited
}

// Reachable returns the union of Downstream(p) for every EventProducer p.
func (g *Graph) Reachable() map[string]struct{} {
	reachable := make(map[string]struct{})
	for _, p := range g.Producers() {
		for id := range g.Downstream(p) {
			reachable[id] = struct{}{}
		}
	}
	return reachable
}

// BaseLayer returns the ids of every node not reachable from any
// EventProducer, in lexicographic order.
func (g *Graph) BaseLayer() []string {
	reachable := g.Reachable()
	var base []string
	for _, id := range g.SortedIDs() {
		if _, ok := reachable[id]; !ok {
			base = append(base, id)
		}
	}
	return base
}

// Roots returns the EventProducers that have no other EventProducer
// upstream of them, in topological order relative to each other.
func (g *Graph) Roots(topoOrder []string) []string {
	producers := make(map[string]struct{})
	for _, p := range g.Producers() {
		producers[p] = struct{}{}
	}

	hasProducerUpstream := make(map[string]bool)
	// Walk topo order forward: a node's upstream status is known once all
	// its ancestors (which precede it topologically) have been visited.
	for _, id := range topoOrder {
		gn := g.Nodes[id]
		for _, e := range gn.InEdges {
			from := e.FromNode
			if _, isProducer := producers[from]; isProducer || hasProducerUpstream[from] {
				hasProducerUpstream[id] = true
			}
		}
	}

	var roots []string
	for _, id := range topoOrder {
		if _, isProducer := producers[id]; !isProducer {
			continue
		}
		if !hasProducerUpstream[id] {
			roots = append(roots, id)
		}
	}
	return roots
}

// ImmediateRoots returns the EventProducers within nodeSet that have no
// EventProducer ancestor other than excludeAncestor within nodeSet — used
// by the hybrid scheduler to find the producers to recurse into from
// within a single producer's downstream(p) subtree (spec.md §4.7 step 2b).
func ImmediateRoots(g *Graph, nodeSet map[string]struct{}, excludeAncestor string, topoOrder []string) []string {
	producers := make(map[string]struct{})
	for _, p := range g.Producers() {
		if _, ok := nodeSet[p]; ok {
			producers[p] = struct{}{}
		}
	}

	hasOtherProducerUpstream := make(map[string]bool)
	for _, id := range topoOrder {
		if _, ok := nodeSet[id]; !ok {
			continue
		}
		gn := g.Nodes[id]
		for _, e := range gn.InEdges {
			from := e.FromNode
			if _, ok := nodeSet[from]; !ok {
				continue
			}
			if from == excludeAncestor {
				continue
			}
			if _, isProducer := producers[from]; isProducer || hasOtherProducerUpstream[from] {
				hasOtherProducerUpstream[id] = true
			}
		}
	}

	var roots []string
	for _, id := range topoOrder {
		if _, ok := nodeSet[id]; !ok {
			continue
		}
		if _, isProducer := producers[id]; !isProducer {
			continue
		}
		if !hasOtherProducerUpstream[id] {
			roots = append(roots, id)
		}
	}
	return roots
}

// Kind is re-exported for callers that only import livegraph.
type Kind = node.Kind
