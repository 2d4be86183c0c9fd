// Package livegraph holds the live, in-memory Graph (§3 "Graph (live)"):
// instantiated node contracts, the resolved edge set, inline defaults, and
// the per-node bookkeeping the scheduler needs (indegree, dependents).
// Building one is the Node Registry's job (C5, internal/registry); running
// one is the Scheduler's (C7, internal/scheduler).
package livegraph

import (
	"sort"

	"github.com/vk/nodeflow/internal/node"
	"github.com/vk/nodeflow/internal/value"
)

// Edge is a resolved, live connection between two node ports.
type Edge struct {
	FromNode string
	FromPort string
	ToNode   string
	ToPort   string
}

// GraphNode wraps a live node.Node instance with the edges and inline
// defaults the scheduler needs to feed it, plus the terminal run state the
// scheduler reads back into RunReport.NodeErrors once a run finishes.
type GraphNode struct {
	Node node.Node

	// InlineDefaults holds literal values for input ports that have no
	// incoming edge, keyed by port name.
	InlineDefaults map[string]value.Value

	// InEdges indexes incoming edges by the local input port name (at
	// most one per spec.md's single-consumer invariant).
	InEdges map[string]Edge
	// OutEdges lists every edge whose FromNode is this node.
	OutEdges []Edge

	// State and Err record this node's last execution outcome. Written
	// from the executing goroutine at every transition; read back by
	// Scheduler.Run after the graph has finished running, never
	// concurrently with a write.
	State node.AtomicRunState
	Err   error
}

// Graph is the complete live wiring: every node keyed by id, plus the full
// resolved edge list (also indexed on each GraphNode for convenience).
type Graph struct {
	Nodes map[string]*GraphNode
	Edges []Edge
}

// New returns an empty Graph ready for AddNode/AddEdge calls.
func New() *Graph {
	return &Graph{Nodes: make(map[string]*GraphNode)}
}

// AddNode registers a live node under its id. Panics if the id is already
// present — registry.Build checks every persisted node id against the graph
// built so far and returns a *errs.ValidationError before ever calling
// AddNode with a duplicate, so a collision reaching here is a caller bug,
// never untrusted graph-file input.
func (g *Graph) AddNode(id string, n node.Node) *GraphNode {
	if _, exists := g.Nodes[id]; exists {
		panic("livegraph: duplicate node id " + id)
	}
	gn := &GraphNode{
		Node:           n,
		InlineDefaults: make(map[string]value.Value),
		InEdges:        make(map[string]Edge),
	}
	g.Nodes[id] = gn
	return gn
}

// AddEdge wires a resolved edge into the graph's indexes. Callers are
// expected to have already validated well-formedness (C6); AddEdge simply
// records it.
func (g *Graph) AddEdge(e Edge) {
	g.Edges = append(g.Edges, e)
	g.Nodes[e.FromNode].OutEdges = append(g.Nodes[e.FromNode].OutEdges, e)
	g.Nodes[e.ToNode].InEdges[e.ToPort] = e
}

// SortedIDs returns every node id in the graph, lexicographically sorted —
// used as the deterministic tie-break the scheduler's topological pass
// requires (spec.md §4.7).
func (g *Graph) SortedIDs() []string {
	ids := make([]string, 0, len(g.Nodes))
	for id := range g.Nodes {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Producers returns the ids of every EventProducer node in the graph, in
// lexicographic id order (it walks SortedIDs).
func (g *Graph) Producers() []string {
	var out []string
	for _, id := range g.SortedIDs() {
		if g.Nodes[id].Node.Kind() == node.EventProducer {
			out = append(out, id)
		}
	}
	return out
}
