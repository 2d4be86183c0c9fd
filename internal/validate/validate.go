// Package validate implements the Graph Validator (C6): the five ordered
// checks of spec.md §4.6, run once before every execution against a live
// livegraph.Graph built by the registry.
package validate

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/vk/nodeflow/internal/errs"
	"github.com/vk/nodeflow/internal/livegraph"
	"github.com/vk/nodeflow/internal/port"
	"github.com/vk/nodeflow/internal/scheduler"
	"github.com/vk/nodeflow/internal/value"
)

// Graph runs the five checks in order, collecting every reason found within
// a check before advancing to the next one, and returns the aggregate as a
// single *errs.ValidationError. A nil return means the graph is fit to run.
func Graph(g *livegraph.Graph) error {
	slog.Debug("Validating graph.", "node_count", len(g.Nodes))
	var reasons []string

	reasons = append(reasons, structural(g)...)
	if len(reasons) > 0 {
		return fail(reasons)
	}

	reasons = append(reasons, edgeWellFormed(g)...)
	if len(reasons) > 0 {
		return fail(reasons)
	}

	reasons = append(reasons, inlineDefaultTypes(g)...)
	reasons = append(reasons, requiredInputs(g)...)
	if len(reasons) > 0 {
		return fail(reasons)
	}

	if order, err := scheduler.TopoOrder(g); err != nil {
		stuck := scheduler.Unordered(g, order)
		reasons = append(reasons, fmt.Sprintf("cycle detected among nodes: %s", strings.Join(stuck, ", ")))
	}

	if len(reasons) > 0 {
		return fail(reasons)
	}
	slog.Debug("Graph validation passed.")
	return nil
}

func fail(reasons []string) error {
	slog.Debug("Graph validation failed.", "reason_count", len(reasons))
	return &errs.ValidationError{Reasons: reasons}
}

// structural checks 1: per node, that its declared input ports are
// uniquely named and its output ports are uniquely named. Duplicate node
// ids are rejected earlier, by registry.Build, as a ValidationError:
// livegraph.Graph keys nodes by id, so a duplicate can't survive to be
// inspected here the way a duplicate port name can.
func structural(g *livegraph.Graph) []string {
	var reasons []string
	for _, id := range g.SortedIDs() {
		n := g.Nodes[id].Node
		if !port.UniqueNames(n.InputPorts()) {
			reasons = append(reasons, fmt.Sprintf("node %q declares duplicate input port names", id))
		}
		if !port.UniqueNames(n.OutputPorts()) {
			reasons = append(reasons, fmt.Sprintf("node %q declares duplicate output port names", id))
		}
	}
	return reasons
}

// edgeWellFormed checks 2: every edge endpoint exists, points at a port
// declared in the right direction, the types match, and no input receives
// more than one edge.
func edgeWellFormed(g *livegraph.Graph) []string {
	var reasons []string
	seenInput := make(map[string]bool)

	for _, e := range g.Edges {
		fromNode, ok := g.Nodes[e.FromNode]
		if !ok {
			reasons = append(reasons, fmt.Sprintf("edge references unknown source node %q", e.FromNode))
			continue
		}
		toNode, ok := g.Nodes[e.ToNode]
		if !ok {
			reasons = append(reasons, fmt.Sprintf("edge references unknown target node %q", e.ToNode))
			continue
		}

		fromPort, ok := port.Find(fromNode.Node.OutputPorts(), e.FromPort)
		if !ok {
			reasons = append(reasons, fmt.Sprintf("edge source %q.%q is not a declared output port", e.FromNode, e.FromPort))
			continue
		}
		toPort, ok := port.Find(toNode.Node.InputPorts(), e.ToPort)
		if !ok {
			reasons = append(reasons, fmt.Sprintf("edge target %q.%q is not a declared input port", e.ToNode, e.ToPort))
			continue
		}

		if !fromPort.DataType.Equal(toPort.DataType) {
			reasons = append(reasons, fmt.Sprintf(
				"edge %s.%s -> %s.%s: type mismatch (%s vs %s)",
				e.FromNode, e.FromPort, e.ToNode, e.ToPort, fromPort.DataType, toPort.DataType))
		}

		key := e.ToNode + "." + e.ToPort
		if seenInput[key] {
			reasons = append(reasons, fmt.Sprintf("input %q receives more than one edge", key))
		}
		seenInput[key] = true
	}
	return reasons
}

// inlineDefaultTypes checks 3: every inline default's parsed Value must
// satisfy the declared type of the input port it targets. graphdef/registry
// already reject unparseable literals as DefinitionErrors at load time, so
// this only needs to re-check the value/type pairing that survived load.
func inlineDefaultTypes(g *livegraph.Graph) []string {
	var reasons []string
	for _, id := range g.SortedIDs() {
		gn := g.Nodes[id]
		for _, p := range gn.Node.InputPorts() {
			v, ok := gn.InlineDefaults[p.Name]
			if !ok {
				continue
			}
			if !value.Satisfies(v, p.DataType) {
				reasons = append(reasons, fmt.Sprintf("node %q port %q: inline default does not satisfy declared type %s", id, p.Name, p.DataType))
			}
		}
	}
	return reasons
}

// requiredInputs checks 4: every required input port has either an
// incoming edge or an inline default.
func requiredInputs(g *livegraph.Graph) []string {
	var reasons []string
	for _, id := range g.SortedIDs() {
		gn := g.Nodes[id]
		for _, p := range gn.Node.InputPorts() {
			if !p.Required {
				continue
			}
			if _, hasEdge := gn.InEdges[p.Name]; hasEdge {
				continue
			}
			if _, hasDefault := gn.InlineDefaults[p.Name]; hasDefault {
				continue
			}
			reasons = append(reasons, fmt.Sprintf("node %q: required input port %q has no edge and no inline default", id, p.Name))
		}
	}
	return reasons
}

