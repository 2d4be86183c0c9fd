package pool

import (
	"github.com/vk/nodeflow/internal/errs"
	"github.com/vk/nodeflow/internal/livegraph"
	"github.com/vk/nodeflow/internal/node"
)

// CollectInputs implements spec.md §4.8's input-collection step for the
// node identified by id: for each declared input port, prefer the value at
// its incoming edge's source, fall back to the inline default, and
// otherwise leave the port absent. It then runs the node's default input
// validator, returning a RuntimeError on a required-input-missing or
// type-mismatch failure.
func CollectInputs(g *livegraph.Graph, p *Pool, id string) (node.PortValues, error) {
	gn := g.Nodes[id]
	inputs := make(node.PortValues)

	for _, port := range gn.Node.InputPorts() {
		if edge, hasEdge := gn.InEdges[port.Name]; hasEdge {
			if v, ok := p.Get(edge.FromNode, edge.FromPort); ok {
				inputs[port.Name] = v
				continue
			}
		}
		if v, ok := gn.InlineDefaults[port.Name]; ok {
			inputs[port.Name] = v
		}
	}

	if err := node.DefaultValidateInputs(gn.Node, inputs); err != nil {
		return nil, &errs.RuntimeError{NodeID: id, Reason: err}
	}
	return inputs, nil
}
