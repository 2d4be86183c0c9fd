package registry

import (
	"fmt"

	"github.com/vk/nodeflow/internal/errs"
	"github.com/vk/nodeflow/internal/graphdef"
	"github.com/vk/nodeflow/internal/livegraph"
	"github.com/vk/nodeflow/internal/port"
	"github.com/vk/nodeflow/internal/value"
)

// Build turns a decoded graph Document plus its resolved edges into a live
// Graph: every NodeDef is instantiated through its registered Factory,
// inline defaults are parsed against the input port's declared type, and
// the resolved edges are wired in. An unknown node_type, an inline value
// for an undeclared port, a bad literal, or an edge naming an unknown node
// is a DefinitionError; a repeated node id is a ValidationError. Either
// aborts before any node method runs.
//
// Build does not check the rest of graph-level well-formedness (edge port
// names and directions, edge types, cycles, missing required inputs) —
// that is the validator's job (C6) and runs against the returned Graph
// afterward.
func Build(doc *graphdef.Document, edges []graphdef.EdgeDef, reg *Registry) (*livegraph.Graph, error) {
	g := livegraph.New()

	for _, def := range doc.Nodes {
		if _, exists := g.Nodes[def.ID]; exists {
			return nil, &errs.ValidationError{Reasons: []string{
				fmt.Sprintf("duplicate node id %q", def.ID),
			}}
		}

		nodeReg, ok := reg.Lookup(def.NodeType)
		if !ok {
			return nil, &errs.DefinitionError{
				NodeID: def.ID,
				Reason: fmt.Errorf("unknown node_type %q", def.NodeType),
			}
		}

		n := nodeReg.Factory(def.ID, def.Name)
		gn := g.AddNode(def.ID, n)

		inputs := n.InputPorts()
		for portName, raw := range def.InlineValues {
			p, found := port.Find(inputs, portName)
			if !found {
				return nil, &errs.DefinitionError{
					NodeID: def.ID,
					Port:   portName,
					Reason: fmt.Errorf("inline value given for unknown input port"),
				}
			}
			v, err := value.ParseLiteral(raw, p.DataType)
			if err != nil {
				return nil, &errs.DefinitionError{NodeID: def.ID, Port: portName, Reason: err}
			}
			gn.InlineDefaults[portName] = v
		}

		// A manifest-level default (LoadManifests) fills in a port the
		// graph document itself left unset, never overriding one the
		// document did set.
		for portName, raw := range nodeReg.ManifestDefaults {
			if _, alreadySet := gn.InlineDefaults[portName]; alreadySet {
				continue
			}
			p, found := port.Find(inputs, portName)
			if !found {
				continue
			}
			v, err := value.ParseLiteral(raw, p.DataType)
			if err != nil {
				return nil, &errs.DefinitionError{NodeID: def.ID, Port: portName, Reason: fmt.Errorf("manifest default: %w", err)}
			}
			gn.InlineDefaults[portName] = v
		}
	}

	for _, e := range edges {
		if _, ok := g.Nodes[e.FromNodeID]; !ok {
			return nil, &errs.DefinitionError{NodeID: e.FromNodeID, Reason: fmt.Errorf("edge references unknown node")}
		}
		if _, ok := g.Nodes[e.ToNodeID]; !ok {
			return nil, &errs.DefinitionError{NodeID: e.ToNodeID, Reason: fmt.Errorf("edge references unknown node")}
		}
		g.AddEdge(livegraph.Edge{
			FromNode: e.FromNodeID,
			FromPort: e.FromPort,
			ToNode:   e.ToNodeID,
			ToPort:   e.ToPort,
		})
	}

	return g, nil
}
