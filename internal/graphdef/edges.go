package graphdef

import "fmt"

// ResolveEdges implements spec.md §4.4: if doc.Edges is non-empty it is the
// connection graph verbatim; otherwise the engine applies legacy
// auto-binding, wiring every output port X on node A to every
// differently-named-node input port X of the same declared type. If
// auto-binding would give a single input more than one incoming edge, the
// graph is invalid.
func ResolveEdges(doc *Document) ([]EdgeDef, error) {
	if len(doc.Edges) > 0 {
		return doc.Edges, nil
	}

	var resolved []EdgeDef
	// incoming tracks, per (nodeID, inputPort), how many candidate edges
	// auto-binding produced, to catch the "more than one" case.
	incoming := make(map[string][]EdgeDef)

	for _, a := range doc.Nodes {
		for _, out := range a.OutputPorts {
			for _, b := range doc.Nodes {
				if a.ID == b.ID {
					continue
				}
				for _, in := range b.InputPorts {
					if in.Name != out.Name {
						continue
					}
					if !in.DataType.Equal(out.DataType.DeclaredType) {
						continue
					}
					edge := EdgeDef{
						FromNodeID: a.ID,
						FromPort:   out.Name,
						ToNodeID:   b.ID,
						ToPort:     in.Name,
					}
					key := b.ID + "." + in.Name
					incoming[key] = append(incoming[key], edge)
					resolved = append(resolved, edge)
				}
			}
		}
	}

	for key, edges := range incoming {
		if len(edges) > 1 {
			return nil, fmt.Errorf("auto-binding produced %d incoming edges for input %q; graph is invalid", len(edges), key)
		}
	}

	return resolved, nil
}
