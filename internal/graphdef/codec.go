package graphdef

import (
	"encoding/json"
	"fmt"

	"github.com/mitchellh/mapstructure"
	"github.com/vk/nodeflow/internal/port"
)

// Decode parses a graph file's raw bytes into a Document. It only checks
// JSON well-formedness, the DataTypeLiteral codec and the position/size
// hints; unknown node types are rejected later by registry.Build, and
// graph-level semantics (type-mismatched edges, cycles, ...) are the
// validator's job (C6).
func Decode(raw []byte) (*Document, error) {
	var doc Document
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("malformed graph document: %w", err)
	}
	return &doc, nil
}

// Encode re-serialises a Document, always stripping the run-only
// HasError artefact per spec.md §6's "load-ignored; run-only artefact, not
// persisted" note and the round-trip invariant in §8 property 5.
func Encode(doc *Document) ([]byte, error) {
	clean := *doc
	clean.Nodes = make([]NodeDef, len(doc.Nodes))
	for i, n := range doc.Nodes {
		n.HasError = false
		clean.Nodes[i] = n
	}
	return json.MarshalIndent(&clean, "", "  ")
}

// ToPort converts a persisted PortDef into a live port.Port.
func (p PortDef) ToPort() port.Port {
	return port.Port{
		Name:        p.Name,
		DataType:    p.DataType.DeclaredType,
		Description: p.Description,
		Required:    p.Required,
	}
}

// FromPort converts a live port.Port back into its persisted form.
func FromPort(p port.Port) PortDef {
	return PortDef{
		Name:        p.Name,
		DataType:    DataTypeLiteral{p.DataType},
		Description: p.Description,
		Required:    p.Required,
	}
}

// DecodeHint lenient-decodes an arbitrary JSON object (already unmarshalled
// into a map by encoding/json, e.g. a forward-compatible position/size
// payload) into dst using mapstructure, so new optional fields on Position/
// Size don't require touching this decoder.
func DecodeHint(raw map[string]any, dst any) error {
	return mapstructure.Decode(raw, dst)
}
