// Package graphdef implements the persisted graph file format (C4): the
// JSON schema of spec.md §6, decode/encode, and edge resolution (explicit
// edge list, or legacy auto-binding when the edge list is empty).
package graphdef

import (
	"encoding/json"
	"fmt"

	"github.com/vk/nodeflow/internal/value"
)

// Document is the top-level shape of a graph file: required "nodes" and
// "edges" keys.
type Document struct {
	Nodes []NodeDef `json:"nodes"`
	Edges []EdgeDef `json:"edges"`
}

// Position is an optional editor layout hint, load-ignored by the core.
type Position struct {
	X float64 `json:"x" mapstructure:"x"`
	Y float64 `json:"y" mapstructure:"y"`
}

// Size is an optional editor layout hint, load-ignored by the core. A JSON
// null and an absent key both decode to a nil *Size.
type Size struct {
	Width  float64 `json:"width" mapstructure:"width"`
	Height float64 `json:"height" mapstructure:"height"`
}

// NodeDef is one persisted node: identity, registry key, port shape, and
// any inline defaults for its input ports.
type NodeDef struct {
	ID             string             `json:"id"`
	Name           string             `json:"name"`
	Description    string             `json:"description,omitempty"`
	NodeType       string             `json:"node_type"`
	InputPorts     []PortDef          `json:"input_ports"`
	OutputPorts    []PortDef          `json:"output_ports"`
	Position       *Position          `json:"position,omitempty"`
	Size           *Size              `json:"size,omitempty"`
	InlineValues   map[string]json.RawMessage `json:"inline_values,omitempty"`
	// HasError is a run-only artefact never trusted on load and always
	// stripped before re-serialisation (spec.md §6, §8 property 5).
	HasError bool `json:"has_error,omitempty"`
}

// UnmarshalJSON decodes a NodeDef, routing the loosely-shaped position/size
// hint objects through mapstructure (see DecodeHint) instead of a second
// bespoke struct tag set, so the editor can add hint fields later without
// a codec change here.
func (n *NodeDef) UnmarshalJSON(raw []byte) error {
	type alias NodeDef
	var shadow struct {
		alias
		Position map[string]any `json:"position,omitempty"`
		Size     map[string]any `json:"size,omitempty"`
	}
	if err := json.Unmarshal(raw, &shadow); err != nil {
		return err
	}
	*n = NodeDef(shadow.alias)

	if shadow.Position != nil {
		var pos Position
		if err := DecodeHint(shadow.Position, &pos); err != nil {
			return fmt.Errorf("node %q: invalid position hint: %w", shadow.alias.ID, err)
		}
		n.Position = &pos
	}
	if shadow.Size != nil {
		var sz Size
		if err := DecodeHint(shadow.Size, &sz); err != nil {
			return fmt.Errorf("node %q: invalid size hint: %w", shadow.alias.ID, err)
		}
		n.Size = &sz
	}
	return nil
}

// PortDef is the persisted shape of a Port.
type PortDef struct {
	Name        string          `json:"name"`
	DataType    DataTypeLiteral `json:"data_type"`
	Description string          `json:"description,omitempty"`
	Required    bool            `json:"required"`
}

// EdgeDef is a persisted directed connection between two node ports.
type EdgeDef struct {
	FromNodeID string `json:"from_node_id"`
	FromPort   string `json:"from_port"`
	ToNodeID   string `json:"to_node_id"`
	ToPort     string `json:"to_port"`
}

// DataTypeLiteral wraps value.DeclaredType with the JSON codec spec.md §6
// mandates: a bare string for primitive/opaque kinds, {"List": ...} for
// lists, {"Custom": "..."} for custom tags.
type DataTypeLiteral struct {
	value.DeclaredType
}

var literalNames = map[value.Kind]string{
	value.KindString:        "String",
	value.KindInteger:       "Integer",
	value.KindFloat:         "Float",
	value.KindBoolean:       "Boolean",
	value.KindJSON:          "Json",
	value.KindBinary:        "Binary",
	value.KindMessageList:   "MessageList",
	value.KindMessageEvent:  "MessageEvent",
	value.KindFunctionTools: "FunctionTools",
	value.KindBotAdapterRef: "BotAdapterRef",
	value.KindRedisRef:      "RedisRef",
	value.KindMySQLRef:      "MySqlRef",
}

var namesToKind = func() map[string]value.Kind {
	m := make(map[string]value.Kind, len(literalNames))
	for k, v := range literalNames {
		m[v] = k
	}
	return m
}()

func (d DataTypeLiteral) MarshalJSON() ([]byte, error) {
	switch d.Kind {
	case value.KindList:
		if d.Elem == nil {
			return nil, fmt.Errorf("List data type literal missing element type")
		}
		return json.Marshal(struct {
			List DataTypeLiteral `json:"List"`
		}{List: DataTypeLiteral{*d.Elem}})
	case value.KindCustom:
		return json.Marshal(struct {
			Custom string `json:"Custom"`
		}{Custom: d.Name})
	default:
		name, ok := literalNames[d.Kind]
		if !ok {
			return nil, fmt.Errorf("data type %s has no JSON literal form", d.Kind)
		}
		return json.Marshal(name)
	}
}

func (d *DataTypeLiteral) UnmarshalJSON(raw []byte) error {
	var asString string
	if err := json.Unmarshal(raw, &asString); err == nil {
		kind, ok := namesToKind[asString]
		if !ok {
			return fmt.Errorf("unknown data type literal %q", asString)
		}
		d.DeclaredType = value.DeclaredType{Kind: kind}
		return nil
	}

	var asObject struct {
		List   *DataTypeLiteral `json:"List"`
		Custom *string          `json:"Custom"`
	}
	if err := json.Unmarshal(raw, &asObject); err != nil {
		return fmt.Errorf("data type literal is neither a string nor a List/Custom object: %w", err)
	}
	switch {
	case asObject.List != nil:
		d.DeclaredType = value.List(asObject.List.DeclaredType)
	case asObject.Custom != nil:
		d.DeclaredType = value.Custom(*asObject.Custom)
	default:
		return fmt.Errorf("data type literal object must set List or Custom")
	}
	return nil
}
