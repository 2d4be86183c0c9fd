// Package textutil provides small Simple nodes over string values:
// Uppercase and Constant. They exist to give the engine's contract a
// concrete, testable Simple node beyond the core packages' own fixtures,
// grounded on the teacher's print module's Input/handler-function idiom.
package textutil

import (
	"context"
	"strings"

	"github.com/vk/nodeflow/internal/node"
	"github.com/vk/nodeflow/internal/port"
	"github.com/vk/nodeflow/internal/registry"
	"github.com/vk/nodeflow/internal/value"
)

// Module registers this package's node types.
type Module struct{}

func (Module) Register(r *registry.Registry) {
	r.RegisterNodeType(&registry.Registration{
		TypeID:      "textutil.uppercase",
		DisplayName: "Uppercase",
		Category:    "Text",
		Description: "Upper-cases a string input.",
		Factory:     newUppercase,
	})
	r.RegisterNodeType(&registry.Registration{
		TypeID:      "textutil.constant",
		DisplayName: "Constant String",
		Category:    "Text",
		Description: "Emits its inline value unchanged; useful as a graph literal source.",
		Factory:     newConstant,
	})
}

type uppercaseNode struct {
	node.BaseNode
}

func newUppercase(id, name string) node.Node {
	return &uppercaseNode{BaseNode: node.BaseNode{NodeID: id, NodeName: name}}
}

func (n *uppercaseNode) InputPorts() []port.Port {
	return []port.Port{port.New("in", value.String()).WithRequired(true)}
}

func (n *uppercaseNode) OutputPorts() []port.Port {
	return []port.Port{port.New("out", value.String())}
}

func (n *uppercaseNode) Execute(ctx context.Context, inputs node.PortValues) (node.PortValues, error) {
	s, _ := inputs["in"].AsString()
	return node.PortValues{"out": value.NewString(strings.ToUpper(s))}, nil
}

type constantNode struct {
	node.BaseNode
}

func newConstant(id, name string) node.Node {
	return &constantNode{BaseNode: node.BaseNode{NodeID: id, NodeName: name}}
}

func (n *constantNode) InputPorts() []port.Port {
	return []port.Port{port.New("value", value.String())}
}

func (n *constantNode) OutputPorts() []port.Port {
	return []port.Port{port.New("out", value.String())}
}

func (n *constantNode) Execute(ctx context.Context, inputs node.PortValues) (node.PortValues, error) {
	v, ok := inputs["value"]
	if !ok {
		v = value.NewString("")
	}
	return node.PortValues{"out": v}, nil
}
