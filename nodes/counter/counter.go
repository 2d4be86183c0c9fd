// Package counter provides Counter, an EventProducer that ticks an
// increasing integer from 1 to a configured limit and then ends its loop
// (returns nil, nil from OnUpdate), exercising the scheduler's normal
// producer-lifecycle exit path.
package counter

import (
	"context"
	"fmt"

	"github.com/vk/nodeflow/internal/node"
	"github.com/vk/nodeflow/internal/port"
	"github.com/vk/nodeflow/internal/registry"
	"github.com/vk/nodeflow/internal/value"
)

type Module struct{}

func (Module) Register(r *registry.Registry) {
	r.RegisterNodeType(&registry.Registration{
		TypeID:      "counter.count",
		DisplayName: "Counter",
		Category:    "Sources",
		Description: "Emits 1..limit on its \"value\" output, one tick at a time.",
		Factory:     newCounter,
	})
}

type counterNode struct {
	node.BaseNode

	limit   int64
	current int64
}

func newCounter(id, name string) node.Node {
	return &counterNode{BaseNode: node.BaseNode{NodeID: id, NodeName: name}}
}

func (n *counterNode) Kind() node.Kind { return node.EventProducer }

func (n *counterNode) InputPorts() []port.Port {
	return []port.Port{port.New("limit", value.Integer()).WithRequired(true)}
}

func (n *counterNode) OutputPorts() []port.Port {
	return []port.Port{port.New("value", value.Integer())}
}

func (n *counterNode) Execute(ctx context.Context, inputs node.PortValues) (node.PortValues, error) {
	return nil, fmt.Errorf("counter.count is an EventProducer; the engine must never call Execute on it")
}

func (n *counterNode) OnStart(ctx context.Context, inputs node.PortValues) error {
	limit, ok := inputs["limit"].AsInteger()
	if !ok || limit < 0 {
		return fmt.Errorf("counter.count: %q input must be a non-negative integer", "limit")
	}
	n.limit = limit
	n.current = 0
	return nil
}

func (n *counterNode) OnUpdate(ctx context.Context) (node.PortValues, error) {
	if n.current >= n.limit {
		return nil, nil
	}
	n.current++
	return node.PortValues{"value": value.NewInteger(n.current)}, nil
}

func (n *counterNode) OnCleanup(ctx context.Context) error {
	return nil
}
