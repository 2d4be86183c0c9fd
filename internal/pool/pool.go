// Package pool implements the Data Pool (C8): values keyed by
// (producing_node_id, output_port_name), plus the input-collection
// procedure of spec.md §4.8.
package pool

import (
	"github.com/vk/nodeflow/internal/value"
)

type key struct {
	nodeID string
	port   string
}

// Pool stores every published output value, keyed by the node and port
// that produced it. A Pool may chain to a parent: a lookup that misses
// locally falls through to the parent, and a Child call returns a fresh
// Pool that shadows it — matching the "tick_pool = parent pool ∪ {...},
// later writes shadow earlier" construction the hybrid scheduler needs
// per spec.md §4.7 step 2b.
type Pool struct {
	parent *Pool
	values map[key]value.Value
}

// New returns an empty root Pool with no parent.
func New() *Pool {
	return &Pool{values: make(map[key]value.Value)}
}

// Child returns a new Pool that falls through to p for any key it doesn't
// have itself.
func (p *Pool) Child() *Pool {
	return &Pool{parent: p, values: make(map[key]value.Value)}
}

// Publish records the value a node produced on one of its output ports.
func (p *Pool) Publish(nodeID, portName string, v value.Value) {
	p.values[key{nodeID, portName}] = v
}

// Get looks up the value produced at (nodeID, portName), checking this
// Pool then walking up through its ancestors.
func (p *Pool) Get(nodeID, portName string) (value.Value, bool) {
	for cur := p; cur != nil; cur = cur.parent {
		if v, ok := cur.values[key{nodeID, portName}]; ok {
			return v, true
		}
	}
	return value.Value{}, false
}
