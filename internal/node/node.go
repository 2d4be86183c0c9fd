// Package node defines the Node contract (C3): identity, port declarations,
// execution, and the EventProducer lifecycle hooks, plus the default input
// and output validators every node gets for free.
package node

import (
	"context"
	"fmt"

	"github.com/vk/nodeflow/internal/port"
	"github.com/vk/nodeflow/internal/value"
)

// Kind distinguishes the two execution models a Node can implement.
type Kind int

const (
	// Simple nodes execute once per graph run in which they are scheduled.
	Simple Kind = iota
	// EventProducer nodes run a start/update-loop/cleanup lifecycle.
	EventProducer
)

func (k Kind) String() string {
	if k == EventProducer {
		return "EventProducer"
	}
	return "Simple"
}

// PortValues maps a port name to the value observed or produced there.
type PortValues map[string]value.Value

// Node is the contract every node implementation satisfies. Port lists must
// be stable for the lifetime of the instance (the engine reads them once at
// build time and again for reachability analysis). Execute is required for
// Simple nodes; the engine never calls it on an EventProducer. OnStart,
// OnUpdate, and OnCleanup default to no-ops for Simple nodes via BaseNode.
type Node interface {
	ID() string
	Name() string
	Description() string
	Kind() Kind

	InputPorts() []port.Port
	OutputPorts() []port.Port

	// Execute runs a Simple node's single computation pass.
	Execute(ctx context.Context, inputs PortValues) (PortValues, error)

	// OnStart is called once each time the scheduler drives an
	// EventProducer (once per run for a root producer, once per parent tick
	// for a nested one), before its first OnUpdate.
	OnStart(ctx context.Context, inputs PortValues) error
	// OnUpdate is called repeatedly. Returning (nil, nil) ends the loop
	// (falls through to OnCleanup); returning a non-nil map triggers one
	// downstream execution pass, and every declared output port must be
	// present in it (spec.md's stricter reading of the empty-map question).
	OnUpdate(ctx context.Context) (PortValues, error)
	// OnCleanup is called exactly once per successful OnStart, on every
	// exit path of the update loop. It is not called when OnStart fails.
	OnCleanup(ctx context.Context) error
}

// BaseNode gives Simple node implementations no-op EventProducer hooks so
// they only need to implement Execute (and the identity/port methods),
// mirroring the teacher's pattern of small embeddable structs rather than
// requiring every node author to hand-write four lifecycle stubs.
type BaseNode struct {
	NodeID          string
	NodeName        string
	NodeDescription string
}

func (b BaseNode) ID() string          { return b.NodeID }
func (b BaseNode) Name() string        { return b.NodeName }
func (b BaseNode) Description() string { return b.NodeDescription }
func (b BaseNode) Kind() Kind          { return Simple }

func (b BaseNode) OnStart(ctx context.Context, inputs PortValues) error { return nil }
func (b BaseNode) OnUpdate(ctx context.Context) (PortValues, error)     { return nil, nil }
func (b BaseNode) OnCleanup(ctx context.Context) error                  { return nil }

// DefaultValidateInputs implements the default input validator from
// spec.md §4.3: every required port must have an entry; any entry present
// (required or not) must satisfy its declared type. Extra entries are
// ignored.
func DefaultValidateInputs(n Node, inputs PortValues) error {
	for _, p := range n.InputPorts() {
		v, present := inputs[p.Name]
		if !present {
			if p.Required {
				return fmt.Errorf("required input port %q is missing", p.Name)
			}
			continue
		}
		if !value.Satisfies(v, p.DataType) {
			return fmt.Errorf("input port %q: value does not satisfy declared type %s", p.Name, p.DataType)
		}
	}
	return nil
}

// DefaultValidateOutputs implements the default output validator from
// spec.md §4.3: every declared output port must appear with a value
// satisfying its type; extra entries are an error.
func DefaultValidateOutputs(n Node, outputs PortValues) error {
	declared := n.OutputPorts()
	seen := make(map[string]struct{}, len(declared))
	for _, p := range declared {
		seen[p.Name] = struct{}{}
		v, present := outputs[p.Name]
		if !present {
			return fmt.Errorf("declared output port %q is missing from result", p.Name)
		}
		if !value.Satisfies(v, p.DataType) {
			return fmt.Errorf("output port %q: value does not satisfy declared type %s", p.Name, p.DataType)
		}
	}
	for name := range outputs {
		if _, ok := seen[name]; !ok {
			return fmt.Errorf("output map contains undeclared port %q", name)
		}
	}
	return nil
}
