package pool_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vk/nodeflow/internal/livegraph"
	"github.com/vk/nodeflow/internal/node"
	"github.com/vk/nodeflow/internal/pool"
	"github.com/vk/nodeflow/internal/port"
	"github.com/vk/nodeflow/internal/value"
)

type stubNode struct {
	node.BaseNode
	in  []port.Port
	out []port.Port
}

func (n *stubNode) InputPorts() []port.Port  { return n.in }
func (n *stubNode) OutputPorts() []port.Port { return n.out }
func (n *stubNode) Execute(ctx context.Context, inputs node.PortValues) (node.PortValues, error) {
	return nil, nil
}

func newStub(id string, in, out []port.Port) *stubNode {
	return &stubNode{BaseNode: node.BaseNode{NodeID: id, NodeName: id}, in: in, out: out}
}

func TestPool_ChildShadowsParent(t *testing.T) {
	root := pool.New()
	root.Publish("a", "out", value.NewString("base"))

	child := root.Child()
	if v, ok := child.Get("a", "out"); assert.True(t, ok) {
		s, _ := v.AsString()
		assert.Equal(t, "base", s)
	}

	child.Publish("a", "out", value.NewString("tick"))
	v, ok := child.Get("a", "out")
	require.True(t, ok)
	s, _ := v.AsString()
	assert.Equal(t, "tick", s)

	// Parent is unaffected by the child's shadowing write.
	v2, _ := root.Get("a", "out")
	s2, _ := v2.AsString()
	assert.Equal(t, "base", s2)
}

func TestCollectInputs_EdgeOverInlineDefault(t *testing.T) {
	g := livegraph.New()
	a := newStub("a", nil, []port.Port{port.New("out", value.String())})
	b := newStub("b", []port.Port{port.New("in", value.String()).WithRequired(true)}, nil)
	g.AddNode("a", a)
	bNode := g.AddNode("b", b)
	bNode.InlineDefaults["in"] = value.NewString("ignored-default")
	g.AddEdge(livegraph.Edge{FromNode: "a", FromPort: "out", ToNode: "b", ToPort: "in"})

	p := pool.New()
	p.Publish("a", "out", value.NewString("from-edge"))

	inputs, err := pool.CollectInputs(g, p, "b")
	require.NoError(t, err)
	s, _ := inputs["in"].AsString()
	assert.Equal(t, "from-edge", s)
}

func TestCollectInputs_FallsBackToInlineDefault(t *testing.T) {
	g := livegraph.New()
	b := newStub("b", []port.Port{port.New("in", value.String()).WithRequired(true)}, nil)
	bNode := g.AddNode("b", b)
	bNode.InlineDefaults["in"] = value.NewString("default-value")

	p := pool.New()
	inputs, err := pool.CollectInputs(g, p, "b")
	require.NoError(t, err)
	s, _ := inputs["in"].AsString()
	assert.Equal(t, "default-value", s)
}

func TestCollectInputs_MissingRequiredIsRuntimeError(t *testing.T) {
	g := livegraph.New()
	b := newStub("b", []port.Port{port.New("in", value.String()).WithRequired(true)}, nil)
	g.AddNode("b", b)

	p := pool.New()
	_, err := pool.CollectInputs(g, p, "b")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "runtime error")
}
