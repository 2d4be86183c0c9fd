package scheduler_test

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vk/nodeflow/internal/livegraph"
	"github.com/vk/nodeflow/internal/node"
	"github.com/vk/nodeflow/internal/pool"
	"github.com/vk/nodeflow/internal/port"
	"github.com/vk/nodeflow/internal/scheduler"
	"github.com/vk/nodeflow/internal/stopsignal"
	"github.com/vk/nodeflow/internal/value"
)

// constNode is a Simple node emitting a fixed String output, standing in
// for a source node with an inline default already resolved.
type constNode struct {
	node.BaseNode
	out string
}

func (n *constNode) InputPorts() []port.Port  { return nil }
func (n *constNode) OutputPorts() []port.Port { return []port.Port{port.New("text", value.String())} }
func (n *constNode) Execute(ctx context.Context, inputs node.PortValues) (node.PortValues, error) {
	return node.PortValues{"text": value.NewString(n.out)}, nil
}

// upperNode uppercases its "text" input into "result".
type upperNode struct{ node.BaseNode }

func (n *upperNode) InputPorts() []port.Port {
	return []port.Port{port.New("text", value.String()).WithRequired(true)}
}
func (n *upperNode) OutputPorts() []port.Port {
	return []port.Port{port.New("result", value.String())}
}
func (n *upperNode) Execute(ctx context.Context, inputs node.PortValues) (node.PortValues, error) {
	s, _ := inputs["text"].AsString()
	return node.PortValues{"result": value.NewString(strings.ToUpper(s))}, nil
}

// identityNode passes "text" straight through.
type identityNode struct{ node.BaseNode }

func (n *identityNode) InputPorts() []port.Port {
	return []port.Port{port.New("text", value.String()).WithRequired(true)}
}
func (n *identityNode) OutputPorts() []port.Port {
	return []port.Port{port.New("text", value.String())}
}
func (n *identityNode) Execute(ctx context.Context, inputs node.PortValues) (node.PortValues, error) {
	return node.PortValues{"text": inputs["text"]}, nil
}

func TestRun_ScenarioA_LinearSimplePipeline(t *testing.T) {
	g := livegraph.New()
	g.AddNode("src", &constNode{BaseNode: node.BaseNode{NodeID: "src"}, out: "hello"})
	g.AddNode("upper", &upperNode{BaseNode: node.BaseNode{NodeID: "upper"}})
	g.AddNode("sink", &identityNode{BaseNode: node.BaseNode{NodeID: "sink"}})
	g.AddEdge(livegraph.Edge{FromNode: "src", FromPort: "text", ToNode: "upper", ToPort: "text"})
	g.AddEdge(livegraph.Edge{FromNode: "upper", FromPort: "result", ToNode: "sink", ToPort: "text"})

	root := pool.New()
	report, err := scheduler.Run(context.Background(), g, root, nil, nil)
	require.NoError(t, err)
	assert.Equal(t, 3, report.NodesExecuted)

	v, ok := root.Get("sink", "text")
	require.True(t, ok)
	s, _ := v.AsString()
	assert.Equal(t, "HELLO", s)
}

func TestRun_SimpleOnly_CapturesNodeResults(t *testing.T) {
	g := livegraph.New()
	g.AddNode("src", &constNode{BaseNode: node.BaseNode{NodeID: "src"}, out: "hello"})
	g.AddNode("upper", &upperNode{BaseNode: node.BaseNode{NodeID: "upper"}})
	g.AddEdge(livegraph.Edge{FromNode: "src", FromPort: "text", ToNode: "upper", ToPort: "text"})

	report, err := scheduler.Run(context.Background(), g, pool.New(), nil, nil)
	require.NoError(t, err)

	require.Contains(t, report.NodeResults, "src")
	srcText, _ := report.NodeResults["src"]["text"].AsString()
	assert.Equal(t, "hello", srcText)

	require.Contains(t, report.NodeResults, "upper")
	upperResult := report.NodeResults["upper"]
	inText, _ := upperResult["text"].AsString()
	assert.Equal(t, "hello", inText)
	outResult, _ := upperResult["result"].AsString()
	assert.Equal(t, "HELLO", outResult)
}

func TestRun_HybridRun_LeavesNodeResultsEmpty(t *testing.T) {
	g := livegraph.New()
	g.AddNode("cfg", &constIntNode{BaseNode: node.BaseNode{NodeID: "cfg"}, out: 1})
	g.AddNode("ticker", &tickerNode{BaseNode: node.BaseNode{NodeID: "ticker"}})
	g.AddEdge(livegraph.Edge{FromNode: "cfg", FromPort: "n", ToNode: "ticker", ToPort: "n"})

	stop := stopsignal.New()
	stop.Set()
	report, err := scheduler.Run(context.Background(), g, pool.New(), stop, nil)
	require.NoError(t, err)
	assert.Empty(t, report.NodeResults)
}

// tickerNode emits 1..n then stops, modelling Scenario D's ticker.
type tickerNode struct {
	node.BaseNode
	n       int64
	current int64
}

func (n *tickerNode) InputPorts() []port.Port {
	return []port.Port{port.New("n", value.Integer()).WithRequired(true)}
}
func (n *tickerNode) OutputPorts() []port.Port { return []port.Port{port.New("i", value.Integer())} }
func (n *tickerNode) Kind() node.Kind          { return node.EventProducer }
func (n *tickerNode) OnStart(ctx context.Context, inputs node.PortValues) error {
	limit, _ := inputs["n"].AsInteger()
	n.n = limit
	return nil
}
func (n *tickerNode) OnUpdate(ctx context.Context) (node.PortValues, error) {
	if n.current >= n.n {
		return nil, nil
	}
	n.current++
	return node.PortValues{"i": value.NewInteger(n.current)}, nil
}
func (n *tickerNode) Execute(ctx context.Context, inputs node.PortValues) (node.PortValues, error) {
	return nil, nil
}

// doubleNode returns 2*i and records every input it observed, for the
// scenario's "observes inputs 1,2,3 in order" assertion.
type doubleNode struct {
	node.BaseNode
	seen []int64
}

func (n *doubleNode) InputPorts() []port.Port {
	return []port.Port{port.New("i", value.Integer()).WithRequired(true)}
}
func (n *doubleNode) OutputPorts() []port.Port { return []port.Port{port.New("r", value.Integer())} }
func (n *doubleNode) Execute(ctx context.Context, inputs node.PortValues) (node.PortValues, error) {
	i, _ := inputs["i"].AsInteger()
	n.seen = append(n.seen, i)
	return node.PortValues{"r": value.NewInteger(i * 2)}, nil
}

func TestRun_ScenarioD_ProducerWithBaseLayer(t *testing.T) {
	g := livegraph.New()
	g.AddNode("cfg", &constIntNode{BaseNode: node.BaseNode{NodeID: "cfg"}, out: 3})
	g.AddNode("ticker", &tickerNode{BaseNode: node.BaseNode{NodeID: "ticker"}})
	double := &doubleNode{BaseNode: node.BaseNode{NodeID: "double"}}
	g.AddNode("double", double)
	g.AddEdge(livegraph.Edge{FromNode: "cfg", FromPort: "n", ToNode: "ticker", ToPort: "n"})
	g.AddEdge(livegraph.Edge{FromNode: "ticker", FromPort: "i", ToNode: "double", ToPort: "i"})

	root := pool.New()
	report, err := scheduler.Run(context.Background(), g, root, nil, nil)
	require.NoError(t, err)

	assert.Equal(t, 1, report.ProducersDriven)
	assert.Equal(t, 3, report.TicksByProducer["ticker"])
	assert.Equal(t, []int64{1, 2, 3}, double.seen)
}

type constIntNode struct {
	node.BaseNode
	out int64
}

func (n *constIntNode) InputPorts() []port.Port  { return nil }
func (n *constIntNode) OutputPorts() []port.Port { return []port.Port{port.New("n", value.Integer())} }
func (n *constIntNode) Execute(ctx context.Context, inputs node.PortValues) (node.PortValues, error) {
	return node.PortValues{"n": value.NewInteger(n.out)}, nil
}

func TestRun_StopSignalSetBeforeRun_NoTicks(t *testing.T) {
	g := livegraph.New()
	g.AddNode("cfg", &constIntNode{BaseNode: node.BaseNode{NodeID: "cfg"}, out: 3})
	g.AddNode("ticker", &tickerNode{BaseNode: node.BaseNode{NodeID: "ticker"}})
	double := &doubleNode{BaseNode: node.BaseNode{NodeID: "double"}}
	g.AddNode("double", double)
	g.AddEdge(livegraph.Edge{FromNode: "cfg", FromPort: "n", ToNode: "ticker", ToPort: "n"})
	g.AddEdge(livegraph.Edge{FromNode: "ticker", FromPort: "i", ToNode: "double", ToPort: "i"})

	stop := stopsignal.New()
	stop.Set()

	root := pool.New()
	report, err := scheduler.Run(context.Background(), g, root, stop, nil)
	require.NoError(t, err)
	assert.Equal(t, 0, report.TicksByProducer["ticker"])
	assert.Empty(t, double.seen)
}

// outerProducerNode emits ticks 1..2 on port "a".
type outerProducerNode struct {
	node.BaseNode
	current int64
}

func (n *outerProducerNode) InputPorts() []port.Port  { return nil }
func (n *outerProducerNode) OutputPorts() []port.Port { return []port.Port{port.New("a", value.Integer())} }
func (n *outerProducerNode) Kind() node.Kind          { return node.EventProducer }
func (n *outerProducerNode) OnUpdate(ctx context.Context) (node.PortValues, error) {
	if n.current >= 2 {
		return nil, nil
	}
	n.current++
	return node.PortValues{"a": value.NewInteger(n.current)}, nil
}
func (n *outerProducerNode) Execute(ctx context.Context, inputs node.PortValues) (node.PortValues, error) {
	return nil, nil
}

// innerProducerNode, given "a", emits "a" copies of "a" on "b" then stops;
// re-reads "a" from its stored on_start input each cycle.
type innerProducerNode struct {
	node.BaseNode
	a     int64
	ticks int64
}

func (n *innerProducerNode) InputPorts() []port.Port {
	return []port.Port{port.New("a", value.Integer()).WithRequired(true)}
}
func (n *innerProducerNode) OutputPorts() []port.Port { return []port.Port{port.New("b", value.Integer())} }
func (n *innerProducerNode) Kind() node.Kind          { return node.EventProducer }
func (n *innerProducerNode) OnStart(ctx context.Context, inputs node.PortValues) error {
	n.a, _ = inputs["a"].AsInteger()
	n.ticks = 0
	return nil
}
func (n *innerProducerNode) OnUpdate(ctx context.Context) (node.PortValues, error) {
	if n.ticks >= n.a {
		return nil, nil
	}
	n.ticks++
	return node.PortValues{"b": value.NewInteger(n.a)}, nil
}
func (n *innerProducerNode) Execute(ctx context.Context, inputs node.PortValues) (node.PortValues, error) {
	return nil, nil
}

type logNode struct {
	node.BaseNode
	seen []int64
}

func (n *logNode) InputPorts() []port.Port {
	return []port.Port{port.New("b", value.Integer()).WithRequired(true)}
}
func (n *logNode) OutputPorts() []port.Port { return nil }
func (n *logNode) Execute(ctx context.Context, inputs node.PortValues) (node.PortValues, error) {
	b, _ := inputs["b"].AsInteger()
	n.seen = append(n.seen, b)
	return node.PortValues{}, nil
}

func TestRun_ScenarioF_NestedProducers(t *testing.T) {
	g := livegraph.New()
	g.AddNode("outer", &outerProducerNode{BaseNode: node.BaseNode{NodeID: "outer"}})
	g.AddNode("inner", &innerProducerNode{BaseNode: node.BaseNode{NodeID: "inner"}})
	logN := &logNode{BaseNode: node.BaseNode{NodeID: "log"}}
	g.AddNode("log", logN)
	g.AddEdge(livegraph.Edge{FromNode: "outer", FromPort: "a", ToNode: "inner", ToPort: "a"})
	g.AddEdge(livegraph.Edge{FromNode: "inner", FromPort: "b", ToNode: "log", ToPort: "b"})

	root := pool.New()
	report, err := scheduler.Run(context.Background(), g, root, nil, nil)
	require.NoError(t, err)

	// outer is driven once; inner is driven once per outer tick (twice).
	assert.Equal(t, 3, report.ProducersDriven)
	assert.Equal(t, []int64{1, 2, 2}, logN.seen)
}

// failingProducerNode fails its very first OnStart, so it never ticks.
type failingProducerNode struct {
	node.BaseNode
	cleanedUp bool
}

func (n *failingProducerNode) InputPorts() []port.Port  { return nil }
func (n *failingProducerNode) OutputPorts() []port.Port { return nil }
func (n *failingProducerNode) Kind() node.Kind          { return node.EventProducer }
func (n *failingProducerNode) OnStart(ctx context.Context, inputs node.PortValues) error {
	return errors.New("boom")
}
func (n *failingProducerNode) OnCleanup(ctx context.Context) error {
	n.cleanedUp = true
	return nil
}
func (n *failingProducerNode) Execute(ctx context.Context, inputs node.PortValues) (node.PortValues, error) {
	return nil, nil
}

func TestRun_SiblingRootProducers_OneFailureDoesNotStarveTheOther(t *testing.T) {
	g := livegraph.New()
	bad := &failingProducerNode{BaseNode: node.BaseNode{NodeID: "bad"}}
	good := &outerProducerNode{BaseNode: node.BaseNode{NodeID: "good"}}
	g.AddNode("bad", bad)
	g.AddNode("good", good)

	root := pool.New()
	report, err := scheduler.Run(context.Background(), g, root, nil, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "boom")

	// bad's on_start failed outright, so it is never owed an on_cleanup call.
	assert.False(t, bad.cleanedUp)
	// good, the untouched sibling, was still driven to completion (2 ticks);
	// bad never reaches ProducersDriven since its on_start itself failed.
	assert.Equal(t, int64(2), good.current)
	assert.Equal(t, 1, report.ProducersDriven)

	require.Contains(t, report.NodeErrors, "bad")
	assert.Contains(t, report.NodeErrors["bad"].Error(), "boom")
}

// failingNestedProducerNode is an EventProducer nested under another
// producer that fails its on_start every time it's driven.
type failingNestedProducerNode struct {
	node.BaseNode
	cleanedUp int
}

func (n *failingNestedProducerNode) InputPorts() []port.Port {
	return []port.Port{port.New("a", value.Integer()).WithRequired(true)}
}
func (n *failingNestedProducerNode) OutputPorts() []port.Port { return nil }
func (n *failingNestedProducerNode) Kind() node.Kind          { return node.EventProducer }
func (n *failingNestedProducerNode) OnStart(ctx context.Context, inputs node.PortValues) error {
	return errors.New("nested boom")
}
func (n *failingNestedProducerNode) OnCleanup(ctx context.Context) error {
	n.cleanedUp++
	return nil
}
func (n *failingNestedProducerNode) Execute(ctx context.Context, inputs node.PortValues) (node.PortValues, error) {
	return nil, nil
}

func TestRun_NestedSiblingProducers_OneFailureDoesNotStarveTheOther(t *testing.T) {
	g := livegraph.New()
	g.AddNode("outer", &outerProducerNode{BaseNode: node.BaseNode{NodeID: "outer"}})
	bad := &failingNestedProducerNode{BaseNode: node.BaseNode{NodeID: "bad"}}
	good := &innerProducerNode{BaseNode: node.BaseNode{NodeID: "good"}}
	g.AddNode("bad", bad)
	g.AddNode("good", good)
	g.AddEdge(livegraph.Edge{FromNode: "outer", FromPort: "a", ToNode: "bad", ToPort: "a"})
	g.AddEdge(livegraph.Edge{FromNode: "outer", FromPort: "a", ToNode: "good", ToPort: "a"})

	root := pool.New()
	report, err := scheduler.Run(context.Background(), g, root, nil, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "nested boom")

	// bad's on_start itself failed, so on_cleanup is never owed to it; good,
	// its sibling, was not starved by bad's failure and still ran its own
	// full start/update/cleanup lifecycle on the same outer tick.
	assert.Equal(t, 0, bad.cleanedUp)
	assert.Equal(t, int64(1), good.ticks)
	assert.Contains(t, report.NodeErrors, "bad")
}

func TestTopoOrder_DeterministicTieBreak(t *testing.T) {
	g := livegraph.New()
	g.AddNode("b", &constNode{BaseNode: node.BaseNode{NodeID: "b"}, out: "b"})
	g.AddNode("a", &constNode{BaseNode: node.BaseNode{NodeID: "a"}, out: "a"})
	g.AddNode("c", &constNode{BaseNode: node.BaseNode{NodeID: "c"}, out: "c"})

	order, err := scheduler.TopoOrder(g)
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b", "c"}, order)
}
