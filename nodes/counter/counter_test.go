package counter_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vk/nodeflow/internal/node"
	"github.com/vk/nodeflow/internal/registry"
	"github.com/vk/nodeflow/internal/value"
	"github.com/vk/nodeflow/nodes/counter"
)

func newCounterNode(t *testing.T) node.Node {
	t.Helper()
	r := registry.New()
	r.RegisterModules(counter.Module{})
	reg, ok := r.Lookup("counter.count")
	require.True(t, ok)
	return reg.Factory("n1", "counter")
}

func TestCounter_TicksThenEnds(t *testing.T) {
	n := newCounterNode(t)
	assert.Equal(t, node.EventProducer, n.Kind())

	ctx := context.Background()
	require.NoError(t, n.OnStart(ctx, node.PortValues{"limit": value.NewInteger(3)}))

	var seen []int64
	for {
		out, err := n.OnUpdate(ctx)
		require.NoError(t, err)
		if out == nil {
			break
		}
		v, ok := out["value"].AsInteger()
		require.True(t, ok)
		seen = append(seen, v)
	}

	assert.Equal(t, []int64{1, 2, 3}, seen)
	require.NoError(t, n.OnCleanup(ctx))
}

func TestCounter_ZeroLimitEndsImmediately(t *testing.T) {
	n := newCounterNode(t)
	ctx := context.Background()
	require.NoError(t, n.OnStart(ctx, node.PortValues{"limit": value.NewInteger(0)}))

	out, err := n.OnUpdate(ctx)
	require.NoError(t, err)
	assert.Nil(t, out)
}

func TestCounter_OnStartRejectsNegativeLimit(t *testing.T) {
	n := newCounterNode(t)
	err := n.OnStart(context.Background(), node.PortValues{"limit": value.NewInteger(-1)})
	assert.Error(t, err)
}
