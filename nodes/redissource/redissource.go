// Package redissource provides two nodes exercising the RedisRef opaque
// reference variant (spec.md §9's "shared resources flow through ports as
// opaque handles" design note): Connect, a Simple node that dials a Redis
// server and hands out the client as a RedisRef, and PopList, an
// EventProducer that drains a Redis list key one element per tick.
package redissource

import (
	"context"
	"fmt"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/vk/nodeflow/internal/node"
	"github.com/vk/nodeflow/internal/port"
	"github.com/vk/nodeflow/internal/registry"
	"github.com/vk/nodeflow/internal/value"
)

// pollTimeout bounds each list-pop attempt so on_update always returns
// control to the scheduler, which is the only place the stop signal is
// checked (spec.md's cooperative-stop invariant).
const pollTimeout = 50 * time.Millisecond

// maxEmptyPolls ends the producer's loop after this many consecutive empty
// polls, so an unattended empty list does not run the graph forever.
const maxEmptyPolls = 5

type Module struct{}

func (Module) Register(r *registry.Registry) {
	r.RegisterNodeType(&registry.Registration{
		TypeID:      "redissource.connect",
		DisplayName: "Redis Connect",
		Category:    "Redis",
		Description: "Dials a Redis server and emits the connection as a RedisRef handle.",
		Factory:     newConnect,
	})
	r.RegisterNodeType(&registry.Registration{
		TypeID:      "redissource.poplist",
		DisplayName: "Redis List Source",
		Category:    "Redis",
		Description: "Pops one element per tick from a Redis list, ending after sustained silence.",
		Factory:     newPopList,
	})
}

type connectNode struct {
	node.BaseNode
}

func newConnect(id, name string) node.Node {
	return &connectNode{BaseNode: node.BaseNode{NodeID: id, NodeName: name}}
}

func (n *connectNode) InputPorts() []port.Port {
	return []port.Port{port.New("addr", value.String()).WithRequired(true)}
}

func (n *connectNode) OutputPorts() []port.Port {
	return []port.Port{port.New("conn", value.RedisRef())}
}

func (n *connectNode) Execute(ctx context.Context, inputs node.PortValues) (node.PortValues, error) {
	addr, _ := inputs["addr"].AsString()
	client := goredis.NewClient(&goredis.Options{Addr: addr})
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("redissource.connect: dialing %s: %w", addr, err)
	}
	return node.PortValues{"conn": value.NewRedisRef(client)}, nil
}

type popListNode struct {
	node.BaseNode

	client *goredis.Client
	key    string
}

func newPopList(id, name string) node.Node {
	return &popListNode{BaseNode: node.BaseNode{NodeID: id, NodeName: name}}
}

func (n *popListNode) Kind() node.Kind { return node.EventProducer }

func (n *popListNode) InputPorts() []port.Port {
	return []port.Port{
		port.New("conn", value.RedisRef()).WithRequired(true),
		port.New("key", value.String()).WithRequired(true),
	}
}

func (n *popListNode) OutputPorts() []port.Port {
	return []port.Port{port.New("value", value.String())}
}

func (n *popListNode) Execute(ctx context.Context, inputs node.PortValues) (node.PortValues, error) {
	return nil, fmt.Errorf("redissource.poplist is an EventProducer; the engine must never call Execute on it")
}

func (n *popListNode) OnStart(ctx context.Context, inputs node.PortValues) error {
	ref, ok := inputs["conn"].AsRef()
	if !ok {
		return fmt.Errorf("redissource.poplist: %q input is not a RedisRef", "conn")
	}
	client, ok := ref.(*goredis.Client)
	if !ok {
		return fmt.Errorf("redissource.poplist: %q input does not hold a *redis.Client", "conn")
	}
	key, _ := inputs["key"].AsString()
	if key == "" {
		return fmt.Errorf("redissource.poplist: %q input must not be empty", "key")
	}
	n.client = client
	n.key = key
	return nil
}

func (n *popListNode) OnUpdate(ctx context.Context) (node.PortValues, error) {
	for empty := 0; empty < maxEmptyPolls; empty++ {
		pollCtx, cancel := context.WithTimeout(ctx, pollTimeout)
		v, err := n.client.LPop(pollCtx, n.key).Result()
		cancel()

		switch {
		case err == nil:
			return node.PortValues{"value": value.NewString(v)}, nil
		case err == goredis.Nil, err == context.DeadlineExceeded:
			continue
		default:
			return nil, fmt.Errorf("redissource.poplist: popping %q: %w", n.key, err)
		}
	}
	return nil, nil
}

func (n *popListNode) OnCleanup(ctx context.Context) error {
	return nil
}
