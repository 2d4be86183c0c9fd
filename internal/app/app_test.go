package app_test

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vk/nodeflow/internal/app"
	"github.com/vk/nodeflow/internal/node"
	"github.com/vk/nodeflow/internal/port"
	"github.com/vk/nodeflow/internal/registry"
	"github.com/vk/nodeflow/internal/stopsignal"
	"github.com/vk/nodeflow/internal/value"
)

// upperNode uppercases its "in" string input, the smallest Simple node
// that exercises Build+Execute end to end.
type upperNode struct {
	node.BaseNode
}

func (n *upperNode) InputPorts() []port.Port {
	return []port.Port{port.New("in", value.String()).WithRequired(true)}
}

func (n *upperNode) OutputPorts() []port.Port {
	return []port.Port{port.New("out", value.String())}
}

func (n *upperNode) Execute(ctx context.Context, inputs node.PortValues) (node.PortValues, error) {
	s, _ := inputs["in"].AsString()
	return node.PortValues{"out": value.NewString(stringsToUpper(s))}, nil
}

func stringsToUpper(s string) string {
	b := []byte(s)
	for i, c := range b {
		if c >= 'a' && c <= 'z' {
			b[i] = c - ('a' - 'A')
		}
	}
	return string(b)
}

type stubModule struct{}

func (stubModule) Register(r *registry.Registry) {
	r.RegisterNodeType(&registry.Registration{
		TypeID: "upper",
		Factory: func(id, name string) node.Node {
			return &upperNode{BaseNode: node.BaseNode{NodeID: id, NodeName: name}}
		},
	})
}

func TestNewConfig_RequiresGraphPath(t *testing.T) {
	_, err := app.NewConfig(app.Config{})
	require.Error(t, err)
}

func TestNewConfig_OK(t *testing.T) {
	cfg, err := app.NewConfig(app.Config{GraphPath: "graph.json"})
	require.NoError(t, err)
	assert.Equal(t, "graph.json", cfg.GraphPath)
}

func TestNewApp_RegistersModules(t *testing.T) {
	cfg, err := app.NewConfig(app.Config{GraphPath: "graph.json"})
	require.NoError(t, err)

	a, err := app.NewApp(&bytes.Buffer{}, cfg, stubModule{})
	require.NoError(t, err)

	_, ok := a.Registry().Lookup("upper")
	assert.True(t, ok)
}

func TestApp_Run_ExecutesSimpleGraph(t *testing.T) {
	dir := t.TempDir()
	graphPath := filepath.Join(dir, "graph.json")
	savePath := filepath.Join(dir, "saved.json")

	writeGraphJSON(t, graphPath)

	cfg, err := app.NewConfig(app.Config{
		GraphPath:     graphPath,
		SaveGraphPath: savePath,
		LogLevel:      "debug",
	})
	require.NoError(t, err)

	a, err := app.NewApp(&bytes.Buffer{}, cfg, stubModule{})
	require.NoError(t, err)

	report, err := a.Run(a.Context(), stopsignal.New())
	require.NoError(t, err)
	assert.Equal(t, 1, report.NodesExecuted)

	saved := readGraphJSON(t, savePath)
	require.Len(t, saved.Nodes, 1)
	assert.False(t, saved.Nodes[0].HasError)
}

func TestApp_Run_UnknownNodeType(t *testing.T) {
	dir := t.TempDir()
	graphPath := filepath.Join(dir, "graph.json")

	doc := map[string]any{
		"nodes": []map[string]any{
			{"id": "n1", "name": "n1", "node_type": "does-not-exist", "input_ports": []any{}, "output_ports": []any{}},
		},
		"edges": []any{},
	}
	writeJSON(t, graphPath, doc)

	cfg, err := app.NewConfig(app.Config{GraphPath: graphPath})
	require.NoError(t, err)

	a, err := app.NewApp(&bytes.Buffer{}, cfg, stubModule{})
	require.NoError(t, err)

	_, err = a.Run(a.Context(), stopsignal.New())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown node_type")
}

func writeGraphJSON(t *testing.T, path string) {
	t.Helper()
	doc := map[string]any{
		"nodes": []map[string]any{
			{
				"id":           "n1",
				"name":         "upper it",
				"node_type":    "upper",
				"input_ports":  []any{},
				"output_ports": []any{},
				"inline_values": map[string]any{
					"in": "hello",
				},
			},
		},
		"edges": []any{},
	}
	writeJSON(t, path, doc)
}

func writeJSON(t *testing.T, path string, v any) {
	t.Helper()
	raw, err := json.MarshalIndent(v, "", "  ")
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(path, raw, 0o644))
}

type genericDoc struct {
	Nodes []struct {
		HasError bool `json:"has_error"`
	} `json:"nodes"`
}

func readGraphJSON(t *testing.T, path string) genericDoc {
	t.Helper()
	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	var doc genericDoc
	require.NoError(t, json.Unmarshal(raw, &doc))
	return doc
}
