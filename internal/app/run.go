package app

import (
	"context"
	"fmt"
	"os"

	"github.com/vk/nodeflow/internal/ctxlog"
	"github.com/vk/nodeflow/internal/errs"
	"github.com/vk/nodeflow/internal/graphdef"
	"github.com/vk/nodeflow/internal/pool"
	"github.com/vk/nodeflow/internal/registry"
	"github.com/vk/nodeflow/internal/scheduler"
	"github.com/vk/nodeflow/internal/stopsignal"
	"github.com/vk/nodeflow/internal/validate"
)

// Run loads the configured graph file, validates it, executes it, and (if
// configured) re-serialises the result. It starts and stops the metrics
// server around the run when MetricsPort is set.
func (a *App) Run(ctx context.Context, stop *stopsignal.Signal) (*scheduler.RunReport, error) {
	ctx = ctxlog.WithLogger(ctx, a.logger)
	a.logger.Debug("App.Run started.", "graph_path", a.config.GraphPath)

	raw, err := os.ReadFile(a.config.GraphPath)
	if err != nil {
		return nil, fmt.Errorf("reading graph file: %w", err)
	}

	doc, err := graphdef.Decode(raw)
	if err != nil {
		return nil, err
	}

	edges, err := graphdef.ResolveEdges(doc)
	if err != nil {
		return nil, &errs.DefinitionError{Reason: err}
	}

	g, err := registry.Build(doc, edges, a.registry)
	if err != nil {
		return nil, err
	}
	a.logger.Debug("Graph built.", "node_count", len(g.Nodes))

	if a.config.MetricsPort > 0 {
		a.metricsRecorder = metricsRecorderFor(a)
		a.metricsServer = newMetricsServer(a)
		a.metricsServer.Start()
		defer func() {
			_ = a.metricsServer.Shutdown(context.Background())
		}()
	}

	if err := validate.Graph(g); err != nil {
		if a.metricsRecorder != nil {
			a.metricsRecorder.ValidationFailed()
		}
		return nil, err
	}
	a.logger.Debug("Graph validation passed.")

	a.logger.Info("Starting execution.")
	var rec scheduler.Recorder
	if a.metricsRecorder != nil {
		rec = a.metricsRecorder
	}
	report, runErr := scheduler.Run(ctx, g, pool.New(), stop, rec)
	if runErr != nil {
		a.logger.Error("Execution finished with error.", "error", runErr)
		markFailedNode(doc, runErr)
	} else {
		a.logger.Info("Execution finished.", "nodes_executed", report.NodesExecuted, "producers_driven", report.ProducersDriven)
	}

	if a.config.SaveGraphPath != "" {
		if saveErr := a.saveGraph(doc); saveErr != nil {
			a.logger.Error("Failed to save graph JSON.", "error", saveErr)
		}
	}

	return report, runErr
}

// saveGraph re-serialises doc to SaveGraphPath, per the --save-graph-json
// round trip. graphdef.Encode strips every has_error marker, so the written
// file never carries one.
func (a *App) saveGraph(doc *graphdef.Document) error {
	graphdef.EnsurePositions(doc)
	out, err := graphdef.Encode(doc)
	if err != nil {
		return fmt.Errorf("encoding graph: %w", err)
	}
	if err := os.WriteFile(a.config.SaveGraphPath, out, 0o644); err != nil {
		return fmt.Errorf("writing graph file: %w", err)
	}
	return nil
}

// markFailedNode sets HasError on the in-memory document's node named by a
// top-level Runtime/Cleanup error. Any other error (including a wrapped or
// joined one) leaves the document untouched. The flag does not reach the
// saved graph file: graphdef.Encode strips it.
func markFailedNode(doc *graphdef.Document, err error) {
	var nodeID string
	switch e := err.(type) {
	case *errs.RuntimeError:
		nodeID = e.NodeID
	case *errs.CleanupError:
		nodeID = e.NodeID
	default:
		return
	}
	for i := range doc.Nodes {
		if doc.Nodes[i].ID == nodeID {
			doc.Nodes[i].HasError = true
			return
		}
	}
}
