package scheduler

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/vk/nodeflow/internal/ctxlog"
	"github.com/vk/nodeflow/internal/errs"
	"github.com/vk/nodeflow/internal/livegraph"
	"github.com/vk/nodeflow/internal/node"
	"github.com/vk/nodeflow/internal/pool"
	"github.com/vk/nodeflow/internal/stopsignal"
)

// Recorder observes scheduler activity for the metrics package without the
// scheduler needing to import it directly.
type Recorder interface {
	NodeExecuted(nodeID string, kind node.Kind)
	ProducerTick(nodeID string)
}

type noopRecorder struct{}

func (noopRecorder) NodeExecuted(string, node.Kind) {}
func (noopRecorder) ProducerTick(string)            {}

// Run executes g to completion (or until the stop signal breaks every
// producer's loop), publishing into root and returning a summary report.
// If rec is nil, scheduling proceeds without recording.
func Run(ctx context.Context, g *livegraph.Graph, root *pool.Pool, stop *stopsignal.Signal, rec Recorder) (*RunReport, error) {
	if rec == nil {
		rec = noopRecorder{}
	}
	if stop == nil {
		stop = stopsignal.New()
	}

	runID := uuid.New().String()
	logger := ctxlog.FromContext(ctx).With("run_id", runID)
	ctx = ctxlog.WithLogger(ctx, logger)
	start := time.Now()
	report := newReport(runID)

	order, err := TopoOrder(g)
	if err != nil {
		return report, err
	}

	producers := g.Producers()
	if len(producers) == 0 {
		logger.Info("Starting simple-only run.", "node_count", len(order))
		report.NodeResults = make(map[string]node.PortValues, len(order))
		for _, id := range order {
			inputs, err := pool.CollectInputs(g, root, id)
			if err != nil {
				collectNodeErrors(g, report)
				report.Duration = time.Since(start)
				return report, err
			}
			outputs, err := executeSimple(ctx, g, root, id, rec)
			if err != nil {
				collectNodeErrors(g, report)
				report.Duration = time.Since(start)
				return report, err
			}
			result := make(node.PortValues, len(inputs)+len(outputs))
			for k, v := range inputs {
				result[k] = v
			}
			for k, v := range outputs {
				result[k] = v
			}
			report.NodeResults[id] = result
			report.NodesExecuted++
		}
		collectNodeErrors(g, report)
		report.Duration = time.Since(start)
		logger.Info("Run finished.", "nodes_executed", report.NodesExecuted)
		return report, nil
	}

	logger.Info("Starting hybrid run.", "producer_count", len(producers))
	base := g.BaseLayer()
	baseSet := make(map[string]struct{}, len(base))
	for _, id := range base {
		baseSet[id] = struct{}{}
	}
	for _, id := range order {
		if _, ok := baseSet[id]; !ok {
			continue
		}
		// base, per spec.md §4.7, is "all non-reachable nodes" computed from
		// producers' downstream closures; a root producer is itself
		// non-reachable by that definition but is driven via its own
		// lifecycle below, never through the Simple-only step.
		if g.Nodes[id].Node.Kind() == node.EventProducer {
			continue
		}
		if _, err := executeSimple(ctx, g, root, id, rec); err != nil {
			collectNodeErrors(g, report)
			report.Duration = time.Since(start)
			return report, fmt.Errorf("base layer: %w", err)
		}
		report.NodesExecuted++
	}

	// Per spec.md §4.7's hybrid error policy, a failure inside one root
	// producer's subtree aborts that subtree but never stops a sibling
	// root producer from being driven: every root gets its full
	// on_start/on_update/on_cleanup lifecycle regardless of an earlier
	// sibling's outcome, and the failures are joined into one error only
	// after every root has run.
	roots := g.Roots(order)
	var producerErrs []error
	for _, rootProducer := range roots {
		if err := driveProducer(ctx, g, root, rootProducer, order, stop, rec, report); err != nil {
			logger.Error("Root producer subtree failed.", "producer_id", rootProducer, "error", err)
			producerErrs = append(producerErrs, err)
		}
	}

	collectNodeErrors(g, report)
	report.Duration = time.Since(start)
	if len(producerErrs) > 0 {
		logger.Info("Run finished with producer errors.", "nodes_executed", report.NodesExecuted,
			"producers_driven", report.ProducersDriven, "failed_producers", len(producerErrs))
		return report, errors.Join(producerErrs...)
	}
	logger.Info("Run finished.", "nodes_executed", report.NodesExecuted, "producers_driven", report.ProducersDriven)
	return report, nil
}

// collectNodeErrors reads back every node's terminal State/Err off the live
// graph into report.NodeErrors. Root-producer subtree failures are joined
// into Run's returned error, which loses the per-node identity of a failure
// inside a sibling subtree that was allowed to continue; this is the read
// site that recovers it.
func collectNodeErrors(g *livegraph.Graph, report *RunReport) {
	for id, gn := range g.Nodes {
		if gn.State.Load() != node.Failed {
			continue
		}
		if report.NodeErrors == nil {
			report.NodeErrors = make(map[string]error)
		}
		report.NodeErrors[id] = gn.Err
	}
}

// executeSimple runs one Simple-execution pass for id: collect inputs,
// call Execute, validate outputs, and publish them into p.
func executeSimple(ctx context.Context, g *livegraph.Graph, p *pool.Pool, id string, rec Recorder) (node.PortValues, error) {
	gn := g.Nodes[id]
	gn.State.Store(node.Running)

	inputs, err := pool.CollectInputs(g, p, id)
	if err != nil {
		gn.State.Store(node.Failed)
		gn.Err = err
		return nil, err
	}

	outputs, err := gn.Node.Execute(ctx, inputs)
	if err != nil {
		wrapped := &errs.RuntimeError{NodeID: id, Reason: err}
		gn.State.Store(node.Failed)
		gn.Err = wrapped
		return nil, wrapped
	}

	if err := node.DefaultValidateOutputs(gn.Node, outputs); err != nil {
		wrapped := &errs.RuntimeError{NodeID: id, Reason: err}
		gn.State.Store(node.Failed)
		gn.Err = wrapped
		return nil, wrapped
	}

	for name, v := range outputs {
		p.Publish(id, name, v)
	}
	gn.State.Store(node.Done)
	rec.NodeExecuted(id, gn.Node.Kind())
	return outputs, nil
}

// driveProducer implements the nested-recursive EventProducer lifecycle of
// spec.md §4.7: on_start once, then a loop of on_update ticks each
// followed by a restricted downstream execution pass and a recursive drive
// of any immediate nested producer, then on_cleanup on every exit path
// reached after a successful on_start.
func driveProducer(ctx context.Context, g *livegraph.Graph, parent *pool.Pool, id string, order []string, stop *stopsignal.Signal, rec Recorder, report *RunReport) error {
	logger := ctxlog.FromContext(ctx).With("producer_id", id)
	gn := g.Nodes[id]

	inputs, err := pool.CollectInputs(g, parent, id)
	if err != nil {
		return err
	}
	gn.State.Store(node.Running)
	if err := gn.Node.OnStart(ctx, inputs); err != nil {
		wrapped := &errs.RuntimeError{NodeID: id, Reason: err}
		gn.State.Store(node.Failed)
		gn.Err = wrapped
		return wrapped
	}
	report.ProducersDriven++

	nodeSet := g.Downstream(id)
	restrictedOrder := flatSubtreeOrder(g, order, id, nodeSet)

	loopErr := runProducerLoop(ctx, g, parent, gn, id, order, nodeSet, restrictedOrder, stop, rec, report)

	if err := gn.Node.OnCleanup(ctx); err != nil {
		logger.Error("Producer cleanup failed.", "error", err)
		if loopErr == nil {
			loopErr = &errs.CleanupError{NodeID: id, Reason: err}
		}
	}

	if loopErr != nil {
		gn.State.Store(node.Failed)
		gn.Err = loopErr
	} else {
		gn.State.Store(node.Done)
	}
	return loopErr
}

// flatSubtreeOrder computes, for producer id, the topological order of the
// Simple nodes owned directly by this level (downstream(id) minus anything
// owned by a nested producer further down).
func flatSubtreeOrder(g *livegraph.Graph, order []string, id string, nodeSet map[string]struct{}) []string {
	owned := make(map[string]struct{})
	for _, p := range g.Producers() {
		if p == id {
			continue
		}
		if _, inSet := nodeSet[p]; !inSet {
			continue
		}
		owned[p] = struct{}{}
		for d := range g.Downstream(p) {
			owned[d] = struct{}{}
		}
	}

	var flat []string
	for _, nid := range order {
		if _, inSet := nodeSet[nid]; !inSet {
			continue
		}
		if _, isOwned := owned[nid]; isOwned {
			continue
		}
		flat = append(flat, nid)
	}
	return flat
}

func runProducerLoop(
	ctx context.Context,
	g *livegraph.Graph,
	parent *pool.Pool,
	gn *livegraph.GraphNode,
	id string,
	order []string,
	nodeSet map[string]struct{},
	restrictedOrder []string,
	stop *stopsignal.Signal,
	rec Recorder,
	report *RunReport,
) error {
	for {
		if stop.IsSet() {
			return nil
		}

		outputs, err := gn.Node.OnUpdate(ctx)
		if err != nil {
			return &errs.RuntimeError{NodeID: id, Reason: err}
		}
		if outputs == nil {
			return nil
		}
		if err := node.DefaultValidateOutputs(gn.Node, outputs); err != nil {
			return &errs.RuntimeError{NodeID: id, Reason: err}
		}

		report.TicksByProducer[id]++
		rec.ProducerTick(id)

		tick := parent.Child()
		for name, v := range outputs {
			tick.Publish(id, name, v)
		}

		for _, nid := range restrictedOrder {
			if nid == id {
				continue
			}
			if !inputsResolved(g, tick, nid) {
				continue
			}
			if _, err := executeSimple(ctx, g, tick, nid, rec); err != nil {
				return err
			}
			report.NodesExecuted++
		}

		// As with the root-producer loop in Run, one nested child's
		// subtree failure must not starve its siblings of on_start,
		// on_update, and on_cleanup: drive every immediate root child
		// this tick and only report the joined failure once all of
		// them have run.
		var childErrs []error
		for _, childID := range livegraph.ImmediateRoots(g, nodeSet, id, order) {
			if err := driveProducer(ctx, g, tick, childID, order, stop, rec, report); err != nil {
				childErrs = append(childErrs, err)
			}
		}
		if len(childErrs) > 0 {
			return errors.Join(childErrs...)
		}
	}
}

// inputsResolved reports whether every incoming edge of nid has its source
// value already available in p (this tick's pool or an ancestor), meaning
// nid is ready to execute this tick.
func inputsResolved(g *livegraph.Graph, p *pool.Pool, nid string) bool {
	for _, e := range g.Nodes[nid].InEdges {
		if _, ok := p.Get(e.FromNode, e.FromPort); !ok {
			return false
		}
	}
	return true
}
