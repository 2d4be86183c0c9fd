package scheduler

import (
	"time"

	"github.com/vk/nodeflow/internal/node"
)

// RunReport summarises one Scheduler.Run call: how much of the graph ran
// and for how long, echoing the numeric summaries the teacher's executor
// logs at the end of a run.
type RunReport struct {
	RunID           string
	NodesExecuted   int
	ProducersDriven int
	TicksByProducer map[string]int
	Duration        time.Duration

	// NodeResults captures each node's resolved inputs merged with its
	// produced outputs, keyed by node id — the Simple-only-run analogue of
	// the original engine's execute_and_capture_results. It is populated
	// only for a graph with no EventProducer: once a run has a live
	// producer loop, per-tick results are unbounded and are not captured
	// here, matching the original's own limitation.
	NodeResults map[string]node.PortValues

	// NodeErrors holds the terminal error of every node or producer whose
	// GraphNode.State ended Failed, keyed by node id. In a hybrid run this
	// is the only place a node's failure is visible once its producer's
	// subtree error has been folded into an aggregate returned error (see
	// the root-producer loop in Run): a sibling subtree that failed still
	// leaves its failing node's error here even though the run as a whole
	// may report a different node in its returned error.
	NodeErrors map[string]error
}

func newReport(runID string) *RunReport {
	return &RunReport{RunID: runID, TicksByProducer: make(map[string]int)}
}
