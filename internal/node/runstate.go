package node

import "sync/atomic"

// RunState is the execution state of a node instance during one run. The
// scheduler advances it from a single goroutine and reads it back at the
// end of a run to fill RunReport.NodeErrors.
type RunState int32

const (
	Pending RunState = iota
	Running
	Done
	Failed
)

func (s RunState) String() string {
	switch s {
	case Pending:
		return "pending"
	case Running:
		return "running"
	case Done:
		return "done"
	case Failed:
		return "failed"
	default:
		return "unknown"
	}
}

// AtomicRunState is a small atomic wrapper so a reader on another
// goroutine would see state changes without a race, mirroring the
// teacher's atomic.Int32 node state. No such reader exists in this module.
type AtomicRunState struct {
	v atomic.Int32
}

func (a *AtomicRunState) Store(s RunState) { a.v.Store(int32(s)) }
func (a *AtomicRunState) Load() RunState   { return RunState(a.v.Load()) }
