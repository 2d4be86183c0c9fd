// Package stopsignal implements the cooperative stop flag (C9): a
// process-local atomic boolean observed only at the top of each
// EventProducer's OnUpdate iteration, per spec.md §4.9.
package stopsignal

import "sync/atomic"

// Signal is a one-shot cooperative stop flag. The zero Signal is unset and
// ready to use.
type Signal struct {
	set atomic.Bool
}

// New returns an unset Signal.
func New() *Signal {
	return &Signal{}
}

// Set raises the flag. Idempotent.
func (s *Signal) Set() {
	s.set.Store(true)
}

// IsSet reports whether the flag has been raised.
func (s *Signal) IsSet() bool {
	return s.set.Load()
}
