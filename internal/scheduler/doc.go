// Package scheduler implements the hybrid Scheduler (C7): the topological
// order and reachability analysis of spec.md §4.7, and the Simple-only and
// nested-recursive EventProducer execution strategies built on top of them.
package scheduler
