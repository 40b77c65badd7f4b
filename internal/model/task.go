package model

import "KeyFold/internal/config"

// Task defines a single, self-contained keyed aggregation task.
// This is the interface for the "execution layer".
type Task interface {
	ProcessEvent(event *Event)
	Snapshot() interface{}
	// Merged collapses the task's current state into one map of per-key
	// accumulators, combining shard-level partials with the task's
	// merge-across-groups function.
	Merged() interface{}
	Reset()
	Name() string
	AlerterMsg(rules []config.AlerterRule) string
}
