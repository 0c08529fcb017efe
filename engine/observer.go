package engine

import "time"

// Observer receives scheduler notifications, typically for metrics export.
// The scheduler calls it from the orchestrating goroutine only, never
// concurrently with node execution.
type Observer interface {
	// StepDone fires after index t commits.
	StepDone(t int, d time.Duration)
	// NodeFailed fires when a node aborts index t.
	NodeFailed(t int, node string)
	// WindowDone fires after a Simulate window completes without error.
	WindowDone(t0, t1 int, d time.Duration)
}
