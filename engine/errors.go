package engine

import (
	"errors"
	"fmt"
	"strings"
)

// Phase names identify which node callback produced a StepError.
const (
	PhaseLoad = "load_data"
	PhaseRun  = "run"
	PhaseSave = "save_data"
)

// ConfigError reports an invalid graph, binding, or store configuration.
// It is always raised before any time index executes.
type ConfigError struct {
	Reason string
}

func (e *ConfigError) Error() string { return "configuration: " + e.Reason }

func configErrorf(format string, args ...any) *ConfigError {
	return &ConfigError{Reason: fmt.Sprintf(format, args...)}
}

// CycleError reports that the value-link binding graph contains a dependency
// cycle, so no layer assignment exists. Nodes holds the names of every node
// on or downstream of a cycle.
type CycleError struct {
	Nodes []string
}

func (e *CycleError) Error() string {
	return "cyclic dependency among value links: " + strings.Join(e.Nodes, ", ")
}

// IOError reports a failed series file operation: open, read, or write.
type IOError struct {
	Op   string
	Path string
	Err  error
}

func (e *IOError) Error() string { return fmt.Sprintf("%s %s: %v", e.Op, e.Path, e.Err) }

func (e *IOError) Unwrap() error { return e.Err }

// ComputeError reports a domain failure raised by a node's Run, such as a
// diverging solver or parameters driven out of their admissible range.
type ComputeError struct {
	Err error
}

func (e *ComputeError) Error() string { return "compute: " + e.Err.Error() }

func (e *ComputeError) Unwrap() error { return e.Err }

// asComputeError classifies an error coming out of a node's Run. Errors that
// already carry a kind pass through unchanged.
func asComputeError(err error) error {
	var ce *ComputeError
	var ioe *IOError
	if errors.As(err, &ce) || errors.As(err, &ioe) {
		return err
	}
	return &ComputeError{Err: err}
}

// StepError wraps a node failure with the time index and node identity at
// which it occurred. The index it names was aborted without committing.
type StepError struct {
	T     int
	Node  NodeID
	Name  string
	Phase string
	Err   error
}

func (e *StepError) Error() string {
	return fmt.Sprintf("t=%d node %q (%s): %v", e.T, e.Name, e.Phase, e.Err)
}

func (e *StepError) Unwrap() error { return e.Err }
