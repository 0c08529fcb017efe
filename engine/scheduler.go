package engine

import (
	"errors"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
)

// Config sets a scheduler's execution resources. Results never depend on
// either knob; the zero value runs single-worker static.
type Config struct {
	Workers int    // goroutines per layer; values below 1 mean 1
	Policy  Policy // intra-layer distribution; empty means PolicyStatic
}

func (c Config) withDefaults() (Config, error) {
	if c.Workers < 1 {
		c.Workers = 1
	}
	switch c.Policy {
	case "":
		c.Policy = PolicyStatic
	case PolicyStatic, PolicyDynamic:
	default:
		return c, configErrorf("unknown execution policy %q", c.Policy)
	}
	return c, nil
}

// Scheduler owns the simulation loop over a frozen Graph. For every time
// index in a window it runs the pre-step callbacks, executes each layer in
// ascending order with a parallel sweep inside the layer, commits every
// node's state buffer, and runs the post-step callbacks. A node failure
// aborts the in-flight index before the commit pass, so observable state
// stays at the last completed index.
type Scheduler struct {
	graph *Graph
	cfg   Config

	layers [][]NodeID
	pre    []func(t int)
	post   []func(t int)
	obs    Observer

	stats  Stats
	closed bool
}

// NewScheduler validates the graph and freezes its topology: every reserved
// node slot filled, every inlet bound, every node placed in a layer.
// Validation failures are ConfigErrors; an unsatisfiable dependency order
// is a CycleError.
func NewScheduler(g *Graph, cfg Config) (*Scheduler, error) {
	cfg, err := cfg.withDefaults()
	if err != nil {
		return nil, err
	}
	for id, n := range g.nodes {
		if n == nil {
			return nil, configErrorf("node %q was never added to the graph", g.names[id])
		}
	}
	var unbound []string
	for _, n := range g.nodes {
		for _, inlet := range n.UnboundInlets() {
			unbound = append(unbound, n.Name()+"."+inlet)
		}
	}
	if len(unbound) > 0 {
		return nil, configErrorf("unbound inlets: %s", strings.Join(unbound, ", "))
	}
	layers, err := buildLayers(len(g.nodes), g.names, g.arena.edges)
	if err != nil {
		return nil, err
	}
	logrus.Infof("scheduler ready: %d nodes in %d layers, %d workers (%s)",
		len(g.nodes), len(layers), cfg.Workers, cfg.Policy)
	return &Scheduler{graph: g, cfg: cfg, layers: layers}, nil
}

// Layers returns the layer assignment, node ids ascending within each
// layer.
func (s *Scheduler) Layers() [][]NodeID {
	out := make([][]NodeID, len(s.layers))
	for i, layer := range s.layers {
		out[i] = append([]NodeID(nil), layer...)
	}
	return out
}

// AddPreStep registers fn to run before each index's first layer. Callbacks
// run on the orchestrating goroutine, never concurrently with nodes.
func (s *Scheduler) AddPreStep(fn func(t int)) { s.pre = append(s.pre, fn) }

// AddPostStep registers fn to run after each index's commit pass.
func (s *Scheduler) AddPostStep(fn func(t int)) { s.post = append(s.post, fn) }

// SetObserver routes scheduler notifications to o. Pass nil to detach.
func (s *Scheduler) SetObserver(o Observer) { s.obs = o }

// Stats returns a snapshot of activity so far.
func (s *Scheduler) Stats() Stats { return s.stats }

// Simulate advances every node through time indices [t0, t1). Series open
// when the window starts and close when it ends, successful or not, so
// consecutive windows glue into one continuous run: Simulate(a, b) followed
// by Simulate(b, c) leaves the same state and records as Simulate(a, c).
// The first node failure aborts the in-flight index without committing it
// and is returned as a StepError.
func (s *Scheduler) Simulate(t0, t1 int) error {
	if s.closed {
		return configErrorf("scheduler is closed")
	}
	if t1 < t0 {
		return configErrorf("window end %d precedes start %d", t1, t0)
	}
	start := time.Now()
	if err := s.graph.openSeries(); err != nil {
		return err
	}
	err := s.run(t0, t1)
	if cerr := s.graph.closeSeries(); err == nil {
		err = cerr
	}
	elapsed := time.Since(start)
	s.stats.Elapsed += elapsed
	if err != nil {
		return err
	}
	s.stats.Windows++
	if s.obs != nil {
		s.obs.WindowDone(t0, t1, elapsed)
	}
	logrus.Infof("window [%d,%d) done: %d steps in %s", t0, t1, t1-t0, elapsed)
	return nil
}

func (s *Scheduler) run(t0, t1 int) error {
	for t := t0; t < t1; t++ {
		stepStart := time.Now()
		for _, fn := range s.pre {
			fn(t)
		}
		for _, layer := range s.layers {
			err := runLayer(layer, s.cfg.Workers, s.cfg.Policy, func(id NodeID) error {
				return s.stepNode(id, t)
			})
			if err != nil {
				s.stats.Failures++
				var se *StepError
				if s.obs != nil && errors.As(err, &se) {
					s.obs.NodeFailed(t, se.Name)
				}
				logrus.Errorf("aborted index %d: %v", t, err)
				return err
			}
		}
		for _, n := range s.graph.nodes {
			if sb := n.State(); sb != nil {
				sb.Commit()
			}
		}
		s.stats.Steps++
		s.stats.NodeSteps += len(s.graph.nodes)
		for _, fn := range s.post {
			fn(t)
		}
		if s.obs != nil {
			s.obs.StepDone(t, time.Since(stepStart))
		}
		if logrus.IsLevelEnabled(logrus.DebugLevel) {
			logrus.Debugf("index %d committed (%d nodes)", t, len(s.graph.nodes))
		}
	}
	return nil
}

// stepNode drives one node through its phase sequence for index t,
// attaching identity and phase to whatever goes wrong.
func (s *Scheduler) stepNode(id NodeID, t int) error {
	n := s.graph.nodes[id]
	if err := n.LoadData(t); err != nil {
		return &StepError{T: t, Node: id, Name: n.Name(), Phase: PhaseLoad, Err: err}
	}
	if err := n.Run(t); err != nil {
		return &StepError{T: t, Node: id, Name: n.Name(), Phase: PhaseRun, Err: asComputeError(err)}
	}
	if err := n.SaveData(t); err != nil {
		return &StepError{T: t, Node: id, Name: n.Name(), Phase: PhaseSave, Err: err}
	}
	return nil
}

// Close releases every configured series. Further Simulate calls fail.
// Close is idempotent.
func (s *Scheduler) Close() error {
	if s.closed {
		return nil
	}
	s.closed = true
	return s.graph.closeSeries()
}
