package models

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/basin-sim/basin-sim/engine"
)

// constSource publishes a fixed value on its "flow" outlet every index.
type constSource struct {
	*engine.NodeCore
	value float64
	out   engine.Cell
}

func newConstSource(g *engine.Graph, name string, v float64) *constSource {
	core, err := g.NewCore(name, "const")
	if err != nil {
		panic(err)
	}
	s := &constSource{NodeCore: core, value: v}
	s.out = core.NewOutlet("flow")
	g.Add(s)
	return s
}

func (s *constSource) Run(int) error {
	s.out.Set(s.value)
	return nil
}

// arraySource publishes values[t] on its "flow" outlet, zero past the end.
type arraySource struct {
	*engine.NodeCore
	values []float64
	out    engine.Cell
}

func newArraySource(g *engine.Graph, name string, values []float64) *arraySource {
	core, err := g.NewCore(name, "array")
	if err != nil {
		panic(err)
	}
	s := &arraySource{NodeCore: core, values: values}
	s.out = core.NewOutlet("flow")
	g.Add(s)
	return s
}

func (s *arraySource) Run(t int) error {
	v := 0.0
	if t >= 0 && t < len(s.values) {
		v = s.values[t]
	}
	s.out.Set(v)
	return nil
}

// memorySeries configures a scalar memory series covering [0, length).
func memorySeries(t *testing.T, g *engine.Graph, key string, length int) engine.Series {
	t.Helper()
	s, err := g.ConfigureSeries(key, engine.SeriesSpec{Mode: engine.ModeMemory, Length: length})
	require.NoError(t, err)
	return s
}

// forcingSeries prefills a memory series with the given values.
func forcingSeries(t *testing.T, g *engine.Graph, key string, values []float64) engine.Series {
	t.Helper()
	s := memorySeries(t, g, key, len(values))
	for i, v := range values {
		require.NoError(t, engine.WriteScalar(s, i, v))
	}
	return s
}

// record routes one of the node's recordable variables to a fresh memory
// series and returns it.
func record(t *testing.T, g *engine.Graph, n engine.Node, variable string, length int) engine.Series {
	t.Helper()
	s := memorySeries(t, g, n.Name()+"."+variable, length)
	require.NoError(t, n.SetSeries(variable, s))
	return s
}

// simulate builds a scheduler, runs [0, steps), and closes it.
func simulate(t *testing.T, g *engine.Graph, steps int) {
	t.Helper()
	sched, err := engine.NewScheduler(g, engine.Config{})
	require.NoError(t, err)
	require.NoError(t, sched.Simulate(0, steps))
	require.NoError(t, sched.Close())
}

// readSeries collects records [0, n) of a scalar series.
func readSeries(t *testing.T, s engine.Series, n int) []float64 {
	t.Helper()
	out := make([]float64, n)
	for i := range out {
		v, err := engine.ReadScalar(s, i)
		require.NoError(t, err)
		out[i] = v
	}
	return out
}

// constant repeats v n times, a shorthand for flat forcing.
func constant(v float64, n int) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = v
	}
	return out
}
