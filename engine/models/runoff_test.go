package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/basin-sim/basin-sim/engine"
)

func defaultRunoffConfig() RunoffConfig {
	return RunoffConfig{
		Capacity:    100,
		CurveX:      []float64{0, 1},
		CurveY:      []float64{0, 1},
		StressMid:   0.5,
		StressSteep: 8,
		Initial:     50,
	}
}

func TestRunoff_MassBalanceHoldsEveryStep(t *testing.T) {
	g := engine.NewGraph()
	precip := []float64{5, 0, 12, 3, 0, 0, 25, 1}
	pet := constant(2, len(precip))
	cfg := defaultRunoffConfig()

	r, err := NewRunoff(g, "col", cfg,
		forcingSeries(t, g, "col.precip", precip),
		forcingSeries(t, g, "col.pet", pet))
	require.NoError(t, err)
	runoff := record(t, g, r, "runoff", len(precip))
	aet := record(t, g, r, "aet", len(precip))
	moisture := record(t, g, r, "moisture", len(precip))

	simulate(t, g, len(precip))

	q := readSeries(t, runoff, len(precip))
	e := readSeries(t, aet, len(precip))
	s := readSeries(t, moisture, len(precip))
	prev := cfg.Initial
	for i := range precip {
		assert.InDelta(t, precip[i]-q[i]-e[i], s[i]-prev, 1e-10, "water balance at %d", i)
		assert.GreaterOrEqual(t, q[i], 0.0)
		assert.GreaterOrEqual(t, e[i], 0.0)
		assert.GreaterOrEqual(t, s[i], 0.0)
		assert.LessOrEqual(t, s[i], cfg.Capacity)
		prev = s[i]
	}
}

func TestRunoff_SaturatedFractionSplitsRain(t *testing.T) {
	// With the identity capacity curve the saturated fraction equals
	// relative storage, so half-full soil sheds half the rain.
	g := engine.NewGraph()
	r, err := NewRunoff(g, "col", defaultRunoffConfig(),
		forcingSeries(t, g, "col.precip", []float64{8}),
		forcingSeries(t, g, "col.pet", []float64{0}))
	require.NoError(t, err)
	runoff := record(t, g, r, "runoff", 1)

	simulate(t, g, 1)

	assert.InDelta(t, 4.0, readSeries(t, runoff, 1)[0], 1e-12)
}

func TestRunoff_ExcessOverCapacitySpills(t *testing.T) {
	g := engine.NewGraph()
	cfg := RunoffConfig{
		Capacity:    10,
		CurveX:      []float64{0, 1},
		CurveY:      []float64{0, 0}, // nothing sheds directly, everything infiltrates
		StressMid:   0.5,
		StressSteep: 8,
		Initial:     10,
	}
	r, err := NewRunoff(g, "col", cfg,
		forcingSeries(t, g, "col.precip", []float64{100}),
		forcingSeries(t, g, "col.pet", []float64{0}))
	require.NoError(t, err)
	runoff := record(t, g, r, "runoff", 1)
	moisture := record(t, g, r, "moisture", 1)

	simulate(t, g, 1)

	assert.InDelta(t, 100.0, readSeries(t, runoff, 1)[0], 1e-12)
	assert.Equal(t, 10.0, readSeries(t, moisture, 1)[0])
}

func TestRunoff_WetterSoilEvaporatesMore(t *testing.T) {
	aetAt := func(initial float64) float64 {
		g := engine.NewGraph()
		cfg := defaultRunoffConfig()
		cfg.Initial = initial
		r, err := NewRunoff(g, "col", cfg,
			forcingSeries(t, g, "col.precip", []float64{0}),
			forcingSeries(t, g, "col.pet", []float64{5}))
		require.NoError(t, err)
		aet := record(t, g, r, "aet", 1)
		simulate(t, g, 1)
		return readSeries(t, aet, 1)[0]
	}

	dry := aetAt(20)
	wet := aetAt(80)
	assert.Greater(t, wet, dry)
	assert.Greater(t, dry, 0.0)
}

func TestRunoff_RechargeDrainsStorage(t *testing.T) {
	g := engine.NewGraph()
	cfg := defaultRunoffConfig()
	cfg.RechargeCoeff = 0.1
	r, err := NewRunoff(g, "col", cfg,
		forcingSeries(t, g, "col.precip", constant(0, 5)),
		forcingSeries(t, g, "col.pet", constant(0, 5)))
	require.NoError(t, err)
	moisture := record(t, g, r, "moisture", 5)

	simulate(t, g, 5)

	expected := cfg.Initial
	for i, got := range readSeries(t, moisture, 5) {
		expected = expected - 0.1*expected
		assert.Equal(t, expected, got, "moisture at %d", i)
	}
	// The recharge outlet still carries the final step's flux.
	assert.InDelta(t, 0.1*expected/0.9, r.rechargeOut.Value(), 1e-12)
}

func TestRunoff_NegativeForcingAborts(t *testing.T) {
	g := engine.NewGraph()
	_, err := NewRunoff(g, "col", defaultRunoffConfig(),
		forcingSeries(t, g, "col.precip", []float64{1, 1, -1, 1}),
		forcingSeries(t, g, "col.pet", constant(0, 4)))
	require.NoError(t, err)

	sched, err := engine.NewScheduler(g, engine.Config{})
	require.NoError(t, err)
	defer sched.Close()

	err = sched.Simulate(0, 4)
	var se *engine.StepError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, 2, se.T)
	assert.Equal(t, engine.PhaseRun, se.Phase)
	var ce *engine.ComputeError
	assert.ErrorAs(t, err, &ce)
}

func TestRunoff_ForcingShorterThanWindowAborts(t *testing.T) {
	g := engine.NewGraph()
	_, err := NewRunoff(g, "col", defaultRunoffConfig(),
		forcingSeries(t, g, "col.precip", constant(1, 2)),
		forcingSeries(t, g, "col.pet", constant(0, 2)))
	require.NoError(t, err)

	sched, err := engine.NewScheduler(g, engine.Config{})
	require.NoError(t, err)
	defer sched.Close()

	err = sched.Simulate(0, 4)
	var se *engine.StepError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, 2, se.T)
	assert.Equal(t, engine.PhaseLoad, se.Phase)
}

func TestNewRunoff_Validation(t *testing.T) {
	g := engine.NewGraph()
	precip := forcingSeries(t, g, "precip", []float64{1})
	pet := forcingSeries(t, g, "pet", []float64{1})

	base := defaultRunoffConfig()
	tests := []struct {
		name   string
		mutate func(*RunoffConfig)
		want   string
	}{
		{"zero capacity", func(c *RunoffConfig) { c.Capacity = 0 }, "capacity must be positive"},
		{"recharge above one", func(c *RunoffConfig) { c.RechargeCoeff = 1.5 }, "outside [0,1]"},
		{"initial above capacity", func(c *RunoffConfig) { c.Initial = 200 }, "outside [0,100]"},
		{"curve too short", func(c *RunoffConfig) { c.CurveX, c.CurveY = []float64{0}, []float64{0} }, "at least 2 knots"},
		{"curve not increasing", func(c *RunoffConfig) { c.CurveX = []float64{1, 0} }, "strictly increasing"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := base
			tt.mutate(&cfg)
			_, err := NewRunoff(g, "bad", cfg, precip, pet)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestNewRunoff_RequiresForcingSeries(t *testing.T) {
	g := engine.NewGraph()
	_, err := NewRunoff(g, "col", defaultRunoffConfig(), nil, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "series are required")
}
