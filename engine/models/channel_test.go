package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/basin-sim/basin-sim/engine"
)

func TestChannel_CoefficientsSumToOne(t *testing.T) {
	g := engine.NewGraph()
	ch, err := NewChannel(g, "reach", ChannelConfig{TravelTime: 1, Weight: 0.2, Inflows: 1})
	require.NoError(t, err)

	assert.InDelta(t, 1.0, ch.c0+ch.c1+ch.c2, 1e-12)
	assert.GreaterOrEqual(t, ch.c0, 0.0)
	assert.GreaterOrEqual(t, ch.c1, 0.0)
	assert.GreaterOrEqual(t, ch.c2, 0.0)
}

func TestChannel_EquilibriumPassesFlowThrough(t *testing.T) {
	// A reach already carrying the incoming flow stays at that flow.
	g := engine.NewGraph()
	newConstSource(g, "src", 5)
	ch, err := NewChannel(g, "reach", ChannelConfig{TravelTime: 1, Weight: 0.2, Inflows: 1, InitialFlow: 5})
	require.NoError(t, err)
	require.NoError(t, g.Connect("src", "flow", "reach", "inflow0"))
	outflow := record(t, g, ch, "outflow", 10)

	simulate(t, g, 10)

	for i, got := range readSeries(t, outflow, 10) {
		assert.InDelta(t, 5.0, got, 1e-9, "outflow at %d", i)
	}
}

func TestChannel_ConvergesToConstantInflow(t *testing.T) {
	g := engine.NewGraph()
	newConstSource(g, "src", 7)
	ch, err := NewChannel(g, "reach", ChannelConfig{TravelTime: 1, Weight: 0.2, Inflows: 1, InitialFlow: 0})
	require.NoError(t, err)
	require.NoError(t, g.Connect("src", "flow", "reach", "inflow0"))
	outflow := record(t, g, ch, "outflow", 40)

	simulate(t, g, 40)

	series := readSeries(t, outflow, 40)
	assert.InDelta(t, 7.0, series[39], 1e-6)
	for i := 1; i < 40; i++ {
		assert.GreaterOrEqual(t, series[i], series[i-1]-1e-12, "rising limb at %d", i)
	}
}

func TestChannel_AttenuatesAPulse(t *testing.T) {
	g := engine.NewGraph()
	newArraySource(g, "src", []float64{0, 10, 0, 0, 0, 0, 0, 0})
	ch, err := NewChannel(g, "reach", ChannelConfig{TravelTime: 1.5, Weight: 0.1, Inflows: 1})
	require.NoError(t, err)
	require.NoError(t, g.Connect("src", "flow", "reach", "inflow0"))
	outflow := record(t, g, ch, "outflow", 8)

	simulate(t, g, 8)

	series := readSeries(t, outflow, 8)
	peak := 0.0
	for _, v := range series {
		assert.GreaterOrEqual(t, v, 0.0)
		if v > peak {
			peak = v
		}
	}
	assert.Greater(t, peak, 0.0)
	assert.Less(t, peak, 10.0, "routing must attenuate the peak")
	assert.Less(t, series[7], peak/2, "the tail recedes")
}

func TestChannel_SumsSeveralInflows(t *testing.T) {
	g := engine.NewGraph()
	newConstSource(g, "left", 2)
	newConstSource(g, "right", 3)
	ch, err := NewChannel(g, "reach", ChannelConfig{TravelTime: 1, Weight: 0.2, Inflows: 2, InitialFlow: 5})
	require.NoError(t, err)
	require.NoError(t, g.Connect("left", "flow", "reach", "inflow0"))
	require.NoError(t, g.Connect("right", "flow", "reach", "inflow1"))
	outflow := record(t, g, ch, "outflow", 10)

	simulate(t, g, 10)

	// Combined inflow matches the initial flow, so the reach holds steady.
	for i, got := range readSeries(t, outflow, 10) {
		assert.InDelta(t, 5.0, got, 1e-9, "outflow at %d", i)
	}
}

func TestNewChannel_Validation(t *testing.T) {
	tests := []struct {
		name string
		cfg  ChannelConfig
		want string
	}{
		{"weight too large", ChannelConfig{TravelTime: 1, Weight: 0.7, Inflows: 1}, "outside [0,0.5]"},
		{"negative weight", ChannelConfig{TravelTime: 1, Weight: -0.1, Inflows: 1}, "outside [0,0.5]"},
		{"no inflows", ChannelConfig{TravelTime: 1, Weight: 0.2}, "at least one inflow"},
		{"negative initial", ChannelConfig{TravelTime: 1, Weight: 0.2, Inflows: 1, InitialFlow: -1}, "is negative"},
		{"travel time too long", ChannelConfig{TravelTime: 5, Weight: 0.4, Inflows: 1}, "violate 2KX <= 1 <= 2K(1-X)"},
		{"travel time too short", ChannelConfig{TravelTime: 0.3, Weight: 0.2, Inflows: 1}, "violate 2KX <= 1 <= 2K(1-X)"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g := engine.NewGraph()
			_, err := NewChannel(g, "reach", tt.cfg)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}
